// Package hprof decodes Java HPROF heap dump files.
//
// The pipeline is: a framed record stream over the raw file, payload-scoped
// cursors for each record, a symbol table and class registry built as
// records arrive, and a two-pass object resolver that buffers instance
// dumps until the enclosing segment group closes so that class definitions
// appearing later in the stream still apply.
//
// Decoded output is delivered through the Sink interface; see Scanner.
package hprof
