package hprof

import (
	"fmt"
	"strings"
)

// NormalizeClassName converts a JVM internal class name into the Java
// source form: slashes become dots and array descriptors are rendered
// with bracket suffixes, e.g. "[Ljava/lang/String;" -> "java.lang.String[]"
// and "[[I" -> "int[][]".
func NormalizeClassName(name string) string {
	if name == "" {
		return name
	}
	if name[0] == '[' {
		return parseArrayDescriptor(name)
	}
	return strings.ReplaceAll(name, "/", ".")
}

// parseArrayDescriptor renders an array type descriptor.
func parseArrayDescriptor(desc string) string {
	dims := 0
	for dims < len(desc) && desc[dims] == '[' {
		dims++
	}
	if dims == len(desc) {
		return strings.ReplaceAll(desc, "/", ".")
	}

	var element string
	rest := desc[dims:]
	switch rest[0] {
	case 'L':
		// object element: "Lpkg/Name;"
		element = strings.ReplaceAll(strings.TrimSuffix(rest[1:], ";"), "/", ".")
	case 'Z':
		element = "boolean"
	case 'B':
		element = "byte"
	case 'C':
		element = "char"
	case 'S':
		element = "short"
	case 'I':
		element = "int"
	case 'J':
		element = "long"
	case 'F':
		element = "float"
	case 'D':
		element = "double"
	default:
		element = strings.ReplaceAll(rest, "/", ".")
	}

	return element + strings.Repeat("[]", dims)
}

// PrimitiveArrayTypeName returns the rendered type of a primitive array
// with the given element type, e.g. "int[]".
func PrimitiveArrayTypeName(t BasicType) string {
	return t.String() + "[]"
}

func hexTagName(tag uint8) string {
	return fmt.Sprintf("0x%02X", tag)
}
