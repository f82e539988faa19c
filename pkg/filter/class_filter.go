// Package filter provides class name filtering for heap dump output.
package filter

import (
	"strings"
	"sync"
)

// ClassCategory represents the category of a class.
type ClassCategory int

const (
	// CategoryUnknown indicates the class category is unknown.
	CategoryUnknown ClassCategory = iota
	// CategoryPrimitive indicates primitive types and their arrays.
	CategoryPrimitive
	// CategoryJDK indicates JDK internal classes.
	CategoryJDK
	// CategoryBusiness indicates application/user code classes.
	CategoryBusiness
)

// String returns the string representation of the category.
func (c ClassCategory) String() string {
	switch c {
	case CategoryPrimitive:
		return "primitive"
	case CategoryJDK:
		return "jdk"
	case CategoryBusiness:
		return "business"
	default:
		return "unknown"
	}
}

var primitiveArrays = map[string]bool{
	"boolean[]": true,
	"byte[]":    true,
	"char[]":    true,
	"short[]":   true,
	"int[]":     true,
	"long[]":    true,
	"float[]":   true,
	"double[]":  true,
}

var jdkPrefixes = []string{
	"java.",
	"javax.",
	"jdk.",
	"sun.",
	"com.sun.",
}

// ClassFilter selects which classes appear in dump output. It is safe for
// concurrent use.
type ClassFilter struct {
	mu sync.RWMutex

	// pattern is a substring match on the normalized class name;
	// empty matches everything
	pattern string

	skipJDK bool

	cache map[string]ClassCategory
}

// NewClassFilter creates a filter that matches every class.
func NewClassFilter() *ClassFilter {
	return &ClassFilter{cache: make(map[string]ClassCategory)}
}

// SetPattern restricts matching to class names containing the substring.
func (f *ClassFilter) SetPattern(pattern string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pattern = pattern
}

// SetSkipJDK excludes JDK classes and primitive arrays.
func (f *ClassFilter) SetSkipJDK(skip bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.skipJDK = skip
}

// Matches reports whether a class should appear in output.
func (f *ClassFilter) Matches(className string) bool {
	f.mu.RLock()
	pattern, skipJDK := f.pattern, f.skipJDK
	f.mu.RUnlock()

	if pattern != "" && !strings.Contains(className, pattern) {
		return false
	}
	if skipJDK {
		switch f.Classify(className) {
		case CategoryJDK, CategoryPrimitive:
			return false
		}
	}
	return true
}

// Classify returns the category of a class name. Results are cached;
// dumps reference the same classes millions of times.
func (f *ClassFilter) Classify(className string) ClassCategory {
	f.mu.RLock()
	if c, ok := f.cache[className]; ok {
		f.mu.RUnlock()
		return c
	}
	f.mu.RUnlock()

	c := classifyUncached(className)

	f.mu.Lock()
	if len(f.cache) < 10000 {
		f.cache[className] = c
	}
	f.mu.Unlock()
	return c
}

func classifyUncached(className string) ClassCategory {
	if className == "" {
		return CategoryUnknown
	}
	if primitiveArrays[className] {
		return CategoryPrimitive
	}
	base := strings.TrimSuffix(className, "[]")
	for strings.HasSuffix(base, "[]") {
		base = strings.TrimSuffix(base, "[]")
	}
	for _, prefix := range jdkPrefixes {
		if strings.HasPrefix(base, prefix) {
			return CategoryJDK
		}
	}
	return CategoryBusiness
}

// IsJDK reports whether the class belongs to the JDK.
func (f *ClassFilter) IsJDK(className string) bool {
	return f.Classify(className) == CategoryJDK
}
