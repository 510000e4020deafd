// Package naming turns user supplied variable and node names into HLSL
// identifiers.
package naming

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var separators = strings.NewReplacer(
	" ", "",
	"\\", "_",
	"/", "_",
	",", "_",
	"-", "_",
	":", "_",
)

// Sanitize strips characters that cannot appear in a symbol. Namespace dots
// are kept unless collapse is set, in which case they become underscores.
func Sanitize(name string, collapse bool) string {
	s := separators.Replace(norm.NFC.String(name))
	if collapse {
		s = strings.ReplaceAll(s, ".", "_")
	}
	return s
}

// reserved holds HLSL keywords and type names a generated local may
// collide with.
var reserved = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"bool", "break", "case", "cbuffer", "const", "continue", "default",
		"discard", "do", "else", "false", "float", "float2", "float3", "float4",
		"float4x4", "for", "half", "if", "in", "inline", "inout", "int", "int2",
		"int3", "int4", "matrix", "out", "register", "return", "sampler",
		"static", "struct", "switch", "texture", "true", "typedef", "uint",
		"uniform", "vector", "void", "while",
	} {
		reserved[w] = struct{}{}
	}
}

// IsReserved reports HLSL keywords, compared case-insensitively.
func IsReserved(name string) bool {
	_, ok := reserved[strings.ToLower(name)]
	return ok
}

// Escape prefixes reserved words with an underscore.
func Escape(name string) string {
	if name == "" {
		return "_unnamed"
	}
	if IsReserved(name) {
		return "_" + name
	}
	return name
}

// Counter hands out unique local symbol names within one translation.
// The first request for a base returns it unchanged; later requests get a
// numeric suffix starting at 1.
type Counter struct {
	counts map[string]uint32
}

func NewCounter() *Counter { return &Counter{counts: make(map[string]uint32)} }

// Unique returns the next free symbol for base.
func (c *Counter) Unique(base string) string {
	s := Escape(Sanitize(base, false))
	n, ok := c.counts[s]
	if !ok {
		c.counts[s] = 1
		return s
	}
	c.counts[s] = n + 1
	return s + strconv.FormatUint(uint64(n), 10)
}

// Len is the number of distinct bases seen.
func (c *Counter) Len() int { return len(c.counts) }
