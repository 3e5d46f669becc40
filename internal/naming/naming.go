package naming

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// ErrUnsafeName is returned for tokens or names that would not stay a plain
// file name directly inside the managed directory.
var ErrUnsafeName = errors.New("unsafe file name")

// fieldDelimiter always splits names into fields, in addition to the separator
const fieldDelimiter = "."

// Namer builds target file names from tokens and compares names field-wise
type Namer struct {
	Separator string
	Extension string
}

// New returns a Namer for the given separator and extension
func New(separator, extension string) Namer {
	return Namer{Separator: separator, Extension: extension}
}

// Targets returns every name of the form join(tokens[i..=j], separator) + extension
// for 0 <= i <= j < len(tokens), in generation order with duplicates dropped.
// For example: [a b] -> a.txt, a_b.txt, b.txt
func (n Namer) Targets(tokens []string) []string {
	names := make([]string, 0, len(tokens)*(len(tokens)+1)/2)
	seen := make(map[string]bool, cap(names))

	var accum strings.Builder
	for i := range tokens {
		accum.Reset()
		for j := i; j < len(tokens); j++ {
			accum.WriteString(tokens[j])
			name := accum.String() + n.Extension
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
			accum.WriteString(n.Separator)
		}
	}

	return names
}

// Fields splits name on the separator and on periods and returns the fields
// sorted. Empty fields are kept, so "a__b.txt" and "a_b.txt" differ.
func (n Namer) Fields(name string) []string {
	if n.Separator != "" && n.Separator != fieldDelimiter {
		name = strings.ReplaceAll(name, n.Separator, fieldDelimiter)
	}
	fields := strings.Split(name, fieldDelimiter)
	slices.Sort(fields)
	return fields
}

// Key returns a string that is equal for two names exactly when SameFile
// reports true for them. Fields never contain a period, so joining on one is
// unambiguous.
func (n Namer) Key(name string) string {
	return strings.Join(n.Fields(name), fieldDelimiter)
}

// SameFile reports whether a and b consist of the same multiset of fields,
// ignoring their order
func (n Namer) SameFile(a, b string) bool {
	return slices.Equal(n.Fields(a), n.Fields(b))
}

// CheckToken rejects tokens containing a path separator or a NUL byte
func CheckToken(token string) error {
	if strings.ContainsAny(token, "/\\\x00") {
		return fmt.Errorf("%w: token %q contains a path separator or NUL byte", ErrUnsafeName, token)
	}
	return nil
}

// CheckName rejects names that are not a single path element
func CheckName(name string) error {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name ||
		strings.ContainsAny(name, "/\\\x00") {
		return fmt.Errorf("%w: %q", ErrUnsafeName, name)
	}
	return nil
}
