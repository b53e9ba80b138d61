// Package pattern resolves path and URL templates of the form
// "{media_path_prefix}/image/{year}/{month}/{day}/{filename}.{extension}"
// against a flat context of named values.
package pattern

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Context contains placeholder values used for resolution.
// All values are plain strings; numeric values must be formatted
// by the caller (see WithDate for dates).
type Context map[string]string

// With returns a copy of this context with an additional entry.
func (c Context) With(key, value string) Context {
	next := make(Context, len(c)+1)
	for k, v := range c {
		next[k] = v
	}

	next[key] = value
	return next
}

// WithDate fills year, month and day entries.
// Month and day are zero-padded to two digits.
func (c Context) WithDate(t time.Time) Context {
	return c.
		With("year", fmt.Sprintf("%d", t.Year())).
		With("month", fmt.Sprintf("%02d", int(t.Month()))).
		With("day", fmt.Sprintf("%02d", t.Day()))
}

// WithFile fills filename and extension entries.
// The extension is passed without a leading dot.
func (c Context) WithFile(filename, extension string) Context {
	return c.
		With("filename", filename).
		With("extension", extension)
}

// MissingPlaceholderError is returned when a pattern references
// a key which is not present in the context.
type MissingPlaceholderError struct {
	Pattern string
	Key     string
}

func (e *MissingPlaceholderError) Error() string {
	return fmt.Sprintf("pattern %q references missing placeholder %q", e.Pattern, e.Key)
}

// Resolve expands all {placeholder} tokens in the pattern with values
// from the context. It is a pure string transformation: the result
// never contains unresolved tokens, and no filesystem access happens here.
func Resolve(pattern string, ctx Context) (string, error) {
	var b strings.Builder
	rest := pattern
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}

		b.WriteString(rest[:open])
		rest = rest[open+1:]
		closing := strings.IndexByte(rest, '}')
		if closing < 0 {
			return "", errors.Errorf("pattern %q contains unterminated placeholder", pattern)
		}

		key := rest[:closing]
		if key == "" {
			return "", errors.Errorf("pattern %q contains empty placeholder", pattern)
		}

		value, ok := ctx[key]
		if !ok {
			return "", &MissingPlaceholderError{Pattern: pattern, Key: key}
		}

		b.WriteString(value)
		rest = rest[closing+1:]
	}
}
