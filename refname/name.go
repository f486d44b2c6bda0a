// Package refname validates reference names and models reference targets.
//
// A reference name is a path-like byte string used to address a named
// pointer in a content-addressed object store (e.g. "refs/heads/main").
// Names come in two validated forms: FullName, which must be fully
// qualified, and PartialName, which may be a short form a caller
// expects the store to expand (e.g. "main").
package refname

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidName is wrapped by every validation failure returned from
// NewFull and NewPartial.
var ErrInvalidName = errors.New("refname: invalid reference name")

// FullName is a validated, fully-qualified reference name such as
// "refs/heads/main" or "HEAD". It is immutable once constructed.
type FullName struct {
	path string
}

// PartialName is a validated reference name that may be a short form,
// such as "main", which a store is expected to expand against its
// configured search prefixes.
type PartialName struct {
	path string
}

// NewFull validates s as a fully-qualified reference name.
func NewFull(s string) (FullName, error) {
	if err := validate(s, true); err != nil {
		return FullName{}, err
	}
	return FullName{path: s}, nil
}

// NewPartial validates s as a partial reference name.
func NewPartial(s string) (PartialName, error) {
	if err := validate(s, false); err != nil {
		return PartialName{}, err
	}
	return PartialName{path: s}, nil
}

// String returns the validated path form of the name.
func (n FullName) String() string { return n.path }

// String returns the validated path form of the name.
func (n PartialName) String() string { return n.path }

// IsZero reports whether n was never assigned by NewFull.
func (n FullName) IsZero() bool { return n.path == "" }

// Equal reports whether two full names refer to the same path.
func (n FullName) Equal(o FullName) bool { return n.path == o.path }

// validate enforces the shared grammar rules for both full and partial
// names. fullyQualified additionally forbids names that clearly are
// not rooted under a known namespace and requires at least one path
// component beyond a bare word is still accepted (e.g. "HEAD").
func validate(s string, fullyQualified bool) error {
	if s == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	if strings.ContainsRune(s, 0) {
		return fmt.Errorf("%w: contains a NUL byte", ErrInvalidName)
	}
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("%w: contains a control character", ErrInvalidName)
		}
	}
	if strings.HasPrefix(s, "/") || strings.HasSuffix(s, "/") {
		return fmt.Errorf("%w: leading or trailing slash", ErrInvalidName)
	}
	if strings.Contains(s, "//") {
		return fmt.Errorf("%w: contains an empty path component", ErrInvalidName)
	}
	components := strings.Split(s, "/")
	for _, c := range components {
		if err := validateComponent(c); err != nil {
			return err
		}
	}
	if fullyQualified {
		// A single uppercase word such as "HEAD" is fully qualified on
		// its own; anything else must live under a "refs/" (or similar)
		// namespace so it cannot be confused with a short, partial name.
		if len(components) == 1 && !isAllUpper(components[0]) {
			return fmt.Errorf("%w: %q is not fully qualified", ErrInvalidName, s)
		}
	}
	return nil
}

func validateComponent(c string) error {
	if c == "" {
		return fmt.Errorf("%w: contains an empty path component", ErrInvalidName)
	}
	if c == "." || c == ".." {
		return fmt.Errorf("%w: contains a %q path segment", ErrInvalidName, c)
	}
	if strings.HasSuffix(c, ".lock") {
		return fmt.Errorf("%w: component %q ends in .lock", ErrInvalidName, c)
	}
	if strings.HasPrefix(c, ".") || strings.HasSuffix(c, ".") {
		return fmt.Errorf("%w: component %q starts or ends with a dot", ErrInvalidName, c)
	}
	if strings.ContainsAny(c, " ~^:?*[\\") {
		return fmt.Errorf("%w: component %q contains a disallowed character", ErrInvalidName, c)
	}
	if strings.Contains(c, "..") {
		return fmt.Errorf("%w: component %q contains '..'", ErrInvalidName, c)
	}
	if strings.Contains(c, "@{") {
		return fmt.Errorf("%w: component %q contains '@{'", ErrInvalidName, c)
	}
	return nil
}

func isAllUpper(s string) bool {
	if s == "" {
		return false
	}
	return bytes.Equal([]byte(s), bytes.ToUpper([]byte(s)))
}
