// Package loose implements the on-disk, one-file-per-reference layout
// the transaction engine validates its pre-conditions against. It maps
// a reference name to its path and its reflog path, and parses a ref
// file's contents into a refname.Target.
//
// Out of scope here (delegated to the wider object database and the
// packed-refs reader): peeling a symbolic target all the way to an
// object id, and reading packed refs.
package loose

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/orneryd/refstore/refname"
)

// Store maps reference names to their on-disk locations rooted at
// Base, and parses loose ref file contents.
type Store struct {
	// Base is the root directory of the store, e.g. ".git".
	Base string
	// HashWidth is the object id width (refname.Sha1Len or
	// refname.Sha256Len) this store's hex-encoded peeled refs use.
	HashWidth int
}

// New returns a Store rooted at base using hashWidth-byte object ids.
func New(base string, hashWidth int) *Store {
	return &Store{Base: base, HashWidth: hashWidth}
}

// ReferencePath returns the absolute path of the loose ref file for
// name, relative to Base.
func (s *Store) ReferencePath(name refname.FullName) string {
	return filepath.Join(s.Base, filepath.FromSlash(name.String()))
}

// ReflogPath returns the absolute path of the reflog file for name.
func (s *Store) ReflogPath(name refname.FullName) string {
	return filepath.Join(s.Base, "logs", filepath.FromSlash(name.String()))
}

// DecodeError is returned by Parse when a ref file's content is
// neither "ref: <name>" nor a lowercase hex object id of the store's
// configured width.
type DecodeError struct {
	Path    string
	Content string
}

func (e *DecodeError) Error() string {
	return "loose: " + e.Path + ": content is neither a symbolic ref nor a valid object id"
}

// RefContents reads the raw bytes of the loose ref file for name. It
// returns ok=false, no error, if the file does not exist.
func (s *Store) RefContents(name refname.FullName) (content []byte, ok bool, err error) {
	data, err := os.ReadFile(s.ReferencePath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Parse interprets raw loose ref file content, stripping one trailing
// "\n" and then one trailing "\r", into a refname.Target. Any content not matching
// "ref: <validated-name>" or a lowercase hex digest of the store's
// hash width is a *DecodeError.
func (s *Store) Parse(path string, content []byte) (refname.Target, error) {
	text := strings.TrimSuffix(string(content), "\n")
	text = strings.TrimSuffix(text, "\r")

	const symPrefix = "ref: "
	if strings.HasPrefix(text, symPrefix) {
		rest := strings.TrimPrefix(text, symPrefix)
		name, err := refname.NewFull(rest)
		if err != nil {
			return refname.Target{}, &DecodeError{Path: path, Content: text}
		}
		return refname.Symbolic(name), nil
	}

	if len(text) == s.HashWidth*2 && isLowerHex(text) {
		id, err := decodeHex(text)
		if err != nil {
			return refname.Target{}, &DecodeError{Path: path, Content: text}
		}
		return refname.Peeled(id), nil
	}

	return refname.Target{}, &DecodeError{Path: path, Content: text}
}

// Read reads and parses the loose ref file for name. A decode error is
// returned verbatim; callers needing "file exists but unreadable" to
// behave as "absent" must special-case *DecodeError themselves (this
// is what the transaction engine's pre-condition checks do).
func (s *Store) Read(name refname.FullName) (target refname.Target, ok bool, err error) {
	content, exists, err := s.RefContents(name)
	if err != nil {
		return refname.Target{}, false, err
	}
	if !exists {
		return refname.Target{}, false, nil
	}
	target, err = s.Parse(s.ReferencePath(name), content)
	if err != nil {
		return refname.Target{}, false, err
	}
	return target, true, nil
}

// Encode renders a Target in the on-disk loose ref format: a
// lowercase hex object id followed by a newline for a Peeled target,
// or "ref: <name>\n" for a Symbolic one.
func (s *Store) Encode(t refname.Target) []byte {
	switch t.Kind() {
	case refname.KindPeeled:
		id, _ := t.ObjectID()
		return []byte(id.String() + "\n")
	case refname.KindSymbolic:
		referent, _ := t.Referent()
		return []byte("ref: " + referent.String() + "\n")
	default:
		return nil
	}
}

func isLowerHex(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return true
}

func decodeHex(s string) (refname.ObjectID, error) {
	out := make(refname.ObjectID, len(s)/2)
	for i := 0; i < len(out); i++ {
		hi, err := hexNibble(s[i*2])
		if err != nil {
			return nil, err
		}
		lo, err := hexNibble(s[i*2+1])
		if err != nil {
			return nil, err
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexNibble(b byte) (byte, error) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', nil
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, nil
	default:
		return 0, &DecodeError{Content: string(b)}
	}
}
