// Package reflog implements the append-only log of changes made to a
// single reference. Each line records where the reference pointed
// before and after a change, who made it, and an optional message:
//
//	<previous-oid> <new-oid> <committer>\t<message>\n
//
// A reflog file is created lazily, the first time a change to its
// reference is eligible to be logged. Whether a given change is
// eligible is governed by a Policy: references under configured
// autocreate prefixes (and "HEAD") get a log the first time they
// change; anything else only gets one if the caller forces it.
package reflog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/orneryd/refstore/refname"
)

// Policy controls when Append is willing to create a reflog file that
// does not already exist, and whether logging is globally suppressed.
type Policy struct {
	// Disabled suppresses all appends unless a caller forces one via
	// Append's forceCreate argument.
	Disabled bool
	// AutoCreatePrefixes lists name prefixes (e.g. "refs/heads/") whose
	// first change lazily creates a reflog even when one doesn't yet
	// exist. "HEAD" is always treated as an implicit autocreate name.
	AutoCreatePrefixes []string
}

func (p Policy) autoCreates(name refname.FullName) bool {
	s := name.String()
	if s == "HEAD" {
		return true
	}
	for _, prefix := range p.AutoCreatePrefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

// Writer appends to and removes reflog files rooted under a store's
// logs/ directory.
type Writer struct {
	Base   string
	Policy Policy
}

// New returns a Writer rooted at base (the same root passed to the
// loose ref store) applying policy.
func New(base string, policy Policy) *Writer {
	return &Writer{Base: base, Policy: policy}
}

func (w *Writer) path(name refname.FullName) string {
	return filepath.Join(w.Base, "logs", filepath.FromSlash(name.String()))
}

// Append records a single reflog line for name, moving from "from" to
// "to". forceCreate causes the file to be created (and logging to
// proceed) even when the reflog is globally disabled or name would
// not otherwise autocreate one. Append is a no-op, not an error, when
// the change is not eligible to be logged under the current policy.
func (w *Writer) Append(name refname.FullName, from, to refname.ObjectID, committerLine, message string, forceCreate bool) error {
	path := w.path(name)

	_, statErr := os.Stat(path)
	exists := statErr == nil

	if !exists && !forceCreate && !w.Policy.autoCreates(name) {
		return nil
	}
	if w.Policy.Disabled && !forceCreate {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("reflog: creating directory for %s: %w", name.String(), err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("reflog: opening %s: %w", name.String(), err)
	}
	defer f.Close()

	line := fmt.Sprintf("%s %s %s\t%s\n", from.String(), to.String(), committerLine, message)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("reflog: appending to %s: %w", name.String(), err)
	}
	return nil
}

// Remove deletes name's reflog file, if any. Deletion removes a
// reflog unconditionally, regardless of Policy, matching the rule
// that a reference's history disappears along with the reference
// itself.
func (w *Writer) Remove(name refname.FullName) error {
	if err := os.Remove(w.path(name)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Entry is a single decoded reflog record, in file order.
type Entry struct {
	Previous  refname.ObjectID
	New       refname.ObjectID
	Committer string
	Message   string
}

// Read returns all reflog entries for name in chronological order. It
// returns ok=false, no error, if name has no reflog file.
func (w *Writer) Read(name refname.FullName) (entries []Entry, ok bool, err error) {
	data, err := os.ReadFile(w.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	out := make([]Entry, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		tabIdx := strings.IndexByte(line, '\t')
		head, message := line, ""
		if tabIdx >= 0 {
			head, message = line[:tabIdx], line[tabIdx+1:]
		}
		fields := strings.SplitN(head, " ", 3)
		if len(fields) < 3 {
			return nil, false, fmt.Errorf("reflog: malformed entry for %s: %q", name.String(), line)
		}
		prev, err := decodeHexOID(fields[0])
		if err != nil {
			return nil, false, fmt.Errorf("reflog: %s: %w", name.String(), err)
		}
		next, err := decodeHexOID(fields[1])
		if err != nil {
			return nil, false, fmt.Errorf("reflog: %s: %w", name.String(), err)
		}
		out = append(out, Entry{Previous: prev, New: next, Committer: fields[2], Message: message})
	}
	return out, true, nil
}

func decodeHexOID(s string) (refname.ObjectID, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("odd-length hex object id %q", s)
	}
	out := make(refname.ObjectID, len(s)/2)
	for i := range out {
		var hi, lo byte
		var err error
		if hi, err = hexNibble(s[i*2]); err != nil {
			return nil, err
		}
		if lo, err = hexNibble(s[i*2+1]); err != nil {
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
		return 0, fmt.Errorf("invalid hex digit %q", b)
	}
}
