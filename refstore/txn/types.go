// Package txn implements the reference-store transaction state
// machine: it takes a batch of user-submitted edits, expands symbolic
// references into dependent edits, acquires per-reference locks,
// validates optimistic-concurrency pre-conditions against observed
// state, writes reflog entries, and commits or deletes ref files.
package txn

import (
	"fmt"
	"time"

	"github.com/orneryd/refstore/refname"
)

// RefLogMode selects whether a Change affects only the reflog or both
// the reflog and the reference file itself.
type RefLogMode int

const (
	// RefLogAndReference updates both the reflog and the ref file.
	RefLogAndReference RefLogMode = iota
	// RefLogOnly updates the reflog but leaves the ref file untouched
	// (for updates) or removes only the reflog (for deletes).
	RefLogOnly
)

// LogEdit describes how a Change should affect the reflog.
type LogEdit struct {
	Mode RefLogMode
	// Message is the reflog message. If empty, the engine synthesizes
	// one based on the kind of change (see messageOrDefault).
	Message string
	// ForceCreate creates the reflog file even when the store's reflog
	// policy would otherwise not autocreate a log for this ref.
	ForceCreate bool
}

// CreateKind selects how an Update's pre-condition behaves.
type CreateKind int

const (
	// CreateOnly requires the ref to not already exist with a
	// different value.
	CreateOnly CreateKind = iota
	// CreateOrUpdate performs an optimistic-concurrency check against
	// Previous (nil means "accept any current state").
	CreateOrUpdate
)

// Create is the pre-condition attached to an Update change.
type Create struct {
	Kind CreateKind
	// Previous is only meaningful when Kind == CreateOrUpdate. nil
	// means "any current state including absence"; a Target for which
	// IsMustExist() is true means "must exist, value irrelevant"; any
	// other Target means "must currently equal this exact value".
	Previous *refname.Target
}

// Only builds a Create{Kind: CreateOnly} pre-condition.
func Only() Create { return Create{Kind: CreateOnly} }

// OrUpdate builds a Create{Kind: CreateOrUpdate} pre-condition. Pass
// nil for "accept any prior state".
func OrUpdate(previous *refname.Target) Create {
	return Create{Kind: CreateOrUpdate, Previous: previous}
}

// DeleteChange removes a reference, optionally checking it currently
// equals Previous before doing so.
type DeleteChange struct {
	// Previous: nil means unconditional; a must-exist Target means
	// "must exist, any value"; any other Target means "must equal
	// this value exactly".
	Previous *refname.Target
	Log      LogEdit
}

// UpdateChange writes New into a reference, subject to Mode's
// pre-condition.
type UpdateChange struct {
	New  refname.Target
	Mode Create
	Log  LogEdit
}

// Change is the sum type {Delete, Update} a RefEdit applies.
type Change struct {
	Delete *DeleteChange
	Update *UpdateChange
}

// IsDelete reports whether this Change is a deletion.
func (c Change) IsDelete() bool { return c.Delete != nil }

// PreviousValue returns the previous value recorded on this change:
// Delete.Previous for a deletion, Mode.Previous for a CreateOrUpdate
// update, and nil for a CreateOnly update. After Prepare it holds the
// observed value, which may be Peeled or Symbolic.
func (c Change) PreviousValue() *refname.Target {
	if c.Delete != nil {
		return c.Delete.Previous
	}
	if c.Update != nil && c.Update.Mode.Kind == CreateOrUpdate {
		return c.Update.Mode.Previous
	}
	return nil
}

// RefEdit is a single user-submitted edit: act on Name per Change,
// optionally dereferencing Name first if it is symbolic and Deref is
// true.
type RefEdit struct {
	Name   refname.FullName
	Change Change
	Deref  bool
}

// Signature identifies who performed a commit, for the reflog.
type Signature struct {
	Name  string
	Email string
	Time  time.Time
}

func (s Signature) String() string {
	return fmt.Sprintf("%s <%s> %d %s", s.Name, s.Email, s.Time.Unix(), s.Time.Format("-0700"))
}
