package txn

import (
	"github.com/orneryd/refstore/refname"
	"github.com/orneryd/refstore/refstore/lock"
)

// refLock is the subset of lock.Marker and lock.File the transaction
// engine needs once a lock has been acquired: where it claims, and how
// to give it up without committing. Deletes acquire a lock.Marker;
// updates acquire a lock.File so they have somewhere to stage the new
// content.
type refLock interface {
	ResourcePath() string
	Release() error
}

var (
	_ refLock = (*lock.Marker)(nil)
	_ refLock = (*lock.File)(nil)
)

// edit is the engine's internal, mutable view of one RefEdit as it
// moves through expansion, locking, and pre-condition validation. A
// user submits RefEdits; the preprocessor expands any Deref edit into
// one edit for the symbolic ref itself plus a derived edit for its
// referent, linking the derived edit back to its parent by index.
type edit struct {
	RefEdit

	// lock is nil until prepare() has successfully claimed this edit's
	// reference. Deletes hold a *lock.Marker; updates hold a *lock.File.
	lock refLock

	// parentIndex, when non-nil, identifies the index in the owning
	// expansion's edit slice of the symbolic edit this one was derived
	// from by following Deref. Used to propagate the observed previous
	// value of a derived leaf edit back up into its parent's returned
	// RefEdit.
	parentIndex *int

	// leafReferentPreviousOID records the peeled object id observed for
	// a derived leaf edit's previous value, so it can be stamped back
	// into the parent symbolic edit's Change.PreviousValue when the
	// parent itself carries no independent pre-condition.
	leafReferentPreviousOID *refname.ObjectID
}

func (e *edit) isUpdate() bool { return e.Change.Update != nil }
func (e *edit) isDelete() bool { return e.Change.Delete != nil }

// logEdit returns the LogEdit governing this edit's reflog treatment,
// regardless of whether it is an Update or a Delete.
func (e *edit) logEdit() LogEdit {
	if e.Change.Update != nil {
		return e.Change.Update.Log
	}
	if e.Change.Delete != nil {
		return e.Change.Delete.Log
	}
	return LogEdit{}
}
