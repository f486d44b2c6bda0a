package txn

import (
	"os"

	"github.com/orneryd/refstore/refname"
	"github.com/orneryd/refstore/refstore/lock"
)

// commitEdits performs the writes a successful Prepare has staged:
// every Update is committed (or, for a reflog-only derived source,
// discarded) before any Delete runs, matching the rule that a
// transaction never observably removes a reference the same batch
// also recreates elsewhere. Locks are released, one way or another,
// for every edit by the time commitEdits returns.
func commitEdits(store *Store, edits []*edit, committer Signature) ([]RefEdit, error) {
	defer rollbackAll(edits)

	committerLine := committer.String()
	width := store.Loose.HashWidth

	for _, e := range edits {
		if !e.isUpdate() {
			continue
		}
		if err := commitUpdate(store, e, committerLine, width); err != nil {
			return nil, err
		}
	}
	for _, e := range edits {
		if !e.isDelete() {
			continue
		}
		if err := commitDelete(store, e); err != nil {
			return nil, err
		}
	}

	result := make([]RefEdit, 0, len(edits))
	for _, e := range edits {
		result = append(result, e.RefEdit)
	}
	return result, nil
}

func commitUpdate(store *Store, e *edit, committerLine string, width int) error {
	u := e.Change.Update
	created := u.Mode.Previous == nil
	message := messageOrDefault(u.Log, created)

	// A symbolic new target (e.g. HEAD pointing at a branch) never gets
	// its own reflog entry; only a peeled target's movement is logged.
	if u.New.Kind() != refname.KindSymbolic {
		from := fromOID(e, u.Mode.Previous, width)
		to := oidOrNull(width, &u.New)

		if err := store.Reflog.Append(e.Name, from, to, committerLine, message, u.Log.ForceCreate); err != nil {
			return &CreateOrUpdateRefLogError{Name: e.Name, Err: err}
		}
	}

	f, _ := e.lock.(*lock.File)
	if u.Log.Mode == RefLogAndReference {
		if err := f.Commit(); err != nil {
			return &LockCommitError{Name: e.Name, Err: err}
		}
	} else {
		if err := f.Release(); err != nil {
			return &LockCommitError{Name: e.Name, Err: err}
		}
	}

	if e.leafReferentPreviousOID != nil {
		peeled := refname.Peeled(*e.leafReferentPreviousOID)
		e.Change.Update.Mode.Previous = &peeled
	}
	return nil
}

func commitDelete(store *Store, e *edit) error {
	d := e.Change.Delete

	// The reflog is removed before the ref file itself: an orphan log
	// outliving its ref is worse than a ref briefly outliving its log, so
	// a failure between the two steps must land on the safer side.
	if err := store.Reflog.Remove(e.Name); err != nil {
		return &DeleteReflogError{Name: e.Name, Err: err}
	}

	if d.Log.Mode == RefLogAndReference {
		path := store.Loose.ReferencePath(e.Name)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return &DeleteReferenceError{Name: e.Name, Err: err}
		}
	}

	if e.leafReferentPreviousOID != nil {
		peeled := refname.Peeled(*e.leafReferentPreviousOID)
		e.Change.Delete.Previous = &peeled
	}
	return nil
}

// fromOID returns the object id a reflog entry should record as the
// "previous" value for e: the peeled id of a derived edit's observed
// leaf value takes priority (this is what lets a symbolic source's own
// reflog-only entry show the real object that moved, rather than the
// name of the reference it points through), falling back to whatever
// peeled previous value validation observed directly.
func fromOID(e *edit, observed *refname.Target, width int) refname.ObjectID {
	if e.leafReferentPreviousOID != nil {
		return *e.leafReferentPreviousOID
	}
	return oidOrNull(width, observed)
}

func messageOrDefault(log LogEdit, created bool) string {
	if log.Message != "" {
		return log.Message
	}
	if created {
		return "create"
	}
	return "update"
}

func oidOrNull(width int, t *refname.Target) refname.ObjectID {
	if t == nil || t.Kind() != refname.KindPeeled {
		return refname.NullObjectID(width)
	}
	id, _ := t.ObjectID()
	return id
}
