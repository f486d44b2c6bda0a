package txn

import (
	"errors"

	"github.com/orneryd/refstore/refname"
	"github.com/orneryd/refstore/refstore/lock"
	"github.com/orneryd/refstore/refstore/loose"
)

// lockAndValidate walks edits in order, acquiring each one's lock and
// checking its pre-condition against the currently observed state. It
// stops and returns the first error encountered; the caller is
// responsible for releasing any locks already held by earlier edits
// in that case (see rollbackAll).
//
// Observed previous values are written back into each edit's Change so
// a caller inspecting the RefEdits returned from Commit can see
// exactly what was replaced, and so a derived leaf edit's observed
// value can be stamped onto its parent (see expand's deref linkage).
func lockAndValidate(store *Store, edits []*edit, mode lock.FailMode) error {
	for _, e := range edits {
		if e.isDelete() {
			m, err := lock.AcquireMarker(store.Loose.ReferencePath(e.Name), mode)
			if err != nil {
				return &LockAcquireError{Name: rootName(edits, e), Err: err}
			}
			e.lock = m
		} else {
			f, err := lock.AcquireFile(store.Loose.ReferencePath(e.Name), mode)
			if err != nil {
				return &LockAcquireError{Name: rootName(edits, e), Err: err}
			}
			e.lock = f
		}

		target, ok, err := readCollapsingDecodeErrors(store.Loose, e.Name)
		if err != nil {
			return &PreprocessingError{Err: err}
		}

		if e.isDelete() {
			if verr := validateDelete(e, target, ok); verr != nil {
				return verr
			}
		} else {
			if verr := validateUpdate(e, target, ok); verr != nil {
				return verr
			}
			if f, isFile := e.lock.(*lock.File); isFile {
				if _, werr := f.Write(store.Loose.Encode(e.Change.Update.New)); werr != nil {
					return &LockCommitError{Name: rootName(edits, e), Err: werr}
				}
			}
		}

		if e.parentIndex != nil && ok && target.Kind() == refname.KindPeeled {
			id, _ := target.ObjectID()
			edits[*e.parentIndex].leafReferentPreviousOID = &id
		}
	}
	return nil
}

// rootName walks a derived edit's parentIndex chain back to the
// original, user-submitted edit's name, for error messages that
// should reference what the caller actually asked for rather than an
// internal deref target.
func rootName(edits []*edit, e *edit) refname.FullName {
	cur := e
	for cur.parentIndex != nil {
		cur = edits[*cur.parentIndex]
	}
	return cur.Name
}

// readCollapsingDecodeErrors reads name's current value, treating a
// ref file whose content cannot be parsed the same as one that does
// not exist: a corrupt ref can't satisfy any pre-condition that
// requires a specific value, so it is indistinguishable from absence
// for validation purposes. A genuine I/O error is still propagated.
func readCollapsingDecodeErrors(s *loose.Store, name refname.FullName) (refname.Target, bool, error) {
	target, ok, err := s.Read(name)
	if err == nil {
		return target, ok, nil
	}
	var decodeErr *loose.DecodeError
	if errors.As(err, &decodeErr) {
		return refname.Target{}, false, nil
	}
	return refname.Target{}, false, err
}

func validateDelete(e *edit, target refname.Target, ok bool) error {
	prev := e.Change.Delete.Previous
	if prev == nil {
		if ok {
			e.Change.Delete.Previous = &target
		}
		return nil
	}
	if prev.IsMustExist() {
		if !ok {
			return &DeleteReferenceMustExistError{Name: e.Name}
		}
		e.Change.Delete.Previous = &target
		return nil
	}
	if !ok {
		return &DeleteReferenceMustExistError{Name: e.Name}
	}
	if !target.Equal(*prev) {
		return &ReferenceOutOfDateError{Name: e.Name, Expected: *prev, Actual: target}
	}
	e.Change.Delete.Previous = &target
	return nil
}

func validateUpdate(e *edit, target refname.Target, ok bool) error {
	mode := e.Change.Update.Mode
	switch mode.Kind {
	case CreateOnly:
		if ok {
			if !target.Equal(e.Change.Update.New) {
				return &MustNotExistError{Name: e.Name, Actual: target, New: e.Change.Update.New}
			}
			e.Change.Update.Mode.Previous = &target
		}
		return nil
	case CreateOrUpdate:
		if mode.Previous == nil {
			if ok {
				e.Change.Update.Mode.Previous = &target
			}
			return nil
		}
		if mode.Previous.IsMustExist() {
			if !ok {
				return &MustExistError{Name: e.Name, Expected: *mode.Previous}
			}
			e.Change.Update.Mode.Previous = &target
			return nil
		}
		if !ok {
			return &MustExistError{Name: e.Name, Expected: *mode.Previous}
		}
		if !target.Equal(*mode.Previous) {
			return &ReferenceOutOfDateError{Name: e.Name, Expected: *mode.Previous, Actual: target}
		}
		e.Change.Update.Mode.Previous = &target
		return nil
	default:
		return nil
	}
}

// rollbackAll releases every lock held by edits, best-effort, used
// when a later edit in the same prepare pass fails validation and
// everything already claimed must be given back.
func rollbackAll(edits []*edit) {
	for _, e := range edits {
		if e.lock != nil {
			_ = e.lock.Release()
		}
	}
}
