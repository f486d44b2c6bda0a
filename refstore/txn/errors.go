package txn

import (
	"errors"
	"fmt"

	"github.com/orneryd/refstore/refname"
)

// ErrTransactionClosed is returned when an operation is attempted
// against a Transaction that is neither Open nor Prepared (e.g. after
// Commit or IntoEdits has consumed it).
var ErrTransactionClosed = errors.New("txn: transaction already committed or aborted")

// PreprocessingError wraps an I/O failure encountered while reading a
// reference during Prepare: when the preprocessor resolves symbolic
// refs during deref expansion, in the concurrent read warm-up, or in
// the pre-condition read after a lock is taken.
type PreprocessingError struct {
	Err error
}

func (e *PreprocessingError) Error() string {
	return fmt.Sprintf("edit preprocessing failed: %v", e.Err)
}
func (e *PreprocessingError) Unwrap() error { return e.Err }

// DuplicateEditError is raised by the preprocessor when expansion
// produces two edits for the same fully-qualified name.
type DuplicateEditError struct {
	Name refname.FullName
}

func (e *DuplicateEditError) Error() string {
	return fmt.Sprintf("duplicate edit for reference %q after expansion", e.Name.String())
}

// LockAcquireError reports that a lock could not be obtained. Name is
// always the original user-facing ref name, walked up from any
// deref-derived edit to its root.
type LockAcquireError struct {
	Name refname.FullName
	Err  error
}

func (e *LockAcquireError) Error() string {
	return fmt.Sprintf("a lock could not be obtained for reference %q: %v", e.Name.String(), e.Err)
}
func (e *LockAcquireError) Unwrap() error { return e.Err }

// LockCommitError reports that the rename-commit of a staged update
// failed after all platform retries.
type LockCommitError struct {
	Name refname.FullName
	Err  error
}

func (e *LockCommitError) Error() string {
	return fmt.Sprintf("the change for reference %q could not be committed: %v", e.Name.String(), e.Err)
}
func (e *LockCommitError) Unwrap() error { return e.Err }

// DeleteReferenceMustExistError reports that a delete's pre-condition
// required the reference to exist, but it was absent or undecodable.
type DeleteReferenceMustExistError struct {
	Name refname.FullName
}

func (e *DeleteReferenceMustExistError) Error() string {
	return fmt.Sprintf("the reference %q for deletion did not exist or could not be parsed", e.Name.String())
}

// DeleteReferenceError reports an I/O failure removing a ref file
// (NotFound is suppressed before this error is ever constructed).
type DeleteReferenceError struct {
	Name refname.FullName
	Err  error
}

func (e *DeleteReferenceError) Error() string {
	return fmt.Sprintf("the reference %q could not be deleted: %v", e.Name.String(), e.Err)
}
func (e *DeleteReferenceError) Unwrap() error { return e.Err }

// DeleteReflogError reports an I/O failure removing a reflog file.
type DeleteReflogError struct {
	Name refname.FullName
	Err  error
}

func (e *DeleteReflogError) Error() string {
	return fmt.Sprintf("the reflog of reference %q could not be deleted: %v", e.Name.String(), e.Err)
}
func (e *DeleteReflogError) Unwrap() error { return e.Err }

// MustNotExistError reports that an Update with CreateOnly found the
// reference already present with a different value.
type MustNotExistError struct {
	Name   refname.FullName
	Actual refname.Target
	New    refname.Target
}

func (e *MustNotExistError) Error() string {
	return fmt.Sprintf(
		"reference %q was not supposed to exist when writing it with value %s, but actual content was %s",
		e.Name.String(), e.New, e.Actual,
	)
}

// MustExistError reports that an Update's optimistic check required
// the reference to exist, but it was absent.
type MustExistError struct {
	Name     refname.FullName
	Expected refname.Target
}

func (e *MustExistError) Error() string {
	return fmt.Sprintf("reference %q was supposed to exist with value %s, but didn't", e.Name.String(), e.Expected)
}

// ReferenceOutOfDateError reports an optimistic-concurrency mismatch:
// the observed value did not match what the caller expected.
type ReferenceOutOfDateError struct {
	Name     refname.FullName
	Expected refname.Target
	Actual   refname.Target
}

func (e *ReferenceOutOfDateError) Error() string {
	return fmt.Sprintf(
		"the reference %q should have content %s, actual content was %s",
		e.Name.String(), e.Expected, e.Actual,
	)
}

// CreateOrUpdateRefLogError wraps a failure in the reflog writer.
type CreateOrUpdateRefLogError struct {
	Name refname.FullName
	Err  error
}

func (e *CreateOrUpdateRefLogError) Error() string {
	return fmt.Sprintf("the reflog for %q could not be created or updated: %v", e.Name.String(), e.Err)
}
func (e *CreateOrUpdateRefLogError) Unwrap() error { return e.Err }
