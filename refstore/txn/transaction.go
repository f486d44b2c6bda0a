package txn

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/orneryd/refstore/refstore/lock"
	"github.com/orneryd/refstore/refstore/loose"
	"github.com/orneryd/refstore/refstore/reflog"
)

// Store is the on-disk backing for a reference namespace: a loose ref
// layout plus the reflog writer governing how changes to it are
// logged.
type Store struct {
	Loose  *loose.Store
	Reflog *reflog.Writer
}

// NewStore returns a Store rooted at base, with loose refs encoded at
// hashWidth bytes and reflogs governed by policy.
func NewStore(base string, hashWidth int, policy reflog.Policy) *Store {
	return &Store{
		Loose:  loose.New(base, hashWidth),
		Reflog: reflog.New(base, policy),
	}
}

// prefetchConcurrency bounds how many loose ref reads the pre-lock
// warm-up pass issues at once, so a large batch of edits against a
// store on a slow filesystem doesn't open hundreds of file descriptors
// simultaneously.
const prefetchConcurrency = 8

// prefetchReads reads every edit's current reference value concurrently,
// ahead of the sequential lock-and-validate pass, purely to surface a
// genuine I/O error (a failing disk, a permissions problem) before any
// lock is taken. Decode errors are not reported here: the authoritative
// read that decides pre-conditions happens again, one edit at a time,
// in lockAndValidate.
func prefetchReads(ctx context.Context, s *loose.Store, edits []*edit) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(prefetchConcurrency)
	for _, e := range edits {
		e := e
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			_, _, err := s.RefContents(e.Name)
			return err
		})
	}
	return g.Wait()
}

// state is the Transaction lifecycle: Open -> Prepared -> Committed, or
// Open/Prepared -> RolledBack.
type state int

const (
	stateOpen state = iota
	statePrepared
	stateCommitted
	stateRolledBack
)

// Transaction batches a set of RefEdits against a Store, validates
// them, and commits or rolls them back. A failed Prepare rolls back
// every edit; during Commit each reference is committed on its own, so
// edits committed before a later one fails stay committed. The zero
// value is not usable; construct one with Store.Transaction.
type Transaction struct {
	store    *Store
	input    []RefEdit
	lockMode lock.FailMode

	mu    sync.Mutex
	state state
	edits []*edit
}

// Transaction begins a new transaction against s for the given edits.
// lockMode controls what happens when a reference is already locked by
// a concurrent writer.
func (s *Store) Transaction(edits []RefEdit, lockMode lock.FailMode) *Transaction {
	input := make([]RefEdit, len(edits))
	copy(input, edits)
	return &Transaction{store: s, input: input, lockMode: lockMode}
}

// Prepare expands, locks, and validates the transaction's edits. It is
// idempotent: calling it again once already Prepared is a no-op. A
// failed Prepare releases any locks it had already acquired and leaves
// the transaction RolledBack.
func (t *Transaction) Prepare() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == statePrepared {
		return nil
	}
	if t.state != stateOpen {
		return ErrTransactionClosed
	}

	expanded, err := expand(t.store.Loose, t.input)
	if err != nil {
		t.state = stateRolledBack
		return err
	}

	if err := prefetchReads(context.Background(), t.store.Loose, expanded); err != nil {
		t.state = stateRolledBack
		return &PreprocessingError{Err: err}
	}

	if err := lockAndValidate(t.store, expanded, t.lockMode); err != nil {
		rollbackAll(expanded)
		t.state = stateRolledBack
		return err
	}

	t.edits = expanded
	t.state = statePrepared
	return nil
}

// Commit prepares the transaction if it has not been already, then
// writes every staged change: updates before deletes, reflog before
// reference. It returns the final set of edits actually applied,
// including any derived from dereferencing a symbolic source.
func (t *Transaction) Commit(committer Signature) ([]RefEdit, error) {
	if err := t.Prepare(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != statePrepared {
		return nil, ErrTransactionClosed
	}

	result, err := commitEdits(t.store, t.edits, committer)
	if err != nil {
		t.state = stateRolledBack
		return nil, err
	}
	t.state = stateCommitted
	return result, nil
}

// Rollback releases every lock a Prepared transaction is holding
// without committing any change. Calling it on a Transaction that was
// never prepared, or has already been committed or rolled back, is a
// no-op.
func (t *Transaction) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != statePrepared {
		return nil
	}
	rollbackAll(t.edits)
	t.state = stateRolledBack
	return nil
}

// IntoEdits aborts the transaction and returns the edits it would have
// committed: the expanded edits if it was Prepared (releasing every
// lock those hold), or the original, unexpanded input edits if it was
// still Open. Calling it on an already Committed or RolledBack
// transaction is an error.
func (t *Transaction) IntoEdits() ([]RefEdit, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case stateOpen:
		t.state = stateRolledBack
		out := make([]RefEdit, len(t.input))
		copy(out, t.input)
		return out, nil
	case statePrepared:
		rollbackAll(t.edits)
		t.state = stateRolledBack
		out := make([]RefEdit, len(t.edits))
		for i, e := range t.edits {
			out[i] = e.RefEdit
		}
		return out, nil
	default:
		return nil, ErrTransactionClosed
	}
}
