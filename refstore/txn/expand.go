package txn

import (
	"fmt"
	"sort"

	"github.com/orneryd/refstore/refname"
)

// maxDerefDepth bounds how many symbolic hops the preprocessor will
// chase before giving up, guarding against a reference cycle.
const maxDerefDepth = 5

// reader is the read-only view of the store the preprocessor needs to
// resolve Deref edits. *loose.Store satisfies it.
type reader interface {
	Read(name refname.FullName) (refname.Target, bool, error)
}

// expand sorts edits stably by name and, for every edit with Deref
// set against a currently-symbolic reference, appends a derived edit
// targeting the eventual non-symbolic referent. The original symbolic
// edit is downgraded to RefLogOnly: its own reflog still records the
// change, but the derived edit is the one that actually creates,
// updates, or deletes the underlying reference. Returns
// *DuplicateEditError if two edits (original or derived) end up
// naming the same reference.
func expand(r reader, edits []RefEdit) ([]*edit, error) {
	sorted := make([]RefEdit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Name.String() < sorted[j].Name.String()
	})

	out := make([]*edit, 0, len(sorted))
	for _, re := range sorted {
		out = append(out, &edit{RefEdit: re})
	}

	for i := 0; i < len(out); i++ {
		e := out[i]
		if !e.Deref {
			continue
		}
		target, ok, err := r.Read(e.Name)
		if err != nil {
			return nil, &PreprocessingError{Err: fmt.Errorf("reading %s: %w", e.Name.String(), err)}
		}
		if !ok || target.Kind() != refname.KindSymbolic {
			continue
		}

		current := e.Name
		depth := 0
		var referent refname.FullName
		for {
			t, ok, err := r.Read(current)
			if err != nil {
				return nil, &PreprocessingError{Err: fmt.Errorf("reading %s: %w", current.String(), err)}
			}
			if !ok || t.Kind() != refname.KindSymbolic {
				referent = current
				break
			}
			next, _ := t.Referent()
			depth++
			if depth > maxDerefDepth {
				return nil, &PreprocessingError{Err: fmt.Errorf("symbolic reference chain starting at %s exceeds depth %d", e.Name.String(), maxDerefDepth)}
			}
			current = next
		}
		if referent.Equal(e.Name) {
			continue
		}

		parentIdx := i
		derived := &edit{
			RefEdit: RefEdit{
				Name:   referent,
				Change: e.Change,
				Deref:  false,
			},
			parentIndex: &parentIdx,
		}
		out = append(out, derived)

		e.Change = downgradeToReflogOnly(e.Change)
	}

	seen := make(map[string]bool, len(out))
	for _, e := range out {
		key := e.Name.String()
		if seen[key] {
			return nil, &DuplicateEditError{Name: e.Name}
		}
		seen[key] = true
	}

	return out, nil
}

// downgradeToReflogOnly returns a copy of c with its LogEdit forced to
// RefLogOnly, used for a symbolic source edit once its deref target
// has been split out into its own derived edit.
func downgradeToReflogOnly(c Change) Change {
	if c.Update != nil {
		u := *c.Update
		u.Log.Mode = RefLogOnly
		c.Update = &u
	}
	if c.Delete != nil {
		d := *c.Delete
		d.Log.Mode = RefLogOnly
		c.Delete = &d
	}
	return c
}
