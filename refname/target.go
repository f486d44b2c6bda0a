package refname

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// ObjectID is a fixed-width binary hash identifying an object in the
// object database this store's refs point into. Peeling a symbolic
// target all the way down to an ObjectID is delegated to the object
// database and is out of scope for this package.
type ObjectID []byte

// Sha1Len and Sha256Len are the two hash widths loose ref parsing
// recognizes, matching the two digest lengths the object database may
// be configured with.
const (
	Sha1Len   = 20
	Sha256Len = 32
)

// IsNull reports whether id is the all-zero sentinel used to mean
// "must exist, value irrelevant" in pre-condition checks.
func (id ObjectID) IsNull() bool {
	if len(id) == 0 {
		return false
	}
	for _, b := range id {
		if b != 0 {
			return false
		}
	}
	return true
}

// Equal reports whether two object ids have the same bytes.
func (id ObjectID) Equal(o ObjectID) bool {
	if len(id) != len(o) {
		return false
	}
	for i := range id {
		if id[i] != o[i] {
			return false
		}
	}
	return true
}

func (id ObjectID) String() string { return hex.EncodeToString(id) }

// NullObjectID returns the all-zero object id of the given width, used
// as the "must exist" wildcard in pre-conditions.
func NullObjectID(width int) ObjectID { return make(ObjectID, width) }

// Kind distinguishes the two Target variants.
type Kind int

const (
	// KindPeeled marks a Target resolved directly to an object id.
	KindPeeled Kind = iota
	// KindSymbolic marks a Target pointing at another reference by name.
	KindSymbolic
)

// Target is the sum type {Peeled(object-id), Symbolic(ref-name)} that a
// reference's value can hold.
type Target struct {
	kind     Kind
	oid      ObjectID
	referent FullName
}

// ErrNotPeeled and ErrNotSymbolic are returned by the accessors below
// when called against the wrong Target variant.
var (
	ErrNotPeeled   = errors.New("refname: target is not peeled")
	ErrNotSymbolic = errors.New("refname: target is not symbolic")
)

// Peeled constructs a Target that points directly at an object id.
func Peeled(id ObjectID) Target {
	return Target{kind: KindPeeled, oid: id}
}

// Symbolic constructs a Target that points at another reference.
func Symbolic(name FullName) Target {
	return Target{kind: KindSymbolic, referent: name}
}

// MustExist constructs the sentinel Target used in a pre-condition to
// mean "the reference must currently exist, its value is irrelevant".
// It is always a Peeled target wrapping the null object id of width.
func MustExist(width int) Target {
	return Peeled(NullObjectID(width))
}

// Kind reports which variant t holds.
func (t Target) Kind() Kind { return t.kind }

// IsMustExist reports whether t is the "must exist, any value"
// sentinel: a Peeled target wrapping an all-zero object id.
func (t Target) IsMustExist() bool {
	return t.kind == KindPeeled && t.oid.IsNull()
}

// ObjectID returns the peeled object id, or an error if t is Symbolic.
func (t Target) ObjectID() (ObjectID, error) {
	if t.kind != KindPeeled {
		return nil, ErrNotPeeled
	}
	return t.oid, nil
}

// Referent returns the symbolic referent name, or an error if t is
// Peeled.
func (t Target) Referent() (FullName, error) {
	if t.kind != KindSymbolic {
		return FullName{}, ErrNotSymbolic
	}
	return t.referent, nil
}

// Equal reports whether two targets have the same kind and value.
func (t Target) Equal(o Target) bool {
	if t.kind != o.kind {
		return false
	}
	if t.kind == KindPeeled {
		return t.oid.Equal(o.oid)
	}
	return t.referent.Equal(o.referent)
}

func (t Target) String() string {
	switch t.kind {
	case KindPeeled:
		return t.oid.String()
	case KindSymbolic:
		return fmt.Sprintf("ref: %s", t.referent.String())
	default:
		return "<invalid target>"
	}
}
