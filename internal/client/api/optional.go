package api

import "strconv"

// OptionalID is a foreign key that may be unset. The zero value is None.
// A set OptionalID always holds the id it was built with; Some(0) is still
// "set" and is never treated as None.
type OptionalID struct {
	id  int64
	set bool
}

// Some returns a set OptionalID.
func Some(id int64) OptionalID {
	return OptionalID{id: id, set: true}
}

// None returns an unset OptionalID.
func None() OptionalID {
	return OptionalID{}
}

// Get returns the id and whether it is set.
func (o OptionalID) Get() (int64, bool) {
	return o.id, o.set
}

// IsSet reports whether the id is present.
func (o OptionalID) IsSet() bool {
	return o.set
}

func (o OptionalID) String() string {
	if !o.set {
		return "none"
	}
	return strconv.FormatInt(o.id, 10)
}
