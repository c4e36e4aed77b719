package domain

// Outcome tags a catalog read so callers can tell an empty store from an unreachable one.
type Outcome string

const (
	OutcomeOK          Outcome = "ok"
	OutcomeEmpty       Outcome = "empty"
	OutcomeNotFound    Outcome = "not_found"
	OutcomeUnavailable Outcome = "unavailable"
)

// Listing is the result of a multi-record read. Items is never nil.
type Listing[T any] struct {
	Items   []T
	Outcome Outcome
}

// NewListing tags items as ok or empty.
func NewListing[T any](items []T) Listing[T] {
	if len(items) == 0 {
		return Listing[T]{Items: []T{}, Outcome: OutcomeEmpty}
	}
	return Listing[T]{Items: items, Outcome: OutcomeOK}
}

// UnavailableListing is the degraded result returned when the store could not be queried.
func UnavailableListing[T any]() Listing[T] {
	return Listing[T]{Items: []T{}, Outcome: OutcomeUnavailable}
}

// Unavailable reports whether the read failed.
func (l Listing[T]) Unavailable() bool { return l.Outcome == OutcomeUnavailable }

// Lookup is the result of a single-record read.
type Lookup[T any] struct {
	Item    T
	Outcome Outcome
}

// Found wraps a located record.
func Found[T any](item T) Lookup[T] {
	return Lookup[T]{Item: item, Outcome: OutcomeOK}
}

// NotFound is the normal absent-record result.
func NotFound[T any]() Lookup[T] {
	return Lookup[T]{Outcome: OutcomeNotFound}
}

// UnavailableLookup is returned when the store could not be queried.
func UnavailableLookup[T any]() Lookup[T] {
	return Lookup[T]{Outcome: OutcomeUnavailable}
}

// OK reports whether the record was found.
func (l Lookup[T]) OK() bool { return l.Outcome == OutcomeOK }
