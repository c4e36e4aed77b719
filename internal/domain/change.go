package domain

import "time"

// ChangeAction names the write that produced a CatalogChange.
type ChangeAction string

const (
	ChangeCreated ChangeAction = "created"
	ChangeUpdated ChangeAction = "updated"
	ChangeDeleted ChangeAction = "deleted"
)

// CatalogChange announces a committed admin write so other storefront instances can drop stale reads.
type CatalogChange struct {
	Kind       RecordKind   `json:"kind"`
	ID         string       `json:"id"`
	Slug       string       `json:"slug,omitempty"`
	Action     ChangeAction `json:"action"`
	Actor      string       `json:"actor,omitempty"`
	OccurredAt time.Time    `json:"occurredAt"`
}
