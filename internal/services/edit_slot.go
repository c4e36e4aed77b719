package services

import (
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/unfazed24072005io/luxe-jewellery/internal/domain"
)

// EditSession marks the single record an operator currently has open in the edit form.
type EditSession struct {
	ID        string            `json:"id"`
	Kind      domain.RecordKind `json:"kind"`
	RecordID  string            `json:"recordId"`
	StartedAt time.Time         `json:"startedAt"`
}

// EditSlot holds at most one EditSession per operator. Entering edit on a record discards
// whatever session the operator had open before; nothing of it is kept.
type EditSlot struct {
	mu       sync.Mutex
	sessions map[string]EditSession
	clock    func() time.Time
	newID    func() string
}

// NewEditSlot constructs an empty EditSlot.
func NewEditSlot(clock func() time.Time) *EditSlot {
	if clock == nil {
		clock = time.Now
	}
	return &EditSlot{
		sessions: make(map[string]EditSession),
		clock:    func() time.Time { return clock().UTC() },
		newID:    func() string { return ulid.Make().String() },
	}
}

// Enter opens an edit session on kind/recordID for actor and returns it together with the
// session it replaced, if any. Re-entering the record already open keeps its session.
func (s *EditSlot) Enter(actor string, kind domain.RecordKind, recordID string) (EditSession, *EditSession) {
	actor = strings.TrimSpace(actor)
	recordID = strings.TrimSpace(recordID)

	s.mu.Lock()
	defer s.mu.Unlock()

	previous, had := s.sessions[actor]
	if had && previous.Kind == kind && previous.RecordID == recordID {
		return previous, nil
	}
	next := EditSession{
		ID:        s.newID(),
		Kind:      kind,
		RecordID:  recordID,
		StartedAt: s.clock(),
	}
	s.sessions[actor] = next
	if !had {
		return next, nil
	}
	return next, &previous
}

// Current returns actor's open session.
func (s *EditSlot) Current(actor string) (EditSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[strings.TrimSpace(actor)]
	return session, ok
}

// Exit closes actor's session and returns it.
func (s *EditSlot) Exit(actor string) (EditSession, bool) {
	actor = strings.TrimSpace(actor)
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[actor]
	delete(s.sessions, actor)
	return session, ok
}

// Release closes actor's session only when it is editing kind/recordID. Saves and deletes
// call it so the form returns to create mode.
func (s *EditSlot) Release(actor string, kind domain.RecordKind, recordID string) bool {
	actor = strings.TrimSpace(actor)
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[actor]
	if !ok || session.Kind != kind || session.RecordID != recordID {
		return false
	}
	delete(s.sessions, actor)
	return true
}
