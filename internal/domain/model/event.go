package model

import (
	"fmt"
	"time"
)

// EventSource identifies the provenance of an Event.
type EventSource string

// Known event sources. SourceUser marks rows created through the API
// rather than fetched from a provider; those rows carry no external id
// and are never deduplicated.
const (
	SourceEventbrite EventSource = "eventbrite"
	SourceMeetup     EventSource = "meetup"
	SourceUser       EventSource = "user"
)

// Valid reports whether s is a known event source.
func (s EventSource) Valid() bool {
	switch s {
	case SourceEventbrite, SourceMeetup, SourceUser:
		return true
	}
	return false
}

// CostType describes how an event charges attendees.
type CostType string

// Cost types.
const (
	CostFree     CostType = "free"
	CostPaid     CostType = "paid"
	CostDonation CostType = "donation"
)

// Visibility controls who may see an event.
type Visibility string

// Visibility levels.
const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
	VisibilityShared  Visibility = "shared"
)

// Event is the unified event entity.
type Event struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Description  *string     `json:"description,omitempty"`
	StartTime    time.Time   `json:"startTime"`
	EndTime      *time.Time  `json:"endTime,omitempty"`
	LocationName string      `json:"locationName"`
	Coordinates  Coordinates `json:"coordinates"`
	Address      *string     `json:"address,omitempty"`
	ImageURL     *string     `json:"imageUrl,omitempty"`
	Organizer    *string     `json:"organizer,omitempty"`
	Category     *string     `json:"category,omitempty"`
	Tags         []string    `json:"tags,omitempty"`
	Source       EventSource `json:"source"`
	ExternalID   *string     `json:"externalId,omitempty"`
	URL          *string     `json:"url,omitempty"`
	CostType     *CostType   `json:"costType,omitempty"`
	CostAmount   *float64    `json:"costAmount,omitempty"`
	Visibility   Visibility  `json:"visibility"`
	OwnerID      *string     `json:"ownerId,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// ConflictKey returns the (source, externalId) pair used for upsert
// deduplication. User-created events have no stable conflict key; for
// them the key is empty and callers must not dedupe.
func (e Event) ConflictKey() string {
	if e.Source == SourceUser || e.ExternalID == nil {
		return ""
	}
	return string(e.Source) + "_" + *e.ExternalID
}

// Validate checks the fields every adapter and row conversion must
// guarantee before an Event leaves its boundary.
func (e Event) Validate() error {
	if e.Title == "" {
		return fmt.Errorf("%w: missing title", ErrInvalidEntity)
	}
	if !e.Source.Valid() {
		return fmt.Errorf("%w: unknown source %q", ErrInvalidEntity, e.Source)
	}
	if e.StartTime.IsZero() {
		return fmt.Errorf("%w: missing start time", ErrInvalidEntity)
	}
	return e.Coordinates.Validate()
}
