package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gridfeed/gridfeed/internal/core/table"
)

// SessionTypeRace is the provider code for the race session of a weekend.
const SessionTypeRace = "R"

// EventFormatTesting marks pre-season testing entries in a season calendar.
const EventFormatTesting = "testing"

// IdentifierKind discriminates the variants of an Identifier.
type IdentifierKind int

const (
	IdentifierNone  IdentifierKind = 0
	IdentifierRound IdentifierKind = 1
	IdentifierEvent IdentifierKind = 2
)

// Identifier names one race weekend within a season, either by round number
// or by event name. The zero value is the missing identifier.
type Identifier struct {
	kind  IdentifierKind
	round int
	event string
}

// RoundNumber returns an identifier for the given calendar round.
func RoundNumber(round int) Identifier {
	return Identifier{kind: IdentifierRound, round: round}
}

// EventName returns an identifier for the given event name. A blank name
// yields the missing identifier.
func EventName(name string) Identifier {
	name = strings.TrimSpace(name)
	if name == "" {
		return Identifier{}
	}
	return Identifier{kind: IdentifierEvent, event: name}
}

// ParseIdentifier interprets an all-digit value as a round number and
// anything else as an event name.
func ParseIdentifier(raw string) Identifier {
	value := strings.TrimSpace(raw)
	if value == "" {
		return Identifier{}
	}
	if round, err := strconv.Atoi(value); err == nil {
		return RoundNumber(round)
	}
	return EventName(value)
}

// Kind reports which variant the identifier holds.
func (id Identifier) Kind() IdentifierKind {
	return id.kind
}

// IsZero reports whether the identifier is missing.
func (id Identifier) IsZero() bool {
	return id.kind == IdentifierNone
}

// Round returns the round number when the identifier is a round.
func (id Identifier) Round() (int, bool) {
	return id.round, id.kind == IdentifierRound
}

// Event returns the event name when the identifier is an event name.
func (id Identifier) Event() (string, bool) {
	return id.event, id.kind == IdentifierEvent
}

func (id Identifier) String() string {
	switch id.kind {
	case IdentifierRound:
		return strconv.Itoa(id.round)
	case IdentifierEvent:
		return id.event
	default:
		return ""
	}
}

// MarshalJSON renders rounds as numbers and event names as strings.
func (id Identifier) MarshalJSON() ([]byte, error) {
	switch id.kind {
	case IdentifierRound:
		return json.Marshal(id.round)
	case IdentifierEvent:
		return json.Marshal(id.event)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts a number, a string or null.
func (id *Identifier) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		*id = Identifier{}
		return nil
	}
	var round int
	if err := json.Unmarshal(data, &round); err == nil {
		*id = RoundNumber(round)
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("identifier must be a round number or event name: %w", err)
	}
	*id = ParseIdentifier(name)
	return nil
}

// SessionRequest asks the provider for one session of one race weekend.
type SessionRequest struct {
	Season      int
	Identifier  Identifier
	SessionType string
}

// NewSessionRequest builds a race session request.
func NewSessionRequest(season int, id Identifier) SessionRequest {
	return SessionRequest{Season: season, Identifier: id, SessionType: SessionTypeRace}
}

// Validate checks the request can be sent to the provider.
func (r SessionRequest) Validate() error {
	if r.Identifier.IsZero() {
		return &InvalidRequestError{Request: r, Reason: "identifier is required"}
	}
	return nil
}

// Event is one row of a season calendar.
type Event struct {
	RoundNumber int       `json:"round_number"`
	EventName   string    `json:"event_name"`
	EventFormat string    `json:"event_format"`
	Country     string    `json:"country,omitempty"`
	Location    string    `json:"location,omitempty"`
	Date        time.Time `json:"date,omitempty"`
}

// IsRaceWeekend reports whether the calendar entry is a numbered, non-testing
// race weekend.
func (e Event) IsRaceWeekend() bool {
	return e.RoundNumber >= 1 && e.EventFormat != EventFormatTesting
}

// EventRef pairs a season with a weekend identifier for explicit-list ingestion.
type EventRef struct {
	Year  int        `json:"year" yaml:"year"`
	Event Identifier `json:"event" yaml:"-"`
}

// Session is a loaded provider session. Implementations are owned by the
// caller that requested them and are never cached by the engine.
type Session interface {
	Season() int
	Round() int
	EventName() string
	SessionType() string
	Laps() *table.Table
	Results() *table.Table
}
