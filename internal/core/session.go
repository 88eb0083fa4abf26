package core

import "github.com/gridfeed/gridfeed/internal/core/table"

// SessionData is an in-memory Session. Providers populate it when a session
// loads; tests build it directly.
type SessionData struct {
	Year         int
	RoundNumber  int
	Name         string
	Type         string
	LapsTable    *table.Table
	ResultsTable *table.Table
}

func (s *SessionData) Season() int           { return s.Year }
func (s *SessionData) Round() int            { return s.RoundNumber }
func (s *SessionData) EventName() string     { return s.Name }
func (s *SessionData) SessionType() string   { return s.Type }
func (s *SessionData) Laps() *table.Table    { return s.LapsTable }
func (s *SessionData) Results() *table.Table { return s.ResultsTable }
