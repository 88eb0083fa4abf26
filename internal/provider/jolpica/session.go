package jolpica

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gridfeed/gridfeed/internal/core"
	"github.com/gridfeed/gridfeed/internal/core/engine"
	"github.com/gridfeed/gridfeed/internal/core/table"
)

// ErrUnsupportedSession is returned for session types other than the race.
var ErrUnsupportedSession = errors.New("only race sessions are available")

// Raw column names produced by the race session tables.
var (
	ResultColumns = []string{
		"driver_id", "driver_code", "driver_url", "constructor_id", "constructor_url",
		"grid", "position", "status", "points", "laps", "fastest_lap_time", "race_time",
	}
	LapColumns = []string{"driver_id", "lap_number", "position", "lap_time", "compound", "track_status"}
)

// RaceSession is a race weekend's race session. Tables are empty until Load.
type RaceSession struct {
	core.SessionData
	client *Client
	pacer  *pacer
}

// Session resolves the identifier against the season and returns an unloaded
// race session.
func (c *Client) Session(ctx context.Context, year int, id core.Identifier, sessionType string) (engine.SessionHandle, error) {
	if c == nil {
		return nil, errors.New("jolpica client is nil")
	}
	if sessionType == "" {
		sessionType = core.SessionTypeRace
	}
	if sessionType != core.SessionTypeRace {
		return nil, fmt.Errorf("session type %q: %w", sessionType, ErrUnsupportedSession)
	}

	session := &RaceSession{
		SessionData: core.SessionData{Year: year, Type: sessionType},
		client:      c,
		pacer:       c.newPacer(),
	}

	if round, ok := id.Round(); ok {
		if round < 1 {
			return nil, fmt.Errorf("round %d is not a race weekend", round)
		}
		session.RoundNumber = round
		return session, nil
	}

	name, ok := id.Event()
	if !ok {
		return nil, errors.New("identifier is required")
	}
	events, err := c.eventSchedule(ctx, session.pacer, year)
	if err != nil {
		return nil, err
	}
	event, err := resolveEvent(events, name)
	if err != nil {
		return nil, fmt.Errorf("season %d: %w", year, err)
	}
	session.RoundNumber = event.RoundNumber
	session.Name = event.EventName
	return session, nil
}

// Load fetches results and lap timings.
func (s *RaceSession) Load(ctx context.Context) error {
	if s == nil || s.client == nil {
		return errors.New("race session is not bound to a client")
	}
	if s.pacer == nil {
		s.pacer = s.client.newPacer()
	}

	results, name, err := s.loadResults(ctx)
	if err != nil {
		return err
	}
	laps, err := s.loadLaps(ctx)
	if err != nil {
		return err
	}

	if s.Name == "" {
		s.Name = name
	}
	s.ResultsTable = results
	s.LapsTable = laps
	return nil
}

func (s *RaceSession) loadResults(ctx context.Context) (*table.Table, string, error) {
	races, err := s.client.fetchPages(ctx, s.pacer, fmt.Sprintf("/%d/%d/results.json", s.Year, s.RoundNumber), s.Year)
	if err != nil {
		return nil, "", fmt.Errorf("fetch results: %w", err)
	}
	if len(races) == 0 {
		return nil, "", fmt.Errorf("no results for %d round %d", s.Year, s.RoundNumber)
	}

	t := table.New(ResultColumns...)
	for _, race := range races {
		for _, r := range race.Results {
			var fastest any
			if r.FastestLap != nil && r.FastestLap.Time.Time != "" {
				fastest = r.FastestLap.Time.Time
			}
			var raceTime any
			if r.Time != nil {
				if ms, err := strconv.ParseInt(r.Time.Millis, 10, 64); err == nil {
					raceTime = time.Duration(ms) * time.Millisecond
				}
			}
			if err := t.AppendRow(
				r.Driver.DriverID, r.Driver.Code, r.Driver.URL,
				r.Constructor.ConstructorID, r.Constructor.URL,
				atoiOrNil(r.Grid), atoiOrNil(r.Position), r.Status,
				floatOrNil(r.Points), atoiOrNil(r.Laps), fastest, raceTime,
			); err != nil {
				return nil, "", err
			}
		}
	}
	return t, races[0].RaceName, nil
}

func (s *RaceSession) loadLaps(ctx context.Context) (*table.Table, error) {
	races, err := s.client.fetchPages(ctx, s.pacer, fmt.Sprintf("/%d/%d/laps.json", s.Year, s.RoundNumber), s.Year)
	if err != nil {
		return nil, fmt.Errorf("fetch laps: %w", err)
	}

	// The feed carries neither tyre nor track status data.
	t := table.New(LapColumns...)
	for _, race := range races {
		for _, lap := range race.Laps {
			number := atoiOrNil(lap.Number)
			for _, timing := range lap.Timings {
				if err := t.AppendRow(timing.DriverID, number, atoiOrNil(timing.Position), timing.Time, nil, nil); err != nil {
					return nil, err
				}
			}
		}
	}
	return t, nil
}

func atoiOrNil(raw string) any {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return n
}

func floatOrNil(raw string) any {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return f
}

var _ engine.Provider = (*Client)(nil)
