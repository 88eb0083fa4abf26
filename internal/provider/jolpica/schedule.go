package jolpica

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gridfeed/gridfeed/internal/core"
)

// Event formats reported for calendar entries.
const (
	EventFormatConventional = "conventional"
	EventFormatSprint       = "sprint"
)

// EventSchedule returns the season calendar in round order.
func (c *Client) EventSchedule(ctx context.Context, year int) ([]core.Event, error) {
	if c == nil {
		return nil, errors.New("jolpica client is nil")
	}
	return c.eventSchedule(ctx, c.newPacer(), year)
}

func (c *Client) eventSchedule(ctx context.Context, p *pacer, year int) ([]core.Event, error) {
	races, err := c.fetchPages(ctx, p, fmt.Sprintf("/%d.json", year), year)
	if err != nil {
		return nil, fmt.Errorf("fetch %d schedule: %w", year, err)
	}

	events := make([]core.Event, 0, len(races))
	for _, race := range races {
		event, err := toEvent(race)
		if err != nil {
			return nil, fmt.Errorf("%d schedule: %w", year, err)
		}
		events = append(events, event)
	}
	return events, nil
}

func toEvent(race apiRace) (core.Event, error) {
	round, err := strconv.Atoi(race.Round)
	if err != nil {
		return core.Event{}, fmt.Errorf("race %q has invalid round %q", race.RaceName, race.Round)
	}
	format := EventFormatConventional
	if race.Sprint != nil {
		format = EventFormatSprint
	}
	return core.Event{
		RoundNumber: round,
		EventName:   race.RaceName,
		EventFormat: format,
		Country:     race.Circuit.Location.Country,
		Location:    race.Circuit.Location.Locality,
		Date:        raceDate(race.Date, race.Time),
	}, nil
}

func raceDate(date, clock string) time.Time {
	if date == "" {
		return time.Time{}
	}
	if clock != "" {
		if t, err := time.Parse(time.RFC3339, date+"T"+clock); err == nil {
			return t.UTC()
		}
	}
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// resolveEvent finds a race weekend by name. Exact matches win over
// substring matches, which win over country or location matches. Several
// events matching at the winning tier is an error.
func resolveEvent(events []core.Event, name string) (core.Event, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return core.Event{}, errors.New("event name is empty")
	}
	matchers := []func(core.Event) bool{
		func(e core.Event) bool { return strings.ToLower(e.EventName) == needle },
		func(e core.Event) bool { return strings.Contains(strings.ToLower(e.EventName), needle) },
		func(e core.Event) bool {
			return strings.ToLower(e.Country) == needle || strings.ToLower(e.Location) == needle
		},
	}
	for _, match := range matchers {
		var matched []core.Event
		for _, event := range events {
			if event.IsRaceWeekend() && match(event) {
				matched = append(matched, event)
			}
		}
		switch len(matched) {
		case 0:
			continue
		case 1:
			return matched[0], nil
		}
		names := make([]string, 0, len(matched))
		for _, event := range matched {
			names = append(names, fmt.Sprintf("%s (round %d)", event.EventName, event.RoundNumber))
		}
		return core.Event{}, fmt.Errorf("event %q is ambiguous: matches %s", name, strings.Join(names, ", "))
	}
	return core.Event{}, fmt.Errorf("no event matches %q", name)
}
