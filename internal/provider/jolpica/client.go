// Package jolpica reads season calendars and race sessions from the
// Ergast-compatible Jolpica F1 API.
package jolpica

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the public Jolpica Ergast endpoint.
const DefaultBaseURL = "https://api.jolpi.ca/ergast/f1"

// pageSize is the largest page the API serves.
const pageSize = 100

// Client talks to the API. It satisfies engine.Provider.
type Client struct {
	BaseURL     string
	HTTP        *http.Client
	Cache       *FileCache
	ToolVersion string
	// Pace blocks before every outbound request after the first of one
	// provider call (schedule, session resolution plus load). The caller's
	// own wait covers the first. Cache hits are not paced.
	Pace func(ctx context.Context) error
}

// pacer spaces the outbound requests of one provider call.
type pacer struct {
	wait func(ctx context.Context) error
	sent int
}

func (c *Client) newPacer() *pacer {
	return &pacer{wait: c.Pace}
}

func (p *pacer) beforeRequest(ctx context.Context) error {
	if p == nil {
		return nil
	}
	p.sent++
	if p.sent == 1 || p.wait == nil {
		return nil
	}
	return p.wait(ctx)
}

type mrData struct {
	MRData struct {
		Limit     string    `json:"limit"`
		Offset    string    `json:"offset"`
		Total     string    `json:"total"`
		RaceTable raceTable `json:"RaceTable"`
	} `json:"MRData"`
}

type raceTable struct {
	Season string    `json:"season"`
	Round  string    `json:"round"`
	Races  []apiRace `json:"Races"`
}

type apiRace struct {
	Season   string `json:"season"`
	Round    string `json:"round"`
	RaceName string `json:"raceName"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Circuit  struct {
		CircuitID string `json:"circuitId"`
		Location  struct {
			Locality string `json:"locality"`
			Country  string `json:"country"`
		} `json:"Location"`
	} `json:"Circuit"`
	Sprint  *json.RawMessage `json:"Sprint,omitempty"`
	Results []apiResult      `json:"Results,omitempty"`
	Laps    []apiLap         `json:"Laps,omitempty"`
}

type apiResult struct {
	Position string `json:"position"`
	Points   string `json:"points"`
	Grid     string `json:"grid"`
	Laps     string `json:"laps"`
	Status   string `json:"status"`
	Driver   struct {
		DriverID string `json:"driverId"`
		Code     string `json:"code"`
		URL      string `json:"url"`
	} `json:"Driver"`
	Constructor struct {
		ConstructorID string `json:"constructorId"`
		URL           string `json:"url"`
	} `json:"Constructor"`
	Time *struct {
		Millis string `json:"millis"`
	} `json:"Time,omitempty"`
	FastestLap *struct {
		Time struct {
			Time string `json:"time"`
		} `json:"Time"`
	} `json:"FastestLap,omitempty"`
}

type apiLap struct {
	Number  string `json:"number"`
	Timings []struct {
		DriverID string `json:"driverId"`
		Position string `json:"position"`
		Time     string `json:"time"`
	} `json:"Timings"`
}

// fetchPages requests path page by page until the reported total is reached
// and returns the races of every page in order.
func (c *Client) fetchPages(ctx context.Context, p *pacer, path string, season int) ([]apiRace, error) {
	var races []apiRace
	for offset := 0; ; offset += pageSize {
		page, err := c.fetch(ctx, p, path, season, offset)
		if err != nil {
			return nil, err
		}
		races = append(races, page.MRData.RaceTable.Races...)

		total, err := strconv.Atoi(page.MRData.Total)
		if err != nil {
			return nil, fmt.Errorf("parse total %q for %s: %w", page.MRData.Total, path, err)
		}
		if offset+pageSize >= total {
			return races, nil
		}
	}
}

func (c *Client) fetch(ctx context.Context, p *pacer, path string, season, offset int) (*mrData, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(pageSize))
	query.Set("offset", strconv.Itoa(offset))
	target := strings.TrimRight(c.baseURL(), "/") + path + "?" + query.Encode()

	body, cached := c.Cache.Get(target, season)
	if !cached {
		if err := p.beforeRequest(ctx); err != nil {
			return nil, err
		}
		var err error
		body, err = c.get(ctx, target)
		if err != nil {
			return nil, err
		}
		_ = c.Cache.Put(target, body)
	}

	var page mrData
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode %s: %w", target, err)
	}
	return &page, nil
}

func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "gridfeed/"+c.toolVersion())

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: target, StatusCode: resp.StatusCode, RetryAfter: retryAfterHeader(resp)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", target, err)
	}
	if len(body) == 0 {
		return nil, errors.New("empty response from " + target)
	}
	return body, nil
}

func (c *Client) baseURL() string {
	if c != nil && c.BaseURL != "" {
		return c.BaseURL
	}
	return DefaultBaseURL
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: 30 * time.Second}
}

func (c *Client) toolVersion() string {
	if c.ToolVersion != "" {
		return c.ToolVersion
	}
	return "dev"
}
