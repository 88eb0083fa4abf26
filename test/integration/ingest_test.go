//go:build cgo

package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gridfeed/gridfeed/internal/config"
	"github.com/gridfeed/gridfeed/internal/core"
	"github.com/gridfeed/gridfeed/internal/core/engine"
	"github.com/gridfeed/gridfeed/internal/core/pipeline"
	"github.com/gridfeed/gridfeed/internal/core/store"
	"github.com/gridfeed/gridfeed/internal/provider/jolpica"
)

const seasonSchedule = `{"MRData":{"limit":"100","offset":"0","total":"2","RaceTable":{"season":"2023","Races":[
 {"season":"2023","round":"1","raceName":"Bahrain Grand Prix","date":"2023-03-05",
  "Circuit":{"circuitId":"bahrain","Location":{"locality":"Sakhir","country":"Bahrain"}}},
 {"season":"2023","round":"2","raceName":"Saudi Arabian Grand Prix","date":"2023-03-19",
  "Circuit":{"circuitId":"jeddah","Location":{"locality":"Jeddah","country":"Saudi Arabia"}}}
]}}}`

const bahrainResults = `{"MRData":{"limit":"100","offset":"0","total":"2","RaceTable":{"season":"2023","round":"1","Races":[
 {"season":"2023","round":"1","raceName":"Bahrain Grand Prix","Results":[
  {"position":"1","points":"25","grid":"1","laps":"57","status":"Finished",
   "Driver":{"driverId":"max_verstappen","code":"VER","url":"u"},
   "Constructor":{"constructorId":"red_bull","url":"u"},
   "Time":{"millis":"5636736","time":"1:33:56.736"},
   "FastestLap":{"rank":"6","lap":"44","Time":{"time":"1:33.996"}}},
  {"position":"2","points":"18","grid":"2","laps":"57","status":"Finished",
   "Driver":{"driverId":"perez","code":"PER","url":"u"},
   "Constructor":{"constructorId":"red_bull","url":"u"},
   "Time":{"millis":"5648723","time":"+11.987"}}
 ]}]}}}`

const bahrainLaps = `{"MRData":{"limit":"100","offset":"0","total":"3","RaceTable":{"season":"2023","round":"1","Races":[
 {"season":"2023","round":"1","raceName":"Bahrain Grand Prix","Laps":[
  {"number":"1","Timings":[
   {"driverId":"max_verstappen","position":"1","time":"1:37.284"},
   {"driverId":"perez","position":"2","time":"1:38.012"}]},
  {"number":"2","Timings":[
   {"driverId":"max_verstappen","position":"1","time":"1:32.456"}]}
 ]}]}}}`

func newProviderServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/2023.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(seasonSchedule))
	})
	mux.HandleFunc("/2023/1/results.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(bahrainResults))
	})
	mux.HandleFunc("/2023/1/laps.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(bahrainLaps))
	})
	mux.HandleFunc("/2023/2/results.json", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestSeasonIngestionPersistsTables(t *testing.T) {
	ctx := context.Background()
	server := newProviderServer(t)

	cacheDir := t.TempDir()
	client := &jolpica.Client{
		BaseURL: server.URL,
		HTTP:    server.Client(),
		Cache:   &jolpica.FileCache{Dir: cacheDir},
	}

	limiter, err := engine.NewAdaptiveLimiter(engine.Bounds{Min: time.Millisecond, Max: 5 * time.Millisecond})
	require.NoError(t, err)
	limiter.Jitter = func() time.Duration { return 0 }

	ingestor := &engine.Ingestor{
		Schedule: client,
		Loader: &engine.SessionLoader{
			Provider: client,
			Limiter:  limiter,
			Timeout:  10 * time.Second,
		},
		Concurrency: 2,
	}

	reports, err := ingestor.IngestYears(ctx, []int{2023})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	report := reports[0]
	require.Equal(t, "1/2", report.Summary())
	require.Len(t, report.Failures, 1)
	require.Equal(t, core.RoundNumber(2), report.Failures[0].Identifier)

	db, err := store.Open(ctx, config.StoreConfig{Driver: "libsql", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx))

	processor := &pipeline.Processor{Writer: db}
	for _, session := range report.Successes {
		processed, err := processor.Process(ctx, session)
		require.NoError(t, err)
		require.Equal(t, "2023_1", processed.RaceID)
	}
	require.NoError(t, db.RecordRun(ctx, report))

	laps, err := db.CountRows(ctx, "laps", "2023_1")
	require.NoError(t, err)
	require.Equal(t, 3, laps)

	results, err := db.CountRows(ctx, "results", "2023_1")
	require.NoError(t, err)
	require.Equal(t, 2, results)

	var lapTime int64
	require.NoError(t, db.DB.QueryRowContext(ctx,
		"SELECT lap_time_ms FROM race_laps WHERE race_id = ? AND driver_id = ? AND lap_number = ?",
		"2023_1", "max_verstappen", 2).Scan(&lapTime))
	require.Equal(t, int64(92456), lapTime)

	var raceTime, fastest int64
	require.NoError(t, db.DB.QueryRowContext(ctx,
		"SELECT race_time_ms, fastest_lap_time_ms FROM race_results WHERE race_id = ? AND driver_id = ?",
		"2023_1", "max_verstappen").Scan(&raceTime, &fastest))
	require.Equal(t, int64(5636736), raceTime)
	require.Equal(t, int64(93996), fastest)

	runs, err := db.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, "1/2", runs[0].Summary())
}
