package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/tursodatabase/go-libsql"

	"github.com/gridfeed/gridfeed/internal/config"
)

const (
	driverLibsql   = config.DriverLibsql
	driverPostgres = config.DriverPostgres

	localBusyTimeout = 5 * time.Second
)

// Store wraps the database connection holding ingested race tables.
type Store struct {
	DB     *sql.DB
	Clock  func() time.Time
	driver string
}

// Open initializes a store connection using the provided configuration.
func Open(ctx context.Context, cfg config.StoreConfig) (*Store, error) {
	driver := strings.TrimSpace(cfg.Driver)
	if driver == "" {
		driver = driverLibsql
	}

	if ctx == nil {
		ctx = context.Background()
	}

	switch driver {
	case driverLibsql:
		dsn, err := buildLibsqlDSN(cfg)
		if err != nil {
			return nil, err
		}

		db, err := sql.Open(driverLibsql, dsn)
		if err != nil {
			return nil, fmt.Errorf("open libsql store: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping libsql store: %w", err)
		}
		switch {
		case dsn == ":memory:":
			// Each connection would otherwise see its own empty database.
			db.SetMaxOpenConns(1)
		case isLocalLibsql(dsn):
			if err := configureLocal(ctx, db); err != nil {
				_ = db.Close()
				return nil, err
			}
		default:
			applyPool(db, cfg)
		}

		return &Store{DB: db, driver: driver}, nil
	case driverPostgres:
		dsn, err := buildPostgresDSN(cfg)
		if err != nil {
			return nil, err
		}

		db, err := sql.Open(driverPostgres, dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		applyPool(db, cfg)
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping postgres store: %w", err)
		}

		return &Store{DB: db, driver: driver}, nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", driver)
	}
}

// Close releases database resources.
func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// Driver returns the configured store driver.
func (s *Store) Driver() string {
	if s == nil {
		return ""
	}
	return s.driver
}

func (s *Store) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

// rebind rewrites ? placeholders into $n for postgres.
func (s *Store) rebind(query string) string {
	if s.driver != driverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func applyPool(db *sql.DB, cfg config.StoreConfig) {
	if cfg.MaxOpen > 0 {
		db.SetMaxOpenConns(cfg.MaxOpen)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}
}

// configureLocal pins local database files to one connection in WAL mode.
func configureLocal(ctx context.Context, db *sql.DB) error {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	var mode string
	if err := db.QueryRowContext(ctx, "PRAGMA journal_mode=WAL").Scan(&mode); err != nil {
		return fmt.Errorf("enable wal journal: %w", err)
	}
	var timeout int
	pragma := fmt.Sprintf("PRAGMA busy_timeout=%d", localBusyTimeout.Milliseconds())
	if err := db.QueryRowContext(ctx, pragma).Scan(&timeout); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	return nil
}

func isLocalLibsql(dsn string) bool {
	return strings.HasPrefix(dsn, "file:")
}

func buildLibsqlDSN(cfg config.StoreConfig) (string, error) {
	if dsn := strings.TrimSpace(cfg.URL); dsn != "" {
		return addAuthToken(dsn, cfg.AuthToken)
	}

	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return "", errors.New("store path or url is required")
	}

	if path == ":memory:" {
		return path, nil
	}

	if strings.HasPrefix(path, "file:") {
		localPath, err := extractFilePath(path)
		if err != nil {
			return "", err
		}
		if err := ensureStoreDir(localPath); err != nil {
			return "", err
		}
		return path, nil
	}

	if strings.HasPrefix(path, "libsql:") {
		return path, nil
	}

	if err := ensureStoreDir(path); err != nil {
		return "", err
	}
	return "file:" + filepath.Clean(path), nil
}

// buildPostgresDSN prefers an explicit URL, otherwise assembles a lib/pq
// keyword/value connection string from the host fields.
func buildPostgresDSN(cfg config.StoreConfig) (string, error) {
	if dsn := strings.TrimSpace(cfg.URL); dsn != "" {
		return dsn, nil
	}

	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		return "", errors.New("postgres store requires url or host")
	}

	pairs := [][2]string{{"host", host}}
	if cfg.Port > 0 {
		pairs = append(pairs, [2]string{"port", strconv.Itoa(cfg.Port)})
	}
	pairs = append(pairs,
		[2]string{"user", cfg.User},
		[2]string{"password", cfg.Password},
		[2]string{"dbname", cfg.Name},
	)
	sslmode := strings.TrimSpace(cfg.SSLMode)
	if sslmode == "" {
		sslmode = "disable"
	}
	pairs = append(pairs, [2]string{"sslmode", sslmode})

	parts := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		if pair[1] == "" {
			continue
		}
		parts = append(parts, pair[0]+"="+quoteDSNValue(pair[1]))
	}
	return strings.Join(parts, " "), nil
}

func quoteDSNValue(value string) string {
	if value != "" && !strings.ContainsAny(value, " '\\") {
		return value
	}
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `'`, `\'`)
	return "'" + escaped + "'"
}

func addAuthToken(dsn string, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return dsn, nil
	}

	parsed, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid store url: %w", err)
	}

	query := parsed.Query()
	if query.Get("authToken") == "" {
		query.Set("authToken", token)
		parsed.RawQuery = query.Encode()
	}

	return parsed.String(), nil
}

func extractFilePath(dsn string) (string, error) {
	parsed, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid store path: %w", err)
	}

	if parsed.Path != "" {
		return strings.TrimPrefix(parsed.Path, "//"), nil
	}

	return strings.TrimPrefix(parsed.Opaque, "//"), nil
}

func ensureStoreDir(path string) error {
	if strings.TrimSpace(path) == "" || path == ":memory:" {
		return nil
	}

	dir := filepath.Dir(filepath.Clean(path))
	if dir == "." || dir == string(filepath.Separator) {
		return nil
	}

	// #nosec G301 -- data directories use 0755 for multi-user access compatibility
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	return nil
}
