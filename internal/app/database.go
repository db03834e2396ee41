package app

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/newrelic/go-agent/v3/integrations/nrpq" // Registers "nrpostgres" driver
	"github.com/newrelic/go-agent/v3/newrelic"

	"gomate/internal/config"
)

// NewDatabase opens the PostgreSQL connection backing the key-value store.
// With a New Relic application the instrumented driver is used.
//
// Writes to one key are already serialized by the store's KeyMutex and the
// table holds one row per key, so the pool stays small and idle connections
// are released quickly.
func NewDatabase(ctx context.Context, cfg config.DatabaseConfig, nrApp *newrelic.Application) (*sql.DB, error) {
	driver := "postgres"
	if nrApp != nil {
		driver = "nrpostgres"
	}

	db, err := sql.Open(driver, postgresDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database with %s: %w", driver, err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 4
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(min(2, maxOpen))
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// postgresDSN builds a libpq keyword/value connection string.
func postgresDSN(cfg config.DatabaseConfig) string {
	params := [][2]string{
		{"host", cfg.Host},
		{"port", cfg.Port},
		{"user", cfg.User},
		{"password", cfg.Password},
		{"dbname", cfg.DBName},
		{"sslmode", cfg.SSLMode},
		{"application_name", cfg.AppName},
	}
	if cfg.ConnectTimeout > 0 {
		// libpq takes whole seconds; anything below one rounds up.
		secs := int((cfg.ConnectTimeout + time.Second - 1) / time.Second)
		params = append(params, [2]string{"connect_timeout", fmt.Sprint(secs)})
	}

	parts := make([]string, 0, len(params))
	for _, p := range params {
		if p[1] == "" {
			continue
		}
		parts = append(parts, p[0]+"="+quoteDSNValue(p[1]))
	}
	return strings.Join(parts, " ")
}

func quoteDSNValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
