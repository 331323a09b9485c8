package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/XSAM/otelsql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"pdfapi/internal/config"
	"pdfapi/internal/database/migration"
	"pdfapi/internal/repository/postgres"
)

// ApplicationName is reported to PostgreSQL so index connections are identifiable in pg_stat_activity.
const ApplicationName = "pdfapi"

const pingTimeout = 5 * time.Second

// ErrIndexConfig is returned when DB_* settings cannot describe a usable index connection.
var ErrIndexConfig = errors.New("invalid object index config")

var sqlOpen = sql.Open

// Index is the PostgreSQL-backed filename to storage key mapping.
type Index struct {
	DB        *sql.DB
	Documents *postgres.DocumentPostgres
}

// OpenIndex connects to the index database, makes sure the stored_documents
// schema exists and returns the repository over it. The connection is closed
// again if any step fails.
func OpenIndex(ctx context.Context, c config.DatabaseConfig, logger *logrus.Logger) (*Index, error) {
	dsn, err := indexDSN(c)
	if err != nil {
		return nil, err
	}

	db, err := open(ctx, dsn, c)
	if err != nil {
		return nil, err
	}

	if err := migration.EnsureMigrated(ctx, db, logger, c.Host); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate object index: %w", err)
	}

	return &Index{DB: db, Documents: postgres.NewDocumentPostgres(db)}, nil
}

// Close releases the index connection pool.
func (i *Index) Close() error {
	return i.DB.Close()
}

// indexDSN renders c as a libpq keyword/value connection string.
func indexDSN(c config.DatabaseConfig) (string, error) {
	var missing []string
	for _, s := range []struct{ env, val string }{
		{"DB_HOST", c.Host},
		{"DB_PORT", c.Port},
		{"DB_USER", c.User},
		{"DB_NAME", c.Name},
	} {
		if s.val == "" {
			missing = append(missing, s.env)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: missing %s", ErrIndexConfig, strings.Join(missing, ", "))
	}
	if c.MaxOpenConns > 0 && c.MaxIdleConns > c.MaxOpenConns {
		return "", fmt.Errorf("%w: DB_MAX_IDLE_CONNS (%d) exceeds DB_MAX_OPEN_CONNS (%d)",
			ErrIndexConfig, c.MaxIdleConns, c.MaxOpenConns)
	}

	params := [][2]string{
		{"host", c.Host},
		{"port", c.Port},
		{"user", c.User},
		{"dbname", c.Name},
		{"application_name", ApplicationName},
	}
	if c.Password != "" {
		params = append(params, [2]string{"password", c.Password})
	}
	if c.SSLMode != "" {
		params = append(params, [2]string{"sslmode", c.SSLMode})
	}

	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p[0] + "=" + quoteDSNValue(p[1])
	}
	return strings.Join(parts, " "), nil
}

func quoteDSNValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

// open registers the otelsql-wrapped pgx driver, applies pool limits and pings.
func open(ctx context.Context, dsn string, c config.DatabaseConfig) (*sql.DB, error) {
	driverName, err := otelsql.Register("pgx",
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithSQLCommenter(true),
	)
	if err != nil {
		return nil, fmt.Errorf("register otelsql: %w", err)
	}

	db, err := sqlOpen(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open object index: %w", err)
	}

	if c.MaxOpenConns > 0 {
		db.SetMaxOpenConns(c.MaxOpenConns)
	}
	if c.MaxIdleConns > 0 {
		db.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.ConnMaxLifetimeSec > 0 {
		db.SetConnMaxLifetime(time.Duration(c.ConnMaxLifetimeSec) * time.Second)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping object index at %s:%s: %w", c.Host, c.Port, err)
	}

	return db, nil
}
