package database

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fenilmodi00/ipo-tracker/shared"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

//go:embed schema.sql
var schemaSQL string

// Connect opens a Postgres pool with the default pool configuration
func Connect(dbURL string) (*sql.DB, error) {
	config := shared.NewDefaultUnifiedConfiguration().Database
	return ConnectWithConfig(dbURL, &config)
}

// ConnectWithConfig opens a Postgres pool and verifies it with a ping
func ConnectWithConfig(dbURL string, config *shared.DatabaseConfig) (*sql.DB, error) {
	if strings.TrimSpace(dbURL) == "" {
		return nil, shared.NewServiceError(shared.ErrorCategoryConfiguration, "DATABASE_URL_MISSING",
			"DATABASE_URL is not set", "database", "connect", false, nil)
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), config.PingTimeout)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"component":          "database",
		"max_open_conns":     config.MaxOpenConns,
		"max_idle_conns":     config.MaxIdleConns,
		"conn_max_lifetime":  config.ConnMaxLifetime,
		"conn_max_idle_time": config.ConnMaxIdleTime,
	}).Info("Connected to database")

	return db, nil
}

// HealthCheck pings the database and logs pool statistics
func HealthCheck(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("database connection not established")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	stats := db.Stats()
	logrus.WithFields(logrus.Fields{
		"component":        "database",
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
		"wait_count":       stats.WaitCount,
	}).Debug("Database connection pool health check")

	return nil
}

// Migrate applies the embedded schema statement by statement. Failures are
// logged and counted so one bad statement does not hide the rest.
func Migrate(ctx context.Context, db *sql.DB) error {
	statements := parseSQLStatements(schemaSQL)

	failed := 0
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			failed++
			logrus.WithError(err).WithField("statement", firstLine(stmt)).Warn("Migration statement failed")
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d migration statements failed", failed, len(statements))
	}

	logrus.WithField("statements", len(statements)).Info("Database migration completed successfully")
	return nil
}

// parseSQLStatements splits SQL content on statement-terminating semicolons,
// dropping comment-only and blank lines.
func parseSQLStatements(content string) []string {
	var statements []string
	var currentStatement strings.Builder

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)

		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}

		if currentStatement.Len() > 0 {
			currentStatement.WriteString(" ")
		}
		currentStatement.WriteString(line)

		if strings.HasSuffix(line, ";") {
			stmt := strings.TrimSpace(strings.TrimSuffix(currentStatement.String(), ";"))
			if stmt != "" {
				statements = append(statements, stmt)
			}
			currentStatement.Reset()
		}
	}

	if stmt := strings.TrimSpace(currentStatement.String()); stmt != "" {
		statements = append(statements, stmt)
	}

	return statements
}

func firstLine(stmt string) string {
	if len(stmt) > 80 {
		return stmt[:80] + "..."
	}
	return stmt
}

// classifyError turns driver errors into ServiceErrors. Unique violations
// become conflicts, other integrity violations (SQLSTATE class 23) become
// validation errors and everything else is database.
func classifyError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return shared.NewServiceError(shared.ErrorCategoryConflict, string(pqErr.Code),
			fmt.Sprintf("%s conflicts with an existing row (%s)", operation, pqErr.Constraint), "database", operation, true, err)
	}
	if errors.As(err, &pqErr) && pqErr.Code.Class() == "23" {
		return shared.NewServiceError(shared.ErrorCategoryValidation, string(pqErr.Code),
			fmt.Sprintf("%s violates %s", operation, pqErr.Constraint), "database", operation, false, err)
	}

	return shared.NewServiceError(shared.ErrorCategoryDatabase, "QUERY_FAILED",
		fmt.Sprintf("%s failed: %v", operation, err), "database", operation, shared.IsRetryableError(err), err)
}
