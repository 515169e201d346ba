package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const defaultPingTimeout = 2 * time.Second

// Ping checks that the database answers within timeout.
func Ping(ctx context.Context, sqlDB *sql.DB, timeout time.Duration) error {
	if timeout == 0 {
		timeout = defaultPingTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}
