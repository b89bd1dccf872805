package postgres

import (
	"context"
	"database/sql"
	"log"
	"os"
	"time"
)

// PostgresLockManager hands out named TTL locks through a shared table.
// The sweeper uses it so only one API replica processes a sweep round.
type PostgresLockManager struct {
	db       *sql.DB
	holderID string
}

func NewLockManager(db *sql.DB) *PostgresLockManager {
	// The hostname identifies this replica (e.g. the pod name)
	holderID, err := os.Hostname()
	if err != nil {
		holderID = "unknown-" + time.Now().String()
	}
	return &PostgresLockManager{
		db:       db,
		holderID: holderID,
	}
}

func (l *PostgresLockManager) InitSchema() error {
	_, err := l.db.Exec(`
		CREATE TABLE IF NOT EXISTS locks (
			key VARCHAR(255) PRIMARY KEY,
			holder_id VARCHAR(255) NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL
		);
	`)
	return err
}

// TryAcquireLock takes the key for ttlSeconds, or extends it when this
// replica already holds it. A false return means another holder owns it.
func (l *PostgresLockManager) TryAcquireLock(ctx context.Context, key string, ttlSeconds int) (bool, error) {
	// Expired locks are dead holders; clear them before trying.
	_, err := l.db.ExecContext(ctx, "DELETE FROM locks WHERE key = $1 AND expires_at < NOW()", key)
	if err != nil {
		return false, err
	}

	expiresAt := time.Now().Add(time.Duration(ttlSeconds) * time.Second)

	res, err := l.db.ExecContext(ctx, `
		INSERT INTO locks (key, holder_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO NOTHING
	`, key, l.holderID, expiresAt)
	if err != nil {
		return false, err
	}
	rows, _ := res.RowsAffected()
	if rows > 0 {
		return true, nil
	}

	// The key exists. Extend it if we are the holder (heartbeat).
	res, err = l.db.ExecContext(ctx, `
		UPDATE locks SET expires_at = $3
		WHERE key = $1 AND holder_id = $2
	`, key, l.holderID, expiresAt)
	if err != nil {
		return false, err
	}
	rows, _ = res.RowsAffected()
	return rows > 0, nil
}

func (l *PostgresLockManager) ReleaseLock(ctx context.Context, key string) error {
	_, err := l.db.ExecContext(ctx, `
		DELETE FROM locks WHERE key = $1 AND holder_id = $2
	`, key, l.holderID)

	if err == nil {
		log.Printf("[LockManager] Released lock %s", key)
	}
	return err
}
