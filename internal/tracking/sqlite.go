package tracking

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/quillon/acatflow/internal/common"
	"github.com/quillon/acatflow/internal/model"
	"github.com/quillon/acatflow/internal/service"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// SQLiteStore implements the Store interface on SQLite, for deployments
// that want tracked records to survive a restart. The transfer payload is
// stored as a JSON document; history rows live in their own table so the
// append-only property is visible in the schema.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
	notifier
	dbPath string
}

// NewSQLiteStore opens (or creates) a SQLite-backed store at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("%w: database path is required", common.ErrInvalidConfig)
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
		now:    time.Now,
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// retryBusy reruns a write when SQLite reports a transient lock. The
// driver's busy_timeout only waits inside a statement; a deferred
// transaction upgrading to a write lock can still fail immediately with
// SQLITE_BUSY. All other errors abort on the first attempt and are
// returned unchanged.
func (s *SQLiteStore) retryBusy(ctx context.Context, op func() error) error {
	var lastErr error
	err := common.WithRetry(ctx, func() error {
		lastErr = op()
		if lastErr == nil || isBusy(lastErr) {
			return lastErr
		}
		return &common.RetryableError{Err: lastErr, Retryable: false}
	}, service.RetryOptions{MaxAttempts: 3, InitialDelay: 50 * time.Millisecond})
	if err != nil {
		return lastErr
	}
	return nil
}

func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) &&
		(sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked)
}

// Create inserts a record with status new and an empty history.
func (s *SQLiteStore) Create(ctx context.Context, transfer model.TransferRecord, actor string) (model.TrackedRecord, error) {
	payload, err := json.Marshal(transfer)
	if err != nil {
		return model.TrackedRecord{}, fmt.Errorf("failed to marshal transfer payload: %w", err)
	}

	now := s.now().UTC()
	record := model.TrackedRecord{
		ID:        uuid.NewString(),
		Status:    model.StatusNew,
		Transfer:  transfer.Clone(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.retryBusy(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx,
			`INSERT INTO records (id, status, contra_firm, payload, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			record.ID, string(record.Status), transfer.ContraFirm, string(payload), now, now)
		return execErr
	})
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return model.TrackedRecord{}, fmt.Errorf("record %s: %w", record.ID, common.ErrDuplicateEntry)
		}
		return model.TrackedRecord{}, fmt.Errorf("failed to insert record: %w", err)
	}

	s.recordAudit("create", "record", record.ID, actor, map[string]any{
		"contra_firm":        transfer.ContraFirm,
		"delivering_account": transfer.DeliveringAccount,
		"receiving_account":  transfer.ReceivingAccount,
		"status":             string(record.Status),
	})

	return record, nil
}

// Get loads one record and its full history.
func (s *SQLiteStore) Get(ctx context.Context, id string) (model.TrackedRecord, error) {
	record, err := s.getRecord(ctx, id)
	if err != nil {
		return model.TrackedRecord{}, err
	}

	history, err := s.getHistory(ctx, id)
	if err != nil {
		return model.TrackedRecord{}, err
	}
	record.History = history
	return record, nil
}

// List returns all records with their histories.
func (s *SQLiteStore) List(ctx context.Context) ([]model.TrackedRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, payload, created_at, updated_at FROM records`)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]model.TrackedRecord, 0)
	for rows.Next() {
		record, scanErr := scanRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}

	for i := range records {
		history, histErr := s.getHistory(ctx, records[i].ID)
		if histErr != nil {
			return nil, histErr
		}
		records[i].History = history
	}
	return records, nil
}

// UpdateStatus appends a history row and moves the record to newStatus in a
// single transaction, so concurrent readers never observe the append without
// the matching status.
func (s *SQLiteStore) UpdateStatus(ctx context.Context, id string, newStatus model.Status, reason, actor string) (model.TrackedRecord, error) {
	var current string
	now := s.now().UTC()
	err := s.retryBusy(ctx, func() error {
		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}
		defer func() { _ = tx.Rollback() }()

		scanErr := tx.QueryRowContext(ctx, `SELECT status FROM records WHERE id = ?`, id).Scan(&current)
		if errors.Is(scanErr, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		if scanErr != nil {
			return fmt.Errorf("failed to load record status: %w", scanErr)
		}

		if _, execErr := tx.ExecContext(ctx,
			`INSERT INTO status_history (record_id, from_status, to_status, reason, actor, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id, current, string(newStatus), reason, actor, now); execErr != nil {
			return fmt.Errorf("failed to append history: %w", execErr)
		}

		if _, execErr := tx.ExecContext(ctx,
			`UPDATE records SET status = ?, updated_at = ? WHERE id = ?`,
			string(newStatus), now, id); execErr != nil {
			return fmt.Errorf("failed to update record: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit status update: %w", commitErr)
		}
		return nil
	})
	if err != nil {
		return model.TrackedRecord{}, err
	}

	record, err := s.Get(ctx, id)
	if err != nil {
		return model.TrackedRecord{}, err
	}

	s.emitStatusChange(StatusChange{
		RecordID:   id,
		ContraFirm: record.Transfer.ContraFirm,
		From:       model.Status(current),
		To:         newStatus,
		Reason:     reason,
		Actor:      actor,
		At:         now,
	})
	s.recordAudit("status_change", "record", id, actor, map[string]any{
		"from_status": current,
		"to_status":   string(newStatus),
		"reason":      reason,
	})

	return record, nil
}

// Delete removes a record and its history. Unknown ids are a no-op.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	return s.retryBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err = tx.ExecContext(ctx, `DELETE FROM status_history WHERE record_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete history: %w", err)
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete record: %w", err)
		}
		return tx.Commit()
	})
}

func (s *SQLiteStore) getRecord(ctx context.Context, id string) (model.TrackedRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, payload, created_at, updated_at FROM records WHERE id = ?`, id)

	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.TrackedRecord{}, common.ErrNotFound
	}
	return record, err
}

func (s *SQLiteStore) getHistory(ctx context.Context, id string) ([]model.StatusTransition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT from_status, to_status, reason, actor, created_at
		 FROM status_history WHERE record_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var history []model.StatusTransition
	for rows.Next() {
		var t model.StatusTransition
		var from, to string
		if err := rows.Scan(&from, &to, &t.Reason, &t.Actor, &t.At); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		t.From = model.Status(from)
		t.To = model.Status(to)
		history = append(history, t)
	}
	return history, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (model.TrackedRecord, error) {
	var record model.TrackedRecord
	var status, payload string
	if err := row.Scan(&record.ID, &status, &payload, &record.CreatedAt, &record.UpdatedAt); err != nil {
		return model.TrackedRecord{}, err
	}
	record.Status = model.Status(status)
	if err := json.Unmarshal([]byte(payload), &record.Transfer); err != nil {
		return model.TrackedRecord{}, fmt.Errorf("failed to unmarshal transfer payload: %w", err)
	}
	return record, nil
}
