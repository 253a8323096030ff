// Package store persists organisation records in SQLite, keyed by the
// repository file they were read from.
package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nahidhasan98/orgsync/internal/models"
)

// ErrNotFound is returned when no record exists for a filename
var ErrNotFound = stderrors.New("organisation not found")

const schema = `
CREATE TABLE IF NOT EXISTS organisations (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	name                 TEXT NOT NULL,
	registration_number  TEXT NOT NULL,
	registration_country TEXT NOT NULL,
	payload              TEXT NOT NULL,
	filename             TEXT NOT NULL UNIQUE,
	created_at           TIMESTAMP NOT NULL,
	updated_at           TIMESTAMP NOT NULL
)`

const selectColumns = `id, name, registration_number, registration_country, payload, filename, created_at, updated_at`

// Store is the organisation record store
type Store struct {
	db *sql.DB
}

// Open connects to the database and makes sure the schema exists
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite allows a single writer; one connection also keeps :memory: databases intact
	db.SetMaxOpenConns(1)

	s, err := New(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing database handle and creates the schema
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// FindByFilename returns the record stored for filename, or ErrNotFound
func (s *Store) FindByFilename(ctx context.Context, filename string) (*models.OrganisationRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM organisations WHERE filename = ?`, filename)

	rec, err := scanRecord(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding %s: %w", filename, err)
	}
	return rec, nil
}

// List returns every stored record ordered by filename
func (s *Store) List(ctx context.Context) ([]*models.OrganisationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM organisations ORDER BY filename`)
	if err != nil {
		return nil, fmt.Errorf("listing organisations: %w", err)
	}
	defer rows.Close()

	var records []*models.OrganisationRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning organisation: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Create inserts rec and fills in its ID and timestamps
func (s *Store) Create(ctx context.Context, rec *models.OrganisationRecord) error {
	if rec.Filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO organisations (name, registration_number, registration_country, payload, filename, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Name, rec.RegistrationNumber, rec.RegistrationCountry, string(payload), rec.Filename, now, now)
	if err != nil {
		return fmt.Errorf("creating %s: %w", rec.Filename, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading id for %s: %w", rec.Filename, err)
	}

	rec.ID = id
	rec.CreatedAt = now
	rec.UpdatedAt = now
	return nil
}

// Update overwrites every field of the record identified by rec.ID
func (s *Store) Update(ctx context.Context, rec *models.OrganisationRecord) error {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE organisations
		 SET name = ?, registration_number = ?, registration_country = ?, payload = ?, filename = ?, updated_at = ?
		 WHERE id = ?`,
		rec.Name, rec.RegistrationNumber, rec.RegistrationCountry, string(payload), rec.Filename, now, rec.ID)
	if err != nil {
		return fmt.Errorf("updating %s: %w", rec.Filename, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	rec.UpdatedAt = now
	return nil
}

// Destroy deletes the record identified by rec.ID
func (s *Store) Destroy(ctx context.Context, rec *models.OrganisationRecord) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM organisations WHERE id = ?`, rec.ID)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", rec.Filename, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Truncate removes every record
func (s *Store) Truncate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM organisations`); err != nil {
		return fmt.Errorf("truncating organisations: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*models.OrganisationRecord, error) {
	var (
		rec     models.OrganisationRecord
		payload string
	)

	if err := row.Scan(&rec.ID, &rec.Name, &rec.RegistrationNumber, &rec.RegistrationCountry,
		&payload, &rec.Filename, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(payload)))
	dec.UseNumber()
	if err := dec.Decode(&rec.Payload); err != nil {
		return nil, fmt.Errorf("decoding payload of %s: %w", rec.Filename, err)
	}

	return &rec, nil
}
