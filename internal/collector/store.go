// Package collector implements the reference collector behind the telemetry
// interface boundary: an HTTP API that receives vital records from monitors
// and a SQLite-backed store of received readings, grouped into collector
// sessions.
package collector

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/healthcarekit/vitalmon/internal/vitals"
)

//go:embed schema.sql
var initSchemaSQL string

// ErrNoReadings is returned when a session has received nothing yet.
var ErrNoReadings = errors.New("no readings received")

// ErrNoSessions is returned when the database holds no sessions.
var ErrNoSessions = errors.New("no sessions in database")

// Reading is a stored telemetry record with collector-side metadata.
type Reading struct {
	ID         int64          `json:"id"`
	SessionID  string         `json:"session_id"`
	ReceivedAt time.Time      `json:"received_at"`
	Record     *vitals.Record `json:"data"`
}

// Store persists sessions and readings. Write and read connections are
// opened lazily and independently, the write side with a WAL journal.
type Store struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// NewStore creates a store over the SQLite database at dbPath. Connections
// are not opened until first use.
func NewStore(dbPath string) *Store {
	return &Store{dbPath: dbPath}
}

func (s *Store) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}

		if _, err = db.Exec(initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *Store) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

// CreateSession registers a new collector session and returns its ID.
func (s *Store) CreateSession(ctx context.Context) (sessionID string, err error) {
	db, err := s.getWriteDB()
	if err != nil {
		return "", fmt.Errorf("getting write connection: %w", err)
	}

	sessionID = uuid.NewString()
	if _, err = db.ExecContext(ctx, insertSessionSQL, sessionID, time.Now().UTC()); err != nil {
		return "", fmt.Errorf("inserting session: %w", err)
	}
	return sessionID, nil
}

// InsertReading stores one received record under the given session.
func (s *Store) InsertReading(ctx context.Context, sessionID string, rec *vitals.Record) (readingID int64, err error) {
	db, err := s.getWriteDB()
	if err != nil {
		return 0, fmt.Errorf("getting write connection: %w", err)
	}

	var sensors sql.NullString
	if rec.Sensors != nil {
		p, err := json.Marshal(rec.Sensors)
		if err != nil {
			return 0, fmt.Errorf("marshaling sensors map: %w", err)
		}
		sensors.Valid = true
		sensors.String = string(p)
	}

	stmt, err := db.PrepareContext(ctx, insertReadingSQL)
	if err != nil {
		return 0, fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	result, err := stmt.ExecContext(ctx,
		sessionID,
		time.Now().UTC(),
		rec.DeviceID,
		rec.HeartRate,
		rec.BPSystolic,
		rec.BPDiastolic,
		rec.Temperature,
		rec.OxygenSaturation,
		rec.RespiratoryRate,
		rec.ECGValue,
		rec.ECGLeadsConnected,
		rec.Timestamp,
		sensors,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting reading: %w", err)
	}

	readingID, err = result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting reading ID: %w", err)
	}
	return readingID, nil
}

// LatestReading returns the most recently received reading of a session, or
// ErrNoReadings.
func (s *Store) LatestReading(ctx context.Context, sessionID string) (*Reading, error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	r, err := scanReading(db.QueryRowContext(ctx, selectLatestSQL, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoReadings
	}
	return r, err
}

// History returns up to limit readings of a session, most recent first.
func (s *Store) History(ctx context.Context, sessionID string, limit int) (readings []*Reading, err error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	rows, err := db.QueryContext(ctx, selectHistorySQL, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

// SessionReadings returns every reading of a session in the order received,
// oldest first. Intended for offline consumers such as the trend renderer.
func (s *Store) SessionReadings(ctx context.Context, sessionID string) (readings []*Reading, err error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	rows, err := db.QueryContext(ctx, selectSessionSQL, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying session readings: %w", err)
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

// LatestSession returns the ID of the most recently started session, or
// ErrNoSessions.
func (s *Store) LatestSession(ctx context.Context) (string, error) {
	db, err := s.getReadDB()
	if err != nil {
		return "", fmt.Errorf("getting read connection: %w", err)
	}

	var id string
	err = db.QueryRowContext(ctx, selectLatestSessionSQL).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoSessions
	}
	if err != nil {
		return "", fmt.Errorf("querying latest session: %w", err)
	}
	return id, nil
}

// Count returns the number of readings received in a session.
func (s *Store) Count(ctx context.Context, sessionID string) (int64, error) {
	db, err := s.getReadDB()
	if err != nil {
		return 0, fmt.Errorf("getting read connection: %w", err)
	}

	var n int64
	if err := db.QueryRowContext(ctx, countReadingsSQL, sessionID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting readings: %w", err)
	}
	return n, nil
}

// Close releases both database connections. Safe to call multiple times.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}
		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		s.closeErr = errors.Join(writeErr, readErr)
	})

	return s.closeErr
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReading(row rowScanner) (*Reading, error) {
	var (
		r       Reading
		rec     vitals.Record
		device  sql.NullString
		sensors sql.NullString
	)

	err := row.Scan(
		&r.ID,
		&r.SessionID,
		&r.ReceivedAt,
		&device,
		&rec.HeartRate,
		&rec.BPSystolic,
		&rec.BPDiastolic,
		&rec.Temperature,
		&rec.OxygenSaturation,
		&rec.RespiratoryRate,
		&rec.ECGValue,
		&rec.ECGLeadsConnected,
		&rec.Timestamp,
		&sensors,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning reading: %w", err)
	}

	rec.DeviceID = device.String
	if sensors.Valid {
		if err := json.Unmarshal([]byte(sensors.String), &rec.Sensors); err != nil {
			return nil, fmt.Errorf("unmarshaling sensors map: %w", err)
		}
	}

	r.Record = &rec
	return &r, nil
}

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

const (
	insertSessionSQL = `
INSERT INTO sessions (id, started_at)
VALUES (?, ?)`

	insertReadingSQL = `
INSERT INTO readings (session_id,
                      received_at,
                      device_id,
                      heart_rate,
                      bp_systolic,
                      bp_diastolic,
                      temperature,
                      spo2,
                      resp_rate,
                      ecg_value,
                      ecg_leads,
                      device_ts,
                      sensors)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	selectReadingColumns = `
SELECT id,
       session_id,
       received_at,
       device_id,
       heart_rate,
       bp_systolic,
       bp_diastolic,
       temperature,
       spo2,
       resp_rate,
       ecg_value,
       ecg_leads,
       device_ts,
       sensors
FROM readings`

	selectLatestSQL = selectReadingColumns + `
WHERE session_id = ?
ORDER BY id DESC
LIMIT 1`

	selectHistorySQL = selectReadingColumns + `
WHERE session_id = ?
ORDER BY id DESC
LIMIT ?`

	selectSessionSQL = selectReadingColumns + `
WHERE session_id = ?
ORDER BY id`

	selectLatestSessionSQL = `
SELECT id FROM sessions
ORDER BY started_at DESC, id DESC
LIMIT 1`

	countReadingsSQL = `
SELECT COUNT(*) FROM readings WHERE session_id = ?`
)
