// Package store keeps a history of saved assessments in SQLite. Rows are
// write-only snapshots: they are listed, never fed back into an evaluation.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	surfboardgwp "github.com/swellcycle/surfboard-gwp"
	_ "modernc.org/sqlite"
)

const sqliteDialect = "sqlite3"

// timeLayout has a fixed width so rows sort chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

//go:embed migrations/*.sql
var migrations embed.FS

// ErrNotFound is returned when no snapshot has the requested id.
var ErrNotFound = errors.New("assessment not found")

// Snapshot is the saved result of one assessment.
type Snapshot struct {
	ID                  string
	CreatedAt           time.Time
	Username            string
	Materials           float64
	ProcessEnergy       float64
	Transportation      float64
	TransportationValid bool
	GrandTotal          float64
	Warnings            int
	// Document is the submitted input, as JSON
	Document []byte
}

// NewSnapshot captures the totals of assessment.
func NewSnapshot(username string, assessment surfboardgwp.Assessment, document []byte) Snapshot {
	snapshot := Snapshot{
		Username:            username,
		GrandTotal:          assessment.GrandTotal.KgCO2eq(),
		Warnings:            len(assessment.Warnings),
		Document:            document,
		TransportationValid: true,
	}
	for _, stage := range assessment.Stages {
		switch stage.Stage {
		case surfboardgwp.StageMaterials:
			snapshot.Materials = stage.Total.KgCO2eq()
		case surfboardgwp.StageProcessEnergy:
			snapshot.ProcessEnergy = stage.Total.KgCO2eq()
		case surfboardgwp.StageTransportation:
			snapshot.Transportation = stage.Total.KgCO2eq()
			snapshot.TransportationValid = stage.Valid
		}
	}
	return snapshot
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens the SQLite database at path and applies pending migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if path == ":memory:" {
		// every connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.ExecContext(ctx, `
		PRAGMA journal_mode = WAL;
		PRAGMA foreign_keys = ON;
		PRAGMA busy_timeout = 5000;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set sqlite pragmas: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, now: time.Now}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(sqliteDialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run goose up migrations: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores snapshot under a new id and returns it.
func (s *Store) Save(ctx context.Context, snapshot Snapshot) (Snapshot, error) {
	snapshot.ID = uuid.NewString()
	snapshot.CreatedAt = s.now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assessments (
			id, created_at, username,
			materials_kgco2eq, process_energy_kgco2eq, transportation_kgco2eq,
			transportation_valid, grand_total_kgco2eq, warnings, document
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snapshot.ID, snapshot.CreatedAt.Format(timeLayout), snapshot.Username,
		snapshot.Materials, snapshot.ProcessEnergy, snapshot.Transportation,
		snapshot.TransportationValid, snapshot.GrandTotal, snapshot.Warnings, string(snapshot.Document),
	)
	if err != nil {
		return Snapshot{}, fmt.Errorf("insert assessment: %w", err)
	}

	slog.Debug("assessment saved", "id", snapshot.ID, "username", snapshot.Username)
	return snapshot, nil
}

const selectColumns = `
	SELECT id, created_at, username,
		materials_kgco2eq, process_energy_kgco2eq, transportation_kgco2eq,
		transportation_valid, grand_total_kgco2eq, warnings, document
	FROM assessments`

// List returns the latest snapshots, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query assessments: %w", err)
	}
	defer rows.Close()

	snapshots := make([]Snapshot, 0)
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assessments: %w", err)
	}
	return snapshots, nil
}

// Get returns the snapshot with id.
func (s *Store) Get(ctx context.Context, id string) (Snapshot, error) {
	snapshot, err := scanSnapshot(s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	return snapshot, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (Snapshot, error) {
	var (
		snapshot  Snapshot
		createdAt string
		document  string
	)
	err := row.Scan(
		&snapshot.ID, &createdAt, &snapshot.Username,
		&snapshot.Materials, &snapshot.ProcessEnergy, &snapshot.Transportation,
		&snapshot.TransportationValid, &snapshot.GrandTotal, &snapshot.Warnings, &document,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, err
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("scan assessment: %w", err)
	}

	snapshot.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return Snapshot{}, fmt.Errorf("parse assessment creation time: %w", err)
	}
	snapshot.Document = []byte(document)
	return snapshot, nil
}
