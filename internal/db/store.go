// Package db persists experiment outcomes in a sqlite database.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/tlbeval/internal/metrics"
	"github.com/banshee-data/tlbeval/internal/sweep"
)

// ErrNotFound is returned by GetRun for an unknown run ID.
var ErrNotFound = errors.New("run not found")

// Store is the results database.
type Store struct {
	*sql.DB
}

// Open opens (creating if needed) the database at path and applies all
// migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	s := &Store{db}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Run is one stored outcome with its headline figures.
type Run struct {
	ID           string
	Point        sweep.Point
	StartedAt    time.Time
	FinishedAt   time.Time
	TimedOut     bool
	ReceiverTime metrics.Value
	SenderTime   metrics.Value
	Bandwidth    metrics.Value // kB/s
	ByteError    metrics.Value
	PacketError  metrics.Value
	RecordError  metrics.Value
	Outcome      *sweep.Outcome
}

// Row returns the sweep row view of the run.
func (r *Run) Row() sweep.Row {
	return sweep.Row{Point: r.Point, Bandwidth: r.Bandwidth, ByteError: r.ByteError, PacketError: r.PacketError}
}

func nullable(v metrics.Value) sql.NullFloat64 {
	f, ok := v.Get()
	return sql.NullFloat64{Float64: f, Valid: ok}
}

func value(n sql.NullFloat64) metrics.Value {
	if !n.Valid {
		return metrics.Absent()
	}
	return metrics.Some(n.Float64)
}

// InsertRun stores o. An empty RunID is assigned a new UUID.
func (s *Store) InsertRun(ctx context.Context, o *sweep.Outcome) error {
	if o.RunID == "" {
		o.RunID = uuid.NewString()
	}
	doc, err := o.Marshal()
	if err != nil {
		return err
	}

	row := o.Row()
	var recordError metrics.Value
	if o.Records != nil {
		recordError = o.Records.Metrics.ErrorRate
	}
	p := o.Point
	_, err = s.ExecContext(ctx, `
		INSERT INTO runs (
			run_id, run_key, config_key, scenario, build, evictions, checksum, reed_solomon,
			send_window, send_file, receive_file, iteration, build_flags,
			started_at, finished_at, timed_out, receiver_time, sender_time,
			bandwidth_kbps, byte_error, packet_error, record_error, outcome_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.RunID, p.Key(), p.ConfigKey(), p.Scenario, p.Build, p.Evictions, p.Checksum, p.ReedSolomon,
		p.SendWindow, p.SendFile, p.ReceiveFile, p.Iteration, p.BuildFlags,
		o.StartedAt.UTC().Format(time.RFC3339Nano), o.FinishedAt.UTC().Format(time.RFC3339Nano), o.TimedOut,
		nullable(o.ReceiverTime), nullable(o.SenderTime),
		nullable(row.Bandwidth), nullable(row.ByteError), nullable(row.PacketError), nullable(recordError),
		string(doc),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", o.RunID, err)
	}
	return nil
}

const selectRuns = `
	SELECT run_id, started_at, finished_at, timed_out, receiver_time, sender_time,
		bandwidth_kbps, byte_error, packet_error, record_error, outcome_json
	FROM runs`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var (
		r                    Run
		started, finished    string
		rcv, snd, bw, be, pe sql.NullFloat64
		re                   sql.NullFloat64
		doc                  string
	)
	if err := sc.Scan(&r.ID, &started, &finished, &r.TimedOut, &rcv, &snd, &bw, &be, &pe, &re, &doc); err != nil {
		return nil, err
	}
	var err error
	if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return nil, fmt.Errorf("run %s: bad started_at: %w", r.ID, err)
	}
	if r.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
		return nil, fmt.Errorf("run %s: bad finished_at: %w", r.ID, err)
	}
	if r.Outcome, err = sweep.UnmarshalOutcome([]byte(doc)); err != nil {
		return nil, fmt.Errorf("run %s: %w", r.ID, err)
	}
	r.Point = r.Outcome.Point
	r.ReceiverTime = value(rcv)
	r.SenderTime = value(snd)
	r.Bandwidth = value(bw)
	r.ByteError = value(be)
	r.PacketError = value(pe)
	r.RecordError = value(re)
	return &r, nil
}

// GetRun returns the run with the given ID or ErrNotFound.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	r, err := scanRun(s.QueryRowContext(ctx, selectRuns+` WHERE run_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return r, nil
}

// ListRuns returns runs of a scenario, or of every scenario when scenario is
// empty, in insertion order.
func (s *Store) ListRuns(ctx context.Context, scenario string) ([]Run, error) {
	query := selectRuns
	var args []any
	if scenario != "" {
		query += ` WHERE scenario = ?`
		args = append(args, scenario)
	}
	query += ` ORDER BY rowid`

	rows, err := s.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}
