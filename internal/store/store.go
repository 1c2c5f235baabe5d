// Package store records executed parcel queries so past loads can be
// listed and re-run.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/parcel-cli/internal/parcel"
)

// ErrRunNotFound is returned by GetRun when no run has the given ID.
var ErrRunNotFound = eris.New("run not found")

// Run is one recorded parcel query with its outcome counts.
type Run struct {
	ID         string                  `json:"id"`
	Region     parcel.Query            `json:"region"`
	Filter     parcel.FilterSpec       `json:"filter"`
	Partitions []parcel.PartitionCount `json:"partitions"`
	Records    int                     `json:"records"`
	CreatedAt  time.Time               `json:"created_at"`
}

// RunFilter narrows ListRuns results.
type RunFilter struct {
	Limit  int
	Offset int
}

// Store persists query runs.
type Store interface {
	Migrate(ctx context.Context) error
	RecordRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)
	Close() error
}

func marshalRun(run *Run) (region, filter, partitions string, err error) {
	regionJSON, err := json.Marshal(run.Region)
	if err != nil {
		return "", "", "", eris.Wrap(err, "store: marshal region")
	}
	filterJSON, err := json.Marshal(run.Filter)
	if err != nil {
		return "", "", "", eris.Wrap(err, "store: marshal filter")
	}
	parts := run.Partitions
	if parts == nil {
		parts = []parcel.PartitionCount{}
	}
	partsJSON, err := json.Marshal(parts)
	if err != nil {
		return "", "", "", eris.Wrap(err, "store: marshal partitions")
	}
	return string(regionJSON), string(filterJSON), string(partsJSON), nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*Run, error) {
	var r Run
	var regionJSON, filterJSON, partsJSON string

	err := row.Scan(&r.ID, &regionJSON, &filterJSON, &partsJSON, &r.Records, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: scan run")
	}

	if err := json.Unmarshal([]byte(regionJSON), &r.Region); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal region")
	}
	if err := json.Unmarshal([]byte(filterJSON), &r.Filter); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal filter")
	}
	if err := json.Unmarshal([]byte(partsJSON), &r.Partitions); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal partitions")
	}
	return &r, nil
}
