// Package store persists completed analyses so operators can audit past
// routing decisions. The engine itself never reads the store; persistence is
// strictly a collaborator concern.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/taskgate/taskgate/models"
)

// ErrNotFound is returned when no record exists for the requested id.
var ErrNotFound = errors.New("analysis record not found")

// AnalysisRecord is one persisted analysis with the request text that
// produced it.
type AnalysisRecord struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
	Analysis    models.TaskAnalysis `json:"analysis"`
}

// AnalysisStore defines the persistence contract for analysis history.
type AnalysisStore interface {
	// SaveAnalysis stores one result and returns the record with its
	// generated id and timestamp.
	SaveAnalysis(ctx context.Context, req models.TaskRequest, analysis *models.TaskAnalysis) (*AnalysisRecord, error)

	// GetAnalysis retrieves one record by id, returning ErrNotFound when it
	// does not exist.
	GetAnalysis(ctx context.Context, id string) (*AnalysisRecord, error)

	// ListAnalyses returns the most recent records, newest first. A limit of
	// zero or less returns all records.
	ListAnalyses(ctx context.Context, limit int) ([]AnalysisRecord, error)

	// DeleteAnalysis removes one record by id, returning ErrNotFound when it
	// does not exist.
	DeleteAnalysis(ctx context.Context, id string) error

	// Close releases the underlying storage.
	Close() error
}
