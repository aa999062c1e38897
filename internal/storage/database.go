// Package storage persists completed review results.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	// import db drivers
	_ "github.com/lib/pq"

	"github.com/sevigo/pr-warden/internal/core"
)

// ErrNotFound is returned when no stored review matches the query.
var ErrNotFound = errors.New("no stored review found")

// ReviewRecord is one persisted review run.
type ReviewRecord struct {
	ID           int64          `db:"id"`
	RepoFullName string         `db:"repo_full_name"`
	PRNumber     int            `db:"pr_number"`
	HeadSHA      string         `db:"head_sha"`
	Findings     []byte         `db:"findings"`
	DraftComment string         `db:"draft_comment"`
	TalkScript   string         `db:"talk_script"`
	CreatedAt    time.Time      `db:"created_at"`
}

// DecodeFindings unmarshals the stored finding sequence.
func (r *ReviewRecord) DecodeFindings() ([]core.Finding, error) {
	var findings []core.Finding
	if err := json.Unmarshal(r.Findings, &findings); err != nil {
		return nil, fmt.Errorf("failed to decode stored findings: %w", err)
	}
	return findings, nil
}

// Store defines the interface for review persistence.
type Store interface {
	SaveResult(ctx context.Context, ref core.PRReference, headSHA string, result *core.ReviewResult) error
	GetLatestResult(ctx context.Context, repoFullName string, prNumber int) (*ReviewRecord, error)
}

type postgresStore struct {
	db *sqlx.DB
}

// NewStore creates a Postgres-backed Store.
func NewStore(db *sqlx.DB) Store {
	return &postgresStore{db: db}
}

// SaveResult inserts one completed review run.
func (s *postgresStore) SaveResult(ctx context.Context, ref core.PRReference, headSHA string, result *core.ReviewResult) error {
	findings, err := json.Marshal(result.Findings)
	if err != nil {
		return fmt.Errorf("failed to encode findings: %w", err)
	}

	query := `INSERT INTO reviews (repo_full_name, pr_number, head_sha, findings, draft_comment, talk_script, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = s.db.ExecContext(ctx, query,
		ref.FullName(), ref.PullNumber, headSHA, findings, result.DraftComment, result.TalkScript, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save review for %s#%d: %w", ref.FullName(), ref.PullNumber, err)
	}
	return nil
}

// GetLatestResult returns the most recent stored review for a pull request.
func (s *postgresStore) GetLatestResult(ctx context.Context, repoFullName string, prNumber int) (*ReviewRecord, error) {
	query := `
		SELECT id, repo_full_name, pr_number, head_sha, findings, draft_comment, talk_script, created_at
		FROM reviews
		WHERE repo_full_name = $1 AND pr_number = $2
		ORDER BY created_at DESC
		LIMIT 1`

	var record ReviewRecord
	if err := s.db.GetContext(ctx, &record, query, repoFullName, prNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s#%d", ErrNotFound, repoFullName, prNumber)
		}
		return nil, err
	}
	return &record, nil
}
