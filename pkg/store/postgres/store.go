// Package postgres stores interviews and feedback reports in PostgreSQL.
package postgres

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/interview"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("postgres: record not found")

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	db   querier
	pool *pgxpool.Pool
	now  func() time.Time
}

// Open connects a pool to dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Store{db: pool, pool: pool, now: time.Now}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate applies the embedded schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	if s.pool == nil {
		return errors.New("postgres: migrate requires a pool")
	}
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("postgres: goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

const insertInterview = `INSERT INTO interviews
	(id, user_id, role, type, level, techstack, questions, finalized, cover_image, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

func (s *Store) SaveInterview(ctx context.Context, iv interview.Interview) (interview.SaveResult, error) {
	if iv.ID == "" {
		iv.ID = uuid.NewString()
	}
	if iv.CreatedAt.IsZero() {
		iv.CreatedAt = s.now().UTC()
	}
	_, err := s.db.Exec(ctx, insertInterview,
		iv.ID, iv.UserID, iv.Role, iv.Type, iv.Level,
		nonNil(iv.TechStack), nonNil(iv.Questions), iv.Finalized, iv.CoverImage, iv.CreatedAt)
	if err != nil {
		return interview.SaveResult{}, fmt.Errorf("postgres: insert interview: %w", err)
	}
	return interview.SaveResult{Success: true, InterviewID: iv.ID}, nil
}

const upsertFeedback = `INSERT INTO feedback
	(id, interview_id, user_id, total_score, category_scores, strengths, areas_for_improvement, final_assessment, created_at)
	VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8, $9)
	ON CONFLICT (id) DO UPDATE SET
		interview_id = EXCLUDED.interview_id,
		user_id = EXCLUDED.user_id,
		total_score = EXCLUDED.total_score,
		category_scores = EXCLUDED.category_scores,
		strengths = EXCLUDED.strengths,
		areas_for_improvement = EXCLUDED.areas_for_improvement,
		final_assessment = EXCLUDED.final_assessment,
		created_at = EXCLUDED.created_at`

// SaveFeedback inserts fb, replacing any report with the same id.
func (s *Store) SaveFeedback(ctx context.Context, fb interview.Feedback) (string, error) {
	if fb.ID == "" {
		fb.ID = uuid.NewString()
	}
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = s.now().UTC()
	}
	scores := fb.CategoryScores
	if scores == nil {
		scores = []interview.CategoryScore{}
	}
	raw, err := json.Marshal(scores)
	if err != nil {
		return "", fmt.Errorf("postgres: encode category scores: %w", err)
	}
	_, err = s.db.Exec(ctx, upsertFeedback,
		fb.ID, fb.InterviewID, fb.UserID, fb.TotalScore, string(raw),
		nonNil(fb.Strengths), nonNil(fb.AreasForImprovement), fb.FinalAssessment, fb.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("postgres: upsert feedback: %w", err)
	}
	return fb.ID, nil
}

const selectInterview = `SELECT id, user_id, role, type, level, techstack, questions, finalized, cover_image, created_at
	FROM interviews WHERE id = $1`

func (s *Store) Interview(ctx context.Context, id string) (interview.Interview, error) {
	var iv interview.Interview
	err := s.db.QueryRow(ctx, selectInterview, id).Scan(
		&iv.ID, &iv.UserID, &iv.Role, &iv.Type, &iv.Level,
		&iv.TechStack, &iv.Questions, &iv.Finalized, &iv.CoverImage, &iv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return interview.Interview{}, ErrNotFound
	}
	if err != nil {
		return interview.Interview{}, fmt.Errorf("postgres: select interview: %w", err)
	}
	return iv, nil
}

const selectFeedback = `SELECT id, interview_id, user_id, total_score, category_scores, strengths,
	areas_for_improvement, final_assessment, created_at
	FROM feedback WHERE interview_id = $1 AND user_id = $2
	ORDER BY created_at DESC LIMIT 1`

// FeedbackFor returns the newest report for interviewID owned by userID.
func (s *Store) FeedbackFor(ctx context.Context, interviewID, userID string) (interview.Feedback, error) {
	var (
		fb  interview.Feedback
		raw []byte
	)
	err := s.db.QueryRow(ctx, selectFeedback, interviewID, userID).Scan(
		&fb.ID, &fb.InterviewID, &fb.UserID, &fb.TotalScore, &raw,
		&fb.Strengths, &fb.AreasForImprovement, &fb.FinalAssessment, &fb.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return interview.Feedback{}, ErrNotFound
	}
	if err != nil {
		return interview.Feedback{}, fmt.Errorf("postgres: select feedback: %w", err)
	}
	if err := json.Unmarshal(raw, &fb.CategoryScores); err != nil {
		return interview.Feedback{}, fmt.Errorf("postgres: decode category scores: %w", err)
	}
	return fb, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
