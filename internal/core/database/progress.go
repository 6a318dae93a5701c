package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/markdave123-py/studybuddy/internal/core/progress"
	"github.com/markdave123-py/studybuddy/internal/models"
)

const selectProgress = `
	SELECT user_id, quiz_scores, current_streak, longest_streak, last_study_day, heatmap, created_at, updated_at
	FROM progress_records
	WHERE user_id = $1
`

// GetProgress is a plain read. It returns (nil, nil) when the user has no record.
func (c *DatabaseClient) GetProgress(ctx context.Context, userID string) (*models.ProgressRecord, error) {
	rec, err := scanProgress(c.db.QueryRowContext(ctx, selectProgress, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// UpdateProgress creates the row if needed, locks it, applies fn and writes
// the result back in one transaction. Concurrent updates for the same user
// queue on the row lock, so none are lost.
func (c *DatabaseClient) UpdateProgress(ctx context.Context, userID string, fn func(rec *models.ProgressRecord) error) (*models.ProgressRecord, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO progress_records (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID); err != nil {
		return nil, fmt.Errorf("ensure progress row: %w", err)
	}

	rec, err := scanProgress(tx.QueryRowContext(ctx, selectProgress+" FOR UPDATE", userID))
	if err != nil {
		return nil, fmt.Errorf("lock progress row: %w", err)
	}

	if err := fn(rec); err != nil {
		return nil, err
	}

	scores, err := json.Marshal(rec.QuizScores)
	if err != nil {
		return nil, fmt.Errorf("encode quiz scores: %w", err)
	}
	heatmap, err := json.Marshal(rec.Heatmap)
	if err != nil {
		return nil, fmt.Errorf("encode heatmap: %w", err)
	}
	var lastDay any
	if rec.Streak.LastStudyDay != nil {
		lastDay = rec.Streak.LastStudyDay.String()
	}

	const q = `
		UPDATE progress_records
		SET quiz_scores = $2::jsonb, current_streak = $3, longest_streak = $4,
		    last_study_day = $5::date, heatmap = $6::jsonb, updated_at = now()
		WHERE user_id = $1
		RETURNING updated_at
	`
	if err := tx.QueryRowContext(ctx, q, userID, string(scores), rec.Streak.Current, rec.Streak.Longest,
		lastDay, string(heatmap)).Scan(&rec.UpdatedAt); err != nil {
		return nil, fmt.Errorf("save progress: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit progress: %w", err)
	}
	return rec, nil
}

func scanProgress(row rowScanner) (*models.ProgressRecord, error) {
	var (
		rec       models.ProgressRecord
		scoresRaw []byte
		heatRaw   []byte
		lastDay   sql.NullTime
	)
	if err := row.Scan(&rec.UserID, &scoresRaw, &rec.Streak.Current, &rec.Streak.Longest,
		&lastDay, &heatRaw, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(scoresRaw, &rec.QuizScores); err != nil {
		return nil, fmt.Errorf("decode quiz scores: %w", err)
	}
	if err := json.Unmarshal(heatRaw, &rec.Heatmap); err != nil {
		return nil, fmt.Errorf("decode heatmap: %w", err)
	}
	if rec.QuizScores == nil {
		rec.QuizScores = []models.QuizScore{}
	}
	if rec.Heatmap == nil {
		rec.Heatmap = progress.Heatmap{}
	}
	if lastDay.Valid {
		// DATE values arrive as midnight UTC.
		d := progress.DateOf(lastDay.Time, time.UTC)
		rec.Streak.LastStudyDay = &d
	}
	return &rec, nil
}
