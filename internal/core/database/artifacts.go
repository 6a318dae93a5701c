package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/markdave123-py/studybuddy/internal/models"
)

// Implementing the db interface for generated artifacts

func (c *DatabaseClient) CreateQuiz(ctx context.Context, q *models.Quiz) error {
	if q == nil {
		return errors.New("nil quiz")
	}
	questions, err := json.Marshal(q.Questions)
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}
	const stmt = `
		INSERT INTO quizzes (id, material_id, title, questions, created_at)
		VALUES ($1, $2, $3, $4::jsonb, $5)
	`
	_, err = c.db.ExecContext(ctx, stmt, q.ID, q.MaterialID, q.Title, string(questions), nowIfZero(q.CreatedAt))
	return err
}

func (c *DatabaseClient) GetQuizByID(ctx context.Context, id string) (*models.Quiz, error) {
	const q = `
		SELECT id, material_id, title, questions, created_at
		FROM quizzes WHERE id = $1
	`
	quiz, err := scanQuiz(c.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return quiz, err
}

func (c *DatabaseClient) ListQuizzesByMaterial(ctx context.Context, materialID string) ([]models.Quiz, error) {
	const q = `
		SELECT id, material_id, title, questions, created_at
		FROM quizzes WHERE material_id = $1
		ORDER BY created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, q, materialID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Quiz{}
	for rows.Next() {
		quiz, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *quiz)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuiz(row rowScanner) (*models.Quiz, error) {
	var (
		quiz models.Quiz
		raw  []byte
	)
	if err := row.Scan(&quiz.ID, &quiz.MaterialID, &quiz.Title, &raw, &quiz.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &quiz.Questions); err != nil {
		return nil, fmt.Errorf("decode quiz %s: %w", quiz.ID, err)
	}
	return &quiz, nil
}

func (c *DatabaseClient) CreateFlashcardSet(ctx context.Context, fs *models.FlashcardSet) error {
	if fs == nil {
		return errors.New("nil flashcard set")
	}
	cards, err := json.Marshal(fs.Cards)
	if err != nil {
		return fmt.Errorf("encode cards: %w", err)
	}
	const stmt = `
		INSERT INTO flashcard_sets (id, material_id, cards, created_at)
		VALUES ($1, $2, $3::jsonb, $4)
	`
	_, err = c.db.ExecContext(ctx, stmt, fs.ID, fs.MaterialID, string(cards), nowIfZero(fs.CreatedAt))
	return err
}

func (c *DatabaseClient) ListFlashcardSetsByMaterial(ctx context.Context, materialID string) ([]models.FlashcardSet, error) {
	const q = `
		SELECT id, material_id, cards, created_at
		FROM flashcard_sets WHERE material_id = $1
		ORDER BY created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, q, materialID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.FlashcardSet{}
	for rows.Next() {
		var (
			fs  models.FlashcardSet
			raw []byte
		)
		if err := rows.Scan(&fs.ID, &fs.MaterialID, &raw, &fs.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &fs.Cards); err != nil {
			return nil, fmt.Errorf("decode flashcard set %s: %w", fs.ID, err)
		}
		out = append(out, fs)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) CreateTextArtifact(ctx context.Context, a *models.TextArtifact) error {
	if a == nil {
		return errors.New("nil artifact")
	}
	const q = `
		INSERT INTO text_artifacts (id, material_id, kind, target_language, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := c.db.ExecContext(ctx, q, a.ID, a.MaterialID, a.Kind, a.TargetLanguage, a.Content, nowIfZero(a.CreatedAt))
	return err
}

// Implementing the db interface for material chunks

// InsertMaterialChunks inserts chunks in a single transaction.
func (c *DatabaseClient) InsertMaterialChunks(ctx context.Context, chunks []models.MaterialChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO material_chunks
			(id, material_id, position, text, embedding, token_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range chunks {
		ch := &chunks[i]
		if _, err := stmt.ExecContext(ctx,
			ch.ID, ch.MaterialID, ch.Position, ch.Text, pgvector.NewVector(ch.Embedding), ch.TokenCount, nowIfZero(ch.CreatedAt),
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (c *DatabaseClient) DeleteMaterialChunks(ctx context.Context, materialID string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM material_chunks WHERE material_id = $1`, materialID)
	return err
}

// SearchMaterialChunks finds the top-k chunks of a material closest to queryVec.
func (c *DatabaseClient) SearchMaterialChunks(ctx context.Context, materialID string, queryVec []float32, limit int) ([]models.MaterialChunk, error) {
	const q = `
		SELECT id, material_id, position, text, token_count
		FROM material_chunks
		WHERE material_id = $1
		ORDER BY embedding <-> $2
		LIMIT $3
	`
	rows, err := c.db.QueryContext(ctx, q, materialID, pgvector.NewVector(queryVec), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.MaterialChunk
	for rows.Next() {
		var ch models.MaterialChunk
		if err := rows.Scan(&ch.ID, &ch.MaterialID, &ch.Position, &ch.Text, &ch.TokenCount); err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}
