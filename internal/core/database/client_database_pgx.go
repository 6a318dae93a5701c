package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/markdave123-py/studybuddy/internal/config"
	"github.com/markdave123-py/studybuddy/internal/core"
	"github.com/markdave123-py/studybuddy/internal/core/logger"
	"github.com/markdave123-py/studybuddy/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

var _ core.DbClient = (*DatabaseClient)(nil)

func NewDatabaseClient(ctx context.Context, cfg *config.Config, log *logger.Logger) (*DatabaseClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	dsn, err := buildDSN(cfg.DatabaseURL, cfg.SslCertPath)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	applied, err := EnsureBootstrapped(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	if log != nil {
		log.Info("database ready", "schema_version", schemaVersion, "bootstrapped", applied)
	}

	return &DatabaseClient{db: db}, nil
}

// buildDSN appends CA verification parameters when a root cert is configured.
func buildDSN(databaseURL, sslCertPath string) (string, error) {
	if databaseURL == "" {
		return "", fmt.Errorf("DATABASE_URL is empty")
	}
	if sslCertPath == "" {
		return databaseURL, nil
	}
	if _, err := os.Stat(sslCertPath); err != nil {
		return "", fmt.Errorf("ssl cert not accessible at %q: %w", sslCertPath, err)
	}
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	q := u.Query()
	q.Set("sslmode", "verify-ca")
	q.Set("sslrootcert", sslCertPath)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Ping is used by the health check.
func (c *DatabaseClient) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Implementing the db interface for user

func (c *DatabaseClient) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	const q = `
		INSERT INTO users (id, first_name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`
	_, err := c.db.ExecContext(ctx, q,
		user.ID, user.FirstName, user.Email, user.PasswordHash, nowIfZero(user.CreatedAt))
	return err
}

func (c *DatabaseClient) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `
		SELECT id, first_name, email, password_hash, created_at, updated_at
		FROM users WHERE email = $1
	`
	var u models.User
	err := c.db.QueryRowContext(ctx, q, email).Scan(
		&u.ID, &u.FirstName, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Implementing the db interface for study materials

func (c *DatabaseClient) CreateMaterial(ctx context.Context, m *models.StudyMaterial) error {
	if m == nil {
		return errors.New("nil material")
	}
	const q = `
		INSERT INTO study_materials
			(id, user_id, file_name, content_type, storage_url, storage_key, language,
			 extracted_text, extraction_method, page_count, index_status, created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
	`
	_, err := c.db.ExecContext(ctx, q,
		m.ID, m.UserID, m.FileName, m.ContentType, m.StorageURL, m.StorageKey, m.Language,
		m.ExtractedText, m.ExtractionMethod, m.PageCount, m.IndexStatus, nowIfZero(m.CreatedAt))
	return err
}

func (c *DatabaseClient) GetMaterialByID(ctx context.Context, id string) (*models.StudyMaterial, error) {
	const q = `
		SELECT id, user_id, file_name, content_type, storage_url, storage_key, language,
		       extracted_text, extraction_method, page_count, index_status, created_at, updated_at
		FROM study_materials
		WHERE id = $1
	`
	var m models.StudyMaterial
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&m.ID, &m.UserID, &m.FileName, &m.ContentType, &m.StorageURL, &m.StorageKey, &m.Language,
		&m.ExtractedText, &m.ExtractionMethod, &m.PageCount, &m.IndexStatus, &m.CreatedAt, &m.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *DatabaseClient) ListMaterialsByUser(ctx context.Context, userID string) ([]models.MaterialSummary, error) {
	const q = `
		SELECT id, file_name, language, index_status, created_at
		FROM study_materials
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.MaterialSummary{}
	for rows.Next() {
		var m models.MaterialSummary
		if err := rows.Scan(&m.ID, &m.FileName, &m.Language, &m.IndexStatus, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) UpdateIndexStatus(ctx context.Context, id string, status string) error {
	const q = `
		UPDATE study_materials
		SET index_status = $2, updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id, status)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("material not found: %s", id)
	}
	return nil
}

// DeleteMaterial removes the material; its artifacts and chunks cascade.
func (c *DatabaseClient) DeleteMaterial(ctx context.Context, id string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM study_materials WHERE id = $1`, id)
	return err
}

func nowIfZero(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
