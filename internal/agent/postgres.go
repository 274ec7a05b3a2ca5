package agent

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aiexpress/campaignctl/internal/models"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	UseInMemory bool
}

// PostgresStore persists campaign records in PostgreSQL.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresStore(config DatabaseConfig) (*PostgresStore, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	store := &PostgresStore{db: db, now: time.Now}

	if err := store.initializeSchema(); err != nil {
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	if _, err := s.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}

	return nil
}

func (s *PostgresStore) CreatePending(ctx context.Context, producto, publicoObjetivo string) (*models.CampaignRecord, error) {
	now := s.now().UTC()
	record := &models.CampaignRecord{
		ID:              uuid.New().String(),
		Producto:        producto,
		PublicoObjetivo: publicoObjetivo,
		Status:          models.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	query := `
		INSERT INTO campaigns (id, producto, publico_objetivo, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := s.db.ExecContext(ctx, query,
		record.ID, record.Producto, record.PublicoObjetivo, record.Status,
		record.CreatedAt, record.UpdatedAt); err != nil {
		return nil, fmt.Errorf("error creating campaign: %w", err)
	}

	return record, nil
}

func (s *PostgresStore) MarkCompleted(ctx context.Context, id string, result models.CampaignResult) (*models.CampaignRecord, error) {
	encoded, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("error encoding campaign result: %w", err)
	}

	query := `
		UPDATE campaigns
		SET status = $1, result = $2, error = NULL, updated_at = $3
		WHERE id = $4`

	if err := s.exec(ctx, query, models.StatusCompleted, encoded, s.now().UTC(), id); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *PostgresStore) MarkFailed(ctx context.Context, id string, reason string) (*models.CampaignRecord, error) {
	query := `
		UPDATE campaigns
		SET status = $1, error = $2, updated_at = $3
		WHERE id = $4`

	if err := s.exec(ctx, query, models.StatusFailed, reason, s.now().UTC(), id); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *PostgresStore) exec(ctx context.Context, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error updating campaign: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.CampaignRecord, error) {
	query := `
		SELECT id, producto, publico_objetivo, status, result, error, created_at, updated_at
		FROM campaigns
		WHERE id = $1`

	record, err := scanRecord(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return record, err
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]models.CampaignRecord, error) {
	query := `
		SELECT id, producto, publico_objetivo, status, result, error, created_at, updated_at
		FROM campaigns
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying campaigns: %w", err)
	}
	defer rows.Close()

	var records []models.CampaignRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

func (s *PostgresStore) Latest(ctx context.Context, status models.CampaignStatus) (*models.CampaignRecord, error) {
	query := `
		SELECT id, producto, publico_objetivo, status, result, error, created_at, updated_at
		FROM campaigns`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += `
		ORDER BY created_at DESC
		LIMIT 1`

	record, err := scanRecord(s.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return record, err
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.CampaignRecord, error) {
	var (
		record    models.CampaignRecord
		rawResult []byte
		reason    sql.NullString
	)
	err := row.Scan(
		&record.ID,
		&record.Producto,
		&record.PublicoObjetivo,
		&record.Status,
		&rawResult,
		&reason,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("error scanning campaign: %w", err)
	}
	if len(rawResult) > 0 {
		var result models.CampaignResult
		if err := json.Unmarshal(rawResult, &result); err != nil {
			return nil, fmt.Errorf("error decoding campaign result: %w", err)
		}
		record.Result = &result
	}
	if reason.Valid {
		record.Error = &reason.String
	}
	return &record, nil
}
