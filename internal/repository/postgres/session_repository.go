package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/recipe-app/backend/internal/domain"
)

type RefreshRecordRepository struct {
	db *pgxpool.Pool
}

func NewRefreshRecordRepository(db *pgxpool.Pool) *RefreshRecordRepository {
	return &RefreshRecordRepository{db: db}
}

func (r *RefreshRecordRepository) Append(rec *domain.RefreshRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
		INSERT INTO refresh_records (id, user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.CreatedAt = time.Now()

	_, err := r.db.Exec(ctx, query,
		rec.ID,
		rec.UserID,
		rec.TokenHash,
		rec.ExpiresAt,
		rec.CreatedAt,
	)
	return err
}

func (r *RefreshRecordRepository) GetByTokenHash(userID uuid.UUID, tokenHash string) (*domain.RefreshRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
		SELECT id, user_id, token_hash, expires_at, created_at
		FROM refresh_records WHERE user_id = $1 AND token_hash = $2
	`

	rec := &domain.RefreshRecord{}
	err := r.db.QueryRow(ctx, query, userID, tokenHash).Scan(
		&rec.ID,
		&rec.UserID,
		&rec.TokenHash,
		&rec.ExpiresAt,
		&rec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Replace rotates a record in a single conditional UPDATE keyed on the old
// token hash. Concurrent refreshes of the same token (or a racing logout)
// make the WHERE clause miss, so exactly one writer wins; the loser sees
// swapped=false and no row was touched.
func (r *RefreshRecordRepository) Replace(userID uuid.UUID, oldTokenHash, newTokenHash string, expiresAt time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
		UPDATE refresh_records SET token_hash = $3, expires_at = $4
		WHERE user_id = $1 AND token_hash = $2
	`

	tag, err := r.db.Exec(ctx, query, userID, oldTokenHash, newTokenHash, expiresAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *RefreshRecordRepository) DeleteByTokenHash(userID uuid.UUID, tokenHash string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `DELETE FROM refresh_records WHERE user_id = $1 AND token_hash = $2`
	_, err := r.db.Exec(ctx, query, userID, tokenHash)
	return err
}

func (r *RefreshRecordRepository) DeleteAllByUserID(userID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `DELETE FROM refresh_records WHERE user_id = $1`
	_, err := r.db.Exec(ctx, query, userID)
	return err
}

func (r *RefreshRecordRepository) ListByUserID(userID uuid.UUID) ([]*domain.RefreshRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
		SELECT id, user_id, token_hash, expires_at, created_at
		FROM refresh_records WHERE user_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.RefreshRecord
	for rows.Next() {
		rec := &domain.RefreshRecord{}
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.TokenHash, &rec.ExpiresAt, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeleteExpired prunes records whose refresh tokens could no longer verify
// anyway. Run periodically; revocation never depends on it.
func (r *RefreshRecordRepository) DeleteExpired() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `DELETE FROM refresh_records WHERE expires_at < NOW()`
	_, err := r.db.Exec(ctx, query)
	return err
}
