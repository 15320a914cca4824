package repositories

import (
	"context"
	"errors"

	"github.com/BradenHooton/loginguard/internal/database"
	"github.com/BradenHooton/loginguard/internal/models"
)

// FailedLoginRepository stores failed login attempts in bfp_failed_logins
type FailedLoginRepository struct {
	db *database.DB
}

// NewFailedLoginRepository creates a new FailedLoginRepository
func NewFailedLoginRepository(db *database.DB) *FailedLoginRepository {
	return &FailedLoginRepository{db: db}
}

// Insert appends one attempt
func (r *FailedLoginRepository) Insert(ctx context.Context, attempt *models.FailedLoginAttempt) error {
	query := `
		INSERT INTO bfp_failed_logins (uid, ip, attempted_at)
		VALUES ($1, $2, $3)
	`

	_, err := r.db.Pool.Exec(ctx, query, attempt.UID, attempt.IP, attempt.AttemptedAt)
	return database.MapPostgresError(err)
}

// CountSince returns the number of attempts for a uid/ip pair newer than after
func (r *FailedLoginRepository) CountSince(ctx context.Context, uid, ip string, after int64) (int64, error) {
	query := `
		SELECT COUNT(*) FROM bfp_failed_logins
		WHERE attempted_at > $1 AND uid = $2 AND ip = $3
	`

	var count int64
	if err := r.db.Pool.QueryRow(ctx, query, after, uid, ip).Scan(&count); err != nil {
		return 0, database.MapPostgresError(err)
	}
	return count, nil
}

// LatestSince returns the most recent attempt time for ip newer than after.
// No secondary sort key is applied to rows sharing the maximum timestamp.
func (r *FailedLoginRepository) LatestSince(ctx context.Context, ip string, after int64) (int64, bool, error) {
	query := `
		SELECT attempted_at FROM bfp_failed_logins
		WHERE attempted_at > $1 AND ip = $2
		ORDER BY attempted_at DESC
		LIMIT 1
	`

	var latest int64
	err := database.MapPostgresError(r.db.Pool.QueryRow(ctx, query, after, ip).Scan(&latest))
	if errors.Is(err, models.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return latest, true, nil
}

// DeletePair removes every attempt for a uid/ip pair
func (r *FailedLoginRepository) DeletePair(ctx context.Context, uid, ip string) error {
	query := `DELETE FROM bfp_failed_logins WHERE uid = $1 AND ip = $2`

	_, err := r.db.Pool.Exec(ctx, query, uid, ip)
	return database.MapPostgresError(err)
}

// DeleteOlderThan removes attempts at or before cutoff and returns how many were removed
func (r *FailedLoginRepository) DeleteOlderThan(ctx context.Context, cutoff int64) (int64, error) {
	query := `DELETE FROM bfp_failed_logins WHERE attempted_at <= $1`

	tag, err := r.db.Pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return tag.RowsAffected(), nil
}

// HealthCheck pings the database
func (r *FailedLoginRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}
