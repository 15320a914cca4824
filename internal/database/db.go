package database

import (
	"errors"
	"fmt"

	"github.com/BradenHooton/loginguard/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// MapPostgresError converts driver errors into model errors.
// Anything that is not a missing row means the statement failed and is reported
// as ErrStorageUnavailable with the driver detail attached.
func MapPostgresError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23502", "22001": // not_null_violation, string_data_right_truncation
			return fmt.Errorf("%w: %w: %s", models.ErrStorageUnavailable, models.ErrInvalidArgument, pgErr.Message)
		}
		return fmt.Errorf("%w: %s (SQLSTATE %s)", models.ErrStorageUnavailable, pgErr.Message, pgErr.Code)
	}

	return fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
}
