package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned by point lookups that match no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate record")
	// ErrStaleWrite is returned when a versioned update lost the race.
	ErrStaleWrite = errors.New("stale write: document changed since it was read")
)

const pgUniqueViolation = "23505"

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrDuplicate
	}
	return err
}

// updateVersioned replaces every column of doc except id and created_at, but
// only when the stored version still equals *version. On success the version is
// bumped in place.
func updateVersioned(ctx context.Context, db *gorm.DB, doc any, version *int) error {
	prev := *version
	*version = prev + 1
	res := db.WithContext(ctx).Model(doc).
		Where("version = ?", prev).
		Select("*").Omit("id", "created_at").
		Updates(doc)
	if res.Error != nil {
		*version = prev
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		*version = prev
		return ErrStaleWrite
	}
	return nil
}
