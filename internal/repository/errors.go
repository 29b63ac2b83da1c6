// Package repository is the gorm-backed Credential Store and medical record
// log.  Sentinel errors defined here let the service layer tell a missing
// row and a uniqueness violation apart from every other store failure.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update violates one of the
// unique indexes.  Callers translate it into a conflict response.
var ErrDuplicate = errors.New("duplicate entry")

// isDuplicate recognises a unique violation from any of the supported
// drivers.  gorm's TranslateError covers most cases; the driver checks catch
// errors that arrive untranslated (raw Exec, older dialectors).
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// mapErr converts gorm errors into the package sentinels.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case isDuplicate(err):
		return ErrDuplicate
	}
	return err
}
