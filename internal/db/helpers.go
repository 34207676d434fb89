package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"

	"railbook/internal/domain"

	"github.com/go-sql-driver/mysql"
)

// NullIfEmpty helps store optional strings without wiping existing data.
func NullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// IsDuplicate reports whether err is a MySQL duplicate-key violation on the
// named unique index. keyName "" matches any duplicate.
func IsDuplicate(err error, keyName string) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != 1062 {
		return false
	}
	if keyName == "" {
		return true
	}
	return containsKey(me.Message, keyName)
}

func containsKey(msg, key string) bool {
	for i := 0; i+len(key) <= len(msg); i++ {
		if msg[i:i+len(key)] == key {
			return true
		}
	}
	return false
}

// WrapErr classifies a storage error so callers get a stable error kind:
// transient connection / deadline failures become UnavailableError, the rest
// stays internal.
func WrapErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return domain.UnavailableError{Err: err}
	default:
		return domain.InternalError{Err: err}
	}
}
