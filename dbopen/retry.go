package dbopen

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const maxRetries = 3

// IsBusy reports whether err is an SQLite lock conflict.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// Exec runs a statement, retrying lock conflicts with a 50/100 ms
// backoff. A second annotator process sharing the file is the usual cause.
func Exec(ctx context.Context, db *sql.DB, query string, args ...any) (sql.Result, error) {
	return retry(ctx, func() (sql.Result, error) {
		return db.ExecContext(ctx, query, args...)
	})
}

// wait sleeps for d or until ctx is done.
var wait = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func retry(ctx context.Context, fn func() (sql.Result, error)) (sql.Result, error) {
	var err error
	for i := range maxRetries {
		var res sql.Result
		res, err = fn()
		if err == nil || !IsBusy(err) {
			return res, err
		}
		if i == maxRetries-1 {
			break
		}
		if werr := wait(ctx, time.Duration(50*(i+1))*time.Millisecond); werr != nil {
			return nil, fmt.Errorf("dbopen: retry: %w", werr)
		}
	}
	return nil, fmt.Errorf("dbopen: busy after %d attempts: %w", maxRetries, err)
}
