package dbopen

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"testing"
	"time"
)

func stubWait(t *testing.T, fn func(context.Context, time.Duration) error) {
	t.Helper()
	orig := wait
	wait = fn
	t.Cleanup(func() { wait = orig })
}

func TestRetry_NoSleepAfterLastAttempt(t *testing.T) {
	var slept []time.Duration
	stubWait(t, func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	})

	calls := 0
	_, err := retry(context.Background(), func() (sql.Result, error) {
		calls++
		return nil, errors.New("database is locked")
	})
	if err == nil || !IsBusy(err) {
		t.Fatalf("err = %v, want busy", err)
	}
	if calls != maxRetries {
		t.Fatalf("calls = %d, want %d", calls, maxRetries)
	}
	want := []time.Duration{50 * time.Millisecond, 100 * time.Millisecond}
	if !slices.Equal(slept, want) {
		t.Fatalf("slept %v, want %v", slept, want)
	}
}

func TestRetry_StopsOnSuccessOrOtherError(t *testing.T) {
	stubWait(t, func(context.Context, time.Duration) error { return nil })

	calls := 0
	if _, err := retry(context.Background(), func() (sql.Result, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("SQLITE_BUSY")
		}
		return nil, nil
	}); err != nil || calls != 2 {
		t.Fatalf("err = %v, calls = %d", err, calls)
	}

	calls = 0
	boom := errors.New("no such table")
	if _, err := retry(context.Background(), func() (sql.Result, error) {
		calls++
		return nil, boom
	}); !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("err = %v, calls = %d", err, calls)
	}
}

func TestRetry_CancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := retry(ctx, func() (sql.Result, error) {
		return nil, errors.New("database is locked")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
