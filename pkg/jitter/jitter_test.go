package jitter

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestExponentialBackoffBounds(t *testing.T) {
	tests := []struct {
		attempt  int
		min, max time.Duration
	}{
		{0, 10 * time.Millisecond, 15 * time.Millisecond},
		{2, 40 * time.Millisecond, 60 * time.Millisecond},
		{10, 100 * time.Millisecond, 150 * time.Millisecond},
	}

	for _, tt := range tests {
		got := ExponentialBackoff(10*time.Millisecond, 100*time.Millisecond, tt.attempt, DefaultJitter)
		if got < tt.min || got > tt.max {
			t.Errorf("attempt %d: %v not in [%v, %v]", tt.attempt, got, tt.min, tt.max)
		}
	}
}

func TestRetry(t *testing.T) {
	errTemporary := errors.New("unavailable")
	errFatal := errors.New("invalid argument")
	retryable := func(err error) bool { return errors.Is(err, errTemporary) }

	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		want      error
	}{
		{"first try", []error{nil}, 1, nil},
		{"recovers", []error{errTemporary, errTemporary, nil}, 3, nil},
		{"gives up", []error{errTemporary, errTemporary, errTemporary, nil}, 3, errTemporary},
		{"fatal stops", []error{errFatal, nil}, 1, errFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Retry(context.Background(), 3, time.Millisecond, 2*time.Millisecond, retryable, func(context.Context) error {
				err := tt.errs[calls]
				calls++
				return err
			})
			if !errors.Is(err, tt.want) || (tt.want == nil && err != nil) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Retry(ctx, 5, time.Hour, time.Hour, func(error) bool { return true }, func(context.Context) error {
		calls++
		cancel()
		return errors.New("unavailable")
	})
	if err == nil || calls != 1 {
		t.Fatalf("err = %v, calls = %d", err, calls)
	}
}
