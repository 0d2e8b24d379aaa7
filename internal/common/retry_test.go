package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry(t *testing.T) {
	fastOpts := RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		wantErr   error
	}{
		{
			name:      "succeeds first time",
			errs:      []error{nil},
			wantCalls: 1,
		},
		{
			name:      "retries retryable error then succeeds",
			errs:      []error{&RetryableError{Err: errors.New("502"), Retryable: true}, nil},
			wantCalls: 2,
		},
		{
			name:      "stops on validation error",
			errs:      []error{Validationf("bad input")},
			wantCalls: 1,
			wantErr:   ErrValidation,
		},
		{
			name:      "stops on non-retryable wrapper",
			errs:      []error{&RetryableError{Err: errors.New("400"), Retryable: false}},
			wantCalls: 1,
		},
		{
			name: "gives up after max attempts",
			errs: []error{
				&RetryableError{Err: errors.New("503"), Retryable: true},
				&RetryableError{Err: errors.New("503"), Retryable: true},
				&RetryableError{Err: errors.New("503"), Retryable: true},
			},
			wantCalls: 3,
			wantErr:   ErrMaxRetries,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := WithRetry(context.Background(), func() error {
				err := tt.errs[calls]
				calls++
				return err
			}, fastOpts)

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
			} else if tt.name == "stops on non-retryable wrapper" {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestWithRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithRetry(ctx, func() error {
		return &RetryableError{Err: errors.New("flaky"), Retryable: true}
	}, RetryOptions{MaxAttempts: 5, InitialDelay: time.Second})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", level.String())

	_, err = ParseLevel("loud")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestUserError(t *testing.T) {
	err := NewUserError("could not reach backend", ErrNotFound)
	assert.Equal(t, "could not reach backend: not found", err.Error())
	assert.ErrorIs(t, err, ErrNotFound)
}
