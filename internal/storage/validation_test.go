package storage

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/Veraticus/the-stock-must-flow/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: false,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: true,
		},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateContext() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeSalesRecords(t *testing.T) {
	date := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		errText string
		record  model.SalesRecord
	}{
		{
			name:   "valid record",
			record: model.SalesRecord{Date: date, SKU: "SKU001", Quantity: 3},
		},
		{
			name:   "zero quantity is allowed",
			record: model.SalesRecord{Date: date, SKU: "SKU001", Quantity: 0},
		},
		{
			name:    "missing date",
			record:  model.SalesRecord{SKU: "SKU001", Quantity: 3},
			errText: "missing date",
		},
		{
			name:    "blank sku",
			record:  model.SalesRecord{Date: date, SKU: "  ", Quantity: 3},
			errText: "missing sku",
		},
		{
			name:    "date before supported years",
			record:  model.SalesRecord{Date: time.Date(24, 1, 2, 0, 0, 0, 0, time.UTC), SKU: "SKU001", Quantity: 3},
			errText: "outside years",
		},
		{
			name:    "date after supported years",
			record:  model.SalesRecord{Date: time.Date(2400, 1, 2, 0, 0, 0, 0, time.UTC), SKU: "SKU001", Quantity: 3},
			errText: "outside years",
		},
		{
			name:    "negative quantity",
			record:  model.SalesRecord{Date: date, SKU: "SKU001", Quantity: -1},
			errText: "negative quantity",
		},
		{
			name:    "nan quantity",
			record:  model.SalesRecord{Date: date, SKU: "SKU001", Quantity: math.NaN()},
			errText: "not a number",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeSalesRecords([]model.SalesRecord{tt.record})
			if tt.errText == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidSalesRecord)
			assert.Contains(t, err.Error(), tt.errText)
			assert.Contains(t, err.Error(), "index 0")
		})
	}
}

func TestNormalizeSalesRecords_TrimsAndCopies(t *testing.T) {
	in := []model.SalesRecord{
		{Date: time.Date(2024, 4, 1, 15, 4, 0, 0, time.UTC), SKU: "  SKU001\t", Quantity: 2},
	}

	out, err := NormalizeSalesRecords(in)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "SKU001", out[0].SKU)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), out[0].Date)
	assert.Equal(t, "  SKU001\t", in[0].SKU, "input is left untouched")
}
