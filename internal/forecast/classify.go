package forecast

import (
	"fmt"
	"math"

	"github.com/Veraticus/the-stock-must-flow/internal/common"
	"github.com/Veraticus/the-stock-must-flow/internal/model"
)

// Thresholds are the days-left boundaries for the restock categories.
type Thresholds struct {
	LowDays  int
	SafeDays int
}

// DefaultThresholds returns the stock thresholds used when none are configured.
func DefaultThresholds() Thresholds {
	return Thresholds{LowDays: 7, SafeDays: 30}
}

// Validate rejects negative thresholds. LowDays above SafeDays is allowed; in that
// case nothing classifies as Low because Critical is checked first.
func (t Thresholds) Validate() error {
	if t.LowDays < 0 || t.SafeDays < 0 {
		return fmt.Errorf("%w: thresholds must be non-negative (low=%d, safe=%d)", common.ErrInvalidConfig, t.LowDays, t.SafeDays)
	}
	return nil
}

// Classify maps days left to a category. Both boundaries are inclusive and the
// Critical check runs before the Low check.
func (t Thresholds) Classify(daysLeft int) model.Category {
	if daysLeft <= t.LowDays {
		return model.CategoryCritical
	}
	if daysLeft <= t.SafeDays {
		return model.CategoryLow
	}
	return model.CategorySafe
}

// MaxDaysLeft caps DaysLeft so huge stock-to-rate ratios stay representable.
const MaxDaysLeft = math.MaxInt32

// DaysLeft is floor(stock / avg) when avg is positive, otherwise zero. The
// result is clamped to [-MaxDaysLeft, MaxDaysLeft].
func DaysLeft(currentStock, avgDailySales float64) int {
	if avgDailySales <= 0 {
		return 0
	}
	q := math.Floor(currentStock / avgDailySales)
	switch {
	case math.IsNaN(q):
		return 0
	case q >= MaxDaysLeft:
		return MaxDaysLeft
	case q <= -MaxDaysLeft:
		return -MaxDaysLeft
	}
	return int(q)
}
