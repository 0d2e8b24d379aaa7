package forecast

import (
	"fmt"
	"math"

	"github.com/Veraticus/the-stock-must-flow/internal/common"
	"github.com/Veraticus/the-stock-must-flow/internal/model"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// DefaultWindow is the moving average window when none is given.
const DefaultWindow = 7

// FitError records why a model could not produce a forecast.
type FitError struct {
	Err       error
	Algorithm model.Algorithm
	Reason    string
}

func (e *FitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Algorithm, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Algorithm, e.Reason)
}

func (e *FitError) Unwrap() []error {
	if e.Err != nil {
		return []error{common.ErrModelFit, e.Err}
	}
	return []error{common.ErrModelFit}
}

func fitError(algo model.Algorithm, err error, format string, args ...any) *FitError {
	return &FitError{Algorithm: algo, Reason: fmt.Sprintf(format, args...), Err: err}
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// movingAverage projects the final trailing mean flat across the horizon.
func movingAverage(y []float64, window, horizon int) ([]float64, error) {
	if window <= 0 {
		return nil, fitError(model.AlgorithmMovingAverage, nil, "window must be positive, got %d", window)
	}
	if len(y) < window {
		return nil, fitError(model.AlgorithmMovingAverage, nil, "window %d exceeds %d observations", window, len(y))
	}
	return repeat(stat.Mean(y[len(y)-window:], nil), horizon), nil
}

// simpleExponentialSmoothing fits the smoothing level and the initial level by
// minimising the one-step-ahead squared error, then forecasts the final level.
func simpleExponentialSmoothing(y []float64, horizon int) ([]float64, error) {
	const algo = model.AlgorithmExponentialSmoothing
	if len(y) < 2 {
		return nil, fitError(algo, nil, "need at least 2 observations, have %d", len(y))
	}

	// x[0] is alpha on the logit scale so the search is unconstrained.
	sse := func(x []float64) float64 {
		alpha := logistic(x[0])
		level := x[1]
		var total float64
		for _, v := range y {
			e := v - level
			total += e * e
			level = alpha*v + (1-alpha)*level
		}
		return total
	}

	result, err := optimize.Minimize(optimize.Problem{Func: sse}, []float64{0, y[0]}, nil, &optimize.NelderMead{})
	if err != nil {
		return nil, fitError(algo, err, "optimiser did not converge")
	}

	alpha := logistic(result.X[0])
	level := result.X[1]
	for _, v := range y {
		level = alpha*v + (1-alpha)*level
	}

	return repeat(level, horizon), nil
}

func logistic(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// maxARCoefficient bounds |phi| so the differenced AR(1) stays stationary.
const maxARCoefficient = 0.999

// arima110 fits ARIMA(1,1,0) without a constant: an AR(1) on the first
// differences, estimated by least squares through the origin. Estimates on
// or past the unit circle are clamped to +/-maxARCoefficient.
func arima110(y []float64, horizon int) ([]float64, error) {
	const algo = model.AlgorithmARIMA
	if len(y) < 3 {
		return nil, fitError(algo, nil, "need at least 3 observations, have %d", len(y))
	}

	diffs := make([]float64, len(y)-1)
	for i := 1; i < len(y); i++ {
		diffs[i-1] = y[i] - y[i-1]
	}

	lagged := diffs[:len(diffs)-1]
	current := diffs[1:]

	var phi float64
	if floats.Dot(lagged, lagged) > 0 {
		_, phi = stat.LinearRegression(lagged, current, nil, true)
	}
	if math.IsNaN(phi) || math.IsInf(phi, 0) {
		return nil, fitError(algo, nil, "AR coefficient is not finite")
	}
	phi = max(-maxARCoefficient, min(phi, maxARCoefficient))

	out := make([]float64, horizon)
	level := y[len(y)-1]
	step := diffs[len(diffs)-1]
	for h := range out {
		step *= phi
		level += step
		out[h] = level
	}

	return out, nil
}

// checkFinite rejects forecasts containing NaN or infinities.
func checkFinite(algo model.Algorithm, values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fitError(algo, nil, "non-finite prediction at day %d", i+1)
		}
	}
	return nil
}
