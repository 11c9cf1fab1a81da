package predictor

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// linearModel is an ordinary-least-squares fit with intercept.
type linearModel struct {
	// coeffs[0] is the intercept, coeffs[1:] the feature weights.
	coeffs []float64
}

// metrics are holdout diagnostics. They never gate a decision.
type metrics struct {
	MAE  float64
	RMSE float64
	R2   float64
}

// fitLeastSquares solves the least-squares problem for the given samples.
func fitLeastSquares(features [][]float64, targets []float64) (*linearModel, error) {
	rows := len(features)
	cols := len(features[0]) + 1

	x := mat.NewDense(rows, cols, nil)
	for i, f := range features {
		x.Set(i, 0, 1)
		for j, v := range f {
			x.Set(i, j+1, v)
		}
	}
	y := mat.NewVecDense(rows, targets)

	var beta mat.VecDense
	if err := beta.SolveVec(x, y); err != nil {
		return nil, errors.Wrap(err, "least squares solve")
	}

	coeffs := make([]float64, cols)
	copy(coeffs, beta.RawVector().Data)
	return &linearModel{coeffs: coeffs}, nil
}

// predict returns the model output for one feature vector.
func (m *linearModel) predict(features []float64) float64 {
	value := m.coeffs[0]
	for i, f := range features {
		value += m.coeffs[i+1] * f
	}
	return value
}

// evaluateModel computes MAE, RMSE and R2 over the holdout samples.
func evaluateModel(m *linearModel, features [][]float64, targets []float64) metrics {
	estimates := make([]float64, len(features))
	var absSum, sqSum float64
	for i, f := range features {
		estimates[i] = m.predict(f)
		residual := targets[i] - estimates[i]
		absSum += math.Abs(residual)
		sqSum += residual * residual
	}

	n := float64(len(targets))
	return metrics{
		MAE:  absSum / n,
		RMSE: math.Sqrt(sqSum / n),
		R2:   stat.RSquaredFrom(estimates, targets, nil),
	}
}
