package sandbox

import (
	"fmt"
	"sort"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func newStatsModule() *starlarkstruct.Module {
	return &starlarkstruct.Module{
		Name: "stats",
		Members: starlark.StringDict{
			"mean":     reduce("mean", func(xs []float64) float64 { return stat.Mean(xs, nil) }),
			"std":      reduce("std", func(xs []float64) float64 { return stat.StdDev(xs, nil) }),
			"variance": reduce("variance", func(xs []float64) float64 { return stat.Variance(xs, nil) }),
			"median":   reduce("median", medianOf),
			"quantile": starlark.NewBuiltin("quantile", quantileFn),
		},
	}
}

func medianOf(xs []float64) float64 {
	return quantileOf(xs, 0.5)
}

func quantileOf(xs []float64, q float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	return stat.Quantile(q, stat.Empirical, sorted, nil)
}

func quantileFn(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var dv, qv starlark.Value
	if err := starlark.UnpackPositionalArgs("quantile", args, kwargs, 2, &dv, &qv); err != nil {
		return nil, err
	}
	q, err := floatArg("quantile", "q", qv, 0)
	if err != nil {
		return nil, err
	}
	xs, err := toFloats(dv)
	if err != nil {
		return nil, fmt.Errorf("quantile: %w", err)
	}
	if len(xs) == 0 {
		return nil, fmt.Errorf("quantile: empty sequence")
	}
	if q < 0 || q > 1 {
		return nil, fmt.Errorf("quantile: q = %v, want 0 to 1", q)
	}
	return starlark.Float(quantileOf(xs, q)), nil
}

// pcaBuiltin projects a samples-by-features matrix onto its first ncomp
// principal components and returns the projected coordinates.
func pcaBuiltin(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var mv starlark.Value
	ncomp := 2
	if err := starlark.UnpackPositionalArgs("pca", args, kwargs, 1, &mv, &ncomp); err != nil {
		return nil, err
	}
	m, err := toMatrix(mv)
	if err != nil {
		return nil, fmt.Errorf("pca: %w", err)
	}
	rows := len(m)
	if rows < 2 {
		return nil, fmt.Errorf("pca: need at least 2 samples, got %d", rows)
	}
	cols := len(m[0])
	if ncomp < 1 || ncomp > cols {
		return nil, fmt.Errorf("pca: ncomp = %d, want 1 to %d", ncomp, cols)
	}

	centered := mat.NewDense(rows, cols, nil)
	for j := 0; j < cols; j++ {
		var sum float64
		for i := 0; i < rows; i++ {
			sum += m[i][j]
		}
		mean := sum / float64(rows)
		for i := 0; i < rows; i++ {
			centered.Set(i, j, m[i][j]-mean)
		}
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(centered, nil); !ok {
		return nil, fmt.Errorf("pca: decomposition failed")
	}
	var vec mat.Dense
	pc.VectorsTo(&vec)

	var proj mat.Dense
	proj.Mul(centered, vec.Slice(0, cols, 0, ncomp))

	out := make([][]float64, rows)
	for i := range out {
		out[i] = make([]float64, ncomp)
		for j := 0; j < ncomp; j++ {
			out[i][j] = proj.At(i, j)
		}
	}
	return fromMatrix(out), nil
}

// standardScaleBuiltin centers each column to zero mean and unit variance.
// Accepts a matrix or a single sequence.
func standardScaleBuiltin(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var dv starlark.Value
	if err := starlark.UnpackPositionalArgs("standard_scale", args, kwargs, 1, &dv); err != nil {
		return nil, err
	}
	if xs, err := toFloats(dv); err == nil {
		return fromFloats(scaleColumn(xs)), nil
	}
	m, err := toMatrix(dv)
	if err != nil {
		return nil, fmt.Errorf("standard_scale: %w", err)
	}
	if len(m) == 0 {
		return starlark.NewList(nil), nil
	}
	rows, cols := len(m), len(m[0])
	out := make([][]float64, rows)
	for i := range out {
		out[i] = make([]float64, cols)
	}
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			col[i] = m[i][j]
		}
		scaled := scaleColumn(col)
		for i := 0; i < rows; i++ {
			out[i][j] = scaled[i]
		}
	}
	return fromMatrix(out), nil
}

func scaleColumn(xs []float64) []float64 {
	mean := stat.Mean(xs, nil)
	sd := stat.StdDev(xs, nil)
	out := make([]float64, len(xs))
	for i, x := range xs {
		if sd > 0 {
			out[i] = (x - mean) / sd
		} else {
			out[i] = 0
		}
	}
	return out
}
