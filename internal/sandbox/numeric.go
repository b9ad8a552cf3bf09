package sandbox

import (
	"fmt"
	"math"
	"math/rand"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"gonum.org/v1/gonum/stat"
)

// newNumericModule builds the np module. Elementwise functions accept a
// number or a sequence of numbers and mirror the shape of their input.
func newNumericModule(rng *rand.Rand) *starlarkstruct.Module {
	return &starlarkstruct.Module{
		Name: "np",
		Members: starlark.StringDict{
			"linspace": starlark.NewBuiltin("linspace", linspaceFn),
			"arange":   starlark.NewBuiltin("arange", arangeFn),
			"zeros":    starlark.NewBuiltin("zeros", fillFn(0)),
			"ones":     starlark.NewBuiltin("ones", fillFn(1)),
			"column":   starlark.NewBuiltin("column", columnFn),
			"abs":      elementwise("abs", math.Abs),
			"sqrt":     elementwise("sqrt", math.Sqrt),
			"exp":      elementwise("exp", math.Exp),
			"log":      elementwise("log", math.Log),
			"log2":     elementwise("log2", math.Log2),
			"log10":    elementwise("log10", math.Log10),
			"mean":     reduce("mean", func(xs []float64) float64 { return stat.Mean(xs, nil) }),
			"std":      reduce("std", func(xs []float64) float64 { return stat.StdDev(xs, nil) }),
			"sum":      reduce("sum", sumFloats),
			"min":      reduce("min", minFloats),
			"max":      reduce("max", maxFloats),
			"random": &starlarkstruct.Module{
				Name: "random",
				Members: starlark.StringDict{
					"seed":    starlark.NewBuiltin("seed", seedFn(rng)),
					"normal":  starlark.NewBuiltin("normal", normalFn(rng)),
					"uniform": starlark.NewBuiltin("uniform", uniformFn(rng)),
					"randn":   starlark.NewBuiltin("randn", randnFn(rng)),
				},
			},
		},
	}
}

// floatArg converts an unpacked scalar argument, accepting both int and
// float like the rest of the dialect. A nil value yields the default.
func floatArg(name, param string, v starlark.Value, def float64) (float64, error) {
	if v == nil {
		return def, nil
	}
	f, ok := starlark.AsFloat(v)
	if !ok {
		return 0, fmt.Errorf("%s: %s is %s, want a number", name, param, v.Type())
	}
	return f, nil
}

func toFloats(v starlark.Value) ([]float64, error) {
	seq, ok := v.(starlark.Indexable)
	if !ok {
		return nil, fmt.Errorf("got %s, want a sequence of numbers", v.Type())
	}
	out := make([]float64, seq.Len())
	for i := range out {
		f, ok := starlark.AsFloat(seq.Index(i))
		if !ok {
			return nil, fmt.Errorf("element %d is %s, want a number", i, seq.Index(i).Type())
		}
		out[i] = f
	}
	return out, nil
}

func toMatrix(v starlark.Value) ([][]float64, error) {
	seq, ok := v.(starlark.Indexable)
	if !ok {
		return nil, fmt.Errorf("got %s, want a sequence of rows", v.Type())
	}
	out := make([][]float64, seq.Len())
	for i := range out {
		row, err := toFloats(seq.Index(i))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if i > 0 && len(row) != len(out[0]) {
			return nil, fmt.Errorf("row %d has %d values, want %d", i, len(row), len(out[0]))
		}
		out[i] = row
	}
	return out, nil
}

func fromFloats(xs []float64) *starlark.List {
	vals := make([]starlark.Value, len(xs))
	for i, x := range xs {
		vals[i] = starlark.Float(x)
	}
	return starlark.NewList(vals)
}

func fromMatrix(m [][]float64) *starlark.List {
	rows := make([]starlark.Value, len(m))
	for i, row := range m {
		rows[i] = fromFloats(row)
	}
	return starlark.NewList(rows)
}

func elementwise(name string, fn func(float64) float64) *starlark.Builtin {
	return starlark.NewBuiltin(name, func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var v starlark.Value
		if err := starlark.UnpackPositionalArgs(name, args, kwargs, 1, &v); err != nil {
			return nil, err
		}
		if f, ok := starlark.AsFloat(v); ok {
			return starlark.Float(fn(f)), nil
		}
		xs, err := toFloats(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		for i, x := range xs {
			xs[i] = fn(x)
		}
		return fromFloats(xs), nil
	})
}

func reduce(name string, fn func([]float64) float64) *starlark.Builtin {
	return starlark.NewBuiltin(name, func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var v starlark.Value
		if err := starlark.UnpackPositionalArgs(name, args, kwargs, 1, &v); err != nil {
			return nil, err
		}
		xs, err := toFloats(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if len(xs) == 0 {
			return nil, fmt.Errorf("%s: empty sequence", name)
		}
		return starlark.Float(fn(xs)), nil
	})
}

func sumFloats(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

func minFloats(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func maxFloats(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

func linspaceFn(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var startV, stopV starlark.Value
	num := 50
	if err := starlark.UnpackArgs("linspace", args, kwargs, "start", &startV, "stop", &stopV, "num?", &num); err != nil {
		return nil, err
	}
	start, err := floatArg("linspace", "start", startV, 0)
	if err != nil {
		return nil, err
	}
	stop, err := floatArg("linspace", "stop", stopV, 0)
	if err != nil {
		return nil, err
	}
	if num <= 0 {
		return starlark.NewList(nil), nil
	}
	if num == 1 {
		return fromFloats([]float64{start}), nil
	}
	out := make([]float64, num)
	step := (stop - start) / float64(num-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return fromFloats(out), nil
}

func arangeFn(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) > 0 {
		return nil, fmt.Errorf("arange: unexpected keyword arguments")
	}
	vals := make([]float64, args.Len())
	for i := 0; i < args.Len(); i++ {
		f, ok := starlark.AsFloat(args.Index(i))
		if !ok {
			return nil, fmt.Errorf("arange: argument %d is not a number", i+1)
		}
		vals[i] = f
	}
	var start, stop, step float64
	switch len(vals) {
	case 1:
		start, stop, step = 0, vals[0], 1
	case 2:
		start, stop, step = vals[0], vals[1], 1
	case 3:
		start, stop, step = vals[0], vals[1], vals[2]
	default:
		return nil, fmt.Errorf("arange: got %d arguments, want 1 to 3", len(vals))
	}
	if step == 0 {
		return nil, fmt.Errorf("arange: step must not be zero")
	}
	var out []float64
	if step > 0 {
		for x := start; x < stop; x += step {
			out = append(out, x)
		}
	} else {
		for x := start; x > stop; x += step {
			out = append(out, x)
		}
	}
	return fromFloats(out), nil
}

func fillFn(value float64) func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
	return func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var n int
		if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &n); err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, fmt.Errorf("%s: negative length", b.Name())
		}
		out := make([]float64, n)
		for i := range out {
			out[i] = value
		}
		return fromFloats(out), nil
	}
}

func columnFn(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var mv starlark.Value
	var idx int
	if err := starlark.UnpackPositionalArgs("column", args, kwargs, 2, &mv, &idx); err != nil {
		return nil, err
	}
	m, err := toMatrix(mv)
	if err != nil {
		return nil, fmt.Errorf("column: %w", err)
	}
	if len(m) == 0 {
		return starlark.NewList(nil), nil
	}
	if idx < 0 || idx >= len(m[0]) {
		return nil, fmt.Errorf("column: index %d out of range for %d columns", idx, len(m[0]))
	}
	out := make([]float64, len(m))
	for i, row := range m {
		out[i] = row[idx]
	}
	return fromFloats(out), nil
}

func seedFn(rng *rand.Rand) func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
	return func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var seed int64
		if err := starlark.UnpackPositionalArgs("seed", args, kwargs, 1, &seed); err != nil {
			return nil, err
		}
		rng.Seed(seed)
		return starlark.None, nil
	}
}

func normalFn(rng *rand.Rand) func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
	return func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var locV, scaleV starlark.Value
		size := 1
		if err := starlark.UnpackArgs("normal", args, kwargs, "loc?", &locV, "scale?", &scaleV, "size?", &size); err != nil {
			return nil, err
		}
		loc, err := floatArg("normal", "loc", locV, 0)
		if err != nil {
			return nil, err
		}
		scale, err := floatArg("normal", "scale", scaleV, 1)
		if err != nil {
			return nil, err
		}
		out := make([]float64, size)
		for i := range out {
			out[i] = rng.NormFloat64()*scale + loc
		}
		return fromFloats(out), nil
	}
}

func uniformFn(rng *rand.Rand) func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
	return func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var lowV, highV starlark.Value
		size := 1
		if err := starlark.UnpackArgs("uniform", args, kwargs, "low?", &lowV, "high?", &highV, "size?", &size); err != nil {
			return nil, err
		}
		low, err := floatArg("uniform", "low", lowV, 0)
		if err != nil {
			return nil, err
		}
		high, err := floatArg("uniform", "high", highV, 1)
		if err != nil {
			return nil, err
		}
		out := make([]float64, size)
		for i := range out {
			out[i] = low + rng.Float64()*(high-low)
		}
		return fromFloats(out), nil
	}
}

func randnFn(rng *rand.Rand) func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
	return func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var n int
		m := -1
		if err := starlark.UnpackPositionalArgs("randn", args, kwargs, 1, &n, &m); err != nil {
			return nil, err
		}
		if m < 0 {
			out := make([]float64, n)
			for i := range out {
				out[i] = rng.NormFloat64()
			}
			return fromFloats(out), nil
		}
		rows := make([][]float64, n)
		for i := range rows {
			rows[i] = make([]float64, m)
			for j := range rows[i] {
				rows[i][j] = rng.NormFloat64()
			}
		}
		return fromMatrix(rows), nil
	}
}
