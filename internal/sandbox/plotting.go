package sandbox

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/color"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Matplotlib's default color cycle, plus the names the prompt templates use.
var namedColors = map[string]color.Color{
	"blue":      color.RGBA{R: 31, G: 119, B: 180, A: 255},
	"orange":    color.RGBA{R: 255, G: 127, B: 14, A: 255},
	"green":     color.RGBA{R: 44, G: 160, B: 44, A: 255},
	"red":       color.RGBA{R: 214, G: 39, B: 40, A: 255},
	"purple":    color.RGBA{R: 148, G: 103, B: 189, A: 255},
	"gray":      color.RGBA{R: 127, G: 127, B: 127, A: 255},
	"grey":      color.RGBA{R: 127, G: 127, B: 127, A: 255},
	"lightgray": color.RGBA{R: 200, G: 200, B: 200, A: 255},
	"black":     color.RGBA{A: 255},
	"cyan":      color.RGBA{R: 23, G: 190, B: 207, A: 255},
	"magenta":   color.RGBA{R: 227, G: 119, B: 194, A: 255},
	"yellow":    color.RGBA{R: 188, G: 189, B: 34, A: 255},
	"salmon":    color.RGBA{R: 250, G: 128, B: 114, A: 255},
	"skyblue":   color.RGBA{R: 135, G: 206, B: 235, A: 255},
}

func lookupColor(name string) color.Color {
	if c, ok := namedColors[name]; ok {
		return c
	}
	return namedColors["blue"]
}

// figure accumulates one plot per script run. Axis lines requested before any
// data cannot be sized yet, so they are buffered and flushed at render time
// using the observed data ranges.
type figure struct {
	p       *plot.Plot
	created bool

	xmin, xmax, ymin, ymax float64
	hasRange               bool

	hlines, vlines []float64
}

func newFigure() *figure {
	return &figure{}
}

func (f *figure) ensure() *plot.Plot {
	if !f.created {
		f.p = plot.New()
		f.created = true
	}
	return f.p
}

func (f *figure) observe(xs, ys []float64) {
	for i := range xs {
		x, y := xs[i], ys[i]
		if !f.hasRange {
			f.xmin, f.xmax, f.ymin, f.ymax = x, x, y, y
			f.hasRange = true
			continue
		}
		if x < f.xmin {
			f.xmin = x
		}
		if x > f.xmax {
			f.xmax = x
		}
		if y < f.ymin {
			f.ymin = y
		}
		if y > f.ymax {
			f.ymax = y
		}
	}
}

// renderPNG flushes pending axis lines and encodes the figure as base64 PNG.
// Returns "" if the script never plotted anything.
func (f *figure) renderPNG() (string, error) {
	if !f.created {
		return "", nil
	}
	if err := f.flushAxisLines(); err != nil {
		return "", err
	}
	w, err := f.p.WriterTo(8*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func (f *figure) flushAxisLines() error {
	xmin, xmax, ymin, ymax := f.xmin, f.xmax, f.ymin, f.ymax
	if !f.hasRange {
		xmin, xmax, ymin, ymax = 0, 1, 0, 1
	}
	dashed := draw.LineStyle{
		Color:  namedColors["gray"],
		Width:  vg.Points(1),
		Dashes: []vg.Length{vg.Points(4), vg.Points(4)},
	}
	for _, y := range f.hlines {
		l, err := plotter.NewLine(plotter.XYs{{X: xmin, Y: y}, {X: xmax, Y: y}})
		if err != nil {
			return err
		}
		l.LineStyle = dashed
		f.p.Add(l)
	}
	for _, x := range f.vlines {
		l, err := plotter.NewLine(plotter.XYs{{X: x, Y: ymin}, {X: x, Y: ymax}})
		if err != nil {
			return err
		}
		l.LineStyle = dashed
		f.p.Add(l)
	}
	return nil
}

// ops returns the drawing builtins shared by the plt module and axes values.
func (f *figure) ops() starlark.StringDict {
	return starlark.StringDict{
		"scatter": starlark.NewBuiltin("scatter", f.scatterFn),
		"plot":    starlark.NewBuiltin("plot", f.plotFn),
		"hist":    starlark.NewBuiltin("hist", f.histFn),
		"bar":     starlark.NewBuiltin("bar", f.barFn),
		"imshow":  starlark.NewBuiltin("imshow", f.imshowFn),
		"axhline": starlark.NewBuiltin("axhline", f.axhlineFn),
		"axvline": starlark.NewBuiltin("axvline", f.axvlineFn),
		"legend":  noop("legend"),
		"grid":    noop("grid"),
	}
}

func (f *figure) pltModule() *starlarkstruct.Module {
	members := f.ops()
	members["xlabel"] = starlark.NewBuiltin("xlabel", f.labelFn(labelX))
	members["ylabel"] = starlark.NewBuiltin("ylabel", f.labelFn(labelY))
	members["title"] = starlark.NewBuiltin("title", f.labelFn(labelTitle))
	members["figure"] = starlark.NewBuiltin("figure", f.figureFn)
	members["subplots"] = starlark.NewBuiltin("subplots", f.subplotsFn)
	members["colorbar"] = noop("colorbar")
	members["tight_layout"] = noop("tight_layout")
	members["savefig"] = noop("savefig")
	members["show"] = noop("show")
	return &starlarkstruct.Module{Name: "plt", Members: members}
}

func (f *figure) axesValue() *starlarkstruct.Struct {
	members := f.ops()
	members["set_xlabel"] = starlark.NewBuiltin("set_xlabel", f.labelFn(labelX))
	members["set_ylabel"] = starlark.NewBuiltin("set_ylabel", f.labelFn(labelY))
	members["set_title"] = starlark.NewBuiltin("set_title", f.labelFn(labelTitle))
	return starlarkstruct.FromStringDict(starlarkstruct.Default, members)
}

func (f *figure) figValue() *starlarkstruct.Struct {
	return starlarkstruct.FromStringDict(starlarkstruct.Default, starlark.StringDict{
		"tight_layout": noop("tight_layout"),
		"colorbar":     noop("colorbar"),
		"savefig":      noop("savefig"),
	})
}

func noop(name string) *starlark.Builtin {
	return starlark.NewBuiltin(name, func(_ *starlark.Thread, _ *starlark.Builtin, _ starlark.Tuple, _ []starlark.Tuple) (starlark.Value, error) {
		return starlark.None, nil
	})
}

func (f *figure) figureFn(_ *starlark.Thread, _ *starlark.Builtin, _ starlark.Tuple, _ []starlark.Tuple) (starlark.Value, error) {
	f.ensure()
	return f.figValue(), nil
}

func (f *figure) subplotsFn(_ *starlark.Thread, _ *starlark.Builtin, _ starlark.Tuple, _ []starlark.Tuple) (starlark.Value, error) {
	f.ensure()
	return starlark.Tuple{f.figValue(), f.axesValue()}, nil
}

type labelKind int

const (
	labelX labelKind = iota
	labelY
	labelTitle
)

func (f *figure) labelFn(kind labelKind) func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
	return func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var text string
		if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &text); err != nil {
			return nil, err
		}
		p := f.ensure()
		switch kind {
		case labelX:
			p.X.Label.Text = text
		case labelY:
			p.Y.Label.Text = text
		case labelTitle:
			p.Title.Text = text
		}
		return starlark.None, nil
	}
}

func (f *figure) scatterFn(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var xv, yv starlark.Value
	var cv, cmap, alpha, size starlark.Value
	var label string
	err := starlark.UnpackArgs("scatter", args, kwargs,
		"x", &xv, "y", &yv, "c?", &cv, "cmap?", &cmap, "alpha?", &alpha, "s?", &size, "label?", &label)
	if err != nil {
		return nil, err
	}
	xs, err := toFloats(xv)
	if err != nil {
		return nil, fmt.Errorf("scatter: x: %w", err)
	}
	ys, err := toFloats(yv)
	if err != nil {
		return nil, fmt.Errorf("scatter: y: %w", err)
	}
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("scatter: x has %d values, y has %d", len(xs), len(ys))
	}

	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i] = plotter.XY{X: xs[i], Y: ys[i]}
	}
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	sc.GlyphStyle.Radius = vg.Points(2.5)
	sc.GlyphStyle.Color = namedColors["blue"]

	if cv != nil {
		styles, err := pointStyles(cv, len(xs))
		if err != nil {
			return nil, fmt.Errorf("scatter: c: %w", err)
		}
		if styles != nil {
			sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
				s := sc.GlyphStyle
				s.Color = styles[i]
				return s
			}
		}
	}

	p := f.ensure()
	p.Add(sc)
	if label != "" {
		p.Legend.Add(label, sc)
	}
	f.observe(xs, ys)
	return starlark.None, nil
}

// pointStyles resolves the matplotlib c= argument: a single color name, a
// list of color names, or a list of numbers mapped through a heat palette.
func pointStyles(cv starlark.Value, n int) ([]color.Color, error) {
	if name, ok := starlark.AsString(cv); ok {
		out := make([]color.Color, n)
		for i := range out {
			out[i] = lookupColor(name)
		}
		return out, nil
	}
	seq, ok := cv.(starlark.Indexable)
	if !ok {
		return nil, fmt.Errorf("got %s, want a color name or sequence", cv.Type())
	}
	if seq.Len() != n {
		return nil, fmt.Errorf("got %d colors for %d points", seq.Len(), n)
	}
	if n == 0 {
		return nil, nil
	}
	if _, isStr := starlark.AsString(seq.Index(0)); isStr {
		out := make([]color.Color, n)
		for i := range out {
			name, ok := starlark.AsString(seq.Index(i))
			if !ok {
				return nil, fmt.Errorf("element %d is not a color name", i)
			}
			out[i] = lookupColor(name)
		}
		return out, nil
	}
	vals, err := toFloats(cv)
	if err != nil {
		return nil, err
	}
	lo, hi := minFloats(vals), maxFloats(vals)
	colors := palette.Heat(256, 1).Colors()
	out := make([]color.Color, n)
	for i, v := range vals {
		t := 0.0
		if hi > lo {
			t = (v - lo) / (hi - lo)
		}
		idx := int(t * float64(len(colors)-1))
		out[i] = colors[idx]
	}
	return out, nil
}

func (f *figure) plotFn(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var xv, yv starlark.Value
	var colorName, label string
	err := starlark.UnpackArgs("plot", args, kwargs,
		"x", &xv, "y?", &yv, "color?", &colorName, "label?", &label)
	if err != nil {
		return nil, err
	}
	var xs, ys []float64
	if yv == nil {
		// Single sequence: values against their indices.
		ys, err = toFloats(xv)
		if err != nil {
			return nil, fmt.Errorf("plot: %w", err)
		}
		xs = make([]float64, len(ys))
		for i := range xs {
			xs[i] = float64(i)
		}
	} else {
		xs, err = toFloats(xv)
		if err != nil {
			return nil, fmt.Errorf("plot: x: %w", err)
		}
		ys, err = toFloats(yv)
		if err != nil {
			return nil, fmt.Errorf("plot: y: %w", err)
		}
	}
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("plot: x has %d values, y has %d", len(xs), len(ys))
	}

	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i] = plotter.XY{X: xs[i], Y: ys[i]}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Color = namedColors["blue"]
	if colorName != "" {
		line.LineStyle.Color = lookupColor(colorName)
	}
	p := f.ensure()
	p.Add(line)
	if label != "" {
		p.Legend.Add(label, line)
	}
	f.observe(xs, ys)
	return starlark.None, nil
}

func (f *figure) histFn(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var dv starlark.Value
	bins := 10
	var colorName string
	if err := starlark.UnpackArgs("hist", args, kwargs, "x", &dv, "bins?", &bins, "color?", &colorName); err != nil {
		return nil, err
	}
	data, err := toFloats(dv)
	if err != nil {
		return nil, fmt.Errorf("hist: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("hist: empty data")
	}
	h, err := plotter.NewHist(plotter.Values(data), bins)
	if err != nil {
		return nil, err
	}
	h.FillColor = namedColors["blue"]
	if colorName != "" {
		h.FillColor = lookupColor(colorName)
	}
	f.ensure().Add(h)
	return starlark.None, nil
}

func (f *figure) barFn(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var xv, hv starlark.Value
	var colorName string
	if err := starlark.UnpackArgs("bar", args, kwargs, "x", &xv, "height", &hv, "color?", &colorName); err != nil {
		return nil, err
	}
	heights, err := toFloats(hv)
	if err != nil {
		return nil, fmt.Errorf("bar: height: %w", err)
	}
	bc, err := plotter.NewBarChart(plotter.Values(heights), vg.Points(20))
	if err != nil {
		return nil, err
	}
	bc.Color = namedColors["blue"]
	if colorName != "" {
		bc.Color = lookupColor(colorName)
	}
	p := f.ensure()
	p.Add(bc)

	if seq, ok := xv.(starlark.Indexable); ok && seq.Len() > 0 {
		if _, isStr := starlark.AsString(seq.Index(0)); isStr {
			labels := make([]string, seq.Len())
			for i := range labels {
				labels[i], _ = starlark.AsString(seq.Index(i))
			}
			p.NominalX(labels...)
		}
	}
	return starlark.None, nil
}

// denseGrid adapts a row-major matrix to the heat map grid interface.
type denseGrid struct {
	data [][]float64
}

func (g denseGrid) Dims() (c, r int) {
	if len(g.data) == 0 {
		return 0, 0
	}
	return len(g.data[0]), len(g.data)
}
func (g denseGrid) Z(c, r int) float64 { return g.data[len(g.data)-1-r][c] }
func (g denseGrid) X(c int) float64    { return float64(c) }
func (g denseGrid) Y(r int) float64    { return float64(r) }

func (f *figure) imshowFn(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var mv starlark.Value
	var cmap, aspect starlark.Value
	if err := starlark.UnpackArgs("imshow", args, kwargs, "x", &mv, "cmap?", &cmap, "aspect?", &aspect); err != nil {
		return nil, err
	}
	m, err := toMatrix(mv)
	if err != nil {
		return nil, fmt.Errorf("imshow: %w", err)
	}
	if len(m) == 0 || len(m[0]) == 0 {
		return nil, fmt.Errorf("imshow: empty matrix")
	}
	hm := plotter.NewHeatMap(denseGrid{data: m}, palette.Heat(12, 1))
	f.ensure().Add(hm)
	return starlark.None, nil
}

func (f *figure) axhlineFn(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var yv starlark.Value
	var colorName, style string
	if err := starlark.UnpackArgs("axhline", args, kwargs, "y?", &yv, "color?", &colorName, "linestyle?", &style); err != nil {
		return nil, err
	}
	y, err := floatArg("axhline", "y", yv, 0)
	if err != nil {
		return nil, err
	}
	f.ensure()
	f.hlines = append(f.hlines, y)
	return starlark.None, nil
}

func (f *figure) axvlineFn(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var xv starlark.Value
	var colorName, style string
	if err := starlark.UnpackArgs("axvline", args, kwargs, "x?", &xv, "color?", &colorName, "linestyle?", &style); err != nil {
		return nil, err
	}
	x, err := floatArg("axvline", "x", xv, 0)
	if err != nil {
		return nil, err
	}
	f.ensure()
	f.vlines = append(f.vlines, x)
	return starlark.None, nil
}
