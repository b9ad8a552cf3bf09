package sandbox

import (
	"fmt"
	"sort"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"gonum.org/v1/gonum/stat"
)

func newFrameModule() *starlarkstruct.Module {
	return &starlarkstruct.Module{
		Name: "df",
		Members: starlark.StringDict{
			"frame": starlark.NewBuiltin("frame", frameFn),
		},
	}
}

// frameFn builds a column-oriented table from a dict of name to value list.
func frameFn(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var d *starlark.Dict
	if err := starlark.UnpackPositionalArgs("frame", args, kwargs, 1, &d); err != nil {
		return nil, err
	}
	f := &frame{columns: make(map[string]*starlark.List)}
	rows := -1
	for _, item := range d.Items() {
		name, ok := starlark.AsString(item[0])
		if !ok {
			return nil, fmt.Errorf("frame: column name is %s, want string", item[0].Type())
		}
		list, ok := item[1].(*starlark.List)
		if !ok {
			return nil, fmt.Errorf("frame: column %q is %s, want list", name, item[1].Type())
		}
		if rows == -1 {
			rows = list.Len()
		} else if list.Len() != rows {
			return nil, fmt.Errorf("frame: column %q has %d values, want %d", name, list.Len(), rows)
		}
		f.order = append(f.order, name)
		f.columns[name] = list
	}
	if rows == -1 {
		rows = 0
	}
	f.rows = rows
	return f, nil
}

// frame is a minimal immutable dataframe: named columns of equal length.
type frame struct {
	order   []string
	columns map[string]*starlark.List
	rows    int
}

var (
	_ starlark.Value    = (*frame)(nil)
	_ starlark.HasAttrs = (*frame)(nil)
)

func (f *frame) String() string {
	return fmt.Sprintf("<frame %d rows, %d columns>", f.rows, len(f.order))
}
func (f *frame) Type() string { return "frame" }

func (f *frame) Freeze() {
	for _, c := range f.columns {
		c.Freeze()
	}
}

func (f *frame) Truth() starlark.Bool  { return f.rows > 0 }
func (f *frame) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: frame") }

func (f *frame) AttrNames() []string {
	return []string{"column", "columns", "describe", "head", "num_rows"}
}

func (f *frame) Attr(name string) (starlark.Value, error) {
	switch name {
	case "num_rows":
		return starlark.MakeInt(f.rows), nil
	case "columns":
		names := make([]starlark.Value, len(f.order))
		for i, n := range f.order {
			names[i] = starlark.String(n)
		}
		return starlark.NewList(names), nil
	case "column":
		return starlark.NewBuiltin("column", f.columnAttr), nil
	case "head":
		return starlark.NewBuiltin("head", f.headAttr), nil
	case "describe":
		return starlark.NewBuiltin("describe", f.describeAttr), nil
	}
	return nil, nil
}

func (f *frame) columnAttr(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackPositionalArgs("column", args, kwargs, 1, &name); err != nil {
		return nil, err
	}
	col, ok := f.columns[name]
	if !ok {
		known := strings.Join(f.order, ", ")
		return nil, fmt.Errorf("column: no column %q (have: %s)", name, known)
	}
	return col, nil
}

func (f *frame) headAttr(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	n := 5
	if err := starlark.UnpackPositionalArgs("head", args, kwargs, 0, &n); err != nil {
		return nil, err
	}
	if n > f.rows {
		n = f.rows
	}
	var b strings.Builder
	b.WriteString(strings.Join(f.order, "\t"))
	for i := 0; i < n; i++ {
		b.WriteByte('\n')
		cells := make([]string, len(f.order))
		for j, name := range f.order {
			cells[j] = f.columns[name].Index(i).String()
		}
		b.WriteString(strings.Join(cells, "\t"))
	}
	return starlark.String(b.String()), nil
}

// describeAttr summarizes every numeric column with count, mean, std, min,
// median and max, one line per column.
func (f *frame) describeAttr(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs("describe", args, kwargs, 0); err != nil {
		return nil, err
	}
	var lines []string
	for _, name := range f.order {
		xs, err := toFloats(f.columns[name])
		if err != nil || len(xs) == 0 {
			continue
		}
		sorted := append([]float64(nil), xs...)
		sort.Float64s(sorted)
		lines = append(lines, fmt.Sprintf(
			"%s: count=%d mean=%.4f std=%.4f min=%.4f median=%.4f max=%.4f",
			name, len(xs),
			stat.Mean(xs, nil), stat.StdDev(xs, nil),
			sorted[0], stat.Quantile(0.5, stat.Empirical, sorted, nil), sorted[len(sorted)-1],
		))
	}
	return starlark.String(strings.Join(lines, "\n")), nil
}
