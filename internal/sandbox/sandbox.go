// Package sandbox executes analysis scripts in an embedded Starlark
// interpreter. Scripts get a fixed set of preloaded modules (np, plt, stats,
// df) instead of imports, a step budget and a wall-clock limit, and no access
// to the host beyond printing and off-screen plotting.
package sandbox

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"seqassist/internal/domain"
)

const (
	// DefaultMaxSteps bounds interpreter work per run.
	DefaultMaxSteps = 10_000_000
	// DefaultTimeout bounds wall-clock time per run.
	DefaultTimeout = 10 * time.Second
)

// Config bounds a single script execution.
type Config struct {
	MaxSteps uint64
	Timeout  time.Duration
	Logger   *slog.Logger
}

// Executor runs scripts. Safe for concurrent use; every run gets fresh
// interpreter and figure state.
type Executor struct {
	maxSteps uint64
	timeout  time.Duration
	logger   *slog.Logger
}

// New creates an executor with the given limits, falling back to defaults
// for zero values.
func New(cfg Config) *Executor {
	if cfg.MaxSteps == 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{maxSteps: cfg.MaxSteps, timeout: cfg.Timeout, logger: logger}
}

var fileOpts = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// Run executes one script and returns captured stdout, an optional rendered
// plot, and the script error if any. Failures are reported in the result,
// never as a Go error.
func (e *Executor) Run(ctx context.Context, code string) domain.ExecResult {
	start := time.Now()

	var stdout strings.Builder
	thread := &starlark.Thread{
		Name: "sandbox",
		Print: func(_ *starlark.Thread, msg string) {
			stdout.WriteString(msg)
			stdout.WriteByte('\n')
		},
	}
	thread.SetMaxExecutionSteps(e.maxSteps)

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, func() {
		thread.Cancel("time limit exceeded")
	})
	defer stop()

	fig := newFigure()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	predeclared := starlark.StringDict{
		"np":             newNumericModule(rng),
		"plt":            fig.pltModule(),
		"stats":          newStatsModule(),
		"df":             newFrameModule(),
		"pca":            starlark.NewBuiltin("pca", pcaBuiltin),
		"standard_scale": starlark.NewBuiltin("standard_scale", standardScaleBuiltin),
	}

	_, err := starlark.ExecFileOptions(fileOpts, thread, "script.star", stripImports(code), predeclared)

	res := domain.ExecResult{Stdout: stdout.String()}
	if err != nil {
		res.Error = errorMessage(err)
		e.logger.Debug("script failed", "error", res.Error, "duration", time.Since(start))
		return res
	}
	img, err := fig.renderPNG()
	if err != nil {
		res.Error = "render plot: " + err.Error()
		return res
	}
	res.ImageBase64 = img
	e.logger.Debug("script finished", "duration", time.Since(start), "plotted", img != "")
	return res
}

// stripImports blanks import and load lines so scripts written against the
// preloaded modules run unchanged. Line numbers are preserved for errors.
func stripImports(src string) string {
	lines := strings.Split(src, "\n")
	for i, line := range lines {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "import ") || strings.HasPrefix(t, "from ") || strings.HasPrefix(t, "load(") {
			lines[i] = ""
		}
	}
	return strings.Join(lines, "\n")
}

func errorMessage(err error) string {
	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		return evalErr.Msg
	}
	return err.Error()
}
