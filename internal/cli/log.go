package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/layerank/pkg/pipeline"
)

// newLogger returns the CLI logger. Timestamps read "15:04:05.00".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// rankTimer measures one rank command from input to ranked graph.
type rankTimer struct {
	logger *log.Logger
	start  time.Time
}

func startRank(l *log.Logger) rankTimer {
	return rankTimer{logger: l, start: time.Now()}
}

// done logs the outcome of a rank run. Cached results report zero pivots
// because the solver did not run.
func (t rankTimer) done(res *pipeline.Result) {
	st := res.Stats
	kv := []any{
		"nodes", st.Nodes,
		"rows", res.Graph.RowCount(),
		"length", st.TotalLength,
		"elapsed", time.Since(t.start).Round(time.Millisecond),
	}
	if res.Cached {
		kv = append(kv, "cached", true)
	} else {
		kv = append(kv, "pivots", st.Iterations)
	}
	t.logger.Info("ranked", kv...)
}

type loggerKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the logger set by withLogger, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
