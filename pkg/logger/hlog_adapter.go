package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/cloudwego/hertz/pkg/common/hlog"
)

// HlogAdapter routes Hertz framework logs through slog so the simulator
// emits a single log stream.
type HlogAdapter struct {
	logger *slog.Logger
}

// NewHlogAdapter creates a Hertz logger backed by slog
func NewHlogAdapter(logger *slog.Logger) *HlogAdapter {
	return &HlogAdapter{logger: logger}
}

func (h *HlogAdapter) Trace(v ...interface{})  { h.logger.Debug(sprint(v...)) }
func (h *HlogAdapter) Debug(v ...interface{})  { h.logger.Debug(sprint(v...)) }
func (h *HlogAdapter) Info(v ...interface{})   { h.logger.Info(sprint(v...)) }
func (h *HlogAdapter) Notice(v ...interface{}) { h.logger.Info(sprint(v...)) }
func (h *HlogAdapter) Warn(v ...interface{})   { h.logger.Warn(sprint(v...)) }
func (h *HlogAdapter) Error(v ...interface{})  { h.logger.Error(sprint(v...)) }
func (h *HlogAdapter) Fatal(v ...interface{})  { h.logger.Error(sprint(v...)) }

func (h *HlogAdapter) Tracef(format string, v ...interface{}) {
	h.logger.Debug(fmt.Sprintf(format, v...))
}

func (h *HlogAdapter) Debugf(format string, v ...interface{}) {
	h.logger.Debug(fmt.Sprintf(format, v...))
}

func (h *HlogAdapter) Infof(format string, v ...interface{}) {
	h.logger.Info(fmt.Sprintf(format, v...))
}

func (h *HlogAdapter) Noticef(format string, v ...interface{}) {
	h.logger.Info(fmt.Sprintf(format, v...))
}

func (h *HlogAdapter) Warnf(format string, v ...interface{}) {
	h.logger.Warn(fmt.Sprintf(format, v...))
}

func (h *HlogAdapter) Errorf(format string, v ...interface{}) {
	h.logger.Error(fmt.Sprintf(format, v...))
}

func (h *HlogAdapter) Fatalf(format string, v ...interface{}) {
	h.logger.Error(fmt.Sprintf(format, v...))
}

func (h *HlogAdapter) CtxTracef(ctx context.Context, format string, v ...interface{}) {
	h.logger.DebugContext(ctx, fmt.Sprintf(format, v...))
}

func (h *HlogAdapter) CtxDebugf(ctx context.Context, format string, v ...interface{}) {
	h.logger.DebugContext(ctx, fmt.Sprintf(format, v...))
}

func (h *HlogAdapter) CtxInfof(ctx context.Context, format string, v ...interface{}) {
	h.logger.InfoContext(ctx, fmt.Sprintf(format, v...))
}

func (h *HlogAdapter) CtxNoticef(ctx context.Context, format string, v ...interface{}) {
	h.logger.InfoContext(ctx, fmt.Sprintf(format, v...))
}

func (h *HlogAdapter) CtxWarnf(ctx context.Context, format string, v ...interface{}) {
	h.logger.WarnContext(ctx, fmt.Sprintf(format, v...))
}

func (h *HlogAdapter) CtxErrorf(ctx context.Context, format string, v ...interface{}) {
	h.logger.ErrorContext(ctx, fmt.Sprintf(format, v...))
}

func (h *HlogAdapter) CtxFatalf(ctx context.Context, format string, v ...interface{}) {
	h.logger.ErrorContext(ctx, fmt.Sprintf(format, v...))
}

// SetLevel is a no-op; slog level is fixed at Setup time
func (h *HlogAdapter) SetLevel(level hlog.Level) {}

// SetOutput is a no-op; slog output is fixed at Setup time
func (h *HlogAdapter) SetOutput(writer io.Writer) {}

func sprint(v ...interface{}) string {
	if len(v) == 1 {
		if s, ok := v[0].(string); ok {
			return s
		}
	}
	return fmt.Sprint(v...)
}
