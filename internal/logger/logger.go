package logger

import (
	"context"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/trace"

	"github.com/emilythestrangee/campus-qa/backend/internal/config"
)

func Setup(cfg config.Config) {
	slog.SetDefault(slog.New(NewHandler(cfg)))
}

// NewHandler picks the slog handler for the environment: the OTLP bridge in
// production with an exporter configured, JSON in production otherwise, and
// text everywhere else.
func NewHandler(cfg config.Config) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if cfg.IsDevelopment() {
		opts.Level = slog.LevelDebug
	}

	switch {
	case cfg.IsProduction() && cfg.OTel.Enabled():
		return otelslog.NewHandler(
			cfg.OTel.ServiceName,
			otelslog.WithLoggerProvider(global.GetLoggerProvider()),
		)
	case cfg.IsProduction():
		return NewTraceHandler(slog.NewJSONHandler(os.Stdout, opts))
	default:
		return NewTraceHandler(slog.NewTextHandler(os.Stdout, opts))
	}
}

type TraceHandler struct {
	slog.Handler
}

func NewTraceHandler(h slog.Handler) *TraceHandler {
	return &TraceHandler{Handler: h}
}

func (h *TraceHandler) Handle(ctx context.Context, r slog.Record) error {
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}

	fields := GetLogFields(ctx)
	if fields.RequestID != "" {
		r.AddAttrs(slog.String("request_id", fields.RequestID))
	}
	if fields.UserID != nil {
		r.AddAttrs(slog.Int64("user_id", *fields.UserID))
	}
	if fields.QuestionID != nil {
		r.AddAttrs(slog.Int64("question_id", *fields.QuestionID))
	}
	if fields.AnswerID != nil {
		r.AddAttrs(slog.Int64("answer_id", *fields.AnswerID))
	}
	if fields.Component != "" {
		r.AddAttrs(slog.String("component", fields.Component))
	}

	return h.Handler.Handle(ctx, r)
}

func (h *TraceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TraceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *TraceHandler) WithGroup(name string) slog.Handler {
	return &TraceHandler{Handler: h.Handler.WithGroup(name)}
}
