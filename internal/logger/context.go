package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields are attached to every record logged with a context carrying them.
type LogFields struct {
	RequestID  string
	UserID     *int64
	QuestionID *int64
	AnswerID   *int64
	Component  string // e.g. "qa.votes"
}

// WithLogFields merges fields into the context; newer non-empty values win.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	merged := mergeFields(GetLogFields(ctx), fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, new LogFields) LogFields {
	result := existing

	if new.RequestID != "" {
		result.RequestID = new.RequestID
	}
	if new.UserID != nil {
		result.UserID = new.UserID
	}
	if new.QuestionID != nil {
		result.QuestionID = new.QuestionID
	}
	if new.AnswerID != nil {
		result.AnswerID = new.AnswerID
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

// Ptr returns a pointer to v, for inline LogFields literals.
func Ptr[T any](v T) *T {
	return &v
}
