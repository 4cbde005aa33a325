// Package cache holds cached GET responses and the invalidation hook that
// mutating operations call once their transaction has committed.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Invalidator drops every cached entry whose key contains pattern.
type Invalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// Store is an Invalidator that also holds values. Every Invalidate bumps a
// store-wide generation; SetIfGeneration writes only if no invalidation ran
// since gen was read, so a response rendered from pre-commit state cannot be
// cached after the commit's invalidation.
type Store interface {
	Invalidator
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Generation(ctx context.Context) (int64, error)
	SetIfGeneration(ctx context.Context, key string, value []byte, ttl time.Duration, gen int64) (bool, error)
}

// Nop satisfies Invalidator and does nothing.
type Nop struct{}

func (Nop) Invalidate(context.Context, string) error { return nil }

func QuestionAnswersKey(questionID int64) string {
	return fmt.Sprintf("question:%d:answers", questionID)
}

func QuestionVotesKey(questionID int64) string {
	return fmt.Sprintf("question:%d:votes", questionID)
}

func UserQuestionVotesKey(questionID, userID int64) string {
	return fmt.Sprintf("%s:user:%d", QuestionVotesKey(questionID), userID)
}

// QuestionPatterns lists the invalidation patterns covering every cached
// read derived from a question's answers and votes.
func QuestionPatterns(questionID int64) []string {
	return []string{QuestionAnswersKey(questionID), QuestionVotesKey(questionID)}
}
