// Package qa keeps votes, answer counters, author reputation, role tiers
// and accepted answers consistent with each other. Every exported operation
// runs as one postgres transaction; cached reads are invalidated only after
// that transaction commits.
package qa

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/campus-qa/backend/internal/cache"
	"github.com/emilythestrangee/campus-qa/backend/internal/models"
	"github.com/emilythestrangee/campus-qa/backend/internal/reputation"
)

const tracerName = "github.com/emilythestrangee/campus-qa/backend/internal/qa"

type Service struct {
	db          *gorm.DB
	invalidator cache.Invalidator
	logger      *slog.Logger
	tracer      trace.Tracer
}

func NewService(db *gorm.DB, invalidator cache.Invalidator, logger *slog.Logger) *Service {
	if invalidator == nil {
		invalidator = cache.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:          db,
		invalidator: invalidator,
		logger:      logger,
		tracer:      otel.Tracer(tracerName),
	}
}

// AnswerSnapshot is the committed state of an answer's counters.
type AnswerSnapshot struct {
	ID         int64 `json:"id"`
	QuestionID int64 `json:"question_id"`
	AuthorID   int64 `json:"author_id"`
	Upvotes    int   `json:"upvotes"`
	Downvotes  int   `json:"downvotes"`
	IsAccepted bool  `json:"is_accepted"`
}

func snapshot(a *models.Answer) AnswerSnapshot {
	return AnswerSnapshot{
		ID:         a.ID,
		QuestionID: a.QuestionID,
		AuthorID:   a.AuthorID,
		Upvotes:    a.Upvotes,
		Downvotes:  a.Downvotes,
		IsAccepted: a.IsAccepted,
	}
}

// withTx runs fn in a READ COMMITTED transaction. Isolation between
// writers comes from the row locks fn takes, always in the order
// question, answer, user.
func (s *Service) withTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	err := s.db.WithContext(ctx).Transaction(fn, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	return classify(err)
}

// invalidate drops cached reads for a question after commit. Failures are
// logged and swallowed.
func (s *Service) invalidate(ctx context.Context, questionID int64) {
	for _, pattern := range cache.QuestionPatterns(questionID) {
		if err := s.invalidator.Invalidate(ctx, pattern); err != nil {
			s.logger.WarnContext(ctx, "cache invalidation failed", "pattern", pattern, "error", err)
		}
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func lockAnswer(tx *gorm.DB, answerID int64) (*models.Answer, error) {
	var a models.Answer
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Take(&a, "id = ?", answerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: answer %d", ErrNotFound, answerID)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func lockQuestion(tx *gorm.DB, questionID int64) (*models.Question, error) {
	var q models.Question
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Take(&q, "id = ?", questionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: question %d", ErrNotFound, questionID)
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func lockUser(tx *gorm.DB, userID int64) (*models.User, error) {
	var u models.User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Take(&u, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, userID)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// answerRef reads the immutable ownership columns of an answer without
// locking it, so callers can lock the parent question first.
func answerRef(tx *gorm.DB, answerID int64) (*models.Answer, error) {
	var a models.Answer
	err := tx.Select("id", "question_id", "author_id").Take(&a, "id = ?", answerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: answer %d", ErrNotFound, answerID)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

type signCount struct {
	Value int
	N     int
}

func tally(rows []signCount) (up, down int) {
	for _, r := range rows {
		switch r.Value {
		case 1:
			up = r.N
		case -1:
			down = r.N
		}
	}
	return up, down
}

// countAnswerVotes counts live ledger rows per sign for one answer.
func countAnswerVotes(tx *gorm.DB, answerID int64) (up, down int, err error) {
	var rows []signCount
	err = tx.Model(&models.Vote{}).
		Select("value, COUNT(*) AS n").
		Where("answer_id = ?", answerID).
		Group("value").
		Scan(&rows).Error
	if err != nil {
		return 0, 0, err
	}
	up, down = tally(rows)
	return up, down, nil
}

// countReceivedVotes re-aggregates every vote on every answer by authorID.
func countReceivedVotes(tx *gorm.DB, authorID int64) (up, down int, err error) {
	var rows []signCount
	err = tx.Model(&models.Vote{}).
		Select("votes.value AS value, COUNT(*) AS n").
		Joins("JOIN answers ON answers.id = votes.answer_id").
		Where("answers.author_id = ?", authorID).
		Group("votes.value").
		Scan(&rows).Error
	if err != nil {
		return 0, 0, err
	}
	up, down = tally(rows)
	return up, down, nil
}

// refreshAuthor locks the author, recomputes the received-vote counters and
// role tier from the ledger and applies repDelta clamped at zero.
func refreshAuthor(tx *gorm.DB, authorID int64, repDelta int) (*models.User, error) {
	author, err := lockUser(tx, authorID)
	if err != nil {
		return nil, err
	}
	up, down, err := countReceivedVotes(tx, authorID)
	if err != nil {
		return nil, err
	}

	author.Reputation = reputation.Apply(author.Reputation, repDelta)
	author.AnswerUpvotesReceived = up
	author.AnswerDownvotesReceived = down
	author.Role = reputation.ClassifyRole(up)

	err = tx.Model(author).Updates(map[string]any{
		"reputation":                author.Reputation,
		"answer_upvotes_received":   author.AnswerUpvotesReceived,
		"answer_downvotes_received": author.AnswerDownvotesReceived,
		"role":                      author.Role,
	}).Error
	if err != nil {
		return nil, err
	}
	return author, nil
}
