package qa

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/campus-qa/backend/internal/logger"
	"github.com/emilythestrangee/campus-qa/backend/internal/models"
)

// PostAnswer adds an answer by authorID to questionID. The question row is
// share-locked so a concurrent DeleteQuestion cannot orphan the answer.
func (s *Service) PostAnswer(ctx context.Context, authorID, questionID int64, content string) (answer *models.Answer, err error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: answer content is empty", ErrInvalidInput)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component:  "qa.answers",
		UserID:     logger.Ptr(authorID),
		QuestionID: logger.Ptr(questionID),
	})
	ctx, span := s.tracer.Start(ctx, "qa.PostAnswer", trace.WithAttributes(
		attribute.Int64("question.id", questionID),
	))
	defer func() { endSpan(span, err) }()

	a := models.Answer{Content: content, AuthorID: authorID, QuestionID: questionID}
	err = s.withTx(ctx, func(tx *gorm.DB) error {
		var q models.Question
		err := tx.Clauses(clause.Locking{Strength: "SHARE"}).Select("id").Take(&q, "id = ?", questionID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: question %d", ErrNotFound, questionID)
		}
		if err != nil {
			return err
		}
		return tx.Create(&a).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "answer posted", "answer_id", a.ID)
	s.invalidate(ctx, questionID)
	return &a, nil
}
