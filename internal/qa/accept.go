package qa

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/emilythestrangee/campus-qa/backend/internal/logger"
	"github.com/emilythestrangee/campus-qa/backend/internal/models"
	"github.com/emilythestrangee/campus-qa/backend/internal/reputation"
)

type AcceptResult struct {
	AcceptedAnswerID int64 `json:"answer_id"`
	QuestionID       int64 `json:"question_id"`
}

// AcceptAnswer marks answerID as the accepted answer of its question,
// demoting any previously accepted answer, and grants the author the
// acceptance bonus. Only the question's author may accept. Accepting the
// answer that is already accepted changes nothing.
func (s *Service) AcceptAnswer(ctx context.Context, requesterID, answerID int64) (result *AcceptResult, err error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "qa.accept",
		UserID:    logger.Ptr(requesterID),
		AnswerID:  logger.Ptr(answerID),
	})
	ctx, span := s.tracer.Start(ctx, "qa.AcceptAnswer", trace.WithAttributes(
		attribute.Int64("answer.id", answerID),
		attribute.Int64("requester.id", requesterID),
	))
	defer func() { endSpan(span, err) }()

	var (
		res        AcceptResult
		changed    bool
		priorID    *int64
		badgeAdded bool
		authorRep  int
	)

	err = s.withTx(ctx, func(tx *gorm.DB) error {
		ref, err := answerRef(tx, answerID)
		if err != nil {
			return err
		}
		question, err := lockQuestion(tx, ref.QuestionID)
		if err != nil {
			return err
		}
		if question.AuthorID != requesterID {
			return fmt.Errorf("%w: only the question author may accept an answer", ErrForbidden)
		}
		answer, err := lockAnswer(tx, answerID)
		if err != nil {
			return err
		}

		res = AcceptResult{AcceptedAnswerID: answer.ID, QuestionID: question.ID}

		if question.AcceptedAnswerID != nil && *question.AcceptedAnswerID == answer.ID && answer.IsAccepted {
			return nil
		}
		changed = true

		if prior := question.AcceptedAnswerID; prior != nil && *prior != answer.ID {
			priorID = prior
			err = tx.Model(&models.Answer{}).Where("id = ?", *prior).Update("is_accepted", false).Error
			if err != nil {
				return err
			}
		}

		if err := tx.Model(answer).Update("is_accepted", true).Error; err != nil {
			return err
		}
		err = tx.Model(question).Updates(map[string]any{
			"accepted_answer_id": answer.ID,
			"solved":             true,
		}).Error
		if err != nil {
			return err
		}

		author, err := lockUser(tx, answer.AuthorID)
		if err != nil {
			return err
		}
		author.Reputation += reputation.AcceptBonus
		updates := map[string]any{"reputation": author.Reputation}
		if reputation.EarnsProblemSolver(author) {
			badgeAdded = author.GrantBadge(models.BadgeProblemSolver)
			updates["badges"] = author.Badges
		}
		authorRep = author.Reputation
		return tx.Model(author).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	if changed {
		attrs := []any{
			"question_id", res.QuestionID,
			"author_reputation", authorRep,
			"badge_granted", badgeAdded,
		}
		if priorID != nil {
			attrs = append(attrs, "demoted_answer_id", *priorID)
		}
		s.logger.InfoContext(ctx, "answer accepted", attrs...)
		s.invalidate(ctx, res.QuestionID)
	}
	return &res, nil
}
