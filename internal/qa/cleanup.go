package qa

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/campus-qa/backend/internal/logger"
	"github.com/emilythestrangee/campus-qa/backend/internal/models"
)

// DeleteAnswer removes an answer and every vote on it, clears the parent
// question's acceptance if it pointed here, and recomputes the author's
// received counters and role. Only the answer's author may delete it.
func (s *Service) DeleteAnswer(ctx context.Context, requesterID, answerID int64) (err error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "qa.cleanup",
		UserID:    logger.Ptr(requesterID),
		AnswerID:  logger.Ptr(answerID),
	})
	ctx, span := s.tracer.Start(ctx, "qa.DeleteAnswer", trace.WithAttributes(
		attribute.Int64("answer.id", answerID),
	))
	defer func() { endSpan(span, err) }()

	var (
		questionID   int64
		wasAccepted  bool
		votesRemoved int64
	)

	err = s.withTx(ctx, func(tx *gorm.DB) error {
		ref, err := answerRef(tx, answerID)
		if err != nil {
			return err
		}
		if ref.AuthorID != requesterID {
			return fmt.Errorf("%w: you can only delete your own answers", ErrForbidden)
		}
		questionID = ref.QuestionID

		question, err := lockQuestion(tx, ref.QuestionID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		answer, err := lockAnswer(tx, answerID)
		if err != nil {
			return err
		}

		del := tx.Where("answer_id = ?", answer.ID).Delete(&models.Vote{})
		if del.Error != nil {
			return del.Error
		}
		votesRemoved = del.RowsAffected

		if err := tx.Delete(answer).Error; err != nil {
			return err
		}

		if question != nil && question.AcceptedAnswerID != nil && *question.AcceptedAnswerID == answer.ID {
			wasAccepted = true
			err = tx.Model(question).Updates(map[string]any{
				"accepted_answer_id": nil,
				"solved":             false,
			}).Error
			if err != nil {
				return err
			}
		}

		_, err = refreshAuthor(tx, answer.AuthorID, 0)
		return err
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "answer deleted",
		"question_id", questionID,
		"votes_removed", votesRemoved,
		"was_accepted", wasAccepted,
	)
	s.invalidate(ctx, questionID)
	return nil
}

// DeleteQuestion removes a question with all of its answers and their votes
// and recomputes every affected author. Only the question's author may
// delete it.
func (s *Service) DeleteQuestion(ctx context.Context, requesterID, questionID int64) (err error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component:  "qa.cleanup",
		UserID:     logger.Ptr(requesterID),
		QuestionID: logger.Ptr(questionID),
	})
	ctx, span := s.tracer.Start(ctx, "qa.DeleteQuestion", trace.WithAttributes(
		attribute.Int64("question.id", questionID),
	))
	defer func() { endSpan(span, err) }()

	var answersRemoved int

	err = s.withTx(ctx, func(tx *gorm.DB) error {
		question, err := lockQuestion(tx, questionID)
		if err != nil {
			return err
		}
		if question.AuthorID != requesterID {
			return fmt.Errorf("%w: you can only delete your own questions", ErrForbidden)
		}

		var answers []models.Answer
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("question_id = ?", questionID).
			Order("id").
			Find(&answers).Error
		if err != nil {
			return err
		}
		answersRemoved = len(answers)

		answerIDs := make([]int64, 0, len(answers))
		authorIDs := make([]int64, 0, len(answers))
		for _, a := range answers {
			answerIDs = append(answerIDs, a.ID)
			authorIDs = append(authorIDs, a.AuthorID)
		}

		if len(answerIDs) > 0 {
			if err := tx.Where("answer_id IN ?", answerIDs).Delete(&models.Vote{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", answerIDs).Delete(&models.Answer{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Delete(question).Error; err != nil {
			return err
		}

		// Ascending order keeps user locks deadlock-free across
		// concurrent multi-author cleanups.
		slices.Sort(authorIDs)
		for _, authorID := range slices.Compact(authorIDs) {
			if _, err := refreshAuthor(tx, authorID, 0); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "question deleted", "answers_removed", answersRemoved)
	s.invalidate(ctx, questionID)
	return nil
}
