package qa

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/emilythestrangee/campus-qa/backend/internal/logger"
	"github.com/emilythestrangee/campus-qa/backend/internal/models"
	"github.com/emilythestrangee/campus-qa/backend/internal/reputation"
)

type VoteResult struct {
	// VoteValue is nil when the voter holds no vote after the operation.
	VoteValue *int           `json:"vote_value"`
	Answer    AnswerSnapshot `json:"answer"`
}

// nextValue applies toggle-off semantics: requesting 0, or re-requesting
// the value already held, clears the vote.
func nextValue(oldValue, requested int) int {
	if requested == 0 || requested == oldValue {
		return 0
	}
	return requested
}

// CastVote records voterID's requested stance on answerID and brings the
// answer's counters and the author's reputation, received counters and
// role in line with it.
func (s *Service) CastVote(ctx context.Context, voterID, answerID int64, requested int) (result *VoteResult, err error) {
	if requested < -1 || requested > 1 {
		return nil, fmt.Errorf("%w: vote value must be -1, 0 or 1, got %d", ErrInvalidInput, requested)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "qa.votes",
		UserID:    logger.Ptr(voterID),
		AnswerID:  logger.Ptr(answerID),
	})
	ctx, span := s.tracer.Start(ctx, "qa.CastVote", trace.WithAttributes(
		attribute.Int64("answer.id", answerID),
		attribute.Int64("voter.id", voterID),
		attribute.Int("vote.requested", requested),
	))
	defer func() { endSpan(span, err) }()

	var (
		res        VoteResult
		questionID int64
		oldValue   int
		effective  int
		repDelta   int
	)

	err = s.withTx(ctx, func(tx *gorm.DB) error {
		answer, err := lockAnswer(tx, answerID)
		if err != nil {
			return err
		}
		if answer.AuthorID == voterID {
			return fmt.Errorf("%w: cannot vote on own content", ErrForbidden)
		}
		questionID = answer.QuestionID

		var existing models.Vote
		found := true
		err = tx.Where("voter_id = ? AND answer_id = ?", voterID, answerID).Take(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			found = false
		case err != nil:
			return err
		default:
			oldValue = existing.Value
		}

		effective = nextValue(oldValue, requested)
		voteDiff := effective - oldValue
		if voteDiff == 0 {
			res.Answer = snapshot(answer)
			return nil
		}

		switch {
		case effective == 0:
			err = tx.Delete(&existing).Error
		case !found:
			err = tx.Create(&models.Vote{VoterID: voterID, AnswerID: answerID, Value: effective}).Error
		default:
			err = tx.Model(&existing).Update("value", effective).Error
		}
		if err != nil {
			return err
		}

		up, down, err := countAnswerVotes(tx, answerID)
		if err != nil {
			return err
		}
		answer.Upvotes, answer.Downvotes = up, down
		err = tx.Model(answer).Updates(map[string]any{
			"upvotes":   up,
			"downvotes": down,
		}).Error
		if err != nil {
			return err
		}

		repDelta = reputation.Delta(oldValue, voteDiff)
		if _, err := refreshAuthor(tx, answer.AuthorID, repDelta); err != nil {
			return err
		}

		res.Answer = snapshot(answer)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if effective != 0 {
		v := effective
		res.VoteValue = &v
	}

	if effective != oldValue {
		s.logger.InfoContext(ctx, "vote cast",
			"question_id", questionID,
			"old_value", oldValue,
			"vote_value", effective,
			"reputation_delta", repDelta,
		)
		s.invalidate(ctx, questionID)
	}
	return &res, nil
}

// VotesForQuestion returns voterID's non-zero votes on the answers of
// questionID, keyed by answer id.
func (s *Service) VotesForQuestion(ctx context.Context, voterID, questionID int64) (map[int64]int, error) {
	var votes []models.Vote
	err := s.db.WithContext(ctx).
		Joins("JOIN answers ON answers.id = votes.answer_id").
		Where("answers.question_id = ? AND votes.voter_id = ?", questionID, voterID).
		Find(&votes).Error
	if err != nil {
		return nil, classify(err)
	}

	out := make(map[int64]int, len(votes))
	for _, v := range votes {
		out[v.AnswerID] = v.Value
	}
	return out, nil
}
