package handlers_test

import (
	"context"

	"github.com/emilythestrangee/campus-qa/backend/internal/models"
	"github.com/emilythestrangee/campus-qa/backend/internal/qa"
)

type mockQAService struct {
	postAnswerFn     func(ctx context.Context, authorID, questionID int64, content string) (*models.Answer, error)
	castVoteFn       func(ctx context.Context, voterID, answerID int64, requested int) (*qa.VoteResult, error)
	acceptAnswerFn   func(ctx context.Context, requesterID, answerID int64) (*qa.AcceptResult, error)
	deleteAnswerFn   func(ctx context.Context, requesterID, answerID int64) error
	deleteQuestionFn func(ctx context.Context, requesterID, questionID int64) error
	votesFn          func(ctx context.Context, voterID, questionID int64) (map[int64]int, error)
}

func (m *mockQAService) PostAnswer(ctx context.Context, authorID, questionID int64, content string) (*models.Answer, error) {
	if m.postAnswerFn != nil {
		return m.postAnswerFn(ctx, authorID, questionID, content)
	}
	return nil, nil
}

func (m *mockQAService) CastVote(ctx context.Context, voterID, answerID int64, requested int) (*qa.VoteResult, error) {
	if m.castVoteFn != nil {
		return m.castVoteFn(ctx, voterID, answerID, requested)
	}
	return nil, nil
}

func (m *mockQAService) AcceptAnswer(ctx context.Context, requesterID, answerID int64) (*qa.AcceptResult, error) {
	if m.acceptAnswerFn != nil {
		return m.acceptAnswerFn(ctx, requesterID, answerID)
	}
	return nil, nil
}

func (m *mockQAService) DeleteAnswer(ctx context.Context, requesterID, answerID int64) error {
	if m.deleteAnswerFn != nil {
		return m.deleteAnswerFn(ctx, requesterID, answerID)
	}
	return nil
}

func (m *mockQAService) DeleteQuestion(ctx context.Context, requesterID, questionID int64) error {
	if m.deleteQuestionFn != nil {
		return m.deleteQuestionFn(ctx, requesterID, questionID)
	}
	return nil
}

func (m *mockQAService) VotesForQuestion(ctx context.Context, voterID, questionID int64) (map[int64]int, error) {
	if m.votesFn != nil {
		return m.votesFn(ctx, voterID, questionID)
	}
	return nil, nil
}
