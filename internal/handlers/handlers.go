package handlers

import (
	"context"

	"gorm.io/gorm"

	"github.com/emilythestrangee/campus-qa/backend/internal/config"
	"github.com/emilythestrangee/campus-qa/backend/internal/models"
	"github.com/emilythestrangee/campus-qa/backend/internal/qa"
)

// QAService is the consistency engine behind every route that changes votes,
// acceptance or reputation.
type QAService interface {
	PostAnswer(ctx context.Context, authorID, questionID int64, content string) (*models.Answer, error)
	CastVote(ctx context.Context, voterID, answerID int64, requested int) (*qa.VoteResult, error)
	AcceptAnswer(ctx context.Context, requesterID, answerID int64) (*qa.AcceptResult, error)
	DeleteAnswer(ctx context.Context, requesterID, answerID int64) error
	DeleteQuestion(ctx context.Context, requesterID, questionID int64) error
	VotesForQuestion(ctx context.Context, voterID, questionID int64) (map[int64]int, error)
}

// Handler combines all handler types
type Handler struct {
	Auth     *AuthHandler
	Question *QuestionHandler
	Answer   *AnswerHandler
	User     *UserHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(db *gorm.DB, svc QAService, auth config.AuthConfig) *Handler {
	return &Handler{
		Auth:     NewAuthHandler(db, []byte(auth.JWTSecret), auth.TokenTTL()),
		Question: NewQuestionHandler(db, svc),
		Answer:   NewAnswerHandler(db, svc),
		User:     NewUserHandler(db),
	}
}
