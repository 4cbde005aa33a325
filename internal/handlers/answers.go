package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/emilythestrangee/campus-qa/backend/internal/models"
)

type AnswerHandler struct {
	db *gorm.DB
	qa QAService
}

func NewAnswerHandler(db *gorm.DB, svc QAService) *AnswerHandler {
	return &AnswerHandler{db: db, qa: svc}
}

// answerView attaches the derived score; the stored answer carries only the
// per-sign counters.
func answerView(a *models.Answer) gin.H {
	return gin.H{
		"id":          a.ID,
		"content":     a.Content,
		"author_id":   a.AuthorID,
		"user":        authorView(&a.User),
		"question_id": a.QuestionID,
		"upvotes":     a.Upvotes,
		"downvotes":   a.Downvotes,
		"score":       a.Upvotes - a.Downvotes,
		"is_accepted": a.IsAccepted,
		"created_at":  a.CreatedAt,
		"updated_at":  a.UpdatedAt,
	}
}

// listAnswers returns a question's answers, accepted first, then by score.
func listAnswers(db *gorm.DB, questionID int64) ([]gin.H, error) {
	var answers []models.Answer
	err := db.Preload("User").
		Where("question_id = ?", questionID).
		Order("is_accepted desc").
		Order("upvotes - downvotes desc").
		Order("created_at asc").
		Find(&answers).Error
	if err != nil {
		return nil, err
	}

	out := make([]gin.H, 0, len(answers))
	for i := range answers {
		out = append(out, answerView(&answers[i]))
	}
	return out, nil
}

// CreateAnswer posts an answer to a question (PROTECTED - requires authentication)
func (h *AnswerHandler) CreateAnswer(c *gin.Context) {
	questionID, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var input models.CreateAnswerRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Content is required"})
		return
	}

	answer, err := h.qa.PostAnswer(c.Request.Context(), userID, questionID, input.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	h.db.Preload("User").First(answer, answer.ID)

	c.JSON(http.StatusCreated, answerView(answer))
}

func (h *AnswerHandler) GetAnswers(c *gin.Context) {
	questionID, ok := parseID(c, "id")
	if !ok {
		return
	}
	db := h.db.WithContext(c.Request.Context())

	var question models.Question
	if err := db.Select("id").First(&question, questionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch answers"})
		return
	}

	answers, err := listAnswers(db, questionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch answers"})
		return
	}
	c.JSON(http.StatusOK, answers)
}

// VoteAnswer records an upvote (1), downvote (-1) or retraction (0).
// Repeating the vote already held retracts it.
func (h *AnswerHandler) VoteAnswer(c *gin.Context) {
	answerID, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var input models.VoteRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Vote value is required"})
		return
	}

	result, err := h.qa.CastVote(c.Request.Context(), userID, answerID, *input.Value)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AnswerHandler) AcceptAnswer(c *gin.Context) {
	answerID, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	result, err := h.qa.AcceptAnswer(c.Request.Context(), userID, answerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AnswerHandler) DeleteAnswer(c *gin.Context) {
	answerID, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.qa.DeleteAnswer(c.Request.Context(), userID, answerID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Answer deleted successfully"})
}

// GetQuestionVotes returns the caller's votes on a question's answers,
// keyed by answer id.
func (h *AnswerHandler) GetQuestionVotes(c *gin.Context) {
	questionID, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	votes, err := h.qa.VotesForQuestion(c.Request.Context(), userID, questionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"question_id": questionID, "votes": voteMap(votes)})
}

// voteMap keys votes by decimal answer id, as JSON object keys must be strings.
func voteMap(votes map[int64]int) map[string]int {
	out := make(map[string]int, len(votes))
	for answerID, value := range votes {
		out[strconv.FormatInt(answerID, 10)] = value
	}
	return out
}
