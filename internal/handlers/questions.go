package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/emilythestrangee/campus-qa/backend/internal/middleware"
	"github.com/emilythestrangee/campus-qa/backend/internal/models"
)

type QuestionHandler struct {
	db *gorm.DB
	qa QAService
}

func NewQuestionHandler(db *gorm.DB, svc QAService) *QuestionHandler {
	return &QuestionHandler{db: db, qa: svc}
}

// normalizeTags trims, lowercases and de-duplicates tags, keeping the
// first-seen order.
func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func questionView(q *models.Question) gin.H {
	tags := []string(q.Tags)
	if tags == nil {
		tags = []string{}
	}
	return gin.H{
		"id":                 q.ID,
		"title":              q.Title,
		"content":            q.Content,
		"tags":               tags,
		"category":           q.Category,
		"author_id":          q.AuthorID,
		"user":               authorView(&q.User),
		"views":              q.Views,
		"solved":             q.Solved,
		"accepted_answer_id": q.AcceptedAnswerID,
		"created_at":         q.CreatedAt,
		"updated_at":         q.UpdatedAt,
	}
}

func authorView(u *models.User) gin.H {
	return gin.H{
		"id":         u.ID,
		"username":   u.Username,
		"avatar":     u.Avatar,
		"reputation": u.Reputation,
		"role":       u.Role,
	}
}

// CreateQuestion creates a new question (PROTECTED - requires authentication)
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var input models.CreateQuestionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tags := normalizeTags(input.Tags)
	if len(tags) < models.MinQuestionTags || len(tags) > models.MaxQuestionTags {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A question needs between 1 and 5 distinct tags"})
		return
	}

	question := models.Question{
		Title:    strings.TrimSpace(input.Title),
		Content:  input.Content,
		Tags:     pq.StringArray(tags),
		Category: strings.TrimSpace(input.Category),
		AuthorID: userID,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&question).Error; err != nil {
		slog.ErrorContext(c.Request.Context(), "question create failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create question"})
		return
	}
	h.db.Preload("User").First(&question, question.ID)

	c.JSON(http.StatusCreated, questionView(&question))
}

// GetQuestions lists questions newest first, optionally filtered by category.
func (h *QuestionHandler) GetQuestions(c *gin.Context) {
	query := h.db.WithContext(c.Request.Context()).Preload("User").Order("created_at desc")
	if category := strings.TrimSpace(c.Query("category")); category != "" {
		query = query.Where("category = ?", category)
	}

	var questions []models.Question
	if err := query.Find(&questions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch questions"})
		return
	}

	responses := make([]gin.H, 0, len(questions))
	for i := range questions {
		responses = append(responses, questionView(&questions[i]))
	}
	c.JSON(http.StatusOK, responses)
}

// GetQuestion returns a question with its answers and counts one view.
// Signed-in callers also get their own votes on those answers.
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	questionID, ok := parseID(c, "id")
	if !ok {
		return
	}
	db := h.db.WithContext(c.Request.Context())

	res := db.Model(&models.Question{}).Where("id = ?", questionID).
		UpdateColumn("views", gorm.Expr("views + 1"))
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch question"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	var question models.Question
	if err := db.Preload("User").First(&question, questionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch question"})
		return
	}

	answers, err := listAnswers(db, questionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch answers"})
		return
	}

	resp := questionView(&question)
	resp["answers"] = answers
	if userID, ok := middleware.UserID(c); ok {
		votes, err := h.qa.VotesForQuestion(c.Request.Context(), userID, questionID)
		if err != nil {
			respondError(c, err)
			return
		}
		resp["my_votes"] = voteMap(votes)
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteQuestion removes a question with its answers and votes.
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	questionID, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.qa.DeleteQuestion(c.Request.Context(), userID, questionID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Question deleted successfully"})
}
