package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/emilythestrangee/campus-qa/backend/internal/models"
)

type UserHandler struct {
	db *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

// GetUserProfile returns a user's profile with reputation, role and badges
func (h *UserHandler) GetUserProfile(c *gin.Context) {
	userID, ok := parseID(c, "id")
	if !ok {
		return
	}
	db := h.db.WithContext(c.Request.Context())

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}

	var questionCount, answerCount, acceptedCount int64
	db.Model(&models.Question{}).Where("author_id = ?", userID).Count(&questionCount)
	db.Model(&models.Answer{}).Where("author_id = ?", userID).Count(&answerCount)
	db.Model(&models.Answer{}).Where("author_id = ? AND is_accepted", userID).Count(&acceptedCount)

	profile := userView(&user)
	delete(profile, "email")
	c.JSON(http.StatusOK, gin.H{
		"user":           profile,
		"question_count": questionCount,
		"answer_count":   answerCount,
		"accepted_count": acceptedCount,
	})
}

// GetUserAnswers lists a user's answers, newest first.
func (h *UserHandler) GetUserAnswers(c *gin.Context) {
	userID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var answers []models.Answer
	err := h.db.WithContext(c.Request.Context()).
		Preload("User").
		Where("author_id = ?", userID).
		Order("created_at desc").
		Find(&answers).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch answers"})
		return
	}

	out := make([]gin.H, 0, len(answers))
	for i := range answers {
		out = append(out, answerView(&answers[i]))
	}
	c.JSON(http.StatusOK, out)
}

// UpdateUserProfile edits the caller's own bio, avatar and college.
// Reputation, role and badges are never writable here.
func (h *UserHandler) UpdateUserProfile(c *gin.Context) {
	userID, ok := parseID(c, "id")
	if !ok {
		return
	}
	authUserID, ok := currentUser(c)
	if !ok {
		return
	}
	if authUserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only update your own profile"})
		return
	}

	var input struct {
		Bio     *string `json:"bio"`
		Avatar  *string `json:"avatar"`
		College *string `json:"college"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]any{}
	if input.Bio != nil {
		updates["bio"] = *input.Bio
	}
	if input.Avatar != nil {
		updates["avatar"] = *input.Avatar
	}
	if input.College != nil {
		updates["college"] = *input.College
	}

	db := h.db.WithContext(c.Request.Context())
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if len(updates) > 0 {
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
			return
		}
	}
	c.JSON(http.StatusOK, userView(&user))
}
