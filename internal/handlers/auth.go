package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/emilythestrangee/campus-qa/backend/internal/middleware"
	"github.com/emilythestrangee/campus-qa/backend/internal/models"
)

type AuthHandler struct {
	db       *gorm.DB
	secret   []byte
	tokenTTL time.Duration
}

func NewAuthHandler(db *gorm.DB, secret []byte, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{db: db, secret: secret, tokenTTL: tokenTTL}
}

// userView is the public projection of a user; it never carries the
// password hash.
func userView(u *models.User) gin.H {
	badges := []string(u.Badges)
	if badges == nil {
		badges = []string{}
	}
	return gin.H{
		"id":                        u.ID,
		"username":                  u.Username,
		"email":                     u.Email,
		"college":                   u.College,
		"bio":                       u.Bio,
		"avatar":                    u.Avatar,
		"reputation":                u.Reputation,
		"role":                      u.Role,
		"answer_upvotes_received":   u.AnswerUpvotesReceived,
		"answer_downvotes_received": u.AnswerDownvotesReceived,
		"badges":                    badges,
		"created_at":                u.CreatedAt,
	}
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var input models.RegisterRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Username = strings.TrimSpace(input.Username)

	var existing models.User
	err := h.db.Where("username = ? OR email = ?", input.Username, input.Email).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Username or email already exists"})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		slog.ErrorContext(c.Request.Context(), "user lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user := models.User{
		Username: input.Username,
		Email:    input.Email,
		Password: string(hashedPassword),
		College:  input.College,
		Avatar:   input.Avatar,
	}
	if err := h.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "Username or email already exists"})
			return
		}
		slog.ErrorContext(c.Request.Context(), "user create failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	token, err := middleware.NewToken(h.secret, h.tokenTTL, user.ID, user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	slog.InfoContext(c.Request.Context(), "user registered", "user_id", user.ID)
	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"token":   token,
		"user":    userView(&user),
	})
}

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var input models.LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := h.db.Where("email = ?", email).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := middleware.NewToken(h.secret, h.tokenTTL, user.ID, user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    userView(&user),
	})
}

// GetMe returns the current authenticated user
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, userView(&user))
}
