package models

import (
	"slices"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/emilythestrangee/campus-qa/backend/internal/id"
)

// Role is derived from AnswerUpvotesReceived and never set directly.
type Role string

const (
	RoleNewbie       Role = "Newbie"
	RoleIntermediate Role = "Intermediate"
	RoleExpert       Role = "Expert"
	RoleMaster       Role = "Master"
)

type Badge string

const (
	BadgeProblemSolver Badge = "Problem Solver"
)

type User struct {
	ID       int64  `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Username string `gorm:"unique;not null" json:"username"`
	Email    string `gorm:"unique;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	College  string `json:"college"`
	Bio      string `json:"bio"`
	Avatar   string `json:"avatar"`

	Reputation              int            `gorm:"not null;default:0;check:chk_users_reputation,reputation >= 0" json:"reputation"`
	Role                    Role           `gorm:"type:varchar(20);not null;default:Newbie" json:"role"`
	AnswerUpvotesReceived   int            `gorm:"not null;default:0" json:"answer_upvotes_received"`
	AnswerDownvotesReceived int            `gorm:"not null;default:0" json:"answer_downvotes_received"`
	Badges                  pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"badges"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == 0 {
		u.ID = id.New()
	}
	if u.Role == "" {
		u.Role = RoleNewbie
	}
	if u.Badges == nil {
		u.Badges = pq.StringArray{}
	}
	return nil
}

func (u *User) HasBadge(b Badge) bool {
	return slices.Contains(u.Badges, string(b))
}

// GrantBadge adds b to the badge set and reports whether it was newly added.
func (u *User) GrantBadge(b Badge) bool {
	if u.HasBadge(b) {
		return false
	}
	u.Badges = append(u.Badges, string(b))
	return true
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	College  string `json:"college"`
	Avatar   string `json:"avatar"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}
