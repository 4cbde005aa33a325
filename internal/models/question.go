package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/emilythestrangee/campus-qa/backend/internal/id"
)

const (
	MinQuestionTags = 1
	MaxQuestionTags = 5
)

type Question struct {
	ID       int64          `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Title    string         `gorm:"not null" json:"title"`
	Content  string         `gorm:"type:text;not null" json:"content"`
	Tags     pq.StringArray `gorm:"type:text[];not null" json:"tags"`
	Category string         `gorm:"index;not null" json:"category"`
	AuthorID int64          `gorm:"index;not null" json:"author_id"`
	User     User           `gorm:"foreignKey:AuthorID" json:"user"`
	Views    int            `gorm:"not null;default:0" json:"views"`

	// Solved is true iff AcceptedAnswerID is set. Both are written only by
	// the acceptance and deletion paths in package qa.
	Solved           bool   `gorm:"not null;default:false" json:"solved"`
	AcceptedAnswerID *int64 `json:"accepted_answer_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == 0 {
		q.ID = id.New()
	}
	return nil
}

type CreateQuestionRequest struct {
	Title    string   `json:"title" binding:"required"`
	Content  string   `json:"content" binding:"required"`
	Tags     []string `json:"tags" binding:"required,min=1,max=5,dive,required"`
	Category string   `json:"category" binding:"required"`
}
