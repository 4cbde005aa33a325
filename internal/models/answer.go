package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/emilythestrangee/campus-qa/backend/internal/id"
)

type Answer struct {
	ID         int64  `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Content    string `gorm:"type:text;not null" json:"content"`
	AuthorID   int64  `gorm:"index;not null" json:"author_id"`
	User       User   `gorm:"foreignKey:AuthorID" json:"user"`
	QuestionID int64  `gorm:"index;not null" json:"question_id"`

	// Upvotes and Downvotes mirror the live count of votes rows per sign and
	// are only written inside a qa transaction holding this row's lock.
	Upvotes    int  `gorm:"not null;default:0" json:"upvotes"`
	Downvotes  int  `gorm:"not null;default:0" json:"downvotes"`
	IsAccepted bool `gorm:"not null;default:false" json:"is_accepted"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Answer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == 0 {
		a.ID = id.New()
	}
	return nil
}

type CreateAnswerRequest struct {
	Content string `json:"content" binding:"required"`
}
