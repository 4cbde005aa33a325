package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/emilythestrangee/campus-qa/backend/internal/id"
)

// Vote tracks one user's stance on one answer. A zero stance is never
// stored; it is represented by the absence of a row.
type Vote struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	VoterID   int64     `gorm:"not null;uniqueIndex:idx_votes_voter_answer,priority:1" json:"voter_id"`
	AnswerID  int64     `gorm:"not null;index;uniqueIndex:idx_votes_voter_answer,priority:2" json:"answer_id"`
	Value     int       `gorm:"not null;check:chk_votes_value,value IN (-1, 1)" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (v *Vote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == 0 {
		v.ID = id.New()
	}
	return nil
}

type VoteRequest struct {
	Value *int `json:"value" binding:"required"`
}
