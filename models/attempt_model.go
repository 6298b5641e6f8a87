package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ExamAttempt struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	ExamID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"exam_id"`
	StartedAt   time.Time  `gorm:"not null" json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	IsCompleted bool       `gorm:"not null;default:false" json:"is_completed"`
	TotalScore  float64    `gorm:"type:numeric(8,2);not null;default:0" json:"total_score"`
	MaxScore    float64    `gorm:"type:numeric(8,2);not null;default:0" json:"max_score"`
	Accuracy    float64    `gorm:"type:numeric(5,2);not null;default:0" json:"accuracy"`

	User    User     `gorm:"foreignkey:UserID" json:"-"`
	Exam    Exam     `gorm:"foreignkey:ExamID" json:"-"`
	Answers []Answer `gorm:"foreignkey:AttemptID" json:"answers,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *ExamAttempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Answer holds at most one row per (attempt, question); resubmissions overwrite it.
type Answer struct {
	ID         uuid.UUID   `gorm:"type:uuid;primary_key" json:"id"`
	AttemptID  uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_attempt_question" json:"attempt_id"`
	QuestionID uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_attempt_question" json:"question_id"`
	UserAnswer AnswerValue `gorm:"type:jsonb;not null" json:"user_answer"`
	IsCorrect  bool        `gorm:"not null" json:"is_correct"`
	Score      float64     `gorm:"type:numeric(6,2);not null;default:0" json:"score"`
	AnsweredAt time.Time   `gorm:"not null" json:"answered_at"`

	Attempt  ExamAttempt `gorm:"foreignkey:AttemptID" json:"-"`
	Question Question    `gorm:"foreignkey:QuestionID" json:"-"`
}

func (a *Answer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
