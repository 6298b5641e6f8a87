package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Exam struct {
	ID              uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	Title           string     `gorm:"size:255;not null" json:"title"`
	Description     string     `gorm:"type:text" json:"description"`
	ClassID         *uuid.UUID `gorm:"type:uuid;index" json:"class_id"`
	IsActive        bool       `gorm:"not null;default:true" json:"is_active"`
	DurationMinutes int        `gorm:"not null;default:0" json:"duration_minutes"`

	ExamQuestions []ExamQuestion `gorm:"foreignkey:ExamID" json:"exam_questions,omitempty"`
	Attempts      []ExamAttempt  `gorm:"foreignkey:ExamID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e *Exam) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// ExamQuestion places a bank question inside an exam at a position, optionally
// overriding the question's base score for this exam only.
type ExamQuestion struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ExamID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_exam_question" json:"exam_id"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_exam_question" json:"question_id"`
	Order      int       `gorm:"column:question_order;not null" json:"order"`
	Score      *float64  `gorm:"type:numeric(6,2)" json:"score,omitempty"`

	Question Question `gorm:"foreignkey:QuestionID" json:"question,omitempty"`
}

func (eq *ExamQuestion) BeforeCreate(tx *gorm.DB) error {
	if eq.ID == uuid.Nil {
		eq.ID = uuid.New()
	}
	return nil
}

// EffectiveScore is the points this question is worth within its exam.
func (eq *ExamQuestion) EffectiveScore() float64 {
	if eq.Score != nil {
		return *eq.Score
	}
	return eq.Question.Score
}
