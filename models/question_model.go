package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	QuestionTypeSingleChoice     = "single_choice"
	QuestionTypeMultipleChoice   = "multiple_choice"
	QuestionTypeTrueFalse        = "true_false"
	QuestionTypeIndefiniteChoice = "indefinite_choice"
)

// QuestionOption is one entry of a question's ordered option list.
type QuestionOption struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

type Question struct {
	ID            uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Content       string         `gorm:"type:text;not null" json:"content"`
	QuestionType  string         `gorm:"size:50;not null;default:'single_choice'" json:"question_type"`
	Options       datatypes.JSON `gorm:"type:jsonb" json:"options"`
	CorrectAnswer AnswerValue    `gorm:"type:jsonb;not null" json:"correct_answer"`
	Score         float64        `gorm:"type:numeric(6,2);not null;default:1" json:"score"`
	ImageURL      *string        `gorm:"size:255" json:"image_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns the ID client-side so inserts work on any dialect;
// the Postgres column default only covers out-of-band inserts.
func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// ExpectedAnswerKind maps the declared question type to the answer shape it accepts.
func (q *Question) ExpectedAnswerKind() AnswerKind {
	switch q.QuestionType {
	case QuestionTypeMultipleChoice, QuestionTypeIndefiniteChoice:
		return AnswerKindMulti
	case QuestionTypeTrueFalse:
		return AnswerKindBool
	default:
		return AnswerKindSingle
	}
}
