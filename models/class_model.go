package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Class is the owning group an exam is assembled for. Membership is managed
// elsewhere; exams only reference it.
type Class struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`

	Exams []Exam `gorm:"foreignkey:ClassID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Class) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
