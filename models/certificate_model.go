package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Certificate struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_exam_certificate" json:"user_id"`
	ExamID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_exam_certificate" json:"exam_id"`
	ExamTitle      string    `gorm:"size:255;not null" json:"exam_title"`
	Accuracy       float64   `gorm:"type:numeric(5,2);not null" json:"accuracy"`
	IssuedAt       time.Time `gorm:"not null" json:"issued_at"`
	CertificateURL string    `gorm:"type:text;not null" json:"certificate_url"`

	User User `gorm:"foreignkey:UserID" json:"-"`
	Exam Exam `gorm:"foreignkey:ExamID" json:"-"`
}

func (c *Certificate) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
