package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirjaminwong/exam-pass-mono-sub001/database"
	"github.com/sirjaminwong/exam-pass-mono-sub001/models"
	"gorm.io/gorm"
)

type ExamQuestionItem struct {
	QuestionID string   `json:"question_id" validate:"required,uuid"`
	Order      int      `json:"order" validate:"required,gt=0"`
	Score      *float64 `json:"score" validate:"omitempty,gte=0"`
}

type ExamRequest struct {
	Title           string             `json:"title" validate:"required"`
	Description     string             `json:"description"`
	ClassID         *string            `json:"class_id" validate:"omitempty,uuid"`
	IsActive        *bool              `json:"is_active"`
	DurationMinutes int                `json:"duration_minutes" validate:"gte=0"`
	Questions       []ExamQuestionItem `json:"questions" validate:"omitempty,dive"`
}

// buildExamQuestions resolves request items into join rows, verifying every
// referenced question exists.
func buildExamQuestions(tx *gorm.DB, examID uuid.UUID, items []ExamQuestionItem) ([]models.ExamQuestion, error) {
	if len(items) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		id, err := uuid.Parse(item.QuestionID)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid question ID: "+item.QuestionID)
		}
		ids = append(ids, id)
	}

	var count int64
	if err := tx.Model(&models.Question{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return nil, err
	}
	if count != int64(len(ids)) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "One or more provided question IDs are invalid")
	}

	rows := make([]models.ExamQuestion, 0, len(items))
	for i, item := range items {
		rows = append(rows, models.ExamQuestion{
			ExamID:     examID,
			QuestionID: ids[i],
			Order:      item.Order,
			Score:      item.Score,
		})
	}
	return rows, nil
}

func CreateExam(c *fiber.Ctx) error {
	var req ExamRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	exam := models.Exam{
		Title:           req.Title,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		IsActive:        true,
	}
	if req.IsActive != nil {
		exam.IsActive = *req.IsActive
	}
	if req.ClassID != nil {
		classID, _ := uuid.Parse(*req.ClassID)
		exam.ClassID = &classID
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&exam).Error; err != nil {
			return err
		}
		rows, err := buildExamQuestions(tx, exam.ID, req.Questions)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create exam"})
	}

	return c.Status(fiber.StatusCreated).JSON(exam)
}

func ListExams(c *fiber.Ctx) error {
	var exams []models.Exam
	database.DB.Order("created_at desc").Find(&exams)
	return c.JSON(exams)
}

func GetExam(c *fiber.Ctx) error {
	examID := c.Params("examId")
	var exam models.Exam
	err := database.DB.
		Preload("ExamQuestions", func(db *gorm.DB) *gorm.DB {
			return db.Order("exam_questions.question_order asc")
		}).
		Preload("ExamQuestions.Question").
		First(&exam, "id = ?", examID).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Exam not found"})
	}
	return c.JSON(exam)
}

func UpdateExam(c *fiber.Ctx) error {
	examID := c.Params("examId")
	var exam models.Exam
	if err := database.DB.First(&exam, "id = ?", examID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Exam not found"})
	}

	var req ExamRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	exam.Title = req.Title
	exam.Description = req.Description
	exam.DurationMinutes = req.DurationMinutes
	if req.IsActive != nil {
		exam.IsActive = *req.IsActive
	}
	if req.ClassID != nil {
		classID, _ := uuid.Parse(*req.ClassID)
		exam.ClassID = &classID
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&exam).Error; err != nil {
			return err
		}
		if req.Questions == nil {
			return nil
		}
		// Replace semantics: the request's question list becomes the exam's.
		if err := tx.Where("exam_id = ?", exam.ID).Delete(&models.ExamQuestion{}).Error; err != nil {
			return err
		}
		rows, err := buildExamQuestions(tx, exam.ID, req.Questions)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update exam"})
	}

	return c.JSON(exam)
}

func DeleteExam(c *fiber.Ctx) error {
	examID := c.Params("examId")

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var exam models.Exam
		if err := tx.First(&exam, "id = ?", examID).Error; err != nil {
			return err
		}
		if err := tx.Where("exam_id = ?", exam.ID).Delete(&models.ExamQuestion{}).Error; err != nil {
			return err
		}
		return tx.Delete(&exam).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete exam"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

type ExamActivationRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

func SetExamActivation(c *fiber.Ctx) error {
	examID := c.Params("examId")
	var exam models.Exam
	if err := database.DB.First(&exam, "id = ?", examID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Exam not found"})
	}

	var req ExamActivationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	exam.IsActive = *req.IsActive
	database.DB.Save(&exam)

	return c.JSON(exam)
}

// QuestionForStudent is the answer-free projection served to exam takers.
type QuestionForStudent struct {
	ID           uuid.UUID               `json:"id"`
	Content      string                  `json:"content"`
	QuestionType string                  `json:"question_type"`
	Options      []models.QuestionOption `json:"options"`
	Score        float64                 `json:"score"`
	Order        int                     `json:"order"`
	ImageURL     *string                 `json:"image_url,omitempty"`
}

func questionsForStudent(examQuestions []models.ExamQuestion) []QuestionForStudent {
	out := make([]QuestionForStudent, 0, len(examQuestions))
	for i := range examQuestions {
		eq := &examQuestions[i]
		view := QuestionForStudent{
			ID:           eq.Question.ID,
			Content:      eq.Question.Content,
			QuestionType: eq.Question.QuestionType,
			Score:        eq.EffectiveScore(),
			Order:        eq.Order,
			ImageURL:     eq.Question.ImageURL,
		}
		if len(eq.Question.Options) > 0 {
			_ = json.Unmarshal(eq.Question.Options, &view.Options)
		}
		out = append(out, view)
	}
	return out
}

func StudentListExams(c *fiber.Ctx) error {
	var exams []models.Exam
	database.DB.
		Select("id", "title", "description", "class_id", "duration_minutes", "created_at").
		Where("is_active = ?", true).
		Order("created_at desc").
		Find(&exams)
	return c.JSON(exams)
}

func StudentGetExam(c *fiber.Ctx) error {
	examID := c.Params("examId")
	var exam models.Exam
	err := database.DB.
		Preload("ExamQuestions", func(db *gorm.DB) *gorm.DB {
			return db.Order("exam_questions.question_order asc")
		}).
		Preload("ExamQuestions.Question").
		First(&exam, "id = ? AND is_active = ?", examID, true).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Exam not found"})
	}

	return c.JSON(fiber.Map{
		"id":               exam.ID,
		"title":            exam.Title,
		"description":      exam.Description,
		"duration_minutes": exam.DurationMinutes,
		"questions":        questionsForStudent(exam.ExamQuestions),
	})
}
