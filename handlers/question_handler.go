package handlers

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirjaminwong/exam-pass-mono-sub001/database"
	"github.com/sirjaminwong/exam-pass-mono-sub001/models"
	"gorm.io/gorm"
)

var validate = validator.New()

type QuestionRequest struct {
	Content       string                  `json:"content" validate:"required"`
	QuestionType  string                  `json:"question_type" validate:"required,oneof=single_choice multiple_choice true_false indefinite_choice"`
	Options       []models.QuestionOption `json:"options"`
	CorrectAnswer models.AnswerValue      `json:"correct_answer"`
	Score         float64                 `json:"score" validate:"gte=0"`
	ImageURL      *string                 `json:"image_url" validate:"omitempty,url"`
}

// trueFalseOptions is the fixed pair presented when a true/false question
// carries no explicit options.
var trueFalseOptions = []models.QuestionOption{
	{Key: "true", Text: "True"},
	{Key: "false", Text: "False"},
}

func buildQuestion(req QuestionRequest) (*models.Question, error) {
	question := models.Question{
		Content:       req.Content,
		QuestionType:  req.QuestionType,
		CorrectAnswer: req.CorrectAnswer,
		Score:         req.Score,
		ImageURL:      req.ImageURL,
	}

	if req.CorrectAnswer.IsZero() {
		return nil, fiber.NewError(fiber.StatusBadRequest, "correct_answer is required")
	}
	if req.CorrectAnswer.Kind != question.ExpectedAnswerKind() {
		return nil, fiber.NewError(fiber.StatusBadRequest, "correct_answer shape does not match question_type")
	}

	options := req.Options
	if req.QuestionType == models.QuestionTypeTrueFalse && len(options) == 0 {
		options = trueFalseOptions
	}
	if len(options) > 0 {
		data, err := json.Marshal(options)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "invalid options")
		}
		question.Options = data
	}

	return &question, nil
}

func CreateQuestion(c *fiber.Ctx) error {
	var req QuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	question, err := buildQuestion(req)
	if err != nil {
		return err
	}

	if err := database.DB.Create(question).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create question"})
	}

	return c.Status(fiber.StatusCreated).JSON(question)
}

type BulkQuestionRequest struct {
	Questions []QuestionRequest `json:"questions" validate:"required,min=1,dive"`
}

func BulkCreateQuestions(c *fiber.Ctx) error {
	var req BulkQuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	questions := make([]*models.Question, 0, len(req.Questions))
	for _, item := range req.Questions {
		question, err := buildQuestion(item)
		if err != nil {
			return err
		}
		questions = append(questions, question)
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&questions).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create questions"})
	}

	return c.Status(fiber.StatusCreated).JSON(questions)
}

func ListQuestions(c *fiber.Ctx) error {
	query := database.DB
	if questionType := c.Query("type"); questionType != "" {
		query = query.Where("question_type = ?", questionType)
	}

	var questions []models.Question
	query.Order("created_at desc").Find(&questions)
	return c.JSON(questions)
}

func GetQuestion(c *fiber.Ctx) error {
	questionID := c.Params("questionId")
	var question models.Question
	if err := database.DB.First(&question, "id = ?", questionID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Question not found"})
	}
	return c.JSON(question)
}

func UpdateQuestion(c *fiber.Ctx) error {
	questionID := c.Params("questionId")
	var question models.Question
	if err := database.DB.First(&question, "id = ?", questionID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Question not found"})
	}

	var req QuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	updated, err := buildQuestion(req)
	if err != nil {
		return err
	}

	question.Content = updated.Content
	question.QuestionType = updated.QuestionType
	question.Options = updated.Options
	question.CorrectAnswer = updated.CorrectAnswer
	question.Score = updated.Score
	question.ImageURL = updated.ImageURL
	database.DB.Save(&question)

	return c.JSON(question)
}

func DeleteQuestion(c *fiber.Ctx) error {
	questionID := c.Params("questionId")
	result := database.DB.Delete(&models.Question{}, "id = ?", questionID)

	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete question"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Question not found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
