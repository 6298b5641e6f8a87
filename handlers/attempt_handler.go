package handlers

import (
	"errors"
	"log"

	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	config "github.com/sirjaminwong/exam-pass-mono-sub001/configs"
	"github.com/sirjaminwong/exam-pass-mono-sub001/database"
	"github.com/sirjaminwong/exam-pass-mono-sub001/models"
	"github.com/sirjaminwong/exam-pass-mono-sub001/services"
	"github.com/sirjaminwong/exam-pass-mono-sub001/websocket"
	"gorm.io/gorm"
)

func currentUserID(c *fiber.Ctx) uuid.UUID {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	userID, _ := uuid.Parse(claims["user_id"].(string))
	return userID
}

// serviceError maps attempt lifecycle errors onto HTTP statuses.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrExamNotFound),
		errors.Is(err, services.ErrQuestionNotFound),
		errors.Is(err, services.ErrAttemptNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrAttemptCompleted),
		errors.Is(err, services.ErrAnswerShape):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	log.Printf("[ERROR] attempt operation failed: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}

// ownedAttempt loads an attempt and verifies it belongs to the caller.
func ownedAttempt(c *fiber.Ctx) (*models.ExamAttempt, error) {
	attemptID := c.Params("attemptId")
	var attempt models.ExamAttempt
	err := database.DB.First(&attempt, "id = ? AND user_id = ?", attemptID, currentUserID(c)).Error
	if err != nil {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Exam attempt not found"})
	}
	return &attempt, nil
}

func StartAttempt(c *fiber.Ctx) error {
	examID, err := uuid.Parse(c.Params("examId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid exam ID"})
	}

	attempt, err := services.StartExam(currentUserID(c), examID)
	if err != nil {
		return serviceError(c, err)
	}

	var exam models.Exam
	if err := database.DB.
		Preload("ExamQuestions", func(db *gorm.DB) *gorm.DB {
			return db.Order("exam_questions.question_order asc")
		}).
		Preload("ExamQuestions.Question").
		First(&exam, "id = ?", examID).Error; err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"attempt":          attempt,
		"exam_title":       exam.Title,
		"duration_minutes": exam.DurationMinutes,
		"questions":        questionsForStudent(exam.ExamQuestions),
	})
}

type SubmitAnswerRequest struct {
	QuestionID string             `json:"question_id" validate:"required,uuid"`
	UserAnswer models.AnswerValue `json:"user_answer"`
}

func SubmitAnswer(c *fiber.Ctx) error {
	attempt, err := ownedAttempt(c)
	if attempt == nil {
		return err
	}

	var req SubmitAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if req.UserAnswer.IsZero() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_answer is required"})
	}

	questionID, _ := uuid.Parse(req.QuestionID)
	answer, err := services.SubmitAnswer(attempt.ID, questionID, req.UserAnswer)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(answer)
}

type BatchSubmitRequest struct {
	Answers []SubmitAnswerRequest `json:"answers" validate:"required,min=1,dive"`
}

func BatchSubmitAnswers(c *fiber.Ctx) error {
	attempt, err := ownedAttempt(c)
	if attempt == nil {
		return err
	}

	var req BatchSubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	submissions := make([]services.AnswerSubmission, 0, len(req.Answers))
	for _, item := range req.Answers {
		if item.UserAnswer.IsZero() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_answer is required for every entry"})
		}
		questionID, parseErr := uuid.Parse(item.QuestionID)
		if parseErr != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid question ID: " + item.QuestionID})
		}
		submissions = append(submissions, services.AnswerSubmission{
			QuestionID: questionID,
			UserAnswer: item.UserAnswer,
		})
	}

	answers, err := services.BatchSubmitAnswers(attempt.ID, submissions)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{"answers": answers})
}

func CompleteAttempt(c *fiber.Ctx) error {
	attempt, err := ownedAttempt(c)
	if attempt == nil {
		return err
	}

	completed, err := services.CompleteAttempt(attempt.ID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(completed)
}

func GetAttemptStats(c *fiber.Ctx) error {
	attempt, err := ownedAttempt(c)
	if attempt == nil {
		return err
	}

	stats, err := services.GetAttemptStats(attempt.ID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(stats)
}

func GetMyStats(c *fiber.Ctx) error {
	stats, err := services.GetUserStats(currentUserID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(stats)
}

func ListMyAttempts(c *fiber.Ctx) error {
	var attempts []models.ExamAttempt
	err := database.DB.
		Where("user_id = ?", currentUserID(c)).
		Order("started_at desc").
		Find(&attempts).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch attempts"})
	}
	return c.JSON(attempts)
}

func ListMyCertificates(c *fiber.Ctx) error {
	var certificates []models.Certificate
	err := database.DB.
		Where("user_id = ?", currentUserID(c)).
		Order("issued_at desc").
		Find(&certificates).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch certificates"})
	}
	return c.JSON(certificates)
}

func parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(config.Config("JWT_SECRET")), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// MonitorExam upgrades an admin connection into the per-exam monitor hub.
// The client authenticates with {"type":"auth","token":...,"exam_id":...}.
func MonitorExam(c *websocketcontrib.Conn) {
	type AuthMessage struct {
		Type   string `json:"type"`
		Token  string `json:"token"`
		ExamID string `json:"exam_id"`
	}
	var authMsg AuthMessage
	if err := c.ReadJSON(&authMsg); err != nil || authMsg.Type != "auth" {
		_ = c.WriteJSON(fiber.Map{"error": "Invalid or missing auth message"})
		c.Close()
		return
	}

	claims, err := parseToken(authMsg.Token)
	if err != nil {
		_ = c.WriteJSON(fiber.Map{"error": "Invalid token"})
		c.Close()
		return
	}
	if role, _ := claims["role"].(string); role != "admin" {
		_ = c.WriteJSON(fiber.Map{"error": "Admin access required"})
		c.Close()
		return
	}

	examID, err := uuid.Parse(authMsg.ExamID)
	if err != nil {
		_ = c.WriteJSON(fiber.Map{"error": "Invalid exam ID"})
		c.Close()
		return
	}

	client := &websocket.Client{ExamID: examID, Conn: c}
	websocket.Register <- client
	defer func() {
		websocket.Unregister <- client
		c.Close()
	}()

	// Hold the connection open; monitor clients only receive.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if !websocketcontrib.IsCloseError(err, websocketcontrib.CloseGoingAway, websocketcontrib.CloseAbnormalClosure) {
				log.Printf("Monitor read error for exam %s: %v", examID, err)
			}
			break
		}
	}
}
