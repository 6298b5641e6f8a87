package routes

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/sirjaminwong/exam-pass-mono-sub001/handlers"
	"github.com/sirjaminwong/exam-pass-mono-sub001/middleware"
)

func AttemptRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	exams := api.Group("/exams", middleware.Protected())
	exams.Get("", handlers.StudentListExams)
	exams.Get("/:examId", handlers.StudentGetExam)
	exams.Post("/:examId/start", handlers.StartAttempt)

	attempts := api.Group("/attempts", middleware.Protected())
	attempts.Get("", handlers.ListMyAttempts)
	attempts.Post("/:attemptId/answers", handlers.SubmitAnswer)
	attempts.Post("/:attemptId/answers/batch", handlers.BatchSubmitAnswers)
	attempts.Post("/:attemptId/complete", handlers.CompleteAttempt)
	attempts.Get("/:attemptId/stats", handlers.GetAttemptStats)

	me := api.Group("/me", middleware.Protected())
	me.Get("/stats", handlers.GetMyStats)
	me.Get("/certificates", handlers.ListMyCertificates)

	api.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	api.Get("/ws/monitor", websocket.New(handlers.MonitorExam))
}
