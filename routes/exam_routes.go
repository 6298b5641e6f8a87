package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirjaminwong/exam-pass-mono-sub001/handlers"
	"github.com/sirjaminwong/exam-pass-mono-sub001/middleware"
)

func ExamRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", middleware.Protected(), middleware.AdminRequired())

	questions := admin.Group("/questions")
	questions.Post("", handlers.CreateQuestion)
	questions.Post("/bulk", handlers.BulkCreateQuestions)
	questions.Get("", handlers.ListQuestions)
	questions.Get("/:questionId", handlers.GetQuestion)
	questions.Put("/:questionId", handlers.UpdateQuestion)
	questions.Delete("/:questionId", handlers.DeleteQuestion)

	exams := admin.Group("/exams")
	exams.Post("", handlers.CreateExam)
	exams.Get("", handlers.ListExams)
	exams.Get("/:examId", handlers.GetExam)
	exams.Put("/:examId", handlers.UpdateExam)
	exams.Patch("/:examId/activation", handlers.SetExamActivation)
	exams.Delete("/:examId", handlers.DeleteExam)

	admin.Get("/uploads/signature", handlers.GenerateUploadSignature)
}
