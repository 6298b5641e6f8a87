package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/sirjaminwong/exam-pass-mono-sub001/database"
	"github.com/sirjaminwong/exam-pass-mono-sub001/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Class{},
		&models.Question{},
		&models.Exam{},
		&models.ExamQuestion{},
		&models.ExamAttempt{},
		&models.Answer{},
		&models.Certificate{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	prev := database.DB
	database.DB = db
	prevHook := certificateHook
	certificateHook = func(models.ExamAttempt) {}
	t.Cleanup(func() {
		database.DB = prev
		certificateHook = prevHook
	})

	return db
}

func seedQuestion(t *testing.T, db *gorm.DB, questionType string, correct models.AnswerValue, score float64) models.Question {
	t.Helper()
	question := models.Question{
		Content:       "seeded question",
		QuestionType:  questionType,
		CorrectAnswer: correct,
		Score:         score,
	}
	if err := db.Create(&question).Error; err != nil {
		t.Fatalf("seed question: %v", err)
	}
	return question
}

func seedExam(t *testing.T, db *gorm.DB, questions ...models.Question) models.Exam {
	t.Helper()
	exam := models.Exam{Title: "seeded exam", IsActive: true}
	if err := db.Create(&exam).Error; err != nil {
		t.Fatalf("seed exam: %v", err)
	}
	for i, question := range questions {
		row := models.ExamQuestion{ExamID: exam.ID, QuestionID: question.ID, Order: i + 1}
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("seed exam question: %v", err)
		}
	}
	return exam
}

func seedUser(t *testing.T, db *gorm.DB) models.User {
	t.Helper()
	user := models.User{
		FullName: "Test Student",
		Email:    uuid.New().String() + "@test.test",
		Password: "x",
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestStartExamIdempotent(t *testing.T) {
	db := setupTestDB(t)
	q := seedQuestion(t, db, models.QuestionTypeSingleChoice, models.SingleAnswer("A"), 5)
	exam := seedExam(t, db, q)
	user := seedUser(t, db)

	first, err := StartExam(user.ID, exam.ID)
	if err != nil {
		t.Fatalf("StartExam() error = %v", err)
	}
	if first.IsCompleted || first.TotalScore != 0 || first.MaxScore != 0 {
		t.Errorf("new attempt not zeroed: %+v", first)
	}

	second, err := StartExam(user.ID, exam.ID)
	if err != nil {
		t.Fatalf("StartExam() second call error = %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("StartExam() created a second attempt: %s != %s", first.ID, second.ID)
	}

	var count int64
	db.Model(&models.ExamAttempt{}).Where("user_id = ? AND exam_id = ?", user.ID, exam.ID).Count(&count)
	if count != 1 {
		t.Errorf("attempt rows = %d, want 1", count)
	}
}

func TestStartExamUnknownExam(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db)

	if _, err := StartExam(user.ID, uuid.New()); !errors.Is(err, ErrExamNotFound) {
		t.Errorf("StartExam() error = %v, want ErrExamNotFound", err)
	}
}

func TestSubmitAnswerUpsert(t *testing.T) {
	db := setupTestDB(t)
	q := seedQuestion(t, db, models.QuestionTypeSingleChoice, models.SingleAnswer("A"), 5)
	exam := seedExam(t, db, q)
	user := seedUser(t, db)

	attempt, err := StartExam(user.ID, exam.ID)
	if err != nil {
		t.Fatalf("StartExam() error = %v", err)
	}

	wrong, err := SubmitAnswer(attempt.ID, q.ID, models.SingleAnswer("B"))
	if err != nil {
		t.Fatalf("SubmitAnswer() error = %v", err)
	}
	if wrong.IsCorrect || wrong.Score != 0 {
		t.Errorf("wrong answer scored: %+v", wrong)
	}

	right, err := SubmitAnswer(attempt.ID, q.ID, models.SingleAnswer("A"))
	if err != nil {
		t.Fatalf("SubmitAnswer() resubmit error = %v", err)
	}
	if !right.IsCorrect || right.Score != 5 {
		t.Errorf("correct answer not scored: %+v", right)
	}
	if right.AnsweredAt.Before(wrong.AnsweredAt) {
		t.Errorf("answered_at not refreshed: %v < %v", right.AnsweredAt, wrong.AnsweredAt)
	}

	var count int64
	db.Model(&models.Answer{}).Where("attempt_id = ? AND question_id = ?", attempt.ID, q.ID).Count(&count)
	if count != 1 {
		t.Errorf("answer rows = %d, want 1 after resubmission", count)
	}
}

func TestSubmitAnswerErrors(t *testing.T) {
	db := setupTestDB(t)
	q := seedQuestion(t, db, models.QuestionTypeMultipleChoice, models.MultiAnswer("A", "C"), 10)
	exam := seedExam(t, db, q)
	user := seedUser(t, db)

	attempt, err := StartExam(user.ID, exam.ID)
	if err != nil {
		t.Fatalf("StartExam() error = %v", err)
	}

	if _, err := SubmitAnswer(uuid.New(), q.ID, models.MultiAnswer("A")); !errors.Is(err, ErrAttemptNotFound) {
		t.Errorf("unknown attempt error = %v, want ErrAttemptNotFound", err)
	}
	if _, err := SubmitAnswer(attempt.ID, uuid.New(), models.MultiAnswer("A")); !errors.Is(err, ErrQuestionNotFound) {
		t.Errorf("unknown question error = %v, want ErrQuestionNotFound", err)
	}
	if _, err := SubmitAnswer(attempt.ID, q.ID, models.SingleAnswer("A")); !errors.Is(err, ErrAnswerShape) {
		t.Errorf("shape mismatch error = %v, want ErrAnswerShape", err)
	}
}

func TestCompleteAttemptFullScore(t *testing.T) {
	db := setupTestDB(t)
	q1 := seedQuestion(t, db, models.QuestionTypeSingleChoice, models.SingleAnswer("A"), 5)
	q2 := seedQuestion(t, db, models.QuestionTypeMultipleChoice, models.MultiAnswer("A", "C"), 10)
	exam := seedExam(t, db, q1, q2)
	user := seedUser(t, db)

	attempt, err := StartExam(user.ID, exam.ID)
	if err != nil {
		t.Fatalf("StartExam() error = %v", err)
	}
	if _, err := SubmitAnswer(attempt.ID, q1.ID, models.SingleAnswer("A")); err != nil {
		t.Fatalf("SubmitAnswer(q1) error = %v", err)
	}
	// Order must not matter for the multi-select.
	if _, err := SubmitAnswer(attempt.ID, q2.ID, models.MultiAnswer("C", "A")); err != nil {
		t.Fatalf("SubmitAnswer(q2) error = %v", err)
	}

	completed, err := CompleteAttempt(attempt.ID)
	if err != nil {
		t.Fatalf("CompleteAttempt() error = %v", err)
	}
	if completed.TotalScore != 15 || completed.MaxScore != 15 || completed.Accuracy != 100 {
		t.Errorf("completion = total %v / max %v / accuracy %v, want 15/15/100",
			completed.TotalScore, completed.MaxScore, completed.Accuracy)
	}
	if !completed.IsCompleted || completed.CompletedAt == nil {
		t.Errorf("attempt not marked completed: %+v", completed)
	}
}

func TestCompleteAttemptUnansweredCountTowardMax(t *testing.T) {
	db := setupTestDB(t)
	q1 := seedQuestion(t, db, models.QuestionTypeSingleChoice, models.SingleAnswer("A"), 5)
	q2 := seedQuestion(t, db, models.QuestionTypeMultipleChoice, models.MultiAnswer("A", "C"), 10)
	exam := seedExam(t, db, q1, q2)
	user := seedUser(t, db)

	attempt, err := StartExam(user.ID, exam.ID)
	if err != nil {
		t.Fatalf("StartExam() error = %v", err)
	}
	if _, err := SubmitAnswer(attempt.ID, q1.ID, models.SingleAnswer("B")); err != nil {
		t.Fatalf("SubmitAnswer() error = %v", err)
	}

	completed, err := CompleteAttempt(attempt.ID)
	if err != nil {
		t.Fatalf("CompleteAttempt() error = %v", err)
	}
	if completed.TotalScore != 0 || completed.MaxScore != 15 || completed.Accuracy != 0 {
		t.Errorf("completion = total %v / max %v / accuracy %v, want 0/15/0",
			completed.TotalScore, completed.MaxScore, completed.Accuracy)
	}
}

func TestCompleteAttemptEmptyExam(t *testing.T) {
	db := setupTestDB(t)
	exam := seedExam(t, db)
	user := seedUser(t, db)

	attempt, err := StartExam(user.ID, exam.ID)
	if err != nil {
		t.Fatalf("StartExam() error = %v", err)
	}

	completed, err := CompleteAttempt(attempt.ID)
	if err != nil {
		t.Fatalf("CompleteAttempt() error = %v", err)
	}
	if completed.Accuracy != 0 || completed.MaxScore != 0 {
		t.Errorf("empty exam completion = max %v / accuracy %v, want 0/0",
			completed.MaxScore, completed.Accuracy)
	}
}

func TestCompleteAttemptTerminal(t *testing.T) {
	db := setupTestDB(t)
	q := seedQuestion(t, db, models.QuestionTypeTrueFalse, models.BoolAnswer(true), 3)
	exam := seedExam(t, db, q)
	user := seedUser(t, db)

	attempt, err := StartExam(user.ID, exam.ID)
	if err != nil {
		t.Fatalf("StartExam() error = %v", err)
	}
	if _, err := SubmitAnswer(attempt.ID, q.ID, models.BoolAnswer(true)); err != nil {
		t.Fatalf("SubmitAnswer() error = %v", err)
	}
	first, err := CompleteAttempt(attempt.ID)
	if err != nil {
		t.Fatalf("CompleteAttempt() error = %v", err)
	}

	if _, err := CompleteAttempt(attempt.ID); !errors.Is(err, ErrAttemptCompleted) {
		t.Errorf("second completion error = %v, want ErrAttemptCompleted", err)
	}
	if _, err := SubmitAnswer(attempt.ID, q.ID, models.BoolAnswer(false)); !errors.Is(err, ErrAttemptCompleted) {
		t.Errorf("post-completion submit error = %v, want ErrAttemptCompleted", err)
	}

	var fresh models.ExamAttempt
	if err := db.First(&fresh, "id = ?", attempt.ID).Error; err != nil {
		t.Fatalf("reload attempt: %v", err)
	}
	if fresh.TotalScore != first.TotalScore || fresh.MaxScore != first.MaxScore || fresh.Accuracy != first.Accuracy {
		t.Errorf("terminal attempt mutated: %+v vs %+v", fresh, first)
	}

	// A fresh start after completion opens a new attempt.
	next, err := StartExam(user.ID, exam.ID)
	if err != nil {
		t.Fatalf("StartExam() after completion error = %v", err)
	}
	if next.ID == attempt.ID {
		t.Error("StartExam() reused a completed attempt")
	}
}

func TestBatchSubmitAnswers(t *testing.T) {
	db := setupTestDB(t)
	q1 := seedQuestion(t, db, models.QuestionTypeSingleChoice, models.SingleAnswer("A"), 5)
	q2 := seedQuestion(t, db, models.QuestionTypeMultipleChoice, models.MultiAnswer("A", "C"), 10)
	exam := seedExam(t, db, q1, q2)
	user := seedUser(t, db)

	attempt, err := StartExam(user.ID, exam.ID)
	if err != nil {
		t.Fatalf("StartExam() error = %v", err)
	}

	answers, err := BatchSubmitAnswers(attempt.ID, []AnswerSubmission{
		{QuestionID: q1.ID, UserAnswer: models.SingleAnswer("A")},
		{QuestionID: q2.ID, UserAnswer: models.MultiAnswer("C", "A")},
	})
	if err != nil {
		t.Fatalf("BatchSubmitAnswers() error = %v", err)
	}
	if len(answers) != 2 {
		t.Fatalf("BatchSubmitAnswers() returned %d answers, want 2", len(answers))
	}
	if !answers[0].IsCorrect || answers[0].Score != 5 {
		t.Errorf("first answer = %+v, want correct with score 5", answers[0])
	}
	if !answers[1].IsCorrect || answers[1].Score != 10 {
		t.Errorf("second answer = %+v, want correct with score 10", answers[1])
	}
}

func TestBatchSubmitAnswersRollsBack(t *testing.T) {
	db := setupTestDB(t)
	q := seedQuestion(t, db, models.QuestionTypeSingleChoice, models.SingleAnswer("A"), 5)
	exam := seedExam(t, db, q)
	user := seedUser(t, db)

	attempt, err := StartExam(user.ID, exam.ID)
	if err != nil {
		t.Fatalf("StartExam() error = %v", err)
	}

	_, err = BatchSubmitAnswers(attempt.ID, []AnswerSubmission{
		{QuestionID: q.ID, UserAnswer: models.SingleAnswer("A")},
		{QuestionID: uuid.New(), UserAnswer: models.SingleAnswer("B")},
	})
	if !errors.Is(err, ErrQuestionNotFound) {
		t.Fatalf("BatchSubmitAnswers() error = %v, want ErrQuestionNotFound", err)
	}

	var count int64
	db.Model(&models.Answer{}).Where("attempt_id = ?", attempt.ID).Count(&count)
	if count != 0 {
		t.Errorf("answer rows after failed batch = %d, want 0 (rolled back)", count)
	}
}

func TestExamQuestionScoreOverride(t *testing.T) {
	db := setupTestDB(t)
	q := seedQuestion(t, db, models.QuestionTypeSingleChoice, models.SingleAnswer("A"), 5)
	exam := seedExam(t, db)
	override := 20.0
	row := models.ExamQuestion{ExamID: exam.ID, QuestionID: q.ID, Order: 1, Score: &override}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed exam question: %v", err)
	}
	user := seedUser(t, db)

	attempt, err := StartExam(user.ID, exam.ID)
	if err != nil {
		t.Fatalf("StartExam() error = %v", err)
	}
	answer, err := SubmitAnswer(attempt.ID, q.ID, models.SingleAnswer("A"))
	if err != nil {
		t.Fatalf("SubmitAnswer() error = %v", err)
	}
	if answer.Score != 20 {
		t.Errorf("awarded score = %v, want override 20", answer.Score)
	}

	completed, err := CompleteAttempt(attempt.ID)
	if err != nil {
		t.Fatalf("CompleteAttempt() error = %v", err)
	}
	if completed.MaxScore != 20 || completed.TotalScore != 20 || completed.Accuracy != 100 {
		t.Errorf("completion with override = %v/%v/%v, want 20/20/100",
			completed.TotalScore, completed.MaxScore, completed.Accuracy)
	}
}
