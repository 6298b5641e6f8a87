package database

import (
	"fmt"
	"log"

	config "github.com/sirjaminwong/exam-pass-mono-sub001/configs"
	"github.com/sirjaminwong/exam-pass-mono-sub001/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB() {
	var err error
	dsn := config.Config("DATABASE_URL")

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt:                              false,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		DisableNestedTransaction:                 true,
	})
	if err != nil {
		log.Fatalf("🔥 Failed to connect to database: %v", err)
	}

	fmt.Println("✅ Database connected successfully")
}

func Migrate() {
	err := DB.AutoMigrate(
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
		log.Fatalf("🔥 Failed to migrate database: %v", err)
	}

	// IDs are assigned client-side in BeforeCreate hooks; the column defaults
	// only cover rows inserted outside this service. Set them here rather than
	// in gorm tags because gen_random_uuid() is Postgres-only DDL.
	for _, table := range []string{
		"users", "classes", "questions", "exams",
		"exam_questions", "exam_attempts", "answers", "certificates",
	} {
		err = DB.Exec(fmt.Sprintf(
			"ALTER TABLE %s ALTER COLUMN id SET DEFAULT gen_random_uuid()", table)).Error
		if err != nil {
			log.Fatalf("🔥 Failed to set id default on %s: %v", table, err)
		}
	}

	// At most one in-progress attempt per (user, exam); concurrent starts lose
	// to this index and are resolved by re-reading the winner's row.
	err = DB.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_attempt_in_progress
		ON exam_attempts (user_id, exam_id) WHERE is_completed = false`).Error
	if err != nil {
		log.Fatalf("🔥 Failed to create in-progress attempt index: %v", err)
	}

	fmt.Println("✅ Database migration successful")
}

func SeedAdmin() {
	adminEmail := config.Config("ADMIN_EMAIL")
	adminPassword := config.Config("ADMIN_PASSWORD")

	var count int64
	err := DB.Model(&models.User{}).Where("email = ?", adminEmail).Count(&count).Error
	if err != nil {
		log.Fatalf("🔥 Failed to check for admin user: %v", err)
		return
	}

	if count > 0 {
		log.Println("Admin user already exists.")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("🔥 Failed to hash admin password: %v", err)
		return
	}

	adminUser := models.User{
		FullName: config.Config("ADMIN_FULL_NAME"),
		Email:    adminEmail,
		Password: string(hashedPassword),
		Role:     "admin",
	}

	if err := DB.Create(&adminUser).Error; err != nil {
		log.Fatalf("🔥 Failed to seed admin user: %v", err)
		return
	}

	log.Println("✅ Admin user seeded successfully")
}
