package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	config "github.com/sirjaminwong/exam-pass-mono-sub001/configs"
	"github.com/sirjaminwong/exam-pass-mono-sub001/database"
	"github.com/sirjaminwong/exam-pass-mono-sub001/models"
)

// certificatePassAccuracy is the minimum accuracy (percent) that earns a certificate.
const certificatePassAccuracy = 80.0

// CheckAndGenerateCertificate issues a pass certificate for a completed attempt
// that reached the pass threshold. Best-effort: failures are logged and never
// affect the attempt itself. At most one certificate exists per (user, exam).
func CheckAndGenerateCertificate(attempt models.ExamAttempt) {
	if !attempt.IsCompleted || attempt.Accuracy < certificatePassAccuracy {
		return
	}

	var existing models.Certificate
	if err := database.DB.
		Where("user_id = ? AND exam_id = ?", attempt.UserID, attempt.ExamID).
		First(&existing).Error; err == nil {
		return
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", attempt.UserID).Error; err != nil {
		log.Printf("🔥 Certificate: failed to load user %s: %v", attempt.UserID, err)
		return
	}
	var exam models.Exam
	if err := database.DB.First(&exam, "id = ?", attempt.ExamID).Error; err != nil {
		log.Printf("🔥 Certificate: failed to load exam %s: %v", attempt.ExamID, err)
		return
	}

	htmlData, err := generateCertificateHTML(user.FullName, exam.Title, attempt.Accuracy)
	if err != nil {
		log.Printf("🔥 Failed to generate certificate HTML: %v", err)
		return
	}

	pdfBytes, err := generatePDFFromHTML(htmlData)
	if err != nil {
		log.Printf("🔥 Failed to generate certificate PDF: %v", err)
		return
	}

	uploadURL, err := uploadToCloudinary(pdfBytes, "certificates", attempt.UserID.String())
	if err != nil {
		log.Printf("🔥 Failed to upload certificate to Cloudinary: %v", err)
		return
	}

	certificate := models.Certificate{
		UserID:         attempt.UserID,
		ExamID:         attempt.ExamID,
		ExamTitle:      exam.Title,
		Accuracy:       attempt.Accuracy,
		IssuedAt:       time.Now(),
		CertificateURL: uploadURL,
	}

	if err := database.DB.Create(&certificate).Error; err != nil {
		log.Printf("🔥 Failed to create certificate record for user %s: %v", attempt.UserID, err)
	} else {
		log.Printf("✅ Issued certificate for exam '%s' to user %s.", exam.Title, attempt.UserID)
	}
}

func generateCertificateHTML(studentName, examTitle string, accuracy float64) (string, error) {
	tmpl, err := template.ParseFiles("templates/certificate.html")
	if err != nil {
		return "", err
	}

	data := struct {
		StudentName string
		ExamTitle   string
		Accuracy    string
		IssuedDate  string
	}{
		StudentName: studentName,
		ExamTitle:   examTitle,
		Accuracy:    fmt.Sprintf("%.1f%%", accuracy),
		IssuedDate:  time.Now().Format("January 2, 2006"),
	}

	var renderedHTML bytes.Buffer
	if err := tmpl.Execute(&renderedHTML, data); err != nil {
		return "", err
	}
	return renderedHTML.String(), nil
}

func generatePDFFromHTML(htmlContent string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()

	var pdfBuffer []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuffer = pdf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuffer, nil
}

func uploadToCloudinary(fileBytes []byte, folder, ownerID string) (string, error) {
	cld, err := cloudinary.NewFromURL(config.Config("CLOUDINARY_URL"))
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	uploadParams := uploader.UploadParams{
		PublicID:     fmt.Sprintf("%s/%s_%s", folder, ownerID, uuid.New().String()),
		Folder:       "exam_pass_uploads",
		ResourceType: "raw",
	}

	uploadResult, err := cld.Upload.Upload(ctx, bytes.NewReader(fileBytes), uploadParams)
	if err != nil {
		return "", err
	}

	return uploadResult.SecureURL, nil
}
