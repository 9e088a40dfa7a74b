package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sefazor/proparse-backend/internal/models"
	"github.com/sefazor/proparse-backend/pkg/extraction"
	"github.com/sefazor/proparse-backend/pkg/pdf"
	"github.com/sefazor/proparse-backend/pkg/storage"
	"go.uber.org/zap"
)

const maxDocumentSize = 25 * 1024 * 1024 // 25MB

// CreditShortageError, 402 olarak yüzeye çıkan doğrulama reddini taşır
type CreditShortageError struct {
	Validation *models.CreditValidation
}

func (e *CreditShortageError) Error() string { return e.Validation.Message }

func (e *CreditShortageError) Is(target error) bool { return target == ErrInsufficientCredits }

type documentStore interface {
	Create(doc *models.Document) error
	GetByID(id uint) (*models.Document, error)
	GetVisibleDocuments(userID uint, groupID *uint, offset, limit int) ([]models.Document, int64, error)
	Delete(id uint) error
}

type usageLogStore interface {
	Create(entry *models.UsageLog) error
}

type documentUserStore interface {
	GetByID(id uint) (*models.User, error)
}

type extractor interface {
	Classify(ctx context.Context, fileURL string) (*extraction.ClassificationResult, error)
	Extract(ctx context.Context, documentType string, fileURL string) (json.RawMessage, error)
}

type DocumentService struct {
	docRepo       documentStore
	usageRepo     usageLogStore
	userRepo      documentUserStore
	storage       storage.StorageService
	extractor     extractor
	creditService *CreditService
	logger        *zap.Logger
}

func NewDocumentService(
	docRepo documentStore,
	usageRepo usageLogStore,
	userRepo documentUserStore,
	store storage.StorageService,
	ext extractor,
	creditService *CreditService,
	logger *zap.Logger,
) *DocumentService {
	return &DocumentService{
		docRepo:       docRepo,
		usageRepo:     usageRepo,
		userRepo:      userRepo,
		storage:       store,
		extractor:     ext,
		creditService: creditService,
		logger:        logger,
	}
}

// Upload dosyayı R2'ye yükler ve referansını döner
func (s *DocumentService) Upload(userID uint, file *multipart.FileHeader) (*models.UploadResponse, error) {
	if !isValidDocumentFile(file.Header.Get("Content-Type")) {
		return nil, errors.New("invalid file type: only PDF, PNG and JPEG are supported")
	}

	if file.Size > maxDocumentSize {
		return nil, errors.New("file size too large (max 25MB)")
	}

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	buf, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	pageCount := 1
	if pdf.IsPDF(buf) {
		pageCount, err = pdf.CountPages(buf)
		if err != nil {
			return nil, err
		}
	}

	key := fmt.Sprintf("documents/%d/%s_%s", userID, uuid.New().String(), sanitizeFileName(file.Filename))
	if err := s.storage.Upload(key, bytes.NewReader(buf)); err != nil {
		return nil, err
	}

	return &models.UploadResponse{
		FileKey:   key,
		FileURL:   s.storage.GetPublicURL(key),
		FileName:  file.Filename,
		PageCount: pageCount,
	}, nil
}

// Classify doküman türünü tahmin eder; kredi harcamaz
func (s *DocumentService) Classify(ctx context.Context, fileKey string) (*models.ClassifyResponse, error) {
	result, err := s.extractor.Classify(ctx, s.storage.GetPublicURL(fileKey))
	if err != nil {
		return nil, err
	}

	docType := models.DocumentType(result.DocumentType)
	if !models.IsValidDocumentType(docType) {
		return nil, fmt.Errorf("classifier returned unknown document type: %s", result.DocumentType)
	}

	return &models.ClassifyResponse{
		DocumentType: docType,
		Confidence:   result.Confidence,
	}, nil
}

// Extract, tek bir işleme isteğinin tamamını yürütür:
// sayfa sayımı → kredi doğrulama → çıkarma → kredi düşme → best-effort
// yan etkiler. Yan etki hataları warning olarak döner, asla isteği düşürmez.
func (s *DocumentService) Extract(ctx context.Context, userID uint, req models.ExtractRequest) (*models.ExtractResponse, []string, error) {
	// Sayfa sayısını belirle
	content, err := s.storage.Download(req.FileKey)
	if err != nil {
		return nil, nil, fmt.Errorf("uploaded file not found: %w", err)
	}

	pageCount := 1
	if pdf.IsPDF(content) {
		pageCount, err = pdf.CountPages(content)
		if err != nil {
			return nil, nil, err
		}
	}

	// Kredi doğrulama
	validation, err := s.creditService.ValidateCredits(userID, pageCount)
	if err != nil {
		return nil, nil, err
	}
	if !validation.IsValid {
		return nil, nil, &CreditShortageError{Validation: validation}
	}

	// Harici çıkarma çağrısı
	extracted, err := s.extractor.Extract(ctx, string(req.DocumentType), s.storage.GetPublicURL(req.FileKey))
	if err != nil {
		// Başarısız deneme de loglanır; kredi düşülmez
		s.logUsage(userID, req, pageCount, 0, models.ProcessingFailed, err.Error())
		return nil, nil, err
	}

	var warnings []string

	// Kredi düşme: yarış kaybedilirse uyarıya düşürülür, sonuç yine döner
	creditsUsed := pageCount
	remaining := validation.AvailableCredits
	deduction, err := s.creditService.DeductCredits(userID, pageCount)
	if err != nil {
		s.logger.Warn("credit deduction failed after successful extraction",
			zap.Uint("user_id", userID),
			zap.Int("pages", pageCount),
			zap.Error(err),
		)
		warnings = append(warnings, "credits could not be deducted: "+err.Error())
		creditsUsed = 0
		if deduction != nil {
			remaining = deduction.RemainingCredits
		}
	} else {
		remaining = deduction.RemainingCredits
	}

	// Grup üyelerinin görebilmesi için dokümanı grup id'siyle damgala
	var groupID *uint
	if user, err := s.userRepo.GetByID(userID); err == nil {
		groupID = user.GroupID
	}

	doc := &models.Document{
		UserID:        userID,
		GroupID:       groupID,
		DocumentType:  req.DocumentType,
		FileName:      req.FileName,
		FileKey:       req.FileKey,
		FileURL:       s.storage.GetPublicURL(req.FileKey),
		PageCount:     pageCount,
		ExtractedData: []byte(extracted),
	}

	// Best-effort yan etkiler: her biri yalıtılmış, sırayla çalışır ve
	// hatası warning'e düşürülür
	postTasks := []struct {
		name string
		run  func() error
	}{
		{"usage log", func() error {
			return s.usageRepo.Create(&models.UsageLog{
				UserID:           userID,
				DocumentType:     req.DocumentType,
				FileName:         req.FileName,
				FileKey:          req.FileKey,
				PageCount:        pageCount,
				CreditsUsed:      creditsUsed,
				ProcessingStatus: models.ProcessingSuccess,
			})
		}},
		{"document history", func() error {
			return s.docRepo.Create(doc)
		}},
	}

	for _, task := range postTasks {
		if err := task.run(); err != nil {
			s.logger.Warn("post-processing task failed",
				zap.String("task", task.name),
				zap.Uint("user_id", userID),
				zap.Error(err),
			)
			warnings = append(warnings, fmt.Sprintf("failed to save %s: %v", task.name, err))
		}
	}

	return &models.ExtractResponse{
		DocumentID:       doc.ID,
		DocumentType:     req.DocumentType,
		PageCount:        pageCount,
		CreditsUsed:      creditsUsed,
		RemainingCredits: remaining,
		ExtractedData:    doc.ExtractedData,
	}, warnings, nil
}

func (s *DocumentService) GetDocuments(userID uint, offset, limit int) ([]models.Document, int64, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, 0, ErrAccountNotFound
	}

	return s.docRepo.GetVisibleDocuments(userID, user.GroupID, offset, limit)
}

func (s *DocumentService) GetDocument(docID, userID uint) (*models.Document, error) {
	doc, err := s.docRepo.GetByID(docID)
	if err != nil {
		return nil, errors.New("document not found")
	}

	if !s.canAccess(doc, userID) {
		return nil, errors.New("unauthorized")
	}

	return doc, nil
}

func (s *DocumentService) DeleteDocument(docID, userID uint) error {
	doc, err := s.docRepo.GetByID(docID)
	if err != nil {
		return errors.New("document not found")
	}

	// Silme sadece doküman sahibine açık
	if doc.UserID != userID {
		return errors.New("unauthorized")
	}

	// Önce storage'dan sil
	if err := s.storage.Delete(doc.FileKey); err != nil {
		s.logger.Warn("failed to delete file from storage",
			zap.String("file_key", doc.FileKey),
			zap.Error(err),
		)
	}

	return s.docRepo.Delete(docID)
}

// canAccess, doküman sahibini ve paylaşılan grup üyelerini kabul eder
func (s *DocumentService) canAccess(doc *models.Document, userID uint) bool {
	if doc.UserID == userID {
		return true
	}

	if doc.GroupID == nil {
		return false
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil || user.GroupID == nil {
		return false
	}

	return *user.GroupID == *doc.GroupID
}

// logUsage, başarısız denemeler için best-effort log satırı yazar
func (s *DocumentService) logUsage(userID uint, req models.ExtractRequest, pages, creditsUsed int, status, errMsg string) {
	entry := &models.UsageLog{
		UserID:           userID,
		DocumentType:     req.DocumentType,
		FileName:         req.FileName,
		FileKey:          req.FileKey,
		PageCount:        pages,
		CreditsUsed:      creditsUsed,
		ProcessingStatus: status,
		ErrorMessage:     errMsg,
	}

	if err := s.usageRepo.Create(entry); err != nil {
		s.logger.Warn("failed to write usage log",
			zap.Uint("user_id", userID),
			zap.Error(err),
		)
	}
}

func isValidDocumentFile(contentType string) bool {
	validTypes := map[string]bool{
		"application/pdf": true,
		"image/png":       true,
		"image/jpeg":      true,
	}
	return validTypes[contentType]
}

func sanitizeFileName(name string) string {
	name = filepath.Base(name)
	return strings.ReplaceAll(name, " ", "_")
}
