package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
	"github.com/sefazor/proparse-backend/internal/models"
	"github.com/sefazor/proparse-backend/pkg/extraction"
	"github.com/sefazor/proparse-backend/pkg/pdf"
	"github.com/sefazor/proparse-backend/pkg/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrTrainingDocNotFound = errors.New("training document not found")
	ErrTrainingDocNotReady = errors.New("training document is not awaiting review")
	ErrNoVerifiedDocuments = errors.New("no verified documents to export")
)

type trainingStore interface {
	Create(doc *models.TrainingDocument) error
	GetByID(id uint) (*models.TrainingDocument, error)
	Update(doc *models.TrainingDocument) error
	GetByBatchID(batchID string) ([]models.TrainingDocument, error)
	List(status string, docType models.DocumentType, offset, limit int) ([]models.TrainingDocument, int64, error)
	CountVerified(docType models.DocumentType) (int64, error)
	GetVerified(docType models.DocumentType) ([]models.TrainingDocument, error)
	MarkExported(ids []uint) error
	CreateFineTuneJob(job *models.FineTuneJob) error
	GetPendingFineTuneJob(docType models.DocumentType) (*models.FineTuneJob, error)
	UpdateFineTuneJob(job *models.FineTuneJob) error
	ListFineTuneJobs() ([]models.FineTuneJob, error)
}

// TrainingService, fine-tuning veri kümesinin toplanmasını ve insan
// onayından geçirilmesini yönetir. Kredi sistemine hiç dokunmaz.
type TrainingService struct {
	trainingRepo trainingStore
	storage      storage.StorageService
	extractor    extractor
	threshold    int
	logger       *zap.Logger
}

func NewTrainingService(
	trainingRepo trainingStore,
	store storage.StorageService,
	ext extractor,
	threshold int,
	logger *zap.Logger,
) *TrainingService {
	return &TrainingService{
		trainingRepo: trainingRepo,
		storage:      store,
		extractor:    ext,
		threshold:    threshold,
		logger:       logger,
	}
}

// UploadBatch, aynı türden bir doküman partisini yükler ve her biri için
// AI çıkarması çalıştırır. Tek dosyanın hatası partiyi düşürmez.
func (s *TrainingService) UploadBatch(ctx context.Context, docType models.DocumentType, files []*multipart.FileHeader) (*models.TrainingBatchResponse, error) {
	if !models.IsValidDocumentType(docType) {
		return nil, errors.New("invalid document type")
	}
	if len(files) == 0 {
		return nil, errors.New("no files provided")
	}

	batchID := uuid.New().String()
	resp := &models.TrainingBatchResponse{BatchID: batchID}

	for _, file := range files {
		doc, err := s.processTrainingFile(ctx, batchID, docType, file)
		if err != nil {
			s.logger.Warn("training file failed",
				zap.String("batch_id", batchID),
				zap.String("file_name", file.Filename),
				zap.Error(err),
			)
			resp.Failed = append(resp.Failed, fmt.Sprintf("%s: %v", file.Filename, err))
			continue
		}
		resp.Documents = append(resp.Documents, *doc)
	}

	if len(resp.Documents) == 0 {
		return nil, errors.New("all files in batch failed to process")
	}

	return resp, nil
}

func (s *TrainingService) processTrainingFile(ctx context.Context, batchID string, docType models.DocumentType, file *multipart.FileHeader) (*models.TrainingDocument, error) {
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

	key := fmt.Sprintf("training/%s/%s", batchID, sanitizeFileName(file.Filename))
	if err := s.storage.Upload(key, bytes.NewReader(buf)); err != nil {
		return nil, err
	}

	doc := &models.TrainingDocument{
		BatchID:      batchID,
		DocumentType: docType,
		FileName:     file.Filename,
		FileKey:      key,
		FileURL:      s.storage.GetPublicURL(key),
		PageCount:    pageCount,
		Status:       models.TrainingStatusPending,
	}

	// Çıkarma hatası dokümanı düşürmez; pending kalır ve sonradan
	// manuel doğrulamayla da tamamlanabilir
	extracted, err := s.extractor.Extract(ctx, string(docType), doc.FileURL)
	if err != nil {
		s.logger.Warn("training extraction failed, document stays pending",
			zap.String("file_key", key),
			zap.Error(err),
		)
	} else {
		doc.ExtractedData = []byte(extracted)
		doc.Status = models.TrainingStatusExtracted
	}

	if err := s.trainingRepo.Create(doc); err != nil {
		return nil, err
	}

	return doc, nil
}

func (s *TrainingService) GetBatch(batchID string) ([]models.TrainingDocument, error) {
	return s.trainingRepo.GetByBatchID(batchID)
}

func (s *TrainingService) ListDocuments(status string, docType models.DocumentType, offset, limit int) ([]models.TrainingDocument, int64, error) {
	return s.trainingRepo.List(status, docType, offset, limit)
}

func (s *TrainingService) GetDocument(id uint) (*models.TrainingDocument, error) {
	doc, err := s.trainingRepo.GetByID(id)
	if err != nil {
		return nil, ErrTrainingDocNotFound
	}
	return doc, nil
}

// Verify, düzeltilmiş veriyi kaydeder ve dokümanı onaylar. Onay sonrası
// eşik kontrolü senkron yapılır; eşik aşıldıysa fine-tune işi açılır.
func (s *TrainingService) Verify(id, verifierID uint, verifiedData json.RawMessage) (*models.TrainingDocument, error) {
	doc, err := s.trainingRepo.GetByID(id)
	if err != nil {
		return nil, ErrTrainingDocNotFound
	}

	if doc.Status != models.TrainingStatusPending && doc.Status != models.TrainingStatusExtracted {
		return nil, ErrTrainingDocNotReady
	}

	if !json.Valid(verifiedData) {
		return nil, errors.New("verified data is not valid JSON")
	}

	doc.VerifiedData = []byte(verifiedData)
	doc.VerifiedBy = &verifierID
	doc.Status = models.TrainingStatusVerified
	doc.RejectionReason = ""

	if err := s.trainingRepo.Update(doc); err != nil {
		return nil, err
	}

	s.checkFineTuneThreshold(doc.DocumentType)

	return doc, nil
}

func (s *TrainingService) Reject(id, verifierID uint, reason string) (*models.TrainingDocument, error) {
	doc, err := s.trainingRepo.GetByID(id)
	if err != nil {
		return nil, ErrTrainingDocNotFound
	}

	if doc.Status != models.TrainingStatusPending && doc.Status != models.TrainingStatusExtracted {
		return nil, ErrTrainingDocNotReady
	}

	doc.Status = models.TrainingStatusRejected
	doc.VerifiedBy = &verifierID
	doc.RejectionReason = reason

	if err := s.trainingRepo.Update(doc); err != nil {
		return nil, err
	}

	return doc, nil
}

// checkFineTuneThreshold, doğrulanan örnek sayısı eşiği geçtiyse ve tür
// için bekleyen iş yoksa yeni bir fine-tune işi açar
func (s *TrainingService) checkFineTuneThreshold(docType models.DocumentType) {
	count, err := s.trainingRepo.CountVerified(docType)
	if err != nil {
		s.logger.Warn("failed to count verified documents", zap.Error(err))
		return
	}

	if count < int64(s.threshold) {
		return
	}

	// Aynı tür için bekleyen iş varsa yenisi açılmaz
	if _, err := s.trainingRepo.GetPendingFineTuneJob(docType); err == nil {
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Warn("failed to check pending fine-tune job", zap.Error(err))
		return
	}

	job := &models.FineTuneJob{
		DocumentType:  docType,
		DocumentCount: int(count),
		Status:        models.FineTuneStatusPending,
		TriggeredAt:   time.Now(),
	}

	if err := s.trainingRepo.CreateFineTuneJob(job); err != nil {
		s.logger.Warn("failed to create fine-tune job", zap.Error(err))
		return
	}

	s.logger.Info("fine-tune threshold reached",
		zap.String("document_type", string(docType)),
		zap.Int64("verified_count", count),
	)
}

// chat fine-tuning satır formatı
type jsonlMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type jsonlLine struct {
	Messages []jsonlMessage `json:"messages"`
}

// ExportJSONL, türün doğrulanmış tüm örneklerini OpenAI chat fine-tuning
// formatında tek bir JSONL dosyası olarak R2'ye yazar ve örnekleri
// exported durumuna alır.
func (s *TrainingService) ExportJSONL(docType models.DocumentType) (*models.TrainingExportResponse, error) {
	docs, err := s.trainingRepo.GetVerified(docType)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNoVerifiedDocuments
	}

	systemPrompt, ok := extraction.PromptFor(string(docType))
	if !ok {
		return nil, errors.New("no extraction prompt for document type")
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	ids := make([]uint, 0, len(docs))

	for _, doc := range docs {
		line := jsonlLine{
			Messages: []jsonlMessage{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: doc.FileURL},
				{Role: "assistant", Content: string(doc.VerifiedData)},
			},
		}
		if err := enc.Encode(line); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}

	exportKey := fmt.Sprintf("training/exports/%s_%s.jsonl", docType, uuid.New().String())
	if err := s.storage.Upload(exportKey, &buf); err != nil {
		return nil, fmt.Errorf("failed to upload export file: %w", err)
	}

	if err := s.trainingRepo.MarkExported(ids); err != nil {
		return nil, err
	}

	// Varsa bekleyen fine-tune işini exported yap
	if job, err := s.trainingRepo.GetPendingFineTuneJob(docType); err == nil {
		job.Status = models.FineTuneStatusExported
		job.ExportKey = exportKey
		job.DocumentCount = len(docs)
		if err := s.trainingRepo.UpdateFineTuneJob(job); err != nil {
			s.logger.Warn("failed to update fine-tune job", zap.Error(err))
		}
	}

	return &models.TrainingExportResponse{
		ExportKey:     exportKey,
		DocumentCount: len(docs),
	}, nil
}

func (s *TrainingService) ListFineTuneJobs() ([]models.FineTuneJob, error) {
	return s.trainingRepo.ListFineTuneJobs()
}
