package repository

import (
	"github.com/sefazor/proparse-backend/internal/models"
	"gorm.io/gorm"
)

type TrainingRepository struct {
	db *gorm.DB
}

func NewTrainingRepository(db *gorm.DB) *TrainingRepository {
	return &TrainingRepository{
		db: db,
	}
}

func (r *TrainingRepository) Create(doc *models.TrainingDocument) error {
	return r.db.Create(doc).Error
}

func (r *TrainingRepository) GetByID(id uint) (*models.TrainingDocument, error) {
	var doc models.TrainingDocument
	err := r.db.First(&doc, id).Error
	return &doc, err
}

func (r *TrainingRepository) Update(doc *models.TrainingDocument) error {
	return r.db.Save(doc).Error
}

func (r *TrainingRepository) GetByBatchID(batchID string) ([]models.TrainingDocument, error) {
	var docs []models.TrainingDocument
	err := r.db.Where("batch_id = ?", batchID).Order("created_at ASC").Find(&docs).Error
	return docs, err
}

func (r *TrainingRepository) List(status string, docType models.DocumentType, offset, limit int) ([]models.TrainingDocument, int64, error) {
	var docs []models.TrainingDocument
	var total int64

	query := r.db.Model(&models.TrainingDocument{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if docType != "" {
		query = query.Where("document_type = ?", docType)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&docs).Error
	return docs, total, err
}

// CountVerified, export edilmemiş doğrulanmış örnek sayısını döner.
// Fine-tune eşik kontrolü bu sayı üzerinden yapılır.
func (r *TrainingRepository) CountVerified(docType models.DocumentType) (int64, error) {
	var count int64
	err := r.db.Model(&models.TrainingDocument{}).
		Where("document_type = ? AND status = ?", docType, models.TrainingStatusVerified).
		Count(&count).Error
	return count, err
}

func (r *TrainingRepository) GetVerified(docType models.DocumentType) ([]models.TrainingDocument, error) {
	var docs []models.TrainingDocument
	err := r.db.Where("document_type = ? AND status = ?", docType, models.TrainingStatusVerified).
		Order("created_at ASC").Find(&docs).Error
	return docs, err
}

func (r *TrainingRepository) MarkExported(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Model(&models.TrainingDocument{}).Where("id IN ?", ids).
		Update("status", models.TrainingStatusExported).Error
}

// Fine-tune işleri

func (r *TrainingRepository) CreateFineTuneJob(job *models.FineTuneJob) error {
	return r.db.Create(job).Error
}

func (r *TrainingRepository) GetPendingFineTuneJob(docType models.DocumentType) (*models.FineTuneJob, error) {
	var job models.FineTuneJob
	err := r.db.Where("document_type = ? AND status = ?", docType, models.FineTuneStatusPending).
		First(&job).Error
	return &job, err
}

func (r *TrainingRepository) UpdateFineTuneJob(job *models.FineTuneJob) error {
	return r.db.Save(job).Error
}

func (r *TrainingRepository) ListFineTuneJobs() ([]models.FineTuneJob, error) {
	var jobs []models.FineTuneJob
	err := r.db.Order("created_at DESC").Find(&jobs).Error
	return jobs, err
}
