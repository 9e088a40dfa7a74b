package repository

import (
	"github.com/sefazor/proparse-backend/internal/models"
	"gorm.io/gorm"
)

// UsageLogRepository sadece ekler ve okur; log satırları asla güncellenmez
type UsageLogRepository struct {
	db *gorm.DB
}

func NewUsageLogRepository(db *gorm.DB) *UsageLogRepository {
	return &UsageLogRepository{
		db: db,
	}
}

func (r *UsageLogRepository) Create(entry *models.UsageLog) error {
	return r.db.Create(entry).Error
}

func (r *UsageLogRepository) GetByUserID(userID uint, offset, limit int) ([]models.UsageLog, int64, error) {
	var logs []models.UsageLog
	var total int64

	query := r.db.Model(&models.UsageLog{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&logs).Error
	return logs, total, err
}

// List, admin konsolu için tüm kullanıcıların loglarını döner
func (r *UsageLogRepository) List(offset, limit int) ([]models.UsageLog, int64, error) {
	var logs []models.UsageLog
	var total int64

	if err := r.db.Model(&models.UsageLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&logs).Error
	return logs, total, err
}

// TotalPagesProcessed, admin istatistikleri için başarılı işlenen toplam sayfa
func (r *UsageLogRepository) TotalPagesProcessed() (int64, error) {
	var total int64
	err := r.db.Model(&models.UsageLog{}).
		Where("processing_status = ?", models.ProcessingSuccess).
		Select("COALESCE(SUM(page_count), 0)").Scan(&total).Error
	return total, err
}
