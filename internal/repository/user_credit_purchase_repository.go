package repository

import (
	"github.com/sefazor/proparse-backend/internal/models"
	"gorm.io/gorm"
)

type UserCreditPurchaseRepository struct {
	db *gorm.DB
}

func NewUserCreditPurchaseRepository(db *gorm.DB) *UserCreditPurchaseRepository {
	return &UserCreditPurchaseRepository{
		db: db,
	}
}

func (r *UserCreditPurchaseRepository) Create(purchase *models.UserCreditPurchase) error {
	return r.db.Create(purchase).Error
}

func (r *UserCreditPurchaseRepository) GetBySessionID(sessionID string) (*models.UserCreditPurchase, error) {
	var purchase models.UserCreditPurchase
	err := r.db.Where("stripe_session_id = ?", sessionID).First(&purchase).Error
	return &purchase, err
}

func (r *UserCreditPurchaseRepository) Update(purchase *models.UserCreditPurchase) error {
	return r.db.Save(purchase).Error
}

func (r *UserCreditPurchaseRepository) GetUserPurchaseHistory(userID uint) ([]models.UserCreditPurchase, error) {
	var purchases []models.UserCreditPurchase
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&purchases).Error
	return purchases, err
}

func (r *UserCreditPurchaseRepository) List(offset, limit int) ([]models.UserCreditPurchase, int64, error) {
	var purchases []models.UserCreditPurchase
	var total int64

	if err := r.db.Model(&models.UserCreditPurchase{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&purchases).Error
	return purchases, total, err
}

// RevenueByPackage, tamamlanan satın almaların paket bazında toplamı
func (r *UserCreditPurchaseRepository) RevenueByPackage() ([]models.PackageRevenue, error) {
	var rows []models.PackageRevenue
	err := r.db.Model(&models.UserCreditPurchase{}).
		Select("user_credit_purchases.package_id, credit_packages.name as package_name, COUNT(*) as count, COALESCE(SUM(user_credit_purchases.price), 0) as revenue").
		Joins("JOIN credit_packages ON credit_packages.id = user_credit_purchases.package_id").
		Where("user_credit_purchases.status = ?", models.PurchaseStatusCompleted).
		Group("user_credit_purchases.package_id, credit_packages.name").
		Scan(&rows).Error
	return rows, err
}
