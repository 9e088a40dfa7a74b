package repository

import (
	"github.com/sefazor/proparse-backend/internal/models"
	"gorm.io/gorm"
)

// CreditRepository, bakiye değiştiren her yolun geçtiği tek kapıdır.
// Düşme işlemi veritabanındaki deduct_credits fonksiyonuna devredilir;
// yüklemeler ise bakiye artışını ve ledger satırını ayni transaction
// içinde yazar.
type CreditRepository struct {
	db *gorm.DB
}

func NewCreditRepository(db *gorm.DB) *CreditRepository {
	return &CreditRepository{
		db: db,
	}
}

// Deduct, deduct_credits SQL fonksiyonunu çağırır. Bireysel/grup kararını ve
// yeterli bakiye kontrolünü fonksiyon kendisi atomik olarak yapar.
func (r *CreditRepository) Deduct(userID uint, pages int) (bool, error) {
	var ok bool
	err := r.db.Raw("SELECT deduct_credits(?, ?)", userID, pages).Scan(&ok).Error
	return ok, err
}

// CreateTransaction, ledger'a değiştirilemez bir satır ekler
func (r *CreditRepository) CreateTransaction(tx *models.CreditTransaction) error {
	return r.db.Create(tx).Error
}

// AddUserCredits, bireysel bakiyeyi artırır ve ledger satırını aynı
// transaction içinde yazar
func (r *CreditRepository) AddUserCredits(userID uint, amount int, txType models.CreditTransactionType, adminID *uint, description string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", userID).
			Update("credits", gorm.Expr("credits + ?", amount)).Error; err != nil {
			return err
		}

		return tx.Create(&models.CreditTransaction{
			UserID:      &userID,
			Amount:      amount,
			Type:        txType,
			AdminID:     adminID,
			Description: description,
		}).Error
	})
}

// AddGroupCredits, grup havuzunu artırır ve ledger satırını yazar
func (r *CreditRepository) AddGroupCredits(groupID uint, amount int, txType models.CreditTransactionType, adminID *uint, description string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Group{}).Where("id = ?", groupID).
			Update("credits", gorm.Expr("credits + ?", amount)).Error; err != nil {
			return err
		}

		return tx.Create(&models.CreditTransaction{
			GroupID:     &groupID,
			Amount:      amount,
			Type:        txType,
			AdminID:     adminID,
			Description: description,
		}).Error
	})
}

func (r *CreditRepository) GetUserTransactions(userID uint, offset, limit int) ([]models.CreditTransaction, error) {
	var txs []models.CreditTransaction
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&txs).Error
	return txs, err
}

func (r *CreditRepository) GetGroupTransactions(groupID uint, offset, limit int) ([]models.CreditTransaction, error) {
	var txs []models.CreditTransaction
	err := r.db.Where("group_id = ?", groupID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&txs).Error
	return txs, err
}

// TotalCreditsSpent, admin istatistikleri için toplam harcanan krediyi döner
func (r *CreditRepository) TotalCreditsSpent() (int64, error) {
	var total int64
	err := r.db.Model(&models.CreditTransaction{}).
		Where("type = ?", models.CreditTxDeduction).
		Select("COALESCE(SUM(-amount), 0)").Scan(&total).Error
	return total, err
}
