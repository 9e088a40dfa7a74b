package models

import (
	"time"
)

// Kredi hareketi türleri
type CreditTransactionType string

const (
	CreditTxPurchase        CreditTransactionType = "purchase"
	CreditTxAdminAdd        CreditTransactionType = "admin_add"
	CreditTxDeduction       CreditTransactionType = "deduction"
	CreditTxInitialCreation CreditTransactionType = "initial_creation"
	CreditTxRefund          CreditTransactionType = "refund"
)

// CreditTransaction, her bakiye değişikliği için eklenen değiştirilemez
// ledger satırı. UserID veya GroupID'den tam olarak biri dolu olur.
type CreditTransaction struct {
	ID          uint                  `json:"id" gorm:"primaryKey"`
	UserID      *uint                 `json:"user_id" gorm:"index"`
	GroupID     *uint                 `json:"group_id" gorm:"index"`
	Amount      int                   `json:"amount" gorm:"not null"` // pozitif = yükleme, negatif = harcama
	Type        CreditTransactionType `json:"type" gorm:"not null"`
	AdminID     *uint                 `json:"admin_id"`
	Description string                `json:"description"`
	CreatedAt   time.Time             `json:"created_at"`
}

// UsageLog, başarılı ya da başarısız her işleme denemesi için tek satır.
// Oluşturulduktan sonra asla güncellenmez; sadece raporlama için okunur.
type UsageLog struct {
	ID               uint         `json:"id" gorm:"primaryKey"`
	UserID           uint         `json:"user_id" gorm:"not null;index"`
	DocumentType     DocumentType `json:"document_type" gorm:"not null"`
	FileName         string       `json:"file_name"`
	FileKey          string       `json:"file_key"`
	PageCount        int          `json:"page_count" gorm:"not null"`
	CreditsUsed      int          `json:"credits_used" gorm:"not null"`
	ProcessingStatus string       `json:"processing_status" gorm:"not null"` // success | failed
	ErrorMessage     string       `json:"error_message"`
	CreatedAt        time.Time    `json:"created_at"`
}

const (
	ProcessingSuccess = "success"
	ProcessingFailed  = "failed"
)

// Kredi doğrulama sonucu
type CreditValidation struct {
	IsValid          bool   `json:"is_valid"`
	AvailableCredits int    `json:"available_credits"`
	RequiredCredits  int    `json:"required_credits"`
	Shortage         int    `json:"shortage,omitempty"`
	IsGroupPool      bool   `json:"is_group_pool"`
	GroupName        string `json:"group_name,omitempty"`
	Message          string `json:"message,omitempty"`
}

// Kredi düşme sonucu
type CreditDeduction struct {
	Success          bool `json:"success"`
	CreditsDeducted  int  `json:"credits_deducted"`
	RemainingCredits int  `json:"remaining_credits"`
	IsGroupPool      bool `json:"is_group_pool"`
}

type AddCreditsRequest struct {
	Amount      int    `json:"amount" validate:"required,gt=0"`
	Description string `json:"description"`
}
