package models

import (
	"time"

	"gorm.io/datatypes"
)

// Desteklenen doküman türleri için enum tanımı
type DocumentType string

const (
	DocTypeRentRoll           DocumentType = "rent_roll"
	DocTypeOfferingMemo       DocumentType = "offering_memo"
	DocTypeLeaseAgreement     DocumentType = "lease_agreement"
	DocTypeComparableSales    DocumentType = "comparable_sales"
	DocTypeFinancialStatement DocumentType = "financial_statement"
)

func IsValidDocumentType(t DocumentType) bool {
	switch t {
	case DocTypeRentRoll, DocTypeOfferingMemo, DocTypeLeaseAgreement,
		DocTypeComparableSales, DocTypeFinancialStatement:
		return true
	}
	return false
}

// Document, başarıyla işlenmiş bir dokümanın çıkarılan verisini saklar.
// GroupID, yükleyen kullanıcı bir gruba üyeyse damgalanır; böylece grup
// üyeleri birbirlerinin dokümanlarını görebilir.
type Document struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	UserID        uint           `json:"user_id" gorm:"not null;index"`
	GroupID       *uint          `json:"group_id" gorm:"index"`
	DocumentType  DocumentType   `json:"document_type" gorm:"not null"`
	FileName      string         `json:"file_name" gorm:"not null"`
	FileKey       string         `json:"file_key" gorm:"not null"`
	FileURL       string         `json:"file_url"`
	PageCount     int            `json:"page_count" gorm:"not null"`
	ExtractedData datatypes.JSON `json:"extracted_data" gorm:"type:jsonb"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type UploadResponse struct {
	FileKey   string `json:"file_key"`
	FileURL   string `json:"file_url"`
	FileName  string `json:"file_name"`
	PageCount int    `json:"page_count"`
}

type ClassifyResponse struct {
	DocumentType DocumentType `json:"document_type"`
	Confidence   float64      `json:"confidence"`
}

type ExtractRequest struct {
	FileKey      string       `json:"file_key" validate:"required"`
	FileName     string       `json:"file_name" validate:"required"`
	DocumentType DocumentType `json:"document_type" validate:"required,document_type"`
}

type ExtractResponse struct {
	DocumentID       uint           `json:"document_id,omitempty"`
	DocumentType     DocumentType   `json:"document_type"`
	PageCount        int            `json:"page_count"`
	CreditsUsed      int            `json:"credits_used"`
	RemainingCredits int            `json:"remaining_credits"`
	ExtractedData    datatypes.JSON `json:"extracted_data"`
}
