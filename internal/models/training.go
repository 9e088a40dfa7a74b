package models

import (
	"time"

	"gorm.io/datatypes"
)

// Eğitim dokümanı durumları
const (
	TrainingStatusPending   = "pending"
	TrainingStatusExtracted = "extracted"
	TrainingStatusVerified  = "verified"
	TrainingStatusRejected  = "rejected"
	TrainingStatusExported  = "exported"
)

// TrainingDocument, fine-tuning veri kümesi için insan onayından geçen
// tek bir örnek dokümanı temsil eder.
type TrainingDocument struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	BatchID         string         `json:"batch_id" gorm:"not null;index"`
	DocumentType    DocumentType   `json:"document_type" gorm:"not null;index"`
	FileName        string         `json:"file_name" gorm:"not null"`
	FileKey         string         `json:"file_key" gorm:"not null"`
	FileURL         string         `json:"file_url"`
	PageCount       int            `json:"page_count"`
	ExtractedData   datatypes.JSON `json:"extracted_data" gorm:"type:jsonb"`
	VerifiedData    datatypes.JSON `json:"verified_data" gorm:"type:jsonb"`
	Status          string         `json:"status" gorm:"not null;default:'pending'"`
	VerifiedBy      *uint          `json:"verified_by"`
	RejectionReason string         `json:"rejection_reason"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Fine-tune işi durumları
const (
	FineTuneStatusPending  = "pending"
	FineTuneStatusExported = "exported"
)

// FineTuneJob, doğrulanan örnek sayısı eşiği aşınca oluşturulan kayıt.
// Zamanlayıcı yok; eşik kontrolü doğrulama anında senkron yapılır.
type FineTuneJob struct {
	ID            uint         `json:"id" gorm:"primaryKey"`
	DocumentType  DocumentType `json:"document_type" gorm:"not null"`
	DocumentCount int          `json:"document_count" gorm:"not null"`
	ExportKey     string       `json:"export_key"`
	Status        string       `json:"status" gorm:"not null;default:'pending'"`
	TriggeredAt   time.Time    `json:"triggered_at"`
	CreatedAt     time.Time    `json:"created_at"`
}

type VerifyTrainingRequest struct {
	VerifiedData datatypes.JSON `json:"verified_data" validate:"required"`
}

type RejectTrainingRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type TrainingBatchResponse struct {
	BatchID   string             `json:"batch_id"`
	Documents []TrainingDocument `json:"documents"`
	Failed    []string           `json:"failed,omitempty"`
}

type TrainingExportResponse struct {
	ExportKey     string `json:"export_key"`
	DocumentCount int    `json:"document_count"`
}
