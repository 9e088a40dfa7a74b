package models

import (
	"time"
)

// Abonelik seviyeleri için enum tanımı
type SubscriptionTier string

const (
	TierFree       SubscriptionTier = "free"
	TierStarter    SubscriptionTier = "starter"
	TierPro        SubscriptionTier = "pro"
	TierEnterprise SubscriptionTier = "enterprise"
)

// Abonelik durumları
const (
	SubscriptionActive   = "active"
	SubscriptionInactive = "inactive"
	SubscriptionPastDue  = "past_due"
)

type User struct {
	ID                 uint             `json:"id" gorm:"primaryKey"`
	FullName           string           `json:"full_name" gorm:"not null"`
	Email              string           `json:"email" gorm:"unique;not null"`
	Password           string           `json:"-" gorm:"not null"`
	Role               string           `json:"role" gorm:"not null;default:'user'"`
	Credits            int              `json:"credits" gorm:"not null;default:10"`
	SubscriptionTier   SubscriptionTier `json:"subscription_tier" gorm:"not null;default:'free'"`
	SubscriptionStatus string           `json:"subscription_status" gorm:"not null;default:'active'"`
	PagesProcessed     int              `json:"pages_processed" gorm:"not null;default:0"`
	DocumentsProcessed int              `json:"documents_processed" gorm:"not null;default:0"`
	GroupID            *uint            `json:"group_id" gorm:"index"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}
