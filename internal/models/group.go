package models

import (
	"time"
)

// Grup üyelik rolleri
type GroupRole string

const (
	GroupRoleOwner  GroupRole = "owner"
	GroupRoleMember GroupRole = "member"
)

// Group, birden fazla kullanıcının ortak kredi havuzundan harcama yapmasını sağlar
type Group struct {
	ID               uint             `json:"id" gorm:"primaryKey"`
	Name             string           `json:"name" gorm:"not null"`
	Credits          int              `json:"credits" gorm:"not null;default:0"`
	SubscriptionTier SubscriptionTier `json:"subscription_tier" gorm:"not null;default:'starter'"`
	MaxMembers       int              `json:"max_members" gorm:"not null;default:5"`
	IsActive         bool             `json:"is_active" gorm:"default:true"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// Bir kullanıcı aynı anda sadece tek bir gruba üye olabilir
type GroupMembership struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	GroupID   uint      `json:"group_id" gorm:"not null;index"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex"`
	Role      GroupRole `json:"role" gorm:"not null;default:'member'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateGroupRequest struct {
	Name           string `json:"name" validate:"required"`
	OwnerID        uint   `json:"owner_id" validate:"required"`
	InitialCredits int    `json:"initial_credits" validate:"gte=0"`
	MaxMembers     int    `json:"max_members" validate:"gte=1"`
}

type AddGroupMemberRequest struct {
	UserID uint `json:"user_id" validate:"required"`
}

type TransferOwnershipRequest struct {
	NewOwnerID uint `json:"new_owner_id" validate:"required"`
}

type GroupMemberResponse struct {
	UserID   uint      `json:"user_id"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
	Role     GroupRole `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

type GroupResponse struct {
	ID               uint                  `json:"id"`
	Name             string                `json:"name"`
	Credits          int                   `json:"credits"`
	SubscriptionTier SubscriptionTier      `json:"subscription_tier"`
	MaxMembers       int                   `json:"max_members"`
	IsActive         bool                  `json:"is_active"`
	Members          []GroupMemberResponse `json:"members,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
}
