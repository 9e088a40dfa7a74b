package repository

import (
	"github.com/sefazor/proparse-backend/internal/models"
	"gorm.io/gorm"
)

type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{
		db: db,
	}
}

func (r *GroupRepository) Create(group *models.Group) error {
	return r.db.Create(group).Error
}

func (r *GroupRepository) GetByID(id uint) (*models.Group, error) {
	var group models.Group
	err := r.db.First(&group, id).Error
	return &group, err
}

func (r *GroupRepository) Update(group *models.Group) error {
	return r.db.Save(group).Error
}

func (r *GroupRepository) Delete(id uint) error {
	return r.db.Delete(&models.Group{}, id).Error
}

func (r *GroupRepository) List(offset, limit int) ([]models.Group, int64, error) {
	var groups []models.Group
	var total int64

	if err := r.db.Model(&models.Group{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&groups).Error
	return groups, total, err
}

// Üyelik işlemleri

func (r *GroupRepository) CreateMembership(m *models.GroupMembership) error {
	return r.db.Create(m).Error
}

func (r *GroupRepository) GetMembershipByUserID(userID uint) (*models.GroupMembership, error) {
	var m models.GroupMembership
	err := r.db.Where("user_id = ?", userID).First(&m).Error
	return &m, err
}

func (r *GroupRepository) GetMemberships(groupID uint) ([]models.GroupMembership, error) {
	var members []models.GroupMembership
	err := r.db.Where("group_id = ?", groupID).Order("created_at ASC").Find(&members).Error
	return members, err
}

func (r *GroupRepository) UpdateMembership(m *models.GroupMembership) error {
	return r.db.Save(m).Error
}

func (r *GroupRepository) DeleteMembership(groupID, userID uint) error {
	return r.db.Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupMembership{}).Error
}

func (r *GroupRepository) CountMembers(groupID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.GroupMembership{}).Where("group_id = ?", groupID).Count(&count).Error
	return count, err
}
