package service

import (
	"errors"
	"fmt"

	"github.com/sefazor/proparse-backend/internal/models"
)

var (
	ErrOwnerRemoval   = errors.New("cannot remove the group owner: transfer ownership or delete the group first")
	ErrGroupFull      = errors.New("group has reached its member capacity")
	ErrAlreadyInGroup = errors.New("user already belongs to a group")
	ErrGroupInactive  = errors.New("group is inactive")
)

type groupStore interface {
	Create(group *models.Group) error
	GetByID(id uint) (*models.Group, error)
	Update(group *models.Group) error
	Delete(id uint) error
	List(offset, limit int) ([]models.Group, int64, error)
	CreateMembership(m *models.GroupMembership) error
	GetMembershipByUserID(userID uint) (*models.GroupMembership, error)
	GetMemberships(groupID uint) ([]models.GroupMembership, error)
	UpdateMembership(m *models.GroupMembership) error
	DeleteMembership(groupID, userID uint) error
	CountMembers(groupID uint) (int64, error)
}

type groupUserStore interface {
	GetByID(id uint) (*models.User, error)
	SetGroup(userID uint, groupID *uint) error
}

type groupCreditStore interface {
	AddGroupCredits(groupID uint, amount int, txType models.CreditTransactionType, adminID *uint, description string) error
}

type groupNotifier interface {
	SendGroupInvitation(email, fullName, groupName string) error
}

type GroupService struct {
	groupRepo  groupStore
	userRepo   groupUserStore
	creditRepo groupCreditStore
	email      groupNotifier
}

func NewGroupService(groupRepo groupStore, userRepo groupUserStore, creditRepo groupCreditStore, email groupNotifier) *GroupService {
	return &GroupService{
		groupRepo:  groupRepo,
		userRepo:   userRepo,
		creditRepo: creditRepo,
		email:      email,
	}
}

// CreateGroup, grubu ve ilk owner üyeliğini birlikte oluşturur (admin işlemi)
func (s *GroupService) CreateGroup(adminID uint, req models.CreateGroupRequest) (*models.Group, error) {
	owner, err := s.userRepo.GetByID(req.OwnerID)
	if err != nil {
		return nil, errors.New("owner user not found")
	}

	if owner.GroupID != nil {
		return nil, ErrAlreadyInGroup
	}

	maxMembers := req.MaxMembers
	if maxMembers == 0 {
		maxMembers = 5
	}

	group := &models.Group{
		Name:       req.Name,
		MaxMembers: maxMembers,
		IsActive:   true,
	}

	if err := s.groupRepo.Create(group); err != nil {
		return nil, err
	}

	if err := s.groupRepo.CreateMembership(&models.GroupMembership{
		GroupID: group.ID,
		UserID:  owner.ID,
		Role:    models.GroupRoleOwner,
	}); err != nil {
		return nil, err
	}

	if err := s.userRepo.SetGroup(owner.ID, &group.ID); err != nil {
		return nil, err
	}

	// Başlangıç kredisi bakiyeyle birlikte ledger'a yazılır
	if req.InitialCredits > 0 {
		if err := s.creditRepo.AddGroupCredits(group.ID, req.InitialCredits, models.CreditTxInitialCreation, &adminID,
			fmt.Sprintf("group created with %d credits", req.InitialCredits)); err != nil {
			return nil, err
		}
		group.Credits = req.InitialCredits
	}

	return group, nil
}

// AddMember, kapasite ve tek-grup-üyeliği kurallarını uygulayarak üye ekler
func (s *GroupService) AddMember(groupID uint, req models.AddGroupMemberRequest) error {
	group, err := s.groupRepo.GetByID(groupID)
	if err != nil {
		return errors.New("group not found")
	}

	if !group.IsActive {
		return ErrGroupInactive
	}

	count, err := s.groupRepo.CountMembers(groupID)
	if err != nil {
		return err
	}
	if int(count) >= group.MaxMembers {
		return ErrGroupFull
	}

	user, err := s.userRepo.GetByID(req.UserID)
	if err != nil {
		return errors.New("user not found")
	}

	if user.GroupID != nil {
		return ErrAlreadyInGroup
	}

	if err := s.groupRepo.CreateMembership(&models.GroupMembership{
		GroupID: groupID,
		UserID:  user.ID,
		Role:    models.GroupRoleMember,
	}); err != nil {
		return err
	}

	if err := s.userRepo.SetGroup(user.ID, &groupID); err != nil {
		return err
	}

	// Davet emaili fire-and-forget
	go s.email.SendGroupInvitation(user.Email, user.FullName, group.Name)

	return nil
}

// RemoveMember, owner dışındaki bir üyeyi gruptan çıkarır ve grup
// referansını temizler. Owner için önce devretme ya da silme gerekir.
func (s *GroupService) RemoveMember(groupID, userID uint) error {
	membership, err := s.groupRepo.GetMembershipByUserID(userID)
	if err != nil || membership.GroupID != groupID {
		return errors.New("user is not a member of this group")
	}

	if membership.Role == models.GroupRoleOwner {
		return ErrOwnerRemoval
	}

	if err := s.groupRepo.DeleteMembership(groupID, userID); err != nil {
		return err
	}

	return s.userRepo.SetGroup(userID, nil)
}

func (s *GroupService) TransferOwnership(groupID uint, req models.TransferOwnershipRequest) error {
	members, err := s.groupRepo.GetMemberships(groupID)
	if err != nil {
		return err
	}

	var owner, newOwner *models.GroupMembership
	for i := range members {
		if members[i].Role == models.GroupRoleOwner {
			owner = &members[i]
		}
		if members[i].UserID == req.NewOwnerID {
			newOwner = &members[i]
		}
	}

	if owner == nil {
		return errors.New("group has no owner")
	}
	if newOwner == nil {
		return errors.New("new owner is not a member of this group")
	}
	if owner.UserID == newOwner.UserID {
		return errors.New("user is already the group owner")
	}

	owner.Role = models.GroupRoleMember
	newOwner.Role = models.GroupRoleOwner

	if err := s.groupRepo.UpdateMembership(owner); err != nil {
		return err
	}
	return s.groupRepo.UpdateMembership(newOwner)
}

// DeleteGroup, önce tüm üyeleri gruptan ayırır sonra grubu siler
func (s *GroupService) DeleteGroup(groupID uint) error {
	members, err := s.groupRepo.GetMemberships(groupID)
	if err != nil {
		return err
	}

	for _, m := range members {
		if err := s.userRepo.SetGroup(m.UserID, nil); err != nil {
			return err
		}
		if err := s.groupRepo.DeleteMembership(groupID, m.UserID); err != nil {
			return err
		}
	}

	return s.groupRepo.Delete(groupID)
}

func (s *GroupService) SetActive(groupID uint, active bool) error {
	group, err := s.groupRepo.GetByID(groupID)
	if err != nil {
		return errors.New("group not found")
	}

	group.IsActive = active
	return s.groupRepo.Update(group)
}

func (s *GroupService) AddCredits(groupID uint, amount int, adminID *uint, description string) error {
	if _, err := s.groupRepo.GetByID(groupID); err != nil {
		return errors.New("group not found")
	}

	return s.creditRepo.AddGroupCredits(groupID, amount, models.CreditTxAdminAdd, adminID, description)
}

func (s *GroupService) GetGroup(groupID uint) (*models.GroupResponse, error) {
	group, err := s.groupRepo.GetByID(groupID)
	if err != nil {
		return nil, errors.New("group not found")
	}

	members, err := s.groupRepo.GetMemberships(groupID)
	if err != nil {
		return nil, err
	}

	resp := &models.GroupResponse{
		ID:               group.ID,
		Name:             group.Name,
		Credits:          group.Credits,
		SubscriptionTier: group.SubscriptionTier,
		MaxMembers:       group.MaxMembers,
		IsActive:         group.IsActive,
		CreatedAt:        group.CreatedAt,
	}

	for _, m := range members {
		member := models.GroupMemberResponse{
			UserID:   m.UserID,
			Role:     m.Role,
			JoinedAt: m.CreatedAt,
		}
		if user, err := s.userRepo.GetByID(m.UserID); err == nil {
			member.FullName = user.FullName
			member.Email = user.Email
		}
		resp.Members = append(resp.Members, member)
	}

	return resp, nil
}

func (s *GroupService) ListGroups(offset, limit int) ([]models.Group, int64, error) {
	return s.groupRepo.List(offset, limit)
}
