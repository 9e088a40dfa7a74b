package service

import (
	"errors"

	"github.com/sefazor/proparse-backend/internal/models"
	"github.com/sefazor/proparse-backend/internal/repository"
	"github.com/sefazor/proparse-backend/pkg/bcrypt"
)

type UserService struct {
	userRepo   *repository.UserRepository
	usageRepo  *repository.UsageLogRepository
	creditRepo *repository.CreditRepository
	groupRepo  *repository.GroupRepository
}

func NewUserService(
	userRepo *repository.UserRepository,
	usageRepo *repository.UsageLogRepository,
	creditRepo *repository.CreditRepository,
	groupRepo *repository.GroupRepository,
) *UserService {
	return &UserService{
		userRepo:   userRepo,
		usageRepo:  usageRepo,
		creditRepo: creditRepo,
		groupRepo:  groupRepo,
	}
}

func (s *UserService) GetUserByID(id uint) (*models.User, error) {
	return s.userRepo.GetByID(id)
}

// GetCreditBalance, kullanıcının etkin bakiyesini döner (grup üyesiyse
// grubun havuzu)
func (s *UserService) GetCreditBalance(userID uint) (*models.CreditValidation, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, errors.New("user not found")
	}

	balance := &models.CreditValidation{
		IsValid:          true,
		AvailableCredits: user.Credits,
	}

	if user.GroupID != nil {
		group, err := s.groupRepo.GetByID(*user.GroupID)
		if err == nil && group.IsActive {
			balance.AvailableCredits = group.Credits
			balance.IsGroupPool = true
			balance.GroupName = group.Name
		}
	}

	return balance, nil
}

func (s *UserService) UpdateProfile(userID uint, req models.UpdateProfileRequest) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, errors.New("user not found")
	}

	user.FullName = req.FullName
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *UserService) ChangePassword(userID uint, req models.ChangePasswordRequest) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}

	if err := bcrypt.ComparePassword(user.Password, req.CurrentPassword); err != nil {
		return errors.New("current password is incorrect")
	}

	hashedPassword, err := bcrypt.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	return s.userRepo.UpdatePassword(user.ID, hashedPassword)
}

func (s *UserService) GetUsageHistory(userID uint, offset, limit int) ([]models.UsageLog, int64, error) {
	return s.usageRepo.GetByUserID(userID, offset, limit)
}

func (s *UserService) GetCreditTransactions(userID uint, offset, limit int) ([]models.CreditTransaction, error) {
	return s.creditRepo.GetUserTransactions(userID, offset, limit)
}
