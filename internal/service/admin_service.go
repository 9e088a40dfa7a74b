package service

import (
	"errors"

	"github.com/sefazor/proparse-backend/internal/models"
	"github.com/sefazor/proparse-backend/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AdminService, admin konsolunun arkasındaki okuma ve müdahale işlemleri
type AdminService struct {
	userRepo     *repository.UserRepository
	groupRepo    *repository.GroupRepository
	creditRepo   *repository.CreditRepository
	docRepo      *repository.DocumentRepository
	usageRepo    *repository.UsageLogRepository
	purchaseRepo *repository.UserCreditPurchaseRepository
	logger       *zap.Logger
}

func NewAdminService(
	userRepo *repository.UserRepository,
	groupRepo *repository.GroupRepository,
	creditRepo *repository.CreditRepository,
	docRepo *repository.DocumentRepository,
	usageRepo *repository.UsageLogRepository,
	purchaseRepo *repository.UserCreditPurchaseRepository,
	logger *zap.Logger,
) *AdminService {
	return &AdminService{
		userRepo:     userRepo,
		groupRepo:    groupRepo,
		creditRepo:   creditRepo,
		docRepo:      docRepo,
		usageRepo:    usageRepo,
		purchaseRepo: purchaseRepo,
		logger:       logger,
	}
}

func (s *AdminService) ListUsers(offset, limit int, search string) ([]models.User, int64, error) {
	return s.userRepo.List(offset, limit, search)
}

// GetUserDetail, kullanıcıyı grup ve kredi geçmişiyle birlikte döner
func (s *AdminService) GetUserDetail(userID uint) (*models.AdminUserDetail, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, ErrAccountNotFound
	}

	detail := &models.AdminUserDetail{User: *user}

	if user.GroupID != nil {
		if group, err := s.groupRepo.GetByID(*user.GroupID); err == nil {
			detail.Group = group
		}
	}

	if txs, err := s.creditRepo.GetUserTransactions(userID, 0, 50); err == nil {
		detail.Transactions = txs
	}

	if purchases, err := s.purchaseRepo.GetUserPurchaseHistory(userID); err == nil {
		detail.Purchases = purchases
	}

	return detail, nil
}

// GrantCredits, kullanıcının bireysel bakiyesine admin eliyle kredi ekler.
// Grup havuzuna ekleme GroupService.AddCredits üzerinden yapılır.
func (s *AdminService) GrantCredits(adminID, userID uint, req models.AddCreditsRequest) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, ErrAccountNotFound
	}

	description := req.Description
	if description == "" {
		description = "credits granted by admin"
	}

	if err := s.creditRepo.AddUserCredits(userID, req.Amount, models.CreditTxAdminAdd, &adminID, description); err != nil {
		return nil, err
	}

	s.logger.Info("admin granted credits",
		zap.Uint("admin_id", adminID),
		zap.Uint("user_id", userID),
		zap.Int("amount", req.Amount),
	)

	user.Credits += req.Amount
	return user, nil
}

// UpdateUser, abonelik seviyesi, durumu ve rol değişikliklerini uygular
func (s *AdminService) UpdateUser(userID uint, req models.UpdateUserRequest) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, ErrAccountNotFound
	}

	if req.SubscriptionTier != nil {
		switch *req.SubscriptionTier {
		case models.TierFree, models.TierStarter, models.TierPro, models.TierEnterprise:
			user.SubscriptionTier = *req.SubscriptionTier
		default:
			return nil, errors.New("invalid subscription tier")
		}
	}

	if req.SubscriptionStatus != nil {
		switch *req.SubscriptionStatus {
		case models.SubscriptionActive, models.SubscriptionInactive, models.SubscriptionPastDue:
			user.SubscriptionStatus = *req.SubscriptionStatus
		default:
			return nil, errors.New("invalid subscription status")
		}
	}

	if req.Role != nil {
		if *req.Role != "user" && *req.Role != "admin" {
			return nil, errors.New("invalid role")
		}
		user.Role = *req.Role
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *AdminService) ListPayments(offset, limit int) ([]models.UserCreditPurchase, int64, error) {
	return s.purchaseRepo.List(offset, limit)
}

func (s *AdminService) ListUsageLogs(offset, limit int) ([]models.UsageLog, int64, error) {
	return s.usageRepo.List(offset, limit)
}

func (s *AdminService) ListGroups(offset, limit int) ([]models.Group, int64, error) {
	return s.groupRepo.List(offset, limit)
}

// GetStats, platform genelindeki sayaçları tek seferde toplar
func (s *AdminService) GetStats() (*models.AdminStats, error) {
	stats := &models.AdminStats{}

	var err error
	if stats.TotalUsers, err = s.userRepo.Count(); err != nil {
		return nil, err
	}
	if stats.TotalDocuments, err = s.docRepo.Count(); err != nil {
		return nil, err
	}
	if stats.TotalPages, err = s.usageRepo.TotalPagesProcessed(); err != nil {
		return nil, err
	}
	if stats.TotalCreditsSpent, err = s.creditRepo.TotalCreditsSpent(); err != nil {
		return nil, err
	}

	revenue, err := s.purchaseRepo.RevenueByPackage()
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	stats.RevenueByPackage = revenue
	for _, row := range revenue {
		stats.TotalRevenue += row.Revenue
	}

	return stats, nil
}
