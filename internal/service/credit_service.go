package service

import (
	"errors"
	"fmt"

	"github.com/sefazor/proparse-backend/internal/models"
	"go.uber.org/zap"
)

// Bloklayan hesap hataları; kredi yetersizliğinden ayrı tutulur
var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountInactive     = errors.New("account is inactive")
	ErrInsufficientCredits = errors.New("insufficient credits")
)

// Seviye bazlı düşük bakiye uyarı eşikleri
var lowCreditThresholds = map[models.SubscriptionTier]int{
	models.TierFree:       5,
	models.TierStarter:    10,
	models.TierPro:        25,
	models.TierEnterprise: 50,
}

const defaultLowCreditThreshold = 5

// CreditHolder, "bireysel mi grup havuzu mu" dallanmasını tek noktada toplar.
// Kullanıcı aktif bir gruba üyeyse harcama grubun bakiyesinden yapılır;
// grup pasifse bireysel bakiyeye geri düşülür.
type CreditHolder struct {
	Balance int
	IsGroup bool
	Name    string
	GroupID *uint
	Tier    models.SubscriptionTier
}

type creditUserStore interface {
	GetByID(id uint) (*models.User, error)
	IncrementUsage(userID uint, pages int) error
}

type creditGroupStore interface {
	GetByID(id uint) (*models.Group, error)
}

type creditStore interface {
	Deduct(userID uint, pages int) (bool, error)
	CreateTransaction(tx *models.CreditTransaction) error
}

type lowCreditNotifier interface {
	SendLowCreditWarning(email, fullName string, remainingCredits int) error
}

type CreditService struct {
	userRepo   creditUserStore
	groupRepo  creditGroupStore
	creditRepo creditStore
	email      lowCreditNotifier
	logger     *zap.Logger
}

func NewCreditService(userRepo creditUserStore, groupRepo creditGroupStore, creditRepo creditStore, email lowCreditNotifier, logger *zap.Logger) *CreditService {
	return &CreditService{
		userRepo:   userRepo,
		groupRepo:  groupRepo,
		creditRepo: creditRepo,
		email:      email,
		logger:     logger,
	}
}

// ResolveHolder, kullanıcının etkin bakiyesini döner
func (s *CreditService) ResolveHolder(user *models.User) (*CreditHolder, error) {
	if user.GroupID != nil {
		group, err := s.groupRepo.GetByID(*user.GroupID)
		if err == nil && group.IsActive {
			return &CreditHolder{
				Balance: group.Credits,
				IsGroup: true,
				Name:    group.Name,
				GroupID: &group.ID,
				Tier:    group.SubscriptionTier,
			}, nil
		}
		// Grup pasif ya da bulunamadı: bireysel bakiyeye geri düş
	}

	return &CreditHolder{
		Balance: user.Credits,
		IsGroup: false,
		Name:    user.FullName,
		Tier:    user.SubscriptionTier,
	}, nil
}

// ValidateCredits, istenen sayfa sayısı için etkin bakiyenin yeterli olup
// olmadığını kontrol eder. Düşük bakiye uyarısı fire-and-forget gönderilir
// ve doğrulama sonucunu asla etkilemez.
func (s *CreditService) ValidateCredits(userID uint, requiredPages int) (*models.CreditValidation, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, ErrAccountNotFound
	}

	if user.SubscriptionStatus == models.SubscriptionInactive {
		return nil, ErrAccountInactive
	}

	holder, err := s.ResolveHolder(user)
	if err != nil {
		return nil, err
	}

	result := &models.CreditValidation{
		AvailableCredits: holder.Balance,
		RequiredCredits:  requiredPages,
		IsGroupPool:      holder.IsGroup,
	}
	if holder.IsGroup {
		result.GroupName = holder.Name
	}

	if holder.Balance < requiredPages {
		result.IsValid = false
		result.Shortage = requiredPages - holder.Balance
		if holder.IsGroup {
			result.Message = fmt.Sprintf("insufficient credits: group %q needs %d more credits (%d available, %d required)",
				holder.Name, result.Shortage, holder.Balance, requiredPages)
		} else {
			result.Message = fmt.Sprintf("insufficient credits: you need %d more credits (%d available, %d required)",
				result.Shortage, holder.Balance, requiredPages)
		}
		return result, nil
	}

	result.IsValid = true

	// Düşme sonrası bakiye eşiğin altına inecekse uyar
	remaining := holder.Balance - requiredPages
	if remaining <= s.thresholdFor(holder.Tier) {
		go func() {
			if err := s.email.SendLowCreditWarning(user.Email, user.FullName, remaining); err != nil {
				s.logger.Warn("low credit warning email failed",
					zap.Uint("user_id", user.ID),
					zap.Error(err),
				)
			}
		}()
	}

	return result, nil
}

// DeductCredits, doğrulanmış sayfa sayısını etkin bakiyeden atomik olarak
// düşer. Yarış kaybedilirse (doğrulama ile düşme arasında bakiye eridi)
// success=false ve ErrInsufficientCredits döner; çağıran bunu uyarıya
// çevirir, hesaplanmış sonucu kullanıcıdan esirgemez.
func (s *CreditService) DeductCredits(userID uint, pages int) (*models.CreditDeduction, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, ErrAccountNotFound
	}

	holder, err := s.ResolveHolder(user)
	if err != nil {
		return nil, err
	}

	ok, err := s.creditRepo.Deduct(userID, pages)
	if err != nil {
		return nil, fmt.Errorf("credit deduction failed: %w", err)
	}

	if !ok {
		return &models.CreditDeduction{
			Success:          false,
			RemainingCredits: holder.Balance,
			IsGroupPool:      holder.IsGroup,
		}, ErrInsufficientCredits
	}

	// Yeni bakiyeyi tekrar oku
	user, err = s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	holder, err = s.ResolveHolder(user)
	if err != nil {
		return nil, err
	}

	// Ledger satırı: bireysel ya da grup granülaritesinde
	tx := &models.CreditTransaction{
		Amount:      -pages,
		Type:        models.CreditTxDeduction,
		Description: fmt.Sprintf("%d page(s) processed", pages),
	}
	if holder.IsGroup {
		tx.GroupID = holder.GroupID
	} else {
		tx.UserID = &user.ID
	}
	if err := s.creditRepo.CreateTransaction(tx); err != nil {
		s.logger.Warn("failed to record credit transaction",
			zap.Uint("user_id", userID),
			zap.Error(err),
		)
	}

	// Kümülatif kullanım sayaçları
	if err := s.userRepo.IncrementUsage(userID, pages); err != nil {
		s.logger.Warn("failed to increment usage counters",
			zap.Uint("user_id", userID),
			zap.Error(err),
		)
	}

	return &models.CreditDeduction{
		Success:          true,
		CreditsDeducted:  pages,
		RemainingCredits: holder.Balance,
		IsGroupPool:      holder.IsGroup,
	}, nil
}

func (s *CreditService) thresholdFor(tier models.SubscriptionTier) int {
	if t, ok := lowCreditThresholds[tier]; ok {
		return t
	}
	return defaultLowCreditThreshold
}
