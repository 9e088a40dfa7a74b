package service

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/sefazor/proparse-backend/internal/models"
	"github.com/sefazor/proparse-backend/internal/repository"
	"github.com/sefazor/proparse-backend/pkg/payment"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/price"
	"github.com/stripe/stripe-go/v74/product"
)

type PaymentService struct {
	stripeService *payment.StripeService
	userRepo      *repository.UserRepository
	groupRepo     *repository.GroupRepository
	packageRepo   *repository.CreditPackageRepository
	purchaseRepo  *repository.UserCreditPurchaseRepository
	creditRepo    *repository.CreditRepository
}

func NewPaymentService(
	stripeService *payment.StripeService,
	userRepo *repository.UserRepository,
	groupRepo *repository.GroupRepository,
	packageRepo *repository.CreditPackageRepository,
	purchaseRepo *repository.UserCreditPurchaseRepository,
	creditRepo *repository.CreditRepository,
) *PaymentService {
	return &PaymentService{
		stripeService: stripeService,
		userRepo:      userRepo,
		groupRepo:     groupRepo,
		packageRepo:   packageRepo,
		purchaseRepo:  purchaseRepo,
		creditRepo:    creditRepo,
	}
}

func (s *PaymentService) CreateCheckoutSession(userID uint, packageID uint) (*models.CheckoutSession, error) {
	// Paketi bul
	creditPackage, err := s.packageRepo.GetByID(packageID)
	if err != nil {
		return nil, err
	}

	// Kullanıcıyı bul
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	// Stripe'da geçici product oluştur
	productParams := &stripe.ProductParams{
		Name:        stripe.String(creditPackage.Name),
		Description: stripe.String(fmt.Sprintf("%d page credits", creditPackage.Credits)),
	}
	prod, err := product.New(productParams)
	if err != nil {
		return nil, err
	}

	// Product için price oluştur
	priceParams := &stripe.PriceParams{
		Product:    stripe.String(prod.ID),
		UnitAmount: stripe.Int64(int64(creditPackage.Price * 100)), // USD to cents
		Currency:   stripe.String(string(stripe.CurrencyUSD)),
	}
	p, err := price.New(priceParams)
	if err != nil {
		return nil, err
	}

	// Checkout session oluştur
	session, err := s.stripeService.CreateCheckoutSession(
		user.Email,
		p.ID,
		map[string]string{
			"user_id":    fmt.Sprintf("%d", userID),
			"package_id": fmt.Sprintf("%d", packageID),
		},
	)
	if err != nil {
		return nil, err
	}

	// Purchase kaydı oluştur
	purchase := &models.UserCreditPurchase{
		UserID:          userID,
		PackageID:       packageID,
		Credits:         creditPackage.Credits,
		Price:           creditPackage.Price,
		StripeSessionID: session.ID,
		Status:          models.PurchaseStatusPending,
	}

	if err := s.purchaseRepo.Create(purchase); err != nil {
		return nil, err
	}

	return &models.CheckoutSession{
		ID:  session.ID,
		URL: session.URL,
	}, nil
}

// Webhook handler for Stripe events
func (s *PaymentService) HandleStripeWebhook(event *stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return err
		}

		userID, err := strconv.ParseUint(session.Metadata["user_id"], 10, 32)
		if err != nil {
			return err
		}

		// Purchase'ı bul ve güncelle
		purchase, err := s.purchaseRepo.GetBySessionID(session.ID)
		if err != nil {
			return err
		}

		purchase.Status = models.PurchaseStatusCompleted
		if err := s.purchaseRepo.Update(purchase); err != nil {
			return err
		}

		// Krediyi etkin havuza yükle (aktif grup varsa grup, yoksa birey)
		return s.creditPurchasedAmount(uint(userID), purchase.Credits, purchase.PackageID)

	case "checkout.session.expired", "checkout.session.async_payment_failed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return err
		}

		purchase, err := s.purchaseRepo.GetBySessionID(session.ID)
		if err != nil {
			return err
		}

		purchase.Status = models.PurchaseStatusFailed
		return s.purchaseRepo.Update(purchase)

	case "charge.refunded":
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			return err
		}

		if charge.PaymentIntent == nil || charge.PaymentIntent.Metadata == nil {
			return nil
		}

		sessionID, ok := charge.PaymentIntent.Metadata["checkout_session_id"]
		if !ok {
			return nil // Bizim sistemimizle ilgisi yok
		}

		purchase, err := s.purchaseRepo.GetBySessionID(sessionID)
		if err != nil {
			return err
		}

		purchase.Status = models.PurchaseStatusRefunded
		if err := s.purchaseRepo.Update(purchase); err != nil {
			return err
		}

		// Krediyi geri al (eksi değere düşmemesine dikkat et)
		user, err := s.userRepo.GetByID(purchase.UserID)
		if err != nil {
			return err
		}

		refund := purchase.Credits
		if user.Credits < refund {
			refund = user.Credits
		}
		if refund == 0 {
			return nil
		}

		return s.creditRepo.AddUserCredits(purchase.UserID, -refund, models.CreditTxRefund, nil,
			fmt.Sprintf("refund of purchase #%d", purchase.ID))
	}

	return nil
}

// creditPurchasedAmount, satın alınan krediyi kullanıcının etkin
// havuzuna (aktif grup varsa grup havuzuna) yükler
func (s *PaymentService) creditPurchasedAmount(userID uint, credits int, packageID uint) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}

	description := fmt.Sprintf("purchase of package #%d", packageID)

	if user.GroupID != nil {
		group, err := s.groupRepo.GetByID(*user.GroupID)
		if err == nil && group.IsActive {
			return s.creditRepo.AddGroupCredits(group.ID, credits, models.CreditTxPurchase, nil, description)
		}
	}

	return s.creditRepo.AddUserCredits(userID, credits, models.CreditTxPurchase, nil, description)
}

func (s *PaymentService) GetCreditPackages() ([]models.CreditPackage, error) {
	return s.packageRepo.GetAll()
}

func (s *PaymentService) GetUserPurchaseHistory(userID uint) ([]models.UserCreditPurchase, error) {
	return s.purchaseRepo.GetUserPurchaseHistory(userID)
}
