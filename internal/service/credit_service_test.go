package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sefazor/proparse-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeUserStore struct {
	mu    sync.Mutex
	users map[uint]*models.User
	usage map[uint]int
}

func newFakeUserStore(users ...*models.User) *fakeUserStore {
	s := &fakeUserStore{users: map[uint]*models.User{}, usage: map[uint]int{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) GetByID(id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *fakeUserStore) IncrementUsage(userID uint, pages int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage[userID] += pages
	return nil
}

type fakeGroupStore struct {
	groups map[uint]*models.Group
}

func (s *fakeGroupStore) GetByID(id uint) (*models.Group, error) {
	g, ok := s.groups[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *g
	return &copied, nil
}

type fakeCreditStore struct {
	deductOK     bool
	deductErr    error
	deductCalls  int
	transactions []models.CreditTransaction
	onDeduct     func(userID uint, pages int)
}

func (s *fakeCreditStore) Deduct(userID uint, pages int) (bool, error) {
	s.deductCalls++
	if s.onDeduct != nil {
		s.onDeduct(userID, pages)
	}
	return s.deductOK, s.deductErr
}

func (s *fakeCreditStore) CreateTransaction(tx *models.CreditTransaction) error {
	s.transactions = append(s.transactions, *tx)
	return nil
}

type fakeNotifier struct {
	warnings chan int
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{warnings: make(chan int, 8)}
}

func (n *fakeNotifier) SendLowCreditWarning(email, fullName string, remainingCredits int) error {
	n.warnings <- remainingCredits
	return nil
}

func (n *fakeNotifier) assertWarned(t *testing.T, remaining int) {
	t.Helper()
	select {
	case got := <-n.warnings:
		assert.Equal(t, remaining, got)
	case <-time.After(time.Second):
		t.Fatal("expected a low credit warning, got none")
	}
}

func (n *fakeNotifier) assertSilent(t *testing.T) {
	t.Helper()
	select {
	case <-n.warnings:
		t.Fatal("unexpected low credit warning")
	case <-time.After(50 * time.Millisecond):
	}
}

func newCreditService(users *fakeUserStore, groups *fakeGroupStore, credits *fakeCreditStore, notifier *fakeNotifier) *CreditService {
	if groups == nil {
		groups = &fakeGroupStore{groups: map[uint]*models.Group{}}
	}
	return NewCreditService(users, groups, credits, notifier, zap.NewNop())
}

func TestValidateCredits_Individual(t *testing.T) {
	users := newFakeUserStore(&models.User{
		ID: 1, FullName: "Jane", Email: "jane@example.com",
		Credits: 100, SubscriptionTier: models.TierPro, SubscriptionStatus: models.SubscriptionActive,
	})
	notifier := newFakeNotifier()
	svc := newCreditService(users, nil, &fakeCreditStore{deductOK: true}, notifier)

	result, err := svc.ValidateCredits(1, 10)
	require.NoError(t, err)

	assert.True(t, result.IsValid)
	assert.Equal(t, 100, result.AvailableCredits)
	assert.Equal(t, 10, result.RequiredCredits)
	assert.False(t, result.IsGroupPool)
	notifier.assertSilent(t)
}

func TestValidateCredits_Insufficient(t *testing.T) {
	users := newFakeUserStore(&models.User{
		ID: 1, FullName: "Jane", Email: "jane@example.com",
		Credits: 3, SubscriptionStatus: models.SubscriptionActive,
	})
	svc := newCreditService(users, nil, &fakeCreditStore{}, newFakeNotifier())

	result, err := svc.ValidateCredits(1, 10)
	require.NoError(t, err)

	assert.False(t, result.IsValid)
	assert.Equal(t, 7, result.Shortage)
	assert.Contains(t, result.Message, "7 more credits")
}

func TestValidateCredits_AccountErrors(t *testing.T) {
	users := newFakeUserStore(&models.User{
		ID: 2, Credits: 100, SubscriptionStatus: models.SubscriptionInactive,
	})
	svc := newCreditService(users, nil, &fakeCreditStore{}, newFakeNotifier())

	_, err := svc.ValidateCredits(99, 1)
	assert.ErrorIs(t, err, ErrAccountNotFound)

	_, err = svc.ValidateCredits(2, 1)
	assert.ErrorIs(t, err, ErrAccountInactive)
}

func TestValidateCredits_GroupPool(t *testing.T) {
	groupID := uint(7)
	users := newFakeUserStore(&models.User{
		ID: 1, FullName: "Jane", Email: "jane@example.com",
		Credits: 0, GroupID: &groupID, SubscriptionStatus: models.SubscriptionActive,
	})
	groups := &fakeGroupStore{groups: map[uint]*models.Group{
		7: {ID: 7, Name: "Acme Realty", Credits: 500, IsActive: true, SubscriptionTier: models.TierStarter},
	}}
	svc := newCreditService(users, groups, &fakeCreditStore{}, newFakeNotifier())

	result, err := svc.ValidateCredits(1, 20)
	require.NoError(t, err)

	assert.True(t, result.IsValid)
	assert.True(t, result.IsGroupPool)
	assert.Equal(t, "Acme Realty", result.GroupName)
	assert.Equal(t, 500, result.AvailableCredits)
}

func TestValidateCredits_InactiveGroupFallsBackToIndividual(t *testing.T) {
	groupID := uint(7)
	users := newFakeUserStore(&models.User{
		ID: 1, FullName: "Jane", Email: "jane@example.com",
		Credits: 30, GroupID: &groupID, SubscriptionStatus: models.SubscriptionActive,
	})
	groups := &fakeGroupStore{groups: map[uint]*models.Group{
		7: {ID: 7, Name: "Acme Realty", Credits: 500, IsActive: false},
	}}
	svc := newCreditService(users, groups, &fakeCreditStore{}, newFakeNotifier())

	result, err := svc.ValidateCredits(1, 20)
	require.NoError(t, err)

	assert.True(t, result.IsValid)
	assert.False(t, result.IsGroupPool)
	assert.Equal(t, 30, result.AvailableCredits)
}

func TestValidateCredits_GroupShortageNamesGroup(t *testing.T) {
	groupID := uint(7)
	users := newFakeUserStore(&models.User{
		ID: 1, Credits: 0, GroupID: &groupID, SubscriptionStatus: models.SubscriptionActive,
	})
	groups := &fakeGroupStore{groups: map[uint]*models.Group{
		7: {ID: 7, Name: "Acme Realty", Credits: 2, IsActive: true},
	}}
	svc := newCreditService(users, groups, &fakeCreditStore{}, newFakeNotifier())

	result, err := svc.ValidateCredits(1, 5)
	require.NoError(t, err)

	assert.False(t, result.IsValid)
	assert.Contains(t, result.Message, "Acme Realty")
}

func TestValidateCredits_LowBalanceWarning(t *testing.T) {
	// Pro eşiği 25: 30 - 10 = 20 kaldığında uyarı gider
	users := newFakeUserStore(&models.User{
		ID: 1, FullName: "Jane", Email: "jane@example.com",
		Credits: 30, SubscriptionTier: models.TierPro, SubscriptionStatus: models.SubscriptionActive,
	})
	notifier := newFakeNotifier()
	svc := newCreditService(users, nil, &fakeCreditStore{}, notifier)

	result, err := svc.ValidateCredits(1, 10)
	require.NoError(t, err)
	require.True(t, result.IsValid)

	notifier.assertWarned(t, 20)
}

func TestValidateCredits_UnknownTierUsesDefaultThreshold(t *testing.T) {
	users := newFakeUserStore(&models.User{
		ID: 1, FullName: "Jane", Email: "jane@example.com",
		Credits: 10, SubscriptionTier: "legacy", SubscriptionStatus: models.SubscriptionActive,
	})
	notifier := newFakeNotifier()
	svc := newCreditService(users, nil, &fakeCreditStore{}, notifier)

	// 10 - 3 = 7 > varsayılan eşik 5: uyarı yok
	_, err := svc.ValidateCredits(1, 3)
	require.NoError(t, err)
	notifier.assertSilent(t)

	// 10 - 6 = 4 <= 5: uyarı var
	_, err = svc.ValidateCredits(1, 6)
	require.NoError(t, err)
	notifier.assertWarned(t, 4)
}

func TestDeductCredits_IndividualLedger(t *testing.T) {
	users := newFakeUserStore(&models.User{
		ID: 1, Credits: 50, SubscriptionStatus: models.SubscriptionActive,
	})
	credits := &fakeCreditStore{deductOK: true}
	svc := newCreditService(users, nil, credits, newFakeNotifier())

	deduction, err := svc.DeductCredits(1, 8)
	require.NoError(t, err)

	assert.True(t, deduction.Success)
	assert.Equal(t, 8, deduction.CreditsDeducted)
	assert.False(t, deduction.IsGroupPool)

	require.Len(t, credits.transactions, 1)
	tx := credits.transactions[0]
	assert.Equal(t, -8, tx.Amount)
	assert.Equal(t, models.CreditTxDeduction, tx.Type)
	require.NotNil(t, tx.UserID)
	assert.Equal(t, uint(1), *tx.UserID)
	assert.Nil(t, tx.GroupID)

	assert.Equal(t, 8, users.usage[1])
}

func TestDeductCredits_GroupLedger(t *testing.T) {
	groupID := uint(7)
	users := newFakeUserStore(&models.User{
		ID: 1, Credits: 0, GroupID: &groupID, SubscriptionStatus: models.SubscriptionActive,
	})
	groups := &fakeGroupStore{groups: map[uint]*models.Group{
		7: {ID: 7, Name: "Acme Realty", Credits: 100, IsActive: true},
	}}
	credits := &fakeCreditStore{deductOK: true}
	svc := newCreditService(users, groups, credits, newFakeNotifier())

	deduction, err := svc.DeductCredits(1, 4)
	require.NoError(t, err)

	assert.True(t, deduction.Success)
	assert.True(t, deduction.IsGroupPool)

	require.Len(t, credits.transactions, 1)
	tx := credits.transactions[0]
	require.NotNil(t, tx.GroupID)
	assert.Equal(t, uint(7), *tx.GroupID)
	assert.Nil(t, tx.UserID)
}

func TestDeductCredits_RaceLost(t *testing.T) {
	users := newFakeUserStore(&models.User{
		ID: 1, Credits: 3, SubscriptionStatus: models.SubscriptionActive,
	})
	credits := &fakeCreditStore{deductOK: false}
	svc := newCreditService(users, nil, credits, newFakeNotifier())

	deduction, err := svc.DeductCredits(1, 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientCredits))

	require.NotNil(t, deduction)
	assert.False(t, deduction.Success)
	assert.Equal(t, 3, deduction.RemainingCredits)

	// Düşme gerçekleşmediyse ledger'a satır yazılmaz
	assert.Empty(t, credits.transactions)
	assert.Zero(t, users.usage[1])
}
