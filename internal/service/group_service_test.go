package service

import (
	"testing"
	"time"

	"github.com/sefazor/proparse-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// groupUserStore için fakeUserStore'a grup ataması
func (s *fakeUserStore) SetGroup(userID uint, groupID *uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.GroupID = groupID
	return nil
}

type fakeGroupRepo struct {
	nextID      uint
	groups      map[uint]*models.Group
	memberships []models.GroupMembership
}

func newFakeGroupRepo(groups ...*models.Group) *fakeGroupRepo {
	r := &fakeGroupRepo{nextID: 1, groups: map[uint]*models.Group{}}
	for _, g := range groups {
		r.groups[g.ID] = g
		if g.ID >= r.nextID {
			r.nextID = g.ID + 1
		}
	}
	return r
}

func (r *fakeGroupRepo) Create(group *models.Group) error {
	group.ID = r.nextID
	r.nextID++
	copied := *group
	r.groups[group.ID] = &copied
	return nil
}

func (r *fakeGroupRepo) GetByID(id uint) (*models.Group, error) {
	g, ok := r.groups[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *g
	return &copied, nil
}

func (r *fakeGroupRepo) Update(group *models.Group) error {
	copied := *group
	r.groups[group.ID] = &copied
	return nil
}

func (r *fakeGroupRepo) Delete(id uint) error {
	delete(r.groups, id)
	return nil
}

func (r *fakeGroupRepo) List(offset, limit int) ([]models.Group, int64, error) {
	var out []models.Group
	for _, g := range r.groups {
		out = append(out, *g)
	}
	return out, int64(len(out)), nil
}

func (r *fakeGroupRepo) CreateMembership(m *models.GroupMembership) error {
	for _, existing := range r.memberships {
		if existing.UserID == m.UserID {
			return gorm.ErrDuplicatedKey
		}
	}
	r.memberships = append(r.memberships, *m)
	return nil
}

func (r *fakeGroupRepo) GetMembershipByUserID(userID uint) (*models.GroupMembership, error) {
	for i := range r.memberships {
		if r.memberships[i].UserID == userID {
			copied := r.memberships[i]
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeGroupRepo) GetMemberships(groupID uint) ([]models.GroupMembership, error) {
	var out []models.GroupMembership
	for _, m := range r.memberships {
		if m.GroupID == groupID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeGroupRepo) UpdateMembership(m *models.GroupMembership) error {
	for i := range r.memberships {
		if r.memberships[i].UserID == m.UserID && r.memberships[i].GroupID == m.GroupID {
			r.memberships[i] = *m
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeGroupRepo) DeleteMembership(groupID, userID uint) error {
	for i := range r.memberships {
		if r.memberships[i].GroupID == groupID && r.memberships[i].UserID == userID {
			r.memberships = append(r.memberships[:i], r.memberships[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeGroupRepo) CountMembers(groupID uint) (int64, error) {
	var count int64
	for _, m := range r.memberships {
		if m.GroupID == groupID {
			count++
		}
	}
	return count, nil
}

type fakeGroupCreditStore struct {
	groups  *fakeGroupRepo
	entries []models.CreditTransaction
}

func (s *fakeGroupCreditStore) AddGroupCredits(groupID uint, amount int, txType models.CreditTransactionType, adminID *uint, description string) error {
	if g, ok := s.groups.groups[groupID]; ok {
		g.Credits += amount
	}
	s.entries = append(s.entries, models.CreditTransaction{
		GroupID: &groupID, Amount: amount, Type: txType, AdminID: adminID, Description: description,
	})
	return nil
}

// Davet maili goroutine içinden gönderildiği için kanal üzerinden doğrulanır
type fakeGroupNotifier struct {
	invited chan string
}

func newFakeGroupNotifier() *fakeGroupNotifier {
	return &fakeGroupNotifier{invited: make(chan string, 8)}
}

func (n *fakeGroupNotifier) SendGroupInvitation(email, fullName, groupName string) error {
	n.invited <- email
	return nil
}

func (n *fakeGroupNotifier) assertInvited(t *testing.T, email string) {
	t.Helper()
	select {
	case got := <-n.invited:
		assert.Equal(t, email, got)
	case <-time.After(time.Second):
		t.Fatal("expected a group invitation email, got none")
	}
}

type groupFixture struct {
	svc      *GroupService
	users    *fakeUserStore
	groups   *fakeGroupRepo
	credits  *fakeGroupCreditStore
	notifier *fakeGroupNotifier
}

func newGroupFixture(groups *fakeGroupRepo, users ...*models.User) *groupFixture {
	f := &groupFixture{
		users:    newFakeUserStore(users...),
		groups:   groups,
		notifier: newFakeGroupNotifier(),
	}
	f.credits = &fakeGroupCreditStore{groups: groups}
	f.svc = NewGroupService(groups, f.users, f.credits, f.notifier)
	return f
}

func TestCreateGroup_InitialCreditsGoThroughLedger(t *testing.T) {
	f := newGroupFixture(newFakeGroupRepo(),
		&models.User{ID: 5, FullName: "Owner", Email: "owner@example.com"},
	)

	group, err := f.svc.CreateGroup(99, models.CreateGroupRequest{
		Name: "Acme Realty", OwnerID: 5, InitialCredits: 500, MaxMembers: 3,
	})
	require.NoError(t, err)

	assert.Equal(t, 500, group.Credits)
	assert.True(t, group.IsActive)

	// Başlangıç kredisi ledger satırıyla birlikte yazılır
	require.Len(t, f.credits.entries, 1)
	assert.Equal(t, models.CreditTxInitialCreation, f.credits.entries[0].Type)
	assert.Equal(t, 500, f.credits.entries[0].Amount)

	// Owner üyeliği ve kullanıcı üzerindeki grup referansı
	membership, err := f.groups.GetMembershipByUserID(5)
	require.NoError(t, err)
	assert.Equal(t, models.GroupRoleOwner, membership.Role)

	owner, _ := f.users.GetByID(5)
	require.NotNil(t, owner.GroupID)
	assert.Equal(t, group.ID, *owner.GroupID)
}

func TestCreateGroup_OwnerAlreadyInGroup(t *testing.T) {
	existing := uint(3)
	f := newGroupFixture(newFakeGroupRepo(),
		&models.User{ID: 5, GroupID: &existing},
	)

	_, err := f.svc.CreateGroup(99, models.CreateGroupRequest{Name: "X", OwnerID: 5})
	assert.ErrorIs(t, err, ErrAlreadyInGroup)
}

func TestAddMember_EnforcesCapacityAndSingleMembership(t *testing.T) {
	otherGroup := uint(2)
	repo := newFakeGroupRepo(&models.Group{ID: 1, Name: "Acme", MaxMembers: 2, IsActive: true})
	repo.memberships = []models.GroupMembership{
		{GroupID: 1, UserID: 10, Role: models.GroupRoleOwner},
	}

	f := newGroupFixture(repo,
		&models.User{ID: 10},
		&models.User{ID: 11, Email: "new@example.com", FullName: "New"},
		&models.User{ID: 12, GroupID: &otherGroup},
		&models.User{ID: 13},
	)

	// Başka grupta olan üye eklenemez
	err := f.svc.AddMember(1, models.AddGroupMemberRequest{UserID: 12})
	assert.ErrorIs(t, err, ErrAlreadyInGroup)

	// Kapasiteye kadar ekleme yapılabilir
	require.NoError(t, f.svc.AddMember(1, models.AddGroupMemberRequest{UserID: 11}))
	f.notifier.assertInvited(t, "new@example.com")

	err = f.svc.AddMember(1, models.AddGroupMemberRequest{UserID: 13})
	assert.ErrorIs(t, err, ErrGroupFull)
}

func TestAddMember_InactiveGroup(t *testing.T) {
	repo := newFakeGroupRepo(&models.Group{ID: 1, Name: "Acme", MaxMembers: 5, IsActive: false})
	f := newGroupFixture(repo, &models.User{ID: 11})

	err := f.svc.AddMember(1, models.AddGroupMemberRequest{UserID: 11})
	assert.ErrorIs(t, err, ErrGroupInactive)
}

func TestRemoveMember_OwnerBlockedUntilTransfer(t *testing.T) {
	groupID := uint(1)
	repo := newFakeGroupRepo(&models.Group{ID: 1, Name: "Acme", MaxMembers: 5, IsActive: true})
	repo.memberships = []models.GroupMembership{
		{GroupID: 1, UserID: 10, Role: models.GroupRoleOwner},
		{GroupID: 1, UserID: 11, Role: models.GroupRoleMember},
	}

	f := newGroupFixture(repo,
		&models.User{ID: 10, GroupID: &groupID},
		&models.User{ID: 11, GroupID: &groupID},
	)

	// Owner devretmeden çıkarılamaz
	err := f.svc.RemoveMember(1, 10)
	assert.ErrorIs(t, err, ErrOwnerRemoval)

	// Devirden sonra eski owner çıkarılabilir
	require.NoError(t, f.svc.TransferOwnership(1, models.TransferOwnershipRequest{NewOwnerID: 11}))
	require.NoError(t, f.svc.RemoveMember(1, 10))

	removed, _ := f.users.GetByID(10)
	assert.Nil(t, removed.GroupID)

	newOwner, err := f.groups.GetMembershipByUserID(11)
	require.NoError(t, err)
	assert.Equal(t, models.GroupRoleOwner, newOwner.Role)
}

func TestRemoveMember_DetachesUser(t *testing.T) {
	groupID := uint(1)
	repo := newFakeGroupRepo(&models.Group{ID: 1, Name: "Acme", MaxMembers: 5, IsActive: true})
	repo.memberships = []models.GroupMembership{
		{GroupID: 1, UserID: 10, Role: models.GroupRoleOwner},
		{GroupID: 1, UserID: 11, Role: models.GroupRoleMember},
	}

	f := newGroupFixture(repo,
		&models.User{ID: 10, GroupID: &groupID},
		&models.User{ID: 11, GroupID: &groupID},
	)

	require.NoError(t, f.svc.RemoveMember(1, 11))

	user, _ := f.users.GetByID(11)
	assert.Nil(t, user.GroupID)

	_, err := f.groups.GetMembershipByUserID(11)
	assert.Error(t, err)
}

func TestDeleteGroup_DetachesAllMembers(t *testing.T) {
	groupID := uint(1)
	repo := newFakeGroupRepo(&models.Group{ID: 1, Name: "Acme", MaxMembers: 5, IsActive: true})
	repo.memberships = []models.GroupMembership{
		{GroupID: 1, UserID: 10, Role: models.GroupRoleOwner},
		{GroupID: 1, UserID: 11, Role: models.GroupRoleMember},
	}

	f := newGroupFixture(repo,
		&models.User{ID: 10, GroupID: &groupID},
		&models.User{ID: 11, GroupID: &groupID},
	)

	require.NoError(t, f.svc.DeleteGroup(1))

	for _, id := range []uint{10, 11} {
		u, _ := f.users.GetByID(id)
		assert.Nil(t, u.GroupID)
	}
	_, err := f.groups.GetByID(1)
	assert.Error(t, err)
}
