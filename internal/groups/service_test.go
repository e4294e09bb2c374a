package groups

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/splitbite/splitbite-backend/pkg/db/models"
	"github.com/splitbite/splitbite-backend/pkg/enums"
	pkgerrors "github.com/splitbite/splitbite-backend/pkg/errors"
	"github.com/splitbite/splitbite-backend/pkg/logger"
)

type fakeGroupsRepo struct {
	groups      map[uuid.UUID]*models.Group
	memberships map[string]*models.GroupMembership
}

func newFakeGroupsRepo() *fakeGroupsRepo {
	return &fakeGroupsRepo{
		groups:      make(map[uuid.UUID]*models.Group),
		memberships: make(map[string]*models.GroupMembership),
	}
}

func membershipKey(groupID, userID uuid.UUID) string {
	return groupID.String() + "/" + userID.String()
}

func (f *fakeGroupsRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeGroupsRepo) Create(ctx context.Context, group *models.Group) error {
	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}
	for i := range group.Memberships {
		membership := &group.Memberships[i]
		membership.GroupID = group.ID
		f.memberships[membershipKey(group.ID, membership.UserID)] = membership
	}
	f.groups[group.ID] = group
	return nil
}

func (f *fakeGroupsRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	group, ok := f.groups[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	loaded := *group
	loaded.Memberships = nil
	for _, membership := range f.memberships {
		if membership.GroupID == id {
			loaded.Memberships = append(loaded.Memberships, *membership)
		}
	}
	return &loaded, nil
}

func (f *fakeGroupsRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Group, error) {
	var out []models.Group
	for _, membership := range f.memberships {
		if membership.UserID == userID {
			if group, ok := f.groups[membership.GroupID]; ok {
				out = append(out, *group)
			}
		}
	}
	return out, nil
}

func (f *fakeGroupsRepo) AddMember(ctx context.Context, membership *models.GroupMembership) error {
	key := membershipKey(membership.GroupID, membership.UserID)
	if _, exists := f.memberships[key]; exists {
		return &pgconn.PgError{Code: "23505", ConstraintName: "idx_group_memberships_group_user"}
	}
	f.memberships[key] = membership
	return nil
}

func (f *fakeGroupsRepo) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	key := membershipKey(groupID, userID)
	if _, exists := f.memberships[key]; !exists {
		return false, nil
	}
	delete(f.memberships, key)
	return true, nil
}

func (f *fakeGroupsRepo) GetMembership(ctx context.Context, groupID, userID uuid.UUID) (*models.GroupMembership, error) {
	membership, ok := f.memberships[membershipKey(groupID, userID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return membership, nil
}

func newGroupsService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, logger.New(logger.Options{ServiceName: "groups-test", Output: io.Discard}))
	if err != nil {
		t.Fatalf("building service: %v", err)
	}
	return svc
}

func TestCreate_AddsOwnerMembership(t *testing.T) {
	repo := newFakeGroupsRepo()
	svc := newGroupsService(t, repo)
	owner := uuid.New()

	group, err := svc.Create(context.Background(), owner, "  Lunch Crew  ")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if group.Name != "Lunch Crew" {
		t.Fatalf("name not trimmed: %q", group.Name)
	}

	membership, err := repo.GetMembership(context.Background(), group.ID, owner)
	if err != nil {
		t.Fatalf("owner membership missing: %v", err)
	}
	if membership.Role != enums.GroupRoleOwner {
		t.Fatalf("owner role = %q", membership.Role)
	}
}

func TestGet_RequiresMembership(t *testing.T) {
	repo := newFakeGroupsRepo()
	svc := newGroupsService(t, repo)
	owner := uuid.New()

	group, err := svc.Create(context.Background(), owner, "Lunch Crew")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Get(context.Background(), owner, group.ID); err != nil {
		t.Fatalf("owner should see group: %v", err)
	}

	_, err = svc.Get(context.Background(), uuid.New(), group.ID)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for outsider, got %v", err)
	}
}

func TestJoin_DuplicateIsConflict(t *testing.T) {
	repo := newFakeGroupsRepo()
	svc := newGroupsService(t, repo)
	owner := uuid.New()
	member := uuid.New()

	group, err := svc.Create(context.Background(), owner, "Lunch Crew")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Join(context.Background(), member, group.ID); err != nil {
		t.Fatalf("first join: %v", err)
	}
	_, err = svc.Join(context.Background(), member, group.ID)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict on second join, got %v", err)
	}
}

func TestJoin_UnknownGroupIsNotFound(t *testing.T) {
	svc := newGroupsService(t, newFakeGroupsRepo())

	_, err := svc.Join(context.Background(), uuid.New(), uuid.New())
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLeave_OwnerCannotLeave(t *testing.T) {
	repo := newFakeGroupsRepo()
	svc := newGroupsService(t, repo)
	owner := uuid.New()
	member := uuid.New()

	group, err := svc.Create(context.Background(), owner, "Lunch Crew")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Join(context.Background(), member, group.ID); err != nil {
		t.Fatalf("join: %v", err)
	}

	err = svc.Leave(context.Background(), owner, group.ID)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for owner leave, got %v", err)
	}

	if err := svc.Leave(context.Background(), member, group.ID); err != nil {
		t.Fatalf("member leave: %v", err)
	}
	if _, err := repo.GetMembership(context.Background(), group.ID, member); err == nil {
		t.Fatalf("membership still present after leave")
	}
}
