package groups

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/splitbite/splitbite-backend/pkg/db/models"
	"github.com/splitbite/splitbite-backend/pkg/enums"
	pkgerrors "github.com/splitbite/splitbite-backend/pkg/errors"
	"github.com/splitbite/splitbite-backend/pkg/logger"
)

// Service exposes group lifecycle and membership operations.
type Service interface {
	Create(ctx context.Context, ownerID uuid.UUID, name string) (*models.Group, error)
	Get(ctx context.Context, actingUserID, groupID uuid.UUID) (*models.Group, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]models.Group, error)
	Join(ctx context.Context, userID, groupID uuid.UUID) (*models.GroupMembership, error)
	Leave(ctx context.Context, userID, groupID uuid.UUID) error
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService wires a groups service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("groups repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// Create makes a new group with the creator as its owner member.
func (s *service) Create(ctx context.Context, ownerID uuid.UUID, name string) (*models.Group, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "group name is required")
	}

	group := &models.Group{
		Name:    name,
		OwnerID: ownerID,
		Memberships: []models.GroupMembership{
			{UserID: ownerID, Role: enums.GroupRoleOwner},
		},
	}
	if err := s.repo.Create(ctx, group); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating group")
	}
	s.logg.Info(s.logg.WithGroupID(ctx, group.ID.String()), "group created")
	return group, nil
}

func (s *service) Get(ctx context.Context, actingUserID, groupID uuid.UUID) (*models.Group, error) {
	if actingUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	group, err := s.repo.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "group not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading group")
	}
	for _, membership := range group.Memberships {
		if membership.UserID == actingUserID {
			return group, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not a member of this group")
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID) ([]models.Group, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	groups, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing groups")
	}
	return groups, nil
}

// Join adds the user as a member. Joining twice is a conflict, enforced by
// the unique (group, user) index rather than a read-then-write check.
func (s *service) Join(ctx context.Context, userID, groupID uuid.UUID) (*models.GroupMembership, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if _, err := s.repo.GetByID(ctx, groupID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "group not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading group")
	}

	membership := &models.GroupMembership{
		GroupID: groupID,
		UserID:  userID,
		Role:    enums.GroupRoleMember,
	}
	if err := s.repo.AddMember(ctx, membership); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "already a member of this group")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "adding membership")
	}
	return membership, nil
}

// Leave removes the user's membership. The owner cannot leave their own
// group; the group would be orphaned.
func (s *service) Leave(ctx context.Context, userID, groupID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	membership, err := s.repo.GetMembership(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "membership not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading membership")
	}
	if membership.Role == enums.GroupRoleOwner {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "the group owner cannot leave the group")
	}

	removed, err := s.repo.RemoveMember(ctx, groupID, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "removing membership")
	}
	if !removed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "membership not found")
	}
	return nil
}
