package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/anonto42/memomap/backend/internal/models"
	"github.com/anonto42/memomap/backend/internal/permissions"
	"github.com/anonto42/memomap/backend/internal/repositories"
)

// MemoService handles personal and group memos. A personal memo belongs to
// its creator alone; a group memo is governed by the actor's group role.
type MemoService struct {
	memos  repositories.MemoRepository
	groups repositories.GroupRepository
	logger *logrus.Logger
}

func NewMemoService(memos repositories.MemoRepository, groups repositories.GroupRepository, logger *logrus.Logger) *MemoService {
	return &MemoService{memos: memos, groups: groups, logger: logger}
}

// memberRole returns the actor's role in groupID or ErrNotMember.
func (s *MemoService) memberRole(ctx context.Context, groupID, actorID uint) (models.Role, error) {
	m, err := s.groups.GetMember(ctx, groupID, actorID)
	if err != nil {
		if isMissing(err) {
			return "", ErrNotMember
		}
		return "", fmt.Errorf("failed to load membership: %w", err)
	}
	return m.Role, nil
}

// canSee reports nil when actorID may read memo.
func (s *MemoService) canSee(ctx context.Context, memo *models.Memo, actorID uint) error {
	if memo.IsPersonal() {
		if memo.CreatedByID != actorID {
			return fmt.Errorf("%w: memo belongs to another user", ErrForbidden)
		}
		return nil
	}
	_, err := s.memberRole(ctx, *memo.GroupID, actorID)
	return err
}

// canWrite reports nil when actorID may edit or complete memo.
func (s *MemoService) canWrite(ctx context.Context, memo *models.Memo, actorID uint) error {
	if memo.IsPersonal() {
		return s.canSee(ctx, memo, actorID)
	}
	role, err := s.memberRole(ctx, *memo.GroupID, actorID)
	if err != nil {
		return err
	}
	if !permissions.CanWriteMemos(role) {
		return fmt.Errorf("%w: %s cannot edit group memos", ErrForbidden, role)
	}
	return nil
}

func (s *MemoService) Create(ctx context.Context, actorID uint, in models.MemoInput) (*models.Memo, error) {
	memo, err := models.NewMemo(actorID, in)
	if err != nil {
		return nil, invalid(err)
	}
	if !memo.IsPersonal() {
		if err := s.canWrite(ctx, memo, actorID); err != nil {
			return nil, err
		}
	}
	if err := s.memos.CreateMemo(ctx, memo); err != nil {
		return nil, fmt.Errorf("failed to create memo: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"memo_id": memo.ID, "user_id": actorID, "group_id": memo.GroupID}).Info("memo created")
	return memo, nil
}

func (s *MemoService) load(ctx context.Context, memoID uint) (*models.Memo, error) {
	memo, err := s.memos.GetMemoByID(ctx, memoID)
	if err != nil {
		return nil, lookup(err, "memo")
	}
	return memo, nil
}

func (s *MemoService) Get(ctx context.Context, memoID, actorID uint) (*models.Memo, error) {
	memo, err := s.load(ctx, memoID)
	if err != nil {
		return nil, err
	}
	if err := s.canSee(ctx, memo, actorID); err != nil {
		return nil, err
	}
	return memo, nil
}

func (s *MemoService) ListPersonal(ctx context.Context, userID uint) ([]models.Memo, error) {
	memos, err := s.memos.ListPersonal(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memos: %w", err)
	}
	return memos, nil
}

func (s *MemoService) ListForGroup(ctx context.Context, groupID, actorID uint) ([]models.Memo, error) {
	if _, err := s.memberRole(ctx, groupID, actorID); err != nil {
		return nil, err
	}
	memos, err := s.memos.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group memos: %w", err)
	}
	return memos, nil
}

// ListInBounds returns every memo the user can see inside the rectangle.
func (s *MemoService) ListInBounds(ctx context.Context, userID uint, b models.Bounds) ([]models.Memo, error) {
	if b.South > b.North {
		return nil, fmt.Errorf("%w: south must not exceed north", ErrValidation)
	}
	groupIDs, err := s.groups.ListGroupIDsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	memos, err := s.memos.ListInBounds(ctx, userID, groupIDs, b)
	if err != nil {
		return nil, fmt.Errorf("failed to list memos in bounds: %w", err)
	}
	return memos, nil
}

// Update applies the non-nil fields of req.
func (s *MemoService) Update(ctx context.Context, memoID, actorID uint, req models.UpdateMemoRequest) (*models.Memo, error) {
	memo, err := s.load(ctx, memoID)
	if err != nil {
		return nil, err
	}
	if err := s.canWrite(ctx, memo, actorID); err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, invalid(models.ErrBlankTitle)
		}
		memo.Title = title
	}
	if req.Content != nil {
		memo.Content = *req.Content
	}
	if req.Place != nil {
		memo.Place = strings.TrimSpace(*req.Place)
	}
	if req.Color != nil {
		memo.Color = *req.Color
	}
	if req.Lat != nil || req.Lon != nil {
		if err := models.ValidateCoordinates(req.Lat, req.Lon); err != nil {
			return nil, invalid(err)
		}
		memo.Lat, memo.Lon = req.Lat, req.Lon
	}

	if err := s.memos.UpdateMemo(ctx, memo); err != nil {
		return nil, fmt.Errorf("failed to update memo: %w", err)
	}
	return memo, nil
}

func (s *MemoService) SetCompleted(ctx context.Context, memoID, actorID uint, completed bool) (*models.Memo, error) {
	memo, err := s.load(ctx, memoID)
	if err != nil {
		return nil, err
	}
	if err := s.canWrite(ctx, memo, actorID); err != nil {
		return nil, err
	}
	if err := s.memos.SetCompleted(ctx, memoID, completed); err != nil {
		return nil, lookup(err, "memo")
	}
	memo.Completed = completed
	s.logger.WithFields(logrus.Fields{"memo_id": memoID, "user_id": actorID, "completed": completed}).Info("memo completion changed")
	return memo, nil
}

// Delete removes the memo. The creator may delete it while still allowed to
// write in the group; OWNER and ADMIN may delete anyone's. VIEWER never can.
// Comments on the memo are left in place.
func (s *MemoService) Delete(ctx context.Context, memoID, actorID uint) error {
	memo, err := s.load(ctx, memoID)
	if err != nil {
		return err
	}

	if memo.IsPersonal() {
		if err := s.canSee(ctx, memo, actorID); err != nil {
			return err
		}
	} else {
		role, err := s.memberRole(ctx, *memo.GroupID, actorID)
		if err != nil {
			return err
		}
		own := memo.CreatedByID == actorID && permissions.CanWriteMemos(role)
		if !own && !permissions.CanModerateMemos(role) {
			return fmt.Errorf("%w: %s cannot delete this memo", ErrForbidden, role)
		}
	}

	if err := s.memos.DeleteMemo(ctx, memoID); err != nil {
		return lookup(err, "memo")
	}
	s.logger.WithFields(logrus.Fields{"memo_id": memoID, "user_id": actorID}).Info("memo deleted")
	return nil
}
