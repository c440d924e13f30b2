package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/anonto42/memomap/backend/internal/models"
	"github.com/anonto42/memomap/backend/internal/permissions"
	"github.com/anonto42/memomap/backend/internal/repositories"
	"github.com/anonto42/memomap/backend/pkg/metrics"
	"github.com/sirupsen/logrus"
)

// GroupLimits caps how many groups a user may belong to. The two paths have
// different limits and must not be merged.
type GroupLimits struct {
	OnCreate int
	OnJoin   int
}

// GroupService owns group lifecycle and every membership change. All
// authorization for those changes happens here.
type GroupService struct {
	groups   repositories.GroupRepository
	users    repositories.UserRepository
	notifier NotificationSender
	limits   GroupLimits
	logger   *logrus.Logger
	metrics  *metrics.Metrics
}

func NewGroupService(
	groups repositories.GroupRepository,
	users repositories.UserRepository,
	notifier NotificationSender,
	limits GroupLimits,
	logger *logrus.Logger,
	m *metrics.Metrics,
) *GroupService {
	return &GroupService{
		groups:   groups,
		users:    users,
		notifier: notifier,
		limits:   limits,
		logger:   logger,
		metrics:  m,
	}
}

// GetRole returns the user's role in the group; ok is false for non-members.
func (s *GroupService) GetRole(ctx context.Context, groupID, userID uint) (role models.Role, ok bool, err error) {
	member, err := s.groups.GetMember(ctx, groupID, userID)
	if err != nil {
		if isMissing(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to load membership: %w", err)
	}
	return member.Role, true, nil
}

// requireRole loads the actor's role and fails with ErrNotMember when absent.
func (s *GroupService) requireRole(ctx context.Context, groupID, actorID uint) (models.Role, error) {
	role, ok, err := s.GetRole(ctx, groupID, actorID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNotMember
	}
	return role, nil
}

// CreateGroup creates a group owned by creatorID. memberIDs are deduplicated,
// the creator is dropped from them, and each remaining user joins as VIEWER.
// Nothing is written if any participant is already at the create-path cap.
func (s *GroupService) CreateGroup(ctx context.Context, name string, creatorID uint, memberIDs []uint) (*models.GroupSummary, error) {
	group, err := models.NewGroup(name, creatorID)
	if err != nil {
		return nil, invalid(err)
	}

	members := dedupeMembers(creatorID, memberIDs)
	participants := append([]uint{creatorID}, members...)

	found, err := s.users.GetUsersByIDs(ctx, participants)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	if len(found) != len(participants) {
		return nil, notFound("user")
	}

	for _, id := range participants {
		count, err := s.groups.CountMemberships(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to count memberships: %w", err)
		}
		if count >= int64(s.limits.OnCreate) {
			return nil, fmt.Errorf("%w (user %d, max %d)", ErrGroupLimit, id, s.limits.OnCreate)
		}
	}

	rows := make([]*models.GroupMember, 0, len(participants))
	rows = append(rows, &models.GroupMember{UserID: creatorID, Role: models.RoleOwner})
	for _, id := range members {
		rows = append(rows, &models.GroupMember{UserID: id, Role: models.RoleViewer})
	}

	if err := s.groups.CreateWithMembers(ctx, group, rows); err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	s.metrics.GroupEvents.WithLabelValues("created").Inc()
	s.logger.WithFields(logrus.Fields{
		"group_id": group.ID,
		"owner_id": creatorID,
		"members":  len(rows),
	}).Info("group created")

	for _, id := range members {
		s.notifier.Notify(ctx, &models.Notification{
			Type:        models.NotificationGroupInvite,
			ActorID:     creatorID,
			RecipientID: id,
			TargetID:    group.ID,
			TargetType:  "group",
			Message:     fmt.Sprintf("You were added to %q", group.Name),
		})
	}

	return &models.GroupSummary{Group: *group, Role: models.RoleOwner, MemberCount: int64(len(rows))}, nil
}

func dedupeMembers(creatorID uint, ids []uint) []uint {
	seen := map[uint]struct{}{creatorID: {}}
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// GetGroup returns the group as seen by a member.
func (s *GroupService) GetGroup(ctx context.Context, groupID, actorID uint) (*models.GroupSummary, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, lookup(err, "group")
	}
	role, err := s.requireRole(ctx, groupID, actorID)
	if err != nil {
		return nil, err
	}
	members, err := s.groups.ListMembers(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return &models.GroupSummary{Group: *group, Role: role, MemberCount: int64(len(members))}, nil
}

func (s *GroupService) ListGroups(ctx context.Context, userID uint) ([]models.GroupSummary, error) {
	groups, err := s.groups.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

// ListMembers returns the group's members with their profiles. Members only.
func (s *GroupService) ListMembers(ctx context.Context, groupID, actorID uint) ([]models.MemberView, error) {
	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		return nil, lookup(err, "group")
	}
	if _, err := s.requireRole(ctx, groupID, actorID); err != nil {
		return nil, err
	}

	members, err := s.groups.ListMembers(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	ids := make([]uint, len(members))
	for i, m := range members {
		ids[i] = m.UserID
	}
	users, err := s.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	byID := make(map[uint]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	views := make([]models.MemberView, 0, len(members))
	for _, m := range members {
		u, ok := byID[m.UserID]
		if !ok {
			continue
		}
		views = append(views, models.MemberView{User: u.ToCompact(), Role: m.Role})
	}
	return views, nil
}

// RenameGroup is allowed to OWNER and ADMIN.
func (s *GroupService) RenameGroup(ctx context.Context, groupID, actorID uint, name string) (*models.Group, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, lookup(err, "group")
	}
	role, err := s.requireRole(ctx, groupID, actorID)
	if err != nil {
		return nil, err
	}
	if !permissions.CanManageMembers(role) {
		return nil, fmt.Errorf("%w: only owners and admins can rename a group", ErrForbidden)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid(models.ErrBlankName)
	}
	if err := s.groups.UpdateName(ctx, groupID, name); err != nil {
		return nil, lookup(err, "group")
	}
	group.Name = name
	return group, nil
}

// AddMember adds userID to the group as VIEWER. The actor must be OWNER or
// ADMIN and the user must be below the join-path cap.
func (s *GroupService) AddMember(ctx context.Context, groupID, actorID, userID uint) (*models.GroupMember, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, lookup(err, "group")
	}
	role, err := s.requireRole(ctx, groupID, actorID)
	if err != nil {
		return nil, err
	}
	if !permissions.CanManageMembers(role) {
		return nil, fmt.Errorf("%w: only owners and admins can add members", ErrForbidden)
	}

	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return nil, lookup(err, "user")
	}
	if _, ok, err := s.GetRole(ctx, groupID, userID); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrAlreadyMember
	}

	count, err := s.groups.CountMemberships(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count memberships: %w", err)
	}
	if count >= int64(s.limits.OnJoin) {
		return nil, fmt.Errorf("%w (user %d, max %d)", ErrGroupLimit, userID, s.limits.OnJoin)
	}

	member := &models.GroupMember{GroupID: groupID, UserID: userID, Role: models.RoleViewer}
	if err := s.groups.AddMember(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	s.metrics.GroupEvents.WithLabelValues("member_added").Inc()
	s.logger.WithFields(logrus.Fields{"group_id": groupID, "user_id": userID, "actor_id": actorID}).Info("member added")

	s.notifier.Notify(ctx, &models.Notification{
		Type:        models.NotificationGroupInvite,
		ActorID:     actorID,
		RecipientID: userID,
		TargetID:    groupID,
		TargetType:  "group",
		Message:     fmt.Sprintf("You were added to %q", group.Name),
	})
	return member, nil
}

// UpdateRole changes the target's role. No row is written on any failure,
// and setting the current role again is a no-op.
func (s *GroupService) UpdateRole(ctx context.Context, groupID, actorID, targetID uint, newRole models.Role) (*models.GroupMember, error) {
	actorRole, err := s.requireRole(ctx, groupID, actorID)
	if err != nil {
		return nil, err
	}
	if !permissions.CanManageMembers(actorRole) {
		return nil, fmt.Errorf("%w: only owners and admins can change roles", ErrForbidden)
	}
	if !newRole.Valid() {
		return nil, invalid(fmt.Errorf("%w: %q", models.ErrInvalidRole, newRole))
	}
	if actorID == targetID {
		return nil, ErrSelfRoleChange
	}

	target, err := s.groups.GetMember(ctx, groupID, targetID)
	if err != nil {
		return nil, lookup(err, "member")
	}

	if !permissions.CanChangeRole(actorRole, target.Role, actorID, targetID) {
		return nil, fmt.Errorf("%w: %s cannot change the role of %s", ErrForbidden, actorRole, target.Role)
	}
	if !permissions.CanAssignRole(actorRole, newRole) {
		return nil, fmt.Errorf("%w: %s cannot assign %s", ErrForbidden, actorRole, newRole)
	}

	if target.Role == newRole {
		return target, nil
	}
	if err := s.groups.UpdateMemberRole(ctx, groupID, targetID, newRole); err != nil {
		return nil, lookup(err, "member")
	}

	s.metrics.RoleChanges.WithLabelValues(string(newRole)).Inc()
	s.logger.WithFields(logrus.Fields{
		"group_id":  groupID,
		"actor_id":  actorID,
		"target_id": targetID,
		"from":      target.Role,
		"to":        newRole,
	}).Info("role changed")

	target.Role = newRole
	return target, nil
}

// RemoveMember removes targetID from the group after checking the actor may
// do so. Removing the owner deletes the whole group with its memberships and
// memos; groupDeleted reports that case.
func (s *GroupService) RemoveMember(ctx context.Context, groupID, actorID, targetID uint) (groupDeleted bool, err error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return false, lookup(err, "group")
	}
	actorRole, err := s.requireRole(ctx, groupID, actorID)
	if err != nil {
		return false, err
	}
	target, err := s.groups.GetMember(ctx, groupID, targetID)
	if err != nil {
		return false, lookup(err, "member")
	}
	if !permissions.CanRemoveMember(actorRole, target.Role, actorID, targetID) {
		return false, fmt.Errorf("%w: %s cannot remove %s", ErrForbidden, actorRole, target.Role)
	}

	fields := logrus.Fields{"group_id": groupID, "actor_id": actorID, "target_id": targetID}

	if targetID == group.OwnerID || target.Role == models.RoleOwner {
		if err := s.groups.DeleteCascade(ctx, groupID); err != nil {
			return false, lookup(err, "group")
		}
		s.metrics.GroupEvents.WithLabelValues("deleted").Inc()
		s.logger.WithFields(fields).Info("owner left, group deleted")
		return true, nil
	}

	if err := s.groups.RemoveMember(ctx, groupID, targetID); err != nil {
		return false, lookup(err, "member")
	}
	s.metrics.GroupEvents.WithLabelValues("member_removed").Inc()
	s.logger.WithFields(fields).Info("member removed")
	return false, nil
}

// DeleteGroup deletes the group outright. OWNER only.
func (s *GroupService) DeleteGroup(ctx context.Context, groupID, actorID uint) error {
	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		return lookup(err, "group")
	}
	role, err := s.requireRole(ctx, groupID, actorID)
	if err != nil {
		return err
	}
	if role != models.RoleOwner {
		return fmt.Errorf("%w: only the owner can delete a group", ErrForbidden)
	}
	if err := s.groups.DeleteCascade(ctx, groupID); err != nil {
		return lookup(err, "group")
	}
	s.metrics.GroupEvents.WithLabelValues("deleted").Inc()
	s.logger.WithFields(logrus.Fields{"group_id": groupID, "actor_id": actorID}).Info("group deleted")
	return nil
}
