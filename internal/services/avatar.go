package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"

	"github.com/anonto42/memomap/backend/internal/models"
	"github.com/anonto42/memomap/backend/internal/repositories"
	"github.com/anonto42/memomap/backend/internal/storage"
)

// avatarTypes maps the accepted image types to the extension used in keys.
var avatarTypes = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// AvatarService stores profile pictures in the object store and keeps the
// object key on the user record.
type AvatarService struct {
	store    storage.ObjectStore
	users    repositories.UserRepository
	maxBytes int64
	logger   *logrus.Logger
}

func NewAvatarService(store storage.ObjectStore, users repositories.UserRepository, maxBytes int64, logger *logrus.Logger) *AvatarService {
	return &AvatarService{store: store, users: users, maxBytes: maxBytes, logger: logger}
}

func (s *AvatarService) MaxBytes() int64 {
	return s.maxBytes
}

// Upload stores data as the user's avatar under "<user uuid>.<ext>". The
// image type is sniffed from the bytes, never taken from the client.
func (s *AvatarService) Upload(ctx context.Context, userID uint, data []byte) (*models.User, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty avatar", ErrValidation)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, ErrAvatarTooLarge
	}

	mtype := mimetype.Detect(data)
	ext, ok := avatarTypes[mtype.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mtype.String())
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, lookup(err, "user")
	}

	key := user.UUID + "." + ext
	if err := s.store.Put(ctx, key, data, mtype.String()); err != nil {
		return nil, fmt.Errorf("failed to store avatar: %w", err)
	}

	old := user.Avatar
	user.Avatar = key
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if old != "" && old != key {
		if err := s.store.Delete(ctx, old); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			s.logger.WithError(err).WithField("key", old).Warn("failed to remove previous avatar")
		}
	}
	s.logger.WithFields(logrus.Fields{"user_id": userID, "key": key, "bytes": len(data)}).Info("avatar uploaded")
	return user, nil
}

// Get returns the avatar bytes and content type of userID.
func (s *AvatarService) Get(ctx context.Context, userID uint) ([]byte, string, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, "", lookup(err, "user")
	}
	if user.Avatar == "" {
		return nil, "", notFound("avatar")
	}
	data, contentType, err := s.store.Get(ctx, user.Avatar)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, "", notFound("avatar")
		}
		return nil, "", fmt.Errorf("failed to read avatar: %w", err)
	}
	return data, contentType, nil
}

func (s *AvatarService) Delete(ctx context.Context, userID uint) error {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return lookup(err, "user")
	}
	if user.Avatar == "" {
		return notFound("avatar")
	}
	if err := s.store.Delete(ctx, user.Avatar); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		return fmt.Errorf("failed to delete avatar: %w", err)
	}
	user.Avatar = ""
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}
