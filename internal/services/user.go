package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/anonto42/memomap/backend/internal/models"
	"github.com/anonto42/memomap/backend/internal/repositories"
)

var ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrUnauthorized)

// UserService covers accounts: local signup, password sign-in, linking
// Firebase identities and profile preferences.
type UserService struct {
	users  repositories.UserRepository
	logger *logrus.Logger
}

func NewUserService(users repositories.UserRepository, logger *logrus.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

func (s *UserService) Signup(ctx context.Context, req models.CreateLocalUserRequest) (*models.User, error) {
	user, err := models.NewUser(req.Name, req.Email)
	if err != nil {
		return nil, invalid(err)
	}
	if _, err := s.users.GetUserByEmail(ctx, user.Email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	} else if !isMissing(err) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashed)

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.logger.WithField("user_id", user.ID).Info("user signed up")
	return user, nil
}

func (s *UserService) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if isMissing(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user.Password == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// LoginFirebase finds the user for a verified Firebase identity. A user with
// the same email is linked to the identity; otherwise a new user is created.
func (s *UserService) LoginFirebase(ctx context.Context, uid, email, name string) (*models.User, error) {
	if uid == "" || email == "" {
		return nil, fmt.Errorf("%w: firebase token lacks uid or email", ErrUnauthorized)
	}

	user, err := s.users.GetUserByFirebaseUID(ctx, uid)
	if err == nil {
		return user, nil
	}
	if !isMissing(err) {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	user, err = s.users.GetUserByEmail(ctx, strings.ToLower(email))
	switch {
	case err == nil:
		user.FirebaseUID = &uid
		if err := s.users.UpdateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to link firebase identity: %w", err)
		}
		s.logger.WithField("user_id", user.ID).Info("firebase identity linked")
		return user, nil
	case isMissing(err):
	default:
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if strings.TrimSpace(name) == "" {
		name = strings.Split(email, "@")[0]
	}
	user, err = models.NewUser(name, email)
	if err != nil {
		return nil, invalid(err)
	}
	user.FirebaseUID = &uid
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.logger.WithField("user_id", user.ID).Info("user created from firebase login")
	return user, nil
}

func (s *UserService) Get(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, lookup(err, "user")
	}
	return user, nil
}

// UpdateProfile changes the non-empty fields of req.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, req models.UpdateUserRequest) (*models.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.Name != "" {
		name := strings.TrimSpace(req.Name)
		if name == "" {
			return nil, invalid(models.ErrBlankName)
		}
		user.Name = name
	}
	if req.Theme != "" {
		user.Theme = req.Theme
	}
	if req.Bar != "" {
		user.Bar = req.Bar
	}
	if req.Tutorial != nil {
		user.Tutorial = *req.Tutorial
	}
	if req.MapStyle != "" {
		user.MapStyle = req.MapStyle
	}
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

func (s *UserService) Search(ctx context.Context, query string, limit int) ([]models.UserCompact, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", ErrValidation)
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}
	users, err := s.users.SearchUsers(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	out := make([]models.UserCompact, 0, len(users))
	for _, u := range users {
		out = append(out, u.ToCompact())
	}
	return out, nil
}
