package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/anonto42/memomap/backend/internal/models"
	"github.com/anonto42/memomap/backend/internal/repositories"
)

type CommentService struct {
	comments repositories.CommentRepository
	memos    *MemoService
	users    repositories.UserRepository
	notifier NotificationSender
	logger   *logrus.Logger
	pick     func(n int) int
}

// NewCommentService builds the service. pick chooses a palette index and may
// be nil to use math/rand.
func NewCommentService(
	comments repositories.CommentRepository,
	memos *MemoService,
	users repositories.UserRepository,
	notifier NotificationSender,
	logger *logrus.Logger,
	pick func(n int) int,
) *CommentService {
	return &CommentService{comments: comments, memos: memos, users: users, notifier: notifier, logger: logger, pick: pick}
}

// Create adds a comment to a memo the author can see and notifies the memo's
// creator.
func (s *CommentService) Create(ctx context.Context, memoID, authorID uint, content string) (*models.Comment, error) {
	memo, err := s.memos.Get(ctx, memoID, authorID)
	if err != nil {
		return nil, err
	}
	comment, err := models.NewComment(memoID, authorID, content, s.pick)
	if err != nil {
		return nil, invalid(err)
	}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"comment_id": comment.ID, "memo_id": memoID, "author_id": authorID}).Info("comment created")

	if memo.CreatedByID != authorID {
		message := "Someone commented on " + memo.Title
		if author, err := s.users.GetUserByID(ctx, authorID); err == nil {
			message = author.Name + " commented on " + memo.Title
		}
		s.notifier.Notify(ctx, &models.Notification{
			Type:        models.NotificationComment,
			ActorID:     authorID,
			RecipientID: memo.CreatedByID,
			TargetID:    memo.ID,
			TargetType:  "memo",
			Message:     message,
		})
	}
	return comment, nil
}

func (s *CommentService) List(ctx context.Context, memoID, actorID uint) ([]models.Comment, error) {
	if _, err := s.memos.Get(ctx, memoID, actorID); err != nil {
		return nil, err
	}
	comments, err := s.comments.GetCommentsByMemoID(ctx, memoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

// Delete removes a comment. Only its author may do that.
func (s *CommentService) Delete(ctx context.Context, commentID, actorID uint) error {
	comment, err := s.comments.GetCommentByID(ctx, commentID)
	if err != nil {
		return lookup(err, "comment")
	}
	if comment.AuthorID != actorID {
		return fmt.Errorf("%w: only the author can delete a comment", ErrForbidden)
	}
	if err := s.comments.DeleteComment(ctx, commentID); err != nil {
		return lookup(err, "comment")
	}
	return nil
}
