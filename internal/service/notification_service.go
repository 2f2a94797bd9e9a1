package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/accord/internal/cache"
	"github.com/xxxsen/accord/internal/collab"
	"github.com/xxxsen/accord/internal/model"
	"github.com/xxxsen/accord/internal/pkg/timeutil"
)

type NotificationService struct {
	notifications NotificationStore
	unread        UnreadCache
	validate      *validator.Validate
}

type SaveNotificationInput struct {
	Recipient string `json:"userId" validate:"required,email"`
	Message   string `json:"message" validate:"required"`
	FileLink  string `json:"fileLink"`
}

// NewNotificationService accepts a nil unread cache.
func NewNotificationService(notifications NotificationStore, unread UnreadCache) *NotificationService {
	return &NotificationService{notifications: notifications, unread: unread, validate: newValidator()}
}

func (s *NotificationService) Save(ctx context.Context, input SaveNotificationInput) (*model.Notification, error) {
	input.Recipient = collab.NormalizeIdentity(input.Recipient)
	if err := validateStruct(s.validate, input); err != nil {
		return nil, err
	}
	n := &model.Notification{
		ID:        newID(),
		Recipient: input.Recipient,
		Message:   input.Message,
		FileLink:  input.FileLink,
		Ctime:     timeutil.NowUnix(),
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, err
	}
	s.invalidate(ctx, n.Recipient)
	return n, nil
}

// Notify saves the same message for every recipient. Failures are logged.
func (s *NotificationService) Notify(ctx context.Context, recipients []string, message, fileLink string) {
	if s == nil {
		return
	}
	for _, recipient := range recipients {
		if _, err := s.Save(ctx, SaveNotificationInput{Recipient: recipient, Message: message, FileLink: fileLink}); err != nil {
			logutil.GetLogger(ctx).Warn("save notification failed",
				zap.String("recipient", recipient),
				zap.Error(err),
			)
		}
	}
}

func (s *NotificationService) List(ctx context.Context, identity string, limit, offset uint) ([]model.Notification, error) {
	if limit == 0 || limit > 100 {
		limit = 50
	}
	return s.notifications.ListByRecipient(ctx, collab.NormalizeIdentity(identity), limit, offset)
}

func (s *NotificationService) UnreadCount(ctx context.Context, identity string) (int, error) {
	identity = collab.NormalizeIdentity(identity)
	if identity == "" {
		return 0, nil
	}
	if s.unread != nil {
		count, err := s.unread.Get(ctx, identity)
		if err == nil {
			return count, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			logutil.GetLogger(ctx).Warn("read unread cache failed", zap.Error(err))
		}
	}
	count, err := s.notifications.CountUnread(ctx, identity)
	if err != nil {
		return 0, err
	}
	if s.unread != nil {
		if err := s.unread.Set(ctx, identity, count); err != nil {
			logutil.GetLogger(ctx).Warn("write unread cache failed", zap.Error(err))
		}
	}
	return count, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, identity, id string) error {
	identity = collab.NormalizeIdentity(identity)
	if err := s.notifications.MarkRead(ctx, identity, id); err != nil {
		return err
	}
	s.invalidate(ctx, identity)
	return nil
}

// Cleanup removes read notifications older than keep.
func (s *NotificationService) Cleanup(ctx context.Context, keep time.Duration) (int64, error) {
	before := time.Now().Add(-keep).Unix()
	return s.notifications.DeleteReadBefore(ctx, before)
}

func (s *NotificationService) invalidate(ctx context.Context, recipient string) {
	if s.unread == nil {
		return
	}
	if err := s.unread.Invalidate(ctx, recipient); err != nil {
		logutil.GetLogger(ctx).Warn("invalidate unread cache failed", zap.Error(err))
	}
}
