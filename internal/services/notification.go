package services

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	"gorm.io/gorm"

	"duoqueue-dating-app/internal/models"
)

// NotificationService records in-app notifications and pushes them through
// Firebase Cloud Messaging when the user has a registered device token.
// Everything here is best-effort: a failed push never fails the operation
// that triggered it.
type NotificationService struct {
	db  *gorm.DB
	fcm *messaging.Client
	log *logrus.Logger
}

func NewNotificationService(db *gorm.DB, fcm *messaging.Client, log *logrus.Logger) *NotificationService {
	return &NotificationService{db: db, fcm: fcm, log: log}
}

// NewMessagingClient builds the FCM client from a service-account file.
// Returns nil when push is not configured; the service then only writes
// in-app notification rows.
func NewMessagingClient(ctx context.Context, credentialsPath string) (*messaging.Client, error) {
	if credentialsPath == "" {
		return nil, nil
	}
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, err
	}
	return app.Messaging(ctx)
}

// Notify stores an in-app notification and pushes it if possible.
func (s *NotificationService) Notify(ctx context.Context, userID uint, ntype, title, body, data string) {
	notification := models.Notification{
		UserID: userID,
		Type:   ntype,
		Title:  title,
		Body:   body,
		Data:   data,
	}
	if err := s.db.WithContext(ctx).Create(&notification).Error; err != nil {
		s.log.WithError(err).WithField("user", userID).Warn("failed to store notification")
	}

	if s.fcm == nil {
		return
	}
	var profile models.Profile
	if err := s.db.WithContext(ctx).Select("device_token").First(&profile, userID).Error; err != nil {
		return
	}
	if profile.DeviceToken == nil || *profile.DeviceToken == "" {
		return
	}

	_, err := s.fcm.Send(ctx, &messaging.Message{
		Token: *profile.DeviceToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: map[string]string{"type": ntype, "payload": data},
	})
	if err != nil {
		s.log.WithError(err).WithField("user", userID).Warn("failed to send push notification")
	}
}

// List returns the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID uint, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}
