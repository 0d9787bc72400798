package services

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/google/uuid"
	"github.com/marisol/coachloop-api/internal/database"
	"github.com/marisol/coachloop-api/internal/logger"
	"github.com/marisol/coachloop-api/internal/models"
	"google.golang.org/api/option"
)

// PushService handles sending push notifications via Firebase Cloud Messaging
type PushService struct {
	client *messaging.Client
	log    *logger.Logger
}

// Global push service instance
var Push *PushService

// InitPush initializes the Firebase push notification service.
// Returns nil gracefully if no service account is configured (dev mode).
func InitPush(serviceAccountPath string, log *logger.Logger) error {
	if serviceAccountPath == "" {
		log.Info("FCM: no service account configured, push notifications disabled")
		Push = &PushService{client: nil, log: log}
		return nil
	}

	ctx := context.Background()
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(serviceAccountPath))
	if err != nil {
		log.Warn("FCM: failed to initialize Firebase app", "error", err.Error())
		Push = &PushService{client: nil, log: log}
		return nil
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		log.Warn("FCM: failed to get messaging client", "error", err.Error())
		Push = &PushService{client: nil, log: log}
		return nil
	}

	Push = &PushService{client: client, log: log}
	log.Info("FCM: push notifications enabled")
	return nil
}

// SendToUser sends a push notification to a user by their ID.
// No-op if push is not configured or user has no FCM token.
func (p *PushService) SendToUser(userID uuid.UUID, title, body string, data map[string]string) {
	if p.client == nil {
		return
	}

	var user models.User
	if err := database.DB.Select("fcm_token").First(&user, userID).Error; err != nil {
		return
	}

	if user.FCMToken == "" {
		return
	}

	msg := &messaging.Message{
		Token: user.FCMToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
	}

	if data != nil {
		msg.Data = data
	}

	if _, err := p.client.Send(context.Background(), msg); err != nil {
		p.log.Warn("FCM: failed to send push", "user_id", userID, "error", err.Error())
	}
}
