package utils

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"firebase.google.com/go/v4/messaging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"gopkg.in/gomail.v2"

	"github.com/dkamau/unimart_backend/config"
	"github.com/dkamau/unimart_backend/models"
)

// SaveNotification saves an in-app notification to the database
func SaveNotification(db *mongo.Client, userID primitive.ObjectID, title, message, notifType string, data interface{}) error {
	collection := config.GetCollection(db, "notifications")

	notification := models.Notification{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      notifType,
		Data:      data,
		IsRead:    false,
		CreatedAt: time.Now(),
	}

	_, err := collection.InsertOne(context.Background(), notification)
	return err
}

// SendEmail sends a plain-text email through the configured SMTP relay.
func SendEmail(to, subject, body string) error {
	smtpHost := os.Getenv("SMTP_HOST")
	smtpUser := os.Getenv("SMTP_USER")
	smtpPass := os.Getenv("SMTP_PASS")
	fromEmail := os.Getenv("FROM_EMAIL")

	senderEmail := fromEmail
	if senderEmail == "" {
		senderEmail = smtpUser
	}

	if smtpHost == "" || smtpUser == "" || smtpPass == "" || senderEmail == "" {
		log.Println("SMTP configuration is incomplete for notifications")
		return fmt.Errorf("SMTP configuration is incomplete: check SMTP_HOST, SMTP_USER, SMTP_PASS, and FROM_EMAIL")
	}

	smtpPort := 2525
	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		if portNum, err := strconv.Atoi(portStr); err == nil && portNum > 0 {
			smtpPort = portNum
		}
	}

	m := gomail.NewMessage()
	m.SetHeader("From", senderEmail)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPass)
	return d.DialAndSend(m)
}

// SendPushNotification delivers an FCM push to a device token. A missing
// Firebase app or empty token is a no-op.
func SendPushNotification(fcmToken, title, body string, data map[string]string) error {
	if config.FirebaseApp == nil || fcmToken == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := config.FirebaseApp.Messaging(ctx)
	if err != nil {
		return fmt.Errorf("failed to get messaging client: %w", err)
	}

	msg := &messaging.Message{
		Token: fcmToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	if _, err := client.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send push notification: %w", err)
	}
	return nil
}

// NotifyApplicationReviewed informs an applicant of the review outcome by
// email, push, and in-app notification. Delivery failures are logged, not
// propagated; the review itself has already been committed.
func NotifyApplicationReviewed(db *mongo.Client, application *models.AgentApplication, approved bool, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err := config.GetCollection(db, "users").FindOne(ctx, bson.M{"_id": application.UserID}).Decode(&user)
	if err != nil {
		log.Printf("Failed to load applicant %s for review notification: %v", application.UserID.Hex(), err)
		return
	}

	var subject, body string
	if approved {
		subject = "Your sales agent application has been approved"
		body = fmt.Sprintf("Dear %s,\n\nCongratulations! Your sales agent application has been approved. You can now sign in and access your agent dashboard.\n\nBest regards,\nThe UniMart Team", application.FullName)
	} else {
		subject = "Your sales agent application was not successful"
		body = fmt.Sprintf("Dear %s,\n\nUnfortunately your sales agent application was not successful.\n\nReason: %s\n\nYou are welcome to submit a new application.\n\nBest regards,\nThe UniMart Team", application.FullName, reason)
	}

	if err := SendEmail(user.Email, subject, body); err != nil {
		log.Printf("Failed to send review email to %s: %v", user.Email, err)
	}

	if err := SendPushNotification(user.FCMToken, subject, body, map[string]string{
		"type":          "application_reviewed",
		"applicationId": application.ID.Hex(),
		"status":        application.Status,
	}); err != nil {
		log.Printf("Failed to send review push to %s: %v", user.ID.Hex(), err)
	}

	if err := SaveNotification(db, user.ID, subject, body, "application_reviewed", map[string]interface{}{
		"applicationId": application.ID.Hex(),
		"status":        application.Status,
	}); err != nil {
		log.Printf("Failed to save review notification: %v", err)
	}
}
