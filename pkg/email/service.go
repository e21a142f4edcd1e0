package email

import (
	"context"
	"fmt"

	sendgridgo "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

//go:generate mockery --name Service
type Service interface {
	SendWelcome(ctx context.Context, email, firstName, membershipLevel string) error
}

type sendGridClient struct {
	client     *sendgridgo.Client
	sender     string
	senderName string
	logger     *zap.Logger
}

func NewSendGridClient(apiKey, sender, senderName string, logger *zap.Logger) Service {
	return sendGridClient{
		client:     sendgridgo.NewSendClient(apiKey),
		sender:     sender,
		senderName: senderName,
		logger:     logger,
	}
}

func (c sendGridClient) SendWelcome(ctx context.Context, email, firstName, membershipLevel string) error {
	from := mail.NewEmail(c.senderName, c.sender)
	subject := fmt.Sprintf("Welcome to your %s membership", membershipLevel)
	to := mail.NewEmail(firstName, email)

	htmlBody := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your %s membership is active. Thank you for supporting the trails.</p>",
		firstName, membershipLevel)

	message := mail.NewSingleEmail(from, subject, to, "", htmlBody)
	resp, err := c.client.Send(message)
	if err != nil {
		c.logger.Error("send welcome email error", zap.Error(err))
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("send welcome email error",
			zap.String("recipient", email),
			zap.Int("status", resp.StatusCode),
			zap.String("response", resp.Body))
		return fmt.Errorf("send welcome email: status %d", resp.StatusCode)
	}

	c.logger.Info("Welcome email sent", zap.String("recipient", email))
	return nil
}
