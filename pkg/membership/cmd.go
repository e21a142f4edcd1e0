package membership

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"
	"github.com/trailkeepers/membership-engine/pkg/clerk"
	"github.com/trailkeepers/membership-engine/pkg/email"
	"github.com/trailkeepers/membership-engine/pkg/httpserver"
	"github.com/trailkeepers/membership-engine/pkg/payment"
	"github.com/trailkeepers/membership-engine/pkg/salesforce"
	"go.uber.org/zap"
)

var (
	httpServerAddress = os.Getenv("HTTP_ADDRESS")

	salesforceLoginURL     = os.Getenv("SALESFORCE_LOGIN_URL")
	salesforceClientID     = os.Getenv("SALESFORCE_CLIENT_ID")
	salesforceClientSecret = os.Getenv("SALESFORCE_CLIENT_SECRET")
	salesforceUsername     = os.Getenv("SALESFORCE_USERNAME")
	salesforcePassword     = os.Getenv("SALESFORCE_PASSWORD")

	clerkAPIURL    = os.Getenv("CLERK_API_URL")
	clerkSecretKey = os.Getenv("CLERK_SECRET_KEY")

	stripeSecretKey = os.Getenv("STRIPE_SECRET_KEY")

	sendgridAPIKey  = os.Getenv("SENDGRID_API_KEY")
	emailSender     = os.Getenv("EMAIL_SENDER")
	emailSenderName = os.Getenv("EMAIL_SENDER_NAME")
)

func Command() *cobra.Command {
	return &cobra.Command{
		RunE: func(cmd *cobra.Command, args []string) error {
			return start(cmd.Context())
		},
	}
}

func start(ctx context.Context) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}

	if stripeSecretKey == "" {
		return errors.New("STRIPE_SECRET_KEY is required")
	}
	if clerkSecretKey == "" {
		return errors.New("CLERK_SECRET_KEY is required")
	}

	// Missing CRM secrets surface as a ConfigError on first token use.
	crm := salesforce.New(salesforce.Config{
		LoginURL:     salesforceLoginURL,
		ClientID:     salesforceClientID,
		ClientSecret: salesforceClientSecret,
		Username:     salesforceUsername,
		Password:     salesforcePassword,
	}, logger)

	identity := clerk.New(clerkAPIURL, clerkSecretKey, logger)

	payments := payment.New(payment.Config{APIKey: stripeSecretKey}, logger)

	var emails email.Service
	if sendgridAPIKey != "" {
		emails = email.NewSendGridClient(sendgridAPIKey, emailSender, emailSenderName, logger)
	} else {
		logger.Warn("SENDGRID_API_KEY not set, welcome emails disabled")
	}

	saga := NewService(logger, crm, identity, emails)

	routes := &httpRoutes{
		logger:   logger,
		crm:      crm,
		identity: identity,
		payments: payments,
		saga:     saga,
	}

	address := httpServerAddress
	if address == "" {
		address = ":8080"
	}

	logger.Info("starting membership service", zap.String("address", address))
	return httpserver.RegisterAndStart(logger, address, routes)
}
