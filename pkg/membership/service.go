package membership

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/trailkeepers/membership-engine/pkg/email"
	"github.com/trailkeepers/membership-engine/pkg/membership/api"
	"github.com/trailkeepers/membership-engine/pkg/metrics"
	"github.com/trailkeepers/membership-engine/pkg/salesforce"
	"go.uber.org/zap"
)

//go:generate mockery --name CRMGateway
type CRMGateway interface {
	CreateContact(ctx context.Context, p salesforce.ContactParams) (string, error)
	GetContact(ctx context.Context, id string) (*salesforce.Contact, error)
	CreateOpportunity(ctx context.Context, p salesforce.OpportunityParams) (string, error)
	UpdateContact(ctx context.Context, id string, fields map[string]interface{}) error
}

//go:generate mockery --name IdentityGateway
type IdentityGateway interface {
	CreateUser(ctx context.Context, email, firstName, lastName, password string) (string, error)
	DeleteUser(ctx context.Context, userID string) error
}

// Service runs the signup saga across the CRM and identity gateways. The
// saga is request-scoped and strictly sequential; there is no durable
// in-flight state.
type Service struct {
	logger   *zap.Logger
	crm      CRMGateway
	identity IdentityGateway
	emails   email.Service

	now func() time.Time
}

func NewService(logger *zap.Logger, crm CRMGateway, identity IdentityGateway, emails email.Service) *Service {
	return &Service{
		logger:   logger,
		crm:      crm,
		identity: identity,
		emails:   emails,
		now:      time.Now,
	}
}

// CreateMembership executes the signup transaction. Stage failures before
// the opportunity exists abort the saga; identity-account and back-reference
// failures are tolerated so a paid membership is never lost to an auth
// hiccup.
func (s *Service) CreateMembership(ctx context.Context, req api.MembershipRequest) (*api.MembershipResponse, error) {
	level, term, emailOptIn, err := validateRequest(req)
	if err != nil {
		return nil, err
	}

	price, err := Price(level, term)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	start, end := MembershipPeriod(s.now(), term)

	// Stage 1: contact. The re-fetch obtains the CRM-assigned AccountId
	// required by the opportunity.
	contactID, err := s.crm.CreateContact(ctx, salesforce.ContactParams{
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Email:             req.Email,
		Phone:             req.Phone,
		MailingStreet:     req.Street,
		MailingCity:       req.City,
		MailingState:      req.State,
		MailingPostalCode: req.PostalCode,
		EmailOptIn:        emailOptIn,
		StripeCustomerID:  req.StripeCustomerID,
	})
	if err != nil {
		metrics.SagaStageFailures.WithLabelValues("contact").Inc()
		metrics.SignupsTotal.WithLabelValues("failed").Inc()
		return nil, &StageError{Stage: "contact", Err: err}
	}

	contact, err := s.crm.GetContact(ctx, contactID)
	if err != nil {
		metrics.SagaStageFailures.WithLabelValues("contact").Inc()
		metrics.SignupsTotal.WithLabelValues("failed").Inc()
		return nil, &StageError{Stage: "contact", ContactID: contactID, Err: err}
	}

	// Stage 2: opportunity. The contact is left in place on failure; a
	// human can attach a membership to it manually.
	name := OpportunityName(req.FirstName, req.LastName, level, start)
	opportunityID, err := s.crm.CreateOpportunity(ctx, salesforce.OpportunityParams{
		Name:                name,
		AccountID:           contact.AccountID,
		ContactID:           contactID,
		Amount:              price,
		StageName:           "Closed Won",
		CloseDate:           FormatDate(start),
		MembershipStartDate: FormatDate(start),
		MembershipEndDate:   FormatDate(end),
		MembershipLevel:     string(level),
		MembershipTerm:      string(term),
	})
	if err != nil {
		metrics.SagaStageFailures.WithLabelValues("opportunity").Inc()
		metrics.SignupsTotal.WithLabelValues("failed").Inc()
		return nil, &StageError{Stage: "opportunity", ContactID: contactID, Err: err}
	}

	// Stage 3: identity account. Tolerated on failure; the account is
	// considered pending setup.
	clerkUserCreated := false
	clerkUserID := ""
	if id, err := s.identity.CreateUser(ctx, req.Email, req.FirstName, req.LastName, ""); err != nil {
		metrics.SagaStageFailures.WithLabelValues("identity").Inc()
		s.logger.Warn("identity account creation failed, membership stands",
			zap.String("contact_id", contactID),
			zap.Error(err))
	} else {
		clerkUserCreated = true
		clerkUserID = id
	}

	// Stage 4: back-reference. Best effort only.
	if clerkUserCreated {
		if err := s.crm.UpdateContact(ctx, contactID, map[string]interface{}{
			"Clerk_User_Id__c": clerkUserID,
		}); err != nil {
			metrics.SagaStageFailures.WithLabelValues("backreference").Inc()
			s.logger.Warn("failed to attach identity user to contact",
				zap.String("contact_id", contactID),
				zap.String("clerk_user_id", clerkUserID),
				zap.Error(err))
		}
	}

	// Stage 5: welcome email. Best effort only.
	if s.emails != nil {
		if err := s.emails.SendWelcome(ctx, req.Email, req.FirstName, string(level)); err != nil {
			s.logger.Warn("welcome email failed",
				zap.String("contact_id", contactID),
				zap.Error(err))
		}
	}

	metrics.SignupsTotal.WithLabelValues("success").Inc()
	s.logger.Info("membership signup completed",
		zap.String("contact_id", contactID),
		zap.String("opportunity_id", opportunityID),
		zap.String("level", string(level)),
		zap.String("term", string(term)),
		zap.Bool("clerk_user_created", clerkUserCreated))

	resp := &api.MembershipResponse{
		Success: true,
		Contact: api.MembershipContact{
			ID:        contactID,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
			AccountID: contact.AccountID,
		},
		Opportunity: api.MembershipOpportunity{
			ID:                  opportunityID,
			Name:                name,
			Amount:              price,
			MembershipStartDate: FormatDate(start),
			MembershipEndDate:   FormatDate(end),
		},
		ClerkUserCreated: clerkUserCreated,
	}
	if clerkUserCreated {
		resp.Contact.ClerkUserID = &clerkUserID
	}
	return resp, nil
}

func validateRequest(req api.MembershipRequest) (Level, Term, bool, error) {
	if req.FirstName == "" || req.LastName == "" || req.Email == "" {
		return "", "", false, &ValidationError{Message: "Missing required fields: firstName, lastName, email"}
	}
	if req.MembershipLevel == "" || req.MembershipTerm == "" {
		return "", "", false, &ValidationError{Message: "Missing required fields: membershipLevel, membershipTerm"}
	}

	emailOptIn, ok := parseBool(req.EmailOptIn)
	if !ok {
		return "", "", false, &ValidationError{Message: "emailOptIn must be a boolean"}
	}

	level, ok := ParseLevel(req.MembershipLevel)
	if !ok {
		return "", "", false, &ValidationError{Message: "Invalid membershipLevel: must be one of bronze, silver, gold"}
	}

	term, ok := ParseTerm(req.MembershipTerm)
	if !ok {
		return "", "", false, &ValidationError{Message: "Invalid membershipTerm: must be one of monthly, annual"}
	}

	return level, term, emailOptIn, nil
}

// parseBool accepts only the JSON literals true and false, so a quoted
// "true" is rejected rather than coerced.
func parseBool(raw []byte) (bool, bool) {
	switch {
	case bytes.Equal(bytes.TrimSpace(raw), []byte("true")):
		return true, true
	case bytes.Equal(bytes.TrimSpace(raw), []byte("false")):
		return false, true
	}
	return false, false
}
