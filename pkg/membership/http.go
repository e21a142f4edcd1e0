package membership

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/stripe/stripe-go/v79"
	"github.com/trailkeepers/membership-engine/pkg/clerk"
	"github.com/trailkeepers/membership-engine/pkg/httpserver"
	"github.com/trailkeepers/membership-engine/pkg/membership/api"
	"github.com/trailkeepers/membership-engine/pkg/payment"
	"github.com/trailkeepers/membership-engine/pkg/salesforce"
	"go.uber.org/zap"
)

// CRMService is the full CRM surface used by the HTTP layer; the saga itself
// only needs the narrower CRMGateway.
type CRMService interface {
	CRMGateway
	GetContactByEmail(ctx context.Context, email string) (*salesforce.Contact, error)
	GetContactByClerkUserID(ctx context.Context, clerkUserID string) (*salesforce.Contact, error)
	GetOpportunitiesByContact(ctx context.Context, contactID string) ([]salesforce.Opportunity, error)
}

//go:generate mockery --name PaymentGateway
type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, amountDollars float64, email string, metadata map[string]string) (*stripe.PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
	CreateCustomer(ctx context.Context, email, name string, metadata map[string]string) (*stripe.Customer, error)
}

type httpRoutes struct {
	logger   *zap.Logger
	crm      CRMService
	identity IdentityGateway
	payments PaymentGateway
	saga     *Service
}

func (r *httpRoutes) Register(e *echo.Echo) {
	sf := e.Group("/api/salesforce")
	sf.POST("/membership", r.CreateMembership)
	sf.POST("/contacts", r.CreateContact)
	sf.GET("/contacts/:id", r.GetContact, httpserver.RequireAuth)
	sf.GET("/contacts/email/:email", r.GetContactByEmail, httpserver.RequireAuth)
	sf.GET("/contacts/clerk/:clerkUserId", r.GetContactByClerkUserID, httpserver.RequireAuth)
	sf.POST("/opportunities", r.CreateOpportunity, httpserver.RequireAuth)
	sf.GET("/opportunities/:contactId", r.GetOpportunities, httpserver.RequireAuth)

	st := e.Group("/api/stripe")
	st.POST("/create-payment-intent", r.CreatePaymentIntent)
	st.GET("/payment-intent/:id", r.GetPaymentIntent)
	st.POST("/create-customer", r.CreateCustomer)

	ck := e.Group("/api/clerk", httpserver.RequireAuth)
	ck.POST("/users", r.CreateClerkUser)
	ck.DELETE("/users/:userId", r.DeleteClerkUser)
}

func bindValidate(ctx echo.Context, i interface{}) error {
	if err := ctx.Bind(i); err != nil {
		return err
	}

	if err := ctx.Validate(i); err != nil {
		return err
	}

	return nil
}

// CreateMembership runs the signup saga. 201 on success; 400 for validation
// failures; 500 with stage context when the contact or opportunity stage
// aborts.
func (r *httpRoutes) CreateMembership(ctx echo.Context) error {
	var req api.MembershipRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	resp, err := r.saga.CreateMembership(ctx.Request().Context(), req)
	if err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			return ctx.JSON(http.StatusBadRequest, api.ErrorResponse{Error: vErr.Message})
		}

		var sErr *StageError
		if errors.As(err, &sErr) {
			return ctx.JSON(http.StatusInternalServerError, api.ErrorResponse{
				Error:     sErr.Err.Error(),
				Stage:     sErr.Stage,
				ContactID: sErr.ContactID,
			})
		}

		return r.gatewayError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, resp)
}

func (r *httpRoutes) CreateContact(ctx echo.Context) error {
	var req api.CreateContactRequest
	if err := bindValidate(ctx, &req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	id, err := r.crm.CreateContact(ctx.Request().Context(), salesforce.ContactParams{
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Email:             req.Email,
		Phone:             req.Phone,
		MailingStreet:     req.Street,
		MailingCity:       req.City,
		MailingState:      req.State,
		MailingPostalCode: req.PostalCode,
		EmailOptIn:        req.EmailOptIn,
		StripeCustomerID:  req.StripeCustomerID,
	})
	if err != nil {
		return r.gatewayError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, api.CreateContactResponse{ID: id})
}

func (r *httpRoutes) GetContact(ctx echo.Context) error {
	contact, err := r.crm.GetContact(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return r.gatewayError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, contact)
}

func (r *httpRoutes) GetContactByEmail(ctx echo.Context) error {
	contact, err := r.crm.GetContactByEmail(ctx.Request().Context(), ctx.Param("email"))
	if err != nil {
		return r.gatewayError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, contact)
}

func (r *httpRoutes) GetContactByClerkUserID(ctx echo.Context) error {
	contact, err := r.crm.GetContactByClerkUserID(ctx.Request().Context(), ctx.Param("clerkUserId"))
	if err != nil {
		return r.gatewayError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, contact)
}

func (r *httpRoutes) CreateOpportunity(ctx echo.Context) error {
	var req api.CreateOpportunityRequest
	if err := bindValidate(ctx, &req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	stageName := req.StageName
	if stageName == "" {
		stageName = "Closed Won"
	}
	closeDate := req.CloseDate
	if closeDate == "" {
		closeDate = req.MembershipStartDate
	}

	id, err := r.crm.CreateOpportunity(ctx.Request().Context(), salesforce.OpportunityParams{
		Name:                req.Name,
		AccountID:           req.AccountID,
		ContactID:           req.ContactID,
		Amount:              req.Amount,
		StageName:           stageName,
		CloseDate:           closeDate,
		MembershipStartDate: req.MembershipStartDate,
		MembershipEndDate:   req.MembershipEndDate,
		MembershipLevel:     req.MembershipLevel,
		MembershipTerm:      req.MembershipTerm,
	})
	if err != nil {
		return r.gatewayError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, api.CreateOpportunityResponse{ID: id})
}

func (r *httpRoutes) GetOpportunities(ctx echo.Context) error {
	opportunities, err := r.crm.GetOpportunitiesByContact(ctx.Request().Context(), ctx.Param("contactId"))
	if err != nil {
		return r.gatewayError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, opportunities)
}

func (r *httpRoutes) CreatePaymentIntent(ctx echo.Context) error {
	var req api.CreatePaymentIntentRequest
	if err := bindValidate(ctx, &req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	pi, err := r.payments.CreatePaymentIntent(ctx.Request().Context(), req.Amount, req.Email, req.Metadata)
	if err != nil {
		return r.gatewayError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, paymentIntentResponse(pi))
}

func (r *httpRoutes) GetPaymentIntent(ctx echo.Context) error {
	pi, err := r.payments.GetPaymentIntent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return r.gatewayError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, paymentIntentResponse(pi))
}

func (r *httpRoutes) CreateCustomer(ctx echo.Context) error {
	var req api.CreateCustomerRequest
	if err := bindValidate(ctx, &req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	c, err := r.payments.CreateCustomer(ctx.Request().Context(), req.Email, req.Name, req.Metadata)
	if err != nil {
		return r.gatewayError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, api.CreateCustomerResponse{ID: c.ID})
}

func (r *httpRoutes) CreateClerkUser(ctx echo.Context) error {
	var req api.CreateUserRequest
	if err := bindValidate(ctx, &req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	userID, err := r.identity.CreateUser(ctx.Request().Context(), req.Email, req.FirstName, req.LastName, req.Password)
	if err != nil {
		return r.gatewayError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, api.CreateUserResponse{UserID: userID})
}

func (r *httpRoutes) DeleteClerkUser(ctx echo.Context) error {
	if err := r.identity.DeleteUser(ctx.Request().Context(), ctx.Param("userId")); err != nil {
		return r.gatewayError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]bool{"success": true})
}

// gatewayError translates gateway error kinds into status codes. Upstream
// messages surface directly; the caller is the organization's own SPA, not a
// public API consumer.
func (r *httpRoutes) gatewayError(ctx echo.Context, err error) error {
	switch {
	case errors.Is(err, salesforce.ErrContactNotFound):
		return ctx.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Contact not found"})
	case errors.Is(err, clerk.ErrUserNotFound):
		return ctx.JSON(http.StatusNotFound, api.ErrorResponse{Error: "User not found"})
	}

	var authErr *salesforce.AuthError
	if errors.As(err, &authErr) {
		return ctx.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: authErr.Message})
	}

	var cfgErr *salesforce.ConfigError
	if errors.As(err, &cfgErr) {
		r.logger.Error("CRM configuration incomplete", zap.Error(err))
		return ctx.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: cfgErr.Error()})
	}

	var apiErr *salesforce.APIError
	if errors.As(err, &apiErr) {
		return ctx.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: apiErr.Message})
	}

	var payErr *payment.Error
	if errors.As(err, &payErr) {
		return ctx.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: payErr.Message})
	}

	var idErr *clerk.Error
	if errors.As(err, &idErr) {
		return ctx.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: idErr.Message})
	}

	r.logger.Error("unhandled gateway error", zap.Error(err))
	return ctx.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
}

func paymentIntentResponse(pi *stripe.PaymentIntent) api.PaymentIntentResponse {
	resp := api.PaymentIntentResponse{
		ID:     pi.ID,
		Status: string(pi.Status),
		Amount: float64(pi.Amount) / 100,
	}
	if pi.ClientSecret != "" {
		resp.ClientSecret = pi.ClientSecret
	}
	if pi.LatestCharge != nil {
		if bt := pi.LatestCharge.BalanceTransaction; bt != nil && (bt.Created != 0 || bt.Status != "") {
			net := float64(bt.Net) / 100
			fee := float64(bt.Fee) / 100
			resp.NetAmount = &net
			resp.Fee = &fee
		}
	}
	return resp
}
