package payment

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"go.uber.org/zap"
)

const (
	// DefaultLedgerRetries is the number of extra retrieval attempts made
	// while waiting for the processor to populate the balance transaction.
	DefaultLedgerRetries = 5

	// DefaultLedgerRetryDelay leaves the processor enough time between
	// polls to usually settle within the retry budget.
	DefaultLedgerRetryDelay = 2 * time.Second
)

// Error wraps a payment-processor failure with its upstream message.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string { return "payment error: " + e.Message }

func (e *Error) Unwrap() error { return e.Err }

type Config struct {
	APIKey           string
	LedgerRetries    int
	LedgerRetryDelay time.Duration
}

// Gateway wraps payment-intent and customer calls to the processor. The
// sleep hook exists so tests can drive the ledger poll without real delays.
type Gateway struct {
	client *client.API
	logger *zap.Logger

	ledgerRetries    int
	ledgerRetryDelay time.Duration
	sleep            func(time.Duration)
}

func New(cfg Config, logger *zap.Logger) *Gateway {
	sc := &client.API{}
	sc.Init(cfg.APIKey, nil)
	return NewWithClient(sc, cfg, logger)
}

// NewWithClient builds a gateway on a caller-supplied API client; tests use
// it to point stripe-go at a mock backend.
func NewWithClient(sc *client.API, cfg Config, logger *zap.Logger) *Gateway {
	retries := cfg.LedgerRetries
	if retries <= 0 {
		retries = DefaultLedgerRetries
	}
	delay := cfg.LedgerRetryDelay
	if delay <= 0 {
		delay = DefaultLedgerRetryDelay
	}
	return &Gateway{
		client:           sc,
		logger:           logger,
		ledgerRetries:    retries,
		ledgerRetryDelay: delay,
		sleep:            time.Sleep,
	}
}

// CreatePaymentIntent creates an intent for the given dollar amount with
// automatic payment-method selection. The returned intent carries the client
// secret used for client-side confirmation.
func (g *Gateway) CreatePaymentIntent(ctx context.Context, amountDollars float64, email string, metadata map[string]string) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Params: stripe.Params{
			Context: ctx,
			// Prevents double-charging when the network fails but the
			// processor succeeded.
			IdempotencyKey: stripe.String(uuid.NewString()),
		},
		Amount:   stripe.Int64(int64(math.Round(amountDollars * 100))),
		Currency: stripe.String(string(stripe.CurrencyUSD)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if email != "" {
		params.ReceiptEmail = stripe.String(email)
	}
	if len(metadata) > 0 {
		params.Metadata = metadata
	}

	pi, err := g.client.PaymentIntents.New(params)
	if err != nil {
		return nil, wrapStripeError(err)
	}
	return pi, nil
}

// GetPaymentIntent retrieves an intent with its charge and the charge's
// balance transaction expanded inline. The balance transaction is populated
// by the processor asynchronously after capture, so retrieval polls a bounded
// number of times; exhausting the budget returns the latest response as-is.
// Hard API failures are not retried.
func (g *Gateway) GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Params: stripe.Params{Context: ctx},
	}
	params.AddExpand("latest_charge.balance_transaction")

	attempts := g.ledgerRetries + 1
	var pi *stripe.PaymentIntent
	for i := 0; i < attempts; i++ {
		var err error
		pi, err = g.client.PaymentIntents.Get(id, params)
		if err != nil {
			return nil, wrapStripeError(err)
		}
		if ledgerPopulated(pi) {
			return pi, nil
		}
		if i < attempts-1 {
			g.sleep(g.ledgerRetryDelay)
		}
	}

	g.logger.Warn("balance transaction not populated after retries",
		zap.String("payment_intent_id", id),
		zap.Int("attempts", attempts))

	return pi, nil
}

// CreateCustomer creates a processor customer record.
func (g *Gateway) CreateCustomer(ctx context.Context, email, name string, metadata map[string]string) (*stripe.Customer, error) {
	params := &stripe.CustomerParams{
		Params: stripe.Params{Context: ctx},
		Email:  stripe.String(email),
	}
	if name != "" {
		params.Name = stripe.String(name)
	}
	if len(metadata) > 0 {
		params.Metadata = metadata
	}

	c, err := g.client.Customers.New(params)
	if err != nil {
		return nil, wrapStripeError(err)
	}
	return c, nil
}

// ledgerPopulated reports whether the intent carries a fully-expanded balance
// transaction. An unexpanded reference decodes to an object holding only the
// id, so a zero Created distinguishes a bare id from the real ledger entry.
func ledgerPopulated(pi *stripe.PaymentIntent) bool {
	if pi == nil || pi.LatestCharge == nil {
		return false
	}
	bt := pi.LatestCharge.BalanceTransaction
	if bt == nil {
		return false
	}
	return bt.Created != 0 || bt.Status != ""
}

func wrapStripeError(err error) error {
	var sErr *stripe.Error
	if errors.As(err, &sErr) && sErr.Msg != "" {
		return &Error{Message: sErr.Msg, Err: err}
	}
	return &Error{Message: err.Error(), Err: err}
}
