// Package wallet is the client for the external wallet service. Settlement credits prizes
// through it and ManGoSet stake entries debit through it.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/stakeleague/internal/config"
	"github.com/yourusername/stakeleague/internal/httpclient"
)

var (
	// ErrWalletNotFound means the user has no wallet yet
	ErrWalletNotFound = errors.New("wallet not found")
	// ErrInsufficientBalance is returned by Debit when the balance cannot cover the amount
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInvalidAmount rejects zero or negative movements before any call is made
	ErrInvalidAmount = errors.New("amount must be positive")
)

// Wallet moves virtual currency in and out of a user's balance.
// reference makes a movement idempotent on the wallet side.
type Wallet interface {
	Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, reference string) error
	Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, reference string) error
}

type movement struct {
	Amount    string `json:"amount"`
	Reference string `json:"reference"`
}

// HTTPWallet implements Wallet over the wallet service's REST API
type HTTPWallet struct {
	baseURL string
	apiKey  string
	client  *httpclient.Client
}

// NewHTTPWallet creates a wallet client from configuration
func NewHTTPWallet(cfg config.WalletConfig, logger *logrus.Logger) *HTTPWallet {
	hc := httpclient.DefaultConfig("wallet")
	hc.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	hc.MaxRetries = cfg.RetryAttempts
	hc.RateLimit = cfg.RequestsPerSecond

	return &HTTPWallet{
		baseURL: cfg.URL,
		apiKey:  cfg.APIKey,
		client:  httpclient.New(hc, logger),
	}
}

// Credit adds amount to the user's balance
func (w *HTTPWallet) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, reference string) error {
	return w.move(ctx, "credit", userID, amount, reference)
}

// Debit removes amount from the user's balance
func (w *HTTPWallet) Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, reference string) error {
	return w.move(ctx, "debit", userID, amount, reference)
}

func (w *HTTPWallet) move(ctx context.Context, op string, userID uuid.UUID, amount decimal.Decimal, reference string) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	endpoint, err := url.JoinPath(w.baseURL, "wallets", userID.String(), op)
	if err != nil {
		return fmt.Errorf("failed to build wallet url: %w", err)
	}

	headers := map[string]string{
		"Authorization":   "Bearer " + w.apiKey,
		"Idempotency-Key": reference,
	}
	err = w.client.DoJSON(ctx, http.MethodPost, endpoint, headers,
		movement{Amount: amount.StringFixed(2), Reference: reference}, nil)

	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusConflict:
			// the reference was already applied
			return nil
		case http.StatusNotFound:
			return fmt.Errorf("%s %s: %w", op, userID, ErrWalletNotFound)
		case http.StatusPaymentRequired, http.StatusUnprocessableEntity:
			return fmt.Errorf("%s %s: %w", op, userID, ErrInsufficientBalance)
		}
	}
	if err != nil {
		return fmt.Errorf("wallet %s failed for user %s: %w", op, userID, err)
	}
	return nil
}

// Close releases idle connections
func (w *HTTPWallet) Close() error {
	return w.client.Close()
}
