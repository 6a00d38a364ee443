package payments

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/wakelni-client/apiclient"
	apperrors "github.com/jrsteele09/wakelni-client/internal/errors"
	"github.com/jrsteele09/wakelni-client/internal/utils"
	"github.com/pkg/errors"
)

const (
	checkoutPath = "/api/paiements/create-checkout-session/"
	confirmPath  = "/api/paiements/confirm/"
)

// Checkout is a hosted payment page for the current cart. The backend turns the cart
// into an order when the session is created.
type Checkout struct {
	URL string `json:"url"`
}

// Invoice is returned once a checkout session is confirmed as paid.
type Invoice struct {
	Detail         string        `json:"detail"`
	OrderID        int64         `json:"commande_id"`
	Amount         utils.Decimal `json:"montant"`
	Date           time.Time     `json:"date"`
	Status         string        `json:"statut"`
	Type           string        `json:"type"`
	TransactionRef string        `json:"transaction_ref"`
}

type confirmRequest struct {
	SessionID string `json:"session_id"`
}

type Service struct {
	client apiclient.Requester
}

func NewService(client apiclient.Requester) *Service {
	return &Service{client: client}
}

// CreateCheckoutSession starts payment of the signed-in client's cart.
func (s *Service) CreateCheckoutSession(ctx context.Context) (*Checkout, error) {
	var checkout Checkout
	err := s.client.DoJSON(ctx, apiclient.Request{Method: http.MethodPost, Path: checkoutPath, Body: struct{}{}}, &checkout)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.CreateCheckoutSession]")
	}
	if checkout.URL == "" {
		return nil, errors.Wrap(apperrors.ErrMissingResponse, "[Service.CreateCheckoutSession] url")
	}
	return &checkout, nil
}

// Confirm reports a completed checkout session back to the backend.
func (s *Service) Confirm(ctx context.Context, sessionID string) (*Invoice, error) {
	sessionID = CleanSessionID(sessionID)
	if sessionID == "" {
		return nil, errors.Wrap(apperrors.ErrInvalidRequest, "session id is required")
	}

	var invoice Invoice
	err := s.client.DoJSON(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   confirmPath,
		Body:   confirmRequest{SessionID: sessionID},
	}, &invoice)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Confirm]")
	}
	return &invoice, nil
}

// CleanSessionID strips whitespace and the braces left around the ID when the
// success URL placeholder was double escaped.
func CleanSessionID(sessionID string) string {
	sessionID = strings.TrimSpace(sessionID)
	sessionID = strings.TrimPrefix(sessionID, "{")
	sessionID = strings.TrimSuffix(sessionID, "}")
	return strings.TrimSpace(sessionID)
}
