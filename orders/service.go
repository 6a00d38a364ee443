package orders

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/jrsteele09/wakelni-client/apiclient"
	apperrors "github.com/jrsteele09/wakelni-client/internal/errors"
	"github.com/jrsteele09/wakelni-client/internal/utils"
	"github.com/pkg/errors"
)

const minePath = "/api/commandes/mes-commandes/"

// Status is the fulfilment state of an order.
type Status string

// Statuses a cook can move an order to.
const (
	StatusPreparing Status = "EN_PREPARATION"
	StatusShipping  Status = "EN_LIVRAISON"
	StatusDelivered Status = "LIVREE"
)

// Statuses returns the values accepted by ChangeStatus, in workflow order.
func Statuses() []Status {
	return []Status{StatusPreparing, StatusShipping, StatusDelivered}
}

func (s Status) Valid() bool {
	for _, v := range Statuses() {
		if s == v {
			return true
		}
	}
	return false
}

type Order struct {
	ID        int64         `json:"id"`
	Client    string        `json:"client,omitempty"`
	Cook      string        `json:"cuisinier,omitempty"`
	Status    Status        `json:"statut"`
	Total     utils.Decimal `json:"total"`
	Lines     []Line        `json:"lignes"`
	CreatedAt time.Time     `json:"created_at"`
}

type Line struct {
	ID       int64         `json:"id,omitempty"`
	DishID   string        `json:"plat,omitempty"`
	DishName string        `json:"plat_nom,omitempty"`
	Quantity int           `json:"quantite"`
	Subtotal utils.Decimal `json:"sous_total"`
}

// Acknowledgement is the {"detail": ...} body returned by order actions.
type Acknowledgement struct {
	Detail string `json:"detail"`
}

type statusRequest struct {
	Status Status `json:"statut"`
}

type Service struct {
	client apiclient.Requester
}

func NewService(client apiclient.Requester) *Service {
	return &Service{client: client}
}

func orderPath(id int64, action string) string {
	return "/api/commandes/" + strconv.FormatInt(id, 10) + "/" + action + "/"
}

// Mine lists the orders of the signed-in user: placed orders for a client, received
// orders for a cook.
func (s *Service) Mine(ctx context.Context) ([]Order, error) {
	var orders []Order
	if err := s.client.DoJSON(ctx, apiclient.Request{Method: http.MethodGet, Path: minePath}, &orders); err != nil {
		return nil, errors.Wrap(err, "[Service.Mine]")
	}
	return orders, nil
}

// ChangeStatus moves an order along the cook's workflow.
func (s *Service) ChangeStatus(ctx context.Context, id int64, status Status) error {
	if !status.Valid() {
		return errors.Wrapf(apperrors.ErrInvalidRequest, "unknown order status %q", status)
	}
	_, err := s.client.Do(ctx, apiclient.Request{
		Method: http.MethodPatch,
		Path:   orderPath(id, "changer-statut"),
		Body:   statusRequest{Status: status},
	})
	return errors.Wrapf(err, "[Service.ChangeStatus] %d", id)
}

func (s *Service) Cancel(ctx context.Context, id int64) (*Acknowledgement, error) {
	return s.action(ctx, id, "annuler", "[Service.Cancel]")
}

// ConfirmReceipt marks a delivered order as received by the client.
func (s *Service) ConfirmReceipt(ctx context.Context, id int64) (*Acknowledgement, error) {
	return s.action(ctx, id, "confirmer-reception", "[Service.ConfirmReceipt]")
}

func (s *Service) action(ctx context.Context, id int64, action, op string) (*Acknowledgement, error) {
	var ack Acknowledgement
	err := s.client.DoJSON(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   orderPath(id, action),
		Body:   struct{}{},
	}, &ack)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %d", op, id)
	}
	return &ack, nil
}
