package complaints

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/wakelni-client/apiclient"
	apperrors "github.com/jrsteele09/wakelni-client/internal/errors"
	"github.com/pkg/errors"
)

const (
	createPath  = "/api/reclamations/creer/"
	minePath    = "/api/reclamations/mes-reclamations/"
	forCookPath = "/api/reclamations/cuisinier/"
)

// Reason is why a client complains about an order.
type Reason string

const (
	ReasonQuality    Reason = "QUALITE_PLAT"
	ReasonDelay      Reason = "DELAI"
	ReasonWrongOrder Reason = "ERREUR_COMMANDE"
	ReasonOther      Reason = "AUTRE"
)

// Status tracks a complaint on the cook's side.
type Status string

const (
	StatusOpen       Status = "OUVERT"
	StatusRead       Status = "LU"
	StatusInProgress Status = "EN_COURS"
	StatusResolved   Status = "TRAITEE"
	StatusRejected   Status = "REJETEE"
)

func Reasons() []Reason {
	return []Reason{ReasonQuality, ReasonDelay, ReasonWrongOrder, ReasonOther}
}

func Statuses() []Status {
	return []Status{StatusOpen, StatusRead, StatusInProgress, StatusResolved, StatusRejected}
}

func (r Reason) Valid() bool {
	for _, v := range Reasons() {
		if r == v {
			return true
		}
	}
	return false
}

func (s Status) Valid() bool {
	for _, v := range Statuses() {
		if s == v {
			return true
		}
	}
	return false
}

// Complaint is the common view; cook listings fill the client fields and the dish name,
// client listings fill the order fields.
type Complaint struct {
	ID          string    `json:"id"`
	OrderID     string    `json:"commande_id,omitempty"`
	OrderLabel  string    `json:"commande_label,omitempty"`
	ClientEmail string    `json:"client_email,omitempty"`
	ClientName  string    `json:"client_name,omitempty"`
	DishName    string    `json:"plat_nom,omitempty"`
	Reason      Reason    `json:"motif"`
	ReasonLabel string    `json:"motif_label,omitempty"`
	Description string    `json:"description"`
	Status      Status    `json:"statut"`
	StatusLabel string    `json:"statut_label,omitempty"`
	Date        time.Time `json:"date"`
}

type createRequest struct {
	OrderID     string `json:"commande_id"`
	Reason      Reason `json:"motif"`
	Description string `json:"description"`
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

// Create files a complaint against one of the caller's orders. The backend accepts a
// single complaint per order.
func (s *Service) Create(ctx context.Context, orderID string, reason Reason, description string) (*Complaint, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, errors.Wrap(apperrors.ErrInvalidRequest, "order id is required")
	}
	if !reason.Valid() {
		return nil, errors.Wrapf(apperrors.ErrInvalidRequest, "unknown complaint reason %q", reason)
	}

	var complaint Complaint
	err := s.client.DoJSON(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   createPath,
		Body:   createRequest{OrderID: strings.TrimSpace(orderID), Reason: reason, Description: strings.TrimSpace(description)},
	}, &complaint)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Create]")
	}
	return &complaint, nil
}

func (s *Service) Mine(ctx context.Context) ([]Complaint, error) {
	return s.list(ctx, minePath, "[Service.Mine]")
}

// ForCook lists complaints about the signed-in cook's dishes.
func (s *Service) ForCook(ctx context.Context) ([]Complaint, error) {
	return s.list(ctx, forCookPath, "[Service.ForCook]")
}

// ChangeStatus is a cook action; the updated complaint is returned.
func (s *Service) ChangeStatus(ctx context.Context, id string, status Status) (*Complaint, error) {
	if strings.TrimSpace(id) == "" || strings.Contains(id, "/") {
		return nil, errors.Wrapf(apperrors.ErrInvalidRequest, "invalid complaint id %q", id)
	}
	if !status.Valid() {
		return nil, errors.Wrapf(apperrors.ErrInvalidRequest, "unknown complaint status %q", status)
	}

	var complaint Complaint
	err := s.client.DoJSON(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/api/reclamations/" + id + "/changer-statut/",
		Body:   statusRequest{Status: status},
	}, &complaint)
	if err != nil {
		return nil, errors.Wrapf(err, "[Service.ChangeStatus] %s", id)
	}
	return &complaint, nil
}

func (s *Service) list(ctx context.Context, path, op string) ([]Complaint, error) {
	var list []Complaint
	if err := s.client.DoJSON(ctx, apiclient.Request{Method: http.MethodGet, Path: path}, &list); err != nil {
		return nil, errors.Wrap(err, op)
	}
	return list, nil
}
