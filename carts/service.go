package carts

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/wakelni-client/apiclient"
	apperrors "github.com/jrsteele09/wakelni-client/internal/errors"
	"github.com/jrsteele09/wakelni-client/internal/utils"
	"github.com/pkg/errors"
)

const (
	cartPath  = "/api/paniers/mon-panier/"
	addPath   = "/api/paniers/ajouter/"
	clearPath = "/api/paniers/vider/"
)

// Cart is the signed-in client's current basket.
type Cart struct {
	ID        string        `json:"id"`
	Client    int64         `json:"client"`
	Lines     []Line        `json:"lignes"`
	Total     utils.Decimal `json:"total"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Line is one dish in the cart. The backend keeps a single line per dish.
type Line struct {
	ID           int64         `json:"id"`
	DishID       string        `json:"plat"`
	DishName     string        `json:"plat_nom"`
	DishPhotoURL *string       `json:"plat_photo_url"`
	Quantity     int           `json:"quantite"`
	UnitPrice    utils.Decimal `json:"prix_unitaire"`
	Notes        string        `json:"remarques"`
	Subtotal     utils.Decimal `json:"sous_total"`
}

// Count returns the number of items across all lines.
func (c *Cart) Count() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// Line returns the line holding dishID, if any.
func (c *Cart) Line(dishID string) (*Line, bool) {
	for i := range c.Lines {
		if c.Lines[i].DishID == dishID {
			return &c.Lines[i], true
		}
	}
	return nil, false
}

type addRequest struct {
	DishID   string `json:"plat_id"`
	Quantity int    `json:"quantite"`
}

type quantityRequest struct {
	Quantity int `json:"quantite"`
}

type Service struct {
	client apiclient.Requester
}

func NewService(client apiclient.Requester) *Service {
	return &Service{client: client}
}

func itemPath(itemID int64) string {
	return "/api/paniers/item/" + strconv.FormatInt(itemID, 10) + "/"
}

func (s *Service) Get(ctx context.Context) (*Cart, error) {
	return s.cart(ctx, "[Service.Get]", apiclient.Request{Method: http.MethodGet, Path: cartPath})
}

// Add puts qty of a dish in the cart, adding to any quantity already there.
func (s *Service) Add(ctx context.Context, dishID string, qty int) (*Cart, error) {
	if strings.TrimSpace(dishID) == "" {
		return nil, errors.Wrap(apperrors.ErrInvalidRequest, "dish id is required")
	}
	if qty < 1 {
		return nil, errors.Wrapf(apperrors.ErrInvalidRequest, "quantity must be positive, got %d", qty)
	}
	return s.cart(ctx, "[Service.Add]", apiclient.Request{
		Method: http.MethodPost,
		Path:   addPath,
		Body:   addRequest{DishID: dishID, Quantity: qty},
	})
}

// UpdateItem sets the quantity of a line.
func (s *Service) UpdateItem(ctx context.Context, itemID int64, qty int) (*Cart, error) {
	if qty < 1 {
		return nil, errors.Wrapf(apperrors.ErrInvalidRequest, "quantity must be positive, got %d; remove the item instead", qty)
	}
	return s.cart(ctx, "[Service.UpdateItem]", apiclient.Request{
		Method: http.MethodPatch,
		Path:   itemPath(itemID),
		Body:   quantityRequest{Quantity: qty},
	})
}

func (s *Service) RemoveItem(ctx context.Context, itemID int64) (*Cart, error) {
	return s.cart(ctx, "[Service.RemoveItem]", apiclient.Request{
		Method: http.MethodDelete,
		Path:   itemPath(itemID) + "delete/",
	})
}

// Clear empties the cart.
func (s *Service) Clear(ctx context.Context) error {
	_, err := s.client.Do(ctx, apiclient.Request{Method: http.MethodDelete, Path: clearPath})
	return errors.Wrap(err, "[Service.Clear]")
}

func (s *Service) cart(ctx context.Context, op string, req apiclient.Request) (*Cart, error) {
	var cart Cart
	if err := s.client.DoJSON(ctx, req, &cart); err != nil {
		return nil, errors.Wrap(err, op)
	}
	return &cart, nil
}
