package dishes

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/wakelni-client/apiclient"
	apperrors "github.com/jrsteele09/wakelni-client/internal/errors"
	"github.com/pkg/errors"
)

const (
	basePath  = "/api/plats/"
	minePath  = "/api/plats/mes-plats/"
	maxUpload = 5 << 20
)

type Service struct {
	client apiclient.Requester
}

func NewService(client apiclient.Requester) *Service {
	return &Service{client: client}
}

func dishPath(id string) string {
	return basePath + id + "/"
}

func validID(id string) error {
	if strings.TrimSpace(id) == "" || strings.Contains(id, "/") {
		return errors.Wrapf(apperrors.ErrInvalidRequest, "invalid dish id %q", id)
	}
	return nil
}

func validPhoto(p *Photo) error {
	if p == nil {
		return nil
	}
	if p.Filename == "" {
		return errors.Wrap(apperrors.ErrInvalidRequest, "photo filename is required")
	}
	if len(p.Content) > maxUpload {
		return errors.Wrapf(apperrors.ErrInvalidRequest, "photo exceeds %d bytes", maxUpload)
	}
	return nil
}

// List returns the public catalogue.
func (s *Service) List(ctx context.Context) ([]Dish, error) {
	var dishes []Dish
	if err := s.client.DoJSON(ctx, apiclient.Request{Method: http.MethodGet, Path: basePath}, &dishes); err != nil {
		return nil, errors.Wrap(err, "[Service.List]")
	}
	return dishes, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Dish, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	var dish Dish
	if err := s.client.DoJSON(ctx, apiclient.Request{Method: http.MethodGet, Path: dishPath(id)}, &dish); err != nil {
		return nil, errors.Wrapf(err, "[Service.Get] %s", id)
	}
	return &dish, nil
}

// Mine returns the signed-in cook's dishes.
func (s *Service) Mine(ctx context.Context) ([]Dish, error) {
	var dishes []Dish
	if err := s.client.DoJSON(ctx, apiclient.Request{Method: http.MethodGet, Path: minePath}, &dishes); err != nil {
		return nil, errors.Wrap(err, "[Service.Mine]")
	}
	return dishes, nil
}

// Create publishes a dish as multipart form data, with the photo as an optional file part.
func (s *Service) Create(ctx context.Context, dish NewDish) (*Dish, error) {
	if strings.TrimSpace(dish.Name) == "" {
		return nil, errors.Wrap(apperrors.ErrInvalidRequest, "dish name is required")
	}
	if strings.TrimSpace(dish.Price) == "" {
		return nil, errors.Wrap(apperrors.ErrInvalidRequest, "dish price is required")
	}
	if dish.Stock < 0 {
		return nil, errors.Wrap(apperrors.ErrInvalidRequest, "stock cannot be negative")
	}
	if err := validPhoto(dish.Photo); err != nil {
		return nil, err
	}

	var created Dish
	err := s.client.DoJSON(ctx, apiclient.Request{
		Method:    http.MethodPost,
		Path:      basePath,
		Body:      dish.form(),
		Multipart: true,
	}, &created)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Create]")
	}
	return &created, nil
}

// Update patches a dish. Only set fields are sent.
func (s *Service) Update(ctx context.Context, id string, update DishUpdate) (*Dish, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	if update.empty() {
		return nil, errors.Wrap(apperrors.ErrInvalidRequest, "nothing to update")
	}
	if update.Stock != nil && *update.Stock < 0 {
		return nil, errors.Wrap(apperrors.ErrInvalidRequest, "stock cannot be negative")
	}
	if err := validPhoto(update.Photo); err != nil {
		return nil, err
	}

	var updated Dish
	err := s.client.DoJSON(ctx, apiclient.Request{
		Method:    http.MethodPatch,
		Path:      dishPath(id),
		Body:      update.form(),
		Multipart: true,
	}, &updated)
	if err != nil {
		return nil, errors.Wrapf(err, "[Service.Update] %s", id)
	}
	return &updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := validID(id); err != nil {
		return err
	}
	_, err := s.client.Do(ctx, apiclient.Request{Method: http.MethodDelete, Path: dishPath(id)})
	return errors.Wrapf(err, "[Service.Delete] %s", id)
}
