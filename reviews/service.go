package reviews

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/wakelni-client/apiclient"
	apperrors "github.com/jrsteele09/wakelni-client/internal/errors"
	"github.com/pkg/errors"
)

const (
	leavePath   = "/api/avis/laisser-avis/"
	minePath    = "/api/avis/mon-avis/"
	forDishPath = "/api/avis/avis-par-plat/"
	forCookPath = "/api/avis/avis-cuisinier/"

	MinNote = 1
	MaxNote = 5
)

// Review is the signed-in client's review of a dish.
type Review struct {
	ID      string    `json:"id"`
	Note    int       `json:"note"`
	Comment string    `json:"commentaire"`
	Date    time.Time `json:"date"`
	Client  int64     `json:"client"`
	DishID  string    `json:"plat"`
}

// PublishedReview is a review as shown to cooks and other clients.
type PublishedReview struct {
	ID          string    `json:"id"`
	Note        int       `json:"note"`
	Comment     string    `json:"commentaire"`
	Date        time.Time `json:"date"`
	ClientEmail string    `json:"client_email"`
	ClientName  string    `json:"client_nom"`
	DishName    string    `json:"plat_nom"`
}

type leaveRequest struct {
	DishID  string `json:"plat"`
	Note    int    `json:"note"`
	Comment string `json:"commentaire"`
}

type Service struct {
	client apiclient.Requester
}

func NewService(client apiclient.Requester) *Service {
	return &Service{client: client}
}

func withDish(path, dishID string) string {
	return path + "?" + url.Values{"plat_id": {dishID}}.Encode()
}

// Leave creates or replaces the caller's review of a dish. The note is checked before
// anything is sent.
func (s *Service) Leave(ctx context.Context, dishID string, note int, comment string) (*Review, error) {
	if note < MinNote || note > MaxNote {
		return nil, apperrors.ErrInvalidNote
	}
	if strings.TrimSpace(dishID) == "" {
		return nil, errors.Wrap(apperrors.ErrInvalidRequest, "dish id is required")
	}

	var review Review
	err := s.client.DoJSON(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   leavePath,
		Body:   leaveRequest{DishID: dishID, Note: note, Comment: strings.TrimSpace(comment)},
	}, &review)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Leave]")
	}
	return &review, nil
}

// Existing returns the caller's review of a dish, or nil when there is none. Only a
// 404 means "no review"; every other failure is returned.
func (s *Service) Existing(ctx context.Context, dishID string) (*Review, error) {
	if strings.TrimSpace(dishID) == "" {
		return nil, errors.Wrap(apperrors.ErrInvalidRequest, "dish id is required")
	}

	var review Review
	err := s.client.DoJSON(ctx, apiclient.Request{Method: http.MethodGet, Path: withDish(minePath, dishID)}, &review)
	if apiclient.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Existing]")
	}
	return &review, nil
}

// ForDish lists every review of a dish, newest first. It needs no session.
func (s *Service) ForDish(ctx context.Context, dishID string) ([]PublishedReview, error) {
	if strings.TrimSpace(dishID) == "" {
		return nil, errors.Wrap(apperrors.ErrInvalidRequest, "dish id is required")
	}
	var list []PublishedReview
	err := s.client.DoJSON(ctx, apiclient.Request{Method: http.MethodGet, Path: withDish(forDishPath, dishID), NoAuth: true}, &list)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.ForDish]")
	}
	return list, nil
}

// ForCook lists the reviews received on the signed-in cook's dishes.
func (s *Service) ForCook(ctx context.Context) ([]PublishedReview, error) {
	var list []PublishedReview
	if err := s.client.DoJSON(ctx, apiclient.Request{Method: http.MethodGet, Path: forCookPath}, &list); err != nil {
		return nil, errors.Wrap(err, "[Service.ForCook]")
	}
	return list, nil
}

// Average returns the mean note of reviews, or 0 for none.
func Average(reviews []PublishedReview) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Note
	}
	return float64(sum) / float64(len(reviews))
}
