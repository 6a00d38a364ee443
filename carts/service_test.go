package carts_test

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"testing"

	"github.com/jrsteele09/wakelni-client/apiclient"
	"github.com/jrsteele09/wakelni-client/carts"
	"github.com/jrsteele09/wakelni-client/credentials"
	"github.com/jrsteele09/wakelni-client/credentials/storefake"
	"github.com/jrsteele09/wakelni-client/internal/backendfake"
	apperrors "github.com/jrsteele09/wakelni-client/internal/errors"
	"github.com/jrsteele09/wakelni-client/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const clientToken = "client-access"

type line struct {
	ID       int64  `json:"id"`
	Plat     string `json:"plat"`
	Quantite int    `json:"quantite"`
	Prix     string `json:"prix_unitaire"`
	// sous_total is a computed property and arrives as a number
	SousTotal float64 `json:"sous_total"`
}

// fakeCart is a minimal stateful basket behind the fake backend.
type fakeCart struct {
	lock   sync.Mutex
	nextID int64
	lines  []*line
}

func (c *fakeCart) snapshot() map[string]interface{} {
	total := 0.0
	lines := make([]line, 0, len(c.lines))
	for _, l := range c.lines {
		l.SousTotal = float64(l.Quantite) * 250
		total += l.SousTotal
		lines = append(lines, *l)
	}
	return map[string]interface{}{"id": "cart-1", "client": 4, "lignes": lines, "total": strconv.FormatFloat(total, 'f', 2, 64)}
}

func (c *fakeCart) register(t *testing.T, b *backendfake.Backend) {
	b.Handle(http.MethodGet, "/api/paniers/mon-panier/", func(w http.ResponseWriter, _ *http.Request) {
		c.lock.Lock()
		defer c.lock.Unlock()
		backendfake.WriteJSON(w, http.StatusOK, c.snapshot())
	})
	b.Handle(http.MethodPost, "/api/paniers/ajouter/", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PlatID   string `json:"plat_id"`
			Quantite int    `json:"quantite"`
		}
		assert.NoError(t, backendfake.DecodeJSON(r, &req))
		c.lock.Lock()
		defer c.lock.Unlock()
		for _, l := range c.lines {
			if l.Plat == req.PlatID {
				l.Quantite += req.Quantite
				backendfake.WriteJSON(w, http.StatusOK, c.snapshot())
				return
			}
		}
		c.nextID++
		c.lines = append(c.lines, &line{ID: c.nextID, Plat: req.PlatID, Quantite: req.Quantite, Prix: "250.00"})
		backendfake.WriteJSON(w, http.StatusOK, c.snapshot())
	})
	b.Handle(http.MethodPatch, "/api/paniers/item/{id:[0-9]+}/", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Quantite int `json:"quantite"`
		}
		assert.NoError(t, backendfake.DecodeJSON(r, &req))
		id, _ := strconv.ParseInt(backendfake.Vars(r)["id"], 10, 64)
		c.lock.Lock()
		defer c.lock.Unlock()
		for _, l := range c.lines {
			if l.ID == id {
				l.Quantite = req.Quantite
				backendfake.WriteJSON(w, http.StatusOK, c.snapshot())
				return
			}
		}
		backendfake.WriteJSON(w, http.StatusNotFound, map[string]string{"detail": "Article introuvable."})
	})
	b.Handle(http.MethodDelete, "/api/paniers/item/{id:[0-9]+}/delete/", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(backendfake.Vars(r)["id"], 10, 64)
		c.lock.Lock()
		defer c.lock.Unlock()
		for i, l := range c.lines {
			if l.ID == id {
				c.lines = append(c.lines[:i], c.lines[i+1:]...)
				break
			}
		}
		backendfake.WriteJSON(w, http.StatusOK, c.snapshot())
	})
	b.Handle(http.MethodDelete, "/api/paniers/vider/", func(w http.ResponseWriter, _ *http.Request) {
		c.lock.Lock()
		defer c.lock.Unlock()
		c.lines = nil
		backendfake.WriteJSON(w, http.StatusNoContent, nil)
	})
}

func setupTestFixture(t *testing.T) (*carts.Service, *backendfake.Backend) {
	t.Helper()

	backend := backendfake.New(t)
	backend.AllowAccess(clientToken)
	(&fakeCart{}).register(t, backend)

	store := storefake.NewFakeStoreWith(map[string]string{
		credentials.AccessTokenKey:  clientToken,
		credentials.RefreshTokenKey: "client-refresh",
	})
	client, err := apiclient.New(backend.URL(), store)
	require.NoError(t, err)
	return carts.NewService(client), backend
}

func TestCart_Lifecycle(t *testing.T) {
	ctx := context.Background()
	service, backend := setupTestFixture(t)

	cart, err := service.Get(ctx)
	require.NoError(t, err)
	require.Empty(t, cart.Lines)
	require.Equal(t, utils.Decimal("0.00"), cart.Total)

	_, err = service.Add(ctx, "dish-a", 2)
	require.NoError(t, err)
	cart, err = service.Add(ctx, "dish-a", 1)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	require.Equal(t, 3, cart.Count())
	require.Equal(t, utils.Decimal("750"), cart.Lines[0].Subtotal)
	require.Equal(t, utils.Decimal("250.00"), cart.Lines[0].UnitPrice)

	req, ok := backend.LastRequest(http.MethodPost, "/api/paniers/ajouter/")
	require.True(t, ok)
	require.JSONEq(t, `{"plat_id":"dish-a","quantite":1}`, string(req.Body))

	cart, err = service.Add(ctx, "dish-b", 1)
	require.NoError(t, err)
	lineB, ok := cart.Line("dish-b")
	require.True(t, ok)

	cart, err = service.UpdateItem(ctx, lineB.ID, 4)
	require.NoError(t, err)
	require.Equal(t, 7, cart.Count())
	req, ok = backend.LastRequest(http.MethodPatch, "/api/paniers/item/"+strconv.FormatInt(lineB.ID, 10)+"/")
	require.True(t, ok)
	require.JSONEq(t, `{"quantite":4}`, string(req.Body))

	cart, err = service.RemoveItem(ctx, lineB.ID)
	require.NoError(t, err)
	_, ok = cart.Line("dish-b")
	require.False(t, ok)

	require.NoError(t, service.Clear(ctx))
	cart, err = service.Get(ctx)
	require.NoError(t, err)
	require.Zero(t, cart.Count())
}

func TestCart_Validation(t *testing.T) {
	ctx := context.Background()
	service, backend := setupTestFixture(t)

	_, err := service.Add(ctx, "", 1)
	require.ErrorIs(t, err, apperrors.ErrInvalidRequest)
	_, err = service.Add(ctx, "dish-a", 0)
	require.ErrorIs(t, err, apperrors.ErrInvalidRequest)
	_, err = service.UpdateItem(ctx, 1, 0)
	require.ErrorIs(t, err, apperrors.ErrInvalidRequest)

	require.Empty(t, backend.Requests("", ""))
}

func TestCart_UnknownItem(t *testing.T) {
	service, _ := setupTestFixture(t)

	_, err := service.UpdateItem(context.Background(), 99, 2)
	require.True(t, apiclient.IsNotFound(err))
	require.Contains(t, err.Error(), "Article introuvable.")
}
