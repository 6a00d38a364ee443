package complaints_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/jrsteele09/wakelni-client/apiclient"
	"github.com/jrsteele09/wakelni-client/complaints"
	"github.com/jrsteele09/wakelni-client/credentials"
	"github.com/jrsteele09/wakelni-client/credentials/storefake"
	"github.com/jrsteele09/wakelni-client/internal/backendfake"
	apperrors "github.com/jrsteele09/wakelni-client/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const complaintID = "5c1d2e3f-4a5b-4c6d-8e7f-9a0b1c2d3e4f"

func setupTestFixture(t *testing.T) (*complaints.Service, *backendfake.Backend) {
	t.Helper()

	backend := backendfake.New(t)
	backend.AllowAccess("access")
	client, err := apiclient.New(backend.URL(), storefake.NewFakeStoreWith(map[string]string{
		credentials.AccessTokenKey:  "access",
		credentials.RefreshTokenKey: "refresh",
	}))
	require.NoError(t, err)
	return complaints.NewService(client), backend
}

func TestCreate(t *testing.T) {
	service, backend := setupTestFixture(t)
	backend.Handle(http.MethodPost, "/api/reclamations/creer/", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		assert.NoError(t, backendfake.DecodeJSON(r, &req))
		backendfake.WriteJSON(w, http.StatusCreated, map[string]interface{}{
			"id": complaintID, "commande_id": req["commande_id"], "commande_label": "Commande #12",
			"motif": req["motif"], "motif_label": "Retard de livraison", "description": req["description"],
			"statut": "OUVERT", "statut_label": "Ouverte", "date": "2025-12-04T18:00:00Z",
		})
	})

	complaint, err := service.Create(context.Background(), " 12 ", complaints.ReasonDelay, " Livré avec une heure de retard ")
	require.NoError(t, err)
	require.Equal(t, complaintID, complaint.ID)
	require.Equal(t, complaints.StatusOpen, complaint.Status)
	require.Equal(t, "Commande #12", complaint.OrderLabel)

	req, ok := backend.LastRequest(http.MethodPost, "/api/reclamations/creer/")
	require.True(t, ok)
	require.JSONEq(t, `{"commande_id":"12","motif":"DELAI","description":"Livré avec une heure de retard"}`, string(req.Body))
}

func TestCreate_Validation(t *testing.T) {
	service, backend := setupTestFixture(t)

	_, err := service.Create(context.Background(), "", complaints.ReasonOther, "x")
	require.ErrorIs(t, err, apperrors.ErrInvalidRequest)

	_, err = service.Create(context.Background(), "12", "FROID", "x")
	require.ErrorIs(t, err, apperrors.ErrInvalidRequest)

	require.Empty(t, backend.Requests("", ""))
}

func TestCreate_AlreadyFiled(t *testing.T) {
	service, backend := setupTestFixture(t)
	backend.Handle(http.MethodPost, "/api/reclamations/creer/", backendfake.JSON(http.StatusBadRequest, map[string][]string{
		"non_field_errors": {"Une réclamation existe déjà pour cette commande."},
	}))

	_, err := service.Create(context.Background(), "12", complaints.ReasonQuality, "")
	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Contains(t, apiErr.Message, "Une réclamation existe déjà")
}

func TestMineAndForCook(t *testing.T) {
	service, backend := setupTestFixture(t)
	backend.Handle(http.MethodGet, "/api/reclamations/mes-reclamations/", backendfake.JSON(http.StatusOK, []map[string]interface{}{
		{"id": complaintID, "commande_id": "12", "motif": "DELAI", "statut": "LU", "date": "2025-12-04T18:00:00Z"},
	}))
	backend.Handle(http.MethodGet, "/api/reclamations/cuisinier/", backendfake.JSON(http.StatusOK, []map[string]interface{}{
		{"id": complaintID, "client_email": "sawsen@example.com", "client_name": "Sawsen K", "plat_nom": "Rechta", "motif": "DELAI", "statut": "OUVERT"},
	}))

	mine, err := service.Mine(context.Background())
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, complaints.StatusRead, mine[0].Status)
	require.Equal(t, "12", mine[0].OrderID)

	received, err := service.ForCook(context.Background())
	require.NoError(t, err)
	require.Len(t, received, 1)
	require.Equal(t, "Sawsen K", received[0].ClientName)
	require.Equal(t, "Rechta", received[0].DishName)
}

func TestChangeStatus(t *testing.T) {
	service, backend := setupTestFixture(t)
	backend.Handle(http.MethodPost, "/api/reclamations/{id}/changer-statut/", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		assert.NoError(t, backendfake.DecodeJSON(r, &req))
		backendfake.WriteJSON(w, http.StatusOK, map[string]string{"id": complaintID, "statut": req["statut"]})
	})

	complaint, err := service.ChangeStatus(context.Background(), complaintID, complaints.StatusResolved)
	require.NoError(t, err)
	require.Equal(t, complaints.StatusResolved, complaint.Status)

	req, ok := backend.LastRequest(http.MethodPost, "/api/reclamations/"+complaintID+"/changer-statut/")
	require.True(t, ok)
	require.JSONEq(t, `{"statut":"TRAITEE"}`, string(req.Body))

	t.Run("invalid input is rejected locally", func(t *testing.T) {
		_, err := service.ChangeStatus(context.Background(), complaintID, "FERMEE")
		require.ErrorIs(t, err, apperrors.ErrInvalidRequest)
		_, err = service.ChangeStatus(context.Background(), "../x", complaints.StatusRead)
		require.ErrorIs(t, err, apperrors.ErrInvalidRequest)
		require.Len(t, backend.Requests(http.MethodPost, ""), 1)
	})
}

func TestChangeStatus_OtherCookRefused(t *testing.T) {
	service, backend := setupTestFixture(t)
	backend.Handle(http.MethodPost, "/api/reclamations/{id}/changer-statut/", backendfake.JSON(http.StatusForbidden, map[string]string{
		"detail": "Vous ne pouvez pas modifier cette réclamation.",
	}))

	_, err := service.ChangeStatus(context.Background(), complaintID, complaints.StatusRejected)
	require.Equal(t, http.StatusForbidden, apiclient.StatusCode(err))
	require.False(t, apiclient.IsSessionExpired(err))
}

func TestReasonsAndStatuses(t *testing.T) {
	require.Len(t, complaints.Reasons(), 4)
	require.True(t, complaints.ReasonWrongOrder.Valid())
	require.Len(t, complaints.Statuses(), 5)
	require.False(t, complaints.Status("FERMEE").Valid())
}
