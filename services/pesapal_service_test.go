package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dkamau/unimart_backend/models"
)

func newTestService(t *testing.T, handler http.Handler) *PesapalService {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	t.Setenv("PESAPAL_BASE_URL", server.URL)
	t.Setenv("PESAPAL_CONSUMER_KEY", "test-key")
	t.Setenv("PESAPAL_CONSUMER_SECRET", "test-secret")
	t.Setenv("PESAPAL_NOTIFICATION_ID", "ipn-123")
	t.Setenv("PESAPAL_CALLBACK_URL", "https://example.com/callback")

	return NewPesapalService()
}

func TestGetAccessToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/Auth/RequestToken", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "test-key", payload["consumer_key"])
		assert.Equal(t, "test-secret", payload["consumer_secret"])

		json.NewEncoder(w).Encode(models.PesapalAuthResponse{Token: "token-abc", Status: "200"})
	})

	svc := newTestService(t, mux)

	token, err := svc.GetAccessToken()
	require.NoError(t, err)
	assert.Equal(t, "token-abc", token)
}

func TestGetAccessTokenMissingCredentials(t *testing.T) {
	t.Setenv("PESAPAL_CONSUMER_KEY", "")
	t.Setenv("PESAPAL_CONSUMER_SECRET", "")

	svc := NewPesapalService()
	_, err := svc.GetAccessToken()
	assert.ErrorContains(t, err, "missing Pesapal credentials")
}

func TestSubmitOrder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/Auth/RequestToken", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.PesapalAuthResponse{Token: "token-abc"})
	})
	mux.HandleFunc("/api/Transactions/SubmitOrderRequest", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-abc", r.Header.Get("Authorization"))

		var payload models.PesapalOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "ORD-DEADBEEF", payload.ID)
		assert.Equal(t, "KES", payload.Currency)
		assert.Equal(t, 1500.0, payload.Amount)
		assert.Equal(t, "ipn-123", payload.NotificationID)
		assert.Equal(t, "buyer@example.com", payload.BillingAddress.EmailAddress)

		json.NewEncoder(w).Encode(models.PesapalOrderResponse{
			OrderTrackingID: "track-1",
			RedirectURL:     "https://pay.example.com/track-1",
		})
	})

	svc := newTestService(t, mux)

	order := &models.Order{
		ID:             primitive.NewObjectID(),
		OrderReference: "ORD-DEADBEEF",
		Email:          "buyer@example.com",
		FullName:       "Jane Wanjiku",
		TotalAmount:    1500,
	}

	resp, err := svc.SubmitOrder(order)
	require.NoError(t, err)
	assert.Equal(t, "track-1", resp.OrderTrackingID)
	assert.Equal(t, "https://pay.example.com/track-1", resp.RedirectURL)
}

func TestGetTransactionStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/Auth/RequestToken", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.PesapalAuthResponse{Token: "token-abc"})
	})
	mux.HandleFunc("/api/Transactions/GetTransactionStatus", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "track-1", r.URL.Query().Get("orderTrackingId"))
		json.NewEncoder(w).Encode(models.PesapalTransactionStatus{
			PaymentStatusDescription: "Completed",
			ConfirmationCode:         "CONF123",
			Amount:                   1500,
		})
	})

	svc := newTestService(t, mux)

	status, err := svc.GetTransactionStatus("track-1")
	require.NoError(t, err)
	assert.Equal(t, "Completed", status.PaymentStatusDescription)
	assert.Equal(t, "CONF123", status.ConfirmationCode)
}

func TestRequestErrorsSurfaceStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/Auth/RequestToken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid credentials"}`, http.StatusUnauthorized)
	})

	svc := newTestService(t, mux)

	_, err := svc.GetAccessToken()
	assert.ErrorContains(t, err, "status 401")
}

func TestOrderStatusFromGateway(t *testing.T) {
	tests := []struct {
		description string
		want        string
	}{
		{"Completed", models.OrderStatusPaid},
		{"COMPLETED", models.OrderStatusPaid},
		{"Failed", models.OrderStatusFailed},
		{"Invalid", models.OrderStatusFailed},
		{"Reversed", models.OrderStatusRefunded},
		{"Pending", models.OrderStatusPending},
		{"", models.OrderStatusPending},
		{"something-new", models.OrderStatusPending},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OrderStatusFromGateway(tt.description), "description %q", tt.description)
	}
}
