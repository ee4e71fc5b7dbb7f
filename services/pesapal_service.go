package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/dkamau/unimart_backend/models"
)

// PesapalService handles interactions with the Pesapal v3 API
type PesapalService struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	callbackURL    string
	notificationID string
	client         *http.Client
}

// NewPesapalService creates a new Pesapal service instance
func NewPesapalService() *PesapalService {
	baseURL := os.Getenv("PESAPAL_BASE_URL")
	if baseURL == "" {
		// Sandbox by default; set PESAPAL_BASE_URL for production.
		baseURL = "https://cybqa.pesapal.com/pesapalv3"
	}

	consumerKey := os.Getenv("PESAPAL_CONSUMER_KEY")
	consumerSecret := os.Getenv("PESAPAL_CONSUMER_SECRET")
	notificationID := os.Getenv("PESAPAL_NOTIFICATION_ID")
	callbackURL := os.Getenv("PESAPAL_CALLBACK_URL")

	if consumerKey == "" || consumerSecret == "" {
		log.Printf("WARNING: Pesapal credentials not fully configured:")
		if consumerKey == "" {
			log.Printf("  - PESAPAL_CONSUMER_KEY is missing")
		}
		if consumerSecret == "" {
			log.Printf("  - PESAPAL_CONSUMER_SECRET is missing")
		}
		log.Printf("Please set these environment variables for Pesapal payments to work")
	}

	return &PesapalService{
		baseURL:        baseURL,
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		callbackURL:    callbackURL,
		notificationID: notificationID,
		client:         &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *PesapalService) debug() bool {
	return os.Getenv("PESAPAL_DEBUG") == "true"
}

// makeRequest performs an HTTP request to the Pesapal API and decodes the
// JSON response into out.
func (s *PesapalService) makeRequest(method, endpoint, token string, payload, out interface{}) error {
	url := s.baseURL + endpoint

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	if s.debug() {
		log.Printf("Pesapal API Request: %s %s", method, url)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if s.debug() {
		log.Printf("Pesapal API Response (%d): %s", resp.StatusCode, string(respBody))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("pesapal API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// GetAccessToken authenticates against the Pesapal API and returns a
// short-lived bearer token.
func (s *PesapalService) GetAccessToken() (string, error) {
	if s.consumerKey == "" || s.consumerSecret == "" {
		return "", fmt.Errorf("missing Pesapal credentials. Please set PESAPAL_CONSUMER_KEY and PESAPAL_CONSUMER_SECRET environment variables")
	}

	payload := map[string]string{
		"consumer_key":    s.consumerKey,
		"consumer_secret": s.consumerSecret,
	}

	var auth models.PesapalAuthResponse
	if err := s.makeRequest(http.MethodPost, "/api/Auth/RequestToken", "", payload, &auth); err != nil {
		return "", err
	}
	if auth.Token == "" {
		return "", fmt.Errorf("pesapal auth failed: %s", auth.Message)
	}
	return auth.Token, nil
}

// RegisterIPN registers the callback URL with Pesapal and returns the
// notification ID to be used in order submissions.
func (s *PesapalService) RegisterIPN(ipnURL string) (*models.PesapalIPNResponse, error) {
	token, err := s.GetAccessToken()
	if err != nil {
		return nil, err
	}

	payload := map[string]string{
		"url":                   ipnURL,
		"ipn_notification_type": "GET",
	}

	var ipn models.PesapalIPNResponse
	if err := s.makeRequest(http.MethodPost, "/api/URLSetup/RegisterIPN", token, payload, &ipn); err != nil {
		return nil, err
	}
	if ipn.IPNID == "" {
		return nil, fmt.Errorf("pesapal IPN registration failed: %v", ipn.Error)
	}
	return &ipn, nil
}

// SubmitOrder submits an order for payment and returns the hosted payment
// redirect URL.
func (s *PesapalService) SubmitOrder(order *models.Order) (*models.PesapalOrderResponse, error) {
	token, err := s.GetAccessToken()
	if err != nil {
		return nil, err
	}

	if s.notificationID == "" {
		return nil, fmt.Errorf("PESAPAL_NOTIFICATION_ID is not set; register an IPN first")
	}

	currency := order.Currency
	if currency == "" {
		currency = "KES"
	}

	payload := models.PesapalOrderRequest{
		ID:             order.OrderReference,
		Currency:       currency,
		Amount:         order.TotalAmount,
		Description:    fmt.Sprintf("UniMart order %s", order.OrderReference),
		CallbackURL:    s.callbackURL,
		NotificationID: s.notificationID,
		BillingAddress: models.PesapalBillingAddress{
			EmailAddress: order.Email,
			PhoneNumber:  order.Phone,
			FirstName:    order.FullName,
		},
	}

	var resp models.PesapalOrderResponse
	if err := s.makeRequest(http.MethodPost, "/api/Transactions/SubmitOrderRequest", token, payload, &resp); err != nil {
		return nil, err
	}
	if resp.RedirectURL == "" {
		return nil, fmt.Errorf("pesapal order submission failed: %v", resp.Error)
	}
	return &resp, nil
}

// GetTransactionStatus fetches the gateway-side status of a payment.
func (s *PesapalService) GetTransactionStatus(orderTrackingID string) (*models.PesapalTransactionStatus, error) {
	token, err := s.GetAccessToken()
	if err != nil {
		return nil, err
	}

	endpoint := "/api/Transactions/GetTransactionStatus?orderTrackingId=" + orderTrackingID
	var status models.PesapalTransactionStatus
	if err := s.makeRequest(http.MethodGet, endpoint, token, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// OrderStatusFromGateway maps a Pesapal payment status description onto the
// local order status. Unknown descriptions leave the order pending.
func OrderStatusFromGateway(description string) string {
	switch description {
	case "Completed", "COMPLETED":
		return models.OrderStatusPaid
	case "Failed", "FAILED", "Invalid", "INVALID":
		return models.OrderStatusFailed
	case "Reversed", "REVERSED":
		return models.OrderStatusRefunded
	default:
		return models.OrderStatusPending
	}
}
