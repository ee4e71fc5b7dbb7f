package models

// PesapalAuthResponse is the token response from /api/Auth/RequestToken.
type PesapalAuthResponse struct {
	Token      string      `json:"token"`
	ExpiryDate string      `json:"expiryDate"`
	Error      interface{} `json:"error"`
	Status     string      `json:"status"`
	Message    string      `json:"message"`
}

// PesapalIPNResponse is returned when registering an IPN URL.
type PesapalIPNResponse struct {
	URL                 string      `json:"url"`
	CreatedDate         string      `json:"created_date"`
	IPNID               string      `json:"ipn_id"`
	NotificationType    int         `json:"notification_type"`
	IPNNotificationType string      `json:"ipn_notification_type"`
	IPNStatus           int         `json:"ipn_status"`
	Status              string      `json:"status"`
	Error               interface{} `json:"error"`
}

// PesapalBillingAddress identifies the payer on an order submission.
type PesapalBillingAddress struct {
	EmailAddress string `json:"email_address"`
	PhoneNumber  string `json:"phone_number,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
}

// PesapalOrderRequest is the SubmitOrderRequest payload.
type PesapalOrderRequest struct {
	ID             string                `json:"id"`
	Currency       string                `json:"currency"`
	Amount         float64               `json:"amount"`
	Description    string                `json:"description"`
	CallbackURL    string                `json:"callback_url"`
	NotificationID string                `json:"notification_id"`
	BillingAddress PesapalBillingAddress `json:"billing_address"`
}

// PesapalOrderResponse carries the hosted payment redirect.
type PesapalOrderResponse struct {
	OrderTrackingID string      `json:"order_tracking_id"`
	MerchantRef     string      `json:"merchant_reference"`
	RedirectURL     string      `json:"redirect_url"`
	Error           interface{} `json:"error"`
	Status          string      `json:"status"`
}

// PesapalTransactionStatus is the GetTransactionStatus payload.
type PesapalTransactionStatus struct {
	PaymentMethod           string      `json:"payment_method"`
	Amount                  float64     `json:"amount"`
	CreatedDate             string      `json:"created_date"`
	ConfirmationCode        string      `json:"confirmation_code"`
	PaymentStatusDescription string     `json:"payment_status_description"`
	Description             string      `json:"description"`
	MerchantReference       string      `json:"merchant_reference"`
	Currency                string      `json:"currency"`
	Error                   interface{} `json:"error"`
	Status                  string      `json:"status"`
}
