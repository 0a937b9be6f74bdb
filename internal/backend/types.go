package backend

// Wire types for the remote store API. The backend owns all of these; the
// client holds read-through copies in view state and never invents fields.

// Product is the catalog entry embedded in cart lines and listings.
type Product struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Model string  `json:"model"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
	Image string  `json:"image,omitempty"`
}

// CartLine is one row of the server-side cart.
// Quantity is at least 1 once persisted; quantity 0 means the line is gone.
type CartLine struct {
	ID        int     `json:"id"`
	ProductID int     `json:"productId"`
	Quantity  int     `json:"quantity"`
	Product   Product `json:"product"`
}

// User is the authenticated profile record.
type User struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Role       string `json:"role"`
	Address    string `json:"address"`
	District   string `json:"district"`
	Amphoe     string `json:"amphoe"`
	Province   string `json:"province"`
	PostalCode string `json:"postalCode"`
}

// UserUpdate carries the editable profile fields.
type UserUpdate struct {
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Address    string `json:"address,omitempty"`
	District   string `json:"district,omitempty"`
	Amphoe     string `json:"amphoe,omitempty"`
	Province   string `json:"province,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
}

// CheckoutRequest creates a hosted payment session. Amount is in minor
// currency units (satang). SuccessURL carries the provider's session-id
// placeholder verbatim.
type CheckoutRequest struct {
	Amount          int64  `json:"amount"`
	Email           string `json:"email"`
	UserID          int    `json:"userId,omitempty"`
	DeliveryMethod  string `json:"deliveryMethod"`
	DeliveryDetails string `json:"deliveryDetails"`
	SuccessURL      string `json:"successUrl"`
	CancelURL       string `json:"cancelUrl"`
}

// PaymentSession is the client's whole contract with the payment provider:
// redirect the browser to URL, get SessionID back via query parameter.
type PaymentSession struct {
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
}

// CheckoutSession is the provider-side session detail, fetched on return
// from the payment page. Amounts come back in minor units.
type CheckoutSession struct {
	ID            string `json:"id"`
	AmountTotal   int64  `json:"amount_total"`
	CustomerEmail string `json:"customer_email"`
	PaymentStatus string `json:"payment_status,omitempty"`
}

// OrderItem is one line of a materialized order.
type OrderItem struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Quantity int      `json:"quantity"`
	Product  *Product `json:"product,omitempty"`
}

// Order is the server's order record, read-only to this client.
type Order struct {
	ID              int         `json:"id"`
	Status          string      `json:"status"`
	Total           float64     `json:"total"`
	CreatedAt       string      `json:"createdAt"`
	User            *User       `json:"user,omitempty"`
	OrderItems      []OrderItem `json:"orderItems"`
	DeliveryMethod  string      `json:"deliveryMethod"`
	DeliveryDetails string      `json:"deliveryDetails"`
}

// Payment intent statuses reported by GET /api/payments/:id/status.
const (
	PaymentRequiresMethod = "requires_payment_method"
	PaymentProcessing     = "processing"
	PaymentSucceeded      = "succeeded"
	PaymentCanceled       = "canceled"
)

// PaymentStatus is the polled state of a payment intent.
type PaymentStatus struct {
	Status string `json:"status"`
}

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the account-creation request body.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user,omitempty"`
}
