package checkout

import (
	"math/rand"
	"strconv"

	"github.com/nattapatNtp/furniture-Frontend/internal/backend"
)

// Method is the two-state delivery choice.
type Method string

const (
	MethodPickup   Method = "pickup"
	MethodDelivery Method = "delivery"
)

// PickupAddress is the fixed store location offered for self-pickup.
type PickupAddress struct {
	CompanyName  string `json:"companyName"`
	Address      string `json:"address"`
	Phone        string `json:"phone"`
	WorkingHours string `json:"workingHours"`
}

// StorePickupAddress is the one pickup point the store operates.
var StorePickupAddress = PickupAddress{
	CompanyName:  "RDN (Thailand) Co., Ltd.",
	Address:      "99/5 Moo 5, Sai Noi, Nonthaburi 11150",
	Phone:        "092-7605-230",
	WorkingHours: "Daily 08:00-19:00",
}

// DeliveryAddress is the customer-entered shipping destination.
type DeliveryAddress struct {
	CompanyName string `json:"companyName"`
	ContactName string `json:"contactName"`
	Address     string `json:"address"`
	District    string `json:"district"`
	Amphoe      string `json:"amphoe"`
	Province    string `json:"province"`
	PostalCode  string `json:"postalCode"`
	Phone       string `json:"phone"`
}

// InvoiceData is the tax-invoice recipient block.
type InvoiceData struct {
	CompanyName string `json:"companyName"`
	ContactName string `json:"contactName"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
}

// OrderDraft is the ephemeral aggregate handed from checkout to the payment
// stage. It is built fresh on every checkout visit, consumed exactly once,
// and never written to durable storage; the server's order record is the
// system of record once payment succeeds.
type OrderDraft struct {
	// OrderNumber is a client-generated display id, not the server order id.
	OrderNumber     string             `json:"orderNumber"`
	DeliveryMethod  Method             `json:"deliveryMethod"`
	PickupAddress   *PickupAddress     `json:"pickupAddress,omitempty"`
	DeliveryAddress *DeliveryAddress   `json:"deliveryAddress,omitempty"`
	NeedInvoice     bool               `json:"needInvoice"`
	InvoiceData     *InvoiceData       `json:"invoiceData,omitempty"`
	Items           []backend.CartLine `json:"items"`
	TotalAmount     float64            `json:"totalAmount"`
	CustomerName    string             `json:"customerName"`
	CustomerEmail   string             `json:"customerEmail"`
	CustomerPhone   string             `json:"customerPhone"`
}

// newOrderNumber generates the 10-digit display number shown on the order
// summary and receipt.
func newOrderNumber() string {
	n := rand.Int63n(9_000_000_000) + 1_000_000_000
	return strconv.FormatInt(n, 10)
}
