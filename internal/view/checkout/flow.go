// Package checkout gathers delivery and invoice choices and assembles the
// order draft carried into the payment stage.
package checkout

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/nattapatNtp/furniture-Frontend/internal/backend"
)

// State is the linear checkout machine. Empty and Failed are terminal:
// the only way out is explicit navigation back to the catalog or cart.
type State int

const (
	StateLoading State = iota
	StateReady
	StateEmpty
	StateFailed
	StateSubmitting
	StateForwarded
)

var (
	ErrNotReady      = errors.New("checkout is not ready to proceed")
	ErrAlreadyPassed = errors.New("checkout draft already forwarded")
)

// API is the slice of the backend this view touches.
type API interface {
	Cart(ctx context.Context) ([]backend.CartLine, error)
	User(ctx context.Context) (*backend.User, error)
}

// Sessions gates entry on token presence.
type Sessions interface {
	Token() (string, bool)
}

// Placeholder profile used when the prefill fetch fails; the form must
// stay usable either way.
var placeholderUser = backend.User{
	Name:  "Guest Customer",
	Email: "guest@example.com",
	Phone: "0000000000",
}

// Flow collects shipping and invoice choices and produces an OrderDraft.
// Field edits are purely local; Proceed performs no network call.
type Flow struct {
	api      API
	sessions Sessions

	mu          sync.Mutex
	state       State
	failMessage string
	lines       []backend.CartLine
	user        backend.User
	orderNumber string

	method      Method
	delivery    DeliveryAddress
	needInvoice bool
	invoice     InvoiceData
}

func NewFlow(api API, sessions Sessions) *Flow {
	return &Flow{
		api:         api,
		sessions:    sessions,
		state:       StateLoading,
		method:      MethodPickup,
		needInvoice: true,
	}
}

// Enter loads the cart and prefills the form from the saved profile. An
// empty cart lands in the terminal Empty state; a prefill failure falls
// back to placeholder values and never blocks the flow.
func (f *Flow) Enter(ctx context.Context) State {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.sessions.Token(); !ok {
		f.state = StateFailed
		f.failMessage = "please log in before checking out"
		return f.state
	}

	lines, err := f.api.Cart(ctx)
	if err != nil {
		log.Printf("[Checkout] cart load failed: %v", err)
		f.state = StateFailed
		f.failMessage = "could not load your cart"
		return f.state
	}
	if len(lines) == 0 {
		f.state = StateEmpty
		return f.state
	}
	f.lines = lines

	user, err := f.api.User(ctx)
	if err != nil {
		log.Printf("[Checkout] profile prefill failed, using placeholders: %v", err)
		user = &placeholderUser
	}
	f.user = *user
	f.prefillLocked(*user)

	f.orderNumber = newOrderNumber()
	f.state = StateReady
	return f.state
}

func (f *Flow) prefillLocked(user backend.User) {
	f.delivery = DeliveryAddress{
		CompanyName: user.Name,
		ContactName: user.Name,
		Address:     user.Address,
		District:    user.District,
		Amphoe:      user.Amphoe,
		Province:    user.Province,
		PostalCode:  MaskPostalCode(user.PostalCode),
		Phone:       MaskPhone(user.Phone),
	}
	f.invoice = InvoiceData{
		CompanyName: user.Name,
		ContactName: user.Name,
		Address:     user.Address,
		Phone:       user.Phone,
	}
}

// SetMethod switches between pickup and delivery. Typed delivery fields
// survive the round trip either way.
func (f *Flow) SetMethod(m Method) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m != MethodPickup && m != MethodDelivery {
		return
	}
	f.method = m
}

// SetNeedInvoice toggles the invoice block. Turning it off hides but does
// not discard the entered invoice data.
func (f *Flow) SetNeedInvoice(need bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.needInvoice = need
}

// SetDelivery replaces the delivery address, applying the digit masks to
// the postal-code and phone fields on the way in.
func (f *Flow) SetDelivery(a DeliveryAddress) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.PostalCode = MaskPostalCode(a.PostalCode)
	a.Phone = MaskPhone(a.Phone)
	f.delivery = a
}

// SetInvoice replaces the invoice recipient block.
func (f *Flow) SetInvoice(inv InvoiceData) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invoice = inv
}

// Proceed assembles the OrderDraft and moves the flow to Forwarded. It is
// a pure local assembly: validation already happened inline and the
// backend persists nothing at this step. Unreachable from Empty or Failed.
func (f *Flow) Proceed() (*OrderDraft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case StateReady:
	case StateForwarded:
		return nil, ErrAlreadyPassed
	default:
		return nil, ErrNotReady
	}
	f.state = StateSubmitting

	draft := &OrderDraft{
		OrderNumber:    f.orderNumber,
		DeliveryMethod: f.method,
		NeedInvoice:    f.needInvoice,
		Items:          append([]backend.CartLine(nil), f.lines...),
		TotalAmount:    f.totalLocked(),
		CustomerName:   f.user.Name,
		CustomerEmail:  f.user.Email,
		CustomerPhone:  f.user.Phone,
	}
	switch f.method {
	case MethodPickup:
		pickup := StorePickupAddress
		draft.PickupAddress = &pickup
	case MethodDelivery:
		delivery := f.delivery
		draft.DeliveryAddress = &delivery
	}
	if f.needInvoice {
		invoice := f.invoice
		draft.InvoiceData = &invoice
	}

	f.state = StateForwarded
	return draft, nil
}

func (f *Flow) totalLocked() float64 {
	var total float64
	for _, line := range f.lines {
		total += line.Product.Price * float64(line.Quantity)
	}
	return total
}

// State reports the current machine state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// FailMessage is the user-facing message for the Failed state.
func (f *Flow) FailMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failMessage
}

// Method returns the selected delivery method.
func (f *Flow) Method() Method {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.method
}

// Delivery returns the current delivery address fields.
func (f *Flow) Delivery() DeliveryAddress {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.delivery
}

// Invoice returns the current invoice block.
func (f *Flow) Invoice() (InvoiceData, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.invoice, f.needInvoice
}

// Lines returns the cart lines loaded on entry.
func (f *Flow) Lines() []backend.CartLine {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]backend.CartLine(nil), f.lines...)
}

// OrderNumber is the display number generated for this visit.
func (f *Flow) OrderNumber() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orderNumber
}

// Total is Σ(price × qty) over the loaded lines.
func (f *Flow) Total() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.totalLocked()
}

// Validation surfaces the inline messages for the masked fields.
func (f *Flow) Validation() (postalMsg, phoneMsg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return PostalCodeMessage(f.delivery.PostalCode), PhoneMessage(f.delivery.Phone)
}
