package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nattapatNtp/furniture-Frontend/internal/backend"
	"github.com/nattapatNtp/furniture-Frontend/internal/receipt"
	"github.com/nattapatNtp/furniture-Frontend/internal/session"
	"github.com/nattapatNtp/furniture-Frontend/internal/view/badge"
	cartview "github.com/nattapatNtp/furniture-Frontend/internal/view/cart"
	"github.com/nattapatNtp/furniture-Frontend/internal/view/checkout"
	"github.com/nattapatNtp/furniture-Frontend/internal/view/payment"
	"github.com/nattapatNtp/furniture-Frontend/internal/view/success"
)

// Handlers exposes the view coordinators over the local HTTP surface.
// The checkout → payment → success handoff lives here: the order draft is
// a single-consumer value handed from one stage's completion to the next
// stage's constructor, never parked in durable storage.
type Handlers struct {
	client    *backend.Client
	sessions  *session.Store
	cart      *cartview.Store
	badge     *badge.Watcher
	publicURL string

	mu           sync.Mutex
	flow         *checkout.Flow
	pendingDraft *checkout.OrderDraft
	lastDisplay  *checkout.OrderDraft
	lastReceipt  string
	lastSession  string
}

func NewHandlers(client *backend.Client, sessions *session.Store, cart *cartview.Store, watcher *badge.Watcher, publicURL string) *Handlers {
	return &Handlers{
		client:    client,
		sessions:  sessions,
		cart:      cart,
		badge:     watcher,
		publicURL: publicURL,
	}
}

// --- session ---

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var creds backend.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	resp, err := h.client.Login(r.Context(), creds)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	if err := h.sessions.Save(resp.Token); err != nil {
		writeError(w, http.StatusInternalServerError, "could not persist session")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Clear(); err != nil {
		writeError(w, http.StatusInternalServerError, "could not clear session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) Session(w http.ResponseWriter, r *http.Request) {
	state := h.sessions.State()
	out := map[string]any{"loggedIn": state.Kind == session.LoggedIn}
	if state.Kind == session.LoggedIn {
		out["email"] = state.Claims.Email
		out["role"] = state.Claims.Role
	}
	writeJSON(w, http.StatusOK, out)
}

// --- cart ---

func (h *Handlers) Cart(w http.ResponseWriter, r *http.Request) {
	h.cart.Load(r.Context())
	writeJSON(w, http.StatusOK, cartResponse{
		Lines:     h.cart.Lines(),
		Total:     h.cart.Total(),
		ItemCount: h.cart.ItemCount(),
	})
}

func (h *Handlers) SetQuantity(w http.ResponseWriter, r *http.Request) {
	lineID, err := strconv.Atoi(chi.URLParam(r, "lineID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid line id")
		return
	}
	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.cart.SetQuantity(r.Context(), lineID, body.Quantity); err != nil {
		writeCartError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cartResponse{
		Lines:     h.cart.Lines(),
		Total:     h.cart.Total(),
		ItemCount: h.cart.ItemCount(),
	})
}

func (h *Handlers) RemoveLine(w http.ResponseWriter, r *http.Request) {
	lineID, err := strconv.Atoi(chi.URLParam(r, "lineID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid line id")
		return
	}
	if err := h.cart.RemoveLine(r.Context(), lineID); err != nil {
		writeCartError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cartResponse{
		Lines:     h.cart.Lines(),
		Total:     h.cart.Total(),
		ItemCount: h.cart.ItemCount(),
	})
}

func (h *Handlers) Quotation(w http.ResponseWriter, r *http.Request) {
	h.cart.Load(r.Context())

	var customer receipt.Customer
	if _, ok := h.sessions.Token(); ok {
		if user, err := h.client.Me(r.Context()); err == nil {
			customer = receipt.Customer{
				Name:    user.Name,
				Email:   user.Email,
				Phone:   user.Phone,
				Address: user.Address,
			}
		}
	}

	html := receipt.RenderQuotation(h.cart.Lines(), customer, time.Now())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}

// --- badge ---

func (h *Handlers) Badge(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"count": h.badge.Count()})
}

func (h *Handlers) PokeBadge(w http.ResponseWriter, r *http.Request) {
	h.badge.Poke()
	w.WriteHeader(http.StatusAccepted)
}

// --- checkout ---

func (h *Handlers) EnterCheckout(w http.ResponseWriter, r *http.Request) {
	flow := checkout.NewFlow(h.client, h.sessions)
	flow.Enter(r.Context())

	h.mu.Lock()
	h.flow = flow
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, checkoutView(flow))
}

func (h *Handlers) UpdateCheckout(w http.ResponseWriter, r *http.Request) {
	flow := h.currentFlow()
	if flow == nil {
		writeError(w, http.StatusConflict, "no checkout in progress")
		return
	}

	var body struct {
		DeliveryMethod  *checkout.Method          `json:"deliveryMethod"`
		DeliveryAddress *checkout.DeliveryAddress `json:"deliveryAddress"`
		NeedInvoice     *bool                     `json:"needInvoice"`
		InvoiceData     *checkout.InvoiceData     `json:"invoiceData"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if body.DeliveryMethod != nil {
		flow.SetMethod(*body.DeliveryMethod)
	}
	if body.DeliveryAddress != nil {
		flow.SetDelivery(*body.DeliveryAddress)
	}
	if body.NeedInvoice != nil {
		flow.SetNeedInvoice(*body.NeedInvoice)
	}
	if body.InvoiceData != nil {
		flow.SetInvoice(*body.InvoiceData)
	}

	writeJSON(w, http.StatusOK, checkoutView(flow))
}

func (h *Handlers) ProceedCheckout(w http.ResponseWriter, r *http.Request) {
	flow := h.currentFlow()
	if flow == nil {
		writeError(w, http.StatusConflict, "no checkout in progress")
		return
	}

	draft, err := flow.Proceed()
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	h.mu.Lock()
	h.pendingDraft = draft
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, draft)
}

// --- payment ---

func (h *Handlers) PaymentView(w http.ResponseWriter, r *http.Request) {
	stage := payment.NewStage(h.client, h.sessions, h.publicURL, h.peekDraft())
	if stage.State() == payment.StateError {
		writeJSON(w, http.StatusOK, map[string]any{
			"state":         "error",
			"message":       "order draft not found",
			"recoveryLinks": payment.RecoveryLinks,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"state": "ready", "draft": stage.Draft()})
}

func (h *Handlers) CreatePayment(w http.ResponseWriter, r *http.Request) {
	// Take the draft, don't peek it: each request builds its own stage, so
	// the stage-level in-flight flag cannot arbitrate between two requests.
	// Ownership of the draft is the lock; a concurrent repeat finds nil.
	draft := h.takeDraft()
	stage := payment.NewStage(h.client, h.sessions, h.publicURL, draft)

	url, err := stage.CreatePayment(r.Context())
	if err != nil {
		if errors.Is(err, payment.ErrNoDraft) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		// The backend refused; hand the draft back so the action stays
		// available.
		h.restoreDraft(draft)
		writeBackendError(w, err)
		return
	}

	// The draft is consumed exactly once; a reload of the payment page
	// after the redirect lands in the error state by design.
	h.mu.Lock()
	h.lastDisplay = draft
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// --- success ---

func (h *Handlers) Success(w http.ResponseWriter, r *http.Request) {
	stage := success.NewStage(h.client, h.sessions)

	in := success.Input{SessionID: r.URL.Query().Get("session_id")}
	if in.SessionID == "" {
		// Local simulation path: the display order travels in memory.
		h.mu.Lock()
		in.Draft = h.lastDisplay
		h.mu.Unlock()
	}

	display, err := stage.Resolve(r.Context(), in)
	if err != nil {
		// Nothing resolvable means nothing to show; home is the recovery
		// for a missing entry and for a session that cannot be fetched.
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	h.mu.Lock()
	h.lastDisplay = display
	h.lastReceipt = stage.ReceiptRef()
	h.lastSession = stage.SessionRef()
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"order":      display,
		"sessionRef": stage.SessionRef(),
		"receiptRef": stage.ReceiptRef(),
	})
}

func (h *Handlers) Receipt(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	display := h.lastDisplay
	sessionRef := h.lastSession
	h.mu.Unlock()

	if display == nil {
		writeError(w, http.StatusNotFound, "no receipt to print")
		return
	}
	html := receipt.RenderReceipt(display, sessionRef)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}

// --- helpers ---

func (h *Handlers) currentFlow() *checkout.Flow {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.flow
}

func (h *Handlers) peekDraft() *checkout.OrderDraft {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pendingDraft
}

// takeDraft removes and returns the pending draft in one step.
func (h *Handlers) takeDraft() *checkout.OrderDraft {
	h.mu.Lock()
	defer h.mu.Unlock()
	draft := h.pendingDraft
	h.pendingDraft = nil
	return draft
}

// restoreDraft puts a draft back after a failed payment creation, unless a
// newer checkout already produced one.
func (h *Handlers) restoreDraft(draft *checkout.OrderDraft) {
	if draft == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pendingDraft == nil {
		h.pendingDraft = draft
	}
}

type cartResponse struct {
	Lines     []backend.CartLine `json:"lines"`
	Total     float64            `json:"total"`
	ItemCount int                `json:"itemCount"`
}

func checkoutView(flow *checkout.Flow) map[string]any {
	postalMsg, phoneMsg := flow.Validation()
	invoice, needInvoice := flow.Invoice()
	return map[string]any{
		"state":           stateName(flow.State()),
		"message":         flow.FailMessage(),
		"orderNumber":     flow.OrderNumber(),
		"deliveryMethod":  flow.Method(),
		"pickupAddress":   checkout.StorePickupAddress,
		"deliveryAddress": flow.Delivery(),
		"needInvoice":     needInvoice,
		"invoiceData":     invoice,
		"lines":           flow.Lines(),
		"total":           flow.Total(),
		"validation": map[string]string{
			"postalCode": postalMsg,
			"phone":      phoneMsg,
		},
	}
}

func stateName(s checkout.State) string {
	switch s {
	case checkout.StateLoading:
		return "loading"
	case checkout.StateReady:
		return "ready"
	case checkout.StateEmpty:
		return "empty"
	case checkout.StateFailed:
		return "failed"
	case checkout.StateSubmitting:
		return "submitting"
	case checkout.StateForwarded:
		return "forwarded"
	}
	return "unknown"
}

func writeCartError(w http.ResponseWriter, err error) {
	var stockErr *cartview.StockError
	switch {
	case errors.As(err, &stockErr):
		writeError(w, http.StatusConflict, stockErr.Error())
	case errors.Is(err, cartview.ErrLineNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeBackendError(w, err)
	}
}

func writeBackendError(w http.ResponseWriter, err error) {
	if errors.Is(err, backend.ErrNotAuthenticated) {
		writeError(w, http.StatusUnauthorized, "please log in first")
		return
	}
	if apiErr, ok := backend.AsAPIError(err); ok {
		writeError(w, apiErr.StatusCode, apiErr.Message)
		return
	}
	writeError(w, http.StatusBadGateway, "store backend unavailable")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
