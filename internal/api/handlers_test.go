package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nattapatNtp/furniture-Frontend/internal/backend"
	"github.com/nattapatNtp/furniture-Frontend/internal/bus"
	"github.com/nattapatNtp/furniture-Frontend/internal/session"
	"github.com/nattapatNtp/furniture-Frontend/internal/view/badge"
	cartview "github.com/nattapatNtp/furniture-Frontend/internal/view/cart"
)

// fakeBackend is an in-memory stand-in for the remote store API, just
// enough surface for the storefront routes under test.
type fakeBackend struct {
	mu     sync.Mutex
	lines  []backend.CartLine
	user   backend.User
	orders []backend.Order
	token  string

	createOrderCalls    int
	checkoutCreateCalls int

	// Optional gates for concurrency tests: entered signals each arrival
	// at checkout/create, hold keeps the call open until closed.
	checkoutCreateEntered chan struct{}
	holdCheckoutCreate    chan struct{}

	failCheckoutCreate bool
	failSessionFetch   bool
}

func (f *fakeBackend) router() http.Handler {
	r := chi.NewRouter()
	r.Post("/api/auth/login", func(w http.ResponseWriter, req *http.Request) {
		var creds backend.Credentials
		json.NewDecoder(req.Body).Decode(&creds)
		if creds.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "invalid credentials"})
			return
		}
		json.NewEncoder(w).Encode(backend.AuthResponse{Token: f.token})
	})
	r.Get("/api/cart", func(w http.ResponseWriter, req *http.Request) {
		json.NewEncoder(w).Encode(f.lines)
	})
	r.Put("/api/cart/{productID}", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Quantity int `json:"quantity"`
		}
		json.NewDecoder(req.Body).Decode(&body)
		for i := range f.lines {
			if chi.URLParam(req, "productID") == strconv.Itoa(f.lines[i].ProductID) {
				f.lines[i].Quantity = body.Quantity
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/api/user", func(w http.ResponseWriter, req *http.Request) {
		json.NewEncoder(w).Encode(f.user)
	})
	r.Post("/api/checkout/create", func(w http.ResponseWriter, req *http.Request) {
		f.mu.Lock()
		f.checkoutCreateCalls++
		entered, hold := f.checkoutCreateEntered, f.holdCheckoutCreate
		fail := f.failCheckoutCreate
		f.mu.Unlock()

		if entered != nil {
			entered <- struct{}{}
		}
		if hold != nil {
			<-hold
		}
		if fail {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"message": "payment provider unavailable"})
			return
		}
		json.NewEncoder(w).Encode(backend.PaymentSession{URL: "https://pay.example.com/cs_1", SessionID: "cs_1"})
	})
	r.Get("/api/checkout/session/{id}", func(w http.ResponseWriter, req *http.Request) {
		f.mu.Lock()
		fail := f.failSessionFetch
		f.mu.Unlock()
		if fail {
			w.WriteHeader(http.StatusBadGateway)
			json.NewEncoder(w).Encode(map[string]string{"message": "session lookup failed"})
			return
		}
		json.NewEncoder(w).Encode(backend.CheckoutSession{
			ID:            chi.URLParam(req, "id"),
			AmountTotal:   250000,
			CustomerEmail: f.user.Email,
			PaymentStatus: backend.PaymentSucceeded,
		})
	})
	r.Post("/api/checkout/session/{id}/create-order", func(w http.ResponseWriter, req *http.Request) {
		f.mu.Lock()
		f.createOrderCalls++
		f.mu.Unlock()
		json.NewEncoder(w).Encode(backend.Order{ID: 42})
	})
	r.Get("/api/orders", func(w http.ResponseWriter, req *http.Request) {
		json.NewEncoder(w).Encode(f.orders)
	})
	return r
}

func testToken(t *testing.T) string {
	t.Helper()
	claims := session.Claims{UserID: "7", Email: "somchai@example.com", Role: "customer"}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

type fixture struct {
	surface *httptest.Server
	back    *fakeBackend
}

func newFixture(t *testing.T, loggedIn bool) *fixture {
	t.Helper()

	back := &fakeBackend{
		token: testToken(t),
		lines: []backend.CartLine{
			{ID: 1, ProductID: 11, Quantity: 2, Product: backend.Product{ID: 11, Name: "Office Desk", Price: 1000, Stock: 5}},
			{ID: 2, ProductID: 22, Quantity: 1, Product: backend.Product{ID: 22, Name: "Office Chair", Price: 500, Stock: 3}},
		},
		user: backend.User{ID: 7, Name: "Somchai Jaidee", Email: "somchai@example.com", Phone: "0812345678"},
		orders: []backend.Order{
			{ID: 42, Total: 2500, DeliveryMethod: "pickup", User: &backend.User{Name: "Somchai Jaidee", Email: "somchai@example.com"}},
		},
	}
	upstream := httptest.NewServer(back.router())
	t.Cleanup(upstream.Close)

	sessions := session.NewStore(filepath.Join(t.TempDir(), "token"))
	if loggedIn {
		require.NoError(t, sessions.Save(back.token))
	}

	client := backend.NewClient(upstream.URL, sessions, 3*time.Second, 15*time.Second)
	cartBus := bus.New()
	cart := cartview.NewStore(client, sessions, cartBus)
	watcher := badge.NewWatcher(client, sessions, cartBus, time.Hour)

	handlers := NewHandlers(client, sessions, cart, watcher, "http://localhost:3000")
	surface := httptest.NewServer(NewRouter(handlers))
	t.Cleanup(surface.Close)

	return &fixture{surface: surface, back: back}
}

func (f *fixture) do(t *testing.T, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	var reqBody *strings.Reader
	if body == "" {
		reqBody = strings.NewReader("")
	} else {
		reqBody = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, f.surface.URL+path, reqBody)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{CheckRedirect: func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		json.NewDecoder(resp.Body).Decode(&decoded)
	}
	return resp, decoded
}

func TestSurface_SessionLifecycle(t *testing.T) {
	f := newFixture(t, false)

	resp, body := f.do(t, http.MethodGet, "/session", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["loggedIn"])

	resp, _ = f.do(t, http.MethodPost, "/session/login", `{"email":"somchai@example.com","password":"secret"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = f.do(t, http.MethodGet, "/session", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["loggedIn"])
	assert.Equal(t, "somchai@example.com", body["email"])

	resp, _ = f.do(t, http.MethodPost, "/session/logout", "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, body = f.do(t, http.MethodGet, "/session", "")
	assert.Equal(t, false, body["loggedIn"])
}

func TestSurface_LoginRejectionPassesMessageThrough(t *testing.T) {
	f := newFixture(t, false)

	resp, body := f.do(t, http.MethodPost, "/session/login", `{"email":"somchai@example.com","password":"wrong"}`)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid credentials", body["message"])
}

func TestSurface_CartView(t *testing.T) {
	f := newFixture(t, true)

	resp, body := f.do(t, http.MethodGet, "/cart", "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2500.0, body["total"])
	assert.Equal(t, 3.0, body["itemCount"])
}

func TestSurface_SetQuantityStockGuard(t *testing.T) {
	f := newFixture(t, true)
	f.do(t, http.MethodGet, "/cart", "")

	resp, body := f.do(t, http.MethodPut, "/cart/lines/2", `{"quantity":9}`)

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "only 3 left in stock", body["message"])
}

func TestSurface_CheckoutToSuccessSimulationPath(t *testing.T) {
	f := newFixture(t, true)

	resp, body := f.do(t, http.MethodPost, "/checkout", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ready", body["state"])
	orderNumber := body["orderNumber"].(string)
	require.Len(t, orderNumber, 10)

	resp, body = f.do(t, http.MethodPost, "/checkout/proceed", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, orderNumber, body["orderNumber"])

	resp, body = f.do(t, http.MethodPost, "/payment/create", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "https://pay.example.com/cs_1", body["url"])

	// The draft was consumed; a reload of the payment page has nothing.
	_, body = f.do(t, http.MethodGet, "/payment", "")
	assert.Equal(t, "error", body["state"])
	assert.NotEmpty(t, body["recoveryLinks"])

	// No session_id: the display order travels in memory.
	resp, body = f.do(t, http.MethodGet, "/checkout/success", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	order := body["order"].(map[string]any)
	assert.Equal(t, orderNumber, order["orderNumber"])
	assert.True(t, strings.HasPrefix(body["sessionRef"].(string), "test_session_"))

	resp, _ = f.do(t, http.MethodGet, "/receipt", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}

func TestSurface_SuccessWithSessionID(t *testing.T) {
	f := newFixture(t, true)

	resp, body := f.do(t, http.MethodGet, "/checkout/success?session_id=cs_test_1", "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	order := body["order"].(map[string]any)
	// Server order id, never the raw session id.
	assert.Equal(t, "42", order["orderNumber"])
	assert.Equal(t, "42", body["receiptRef"])
	assert.Equal(t, "cs_test_1", body["sessionRef"])
	assert.Equal(t, 1, f.back.createOrderCalls)
}

func TestSurface_SuccessWithoutAnyEntryRedirectsHome(t *testing.T) {
	f := newFixture(t, true)

	resp, _ := f.do(t, http.MethodGet, "/checkout/success", "")

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestSurface_PaymentCreateWithoutDraft(t *testing.T) {
	f := newFixture(t, true)

	resp, body := f.do(t, http.MethodPost, "/payment/create", "")

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, body["message"], "no order draft")
}

func TestSurface_ProceedTwiceConflicts(t *testing.T) {
	f := newFixture(t, true)
	f.do(t, http.MethodPost, "/checkout", "")

	resp, _ := f.do(t, http.MethodPost, "/checkout/proceed", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/checkout/proceed", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestSurface_UpdateCheckoutValidation(t *testing.T) {
	f := newFixture(t, true)
	f.do(t, http.MethodPost, "/checkout", "")

	resp, body := f.do(t, http.MethodPut, "/checkout", `{"deliveryMethod":"delivery","deliveryAddress":{"postalCode":"103","phone":"0812"}}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	validation := body["validation"].(map[string]any)
	assert.Equal(t, "postal code must be 5 digits", validation["postalCode"])
	assert.Equal(t, "phone number must be 10 digits", validation["phone"])
}

func TestSurface_ReceiptBeforeAnyOrder(t *testing.T) {
	f := newFixture(t, true)

	resp, _ := f.do(t, http.MethodGet, "/receipt", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSurface_Badge(t *testing.T) {
	f := newFixture(t, true)

	resp, body := f.do(t, http.MethodGet, "/badge", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "count")

	resp, _ = f.do(t, http.MethodPost, "/badge/poke", "")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestSurface_CreatePaymentConcurrentRepeatsSingleSession(t *testing.T) {
	f := newFixture(t, true)
	f.back.checkoutCreateEntered = make(chan struct{}, 2)
	f.back.holdCheckoutCreate = make(chan struct{})

	resp, _ := f.do(t, http.MethodPost, "/checkout", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = f.do(t, http.MethodPost, "/checkout/proceed", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	statuses := make(chan int, 2)
	for i := 0; i < 2; i++ {
		go func() {
			resp, err := http.Post(f.surface.URL+"/payment/create", "application/json", strings.NewReader(""))
			if err != nil {
				statuses <- 0
				return
			}
			resp.Body.Close()
			statuses <- resp.StatusCode
		}()
	}

	// One request is now open against the upstream; release it and let
	// both finish.
	<-f.back.checkoutCreateEntered
	close(f.back.holdCheckoutCreate)

	got := []int{<-statuses, <-statuses}
	sort.Ints(got)
	assert.Equal(t, []int{http.StatusOK, http.StatusConflict}, got)

	f.back.mu.Lock()
	defer f.back.mu.Unlock()
	assert.Equal(t, 1, f.back.checkoutCreateCalls)
}

func TestSurface_CreatePaymentFailureKeepsDraft(t *testing.T) {
	f := newFixture(t, true)
	f.back.failCheckoutCreate = true

	f.do(t, http.MethodPost, "/checkout", "")
	f.do(t, http.MethodPost, "/checkout/proceed", "")

	resp, body := f.do(t, http.MethodPost, "/payment/create", "")
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "payment provider unavailable", body["message"])

	// The draft survived the failure; a retry succeeds.
	f.back.mu.Lock()
	f.back.failCheckoutCreate = false
	f.back.mu.Unlock()

	resp, body = f.do(t, http.MethodPost, "/payment/create", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "https://pay.example.com/cs_1", body["url"])
}

func TestSurface_SuccessSessionFetchFailureRedirectsHome(t *testing.T) {
	f := newFixture(t, true)
	f.back.failSessionFetch = true

	resp, _ := f.do(t, http.MethodGet, "/checkout/success?session_id=cs_test_1", "")

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}
