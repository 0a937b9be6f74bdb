// Package payment turns an order draft into a redirect to the external
// payment page.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"
	"sync/atomic"
	"time"

	"github.com/nattapatNtp/furniture-Frontend/internal/backend"
	"github.com/nattapatNtp/furniture-Frontend/internal/view/checkout"
)

// SessionIDPlaceholder is substituted by the payment provider when it
// redirects back to the success URL.
const SessionIDPlaceholder = "{CHECKOUT_SESSION_ID}"

var (
	// ErrNoDraft means the stage was entered without an order draft. The
	// stage never fabricates one; the caller shows the recovery links.
	ErrNoDraft = errors.New("no order draft in navigation state")
	// ErrInFlight means a payment creation is already running; the repeat
	// invocation is ignored rather than queued.
	ErrInFlight = errors.New("payment creation already in flight")
)

// RecoveryLinks are the navigation targets offered from the terminal
// error state.
var RecoveryLinks = []string{"/cart", "/checkout"}

// API is the slice of the backend this stage touches.
type API interface {
	User(ctx context.Context) (*backend.User, error)
	CreateCheckout(ctx context.Context, req backend.CheckoutRequest) (*backend.PaymentSession, error)
	PaymentIntentStatus(ctx context.Context, intentID string) (string, error)
}

// Sessions gates the best-effort user lookup.
type Sessions interface {
	Token() (string, bool)
}

// State of the payment stage.
type State int

const (
	StateReady State = iota
	StateError
	StateRedirecting
)

// Stage holds the single-consumer draft and creates the payment session.
type Stage struct {
	api       API
	sessions  Sessions
	publicURL string
	draft     *checkout.OrderDraft

	inFlight atomic.Bool
	state    atomic.Int32
}

// NewStage builds the stage from the draft carried in navigation state.
// A nil draft is a terminal error, never silently repaired.
func NewStage(api API, sessions Sessions, publicURL string, draft *checkout.OrderDraft) *Stage {
	s := &Stage{api: api, sessions: sessions, publicURL: publicURL, draft: draft}
	if draft == nil {
		s.state.Store(int32(StateError))
	}
	return s
}

// State reports the stage state.
func (s *Stage) State() State {
	return State(s.state.Load())
}

// Draft exposes the draft for display. Nil in the error state.
func (s *Stage) Draft() *checkout.OrderDraft {
	return s.draft
}

// CreatePayment requests a hosted payment session and returns the provider
// URL for a full browser navigation out of the app. The in-flight flag is
// taken before the first suspension point, so two rapid invocations cannot
// both reach the backend. On failure the flag clears and the action stays
// available; there is no auto-retry.
func (s *Stage) CreatePayment(ctx context.Context) (string, error) {
	if s.draft == nil {
		return "", ErrNoDraft
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		return "", ErrInFlight
	}

	url, err := s.createPayment(ctx)
	if err != nil {
		s.inFlight.Store(false)
		return "", err
	}
	s.state.Store(int32(StateRedirecting))
	return url, nil
}

func (s *Stage) createPayment(ctx context.Context) (string, error) {
	// Best-effort: the session can be created without a user id.
	var userID int
	if _, ok := s.sessions.Token(); ok {
		if user, err := s.api.User(ctx); err != nil {
			log.Printf("[Payment] could not resolve user id: %v", err)
		} else {
			userID = user.ID
		}
	}

	details, err := s.deliveryDetails()
	if err != nil {
		return "", err
	}

	sess, err := s.api.CreateCheckout(ctx, backend.CheckoutRequest{
		Amount:          int64(math.Round(s.draft.TotalAmount * 100)),
		Email:           s.draft.CustomerEmail,
		UserID:          userID,
		DeliveryMethod:  string(s.draft.DeliveryMethod),
		DeliveryDetails: details,
		SuccessURL:      s.publicURL + "/checkout/success?session_id=" + SessionIDPlaceholder,
		CancelURL:       s.publicURL + "/payment?canceled=true",
	})
	if err != nil {
		log.Printf("[Payment] session creation failed: %v", err)
		return "", err
	}
	return sess.URL, nil
}

// deliveryDetails serializes the selected address to the string payload
// the backend stores alongside the order.
func (s *Stage) deliveryDetails() (string, error) {
	var addr any
	if s.draft.DeliveryMethod == checkout.MethodDelivery {
		addr = s.draft.DeliveryAddress
	} else {
		addr = s.draft.PickupAddress
	}
	data, err := json.Marshal(addr)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// PollStatus polls the payment intent every interval until it reaches a
// terminal status or ctx is cancelled. The final status is returned.
func (s *Stage) PollStatus(ctx context.Context, intentID string, interval time.Duration) (string, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
			status, err := s.api.PaymentIntentStatus(ctx, intentID)
			if err != nil {
				return "", err
			}
			switch status {
			case backend.PaymentSucceeded, backend.PaymentCanceled, backend.PaymentRequiresMethod:
				return status, nil
			}
		}
	}
}
