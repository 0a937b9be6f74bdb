// Package cart presents the authenticated user's cart and keeps it
// consistent with server state after every mutation.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/nattapatNtp/furniture-Frontend/internal/backend"
)

var ErrLineNotFound = errors.New("cart line not found")

// StockError is the client-side guard refusing a quantity above the cached
// stock. It is advisory only; the server may still reject a request that
// passes this check, and the server's answer wins.
type StockError struct {
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("only %d left in stock", e.Available)
}

// API is the slice of the backend this view touches.
type API interface {
	Cart(ctx context.Context) ([]backend.CartLine, error)
	UpdateCartQuantity(ctx context.Context, productID, quantity int) error
	RemoveCartItem(ctx context.Context, productID int) error
}

// Sessions gates privileged requests on token presence.
type Sessions interface {
	Token() (string, bool)
}

// Notifier broadcasts the cart-changed signal after a successful mutation.
type Notifier interface {
	Publish()
}

// Store is the cart view state: a read-through copy of the server cart.
type Store struct {
	api      API
	sessions Sessions
	notify   Notifier

	mu    sync.RWMutex
	lines []backend.CartLine
}

func NewStore(api API, sessions Sessions, notify Notifier) *Store {
	return &Store{api: api, sessions: sessions, notify: notify}
}

// Load fetches the cart. Without a token it presents an empty cart and
// fires no request; on failure it degrades to empty rather than erroring
// the whole page.
func (s *Store) Load(ctx context.Context) {
	if _, ok := s.sessions.Token(); !ok {
		s.setLines(nil)
		return
	}

	lines, err := s.api.Cart(ctx)
	if err != nil {
		log.Printf("[Cart] load failed: %v", err)
		s.setLines(nil)
		return
	}
	s.setLines(lines)
}

// SetQuantity moves a line to the given quantity. Below 1 the line is
// removed instead. A quantity above the cached stock is refused before any
// request goes out. After a successful mutation the full cart is re-fetched
// and the cart-changed signal published.
func (s *Store) SetQuantity(ctx context.Context, lineID, quantity int) error {
	line, ok := s.findLine(lineID)
	if !ok {
		return ErrLineNotFound
	}

	if quantity < 1 {
		return s.mutate(ctx, func(ctx context.Context) error {
			return s.api.RemoveCartItem(ctx, line.ProductID)
		})
	}

	if line.Product.Stock > 0 && quantity > line.Product.Stock {
		return &StockError{Available: line.Product.Stock}
	}

	return s.mutate(ctx, func(ctx context.Context) error {
		return s.api.UpdateCartQuantity(ctx, line.ProductID, quantity)
	})
}

// RemoveLine deletes a line, re-fetches and broadcasts.
func (s *Store) RemoveLine(ctx context.Context, lineID int) error {
	line, ok := s.findLine(lineID)
	if !ok {
		return ErrLineNotFound
	}
	return s.mutate(ctx, func(ctx context.Context) error {
		return s.api.RemoveCartItem(ctx, line.ProductID)
	})
}

// mutate runs one cart mutation, then reconciles against a fresh GET
// instead of trusting a partial response. The server message travels back
// verbatim on rejection; local state stays untouched.
func (s *Store) mutate(ctx context.Context, op func(ctx context.Context) error) error {
	if _, ok := s.sessions.Token(); !ok {
		return backend.ErrNotAuthenticated
	}

	if err := op(ctx); err != nil {
		log.Printf("[Cart] mutation rejected: %v", err)
		return err
	}

	lines, err := s.api.Cart(ctx)
	if err != nil {
		log.Printf("[Cart] refresh after mutation failed: %v", err)
		return err
	}
	s.setLines(lines)
	s.notify.Publish()
	return nil
}

// Lines returns a copy of the cached cart lines.
func (s *Store) Lines() []backend.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]backend.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

// Total is Σ(price × qty) over the cached lines.
func (s *Store) Total() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total float64
	for _, line := range s.lines {
		total += line.Product.Price * float64(line.Quantity)
	}
	return total
}

// ItemCount is Σ qty over the cached lines.
func (s *Store) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int
	for _, line := range s.lines {
		count += line.Quantity
	}
	return count
}

func (s *Store) findLine(lineID int) (backend.CartLine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, line := range s.lines {
		if line.ID == lineID {
			return line, true
		}
	}
	return backend.CartLine{}, false
}

func (s *Store) setLines(lines []backend.CartLine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = lines
}
