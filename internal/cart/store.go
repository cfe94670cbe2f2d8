package cart

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/medgentai/qr-code-menus-made-easy-sub005/internal/domain"
	"github.com/medgentai/qr-code-menus-made-easy-sub005/internal/storage"
)

// Store is the sole authority over the in-progress order. Every mutation
// rewrites the full session snapshot to the slot store; persistence
// failures are logged and degrade to in-memory-only operation, they never
// fail the mutation itself.
type Store struct {
	mu      sync.Mutex
	slot    storage.SlotStore
	session domain.CartSession
}

// NewStore seeds the session from the persisted slot. A missing, corrupt
// or unreadable blob yields an empty session, never an error.
func NewStore(ctx context.Context, slot storage.SlotStore) *Store {
	s := &Store{slot: slot}
	s.restore(ctx)
	return s
}

func (s *Store) restore(ctx context.Context) {
	blob, err := s.slot.Load(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Printf("session restore failed, starting empty: %v", err)
		}
		return
	}

	var session domain.CartSession
	if err := json.Unmarshal(blob, &session); err != nil {
		log.Printf("discarding corrupt session blob: %v", err)
		return
	}
	s.session = session
}

// AddItem merges into an existing line with the same product ref (only
// quantity accumulates, first write wins for notes and modifiers) or
// appends a new line at the end. Quantity is not validated here; that is
// UpdateQuantity's job.
func (s *Store) AddItem(ctx context.Context, product domain.Product, quantity int, notes string, modifiers []domain.Modifier) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.session.Lines {
		if s.session.Lines[i].ProductRef == product.ID {
			s.session.Lines[i].Quantity += quantity
			s.persist(ctx)
			return
		}
	}

	s.session.Lines = append(s.session.Lines, domain.CartLine{
		ProductRef: product.ID,
		Snapshot: domain.ProductSnapshot{
			Name:          product.Name,
			Price:         product.Price,
			DiscountPrice: product.DiscountPrice,
		},
		Quantity:  quantity,
		Notes:     notes,
		Modifiers: modifiers,
	})
	s.persist(ctx)
}

// RemoveItem deletes the line at index. Out-of-bounds indexes are a
// no-op so deletes stay idempotent.
func (s *Store) RemoveItem(ctx context.Context, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(ctx, index)
}

func (s *Store) removeLocked(ctx context.Context, index int) {
	if index < 0 || index >= len(s.session.Lines) {
		return
	}
	s.session.Lines = append(s.session.Lines[:index], s.session.Lines[index+1:]...)
	s.persist(ctx)
}

// UpdateQuantity sets the line's quantity to an absolute value. Anything
// below one removes the line instead; no line with quantity < 1 may
// exist.
func (s *Store) UpdateQuantity(ctx context.Context, index, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity < 1 {
		s.removeLocked(ctx, index)
		return
	}
	if index < 0 || index >= len(s.session.Lines) {
		return
	}
	s.session.Lines[index].Quantity = quantity
	s.persist(ctx)
}

func (s *Store) UpdateNotes(ctx context.Context, index int, notes string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.session.Lines) {
		return
	}
	s.session.Lines[index].Notes = notes
	s.persist(ctx)
}

func (s *Store) SetCustomer(ctx context.Context, c domain.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Customer = c
	s.persist(ctx)
}

func (s *Store) SetFulfillment(ctx context.Context, f domain.Fulfillment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Fulfillment = f
	s.persist(ctx)
}

// Clear resets lines, customer and fulfillment in one step and drops the
// persisted blob. Used after a confirmed order or an explicit reset.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = domain.CartSession{}
	if err := s.slot.Clear(ctx); err != nil {
		log.Printf("session clear failed: %v", err)
	}
}

// Session returns a snapshot copy of the current session.
func (s *Store) Session() domain.CartSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.session
	snapshot.Lines = make([]domain.CartLine, len(s.session.Lines))
	copy(snapshot.Lines, s.session.Lines)
	for i := range snapshot.Lines {
		if len(snapshot.Lines[i].Modifiers) == 0 {
			continue
		}
		modifiers := make([]domain.Modifier, len(snapshot.Lines[i].Modifiers))
		copy(modifiers, snapshot.Lines[i].Modifiers)
		snapshot.Lines[i].Modifiers = modifiers
	}
	return snapshot
}

func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.TotalItems()
}

func (s *Store) TotalAmount() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.TotalAmount()
}

func (s *Store) persist(ctx context.Context) {
	s.session.UpdatedAt = time.Now()

	blob, err := json.Marshal(s.session)
	if err != nil {
		log.Printf("session marshal failed: %v", err)
		return
	}
	if err := s.slot.Save(ctx, blob); err != nil {
		log.Printf("session persist failed: %v", err)
	}
}
