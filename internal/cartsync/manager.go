// Package cartsync owns the shopping cart's state of truth for the current
// session. It reconciles a storage-backed guest cart with the server-backed
// authenticated cart, applies mutations optimistically with rollback on
// remote failure, and exposes derived totals.
package cartsync

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/storefront-cart/internal/client"
	"github.com/xenking/storefront-cart/internal/domain/cart"
	"github.com/xenking/storefront-cart/internal/domain/product"
	"github.com/xenking/storefront-cart/internal/localstore"
	"github.com/xenking/storefront-cart/internal/notify"
	"github.com/xenking/storefront-cart/internal/session"
	"github.com/xenking/storefront-cart/internal/wishlist"
	"github.com/xenking/storefront-cart/pkg/optimistic"
)

// Remote is the server-side cart API the manager reconciles against.
// Every call returns the full authoritative cart, which replaces local
// state wholesale on success.
type Remote interface {
	FetchCart(ctx context.Context) (*cart.Cart, error)
	AddItem(ctx context.Context, productID string, quantity int, color, size string) (*cart.Cart, error)
	UpdateItem(ctx context.Context, itemID string, quantity int) (*cart.Cart, error)
	RemoveItem(ctx context.Context, itemID string) (*cart.Cart, error)
	ClearCart(ctx context.Context) (*cart.Cart, error)
	ApplyCoupon(ctx context.Context, code string) (*cart.Cart, error)
}

// Wishlist receives lines moved out of the cart. Inserts are best-effort
// from the cart's perspective.
type Wishlist interface {
	Add(ctx context.Context, e wishlist.Entry) error
}

// Config holds the manager's collaborators.
type Config struct {
	Remote   Remote
	Store    localstore.Store
	Session  *session.Session
	Notifier notify.Notifier // defaults to the log notifier
	Wishlist Wishlist        // optional
	Logger   *zap.Logger     // defaults to zap.NewNop()
}

// Manager is the single source of truth for the session's cart. All state
// access goes through its methods; mutations are serialized internally.
type Manager struct {
	mu       sync.Mutex
	state    *optimistic.Container[*cart.Cart]
	remote   Remote
	store    localstore.Store
	session  *session.Session
	notifier notify.Notifier
	wishlist Wishlist
	lg       *zap.Logger
	tracer   trace.Tracer

	hydrated  bool
	merged    bool
	lastMerge *MergeReport
}

// New wires a Manager and subscribes it to session transitions so the
// guest-to-authenticated merge fires exactly once after hydration.
func New(cfg Config) *Manager {
	if cfg.Notifier == nil {
		cfg.Notifier = notify.NewLogNotifier()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	m := &Manager{
		state:    optimistic.New(cart.New(), (*cart.Cart).Clone),
		remote:   cfg.Remote,
		store:    cfg.Store,
		session:  cfg.Session,
		notifier: cfg.Notifier,
		wishlist: cfg.Wishlist,
		lg:       cfg.Logger,
		tracer:   otel.Tracer("cartsync"),
	}
	m.session.OnChange(m.onSessionChange)
	return m
}

// Hydrate loads the initial cart state: from the remote API when
// authenticated, from durable local storage otherwise. Call once on mount,
// before any mutation.
func (m *Manager) Hydrate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() { m.hydrated = true }()

	if m.session.Authenticated() {
		server, err := m.remote.FetchCart(ctx)
		if err == nil {
			_ = m.state.Replace(server)
			m.saveBackup(ctx)
			return nil
		}
		if errors.Is(err, client.ErrUnauthorized) {
			// Token already torn down by the 401 hook. Fall back to the
			// last known authenticated snapshot, then guest storage.
			backup, lerr := localstore.LoadCart(ctx, m.store, localstore.KeyAuthBackup)
			if lerr == nil && backup != nil {
				_ = m.state.Replace(backup)
				return nil
			}
			return m.hydrateGuest(ctx)
		}
		m.notifier.Notify(ctx, notify.LevelError, "Could not load your cart, please try again")
		return errors.Wrap(err, "hydrate cart")
	}

	return m.hydrateGuest(ctx)
}

func (m *Manager) hydrateGuest(ctx context.Context) error {
	stored, err := localstore.LoadCart(ctx, m.store, localstore.KeyGuestCart)
	if err != nil {
		return errors.Wrap(err, "hydrate guest cart")
	}
	if stored == nil {
		stored = cart.New()
	}
	_ = m.state.Replace(stored)
	return nil
}

// AddItem appends a product line, or accumulates quantity into the
// existing line matching the same product and variant. quantity values
// below 1 default to 1. The line is visible immediately; on remote failure
// it is rolled back and an OpError is returned.
func (m *Manager) AddItem(ctx context.Context, p product.Product, quantity int, color, size string) error {
	if quantity < 1 {
		quantity = 1
	}

	return m.mutate(ctx, OpAdd,
		func(c *cart.Cart) {
			key := cart.Key{ProductID: p.ID, Color: color, Size: size}
			if i, ok := c.FindByKey(key); ok {
				c.Lines[i].Quantity += quantity
				return
			}
			c.Lines = append(c.Lines, cart.Line{
				ID:       "tmp-" + uuid.New().String(),
				Product:  p,
				Quantity: quantity,
				Color:    color,
				Size:     size,
				AddedAt:  time.Now(),
			})
		},
		func(ctx context.Context) (*cart.Cart, error) {
			return m.remote.AddItem(ctx, p.ID, quantity, color, size)
		},
	)
}

// UpdateQuantity sets a line's quantity. Values below 1 are interpreted as
// removal, not as an error. Updating an absent line is a no-op.
func (m *Manager) UpdateQuantity(ctx context.Context, itemID string, quantity int) error {
	if quantity < 1 {
		return m.RemoveItem(ctx, itemID)
	}

	m.mu.Lock()
	_, present := m.state.Get().FindLine(itemID)
	m.mu.Unlock()
	if !present {
		return nil
	}

	return m.mutate(ctx, OpUpdate,
		func(c *cart.Cart) {
			if i, ok := c.FindLine(itemID); ok {
				c.Lines[i].Quantity = quantity
			}
		},
		func(ctx context.Context) (*cart.Cart, error) {
			return m.remote.UpdateItem(ctx, itemID, quantity)
		},
	)
}

// RemoveItem deletes a line regardless of quantity. Removing an absent ID
// is a no-op, not an error.
func (m *Manager) RemoveItem(ctx context.Context, itemID string) error {
	m.mu.Lock()
	_, present := m.state.Get().FindLine(itemID)
	m.mu.Unlock()
	if !present {
		return nil
	}

	return m.mutate(ctx, OpRemove,
		func(c *cart.Cart) {
			c.RemoveLine(itemID)
		},
		func(ctx context.Context) (*cart.Cart, error) {
			return m.remote.RemoveItem(ctx, itemID)
		},
	)
}

// ClearCart empties all lines. Unlike the per-item operations this is not
// optimistic: there is no cheap rollback path for every line, so it blocks
// until the remote clear succeeds when authenticated.
func (m *Manager) ClearCart(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.session.Authenticated() {
		_ = m.state.Replace(cart.New())
		m.persistGuest(ctx)
		return nil
	}

	server, err := m.remote.ClearCart(ctx)
	if err != nil {
		m.surface(ctx, OpClear, err)
		return &OpError{Op: OpClear, Err: err}
	}
	_ = m.state.Replace(server)
	m.saveBackup(ctx)
	return nil
}

// ApplyCoupon validates a coupon server-side and reconciles with the
// discounted cart. Guests get ErrLoginRequired; coupon correctness cannot
// be computed client-side, so this never applies optimistically.
func (m *Manager) ApplyCoupon(ctx context.Context, code string) error {
	if !m.session.Authenticated() {
		m.notifier.Notify(ctx, notify.LevelWarning, "Please sign in to apply a coupon")
		return ErrLoginRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	server, err := m.remote.ApplyCoupon(ctx, code)
	if err != nil {
		m.surface(ctx, OpCoupon, err)
		return &OpError{Op: OpCoupon, Err: err}
	}
	_ = m.state.Replace(server)
	m.saveBackup(ctx)
	return nil
}

// MoveToWishlist inserts the line's product into the wishlist and removes
// the line from the cart. The wishlist insert is best-effort; the cart
// removal is authoritative and proceeds even if the insert fails.
func (m *Manager) MoveToWishlist(ctx context.Context, itemID string) error {
	m.mu.Lock()
	var line cart.Line
	i, present := m.state.Get().FindLine(itemID)
	if present {
		line = m.state.Get().Lines[i]
	}
	m.mu.Unlock()
	if !present {
		return nil
	}

	if m.wishlist != nil {
		e := wishlist.Entry{
			Product: line.Product,
			Color:   line.Color,
			Size:    line.Size,
		}
		if err := m.wishlist.Add(ctx, e); err != nil {
			zctx.From(ctx).Warn("Wishlist insert failed",
				zap.String("product_id", line.Product.ID),
				zap.Error(err),
			)
		}
	}

	return m.RemoveItem(ctx, itemID)
}

// Snapshot returns a deep copy of the current cart.
func (m *Manager) Snapshot() *cart.Cart {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Get().Clone()
}

// Totals derives the current totals.
func (m *Manager) Totals() cart.Totals {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cart.DeriveTotals(m.state.Get())
}

// IsInCart reports whether any line carries the given product.
func (m *Manager) IsInCart(productID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Get().Contains(productID)
}

// ItemQuantity returns the total quantity of the given product across all
// variant lines.
func (m *Manager) ItemQuantity(productID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Get().QuantityOf(productID)
}

// mutate runs one optimistic operation: snapshot, apply locally, then
// either persist (guest), reconcile with the server's cart (authenticated),
// or roll back and surface the failure.
func (m *Manager) mutate(
	ctx context.Context,
	op Op,
	apply func(*cart.Cart),
	remoteCall func(context.Context) (*cart.Cart, error),
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.state.Begin(apply); err != nil {
		return errors.Wrapf(err, "begin %s", op)
	}

	if !m.session.Authenticated() {
		_ = m.state.CommitLocal()
		m.persistGuest(ctx)
		return nil
	}

	server, err := remoteCall(ctx)
	if err != nil {
		_ = m.state.Rollback()
		m.surface(ctx, op, err)
		return &OpError{Op: op, Err: err}
	}

	_ = m.state.Commit(server)
	m.saveBackup(ctx)
	return nil
}

// persistGuest writes the guest cart to durable storage. Failures are
// logged, not surfaced: guest persistence is a convenience cache.
func (m *Manager) persistGuest(ctx context.Context) {
	if err := localstore.SaveCart(ctx, m.store, localstore.KeyGuestCart, m.state.Get()); err != nil {
		zctx.From(ctx).Warn("Guest cart persist failed", zap.Error(err))
	}
}

// saveBackup refreshes the authenticated-cart backup snapshot.
func (m *Manager) saveBackup(ctx context.Context) {
	if err := localstore.SaveCart(ctx, m.store, localstore.KeyAuthBackup, m.state.Get()); err != nil {
		zctx.From(ctx).Warn("Cart backup persist failed", zap.Error(err))
	}
}

// surface converts an operation failure into a user-facing notification.
// Server-reported validation messages pass through verbatim.
func (m *Manager) surface(ctx context.Context, op Op, err error) {
	var se *client.StatusError
	switch {
	case errors.As(err, &se):
		m.notifier.Notify(ctx, notify.LevelError, se.Message)
	case errors.Is(err, client.ErrUnauthorized):
		m.notifier.Notify(ctx, notify.LevelWarning, "Your session has expired, please sign in again")
	default:
		m.notifier.Notify(ctx, notify.LevelError, opMessage(op))
	}
}

func opMessage(op Op) string {
	switch op {
	case OpAdd:
		return "Could not add the item to your cart, please try again"
	case OpUpdate:
		return "Could not update your cart, please try again"
	case OpRemove:
		return "Could not remove the item from your cart, please try again"
	case OpClear:
		return "Could not clear your cart, please try again"
	case OpCoupon:
		return "Could not apply the coupon, please try again"
	default:
		return "Cart operation failed, please try again"
	}
}
