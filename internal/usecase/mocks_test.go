package usecase

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Ojay1963/Delxta/internal/clients"
	"github.com/Ojay1963/Delxta/internal/domain"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// mockStore enforces the same uniqueness rules as the Postgres schema: one order per
// checkout session and one order per gateway reference.
type mockStore struct {
	mu             sync.Mutex
	orders         map[string]*domain.Order
	sessions       map[string]*domain.CheckoutSession
	inserts        int
	materializeErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		orders:   make(map[string]*domain.Order),
		sessions: make(map[string]*domain.CheckoutSession),
	}
}

func cloneOrder(o *domain.Order) *domain.Order {
	c := *o
	c.Items = append([]domain.OrderLineItem(nil), o.Items...)
	return &c
}

func cloneSession(s *domain.CheckoutSession) *domain.CheckoutSession {
	c := *s
	c.OrderDraft.Items = append([]domain.OrderLineItem(nil), s.OrderDraft.Items...)
	return &c
}

func (m *mockStore) orderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

func (m *mockStore) session(id string) *domain.CheckoutSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return cloneSession(s)
	}
	return nil
}

func (m *mockStore) CreateOrder(_ context.Context, order *domain.Order) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	order.CreatedAt, order.UpdatedAt = now, now
	m.orders[order.ID] = cloneOrder(order)
	m.inserts++
	return cloneOrder(order), nil
}

func (m *mockStore) MaterializeOrder(_ context.Context, sessionID string, order *domain.Order) (*domain.Order, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.materializeErr != nil {
		return nil, false, m.materializeErr
	}

	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, false, domain.ErrSessionNotFound
	}
	if existing, ok := m.orders[session.OrderID]; ok {
		return cloneOrder(existing), false, nil
	}
	for _, existing := range m.orders {
		sameSession := existing.CheckoutSessionID == sessionID
		sameRef := order.PaymentReference() != "" && existing.PaymentReference() == order.PaymentReference()
		if sameSession || sameRef {
			session.OrderID = existing.ID
			session.Status = domain.CheckoutCompleted
			return cloneOrder(existing), false, nil
		}
	}

	now := time.Now().UTC()
	order.CreatedAt, order.UpdatedAt = now, now
	m.orders[order.ID] = cloneOrder(order)
	m.inserts++
	session.OrderID = order.ID
	session.Status = domain.CheckoutCompleted
	session.UpdatedAt = now
	return cloneOrder(order), true, nil
}

func (m *mockStore) GetOrderByID(_ context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.orders[id]; ok {
		return cloneOrder(o), nil
	}
	return nil, domain.ErrOrderNotFound
}

func (m *mockStore) FindOrderByPaymentReference(_ context.Context, reference string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.PaymentReference() == reference {
			return cloneOrder(o), nil
		}
	}
	return nil, nil
}

func (m *mockStore) sortedOrders(keep func(*domain.Order) bool, limit int) []domain.Order {
	out := make([]domain.Order, 0)
	for _, o := range m.orders {
		if keep(o) {
			out = append(out, *cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m *mockStore) ListOrdersByOwner(_ context.Context, userID, email string, limit int) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedOrders(func(o *domain.Order) bool {
		return (userID != "" && o.UserID == userID) || (email != "" && strings.EqualFold(o.Email, email))
	}, limit), nil
}

func (m *mockStore) ListOrders(_ context.Context, status domain.OrderStatus, limit int) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedOrders(func(o *domain.Order) bool {
		return status == "" || o.OrderStatus == status
	}, limit), nil
}

func (m *mockStore) UpdateOrderStatus(_ context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	o.OrderStatus = status
	o.UpdatedAt = time.Now().UTC()
	return cloneOrder(o), nil
}

func (m *mockStore) CreateSession(_ context.Context, session *domain.CheckoutSession) (*domain.CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = cloneSession(session)
	return cloneSession(session), nil
}

func (m *mockStore) GetSessionByID(_ context.Context, id string) (*domain.CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return cloneSession(s), nil
	}
	return nil, domain.ErrSessionNotFound
}

func (m *mockStore) GetSessionByReference(_ context.Context, reference string) (*domain.CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.PaystackReference == reference {
			return cloneSession(s), nil
		}
	}
	return nil, domain.ErrSessionNotFound
}

func (m *mockStore) MarkPaymentInitiated(_ context.Context, id, reference string) (*domain.CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	s.PaystackReference = reference
	s.Status = domain.CheckoutPaymentInitiated
	return cloneSession(s), nil
}

func (m *mockStore) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.sessions {
		if s.OrderID == "" && !now.Before(s.ExpiresAt) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

type mockCatalog struct {
	mu    sync.Mutex
	items map[string]domain.MenuItem
	calls [][]string
	err   error
}

func newMockCatalog(items ...domain.MenuItem) *mockCatalog {
	c := &mockCatalog{items: make(map[string]domain.MenuItem)}
	for _, item := range items {
		c.items[item.ID] = item
	}
	return c
}

func (c *mockCatalog) FindMenuItems(_ context.Context, ids []string) ([]domain.MenuItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, append([]string(nil), ids...))
	if c.err != nil {
		return nil, c.err
	}
	out := make([]domain.MenuItem, 0, len(ids))
	for _, id := range ids {
		if item, ok := c.items[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

type mockGateway struct {
	mu           sync.Mutex
	initRequests []clients.InitializeRequest
	initErr      error
	verification *clients.Verification
	verifyErr    error
	verifyCalls  int
	signature    string
}

func (g *mockGateway) Initialize(_ context.Context, req clients.InitializeRequest) (*clients.Initialization, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.initRequests = append(g.initRequests, req)
	if g.initErr != nil {
		return nil, g.initErr
	}
	return &clients.Initialization{
		AuthorizationURL: "https://checkout.paystack.test/" + req.Reference,
		Reference:        req.Reference,
		AccessCode:       "access-" + req.Reference,
	}, nil
}

func (g *mockGateway) Verify(_ context.Context, reference string) (*clients.Verification, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verifyCalls++
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	if g.verification == nil {
		return nil, domain.NewGatewayError(domain.CodeGatewayRejected, "Transaction reference not found", nil)
	}
	v := *g.verification
	if v.Reference == "" {
		v.Reference = reference
	}
	return &v, nil
}

func (g *mockGateway) VerifyWebhookSignature(_ []byte, signature string) bool {
	return g.signature != "" && signature == g.signature
}

func (g *mockGateway) verifyCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.verifyCalls
}

type mockNotifier struct {
	mu   sync.Mutex
	sent []clients.Notification
	err  error
}

func (n *mockNotifier) Notify(_ context.Context, msg clients.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return n.err
}

func (n *mockNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func (n *mockNotifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = nil
}
