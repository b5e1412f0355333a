package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Ojay1963/Delxta/internal/domain"
)

// SessionStore freezes drafts into checkout sessions and guards who may advance them.
type SessionStore struct {
	repo     domain.CheckoutSessionRepository
	settings Settings
	log      *logrus.Logger
}

func NewSessionStore(repo domain.CheckoutSessionRepository, settings Settings, logger *logrus.Logger) *SessionStore {
	return &SessionStore{
		repo:     repo,
		settings: settings.withDefaults(),
		log:      logger,
	}
}

// Create stores the draft with its amount frozen in minor units. The amount is never recomputed.
func (s *SessionStore) Create(ctx context.Context, draft *domain.OrderDraft, method domain.PaymentMethod, callerUserID string) (*domain.CheckoutSession, error) {
	now := s.settings.now()
	session := &domain.CheckoutSession{
		ID:            uuid.NewString(),
		Email:         draft.Email,
		AmountKobo:    draft.Total * 100,
		PaymentMethod: method,
		OrderDraft:    *draft,
		UserID:        callerUserID,
		Status:        domain.CheckoutPending,
		ExpiresAt:     now.Add(s.settings.SessionTTL),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	created, err := s.repo.CreateSession(ctx, session)
	if err != nil {
		s.log.Errorf("Use Case: Failed to create checkout session for %s: %v", draft.Email, err)
		return nil, err
	}
	s.log.Infof("Use Case: Checkout session %s created (%s, %d kobo, expires %s)",
		created.ID, method, created.AmountKobo, created.ExpiresAt.Format("15:04:05"))
	return created, nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (*domain.CheckoutSession, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrSessionNotFound
	}
	return s.repo.GetSessionByID(ctx, id)
}

// FindByReference returns the session a gateway reference was minted for, or ErrSessionNotFound.
func (s *SessionStore) FindByReference(ctx context.Context, reference string) (*domain.CheckoutSession, error) {
	return s.repo.GetSessionByReference(ctx, reference)
}

// Authorize allows the creating user or an admin. Anonymous sessions can only be advanced by admins.
func (s *SessionStore) Authorize(session *domain.CheckoutSession, caller *domain.Caller) error {
	if caller.IsAdmin() || session.IsOwnedBy(caller) {
		return nil
	}
	s.log.Warnf("Use Case: Caller %q denied access to checkout session %s", caller.ID(), session.ID)
	return domain.ErrForbidden
}

// EnsureActive rejects sessions past their expiry, whether or not they were purged yet.
func (s *SessionStore) EnsureActive(session *domain.CheckoutSession) error {
	if session.IsExpired(s.settings.now()) {
		s.log.Warnf("Use Case: Checkout session %s expired at %s", session.ID, session.ExpiresAt)
		return domain.ErrSessionExpired
	}
	return nil
}

func (s *SessionStore) MarkPaymentInitiated(ctx context.Context, id, reference string) (*domain.CheckoutSession, error) {
	return s.repo.MarkPaymentInitiated(ctx, id, reference)
}

// PurgeExpired deletes sessions past their expiry that never produced an order.
func (s *SessionStore) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpiredSessions(ctx, s.settings.now())
	if err != nil {
		s.log.Errorf("Use Case: Failed to purge expired checkout sessions: %v", err)
		return 0, err
	}
	s.log.Infof("Use Case: Purged %d expired checkout sessions", n)
	return n, nil
}
