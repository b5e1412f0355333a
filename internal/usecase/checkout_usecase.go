package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Ojay1963/Delxta/internal/clients"
	"github.com/Ojay1963/Delxta/internal/domain"
)

const (
	webhookChargeSuccess = "charge.success"
	metadataSessionID    = "checkoutSessionId"
)

type CheckoutUseCase interface {
	CreateCheckoutSession(ctx context.Context, input domain.OrderDraftInput, method domain.PaymentMethod, caller *domain.Caller) (*domain.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, id string, caller *domain.Caller) (*domain.CheckoutSession, error)
	CompleteSimulatedCard(ctx context.Context, sessionID string, card CardDetails, caller *domain.Caller) (*domain.Order, error)
	InitializeGatewayPayment(ctx context.Context, sessionID, callbackURL string, caller *domain.Caller) (*clients.Initialization, error)
	CompleteGatewayPayment(ctx context.Context, reference string, caller *domain.Caller) (*domain.Order, error)
	VerifyGatewayPayment(ctx context.Context, reference string) (*clients.Verification, error)
	// HandleGatewayWebhook returns a nil order for events that need no reconciliation.
	HandleGatewayWebhook(ctx context.Context, body []byte, signature string) (*domain.Order, error)
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

var _ CheckoutUseCase = (*checkoutUseCase)(nil)

type checkoutUseCase struct {
	drafts       *DraftBuilder
	sessions     *SessionStore
	materializer *Materializer
	orders       domain.OrderRepository
	gateway      clients.PaymentGateway
	settings     Settings
	log          *logrus.Logger
}

func NewCheckoutUseCase(
	drafts *DraftBuilder,
	sessions *SessionStore,
	materializer *Materializer,
	orders domain.OrderRepository,
	gateway clients.PaymentGateway,
	settings Settings,
	logger *logrus.Logger,
) CheckoutUseCase {
	return &checkoutUseCase{
		drafts:       drafts,
		sessions:     sessions,
		materializer: materializer,
		orders:       orders,
		gateway:      gateway,
		settings:     settings.withDefaults(),
		log:          logger,
	}
}

func (uc *checkoutUseCase) CreateCheckoutSession(ctx context.Context, input domain.OrderDraftInput, method domain.PaymentMethod, caller *domain.Caller) (*domain.CheckoutSession, error) {
	if method != domain.PaymentPaystack && method != domain.PaymentCard {
		return nil, domain.NewValidationError("Invalid payment method selected.")
	}

	draft, err := uc.drafts.BuildOrderDraft(ctx, input, caller.ID())
	if err != nil {
		uc.log.Warnf("Use Case: Checkout draft rejected: %v", err)
		return nil, err
	}
	return uc.sessions.Create(ctx, draft, method, caller.ID())
}

func (uc *checkoutUseCase) GetCheckoutSession(ctx context.Context, id string, caller *domain.Caller) (*domain.CheckoutSession, error) {
	session, err := uc.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := uc.sessions.Authorize(session, caller); err != nil {
		return nil, err
	}
	return session, nil
}

// loadActiveSession runs the checks every session-advancing call shares. Completed sessions pass
// the expiry check so that replays still return their order.
func (uc *checkoutUseCase) loadActiveSession(ctx context.Context, id string, method domain.PaymentMethod, caller *domain.Caller) (*domain.CheckoutSession, error) {
	session, err := uc.GetCheckoutSession(ctx, id, caller)
	if err != nil {
		return nil, err
	}
	if session.PaymentMethod != method {
		return nil, domain.NewValidationError(wrongMethodMessage(method))
	}
	if session.OrderID != "" {
		return session, nil
	}
	if err := uc.sessions.EnsureActive(session); err != nil {
		return nil, err
	}
	return session, nil
}

func wrongMethodMessage(method domain.PaymentMethod) string {
	if method == domain.PaymentCard {
		return "This session is not for card checkout."
	}
	return "This checkout session is not for Paystack."
}

func (uc *checkoutUseCase) CompleteSimulatedCard(ctx context.Context, sessionID string, card CardDetails, caller *domain.Caller) (*domain.Order, error) {
	details, err := ValidateCardDetails(card, uc.settings.now())
	if err != nil {
		uc.log.Warnf("Use Case: Card details rejected for session %s", sessionID)
		return nil, err
	}

	session, err := uc.loadActiveSession(ctx, sessionID, domain.PaymentCard, caller)
	if err != nil {
		return nil, err
	}

	return uc.materializer.Materialize(ctx, session, domain.PaymentOutcome{
		Method:  domain.PaymentCard,
		Status:  domain.PaymentPaid,
		Details: details,
	})
}

func (uc *checkoutUseCase) InitializeGatewayPayment(ctx context.Context, sessionID, callbackURL string, caller *domain.Caller) (*clients.Initialization, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, domain.NewValidationError("checkoutSessionId is required.")
	}

	session, err := uc.loadActiveSession(ctx, sessionID, domain.PaymentPaystack, caller)
	if err != nil {
		return nil, err
	}
	if session.OrderID != "" || session.Status == domain.CheckoutCompleted {
		return nil, domain.NewConflictError("Checkout session already completed.")
	}

	reference := NewPaymentReference(uc.settings.ReferencePrefix, uc.settings.now(), session.ID)
	if callbackURL == "" {
		callbackURL = uc.settings.CallbackURL
	}

	initialization, err := uc.gateway.Initialize(ctx, clients.InitializeRequest{
		Email:            session.Email,
		AmountMinorUnits: session.AmountKobo,
		Reference:        reference,
		CallbackURL:      callbackURL,
		Metadata:         map[string]any{metadataSessionID: session.ID},
	})
	if err != nil {
		uc.log.Errorf("Use Case: Gateway initialize failed for session %s: %v", session.ID, err)
		return nil, err
	}
	if initialization.Reference == "" {
		initialization.Reference = reference
	}

	if _, err := uc.sessions.MarkPaymentInitiated(ctx, session.ID, reference); err != nil {
		uc.log.Errorf("Use Case: Failed to record reference %s on session %s: %v", reference, session.ID, err)
		return nil, err
	}

	uc.log.Infof("Use Case: Gateway payment %s initialized for session %s (%d kobo)", reference, session.ID, session.AmountKobo)
	return initialization, nil
}

func (uc *checkoutUseCase) CompleteGatewayPayment(ctx context.Context, reference string, caller *domain.Caller) (*domain.Order, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, domain.NewValidationError("Payment reference is required.")
	}

	existing, err := uc.orders.FindOrderByPaymentReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if !caller.IsAdmin() && !existing.IsOwnedBy(caller) {
			return nil, domain.ErrForbidden
		}
		uc.log.Infof("Use Case: Payment %s already completed as order %s", reference, existing.ID)
		return existing, nil
	}

	var verification *clients.Verification
	session, err := uc.sessions.FindByReference(ctx, reference)
	if errors.Is(err, domain.ErrSessionNotFound) {
		// Re-initializing a session replaces its stored reference, so an earlier reference
		// that was actually paid is traced back through the metadata sent on initialize.
		session, verification, err = uc.sessionFromGateway(ctx, reference)
	}
	if err != nil {
		return nil, err
	}
	if err := uc.sessions.Authorize(session, caller); err != nil {
		return nil, err
	}
	if session.PaymentMethod != domain.PaymentPaystack {
		uc.log.Warnf("Use Case: Payment %s points at non-gateway session %s", reference, session.ID)
		return nil, domain.ErrPaymentMismatch
	}
	if session.OrderID != "" {
		if verification != nil {
			uc.log.Warnf("Use Case: Payment %s arrived for session %s already completed as order %s",
				reference, session.ID, session.OrderID)
		}
		return uc.orders.GetOrderByID(ctx, session.OrderID)
	}
	if err := uc.sessions.EnsureActive(session); err != nil {
		return nil, err
	}

	if verification == nil {
		verification, err = uc.gateway.Verify(ctx, reference)
		if err != nil {
			return nil, err
		}
	}
	if verification.Status != "success" {
		uc.log.Warnf("Use Case: Payment %s not successful (status=%s)", reference, verification.Status)
		return nil, domain.NewPaymentNotSuccessfulError(verification.Status)
	}
	if verification.AmountMinorUnits != session.AmountKobo {
		uc.log.Warnf("Use Case: Payment %s amount %d does not match session %s amount %d",
			reference, verification.AmountMinorUnits, session.ID, session.AmountKobo)
		return nil, domain.NewAmountMismatchError(session.AmountKobo, verification.AmountMinorUnits)
	}
	if verification.Reference != "" && verification.Reference != reference {
		uc.log.Warnf("Use Case: Gateway returned reference %s for %s", verification.Reference, reference)
		return nil, domain.ErrPaymentMismatch
	}
	if id := verification.MetadataString(metadataSessionID); id != "" && id != session.ID {
		uc.log.Warnf("Use Case: Payment %s belongs to session %s, not %s", reference, id, session.ID)
		return nil, domain.ErrPaymentMismatch
	}

	return uc.materializer.Materialize(ctx, session, domain.PaymentOutcome{
		Method: domain.PaymentPaystack,
		Status: domain.PaymentPaid,
		Details: domain.PaymentDetails{
			PaystackReference:     reference,
			PaystackTransactionID: verification.TransactionID,
			PaystackChannel:       verification.Channel,
		},
	})
}

// sessionFromGateway resolves a reference no session stores any more by verifying it and
// following the checkout session id carried in the transaction metadata.
func (uc *checkoutUseCase) sessionFromGateway(ctx context.Context, reference string) (*domain.CheckoutSession, *clients.Verification, error) {
	verification, err := uc.gateway.Verify(ctx, reference)
	if err != nil {
		if domain.CodeOf(err) == domain.CodeGatewayRejected {
			uc.log.Warnf("Use Case: Payment reference %s is unknown here and at the gateway", reference)
			return nil, nil, domain.ErrSessionNotFound
		}
		return nil, nil, err
	}
	sessionID := verification.MetadataString(metadataSessionID)
	if sessionID == "" {
		uc.log.Warnf("Use Case: No checkout session for payment reference %s", reference)
		return nil, nil, domain.ErrSessionNotFound
	}
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	uc.log.Infof("Use Case: Payment reference %s traced to checkout session %s via metadata", reference, session.ID)
	return session, verification, nil
}

func (uc *checkoutUseCase) VerifyGatewayPayment(ctx context.Context, reference string) (*clients.Verification, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, domain.NewValidationError("Payment reference is required.")
	}
	return uc.gateway.Verify(ctx, reference)
}

type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
	} `json:"data"`
}

func (uc *checkoutUseCase) HandleGatewayWebhook(ctx context.Context, body []byte, signature string) (*domain.Order, error) {
	if !uc.gateway.VerifyWebhookSignature(body, signature) {
		uc.log.Warn("Use Case: Rejected gateway webhook with invalid signature")
		return nil, domain.NewForbiddenError("Invalid webhook signature.")
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, domain.NewValidationError("Webhook payload is not valid JSON.")
	}
	if event.Event != webhookChargeSuccess {
		uc.log.Infof("Use Case: Ignoring gateway webhook event %q", event.Event)
		return nil, nil
	}

	uc.log.Infof("Use Case: Reconciling gateway webhook for reference %s", event.Data.Reference)
	return uc.CompleteGatewayPayment(ctx, event.Data.Reference, domain.SystemCaller)
}

func (uc *checkoutUseCase) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return uc.sessions.PurgeExpired(ctx)
}
