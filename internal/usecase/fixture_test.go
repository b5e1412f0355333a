package usecase

import (
	"testing"
	"time"

	"github.com/Ojay1963/Delxta/internal/domain"
)

var (
	jollof = domain.MenuItem{ID: "m-jollof", Name: "Jollof Rice", Price: "NGN 8,500", Category: "Main Dishes"}
	pizza  = domain.MenuItem{ID: "m-pizza", Name: "Pepperoni Pizza", Price: "NGN 10,000", Category: "Pizza"}

	customer = &domain.Caller{UserID: "u-ada", Email: "ada@example.com", Role: domain.RoleCustomer}
	stranger = &domain.Caller{UserID: "u-bob", Email: "bob@example.com", Role: domain.RoleCustomer}
	admin    = &domain.Caller{UserID: "u-admin", Email: "admin@delxta.test", Role: domain.RoleAdmin}
)

type fixture struct {
	store        *mockStore
	catalog      *mockCatalog
	gateway      *mockGateway
	notifier     *mockNotifier
	now          time.Time
	drafts       *DraftBuilder
	sessions     *SessionStore
	materializer *Materializer
	checkout     CheckoutUseCase
	orders       OrderUseCase
}

func setup(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    newMockStore(),
		catalog:  newMockCatalog(jollof, pizza),
		gateway:  &mockGateway{signature: "valid-signature"},
		notifier: &mockNotifier{},
		now:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	settings := Settings{
		DeliveryFee:     1500,
		SessionTTL:      2 * time.Hour,
		ReferencePrefix: "delxta",
		CallbackURL:     "https://delxta.test/payment/callback",
		Now:             func() time.Time { return f.now },
	}
	logger := testLogger()

	f.drafts = NewDraftBuilder(f.catalog, settings.DeliveryFee, logger)
	f.sessions = NewSessionStore(f.store, settings, logger)
	f.materializer = NewMaterializer(f.store, f.notifier, logger)
	f.checkout = NewCheckoutUseCase(f.drafts, f.sessions, f.materializer, f.store, f.gateway, settings, logger)
	f.orders = NewOrderUseCase(f.drafts, f.store, f.notifier, logger)
	return f
}

func draftInput(deliveryType string, items ...domain.OrderDraftItemInput) domain.OrderDraftInput {
	input := domain.OrderDraftInput{
		CustomerName: "  Ada Obi ",
		Email:        " Ada@Example.com ",
		Phone:        "08012345678",
		Items:        items,
		DeliveryType: deliveryType,
		Notes:        " extra pepper ",
	}
	if deliveryType == string(domain.DeliveryHome) {
		input.DeliveryAddress = " 12 Allen Avenue, Ikeja "
	}
	return input
}

func line(id string, quantity any) domain.OrderDraftItemInput {
	return domain.OrderDraftItemInput{MenuItemID: id, Quantity: quantity}
}
