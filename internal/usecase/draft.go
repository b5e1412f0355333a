package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Ojay1963/Delxta/internal/clients"
	"github.com/Ojay1963/Delxta/internal/domain"
	"github.com/Ojay1963/Delxta/internal/pricing"
)

// maxLineQuantity caps a single cart line, not the order as a whole.
const maxLineQuantity = 1000

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\d{11}$`)
)

type DraftBuilder struct {
	catalog     clients.CatalogClient
	deliveryFee int64
	log         *logrus.Logger
}

func NewDraftBuilder(catalog clients.CatalogClient, deliveryFee int64, logger *logrus.Logger) *DraftBuilder {
	return &DraftBuilder{
		catalog:     catalog,
		deliveryFee: deliveryFee,
		log:         logger,
	}
}

type normalizedLine struct {
	menuItemID    string
	quantity      int64
	servingOption string
}

// BuildOrderDraft validates a raw cart payload and prices it against the catalog.
// It reports the first violation found and has no side effects.
func (b *DraftBuilder) BuildOrderDraft(ctx context.Context, input domain.OrderDraftInput, callerUserID string) (*domain.OrderDraft, error) {
	name := strings.TrimSpace(input.CustomerName)
	email := strings.TrimSpace(input.Email)
	phone := strings.TrimSpace(input.Phone)

	if name == "" || email == "" || phone == "" {
		return nil, domain.NewValidationError("Name, email, and phone are required.")
	}
	if !emailPattern.MatchString(email) {
		return nil, domain.NewValidationError("A valid email is required.")
	}
	if !phonePattern.MatchString(phone) {
		return nil, domain.NewValidationError("Phone number must be exactly 11 digits.")
	}
	if len(input.Items) == 0 {
		return nil, domain.NewValidationError("Add at least one menu item to place an order.")
	}

	lines := make([]normalizedLine, 0, len(input.Items))
	for _, item := range input.Items {
		id := strings.TrimSpace(item.MenuItemID)
		if id == "" {
			continue
		}
		quantity := NormalizeQuantity(item.Quantity)
		if quantity > maxLineQuantity {
			return nil, domain.NewValidationError(fmt.Sprintf(
				"Each order line is limited to %d units; %s asks for %d.", maxLineQuantity, id, quantity))
		}
		lines = append(lines, normalizedLine{
			menuItemID:    id,
			quantity:      quantity,
			servingOption: strings.TrimSpace(item.ServingOption),
		})
	}
	if len(lines) == 0 {
		return nil, domain.NewValidationError("Order items are invalid.")
	}

	deliveryType := domain.DeliveryType(strings.TrimSpace(input.DeliveryType))
	if deliveryType == "" {
		deliveryType = domain.DeliveryPickup
	}
	if deliveryType != domain.DeliveryPickup && deliveryType != domain.DeliveryHome {
		return nil, domain.NewValidationError("Invalid delivery type selected.")
	}
	address := strings.TrimSpace(input.DeliveryAddress)
	if deliveryType == domain.DeliveryHome && address == "" {
		return nil, domain.NewValidationError("Delivery address is required for home delivery.")
	}
	if deliveryType == domain.DeliveryPickup {
		address = ""
	}

	menu, err := b.lookupMenu(ctx, lines)
	if err != nil {
		return nil, err
	}

	draft := &domain.OrderDraft{
		CustomerName:    name,
		Email:           strings.ToLower(email),
		Phone:           phone,
		Items:           make([]domain.OrderLineItem, 0, len(lines)),
		DeliveryType:    deliveryType,
		DeliveryAddress: address,
		Notes:           strings.TrimSpace(input.Notes),
		UserID:          callerUserID,
		OrderStatus:     domain.InitialStatus(deliveryType),
	}

	for _, line := range lines {
		item := menu[line.menuItemID]
		quote := pricing.QuoteItem(item, line.servingOption)
		lineTotal := quote.UnitPrice * line.quantity
		draft.Items = append(draft.Items, domain.OrderLineItem{
			MenuItemID:    item.ID,
			Name:          item.Name,
			ServingOption: quote.Option.Value,
			ServingLabel:  quote.Option.Label,
			UnitPrice:     quote.UnitPrice,
			Quantity:      line.quantity,
			LineTotal:     lineTotal,
		})
		draft.SubTotal += lineTotal
	}
	if deliveryType == domain.DeliveryHome {
		draft.DeliveryFee = b.deliveryFee
	}
	draft.Total = draft.SubTotal + draft.DeliveryFee

	b.log.Infof("Use Case: Built order draft for %s: %d lines, subTotal=%d, deliveryFee=%d, total=%d",
		draft.Email, len(draft.Items), draft.SubTotal, draft.DeliveryFee, draft.Total)
	return draft, nil
}

// lookupMenu resolves every distinct id; a single unknown id fails the whole draft.
func (b *DraftBuilder) lookupMenu(ctx context.Context, lines []normalizedLine) (map[string]domain.MenuItem, error) {
	ids := make([]string, 0, len(lines))
	seen := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.menuItemID]; ok {
			continue
		}
		seen[line.menuItemID] = struct{}{}
		ids = append(ids, line.menuItemID)
	}

	items, err := b.catalog.FindMenuItems(ctx, ids)
	if err != nil {
		b.log.Errorf("Use Case: Catalog lookup failed for %d ids: %v", len(ids), err)
		return nil, err
	}

	menu := make(map[string]domain.MenuItem, len(items))
	for _, item := range items {
		menu[item.ID] = item
	}
	for _, id := range ids {
		if _, ok := menu[id]; !ok {
			b.log.Warnf("Use Case: Menu item %s not found in catalog", id)
			return nil, domain.ErrItemNotFound
		}
	}
	return menu, nil
}

// NormalizeQuantity floors numeric input and clamps it to at least 1. Anything non-numeric is 1.
func NormalizeQuantity(raw any) int64 {
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 1
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 1
		}
		f = parsed
	default:
		return 1
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 1
	}
	f = math.Floor(f)
	if f < 1 {
		return 1
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int64(f)
}
