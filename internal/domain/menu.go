package domain

import "context"

type MenuItem struct {
	ID       string `json:"id"       db:"id"`
	Name     string `json:"name"     db:"name"`
	Price    string `json:"price"    db:"price"`
	Category string `json:"category" db:"category"`
}

type ServingOption struct {
	Value      string  `json:"value"`
	Label      string  `json:"label"`
	Multiplier float64 `json:"multiplier"`
}

type MenuRepository interface {
	FindMenuItemsByIDs(ctx context.Context, ids []string) ([]MenuItem, error)
}

// OrderDraftItemInput is one raw cart line. Quantity is left untyped because clients send
// numbers, numeric strings or garbage, all of which normalize to a positive count.
type OrderDraftItemInput struct {
	MenuItemID    string `json:"menuItemId"`
	Quantity      any    `json:"quantity"`
	ServingOption string `json:"servingOption"`
}

type OrderDraftInput struct {
	CustomerName    string                `json:"customerName"`
	Email           string                `json:"email"`
	Phone           string                `json:"phone"`
	Items           []OrderDraftItemInput `json:"items"`
	DeliveryType    string                `json:"deliveryType"`
	DeliveryAddress string                `json:"deliveryAddress"`
	Notes           string                `json:"notes"`
}
