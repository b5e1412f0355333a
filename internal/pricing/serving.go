// Package pricing resolves serving options and unit prices for menu items.
// Resolution is a pure function of the item's name, category and base price.
package pricing

import (
	"math"
	"regexp"
	"strconv"

	"github.com/Ojay1963/Delxta/internal/domain"
)

const DrinksCategory = "Signature Drinks"

type rule struct {
	pattern *regexp.Regexp
	options []domain.ServingOption
}

// Rules are evaluated top to bottom; the first matching pattern wins. The order is part of
// the price contract with existing catalog data and must not be rearranged.
var nameRules = []rule{
	{
		pattern: regexp.MustCompile(`(?i)(pizza|flatbread)`),
		options: []domain.ServingOption{
			{Value: "pizza_8in", Label: "8-inch", Multiplier: 1},
			{Value: "pizza_12in", Label: "12-inch", Multiplier: 1.8},
			{Value: "pizza_16in", Label: "16-inch", Multiplier: 2.8},
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)(soup|egusi|ogbono|afang|edikang|fisherman|pepper soup|efo riro|oha|gbegiri|ewedu)`),
		options: []domain.ServingOption{
			{Value: "bowl_500ml", Label: "Bowl (500 ml)", Multiplier: 1},
			{Value: "pot_1l", Label: "Pot (1 L)", Multiplier: 1.9},
			{Value: "pot_2l", Label: "Pot (2 L)", Multiplier: 3.6},
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)(wings|rings|sticks|bites|fries|chips|skewers|sliders|tempura|nachos|samosa|spring rolls|arancini|mozzarella)`),
		options: []domain.ServingOption{
			{Value: "portion_6pcs", Label: "6 pcs", Multiplier: 1},
			{Value: "portion_12pcs", Label: "12 pcs", Multiplier: 1.85},
			{Value: "portion_24pcs", Label: "24 pcs", Multiplier: 3.4},
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)(burger|club|sandwich|roll|quesadilla|tacos)`),
		options: []domain.ServingOption{
			{Value: "single", Label: "Single", Multiplier: 1},
			{Value: "meal_combo", Label: "Meal Combo", Multiplier: 1.35},
			{Value: "double", Label: "Double", Multiplier: 1.8},
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)(steak|salmon|tilapia|lamb|ribs|chop|fish and chips|parmesan|stroganoff|cordon bleu)`),
		options: []domain.ServingOption{
			{Value: "portion_250g", Label: "250 g", Multiplier: 1},
			{Value: "portion_400g", Label: "400 g", Multiplier: 1.55},
			{Value: "platter_700g", Label: "Platter (700 g)", Multiplier: 2.4},
		},
	},
}

var drinkRules = []rule{
	{
		pattern: regexp.MustCompile(`(?i)(wine|sangria|rose)`),
		options: []domain.ServingOption{
			{Value: "glass_200ml", Label: "Glass (200 ml)", Multiplier: 1},
			{Value: "carafe_500ml", Label: "Carafe (500 ml)", Multiplier: 2.3},
			{Value: "bottle_750ml", Label: "Bottle (750 ml)", Multiplier: 3.4},
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)(latte|cappuccino|hot chocolate|cold brew|espresso|coffee)`),
		options: []domain.ServingOption{
			{Value: "cup_250ml", Label: "Cup (250 ml)", Multiplier: 1},
			{Value: "large_cup_350ml", Label: "Large Cup (350 ml)", Multiplier: 1.3},
			{Value: "flask_1l", Label: "Flask (1 L)", Multiplier: 3.6},
		},
	},
}

var beverageFallback = []domain.ServingOption{
	{Value: "glass_330ml", Label: "Glass (330 ml)", Multiplier: 1},
	{Value: "bottle_500ml", Label: "Bottle (500 ml)", Multiplier: 1.4},
	{Value: "pitcher_1l", Label: "Pitcher (1 L)", Multiplier: 2.8},
}

var defaultFallback = []domain.ServingOption{
	{Value: "plate_450g", Label: "Plate (450 g)", Multiplier: 1},
	{Value: "pack_750g", Label: "Pack (750 g)", Multiplier: 1.6},
	{Value: "tray_2kg", Label: "Tray (2 kg)", Multiplier: 3.8},
}

func optionsFor(item domain.MenuItem) []domain.ServingOption {
	for _, r := range nameRules {
		if r.pattern.MatchString(item.Name) {
			return r.options
		}
	}
	if item.Category == DrinksCategory {
		for _, r := range drinkRules {
			if r.pattern.MatchString(item.Name) {
				return r.options
			}
		}
		return beverageFallback
	}
	return defaultFallback
}

// OptionsFor returns the serving ladder for an item, smallest first.
func OptionsFor(item domain.MenuItem) []domain.ServingOption {
	options := optionsFor(item)
	out := make([]domain.ServingOption, len(options))
	copy(out, options)
	return out
}

// Resolve returns the option whose value equals servingKey, or the default (first) option
// when the key is empty or unknown for this item.
func Resolve(item domain.MenuItem, servingKey string) domain.ServingOption {
	options := optionsFor(item)
	for _, option := range options {
		if option.Value == servingKey {
			return option
		}
	}
	return options[0]
}

var nonPriceChars = regexp.MustCompile(`[^0-9.]`)

// ParseBasePrice reads a display price such as "NGN 8,500" by dropping everything except
// digits and periods. Unparseable input is priced at zero.
func ParseBasePrice(display string) float64 {
	normalized := nonPriceChars.ReplaceAllString(display, "")
	value, err := strconv.ParseFloat(normalized, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return value
}

// UnitPrice rounds half away from zero to whole currency units.
func UnitPrice(item domain.MenuItem, option domain.ServingOption) int64 {
	return int64(math.Round(ParseBasePrice(item.Price) * option.Multiplier))
}

type Quote struct {
	Option    domain.ServingOption
	UnitPrice int64
}

func QuoteItem(item domain.MenuItem, servingKey string) Quote {
	option := Resolve(item, servingKey)
	return Quote{Option: option, UnitPrice: UnitPrice(item, option)}
}
