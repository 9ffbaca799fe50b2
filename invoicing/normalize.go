package invoicing

import (
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// LineItemInput is one line of an invoice creation request as sent by clients.
type LineItemInput struct {
	ProductID   *string `json:"product_id"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TaxRate     float64 `json:"tax_rate"`
}

// LineItem is a validated line. ProductID is nil for custom lines.
type LineItem struct {
	ProductID   *string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TaxRate     decimal.Decimal
}

// HasProduct reports whether the line references a catalog product.
func (li LineItem) HasProduct() bool { return li.ProductID != nil }

// lineRules carries the per-line constraints. Non-finite numbers are turned
// into NaN before validation, which fails every numeric comparison.
type lineRules struct {
	Description string  `json:"description" validate:"required"`
	Quantity    float64 `json:"quantity" validate:"gt=0"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
	TaxRate     float64 `json:"tax_rate" validate:"gte=0"`
}

var ruleMessages = map[string]string{
	"description": "description is required",
	"quantity":    "quantity must be > 0",
	"unit_price":  "unit_price must be >= 0",
	"tax_rate":    "tax_rate must be >= 0",
}

// whole-unit quantities above this cannot be represented exactly as float64
const maxWholeUnits = 1 << 53

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// NormalizeLineItems validates raw lines and converts them to canonical form,
// preserving order. The first offending line is reported.
func NormalizeLineItems(raw []LineItemInput) ([]LineItem, error) {
	if len(raw) == 0 {
		return nil, &ValidationError{Field: "line_items", Message: "line_items must be a non-empty array"}
	}
	out := make([]LineItem, 0, len(raw))
	for i, in := range raw {
		line := i + 1
		rules := lineRules{
			Description: strings.TrimSpace(in.Description),
			Quantity:    finiteOrNaN(in.Quantity),
			UnitPrice:   finiteOrNaN(in.UnitPrice),
			TaxRate:     finiteOrNaN(in.TaxRate),
		}
		if err := validate.Struct(rules); err != nil {
			return nil, lineError(line, err)
		}

		productID := normalizeProductID(in.ProductID)
		if productID != nil {
			if rules.Quantity > maxWholeUnits {
				return nil, &ValidationError{Line: line, Field: "quantity", Message: "quantity is too large"}
			}
			if rules.Quantity != math.Trunc(rules.Quantity) {
				return nil, &ValidationError{Line: line, Field: "quantity", Message: "quantity must be an integer for inventory products"}
			}
		}

		out = append(out, LineItem{
			ProductID:   productID,
			Description: rules.Description,
			Quantity:    decimal.NewFromFloat(rules.Quantity),
			UnitPrice:   decimal.NewFromFloat(rules.UnitPrice),
			TaxRate:     decimal.NewFromFloat(rules.TaxRate),
		})
	}
	return out, nil
}

func lineError(line int, err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return &ValidationError{Line: line, Message: err.Error()}
	}
	field := verrs[0].Field()
	msg, ok := ruleMessages[field]
	if !ok {
		msg = field + " is invalid"
	}
	return &ValidationError{Line: line, Field: field, Message: msg}
}

// normalizeProductID drops blank ids and the "undefined" string some clients
// serialize for a missing value.
func normalizeProductID(id *string) *string {
	if id == nil {
		return nil
	}
	v := strings.TrimSpace(*id)
	if v == "" || v == "undefined" {
		return nil
	}
	return &v
}

func finiteOrNaN(f float64) float64 {
	if math.IsInf(f, 0) {
		return math.NaN()
	}
	return f
}
