package checkout

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxItemQuantity caps a single order line.
const MaxItemQuantity = 10

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	markupTags   = regexp.MustCompile(`<[^>]*>`)
)

// FieldError reports the first offending field of a submission, e.g.
// "customer.email: invalid format".
type FieldError struct {
	Path   string
	Reason string
}

func (e *FieldError) Error() string {
	return e.Path + ": " + e.Reason
}

type Customer struct {
	Email   string
	Name    string
	Address string
	Phone   string
}

type LineItem struct {
	InventoryID int64
	ProductID   int64
	Name        string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// Request is an order submission. Before Validator.Normalize it carries raw
// caller input; afterwards free-text fields are markup-stripped, the email is
// lower-cased and the currency is filled in.
type Request struct {
	Customer Customer
	Items    []LineItem
	Total    decimal.Decimal
	Currency string
	Notes    string
}

// Validator normalizes and sanitizes order submissions before they reach the
// reservation flow. It holds no state and performs no I/O.
type Validator struct {
	defaultCurrency string
}

func NewValidator(defaultCurrency string) *Validator {
	return &Validator{defaultCurrency: defaultCurrency}
}

// Normalize returns a sanitized copy of the request or the first field error
// found. Field order follows the request shape: customer block, items, total.
func (v *Validator) Normalize(req Request) (Request, error) {
	req.Customer.Email = strings.ToLower(strings.TrimSpace(req.Customer.Email))
	if req.Customer.Email == "" {
		return req, &FieldError{Path: "customer.email", Reason: "required"}
	}
	if !emailPattern.MatchString(req.Customer.Email) {
		return req, &FieldError{Path: "customer.email", Reason: "invalid format"}
	}

	req.Customer.Name = stripMarkup(req.Customer.Name)
	if req.Customer.Name == "" {
		return req, &FieldError{Path: "customer.name", Reason: "required"}
	}
	req.Customer.Address = stripMarkup(req.Customer.Address)
	req.Customer.Phone = strings.TrimSpace(req.Customer.Phone)

	if len(req.Items) == 0 {
		return req, &FieldError{Path: "items", Reason: "at least one item is required"}
	}
	for i := range req.Items {
		it := &req.Items[i]
		path := fmt.Sprintf("items[%d]", i)
		if it.InventoryID <= 0 {
			return req, &FieldError{Path: path + ".inventory_id", Reason: "required"}
		}
		it.Name = stripMarkup(it.Name)
		if it.Name == "" {
			return req, &FieldError{Path: path + ".name", Reason: "required"}
		}
		if it.Quantity < 1 || it.Quantity > MaxItemQuantity {
			return req, &FieldError{
				Path:   path + ".quantity",
				Reason: fmt.Sprintf("must be between 1 and %d", MaxItemQuantity),
			}
		}
		if !it.UnitPrice.IsPositive() {
			return req, &FieldError{Path: path + ".unit_price", Reason: "must be greater than zero"}
		}
	}

	if !req.Total.IsPositive() {
		return req, &FieldError{Path: "total", Reason: "must be greater than zero"}
	}

	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	if req.Currency == "" {
		req.Currency = v.defaultCurrency
	}
	req.Notes = stripMarkup(req.Notes)

	return req, nil
}

func stripMarkup(s string) string {
	return strings.TrimSpace(markupTags.ReplaceAllString(s, ""))
}
