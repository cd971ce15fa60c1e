package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = errors.New("order: not found")
	ErrInvalidStatus   = errors.New("order: invalid status")
	ErrInvalidQuantity = errors.New("order: quantity must be greater than zero")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ParseStatus maps caller-supplied text onto the closed status set.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return Status(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

type Order struct {
	ID              int64
	CustomerEmail   string
	CustomerName    string
	CustomerAddress string
	CustomerPhone   string
	Total           decimal.Decimal
	Currency        string
	Notes           string
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Items           []Item
}

// Item is an order line. Name, Condition, Language and UnitPrice are
// snapshots captured when the order is placed; later catalog or inventory
// edits never flow back into them.
type Item struct {
	ID          int64
	OrderID     int64
	InventoryID int64
	ProductID   int64
	Name        string
	Condition   string
	Language    string
	Quantity    int
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

func (i *Item) ComputeLineTotal() {
	i.LineTotal = i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
