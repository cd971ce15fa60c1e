package inventory

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("inventory: record not found")
	ErrInvalidQuantity   = errors.New("inventory: quantity must be greater than zero")
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
)

// Record is the stock counter for one purchasable variation of a card:
// product + condition + language. StockQuantity never goes negative; the
// ledger enforces that by making every decrement conditional on remaining
// stock rather than validating after the fact.
type Record struct {
	ID            int64
	ProductID     int64
	Name          string
	Condition     string
	Language      string
	Price         decimal.Decimal
	StockQuantity int
	UpdatedAt     time.Time
}
