package checkout

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSubmission() Request {
	return Request{
		Customer: Customer{
			Email: "Collector@Example.com",
			Name:  "Ash Ketchum",
		},
		Items: []LineItem{
			{InventoryID: 1, ProductID: 101, Name: "Charizard Holo", Quantity: 2, UnitPrice: decimal.NewFromFloat(249.90)},
		},
		Total: decimal.NewFromFloat(499.80),
	}
}

func TestNormalize_LowercasesEmailAndDefaultsCurrency(t *testing.T) {
	v := NewValidator("USD")

	got, err := v.Normalize(validSubmission())
	require.NoError(t, err)

	assert.Equal(t, "collector@example.com", got.Customer.Email)
	assert.Equal(t, "USD", got.Currency)
}

func TestNormalize_StripsMarkupFromFreeText(t *testing.T) {
	v := NewValidator("USD")

	req := validSubmission()
	req.Customer.Name = "<b>Ash</b> Ketchum"
	req.Customer.Address = "<script>alert(1)</script>1 Pallet Town"
	req.Notes = "please ship <i>fast</i>"
	req.Items[0].Name = "Charizard <img src=x> Holo"

	got, err := v.Normalize(req)
	require.NoError(t, err)

	assert.Equal(t, "Ash Ketchum", got.Customer.Name)
	assert.Equal(t, "alert(1)1 Pallet Town", got.Customer.Address)
	assert.Equal(t, "please ship fast", got.Notes)
	assert.Equal(t, "Charizard  Holo", got.Items[0].Name)
}

func TestNormalize_FieldErrors(t *testing.T) {
	v := NewValidator("USD")

	tests := []struct {
		name     string
		mutate   func(*Request)
		wantPath string
	}{
		{
			name:     "missing email",
			mutate:   func(r *Request) { r.Customer.Email = "" },
			wantPath: "customer.email",
		},
		{
			name:     "malformed email",
			mutate:   func(r *Request) { r.Customer.Email = "not-an-email" },
			wantPath: "customer.email",
		},
		{
			name:     "missing name",
			mutate:   func(r *Request) { r.Customer.Name = "  " },
			wantPath: "customer.name",
		},
		{
			name:     "empty items",
			mutate:   func(r *Request) { r.Items = nil },
			wantPath: "items",
		},
		{
			name:     "zero quantity",
			mutate:   func(r *Request) { r.Items[0].Quantity = 0 },
			wantPath: "items[0].quantity",
		},
		{
			name:     "quantity above cap",
			mutate:   func(r *Request) { r.Items[0].Quantity = MaxItemQuantity + 1 },
			wantPath: "items[0].quantity",
		},
		{
			name:     "non-positive unit price",
			mutate:   func(r *Request) { r.Items[0].UnitPrice = decimal.Zero },
			wantPath: "items[0].unit_price",
		},
		{
			name:     "missing inventory reference",
			mutate:   func(r *Request) { r.Items[0].InventoryID = 0 },
			wantPath: "items[0].inventory_id",
		},
		{
			name:     "non-positive total",
			mutate:   func(r *Request) { r.Total = decimal.NewFromInt(-1) },
			wantPath: "total",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validSubmission()
			tt.mutate(&req)

			_, err := v.Normalize(req)
			require.Error(t, err)

			var fieldErr *FieldError
			require.ErrorAs(t, err, &fieldErr)
			assert.Equal(t, tt.wantPath, fieldErr.Path)
		})
	}
}

func TestNormalize_ErrorMessageNamesFieldPath(t *testing.T) {
	v := NewValidator("USD")

	req := validSubmission()
	req.Customer.Email = "broken"

	_, err := v.Normalize(req)
	require.Error(t, err)
	assert.Equal(t, "customer.email: invalid format", err.Error())
}
