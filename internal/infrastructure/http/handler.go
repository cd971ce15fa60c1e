package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/mintcondition/cardshop/internal/application/checkout"
	appinv "github.com/mintcondition/cardshop/internal/application/inventory"
	"github.com/mintcondition/cardshop/internal/application/lifecycle"
	dominv "github.com/mintcondition/cardshop/internal/domain/inventory"
	domorder "github.com/mintcondition/cardshop/internal/domain/order"
)

type Handler struct {
	validator  *checkout.Validator
	checkout   *checkout.Service
	lifecycle  *lifecycle.Service
	inventory  *appinv.Service
	adminToken string
}

func NewHandler(
	validator *checkout.Validator,
	checkoutSvc *checkout.Service,
	lifecycleSvc *lifecycle.Service,
	inventorySvc *appinv.Service,
	adminToken string,
) *Handler {
	return &Handler{
		validator:  validator,
		checkout:   checkoutSvc,
		lifecycle:  lifecycleSvc,
		inventory:  inventorySvc,
		adminToken: adminToken,
	}
}

func (h *Handler) Router(middlewares ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewares...)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/orders", h.handleCreateOrder)
		r.Get("/orders/{orderID}", h.handleGetOrder)

		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin(h.adminToken))
			r.Get("/orders", h.handleListOrders)
			r.Patch("/orders/{orderID}/status", h.handleUpdateStatus)
			r.Put("/admin/inventory/{inventoryID}", h.handlePutInventory)
			r.Get("/admin/inventory/{inventoryID}", h.handleGetInventory)
		})
	})

	return r
}

type customerPayload struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

type lineItemPayload struct {
	InventoryID int64           `json:"inventory_id"`
	ProductID   int64           `json:"product_id"`
	Name        string          `json:"name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type createOrderRequest struct {
	Customer customerPayload   `json:"customer"`
	Items    []lineItemPayload `json:"items"`
	Total    decimal.Decimal   `json:"total"`
	Currency string            `json:"currency,omitempty"`
	Notes    string            `json:"notes,omitempty"`
}

type orderItemResponse struct {
	ID          int64           `json:"id"`
	InventoryID int64           `json:"inventory_id"`
	ProductID   int64           `json:"product_id"`
	Name        string          `json:"name"`
	Condition   string          `json:"condition,omitempty"`
	Language    string          `json:"language,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

type orderResponse struct {
	ID            int64               `json:"id"`
	CustomerEmail string              `json:"customer_email"`
	CustomerName  string              `json:"customer_name"`
	Total         decimal.Decimal     `json:"total"`
	Currency      string              `json:"currency"`
	Notes         string              `json:"notes,omitempty"`
	Status        domorder.Status     `json:"status"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	Items         []orderItemResponse `json:"items"`
}

func toOrderResponse(o *domorder.Order) orderResponse {
	resp := orderResponse{
		ID:            o.ID,
		CustomerEmail: o.CustomerEmail,
		CustomerName:  o.CustomerName,
		Total:         o.Total,
		Currency:      o.Currency,
		Notes:         o.Notes,
		Status:        o.Status,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
		Items:         make([]orderItemResponse, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ID:          it.ID,
			InventoryID: it.InventoryID,
			ProductID:   it.ProductID,
			Name:        it.Name,
			Condition:   it.Condition,
			Language:    it.Language,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			LineTotal:   it.LineTotal,
		})
	}
	return resp
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	submission := checkout.Request{
		Customer: checkout.Customer{
			Email:   req.Customer.Email,
			Name:    req.Customer.Name,
			Address: req.Customer.Address,
			Phone:   req.Customer.Phone,
		},
		Total:    req.Total,
		Currency: req.Currency,
		Notes:    req.Notes,
	}
	for _, it := range req.Items {
		submission.Items = append(submission.Items, checkout.LineItem{
			InventoryID: it.InventoryID,
			ProductID:   it.ProductID,
			Name:        it.Name,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		})
	}

	normalized, err := h.validator.Normalize(submission)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	placed, err := h.checkout.PlaceOrder(r.Context(), normalized)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(placed))
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "orderID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	o, err := h.lifecycle.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	orders, err := h.lifecycle.List(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := make([]orderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, toOrderResponse(&orders[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": resp})
}

type updateStatusRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes,omitempty"`
}

type updateStatusResponse struct {
	Order             orderResponse `json:"order"`
	InventoryRestored bool          `json:"inventory_restored"`
	Message           string        `json:"message"`
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "orderID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	status, err := domorder.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := h.lifecycle.UpdateStatus(r.Context(), id, status, req.Notes)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updateStatusResponse{
		Order:             toOrderResponse(res.Order),
		InventoryRestored: res.Restored,
		Message:           res.Message,
	})
}

type putInventoryRequest struct {
	ProductID     int64           `json:"product_id"`
	Name          string          `json:"name"`
	Condition     string          `json:"condition,omitempty"`
	Language      string          `json:"language,omitempty"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
}

type inventoryResponse struct {
	ID            int64           `json:"id"`
	ProductID     int64           `json:"product_id"`
	Name          string          `json:"name"`
	Condition     string          `json:"condition,omitempty"`
	Language      string          `json:"language,omitempty"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func toInventoryResponse(rec *dominv.Record) inventoryResponse {
	return inventoryResponse{
		ID:            rec.ID,
		ProductID:     rec.ProductID,
		Name:          rec.Name,
		Condition:     rec.Condition,
		Language:      rec.Language,
		Price:         rec.Price,
		StockQuantity: rec.StockQuantity,
		UpdatedAt:     rec.UpdatedAt,
	}
}

func (h *Handler) handlePutInventory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "inventoryID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var req putInventoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.StockQuantity < 0 {
		writeError(w, http.StatusBadRequest, errors.New("stock_quantity must be zero or greater"))
		return
	}

	rec, err := h.inventory.Set(r.Context(), &dominv.Record{
		ID:            id,
		ProductID:     req.ProductID,
		Name:          req.Name,
		Condition:     req.Condition,
		Language:      req.Language,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInventoryResponse(rec))
}

func (h *Handler) handleGetInventory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "inventoryID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rec, err := h.inventory.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInventoryResponse(rec))
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeDomainError(w http.ResponseWriter, err error) {
	var fieldErr *checkout.FieldError
	var itemErr *checkout.ItemError
	switch {
	case errors.As(err, &fieldErr):
		writeError(w, http.StatusBadRequest, err)
	case errors.As(err, &itemErr) && errors.Is(err, dominv.ErrInsufficientStock):
		writeError(w, http.StatusConflict, err)
	case errors.As(err, &itemErr) && errors.Is(err, dominv.ErrNotFound):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, domorder.ErrNotFound), errors.Is(err, dominv.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domorder.ErrInvalidStatus),
		errors.Is(err, domorder.ErrInvalidQuantity),
		errors.Is(err, dominv.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}
