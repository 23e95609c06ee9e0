package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/lp2808/retail-pos/internal/core/domain"
	"github.com/lp2808/retail-pos/internal/core/service"
	"github.com/lp2808/retail-pos/internal/port"
)

// Machine-readable error codes carried in error responses.
const (
	codeBadRequest = "request.format"
	codeNotFound   = "resource.not_found"
	codeConflict   = "resource.duplicated"
	codeInternal   = "unspecified"
)

type HTTPHandler struct {
	sales     *service.SaleService
	catalog   *service.CatalogService
	inventory *service.InventoryService
	auth      *service.AuthService
	guard     *Middleware
}

func NewHTTPHandler(sales *service.SaleService, catalog *service.CatalogService, inventory *service.InventoryService, authSvc *service.AuthService, guard *Middleware) *HTTPHandler {
	return &HTTPHandler{
		sales:     sales,
		catalog:   catalog,
		inventory: inventory,
		auth:      authSvc,
		guard:     guard,
	}
}

// Router wires all routes. Sale creation requires the seller role; catalog,
// location and stock writes require manager.
func (h *HTTPHandler) Router() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.HealthCheck)

	mux.HandleFunc("POST /api/auth/register", h.Register)
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.HandleFunc("POST /api/auth/refresh", h.Refresh)

	seller := func(fn http.HandlerFunc) http.HandlerFunc {
		return h.guard.Authenticate(h.guard.RequireRole(domain.RoleSeller, fn))
	}
	manager := func(fn http.HandlerFunc) http.HandlerFunc {
		return h.guard.Authenticate(h.guard.RequireRole(domain.RoleManager, fn))
	}

	mux.HandleFunc("POST /api/sales", seller(h.CreateSale))
	mux.HandleFunc("GET /api/sales/{id}", seller(h.GetSale))

	mux.HandleFunc("POST /api/products", manager(h.CreateProduct))
	mux.HandleFunc("GET /api/products", h.guard.Authenticate(h.ListProducts))
	mux.HandleFunc("GET /api/products/{id}", h.guard.Authenticate(h.GetProduct))
	mux.HandleFunc("PATCH /api/products/{id}", manager(h.UpdateProduct))

	mux.HandleFunc("POST /api/locations", manager(h.CreateLocation))
	mux.HandleFunc("GET /api/locations", h.guard.Authenticate(h.ListLocations))

	mux.HandleFunc("PUT /api/stock", manager(h.SetStock))
	mux.HandleFunc("GET /api/stock/{locationID}", h.guard.Authenticate(h.GetStock))

	return mux
}

type saleItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type createSaleRequest struct {
	RequestID  string            `json:"request_id,omitempty"`
	LocationID string            `json:"location_id"`
	Items      []saleItemRequest `json:"items"`
}

type saleItemResponse struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	LineTotal int64  `json:"line_total"`
}

type saleResponse struct {
	SaleID     string             `json:"sale_id"`
	SellerID   string             `json:"seller_id"`
	LocationID string             `json:"location_id"`
	Status     string             `json:"status"`
	TotalPrice int64              `json:"total_price"`
	Items      []saleItemResponse `json:"items"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

type errorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (h *HTTPHandler) CreateSale(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFrom(r.Context())

	var req createSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body", nil)
		return
	}
	if req.LocationID == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "missing location_id", map[string]string{"location_id": "required"})
		return
	}

	items := make([]domain.CartItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = domain.CartItem{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	sale, err := h.sales.CreateSale(r.Context(), claims.UserID, req.LocationID, req.RequestID, items)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSaleResponse(sale))
}

func (h *HTTPHandler) GetSale(w http.ResponseWriter, r *http.Request) {
	sale, err := h.sales.Sale(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSaleResponse(sale))
}

func toSaleResponse(sale *domain.Sale) saleResponse {
	resp := saleResponse{
		SaleID:     sale.ID,
		SellerID:   sale.SellerID,
		LocationID: sale.LocationID,
		Status:     string(sale.Status),
		TotalPrice: sale.TotalPrice,
		CreatedAt:  sale.CreatedAt,
		UpdatedAt:  sale.UpdatedAt,
	}
	for _, item := range sale.Items {
		resp.Items = append(resp.Items, saleItemResponse{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
		})
	}
	return resp
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeServiceError maps service errors onto the error taxonomy. Anything
// unrecognized is logged and reported without internal detail.
func (h *HTTPHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrDuplicateProduct),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidCategory),
		errors.Is(err, service.ErrInvalidPrice),
		errors.Is(err, service.ErrInvalidName),
		errors.Is(err, service.ErrInvalidStockLevel),
		errors.Is(err, service.ErrInvalidAddress):
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error(), nil)

	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrSellerNotFound),
		errors.Is(err, service.ErrSaleNotFound),
		errors.Is(err, service.ErrLocationNotFound),
		errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, err.Error(), nil)

	case errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrDuplicateRequest),
		errors.Is(err, service.ErrDuplicateTag),
		errors.Is(err, service.ErrDuplicateAddress),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, port.ErrDuplicateKey),
		errors.Is(err, port.ErrConstraint):
		writeError(w, http.StatusConflict, codeConflict, err.Error(), nil)

	default:
		log.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "internal error", nil)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string, fields map[string]string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message, Fields: fields})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
