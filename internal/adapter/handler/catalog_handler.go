package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/lp2808/retail-pos/internal/core/domain"
	"github.com/lp2808/retail-pos/internal/port"
)

type tagRequest struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type createProductRequest struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Price       int64        `json:"price"`
	Category    string       `json:"category"`
	Tags        []tagRequest `json:"tags,omitempty"`
}

type updateProductRequest struct {
	Description *string `json:"description,omitempty"`
	Price       *int64  `json:"price,omitempty"`
}

type productResponse struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Price       int64        `json:"price"`
	Category    string       `json:"category"`
	Tags        []tagRequest `json:"tags,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

type createLocationRequest struct {
	Address string `json:"address"`
}

type locationResponse struct {
	ID        string    `json:"id"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

type setStockRequest struct {
	LocationID string `json:"location_id"`
	ProductID  string `json:"product_id"`
	Quantity   int    `json:"quantity"`
}

type stockResponse struct {
	ProductID  string `json:"product_id"`
	LocationID string `json:"location_id"`
	Quantity   int    `json:"quantity"`
}

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body", nil)
		return
	}

	tags := make([]domain.Tag, len(req.Tags))
	for i, tag := range req.Tags {
		tags[i] = domain.Tag{Name: tag.Name, Value: tag.Value}
	}

	product, err := h.catalog.CreateProduct(r.Context(), req.Name, req.Description, req.Price, req.Category, tags)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(product))
}

func (h *HTTPHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req updateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body", nil)
		return
	}

	product, err := h.catalog.UpdateProduct(r.Context(), r.PathValue("id"), port.ProductChange{
		Description: req.Description,
		Price:       req.Price,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(product))
}

func (h *HTTPHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.Product(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(product))
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Products(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	resp := make([]productResponse, len(products))
	for i := range products {
		resp[i] = toProductResponse(&products[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var req createLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body", nil)
		return
	}

	location, err := h.inventory.CreateLocation(r.Context(), req.Address)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, locationResponse{
		ID:        location.ID,
		Address:   location.Address,
		CreatedAt: location.CreatedAt,
	})
}

func (h *HTTPHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.inventory.Locations(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	resp := make([]locationResponse, len(locations))
	for i, location := range locations {
		resp[i] = locationResponse{ID: location.ID, Address: location.Address, CreatedAt: location.CreatedAt}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) SetStock(w http.ResponseWriter, r *http.Request) {
	var req setStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body", nil)
		return
	}
	if req.LocationID == "" || req.ProductID == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "missing required fields", nil)
		return
	}

	if err := h.inventory.SetStock(r.Context(), req.LocationID, req.ProductID, req.Quantity); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stockResponse{
		ProductID:  req.ProductID,
		LocationID: req.LocationID,
		Quantity:   req.Quantity,
	})
}

func (h *HTTPHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	levels, err := h.inventory.Levels(r.Context(), r.PathValue("locationID"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	resp := make([]stockResponse, len(levels))
	for i, stock := range levels {
		resp[i] = stockResponse{ProductID: stock.ProductID, LocationID: stock.LocationID, Quantity: stock.Quantity}
	}
	writeJSON(w, http.StatusOK, resp)
}

func toProductResponse(product *domain.Product) productResponse {
	resp := productResponse{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		Category:    string(product.Category),
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
	for _, tag := range product.Tags {
		resp.Tags = append(resp.Tags, tagRequest{Name: tag.Name, Value: tag.Value})
	}
	return resp
}
