package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"shopping-assistant/internal/services"
)

// ProductHandler handles HTTP requests for product lookups
type ProductHandler struct {
	products *services.ProductService
	logger   *log.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(products *services.ProductService, logger *log.Logger) *ProductHandler {
	return &ProductHandler{
		products: products,
		logger:   logger,
	}
}

// GetProduct returns one normalized product record
// @Summary Get a product
// @Description Returns a normalized product record, from cache when possible
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} models.Product
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/products/{id} [get]
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID := mux.Vars(r)["id"]

	product, err := h.products.GetProduct(r.Context(), productID)
	if err != nil {
		h.logger.Printf("product lookup failed for %s: %v", productID, err)
		sendError(w, h.logger, http.StatusNotFound, "Product not found: "+productID)
		return
	}

	sendJSON(w, h.logger, http.StatusOK, product)
}
