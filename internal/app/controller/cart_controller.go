package controller

import (
	"errors"
	"net/http"

	"github.com/fixgearlabs/fixgear-cart/internal/app/cart"
	"github.com/fixgearlabs/fixgear-cart/internal/app/service"
	apperrors "github.com/fixgearlabs/fixgear-cart/internal/errors"
	"github.com/fixgearlabs/fixgear-cart/internal/middleware"
	"github.com/gin-gonic/gin"
)

// CartController exposes one device's cart coordinator over HTTP. The
// storefront's cart page, product cards, and header badge all talk to these
// endpoints.
type CartController struct {
	registry       *cart.Registry
	productService service.ProductService
}

func NewCartController(registry *cart.Registry, productService service.ProductService) *CartController {
	return &CartController{
		registry:       registry,
		productService: productService,
	}
}

type AddToCartRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityRequest struct {
	// Pointer so zero and negative quantities bind; both mean removal.
	Quantity *int `json:"quantity" binding:"required"`
}

// coordinator resolves the device's coordinator, re-binding the identity
// when the request carries a valid session. This covers sessions that
// outlive an evicted coordinator and account switches on the same device.
func (ctrl *CartController) coordinator(c *gin.Context) (*cart.Coordinator, string, error) {
	deviceID, _ := middleware.GetDeviceID(c)

	var hydrateErr error
	if userID, ok := middleware.GetUserID(c); ok {
		hydrateErr = ctrl.registry.SetIdentity(deviceID, userID)
	}

	coordinator, err := ctrl.registry.Get(deviceID)
	if hydrateErr == nil {
		hydrateErr = err
	}
	return coordinator, deviceID, hydrateErr
}

// GetCart returns the device's cart state
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	coordinator, deviceID, err := ctrl.coordinator(c)
	if err != nil {
		log.Error("Cart hydration failed", err, map[string]interface{}{
			"device_id": deviceID,
		})
		apperrors.RespondWithError(c, http.StatusServiceUnavailable, apperrors.CartSyncFailed, "Gagal memuat cart dari server")
		return
	}

	state := coordinator.State()
	c.JSON(http.StatusOK, gin.H{
		"cart":       state,
		"loading":    coordinator.Loading(),
		"identified": coordinator.Identity() != "",
	})
}

// AddItem adds a product to the cart, merging quantities
// POST /api/v1/cart/items
func (ctrl *CartController) AddItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add to cart request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Data permintaan tidak valid")
		return
	}

	product, err := ctrl.productService.GetProduct(req.ProductID)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			apperrors.NotFound(c, apperrors.ProductNotFound, "Produk tidak ditemukan")
			return
		}
		log.Error("Failed to fetch product for cart", err, map[string]interface{}{
			"product_id": req.ProductID,
		})
		apperrors.InternalError(c, "")
		return
	}

	coordinator, deviceID, err := ctrl.coordinator(c)
	if err != nil {
		// Hydration failed but the coordinator still works against the
		// local fallback; the mutation must not be blocked.
		log.Warn("Proceeding with unhydrated cart", map[string]interface{}{
			"device_id": deviceID,
			"error":     err.Error(),
		})
	}

	state := coordinator.AddToCart(*product, req.Quantity)

	log.Info("Item added to cart", map[string]interface{}{
		"device_id":  deviceID,
		"product_id": product.ID,
		"item_count": state.ItemCount,
	})
	c.JSON(http.StatusOK, gin.H{"cart": state})
}

// UpdateItem sets the quantity of a cart line; zero or less removes it
// PUT /api/v1/cart/items/:productID
func (ctrl *CartController) UpdateItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	productID := c.Param("productID")

	var req UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid quantity update request", map[string]interface{}{
			"product_id": productID,
			"error":      err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationRequired, "Jumlah wajib diisi")
		return
	}

	coordinator, deviceID, err := ctrl.coordinator(c)
	if err != nil {
		log.Warn("Proceeding with unhydrated cart", map[string]interface{}{
			"device_id": deviceID,
			"error":     err.Error(),
		})
	}

	state := coordinator.UpdateQuantity(productID, *req.Quantity)
	c.JSON(http.StatusOK, gin.H{"cart": state})
}

// RemoveItem removes a product's line from the cart
// DELETE /api/v1/cart/items/:productID
func (ctrl *CartController) RemoveItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	productID := c.Param("productID")

	coordinator, deviceID, err := ctrl.coordinator(c)
	if err != nil {
		log.Warn("Proceeding with unhydrated cart", map[string]interface{}{
			"device_id": deviceID,
			"error":     err.Error(),
		})
	}

	state := coordinator.RemoveFromCart(productID)
	c.JSON(http.StatusOK, gin.H{"cart": state})
}

// ClearCart removes every item from the cart
// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	coordinator, _, _ := ctrl.coordinator(c)
	state := coordinator.ClearCart()
	c.JSON(http.StatusOK, gin.H{"cart": state})
}

// RefreshCart re-hydrates the cart from its bound store
// POST /api/v1/cart/refresh
func (ctrl *CartController) RefreshCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	coordinator, deviceID, err := ctrl.coordinator(c)
	if err == nil {
		_, err = coordinator.Refresh()
	}
	if err != nil {
		log.Error("Cart refresh failed", err, map[string]interface{}{
			"device_id": deviceID,
		})
		apperrors.RespondWithError(c, http.StatusServiceUnavailable, apperrors.CartSyncFailed, "Gagal menyegarkan cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{"cart": coordinator.State()})
}
