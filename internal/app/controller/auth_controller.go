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

// AuthController handles registration, login, and logout. Login and logout
// are the identity-change sources of the cart subsystem: each one resolves
// the device's tracker and flips it, which triggers cart reconciliation.
type AuthController struct {
	authService service.AuthService
	registry    *cart.Registry
}

func NewAuthController(authService service.AuthService, registry *cart.Registry) *AuthController {
	return &AuthController{
		authService: authService,
		registry:    registry,
	}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register creates an account and signs it in
// POST /api/v1/auth/register
func (ctrl *AuthController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid registration request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Data pendaftaran tidak valid")
		return
	}

	user, tokens, err := ctrl.authService.Register(req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, service.ErrEmailAlreadyExists) {
			apperrors.Conflict(c, apperrors.AuthEmailAlreadyExists, "Email sudah terdaftar")
			return
		}
		log.Error("Registration failed", err, map[string]interface{}{
			"email": req.Email,
		})
		apperrors.InternalError(c, "")
		return
	}

	ctrl.bindDevice(c, user.ID)

	c.JSON(http.StatusCreated, gin.H{
		"user":   user,
		"tokens": tokens,
	})
}

// Login authenticates a user and binds the device's cart to the account
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid login request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Data login tidak valid")
		return
	}

	user, tokens, err := ctrl.authService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, "Email atau password salah")
			return
		}
		log.Error("Login failed", err, map[string]interface{}{
			"email": req.Email,
		})
		apperrors.InternalError(c, "")
		return
	}

	ctrl.bindDevice(c, user.ID)

	c.JSON(http.StatusOK, gin.H{
		"user":   user,
		"tokens": tokens,
	})
}

// Logout revokes the session and rebinds the device's cart to anonymous
// POST /api/v1/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	token, ok := middleware.GetSessionToken(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	if err := ctrl.authService.Logout(c.Request.Context(), token); err != nil {
		log.Error("Failed to revoke session", err, nil)
		apperrors.InternalError(c, "")
		return
	}

	ctrl.bindDevice(c, "")

	c.JSON(http.StatusOK, gin.H{
		"message": "Berhasil logout",
	})
}

// bindDevice flips the device's identity tracker, which triggers the cart
// reconciliation for the transition. Requests without a device ID (API
// clients that never touch the cart) skip the binding.
func (ctrl *AuthController) bindDevice(c *gin.Context, identity string) {
	deviceID, ok := middleware.GetDeviceID(c)
	if !ok {
		return
	}

	log := middleware.GetLoggerFromContext(c)
	if err := ctrl.registry.SetIdentity(deviceID, identity); err != nil {
		// Reconciliation hydrate failed; the cart endpoints surface it.
		log.Warn("Cart rebind after auth change failed", map[string]interface{}{
			"device_id": deviceID,
			"error":     err.Error(),
		})
	}
}
