package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func setupDeviceRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/cart", DeviceID(), func(c *gin.Context) {
		deviceID, _ := GetDeviceID(c)
		c.JSON(http.StatusOK, gin.H{"device_id": deviceID})
	})
	return router
}

func TestDeviceID_AcceptsValidHeader(t *testing.T) {
	router := setupDeviceRouter()
	deviceID := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set(DeviceIDHeader, deviceID)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), deviceID)
}

func TestDeviceID_IssuesIDWhenMissing(t *testing.T) {
	router := setupDeviceRouter()

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	// The issued ID is echoed back for the client to persist
	issued := w.Header().Get(DeviceIDHeader)
	assert.NotEmpty(t, issued)
	_, err := uuid.Parse(issued)
	assert.NoError(t, err)
}

func TestDeviceID_RejectsMalformedID(t *testing.T) {
	router := setupDeviceRouter()

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set(DeviceIDHeader, "../../etc/passwd")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "CART_DEVICE_REQUIRED")
}
