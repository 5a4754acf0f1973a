package middleware

import (
	apperrors "github.com/fixgearlabs/fixgear-cart/internal/errors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// DeviceIDKey is the context key holding the device ID of the request.
	DeviceIDKey = "device_id"
	// DeviceIDHeader carries the device ID; the storefront generates one
	// per browser and sends it on every request.
	DeviceIDHeader = "X-Device-ID"
)

// DeviceID requires a device ID on the request. A request without one gets
// a freshly generated ID echoed back so the client can persist it.
func DeviceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		deviceID := c.GetHeader(DeviceIDHeader)
		if deviceID == "" {
			deviceID = uuid.NewString()
			c.Header(DeviceIDHeader, deviceID)

			log := GetLoggerFromContext(c)
			log.Debug("Issued new device ID", map[string]interface{}{
				"device_id": deviceID,
			})
		}

		if _, err := uuid.Parse(deviceID); err != nil {
			apperrors.BadRequest(c, apperrors.CartDeviceRequired, "Device ID tidak valid")
			c.Abort()
			return
		}

		c.Set(DeviceIDKey, deviceID)
		c.Next()
	}
}

// GetDeviceID returns the device ID from context
func GetDeviceID(c *gin.Context) (string, bool) {
	v, exists := c.Get(DeviceIDKey)
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
