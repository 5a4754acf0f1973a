package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/fixgearlabs/fixgear-cart/internal/app/cart"
	"github.com/fixgearlabs/fixgear-cart/internal/errors"
	"github.com/fixgearlabs/fixgear-cart/internal/middleware"
	ws "github.com/fixgearlabs/fixgear-cart/internal/websocket"
)

// CartStreamController pushes live cart snapshots over WebSocket so every
// open tab of a device stays in sync.
type CartStreamController struct {
	hub      *ws.Hub
	registry *cart.Registry
	upgrader websocket.Upgrader
}

func NewCartStreamController(hub *ws.Hub, registry *cart.Registry, allowedOrigins []string) *CartStreamController {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return &CartStreamController{
		hub:      hub,
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					// Non-browser clients (tests, curl) send no Origin
					return true
				}
				return allowed[origin]
			},
		},
	}
}

// Stream upgrades the connection and attaches the tab to its device's cart
// feed
// GET /api/v1/cart/ws
func (ctrl *CartStreamController) Stream(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	deviceID, ok := middleware.GetDeviceID(c)
	if !ok {
		errors.BadRequest(c, errors.CartDeviceRequired, "Header X-Device-ID wajib diisi")
		return
	}

	coordinator, err := ctrl.registry.Get(deviceID)
	if err != nil {
		// Hydration failure is not fatal for streaming; the tab still gets
		// updates once the cart recovers.
		log.Warn("Cart hydration failed on stream attach", map[string]interface{}{
			"device_id": deviceID,
		})
	}

	conn, upgradeErr := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if upgradeErr != nil {
		log.Error("Failed to upgrade to WebSocket", upgradeErr)
		return
	}

	client := ws.NewClient(ctrl.hub, conn, deviceID)
	ctrl.hub.AttachFeed(deviceID, coordinator)
	ctrl.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	// Seed the tab with the state it missed while connecting
	ctrl.hub.PublishCartState(deviceID, coordinator.State())

	log.Info("Cart stream established", map[string]interface{}{
		"device_id": deviceID,
	})
}
