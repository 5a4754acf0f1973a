package websocket

import (
	"encoding/json"
	"sync"

	appcart "github.com/fixgearlabs/fixgear-cart/internal/app/cart"
	"github.com/fixgearlabs/fixgear-cart/internal/app/model"
	"github.com/fixgearlabs/fixgear-cart/pkg/logger"
)

// cartEvent is the frame pushed to listening tabs whenever a device's cart
// changes.
type cartEvent struct {
	Type string          `json:"type"`
	Cart model.CartState `json:"cart"`
}

type deviceMessage struct {
	DeviceID string
	Payload  []byte
}

// Hub fans cart snapshots out to every open tab of a device. A device may
// have several tabs connected at once; each gets the same frames.
type Hub struct {
	// Registered clients grouped by device ID
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan *deviceMessage

	// One coordinator subscription per device with at least one listener.
	feedsMu sync.Mutex
	feeds   map[string]*feed
}

// feed records which coordinator a device's subscription is attached to.
// Eviction replaces a device's coordinator, so the pointer is what decides
// whether an existing subscription is still live.
type feed struct {
	coordinator *appcart.Coordinator
	unsubscribe func()
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string][]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *deviceMessage, 64),
		feeds:      make(map[string]*feed),
	}
}

// Run processes register/unregister/broadcast events. Call in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client.DeviceID] = append(h.clients[client.DeviceID], client)
			logger.Debug("WebSocket client registered", map[string]interface{}{
				"device_id": client.DeviceID,
				"tabs":      len(h.clients[client.DeviceID]),
			})

		case client := <-h.unregister:
			tabs := h.clients[client.DeviceID]
			for i, c := range tabs {
				if c == client {
					h.clients[client.DeviceID] = append(tabs[:i], tabs[i+1:]...)
					close(client.Send)
					break
				}
			}
			if len(h.clients[client.DeviceID]) == 0 {
				delete(h.clients, client.DeviceID)
				h.detachFeed(client.DeviceID)
			}

		case message := <-h.broadcast:
			for _, client := range h.clients[message.DeviceID] {
				select {
				case client.Send <- message.Payload:
				default:
					// Slow consumer, drop the frame. The next snapshot
					// carries the full state anyway.
					logger.Warn("Dropping cart update for slow client", map[string]interface{}{
						"device_id": message.DeviceID,
					})
				}
			}
		}
	}
}

// Register queues a client for registration.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// AttachFeed subscribes the hub to a device's coordinator so cart changes
// get pushed to that device's tabs. Idempotent while the coordinator stays
// the same; a replaced coordinator (after idle eviction) gets a fresh
// subscription. The feed is torn down when the last tab disconnects.
func (h *Hub) AttachFeed(deviceID string, coordinator *appcart.Coordinator) {
	h.feedsMu.Lock()
	defer h.feedsMu.Unlock()

	if existing, ok := h.feeds[deviceID]; ok {
		if existing.coordinator == coordinator {
			return
		}
		existing.unsubscribe()
	}
	h.feeds[deviceID] = &feed{
		coordinator: coordinator,
		unsubscribe: coordinator.OnChange(func(state model.CartState) {
			h.PublishCartState(deviceID, state)
		}),
	}
}

func (h *Hub) detachFeed(deviceID string) {
	h.feedsMu.Lock()
	defer h.feedsMu.Unlock()

	if existing, ok := h.feeds[deviceID]; ok {
		existing.unsubscribe()
		delete(h.feeds, deviceID)
	}
}

// PublishCartState broadcasts a cart snapshot to all tabs of a device.
func (h *Hub) PublishCartState(deviceID string, state model.CartState) {
	payload, err := json.Marshal(cartEvent{Type: "cart_state", Cart: state})
	if err != nil {
		logger.Error("Failed to encode cart event", err, map[string]interface{}{
			"device_id": deviceID,
		})
		return
	}

	select {
	case h.broadcast <- &deviceMessage{DeviceID: deviceID, Payload: payload}:
	default:
		logger.Warn("Cart broadcast queue full, dropping update", map[string]interface{}{
			"device_id": deviceID,
		})
	}
}
