package ws

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"buildingsim/internal/building"
	"buildingsim/internal/sim"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler manages WebSocket connections and routes messages to the engine.
type Handler struct {
	hub      *Hub
	engine   *sim.Engine
	building *building.Building
}

func NewHandler(hub *Hub, engine *sim.Engine, b *building.Building) *Handler {
	return &Handler{hub: hub, engine: engine, building: b}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		hub:  h.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	h.hub.Register(client)
	go client.writePump()

	h.sendBuildingLoaded(client)
	h.sendSimState(client)

	h.readPump(client)
}

func (h *Handler) readPump(c *Client) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			return
		}

		h.handleMessage(msg)
	}
}

func (h *Handler) handleMessage(msg []byte) {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		log.Printf("Invalid message: %v", err)
		return
	}

	switch env.Type {
	case TypeSimStart:
		h.engine.Start()

	case TypeSimPause:
		h.engine.Pause()

	case TypeSimReset:
		h.engine.Pause()
		h.engine.Reset()

	case TypeSimStep:
		if err := h.engine.Step(); err != nil {
			log.Printf("Step error: %v", err)
		}

	case TypeSimSetSpeed:
		var p SetSpeedPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			log.Printf("Invalid set_speed payload: %v", err)
			return
		}
		h.engine.SetSpeed(p.Speed)

	case TypeSetPolicy:
		var p SetPolicyPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			log.Printf("Invalid set_policy payload: %v", err)
			return
		}
		switch p.Policy {
		case "zero":
			h.engine.SetPolicy(sim.ZeroPolicy{})
		case "random":
			h.engine.SetPolicy(sim.NewRandomPolicy(p.Seed))
		default:
			log.Printf("Unknown policy: %s", p.Policy)
		}

	default:
		log.Printf("Unknown message type: %s", env.Type)
	}
}

func (h *Handler) sendBuildingLoaded(c *Client) {
	obsSpace := h.building.ObservationSpace()
	actSpace := h.building.ActionSpace()
	msg, err := NewEnvelope(TypeBuildingLoaded, BuildingLoadedPayload{
		Name:          h.building.Name(),
		EpisodeLength: h.building.EpisodeLength(),
		ObservationSpace: SpaceInfo{
			Names: h.building.ActiveObservations(),
			Low:   obsSpace.Low,
			High:  obsSpace.High,
		},
		ActionSpace: SpaceInfo{
			Names: h.building.ActiveActions(),
			Low:   actSpace.Low,
			High:  actSpace.High,
		},
	})
	if err != nil {
		log.Printf("Error creating building:loaded message: %v", err)
		return
	}
	c.send <- msg
}

func (h *Handler) sendSimState(c *Client) {
	msg, err := NewEnvelope(TypeSimState, SimStateFromEngine(h.engine.State()))
	if err != nil {
		log.Printf("Error creating sim state message: %v", err)
		return
	}
	c.send <- msg
}
