package session

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/autopeer-io/fleetcast/internal/fleethub/broadcast"
	"github.com/autopeer-io/fleetcast/internal/fleethub/core"
	"github.com/autopeer-io/fleetcast/internal/fleethub/protocol"
)

// Handler upgrades HTTP requests to websocket sessions. Outbound frames are
// JSON unless the client asks for ?encoding=cbor.
type Handler struct {
	ctx      context.Context
	hub      *broadcast.Hub
	fleet    core.FleetReader
	cfg      Config
	upgrader websocket.Upgrader

	wg sync.WaitGroup
}

// NewHandler serves sessions until ctx is done.
func NewHandler(ctx context.Context, hub *broadcast.Hub, fleet core.FleetReader, cfg Config) *Handler {
	return &Handler{
		ctx:   ctx,
		hub:   hub,
		fleet: fleet,
		cfg:   cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	codec, err := protocol.CodecFor(r.URL.Query().Get("encoding"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Upgrade writes the HTTP error itself.
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	h.wg.Add(1)
	defer h.wg.Done()
	New(conn, codec, h.hub, h.fleet, h.cfg).Run(h.ctx)
}

// Wait blocks until every session has been released.
func (h *Handler) Wait() {
	h.wg.Wait()
}
