package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/autopeer-io/fleetcast/internal/fleethub/core"
	"github.com/autopeer-io/fleetcast/internal/fleethub/core/model"
	"github.com/autopeer-io/fleetcast/internal/fleethub/routes"
	"github.com/autopeer-io/fleetcast/pkg/log"
)

type handlers struct {
	fleet   core.FleetReader
	catalog *routes.Catalog
	ready   func() bool
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug("Failed to write response", "error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func (h *handlers) healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// readyz fails until the simulation loop runs.
func (h *handlers) readyz(w http.ResponseWriter, _ *http.Request) {
	if h.ready != nil && !h.ready() {
		http.Error(w, "simulation not running", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *handlers) snapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.fleet.CurrentSnapshot())
}

// vessels lists vessels, optionally narrowed by ?identifier= or one or more ?type=.
func (h *handlers) vessels(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, h.fleet.VesselsMatching(f))
}

func filterFromQuery(r *http.Request) (model.Filter, error) {
	q := r.URL.Query()
	id, types := q.Get("identifier"), q["type"]

	switch {
	case id != "" && len(types) > 0:
		return model.Filter{}, fmt.Errorf("%w: identifier and type are exclusive", model.ErrMalformedClientRequest)
	case id != "":
		return model.ByIdentifier(id), nil
	case len(types) > 0:
		parsed := make([]model.VesselType, 0, len(types))
		for _, t := range types {
			vt, err := model.ParseVesselType(t)
			if err != nil {
				return model.Filter{}, err
			}
			parsed = append(parsed, vt)
		}
		f := model.ByTypes(parsed...)
		return f, f.Validate()
	default:
		return model.AllVessels(), nil
	}
}

func (h *handlers) vessel(w http.ResponseWriter, r *http.Request) {
	v, err := h.fleet.Vessel(mux.Vars(r)["id"])
	if errors.Is(err, model.ErrVesselNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *handlers) routes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.All())
}

func (h *handlers) feed(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.fleet.FeedStats())
}
