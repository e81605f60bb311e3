package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/movitransit/movi/internal/log"
	"github.com/movitransit/movi/internal/tools"
	"github.com/movitransit/movi/internal/transit"
)

// transitHandler serves the JSON behind the admin pages and the direct
// write endpoints. Vehicle removal goes through the fleet toolset so the
// REST surface enforces the same confirmation rule as chat.
type transitHandler struct {
	store  *transit.Store
	fleet  *tools.FleetToolset
	logger log.Logger
}

// transitError maps store sentinels onto the envelope.
func (h *transitHandler) transitError(w http.ResponseWriter, err error, what string) {
	switch {
	case errors.Is(err, transit.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, what+" not found", h.logger)
	case errors.Is(err, transit.ErrDuplicate):
		writeError(w, http.StatusConflict, codeConflict, what+" already exists", h.logger)
	case errors.Is(err, transit.ErrInvalid):
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error(), h.logger)
	case errors.Is(err, transit.ErrNoStops):
		writeError(w, http.StatusConflict, codeConflict, err.Error(), h.logger)
	default:
		h.logger.Error("transit query failed", "what", what, "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "database error", h.logger)
	}
}

// handleDashboard returns the busDashboard rows.
//
// GET /api/v1/dashboard
func (h *transitHandler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.Dashboard(r.Context())
	if err != nil {
		h.transitError(w, err, "dashboard")
		return
	}
	writeData(w, http.StatusOK, rows, h.logger)
}

// handleRoutes returns the manageRoute overview rows.
//
// GET /api/v1/routes
func (h *transitHandler) handleRoutes(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.RoutesOverview(r.Context())
	if err != nil {
		h.transitError(w, err, "routes")
		return
	}
	writeData(w, http.StatusOK, rows, h.logger)
}

// handleStops lists all stops.
//
// GET /api/v1/stops
func (h *transitHandler) handleStops(w http.ResponseWriter, r *http.Request) {
	stops, err := h.store.Stops(r.Context())
	if err != nil {
		h.transitError(w, err, "stops")
		return
	}
	writeData(w, http.StatusOK, stops, h.logger)
}

// handlePaths lists all paths.
//
// GET /api/v1/paths
func (h *transitHandler) handlePaths(w http.ResponseWriter, r *http.Request) {
	paths, err := h.store.Paths(r.Context())
	if err != nil {
		h.transitError(w, err, "paths")
		return
	}
	writeData(w, http.StatusOK, paths, h.logger)
}

type createStopRequest struct {
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// handleCreateStop adds a stop.
//
// POST /api/v1/stops
func (h *transitHandler) handleCreateStop(w http.ResponseWriter, r *http.Request) {
	var req createStopRequest
	if err := decodeJSON(r, w, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error(), h.logger)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "name is required", h.logger)
		return
	}

	stop, err := h.store.CreateStop(r.Context(), req.Name, req.Latitude, req.Longitude)
	if err != nil {
		h.transitError(w, err, "stop")
		return
	}
	writeData(w, http.StatusCreated, stop, h.logger)
}

type createPathRequest struct {
	Name  string   `json:"name"`
	Stops []string `json:"stops"`
}

// handleCreatePath adds a path with its ordered stop sequence. Stops
// named here that do not exist yet are created without coordinates.
//
// POST /api/v1/paths
func (h *transitHandler) handleCreatePath(w http.ResponseWriter, r *http.Request) {
	var req createPathRequest
	if err := decodeJSON(r, w, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error(), h.logger)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "name is required", h.logger)
		return
	}
	if len(req.Stops) < 2 {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "a path needs at least two stops", h.logger)
		return
	}

	path, err := h.store.CreatePath(r.Context(), req.Name, req.Stops)
	if err != nil {
		h.transitError(w, err, "path")
		return
	}
	writeData(w, http.StatusCreated, path, h.logger)
}

type createRouteRequest struct {
	Path      string `json:"path"`
	ShiftTime string `json:"shift_time"`
	Direction string `json:"direction"`
}

// handleCreateRoute adds a route over an existing path.
//
// POST /api/v1/routes
func (h *transitHandler) handleCreateRoute(w http.ResponseWriter, r *http.Request) {
	var req createRouteRequest
	if err := decodeJSON(r, w, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error(), h.logger)
		return
	}
	if strings.TrimSpace(req.Path) == "" || strings.TrimSpace(req.ShiftTime) == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "path and shift_time are required", h.logger)
		return
	}

	route, err := h.store.CreateRoute(r.Context(), req.Path, req.ShiftTime, req.Direction)
	if err != nil {
		h.transitError(w, err, "route")
		return
	}
	writeData(w, http.StatusCreated, route, h.logger)
}

// handleUnassigned lists vehicles and drivers without a deployment, the
// candidates for the assign dialog.
//
// GET /api/v1/fleet/unassigned
func (h *transitHandler) handleUnassigned(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.store.UnassignedVehicles(r.Context())
	if err != nil {
		h.transitError(w, err, "vehicles")
		return
	}
	drivers, err := h.store.UnassignedDrivers(r.Context())
	if err != nil {
		h.transitError(w, err, "drivers")
		return
	}
	writeData(w, http.StatusOK, map[string]any{
		"vehicles": vehicles,
		"drivers":  drivers,
	}, h.logger)
}

type createDeploymentRequest struct {
	Trip    string `json:"trip"`
	Vehicle string `json:"vehicle"`
	Driver  string `json:"driver"`
}

// handleCreateDeployment assigns a vehicle and driver to a trip,
// replacing any existing assignment. Names come in as the operator sees
// them: trip display name, license plate, driver name.
//
// POST /api/v1/deployments
func (h *transitHandler) handleCreateDeployment(w http.ResponseWriter, r *http.Request) {
	var req createDeploymentRequest
	if err := decodeJSON(r, w, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error(), h.logger)
		return
	}
	if req.Trip == "" || req.Vehicle == "" || req.Driver == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "trip, vehicle and driver are required", h.logger)
		return
	}

	ctx := r.Context()
	trip, err := h.store.TripByName(ctx, req.Trip)
	if err != nil {
		h.transitError(w, err, fmt.Sprintf("trip %q", req.Trip))
		return
	}
	vehicle, err := h.store.VehicleByPlate(ctx, req.Vehicle)
	if err != nil {
		h.transitError(w, err, fmt.Sprintf("vehicle %q", req.Vehicle))
		return
	}
	driver, err := h.store.DriverByName(ctx, req.Driver)
	if err != nil {
		h.transitError(w, err, fmt.Sprintf("driver %q", req.Driver))
		return
	}

	updated, err := h.store.UpsertDeployment(ctx, trip.ID, vehicle.ID, driver.ID)
	if err != nil {
		h.transitError(w, err, "deployment")
		return
	}

	status := http.StatusCreated
	if updated {
		status = http.StatusOK
	}
	writeData(w, status, map[string]any{
		"trip":    trip.DisplayName,
		"vehicle": vehicle.LicensePlate,
		"driver":  driver.Name,
		"updated": updated,
	}, h.logger)
}

// handleRemoveDeployment removes the vehicle from a trip. For a booked
// trip the first call answers 409 with the consequence text; the client
// repeats the call with ?force=true once the operator has confirmed.
//
// DELETE /api/v1/deployments/{trip}
func (h *transitHandler) handleRemoveDeployment(w http.ResponseWriter, r *http.Request) {
	trip := r.PathValue("trip")
	if trip == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "trip is required", h.logger)
		return
	}
	force := r.URL.Query().Get("force") == "true"

	result, err := h.fleet.RemoveVehicle(r.Context(), trip, force)
	if err != nil {
		h.logger.Error("removing vehicle", "trip", trip, "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "database error", h.logger)
		return
	}

	if result.Error != nil {
		switch result.Error.Code {
		case tools.ErrCodeConfirmation:
			writeErrorDetails(w, http.StatusConflict, codeConflict, result.Message, result.Error.Details, h.logger)
		case tools.ErrCodeNotFound, tools.ErrCodeValidation:
			writeError(w, http.StatusNotFound, codeNotFound, result.Message, h.logger)
		default:
			h.logger.Error("removing vehicle", "trip", trip, "code", result.Error.Code, "error", result.Error.Message)
			writeError(w, http.StatusInternalServerError, codeInternal, result.Message, h.logger)
		}
		return
	}

	writeData(w, http.StatusOK, map[string]any{
		"message": result.Message,
		"removed": result.Data,
	}, h.logger)
}
