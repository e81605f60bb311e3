package tools

import (
	"errors"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/movitransit/movi/internal/log"
	"github.com/movitransit/movi/internal/transit"
)

// NetworkToolsetName is the registered name of the network toolset.
const NetworkToolsetName = "network"

// Network tool names.
const (
	ToolListStopsForPath  = "list_stops_for_path"
	ToolListRoutesForPath = "list_routes_for_path"
	ToolListActiveRoutes  = "list_active_routes"
	ToolCreateStop        = "create_stop"
	ToolCreatePath        = "create_path"
	ToolCreateRoute       = "create_route"
)

// StopsForPathInput defines input for list_stops_for_path.
type StopsForPathInput struct {
	PathName string `json:"path_name" jsonschema_description:"The name of the path (e.g. 'Path-1')"`
}

// RoutesForPathInput defines input for list_routes_for_path.
type RoutesForPathInput struct {
	PathName string `json:"path_name" jsonschema_description:"The name of the path whose routes to list"`
}

// ActiveRoutesInput defines input for list_active_routes (no input needed).
type ActiveRoutesInput struct{}

// CreateStopInput defines input for create_stop.
type CreateStopInput struct {
	Name      string   `json:"name" jsonschema_description:"The name of the new stop"`
	Latitude  *float64 `json:"latitude,omitempty" jsonschema_description:"Optional latitude of the stop"`
	Longitude *float64 `json:"longitude,omitempty" jsonschema_description:"Optional longitude of the stop"`
}

// CreatePathInput defines input for create_path.
type CreatePathInput struct {
	PathName  string   `json:"path_name" jsonschema_description:"The name of the new path"`
	StopNames []string `json:"stop_names" jsonschema_description:"Ordered list of stop names; missing stops are created on the fly"`
}

// CreateRouteInput defines input for create_route.
type CreateRouteInput struct {
	PathName  string `json:"path_name" jsonschema_description:"The name of an existing path"`
	ShiftTime string `json:"shift_time" jsonschema_description:"Shift time in HH:MM 24-hour format (e.g. '08:30')"`
	Direction string `json:"direction" jsonschema_description:"Route direction, IN or OUT"`
}

// NetworkToolset provides stop, path, and route operations for the
// manage-route page. It implements the Toolset interface.
type NetworkToolset struct {
	store  *transit.Store
	logger log.Logger
}

// NewNetworkToolset creates a new NetworkToolset.
func NewNetworkToolset(store *transit.Store, logger log.Logger) (*NetworkToolset, error) {
	if store == nil {
		return nil, fmt.Errorf("transit store is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &NetworkToolset{
		store:  store,
		logger: logger,
	}, nil
}

// Name returns the toolset identifier.
func (*NetworkToolset) Name() string {
	return NetworkToolsetName
}

// Register defines the stop, path, and route tools on g.
func (nt *NetworkToolset) Register(g *genkit.Genkit) {
	genkit.DefineTool(g, ToolListStopsForPath,
		"List all stops of a path in boarding order.",
		WithEvents(ToolListStopsForPath, nt.ListStopsForPath))

	genkit.DefineTool(g, ToolListRoutesForPath,
		"List all routes that run on a given path, with shift time, direction, and status.",
		WithEvents(ToolListRoutesForPath, nt.ListRoutesForPath))

	genkit.DefineTool(g, ToolListActiveRoutes,
		"List all routes whose status is active.",
		WithEvents(ToolListActiveRoutes, nt.ListActiveRoutes))

	genkit.DefineTool(g, ToolCreateStop,
		"Create a new stop if it does not exist yet. Latitude and longitude are optional.",
		WithEvents(ToolCreateStop, nt.CreateStop))

	genkit.DefineTool(g, ToolCreatePath,
		"Create a new path from an ordered list of stop names. "+
			"Stops that do not exist yet are created automatically.",
		WithEvents(ToolCreatePath, nt.CreatePath))

	genkit.DefineTool(g, ToolCreateRoute,
		"Create a new route on an existing path with a HH:MM shift time and a direction (IN or OUT). "+
			"The route display name becomes '<path> - <shift>' and the route starts active.",
		WithEvents(ToolCreateRoute, nt.CreateRoute))
}

// ListStopsForPath lists the stops of a path in sequence order.
func (nt *NetworkToolset) ListStopsForPath(ctx *ai.ToolContext, input StopsForPathInput) (Result, error) {
	nt.logger.Info("ListStopsForPath called", "path", input.PathName)

	stops, err := nt.store.StopsForPath(ctx.Context, input.PathName)
	if errors.Is(err, transit.ErrNotFound) {
		return Result{
			Status:  StatusError,
			Message: fmt.Sprintf("Path '%s' not found.", input.PathName),
			Error: &Error{
				Code:    ErrCodeNotFound,
				Message: fmt.Sprintf("path not found: %s", input.PathName),
			},
		}, nil
	}
	if err != nil {
		return networkFailed("listing stops", err)
	}

	if len(stops) == 0 {
		return Result{
			Status:  StatusError,
			Message: fmt.Sprintf("Path '%s' has no stops configured.", input.PathName),
			Error: &Error{
				Code:    ErrCodeValidation,
				Message: fmt.Sprintf("path has no stops: %s", input.PathName),
			},
		}, nil
	}

	names := make([]string, 0, len(stops))
	for _, s := range stops {
		names = append(names, s.Name)
	}

	return Result{
		Status:  StatusSuccess,
		Message: fmt.Sprintf("Stops on %s: %s", input.PathName, strings.Join(names, " → ")),
		Data: map[string]any{
			"path":  input.PathName,
			"stops": names,
			"count": len(names),
		},
	}, nil
}

// ListRoutesForPath lists every route configured on a path.
func (nt *NetworkToolset) ListRoutesForPath(ctx *ai.ToolContext, input RoutesForPathInput) (Result, error) {
	nt.logger.Info("ListRoutesForPath called", "path", input.PathName)

	if _, err := nt.store.PathByName(ctx.Context, input.PathName); err != nil {
		if errors.Is(err, transit.ErrNotFound) {
			return Result{
				Status:  StatusError,
				Message: fmt.Sprintf("Path '%s' not found.", input.PathName),
				Error: &Error{
					Code:    ErrCodeNotFound,
					Message: fmt.Sprintf("path not found: %s", input.PathName),
				},
			}, nil
		}
		return networkFailed("listing routes", err)
	}

	routes, err := nt.store.RoutesForPath(ctx.Context, input.PathName)
	if err != nil {
		return networkFailed("listing routes", err)
	}

	if len(routes) == 0 {
		return Result{
			Status:  StatusError,
			Message: fmt.Sprintf("No routes use path '%s'.", input.PathName),
			Error: &Error{
				Code:    ErrCodeNotFound,
				Message: fmt.Sprintf("no routes on path: %s", input.PathName),
			},
		}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Routes using path '%s':", input.PathName)
	for _, r := range routes {
		fmt.Fprintf(&b, "\n- %s (%s @ %s, %s)", r.DisplayName, r.Direction, r.ShiftTime, r.Status)
	}

	return Result{
		Status:  StatusSuccess,
		Message: b.String(),
		Data: map[string]any{
			"path":   input.PathName,
			"routes": routeSummaries(routes),
			"count":  len(routes),
		},
	}, nil
}

// ListActiveRoutes lists every route whose status is active.
func (nt *NetworkToolset) ListActiveRoutes(ctx *ai.ToolContext, _ ActiveRoutesInput) (Result, error) {
	nt.logger.Info("ListActiveRoutes called")

	routes, err := nt.store.ActiveRoutes(ctx.Context)
	if err != nil {
		return networkFailed("listing active routes", err)
	}

	if len(routes) == 0 {
		return Result{
			Status:  StatusSuccess,
			Message: "There are no active routes.",
			Data:    map[string]any{"count": 0},
		}, nil
	}

	var b strings.Builder
	b.WriteString("Active routes:")
	for _, r := range routes {
		fmt.Fprintf(&b, "\n- %s (%s @ %s)", r.DisplayName, r.Direction, r.ShiftTime)
	}

	return Result{
		Status:  StatusSuccess,
		Message: b.String(),
		Data: map[string]any{
			"routes": routeSummaries(routes),
			"count":  len(routes),
		},
	}, nil
}

// CreateStop inserts a new stop.
func (nt *NetworkToolset) CreateStop(ctx *ai.ToolContext, input CreateStopInput) (Result, error) {
	nt.logger.Info("CreateStop called", "name", input.Name)

	stop, err := nt.store.CreateStop(ctx.Context, input.Name, input.Latitude, input.Longitude)
	if errors.Is(err, transit.ErrDuplicate) {
		return Result{
			Status:  StatusError,
			Message: fmt.Sprintf("Stop '%s' already exists.", strings.TrimSpace(input.Name)),
			Error: &Error{
				Code:    ErrCodeValidation,
				Message: fmt.Sprintf("stop already exists: %s", strings.TrimSpace(input.Name)),
			},
		}, nil
	}
	if errors.Is(err, transit.ErrInvalid) {
		return Result{
			Status:  StatusError,
			Message: "A stop needs a non-empty name.",
			Error: &Error{
				Code:    ErrCodeValidation,
				Message: "stop name is empty",
			},
		}, nil
	}
	if err != nil {
		return networkFailed("creating stop", err)
	}

	return Result{
		Status:  StatusSuccess,
		Message: fmt.Sprintf("Created new stop '%s'.", stop.Name),
		Data: map[string]any{
			"stop_id":   stop.ID,
			"name":      stop.Name,
			"latitude":  stop.Latitude,
			"longitude": stop.Longitude,
		},
	}, nil
}

// CreatePath creates a path from an ordered stop list, creating missing stops.
func (nt *NetworkToolset) CreatePath(ctx *ai.ToolContext, input CreatePathInput) (Result, error) {
	nt.logger.Info("CreatePath called", "path", input.PathName, "stops", len(input.StopNames))

	if len(input.StopNames) == 0 {
		return Result{
			Status:  StatusError,
			Message: "Need at least one stop to create a path.",
			Error: &Error{
				Code:    ErrCodeValidation,
				Message: "stop list is empty",
			},
		}, nil
	}

	path, err := nt.store.CreatePath(ctx.Context, input.PathName, input.StopNames)
	if errors.Is(err, transit.ErrDuplicate) {
		return Result{
			Status:  StatusError,
			Message: fmt.Sprintf("Path '%s' already exists.", strings.TrimSpace(input.PathName)),
			Error: &Error{
				Code:    ErrCodeValidation,
				Message: fmt.Sprintf("path already exists: %s", strings.TrimSpace(input.PathName)),
			},
		}, nil
	}
	if errors.Is(err, transit.ErrInvalid) {
		return Result{
			Status:  StatusError,
			Message: "A path needs a non-empty name and non-empty stop names.",
			Error: &Error{
				Code:    ErrCodeValidation,
				Message: "path or stop name is empty",
			},
		}, nil
	}
	if err != nil {
		return networkFailed("creating path", err)
	}

	return Result{
		Status:  StatusSuccess,
		Message: fmt.Sprintf("Created path '%s' with stops: %s", path.Name, strings.Join(input.StopNames, " → ")),
		Data: map[string]any{
			"path_id": path.ID,
			"name":    path.Name,
			"stops":   input.StopNames,
		},
	}, nil
}

// CreateRoute creates an active route on an existing path.
func (nt *NetworkToolset) CreateRoute(ctx *ai.ToolContext, input CreateRouteInput) (Result, error) {
	nt.logger.Info("CreateRoute called",
		"path", input.PathName,
		"shift", input.ShiftTime,
		"direction", input.Direction,
	)

	route, err := nt.store.CreateRoute(ctx.Context, input.PathName, input.ShiftTime, input.Direction)
	switch {
	case errors.Is(err, transit.ErrNotFound):
		return Result{
			Status:  StatusError,
			Message: fmt.Sprintf("Path '%s' not found, cannot create route.", input.PathName),
			Error: &Error{
				Code:    ErrCodeNotFound,
				Message: fmt.Sprintf("path not found: %s", input.PathName),
			},
		}, nil
	case errors.Is(err, transit.ErrNoStops):
		return Result{
			Status:  StatusError,
			Message: fmt.Sprintf("Path '%s' has no stops configured, cannot create route.", input.PathName),
			Error: &Error{
				Code:    ErrCodeValidation,
				Message: fmt.Sprintf("path has no stops: %s", input.PathName),
			},
		}, nil
	case errors.Is(err, transit.ErrInvalid):
		return Result{
			Status:  StatusError,
			Message: "A route needs a HH:MM shift time and a direction of IN or OUT.",
			Error: &Error{
				Code:    ErrCodeValidation,
				Message: fmt.Sprintf("invalid shift time or direction: %s / %s", input.ShiftTime, input.Direction),
			},
		}, nil
	case errors.Is(err, transit.ErrDuplicate):
		display := fmt.Sprintf("%s - %s", input.PathName, input.ShiftTime)
		return Result{
			Status:  StatusError,
			Message: fmt.Sprintf("Route '%s' already exists.", display),
			Error: &Error{
				Code:    ErrCodeValidation,
				Message: fmt.Sprintf("route already exists: %s", display),
			},
		}, nil
	case err != nil:
		return networkFailed("creating route", err)
	}

	return Result{
		Status: StatusSuccess,
		Message: fmt.Sprintf("Created route '%s' (%s) from %s to %s.",
			route.DisplayName, route.Direction, deref(route.StartPoint, "?"), deref(route.EndPoint, "?")),
		Data: map[string]any{
			"route_id":     route.ID,
			"display_name": route.DisplayName,
			"direction":    route.Direction,
			"shift_time":   route.ShiftTime,
			"start_point":  route.StartPoint,
			"end_point":    route.EndPoint,
			"status":       route.Status,
		},
	}, nil
}

func routeSummaries(routes []transit.Route) []map[string]any {
	out := make([]map[string]any, 0, len(routes))
	for _, r := range routes {
		out = append(out, map[string]any{
			"display_name": r.DisplayName,
			"shift_time":   r.ShiftTime,
			"direction":    r.Direction,
			"status":       r.Status,
		})
	}
	return out
}

func networkFailed(op string, err error) (Result, error) {
	return Result{
		Status:  StatusError,
		Message: "Failed while " + op,
		Error: &Error{
			Code:    ErrCodeExecution,
			Message: fmt.Sprintf("%s: %v", op, err),
		},
	}, nil
}
