package tools

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/movitransit/movi/internal/log"
	"github.com/movitransit/movi/internal/transit"
)

// FleetToolsetName is the registered name of the fleet toolset.
const FleetToolsetName = "fleet"

// Fleet tool names.
const (
	ToolCountUnassignedVehicles = "count_unassigned_vehicles"
	ToolListUnassignedDrivers   = "list_unassigned_drivers"
	ToolGetTripStatus           = "get_trip_status"
	ToolAssignVehicleAndDriver  = "assign_vehicle_and_driver"
	ToolRemoveVehicleFromTrip   = "remove_vehicle_from_trip"
)

// CountUnassignedVehiclesInput defines input for count_unassigned_vehicles (no input needed).
type CountUnassignedVehiclesInput struct{}

// ListUnassignedDriversInput defines input for list_unassigned_drivers (no input needed).
type ListUnassignedDriversInput struct{}

// TripStatusInput defines input for get_trip_status.
type TripStatusInput struct {
	TripDisplayName string `json:"trip_display_name" jsonschema_description:"The display name of the trip (e.g. 'Bulk - 00:01')"`
}

// AssignVehicleInput defines input for assign_vehicle_and_driver.
type AssignVehicleInput struct {
	TripDisplayName string `json:"trip_display_name" jsonschema_description:"The display name of the trip to deploy to"`
	VehiclePlate    string `json:"vehicle_plate" jsonschema_description:"The license plate of the vehicle (e.g. 'KA-05-9999')"`
	DriverName      string `json:"driver_name" jsonschema_description:"The name of the driver"`
}

// RemoveVehicleInput defines input for remove_vehicle_from_trip.
type RemoveVehicleInput struct {
	TripDisplayName string `json:"trip_display_name" jsonschema_description:"The display name of the trip to clear"`
	Force           bool   `json:"force,omitempty" jsonschema_description:"Set true only after the user has explicitly confirmed the removal"`
}

// FleetToolset provides trip, vehicle, and driver operations for the
// bus dashboard. It implements the Toolset interface.
type FleetToolset struct {
	store  *transit.Store
	logger log.Logger
}

// NewFleetToolset creates a new FleetToolset.
func NewFleetToolset(store *transit.Store, logger log.Logger) (*FleetToolset, error) {
	if store == nil {
		return nil, fmt.Errorf("transit store is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &FleetToolset{
		store:  store,
		logger: logger,
	}, nil
}

// Name returns the toolset identifier.
func (*FleetToolset) Name() string {
	return FleetToolsetName
}

// Register defines the trip, vehicle, and driver tools on g.
func (ft *FleetToolset) Register(g *genkit.Genkit) {
	genkit.DefineTool(g, ToolCountUnassignedVehicles,
		"Count how many vehicles are not assigned to any trip. "+
			"Use this when the operator asks about spare or idle vehicles.",
		WithEvents(ToolCountUnassignedVehicles, ft.CountUnassignedVehicles))

	genkit.DefineTool(g, ToolListUnassignedDrivers,
		"List all drivers that are not assigned to any deployment. "+
			"Use this to find a driver for a trip that still needs one.",
		WithEvents(ToolListUnassignedDrivers, ft.ListUnassignedDrivers))

	genkit.DefineTool(g, ToolGetTripStatus,
		"Get the full status of a trip by its display name: route, booking percentage, "+
			"live status, and the assigned vehicle and driver.",
		WithEvents(ToolGetTripStatus, ft.GetTripStatus))

	genkit.DefineTool(g, ToolAssignVehicleAndDriver,
		"Assign or update the vehicle and driver deployed on a trip. "+
			"Creates the deployment if the trip has none, otherwise updates it in place.",
		WithEvents(ToolAssignVehicleAndDriver, ft.AssignVehicleAndDriver))

	genkit.DefineTool(g, ToolRemoveVehicleFromTrip,
		"Remove the vehicle and driver from a trip. "+
			"WARNING: removing the vehicle from a booked trip cancels its bookings; "+
			"the operator must confirm before a booked trip is cleared.",
		WithEvents(ToolRemoveVehicleFromTrip, ft.RemoveVehicleFromTrip))
}

// CountUnassignedVehicles reports how many vehicles have no deployment.
func (ft *FleetToolset) CountUnassignedVehicles(ctx *ai.ToolContext, _ CountUnassignedVehiclesInput) (Result, error) {
	ft.logger.Info("CountUnassignedVehicles called")

	vehicles, err := ft.store.UnassignedVehicles(ctx.Context)
	if err != nil {
		return Result{
			Status:  StatusError,
			Message: "Failed to count unassigned vehicles",
			Error: &Error{
				Code:    ErrCodeExecution,
				Message: fmt.Sprintf("querying unassigned vehicles: %v", err),
			},
		}, nil
	}

	plates := make([]string, 0, len(vehicles))
	for _, v := range vehicles {
		plates = append(plates, v.LicensePlate)
	}

	return Result{
		Status:  StatusSuccess,
		Message: fmt.Sprintf("There are %d vehicles not assigned to any trip right now.", len(vehicles)),
		Data: map[string]any{
			"count":          len(vehicles),
			"license_plates": plates,
		},
	}, nil
}

// ListUnassignedDrivers lists drivers with no deployment, ordered by name.
func (ft *FleetToolset) ListUnassignedDrivers(ctx *ai.ToolContext, _ ListUnassignedDriversInput) (Result, error) {
	ft.logger.Info("ListUnassignedDrivers called")

	drivers, err := ft.store.UnassignedDrivers(ctx.Context)
	if err != nil {
		return Result{
			Status:  StatusError,
			Message: "Failed to list unassigned drivers",
			Error: &Error{
				Code:    ErrCodeExecution,
				Message: fmt.Sprintf("querying unassigned drivers: %v", err),
			},
		}, nil
	}

	if len(drivers) == 0 {
		return Result{
			Status:  StatusSuccess,
			Message: "All drivers are currently assigned.",
			Data:    map[string]any{"count": 0},
		}, nil
	}

	names := make([]string, 0, len(drivers))
	for _, d := range drivers {
		names = append(names, d.Name)
	}

	return Result{
		Status:  StatusSuccess,
		Message: fmt.Sprintf("Unassigned drivers (%d): %s", len(names), strings.Join(names, ", ")),
		Data: map[string]any{
			"count":   len(names),
			"drivers": names,
		},
	}, nil
}

// GetTripStatus returns the full status line for a trip.
func (ft *FleetToolset) GetTripStatus(ctx *ai.ToolContext, input TripStatusInput) (Result, error) {
	ft.logger.Info("GetTripStatus called", "trip", input.TripDisplayName)

	ts, err := ft.store.TripStatusByName(ctx.Context, input.TripDisplayName)
	if errors.Is(err, transit.ErrNotFound) {
		return Result{
			Status:  StatusError,
			Message: fmt.Sprintf("Trip '%s' not found.", input.TripDisplayName),
			Error: &Error{
				Code:    ErrCodeNotFound,
				Message: fmt.Sprintf("trip not found: %s", input.TripDisplayName),
			},
		}, nil
	}
	if err != nil {
		return Result{
			Status:  StatusError,
			Message: "Failed to load trip status",
			Error: &Error{
				Code:    ErrCodeExecution,
				Message: fmt.Sprintf("querying trip status: %v", err),
			},
		}, nil
	}

	assigned := "No vehicle/driver assigned"
	if ts.Vehicle != nil {
		assigned = fmt.Sprintf("Vehicle %s with driver %s", *ts.Vehicle, deref(ts.Driver, "unassigned"))
	}

	return Result{
		Status: StatusSuccess,
		Message: fmt.Sprintf("Trip '%s' is on route '%s', booking status ~%s%%, live status '%s'. %s.",
			ts.Trip, ts.Route, formatPct(ts.BookingPct), deref(ts.LiveStatus, "unknown"), assigned),
		Data: map[string]any{
			"trip":                      ts.Trip,
			"route":                     ts.Route,
			"booking_status_percentage": ts.BookingPct,
			"live_status":               ts.LiveStatus,
			"vehicle":                   ts.Vehicle,
			"driver":                    ts.Driver,
		},
	}, nil
}

// AssignVehicleAndDriver creates or updates the deployment for a trip.
func (ft *FleetToolset) AssignVehicleAndDriver(ctx *ai.ToolContext, input AssignVehicleInput) (Result, error) {
	ft.logger.Info("AssignVehicleAndDriver called",
		"trip", input.TripDisplayName,
		"vehicle", input.VehiclePlate,
		"driver", input.DriverName,
	)

	trip, err := ft.store.TripByName(ctx.Context, input.TripDisplayName)
	if errors.Is(err, transit.ErrNotFound) {
		return Result{
			Status:  StatusError,
			Message: fmt.Sprintf("Trip '%s' not found.", input.TripDisplayName),
			Error: &Error{
				Code:    ErrCodeNotFound,
				Message: fmt.Sprintf("trip not found: %s", input.TripDisplayName),
			},
		}, nil
	}
	if err != nil {
		return assignFailed(err)
	}

	vehicle, err := ft.store.VehicleByPlate(ctx.Context, input.VehiclePlate)
	if errors.Is(err, transit.ErrNotFound) {
		return Result{
			Status:  StatusError,
			Message: fmt.Sprintf("Vehicle '%s' not found.", input.VehiclePlate),
			Error: &Error{
				Code:    ErrCodeNotFound,
				Message: fmt.Sprintf("vehicle not found: %s", input.VehiclePlate),
			},
		}, nil
	}
	if err != nil {
		return assignFailed(err)
	}

	driver, err := ft.store.DriverByName(ctx.Context, input.DriverName)
	if errors.Is(err, transit.ErrNotFound) {
		return Result{
			Status:  StatusError,
			Message: fmt.Sprintf("Driver '%s' not found.", input.DriverName),
			Error: &Error{
				Code:    ErrCodeNotFound,
				Message: fmt.Sprintf("driver not found: %s", input.DriverName),
			},
		}, nil
	}
	if err != nil {
		return assignFailed(err)
	}

	updated, err := ft.store.UpsertDeployment(ctx.Context, trip.ID, vehicle.ID, driver.ID)
	if err != nil {
		return assignFailed(err)
	}

	msg := fmt.Sprintf("Assigned vehicle %s and driver %s to trip '%s'.",
		vehicle.LicensePlate, driver.Name, trip.DisplayName)
	if updated {
		msg = fmt.Sprintf("Updated deployment: trip '%s' now uses vehicle %s with driver %s.",
			trip.DisplayName, vehicle.LicensePlate, driver.Name)
	}

	return Result{
		Status:  StatusSuccess,
		Message: msg,
		Data: map[string]any{
			"trip":          trip.DisplayName,
			"vehicle_plate": vehicle.LicensePlate,
			"driver_name":   driver.Name,
			"updated":       updated,
		},
	}, nil
}

// RemoveVehicleFromTrip clears the deployment of a trip.
//
// When the trip already has bookings and force is false, the tool does not
// modify anything. Instead it interrupts the run so the operator can approve
// or decline through the confirmation UI. The resume path calls
// RemoveVehicle with force set.
func (ft *FleetToolset) RemoveVehicleFromTrip(ctx *ai.ToolContext, input RemoveVehicleInput) (Result, error) {
	ft.logger.Info("RemoveVehicleFromTrip called", "trip", input.TripDisplayName, "force", input.Force)

	res, err := ft.RemoveVehicle(ctx.Context, input.TripDisplayName, input.Force)
	if err != nil {
		return Result{}, err
	}

	if res.Error != nil && res.Error.Code == ErrCodeConfirmation {
		return Result{}, ctx.Interrupt(&ai.InterruptOptions{
			Metadata: map[string]any{
				"confirmationType": "dangerous-operation",
				"consequence":      res.Message,
				"dangerLevel":      DangerLevelDangerous.String(),
				"details":          res.Error.Details,
			},
		})
	}

	return res, nil
}

// RemoveVehicle holds the removal rules shared by the chat, REST, and MCP
// surfaces. Callers without a Genkit tool context (REST handlers, the MCP
// server, the confirmation resume path) use it directly.
//
// A booked trip without force yields an ErrCodeConfirmation result carrying
// the consequence text; nothing is deleted in that case.
func (ft *FleetToolset) RemoveVehicle(ctx context.Context, tripDisplayName string, force bool) (Result, error) {
	impact, err := ft.store.RemovalImpactByTrip(ctx, tripDisplayName)
	if errors.Is(err, transit.ErrNotFound) {
		return Result{
			Status:  StatusError,
			Message: fmt.Sprintf("Trip '%s' not found.", tripDisplayName),
			Error: &Error{
				Code:    ErrCodeNotFound,
				Message: fmt.Sprintf("trip not found: %s", tripDisplayName),
			},
		}, nil
	}
	if err != nil {
		return Result{
			Status:  StatusError,
			Message: "Failed to inspect the deployment",
			Error: &Error{
				Code:    ErrCodeExecution,
				Message: fmt.Sprintf("querying removal impact: %v", err),
			},
		}, nil
	}

	if !impact.HasVehicle() {
		return Result{
			Status:  StatusError,
			Message: fmt.Sprintf("No vehicle is currently assigned to trip '%s'.", impact.Trip),
			Error: &Error{
				Code:    ErrCodeValidation,
				Message: fmt.Sprintf("trip has no deployed vehicle: %s", impact.Trip),
			},
		}, nil
	}

	if impact.BookingPct > 0 && !force {
		return Result{
			Status:  StatusError,
			Message: RemovalConsequence(*impact),
			Error: &Error{
				Code:    ErrCodeConfirmation,
				Message: "vehicle removal needs operator confirmation",
				Details: map[string]any{
					"trip":                      impact.Trip,
					"route":                     impact.Route,
					"booking_status_percentage": impact.BookingPct,
					"vehicle":                   *impact.Vehicle,
					"driver":                    impact.Driver,
				},
			},
		}, nil
	}

	if err := ft.store.DeleteDeployment(ctx, *impact.DeploymentID); err != nil {
		if errors.Is(err, transit.ErrNotFound) {
			return Result{
				Status:  StatusError,
				Message: fmt.Sprintf("No vehicle is currently assigned to trip '%s'.", impact.Trip),
				Error: &Error{
					Code:    ErrCodeNotFound,
					Message: "deployment already removed",
				},
			}, nil
		}
		return Result{
			Status:  StatusError,
			Message: "Failed to remove the deployment",
			Error: &Error{
				Code:    ErrCodeExecution,
				Message: fmt.Sprintf("deleting deployment: %v", err),
			},
		}, nil
	}

	ft.logger.Info("deployment removed",
		"trip", impact.Trip,
		"vehicle", *impact.Vehicle,
		"booking_pct", impact.BookingPct,
	)

	msg := fmt.Sprintf("Removed vehicle '%s' from trip '%s'.", *impact.Vehicle, impact.Trip)
	if impact.Driver != nil {
		msg = fmt.Sprintf("Removed vehicle '%s' and driver '%s' from trip '%s'.",
			*impact.Vehicle, *impact.Driver, impact.Trip)
	}

	return Result{
		Status:  StatusSuccess,
		Message: msg,
		Data: map[string]any{
			"trip":                      impact.Trip,
			"vehicle":                   *impact.Vehicle,
			"driver":                    impact.Driver,
			"booking_status_percentage": impact.BookingPct,
		},
	}, nil
}

// RemovalConsequence renders the warning shown to the operator before a
// booked trip loses its vehicle. The chat confirmation dialog, the REST 409
// body, and the MCP result all carry this exact text.
func RemovalConsequence(impact transit.RemovalImpact) string {
	return fmt.Sprintf(
		"WARNING: Trip '%s' on route '%s' is already ~%s%% booked. "+
			"Removing the vehicle will cancel these bookings and the trip-sheet will fail to generate.",
		impact.Trip, impact.Route, formatPct(impact.BookingPct))
}

func assignFailed(err error) (Result, error) {
	return Result{
		Status:  StatusError,
		Message: "Failed to update the deployment",
		Error: &Error{
			Code:    ErrCodeExecution,
			Message: fmt.Sprintf("updating deployment: %v", err),
		},
	}, nil
}

// formatPct renders booking percentages without a trailing ".0" so messages
// read "~25%" rather than "~25.000000%".
func formatPct(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func deref(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
