// Package transit is the data layer of the operator console: the transit
// network (stops, paths, routes) and the daily fleet operation (vehicles,
// drivers, trips, deployments) stored in SQLite.
//
// The Store exposes typed operations; presentation (tool messages, page
// rendering) lives with the callers. Errors are sentinel-based so callers
// can branch with errors.Is().
package transit

import (
	"context"
	"database/sql"
	"errors"
)

var (
	// ErrNotFound indicates the referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate indicates a unique constraint was violated.
	ErrDuplicate = errors.New("already exists")

	// ErrInvalid indicates the input failed validation.
	ErrInvalid = errors.New("invalid input")
)

// Directions a route can run: IN brings staff to the office, OUT returns them.
const (
	DirectionIn  = "IN"
	DirectionOut = "OUT"
)

// Route lifecycle states.
const (
	StatusActive      = "active"
	StatusDeactivated = "deactivated"
)

// Stop is a physical shuttle stop. Coordinates are optional: stops created
// implicitly while building a path start without them.
type Stop struct {
	ID        int64    `db:"stop_id" json:"stop_id"`
	Name      string   `db:"name" json:"name"`
	Latitude  *float64 `db:"latitude" json:"latitude,omitempty"`
	Longitude *float64 `db:"longitude" json:"longitude,omitempty"`
}

// Path is an ordered sequence of stops.
type Path struct {
	ID   int64  `db:"path_id" json:"path_id"`
	Name string `db:"path_name" json:"path_name"`
}

// Route is a service pattern over a path at a shift time.
// DisplayName is derived as "{path_name} - {shift_time}"; StartPoint and
// EndPoint are the path's first and last stop at creation time.
type Route struct {
	ID          int64   `db:"route_id" json:"route_id"`
	PathID      int64   `db:"path_id" json:"path_id"`
	DisplayName string  `db:"route_display_name" json:"route_display_name"`
	ShiftTime   string  `db:"shift_time" json:"shift_time"`
	Direction   string  `db:"direction" json:"direction"`
	StartPoint  *string `db:"start_point" json:"start_point,omitempty"`
	EndPoint    *string `db:"end_point" json:"end_point,omitempty"`
	Status      string  `db:"status" json:"status"`
}

// Vehicle is a bus or cab in the fleet.
type Vehicle struct {
	ID           int64  `db:"vehicle_id" json:"vehicle_id"`
	LicensePlate string `db:"license_plate" json:"license_plate"`
	Type         string `db:"type" json:"type"`
	Capacity     int    `db:"capacity" json:"capacity"`
}

// Driver is an operator available for deployments.
type Driver struct {
	ID          int64  `db:"driver_id" json:"driver_id"`
	Name        string `db:"name" json:"name"`
	PhoneNumber string `db:"phone_number" json:"phone_number"`
}

// Trip is a scheduled instance of a route.
type Trip struct {
	ID          int64   `db:"trip_id" json:"trip_id"`
	RouteID     int64   `db:"route_id" json:"route_id"`
	DisplayName string  `db:"display_name" json:"display_name"`
	BookingPct  float64 `db:"booking_status_percentage" json:"booking_status_percentage"`
	LiveStatus  *string `db:"live_status" json:"live_status,omitempty"`
}

// Deployment assigns a vehicle and driver to a trip. Vehicle and driver may
// be NULL after the underlying row is deleted (FK SET NULL).
type Deployment struct {
	ID        int64  `db:"deployment_id" json:"deployment_id"`
	TripID    int64  `db:"trip_id" json:"trip_id"`
	VehicleID *int64 `db:"vehicle_id" json:"vehicle_id,omitempty"`
	DriverID  *int64 `db:"driver_id" json:"driver_id,omitempty"`
}

// TripStatus is the operator-facing status of one trip.
type TripStatus struct {
	Trip       string  `db:"display_name" json:"trip"`
	Route      string  `db:"route_display_name" json:"route"`
	BookingPct float64 `db:"booking_status_percentage" json:"booking_pct"`
	LiveStatus *string `db:"live_status" json:"live_status,omitempty"`
	Vehicle    *string `db:"license_plate" json:"vehicle,omitempty"`
	Driver     *string `db:"driver_name" json:"driver,omitempty"`
}

// RemovalImpact is the read-only probe behind the vehicle-removal
// confirmation flow: what removing the vehicle from a trip would affect.
type RemovalImpact struct {
	TripID       int64   `db:"trip_id" json:"trip_id"`
	Trip         string  `db:"display_name" json:"trip"`
	Route        string  `db:"route_display_name" json:"route"`
	BookingPct   float64 `db:"booking_status_percentage" json:"booking_pct"`
	DeploymentID *int64  `db:"deployment_id" json:"deployment_id,omitempty"`
	Vehicle      *string `db:"license_plate" json:"vehicle,omitempty"`
	Driver       *string `db:"driver_name" json:"driver,omitempty"`
}

// HasVehicle reports whether the trip currently has a vehicle deployed.
// A deployment row whose vehicle was deleted (FK SET NULL) counts as
// unassigned.
func (ri RemovalImpact) HasVehicle() bool {
	return ri.DeploymentID != nil && ri.Vehicle != nil
}

// DashboardRow is one line of the bus dashboard page.
type DashboardRow struct {
	Trip       string  `db:"trip" json:"trip"`
	Route      string  `db:"route" json:"route"`
	Vehicle    *string `db:"vehicle" json:"vehicle,omitempty"`
	Driver     *string `db:"driver" json:"driver,omitempty"`
	BookingPct float64 `db:"booking_pct" json:"booking_pct"`
	LiveStatus *string `db:"live_status" json:"live_status,omitempty"`
}

// RouteOverviewRow is one line of the manage-route page.
type RouteOverviewRow struct {
	PathName    string  `db:"path_name" json:"path_name"`
	DisplayName string  `db:"route_display_name" json:"route_display_name"`
	ShiftTime   string  `db:"shift_time" json:"shift_time"`
	Direction   string  `db:"direction" json:"direction"`
	StartPoint  *string `db:"start_point" json:"start_point,omitempty"`
	EndPoint    *string `db:"end_point" json:"end_point,omitempty"`
	Status      string  `db:"status" json:"status"`
}

// executor abstracts database operations shared by *sqlx.DB and *sqlx.Tx.
type executor interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
