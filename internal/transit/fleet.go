package transit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// UnassignedVehicles returns vehicles that are not part of any deployment,
// ordered by license plate.
func (s *Store) UnassignedVehicles(ctx context.Context) ([]Vehicle, error) {
	var vehicles []Vehicle
	err := s.db.SelectContext(ctx, &vehicles, `
		SELECT vehicle_id, license_plate, type, capacity
		FROM vehicles
		WHERE vehicle_id NOT IN (
			SELECT vehicle_id FROM deployments WHERE vehicle_id IS NOT NULL
		)
		ORDER BY license_plate`)
	if err != nil {
		return nil, fmt.Errorf("list unassigned vehicles: %w", err)
	}
	return vehicles, nil
}

// UnassignedDrivers returns drivers that are not part of any deployment,
// ordered by name.
func (s *Store) UnassignedDrivers(ctx context.Context) ([]Driver, error) {
	var drivers []Driver
	err := s.db.SelectContext(ctx, &drivers, `
		SELECT driver_id, name, phone_number
		FROM drivers
		WHERE driver_id NOT IN (
			SELECT driver_id FROM deployments WHERE driver_id IS NOT NULL
		)
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list unassigned drivers: %w", err)
	}
	return drivers, nil
}

// TripByName looks up a daily trip by its unique display name.
func (s *Store) TripByName(ctx context.Context, displayName string) (*Trip, error) {
	var t Trip
	err := s.db.GetContext(ctx, &t, `
		SELECT trip_id, route_id, display_name, booking_status_percentage, live_status
		FROM daily_trips WHERE display_name = ?`, displayName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("trip %q: %w", displayName, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get trip: %w", err)
	}
	return &t, nil
}

// VehicleByPlate looks up a vehicle by its license plate.
func (s *Store) VehicleByPlate(ctx context.Context, plate string) (*Vehicle, error) {
	var v Vehicle
	err := s.db.GetContext(ctx, &v, `
		SELECT vehicle_id, license_plate, type, capacity
		FROM vehicles WHERE license_plate = ?`, plate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("vehicle %q: %w", plate, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get vehicle: %w", err)
	}
	return &v, nil
}

// DriverByName looks up a driver by name.
func (s *Store) DriverByName(ctx context.Context, name string) (*Driver, error) {
	var d Driver
	err := s.db.GetContext(ctx, &d, `
		SELECT driver_id, name, phone_number
		FROM drivers WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("driver %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get driver: %w", err)
	}
	return &d, nil
}

// TripStatusByName returns the operational status of a trip: route, booking
// level, live status and the deployed vehicle and driver if any.
func (s *Store) TripStatusByName(ctx context.Context, displayName string) (*TripStatus, error) {
	var st TripStatus
	err := s.db.GetContext(ctx, &st, `
		SELECT t.display_name, r.route_display_name, t.booking_status_percentage,
		       t.live_status, v.license_plate, dr.name AS driver_name
		FROM daily_trips t
		JOIN routes r ON r.route_id = t.route_id
		LEFT JOIN deployments d ON d.trip_id = t.trip_id
		LEFT JOIN vehicles v ON v.vehicle_id = d.vehicle_id
		LEFT JOIN drivers dr ON dr.driver_id = d.driver_id
		WHERE t.display_name = ?`, displayName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("trip %q: %w", displayName, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get trip status: %w", err)
	}
	return &st, nil
}

// UpsertDeployment assigns a vehicle and driver to a trip. Each trip has at
// most one deployment, so an existing row is updated in place. The updated
// return reports which case happened.
func (s *Store) UpsertDeployment(ctx context.Context, tripID, vehicleID, driverID int64) (updated bool, err error) {
	var existingID int64
	err = s.db.GetContext(ctx, &existingID,
		`SELECT deployment_id FROM deployments WHERE trip_id = ?`, tripID)
	switch {
	case err == nil:
		_, err = s.db.ExecContext(ctx,
			`UPDATE deployments SET vehicle_id = ?, driver_id = ? WHERE deployment_id = ?`,
			vehicleID, driverID, existingID)
		if err != nil {
			return false, fmt.Errorf("update deployment: %w", err)
		}
		s.logger.Info("deployment updated", "trip_id", tripID, "vehicle_id", vehicleID, "driver_id", driverID)
		return true, nil
	case errors.Is(err, sql.ErrNoRows):
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO deployments (trip_id, vehicle_id, driver_id) VALUES (?, ?, ?)`,
			tripID, vehicleID, driverID)
		if err != nil {
			return false, fmt.Errorf("insert deployment: %w", err)
		}
		s.logger.Info("deployment created", "trip_id", tripID, "vehicle_id", vehicleID, "driver_id", driverID)
		return false, nil
	default:
		return false, fmt.Errorf("check deployment: %w", err)
	}
}

// RemovalImpactByTrip reports what removing the vehicle from a trip would
// affect. It is the read-only probe the confirmation flow is built on: the
// caller decides whether to warn, then deletes via DeleteDeployment.
func (s *Store) RemovalImpactByTrip(ctx context.Context, displayName string) (*RemovalImpact, error) {
	var ri RemovalImpact
	err := s.db.GetContext(ctx, &ri, `
		SELECT t.trip_id, t.display_name, r.route_display_name,
		       t.booking_status_percentage, d.deployment_id,
		       v.license_plate, dr.name AS driver_name
		FROM daily_trips t
		JOIN routes r ON r.route_id = t.route_id
		LEFT JOIN deployments d ON d.trip_id = t.trip_id
		LEFT JOIN vehicles v ON v.vehicle_id = d.vehicle_id
		LEFT JOIN drivers dr ON dr.driver_id = d.driver_id
		WHERE t.display_name = ?`, displayName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("trip %q: %w", displayName, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get removal impact: %w", err)
	}
	return &ri, nil
}

// DeleteDeployment removes a single deployment row. Returns ErrNotFound if
// the row is already gone.
func (s *Store) DeleteDeployment(ctx context.Context, deploymentID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM deployments WHERE deployment_id = ?`, deploymentID)
	if err != nil {
		return fmt.Errorf("delete deployment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete deployment rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("deployment %d: %w", deploymentID, ErrNotFound)
	}

	s.logger.Info("deployment deleted", "deployment_id", deploymentID)
	return nil
}

// Dashboard returns one row per daily trip with the deployed vehicle and
// driver, ordered by trip name. This backs the bus dashboard page.
func (s *Store) Dashboard(ctx context.Context) ([]DashboardRow, error) {
	var rows []DashboardRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT t.display_name AS trip, r.route_display_name AS route,
		       v.license_plate AS vehicle, dr.name AS driver,
		       t.booking_status_percentage AS booking_pct,
		       t.live_status
		FROM daily_trips t
		JOIN routes r ON r.route_id = t.route_id
		LEFT JOIN deployments d ON d.trip_id = t.trip_id
		LEFT JOIN vehicles v ON v.vehicle_id = d.vehicle_id
		LEFT JOIN drivers dr ON dr.driver_id = d.driver_id
		ORDER BY t.display_name`)
	if err != nil {
		return nil, fmt.Errorf("load dashboard: %w", err)
	}
	return rows, nil
}

// RoutesOverview returns every route joined with its path, ordered by path
// then shift time. This backs the manage-routes page.
func (s *Store) RoutesOverview(ctx context.Context) ([]RouteOverviewRow, error) {
	var rows []RouteOverviewRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT p.path_name, r.route_display_name, r.shift_time, r.direction,
		       r.start_point, r.end_point, r.status
		FROM routes r
		JOIN paths p ON p.path_id = r.path_id
		ORDER BY p.path_name, r.shift_time`)
	if err != nil {
		return nil, fmt.Errorf("load routes overview: %w", err)
	}
	return rows, nil
}
