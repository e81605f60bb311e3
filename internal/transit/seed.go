package transit

import (
	"context"
	"fmt"
)

// Seed populates the database with demo data on first run. It is a no-op
// when the stops table already has rows, so restarting the server never
// duplicates or resets operator changes.
func (s *Store) Seed(ctx context.Context) error {
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM stops`); err != nil {
		return fmt.Errorf("check seed state: %w", err)
	}
	if count > 0 {
		s.logger.Debug("database already seeded", "stops", count)
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stops := []struct {
		name     string
		lat, lng float64
	}{
		{"Gavipuram", 12.942, 77.566},
		{"Temple", 12.945, 77.568},
		{"Peenya", 13.020, 77.515},
		{"Majestic", 12.978, 77.572},
		{"Tech Park", 12.997, 77.700},
	}
	for _, st := range stops {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO stops (name, latitude, longitude) VALUES (?, ?, ?)`,
			st.name, st.lat, st.lng); err != nil {
			return fmt.Errorf("seed stop %q: %w", st.name, err)
		}
	}

	paths := map[string][]string{
		"Path-1": {"Gavipuram", "Temple", "Peenya"},
		"Path-2": {"Peenya", "Majestic", "Tech Park"},
	}
	pathIDs := make(map[string]int64, len(paths))
	for _, name := range []string{"Path-1", "Path-2"} {
		res, err := tx.ExecContext(ctx, `INSERT INTO paths (path_name) VALUES (?)`, name)
		if err != nil {
			return fmt.Errorf("seed path %q: %w", name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("seed path id: %w", err)
		}
		pathIDs[name] = id

		for i, stopName := range paths[name] {
			stopID, err := resolveStopID(ctx, tx, stopName)
			if err != nil {
				return fmt.Errorf("seed path %q: %w", name, err)
			}
			if err := linkPathStop(ctx, tx, id, stopID, i+1); err != nil {
				return fmt.Errorf("seed path %q: %w", name, err)
			}
		}
	}

	routes := []struct {
		path      string
		shift     string
		direction string
	}{
		{"Path-1", "08:30", DirectionIn},
		{"Path-1", "19:45", DirectionOut},
		{"Path-2", "19:45", DirectionIn},
	}
	routeIDs := make(map[string]int64, len(routes))
	for _, r := range routes {
		stopNames := paths[r.path]
		display := fmt.Sprintf("%s - %s", r.path, r.shift)
		res, err := tx.ExecContext(ctx, `
			INSERT INTO routes (path_id, route_display_name, shift_time, direction,
			                    start_point, end_point, status)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			pathIDs[r.path], display, r.shift, r.direction,
			stopNames[0], stopNames[len(stopNames)-1], StatusActive)
		if err != nil {
			return fmt.Errorf("seed route %q: %w", display, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("seed route id: %w", err)
		}
		routeIDs[display] = id
	}

	vehicles := []struct {
		plate    string
		kind     string
		capacity int
	}{
		{"KA-01-1111", "Bus", 40},
		{"MH-12-3456", "Bus", 40},
		{"KA-05-9999", "Cab", 4},
	}
	vehicleIDs := make(map[string]int64, len(vehicles))
	for _, v := range vehicles {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO vehicles (license_plate, type, capacity) VALUES (?, ?, ?)`,
			v.plate, v.kind, v.capacity)
		if err != nil {
			return fmt.Errorf("seed vehicle %q: %w", v.plate, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("seed vehicle id: %w", err)
		}
		vehicleIDs[v.plate] = id
	}

	drivers := []struct {
		name  string
		phone string
	}{
		{"Amit", "9999990001"},
		{"Rahul", "9999990002"},
		{"Sneha", "9999990003"},
	}
	driverIDs := make(map[string]int64, len(drivers))
	for _, d := range drivers {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO drivers (name, phone_number) VALUES (?, ?)`,
			d.name, d.phone)
		if err != nil {
			return fmt.Errorf("seed driver %q: %w", d.name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("seed driver id: %w", err)
		}
		driverIDs[d.name] = id
	}

	trips := []struct {
		display string
		route   string
		booking float64
		live    string
	}{
		{"Bulk - 00:01", "Path-1 - 08:30", 25.0, "00:01 IN"},
		{"Bulk - 00:02", "Path-1 - 08:30", 0.0, "00:02 IN"},
		{"Path Path - 00:02", "Path-2 - 19:45", 10.0, "00:02 OUT"},
	}
	tripIDs := make(map[string]int64, len(trips))
	for _, t := range trips {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO daily_trips (route_id, display_name, booking_status_percentage, live_status)
			VALUES (?, ?, ?, ?)`,
			routeIDs[t.route], t.display, t.booking, t.live)
		if err != nil {
			return fmt.Errorf("seed trip %q: %w", t.display, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("seed trip id: %w", err)
		}
		tripIDs[t.display] = id
	}

	// Bulk - 00:02 stays unassigned so the demo has a spare cab and driver.
	deployments := []struct {
		trip    string
		vehicle string
		driver  string
	}{
		{"Bulk - 00:01", "KA-01-1111", "Amit"},
		{"Path Path - 00:02", "MH-12-3456", "Rahul"},
	}
	for _, d := range deployments {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO deployments (trip_id, vehicle_id, driver_id) VALUES (?, ?, ?)`,
			tripIDs[d.trip], vehicleIDs[d.vehicle], driverIDs[d.driver]); err != nil {
			return fmt.Errorf("seed deployment for %q: %w", d.trip, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}

	s.logger.Info("database seeded",
		"stops", len(stops), "paths", len(paths), "routes", len(routes),
		"vehicles", len(vehicles), "drivers", len(drivers), "trips", len(trips))
	return nil
}
