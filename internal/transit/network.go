package transit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNoStops indicates a path exists but has no stops linked to it, so it
// cannot anchor a route.
var ErrNoStops = errors.New("path has no stops configured")

// PathByName looks up a path by its unique name.
func (s *Store) PathByName(ctx context.Context, name string) (*Path, error) {
	var p Path
	err := s.db.GetContext(ctx, &p, `SELECT path_id, path_name FROM paths WHERE path_name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("path %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get path: %w", err)
	}
	return &p, nil
}

// StopsForPath returns the stops of a path in sequence order.
// Returns ErrNotFound if the path does not exist and an empty slice if the
// path has no stops linked.
func (s *Store) StopsForPath(ctx context.Context, pathName string) ([]Stop, error) {
	p, err := s.PathByName(ctx, pathName)
	if err != nil {
		return nil, err
	}

	var stops []Stop
	err = s.db.SelectContext(ctx, &stops, `
		SELECT st.stop_id, st.name, st.latitude, st.longitude
		FROM path_stops ps
		JOIN stops st ON st.stop_id = ps.stop_id
		WHERE ps.path_id = ?
		ORDER BY ps.seq`, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list stops for path: %w", err)
	}
	return stops, nil
}

// RoutesForPath returns all routes that run over the named path, ordered by
// shift time. A missing path yields an empty slice, not an error: callers
// phrase both the same way.
func (s *Store) RoutesForPath(ctx context.Context, pathName string) ([]Route, error) {
	var routes []Route
	err := s.db.SelectContext(ctx, &routes, `
		SELECT r.route_id, r.path_id, r.route_display_name, r.shift_time,
		       r.direction, r.start_point, r.end_point, r.status
		FROM routes r
		JOIN paths p ON p.path_id = r.path_id
		WHERE p.path_name = ?
		ORDER BY r.shift_time, r.route_display_name`, pathName)
	if err != nil {
		return nil, fmt.Errorf("list routes for path: %w", err)
	}
	return routes, nil
}

// ActiveRoutes returns every route whose status is active, ordered by shift
// time.
func (s *Store) ActiveRoutes(ctx context.Context) ([]Route, error) {
	var routes []Route
	err := s.db.SelectContext(ctx, &routes, `
		SELECT route_id, path_id, route_display_name, shift_time,
		       direction, start_point, end_point, status
		FROM routes
		WHERE status = ?
		ORDER BY shift_time, route_display_name`, StatusActive)
	if err != nil {
		return nil, fmt.Errorf("list active routes: %w", err)
	}
	return routes, nil
}

// Stops returns all stops ordered by name.
func (s *Store) Stops(ctx context.Context) ([]Stop, error) {
	var stops []Stop
	err := s.db.SelectContext(ctx, &stops, `
		SELECT stop_id, name, latitude, longitude FROM stops ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list stops: %w", err)
	}
	return stops, nil
}

// Paths returns all paths ordered by name.
func (s *Store) Paths(ctx context.Context) ([]Path, error) {
	var paths []Path
	err := s.db.SelectContext(ctx, &paths, `
		SELECT path_id, path_name FROM paths ORDER BY path_name`)
	if err != nil {
		return nil, fmt.Errorf("list paths: %w", err)
	}
	return paths, nil
}

// CreateStop inserts a new stop. Coordinates are optional.
// Returns ErrDuplicate if a stop with the same name exists.
func (s *Store) CreateStop(ctx context.Context, name string, lat, lng *float64) (*Stop, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("stop name is required: %w", ErrInvalid)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO stops (name, latitude, longitude) VALUES (?, ?, ?)`, name, lat, lng)
	if isUniqueViolation(err, "stops.name") {
		return nil, fmt.Errorf("stop %q: %w", name, ErrDuplicate)
	}
	if err != nil {
		return nil, fmt.Errorf("create stop: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create stop id: %w", err)
	}

	s.logger.Info("stop created", "stop", name, "id", id)
	return &Stop{ID: id, Name: name, Latitude: lat, Longitude: lng}, nil
}

// CreatePath inserts a path and links its stops in order. Stops that do not
// exist yet are created on the fly. Returns ErrInvalid when stopNames is
// empty and ErrDuplicate when the path name is taken.
func (s *Store) CreatePath(ctx context.Context, name string, stopNames []string) (*Path, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("path name is required: %w", ErrInvalid)
	}
	if len(stopNames) == 0 {
		return nil, fmt.Errorf("at least one stop is required: %w", ErrInvalid)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin path tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `INSERT INTO paths (path_name) VALUES (?)`, name)
	if isUniqueViolation(err, "paths.path_name") {
		return nil, fmt.Errorf("path %q: %w", name, ErrDuplicate)
	}
	if err != nil {
		return nil, fmt.Errorf("create path: %w", err)
	}
	pathID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create path id: %w", err)
	}

	for i, stopName := range stopNames {
		stopName = strings.TrimSpace(stopName)
		if stopName == "" {
			return nil, fmt.Errorf("stop name at position %d is empty: %w", i+1, ErrInvalid)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO stops (name) VALUES (?)`, stopName); err != nil {
			return nil, fmt.Errorf("ensure stop %q: %w", stopName, err)
		}
		stopID, err := resolveStopID(ctx, tx, stopName)
		if err != nil {
			return nil, err
		}
		if err := linkPathStop(ctx, tx, pathID, stopID, i+1); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit path tx: %w", err)
	}

	s.logger.Info("path created", "path", name, "stops", len(stopNames))
	return &Path{ID: pathID, Name: name}, nil
}

// CreateRoute inserts a route over an existing path. The display name is
// derived as "{path} - {shift}" and the endpoints are the path's first and
// last stop. Returns ErrNotFound for an unknown path, ErrNoStops for a path
// without stops and ErrDuplicate for a display-name collision.
func (s *Store) CreateRoute(ctx context.Context, pathName, shiftTime, direction string) (*Route, error) {
	direction = strings.ToUpper(strings.TrimSpace(direction))
	if direction != DirectionIn && direction != DirectionOut {
		return nil, fmt.Errorf("direction must be %s or %s: %w", DirectionIn, DirectionOut, ErrInvalid)
	}
	shiftTime = strings.TrimSpace(shiftTime)
	if _, err := time.Parse("15:04", shiftTime); err != nil {
		return nil, fmt.Errorf("shift time must be HH:MM: %w", ErrInvalid)
	}

	p, err := s.PathByName(ctx, pathName)
	if err != nil {
		return nil, err
	}

	stopNames, err := pathStopNames(ctx, s.db, p.ID)
	if err != nil {
		return nil, err
	}
	if len(stopNames) == 0 {
		return nil, fmt.Errorf("path %q: %w", pathName, ErrNoStops)
	}

	displayName := fmt.Sprintf("%s - %s", pathName, shiftTime)
	start := stopNames[0]
	end := stopNames[len(stopNames)-1]

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO routes (path_id, route_display_name, shift_time, direction,
		                    start_point, end_point, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, displayName, shiftTime, direction, start, end, StatusActive)
	if isUniqueViolation(err, "routes.route_display_name") {
		return nil, fmt.Errorf("route %q: %w", displayName, ErrDuplicate)
	}
	if err != nil {
		return nil, fmt.Errorf("create route: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create route id: %w", err)
	}

	s.logger.Info("route created", "route", displayName, "direction", direction)
	return &Route{
		ID:          id,
		PathID:      p.ID,
		DisplayName: displayName,
		ShiftTime:   shiftTime,
		Direction:   direction,
		StartPoint:  &start,
		EndPoint:    &end,
		Status:      StatusActive,
	}, nil
}

// resolveStopID looks up a stop id by name on whichever executor holds the
// row, the pool or an open transaction.
func resolveStopID(ctx context.Context, ex executor, name string) (int64, error) {
	var stopID int64
	if err := ex.GetContext(ctx, &stopID,
		`SELECT stop_id FROM stops WHERE name = ?`, name); err != nil {
		return 0, fmt.Errorf("resolve stop %q: %w", name, err)
	}
	return stopID, nil
}

// linkPathStop appends a stop to a path at the given sequence position.
func linkPathStop(ctx context.Context, ex executor, pathID, stopID int64, seq int) error {
	if _, err := ex.ExecContext(ctx,
		`INSERT INTO path_stops (path_id, stop_id, seq) VALUES (?, ?, ?)`,
		pathID, stopID, seq); err != nil {
		return fmt.Errorf("link stop %d to path %d: %w", stopID, pathID, err)
	}
	return nil
}

// pathStopNames returns the stop names of a path in sequence order.
func pathStopNames(ctx context.Context, ex executor, pathID int64) ([]string, error) {
	var names []string
	err := ex.SelectContext(ctx, &names, `
		SELECT st.name
		FROM path_stops ps
		JOIN stops st ON st.stop_id = ps.stop_id
		WHERE ps.path_id = ?
		ORDER BY ps.seq`, pathID)
	if err != nil {
		return nil, fmt.Errorf("list stops for path: %w", err)
	}
	return names, nil
}
