// Package tools provides the transit toolsets the assistant calls into.
//
// # Overview
//
// This package implements an extensible tool system that lets the model
// query and modify the transit database: trips, deployments, vehicles,
// drivers, stops, paths, and routes, plus a validated ad-hoc SQL fallback.
// All tools follow a consistent interface pattern and return a uniform
// Result envelope.
//
// # Architecture
//
// The package is organized around the Toolset interface:
//
//	type Toolset interface {
//	    Name() string
//	    Register(g *genkit.Genkit)
//	}
//
// Each toolset encapsulates related functionality:
//   - FleetToolset: trip and deployment operations for the bus dashboard
//   - NetworkToolset: stop, path, and route operations for the manage-route page
//   - QueryToolset: validated ad-hoc SQL (read and write modes)
//
// # Available Tools
//
// Fleet tools:
//   - count_unassigned_vehicles: count vehicles with no deployment
//   - list_unassigned_drivers: list drivers with no deployment
//   - get_trip_status: trip route, booking, live status, and deployment
//   - assign_vehicle_and_driver: create or update a deployment
//   - remove_vehicle_from_trip: clear a deployment (confirmation on booked trips)
//
// Network tools:
//   - list_stops_for_path: ordered stops of a path
//   - list_routes_for_path: routes configured on a path
//   - list_active_routes: routes with active status
//   - create_stop: add a stop
//   - create_path: add a path with ordered stops
//   - create_route: add an active route on a path
//
// Query tools:
//   - run_sql_query: validated SQL fallback for requests no structured tool covers
//
// # Error Handling
//
// Operational failures (unknown trip, duplicate route, blocked SQL) come
// back as Result values with Status == StatusError and a nil Go error, so
// the model can read the message and correct itself. Go errors are reserved
// for system failures and Genkit interrupts.
//
// # The Confirmation Flow
//
// remove_vehicle_from_trip is the one dangerous tool. When the target trip
// already has bookings and force is not set, the tool interrupts the Genkit
// run instead of deleting anything. The chat layer surfaces the interrupt to
// the operator as a yes/no confirmation and resumes the run with the
// decision. REST and MCP callers get the same two-step shape through
// FleetToolset.RemoveVehicle, which returns the consequence text as an
// ErrCodeConfirmation result.
//
// # Usage Example
//
//	fleet, err := tools.NewFleetToolset(store, logger)
//	if err != nil {
//	    return err
//	}
//	network, err := tools.NewNetworkToolset(store, logger)
//	if err != nil {
//	    return err
//	}
//	query, err := tools.NewQueryToolset(store, security.NewSQL(), logger)
//	if err != nil {
//	    return err
//	}
//	if err := tools.Register(g, fleet, network, query); err != nil {
//	    return err
//	}
package tools
