// Package routes holds the immutable catalog of shipping routes.
package routes

import (
	"errors"
	"fmt"
	"slices"

	"github.com/autopeer-io/fleetcast/internal/fleethub/core/model"
)

// Catalog is safe for concurrent readers. Nothing mutates it after New.
type Catalog struct {
	routes []*model.Route
	byName map[string]*model.Route
	byType map[model.VesselType][]*model.Route
}

// New validates routes and indexes them by name and eligible type.
func New(routes []model.Route) (*Catalog, error) {
	c := &Catalog{
		byName: make(map[string]*model.Route, len(routes)),
		byType: make(map[model.VesselType][]*model.Route),
	}

	var errs []error
	for i := range routes {
		r := routes[i]
		if err := validate(&r); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := c.byName[r.Name]; dup {
			errs = append(errs, fmt.Errorf("route %q: duplicate name", r.Name))
			continue
		}

		r.Waypoints = slices.Clone(r.Waypoints)
		r.EligibleTypes = slices.Clone(r.EligibleTypes)

		c.routes = append(c.routes, &r)
		c.byName[r.Name] = &r
		for _, t := range r.EligibleTypes {
			c.byType[t] = append(c.byType[t], &r)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return c, nil
}

func validate(r *model.Route) error {
	if r.Name == "" {
		return errors.New("route without a name")
	}
	if len(r.Waypoints) < 2 {
		return fmt.Errorf("route %q: needs at least two waypoints", r.Name)
	}
	for i, w := range r.Waypoints {
		if !w.Position().Valid() {
			return fmt.Errorf("route %q: waypoint %d (%s) out of range", r.Name, i, w.Name)
		}
	}
	if len(r.EligibleTypes) == 0 {
		return fmt.Errorf("route %q: no eligible vessel types", r.Name)
	}
	for _, t := range r.EligibleTypes {
		if !t.Valid() {
			return fmt.Errorf("route %q: unknown vessel type %q", r.Name, t)
		}
	}
	return nil
}

// RoutesFor returns the routes a vessel of type t may follow. An empty result
// means the vessel moves randomly. Callers must not modify the slice.
func (c *Catalog) RoutesFor(t model.VesselType) []*model.Route {
	return c.byType[t]
}

// Get looks a route up by name.
func (c *Catalog) Get(name string) (*model.Route, bool) {
	r, ok := c.byName[name]
	return r, ok
}

// All returns every route in load order.
func (c *Catalog) All() []*model.Route {
	return c.routes
}

func (c *Catalog) Len() int {
	return len(c.routes)
}
