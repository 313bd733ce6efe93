package router

import (
	"sort"

	"mangazone-api/internal/transport/http/ez"
)

// A module implements one or both of these to expose endpoints.
type APIModule interface{ MountAPI(api ez.EZ) }
type AdminModule interface{ MountAdmin(admin ez.EZ) }

// Modules implementing prioritizer mount in ascending order; the rest
// default to 100.
type prioritizer interface{ Priority() int }

// Registry collects the modules of one engine.
type Registry struct {
	api   []APIModule
	admin []AdminModule
}

// Add sorts each module into the API and/or admin list by the interfaces
// it implements. Anything else is ignored.
func (r *Registry) Add(mods ...any) {
	for _, mod := range mods {
		if m, ok := mod.(APIModule); ok {
			r.api = append(r.api, m)
		}
		if m, ok := mod.(AdminModule); ok {
			r.admin = append(r.admin, m)
		}
	}
}

func (r *Registry) MountAPI(api ez.EZ) {
	for _, m := range byPriority(r.api) {
		m.MountAPI(api)
	}
}

func (r *Registry) MountAdmin(admin ez.EZ) {
	for _, m := range byPriority(r.admin) {
		m.MountAdmin(admin)
	}
}

func byPriority[M any](mods []M) []M {
	out := append([]M(nil), mods...)
	sort.SliceStable(out, func(i, j int) bool {
		return priorityOf(out[i]) < priorityOf(out[j])
	})
	return out
}

func priorityOf(v any) int {
	if p, ok := v.(prioritizer); ok {
		return p.Priority()
	}
	return 100
}
