package httpkit

import (
	"net/http"

	pstrings "stopsearch/internal/platform/strings"
)

// MountVersion mounts a subrouter under /{version}, applies any per-scope middleware,
// then invokes mount to register routes on that scoped router
//
// example:
//
//	httpkit.MountVersion(r, "v1", nil, func(api httpkit.Router) {
//	  stops.MountRoutes(api)
//	})
func MountVersion(r Router, version string, mw []func(http.Handler) http.Handler, mount func(Router)) {
	r.Route(pstrings.MustPrefix(version), func(api Router) {
		if len(mw) > 0 {
			api.Use(mw...)
		}
		mount(api)
	})
}
