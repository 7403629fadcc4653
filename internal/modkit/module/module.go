// Package module defines the minimal contract for a modkit module
package module

import (
	phttp "stopsearch/internal/platform/net/http"
)

// Module is what every service module exposes to main for cross wiring
type Module interface {
	Ports() any
	Name() string
}

// Mounter is implemented by modules that serve HTTP routes
type Mounter interface {
	Module
	MountRoutes(r phttp.Router)
}

// MountAll mounts every module that serves routes and skips the rest
func MountAll(r phttp.Router, mods ...Module) {
	for _, m := range mods {
		if mm, ok := m.(Mounter); ok {
			mm.MountRoutes(r)
		}
	}
}
