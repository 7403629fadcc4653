// Package httpkit provides handler and routing helpers that alias the platform http package
// use these from modules so they do not import internal/platform/net/http directly
package httpkit

import (
	"net/http"

	phttp "stopsearch/internal/platform/net/http"
)

type (
	// Router is a re-export of the platform router seam
	Router = phttp.Router

	// Handler is the platform handler type
	Handler = phttp.Handler

	// Response is the HTTP response type
	Response = phttp.Response
)

// List wraps a result slice with its count
type List[T any] = phttp.List[T]

// NewList builds a List; nil items encode as an empty array
func NewList[T any](items []T) List[T] { return phttp.NewList(items) }

// Get mounts a handler without query input under GET
func Get(r Router, path string, h func(*http.Request) (any, error)) { phttp.GetJSON(r, path, h) }

// GetQuery mounts a handler whose query string is bound and validated into T
func GetQuery[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	phttp.GetQuery(r, path, h)
}

// Param returns a path parameter by name
func Param(r *http.Request, name string) string { return phttp.PathParam(r, name) }
