// Package http provides http transport for the stop and search read API
package http

import (
	stdhttp "net/http"
	"net/url"

	"stopsearch/internal/modkit/httpkit"
	perr "stopsearch/internal/platform/errors"
	"stopsearch/internal/services/api/stops/domain"
)

// Register mounts read endpoints on the given router
func Register(r httpkit.Router, s domain.ServicePort) {
	h := &handlers{svc: s}

	httpkit.GetQuery(r, "/stops", h.byMonth)
	httpkit.GetQuery(r, "/stops/near", h.near)
	httpkit.GetQuery(r, "/stops/outcome/{outcome}", h.byOutcome)
	httpkit.GetQuery(r, "/stops/type/{type}", h.byType)
	httpkit.Get(r, "/stats/summary", h.summary)
}

type handlers struct{ svc domain.ServicePort }

// @Summary Stops that occurred in a month
// @Param month query string true "YYYY-MM"
// @Param force query string false "force id"
// @Param limit query int false "max rows, default 100"
// @Router /v1/stops [get]
func (h *handlers) byMonth(r *stdhttp.Request, in domain.ByMonthInput) (any, error) {
	out, err := h.svc.ByMonth(r.Context(), in)
	if err != nil {
		return nil, err
	}
	return httpkit.NewList(out), nil
}

// @Router /v1/stops/outcome/{outcome} [get]
func (h *handlers) byOutcome(r *stdhttp.Request, in domain.LimitInput) (any, error) {
	outcome, err := pathValue(r, "outcome")
	if err != nil {
		return nil, err
	}
	out, err := h.svc.ByOutcome(r.Context(), outcome, in)
	if err != nil {
		return nil, err
	}
	return httpkit.NewList(out), nil
}

// @Router /v1/stops/type/{type} [get]
func (h *handlers) byType(r *stdhttp.Request, in domain.LimitInput) (any, error) {
	st, err := pathValue(r, "type")
	if err != nil {
		return nil, err
	}
	out, err := h.svc.ByType(r.Context(), st, in)
	if err != nil {
		return nil, err
	}
	return httpkit.NewList(out), nil
}

// @Summary Stops inside a rough box around a point
// @Router /v1/stops/near [get]
func (h *handlers) near(r *stdhttp.Request, in domain.NearInput) (any, error) {
	out, err := h.svc.Near(r.Context(), in)
	if err != nil {
		return nil, err
	}
	return httpkit.NewList(out), nil
}

// @Router /v1/stats/summary [get]
func (h *handlers) summary(r *stdhttp.Request) (any, error) {
	return h.svc.Summary(r.Context())
}

// pathValue returns a decoded path parameter; outcomes and types carry spaces
func pathValue(r *stdhttp.Request, name string) (string, error) {
	v, err := url.PathUnescape(httpkit.Param(r, name))
	if err != nil {
		return "", perr.WithField(perr.InvalidArgf("%s is not a valid path value", name), name)
	}
	return v, nil
}
