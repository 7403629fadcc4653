package net_test

import (
	"context"
	"net/http"
	"testing"

	perr "stopsearch/internal/platform/errors"
	pnet "stopsearch/internal/platform/net"
)

func TestOK(t *testing.T) {
	status, w := pnet.OK([]int{1}, "r1")
	if status != http.StatusOK || w.StatusCode != 200 || w.Status != "OK" || w.RequestID != "r1" {
		t.Fatalf("unexpected envelope %+v", w)
	}
}

func TestErrorMapsCodeAndField(t *testing.T) {
	err := perr.WithField(perr.Newf(perr.ErrorCodeValidation, "limit must be at most 1000"), "limit")
	status, w := pnet.Error(err, "r2")
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d", status)
	}
	if w.Code != perr.ErrorCodeValidation || w.Field != "limit" || w.Error != "limit must be at most 1000" {
		t.Fatalf("unexpected envelope %+v", w)
	}

	status, w = pnet.Error(nil, "")
	if status != http.StatusOK || w.Error != "" {
		t.Fatalf("nil error should be OK, got %d %+v", status, w)
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := pnet.WithRequest(context.Background(), "abc")
	if got := pnet.RequestID(ctx); got != "abc" {
		t.Fatalf("RequestID = %q", got)
	}
	if got := pnet.RequestID(pnet.WithRequest(context.Background(), "")); got != "" {
		t.Fatalf("empty id should not be stored, got %q", got)
	}
}
