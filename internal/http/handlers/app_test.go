package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"fundraiser/internal/domain"
	"fundraiser/internal/service"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.Fail(domain.ErrTooManyActiveCampaigns), http.StatusUnprocessableEntity},
		{domain.Fail(domain.ErrCampaignNotFound, "campaign", 1), http.StatusNotFound},
		{domain.Fail(domain.ErrDuplicatedCampaign), http.StatusConflict},
		{domain.Fail(domain.ErrLockedCampaign), http.StatusConflict},
		{domain.Fail(domain.ErrInvalidAmount), http.StatusBadRequest},
		{domain.Fail(domain.ErrUnauthorized), http.StatusForbidden},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := statusFor(domain.CategoryOf(tc.err)); got != tc.want {
			t.Fatalf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestFailWritesProblem(t *testing.T) {
	a := NewApp(nil, zerolog.Nop(), 0)
	rec := httptest.NewRecorder()
	a.fail(rec, httptest.NewRequest(http.MethodGet, "/", nil), domain.Fail(domain.ErrCampaignNotFound, "campaign", 7))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("content type = %q", ct)
	}
	var p problem
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Code != "campaign_not_found" || p.Fields["campaign"] != "7" || p.Title != "Not Found" {
		t.Fatalf("problem = %+v", p)
	}
}

func TestFailHidesInternalErrors(t *testing.T) {
	a := NewApp(nil, zerolog.Nop(), 0)

	rec := httptest.NewRecorder()
	a.fail(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("pg: connection reset"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	var p problem
	_ = json.Unmarshal(rec.Body.Bytes(), &p)
	if p.Detail != "internal error" {
		t.Fatalf("detail leaked: %q", p.Detail)
	}

	rec = httptest.NewRecorder()
	a.fail(rec, httptest.NewRequest(http.MethodGet, "/", nil), fmt.Errorf("%w: journal down", service.ErrUnavailable))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("unavailable status = %d", rec.Code)
	}
}
