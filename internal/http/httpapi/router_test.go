package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundraiser/internal/access"
	"fundraiser/internal/adapter/repo"
	"fundraiser/internal/http/handlers"
	"fundraiser/internal/middleware"
	"fundraiser/internal/notify"
	"fundraiser/internal/registry"
	"fundraiser/internal/service"
)

const (
	testSecret = "test-secret"
	testIssuer = "fundraiser"
	testOwner  = "owner-1"
)

type harness struct {
	t       *testing.T
	handler http.Handler
	token   string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	svc, err := service.New(context.Background(), service.Options{
		Name: "test",
		Limits: registry.Limits{
			MaxActiveCampaigns:   10,
			MaxSelectLimit:       5,
			DonationUpdatesLimit: 2,
			MaxTotalCampaigns:    100,
		},
		Auth:     access.NewOwner(testOwner),
		Notifier: notify.Discard{},
		Journal:  repo.NewMemoryJournal(),
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)

	locales, err := middleware.NewLocales("en", middleware.DefaultLocales...)
	require.NoError(t, err)

	app := handlers.NewApp(svc, zerolog.Nop(), 0)
	h := NewRouter(app, Options{
		Logger:        zerolog.Nop(),
		JWTSecret:     testSecret,
		JWTIssuer:     testIssuer,
		CORSOrigins:   []string{"*"},
		RatePerMinute: 1000,
		Locales:       locales,
	})
	return &harness{t: t, handler: h, token: sign(t, testOwner)}
}

func sign(t *testing.T, subject string) string {
	t.Helper()
	tok, err := middleware.SignJWT(testSecret, testIssuer, subject, time.Hour)
	require.NoError(t, err)
	return tok
}

func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "203.0.113.7:5555"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func campaignBody(id string) map[string]any {
	return map[string]any{
		"id":             id,
		"topic":          "Reef restoration",
		"promoter":       "Blue Ocean",
		"start_at":       "2024-01-01T00:00:00Z",
		"end_at":         "2024-12-31T00:00:00Z",
		"goal_major":     "100.00",
		"currency":       "EUR",
		"currency_scale": 2,
	}
}

func donationBody(id string, amount string) map[string]any {
	return map[string]any{
		"id":         id,
		"timestamp":  "2024-02-01T10:00:00Z",
		"amount":     amount,
		"donor_id":   "77",
		"donor_code": "D-77",
		"donor_name": "Ada",
		"restoration": map[string]any{
			"id":    "5",
			"name":  "Coral frames",
			"units": []uint64{1, 2},
		},
	}
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/v1/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestMutationsRequireToken(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodPost, "/v1/campaigns", "", campaignBody("1"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodPost, "/v1/campaigns", sign(t, "intruder"), campaignBody("1"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "unauthorized", decodeBody(t, rec)["code"])
}

func TestCampaignLifecycle(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/v1/campaigns", h.token, campaignBody("1"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "/v1/campaigns/1", rec.Header().Get("Location"))
	created := decodeBody(t, rec)
	assert.Equal(t, "10000", created["goal"])
	assert.Equal(t, "100.00", created["goal_major"])
	assert.Equal(t, float64(0), created["position"])
	assert.Equal(t, "0.00", created["progress"])

	rec = h.do(http.MethodPost, "/v1/campaigns", h.token, campaignBody("1"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "duplicated_campaign", decodeBody(t, rec)["code"])

	rec = h.do(http.MethodPost, "/v1/campaigns", h.token, campaignBody("2"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = h.do(http.MethodGet, "/v1/campaigns?offset=0&limit=5", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decodeBody(t, rec)["items"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "1", items[0].(map[string]any)["id"])

	update := campaignBody("1")
	update["topic"] = "Seagrass"
	rec = h.do(http.MethodPut, "/v1/campaigns/1", h.token, update)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Seagrass", decodeBody(t, rec)["topic"])

	rec = h.do(http.MethodPut, "/v1/campaigns/1", h.token, campaignBody("2"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "campaign_mismatch", decodeBody(t, rec)["code"])

	rec = h.do(http.MethodPost, "/v1/campaigns/1/archive", h.token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	archived := decodeBody(t, rec)
	assert.Equal(t, true, archived["archived"])
	assert.Nil(t, archived["position"])

	rec = h.do(http.MethodPost, "/v1/campaigns/1/archive", h.token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_archived_campaign", decodeBody(t, rec)["code"])

	rec = h.do(http.MethodGet, "/v1/campaigns/2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), decodeBody(t, rec)["position"])

	rec = h.do(http.MethodGet, "/v1/campaigns/stats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeBody(t, rec)
	assert.Equal(t, float64(2), stats["total"])
	assert.Equal(t, float64(1), stats["active"])
	assert.Equal(t, float64(1), stats["archived"])
}

func TestDonationFlow(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/v1/campaigns", h.token, campaignBody("9")).Code)

	rec := h.do(http.MethodPost, "/v1/campaigns/9/donations", h.token, donationBody("100", "2500"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	stored := decodeBody(t, rec)
	assert.Equal(t, float64(0), stored["version"])
	assert.Equal(t, "9", stored["campaign"])

	rec = h.do(http.MethodPost, "/v1/campaigns/9/donations", h.token, donationBody("100", "1"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "donation_already_exists", decodeBody(t, rec)["code"])

	rec = h.do(http.MethodPut, "/v1/campaigns/9", h.token, campaignBody("9"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "locked_campaign", decodeBody(t, rec)["code"])

	rec = h.do(http.MethodPut, "/v1/campaigns/9/donations/100", h.token, donationBody("100", "3000"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(1), decodeBody(t, rec)["version"])

	rec = h.do(http.MethodPut, "/v1/campaigns/9/donations/100", h.token, donationBody("101", "3000"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodGet, "/v1/campaigns/9/donations/100", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3000", decodeBody(t, rec)["amount"])

	rec = h.do(http.MethodGet, "/v1/campaigns/9/donations/100?version=0", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2500", decodeBody(t, rec)["amount"])

	rec = h.do(http.MethodGet, "/v1/campaigns/9/donations/100?version=5", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "donation_not_found", decodeBody(t, rec)["code"])

	rec = h.do(http.MethodGet, "/v1/campaigns/9/donations/100/history", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["versions"], 2)

	rec = h.do(http.MethodGet, "/v1/campaigns/9", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeBody(t, rec)
	assert.Equal(t, "3000", view["total_funds"])
	assert.Equal(t, "30.00", view["total_funds_major"])
	assert.Equal(t, "30.00", view["progress"])
	assert.Equal(t, true, view["locked"])

	rec = h.do(http.MethodGet, "/v1/campaigns/9/donations/export", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "campaign-9-donations.xlsx")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
}

func TestDonationUpdatesAreBounded(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/v1/campaigns", h.token, campaignBody("3")).Code)
	require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/v1/campaigns/3/donations", h.token, donationBody("1", "10")).Code)
	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, h.do(http.MethodPut, "/v1/campaigns/3/donations/1", h.token, donationBody("1", "20")).Code)
	}
	rec := h.do(http.MethodPut, "/v1/campaigns/3/donations/1", h.token, donationBody("1", "30"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "too_many_donation_updates", decodeBody(t, rec)["code"])
}

func TestBadRequests(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/v1/campaigns", h.token, campaignBody("1")).Code)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{name: "bad id", method: http.MethodGet, path: "/v1/campaigns/abc", status: http.StatusBadRequest, code: "invalid_id"},
		{name: "unknown campaign", method: http.MethodGet, path: "/v1/campaigns/404", status: http.StatusNotFound, code: "campaign_not_found"},
		{name: "offset beyond view", method: http.MethodGet, path: "/v1/campaigns?offset=3", status: http.StatusBadRequest, code: "illegal_offset_limit"},
		{name: "negative limit", method: http.MethodGet, path: "/v1/campaigns?limit=-1", status: http.StatusBadRequest, code: "illegal_offset_limit"},
		{name: "non numeric limit", method: http.MethodGet, path: "/v1/campaigns?limit=x", status: http.StatusBadRequest, code: "illegal_offset_limit"},
		{name: "negative amount", method: http.MethodPost, path: "/v1/campaigns/1/donations", body: donationBody("1", "-5"), status: http.StatusBadRequest, code: "invalid_amount"},
		{name: "unknown field", method: http.MethodPost, path: "/v1/campaigns", body: map[string]any{"nope": 1}, status: http.StatusBadRequest, code: "invalid_body"},
		{name: "bad preserve flag", method: http.MethodPost, path: "/v1/campaigns/1/archive?preserve_ordering=maybe", status: http.StatusBadRequest, code: "invalid_argument"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := h.do(tc.method, tc.path, h.token, tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "application/problem+json"))
			assert.Equal(t, tc.code, decodeBody(t, rec)["code"])
		})
	}
}

func TestLocaleNegotiation(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/v1/campaigns", h.token, campaignBody("1")).Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/campaigns/1", nil)
	req.Header.Set("Accept-Language", "de-DE,de;q=0.9")
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "de", rec.Header().Get("Content-Language"))
	assert.Contains(t, decodeBody(t, rec)["goal_display"], "100,00")
}

func TestDonationIgnoresAssignedFields(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/v1/campaigns", h.token, campaignBody("4")).Code)

	body := donationBody("8", "500")
	body["version"] = 7
	body["campaign"] = "999"
	rec := h.do(http.MethodPost, "/v1/campaigns/4/donations", h.token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	stored := decodeBody(t, rec)
	assert.Equal(t, float64(0), stored["version"])
	assert.Equal(t, "4", stored["campaign"])

	body["amount"] = "600"
	rec = h.do(http.MethodPut, "/v1/campaigns/4/donations/8", h.token, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(1), decodeBody(t, rec)["version"])
}

func TestWideAmountDisplayMatchesMajor(t *testing.T) {
	h := newHarness(t)
	body := campaignBody("5")
	body["goal_major"] = "123456789012345678.91"
	body["currency"] = "USD"
	rec := h.do(http.MethodPost, "/v1/campaigns", h.token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	view := decodeBody(t, rec)
	assert.Equal(t, "123456789012345678.91", view["goal_major"])
	assert.Contains(t, view["goal_display"], "123,456,789,012,345,678.91")
}
