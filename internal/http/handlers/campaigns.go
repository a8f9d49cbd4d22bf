package handlers

import (
	"net/http"
	"time"

	"golang.org/x/text/language"

	"fundraiser/internal/campaign"
	"fundraiser/internal/domain"
	"fundraiser/internal/middleware"
	"fundraiser/internal/money"
)

type campaignView struct {
	ID             domain.ID     `json:"id"`
	Registry       string        `json:"registry"`
	Topic          string        `json:"topic"`
	Promoter       string        `json:"promoter"`
	StartAt        time.Time     `json:"start_at"`
	EndAt          time.Time     `json:"end_at"`
	Currency       string        `json:"currency"`
	CurrencyScale  uint8         `json:"currency_scale"`
	Goal           domain.Amount `json:"goal"`
	GoalMajor      string        `json:"goal_major"`
	GoalDisplay    string        `json:"goal_display"`
	TotalFunds     domain.Amount `json:"total_funds"`
	FundsMajor     string        `json:"total_funds_major"`
	FundsDisplay   string        `json:"total_funds_display"`
	Progress       string        `json:"progress"`
	TotalDonations uint64        `json:"total_donations"`
	Position       *int          `json:"position"`
	Archived       bool          `json:"archived"`
	Locked         bool          `json:"locked"`
}

func newCampaignView(tag language.Tag, s campaign.Snapshot) campaignView {
	d := s.Details
	v := campaignView{
		ID:             d.ID,
		Registry:       s.Registry,
		Topic:          d.Topic,
		Promoter:       d.Promoter,
		StartAt:        d.StartAt,
		EndAt:          d.EndAt,
		Currency:       d.Currency,
		CurrencyScale:  d.CurrencyScale,
		Goal:           d.Goal,
		GoalMajor:      money.Major(d.Goal, d.CurrencyScale),
		GoalDisplay:    money.Display(tag, d.Goal, d.Currency, d.CurrencyScale),
		TotalFunds:     s.TotalFunds,
		FundsMajor:     money.Major(s.TotalFunds, d.CurrencyScale),
		FundsDisplay:   money.Display(tag, s.TotalFunds, d.Currency, d.CurrencyScale),
		Progress:       money.Progress(s.TotalFunds, d.Goal).StringFixed(2),
		TotalDonations: s.TotalDonations,
		Archived:       s.Archived,
		Locked:         s.Locked,
	}
	if !s.Archived {
		pos := s.Position
		v.Position = &pos
	}
	return v
}

// campaignRequest is the body of create and update. GoalMajor, when set,
// is parsed at CurrencyScale and takes precedence over Goal.
type campaignRequest struct {
	ID            domain.ID     `json:"id"`
	Topic         string        `json:"topic"`
	Promoter      string        `json:"promoter"`
	StartAt       time.Time     `json:"start_at"`
	EndAt         time.Time     `json:"end_at"`
	Goal          domain.Amount `json:"goal"`
	GoalMajor     string        `json:"goal_major"`
	Currency      string        `json:"currency"`
	CurrencyScale uint8         `json:"currency_scale"`
}

func (req campaignRequest) details() (domain.CampaignDetails, error) {
	d := domain.CampaignDetails{
		ID:            req.ID,
		Topic:         req.Topic,
		Promoter:      req.Promoter,
		StartAt:       req.StartAt,
		EndAt:         req.EndAt,
		Goal:          req.Goal,
		Currency:      req.Currency,
		CurrencyScale: req.CurrencyScale,
	}
	if req.GoalMajor != "" {
		goal, err := money.ParseMajor(req.GoalMajor, req.CurrencyScale)
		if err != nil {
			return domain.CampaignDetails{}, err
		}
		d.Goal = goal
	}
	return d, nil
}

func (a *App) Stats(w http.ResponseWriter, r *http.Request) {
	counts, err := a.Svc.Counts(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, counts)
}

func (a *App) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		a.fail(w, r, domain.Fail(domain.ErrIllegalOffsetLimit, "offset", r.URL.Query().Get("offset")))
		return
	}
	limit, err := queryInt(r, "limit", a.DefaultLimit)
	if err != nil {
		a.fail(w, r, domain.Fail(domain.ErrIllegalOffsetLimit, "limit", r.URL.Query().Get("limit")))
		return
	}
	page, err := a.Svc.SelectActive(r.Context(), offset, limit)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	tag := middleware.LocaleFromContext(r.Context())
	items := make([]campaignView, 0, len(page))
	for _, s := range page {
		items = append(items, newCampaignView(tag, s))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items, "offset": offset, "limit": limit})
}

func (a *App) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	snap, err := a.Svc.Campaign(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, newCampaignView(middleware.LocaleFromContext(r.Context()), snap))
}

func (a *App) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req campaignRequest
	if !a.decode(w, r, &req) {
		return
	}
	details, err := req.details()
	if err != nil {
		a.fail(w, r, err)
		return
	}
	snap, err := a.Svc.CreateCampaign(r.Context(), details)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/campaigns/"+snap.Details.ID.String())
	a.json(w, http.StatusCreated, newCampaignView(middleware.LocaleFromContext(r.Context()), snap))
}

// UpdateCampaign replaces the details of the campaign in the path. A body
// without an id targets the path campaign.
func (a *App) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	req := campaignRequest{ID: id}
	if !a.decode(w, r, &req) {
		return
	}
	details, err := req.details()
	if err != nil {
		a.fail(w, r, err)
		return
	}
	snap, err := a.Svc.UpdateCampaignDetails(r.Context(), id, details)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, newCampaignView(middleware.LocaleFromContext(r.Context()), snap))
}

func (a *App) ArchiveCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	preserve, err := queryBool(r, "preserve_ordering")
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid_argument", "preserve_ordering must be a boolean")
		return
	}
	if err := a.Svc.ArchiveCampaign(r.Context(), id, preserve); err != nil {
		a.fail(w, r, err)
		return
	}
	snap, err := a.Svc.Campaign(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, newCampaignView(middleware.LocaleFromContext(r.Context()), snap))
}
