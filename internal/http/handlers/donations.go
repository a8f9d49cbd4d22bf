package handlers

import (
	"fmt"
	"net/http"
	"time"

	"fundraiser/internal/domain"
	"fundraiser/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// donationRequest accepts the full donation shape. Version and Campaign are
// assigned by the ledger and the path, so incoming values are dropped.
type donationRequest struct {
	ID          domain.ID          `json:"id"`
	Version     *int               `json:"version,omitempty"`
	Campaign    *domain.ID         `json:"campaign,omitempty"`
	Timestamp   time.Time          `json:"timestamp"`
	Amount      domain.Amount      `json:"amount"`
	DonorID     domain.ID          `json:"donor_id"`
	DonorCode   string             `json:"donor_code"`
	DonorName   string             `json:"donor_name"`
	Restoration domain.Restoration `json:"restoration"`
}

func (req donationRequest) donation(campaignID domain.ID) domain.Donation {
	return domain.Donation{
		ID:          req.ID,
		Campaign:    campaignID,
		Timestamp:   req.Timestamp,
		Amount:      req.Amount,
		DonorID:     req.DonorID,
		DonorCode:   req.DonorCode,
		DonorName:   req.DonorName,
		Restoration: req.Restoration,
	}
}

func (a *App) RegisterDonation(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	var req donationRequest
	if !a.decode(w, r, &req) {
		return
	}
	stored, err := a.Svc.RegisterDonation(r.Context(), campaignID, req.donation(campaignID))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/v1/campaigns/%s/donations/%s", campaignID, stored.ID))
	a.json(w, http.StatusCreated, stored)
}

// UpdateDonation appends a correction to the lineage named in the path.
func (a *App) UpdateDonation(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	donationID, ok := a.pathID(w, r, "donationID")
	if !ok {
		return
	}
	req := donationRequest{ID: donationID}
	if !a.decode(w, r, &req) {
		return
	}
	if !req.ID.Equal(donationID) {
		a.error(w, http.StatusBadRequest, "invalid_argument", "body id does not match the donation in the path")
		return
	}
	version, err := a.Svc.UpdateDonation(r.Context(), campaignID, req.donation(campaignID))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"id": donationID, "version": version})
}

// FindDonation returns one version of a lineage. version counts from the
// oldest when non-negative and from the latest otherwise; it defaults to -1.
func (a *App) FindDonation(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	donationID, ok := a.pathID(w, r, "donationID")
	if !ok {
		return
	}
	version, err := queryInt(r, "version", -1)
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid_argument", "version must be an integer")
		return
	}
	d, found, err := a.Svc.FindDonation(r.Context(), campaignID, donationID, version)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if !found {
		a.fail(w, r, domain.Fail(domain.ErrDonationNotFound, "campaign", campaignID, "donation", donationID, "version", version))
		return
	}
	a.json(w, http.StatusOK, d)
}

func (a *App) DonationHistory(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	donationID, ok := a.pathID(w, r, "donationID")
	if !ok {
		return
	}
	history, err := a.Svc.DonationHistory(r.Context(), campaignID, donationID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"id": donationID, "versions": history})
}

// ExportDonations streams the latest version of every donation of a
// campaign as an xlsx workbook.
func (a *App) ExportDonations(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	snap, donations, err := a.Svc.LatestDonations(r.Context(), campaignID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	body, err := report.DonationsWorkbook(snap, donations)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, report.WorkbookName(campaignID)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
