package domain

import "time"

// CampaignDetails describes a fundraising campaign. Once the campaign accepted
// its first donation the details can no longer change.
type CampaignDetails struct {
	ID            ID        `json:"id"`
	Topic         string    `json:"topic"`
	Promoter      string    `json:"promoter"`
	StartAt       time.Time `json:"start_at"`
	EndAt         time.Time `json:"end_at"`
	Goal          Amount    `json:"goal"`
	Currency      string    `json:"currency"`
	CurrencyScale uint8     `json:"currency_scale"`
}
