package domain

// Event is a notification raised by a successful operation.
type Event interface {
	EventType() string
}

const (
	EventCampaignCreated    = "campaign.created"
	EventCampaignArchived   = "campaign.archived"
	EventDonationRegistered = "donation.registered"
	EventDonationUpdated    = "donation.updated"
)

type CampaignCreated struct {
	Registry string `json:"registry"`
	Campaign ID     `json:"campaign"`
}

func (CampaignCreated) EventType() string { return EventCampaignCreated }

type CampaignArchived struct {
	Registry      string `json:"registry"`
	Campaign      ID     `json:"campaign"`
	PreviousIndex int    `json:"previous_index"`
}

func (CampaignArchived) EventType() string { return EventCampaignArchived }

type DonationRegistered struct {
	Campaign ID `json:"campaign"`
	Donation ID `json:"donation"`
}

func (DonationRegistered) EventType() string { return EventDonationRegistered }

type DonationUpdated struct {
	Campaign ID      `json:"campaign"`
	Donation ID      `json:"donation"`
	Version  Version `json:"version"`
}

func (DonationUpdated) EventType() string { return EventDonationUpdated }
