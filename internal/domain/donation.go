package domain

import "time"

// Version numbers the entries of a donation lineage, starting at 0.
type Version = uint8

// Restoration is the restoration allocation a donation funds.
type Restoration struct {
	ID    ID       `json:"id"`
	Name  string   `json:"name"`
	Units []uint64 `json:"units"`
}

// Donation is one version of a donation lineage. Amount is expressed in the
// owning campaign's currency and scale.
type Donation struct {
	ID          ID          `json:"id"`
	Version     Version     `json:"version"`
	Campaign    ID          `json:"campaign"`
	Timestamp   time.Time   `json:"timestamp"`
	Amount      Amount      `json:"amount"`
	DonorID     ID          `json:"donor_id"`
	DonorCode   string      `json:"donor_code"`
	DonorName   string      `json:"donor_name"`
	Restoration Restoration `json:"restoration"`
}

// Clone returns a copy that shares no mutable state with d.
func (d Donation) Clone() Donation {
	if d.Restoration.Units != nil {
		d.Restoration.Units = append([]uint64(nil), d.Restoration.Units...)
	}
	return d
}
