package service

import (
	"context"
	"encoding/json"
	"fmt"

	"fundraiser/internal/access"
	"fundraiser/internal/domain"
	"fundraiser/internal/notify"
	"fundraiser/internal/registry"
)

// Replay builds a registry from every journal entry in sequence order. The
// registry is returned with the system authorizer and a discarding notifier
// attached; callers attach their own collaborators afterwards.
func Replay(ctx context.Context, journal domain.Journal, name string, limits registry.Limits) (*registry.Registry, uint64, error) {
	reg := registry.New(name, limits, access.System{}, notify.Discard{})
	var head uint64
	for {
		page, err := journal.List(ctx, head, replayPageSize)
		if err != nil {
			return nil, head, fmt.Errorf("read journal after %d: %w", head, err)
		}
		for _, entry := range page {
			if err := apply(ctx, reg, entry); err != nil {
				return nil, head, fmt.Errorf("replay entry %d (%s): %w", entry.Seq, entry.Kind, err)
			}
			head = entry.Seq
		}
		if len(page) < replayPageSize {
			return reg, head, nil
		}
	}
}

func apply(ctx context.Context, reg *registry.Registry, entry domain.JournalEntry) error {
	switch entry.Kind {
	case domain.JournalCampaignCreated:
		var details domain.CampaignDetails
		if err := json.Unmarshal(entry.Payload, &details); err != nil {
			return err
		}
		_, err := reg.Create(ctx, details)
		return err
	case domain.JournalDetailsUpdated:
		var details domain.CampaignDetails
		if err := json.Unmarshal(entry.Payload, &details); err != nil {
			return err
		}
		rec, err := reg.Lookup(entry.Campaign)
		if err != nil {
			return err
		}
		return rec.UpdateDetails(ctx, details)
	case domain.JournalCampaignArchived:
		var p archivePayload
		if err := json.Unmarshal(entry.Payload, &p); err != nil {
			return err
		}
		return reg.Archive(ctx, entry.Campaign, p.PreserveOrdering)
	case domain.JournalDonationRegistered:
		var d domain.Donation
		if err := json.Unmarshal(entry.Payload, &d); err != nil {
			return err
		}
		rec, err := reg.Lookup(entry.Campaign)
		if err != nil {
			return err
		}
		_, err = rec.RegisterDonation(ctx, d)
		return err
	case domain.JournalDonationUpdated:
		var d domain.Donation
		if err := json.Unmarshal(entry.Payload, &d); err != nil {
			return err
		}
		rec, err := reg.Lookup(entry.Campaign)
		if err != nil {
			return err
		}
		_, err = rec.UpdateDonation(ctx, d)
		return err
	default:
		return fmt.Errorf("unknown journal kind %q", entry.Kind)
	}
}
