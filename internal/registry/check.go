package registry

import (
	"errors"
	"fmt"

	"fundraiser/internal/domain"
)

// Check verifies the registry's structural invariants and reports every
// violation it finds.
func (r *Registry) Check() error {
	var errs []error
	for i, rec := range r.active {
		if rec == nil {
			errs = append(errs, fmt.Errorf("active[%d] is empty", i))
			continue
		}
		if rec.Position() != i {
			errs = append(errs, fmt.Errorf("active[%d] (campaign %s) has position %d", i, rec.ID(), rec.Position()))
		}
		if got, ok := r.records[domain.CampaignKey(rec.ID())]; !ok || got != rec {
			errs = append(errs, fmt.Errorf("active[%d] (campaign %s) is not the keyed record", i, rec.ID()))
		}
	}
	var archived uint64
	for key, rec := range r.records {
		if !rec.Exists() {
			errs = append(errs, fmt.Errorf("campaign %s does not exist", key))
		}
		if rec.Archived() {
			archived++
			continue
		}
		if rec.Position() < 0 || rec.Position() >= len(r.active) || r.active[rec.Position()] != rec {
			errs = append(errs, fmt.Errorf("campaign %s has position %d outside the active view", key, rec.Position()))
		}
	}
	if r.placement.IsOpen() {
		errs = append(errs, errors.New("placement left open"))
	}
	if !r.limits.AllowDuplicateIDs {
		total, _, counted := r.Count()
		if total != uint64(len(r.records)) {
			errs = append(errs, fmt.Errorf("total %d != keyed records %d", total, len(r.records)))
		}
		if counted != archived {
			errs = append(errs, fmt.Errorf("derived archived %d != archived records %d", counted, archived))
		}
	}
	return errors.Join(errs...)
}
