package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrTotalOverflow           = errors.New("total campaign counter overflow")
	ErrTooManyActiveCampaigns  = errors.New("too many active campaigns")
	ErrTooManyDonationUpdates  = errors.New("too many donation updates")
	ErrCampaignNotFound        = errors.New("campaign not found")
	ErrDonationNotFound        = errors.New("donation not found")
	ErrDuplicatedCampaign      = errors.New("duplicated campaign")
	ErrDonationAlreadyExists   = errors.New("donation already exists")
	ErrAlreadyArchivedCampaign = errors.New("campaign already archived")
	ErrIllegalOffsetLimit      = errors.New("illegal offset or limit")
	ErrCampaignMismatch        = errors.New("campaign mismatch")
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrLockedCampaign          = errors.New("campaign is locked")
	ErrUnauthorized            = errors.New("unauthorized")
)

// Category groups failures by how a caller is expected to react.
type Category string

const (
	CategoryUnknown         Category = "unknown"
	CategoryCapacity        Category = "capacity"
	CategoryNotFound        Category = "not_found"
	CategoryConflict        Category = "conflict"
	CategoryInvalidArgument Category = "invalid_argument"
	CategoryState           Category = "state"
	CategoryUnauthorized    Category = "unauthorized"
)

var categories = map[error]Category{
	ErrTotalOverflow:           CategoryCapacity,
	ErrTooManyActiveCampaigns:  CategoryCapacity,
	ErrTooManyDonationUpdates:  CategoryCapacity,
	ErrCampaignNotFound:        CategoryNotFound,
	ErrDonationNotFound:        CategoryNotFound,
	ErrDuplicatedCampaign:      CategoryConflict,
	ErrDonationAlreadyExists:   CategoryConflict,
	ErrAlreadyArchivedCampaign: CategoryConflict,
	ErrIllegalOffsetLimit:      CategoryInvalidArgument,
	ErrCampaignMismatch:        CategoryInvalidArgument,
	ErrInvalidAmount:           CategoryInvalidArgument,
	ErrLockedCampaign:          CategoryState,
	ErrUnauthorized:            CategoryUnauthorized,
}

// Error is a rejected operation. Kind is one of the sentinels above and
// Fields carries the offending values.
type Error struct {
	Kind   error
	Fields map[string]string
}

// Fail builds an *Error from a sentinel and alternating name/value pairs.
func Fail(kind error, kv ...any) *Error {
	e := &Error{Kind: kind}
	if len(kv) > 0 {
		e.Fields = make(map[string]string, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			e.Fields[fmt.Sprint(kv[i])] = fmt.Sprint(kv[i+1])
		}
	}
	return e
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Kind.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+e.Fields[k])
	}
	return e.Kind.Error() + " (" + strings.Join(parts, ", ") + ")"
}

func (e *Error) Unwrap() error { return e.Kind }

// Category reports the failure category of the wrapped sentinel.
func (e *Error) Category() Category {
	if c, ok := categories[e.Kind]; ok {
		return c
	}
	return CategoryUnknown
}

// Code is the machine readable name of the failure, e.g. "locked_campaign".
func (e *Error) Code() string {
	return CodeOf(e.Kind)
}

// CategoryOf walks the error chain and returns the first known category.
func CategoryOf(err error) Category {
	if err == nil {
		return CategoryUnknown
	}
	for kind, c := range categories {
		if errors.Is(err, kind) {
			return c
		}
	}
	return CategoryUnknown
}

var codes = map[error]string{
	ErrTotalOverflow:           "total_overflow",
	ErrTooManyActiveCampaigns:  "too_many_active_campaigns",
	ErrTooManyDonationUpdates:  "too_many_donation_updates",
	ErrCampaignNotFound:        "campaign_not_found",
	ErrDonationNotFound:        "donation_not_found",
	ErrDuplicatedCampaign:      "duplicated_campaign",
	ErrDonationAlreadyExists:   "donation_already_exists",
	ErrAlreadyArchivedCampaign: "already_archived_campaign",
	ErrIllegalOffsetLimit:      "illegal_offset_limit",
	ErrCampaignMismatch:        "campaign_mismatch",
	ErrInvalidAmount:           "invalid_amount",
	ErrLockedCampaign:          "locked_campaign",
	ErrUnauthorized:            "unauthorized",
}

// CodeOf returns the failure code for err, or "internal".
func CodeOf(err error) string {
	for kind, code := range codes {
		if errors.Is(err, kind) {
			return code
		}
	}
	return "internal"
}
