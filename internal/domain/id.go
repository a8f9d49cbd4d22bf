package domain

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// ID is a non-negative identifier of arbitrary width. The zero value is 0.
// IDs are immutable: every accessor hands out copies.
type ID struct {
	n *big.Int
}

// NewID returns the identifier for v.
func NewID(v uint64) ID {
	return ID{n: new(big.Int).SetUint64(v)}
}

// IDFromBig copies v into an identifier. Negative values are rejected.
func IDFromBig(v *big.Int) (ID, error) {
	if v == nil {
		return ID{}, nil
	}
	if v.Sign() < 0 {
		return ID{}, fmt.Errorf("identifier must not be negative: %s", v)
	}
	return ID{n: new(big.Int).Set(v)}, nil
}

// ParseID parses a base-10 identifier.
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ID{}, fmt.Errorf("identifier is required")
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return ID{}, fmt.Errorf("invalid identifier %q", s)
	}
	return IDFromBig(n)
}

// Big returns a copy of the underlying integer.
func (id ID) Big() *big.Int {
	if id.n == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(id.n)
}

// Cmp compares two identifiers like big.Int.Cmp.
func (id ID) Cmp(other ID) int {
	return id.Big().Cmp(other.Big())
}

// Equal reports whether both identifiers denote the same number.
func (id ID) Equal(other ID) bool {
	return id.Cmp(other) == 0
}

func (id ID) String() string {
	if id.n == nil {
		return "0"
	}
	return id.n.String()
}

// MarshalJSON encodes the identifier as a decimal string so that values wider
// than 53 bits survive JavaScript clients.
func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

// UnmarshalJSON accepts both a decimal string and a bare JSON number.
func (id *ID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*id = ID{}
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = s
	}
	parsed, err := ParseID(raw)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// CampaignHandle keys campaigns. It is comparable so it can index maps, and it
// cannot be confused with a DonationHandle.
type CampaignHandle struct {
	key string
}

// CampaignKey wraps a campaign identifier.
func CampaignKey(id ID) CampaignHandle {
	return CampaignHandle{key: id.String()}
}

func (h CampaignHandle) String() string { return h.key }

// DonationHandle keys donation lineages inside one campaign.
type DonationHandle struct {
	key string
}

// DonationKey wraps a donation identifier.
func DonationKey(id ID) DonationHandle {
	return DonationHandle{key: id.String()}
}

func (h DonationHandle) String() string { return h.key }
