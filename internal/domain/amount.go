package domain

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// Amount is a non-negative quantity of currency minor units. How many digits
// are fractional is decided by the owning campaign's CurrencyScale.
type Amount struct {
	n *big.Int
}

// NewAmount returns an amount of v minor units.
func NewAmount(v uint64) Amount {
	return Amount{n: new(big.Int).SetUint64(v)}
}

// AmountFromBig copies v. Negative values are rejected with ErrInvalidAmount.
func AmountFromBig(v *big.Int) (Amount, error) {
	if v == nil {
		return Amount{}, nil
	}
	if v.Sign() < 0 {
		return Amount{}, Fail(ErrInvalidAmount, "amount", v.String())
	}
	return Amount{n: new(big.Int).Set(v)}, nil
}

// ParseAmount parses a base-10 count of minor units.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, Fail(ErrInvalidAmount, "amount", s)
	}
	return AmountFromBig(n)
}

// Big returns a copy of the underlying integer.
func (a Amount) Big() *big.Int {
	if a.n == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.n)
}

// Add returns a+b.
func (a Amount) Add(b Amount) Amount {
	return Amount{n: new(big.Int).Add(a.Big(), b.Big())}
}

// Replace returns a-old+next. Callers guarantee old is part of a, so the
// result never goes negative.
func (a Amount) Replace(old, next Amount) Amount {
	n := new(big.Int).Sub(a.Big(), old.Big())
	return Amount{n: n.Add(n, next.Big())}
}

func (a Amount) Cmp(b Amount) int { return a.Big().Cmp(b.Big()) }

func (a Amount) IsZero() bool { return a.n == nil || a.n.Sign() == 0 }

func (a Amount) String() string {
	if a.n == nil {
		return "0"
	}
	return a.n.String()
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*a = Amount{}
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = s
	}
	parsed, err := ParseAmount(raw)
	if err != nil {
		return fmt.Errorf("decode amount: %w", err)
	}
	*a = parsed
	return nil
}
