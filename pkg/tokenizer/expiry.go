package tokenizer

// Expiry is the symbolic term of a position. The wire encoding is the u32
// little-endian discriminant of the variant.
type Expiry uint32

const (
	ExpiryTwelveMonths Expiry = iota
	ExpiryEighteenMonths
	ExpiryTwentyFourMonths
)

const secondsPerDay = 86400

// ExpiryFromMonths maps a term length in months to its Expiry variant.
// Only 12, 18 and 24 month terms are supported.
func ExpiryFromMonths(months int64) (Expiry, bool) {
	switch months {
	case 12:
		return ExpiryTwelveMonths, true
	case 18:
		return ExpiryEighteenMonths, true
	case 24:
		return ExpiryTwentyFourMonths, true
	}
	return 0, false
}

// ToSeconds returns the term length in seconds, or false for an unknown
// variant.
func (e Expiry) ToSeconds() (int64, bool) {
	switch e {
	case ExpiryTwelveMonths:
		return 31_536_000, true
	case ExpiryEighteenMonths:
		return 47_304_000, true
	case ExpiryTwentyFourMonths:
		return 63_072_000, true
	}
	return 0, false
}

// ToExpiryDate computes the expiry timestamp for a term anchored at now,
// normalized to the start of a UTC day. Off-chain derivation must pass the
// chain's block time as the anchor, not a local clock, or the derived
// addresses will not match the processor's.
func (e Expiry) ToExpiryDate(now int64) (int64, bool) {
	seconds, ok := e.ToSeconds()
	if !ok {
		return 0, false
	}
	// Block times are post-epoch. Rejecting negative anchors keeps the
	// division below a true floor to the day boundary.
	if now < 0 {
		return 0, false
	}
	return (now + seconds) / secondsPerDay * secondsPerDay, true
}

func (e Expiry) String() string {
	switch e {
	case ExpiryTwelveMonths:
		return "twelve_months"
	case ExpiryEighteenMonths:
		return "eighteen_months"
	case ExpiryTwentyFourMonths:
		return "twenty_four_months"
	}
	return "unknown"
}
