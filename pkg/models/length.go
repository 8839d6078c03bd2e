package models

// LengthTier is the enumerated length guidance for generated content. Each
// tier maps to instruction text substituted into the content template and to
// the token ceiling enforced at the provider call.
type LengthTier string

const (
	LengthShort  LengthTier = "short"
	LengthMedium LengthTier = "medium"
	LengthLong   LengthTier = "long"
)

var lengthGuidance = map[LengthTier]string{
	LengthShort:  "Keep it brief: two or three tight paragraphs, no preamble.",
	LengthMedium: "Aim for four to six paragraphs with one developed example.",
	LengthLong:   "Write a full essay-length piece: develop the argument across several sections.",
}

var lengthMaxTokens = map[LengthTier]int{
	LengthShort:  400,
	LengthMedium: 900,
	LengthLong:   2000,
}

// Guidance returns the instruction text for the tier. Unknown tiers fall back
// to medium so a bad stored value degrades rather than fails.
func (t LengthTier) Guidance() string {
	if g, ok := lengthGuidance[t]; ok {
		return g
	}

	return lengthGuidance[LengthMedium]
}

// MaxTokens returns the provider token ceiling for the tier.
func (t LengthTier) MaxTokens() int {
	if n, ok := lengthMaxTokens[t]; ok {
		return n
	}

	return lengthMaxTokens[LengthMedium]
}

// OrDefault returns t when valid, otherwise medium.
func (t LengthTier) OrDefault() LengthTier {
	if t.Valid() {
		return t
	}

	return LengthMedium
}

// Valid reports whether t is a known tier.
func (t LengthTier) Valid() bool {
	_, ok := lengthGuidance[t]

	return ok
}
