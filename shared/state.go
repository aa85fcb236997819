package shared

// TradingState represents the actionable trading state of a market.
type TradingState int

const (
	StateNeutral TradingState = iota
	StateLong
	StateShort
)

// String stringifies the provided trading state.
func (s *TradingState) String() string {
	switch *s {
	case StateNeutral:
		return "neutral"
	case StateLong:
		return "long"
	case StateShort:
		return "short"
	default:
		return "unknown"
	}
}

// Directional returns whether the provided state is long or short.
func (s *TradingState) Directional() bool {
	return *s == StateLong || *s == StateShort
}

// Opposes returns whether the provided states are opposing directional states.
func (s *TradingState) Opposes(other TradingState) bool {
	return (*s == StateLong && other == StateShort) ||
		(*s == StateShort && other == StateLong)
}
