package dto

// Session status values reported by the price-discovery backend.
const (
	StatusNew        = "NEW"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

// Offer is one price found on a booking site, immutable once returned.
type Offer struct {
	Rank       int    `json:"rank"`
	Price      string `json:"price"`
	Website    string `json:"website"`
	BookingURL string `json:"bookingUrl"`
	FareType   string `json:"fareType"`
	Timestamp  string `json:"timestamp,omitempty"`
}

const (
	FareTypeStandard = "Standard Fare"
	FareTypeSpecial  = "Special Fare"
)

// SessionResult is one snapshot of a backend session: its status plus every
// offer visible so far.
type SessionResult struct {
	RequestID    string  `json:"request_id"`
	Status       string  `json:"status"`
	TotalResults int     `json:"totalResults"`
	Results      []Offer `json:"results"`
}

// ProgressEvent is emitted whenever the visible result count grows or the
// session completes. Snapshot carries the full state so a consumer never has
// to correlate events.
type ProgressEvent struct {
	ResultCount int           `json:"resultCount"`
	Status      string        `json:"status"`
	Snapshot    SessionResult `json:"results"`
}

// PriceCheckResponse is the flight_pricecheck tool result.
type PriceCheckResponse struct {
	Message      string         `json:"message"`
	SearchResult *SessionResult `json:"searchResult,omitempty"`
	Status       string         `json:"status,omitempty"`
	Error        string         `json:"error,omitempty"`
}

// FormatRequest is the format_flight_pricecheck_request tool input.
type FormatRequest struct {
	UserRequest string `json:"user_request" validate:"required"`
}

// FormatResponse either hands back a complete itinerary ready for
// flight_pricecheck or asks the caller for the missing fields.
type FormatResponse struct {
	Message            string            `json:"message"`
	NeedsMoreInfo      bool              `json:"needsMoreInfo,omitempty"`
	MissingFields      []string          `json:"missingFields,omitempty"`
	FlightData         *ItineraryRequest `json:"flightData,omitempty"`
	ReadyForPriceCheck bool              `json:"readyForPriceCheck,omitempty"`
}

// FetchRequest is the get_session_results tool input. An empty request id
// reads the session's stored snapshot instead.
type FetchRequest struct {
	RequestID string `json:"request_id"`
}
