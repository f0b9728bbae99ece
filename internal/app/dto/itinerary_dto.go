package dto

// Segment is one scheduled flight between two airports. Field shapes match
// the price-discovery backend's session payload; the itinerary package is
// responsible for coercing loose caller input into this form before a
// request is validated.
type Segment struct {
	Airline          string `json:"airline" validate:"required,len=2"`
	FlightNumber     string `json:"flightNumber" validate:"required,numeric"`
	DepartureAirport string `json:"departureAirport" validate:"required,len=3,alpha"`
	ArrivalAirport   string `json:"arrivalAirport" validate:"required,len=3,alpha"`
	DepartureDate    string `json:"departureDate" validate:"required"`
	DepartureTime    string `json:"departureTime" validate:"required"`
	ArrivalTime      string `json:"arrivalTime" validate:"required"`
	PlusDays         int    `json:"plusDays" validate:"gte=0"`
}

// Leg is an ordered run of segments flown consecutively in one direction.
type Leg struct {
	Segments []Segment `json:"segments" validate:"required,min=1,dive"`
}

type Trip struct {
	Legs          []Leg  `json:"legs" validate:"required,min=1,dive"`
	TravelClass   string `json:"travelClass" validate:"required,oneof=ECONOMY PREMIUM_ECONOMY BUSINESS FIRST"`
	Adults        int    `json:"adults" validate:"required,gte=1"`
	Children      int    `json:"children" validate:"gte=0"`
	InfantsInSeat int    `json:"infantsInSeat" validate:"gte=0"`
	InfantsOnLap  int    `json:"infantsOnLap" validate:"gte=0"`
}

// ItineraryRequest is the full payload submitted to the backend: the trip
// plus the reference price the caller already found.
type ItineraryRequest struct {
	Trip     Trip   `json:"trip"`
	Source   string `json:"source" validate:"required"`
	Price    string `json:"price" validate:"required"`
	Currency string `json:"currency" validate:"required,len=3,alpha"`
	Location string `json:"location,omitempty"`
}

// OutboundLeg and ReturnLeg are only meaningful after trip-shape validation
// has pinned the trip to exactly two legs.
func (r ItineraryRequest) OutboundLeg() Leg { return r.Trip.Legs[0] }
func (r ItineraryRequest) ReturnLeg() Leg   { return r.Trip.Legs[len(r.Trip.Legs)-1] }

// PriceCheckArgs accepts both tool argument shapes: the legacy wrapper
// {"flightData": {...}} and the flattened {trip, source, price, currency,
// location} form.
type PriceCheckArgs struct {
	FlightData *ItineraryRequest `json:"flightData,omitempty"`

	Trip     *Trip  `json:"trip,omitempty"`
	Source   string `json:"source,omitempty"`
	Price    string `json:"price,omitempty"`
	Currency string `json:"currency,omitempty"`
	Location string `json:"location,omitempty"`
}

// Itinerary collapses the two accepted shapes into one request.
func (a PriceCheckArgs) Itinerary() ItineraryRequest {
	if a.FlightData != nil {
		return *a.FlightData
	}

	req := ItineraryRequest{
		Source:   a.Source,
		Price:    a.Price,
		Currency: a.Currency,
		Location: a.Location,
	}
	if a.Trip != nil {
		req.Trip = *a.Trip
	}

	return req
}
