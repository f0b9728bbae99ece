package itinerary

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/navifare/mcp-server/internal/app/dto"
	"github.com/navifare/mcp-server/internal/pkg/exception"
)

// DefaultLocation is sent when the caller's location cannot be resolved to a
// 2-letter ISO country code. The backend requires some code on every request.
const DefaultLocation = "VA"

// DefaultSource tags requests whose source is missing or not in the set the
// backend accepts.
const DefaultSource = "MANUAL"

var validSources = map[string]bool{
	"MANUAL":           true,
	"KAYAK":            true,
	"GOOGLE_FLIGHTS":   true,
	"BOOKING":          true,
	"MCP":              true,
	"IMAGE_EXTRACTION": true,
}

var (
	countryCodeRe  = regexp.MustCompile(`^[A-Z]{2}$`)
	airlineCodeRe  = regexp.MustCompile(`^[A-Z0-9]{2}$`)
	hasLetterRe    = regexp.MustCompile(`[A-Z]`)
	digitRunRe     = regexp.MustCompile(`\d+`)
	nonPriceCharRe = regexp.MustCompile(`[^0-9.]`)
)

func validationError(format string, args ...interface{}) error {
	return exception.ApplicationError{
		Message: fmt.Sprintf(format, args...),
		RPCCode: exception.CodeInvalidParams,
	}
}

// Normalize canonicalizes a loosely-specified itinerary into the exact shape
// the price-discovery backend requires and rejects unsupported trip shapes.
// It is pure: no I/O, and "today" is injected for date validation. A failure
// is terminal for the request; no partially normalized value is returned.
func Normalize(req dto.ItineraryRequest, now time.Time) (dto.ItineraryRequest, error) {
	req.Trip.TravelClass = strings.ToUpper(strings.TrimSpace(req.Trip.TravelClass))
	req.Source = normalizeSource(req.Source)
	req.Location = resolveLocation(req.Location)
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))

	price, err := normalizePrice(req.Price)
	if err != nil {
		return dto.ItineraryRequest{}, err
	}
	req.Price = price

	for i := range req.Trip.Legs {
		for j := range req.Trip.Legs[i].Segments {
			normalizeSegment(&req.Trip.Legs[i].Segments[j])
		}
	}

	req.Trip.Legs = SplitRoundTripLegs(req.Trip.Legs)

	if err := validateShape(req); err != nil {
		return dto.ItineraryRequest{}, err
	}

	if err := validateDates(req, now); err != nil {
		return dto.ItineraryRequest{}, err
	}

	if err := dto.ValidateSingleError(&req); err != nil {
		return dto.ItineraryRequest{}, validationError("%s", err.Error())
	}

	return req, nil
}

func normalizeSource(source string) string {
	source = strings.ToUpper(strings.TrimSpace(source))
	if !validSources[source] {
		return DefaultSource
	}

	return source
}

// resolveLocation accepts a 2-letter ISO country code as-is; anything else
// falls back to DefaultLocation rather than being rejected.
func resolveLocation(location string) string {
	location = strings.ToUpper(strings.TrimSpace(location))
	if countryCodeRe.MatchString(location) {
		return location
	}

	return DefaultLocation
}

func normalizePrice(price string) (string, error) {
	cleaned := nonPriceCharRe.ReplaceAllString(price, "")

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return "", validationError("invalid reference price %q: expected a numeric amount", price)
	}

	return strconv.FormatFloat(value, 'f', 2, 64), nil
}

func normalizeSegment(seg *dto.Segment) {
	seg.DepartureAirport = strings.ToUpper(strings.TrimSpace(seg.DepartureAirport))
	seg.ArrivalAirport = strings.ToUpper(strings.TrimSpace(seg.ArrivalAirport))
	seg.DepartureTime = padTime(seg.DepartureTime)
	seg.ArrivalTime = padTime(seg.ArrivalTime)

	seg.Airline, seg.FlightNumber = SplitFlightDesignator(seg.Airline, seg.FlightNumber)
}

// padTime pads "HH:MM" to "HH:MM:SS" (the backend requires seconds) and
// defaults missing values to midnight. Values already carrying seconds pass
// through unchanged.
func padTime(t string) string {
	t = strings.TrimSpace(t)

	switch {
	case t == "":
		return "00:00:00"
	case len(t) == 5:
		return t + ":00"
	default:
		return t
	}
}

// SplitFlightDesignator disambiguates the airline and flight-number fields.
// A flight number still carrying its airline prefix ("LX1612", "U2 3811")
// donates that prefix to an empty or invalid airline field; the number keeps
// digits only, with leading zeros stripped. Airline codes longer than two
// characters are truncated to the first two.
func SplitFlightDesignator(airline, flightNumber string) (string, string) {
	airline = strings.ToUpper(strings.TrimSpace(airline))
	if len(airline) > 2 {
		airline = airline[:2]
	}

	normalized := strings.ToUpper(strings.NewReplacer(" ", "", "-", "").Replace(flightNumber))

	if !airlineCodeRe.MatchString(airline) || !hasLetterRe.MatchString(airline) {
		if prefix := designatorPrefix(normalized); prefix != "" {
			airline = prefix
		}
	}

	return airline, digitsOnly(normalized)
}

// designatorPrefix returns the first two characters of a combined flight
// designator when they look like an airline code (at least one letter).
func designatorPrefix(designator string) string {
	if len(designator) < 2 {
		return ""
	}

	prefix := designator[:2]
	if !airlineCodeRe.MatchString(prefix) || !hasLetterRe.MatchString(prefix) {
		return ""
	}

	return prefix
}

func digitsOnly(designator string) string {
	// Skip a leading airline prefix so its digit (as in "U2") is not taken
	// for the flight number.
	if prefix := designatorPrefix(designator); prefix != "" {
		designator = designator[2:]
	}

	match := digitRunRe.FindString(designator)
	if match == "" {
		return ""
	}

	trimmed := strings.TrimLeft(match, "0")
	if trimmed == "" {
		return "0"
	}

	return trimmed
}

// SplitRoundTripLegs repairs requests where outbound and return were
// flattened into one leg: if some segment of a leg arrives back at the leg's
// origin, the leg is split at the first such segment into outbound and
// return legs. Already-split trips come back unchanged, so the operation is
// idempotent.
func SplitRoundTripLegs(legs []dto.Leg) []dto.Leg {
	normalized := make([]dto.Leg, 0, len(legs))

	for _, leg := range legs {
		if len(leg.Segments) < 2 {
			normalized = append(normalized, leg)
			continue
		}

		origin := strings.ToUpper(leg.Segments[0].DepartureAirport)
		if origin == "" {
			normalized = append(normalized, leg)
			continue
		}

		split := false
		for i := 1; i < len(leg.Segments); i++ {
			if strings.ToUpper(leg.Segments[i].ArrivalAirport) == origin {
				normalized = append(normalized,
					dto.Leg{Segments: leg.Segments[:i]},
					dto.Leg{Segments: leg.Segments[i:]},
				)
				split = true
				break
			}
		}

		if !split {
			normalized = append(normalized, leg)
		}
	}

	return normalized
}
