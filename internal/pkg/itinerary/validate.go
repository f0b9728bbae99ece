package itinerary

import (
	"time"

	"github.com/navifare/mcp-server/internal/app/dto"
)

const dateLayout = "2006-01-02"

// validateShape enforces the supported trip shapes. These are hard
// rejections, not auto-fixes: the backend only prices round trips.
func validateShape(req dto.ItineraryRequest) error {
	legs := req.Trip.Legs

	switch {
	case len(legs) == 0:
		return validationError("invalid trip: missing legs")
	case len(legs) == 1:
		return validationError(
			"one-way trips are not yet supported; provide a round-trip itinerary with both outbound and return flights")
	case len(legs) > 2:
		return validationError("multi-city trips are not yet supported; provide exactly one outbound and one return leg")
	}

	outbound := legs[0].Segments
	ret := legs[1].Segments
	if len(outbound) == 0 || len(ret) == 0 {
		return validationError("invalid trip: a leg has no segments")
	}

	outboundOrigin := outbound[0].DepartureAirport
	outboundDest := outbound[len(outbound)-1].ArrivalAirport
	returnOrigin := ret[0].DepartureAirport
	returnDest := ret[len(ret)-1].ArrivalAirport

	if !sameAirport(returnOrigin, outboundDest) || !sameAirport(returnDest, outboundOrigin) {
		return validationError(
			"open-jaw trips are not yet supported: the return flight must depart from %s and arrive at %s, got %s to %s",
			outboundDest, outboundOrigin, returnOrigin, returnDest)
	}

	return nil
}

// validateDates requires every departure date to be a well-formed calendar
// date no earlier than today (UTC midnight), and the return leg to not
// depart before the outbound leg.
func validateDates(req dto.ItineraryRequest, now time.Time) error {
	today := now.UTC().Truncate(24 * time.Hour)

	var latestOutbound, earliestReturn time.Time

	for legIdx, leg := range req.Trip.Legs {
		for _, seg := range leg.Segments {
			date, err := time.ParseInLocation(dateLayout, seg.DepartureDate, time.UTC)
			if err != nil {
				return validationError("invalid departure date %q: expected YYYY-MM-DD", seg.DepartureDate)
			}

			if date.Before(today) {
				return validationError("departure date %s is in the past", seg.DepartureDate)
			}

			if legIdx == 0 && date.After(latestOutbound) {
				latestOutbound = date
			}
			if legIdx == len(req.Trip.Legs)-1 && (earliestReturn.IsZero() || date.Before(earliestReturn)) {
				earliestReturn = date
			}
		}
	}

	if !latestOutbound.IsZero() && !earliestReturn.IsZero() && earliestReturn.Before(latestOutbound) {
		return validationError("return leg departs on %s, before the outbound leg on %s",
			earliestReturn.Format(dateLayout), latestOutbound.Format(dateLayout))
	}

	return nil
}
