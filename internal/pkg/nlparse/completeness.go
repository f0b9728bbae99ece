package nlparse

import (
	"fmt"
	"strings"

	"github.com/navifare/mcp-server/internal/app/dto"
)

const contextReminder = " IMPORTANT: When providing the missing information, include the complete previous" +
	" flight details (paste the full extracted data or previous request) along with the missing" +
	" fields, as this tool does not retain context between calls."

// missingFields walks the parsed trip and names every hole, scoped by leg and
// segment so the caller can ask a precise question.
func missingFields(trip *dto.Trip) []string {
	if trip == nil {
		return []string{"trip information"}
	}

	var missing []string

	if len(trip.Legs) == 0 {
		missing = append(missing, "flight legs")
	}

	for legIndex, leg := range trip.Legs {
		if len(leg.Segments) == 0 {
			missing = append(missing, fmt.Sprintf("segments for leg %d", legIndex+1))

			continue
		}

		for segmentIndex, segment := range leg.Segments {
			scope := fmt.Sprintf("leg %d, segment %d", legIndex+1, segmentIndex+1)

			if segment.Airline == "" {
				missing = append(missing, "airline code for "+scope)
			}
			if segment.FlightNumber == "" {
				missing = append(missing, "flight number for "+scope)
			}
			if segment.DepartureAirport == "" {
				missing = append(missing, "departure airport for "+scope)
			}
			if segment.ArrivalAirport == "" {
				missing = append(missing, "arrival airport for "+scope)
			}
			if segment.DepartureDate == "" {
				missing = append(missing, "departure date for "+scope)
			}
			if segment.DepartureTime == "" {
				missing = append(missing, "departure time for "+scope)
			}
			if segment.ArrivalTime == "" {
				missing = append(missing, "arrival time for "+scope)
			}
		}
	}

	if trip.Adults == 0 {
		missing = append(missing, "number of adults")
	}
	if trip.TravelClass == "" {
		missing = append(missing, "travel class")
	}

	return missing
}

func composeQuestion(missing []string) string {
	question := "I need a bit more information to search for your flight. "

	switch {
	case len(missing) == 1:
		question += fmt.Sprintf("Could you please provide: %s?", missing[0])
	case len(missing) <= 3:
		question += fmt.Sprintf("Could you please provide: %s and %s?",
			strings.Join(missing[:len(missing)-1], ", "), missing[len(missing)-1])
	default:
		question += fmt.Sprintf("Could you please provide more details about your flight? I'm missing: %s and %d other details.",
			strings.Join(missing[:3], ", "), len(missing)-3)
	}

	return question
}

func fallbackResponse() dto.FormatResponse {
	fields := []string{
		"departure airport", "arrival airport", "departure date", "return date",
		"departure time", "arrival time", "return departure time", "return arrival time",
		"airline code", "flight number",
	}

	return dto.FormatResponse{
		Message: "I encountered an error parsing your request. Please provide: " +
			strings.Join(fields, ", ") + ".",
		NeedsMoreInfo: true,
		MissingFields: fields,
	}
}
