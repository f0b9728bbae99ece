package endpoints

// ToolDescriptor is one entry in the tools/list response.
type ToolDescriptor struct {
	Name        ToolName               `json:"name"`
	Title       string                 `json:"title,omitempty"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// Tools returns the advertised tool catalog. The order is stable so clients
// see a deterministic list.
func Tools() []ToolDescriptor {
	return []ToolDescriptor{
		{
			Name:        ToolPriceCheck,
			Title:       "Flight Price Check",
			Description: "Search multiple booking sources to find better prices for a specific flight the user has already found. Compares prices across different booking platforms to find cheaper alternatives for the exact same flight details.",
			InputSchema: priceCheckSchema(),
		},
		{
			Name:        ToolFormatRequest,
			Title:       "Format Flight Request",
			Description: "Parse and format flight details from natural language text or transcribed image content. Extracts flight information (airlines, flight numbers, dates, airports, prices) and structures it for price comparison. Returns formatted flight data ready for flight_pricecheck, or requests missing information if incomplete.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"user_request": map[string]interface{}{
						"type":        "string",
						"description": "Flight details in natural language text. Include all available information: flight numbers, airlines, departure/arrival airports and times, dates, prices, passenger counts, and travel class. If responding to a needsMoreInfo request, include the complete previous flight details along with the missing information.",
					},
				},
				"required": []string{"user_request"},
			},
		},
		{
			Name:        ToolSubmitSession,
			Title:       "Submit Session",
			Description: "Open a price-discovery session for a flight itinerary without waiting for results. Returns a request_id to poll with get_session_results. Prefer flight_pricecheck, which submits and polls in one call.",
			InputSchema: priceCheckSchema(),
		},
		{
			Name:        ToolGetResults,
			Title:       "Get Session Results",
			Description: "Fetch the current results of a price-discovery session. Pass the request_id returned by submit_session, or omit it to read the results of the last flight_pricecheck in this session.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"request_id": map[string]interface{}{
						"type":        "string",
						"description": "Session identifier returned by submit_session.",
					},
				},
			},
		},
	}
}

func priceCheckSchema() map[string]interface{} {
	segmentSchema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"airline":          map[string]interface{}{"type": "string", "description": `Two-letter IATA airline code (e.g., "LX", "AZ", "BA")`},
			"flightNumber":     map[string]interface{}{"type": "string", "description": `Numeric flight number without airline prefix (e.g., "1612", "573")`},
			"departureAirport": map[string]interface{}{"type": "string", "description": `Three-letter IATA departure airport code (e.g., "ZRH", "MXP")`},
			"arrivalAirport":   map[string]interface{}{"type": "string", "description": `Three-letter IATA arrival airport code (e.g., "LHR", "FCO")`},
			"departureDate":    map[string]interface{}{"type": "string", "description": `Departure date in YYYY-MM-DD format (e.g., "2025-12-16")`},
			"departureTime":    map[string]interface{}{"type": "string", "description": `Departure time in HH:MM or HH:MM:SS format (e.g., "07:10" or "07:10:00")`},
			"arrivalTime":      map[string]interface{}{"type": "string", "description": `Arrival time in HH:MM or HH:MM:SS format (e.g., "08:25" or "08:25:00")`},
			"plusDays":         map[string]interface{}{"type": "number", "description": "Days to add to arrival date if arrival is next day (0 for same day, 1 for next day)"},
		},
		"required": []string{"airline", "flightNumber", "departureAirport", "arrivalAirport", "departureDate", "departureTime", "arrivalTime", "plusDays"},
	}

	tripSchema := map[string]interface{}{
		"type":        "object",
		"description": "Flight trip details including segments, passengers, and travel class",
		"properties": map[string]interface{}{
			"legs": map[string]interface{}{
				"type":        "array",
				"description": "Array of flight legs (one for outbound, one for return in round trips)",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"segments": map[string]interface{}{
							"type":        "array",
							"description": "Array of flight segments within this leg",
							"items":       segmentSchema,
						},
					},
					"required": []string{"segments"},
				},
			},
			"travelClass":   map[string]interface{}{"type": "string", "enum": []string{"ECONOMY", "PREMIUM_ECONOMY", "BUSINESS", "FIRST"}},
			"adults":        map[string]interface{}{"type": "number", "minimum": 1},
			"children":      map[string]interface{}{"type": "number", "minimum": 0},
			"infantsInSeat": map[string]interface{}{"type": "number", "minimum": 0},
			"infantsOnLap":  map[string]interface{}{"type": "number", "minimum": 0},
		},
		"required": []string{"legs", "travelClass", "adults"},
	}

	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"trip":     tripSchema,
			"source":   map[string]interface{}{"type": "string", "description": `Source identifier for the original price (e.g., "MCP", "KAYAK", "BOOKING")`},
			"price":    map[string]interface{}{"type": "string", "description": `Reference price found by the user (e.g., "84.00", "200.50")`},
			"currency": map[string]interface{}{"type": "string", "description": `Three-letter ISO currency code (e.g., "EUR", "USD", "GBP")`, "pattern": "^[A-Z]{3}$"},
			"location": map[string]interface{}{"type": "string", "description": `Two-letter ISO country code for user location (e.g., "VA", "IT", "US"). Defaults to "VA" if not provided.`, "pattern": "^[A-Z]{2}$", "default": "VA"},
		},
		"required": []string{"trip", "source", "price", "currency"},
	}
}
