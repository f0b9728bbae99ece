package nlparse

import "fmt"

func (p *Parser) buildPrompt(userRequest string) string {
	now := p.now().UTC()
	currentYear := now.Year()
	currentDate := now.Format("2006-01-02")

	return fmt.Sprintf(`Analyze this flight request: %q

First, identify what flight information the user HAS provided and what is MISSING.

CRITICAL REQUIREMENTS:
1. AIRLINE: Use the 2-3 letter IATA airline code (e.g., "AZ", "LH", "BA", "AF"), NOT the airline name (e.g., NOT "ITA Airways", "Lufthansa", "British Airways"). If only the airline name is provided, convert it to its IATA code.
2. DATES: Use the CURRENT YEAR (%d) for dates unless explicitly specified otherwise. If a date appears to be in the past (e.g., 2014, 2023), convert it to %d or the appropriate future year. For dates without a year, if month/day >= today (%s), use %d; if earlier, use %d. Dates must be in YYYY-MM-DD format.
3. TIMES: Convert times like "6:40 PM" or "6.40pm" to 24-hour format "HH:MM:SS" (e.g., "18:40:00"). Always respect AM/PM indicators:
   - 1:55 PM becomes 13:55:00 (add 12 hours)
   - 10:45 PM becomes 22:45:00 (add 12 hours)
   - 1:55 AM becomes 01:55:00 (keep same)
   - 12:00 PM becomes 12:00:00 (noon)
   - 12:00 AM becomes 00:00:00 (midnight)

If the user has provided complete flight information (airline code, flight number, airports, dates, times), return JSON with this structure:
{
  "trip": {
    "legs": [{"segments": [{"airline": "XX", "flightNumber": "123", "departureAirport": "XXX", "arrivalAirport": "XXX", "departureDate": "YYYY-MM-DD", "departureTime": "HH:MM:SS", "arrivalTime": "HH:MM:SS", "plusDays": 0}]}],
    "travelClass": "ECONOMY",
    "adults": 1,
    "children": 0,
    "infantsInSeat": 0,
    "infantsOnLap": 0
  },
  "source": "MCP",
  "price": "100.00",
  "currency": "EUR",
  "location": "IT"
}

If the user has NOT provided complete information, analyze what they provided and what's missing, then return:
{"needsMoreInfo": true, "message": "I can see you want to [what they provided]. To complete your flight search, I need: [only the specific missing information]."}

Return ONLY JSON.`, userRequest, currentYear, currentYear, currentDate, currentYear, currentYear+1)
}
