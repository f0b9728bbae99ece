package itinerary

// metroGroups maps airports that serve the same metropolitan area. A return
// into any airport of the outbound origin's group still counts as a proper
// round trip rather than an open jaw.
var metroGroups = map[string]string{
	"FCO": "ROME",
	"CIA": "ROME",

	"MXP": "MILAN",
	"LIN": "MILAN",
	"BGY": "MILAN",

	"LHR": "LONDON",
	"LGW": "LONDON",
	"STN": "LONDON",
	"LTN": "LONDON",
	"LCY": "LONDON",

	"CDG": "PARIS",
	"ORY": "PARIS",
	"BVA": "PARIS",

	"JFK": "NEWYORK",
	"EWR": "NEWYORK",
	"LGA": "NEWYORK",
}

// sameAirport reports whether two airport codes are interchangeable for
// round-trip matching: identical, or members of the same metro group.
func sameAirport(a, b string) bool {
	if a == b {
		return true
	}

	groupA, okA := metroGroups[a]
	groupB, okB := metroGroups[b]

	return okA && okB && groupA == groupB
}
