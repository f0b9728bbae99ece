//go:build unit

package itinerary

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/navifare/mcp-server/internal/app/dto"
)

func TestMain(m *testing.M) {
	if err := dto.InitValidator(); err != nil {
		panic(err)
	}

	os.Exit(m.Run())
}

var testNow = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

func validRoundTrip() dto.ItineraryRequest {
	return dto.ItineraryRequest{
		Trip: dto.Trip{
			Legs: []dto.Leg{
				{Segments: []dto.Segment{{
					Airline:          "AZ",
					FlightNumber:     "573",
					DepartureAirport: "ZRH",
					ArrivalAirport:   "FCO",
					DepartureDate:    "2026-02-01",
					DepartureTime:    "19:15:00",
					ArrivalTime:      "20:45:00",
				}}},
				{Segments: []dto.Segment{{
					Airline:          "AZ",
					FlightNumber:     "572",
					DepartureAirport: "FCO",
					ArrivalAirport:   "ZRH",
					DepartureDate:    "2026-02-10",
					DepartureTime:    "08:20:00",
					ArrivalTime:      "09:55:00",
				}}},
			},
			TravelClass: "ECONOMY",
			Adults:      1,
		},
		Source:   "MCP",
		Price:    "200.00",
		Currency: "EUR",
		Location: "IT",
	}
}

func TestSplitFlightDesignator(t *testing.T) {
	splitRequest := func(airline, flightNumber, wantAirline, wantNumber string) func(t *testing.T) {
		return func(t *testing.T) {
			gotAirline, gotNumber := SplitFlightDesignator(airline, flightNumber)
			if gotAirline != wantAirline || gotNumber != wantNumber {
				t.Fatalf("expected (%s, %s), got (%s, %s)", wantAirline, wantNumber, gotAirline, gotNumber)
			}
		}
	}

	t.Run("already_split", splitRequest("U2", "3811", "U2", "3811"))
	t.Run("prefix_in_number", splitRequest("", "LX1612", "LX", "1612"))
	t.Run("prefix_with_space", splitRequest("", "U2 3811", "U2", "3811"))
	t.Run("airline_name_truncated", splitRequest("Swiss", "1612", "SW", "1612"))
	t.Run("prefix_and_valid_airline", splitRequest("AZ", "AZ0573", "AZ", "573"))
	t.Run("leading_zeros_stripped", splitRequest("BA", "0042", "BA", "42"))
	t.Run("all_zero_number", splitRequest("BA", "000", "BA", "0"))
	t.Run("lowercase_designator", splitRequest("", "fr100", "FR", "100"))
	t.Run("digits_only_no_prefix", splitRequest("", "816", "", "816"))
}

func TestPadTime(t *testing.T) {
	padRequest := func(in, want string) func(t *testing.T) {
		return func(t *testing.T) {
			if got := padTime(in); got != want {
				t.Fatalf("expected %s, got %s", want, got)
			}
		}
	}

	t.Run("empty_defaults_midnight", padRequest("", "00:00:00"))
	t.Run("minutes_padded", padRequest("18:40", "18:40:00"))
	t.Run("seconds_kept", padRequest("18:40:30", "18:40:30"))
}

func TestNormalize(t *testing.T) {
	normalizeRequest := func(mutate func(*dto.ItineraryRequest), check func(t *testing.T, got dto.ItineraryRequest, err error)) func(t *testing.T) {
		return func(t *testing.T) {
			req := validRoundTrip()
			if mutate != nil {
				mutate(&req)
			}

			got, err := Normalize(req, testNow)
			check(t, got, err)
		}
	}

	wantErrContaining := func(fragment string) func(t *testing.T, got dto.ItineraryRequest, err error) {
		return func(t *testing.T, _ dto.ItineraryRequest, err error) {
			assert.Error(t, err)
			if !strings.Contains(err.Error(), fragment) {
				t.Fatalf("expected error containing %q, got %q", fragment, err.Error())
			}
		}
	}

	t.Run("valid_passes_unchanged", normalizeRequest(nil,
		func(t *testing.T, got dto.ItineraryRequest, err error) {
			assert.NoError(t, err)
			if diff := cmp.Diff(validRoundTrip(), got); diff != "" {
				t.Fatalf("Normalize() mismatch (-want +got):\n%s", diff)
			}
		}))

	t.Run("one_way_rejected", normalizeRequest(
		func(req *dto.ItineraryRequest) {
			req.Trip.Legs = req.Trip.Legs[:1]
		},
		wantErrContaining("one-way trips are not yet supported")))

	t.Run("multi_city_rejected", normalizeRequest(
		func(req *dto.ItineraryRequest) {
			req.Trip.Legs = append(req.Trip.Legs, req.Trip.Legs[0])
		},
		wantErrContaining("multi-city trips are not yet supported")))

	t.Run("open_jaw_rejected", normalizeRequest(
		func(req *dto.ItineraryRequest) {
			req.Trip.Legs[1].Segments[0].DepartureAirport = "MXP"
		},
		wantErrContaining("open-jaw trips are not yet supported")))

	t.Run("metro_group_return_accepted", normalizeRequest(
		func(req *dto.ItineraryRequest) {
			// outbound lands at FCO, return departs Ciampino: same metro area
			req.Trip.Legs[1].Segments[0].DepartureAirport = "CIA"
		},
		func(t *testing.T, _ dto.ItineraryRequest, err error) {
			assert.NoError(t, err)
		}))

	t.Run("flattened_round_trip_split", normalizeRequest(
		func(req *dto.ItineraryRequest) {
			merged := append(req.Trip.Legs[0].Segments, req.Trip.Legs[1].Segments...)
			req.Trip.Legs = []dto.Leg{{Segments: merged}}
		},
		func(t *testing.T, got dto.ItineraryRequest, err error) {
			assert.NoError(t, err)
			assert.Len(t, got.Trip.Legs, 2)
			assert.Equal(t, "FCO", got.ReturnLeg().Segments[0].DepartureAirport)
		}))

	t.Run("past_date_rejected", normalizeRequest(
		func(req *dto.ItineraryRequest) {
			req.Trip.Legs[0].Segments[0].DepartureDate = "2025-12-01"
		},
		wantErrContaining("in the past")))

	t.Run("malformed_date_rejected", normalizeRequest(
		func(req *dto.ItineraryRequest) {
			req.Trip.Legs[0].Segments[0].DepartureDate = "01/02/2026"
		},
		wantErrContaining("expected YYYY-MM-DD")))

	t.Run("return_before_outbound_rejected", normalizeRequest(
		func(req *dto.ItineraryRequest) {
			req.Trip.Legs[1].Segments[0].DepartureDate = "2026-01-20"
			req.Trip.Legs[0].Segments[0].DepartureDate = "2026-02-01"
		},
		wantErrContaining("before the outbound leg")))

	t.Run("price_stripped_and_padded", normalizeRequest(
		func(req *dto.ItineraryRequest) {
			req.Price = "€1,234.5"
		},
		func(t *testing.T, got dto.ItineraryRequest, err error) {
			assert.NoError(t, err)
			assert.Equal(t, "1234.50", got.Price)
		}))

	t.Run("unparseable_price_rejected", normalizeRequest(
		func(req *dto.ItineraryRequest) {
			req.Price = "call us"
		},
		wantErrContaining("invalid reference price")))

	t.Run("unknown_source_defaults_manual", normalizeRequest(
		func(req *dto.ItineraryRequest) {
			req.Source = "ChatGPT"
		},
		func(t *testing.T, got dto.ItineraryRequest, err error) {
			assert.NoError(t, err)
			assert.Equal(t, "MANUAL", got.Source)
		}))

	t.Run("known_source_uppercased", normalizeRequest(
		func(req *dto.ItineraryRequest) {
			req.Source = "kayak"
		},
		func(t *testing.T, got dto.ItineraryRequest, err error) {
			assert.NoError(t, err)
			assert.Equal(t, "KAYAK", got.Source)
		}))

	t.Run("unknown_location_defaults", normalizeRequest(
		func(req *dto.ItineraryRequest) {
			req.Location = "Unknown"
		},
		func(t *testing.T, got dto.ItineraryRequest, err error) {
			assert.NoError(t, err)
			assert.Equal(t, DefaultLocation, got.Location)
		}))

	t.Run("times_padded", normalizeRequest(
		func(req *dto.ItineraryRequest) {
			req.Trip.Legs[0].Segments[0].DepartureTime = "19:15"
			req.Trip.Legs[0].Segments[0].ArrivalTime = ""
		},
		func(t *testing.T, got dto.ItineraryRequest, err error) {
			assert.NoError(t, err)
			assert.Equal(t, "19:15:00", got.OutboundLeg().Segments[0].DepartureTime)
			assert.Equal(t, "00:00:00", got.OutboundLeg().Segments[0].ArrivalTime)
		}))

	t.Run("currency_uppercased", normalizeRequest(
		func(req *dto.ItineraryRequest) {
			req.Currency = "eur"
		},
		func(t *testing.T, got dto.ItineraryRequest, err error) {
			assert.NoError(t, err)
			assert.Equal(t, "EUR", got.Currency)
		}))
}

func TestSplitRoundTripLegs_Idempotent(t *testing.T) {
	legs := validRoundTrip().Trip.Legs

	once := SplitRoundTripLegs(legs)
	twice := SplitRoundTripLegs(once)

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("second split changed the legs (-once +twice):\n%s", diff)
	}
}
