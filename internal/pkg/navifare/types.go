package navifare

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// errorBody is the backend's embedded error convention: a body carrying
// is_error or type "http_error" is an error even under HTTP 200.
type errorBody struct {
	IsError bool        `json:"is_error"`
	Type    string      `json:"type"`
	Code    json.Number `json:"code"`
	Message string      `json:"message"`
}

func (e errorBody) isError() bool {
	return e.IsError || e.Type == "http_error"
}

type submitResponse struct {
	errorBody
	RequestID string `json:"request_id"`
}

type sessionResponse struct {
	RequestID string         `json:"request_id"`
	Status    string         `json:"status"`
	Results   []resultRecord `json:"results"`
}

// resultRecord tolerates the backend's loose field naming: source vs
// website_name, booking_URL vs booking_url, and a private_fare flag that
// arrives either as a bool or as the string "true".
type resultRecord struct {
	Price       json.Number  `json:"price"`
	Currency    string       `json:"currency"`
	Source      string       `json:"source"`
	WebsiteName string       `json:"website_name"`
	BookingURLU string       `json:"booking_URL"`
	BookingURLL string       `json:"booking_url"`
	PrivateFare flexibleBool `json:"private_fare"`
	Timestamp   string       `json:"timestamp"`
}

func (r resultRecord) website() string {
	if r.Source != "" {
		return r.Source
	}

	return r.WebsiteName
}

func (r resultRecord) bookingURL() string {
	if r.BookingURLU != "" {
		return r.BookingURLU
	}

	return r.BookingURLL
}

type flexibleBool bool

func (b *flexibleBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch string(data) {
	case "true", `"true"`:
		*b = true
	case "false", `"false"`, "null", `""`:
		*b = false
	default:
		return fmt.Errorf("unexpected boolean value %s", data)
	}

	return nil
}
