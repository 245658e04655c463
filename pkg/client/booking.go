package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"lakeside/pkg/model"
)

type Metadata struct {
	TotalCount int64 `json:"total_count"`
	Limit      int   `json:"limit"`
	Offset     int64 `json:"offset"`
}

type BookingClient struct {
	httpClient *HttpClient
}

func NewBookingClient(httpClient *HttpClient) *BookingClient {
	return &BookingClient{httpClient: httpClient}
}

func (c *BookingClient) Create(ctx context.Context, req model.BookingRequest) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/bookings", req)
}

// CreateIdempotent sends the request with an Idempotency-Key so retries replay
// the first successful response.
func (c *BookingClient) CreateIdempotent(ctx context.Context, req model.BookingRequest, key string) (*Response, error) {
	return c.httpClient.POSTWithHeaders(ctx, "/api/v1/bookings", req, map[string]string{"Idempotency-Key": key})
}

func (c *BookingClient) CreateRaw(ctx context.Context, rawBody []byte) (*Response, error) {
	return c.httpClient.POSTRaw(ctx, "/api/v1/bookings", rawBody)
}

func (c *BookingClient) GetByID(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.GET(ctx, "/api/v1/bookings/id/"+url.PathEscape(id))
}

func (c *BookingClient) Cancel(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/bookings/id/"+url.PathEscape(id)+"/cancel", nil)
}

func (c *BookingClient) ListForRoom(ctx context.Context, roomID string, statuses ...model.BookingStatus) (*Response, error) {
	path := "/api/v1/rooms/id/" + url.PathEscape(roomID) + "/bookings"
	if len(statuses) > 0 {
		parts := make([]string, len(statuses))
		for i, s := range statuses {
			parts[i] = string(s)
		}
		path += "?" + url.Values{"status": {strings.Join(parts, ",")}}.Encode()
	}
	return c.httpClient.GET(ctx, path)
}

func (c *BookingClient) DecodeBooking(resp *Response) (*model.Booking, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode booking wrapper: %s: %w", resp.ToString(), err)
	}

	var booking model.Booking
	if err := json.Unmarshal(wrapper.Data, &booking); err != nil {
		return nil, fmt.Errorf("could not decode booking json: %s: %w", resp.ToString(), err)
	}
	return &booking, nil
}

func (c *BookingClient) DecodeBookings(resp *Response) ([]model.Booking, error) {
	var wrapper struct {
		Data []model.Booking `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode booking list: %s: %w", resp.ToString(), err)
	}
	return wrapper.Data, nil
}
