package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"lakeside/pkg/model"
)

type RoomClient struct {
	httpClient *HttpClient
}

func NewRoomClient(httpClient *HttpClient) *RoomClient {
	return &RoomClient{httpClient: httpClient}
}

func (c *RoomClient) Create(ctx context.Context, room model.Room) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/rooms", room)
}

func (c *RoomClient) Update(ctx context.Context, id string, update model.RoomUpdate) (*Response, error) {
	return c.httpClient.PATCH(ctx, "/api/v1/rooms/id/"+url.PathEscape(id), update)
}

func (c *RoomClient) Delete(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.DELETE(ctx, "/api/v1/rooms/id/"+url.PathEscape(id))
}

func (c *RoomClient) GetByID(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.GET(ctx, "/api/v1/rooms/id/"+url.PathEscape(id))
}

func (c *RoomClient) List(ctx context.Context, limit int, offset int64) (*Response, error) {
	return c.httpClient.GET(ctx, fmt.Sprintf("/api/v1/rooms?limit=%d&offset=%d", limit, offset))
}

func (c *RoomClient) ListTypes(ctx context.Context) (*Response, error) {
	return c.httpClient.GET(ctx, "/api/v1/rooms/types")
}

func (c *RoomClient) DecodeRoom(resp *Response) (*model.Room, error) {
	var wrapper struct {
		Data model.Room `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode room: %s: %w", resp.ToString(), err)
	}
	return &wrapper.Data, nil
}

func (c *RoomClient) DecodeRooms(resp *Response) ([]model.Room, *Metadata, error) {
	var wrapper struct {
		Data []model.Room `json:"data"`
		Metadata
	}
	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, nil, fmt.Errorf("could not decode room list: %s: %w", resp.ToString(), err)
	}
	return wrapper.Data, &wrapper.Metadata, nil
}
