package app

import (
	"fmt"

	authhandler "lakeside/internal/auth/handler"
	"lakeside/internal/auth/principal"
	"lakeside/internal/auth/token"
	"lakeside/internal/bookings/conflict"
	"lakeside/internal/bookings/events"
	bookingshandler "lakeside/internal/bookings/handler"
	bookingsservice "lakeside/internal/bookings/service"
	bookingsvalidator "lakeside/internal/bookings/validator"
	"lakeside/internal/inventory"
	roomshandler "lakeside/internal/rooms/handler"
	roomsservice "lakeside/internal/rooms/service"
	roomsvalidator "lakeside/internal/rooms/validator"
	"lakeside/pkg/config"
	"lakeside/pkg/contracts"
	"lakeside/pkg/logger"
)

// Stack is the booking core assembled over one inventory store.
type Stack struct {
	Store    inventory.Store
	Codec    *token.Codec
	Auth     *authhandler.Authenticator
	Bookings bookingsservice.BookingService
	Rooms    roomsservice.RoomService

	log *logger.Logger
}

// NewStack wires the auth boundary, the coordinator and the room services.
// A nil publisher disables booking events.
func NewStack(cfg *config.Config, store inventory.Store, publisher events.Publisher) (*Stack, error) {
	codec, err := token.NewCodec([]byte(cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to build token codec: %w", err)
	}

	auth := authhandler.NewAuthenticator(principal.NewResolver(codec, cfg.AuthScheme), cfg.Log)

	bookings := bookingsservice.NewBookingCoordinator(
		store,
		conflict.NewResolver(store),
		bookingsvalidator.NewBookingValidator(cfg.Log),
		cfg.Log,
		bookingsservice.WithRetryBackoff(cfg.StoreRetryBackoff),
		bookingsservice.WithPublisher(publisher),
	)
	rooms := roomsservice.NewRoomService(store, roomsvalidator.NewRoomValidator(), cfg.Log)

	cfg.Log.Info("Booking core initialized", "store", fmt.Sprintf("%T", store))
	return &Stack{
		Store:    store,
		Codec:    codec,
		Auth:     auth,
		Bookings: bookings,
		Rooms:    rooms,
		log:      cfg.Log,
	}, nil
}

func (s *Stack) Handlers() []contracts.Handler {
	return []contracts.Handler{
		bookingshandler.NewBookingHandler(s.Bookings, s.Auth, s.log),
		roomshandler.NewRoomHandler(s.Rooms, s.Auth, s.log),
	}
}
