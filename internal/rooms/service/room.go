package service

import (
	"context"
	"errors"

	autherrors "lakeside/internal/auth/errors"
	"lakeside/internal/auth/gate"
	bookingserrors "lakeside/internal/bookings/errors"
	"lakeside/internal/inventory"
	"lakeside/internal/rooms/validator"
	apperrors "lakeside/pkg/errors"
	"lakeside/pkg/logger"
	"lakeside/pkg/model"
	"lakeside/pkg/sanitizer"
)

type RoomService interface {
	List(ctx context.Context, limit int, offset int64) ([]model.Room, int64, error)
	ListTypes(ctx context.Context) ([]string, error)
	GetByID(ctx context.Context, id string) (*model.Room, error)
	Create(ctx context.Context, p *model.Principal, room *model.Room) (*model.Room, error)
	Update(ctx context.Context, p *model.Principal, id string, update *model.RoomUpdate) (*model.Room, error)
	Delete(ctx context.Context, p *model.Principal, id string) error
}

type roomService struct {
	store     inventory.Store
	validator *validator.RoomValidator
	log       *logger.Logger
}

func NewRoomService(store inventory.Store, validator *validator.RoomValidator, log *logger.Logger) RoomService {
	return &roomService{
		store:     store,
		validator: validator,
		log:       log,
	}
}

func (s *roomService) List(ctx context.Context, limit int, offset int64) ([]model.Room, int64, error) {
	rooms, total, err := s.store.ListRooms(ctx, limit, offset)
	if err != nil {
		s.log.Error("Failed to list rooms", "limit", limit, "offset", offset, "error", err)
		return nil, 0, s.translate(err, "")
	}
	if rooms == nil {
		rooms = []model.Room{}
	}
	return rooms, total, nil
}

func (s *roomService) ListTypes(ctx context.Context) ([]string, error) {
	types, err := s.store.ListRoomTypes(ctx)
	if err != nil {
		s.log.Error("Failed to list room types", "error", err)
		return nil, s.translate(err, "")
	}
	if types == nil {
		types = []string{}
	}
	return types, nil
}

func (s *roomService) GetByID(ctx context.Context, id string) (*model.Room, error) {
	if err := s.validator.ValidateID(id); err != nil {
		return nil, apperrors.InvalidInput("Invalid room ID format")
	}

	room, err := s.store.GetRoom(ctx, id)
	if err != nil {
		return nil, s.translate(err, id)
	}
	return room, nil
}

func (s *roomService) Create(ctx context.Context, p *model.Principal, room *model.Room) (*model.Room, error) {
	if err := gate.Authorize(p, model.RoleAdmin); err != nil {
		return nil, s.translate(err, "")
	}

	room.Type = sanitizer.SanitizeRoomType(room.Type)
	room.PhotoRef = sanitizer.SanitizePhotoRef(room.PhotoRef)
	if err := s.validator.Validate(room); err != nil {
		s.log.Warn("Room validation failed", "error", err)
		return nil, apperrors.Validation("Room validation failed", map[string]any{"errors": err})
	}

	created, err := s.store.CreateRoom(ctx, *room)
	if err != nil {
		s.log.Error("Failed to create room", "error", err)
		return nil, s.translate(err, room.ID)
	}

	s.log.Info("Room created successfully",
		"id", created.ID,
		"room_type", created.Type,
		"nightly_price", created.NightlyPrice,
		"created_by", p.Subject,
	)
	return created, nil
}

func (s *roomService) Update(ctx context.Context, p *model.Principal, id string, update *model.RoomUpdate) (*model.Room, error) {
	if err := gate.Authorize(p, model.RoleStaff); err != nil {
		return nil, s.translate(err, id)
	}
	if err := s.validator.ValidateID(id); err != nil {
		return nil, apperrors.InvalidInput("Invalid room ID format")
	}

	if update.Type != "" {
		update.Type = sanitizer.SanitizeRoomType(update.Type)
	}
	if update.PhotoRef != nil {
		ref := sanitizer.SanitizePhotoRef(*update.PhotoRef)
		update.PhotoRef = &ref
	}
	if err := s.validator.ValidateUpdate(update); err != nil {
		s.log.Warn("Room update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"errors": err})
	}

	updated, err := s.store.UpdateRoom(ctx, id, *update)
	if err != nil {
		s.log.Error("Failed to update room", "id", id, "error", err)
		return nil, s.translate(err, id)
	}

	s.log.Info("Room updated successfully", "id", id, "updated_by", p.Subject)
	return updated, nil
}

// Delete removes a room that holds no active bookings.
func (s *roomService) Delete(ctx context.Context, p *model.Principal, id string) error {
	if err := gate.Authorize(p, model.RoleAdmin); err != nil {
		return s.translate(err, id)
	}
	if err := s.validator.ValidateID(id); err != nil {
		return apperrors.InvalidInput("Invalid room ID format")
	}

	if err := s.store.DeleteRoom(ctx, id); err != nil {
		s.log.Warn("Failed to delete room", "id", id, "error", err)
		return s.translate(err, id)
	}

	s.log.Info("Room deleted successfully", "id", id, "deleted_by", p.Subject)
	return nil
}

func (s *roomService) translate(err error, id string) error {
	switch {
	case errors.Is(err, autherrors.ErrUnauthenticated):
		return apperrors.Unauthorized("Full authentication is required to access this resource")
	case errors.Is(err, autherrors.ErrForbidden):
		return apperrors.Forbidden("Access to this resource is denied")
	case errors.Is(err, bookingserrors.ErrRoomNotFound):
		return apperrors.NotFoundWithID("Room", id)
	case errors.Is(err, bookingserrors.ErrRoomExists):
		return apperrors.Conflict("Room with this ID already exists")
	case errors.Is(err, bookingserrors.ErrRoomInUse):
		return apperrors.Conflict("Room has active bookings and cannot be deleted")
	case errors.Is(err, bookingserrors.ErrStoreUnavailable):
		return apperrors.Unavailable("Room inventory").WithCause(err)
	}
	return apperrors.Internal("Failed to process room request", err)
}
