package memory

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"sync"
	"time"

	"lakeside/internal/bookings/conflict"
	bookingserrors "lakeside/internal/bookings/errors"
	"lakeside/internal/inventory"
	"lakeside/pkg/model"

	"github.com/google/uuid"
)

// roomState is one room and its bookings. mu serializes every booking
// mutation for the room; other rooms are never blocked by it.
type roomState struct {
	mu       sync.Mutex
	room     model.Room
	bookings []model.Booking
	deleted  bool
}

// Store is an in-process inventory store.
type Store struct {
	mu    sync.RWMutex // guards rooms and order, not room contents
	rooms map[string]*roomState
	order []string

	bookingRooms sync.Map // booking id -> room id
	codes        sync.Map // confirmation code -> booking id

	newCode      inventory.CodeGenerator
	codeAttempts int
	now          func() time.Time
}

type Option func(*Store)

func WithCodeGenerator(gen inventory.CodeGenerator) Option {
	return func(s *Store) {
		s.newCode = gen
	}
}

func WithCodeAttempts(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.codeAttempts = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		rooms:        make(map[string]*roomState),
		newCode:      inventory.NewConfirmationCode,
		codeAttempts: inventory.DefaultCodeAttempts,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ inventory.Store = (*Store)(nil)

func (s *Store) state(id string) (*roomState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.rooms[id]
	return st, ok
}

func (s *Store) GetRoom(ctx context.Context, id string) (*model.Room, error) {
	if err := inventory.ContextError(ctx); err != nil {
		return nil, err
	}
	st, ok := s.state(id)
	if !ok {
		return nil, bookingserrors.ErrRoomNotFound
	}

	st.mu.Lock()
	room := st.room
	st.mu.Unlock()
	return &room, nil
}

func (s *Store) ListRooms(ctx context.Context, limit int, offset int64) ([]model.Room, int64, error) {
	if err := inventory.ContextError(ctx); err != nil {
		return nil, 0, err
	}

	s.mu.RLock()
	total := int64(len(s.order))
	start := min(offset, total)
	end := total
	if limit > 0 {
		end = min(start+int64(limit), total)
	}
	states := make([]*roomState, 0, end-start)
	for _, id := range s.order[start:end] {
		states = append(states, s.rooms[id])
	}
	s.mu.RUnlock()

	rooms := make([]model.Room, 0, len(states))
	for _, st := range states {
		st.mu.Lock()
		rooms = append(rooms, st.room)
		st.mu.Unlock()
	}
	return rooms, total, nil
}

func (s *Store) ListRoomTypes(ctx context.Context) ([]string, error) {
	if err := inventory.ContextError(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	states := make([]*roomState, 0, len(s.rooms))
	for _, st := range s.rooms {
		states = append(states, st)
	}
	s.mu.RUnlock()

	seen := make(map[string]struct{}, len(states))
	for _, st := range states {
		st.mu.Lock()
		seen[st.room.Type] = struct{}{}
		st.mu.Unlock()
	}

	types := make([]string, 0, len(seen))
	for t := range seen {
		types = append(types, t)
	}
	slices.Sort(types)
	return types, nil
}

func (s *Store) CreateRoom(ctx context.Context, room model.Room) (*model.Room, error) {
	if err := inventory.ContextError(ctx); err != nil {
		return nil, err
	}

	if room.ID == "" {
		room.ID = uuid.New().String()
	}
	now := s.now().UTC().Truncate(time.Millisecond)
	room.CreatedAt = now
	room.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rooms[room.ID]; exists {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrRoomExists, room.ID)
	}
	s.rooms[room.ID] = &roomState{room: room}
	s.order = append(s.order, room.ID)
	return &room, nil
}

func (s *Store) UpdateRoom(ctx context.Context, id string, update model.RoomUpdate) (*model.Room, error) {
	if err := inventory.ContextError(ctx); err != nil {
		return nil, err
	}
	st, ok := s.state(id)
	if !ok {
		return nil, bookingserrors.ErrRoomNotFound
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.deleted {
		return nil, bookingserrors.ErrRoomNotFound
	}
	room := update.Apply(st.room)
	room.UpdatedAt = s.now().UTC().Truncate(time.Millisecond)
	st.room = room
	return &room, nil
}

// DeleteRoom takes the store lock and then the room lock. No path takes
// them in the other order.
func (s *Store) DeleteRoom(ctx context.Context, id string) error {
	if err := inventory.ContextError(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.rooms[id]
	if !ok {
		return bookingserrors.ErrRoomNotFound
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if slices.ContainsFunc(st.bookings, func(b model.Booking) bool { return b.Status.Active() }) {
		return bookingserrors.ErrRoomInUse
	}

	st.deleted = true
	for _, b := range st.bookings {
		s.bookingRooms.Delete(b.ID)
	}
	delete(s.rooms, id)
	s.order = slices.DeleteFunc(s.order, func(roomID string) bool { return roomID == id })
	return nil
}

func (s *Store) ListBookingsForRoom(ctx context.Context, roomID string, statuses ...model.BookingStatus) (iter.Seq[model.Booking], error) {
	if err := inventory.ContextError(ctx); err != nil {
		return nil, err
	}
	st, ok := s.state(roomID)
	if !ok {
		return nil, bookingserrors.ErrRoomNotFound
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	matched := make([]model.Booking, 0, len(st.bookings))
	for _, b := range st.bookings {
		if inventory.MatchesStatus(b.Status, statuses) {
			matched = append(matched, b)
		}
	}
	return inventory.Snapshot(matched), nil
}

func (s *Store) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	if err := inventory.ContextError(ctx); err != nil {
		return nil, err
	}
	st, idx, unlock, err := s.lockBooking(id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	b := st.bookings[idx]
	return &b, nil
}

// lockBooking finds the booking and returns its room locked.
func (s *Store) lockBooking(id string) (*roomState, int, func(), error) {
	roomID, ok := s.bookingRooms.Load(id)
	if !ok {
		return nil, 0, nil, bookingserrors.ErrNotFound
	}
	st, ok := s.state(roomID.(string))
	if !ok {
		return nil, 0, nil, bookingserrors.ErrNotFound
	}

	st.mu.Lock()
	idx := slices.IndexFunc(st.bookings, func(b model.Booking) bool { return b.ID == id })
	if idx < 0 {
		st.mu.Unlock()
		return nil, 0, nil, bookingserrors.ErrNotFound
	}
	return st, idx, st.mu.Unlock, nil
}

func (s *Store) CommitBooking(ctx context.Context, candidate model.Booking) (*model.Booking, error) {
	if err := inventory.ContextError(ctx); err != nil {
		return nil, err
	}
	st, ok := s.state(candidate.RoomID)
	if !ok {
		return nil, bookingserrors.ErrRoomNotFound
	}

	if candidate.ID == "" {
		candidate.ID = uuid.New().String()
	}
	candidate.CheckIn = model.NormalizeDate(candidate.CheckIn)
	candidate.CheckOut = model.NormalizeDate(candidate.CheckOut)
	if candidate.Range().Empty() {
		return nil, bookingserrors.ErrInvalidRange
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.deleted {
		return nil, bookingserrors.ErrRoomNotFound
	}

	// A candidate id that is already stored is a repeated commit.
	if idx := slices.IndexFunc(st.bookings, func(b model.Booking) bool { return b.ID == candidate.ID }); idx >= 0 {
		existing := st.bookings[idx]
		return &existing, nil
	}

	if winner, found := conflict.FindOverlap(slices.Values(st.bookings), candidate.Range()); found {
		return nil, bookingserrors.NewSlotTakenError(winner.Range())
	}

	code, err := s.reserveCode(candidate.ID)
	if err != nil {
		return nil, err
	}

	if err := inventory.ContextError(ctx); err != nil {
		s.codes.Delete(code)
		return nil, err
	}

	candidate.ConfirmationCode = code
	candidate.Status = model.BookingConfirmed
	candidate.CreatedAt = s.now().UTC().Truncate(time.Millisecond)
	candidate.CancelledAt = nil

	st.bookings = append(st.bookings, candidate)
	s.bookingRooms.Store(candidate.ID, candidate.RoomID)
	return &candidate, nil
}

func (s *Store) reserveCode(bookingID string) (string, error) {
	for range s.codeAttempts {
		code, err := s.newCode()
		if err != nil {
			return "", err
		}
		if _, taken := s.codes.LoadOrStore(code, bookingID); !taken {
			return code, nil
		}
	}
	return "", bookingserrors.ErrCodeGenerationExhausted
}

func (s *Store) CancelBooking(ctx context.Context, id string) (*model.Booking, error) {
	if err := inventory.ContextError(ctx); err != nil {
		return nil, err
	}
	st, idx, unlock, err := s.lockBooking(id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	b := st.bookings[idx]
	if b.Status == model.BookingCancelled {
		return nil, bookingserrors.ErrAlreadyCancelled
	}
	if !b.Status.CanTransitionTo(model.BookingCancelled) {
		return nil, fmt.Errorf("cannot cancel booking in status %s", b.Status)
	}

	cancelledAt := s.now().UTC().Truncate(time.Millisecond)
	b.Status = model.BookingCancelled
	b.CancelledAt = &cancelledAt
	st.bookings[idx] = b
	return &b, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return inventory.ContextError(ctx)
}
