package service

import (
	"context"
	"errors"
	"iter"
	"slices"
	"sync"
	"testing"
	"time"

	"lakeside/internal/bookings/conflict"
	bookingserrors "lakeside/internal/bookings/errors"
	"lakeside/internal/bookings/events"
	"lakeside/internal/bookings/validator"
	"lakeside/internal/inventory"
	"lakeside/internal/inventory/memory"
	apperrors "lakeside/pkg/errors"
	"lakeside/pkg/logger"
	"lakeside/pkg/model"
)

var fixedNow = time.Date(2030, 5, 1, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

var (
	alice = &model.Principal{Subject: "alice", Role: model.RoleGuest}
	bob   = &model.Principal{Subject: "bob", Role: model.RoleGuest}
	staff = &model.Principal{Subject: "frontdesk", Role: model.RoleStaff}
	admin = &model.Principal{Subject: "root", Role: model.RoleAdmin}
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.BookingEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

type fixture struct {
	store     *memory.Store
	svc       BookingService
	publisher *recordingPublisher
	room      *model.Room
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore(memory.WithClock(clock))
	room, err := store.CreateRoom(context.Background(), model.Room{Type: "double", NightlyPrice: 12000})
	if err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}
	pub := &recordingPublisher{}
	log := logger.Discard()
	svc := NewBookingCoordinator(
		store,
		conflict.NewResolver(store, conflict.WithClock(clock)),
		validator.NewBookingValidator(log),
		log,
		WithPublisher(pub),
		WithRetryBackoff(0),
		WithClock(clock),
	)
	return &fixture{store: store, svc: svc, publisher: pub, room: room}
}

func (f *fixture) request(in, out string) *model.BookingRequest {
	return &model.BookingRequest{RoomID: f.room.ID, CheckIn: in, CheckOut: out}
}

func wantCode(t *testing.T, err error, code string) *apperrors.AppError {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != code {
		t.Fatalf("error code = %s (%v), want %s", appErr.Code, err, code)
	}
	return appErr
}

func TestBook_OverlapThenAdjacent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Book(ctx, alice, f.request("2030-06-01", "2030-06-05"))
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}
	if first.GuestID != "alice" || first.Status != model.BookingConfirmed || len(first.ConfirmationCode) != inventory.ConfirmationCodeLength {
		t.Errorf("unexpected booking %+v", first)
	}

	appErr := wantCode(t, func() error {
		_, err := f.svc.Book(ctx, bob, f.request("2030-06-04", "2030-06-08"))
		return err
	}(), apperrors.CodeOverlap)
	if appErr.HTTPStatus != 400 {
		t.Errorf("HTTPStatus = %d, want 400", appErr.HTTPStatus)
	}
	if appErr.Details["conflicting_check_in"] != "2030-06-01" || appErr.Details["conflicting_check_out"] != "2030-06-05" {
		t.Errorf("details = %v", appErr.Details)
	}

	second, err := f.svc.Book(ctx, bob, f.request("2030-06-05", "2030-06-08"))
	if err != nil {
		t.Fatalf("adjacent Book() error = %v", err)
	}
	if second.ConfirmationCode == first.ConfirmationCode {
		t.Error("confirmation codes must differ")
	}

	if len(f.publisher.events) != 2 || f.publisher.events[0].Type != events.TypeBookingConfirmed {
		t.Errorf("published events = %+v", f.publisher.events)
	}
}

func TestBook_RejectedResubmissionIsStable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.Book(ctx, alice, f.request("2030-06-01", "2030-06-05")); err != nil {
		t.Fatalf("Book() error = %v", err)
	}

	var codes []string
	for range 3 {
		_, err := f.svc.Book(ctx, bob, f.request("2030-06-03", "2030-06-04"))
		codes = append(codes, apperrors.AsAppError(err).Code)
	}
	for _, c := range codes {
		if c != apperrors.CodeOverlap {
			t.Errorf("codes = %v, want all %s", codes, apperrors.CodeOverlap)
		}
	}

	bookings, err := f.svc.ListForRoom(ctx, staff, f.room.ID, nil)
	if err != nil {
		t.Fatalf("ListForRoom() error = %v", err)
	}
	if len(bookings) != 1 {
		t.Errorf("rejected attempts changed state: %d bookings", len(bookings))
	}
}

func TestBook_CalendarRules(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name     string
		in, out  string
		wantCode string
	}{
		{name: "reversed", in: "2030-06-05", out: "2030-06-01", wantCode: apperrors.CodeInvalidRange},
		{name: "zero nights", in: "2030-06-05", out: "2030-06-05", wantCode: apperrors.CodeInvalidRange},
		{name: "past", in: "2030-04-30", out: "2030-05-02", wantCode: apperrors.CodePastDate},
		{name: "malformed", in: "June 1", out: "2030-06-05", wantCode: apperrors.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Book(context.Background(), alice, f.request(tt.in, tt.out))
			wantCode(t, err, tt.wantCode)
		})
	}

	if _, err := f.svc.Book(context.Background(), alice, f.request("2030-05-01", "2030-05-02")); err != nil {
		t.Errorf("check-in today should be allowed: %v", err)
	}
}

func TestBook_OnBehalfOfGuest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.request("2030-06-01", "2030-06-02")
	req.GuestID = "  carol "
	b, err := f.svc.Book(ctx, staff, req)
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}
	if b.GuestID != "carol" {
		t.Errorf("GuestID = %q, want carol", b.GuestID)
	}
	if req.GuestID != "  carol " {
		t.Errorf("Book() rewrote the caller's request: GuestID = %q", req.GuestID)
	}

	req = f.request("2030-06-02", "2030-06-03")
	req.GuestID = "alice"
	if _, err := f.svc.Book(ctx, alice, req); err != nil {
		t.Errorf("guest naming itself should pass: %v", err)
	}
}

func TestBook_RoomNotFound(t *testing.T) {
	f := newFixture(t)
	req := &model.BookingRequest{RoomID: "0b0e8a6c-1f2d-4e3c-8b7a-6d5c4b3a2f10", CheckIn: "2030-06-01", CheckOut: "2030-06-02"}
	wantCode(t, func() error { _, err := f.svc.Book(context.Background(), alice, req); return err }(), apperrors.CodeNotFound)
}

// mockStore fails the test on any call not configured.
type mockStore struct {
	inventory.Store
	calls int

	getRoomFunc    func(ctx context.Context, id string) (*model.Room, error)
	listFunc       func(ctx context.Context, roomID string, statuses ...model.BookingStatus) (iter.Seq[model.Booking], error)
	commitFunc     func(ctx context.Context, candidate model.Booking) (*model.Booking, error)
	getBookingFunc func(ctx context.Context, id string) (*model.Booking, error)
	cancelFunc     func(ctx context.Context, id string) (*model.Booking, error)
}

func (m *mockStore) GetRoom(ctx context.Context, id string) (*model.Room, error) {
	m.calls++
	if m.getRoomFunc == nil {
		return nil, errors.New("unexpected GetRoom")
	}
	return m.getRoomFunc(ctx, id)
}

func (m *mockStore) ListBookingsForRoom(ctx context.Context, roomID string, statuses ...model.BookingStatus) (iter.Seq[model.Booking], error) {
	m.calls++
	if m.listFunc == nil {
		return inventory.Snapshot(nil), nil
	}
	return m.listFunc(ctx, roomID, statuses...)
}

func (m *mockStore) CommitBooking(ctx context.Context, candidate model.Booking) (*model.Booking, error) {
	m.calls++
	if m.commitFunc == nil {
		return nil, errors.New("unexpected CommitBooking")
	}
	return m.commitFunc(ctx, candidate)
}

func (m *mockStore) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	m.calls++
	if m.getBookingFunc == nil {
		return nil, errors.New("unexpected GetBooking")
	}
	return m.getBookingFunc(ctx, id)
}

func (m *mockStore) CancelBooking(ctx context.Context, id string) (*model.Booking, error) {
	m.calls++
	if m.cancelFunc == nil {
		return nil, errors.New("unexpected CancelBooking")
	}
	return m.cancelFunc(ctx, id)
}

const roomID = "5f0c8a2e-4b1d-4c3e-9a7b-0d2e6f1a3b4c"

func newMockCoordinator(store *mockStore, opts ...Option) BookingService {
	log := logger.Discard()
	opts = append([]Option{WithRetryBackoff(0), WithClock(clock)}, opts...)
	return NewBookingCoordinator(store, conflict.NewResolver(store, conflict.WithClock(clock)), validator.NewBookingValidator(log), log, opts...)
}

func validRequest() *model.BookingRequest {
	return &model.BookingRequest{RoomID: roomID, CheckIn: "2030-06-01", CheckOut: "2030-06-03"}
}

func TestBook_AuthorizationBeforeStoreAccess(t *testing.T) {
	tests := []struct {
		name     string
		p        *model.Principal
		guestID  string
		wantCode string
	}{
		{name: "anonymous", p: nil, wantCode: apperrors.CodeUnauthorized},
		{name: "unknown role", p: &model.Principal{Subject: "x", Role: "visitor"}, wantCode: apperrors.CodeForbidden},
		{name: "guest for someone else", p: alice, guestID: "bob", wantCode: apperrors.CodeForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockStore{}
			svc := newMockCoordinator(store)
			req := validRequest()
			req.GuestID = tt.guestID

			_, err := svc.Book(context.Background(), tt.p, req)
			wantCode(t, err, tt.wantCode)
			if store.calls != 0 {
				t.Errorf("store touched %d times before authorization", store.calls)
			}
		})
	}
}

func TestBook_ValidationBeforeStoreAccess(t *testing.T) {
	store := &mockStore{}
	svc := newMockCoordinator(store)

	_, err := svc.Book(context.Background(), alice, &model.BookingRequest{RoomID: "not-a-uuid", CheckIn: "2030-06-01", CheckOut: "2030-06-03"})
	appErr := wantCode(t, err, apperrors.CodeValidation)
	if appErr.HTTPStatus != 400 {
		t.Errorf("HTTPStatus = %d", appErr.HTTPStatus)
	}
	if store.calls != 0 {
		t.Errorf("store touched %d times", store.calls)
	}
}

func TestBook_RetriesUnavailableOnce(t *testing.T) {
	room := &model.Room{ID: roomID, Type: "single", NightlyPrice: 1}

	t.Run("recovers", func(t *testing.T) {
		attempts := 0
		store := &mockStore{
			getRoomFunc: func(context.Context, string) (*model.Room, error) {
				attempts++
				if attempts == 1 {
					return nil, bookingserrors.ErrStoreUnavailable
				}
				return room, nil
			},
			commitFunc: func(_ context.Context, c model.Booking) (*model.Booking, error) {
				c.ID, c.Status, c.ConfirmationCode = "b1", model.BookingConfirmed, "ABCDEFGH23"
				return &c, nil
			},
		}
		if _, err := newMockCoordinator(store).Book(context.Background(), alice, validRequest()); err != nil {
			t.Fatalf("Book() error = %v", err)
		}
		if attempts != 2 {
			t.Errorf("GetRoom attempts = %d, want 2", attempts)
		}
	})

	t.Run("gives up after one retry", func(t *testing.T) {
		attempts := 0
		store := &mockStore{
			getRoomFunc: func(context.Context, string) (*model.Room, error) {
				attempts++
				return nil, bookingserrors.ErrStoreUnavailable
			},
		}
		_, err := newMockCoordinator(store).Book(context.Background(), alice, validRequest())
		appErr := wantCode(t, err, apperrors.CodeUnavailable)
		if appErr.HTTPStatus != 503 {
			t.Errorf("HTTPStatus = %d", appErr.HTTPStatus)
		}
		if attempts != 2 {
			t.Errorf("GetRoom attempts = %d, want 2", attempts)
		}
	})

	t.Run("does not retry domain errors", func(t *testing.T) {
		attempts := 0
		store := &mockStore{
			getRoomFunc: func(context.Context, string) (*model.Room, error) { return room, nil },
			commitFunc: func(context.Context, model.Booking) (*model.Booking, error) {
				attempts++
				return nil, bookingserrors.NewSlotTakenError(model.NewDateRange(fixedNow.AddDate(0, 1, 0), fixedNow.AddDate(0, 1, 2)))
			},
		}
		_, err := newMockCoordinator(store).Book(context.Background(), alice, validRequest())
		wantCode(t, err, apperrors.CodeSlotTaken)
		if attempts != 1 {
			t.Errorf("CommitBooking attempts = %d, want 1", attempts)
		}
	})
}

// lostAckStore persists the first commit and then reports the store as
// unavailable, as a timed out acknowledgement would.
type lostAckStore struct {
	*memory.Store
	commits []model.Booking
}

func (s *lostAckStore) CommitBooking(ctx context.Context, candidate model.Booking) (*model.Booking, error) {
	s.commits = append(s.commits, candidate)
	b, err := s.Store.CommitBooking(ctx, candidate)
	if len(s.commits) == 1 && err == nil {
		return nil, errors.Join(bookingserrors.ErrStoreUnavailable, errors.New("acknowledgement lost"))
	}
	return b, err
}

func TestBook_RetryAfterLostCommitAcknowledgement(t *testing.T) {
	store := &lostAckStore{Store: memory.NewStore(memory.WithClock(clock))}
	room, err := store.CreateRoom(context.Background(), model.Room{Type: "double", NightlyPrice: 12000})
	if err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}
	pub := &recordingPublisher{}
	log := logger.Discard()
	svc := NewBookingCoordinator(store, conflict.NewResolver(store, conflict.WithClock(clock)), validator.NewBookingValidator(log), log,
		WithPublisher(pub), WithRetryBackoff(0), WithClock(clock))

	b, err := svc.Book(context.Background(), alice, &model.BookingRequest{RoomID: room.ID, CheckIn: "2030-06-01", CheckOut: "2030-06-03"})
	if err != nil {
		t.Fatalf("Book() error = %v, want the booking that was stored", err)
	}

	if len(store.commits) != 2 {
		t.Fatalf("CommitBooking calls = %d, want 2", len(store.commits))
	}
	if store.commits[0].ID == "" || store.commits[0].ID != store.commits[1].ID {
		t.Errorf("retry used id %q, first commit used %q", store.commits[1].ID, store.commits[0].ID)
	}

	seq, err := store.ListBookingsForRoom(context.Background(), room.ID)
	if err != nil {
		t.Fatalf("ListBookingsForRoom() error = %v", err)
	}
	stored := slices.Collect(seq)
	if len(stored) != 1 {
		t.Fatalf("stored bookings = %d, want 1", len(stored))
	}
	if b.ID != stored[0].ID || b.ConfirmationCode != stored[0].ConfirmationCode || b.GuestID != "alice" {
		t.Errorf("Book() = %+v, stored %+v", b, stored[0])
	}
	if len(pub.events) != 1 {
		t.Errorf("published events = %d, want 1", len(pub.events))
	}
}

func TestBook_CommitFailures(t *testing.T) {
	room := &model.Room{ID: roomID, Type: "single", NightlyPrice: 1}
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{name: "code exhausted", err: bookingserrors.ErrCodeGenerationExhausted, wantCode: apperrors.CodeCodeExhausted, wantStatus: 500},
		{name: "room vanished", err: bookingserrors.ErrRoomNotFound, wantCode: apperrors.CodeNotFound, wantStatus: 404},
		{name: "unexpected", err: errors.New("disk on fire"), wantCode: apperrors.CodeInternal, wantStatus: 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &recordingPublisher{}
			store := &mockStore{
				getRoomFunc: func(context.Context, string) (*model.Room, error) { return room, nil },
				commitFunc:  func(context.Context, model.Booking) (*model.Booking, error) { return nil, tt.err },
			}
			_, err := newMockCoordinator(store, WithPublisher(pub)).Book(context.Background(), alice, validRequest())
			appErr := wantCode(t, err, tt.wantCode)
			if appErr.HTTPStatus != tt.wantStatus {
				t.Errorf("HTTPStatus = %d, want %d", appErr.HTTPStatus, tt.wantStatus)
			}
			if len(pub.events) != 0 {
				t.Error("failed commit must not publish")
			}
		})
	}
}

func TestBook_PublishFailureKeepsBooking(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")

	b, err := f.svc.Book(context.Background(), alice, f.request("2030-06-01", "2030-06-02"))
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}
	if _, err := f.store.GetBooking(context.Background(), b.ID); err != nil {
		t.Errorf("booking should survive publish failure: %v", err)
	}
}

func TestBook_ConcurrentSameStay(t *testing.T) {
	f := newFixture(t)
	const workers = 10

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok        int
		conflicts int
	)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := &model.Principal{Subject: "guest-" + string(rune('a'+i)), Role: model.RoleGuest}
			_, err := f.svc.Book(context.Background(), p, f.request("2030-07-01", "2030-07-03"))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
				return
			}
			switch apperrors.AsAppError(err).Code {
			case apperrors.CodeSlotTaken, apperrors.CodeOverlap:
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 1 || conflicts != workers-1 {
		t.Errorf("ok = %d, conflicts = %d", ok, conflicts)
	}
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, err := f.svc.Book(ctx, alice, f.request("2030-06-01", "2030-06-05"))
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}

	_, err = f.svc.Cancel(ctx, bob, b.ID)
	wantCode(t, err, apperrors.CodeForbidden)

	cancelled, err := f.svc.Cancel(ctx, alice, b.ID)
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if cancelled.Status != model.BookingCancelled {
		t.Errorf("Status = %s", cancelled.Status)
	}

	_, err = f.svc.Cancel(ctx, alice, b.ID)
	wantCode(t, err, apperrors.CodeAlreadyCancelled)

	_, err = f.svc.Cancel(ctx, staff, "0b0e8a6c-1f2d-4e3c-8b7a-6d5c4b3a2f10")
	wantCode(t, err, apperrors.CodeNotFound)

	_, err = f.svc.Cancel(ctx, staff, "nope")
	wantCode(t, err, apperrors.CodeInvalidInput)

	last := f.publisher.events[len(f.publisher.events)-1]
	if last.Type != events.TypeBookingCancelled || last.BookingID != b.ID {
		t.Errorf("last event = %+v", last)
	}

	if _, err := f.svc.Book(ctx, bob, f.request("2030-06-02", "2030-06-04")); err != nil {
		t.Errorf("cancelled dates should be bookable: %v", err)
	}
}

func TestCancel_StaffMayCancelAnyBooking(t *testing.T) {
	f := newFixture(t)
	b, err := f.svc.Book(context.Background(), alice, f.request("2030-06-01", "2030-06-05"))
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}
	if _, err := f.svc.Cancel(context.Background(), admin, b.ID); err != nil {
		t.Errorf("admin Cancel() error = %v", err)
	}
}

func TestGetByID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, err := f.svc.Book(ctx, alice, f.request("2030-06-01", "2030-06-05"))
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}

	for _, p := range []*model.Principal{alice, staff, admin} {
		got, err := f.svc.GetByID(ctx, p, b.ID)
		if err != nil || got.ID != b.ID {
			t.Errorf("GetByID(%s) = %v, %v", p.Subject, got, err)
		}
	}
	_, err = f.svc.GetByID(ctx, bob, b.ID)
	wantCode(t, err, apperrors.CodeForbidden)
	_, err = f.svc.GetByID(ctx, nil, b.ID)
	wantCode(t, err, apperrors.CodeUnauthorized)
}

func TestListForRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first, _ := f.svc.Book(ctx, alice, f.request("2030-06-01", "2030-06-03"))
	if _, err := f.svc.Book(ctx, bob, f.request("2030-06-03", "2030-06-05")); err != nil {
		t.Fatalf("Book() error = %v", err)
	}
	if _, err := f.svc.Cancel(ctx, alice, first.ID); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}

	_, err := f.svc.ListForRoom(ctx, alice, f.room.ID, nil)
	wantCode(t, err, apperrors.CodeForbidden)

	all, err := f.svc.ListForRoom(ctx, staff, f.room.ID, nil)
	if err != nil || len(all) != 2 {
		t.Fatalf("ListForRoom(all) = %d, %v", len(all), err)
	}
	active, err := f.svc.ListForRoom(ctx, staff, f.room.ID, model.ActiveBookingStatuses)
	if err != nil || len(active) != 1 || active[0].GuestID != "bob" {
		t.Errorf("ListForRoom(active) = %+v, %v", active, err)
	}

	_, err = f.svc.ListForRoom(ctx, staff, f.room.ID, []model.BookingStatus{"archived"})
	wantCode(t, err, apperrors.CodeValidation)

	_, err = f.svc.ListForRoom(ctx, staff, "0b0e8a6c-1f2d-4e3c-8b7a-6d5c4b3a2f10", nil)
	wantCode(t, err, apperrors.CodeNotFound)
}
