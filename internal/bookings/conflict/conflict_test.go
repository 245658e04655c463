package conflict

import (
	"context"
	"errors"
	"iter"
	"slices"
	"testing"
	"time"

	bookingserrors "lakeside/internal/bookings/errors"
	"lakeside/pkg/model"
)

func day(s string) time.Time {
	t, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func booking(id, in, out string, status model.BookingStatus) model.Booking {
	return model.Booking{ID: id, RoomID: "room-1", CheckIn: day(in), CheckOut: day(out), Status: status}
}

func rng(in, out string) model.DateRange {
	return model.DateRange{CheckIn: day(in), CheckOut: day(out)}
}

type mockReader struct {
	listFunc func(ctx context.Context, roomID string, statuses ...model.BookingStatus) (iter.Seq[model.Booking], error)
	calls    int
}

func (m *mockReader) ListBookingsForRoom(ctx context.Context, roomID string, statuses ...model.BookingStatus) (iter.Seq[model.Booking], error) {
	m.calls++
	return m.listFunc(ctx, roomID, statuses...)
}

func readerOf(bookings ...model.Booking) *mockReader {
	return &mockReader{
		listFunc: func(context.Context, string, ...model.BookingStatus) (iter.Seq[model.Booking], error) {
			return slices.Values(bookings), nil
		},
	}
}

func TestFindOverlap(t *testing.T) {
	existing := []model.Booking{
		booking("b1", "2030-06-01", "2030-06-05", model.BookingConfirmed),
		booking("b2", "2030-06-10", "2030-06-12", model.BookingCancelled),
		booking("b3", "2030-06-20", "2030-06-22", model.BookingPending),
	}

	tests := []struct {
		name      string
		candidate model.DateRange
		wantID    string
	}{
		{"overlaps confirmed", rng("2030-06-04", "2030-06-08"), "b1"},
		{"adjacent after confirmed", rng("2030-06-05", "2030-06-08"), ""},
		{"adjacent before confirmed", rng("2030-05-28", "2030-06-01"), ""},
		{"cancelled never conflicts", rng("2030-06-10", "2030-06-12"), ""},
		{"pending conflicts", rng("2030-06-21", "2030-06-25"), "b3"},
		{"enclosing range", rng("2030-05-01", "2030-07-01"), "b1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := FindOverlap(slices.Values(existing), tt.candidate)
			if tt.wantID == "" {
				if found {
					t.Errorf("expected no overlap, got %s", got.ID)
				}
				if HasOverlap(slices.Values(existing), tt.candidate) {
					t.Error("HasOverlap disagrees with FindOverlap")
				}
				return
			}
			if !found || got.ID != tt.wantID {
				t.Errorf("FindOverlap() = %s, %v; want %s", got.ID, found, tt.wantID)
			}
		})
	}
}

func TestFindOverlap_NilSequence(t *testing.T) {
	if HasOverlap(nil, rng("2030-06-01", "2030-06-02")) {
		t.Error("nil sequence must not overlap")
	}
}

func TestResolver_Validate(t *testing.T) {
	today := day("2030-06-01")
	clock := func() time.Time { return today.Add(15 * time.Hour) }
	room := &model.Room{ID: "room-1"}

	tests := []struct {
		name        string
		candidate   model.DateRange
		wantErr     error
		wantListing bool
	}{
		{"valid future stay", rng("2030-06-10", "2030-06-12"), nil, true},
		{"check-in today is allowed", rng("2030-06-01", "2030-06-02"), nil, true},
		{"zero nights", rng("2030-06-10", "2030-06-10"), bookingserrors.ErrInvalidRange, false},
		{"inverted range", rng("2030-06-12", "2030-06-10"), bookingserrors.ErrInvalidRange, false},
		{"past check-in", rng("2030-05-31", "2030-06-02"), bookingserrors.ErrPastDate, false},
		{"overlap", rng("2030-06-14", "2030-06-16"), bookingserrors.ErrOverlap, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := readerOf(booking("b1", "2030-06-15", "2030-06-18", model.BookingConfirmed))
			resolver := NewResolver(reader, WithClock(clock))

			err := resolver.Validate(context.Background(), room, tt.candidate)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
			} else if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
			if (reader.calls > 0) != tt.wantListing {
				t.Errorf("store consulted = %v, want %v", reader.calls > 0, tt.wantListing)
			}
		})
	}
}

func TestResolver_OverlapNamesConflictingDates(t *testing.T) {
	reader := readerOf(booking("b1", "2030-06-01", "2030-06-05", model.BookingConfirmed))
	resolver := NewResolver(reader, WithClock(func() time.Time { return day("2030-05-01") }))

	err := resolver.Validate(context.Background(), &model.Room{ID: "room-1"}, rng("2030-06-04", "2030-06-08"))

	var ve *bookingserrors.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
	if !ve.Conflicting.CheckIn.Equal(day("2030-06-01")) || !ve.Conflicting.CheckOut.Equal(day("2030-06-05")) {
		t.Errorf("Conflicting = %s", ve.Conflicting)
	}
}

func TestResolver_Deterministic(t *testing.T) {
	reader := readerOf(booking("b1", "2030-06-01", "2030-06-05", model.BookingConfirmed))
	resolver := NewResolver(reader, WithClock(func() time.Time { return day("2030-05-01") }))
	candidate := rng("2030-06-03", "2030-06-04")

	first := resolver.Validate(context.Background(), &model.Room{ID: "room-1"}, candidate)
	second := resolver.Validate(context.Background(), &model.Room{ID: "room-1"}, candidate)
	if !errors.Is(first, bookingserrors.ErrOverlap) || !errors.Is(second, bookingserrors.ErrOverlap) {
		t.Errorf("expected the same overlap twice, got %v and %v", first, second)
	}
}

func TestResolver_PropagatesStoreError(t *testing.T) {
	reader := &mockReader{
		listFunc: func(context.Context, string, ...model.BookingStatus) (iter.Seq[model.Booking], error) {
			return nil, bookingserrors.ErrStoreUnavailable
		},
	}
	resolver := NewResolver(reader, WithClock(func() time.Time { return day("2030-05-01") }))

	err := resolver.Validate(context.Background(), &model.Room{ID: "room-1"}, rng("2030-06-01", "2030-06-02"))
	if !errors.Is(err, bookingserrors.ErrStoreUnavailable) {
		t.Errorf("Validate() error = %v, want %v", err, bookingserrors.ErrStoreUnavailable)
	}
}
