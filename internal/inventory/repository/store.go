package repository

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"time"

	bookingserrors "lakeside/internal/bookings/errors"
	"lakeside/internal/inventory"
	"lakeside/pkg/config"
	mongotx "lakeside/pkg/db/mongo"
	"lakeside/pkg/model"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	RoomsCollection    = "Rooms"
	BookingsCollection = "Bookings"

	ConfirmationCodeIndex = "uniq_confirmation_code"

	// versionField is bumped on the room document by every commit so that
	// two transactions booking the same room write-conflict.
	versionField = "booking_version"
)

// Store is the MongoDB inventory store.
type Store struct {
	client    *mongo.Client
	rooms     *mongo.Collection
	bookings  *mongo.Collection
	txManager mongotx.TransactionManager
	breaker   *gobreaker.CircuitBreaker

	readTimeout  time.Duration
	writeTimeout time.Duration
	codeAttempts int
	newCode      inventory.CodeGenerator
	now          func() time.Time
}

var _ inventory.Store = (*Store)(nil)

func NewMongoStore(cfg *config.Config) *Store {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	attempts := cfg.ConfirmationCodeAttempts
	if attempts <= 0 {
		attempts = inventory.DefaultCodeAttempts
	}
	return &Store{
		client:       cfg.Client.Mongo,
		rooms:        db.Collection(RoomsCollection),
		bookings:     db.Collection(BookingsCollection),
		txManager:    mongotx.NewTransactionManager(cfg.Client.Mongo),
		breaker:      newBreaker("inventory-mongo", cfg.BreakerMaxFailures, cfg.BreakerOpenTimeout, cfg.Log),
		readTimeout:  cfg.ReadTimeout,
		writeTimeout: cfg.WriteTimeout,
		codeAttempts: attempts,
		newCode:      inventory.NewConfirmationCode,
		now:          time.Now,
	}
}

// withTimeout wraps the context with a timeout unless it is already a
// session context, which cannot be wrapped without leaving the transaction.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}
	return context.WithTimeout(ctx, timeout)
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func (s *Store) GetRoom(ctx context.Context, id string) (*model.Room, error) {
	return guarded(s.breaker, func() (*model.Room, error) {
		ctx, cancel := withTimeout(ctx, s.readTimeout)
		defer cancel()

		var room model.Room
		if err := s.rooms.FindOne(ctx, bson.M{"_id": id}).Decode(&room); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, bookingserrors.ErrRoomNotFound
			}
			return nil, storeError("find room", err)
		}
		return &room, nil
	})
}

type roomPage struct {
	rooms []model.Room
	total int64
}

func (s *Store) ListRooms(ctx context.Context, limit int, offset int64) ([]model.Room, int64, error) {
	page, err := guarded(s.breaker, func() (roomPage, error) {
		ctx, cancel := withTimeout(ctx, s.readTimeout)
		defer cancel()

		total, err := s.rooms.CountDocuments(ctx, bson.M{})
		if err != nil {
			return roomPage{}, storeError("count rooms", err)
		}

		opts := options.Find().
			SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
			SetSkip(offset)
		if limit > 0 {
			opts.SetLimit(int64(limit))
		}

		cursor, err := s.rooms.Find(ctx, bson.M{}, opts)
		if err != nil {
			return roomPage{}, storeError("find rooms", err)
		}
		defer cursor.Close(ctx)

		rooms := make([]model.Room, 0, limit)
		if err := cursor.All(ctx, &rooms); err != nil {
			return roomPage{}, storeError("decode rooms", err)
		}
		return roomPage{rooms: rooms, total: total}, nil
	})
	return page.rooms, page.total, err
}

func (s *Store) ListRoomTypes(ctx context.Context) ([]string, error) {
	return guarded(s.breaker, func() ([]string, error) {
		ctx, cancel := withTimeout(ctx, s.readTimeout)
		defer cancel()

		values, err := s.rooms.Distinct(ctx, "room_type", bson.M{})
		if err != nil {
			return nil, storeError("list room types", err)
		}
		types := make([]string, 0, len(values))
		for _, v := range values {
			if t, ok := v.(string); ok {
				types = append(types, t)
			}
		}
		slices.Sort(types)
		return types, nil
	})
}

func (s *Store) CreateRoom(ctx context.Context, room model.Room) (*model.Room, error) {
	return guarded(s.breaker, func() (*model.Room, error) {
		ctx, cancel := withTimeout(ctx, s.writeTimeout)
		defer cancel()

		if room.ID == "" {
			room.ID = uuid.New().String()
		}
		now := s.timestamp()
		room.CreatedAt = now
		room.UpdatedAt = now

		if _, err := s.rooms.InsertOne(ctx, room); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, fmt.Errorf("%w: %s", bookingserrors.ErrRoomExists, room.ID)
			}
			return nil, storeError("create room", err)
		}
		return &room, nil
	})
}

func roomUpdateSet(update model.RoomUpdate, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	if update.Type != "" {
		set["room_type"] = update.Type
	}
	if update.NightlyPrice != nil {
		set["nightly_price"] = *update.NightlyPrice
	}
	if update.PhotoRef != nil {
		set["photo_ref"] = *update.PhotoRef
	}
	return set
}

func (s *Store) UpdateRoom(ctx context.Context, id string, update model.RoomUpdate) (*model.Room, error) {
	return guarded(s.breaker, func() (*model.Room, error) {
		ctx, cancel := withTimeout(ctx, s.writeTimeout)
		defer cancel()

		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		var room model.Room
		err := s.rooms.FindOneAndUpdate(ctx,
			bson.M{"_id": id},
			bson.M{"$set": roomUpdateSet(update, s.timestamp())},
			opts,
		).Decode(&room)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, bookingserrors.ErrRoomNotFound
			}
			return nil, storeError("update room", err)
		}
		return &room, nil
	})
}

// DeleteRoom claims the room the same way a commit does, so a booking
// cannot land between the active check and the delete.
func (s *Store) DeleteRoom(ctx context.Context, id string) error {
	_, err := guarded(s.breaker, func() (struct{}, error) {
		ctx, cancel := withTimeout(ctx, s.writeTimeout)
		defer cancel()

		err := s.txManager.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
			return s.deleteInTx(sessCtx, id)
		})
		return struct{}{}, txError("delete room", err)
	})
	return err
}

func (s *Store) deleteInTx(ctx mongo.SessionContext, id string) error {
	res, err := s.rooms.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{versionField: 1}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return bookingserrors.ErrRoomNotFound
	}

	active, err := s.bookings.CountDocuments(ctx,
		bson.M{"room_id": id, "status": statusFilter(model.ActiveBookingStatuses)},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return err
	}
	if active > 0 {
		return bookingserrors.ErrRoomInUse
	}

	if _, err := s.bookings.DeleteMany(ctx, bson.M{"room_id": id}); err != nil {
		return err
	}
	_, err = s.rooms.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func statusFilter(statuses []model.BookingStatus) bson.M {
	return bson.M{"$in": statuses}
}

// overlapFilter matches active bookings of the room whose stay intersects
// [checkIn, checkOut).
func overlapFilter(roomID string, r model.DateRange) bson.M {
	return bson.M{
		"room_id":   roomID,
		"status":    statusFilter(model.ActiveBookingStatuses),
		"check_in":  bson.M{"$lt": r.CheckOut},
		"check_out": bson.M{"$gt": r.CheckIn},
	}
}

func (s *Store) ListBookingsForRoom(ctx context.Context, roomID string, statuses ...model.BookingStatus) (iter.Seq[model.Booking], error) {
	return guarded(s.breaker, func() (iter.Seq[model.Booking], error) {
		ctx, cancel := withTimeout(ctx, s.readTimeout)
		defer cancel()

		n, err := s.rooms.CountDocuments(ctx, bson.M{"_id": roomID}, options.Count().SetLimit(1))
		if err != nil {
			return nil, storeError("find room", err)
		}
		if n == 0 {
			return nil, bookingserrors.ErrRoomNotFound
		}

		filter := bson.M{"room_id": roomID}
		if len(statuses) > 0 {
			filter["status"] = statusFilter(statuses)
		}
		opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

		cursor, err := s.bookings.Find(ctx, filter, opts)
		if err != nil {
			return nil, storeError("find bookings", err)
		}
		defer cursor.Close(ctx)

		var bookings []model.Booking
		if err := cursor.All(ctx, &bookings); err != nil {
			return nil, storeError("decode bookings", err)
		}
		return inventory.Snapshot(bookings), nil
	})
}

func (s *Store) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	return guarded(s.breaker, func() (*model.Booking, error) {
		ctx, cancel := withTimeout(ctx, s.readTimeout)
		defer cancel()
		return s.findBooking(ctx, id)
	})
}

func (s *Store) findBooking(ctx context.Context, id string) (*model.Booking, error) {
	var booking model.Booking
	if err := s.bookings.FindOne(ctx, bson.M{"_id": id}).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, storeError("find booking", err)
	}
	return &booking, nil
}

func (s *Store) CommitBooking(ctx context.Context, candidate model.Booking) (*model.Booking, error) {
	if candidate.ID == "" {
		candidate.ID = uuid.New().String()
	}
	candidate.CheckIn = model.NormalizeDate(candidate.CheckIn)
	candidate.CheckOut = model.NormalizeDate(candidate.CheckOut)
	if candidate.Range().Empty() {
		return nil, bookingserrors.ErrInvalidRange
	}

	return guarded(s.breaker, func() (*model.Booking, error) {
		ctx, cancel := withTimeout(ctx, s.writeTimeout)
		defer cancel()

		for range s.codeAttempts {
			code, err := s.newCode()
			if err != nil {
				return nil, err
			}

			booking := candidate
			booking.ConfirmationCode = code
			booking.Status = model.BookingConfirmed
			booking.CreatedAt = s.timestamp()
			booking.CancelledAt = nil

			var stored *model.Booking
			err = s.txManager.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
				var err error
				stored, err = s.commitInTx(sessCtx, booking)
				return err
			})
			if err == nil {
				return stored, nil
			}
			if !codeCollision(err) {
				return nil, txError("commit booking", err)
			}
		}
		return nil, bookingserrors.ErrCodeGenerationExhausted
	})
}

// commitInTx claims the room by bumping its version, re-checks overlap
// inside the snapshot and inserts the booking. A concurrent commit on the
// same room aborts with a write conflict and is retried by the driver.
// A booking already stored under the candidate id is returned as is.
func (s *Store) commitInTx(ctx mongo.SessionContext, booking model.Booking) (*model.Booking, error) {
	res, err := s.rooms.UpdateOne(ctx,
		bson.M{"_id": booking.RoomID},
		bson.M{"$inc": bson.M{versionField: 1}},
	)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, bookingserrors.ErrRoomNotFound
	}

	var existing model.Booking
	err = s.bookings.FindOne(ctx, bson.M{"_id": booking.ID}).Decode(&existing)
	switch {
	case err == nil:
		return &existing, nil
	case !errors.Is(err, mongo.ErrNoDocuments):
		return nil, err
	}

	var winner model.Booking
	opts := options.FindOne().SetSort(bson.D{{Key: "check_in", Value: 1}})
	err = s.bookings.FindOne(ctx, overlapFilter(booking.RoomID, booking.Range()), opts).Decode(&winner)
	switch {
	case err == nil:
		return nil, bookingserrors.NewSlotTakenError(winner.Range())
	case !errors.Is(err, mongo.ErrNoDocuments):
		return nil, err
	}

	if _, err := s.bookings.InsertOne(ctx, booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// txError strips the transaction wrapping from domain outcomes.
func txError(op string, err error) error {
	if err == nil {
		return nil
	}
	var conflictErr *bookingserrors.ConflictError
	if errors.As(err, &conflictErr) {
		return conflictErr
	}
	for _, sentinel := range []error{bookingserrors.ErrRoomNotFound, bookingserrors.ErrRoomInUse} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return storeError(op, err)
}

func (s *Store) CancelBooking(ctx context.Context, id string) (*model.Booking, error) {
	return guarded(s.breaker, func() (*model.Booking, error) {
		ctx, cancel := withTimeout(ctx, s.writeTimeout)
		defer cancel()

		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		var booking model.Booking
		err := s.bookings.FindOneAndUpdate(ctx,
			bson.M{"_id": id, "status": statusFilter(model.ActiveBookingStatuses)},
			bson.M{"$set": bson.M{"status": model.BookingCancelled, "cancelled_at": s.timestamp()}},
			opts,
		).Decode(&booking)
		if err == nil {
			return &booking, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, storeError("cancel booking", err)
		}

		if _, err := s.findBooking(ctx, id); err != nil {
			return nil, err
		}
		return nil, bookingserrors.ErrAlreadyCancelled
	})
}

func (s *Store) Ping(ctx context.Context) error {
	_, err := guarded(s.breaker, func() (struct{}, error) {
		ctx, cancel := withTimeout(ctx, s.readTimeout)
		defer cancel()
		if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
			return struct{}{}, errors.Join(bookingserrors.ErrStoreUnavailable, fmt.Errorf("failed to ping mongo: %w", err))
		}
		return struct{}{}, nil
	})
	return err
}
