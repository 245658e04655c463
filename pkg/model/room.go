package model

import "time"

// Room is a bookable hotel room. NightlyPrice is in minor currency units and
// PhotoRef is an opaque blob id owned by the image store.
type Room struct {
	ID           string    `json:"id" bson:"_id" validate:"omitempty,uuid"`
	Type         string    `json:"room_type" bson:"room_type" validate:"required,min=2,max=50"`
	NightlyPrice int64     `json:"nightly_price" bson:"nightly_price" validate:"required,gt=0,max=100000000"`
	PhotoRef     string    `json:"photo_ref,omitempty" bson:"photo_ref,omitempty" validate:"omitempty,max=200"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

type RoomUpdate struct {
	Type         string  `json:"room_type,omitempty" validate:"omitempty,min=2,max=50"`
	NightlyPrice *int64  `json:"nightly_price,omitempty" validate:"omitempty,gt=0,max=100000000"`
	PhotoRef     *string `json:"photo_ref,omitempty" validate:"omitempty,max=200"`
}

// Apply merges the non-empty update fields into a copy of r.
func (u *RoomUpdate) Apply(r Room) Room {
	if u.Type != "" {
		r.Type = u.Type
	}
	if u.NightlyPrice != nil {
		r.NightlyPrice = *u.NightlyPrice
	}
	if u.PhotoRef != nil {
		r.PhotoRef = *u.PhotoRef
	}
	return r
}
