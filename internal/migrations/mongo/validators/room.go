package validators

import "go.mongodb.org/mongo-driver/bson"

var RoomValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"_id", "room_type", "nightly_price", "created_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":             bson.M{"bsonType": "string", "minLength": 36, "maxLength": 36},
			"room_type":       bson.M{"bsonType": "string", "minLength": 2, "maxLength": 50},
			"nightly_price":   bson.M{"bsonType": "long", "minimum": 1},
			"photo_ref":       bson.M{"bsonType": "string", "maxLength": 200},
			"booking_version": bson.M{"bsonType": []string{"int", "long"}},
			"created_at":      bson.M{"bsonType": "date"},
			"updated_at":      bson.M{"bsonType": "date"},
		},
	},
}
