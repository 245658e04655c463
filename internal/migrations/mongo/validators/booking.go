package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"room_id",
			"guest_id",
			"check_in",
			"check_out",
			"confirmation_code",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 36,
				"maxLength": 36,
			},

			"room_id": bson.M{
				"bsonType":  "string",
				"minLength": 36,
				"maxLength": 36,
			},

			"guest_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"check_in": bson.M{
				"bsonType": "date",
			},

			"check_out": bson.M{
				"bsonType": "date",
			},

			"confirmation_code": bson.M{
				"bsonType": "string",
				"pattern":  "^[A-Z0-9]{10}$",
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"confirmed",
					"cancelled",
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"cancelled_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
