package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	BookingStatusBooked    = "booked"
	BookingStatusCancelled = "cancelled"
)

type Booking struct {
	Id         primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	TripId     string             `json:"tripId" bson:"tripId"`
	UserId     string             `json:"userId" bson:"userId"`
	SeatNumber int                `json:"seatNumber" bson:"seatNumber"`
	Status     string             `json:"status" bson:"status"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt" bson:"updatedAt"`
}
