package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"bus-booking/validation"
)

// Record is an operational catalog entry served by the generic CRUD handlers.
type Record interface {
	Validate() error
	Stamp(createdBy string, now time.Time)
}

// Audit holds the creator reference and audit timestamps shared by records.
type Audit struct {
	CreatedBy string    `json:"createdBy" bson:"createdBy"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (a *Audit) Stamp(createdBy string, now time.Time) {
	a.CreatedBy = createdBy
	a.CreatedAt = now
	a.UpdatedAt = now
}

type Bus struct {
	Id                 primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Travel             string             `json:"travel" bson:"travel" validate:"required,notblank"`
	IsAc               bool               `json:"isAc" bson:"isAc"`
	IsSleeper          bool               `json:"isSleeper" bson:"isSleeper"`
	Registration       string             `json:"registration" bson:"registration" validate:"required,notblank"`
	TotalSeat          int                `json:"totalSeat" bson:"totalSeat" validate:"gte=1"`
	InsuranceValidTill string             `json:"insuranceValidTill" bson:"insuranceValidTill"`
	PermitValidTill    string             `json:"permitValidTill" bson:"permitValidTill"`
	Audit              `bson:",inline"`
}

func (b *Bus) Validate() error {
	return validation.Check(b)
}

type BusRoute struct {
	Id       primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Route    string             `json:"route" bson:"route" validate:"required,notblank"`
	RouteNo  string             `json:"routeNo" bson:"routeNo" validate:"required,notblank"`
	Distance float64            `json:"distance" bson:"distance" validate:"gte=0"`
	Audit    `bson:",inline"`
}

func (r *BusRoute) Validate() error {
	return validation.Check(r)
}

type BusTrip struct {
	Id        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	RouteId   string             `json:"routeId" bson:"routeId" validate:"required,notblank"`
	BusId     string             `json:"busId" bson:"busId" validate:"required,notblank"`
	From      string             `json:"from" bson:"from"`
	To        string             `json:"to" bson:"to"`
	Date      string             `json:"date" bson:"date" validate:"datetime=2006-01-02"`
	Frequency string             `json:"frequency" bson:"frequency"`
	Timing    string             `json:"timing" bson:"timing"`
	Fare      float64            `json:"fare" bson:"fare" validate:"gte=0"`
	Stops     []string           `json:"stops" bson:"stops"`
	Audit     `bson:",inline"`
}

func (t *BusTrip) Validate() error {
	return validation.Check(t)
}

type City struct {
	Id    primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name  string             `json:"name" bson:"name" validate:"required,notblank"`
	Audit `bson:",inline"`
}

func (c *City) Validate() error {
	return validation.Check(c)
}
