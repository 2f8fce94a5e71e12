package handlers

import (
	"context"
	"fmt"
	"regexp"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"bus-booking/database"
	apperrors "bus-booking/errors"
	"bus-booking/model"
)

type recordPtr[T any] interface {
	*T
	model.Record
}

// Resource serves create, read, update, delete and list for one catalog
// collection.
type Resource[T any, P recordPtr[T]] struct {
	name       string
	collection database.Collection
	handler    *Handler

	// check runs after validation, before the record is written.
	check func(ctx context.Context, record P) error
	// filter builds the list query from the request.
	filter func(c *fiber.Ctx) bson.M
}

func (h *Handler) Buses() *Resource[model.Bus, *model.Bus] {
	return &Resource[model.Bus, *model.Bus]{name: "Bus", collection: h.records.Buses, handler: h}
}

func (h *Handler) Routes() *Resource[model.BusRoute, *model.BusRoute] {
	return &Resource[model.BusRoute, *model.BusRoute]{name: "Bus route", collection: h.records.Routes, handler: h}
}

func (h *Handler) Trips() *Resource[model.BusTrip, *model.BusTrip] {
	return &Resource[model.BusTrip, *model.BusTrip]{
		name:       "Bus trip",
		collection: h.records.Trips,
		handler:    h,
		check:      h.checkTrip,
		filter: func(c *fiber.Ctx) bson.M {
			query := bson.M{}
			for param, field := range map[string]string{"date": "date", "from": "from", "to": "to"} {
				if value := c.Query(param); value != "" {
					query[field] = value
				}
			}
			return query
		},
	}
}

func (h *Handler) Cities() *Resource[model.City, *model.City] {
	return &Resource[model.City, *model.City]{name: "City", collection: h.records.Cities, handler: h}
}

// checkTrip makes sure the trip references an existing route and bus; the bus
// decides the seat capacity of the trip.
func (h *Handler) checkTrip(ctx context.Context, trip *model.BusTrip) error {
	var route model.BusRoute
	if err := database.FindByID(ctx, h.records.Routes, trip.RouteId, &route); err != nil {
		if database.IsNotFound(err) {
			return apperrors.Validation("routeId does not reference a bus route")
		}
		return err
	}

	var bus model.Bus
	if err := database.FindByID(ctx, h.records.Buses, trip.BusId, &bus); err != nil {
		if database.IsNotFound(err) {
			return apperrors.Validation("busId does not reference a bus")
		}
		return err
	}
	return nil
}

func (r *Resource[T, P]) Create(c *fiber.Ctx) error {
	record := P(new(T))
	if err := c.BodyParser(record); err != nil {
		return apperrors.RaiseBadRequestError(c, fmt.Sprintf("unacceptable %s parameters: %v", r.name, err))
	}
	if err := record.Validate(); err != nil {
		return apperrors.RaiseBadRequestError(c, err.Error())
	}

	ctx := c.UserContext()
	if r.check != nil {
		if err := r.check(ctx, record); err != nil {
			return r.handler.fail(c, err)
		}
	}
	record.Stamp(caller(c).ID, r.handler.Now())

	id, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		return r.handler.fail(c, err)
	}

	saved := new(T)
	if err := database.FindByID(ctx, r.collection, id.Hex(), saved); err != nil {
		return r.handler.fail(c, err)
	}
	return c.JSON(saved)
}

func (r *Resource[T, P]) Get(c *fiber.Ctx) error {
	record := new(T)
	err := database.FindByID(c.UserContext(), r.collection, c.Params("id"), record)
	if database.IsNotFound(err) {
		return apperrors.RaiseNotFoundError(c, r.name+" not found")
	}
	if err != nil {
		return r.handler.fail(c, err)
	}
	return c.JSON(record)
}

// Update overlays the request body on the stored record, so fields missing
// from the body keep their values.
func (r *Resource[T, P]) Update(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id := c.Params("id")

	record := P(new(T))
	err := database.FindByID(ctx, r.collection, id, record)
	if database.IsNotFound(err) {
		return apperrors.RaiseNotFoundError(c, r.name+" not found")
	}
	if err != nil {
		return r.handler.fail(c, err)
	}

	if err := c.BodyParser(record); err != nil {
		return apperrors.RaiseBadRequestError(c, fmt.Sprintf("unacceptable %s parameters: %v", r.name, err))
	}
	if err := record.Validate(); err != nil {
		return apperrors.RaiseBadRequestError(c, err.Error())
	}
	if r.check != nil {
		if err := r.check(ctx, record); err != nil {
			return r.handler.fail(c, err)
		}
	}

	set, err := updatableFields(record)
	if err != nil {
		return r.handler.fail(c, err)
	}
	set["updatedAt"] = r.handler.Now()

	found, err := database.UpdateByID(ctx, r.collection, id, set)
	if err != nil {
		return r.handler.fail(c, err)
	}
	if !found {
		return apperrors.RaiseNotFoundError(c, r.name+" not found")
	}
	return c.JSON(fiber.Map{"message": r.name + " updated"})
}

func (r *Resource[T, P]) Delete(c *fiber.Ctx) error {
	deleted, err := database.DeleteByID(c.UserContext(), r.collection, c.Params("id"))
	if err != nil {
		return r.handler.fail(c, err)
	}
	if !deleted {
		return apperrors.RaiseNotFoundError(c, r.name+" not found")
	}
	return c.JSON(fiber.Map{"message": r.name + " deleted"})
}

func (r *Resource[T, P]) List(c *fiber.Ctx) error {
	page, size, err := pageParams(c)
	if err != nil {
		return r.handler.fail(c, err)
	}

	query := bson.M{}
	if r.filter != nil {
		query = r.filter(c)
	}

	var items []T
	total, err := database.Paginate(c.UserContext(), r.collection, query, page, size, &items)
	if err != nil {
		return r.handler.fail(c, err)
	}
	if items == nil {
		items = []T{}
	}
	return c.JSON(model.Page[T]{Data: items, PageSize: size, CurrentPage: page, TotalData: total})
}

// SearchCities lists cities whose name contains the query, ignoring case.
func (h *Handler) SearchCities(c *fiber.Ctx) error {
	filter := bson.M{}
	if query := c.Query("query"); query != "" {
		filter["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	}

	cities := []model.City{}
	if err := h.records.Cities.Find(c.UserContext(), filter, 0, 0, &cities); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(cities)
}

func updatableFields(record interface{}) (bson.M, error) {
	raw, err := bson.Marshal(record)
	if err != nil {
		return nil, err
	}
	fields := bson.M{}
	if err := bson.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	for _, key := range []string{"_id", "createdBy", "createdAt"} {
		delete(fields, key)
	}
	return fields, nil
}
