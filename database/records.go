package database

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"

	apperrors "bus-booking/errors"
	"bus-booking/model"
)

// FindByID decodes the record with the given hex id into result. Unknown and
// malformed ids both fail with ErrNoDocuments.
func FindByID(ctx context.Context, collection Collection, id string, result interface{}) error {
	objID, ok := ObjectID(id)
	if !ok {
		return ErrNoDocuments
	}
	return collection.FindOne(ctx, bson.M{"_id": objID}, result)
}

func UpdateByID(ctx context.Context, collection Collection, id string, set bson.M) (bool, error) {
	objID, ok := ObjectID(id)
	if !ok {
		return false, nil
	}
	return collection.UpdateOne(ctx, bson.M{"_id": objID}, set)
}

func DeleteByID(ctx context.Context, collection Collection, id string) (bool, error) {
	objID, ok := ObjectID(id)
	if !ok {
		return false, nil
	}
	return collection.DeleteOne(ctx, bson.M{"_id": objID})
}

// Paginate loads one page of matching records and the total match count.
// Pages past the end are empty.
func Paginate(ctx context.Context, collection Collection, filter bson.M, page, size int, results interface{}) (int64, error) {
	if page < 1 || size < 1 {
		return 0, apperrors.Validation("page and size must be positive")
	}

	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, err
	}

	skip := model.Skip(page, size)
	if skip >= total {
		return total, nil
	}
	if err := collection.Find(ctx, filter, skip, int64(size), results); err != nil {
		return 0, err
	}
	return total, nil
}

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNoDocuments)
}
