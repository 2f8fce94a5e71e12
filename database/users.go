package database

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"bus-booking/model"
	"bus-booking/users"
)

type UserStore struct {
	collection Collection
}

func NewUserStore(collection Collection) *UserStore {
	return &UserStore{collection: collection}
}

func (s *UserStore) EnsureIndexes(ctx context.Context) error {
	for _, index := range []Index{
		{Name: "uniq_email", Keys: []string{"email"}, Unique: true},
		{Name: "uniq_username", Keys: []string{"username"}, Unique: true},
	} {
		if err := s.collection.EnsureIndex(ctx, index); err != nil {
			return err
		}
	}
	return nil
}

func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	id, err := s.collection.InsertOne(ctx, user)
	if errors.Is(err, ErrDuplicateKey) {
		return users.ErrDuplicateUser
	}
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	user.Id = id
	return nil
}

func (s *UserStore) FindByID(ctx context.Context, id string) (model.User, error) {
	var user model.User
	err := FindByID(ctx, s.collection, id, &user)
	if errors.Is(err, ErrNoDocuments) {
		return model.User{}, users.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("reading user: %w", err)
	}
	return user, nil
}

func (s *UserStore) FindByUsername(ctx context.Context, username string) (model.User, error) {
	var user model.User
	err := s.collection.FindOne(ctx, bson.M{"username": username}, &user)
	if errors.Is(err, ErrNoDocuments) {
		return model.User{}, users.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("reading user: %w", err)
	}
	return user, nil
}

func (s *UserStore) Update(ctx context.Context, id string, fields map[string]interface{}) (bool, error) {
	found, err := UpdateByID(ctx, s.collection, id, bson.M(fields))
	if errors.Is(err, ErrDuplicateKey) {
		return false, users.ErrDuplicateUser
	}
	if err != nil {
		return false, fmt.Errorf("updating user: %w", err)
	}
	return found, nil
}

func (s *UserStore) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := DeleteByID(ctx, s.collection, id)
	if err != nil {
		return false, fmt.Errorf("deleting user: %w", err)
	}
	return deleted, nil
}

func (s *UserStore) List(ctx context.Context, page, size int) ([]model.User, int64, error) {
	var list []model.User
	total, err := Paginate(ctx, s.collection, bson.M{}, page, size, &list)
	if err != nil {
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}
	return list, total, nil
}
