package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"bus-booking/auth"
	"bus-booking/config"
	apperrors "bus-booking/errors"
	"bus-booking/model"
)

var (
	ErrUserNotFound       = apperrors.New(apperrors.ErrNotFound, "User not found")
	ErrDuplicateUser      = apperrors.New(apperrors.ErrConflict, "User with this email or username already exists")
	ErrInvalidCredentials = apperrors.New(apperrors.ErrUnauthenticated, "Invalid credentials")
)

// Store persists identities. Email and username are unique; Create and Update
// fail with ErrDuplicateUser when either would collide.
type Store interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByUsername(ctx context.Context, username string) (model.User, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, page, size int) ([]model.User, int64, error)
}

type Hasher interface {
	Hash(secret string) (string, error)
	Verify(digest, secret string) bool
}

type TokenIssuer interface {
	Issue(claims auth.Claims) (string, error)
}

type SignupRequest struct {
	FirstName string `json:"firstName" validate:"required,notblank"`
	LastName  string `json:"lastName"`
	Email     string `json:"email" validate:"required,emailaddr"`
	Username  string `json:"username" validate:"required,notblank"`
	Password  string `json:"password" validate:"required"`
	Mobile    string `json:"mobile" validate:"required,len=10,number"`
	Gender    string `json:"gender"`
}

// UpdateRequest changes only the fields that are set.
type UpdateRequest struct {
	FirstName *string  `json:"firstName"`
	LastName  *string  `json:"lastName"`
	Email     *string  `json:"email"`
	Username  *string  `json:"username"`
	Password  *string  `json:"password"`
	Mobile    *string  `json:"mobile"`
	Gender    *string  `json:"gender"`
	UserType  []string `json:"userType"`
	UserGroup []string `json:"userGroup"`
}

type Service struct {
	store  Store
	hasher Hasher
	tokens TokenIssuer
	logger *zap.Logger

	Now func() time.Time
}

func NewService(store Store, hasher Hasher, tokens TokenIssuer, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
		Now:    func() time.Time { return time.Now().UTC() },
	}
}

// Signup creates a traveler account with the default role and group.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (model.User, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	req.Mobile = strings.TrimSpace(req.Mobile)
	if err := validateSignup(req); err != nil {
		return model.User{}, err
	}
	return s.create(ctx, req, []string{auth.RoleUser})
}

func (s *Service) create(ctx context.Context, req SignupRequest, roles []string) (model.User, error) {
	digest, err := s.hasher.Hash(req.Password)
	if err != nil {
		return model.User{}, err
	}

	now := s.Now()
	user := model.User{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     req.Email,
		Username:  strings.TrimSpace(req.Username),
		Password:  digest,
		Mobile:    req.Mobile,
		Gender:    req.Gender,
		UserType:  roles,
		UserGroup: []string{"default"},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, &user); err != nil {
		return model.User{}, err
	}

	s.logger.Info("user created", zap.String("userId", user.Id.Hex()), zap.Strings("roles", roles))
	return user, nil
}

// Login checks the credentials and returns a signed session token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.store.FindByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if !s.hasher.Verify(user.Password, password) {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(auth.Claims{
		SubjectID:   user.Id.Hex(),
		DisplayName: user.DisplayName(),
		Email:       user.Email,
		Roles:       user.UserType,
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

func (s *Service) Get(ctx context.Context, id string) (model.User, error) {
	return s.store.FindByID(ctx, id)
}

// Update applies req to the account id on behalf of a caller holding
// callerRoles. Only a superAdmin may grant superAdmin or touch an account that
// already holds it.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest, callerRoles []string) error {
	if err := s.guardSuperAdmin(ctx, id, callerRoles, req.UserType); err != nil {
		return err
	}

	fields := map[string]interface{}{}

	setTrimmed := func(key string, value *string) {
		if value != nil && strings.TrimSpace(*value) != "" {
			fields[key] = strings.TrimSpace(*value)
		}
	}
	setTrimmed("firstName", req.FirstName)
	setTrimmed("lastName", req.LastName)
	setTrimmed("username", req.Username)
	setTrimmed("gender", req.Gender)

	if req.Email != nil {
		if err := validateEmail(*req.Email); err != nil {
			return err
		}
		fields["email"] = *req.Email
	}
	if req.Mobile != nil {
		if err := validateMobile(*req.Mobile); err != nil {
			return err
		}
		fields["mobile"] = *req.Mobile
	}
	if req.UserType != nil {
		if err := validateRoles(req.UserType); err != nil {
			return err
		}
		fields["userType"] = req.UserType
	}
	if req.UserGroup != nil {
		fields["userGroup"] = req.UserGroup
	}
	if req.Password != nil && *req.Password != "" {
		digest, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return err
		}
		fields["password"] = digest
	}
	fields["updatedAt"] = s.Now()

	found, err := s.store.Update(ctx, id, fields)
	if err != nil {
		return err
	}
	if !found {
		return ErrUserNotFound
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id string, callerRoles []string) error {
	if err := s.guardSuperAdmin(ctx, id, callerRoles, nil); err != nil {
		return err
	}

	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrUserNotFound
	}
	return nil
}

func (s *Service) guardSuperAdmin(ctx context.Context, id string, callerRoles, granted []string) error {
	if auth.HasRole(callerRoles, auth.RoleSuperAdmin) {
		return nil
	}
	if containsRole(granted, auth.RoleSuperAdmin) {
		return auth.ErrInsufficientPermission
	}

	target, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if containsRole(target.UserType, auth.RoleSuperAdmin) {
		return auth.ErrInsufficientPermission
	}
	return nil
}

func containsRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func (s *Service) List(ctx context.Context, page, size int) (model.Page[model.User], error) {
	if page < 1 || size < 1 {
		return model.Page[model.User]{}, apperrors.Validation("page and size must be positive")
	}
	users, total, err := s.store.List(ctx, page, size)
	if err != nil {
		return model.Page[model.User]{}, err
	}
	if users == nil {
		users = []model.User{}
	}
	return model.Page[model.User]{Data: users, PageSize: size, CurrentPage: page, TotalData: total}, nil
}

// EnsureSuperAdmin creates the bootstrap superAdmin account unless an account
// with that username exists. It reports whether an account was created.
func (s *Service) EnsureSuperAdmin(ctx context.Context, admin config.SuperAdmin) (bool, error) {
	_, err := s.store.FindByUsername(ctx, admin.Username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return false, err
	}

	req := SignupRequest{
		FirstName: admin.FirstName,
		LastName:  admin.LastName,
		Email:     admin.Email,
		Username:  admin.Username,
		Password:  admin.Password,
		Mobile:    admin.Mobile,
		Gender:    "m",
	}
	if err := validateSignup(req); err != nil {
		return false, fmt.Errorf("superadmin settings: %w", err)
	}
	if _, err := s.create(ctx, req, []string{auth.RoleSuperAdmin}); err != nil {
		return false, err
	}
	return true, nil
}
