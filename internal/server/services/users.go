// Package services contains the business logic behind the HTTP handlers:
// generic resource CRUD, accounts and file uploads.
package services

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/fitkeeper/internal/common"
	"github.com/dmitrijs2005/fitkeeper/internal/server/auth"
	"github.com/dmitrijs2005/fitkeeper/internal/server/config"
	"github.com/dmitrijs2005/fitkeeper/internal/server/models"
	"github.com/dmitrijs2005/fitkeeper/internal/server/store"
)

// Credentials are the account fields accepted at registration and by admin
// user creation.
type Credentials struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone"`
	Nickname string `json:"nickname"`
	Role     string `json:"role" validate:"omitempty,oneof=admin user"`
}

type LoginResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type UserService struct {
	users       store.Collection[*models.User]
	memberships store.Collection[*models.Membership]
	resources   *ResourceService[*models.User]

	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	admins                      map[string]bool
	now                         func() time.Time
}

func NewUserService(users store.Collection[*models.User], memberships store.Collection[*models.Membership], resources *ResourceService[*models.User], cfg *config.Config) *UserService {
	admins := make(map[string]bool, len(cfg.AdminUsernames))
	for _, u := range cfg.AdminUsernames {
		if u = strings.TrimSpace(u); u != "" {
			admins[u] = true
		}
	}
	return &UserService{
		users:                       users,
		memberships:                 memberships,
		resources:                   resources,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		admins:                      admins,
		now:                         utcNow,
	}
}

func (s *UserService) newUser(c Credentials) (*models.User, error) {
	c.Username = strings.TrimSpace(c.Username)
	if err := models.Validate(c); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(c.Password)
	if err != nil {
		return nil, err
	}
	now := s.now()
	u := &models.User{
		Username:     c.Username,
		PasswordHash: hash,
		Email:        c.Email,
		Phone:        c.Phone,
		Nickname:     c.Nickname,
		Role:         c.Role,
		Status:       models.UserStatusActive,
	}
	u.CreatedAt, u.UpdatedAt = now, now
	if u.Role == "" {
		u.Role = common.RoleUser
	}
	return u, nil
}

func (s *UserService) create(ctx context.Context, u *models.User) (*models.User, error) {
	if err := s.users.Create(ctx, u); err != nil {
		if common.KindOf(err) == common.KindDuplicateEntry {
			return nil, common.Wrap(common.KindDuplicateEntry, err, "username already exists")
		}
		return nil, err
	}
	return u, nil
}

// Register creates an account with the user role, or the admin role when
// the username is listed as a bootstrap admin.
func (s *UserService) Register(ctx context.Context, c Credentials) (*models.User, error) {
	c.Role = ""
	u, err := s.newUser(c)
	if err != nil {
		return nil, err
	}
	if s.admins[u.Username] {
		u.Role = common.RoleAdmin
	}
	return s.create(ctx, u)
}

// Create is the admin variant of Register; the role may be chosen.
func (s *UserService) Create(ctx context.Context, p auth.Principal, c Credentials) (*models.User, error) {
	if !p.IsAdmin() {
		return nil, common.Forbidden("admin role required")
	}
	u, err := s.newUser(c)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, u)
}

func (s *UserService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if username == "" || password == "" {
		return nil, common.BadRequest("username and password are required")
	}

	user, err := s.users.FindOne(ctx, store.Filter{store.Eq("username", username)})
	if err != nil {
		if common.KindOf(err) == common.KindNotFound {
			return nil, common.Unauthorized("invalid username or password")
		}
		return nil, err
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, common.Unauthorized("invalid username or password")
	}
	if user.Status == models.UserStatusDisabled {
		return nil, common.Unauthorized("account is disabled")
	}

	token, err := auth.GenerateToken(user.ID, user.Role, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, User: user}, nil
}

// Me returns the account of the authenticated caller.
func (s *UserService) Me(ctx context.Context, p auth.Principal) (*models.User, error) {
	u, err := s.users.FindOne(ctx, store.ByID(p.UserID))
	if common.KindOf(err) == common.KindNotFound {
		return nil, common.NotFound("user not found")
	}
	return u, err
}

// Update changes the fields of doc named in present. A non-empty password
// is hashed and stored as well.
func (s *UserService) Update(ctx context.Context, p auth.Principal, id string, doc *models.User, present map[string]bool, password string) (*models.User, error) {
	if !p.IsAdmin() {
		return nil, common.Forbidden("admin role required")
	}
	if id == "" {
		return nil, common.BadRequest("id is required")
	}
	if err := models.ValidateFields(doc, present); err != nil {
		return nil, err
	}

	patch := store.Patch(models.PatchFields(doc, present, s.resources.protected()...))
	if password != "" {
		if err := models.Validate(struct {
			Password string `json:"password" validate:"min=6,max=128"`
		}{password}); err != nil {
			return nil, err
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return nil, err
		}
		patch["password"] = hash
	}
	return s.resources.Patch(ctx, p, id, patch)
}

// Delete removes the user's membership, then the user. The steps are not
// atomic: if the second fails the membership is already gone, and a retry
// completes the deletion because a missing membership is not an error.
func (s *UserService) Delete(ctx context.Context, p auth.Principal, id string) error {
	if !p.IsAdmin() {
		return common.Forbidden("admin role required")
	}
	if id == "" {
		return common.BadRequest("id is required")
	}

	if _, err := s.memberships.DeleteOne(ctx, store.Filter{store.Eq(models.FieldUserID, id)}); err != nil {
		return err
	}

	n, err := s.users.DeleteOne(ctx, store.ByID(id))
	if err != nil {
		return err
	}
	if n == 0 {
		return common.NotFound("user not found")
	}
	return nil
}

// EnsureAdmin creates username as an admin, or promotes and resets the
// password of an existing account. created reports which happened.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) (*models.User, bool, error) {
	existing, err := s.users.FindOne(ctx, store.Filter{store.Eq("username", username)})
	switch {
	case err == nil:
		hash, err := auth.HashPassword(password)
		if err != nil {
			return nil, false, err
		}
		u, err := s.users.FindOneAndUpdate(ctx, store.ByID(existing.ID), store.Patch{
			"role":      common.RoleAdmin,
			"status":    models.UserStatusActive,
			"password":  hash,
			"updatedAt": s.now(),
		})
		if err != nil {
			return nil, false, err
		}
		if u == nil {
			return nil, false, common.NotFound("user not found")
		}
		return u, false, nil
	case common.KindOf(err) != common.KindNotFound:
		return nil, false, err
	}

	u, err := s.newUser(Credentials{Username: username, Password: password, Role: common.RoleAdmin})
	if err != nil {
		return nil, false, err
	}
	u, err = s.create(ctx, u)
	return u, err == nil, err
}
