package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/omsdash/omsctl/internal/gateway"
	"github.com/omsdash/omsctl/internal/logging"
	"github.com/omsdash/omsctl/internal/oms"
)

// AddressLookup resolves the caller's public address. It never fails.
type AddressLookup interface {
	Lookup(ctx context.Context) string
}

// NewUser is the payload of createUser.
type NewUser struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// AuthService wraps login and account management.
type AuthService struct {
	caller gateway.Caller
	ip     AddressLookup
	logger *slog.Logger
}

func NewAuthService(caller gateway.Caller, ip AddressLookup, logger *slog.Logger) *AuthService {
	return &AuthService{
		caller: caller,
		ip:     ip,
		logger: logging.OrDefault(logger).With("service", "auth"),
	}
}

// Login authenticates username. The caller's address is sent for audit; a
// failed address lookup does not block the login.
func (s *AuthService) Login(ctx context.Context, username, password string) (*oms.User, error) {
	address := "Unknown"
	if s.ip != nil {
		address = s.ip.Lookup(ctx)
	}

	res := s.caller.Call(ctx, "login", gateway.POST, map[string]any{
		"username": username,
		"password": password,
		"ip":       address,
	})
	if err := res.Err(); err != nil {
		return nil, err
	}

	var body struct {
		Success bool     `json:"success"`
		User    *userRow `json:"user"`
		Error   string   `json:"error"`
	}
	if err := json.Unmarshal(res.Data, &body); err != nil {
		return nil, fmt.Errorf("failed to decode login response: %w", err)
	}
	if !body.Success || body.User == nil {
		if body.Error != "" {
			return nil, &gateway.Error{Op: "login", Kind: gateway.KindApplication, Message: body.Error}
		}
		return nil, ErrLoginFailed
	}

	user := body.User.toUser()
	s.logger.Info("logged in", "username", user.Username, "role", user.Role)
	return &user, nil
}

type userRow struct {
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Status   string `json:"status"`
}

func (u userRow) toUser() oms.User {
	status := u.Status
	if status == "" {
		status = "Active"
	}
	return oms.User{
		Username: u.Username,
		FullName: u.FullName,
		Role:     u.Role,
		Email:    u.Email,
		Phone:    u.Phone,
		Status:   status,
	}
}

// CreateUser registers a new account.
func (s *AuthService) CreateUser(ctx context.Context, u NewUser) error {
	if strings.TrimSpace(u.Username) == "" || u.Password == "" {
		return fmt.Errorf("username and password are required")
	}
	payload, err := gateway.Fields(u)
	if err != nil {
		return err
	}
	return post(ctx, s.caller, "createUser", payload, "failed to create user")
}

// GetUsers lists accounts. Status defaults to Active.
func (s *AuthService) GetUsers(ctx context.Context) ([]oms.User, error) {
	rows, err := decodeRows(s.caller.Call(ctx, "getUsers", gateway.GET, nil))
	if err != nil {
		return nil, err
	}
	users := make([]oms.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, userRow{
			Username: r.text("username"),
			FullName: r.text("fullName"),
			Role:     r.text("role"),
			Email:    r.text("email"),
			Phone:    r.text("phone"),
			Status:   r.text("status"),
		}.toUser())
	}
	return users, nil
}

// UpdateUser changes the role and/or status of username. Empty values are
// left unchanged by the backend.
func (s *AuthService) UpdateUser(ctx context.Context, username, role, status string) error {
	payload := map[string]any{"username": username}
	if role != "" {
		payload["role"] = role
	}
	if status != "" {
		payload["status"] = status
	}
	return post(ctx, s.caller, "updateUser", payload, "failed to update user")
}
