package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omsdash/omsctl/internal/logging"
)

func TestLoginSendsAddress(t *testing.T) {
	f := newFakeCaller().reply("login", `{"success":true,"user":{"username":"kim","role":"Leader","fullName":"Kim"}}`)
	svc := NewAuthService(f, staticAddress("203.0.113.7"), logging.Discard())

	user, err := svc.Login(context.Background(), "kim", "pw")
	require.NoError(t, err)
	assert.Equal(t, "kim", user.Username)
	assert.Equal(t, "Active", user.Status)

	c := f.last()
	assert.Equal(t, "203.0.113.7", c.Payload["ip"])
	assert.Equal(t, "pw", c.Payload["password"])
}

func TestLoginFailures(t *testing.T) {
	f := newFakeCaller().reply("login", `{"success":false}`)
	svc := NewAuthService(f, nil, logging.Discard())
	_, err := svc.Login(context.Background(), "kim", "bad")
	assert.True(t, errors.Is(err, ErrLoginFailed))
	assert.Equal(t, "Unknown", f.last().Payload["ip"])

	f.reply("login", `{"success":false,"error":"account locked"}`)
	_, err = svc.Login(context.Background(), "kim", "bad")
	require.Error(t, err)
	assert.Equal(t, "account locked", err.Error())
}

func TestGetUsersDefaultsStatus(t *testing.T) {
	f := newFakeCaller().reply("getUsers", `[{"username":"kim","role":"Admin"},{"username":"lee","role":"Designer","status":"Locked"}]`)
	users, err := NewAuthService(f, nil, logging.Discard()).GetUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Active", users[0].Status)
	assert.Equal(t, "Locked", users[1].Status)
}

func TestUpdateUserOmitsEmptyFields(t *testing.T) {
	f := newFakeCaller()
	require.NoError(t, NewAuthService(f, nil, logging.Discard()).UpdateUser(context.Background(), "kim", "", "Locked"))
	c := f.last()
	assert.Equal(t, "kim", c.Payload["username"])
	assert.Equal(t, "Locked", c.Payload["status"])
	_, hasRole := c.Payload["role"]
	assert.False(t, hasRole)
}

func TestCreateUserRequiresCredentials(t *testing.T) {
	f := newFakeCaller()
	svc := NewAuthService(f, nil, logging.Discard())
	assert.Error(t, svc.CreateUser(context.Background(), NewUser{Username: "kim"}))
	assert.Zero(t, f.count())

	require.NoError(t, svc.CreateUser(context.Background(), NewUser{Username: "kim", Password: "pw", Role: "Support"}))
	assert.Equal(t, "createUser", f.last().Op)
	assert.Equal(t, "Support", f.last().Payload["role"])
}
