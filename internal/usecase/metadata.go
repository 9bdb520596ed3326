package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/omsdash/omsctl/internal/logging"
	"github.com/omsdash/omsctl/internal/oms"
	"github.com/omsdash/omsctl/internal/services"
)

// Metadata is the reference data a screen needs besides its own records.
type Metadata struct {
	Stores []oms.Store
	Units  []string
	Users  []oms.User
	Roles  []oms.Role
}

// MetadataSource loads the reference data.
type MetadataSource struct {
	Stores *services.StoreService
	Units  *services.UnitService
	Auth   *services.AuthService
	Roles  *services.RoleService
	Logger *slog.Logger
}

// Load fetches every configured kind of reference data concurrently. Each
// kind is independent: a failing one leaves its field empty and is reported
// in the joined error while the others are still filled. The group is not
// bound to a context, so one failure never cancels the other loads.
func (m MetadataSource) Load(ctx context.Context) (Metadata, error) {
	logger := logging.OrDefault(m.Logger)

	var md Metadata
	var storesErr, unitsErr, usersErr, rolesErr error
	var g errgroup.Group

	if m.Stores != nil {
		g.Go(func() error {
			stores, err := m.Stores.GetStores(ctx)
			if err != nil {
				storesErr = fmt.Errorf("load stores: %w", err)
				return storesErr
			}
			md.Stores = stores
			return nil
		})
	}
	if m.Units != nil {
		g.Go(func() error {
			units, err := m.Units.GetUnits(ctx)
			if err != nil {
				unitsErr = fmt.Errorf("load units: %w", err)
				return unitsErr
			}
			md.Units = units
			return nil
		})
	}
	if m.Auth != nil {
		g.Go(func() error {
			users, err := m.Auth.GetUsers(ctx)
			if err != nil {
				usersErr = fmt.Errorf("load users: %w", err)
				return usersErr
			}
			md.Users = users
			return nil
		})
	}
	if m.Roles != nil {
		g.Go(func() error {
			roles, err := m.Roles.GetRoles(ctx)
			if err != nil {
				rolesErr = fmt.Errorf("load roles: %w", err)
				return rolesErr
			}
			md.Roles = roles
			return nil
		})
	}
	if err := g.Wait(); err == nil {
		return md, nil
	}

	// Wait reports only the first failure; collect all of them in a fixed
	// order.
	var errs []error
	for _, err := range []error{storesErr, unitsErr, usersErr, rolesErr} {
		if err != nil {
			logger.Warn("metadata load failed", "error", err)
			errs = append(errs, err)
		}
	}
	return md, errors.Join(errs...)
}
