// Package access is the shared role-membership check every mutating game
// operation consults. Role grants live in the entity store so they commit and
// roll back with the call that changed them.
package access

import (
	"context"

	"questHuntAPI/internal/fault"
	"questHuntAPI/internal/storage"
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	// RoleScorekeeper marks the challenge-engine integration identity that is
	// allowed to push points into the leaderboard.
	RoleScorekeeper Role = "scorekeeper"
	RoleMinter      Role = "minter"
	RoleUpgrader    Role = "upgrader"
)

type Service struct {
	store storage.Store
	// superAdmin always passes admin checks; set from config at startup.
	superAdmin string
}

func NewService(store storage.Store, superAdmin string) *Service {
	return &Service{store: store, superAdmin: superAdmin}
}

func roleKey(role Role, id string) string {
	return storage.Key("role", string(role), id)
}

// HasRole checks membership inside the caller's transaction so authorization
// reads stay consistent with the writes they guard.
func (a *Service) HasRole(ctx context.Context, tx storage.Tx, role Role, id string) (bool, error) {
	if role == RoleAdmin && id != "" && id == a.superAdmin {
		return true, nil
	}
	_, ok, err := tx.Get(ctx, roleKey(role, id))
	if err != nil {
		return false, fault.External("role lookup failed", err)
	}
	return ok, nil
}

// IsAdminOrModerator is the most common gate in the game services.
func (a *Service) IsAdminOrModerator(ctx context.Context, tx storage.Tx, id string) (bool, error) {
	if ok, err := a.HasRole(ctx, tx, RoleAdmin, id); err != nil || ok {
		return ok, err
	}
	return a.HasRole(ctx, tx, RoleModerator, id)
}

func (a *Service) GrantRole(ctx context.Context, caller string, role Role, id string) error {
	return a.setRole(ctx, caller, role, id, true)
}

func (a *Service) RevokeRole(ctx context.Context, caller string, role Role, id string) error {
	return a.setRole(ctx, caller, role, id, false)
}

func (a *Service) setRole(ctx context.Context, caller string, role Role, id string, grant bool) error {
	if id == "" {
		return fault.Validationf("identity is required")
	}

	tx, err := a.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	ok, err := a.HasRole(ctx, tx, RoleAdmin, caller)
	if err != nil {
		return err
	}
	if !ok {
		return fault.Authorizationf("only admins may manage roles")
	}

	if grant {
		err = tx.Put(ctx, roleKey(role, id), []byte("1"))
	} else {
		err = tx.Delete(ctx, roleKey(role, id))
	}
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// CheckRole queries membership outside any transaction, for read endpoints.
func (a *Service) CheckRole(ctx context.Context, role Role, id string) (bool, error) {
	tx, err := a.store.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)
	return a.HasRole(ctx, tx, role, id)
}
