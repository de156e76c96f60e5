package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mandalnilabja/grokway/internal/pool"
	"github.com/mandalnilabja/grokway/internal/storage"
	"github.com/mandalnilabja/grokway/internal/transport/http/handler/shared"
)

// seedSessions registers the sessions named in the environment. Pro
// sessions go to the restricted tiers only.
func seedSessions(p *pool.Pool, sessions, pro []string, logger *slog.Logger) {
	for _, s := range sessions {
		p.Add(pool.BuildCredential(s))
	}
	for _, s := range pro {
		p.AddRestricted(pool.BuildCredential(s))
	}
	if len(sessions)+len(pro) > 0 {
		logger.Info("sessions seeded", "standard", len(sessions), "pro", len(pro))
	}
}

// ensureManagerPassword stores the argon2 hash of password unless the
// stored hash already matches it with current parameters.
func ensureManagerPassword(store storage.Storage, password string) error {
	if !shared.IsValidAdminPassword(password) {
		return errors.New("ADMINPASSWORD must be at least 8 characters when MANAGER_SWITCH is on")
	}

	current, err := store.GetAdminPasswordHash()
	if err != nil {
		return fmt.Errorf("failed to read manager password: %w", err)
	}
	params := storage.DefaultArgon2Params()
	if current != "" && !storage.NeedsRehash(current, params) {
		if ok, err := storage.VerifyPassword(password, current); err == nil && ok {
			return nil
		}
	}

	hash, err := storage.HashPassword(password, params)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := store.SetAdminPasswordHash(hash); err != nil {
		return fmt.Errorf("failed to save password: %w", err)
	}
	return nil
}
