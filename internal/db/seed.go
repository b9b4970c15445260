package db

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// SeedAdmin creates the bootstrap console account if it does not exist yet.
// Only the bcrypt hash is stored.
func SeedAdmin(ctx context.Context, database *Database, username, password string) error {
	if username == "" || password == "" {
		return fmt.Errorf("admin credentials are not configured")
	}

	var count int
	err := database.ExecQueryRow(ctx, "SELECT COUNT(*) FROM admin_users WHERE username = $1", username).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check admin user: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = database.Exec(ctx, "INSERT INTO admin_users (username, password_hash) VALUES ($1, $2)", username, string(hash))
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	return nil
}
