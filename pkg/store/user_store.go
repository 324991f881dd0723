package store

import (
	"context"
	"database/sql"

	"github.com/rahulxs/ping-chat/pkg/models"
)

// User records are owned by the auth service; this store only reads them
// for roster display.

func (s *Store) ListUsersExcept(ctx context.Context, userID string) ([]models.User, error) {
	s.logger.Debug("Listing users", "except", userID)

	query := `
		SELECT id, name, bio, avatar_url, created_at
		FROM users
		WHERE id != $1
		ORDER BY name, id`

	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		s.logger.Error("Failed to list users", "error", err)
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Bio, &u.AvatarURL, &u.CreatedAt); err != nil {
			s.logger.Error("Failed to scan user row", "error", err)
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.logger.Debug("Users listed", "count", len(users))
	return users, nil
}

func (s *Store) GetUser(ctx context.Context, userID string) (*models.User, error) {
	query := `SELECT id, name, bio, avatar_url, created_at FROM users WHERE id = $1`

	var u models.User
	err := s.DB.QueryRowContext(ctx, query, userID).Scan(
		&u.ID, &u.Name, &u.Bio, &u.AvatarURL, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("Failed to get user", "error", err, "user_id", userID)
		return nil, err
	}
	return &u, nil
}
