package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/models"
)

// CreateProfile inserts a new profile
func (db *DB) CreateProfile(ctx context.Context, p *models.Profile) error {
	if err := p.Validate(); err != nil {
		return storeErr("create", p.ID, err)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO profiles (id, owner_id, name, description, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, p.ID, p.OwnerID, p.Name, p.Description, toMillis(p.CreatedAt))
	return storeErr("create", p.ID, err)
}

// GetProfile returns a single profile
func (db *DB) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	var desc sql.NullString
	var created int64
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, owner_id, name, description, created_at
		FROM profiles WHERE id = ?
	`, id).Scan(&p.ID, &p.OwnerID, &p.Name, &desc, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storeErr("read", id, ErrNotFound)
	}
	if err != nil {
		return nil, storeErr("read", id, err)
	}
	p.Description = desc.String
	p.CreatedAt = fromMillis(created)
	return &p, nil
}

// ListProfiles returns the owner's profiles, oldest first
func (db *DB) ListProfiles(ctx context.Context, ownerID string) ([]models.Profile, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, owner_id, name, description, created_at
		FROM profiles
		WHERE owner_id = ?
		ORDER BY created_at ASC, name ASC
	`, ownerID)
	if err != nil {
		return nil, storeErr("list", ownerID, err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		var p models.Profile
		var desc sql.NullString
		var created int64
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &desc, &created); err != nil {
			return nil, storeErr("list", ownerID, err)
		}
		p.Description = desc.String
		p.CreatedAt = fromMillis(created)
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// DeleteProfile removes a profile and, by cascade, its session metadata
func (db *DB) DeleteProfile(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return storeErr("delete", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("delete", id, err)
	}
	if n == 0 {
		return storeErr("delete", id, ErrNotFound)
	}
	return nil
}
