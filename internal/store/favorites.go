package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Favorite is a saved item.
type Favorite struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	ItemType  string          `json:"item_type"`
	ItemID    string          `json:"item_id"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}

// ToggleFavorite saves the item, or removes it if already saved. It returns
// true when the item is now a favorite.
func (db *DB) ToggleFavorite(ctx context.Context, userID, itemType, itemID string, data any) (bool, error) {
	if userID == "" || itemType == "" || itemID == "" {
		return false, errors.New("store: user id, item type and item id are required")
	}
	body, err := encode(data)
	if err != nil {
		return false, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var id string
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM favorites WHERE user_id = ? AND item_type = ? AND item_id = ?",
		userID, itemType, itemID,
	).Scan(&id)
	switch {
	case err == nil:
		if _, err := tx.ExecContext(ctx, "DELETE FROM favorites WHERE id = ?", id); err != nil {
			return false, fmt.Errorf("delete favorite: %w", err)
		}
		return false, tx.Commit()
	case errors.Is(err, sql.ErrNoRows):
		_, err := tx.ExecContext(ctx,
			"INSERT INTO favorites (id, user_id, item_type, item_id, data, created_at) VALUES (?, ?, ?, ?, ?, ?)",
			uuid.NewString(), userID, itemType, itemID, body, db.timestamp(),
		)
		if err != nil {
			return false, fmt.Errorf("insert favorite: %w", err)
		}
		return true, tx.Commit()
	default:
		return false, err
	}
}

// Favorites returns the saved items for userID, newest first.
func (db *DB) Favorites(ctx context.Context, userID string) ([]Favorite, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT id, user_id, item_type, item_id, data, created_at FROM favorites WHERE user_id = ? ORDER BY created_at DESC, rowid DESC",
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Favorite
	for rows.Next() {
		var f Favorite
		var data, created string
		if err := rows.Scan(&f.ID, &f.UserID, &f.ItemType, &f.ItemID, &data, &created); err != nil {
			return nil, err
		}
		f.Data = json.RawMessage(data)
		f.CreatedAt = parseTime(created)
		out = append(out, f)
	}
	return out, rows.Err()
}
