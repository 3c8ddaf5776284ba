package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultHistoryLimit is used when History is called with limit <= 0.
const DefaultHistoryLimit = 50

// HistoryItem is one recorded lookup or answer.
type HistoryItem struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Type      string          `json:"type"`
	Query     string          `json:"query"`
	Content   json.RawMessage `json:"content"`
	CreatedAt time.Time       `json:"created_at"`
}

func encode(v any) (string, error) {
	if v == nil {
		return "{}", nil
	}
	if raw, ok := v.(json.RawMessage); ok && json.Valid(raw) {
		return string(raw), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode content: %w", err)
	}
	return string(b), nil
}

// AddHistory records an item for userID.
func (db *DB) AddHistory(ctx context.Context, userID, itemType string, content any, query string) (HistoryItem, error) {
	if userID == "" {
		return HistoryItem{}, errors.New("store: user id required")
	}
	body, err := encode(content)
	if err != nil {
		return HistoryItem{}, err
	}
	item := HistoryItem{
		ID:      uuid.NewString(),
		UserID:  userID,
		Type:    itemType,
		Query:   query,
		Content: json.RawMessage(body),
	}
	ts := db.timestamp()
	item.CreatedAt = parseTime(ts)
	_, err = db.ExecContext(ctx,
		"INSERT INTO user_history (id, user_id, type, query, content, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		item.ID, item.UserID, item.Type, item.Query, body, ts,
	)
	if err != nil {
		return HistoryItem{}, fmt.Errorf("insert history: %w", err)
	}
	return item, nil
}

// AddHistoryAsync records an item in the background. Failures are logged,
// never returned. Close waits for outstanding writes; items arriving after
// Close has started are dropped.
func (db *DB) AddHistoryAsync(userID, itemType string, content any, query string) {
	db.mu.Lock()
	if db.closed {
		db.mu.Unlock()
		db.logger.Warn("history write after close dropped", zap.String("user_id", userID), zap.String("type", itemType))
		return
	}
	db.pending.Add(1)
	db.mu.Unlock()
	go func() {
		defer db.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := db.AddHistory(ctx, userID, itemType, content, query); err != nil {
			db.logger.Warn("history write failed", zap.String("user_id", userID), zap.String("type", itemType), zap.Error(err))
		}
	}()
}

// History returns up to limit items for userID, newest first.
func (db *DB) History(ctx context.Context, userID string, limit int) ([]HistoryItem, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	rows, err := db.QueryContext(ctx,
		"SELECT id, user_id, type, query, content, created_at FROM user_history WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?",
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryItem
	for rows.Next() {
		var it HistoryItem
		var content, created string
		if err := rows.Scan(&it.ID, &it.UserID, &it.Type, &it.Query, &content, &created); err != nil {
			return nil, err
		}
		it.Content = json.RawMessage(content)
		it.CreatedAt = parseTime(created)
		out = append(out, it)
	}
	return out, rows.Err()
}
