package store

const schema = `
CREATE TABLE IF NOT EXISTS user_history (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	type TEXT NOT NULL,       -- search, variant, gene, literature, ask, ...
	query TEXT NOT NULL,
	content TEXT NOT NULL,    -- JSON
	created_at TEXT NOT NULL  -- RFC 3339, UTC, nanosecond fraction
);

CREATE INDEX IF NOT EXISTS idx_user_history_user_created ON user_history(user_id, created_at);

CREATE TABLE IF NOT EXISTS favorites (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	item_type TEXT NOT NULL,  -- variant, gene, article, pathway
	item_id TEXT NOT NULL,
	data TEXT NOT NULL,       -- JSON
	created_at TEXT NOT NULL,
	UNIQUE(user_id, item_type, item_id)
);

CREATE INDEX IF NOT EXISTS idx_favorites_user ON favorites(user_id);
`
