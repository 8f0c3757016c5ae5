package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/cabird/gpt-chrome-latex-ext/provider"
)

const ddlSettings = `CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// Keys mirror the extension's chrome.storage.local layout.
const (
	keyActiveProfile  = "active_profile"
	keyPromptTemplate = "prompt_template"
	keySystemPrompt   = "system_prompt"
	keyThreshold      = "threshold"
	keyProfileOrder   = "profile_order"
	profileKeyPrefix  = "profile:"
)

// SQLiteStore keeps settings as key-value rows in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path. Use ":memory:" for a
// private in-memory store.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open settings db: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and writers serialized.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragma: %w", err)
	}
	if _, err := db.Exec(ddlSettings); err != nil {
		db.Close()
		return nil, fmt.Errorf("create settings table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load reads every row. An empty table yields Defaults().
func (s *SQLiteStore) Load(ctx context.Context) (*Settings, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	out := Defaults()
	profiles := make(map[string]provider.Profile)
	var order []string

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan settings row: %w", err)
		}

		switch {
		case key == keyActiveProfile:
			out.ActiveProfile = value
		case key == keyPromptTemplate:
			out.PromptTemplate = value
		case key == keySystemPrompt:
			out.SystemPrompt = value
		case key == keyThreshold:
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("%w: threshold %q: %w", ErrInvalidSettings, value, err)
			}
			out.Threshold = n
		case key == keyProfileOrder:
			if err := json.Unmarshal([]byte(value), &order); err != nil {
				return nil, fmt.Errorf("%w: profile order: %w", ErrInvalidSettings, err)
			}
		case strings.HasPrefix(key, profileKeyPrefix):
			var p provider.Profile
			if err := json.Unmarshal([]byte(value), &p); err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrInvalidSettings, key, err)
			}
			p.Name = strings.TrimPrefix(key, profileKeyPrefix)
			profiles[p.Name] = p
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settings: %w", err)
	}

	for _, name := range order {
		if p, ok := profiles[name]; ok {
			out.Profiles = append(out.Profiles, p)
			delete(profiles, name)
		}
	}
	// Rows written by another tool without an order entry go last.
	for _, name := range sortedKeys(profiles) {
		out.Profiles = append(out.Profiles, profiles[name])
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// Save replaces every row in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, st *Settings) error {
	if err := st.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM settings`); err != nil {
		return fmt.Errorf("clear settings: %w", err)
	}

	rows := map[string]string{
		keyActiveProfile:  st.ActiveProfile,
		keyPromptTemplate: st.PromptTemplate,
		keySystemPrompt:   st.SystemPrompt,
		keyThreshold:      strconv.Itoa(st.Threshold),
	}
	order, err := json.Marshal(st.ProfileNames())
	if err != nil {
		return fmt.Errorf("marshal profile order: %w", err)
	}
	rows[keyProfileOrder] = string(order)

	for _, p := range st.Profiles {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("marshal profile %q: %w", p.Name, err)
		}
		rows[profileKeyPrefix+p.Name] = string(data)
	}

	for _, key := range sortedKeys(rows) {
		if _, err := tx.ExecContext(ctx, `INSERT INTO settings (key, value) VALUES (?, ?)`, key, rows[key]); err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
