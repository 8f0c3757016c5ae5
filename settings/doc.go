// Package settings persists provider profiles and the prompt template.
//
// Settings hold a list of named provider profiles, the name of the active
// one, the prompt template, the system prompt and the token warning
// threshold. Two stores are provided:
//
//   - FileStore: a YAML, TOML or JSON file chosen by extension, written
//     atomically and optionally watched for external edits.
//   - SQLiteStore: a key-value table, one row per setting and one row per
//     profile, for hosts that already keep state in SQLite.
//
// A missing file or empty table loads Defaults(). Saving does not require
// profiles to be complete; completeness is checked when a prompt is
// submitted.
package settings
