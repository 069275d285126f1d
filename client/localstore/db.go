// Package localstore is the sqlite-backed implementation of the client
// service, kept from the project's early offline stage. It stores every
// collection in one database file, scoped per tenant, with attachment
// payloads inline. It satisfies the same Service contract the remote API
// client does, so programs can switch between the two unchanged.
package localstore

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS projects (
	id         TEXT PRIMARY KEY,
	tenant_id  TEXT NOT NULL,
	name       TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_projects_tenant ON projects(tenant_id, created_at, id);

CREATE TABLE IF NOT EXISTS tasks (
	id          TEXT PRIMARY KEY,
	tenant_id   TEXT NOT NULL,
	project_id  TEXT NOT NULL REFERENCES projects(id),
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	due_date    TIMESTAMP,
	created_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(tenant_id, project_id, created_at, id);

CREATE TABLE IF NOT EXISTS attachments (
	id            TEXT PRIMARY KEY,
	tenant_id     TEXT NOT NULL,
	task_id       TEXT NOT NULL REFERENCES tasks(id),
	original_name TEXT NOT NULL,
	mime_type     TEXT NOT NULL,
	size          INTEGER NOT NULL,
	payload       BLOB NOT NULL,
	created_at    TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_attachments_task ON attachments(tenant_id, task_id, created_at, id);

CREATE TABLE IF NOT EXISTS kv (
	k TEXT PRIMARY KEY,
	v BLOB NOT NULL
);
`

// Open opens (and if needed bootstraps) the local database file.
func Open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // sqlite
	db.SetConnMaxLifetime(0)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}
	return db, nil
}

// now returns UTC time truncated to seconds, matching sqlite's default
// timestamp precision so round-trips compare equal.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
