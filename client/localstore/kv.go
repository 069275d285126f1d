package localstore

import (
	"database/sql"

	"smarttasks/client/session"
)

var _ session.KV = (*KV)(nil)

// KV persists session state in the same database file as the
// collections, so one file carries everything a device knows.
type KV struct {
	db *sql.DB
}

func NewKV(db *sql.DB) *KV {
	return &KV{db: db}
}

func (s *KV) Get(key string) ([]byte, bool, error) {
	var v []byte
	err := s.db.QueryRow(`SELECT v FROM kv WHERE k = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (s *KV) Put(key string, value []byte) error {
	_, err := s.db.Exec(`
	INSERT INTO kv(k, v) VALUES (?, ?)
	ON CONFLICT(k) DO UPDATE SET v=excluded.v`, key, value)
	return err
}

func (s *KV) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM kv WHERE k = ?`, key)
	return err
}
