package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// MySQL keeps records in a single two-column table created by
// database.EnsureSchema:
//
//	records(k VARBINARY(191) PRIMARY KEY, v JSON)
type MySQL struct {
	db *sql.DB
}

// NewMySQL returns a MySQL store bound to the given pool.
func NewMySQL(db *sql.DB) *MySQL {
	return &MySQL{db: db}
}

func (s *MySQL) Get(ctx context.Context, key string) ([]byte, error) {
	const q = `SELECT v FROM records WHERE k = ?`
	var v []byte
	if err := s.db.QueryRowContext(ctx, q, key).Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, ioErr("mysql get", key, err)
	}
	return v, nil
}

func (s *MySQL) Put(ctx context.Context, key string, value []byte) error {
	const q = `INSERT INTO records (k, v) VALUES (?, ?) ON DUPLICATE KEY UPDATE v = VALUES(v)`
	if _, err := s.db.ExecContext(ctx, q, key, value); err != nil {
		return ioErr("mysql put", key, err)
	}
	return nil
}

func (s *MySQL) PutIfAbsent(ctx context.Context, key string, value []byte) (bool, error) {
	const q = `INSERT IGNORE INTO records (k, v) VALUES (?, ?)`
	res, err := s.db.ExecContext(ctx, q, key, value)
	if err != nil {
		return false, ioErr("mysql put-if-absent", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, ioErr("mysql put-if-absent", key, err)
	}
	return n == 1, nil
}

func (s *MySQL) ScanPrefix(ctx context.Context, prefix string) ([][]byte, error) {
	const q = `SELECT v FROM records WHERE k LIKE ? ESCAPE '!'`
	rows, err := s.db.QueryContext(ctx, q, likePrefix(prefix))
	if err != nil {
		return nil, ioErr("mysql scan", prefix, err)
	}
	defer rows.Close()
	out := make([][]byte, 0)
	for rows.Next() {
		var v []byte
		if err := rows.Scan(&v); err != nil {
			return nil, ioErr("mysql scan", prefix, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, ioErr("mysql scan", prefix, err)
	}
	return out, nil
}

// likePrefix escapes LIKE wildcards in prefix using '!' as escape char.
func likePrefix(prefix string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(prefix) + "%"
}
