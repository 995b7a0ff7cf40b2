package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection. ioTimeout bounds
// every read and write on a connection.
func Open(user, pass, host, port, name string, ioTimeout time.Duration) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn(user, pass, host, port, name, ioTimeout))
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func dsn(user, pass, host, port, name string, ioTimeout time.Duration) string {
	cfg := mysql.NewConfig()
	cfg.User = user
	cfg.Passwd = pass
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%s", host, port)
	cfg.DBName = name
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	cfg.Timeout = 5 * time.Second
	cfg.ReadTimeout = ioTimeout
	cfg.WriteTimeout = ioTimeout
	return cfg.FormatDSN()
}

// Keys are compared byte for byte; a _ci collation would let two
// spellings of one id address the same record.
const recordsTable = `
CREATE TABLE IF NOT EXISTS records (
    k          VARBINARY(191) NOT NULL,
    v          JSON           NOT NULL,
    updated_at TIMESTAMP      NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    PRIMARY KEY (k)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// Tables created before keys became binary are converted in place.
const binaryKeys = `ALTER TABLE records MODIFY k VARBINARY(191) NOT NULL`

// EnsureSchema creates the key-value table used by store.MySQL.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, recordsTable); err != nil {
		return fmt.Errorf("create records table: %w", err)
	}
	if _, err := db.ExecContext(ctx, binaryKeys); err != nil {
		return fmt.Errorf("convert record keys: %w", err)
	}
	return nil
}
