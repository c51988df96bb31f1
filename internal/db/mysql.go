package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

const mysqlDuplicateEntry = 1062

// Slugs and usernames compare byte for byte, as they do on SQLite and
// PostgreSQL. The default MySQL collation folds case and accents, which
// would make "SLUG" collide with "slug".
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(150) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin UNIQUE NOT NULL,
		password VARCHAR(255) NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB;`,
	`CREATE TABLE IF NOT EXISTS notes (
		id INT AUTO_INCREMENT PRIMARY KEY,
		author_id INT NOT NULL,
		title VARCHAR(100) NOT NULL,
		text TEXT NOT NULL,
		slug VARCHAR(100) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin UNIQUE NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX notes_author_id (author_id),
		FOREIGN KEY (author_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB;`,
	`CREATE TABLE IF NOT EXISTS revoked_tokens (
		jti VARCHAR(36) PRIMARY KEY,
		expires_at BIGINT NOT NULL
	) ENGINE=InnoDB;`,
}

func openMySQL(ctx context.Context, opts Options) (*DB, error) {
	dsn := opts.DSN
	if dsn == "" {
		cfg := mysql.NewConfig()
		cfg.User = opts.User
		cfg.Passwd = opts.Password
		cfg.Net = "tcp"
		cfg.Addr = opts.Host
		cfg.DBName = opts.Name
		cfg.ParseTime = true
		dsn = cfg.FormatDSN()
	}

	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return &DB{DB: conn, Dialect: MySQL}, nil
}

func isMySQLUniqueViolation(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
