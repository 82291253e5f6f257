package initializers

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/glebarez/sqlite"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Dialect names the backend behind a DATABASE_URL.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL is not set")
	ErrUnsupportedScheme  = errors.New("unsupported database url scheme")
)

// ParseDatabaseURL splits a DATABASE_URL into its dialect and the DSN the
// driver expects. sqlite:///./app.db is relative, sqlite:////tmp/app.db
// absolute.
func ParseDatabaseURL(url string) (Dialect, string, error) {
	switch {
	case url == "":
		return "", "", ErrMissingDatabaseURL
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DialectPostgres, url, nil
	case strings.HasPrefix(url, "sqlite://"):
		path := strings.TrimPrefix(strings.TrimPrefix(url, "sqlite://"), "/")
		if path == "" || path == ":memory:" {
			return DialectSQLite, "file::memory:", nil
		}
		return DialectSQLite, path, nil
	}
	return "", "", fmt.Errorf("%w in %q", ErrUnsupportedScheme, url)
}

// OpenDatabase opens a gorm handle for DATABASE_URL.
func OpenDatabase(url string, debug bool) (*gorm.DB, Dialect, error) {
	dialect, dsn, err := ParseDatabaseURL(url)
	if err != nil {
		return nil, "", err
	}

	cfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}

	var db *gorm.DB
	switch dialect {
	case DialectPostgres:
		cfg.PrepareStmt = false
		cfg.DisableAutomaticPing = true
		db, err = gorm.Open(postgres.New(postgres.Config{
			PreferSimpleProtocol: true,
			DriverName:           "postgres",
			DSN:                  dsn,
		}), cfg)
	case DialectSQLite:
		db, err = OpenSQLite(dsn, cfg)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to connect to the database: %w", err)
	}

	if debug {
		db = db.Debug()
	}
	return db, dialect, nil
}

// OpenSQLite opens a SQLite database with foreign keys enforced on a single
// connection, so in-memory databases are shared by every query.
func OpenSQLite(path string, cfg *gorm.Config) (*gorm.DB, error) {
	if cfg == nil {
		cfg = &gorm.Config{TranslateError: true, Logger: logger.Default.LogMode(logger.Silent)}
	}
	dsn := path
	if strings.Contains(dsn, "?") {
		dsn += "&_pragma=foreign_keys(1)"
	} else {
		dsn += "?_pragma=foreign_keys(1)"
	}

	db, err := gorm.Open(sqlite.Open(dsn), cfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, err
	}
	return db, nil
}

// ConnectDB opens DATABASE_URL and stores the handle in DB.
func ConnectDB(cfg Config) (Dialect, error) {
	log.Println("Connecting to database")

	db, dialect, err := OpenDatabase(cfg.DatabaseURL, cfg.DBDebug)
	if err != nil {
		log.Printf("[ConnectDB] %v", err)
		return "", err
	}
	DB = db

	log.Printf("Database connection successful (%s)", dialect)
	return dialect, nil
}
