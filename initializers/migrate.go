package initializers

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/Itish41/complytrack/db"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

// Migrate brings the schema and reporting views up to date.
func Migrate(gdb *gorm.DB, dialect Dialect) error {
	log.Println("Starting database migration...")

	var err error
	switch dialect {
	case DialectPostgres:
		err = migratePostgres(gdb, func(m *migrate.Migrate) error { return m.Up() })
	case DialectSQLite:
		err = ApplySQLiteSchema(gdb)
	default:
		err = fmt.Errorf("no migrations for dialect %q", dialect)
	}
	if err != nil {
		return err
	}

	log.Println("Migration completed successfully!")
	return nil
}

// MigrateDown rolls back every postgres migration.
func MigrateDown(gdb *gorm.DB, dialect Dialect) error {
	if dialect != DialectPostgres {
		return fmt.Errorf("down migrations are only supported on postgres")
	}
	return migratePostgres(gdb, func(m *migrate.Migrate) error { return m.Down() })
}

func migratePostgres(gdb *gorm.DB, run func(*migrate.Migrate) error) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return fmt.Errorf("error getting underlying *sql.DB: %w", err)
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{
		MigrationsTable: "schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create the postgres driver: %w", err)
	}

	src, err := iofs.New(db.Migrations, "migrations")
	if err != nil {
		return fmt.Errorf("error opening embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("error creating migrate instance: %w", err)
	}

	if err := run(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("error running migrations: %w", err)
	}
	return nil
}

// ApplySQLiteSchema creates the tables and views on SQLite. Every statement
// is idempotent, so it is safe to run on each start.
func ApplySQLiteSchema(gdb *gorm.DB) error {
	for _, stmt := range splitStatements(db.SQLiteSchema) {
		if err := gdb.Exec(stmt).Error; err != nil {
			return fmt.Errorf("error applying sqlite schema: %w", err)
		}
	}
	return nil
}

// splitStatements cuts a script on semicolons that end a line, keeping
// trigger bodies (BEGIN ... END;) together. Comment lines are dropped.
func splitStatements(script string) []string {
	var (
		stmts   []string
		cur     strings.Builder
		inBlock bool
	)
	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		cur.WriteString(line)
		cur.WriteString("\n")

		upper := strings.ToUpper(trimmed)
		if upper == "BEGIN" {
			inBlock = true
		}
		if inBlock {
			if upper == "END;" {
				inBlock = false
				stmts = append(stmts, strings.TrimSpace(cur.String()))
				cur.Reset()
			}
			continue
		}
		if strings.HasSuffix(trimmed, ";") {
			stmts = append(stmts, strings.TrimSpace(cur.String()))
			cur.Reset()
		}
	}
	if rest := strings.TrimSpace(cur.String()); rest != "" {
		stmts = append(stmts, rest)
	}
	return stmts
}
