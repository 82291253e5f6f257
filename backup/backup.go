// Package backup writes a point-in-time copy of the database named by
// DATABASE_URL into a local directory, and optionally ships it to S3.
package backup

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/Itish41/complytrack/initializers"
)

const timestampLayout = "20060102_150405"

// ErrInMemory is returned for sqlite URLs that point at an in-memory database.
var ErrInMemory = errors.New("cannot back up an in-memory sqlite database")

// DumpFunc streams a logical dump of the postgres database at url into w.
type DumpFunc func(ctx context.Context, url string, w io.Writer) error

// Uploader stores a finished backup file somewhere off-host and returns
// where it went.
type Uploader interface {
	Upload(ctx context.Context, path string) (string, error)
}

// Runner produces backups. The zero value backs up into "./backups" using
// the system clock and pg_dump from PATH.
type Runner struct {
	Dir      string
	Now      func() time.Time
	Dump     DumpFunc
	Uploader Uploader
}

// Run backs up the database at databaseURL and returns the path of the file
// it wrote. Errors wrap initializers.ErrMissingDatabaseURL or
// initializers.ErrUnsupportedScheme when the URL itself is the problem; in
// that case no file is created.
func (r *Runner) Run(ctx context.Context, databaseURL string) (string, error) {
	dialect, dsn, err := initializers.ParseDatabaseURL(databaseURL)
	if err != nil {
		return "", err
	}

	dir := r.Dir
	if dir == "" {
		dir = "./backups"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup dir: %w", err)
	}
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	ts := now().UTC().Format(timestampLayout)

	var out string
	switch dialect {
	case initializers.DialectSQLite:
		out, err = copySQLite(dsn, dir, ts)
	case initializers.DialectPostgres:
		dump := r.Dump
		if dump == nil {
			dump = PgDump
		}
		out, err = dumpPostgres(ctx, dump, databaseURL, dir, ts)
	}
	if err != nil {
		return "", err
	}
	log.Printf("[Backup] wrote %s", out)

	if r.Uploader != nil {
		location, err := r.Uploader.Upload(ctx, out)
		if err != nil {
			return out, fmt.Errorf("backup written to %s but upload failed: %w", out, err)
		}
		log.Printf("[Backup] uploaded %s to %s", out, location)
	}
	return out, nil
}

func copySQLite(path, dir, ts string) (string, error) {
	if strings.HasPrefix(path, "file::memory:") {
		return "", ErrInMemory
	}
	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open sqlite database: %w", err)
	}
	defer src.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	out := filepath.Join(dir, fmt.Sprintf("%s_%s.db", name, ts))
	err = writeFile(out, func(w io.Writer) error {
		_, err := io.Copy(w, src)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to copy sqlite database: %w", err)
	}
	return out, nil
}

func dumpPostgres(ctx context.Context, dump DumpFunc, url, dir, ts string) (string, error) {
	out := filepath.Join(dir, fmt.Sprintf("pg_%s.sql.gz", ts))
	err := writeFile(out, func(w io.Writer) error {
		zw := gzip.NewWriter(w)
		if err := dump(ctx, url, zw); err != nil {
			zw.Close()
			return err
		}
		return zw.Close()
	})
	if err != nil {
		return "", fmt.Errorf("failed to dump postgres database: %w", err)
	}
	return out, nil
}

// writeFile creates path, fills it with fill and removes it again on failure.
func writeFile(path string, fill func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fill(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

// PgDump runs the pg_dump binary against url, writing plain SQL to w.
func PgDump(ctx context.Context, url string, w io.Writer) error {
	cmd := exec.CommandContext(ctx, "pg_dump", "--no-owner", "--no-privileges", url)
	cmd.Stdout = w
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("pg_dump: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
