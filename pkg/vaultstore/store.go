// Package vaultstore is the encrypted persistence layer backing the Rite
// vault: a single SQLCipher database file holding the master-password
// record, stored connections, unlock-attempt history, known SSH host keys,
// and free-form settings. Every exported method operates on already-derived
// key material; vaultstore never hashes or derives anything itself.
package vaultstore

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/mutecomm/go-sqlcipher/v4"

	"github.com/armorclaw/bridge/pkg/vaultcrypto"
)

// ErrSchemaTooNew is returned by Open when the database's schema_version
// exceeds what this build knows how to read.
type ErrSchemaTooNew struct {
	Stored, Supported int
}

func (e *ErrSchemaTooNew) Error() string {
	return fmt.Sprintf("vaultstore: database schema version %d is newer than supported version %d", e.Stored, e.Supported)
}

// Store wraps a single SQLCipher-encrypted database connection pool.
type Store struct {
	db   *sql.DB
	path string
}

// Open derives the SQLCipher DSN from key and opens (creating if absent) the
// vault database at path, applying any pending migrations. key must be
// exactly 32 bytes, as produced by vaultcrypto.LoadOrCreateStorageKey.
func Open(path string, key []byte) (*Store, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("vaultstore: key must be 32 bytes, got %d", len(key))
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("vaultstore: create parent dir: %w", err)
		}
	}

	dsn := buildDSN(path, key)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("vaultstore: open: %w", err)
	}
	db.SetMaxOpenConns(5)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("vaultstore: ping (wrong key or corrupt file?): %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// buildDSN renders the go-sqlcipher pragma query string that unlocks path
// with key and pins the cipher parameters this module was built against.
func buildDSN(path string, key []byte) string {
	q := []string{
		"_pragma_key=x'" + vaultcrypto.EncodeKeyHex(key) + "'",
		"_pragma_cipher_page_size=4096",
		"_pragma_kdf_iter=256000",
		"_pragma_cipher_hmac_algorithm=HMAC_SHA512",
		"_pragma_cipher_kdf_algorithm=PBKDF2_HMAC_SHA512",
		"_foreign_keys=on",
	}
	return path + "?" + strings.Join(q, "&")
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("vaultstore: ensure schema_version table: %w", err)
	}

	current, err := s.currentSchemaVersion()
	if err != nil {
		return err
	}
	if current > schemaVersion {
		return &ErrSchemaTooNew{Stored: current, Supported: schemaVersion}
	}

	if current > 0 && current < schemaVersion {
		// A failed pre-migration backup is a warning, not a migration blocker:
		// the migration itself still runs inside its own transaction.
		if err := s.backupBeforeMigration(); err != nil {
			log.Printf("Warning: vaultstore: pre-migration backup failed: %v", err)
		}
	}

	names, err := migrations.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("vaultstore: read embedded migrations: %w", err)
	}
	files := make([]string, 0, len(names))
	for _, n := range names {
		files = append(files, n.Name())
	}
	sort.Strings(files)

	for _, name := range files {
		version, err := migrationVersion(name)
		if err != nil {
			return err
		}
		if version <= current {
			continue
		}

		sqlBytes, err := migrations.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("vaultstore: read migration %s: %w", name, err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("vaultstore: begin migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(sqlBytes)); err != nil {
			tx.Rollback()
			return fmt.Errorf("vaultstore: apply migration %s: %w", name, err)
		}
		if _, err := tx.Exec(`DELETE FROM schema_version`); err != nil {
			tx.Rollback()
			return fmt.Errorf("vaultstore: clear schema_version: %w", err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, version); err != nil {
			tx.Rollback()
			return fmt.Errorf("vaultstore: record schema_version %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("vaultstore: commit migration %s: %w", name, err)
		}
		current = version
	}

	return nil
}

func migrationVersion(filename string) (int, error) {
	prefix, _, ok := strings.Cut(filename, "_")
	if !ok {
		return 0, fmt.Errorf("vaultstore: malformed migration filename %q", filename)
	}
	v, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, fmt.Errorf("vaultstore: malformed migration version in %q: %w", filename, err)
	}
	return v, nil
}

func (s *Store) currentSchemaVersion() (int, error) {
	var version int
	err := s.db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("vaultstore: read schema_version: %w", err)
	}
	return version, nil
}

// backupBeforeMigration snapshots the database into a timestamped file in a
// backups/ sibling directory before a schema upgrade is applied.
func (s *Store) backupBeforeMigration() error {
	dir := filepath.Join(filepath.Dir(s.path), "backups")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	name := fmt.Sprintf("vault_pre_migration_%s.db", time.Now().UTC().Format("20060102_150405"))
	return s.CreateBackup(filepath.Join(dir, name))
}

// CreateBackup produces a consistent snapshot of the vault at destPath using
// SQLite's VACUUM INTO, which is safe to run against a live database.
func (s *Store) CreateBackup(destPath string) error {
	if dir := filepath.Dir(destPath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("vaultstore: create backup dir: %w", err)
		}
	}
	_, err := s.db.Exec(`VACUUM INTO ?`, destPath)
	if err != nil {
		return fmt.Errorf("vaultstore: create backup: %w", err)
	}
	return nil
}

// Reset atomically deletes all connections, the master-password record, and
// unlock-attempt history in a single transaction.
func (s *Store) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("vaultstore: begin reset: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM connections`,
		`DELETE FROM master_password`,
		`DELETE FROM unlock_attempts`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("vaultstore: reset: %w", err)
		}
	}
	return tx.Commit()
}
