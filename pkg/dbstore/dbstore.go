// Package dbstore persists installed-package and owned-file state,
// spec.md §3's "installation database": a single-writer SQLite file
// opened fresh per command invocation (spec.md §5's "no process-lifetime
// singletons" rule), grounded on original_source/src/db.rs's schema and
// API shape.
package dbstore

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/clyde-pm/clyde/pkg/clydeerr"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS installed_package (
	name               TEXT PRIMARY KEY,
	installed_version  TEXT NOT NULL,
	requested_version  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS installed_file (
	path         TEXT NOT NULL,
	package_name TEXT NOT NULL REFERENCES installed_package(name)
);
CREATE INDEX IF NOT EXISTS idx_installed_file_package ON installed_file(package_name);
`

// DB wraps the installation database. It is safe to open and close once
// per command invocation; there is no shared, process-lifetime state.
type DB struct {
	conn *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// ensures the schema exists.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, clydeerr.Wrap(clydeerr.DatabaseError, "", fmt.Errorf("opening database %s: %w", path, err))
	}
	conn.SetMaxOpenConns(1) // single-writer, spec.md §3
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, clydeerr.Wrap(clydeerr.DatabaseError, "", fmt.Errorf("creating schema: %w", err))
	}
	return &DB{conn: conn}, nil
}

// OpenInMemory backs tests the same way original_source's
// Database::new_in_memory does, without touching the filesystem.
func OpenInMemory() (*DB, error) {
	return Open(":memory:")
}

// Close releases the underlying connection.
func (d *DB) Close() error {
	return d.conn.Close()
}

// PackageInfo mirrors original_source's PackageInfo: an installed
// package's current version and the requirement the user originally
// asked for (pinning, spec.md §3).
type PackageInfo struct {
	Name              string
	InstalledVersion  *semver.Version
	RequestedVersion  string
}

// GetPackageVersion returns the installed version of name, or nil if it
// is not installed.
func (d *DB) GetPackageVersion(name string) (*semver.Version, error) {
	var raw string
	err := d.conn.QueryRow(`SELECT installed_version FROM installed_package WHERE name = ?`, name).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, clydeerr.Wrap(clydeerr.DatabaseError, name, fmt.Errorf("reading installed version: %w", err))
	}
	v, err := semver.NewVersion(raw)
	if err != nil {
		return nil, clydeerr.Wrap(clydeerr.DatabaseError, name, fmt.Errorf("parsing stored version %q: %w", raw, err))
	}
	return v, nil
}

// GetPackage returns the full installed_package row, or nil if absent.
func (d *DB) GetPackage(name string) (*PackageInfo, error) {
	var installed, requested string
	err := d.conn.QueryRow(
		`SELECT installed_version, requested_version FROM installed_package WHERE name = ?`,
		name,
	).Scan(&installed, &requested)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, clydeerr.Wrap(clydeerr.DatabaseError, name, fmt.Errorf("reading package: %w", err))
	}
	v, err := semver.NewVersion(installed)
	if err != nil {
		return nil, clydeerr.Wrap(clydeerr.DatabaseError, name, fmt.Errorf("parsing stored version %q: %w", installed, err))
	}
	return &PackageInfo{Name: name, InstalledVersion: v, RequestedVersion: requested}, nil
}

// AddPackage records a freshly installed package and the relative paths
// of every file it placed, in a single transaction (spec.md §4.7 step 9).
func (d *DB) AddPackage(name string, installedVersion *semver.Version, requestedVersion string, files []string) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return clydeerr.Wrap(clydeerr.DatabaseError, name, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO installed_package(name, installed_version, requested_version) VALUES (?, ?, ?)`,
		name, installedVersion.String(), requestedVersion,
	); err != nil {
		return clydeerr.Wrap(clydeerr.DatabaseError, name, fmt.Errorf("inserting package row: %w", err))
	}

	stmt, err := tx.Prepare(`INSERT INTO installed_file(path, package_name) VALUES (?, ?)`)
	if err != nil {
		return clydeerr.Wrap(clydeerr.DatabaseError, name, err)
	}
	defer stmt.Close()
	for _, f := range files {
		if _, err := stmt.Exec(f, name); err != nil {
			return clydeerr.Wrap(clydeerr.DatabaseError, name, fmt.Errorf("recording file %s: %w", f, err))
		}
	}
	if err := tx.Commit(); err != nil {
		return clydeerr.Wrap(clydeerr.DatabaseError, name, err)
	}
	return nil
}

// RemovePackage deletes a package's rows (installed_package and its
// installed_file rows) in a single transaction (spec.md §4.8).
func (d *DB) RemovePackage(name string) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return clydeerr.Wrap(clydeerr.DatabaseError, name, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM installed_file WHERE package_name = ?`, name); err != nil {
		return clydeerr.Wrap(clydeerr.DatabaseError, name, err)
	}
	if _, err := tx.Exec(`DELETE FROM installed_package WHERE name = ?`, name); err != nil {
		return clydeerr.Wrap(clydeerr.DatabaseError, name, err)
	}
	return tx.Commit()
}

// GetPackageFiles returns the relative paths owned by name, the
// authoritative uninstall set (spec.md §3).
func (d *DB) GetPackageFiles(name string) ([]string, error) {
	rows, err := d.conn.Query(`SELECT path FROM installed_file WHERE package_name = ?`, name)
	if err != nil {
		return nil, clydeerr.Wrap(clydeerr.DatabaseError, name, err)
	}
	defer rows.Close()

	var files []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, clydeerr.Wrap(clydeerr.DatabaseError, name, err)
		}
		files = append(files, p)
	}
	return files, rows.Err()
}

// GetInstalledPackages returns every installed_package row ordered by
// name, matching original_source's get_installed_packages ordering.
func (d *DB) GetInstalledPackages() ([]PackageInfo, error) {
	rows, err := d.conn.Query(`SELECT name, installed_version, requested_version FROM installed_package`)
	if err != nil {
		return nil, clydeerr.Wrap(clydeerr.DatabaseError, "", err)
	}
	defer rows.Close()

	var packages []PackageInfo
	for rows.Next() {
		var name, installed, requested string
		if err := rows.Scan(&name, &installed, &requested); err != nil {
			return nil, clydeerr.Wrap(clydeerr.DatabaseError, "", err)
		}
		v, err := semver.NewVersion(installed)
		if err != nil {
			return nil, clydeerr.Wrap(clydeerr.DatabaseError, name, fmt.Errorf("parsing stored version %q: %w", installed, err))
		}
		packages = append(packages, PackageInfo{Name: name, InstalledVersion: v, RequestedVersion: requested})
	}
	if err := rows.Err(); err != nil {
		return nil, clydeerr.Wrap(clydeerr.DatabaseError, "", err)
	}
	sort.Slice(packages, func(i, j int) bool { return packages[i].Name < packages[j].Name })
	return packages, nil
}
