//go:build !no_db_sqlite

package database

import (
	// register database driver as side effect
	_ "modernc.org/sqlite"
)
