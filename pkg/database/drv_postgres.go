//go:build !no_db_postgres

package database

import (
	// register database driver as side effect
	_ "github.com/jackc/pgx/v4/stdlib"
)
