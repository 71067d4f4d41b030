//go:build !no_db_mysql

package database

import (
	// register database driver as side effect
	_ "github.com/go-sql-driver/mysql"
)
