// Package all wires every built-in storage backend into the storage
// registry. It exists for side effects only:
//
//	import _ "empmaster/internal/storage/all"
//
// makes the "mssql", "postgres", "sqlite", and "mysql" kinds available to
// storage.Open. Binaries that need a subset can import the backend packages
// directly instead.
package all

import (
	_ "empmaster/internal/storage/mssql"
	_ "empmaster/internal/storage/mysql"
	_ "empmaster/internal/storage/postgres"
	_ "empmaster/internal/storage/sqlite"
)
