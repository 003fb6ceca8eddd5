// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each concrete backend, which register
// their factories with the storage package. It makes the following storage
// kinds available:
//
//   - "sqlite"   (ratetables/internal/storage/sqlite)
//   - "postgres" (ratetables/internal/storage/postgres)
//   - "mssql"    (ratetables/internal/storage/mssql)
//
// A binary that needs only a subset of backends can import those packages
// directly instead.
package all

import (
	_ "ratetables/internal/storage/mssql"
	_ "ratetables/internal/storage/postgres"
	_ "ratetables/internal/storage/sqlite"
)
