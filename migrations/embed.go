// Package migrations holds the SQL schema migrations, embedded so binaries
// and tests do not depend on the working directory.
package migrations

import "embed"

// FS contains every *.up.sql and *.down.sql file of this directory
//
//go:embed *.sql
var FS embed.FS
