package vaultstore

import "embed"

// migrations holds the ordered set of schema migrations applied to a freshly
// opened or upgraded vault database. Each file name is "NNNN_description.sql"
// and is applied in a single transaction, in numeric order.
//
//go:embed migrations/*.sql
var migrations embed.FS

// schemaVersion is the highest migration version this build knows how to
// apply. A database whose schema_version exceeds this is refused rather than
// silently misread.
const schemaVersion = 1
