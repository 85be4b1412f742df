package appfs

import "embed"

// FS holds the goose migrations run by the admin CLI and the test setup.
//go:embed migrations
var FS embed.FS
