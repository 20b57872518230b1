// Package migrations embeds the goose SQL migrations so binaries and test
// helpers can apply them without the filesystem.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
