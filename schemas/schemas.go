// Package schemas встраивает JSON-схемы событий брокера в бинарник.
package schemas

import "embed"

//go:embed events
var SchemasFS embed.FS
