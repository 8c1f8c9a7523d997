// assets/embed.go
//
// Files compiled into the binary.
//   - sql/*.sql: SQLite migrations, applied in lexical order by internal/store.

package assets

import (
	"embed"
	"io/fs"
	"sort"
)

//go:embed sql/*.sql
var FS embed.FS

// Migrations returns the migration file names under sql/, sorted.
func Migrations() ([]string, error) {
	names, err := fs.Glob(FS, "sql/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}
