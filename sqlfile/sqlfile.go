// Package sqlfile loads SQL scripts kept as <name>.sql files in one directory.
// Scripts may be text/template documents; quoteIdent quotes identifiers
// the same way the insert statement does.
package sqlfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"text/template"

	"github.com/wb-go/pgbulk/inserter"
)

const ext = ".sql"

// ErrNotFound is returned when the requested script does not exist.
var ErrNotFound = errors.New("SQL file not found")

// Loader reads scripts from a file system.
type Loader struct {
	fsys fs.FS
	dir  string
}

// New returns a Loader for the directory dir.
func New(dir string) *Loader {
	return &Loader{fsys: os.DirFS(dir), dir: dir}
}

// NewFS returns a Loader reading from fsys.
func NewFS(fsys fs.FS) *Loader {
	return &Loader{fsys: fsys, dir: "."}
}

// Load returns the content of the script name. The ".sql" suffix may be omitted.
func (l *Loader) Load(name string) (string, error) {
	const op = "sqlfile.Load"

	if !strings.HasSuffix(name, ext) {
		name += ext
	}

	data, err := fs.ReadFile(l.fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%s: %w: %s", op, ErrNotFound, path.Join(l.dir, name))
	}
	if err != nil {
		return "", fmt.Errorf("%s: %s: %w", op, name, err)
	}

	return string(data), nil
}

// Render loads the script name and executes it as a template with data.
func (l *Loader) Render(name string, data any) (string, error) {
	const op = "sqlfile.Render"

	src, err := l.Load(name)
	if err != nil {
		return "", err
	}

	tmpl, err := template.New(name).
		Option("missingkey=error").
		Funcs(template.FuncMap{"quoteIdent": quoteIdent}).
		Parse(src)
	if err != nil {
		return "", fmt.Errorf("%s: parse %s: %w", op, name, err)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("%s: execute %s: %w", op, name, err)
	}
	return sb.String(), nil
}

func quoteIdent(name string) string {
	return inserter.TableIdentifier(name).Sanitize()
}
