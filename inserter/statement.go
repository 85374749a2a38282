package inserter

import (
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

var builder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// TableIdentifier splits a possibly schema-qualified name ("public.users")
// into its parts.
func TableIdentifier(table string) pgx.Identifier {
	return pgx.Identifier(strings.Split(table, "."))
}

// BuildInsert returns a single-row parameterized INSERT for table and
// columns, e.g. INSERT INTO "public"."users" ("id","name") VALUES ($1,$2).
// Identifiers are quoted, values are always bound positionally.
func BuildInsert(table string, columns []string) (string, error) {
	const op = "inserter.BuildInsert"

	if err := validateTable(table); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := validateColumns(columns); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}

	query, _, err := builder.
		Insert(TableIdentifier(table).Sanitize()).
		Columns(quoted...).
		Values(make([]any, len(columns))...).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("%s: build: %w", op, err)
	}

	return query, nil
}
