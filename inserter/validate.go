package inserter

import "fmt"

// Validate checks the preconditions of an insert in order: table name,
// column list, batch size, then the width of every row. It never touches a
// connection. The returned error is a *ValidationError.
func Validate(table string, columns []string, rows [][]any, batchSize int) error {
	if err := validateTable(table); err != nil {
		return err
	}
	if err := validateColumns(columns); err != nil {
		return err
	}
	if batchSize <= 0 {
		return &ValidationError{
			Check: CheckBatchSize,
			Row:   -1,
			Err:   fmt.Errorf("%w: got %d", ErrInvalidBatchSize, batchSize),
		}
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return &ValidationError{
				Check: CheckRows,
				Row:   i,
				Err:   fmt.Errorf("%w: got %d values, want %d", ErrRowWidth, len(row), len(columns)),
			}
		}
	}
	return nil
}

func validateTable(table string) error {
	if table == "" {
		return &ValidationError{Check: CheckTable, Row: -1, Err: ErrEmptyTable}
	}
	for _, part := range TableIdentifier(table) {
		if part == "" {
			return &ValidationError{
				Check: CheckTable,
				Row:   -1,
				Err:   fmt.Errorf("%w: empty part in %q", ErrEmptyTable, table),
			}
		}
	}
	return nil
}

func validateColumns(columns []string) error {
	if len(columns) == 0 {
		return &ValidationError{Check: CheckColumns, Row: -1, Err: ErrNoColumns}
	}

	seen := make(map[string]struct{}, len(columns))
	for i, c := range columns {
		if c == "" {
			return &ValidationError{
				Check: CheckColumns,
				Row:   -1,
				Err:   fmt.Errorf("%w: position %d", ErrEmptyColumn, i),
			}
		}
		if _, ok := seen[c]; ok {
			return &ValidationError{
				Check: CheckColumns,
				Row:   -1,
				Err:   fmt.Errorf("%w: %q", ErrDuplicateColumn, c),
			}
		}
		seen[c] = struct{}{}
	}
	return nil
}
