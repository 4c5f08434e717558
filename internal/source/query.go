package source

import "strconv"

// SelectAll builds the whole-table read for an already quoted identifier.
// maxRows <= 0 leaves the read unbounded.
func SelectAll(quoted string, maxRows int) string {
	query := "SELECT * FROM " + quoted
	if maxRows > 0 {
		query += " LIMIT " + strconv.Itoa(maxRows)
	}
	return query
}
