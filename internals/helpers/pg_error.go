// file: internals/helpers/pg_error.go
package helper

import "strings"

// IsDuplicateKey mendeteksi unique violation (SQLSTATE 23505) lintas driver.
// Sqlite (dipakai di test) melapor "UNIQUE constraint failed".
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "duplicate key") ||
		strings.Contains(s, "violates unique constraint") ||
		strings.Contains(s, "unique constraint") ||
		strings.Contains(s, "sqlstate 23505")
}
