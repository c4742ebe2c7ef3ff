// package repositories provides persistence layer implementations for the play log and playlist cache.
package repositories

import (
	"database/sql"
)

// nullable maps an empty string to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// text reads a nullable column back as a plain string.
func text(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}
