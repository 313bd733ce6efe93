package repo

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// isDupKey matches unique violations across drivers without relying on
// gorm's TranslateError.
func isDupKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation") ||
		strings.Contains(msg, "e11000")
}
