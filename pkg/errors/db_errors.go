package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// DatabaseErrorType classifies a job-store error.
type DatabaseErrorType int

const (
	// ErrorTypeUnknown represents an unclassified database error.
	ErrorTypeUnknown DatabaseErrorType = iota
	// ErrorTypeDuplicateKey represents a duplicate key violation (MySQL 1062),
	// e.g. re-inserting a job id.
	ErrorTypeDuplicateKey
	// ErrorTypeNotFound represents a record not found error.
	ErrorTypeNotFound
	// ErrorTypeDeadlock represents a lock deadlock (MySQL 1213), seen when the
	// dispatch loop and enqueue contend on the jobs table.
	ErrorTypeDeadlock
	// ErrorTypeDataTooLong represents a data too long error (MySQL 1406),
	// typically an oversized message payload.
	ErrorTypeDataTooLong
	// ErrorTypeConnection represents a database connection failure.
	ErrorTypeConnection
)

// DatabaseError wraps a job-store error with its classification.
type DatabaseError struct {
	Type        DatabaseErrorType
	MySQLCode   uint16
	Message     string
	OriginalErr error
}

// Error implements the error interface.
func (e *DatabaseError) Error() string {
	if e.MySQLCode > 0 {
		return fmt.Sprintf("%s (MySQL error %d): %v", e.Message, e.MySQLCode, e.OriginalErr)
	}
	return fmt.Sprintf("%s: %v", e.Message, e.OriginalErr)
}

// Unwrap returns the underlying error for errors.Is / errors.As.
func (e *DatabaseError) Unwrap() error {
	return e.OriginalErr
}

// ClassifyDBError classifies a GORM or MySQL error into a DatabaseError.
// Returns nil for a nil input.
func ClassifyDBError(err error) *DatabaseError {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &DatabaseError{Type: ErrorTypeNotFound, Message: "record not found", OriginalErr: err}
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1062: // ER_DUP_ENTRY
			return &DatabaseError{Type: ErrorTypeDuplicateKey, MySQLCode: mysqlErr.Number, Message: "duplicate key", OriginalErr: err}
		case 1213: // ER_LOCK_DEADLOCK
			return &DatabaseError{Type: ErrorTypeDeadlock, MySQLCode: mysqlErr.Number, Message: "deadlock detected", OriginalErr: err}
		case 1406: // ER_DATA_TOO_LONG
			return &DatabaseError{Type: ErrorTypeDataTooLong, MySQLCode: mysqlErr.Number, Message: "data too long for column", OriginalErr: err}
		default:
			return &DatabaseError{Type: ErrorTypeUnknown, MySQLCode: mysqlErr.Number, Message: "MySQL error", OriginalErr: err}
		}
	}

	if isConnectionError(err.Error()) {
		return &DatabaseError{Type: ErrorTypeConnection, Message: "database connection error", OriginalErr: err}
	}

	return &DatabaseError{Type: ErrorTypeUnknown, Message: "unknown database error", OriginalErr: err}
}

func isConnectionError(msg string) bool {
	msg = strings.ToLower(msg)
	for _, keyword := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"no such host",
		"timeout",
		"dial tcp",
	} {
		if strings.Contains(msg, keyword) {
			return true
		}
	}
	return false
}

// IsDuplicateKeyError reports whether err is a duplicate key violation.
func IsDuplicateKeyError(err error) bool {
	dbErr := ClassifyDBError(err)
	return dbErr != nil && dbErr.Type == ErrorTypeDuplicateKey
}

// IsNotFoundError reports whether err is a record not found error.
func IsNotFoundError(err error) bool {
	dbErr := ClassifyDBError(err)
	return dbErr != nil && dbErr.Type == ErrorTypeNotFound
}

// IsDeadlockError reports whether err is a lock deadlock, the one DB error
// the dispatch loop treats as safe to retry on the next tick.
func IsDeadlockError(err error) bool {
	dbErr := ClassifyDBError(err)
	return dbErr != nil && dbErr.Type == ErrorTypeDeadlock
}
