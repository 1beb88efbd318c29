package classify

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/msto63/itemdb/internal/dberr"
)

// MySQL server error numbers that signal an integrity violation
var mysqlConstraintNumbers = map[uint16]bool{
	1048: true, // column cannot be null
	1062: true, // duplicate entry
	1216: true, // no referenced parent row
	1217: true, // row is referenced
	1451: true, // row is referenced (foreign key)
	1452: true, // no referenced parent row (foreign key)
	3819: true, // check constraint violated
}

// MySQL server error numbers for a connection the server dropped
var mysqlConnectionNumbers = map[uint16]bool{
	1053: true, // server shutdown in progress
	1927: true, // connection killed
}

// MySQL translates go-sql-driver/mysql failures. The server does not report
// the violated constraint name, so the message is matched instead.
type MySQL struct{}

// Name returns "mysql"
func (MySQL) Name() string { return "mysql" }

// Classify recognizes *mysql.MySQLError and mysql.ErrInvalidConn
func (MySQL) Classify(raw error) (Result, bool) {
	if errors.Is(raw, mysql.ErrInvalidConn) {
		return Result{Kind: dberr.KindConnection, Details: dberr.Details{}}, true
	}

	var myErr *mysql.MySQLError
	if !errors.As(raw, &myErr) {
		return Result{}, false
	}

	details := dberr.Details{"mysql_error": int(myErr.Number)}
	if mysqlConstraintNumbers[myErr.Number] || strings.Contains(myErr.Message, "Duplicate entry") {
		return constraintResult(mysqlConstraintName(myErr.Message), details), true
	}
	if mysqlConnectionNumbers[myErr.Number] {
		return Result{Kind: dberr.KindConnection, Details: details}, true
	}
	return Result{Kind: dberr.KindTransaction, Details: details}, true
}

func mysqlConstraintName(message string) string {
	switch {
	case strings.Contains(message, "Duplicate entry"):
		return "UNIQUE"
	case strings.Contains(strings.ToLower(message), "foreign key constraint"):
		return "FOREIGN KEY"
	default:
		return dberr.UnknownConstraint
	}
}
