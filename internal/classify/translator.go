package classify

import (
	"fmt"

	"github.com/msto63/itemdb/internal/dberr"
)

// Result is what a backend translator recognized in a raw failure
type Result struct {
	Kind    dberr.Kind
	Details dberr.Details
}

// Translator recognizes the failures of one storage backend family.
// Classify returns false for errors the backend does not own.
type Translator interface {
	Name() string
	Classify(raw error) (Result, bool)
}

// ErrorType returns the dynamic type name of a raw failure
func ErrorType(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%T", err)
}

func constraintResult(name string, details dberr.Details) Result {
	if name == "" {
		name = dberr.UnknownConstraint
	}
	details["constraint"] = name
	return Result{Kind: dberr.KindConstraint, Details: details}
}
