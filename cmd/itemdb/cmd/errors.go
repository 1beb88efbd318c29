package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	mdwerror "github.com/msto63/itemdb/foundation/core/error"
	"github.com/msto63/itemdb/internal/dberr"
)

// Exit codes. Domain codes map one to one; configuration errors use
// EX_CONFIG from sysexits.h.
const (
	ExitOK             = 0
	ExitFailure        = 1
	ExitNotFound       = 3
	ExitConstraint     = 4
	ExitOptimisticLock = 5
	ExitConnection     = 6
	ExitTransaction    = 7
	ExitDatabase       = 8
	ExitConfig         = 78
)

// ExitCode maps an error to the process exit code
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var configErr *dberr.ConfigError
	if errors.As(err, &configErr) {
		return ExitConfig
	}

	var domainErr *dberr.Error
	if !errors.As(err, &domainErr) {
		return ExitFailure
	}

	switch domainErr.Code() {
	case mdwerror.CodeDBNotFound:
		return ExitNotFound
	case mdwerror.CodeDBConstraint:
		return ExitConstraint
	case mdwerror.CodeDBOptimisticLock:
		return ExitOptimisticLock
	case mdwerror.CodeDBConnection:
		return ExitConnection
	case mdwerror.CodeDBTransaction:
		return ExitTransaction
	default:
		return ExitDatabase
	}
}

// printError writes domain errors in their JSON form and anything else as text
func printError(w io.Writer, err error) {
	var domainErr *dberr.Error
	if errors.As(err, &domainErr) {
		data, marshalErr := json.Marshal(domainErr)
		if marshalErr == nil {
			fmt.Fprintln(w, string(data))
			return
		}
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}
