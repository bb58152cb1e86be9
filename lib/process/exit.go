// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ExitError carries a specific exit status out of run(). The message,
// if any, has already been reported.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string { return fmt.Sprintf("exit status %d", e.Code) }

// Fatal writes "error: err" to stderr and exits with code 1, or with
// the code of an *ExitError without printing. Use it in main() for
// errors from run() where the structured logger may not be initialized.
func Fatal(err error) {
	os.Exit(report(os.Stderr, err))
}

func report(w io.Writer, err error) int {
	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	fmt.Fprintf(w, "error: %v\n", err)
	return 1
}
