// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ExitError requests a specific process exit code with no extra
// output. Commands return it when a non-zero exit is an expected
// result they have already reported themselves, the way "store
// verify" prints one line per path and exits 1 when any failed. main
// looks for the ExitCode method and skips the usual "error:" line.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the code the process should exit with.
func (e *ExitError) ExitCode() int {
	return e.Code
}
