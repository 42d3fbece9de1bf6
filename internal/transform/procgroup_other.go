//go:build !unix

package transform

import "os/exec"

// killProcessGroup leaves the default cancellation in place: only the
// direct child is killed. Pipes held by its descendants are still closed
// after killGrace.
func killProcessGroup(cmd *exec.Cmd) {}
