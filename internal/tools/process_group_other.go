//go:build !unix

package tools

import "os/exec"

func configureCommandForCancellation(cmd *exec.Cmd) {}

func killCommandProcessGroup(cmd *exec.Cmd) error {
	return nil
}
