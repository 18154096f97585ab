package main

import (
	"os"
	"os/exec"
)

// cmdExternalPassthrough shells out to an external collaborator binary
// spec.md §6.3 names as out of scope for in-process implementation
// ("research run", "codex validate"): a one-shot runner and a
// validator manifest tool maintained outside this module.
type cmdExternalPassthrough struct {
	bin  string
	Args struct {
		Rest []string `positional-arg-name:"args"`
	} `positional-args:"true"`
}

func (c *cmdExternalPassthrough) Execute(args []string) error {
	cmd := exec.Command(c.bin, append(c.Args.Rest, args...)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return fail(exitErr.ExitCode(), "%s exited with an error", c.bin)
		}
		return fail(2, "running %s: %w", c.bin, err)
	}
	return nil
}
