package engine

import (
	"fmt"
	"strconv"

	"github.com/svcinit/systemctl/environment"
	"github.com/svcinit/systemctl/proctrack"
)

func environmentAssemble(chunks, files []string, mainPID string) ([]string, error) {
	return environment.Assemble(chunks, files, mainPID)
}

func pidAlive(pid int) (bool, error) {
	return proctrack.PidAlive(pid)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func wrapCommandError(raw string, err error) error {
	return fmt.Errorf("%w: %q: %v", ErrCommandFailed, raw, err)
}
