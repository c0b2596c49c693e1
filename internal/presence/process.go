package presence

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/process"
)

// ProcessTable answers whether a process with an exact name is running.
type ProcessTable interface {
	Running(ctx context.Context, name string) (bool, error)
}

// SystemProcesses queries the operating system's process table.
type SystemProcesses struct{}

func (SystemProcesses) Running(ctx context.Context, name string) (bool, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return false, fmt.Errorf("list processes: %w", err)
	}
	for _, p := range procs {
		// processes can exit between listing and inspection
		n, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		if n == name {
			return true, nil
		}
	}
	return false, nil
}
