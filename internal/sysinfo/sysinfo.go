// Package sysinfo reports process/host resource usage for INFO. Grounded
// on go-server-2's collectMetrics (process.NewProcess(os.Getpid()) +
// proc.MemoryInfo().RSS, falling back to mem.VirtualMemory() system-wide
// when the process handle can't be obtained).
package sysinfo

import (
	"os"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Snapshot is a point-in-time read of process/host memory usage, the
// fields INFO's "# Memory" section reports.
type Snapshot struct {
	UsedMemoryBytes uint64
	TotalMemoryBytes uint64
}

// Collect samples the current process's RSS, falling back to system-wide
// used memory if the process handle is unavailable (e.g. unsupported
// platform).
func Collect() Snapshot {
	var snap Snapshot
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mi, err := proc.MemoryInfo(); err == nil {
			snap.UsedMemoryBytes = mi.RSS
		}
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		snap.TotalMemoryBytes = vm.Total
		if snap.UsedMemoryBytes == 0 {
			snap.UsedMemoryBytes = vm.Used
		}
	}
	return snap
}
