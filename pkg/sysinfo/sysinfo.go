package sysinfo

import (
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemInfo describes the host a check run or the service executes on.
type SystemInfo struct {
	OS           string  `json:"os"`
	Architecture string  `json:"architecture"`
	CPUModel     string  `json:"cpu_model"`
	CPUCores     int     `json:"cpu_cores"`
	CPUThreads   int     `json:"cpu_threads"`
	TotalMemory  uint64  `json:"total_memory"`
	GoVersion    string  `json:"go_version"`
	Hostname     string  `json:"hostname"`
	Platform     string  `json:"platform"`
	LoadAverage  float64 `json:"load_average"`
}

// Collect never fails on missing host data; unavailable fields stay zero.
func Collect() (*SystemInfo, error) {
	info := &SystemInfo{
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		GoVersion:    runtime.Version(),
		CPUCores:     runtime.NumCPU(),
		CPUThreads:   DefaultParallel(),
	}

	if cpuInfo, err := cpu.Info(); err == nil && len(cpuInfo) > 0 {
		info.CPUModel = strings.TrimSpace(cpuInfo[0].ModelName)
	}

	if memInfo, err := mem.VirtualMemory(); err == nil {
		info.TotalMemory = memInfo.Total
	}

	if hostInfo, err := host.Info(); err == nil {
		info.Hostname = hostInfo.Hostname
		info.Platform = hostInfo.Platform
	}

	if loadAvg, err := load.Avg(); err == nil {
		info.LoadAverage = loadAvg.Load1
	}

	return info, nil
}

// DefaultParallel is the number of logical CPUs, used as the default number
// of check workers.
func DefaultParallel() int {
	if threads, err := cpu.Counts(true); err == nil && threads > 0 {
		return threads
	}
	return runtime.NumCPU()
}
