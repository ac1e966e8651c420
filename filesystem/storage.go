package filesystem

import (
	"github.com/shirou/gopsutil/v4/disk"
)

type DiskUsage struct {
	Path       string `json:"path"`
	Filesystem string `json:"filesystem"`
	SizeInKb   uint64 `json:"size"`
	Used       uint64 `json:"used"`
	Available  uint64 `json:"available"`
	UsePercent uint8  `json:"use_percent"`
}

// UsageOf reports the usage of the filesystem path lives on.
func UsageOf(path string) (DiskUsage, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return DiskUsage{}, err
	}

	return DiskUsage{
		Path:       path,
		Filesystem: usage.Fstype,
		SizeInKb:   usage.Total / 1024,
		Used:       usage.Used / 1024,
		Available:  usage.Free / 1024,
		UsePercent: uint8(usage.UsedPercent),
	}, nil
}
