package core

import (
	"os"

	"github.com/dustin/go-humanize"
)

// FormatSize renders a byte count with binary units, e.g. "1.5 GiB".
func FormatSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

// TotalSize sums the sizes of files, skipping any that cannot be stat'ed.
func TotalSize(files []string) int64 {
	var total int64
	for _, f := range files {
		fi, err := os.Stat(f)
		if err != nil {
			continue
		}
		total += fi.Size()
	}
	return total
}
