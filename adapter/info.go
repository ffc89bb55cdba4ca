package adapter

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// DatabaseInfo summarizes one database for the --info output.
type DatabaseInfo struct {
	Host         string
	DatabaseName string
	TableCount   int
	TotalSize    int64 // in bytes
}

func (i DatabaseInfo) String() string {
	return fmt.Sprintf("%s, Database: %s, Tables: %d, Size: %s",
		i.Host, i.DatabaseName, i.TableCount, formatSize(i.TotalSize))
}

func formatSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}
