package core

import "fmt"

// Byte size constants for human-readable formatting.
// Binary units (1024 base), displayed with the familiar KB/MB/GB labels.
const (
	BytesPerKB int64 = 1024
	BytesPerMB int64 = 1024 * BytesPerKB
	BytesPerGB int64 = 1024 * BytesPerMB
)

// FormatBytes converts a byte count to a human-readable string.
// Negative values are treated as 0.
//
//	FormatBytes(512)     // "512 B"
//	FormatBytes(1536)    // "1.50 KB"
//	FormatBytes(1048576) // "1.00 MB"
func FormatBytes(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}

	switch {
	case bytes >= BytesPerGB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(BytesPerGB))
	case bytes >= BytesPerMB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(BytesPerMB))
	case bytes >= BytesPerKB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(BytesPerKB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
