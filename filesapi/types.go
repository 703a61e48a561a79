// Package filesapi is the client for the pending-files REST service: listing
// files awaiting processing, fetching their prompt payloads, and reporting
// completion status back.
package filesapi

// File status values understood by the files service.
const (
	StatusPending     = "Pending"
	StatusAlreadyCopy = "AlreadyCopy"
	StatusFailed      = "Failed"
)

// FileRecord is one entry in the files listing.
type FileRecord struct {
	ID               string `json:"id"`
	OriginalFilename string `json:"originalFilename"`
	SecureURL        string `json:"secureUrl"`
	Status           string `json:"status"`
}

// StatusUpdate is the body of a status PUT.
type StatusUpdate struct {
	Status             string `json:"status"`
	CompletedTimestamp int64  `json:"completedTimestamp"` // epoch milliseconds
}
