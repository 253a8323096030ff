package models

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Database  bool   `json:"database"`
	Notifier  string `json:"notifier"`
	Timestamp int64  `json:"timestamp"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// StatusResponse represents a generic status response
type StatusResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// SyncQueuedResponse is returned when a batch has been handed to the sync worker
type SyncQueuedResponse struct {
	Status   string   `json:"status"`
	Modified []string `json:"modified"`
	Removed  []string `json:"removed"`
}
