package model

import "time"

// ImportStatus is the lifecycle state of an import run.
type ImportStatus string

const (
	ImportPending    ImportStatus = "pending"
	ImportProcessing ImportStatus = "processing"
	ImportCompleted  ImportStatus = "completed"
	ImportFailed     ImportStatus = "failed"
)

// FileType is the detected format of an uploaded spreadsheet.
type FileType string

const (
	FileCSV  FileType = "csv"
	FileXLSX FileType = "xlsx"
)

// BatchError describes a failed insert chunk.
type BatchError struct {
	Batch int    `json:"batch"`
	Error string `json:"error"`
}

// ImportHistory records one import run. It is written at start and
// finalized once on completion.
type ImportHistory struct {
	ID            string            `json:"id" db:"id"`
	OwnerID       string            `json:"owner_id" db:"owner_id"`
	Filename      string            `json:"filename" db:"filename"`
	FileType      FileType          `json:"file_type" db:"file_type"`
	RowCount      int               `json:"row_count" db:"row_count"`
	SuccessCount  int               `json:"success_count" db:"success_count"`
	ErrorCount    int               `json:"error_count" db:"error_count"`
	SkippedCount  int               `json:"skipped_count" db:"skipped_count"`
	ColumnMapping map[string]string `json:"column_mapping,omitempty" db:"column_mapping"`
	Errors        []BatchError      `json:"errors,omitempty" db:"errors"`
	Status        ImportStatus      `json:"status" db:"status"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty" db:"completed_at"`
}
