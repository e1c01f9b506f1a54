package files

import "time"

// File describes one uploaded source document.
type File struct {
	ID               int64     `json:"file_id"`
	StoredName       string    `json:"file_name"`
	OriginalFilename string    `json:"original_filename"`
	Size             int64     `json:"file_size"`
	Type             string    `json:"file_type"`
	UploadDate       time.Time `json:"upload_date"`
	Processed        bool      `json:"processed"`
	ProcessingErrors *string   `json:"processing_errors,omitempty"`
}
