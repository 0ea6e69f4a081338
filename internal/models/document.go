package models

import "time"

// Source is the Firestore record of an indexed source PDF.
// It lets assemblies refer to uploads by hash and skips duplicates.
type Source struct {
	FileHash         string    `firestore:"fileHash,omitempty"`
	OriginalFilename string    `firestore:"originalFilename,omitempty"`
	GCSUri           string    `firestore:"gcsUri,omitempty"`
	Status           string    `firestore:"status,omitempty"`
	ErrorDetails     string    `firestore:"errorDetails,omitempty"`
	PageCount        int       `firestore:"pageCount,omitempty"`
	CreatedAt        time.Time `firestore:"createdAt,omitempty"`
}

// Assembly tracks one page-assembly job from request to merged output.
type Assembly struct {
	Status       string    `firestore:"status,omitempty"`
	ErrorDetails string    `firestore:"errorDetails,omitempty"`
	SourceCount  int       `firestore:"sourceCount,omitempty"`
	PageCount    int       `firestore:"pageCount,omitempty"`
	EditCount    int       `firestore:"editCount,omitempty"`
	OutputGCSUri string    `firestore:"outputGcsUri,omitempty"`
	ExecutionID  string    `firestore:"executionId,omitempty"` // For traceability
	CreatedAt    time.Time `firestore:"createdAt,omitempty"`
}
