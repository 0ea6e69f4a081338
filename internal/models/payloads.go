package models

// These structs define the JSON payloads accepted and returned by the
// page-assembler function.

// SourceRef names one source PDF in GCS.
type SourceRef struct {
	GCSUri   string `json:"gcsUri"`
	FileName string `json:"fileName"`
}

// Edit is one user action replayed against the workspace. Which fields
// are read depends on Op.
type Edit struct {
	Op      string `json:"op"`
	Index   int    `json:"index,omitempty"`
	Indices []int  `json:"indices,omitempty"`
	To      int    `json:"to,omitempty"`
}

// Metadata is embedded in the Info dictionary of the merged PDF.
type Metadata struct {
	Title    string `json:"title,omitempty"`
	Author   string `json:"author,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Keywords string `json:"keywords,omitempty"`
}

// AssembleRequest is the input for the page-assembler function.
type AssembleRequest struct {
	Sources     []SourceRef `json:"sources"`
	Edits       []Edit      `json:"edits"`
	Metadata    *Metadata   `json:"metadata,omitempty"`
	OutputName  string      `json:"outputName"`
	ExecutionID string      `json:"executionId"`
}

// AssembleResponse is the output of the page-assembler function.
type AssembleResponse struct {
	Status          string   `json:"status"`
	AssemblyID      string   `json:"assemblyId"`
	OutputGCSUri    string   `json:"outputGcsUri"`
	PageCount       int      `json:"pageCount"`
	FailedSources   []string `json:"failedSources,omitempty"`
	UndoDescription string   `json:"undoDescription,omitempty"`
	RedoDescription string   `json:"redoDescription,omitempty"`
}
