package models

// ImportSummary counts what an archive import did.
type ImportSummary struct {
	TotalFiles int `json:"total_files"`
	Created    int `json:"created"`
	Folders    int `json:"folders"` // markers created for otherwise empty folders
	Updated    int `json:"updated"`
	Unchanged  int `json:"unchanged"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

// ImportError reports one archive entry that could not be imported.
type ImportError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// ImportResult is returned by the import endpoint.
type ImportResult struct {
	Summary ImportSummary `json:"summary"`
	Errors  []ImportError `json:"errors"`
	Records []Record      `json:"records"` // created or updated, in archive order
}
