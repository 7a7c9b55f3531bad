package models

import "time"

// Record is one stored file or folder marker. Name is a slash-delimited path,
// unique per owner ignoring case.
type Record struct {
	ID        int64     `json:"id" db:"id"`
	OwnerID   int64     `json:"-" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Content   string    `json:"content" db:"content"`
	Language  string    `json:"language" db:"language"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CreateRecordRequest is the JSON body for creating a text record.
type CreateRecordRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// UpdateRecordRequest carries a content edit, a rename, or both.
// Nil fields are left unchanged.
type UpdateRecordRequest struct {
	Name    *string `json:"name,omitempty"`
	Content *string `json:"content,omitempty"`
}

// UploadRequest describes a stored binary asset to be recorded under Folder.
type UploadRequest struct {
	Folder   string // destination folder path, empty for the root
	Filename string // original client filename
	Size     int64
}

// CreateFolderRequest is the JSON body for creating a folder.
type CreateFolderRequest struct {
	Path string `json:"path"`
}

// RenameFolderRequest is the JSON body for renaming or moving a folder.
type RenameFolderRequest struct {
	Path    string `json:"path"`
	NewPath string `json:"new_path"`
}

// DeletedRecord is returned by delete endpoints.
type DeletedRecord struct {
	ID int64 `json:"id"`
}

// FolderDeleteResult lists the records removed by a folder delete.
type FolderDeleteResult struct {
	Path    string  `json:"path"`
	Deleted []int64 `json:"deleted"`
}

// FolderRenameResult lists the records rewritten by a folder rename.
type FolderRenameResult struct {
	Path    string   `json:"path"`
	NewPath string   `json:"new_path"`
	Records []Record `json:"records"`
}
