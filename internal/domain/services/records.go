package services

import (
	"context"
	"io"

	"codefolio/internal/domain/models"
)

// RecordService handles record and folder business logic for the single
// portfolio owner. Every mutation commits in one transaction and is then
// broadcast to observers.
type RecordService interface {
	// ListRecords returns every record ordered by name
	ListRecords(ctx context.Context) ([]models.Record, error)

	// GetRecord retrieves one record
	GetRecord(ctx context.Context, id int64) (*models.Record, error)

	// GetTree builds the folder tree from the current records
	GetTree(ctx context.Context) ([]*models.TreeNode, error)

	// CreateRecord creates a text record. A name ending in "/.folder"
	// creates that folder instead.
	CreateRecord(ctx context.Context, req *models.CreateRecordRequest) (*models.Record, error)

	// CreateFolder creates a folder marker and returns it
	CreateFolder(ctx context.Context, req *models.CreateFolderRequest) (*models.Record, error)

	// Upload stores body in the asset store and records a reference to it
	Upload(ctx context.Context, req *models.UploadRequest, body io.Reader) (*models.Record, error)

	// UpdateRecord edits content and/or renames one record
	UpdateRecord(ctx context.Context, id int64, req *models.UpdateRecordRequest) (*models.Record, error)

	// DeleteRecord removes one record
	DeleteRecord(ctx context.Context, id int64) (*models.DeletedRecord, error)

	// RenameFolder moves every record under a folder
	RenameFolder(ctx context.Context, req *models.RenameFolderRequest) (*models.FolderRenameResult, error)

	// ImportArchive loads the text files of a zip archive, creating new
	// records and updating the content of existing ones
	ImportArchive(ctx context.Context, archive io.Reader) (*models.ImportResult, error)

	// DeleteFolder removes every record under a folder
	DeleteFolder(ctx context.Context, path string) (*models.FolderDeleteResult, error)
}
