package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"codefolio/internal/config"
	"codefolio/internal/domain"
	"codefolio/internal/domain/models"
	"codefolio/internal/domain/repositories"
	"codefolio/internal/domain/services"
	"codefolio/internal/realtime"
	"codefolio/internal/storage"
	"codefolio/internal/vfs"
)

// recordService implements services.RecordService
type recordService struct {
	records   repositories.RecordRepository
	txManager repositories.TransactionManager
	planner   *vfs.Planner
	assets    storage.AssetStore // nil disables uploads
	publisher realtime.Publisher
	ownerID   int64
	logger    *slog.Logger
}

// NewRecordService creates a new record service
func NewRecordService(
	records repositories.RecordRepository,
	txManager repositories.TransactionManager,
	planner *vfs.Planner,
	assets storage.AssetStore,
	publisher realtime.Publisher,
	ownerID int64,
	logger *slog.Logger,
) services.RecordService {
	return &recordService{
		records:   records,
		txManager: txManager,
		planner:   planner,
		assets:    assets,
		publisher: publisher,
		ownerID:   ownerID,
		logger:    logger,
	}
}

// applied is the committed outcome of one plan
type applied struct {
	created []models.Record
	updated []models.Record
	deleted []models.Record
	reclaim []string
}

// planFunc computes a plan against the snapshot read inside the transaction
type planFunc func(s *vfs.Snapshot) (*vfs.Plan, error)

// ListRecords returns every record ordered by name
func (s *recordService) ListRecords(ctx context.Context) ([]models.Record, error) {
	records, err := s.records.ListByOwner(ctx, s.ownerID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// GetRecord retrieves one record
func (s *recordService) GetRecord(ctx context.Context, id int64) (*models.Record, error) {
	rec, err := s.records.GetByID(ctx, id, s.ownerID)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetTree builds the folder tree from the current records
func (s *recordService) GetTree(ctx context.Context) ([]*models.TreeNode, error) {
	records, err := s.ListRecords(ctx)
	if err != nil {
		return nil, err
	}
	return vfs.BuildTree(records), nil
}

// CreateRecord creates a text record, or a folder for a marker name
func (s *recordService) CreateRecord(ctx context.Context, req *models.CreateRecordRequest) (*models.Record, error) {
	name := vfs.CleanName(req.Name)
	if err := validateCreateRecordRequest(&models.CreateRecordRequest{Name: name, Content: req.Content}); err != nil {
		return nil, err
	}
	if vfs.IsFolderMarker(name) {
		return s.CreateFolder(ctx, &models.CreateFolderRequest{Path: vfs.FolderPathOf(name)})
	}

	result, err := s.mutate(ctx, func(snap *vfs.Snapshot) (*vfs.Plan, error) {
		return s.planner.CreateFile(snap, name, req.Content)
	})
	if err != nil {
		return nil, err
	}

	rec := result.created[0]
	s.logger.Info("record created",
		"id", rec.ID,
		"name", rec.Name,
		"language", rec.Language,
	)
	return &rec, nil
}

// CreateFolder creates a folder marker and returns it
func (s *recordService) CreateFolder(ctx context.Context, req *models.CreateFolderRequest) (*models.Record, error) {
	if err := validateCreateFolderRequest(&models.CreateFolderRequest{Path: vfs.CleanName(req.Path)}); err != nil {
		return nil, err
	}

	result, err := s.mutate(ctx, func(snap *vfs.Snapshot) (*vfs.Plan, error) {
		return s.planner.CreateFolder(snap, req.Path)
	})
	if err != nil {
		return nil, err
	}

	marker := result.created[0]
	s.logger.Info("folder created",
		"id", marker.ID,
		"path", vfs.FolderPathOf(marker.Name),
	)
	return &marker, nil
}

// Upload stores body and records a reference to it. The asset is saved
// before the transaction; if the record cannot be committed, the asset is
// deleted again.
func (s *recordService) Upload(ctx context.Context, req *models.UploadRequest, body io.Reader) (*models.Record, error) {
	if s.assets == nil {
		return nil, &domain.ValidationError{Message: "uploads are not configured"}
	}

	// Reject bad names before storing anything
	records, err := s.records.ListByOwner(ctx, s.ownerID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	if _, err := s.planner.Upload(vfs.NewSnapshot(records), req.Folder, req.Filename, s.assets.URLPrefix()); err != nil {
		return nil, err
	}

	ctx = context.WithoutCancel(ctx)
	ref, err := s.assets.Save(ctx, req.Filename, body, req.Size)
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	result, err := s.mutate(ctx, func(snap *vfs.Snapshot) (*vfs.Plan, error) {
		return s.planner.Upload(snap, req.Folder, req.Filename, ref)
	})
	if err != nil {
		s.release(ctx, []string{ref})
		return nil, err
	}

	rec := result.created[0]
	s.logger.Info("asset uploaded",
		"id", rec.ID,
		"name", rec.Name,
		"language", rec.Language,
		"size", req.Size,
	)
	return &rec, nil
}

// UpdateRecord edits content and/or renames one record. An update that
// changes nothing returns the record without writing or broadcasting.
func (s *recordService) UpdateRecord(ctx context.Context, id int64, req *models.UpdateRecordRequest) (*models.Record, error) {
	if err := validateUpdateRecordRequest(req); err != nil {
		return nil, err
	}

	var current models.Record
	result, err := s.mutate(ctx, func(snap *vfs.Snapshot) (*vfs.Plan, error) {
		current, _ = snap.Get(id)
		return s.planner.UpdateFile(snap, id, req.Name, req.Content)
	})
	if err != nil {
		return nil, err
	}

	if len(result.updated) == 0 {
		return &current, nil
	}

	rec := result.updated[0]
	s.logger.Info("record updated",
		"id", rec.ID,
		"name", rec.Name,
		"renamed", rec.Name != current.Name,
		"content_changed", req.Content != nil,
	)
	return &rec, nil
}

// DeleteRecord removes one record
func (s *recordService) DeleteRecord(ctx context.Context, id int64) (*models.DeletedRecord, error) {
	result, err := s.mutate(ctx, func(snap *vfs.Snapshot) (*vfs.Plan, error) {
		return s.planner.DeleteFile(snap, id)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("record deleted",
		"id", id,
		"name", result.deleted[0].Name,
	)
	return &models.DeletedRecord{ID: id}, nil
}

// RenameFolder moves every record under a folder, markers last
func (s *recordService) RenameFolder(ctx context.Context, req *models.RenameFolderRequest) (*models.FolderRenameResult, error) {
	cleaned := &models.RenameFolderRequest{Path: vfs.CleanName(req.Path), NewPath: vfs.CleanName(req.NewPath)}
	if err := validateRenameFolderRequest(cleaned); err != nil {
		return nil, err
	}

	result, err := s.mutate(ctx, func(snap *vfs.Snapshot) (*vfs.Plan, error) {
		return s.planner.RenameFolder(snap, req.Path, req.NewPath)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("folder renamed",
		"path", req.Path,
		"new_path", req.NewPath,
		"records", len(result.updated),
	)
	return &models.FolderRenameResult{
		Path:    vfs.CleanName(req.Path),
		NewPath: vfs.CleanName(req.NewPath),
		Records: result.updated,
	}, nil
}

// DeleteFolder removes every record under a folder, markers last
func (s *recordService) DeleteFolder(ctx context.Context, path string) (*models.FolderDeleteResult, error) {
	result, err := s.mutate(ctx, func(snap *vfs.Snapshot) (*vfs.Plan, error) {
		return s.planner.DeleteFolder(snap, path)
	})
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(result.deleted))
	for _, rec := range result.deleted {
		ids = append(ids, rec.ID)
	}

	s.logger.Info("folder deleted",
		"path", path,
		"records", len(ids),
		"assets", len(result.reclaim),
	)
	return &models.FolderDeleteResult{Path: vfs.CleanName(path), Deleted: ids}, nil
}

// mutate reads a snapshot, plans and writes inside one transaction, then
// broadcasts and releases assets. The write is detached from request
// cancellation: once submitted it runs to completion.
func (s *recordService) mutate(ctx context.Context, plan planFunc) (*applied, error) {
	ctx = context.WithoutCancel(ctx)
	result := &applied{}

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		records, err := s.records.ListByOwner(txCtx, s.ownerID)
		if err != nil {
			return fmt.Errorf("read snapshot: %w", err)
		}

		p, err := plan(vfs.NewSnapshot(records))
		if err != nil {
			return err
		}

		for _, rec := range p.Creates {
			rec.OwnerID = s.ownerID
			if err := s.records.Create(txCtx, &rec); err != nil {
				return fmt.Errorf("create %q: %w", rec.Name, err)
			}
			result.created = append(result.created, rec)
		}
		for _, rec := range p.Updates {
			rec.OwnerID = s.ownerID
			if err := s.records.Update(txCtx, &rec); err != nil {
				return fmt.Errorf("update %q: %w", rec.Name, err)
			}
			result.updated = append(result.updated, rec)
		}
		for _, rec := range p.Deletes {
			if err := s.records.Delete(txCtx, rec.ID, s.ownerID); err != nil {
				return fmt.Errorf("delete %q: %w", rec.Name, err)
			}
			result.deleted = append(result.deleted, rec)
		}
		result.reclaim = p.Reclaim
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(result)
	s.release(ctx, result.reclaim)
	return result, nil
}

// broadcast publishes one event per changed record
func (s *recordService) broadcast(result *applied) {
	events := make([]models.ChangeEvent, 0, len(result.created)+len(result.updated)+len(result.deleted))
	for _, rec := range result.created {
		events = append(events, models.RecordCreated(rec))
	}
	for _, rec := range result.updated {
		events = append(events, models.RecordUpdated(rec))
	}
	for _, rec := range result.deleted {
		events = append(events, models.RecordDeleted(rec.ID))
	}
	if len(events) > 0 {
		s.publisher.Publish(events...)
	}
}

// release deletes assets no record references anymore. Failures are logged.
func (s *recordService) release(ctx context.Context, refs []string) {
	if s.assets == nil {
		return
	}
	for _, ref := range refs {
		if !storage.Owns(s.assets, ref) {
			continue
		}

		users, err := s.records.ListContentWithPrefix(ctx, ref)
		if err != nil {
			s.logger.Warn("asset reclaim skipped", "ref", ref, "error", err)
			continue
		}
		if referenced(users, ref) {
			s.logger.Debug("asset still referenced, kept", "ref", ref)
			continue
		}

		if err := s.assets.Delete(ctx, ref); err != nil {
			s.logger.Warn("asset reclaim failed", "ref", ref, "error", err)
			continue
		}
		s.logger.Debug("asset reclaimed", "ref", ref)
	}
}

func referenced(contents []string, ref string) bool {
	for _, c := range contents {
		if c == ref {
			return true
		}
	}
	return false
}

// pathRules bounds a full record or folder path. The path grammar itself is
// checked by the vfs package.
func pathRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.Length(1, config.MaxRecordNameLength),
	}
}

// validateCreateRecordRequest validates a create record request
func validateCreateRecordRequest(req *models.CreateRecordRequest) error {
	return invalidRequest(req.Name, validation.ValidateStruct(req,
		validation.Field(&req.Name, pathRules()...),
	))
}

// validateCreateFolderRequest validates a create folder request
func validateCreateFolderRequest(req *models.CreateFolderRequest) error {
	return invalidRequest(req.Path, validation.ValidateStruct(req,
		validation.Field(&req.Path, pathRules()...),
	))
}

// validateUpdateRecordRequest validates a rename, when one is requested
func validateUpdateRecordRequest(req *models.UpdateRecordRequest) error {
	if req.Name == nil {
		return nil
	}
	name := vfs.CleanName(*req.Name)
	cleaned := &models.UpdateRecordRequest{Name: &name, Content: req.Content}
	return invalidRequest(name, validation.ValidateStruct(cleaned,
		validation.Field(&cleaned.Name,
			validation.NilOrNotEmpty,
			validation.Length(1, config.MaxRecordNameLength),
		),
	))
}

// validateRenameFolderRequest validates a rename folder request
func validateRenameFolderRequest(req *models.RenameFolderRequest) error {
	return invalidRequest(req.NewPath, validation.ValidateStruct(req,
		validation.Field(&req.Path, pathRules()...),
		validation.Field(&req.NewPath, pathRules()...),
	))
}

// invalidRequest reports request rule failures as invalid names
func invalidRequest(name string, err error) error {
	if err == nil {
		return nil
	}
	return &domain.InvalidNameError{Name: name, Reason: err.Error()}
}
