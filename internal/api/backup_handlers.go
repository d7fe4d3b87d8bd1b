package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readtrack/readtrack-server/internal/backup"
	domainerrors "github.com/readtrack/readtrack-server/internal/errors"
)

func (s *Server) registerBackupRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createBackup",
		Method:        http.MethodPost,
		Path:          "/api/v1/backups",
		Summary:       "Create backup",
		Description:   "Writes books, sessions, goals and settings to a zip archive. Kindle credentials are never included.",
		Tags:          []string{"Backups"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateBackup)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBackups",
		Method:      http.MethodGet,
		Path:        "/api/v1/backups",
		Summary:     "List backups",
		Description: "Lists backup archives, newest first",
		Tags:        []string{"Backups"},
	}, s.handleListBackups)

	huma.Register(s.api, huma.Operation{
		OperationID: "validateBackup",
		Method:      http.MethodGet,
		Path:        "/api/v1/backups/{id}/validate",
		Summary:     "Validate backup",
		Tags:        []string{"Backups"},
	}, s.handleValidateBackup)

	huma.Register(s.api, huma.Operation{
		OperationID: "restoreBackup",
		Method:      http.MethodPost,
		Path:        "/api/v1/backups/{id}/restore",
		Summary:     "Restore backup",
		Description: "Restores in full or merge mode; dry_run reports counts without writing",
		Tags:        []string{"Backups"},
	}, s.handleRestoreBackup)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteBackup",
		Method:        http.MethodDelete,
		Path:          "/api/v1/backups/{id}",
		Summary:       "Delete backup",
		Tags:          []string{"Backups"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteBackup)
}

// === DTOs ===

// CreateBackupRequest is the request body for creating a backup.
type CreateBackupRequest struct {
	IncludeKindleHistory bool `json:"include_kindle_history,omitempty" doc:"Include Kindle snapshots and sync logs"`
}

// CreateBackupInput wraps the create backup request for Huma.
type CreateBackupInput struct {
	Body CreateBackupRequest
}

// BackupOutput wraps a backup result for Huma.
type BackupOutput struct {
	Body *backup.BackupResult
}

// BackupsResponse contains backup archives.
type BackupsResponse struct {
	Backups []backup.BackupInfo `json:"backups"`
}

// BackupsOutput wraps the backup list for Huma.
type BackupsOutput struct {
	Body BackupsResponse
}

// BackupIDInput identifies a backup.
type BackupIDInput struct {
	ID string `path:"id" doc:"Backup ID"`
}

// ValidateBackupOutput wraps a validation result for Huma.
type ValidateBackupOutput struct {
	Body *backup.ValidationResult
}

// RestoreBackupRequest is the request body for a restore.
type RestoreBackupRequest struct {
	Mode          backup.RestoreMode   `json:"mode" enum:"full,merge"`
	MergeStrategy backup.MergeStrategy `json:"merge_strategy,omitempty" enum:"keep_local,keep_backup,newest"`
	DryRun        bool                 `json:"dry_run,omitempty"`
}

// RestoreBackupInput wraps the restore request for Huma.
type RestoreBackupInput struct {
	ID   string `path:"id" doc:"Backup ID"`
	Body RestoreBackupRequest
}

// RestoreBackupOutput wraps a restore result for Huma.
type RestoreBackupOutput struct {
	Body *backup.RestoreResult
}

// === Handlers ===

func (s *Server) handleCreateBackup(ctx context.Context, input *CreateBackupInput) (*BackupOutput, error) {
	result, err := s.services.Backup.Create(ctx, backup.BackupOptions{
		IncludeKindleHistory: input.Body.IncludeKindleHistory,
	})
	if err != nil {
		return nil, err
	}
	return &BackupOutput{Body: result}, nil
}

func (s *Server) handleListBackups(ctx context.Context, _ *struct{}) (*BackupsOutput, error) {
	backups, err := s.services.Backup.List(ctx)
	if err != nil {
		return nil, err
	}
	if backups == nil {
		backups = []backup.BackupInfo{}
	}
	return &BackupsOutput{Body: BackupsResponse{Backups: backups}}, nil
}

func (s *Server) handleValidateBackup(ctx context.Context, input *BackupIDInput) (*ValidateBackupOutput, error) {
	info, err := s.services.Backup.Get(ctx, input.ID)
	if err != nil {
		return nil, backupError(err, input.ID)
	}
	result, err := s.services.Restore.Validate(ctx, info.Path)
	if err != nil {
		return nil, err
	}
	return &ValidateBackupOutput{Body: result}, nil
}

func (s *Server) handleRestoreBackup(ctx context.Context, input *RestoreBackupInput) (*RestoreBackupOutput, error) {
	info, err := s.services.Backup.Get(ctx, input.ID)
	if err != nil {
		return nil, backupError(err, input.ID)
	}
	result, err := s.services.Restore.Restore(ctx, info.Path, backup.RestoreOptions{
		Mode:          input.Body.Mode,
		MergeStrategy: input.Body.MergeStrategy,
		DryRun:        input.Body.DryRun,
	})
	if err != nil {
		return nil, backupError(err, input.ID)
	}
	return &RestoreBackupOutput{Body: result}, nil
}

func (s *Server) handleDeleteBackup(ctx context.Context, input *BackupIDInput) (*struct{}, error) {
	if err := s.services.Backup.Delete(ctx, input.ID); err != nil {
		return nil, backupError(err, input.ID)
	}
	return nil, nil
}

// backupError maps backup sentinels onto coded errors.
func backupError(err error, id string) error {
	switch {
	case errors.Is(err, backup.ErrBackupNotFound):
		return domainerrors.NotFoundf("backup %s not found", id)
	case errors.Is(err, backup.ErrInvalidManifest), errors.Is(err, backup.ErrVersionMismatch):
		return domainerrors.Wrap(err, domainerrors.CodeValidation, "backup cannot be restored")
	default:
		return err
	}
}
