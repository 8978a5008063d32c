package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"strucplot/internal/config"
	"strucplot/internal/dataprocessing"
	"strucplot/internal/files"
)

// allowedExtensions are the workbook extensions accepted at upload.
// Legacy .xls passes the gate; files whose content the parser cannot
// open are rejected when the sheets are listed.
var allowedExtensions = map[string]bool{
	".xlsx": true,
	".xls":  true,
	".xlsm": true,
	".xltx": true,
}

// UploadMeta is the sidecar record written next to every stored workbook.
type UploadMeta struct {
	FileID       string    `json:"file_id"`
	OriginalName string    `json:"original_name"`
	StoredName   string    `json:"stored_name"`
	SizeBytes    int64     `json:"size_bytes"`
	UploadedAt   time.Time `json:"uploaded_at"`
	Sheets       []string  `json:"sheets"`
}

// UploadResult is returned to the client after a successful upload.
type UploadResult struct {
	FileID string                           `json:"file_id"`
	Sheets []string                         `json:"sheets"`
	Sniff  []*dataprocessing.ColumnProfile  `json:"sniff"`
}

// UploadService stores uploaded workbooks, sniffs their columns, and
// resolves file IDs back to paths for the chart pipeline.
type UploadService struct {
	cfg     *config.Config
	manager *files.Manager
	logger  *slog.Logger
}

// NewUploadService creates an upload service.
func NewUploadService(cfg *config.Config, manager *files.Manager, logger *slog.Logger) *UploadService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadService{
		cfg:     cfg,
		manager: manager,
		logger:  logger.With(slog.String("service", "upload")),
	}
}

// SaveUpload validates and stores one workbook, then sniffs the leading
// sheets so the client can offer column pickers without another round
// trip.
func (s *UploadService) SaveUpload(ctx context.Context, filename string, r io.Reader) (*UploadResult, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFileType, ext)
	}

	fileID := uuid.New().String()
	storedName := fileID + ext
	path := s.manager.UploadPath(storedName)

	limited := io.LimitReader(r, s.cfg.Upload.MaxSizeBytes+1)
	n, err := s.manager.SaveStream(path, limited)
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	if n > s.cfg.Upload.MaxSizeBytes {
		_ = s.manager.DeleteFile(path)
		return nil, ErrUploadTooLarge
	}

	sheets, err := dataprocessing.SheetNames(path)
	if err != nil {
		_ = s.manager.DeleteFile(path)
		return nil, fmt.Errorf("%w: %v", ErrInvalidFileType, err)
	}

	result := &UploadResult{FileID: fileID, Sheets: sheets}

	sniffLimit := s.cfg.Upload.SniffSheets
	for i, sheet := range sheets {
		if sniffLimit > 0 && i >= sniffLimit {
			break
		}
		ds, err := dataprocessing.ParseSheet(path, sheet)
		if err != nil {
			s.logger.WarnContext(ctx, "sheet sniff failed",
				slog.String("file_id", fileID),
				slog.String("sheet", sheet),
				slog.String("error", err.Error()))
			continue
		}
		result.Sniff = append(result.Sniff, dataprocessing.SniffColumns(ds, s.cfg.Upload.SniffRows))
	}

	meta := UploadMeta{
		FileID:       fileID,
		OriginalName: filepath.Base(filename),
		StoredName:   storedName,
		SizeBytes:    n,
		UploadedAt:   time.Now().UTC(),
		Sheets:       sheets,
	}
	if err := s.writeMeta(meta); err != nil {
		_ = s.manager.DeleteFile(path)
		return nil, err
	}

	s.logger.InfoContext(ctx, "workbook uploaded",
		slog.String("file_id", fileID),
		slog.String("original_name", meta.OriginalName),
		slog.Int64("size_bytes", n),
		slog.Int("sheets", len(sheets)))

	return result, nil
}

// Metadata loads the sidecar record for an upload.
func (s *UploadService) Metadata(fileID string) (*UploadMeta, error) {
	data, err := s.manager.ReadFile(s.manager.MetaPath(fileID + ".json"))
	if err != nil {
		return nil, ErrUploadNotFound
	}
	var meta UploadMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("corrupt upload metadata: %w", err)
	}
	return &meta, nil
}

// WorkbookPath resolves a file ID to the stored workbook path.
func (s *UploadService) WorkbookPath(fileID string) (string, error) {
	meta, err := s.Metadata(fileID)
	if err != nil {
		return "", err
	}
	path := s.manager.UploadPath(meta.StoredName)
	if !s.manager.FileExists(path) {
		return "", ErrUploadNotFound
	}
	return path, nil
}

// Columns parses one sheet of an upload and classifies its columns.
func (s *UploadService) Columns(ctx context.Context, fileID, sheet string) (*dataprocessing.ColumnProfile, error) {
	path, err := s.WorkbookPath(fileID)
	if err != nil {
		return nil, err
	}

	ds, err := dataprocessing.ParseSheet(path, sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSheetNotFound, err)
	}

	return dataprocessing.SniffColumns(ds, 0), nil
}

// Sheet parses one sheet of an upload into a dataset.
func (s *UploadService) Sheet(ctx context.Context, fileID, sheet string) (*dataprocessing.Dataset, error) {
	path, err := s.WorkbookPath(fileID)
	if err != nil {
		return nil, err
	}

	ds, err := dataprocessing.ParseSheet(path, sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSheetNotFound, err)
	}
	return ds, nil
}

func (s *UploadService) writeMeta(meta UploadMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode upload metadata: %w", err)
	}
	return s.manager.WriteFile(s.manager.MetaPath(meta.FileID+".json"), data)
}
