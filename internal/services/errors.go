package services

import "errors"

// Service-level errors
var (
	// Upload errors
	ErrUploadNotFound  = errors.New("uploaded workbook not found")
	ErrInvalidFileType = errors.New("invalid file type")
	ErrUploadTooLarge  = errors.New("upload exceeds size limit")
	ErrSheetNotFound   = errors.New("sheet not found in workbook")

	// Chart errors
	ErrUnknownChartKind = errors.New("unknown chart kind")
	ErrNoExportFormats  = errors.New("no export formats requested")

	// General errors
	ErrInvalidInput       = errors.New("invalid input")
	ErrOperationTimeout   = errors.New("operation timed out")
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
)
