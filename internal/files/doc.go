// Package files provides file system operations for the upload, metadata,
// and export directories.
//
// Manager resolves names inside the configured data tree and guards the
// download path against traversal outside the export root. All write
// operations create parent directories as needed.
package files
