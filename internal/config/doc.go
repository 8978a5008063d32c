// Package config provides centralized configuration and path management.
//
// Configuration is loaded from the following sources in order of
// precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration file (YAML)
//	3. Default values (lowest priority)
//
// All environment variables use the STRUCPLOT_* prefix:
//
//	STRUCPLOT_SERVER_PORT=8080
//	STRUCPLOT_LOGGING_LEVEL=info
//	STRUCPLOT_RENDER_EXPORT_DPI=600
//	STRUCPLOT_PATHS_DATA_DIR=/var/lib/strucplot
//
// All file system paths resolve through the Paths type, anchored at
// the executable directory so the service behaves the same regardless
// of the working directory it is launched from:
//
//	paths, err := config.GetPaths(cfg.Paths)
//	dir := paths.DatedExportDir(time.Now())
//
// Load validates the merged configuration before returning it, so a
// bad port or missing directory is caught at startup rather than on
// the first request.
package config
