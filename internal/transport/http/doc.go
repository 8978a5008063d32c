// Package http contains the HTTP handlers for the chart service: workbook
// upload and column inspection, chart preview and export, export file
// download, and health. All error responses follow RFC 7807.
package http
