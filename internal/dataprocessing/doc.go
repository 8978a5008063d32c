// Package dataprocessing reads uploaded Excel workbooks into column-major
// datasets and classifies their columns for the chart configuration UI.
//
// Parsing is deliberately forgiving: the header is the first non-empty
// row, ragged rows are padded, and cells stay raw text until a chart
// actually asks for a numeric series.
package dataprocessing
