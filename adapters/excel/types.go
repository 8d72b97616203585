package excel

import (
	"path/filepath"
	"strings"
)

// Format identifies a tabular file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ContentTypeXLSX is the MIME type of spreadsheet uploads
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// FormatFromPath picks the format by file extension; anything but .csv is
// read as a workbook
func FormatFromPath(path string) Format {
	if strings.ToLower(filepath.Ext(path)) == ".csv" {
		return FormatCSV
	}
	return FormatXLSX
}

// FormatFromContentType picks the format of an uploaded body
func FormatFromContentType(contentType string) Format {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	switch ct {
	case ContentTypeXLSX, "application/vnd.ms-excel", "application/octet-stream":
		return FormatXLSX
	default:
		return FormatCSV
	}
}
