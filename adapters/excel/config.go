package excel

// ReaderConfig holds configuration for reading a tabular source
type ReaderConfig struct {
	Sheet string `json:"sheet"` // workbook sheet; empty means Sheet1, else the first sheet
	Comma rune   `json:"comma"` // CSV field delimiter
}

// DefaultReaderConfig returns sensible defaults for table ingestion
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{
		Comma: ',',
	}
}
