package sheets

// SpreadsheetInfo represents summary information about a spreadsheet
type SpreadsheetInfo struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	URL      string      `json:"url,omitempty"`
	Locale   string      `json:"locale,omitempty"`
	TimeZone string      `json:"timeZone,omitempty"`
	Sheets   []SheetInfo `json:"sheets,omitempty"`
}

// SheetInfo represents summary information about a single sheet (tab)
type SheetInfo struct {
	SheetID     int64  `json:"sheetId"`
	Title       string `json:"title"`
	Index       int64  `json:"index"`
	RowCount    int64  `json:"rowCount,omitempty"`
	ColumnCount int64  `json:"columnCount,omitempty"`
}

// UpdateResult represents the outcome of a range update
type UpdateResult struct {
	UpdatedRange   string `json:"updatedRange"`
	UpdatedRows    int64  `json:"updatedRows"`
	UpdatedColumns int64  `json:"updatedColumns"`
	UpdatedCells   int64  `json:"updatedCells"`
}

// AppendResult represents the outcome of appending rows to a range
type AppendResult struct {
	TableRange   string `json:"tableRange,omitempty"`
	UpdatedRange string `json:"updatedRange"`
	UpdatedRows  int64  `json:"updatedRows"`
	UpdatedCells int64  `json:"updatedCells"`
}
