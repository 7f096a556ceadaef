package pipeline

// SymbolResult is one kept barcode symbol.
type SymbolResult struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Result is the outcome of processing one image file.
type Result struct {
	File      string         `json:"file"`
	Format    string         `json:"format"`
	Width     int            `json:"width"`
	Height    int            `json:"height"`
	Converted bool           `json:"converted"`
	ISBNs     []string       `json:"isbns"`
	Symbols   []SymbolResult `json:"symbols,omitempty"`

	Processing struct {
		LoadNs  int64 `json:"load_ns"`
		ScanNs  int64 `json:"scan_ns"`
		TotalNs int64 `json:"total_ns"`
	} `json:"processing"`
}

// Found returns the number of decoded ISBNs.
func (r *Result) Found() int { return len(r.ISBNs) }
