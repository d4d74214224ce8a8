package core

import (
	"encoding/json"
	"time"
)

// ExportVersion is the version written into every export document.
const ExportVersion = 1

// Export is the wrapped backup document. Imports also accept a bare record array.
type Export struct {
	Version    int         `json:"version"`
	ExportedAt string      `json:"exportedAt"`
	Cap        json.Number `json:"cap"`
	Settings   Settings    `json:"settings"`
	Records    []Record    `json:"records"`
}

// NewExport wraps a dataset for writing.
func NewExport(ds Dataset, at time.Time) Export {
	records := ds.Records
	if records == nil {
		records = []Record{}
	}
	return Export{
		Version:    ExportVersion,
		ExportedAt: CanonicalTime(at).Format(TimestampLayout),
		Cap:        json.Number(ds.Cap.String()),
		Settings:   ds.Settings.Clone(),
		Records:    records,
	}
}

// MarshalExport renders the export document indented by two spaces.
func MarshalExport(ds Dataset, at time.Time) ([]byte, error) {
	return json.MarshalIndent(NewExport(ds, at), "", "  ")
}

// ExportFileName is the suggested file name for a backup taken at the given time.
func ExportFileName(at time.Time) string {
	return "moneylog-backup-" + at.UTC().Format("2006-01-02") + ".json"
}
