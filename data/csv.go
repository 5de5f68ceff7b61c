package data

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/sutralabs/sutra/models"
)

// LoadBarsCSV reads OHLCV rows from a CSV file with a
// ticker,timestamp,open,high,low,close,volume header.
func LoadBarsCSV(path string) ([]models.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bar csv: %w", err)
	}
	defer f.Close()

	var bars []models.Bar
	if err := gocsv.UnmarshalFile(f, &bars); err != nil {
		return nil, fmt.Errorf("parse bar csv %s: %w", path, err)
	}
	return bars, nil
}

// NewCSVProvider loads a CSV file into a MemoryProvider.
func NewCSVProvider(path string) (*MemoryProvider, error) {
	bars, err := LoadBarsCSV(path)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("bar csv %s is empty", path)
	}
	return NewMemoryProvider(bars), nil
}
