// Package importer loads corpus metadata from Excel or CSV files, for
// deployments that carry their own corpus table instead of the built-in
// one.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/mishnahbot/internal/corpus"
	"github.com/example/mishnahbot/pkg/models"
)

// Config defines where tractate metadata lives in the file. Chapter unit
// counts are a comma-separated list; when the column is empty the total
// and chapter count columns drive the fallback partition instead.
type Config struct {
	FilePath          string
	NameColumn        string
	HebrewNameColumn  string
	SederColumn       string
	SederHebrewColumn string
	CountsColumn      string
	TotalColumn       string
	ChaptersColumn    string
	SheetName         string
	StartRow          int
}

// DefaultConfig returns the column layout the export template uses.
func DefaultConfig() Config {
	return Config{
		NameColumn:        "A",
		HebrewNameColumn:  "B",
		SederColumn:       "C",
		SederHebrewColumn: "D",
		CountsColumn:      "E",
		TotalColumn:       "F",
		ChaptersColumn:    "G",
		SheetName:         "Sheet1",
		StartRow:          2,
	}
}

// Result holds the outcome of an import run.
type Result struct {
	TotalProcessed int
	Imported       int
	Skipped        int
	Errors         []string
}

// ImportTractates reads tractate metadata from an Excel or CSV file in
// reading order. Rows that cannot be parsed are skipped and reported in
// the result; only file-level failures return an error.
func ImportTractates(config Config) ([]models.Tractate, *Result, error) {
	ext := strings.ToLower(filepath.Ext(config.FilePath))
	if ext == ".csv" {
		return importFromCSV(config)
	}
	return importFromExcel(config)
}

// ImportIndex builds a corpus index straight from an imported file.
func ImportIndex(config Config) (*corpus.Index, *Result, error) {
	tractates, result, err := ImportTractates(config)
	if err != nil {
		return nil, result, err
	}
	if len(tractates) == 0 {
		return nil, result, fmt.Errorf("no tractates imported from %s", config.FilePath)
	}
	return corpus.NewIndex(tractates), result, nil
}

func importFromExcel(config Config) ([]models.Tractate, *Result, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get rows: %w", err)
	}

	return parseRows(rows, config)
}

func importFromCSV(config Config) ([]models.Tractate, *Result, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		rows = append(rows, row)
	}

	return parseRows(rows, config)
}

func parseRows(rows [][]string, config Config) ([]models.Tractate, *Result, error) {
	result := &Result{Errors: make([]string, 0)}
	seen := make(map[string]bool)
	var tractates []models.Tractate

	for i, row := range rows {
		if i < config.StartRow-1 {
			continue
		}
		if rowEmpty(row) {
			continue
		}
		result.TotalProcessed++

		tractate, err := parseRow(row, config)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
			continue
		}
		if seen[tractate.Name] {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: duplicate tractate %q", i+1, tractate.Name))
			continue
		}
		seen[tractate.Name] = true
		tractates = append(tractates, tractate)
		result.Imported++
	}
	return tractates, result, nil
}

func parseRow(row []string, config Config) (models.Tractate, error) {
	name := strings.TrimSpace(cell(row, config.NameColumn))
	if name == "" {
		return models.Tractate{}, fmt.Errorf("missing tractate name")
	}

	tractate := models.Tractate{
		Name:        name,
		HebrewName:  strings.TrimSpace(cell(row, config.HebrewNameColumn)),
		Seder:       strings.TrimSpace(cell(row, config.SederColumn)),
		SederHebrew: strings.TrimSpace(cell(row, config.SederHebrewColumn)),
	}

	counts := strings.TrimSpace(cell(row, config.CountsColumn))
	if counts != "" {
		parsed, err := parseCounts(counts)
		if err != nil {
			return models.Tractate{}, err
		}
		tractate.ChapterUnitCounts = parsed
		return tractate, nil
	}

	total, err := positiveInt(cell(row, config.TotalColumn), "total units")
	if err != nil {
		return models.Tractate{}, err
	}
	chapters, err := positiveInt(cell(row, config.ChaptersColumn), "chapter count")
	if err != nil {
		return models.Tractate{}, err
	}
	if chapters > total {
		return models.Tractate{}, fmt.Errorf("chapter count %d exceeds total units %d", chapters, total)
	}
	tractate.ChapterUnitCounts = corpus.ExpandChapterCounts(total, chapters)
	return tractate, nil
}

func parseCounts(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	counts := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := positiveInt(p, "chapter unit count")
		if err != nil {
			return nil, err
		}
		counts = append(counts, n)
	}
	return counts, nil
}

func positiveInt(s, what string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", what, s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", what, n)
	}
	return n, nil
}

// cell resolves a column letter against a row, returning "" past the end.
func cell(row []string, column string) string {
	n, err := excelize.ColumnNameToNumber(column)
	if err != nil || n-1 >= len(row) {
		return ""
	}
	return row[n-1]
}

func rowEmpty(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
