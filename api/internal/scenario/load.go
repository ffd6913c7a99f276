package scenario

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"philalign/api/internal/apperr"
)

// LoadFile reads a scenario table from a .csv or .xlsx file. The header row
// must contain a "Prompt" column; "phenomenon_category" (or "category"),
// "name" and "id" are optional.
func LoadFile(path string) (*Store, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = readCSV(path)
	case ".xlsx":
		rows, err = readXLSX(path)
	default:
		return nil, apperr.InvalidArgument("unsupported scenario file type: %s", path)
	}
	if err != nil {
		return nil, err
	}
	items, err := fromRows(rows)
	if err != nil {
		return nil, apperr.Wrap(err, fmt.Sprintf("scenario file %s", path))
	}
	return NewStore(items)
}

// ReadCSV parses a scenario table from r.
func ReadCSV(r io.Reader) (*Store, error) {
	rows, err := parseCSV(r)
	if err != nil {
		return nil, err
	}
	items, err := fromRows(rows)
	if err != nil {
		return nil, err
	}
	return NewStore(items)
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.NotFound("scenario file not found: %s", path)
		}
		return nil, err
	}
	defer f.Close()
	return parseCSV(f)
}

func parseCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, apperr.InvalidArgument("parse csv: %v", err)
	}
	return rows, nil
}

func readXLSX(path string) ([][]string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, apperr.NotFound("scenario file not found: %s", path)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperr.InvalidArgument("xlsx %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

type columns struct {
	prompt, category, name, id int
}

func locateColumns(header []string) (columns, error) {
	c := columns{prompt: -1, category: -1, name: -1, id: -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "prompt":
			c.prompt = i
		case "phenomenon_category", "category":
			if c.category < 0 {
				c.category = i
			}
		case "name":
			c.name = i
		case "id":
			c.id = i
		}
	}
	if c.prompt < 0 {
		return c, apperr.InvalidArgument("missing Prompt column")
	}
	return c, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func fromRows(rows [][]string) ([]Scenario, error) {
	if len(rows) == 0 {
		return nil, apperr.InvalidArgument("empty scenario table")
	}
	cols, err := locateColumns(rows[0])
	if err != nil {
		return nil, err
	}
	out := make([]Scenario, 0, len(rows)-1)
	for n, row := range rows[1:] {
		line := n + 2
		text := cell(row, cols.prompt)
		if text == "" {
			return nil, apperr.InvalidArgument("row %d has no prompt text", line)
		}
		sc := Scenario{
			ID:       n + 1,
			Text:     text,
			Category: cell(row, cols.category),
			Name:     cell(row, cols.name),
		}
		if raw := cell(row, cols.id); raw != "" {
			id, err := strconv.Atoi(raw)
			if err != nil {
				return nil, apperr.InvalidArgument("row %d: bad id %q", line, raw)
			}
			sc.ID = id
		}
		if sc.Name == "" {
			if sc.Category != "" {
				sc.Name = fmt.Sprintf("%s #%d", sc.Category, sc.ID)
			} else {
				sc.Name = fmt.Sprintf("Scenario #%d", sc.ID)
			}
		}
		out = append(out, sc)
	}
	return out, nil
}
