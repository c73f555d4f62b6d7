package names

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Format selects the parser for a name source.
type Format int

const (
	// FormatAuto sniffs the delimiter from the header row.
	FormatAuto Format = iota
	// FormatCSV is comma-separated text.
	FormatCSV
	// FormatTSV is tab-separated text.
	FormatTSV
	// FormatSnapshot is the compiled binary form written by WriteSnapshot.
	FormatSnapshot
)

const (
	columnID       = "id"
	columnName     = "name"
	columnNameLang = "name_lang"

	byteOrderMark = "\ufeff"
)

var (
	// ErrSourceNotFound is returned when a name source does not exist.
	ErrSourceNotFound = errors.New("name source not found")
	// ErrMissingColumns is returned when the header lacks an id or name column.
	ErrMissingColumns = errors.New("name source is missing the id or name column")
)

// FormatFor picks the format from a file extension.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".tab":
		return FormatTSV
	case ".csv":
		return FormatCSV
	case ".snap":
		return FormatSnapshot
	default:
		return FormatAuto
	}
}

// ReadFile parses the name source at path.
func ReadFile(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}

		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	recs, err := Parse(file, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return recs, nil
}

// Parse reads every record of a source. Rows with a missing or non-numeric
// id, an empty name or malformed quoting are skipped.
func Parse(r io.Reader, format Format) ([]Record, error) {
	if format == FormatSnapshot {
		return ReadSnapshot(r)
	}

	buffered := bufio.NewReader(r)

	header, err := buffered.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read header: %w", err)
	}

	header = strings.TrimPrefix(header, byteOrderMark)

	delim := ','

	switch format {
	case FormatTSV:
		delim = '\t'
	case FormatAuto:
		if strings.Contains(header, "\t") && !strings.Contains(header, ",") {
			delim = '\t'
		}
	case FormatCSV, FormatSnapshot:
	}

	reader := csv.NewReader(io.MultiReader(strings.NewReader(header), buffered))
	reader.Comma = delim
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	row, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: no header row", ErrMissingColumns)
	}

	idCol, nameCol, ok := locateColumns(row)
	if !ok {
		return nil, ErrMissingColumns
	}

	var recs []Record

	for {
		row, err = reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				continue
			}

			return nil, fmt.Errorf("read row: %w", err)
		}

		rec, valid := recordFromRow(row, idCol, nameCol)
		if valid {
			recs = append(recs, rec)
		}
	}

	return recs, nil
}

// locateColumns matches header names case-insensitively. "name" wins over
// "name_lang" when both are present.
func locateColumns(header []string) (int, int, bool) {
	idCol, nameCol, langCol := -1, -1, -1

	for idx, column := range header {
		switch strings.ToLower(strings.TrimSpace(column)) {
		case columnID:
			if idCol < 0 {
				idCol = idx
			}
		case columnName:
			if nameCol < 0 {
				nameCol = idx
			}
		case columnNameLang:
			if langCol < 0 {
				langCol = idx
			}
		}
	}

	if nameCol < 0 {
		nameCol = langCol
	}

	return idCol, nameCol, idCol >= 0 && nameCol >= 0
}

func recordFromRow(row []string, idCol, nameCol int) (Record, bool) {
	if idCol >= len(row) || nameCol >= len(row) {
		return Record{}, false
	}

	id, err := strconv.ParseInt(strings.TrimSpace(row[idCol]), 10, 64)
	if err != nil {
		return Record{}, false
	}

	rec := NewRecord(id, strings.TrimSpace(row[nameCol]))
	if rec.Key == "" {
		return Record{}, false
	}

	return rec, true
}
