package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/runnerr0/meterreport/internal/meter"
)

// CSV reads a delimited text export with a header row.
type CSV struct {
	Path      string
	Delimiter string // empty means detect from the header line
}

// NewCSV creates a CSV source for path.
func NewCSV(path, delimiter string) *CSV {
	return &CSV{Path: path, Delimiter: delimiter}
}

func (c *CSV) Name() string { return c.Path }

// Load reads every row of the file.
func (c *CSV) Load(ctx context.Context) ([]meter.RawRecord, error) {
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	return ParseCSV(ctx, f, c.Delimiter)
}

// ParseCSV parses r into raw records keyed by the trimmed header names.
// Empty cells are left out of the row so they read as missing.
func ParseCSV(ctx context.Context, r io.Reader, delimiter string) ([]meter.RawRecord, error) {
	br := bufio.NewReader(r)

	comma, err := pickDelimiter(br, delimiter)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(br)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err == io.EOF {
		return []meter.RawRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i, h := range headers {
		h = strings.TrimPrefix(h, "\ufeff")
		headers[i] = strings.TrimSpace(h)
	}

	records := []meter.RawRecord{}
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		if blankRow(row) {
			continue
		}

		rec := make(meter.RawRecord, len(headers))
		for i, val := range row {
			if i >= len(headers) || headers[i] == "" {
				break
			}
			if val = strings.TrimSpace(val); val != "" {
				rec[headers[i]] = val
			}
		}
		records = append(records, rec)
	}

	return records, nil
}

// pickDelimiter returns the configured delimiter, or sniffs the header line:
// semicolon wins when it appears more often than comma.
func pickDelimiter(br *bufio.Reader, delimiter string) (rune, error) {
	if delimiter != "" {
		runes := []rune(delimiter)
		if len(runes) != 1 {
			return 0, fmt.Errorf("csv delimiter must be one character, got %q", delimiter)
		}
		return runes[0], nil
	}

	head, err := br.Peek(4096)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return 0, fmt.Errorf("peek csv header: %w", err)
	}
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}

	if bytes.Count(head, []byte{';'}) > bytes.Count(head, []byte{','}) {
		return ';', nil
	}
	return ',', nil
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
