package ingestion

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/rpattn/recordsearch/internal/domain"
	"github.com/rpattn/recordsearch/internal/repository"
)

var (
	// ErrUnsupportedFormat is returned when an uploaded file is not supported.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}
)

// Columns with a fixed meaning; every other column becomes a record label.
var (
	idColumns         = map[string]bool{"uuid": true, "id": true}
	entityTypeColumns = map[string]bool{"entityType": true, "entity_type": true, "type_name": true}
)

// Service imports tabular record stubs into the records catalog.
type Service struct {
	repo   repository.RecordRepository
	logger *slog.Logger
}

// NewService creates a new ingestion service.
func NewService(repo repository.RecordRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Request describes the import input.
type Request struct {
	// EntityType applies to rows without an entityType column value.
	EntityType     domain.EntityType
	FileName       string
	HeaderRowIndex *int
	Data           io.Reader
}

// RowError reports one rejected row. Row numbers are 1-based file rows.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Summary returns import level metrics.
type Summary struct {
	TotalRows    int        `json:"totalRows"`
	ImportedRows int        `json:"importedRows"`
	InvalidRows  int        `json:"invalidRows"`
	Labels       []string   `json:"labels"`
	Errors       []RowError `json:"errors,omitempty"`
}

type tableData struct {
	headers        []string
	rows           [][]string
	headerRowIndex int
}

// Import parses the file and upserts one record per valid row. Rows that cannot be
// turned into a record are reported in the summary and skipped.
func (s *Service) Import(ctx context.Context, req Request) (Summary, error) {
	if req.EntityType != "" {
		if _, ok := domain.ParseEntityType(string(req.EntityType)); !ok {
			return Summary{}, fmt.Errorf("%w: %q", domain.ErrUnknownEntityType, req.EntityType)
		}
	}

	payload, err := io.ReadAll(req.Data)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to read upload: %w", err)
	}

	table, err := parseTable(req.FileName, payload, req.HeaderRowIndex)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{TotalRows: len(table.rows)}
	for i, h := range table.headers {
		if !idColumns[h] && !entityTypeColumns[h] {
			summary.Labels = append(summary.Labels, table.headers[i])
		}
	}

	records := make([]domain.Record, 0, len(table.rows))
	for idx, row := range table.rows {
		rowNumber := table.headerRowIndex + idx + 2
		record, err := buildRecord(table.headers, row, req.EntityType)
		if err != nil {
			summary.InvalidRows++
			summary.Errors = append(summary.Errors, RowError{Row: rowNumber, Message: err.Error()})
			s.logger.WarnContext(ctx, "[IMPORT] skipping row", "file", req.FileName, "row", rowNumber, "error", err)
			continue
		}
		records = append(records, record)
	}

	if len(records) > 0 {
		n, err := s.repo.UpsertBatch(ctx, records)
		if err != nil {
			return summary, fmt.Errorf("failed to import records: %w", err)
		}
		summary.ImportedRows = n
	}

	s.logger.InfoContext(ctx, "[IMPORT] completed",
		"file", req.FileName,
		"total", summary.TotalRows,
		"imported", summary.ImportedRows,
		"invalid", summary.InvalidRows,
	)
	return summary, nil
}

func buildRecord(headers, row []string, fallback domain.EntityType) (domain.Record, error) {
	labels := make(map[string]string, len(headers))
	var rawID, rawType string
	for i, h := range headers {
		value := strings.TrimSpace(row[i])
		switch {
		case idColumns[h]:
			rawID = value
		case entityTypeColumns[h]:
			rawType = value
		case value != "":
			labels[h] = value
		}
	}

	entityType := fallback
	if rawType != "" {
		parsed, ok := domain.ParseEntityType(rawType)
		if !ok {
			return domain.Record{}, fmt.Errorf("unknown entity type %q", rawType)
		}
		entityType = parsed
	}
	if entityType == "" {
		return domain.Record{}, errors.New("entity type is required")
	}
	if len(labels) == 0 {
		return domain.Record{}, errors.New("row has no label values")
	}

	record := domain.NewRecord(entityType, labels)
	if rawID != "" {
		id, err := uuid.Parse(rawID)
		if err != nil {
			return domain.Record{}, fmt.Errorf("invalid uuid %q: %w", rawID, err)
		}
		record = record.WithID(id)
	}
	return record, nil
}

func parseTable(fileName string, payload []byte, headerRowIndex *int) (tableData, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv":
		return parseCSV(payload, headerRowIndex)
	case ".xlsx":
		return parseExcel(payload, headerRowIndex)
	default:
		return tableData{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func parseCSV(payload []byte, headerRowIndex *int) (tableData, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return tableData{}, fmt.Errorf("failed to read csv: %w", err)
	}
	return normalizeTable(records, headerRowIndex)
}

func parseExcel(payload []byte, headerRowIndex *int) (tableData, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return tableData{}, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return tableData{}, errors.New("excel file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return tableData{}, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}
	return normalizeTable(rows, headerRowIndex)
}

// normalizeTable picks the header row (explicit or first non-empty) and pads every
// data row to the header width.
func normalizeTable(records [][]string, headerRowIndex *int) (tableData, error) {
	if len(records) == 0 {
		return tableData{}, errors.New("no rows found in file")
	}

	start := 0
	if headerRowIndex != nil {
		if *headerRowIndex < 0 || *headerRowIndex >= len(records) {
			return tableData{}, fmt.Errorf("header row index %d out of range", *headerRowIndex)
		}
		if isBlank(records[*headerRowIndex]) {
			return tableData{}, fmt.Errorf("selected header row %d is empty", *headerRowIndex+1)
		}
		start = *headerRowIndex
	} else {
		for start < len(records) && isBlank(records[start]) {
			start++
		}
		if start == len(records) {
			return tableData{}, errors.New("header row could not be detected")
		}
	}

	headers := sanitizeHeaders(records[start])
	var rows [][]string
	for _, row := range records[start+1:] {
		if isBlank(row) {
			continue
		}
		rows = append(rows, padRow(row, len(headers)))
	}

	return tableData{headers: headers, rows: rows, headerRowIndex: start}, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// sanitizeHeaders keeps header case (labels are camelCase field names) and makes
// names unique.
func sanitizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	seen := make(map[string]int)

	for idx, value := range raw {
		name := strings.TrimSpace(value)
		name = strings.ReplaceAll(name, " ", "_")
		name = strings.ReplaceAll(name, ".", "_")
		name = strings.ReplaceAll(name, "-", "_")
		name = strings.Trim(name, "_")
		if name == "" {
			name = fmt.Sprintf("column_%d", idx+1)
		}

		base := name
		count := seen[base]
		if count > 0 {
			name = fmt.Sprintf("%s_%d", base, count+1)
		}
		seen[base] = count + 1

		headers[idx] = name
	}

	return headers
}

func padRow(row []string, length int) []string {
	if len(row) >= length {
		return row[:length]
	}
	padded := make([]string, length)
	copy(padded, row)
	return padded
}
