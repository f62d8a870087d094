package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"carprice/domain/car"
	"carprice/internal"

	"github.com/xuri/excelize/v2"
)

// DataReader handles reading Excel and CSV files into a raw car sheet
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	log      *internal.Logger
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" || ext == ".txt" {
		fileType = "csv"
	}
	return &DataReader{
		filePath: filePath,
		fileType: fileType,
		log:      internal.DefaultLogger.Component("DataReader"),
	}
}

// Path returns the file the reader was created for.
func (r *DataReader) Path() string { return r.filePath }

// ReadSheet reads the file into a raw sheet. Header validation is left to the
// dataset loader.
func (r *DataReader) ReadSheet(ctx context.Context) (*car.Sheet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.log.Info("Starting to read %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	var (
		rows [][]string
		err  error
	)
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
	if err != nil {
		return nil, err
	}
	return r.processRows(rows)
}

// readExcelRows reads the first worksheet
func (r *DataReader) readExcelRows() ([][]string, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("Excel file %s has no worksheets", r.filePath)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sheets[0], err)
	}
	r.log.Debug("%s read in %.2fms (%d rows)", sheets[0],
		float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

func (r *DataReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	startTime := time.Now()
	rows, err := ReadCSV(file)
	if err != nil {
		return nil, err
	}
	r.log.Debug("CSV file read in %.2fms (%d rows)",
		float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

// ReadCSV parses delimited text. Ragged rows are accepted; missing trailing
// cells read as blank.
func ReadCSV(src io.Reader) ([][]string, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

// processRows converts raw string rows into a sheet keyed by header
func (r *DataReader) processRows(rows [][]string) (*car.Sheet, error) {
	sheet := SheetFromRows(r.filePath, rows)
	if sheet == nil {
		return nil, fmt.Errorf("%s has no header row", r.filePath)
	}
	r.log.Info("%s file processed (%d columns, %d rows)",
		strings.ToUpper(r.fileType), len(sheet.Headers), len(sheet.Rows))
	return sheet, nil
}

// SheetFromRows builds a sheet from a header row followed by data rows.
// It returns nil when rows is empty.
func SheetFromRows(source string, rows [][]string) *car.Sheet {
	if len(rows) == 0 {
		return nil
	}
	headers := make([]string, len(rows[0]))
	for i, header := range rows[0] {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
	}

	data := make([]car.RawRow, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		rowData := make(car.RawRow, len(headers))
		for j, header := range headers {
			if header == "" {
				continue
			}
			if j < len(row) {
				rowData[header] = strings.TrimSpace(row[j])
			} else {
				rowData[header] = ""
			}
		}
		data = append(data, rowData)
	}
	return &car.Sheet{Source: source, Headers: headers, Rows: data}
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
