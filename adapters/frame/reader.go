package frame

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// FileReader loads tabular data from CSV or Excel files into a frame
type FileReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	sheet    string
}

// NewFileReader creates a reader, picking the format from the extension
func NewFileReader(filePath string) *FileReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &FileReader{filePath: filePath, fileType: fileType, sheet: "Sheet1"}
}

// WithSheet overrides the worksheet read from Excel files
func (r *FileReader) WithSheet(sheet string) *FileReader {
	r.sheet = sheet
	return r
}

// ReadFrame loads the file. When timeColumn is non-empty that column
// becomes the frame's time index.
func (r *FileReader) ReadFrame(timeColumn string) (*MemoryFrame, error) {
	log.Printf("[FrameReader] Starting to read %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	var rows [][]string
	var err error
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

	if len(rows) < 2 {
		return nil, fmt.Errorf("%s file must have at least a header row and one data row", strings.ToUpper(r.fileType))
	}

	headers := make([]string, len(rows[0]))
	for i, header := range rows[0] {
		headers[i] = strings.TrimSpace(header)
	}

	frame, err := FromRecords(headers, rows[1:], timeColumn)
	if err != nil {
		return nil, err
	}
	log.Printf("[FrameReader] %s file processed (%d columns, %d rows)",
		strings.ToUpper(r.fileType), len(frame.Columns()), frame.NumRows())
	return frame, nil
}

func (r *FileReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	readStart := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	log.Printf("[FrameReader] CSV file read in %.2fms (%d rows)",
		float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

func (r *FileReader) readExcelRows() ([][]string, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()
	log.Printf("[FrameReader] Excel file opened in %.2fms",
		float64(time.Since(startTime).Nanoseconds())/1e6)

	readStart := time.Now()
	rows, err := f.GetRows(r.sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", r.sheet, err)
	}
	log.Printf("[FrameReader] %s read in %.2fms (%d rows)",
		r.sheet, float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))
	return rows, nil
}
