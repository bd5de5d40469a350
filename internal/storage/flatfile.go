package storage

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"poolSnapshot/internal/model"
)

// ReadRows loads a CSV file as rows keyed by header name.
// A file with only a header, or no content at all, yields no rows. Short rows are padded with
// empty cells; stray quotes are kept as text.
func ReadRows(path string) ([]model.Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	reader := gocsv.LazyCSVReader(file)
	if r, ok := reader.(*csv.Reader); ok {
		r.FieldsPerRecord = -1
	}
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := make([]string, len(records[0]))
	for i, name := range records[0] {
		header[i] = strings.TrimSpace(unquote(name))
	}

	rows := make([]model.Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(model.Row, len(header))
		for i, name := range header {
			var value string
			if i < len(record) {
				value = unquote(record[i])
			}
			row[name] = value
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	stat, err := os.Stat(path)
	return err == nil && !stat.IsDir()
}

// ListFiles returns the names of .csv files in dir starting with any of prefixes, sorted by name.
func ListFiles(dir string, prefixes ...string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		for _, prefix := range prefixes {
			if strings.HasPrefix(entry.Name(), prefix) {
				names = append(names, entry.Name())
				break
			}
		}
	}
	return names, nil
}

// WritePoolRecords overwrites path with a slot file.
func WritePoolRecords(path string, records []model.PoolRecord) error {
	var buf bytes.Buffer
	buf.WriteString(strings.Join(model.PoolRecordHeader, ","))
	buf.WriteByte('\n')
	for _, r := range records {
		fields := []string{
			r.Date,
			r.Time,
			quote(r.PoolID),
			r.PoolAddress,
			fixed(r.TVLUSD, 2),
			fixed(r.Volume24hUSD, 2),
			fixed(r.Volume7dUSD, 2),
			fixed(r.APR7d, 4),
			orZero(r.Reserve0),
			orZero(r.Reserve1),
			orZero(r.TotalShare),
		}
		buf.WriteString(strings.Join(fields, ","))
		buf.WriteByte('\n')
	}
	return writeAtomic(path, buf.Bytes())
}

// WriteAggregateRecords overwrites path with a rollup file.
func WriteAggregateRecords(path string, records []model.AggregateRecord) error {
	var buf bytes.Buffer
	buf.WriteString(strings.Join(model.AggregateRecordHeader, ","))
	buf.WriteByte('\n')
	for _, r := range records {
		fields := []string{
			r.Period,
			quote(r.PoolID),
			r.PoolAddress,
			r.AvgTVLUSD,
			r.TotalVolumeUSD,
			r.AvgAPR7d,
			r.AvgReserve0,
			r.AvgReserve1,
			r.AvgTotalShare,
			strconv.FormatInt(r.SnapshotCount, 10),
		}
		buf.WriteString(strings.Join(fields, ","))
		buf.WriteByte('\n')
	}
	return writeAtomic(path, buf.Bytes())
}

// MarshalJSONDocument renders v as the two-space indented document written for snapshots.
func MarshalJSONDocument(v interface{}) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return data, nil
}

// WriteFile overwrites path with data.
func WriteFile(path string, data []byte) error {
	return writeAtomic(path, data)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// unquote strips one pair of surrounding quotes left over from a malformed field.
func unquote(value string) string {
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		return value[1 : len(value)-1]
	}
	return value
}

func quote(value string) string {
	return `"` + value + `"`
}

func fixed(value float64, places int32) string {
	return decimal.NewFromFloat(value).StringFixed(places)
}

func orZero(value string) string {
	if value == "" {
		return "0"
	}
	return value
}
