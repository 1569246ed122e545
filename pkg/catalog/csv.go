package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/aretw0/arcade/pkg/domain"
)

// Columns of the vgsales dataset.
const (
	colRank        = "rank"
	colName        = "name"
	colPlatform    = "platform"
	colYear        = "year"
	colGenre       = "genre"
	colPublisher   = "publisher"
	colNASales     = "na_sales"
	colEUSales     = "eu_sales"
	colJPSales     = "jp_sales"
	colOtherSales  = "other_sales"
	colGlobalSales = "global_sales"
)

var requiredColumns = []string{colName, colPlatform, colGlobalSales}

// ReadCSV parses the vgsales layout. Columns are located by header name,
// case-insensitively; Name, Platform and Global_Sales are required. Years
// such as "N/A" are read as unknown.
func ReadCSV(r io.Reader) ([]domain.GameRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("catalog: empty dataset")
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: reading header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("catalog: missing column %q", c)
		}
	}
	cr.FieldsPerRecord = len(header)

	var records []domain.GameRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		line, _ := cr.FieldPos(0)
		rec, err := parseRow(cols, row)
		if err != nil {
			return nil, fmt.Errorf("catalog: line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRow(cols map[string]int, row []string) (domain.GameRecord, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	number := func(name string) (float64, error) {
		s := field(name)
		if s == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("column %s: %w", name, err)
		}
		return f, nil
	}

	rec := domain.GameRecord{
		Name:      field(colName),
		Platform:  field(colPlatform),
		Genre:     field(colGenre),
		Publisher: field(colPublisher),
	}
	if rec.Name == "" || rec.Platform == "" {
		return rec, fmt.Errorf("name and platform are required")
	}
	if s := field(colRank); s != "" {
		rank, err := strconv.Atoi(s)
		if err != nil {
			return rec, fmt.Errorf("column %s: %w", colRank, err)
		}
		rec.Rank = rank
	}
	if y, err := strconv.Atoi(field(colYear)); err == nil {
		rec.Year = y
	}

	var err error
	for name, dst := range map[string]*float64{
		colNASales:     &rec.NASales,
		colEUSales:     &rec.EUSales,
		colJPSales:     &rec.JPSales,
		colOtherSales:  &rec.OtherSales,
		colGlobalSales: &rec.GlobalSales,
	} {
		if *dst, err = number(name); err != nil {
			return rec, err
		}
	}
	return rec, nil
}

// LoadCSV reads a vgsales file into a Memory index.
func LoadCSV(path string) (*Memory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	defer f.Close()

	records, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewMemory(records), nil
}
