package timeseries

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// CSVOptions holds options for reading delimiter-separated values.
type CSVOptions struct {
	Delimiter    rune // Field delimiter (default: ';')
	DecimalComma bool // Treat ',' as the decimal separator (default: true)
}

// DefaultCSVOptions returns the options matching the input files produced by
// spreadsheet exports with a comma decimal separator.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		Delimiter:    ';',
		DecimalComma: true,
	}
}

// LoadCSV reads a series from a file. Every field of every row is a value,
// taken in reading order.
func LoadCSV(filename string, opts *CSVOptions) (*TimeSeries, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "open series file")
	}
	defer file.Close()

	return LoadCSVFromReader(file, opts)
}

// LoadCSVFromReader reads a series from an io.Reader.
func LoadCSVFromReader(r io.Reader, opts *CSVOptions) (*TimeSeries, error) {
	fields, err := ReadFields(r, opts)
	if err != nil {
		return nil, err
	}

	series := New()
	for _, field := range fields {
		v, err := ParseFloat(field, opts)
		if err != nil {
			return nil, err
		}
		series.AddTimeValue(v)
	}

	if series.Len() == 0 {
		return nil, errors.New("no valid data found in CSV")
	}
	return series, nil
}

// ReadFields returns every non-empty, trimmed field of the input in order.
// Rows are concatenated, so a value list may span several lines.
func ReadFields(r io.Reader, opts *CSVOptions) ([]string, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}

	reader := csv.NewReader(r)
	reader.Comma = opts.Delimiter
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	var fields []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read csv")
		}
		for _, f := range record {
			f = strings.TrimSpace(strings.Trim(f, "\""))
			if f == "" {
				continue
			}
			fields = append(fields, f)
		}
	}
	return fields, nil
}

// ParseFloat parses a single value, accepting a comma decimal separator
// when the options ask for it.
func ParseFloat(field string, opts *CSVOptions) (float64, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}
	if opts.DecimalComma {
		field = strings.ReplaceAll(field, ",", ".")
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parse value %q", field)
	}
	return v, nil
}

// FormatFloat renders a value the way ParseFloat reads it back.
func FormatFloat(v float64, opts *CSVOptions) string {
	if opts == nil {
		opts = DefaultCSVOptions()
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if opts.DecimalComma {
		s = strings.ReplaceAll(s, ".", ",")
	}
	return s
}
