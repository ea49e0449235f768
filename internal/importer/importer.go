// Package importer bulk-loads external data into pageDB files.
//
// Source columns are matched to the target file's schema by position.
// Every field is trimmed of surrounding whitespace; then INT fields parse
// as 32-bit integers, DOUBLE fields as floats, and CHAR fields take the
// text as is (truncated to 64 bytes by the row codec).
// Records that do not parse are skipped and counted, not fatal.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/SimonWaldherr/pageDB/internal/storage"
)

// Report summarizes one import job.
type Report struct {
	JobID   uuid.UUID // assigned per run, stamped on logs and results
	Rows    int       // rows inserted
	Skipped int       // source records dropped (arity or parse failures)
}

// parseTuple converts one textual record into a tuple for the schema.
func parseTuple(td *storage.TupleDesc, record []string) (storage.Tuple, error) {
	if len(record) != td.NumFields() {
		return storage.Tuple{}, fmt.Errorf("record has %d columns, schema has %d", len(record), td.NumFields())
	}
	values := make([]any, len(record))
	for i, raw := range record {
		raw = strings.TrimSpace(raw)
		switch td.TypeOf(i) {
		case storage.TypeInt:
			v, err := strconv.ParseInt(raw, 10, 32)
			if err != nil {
				return storage.Tuple{}, fmt.Errorf("column %d (%s): %w", i, td.NameOf(i), err)
			}
			values[i] = int32(v)
		case storage.TypeDouble:
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return storage.Tuple{}, fmt.Errorf("column %d (%s): %w", i, td.NameOf(i), err)
			}
			values[i] = v
		case storage.TypeChar:
			values[i] = raw
		}
	}
	return storage.NewTuple(values...), nil
}

// CSVOptions configures a CSV import.
type CSVOptions struct {
	Comma     rune // field separator (default ',')
	HasHeader bool // skip the first record
}

// ImportCSV reads CSV records from r and inserts them into the file.
func ImportCSV(f storage.DbFile, r io.Reader, opts *CSVOptions) (Report, error) {
	if opts == nil {
		opts = &CSVOptions{}
	}
	rep := Report{JobID: uuid.New()}

	cr := csv.NewReader(r)
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}
	cr.FieldsPerRecord = -1
	td := f.TupleDesc()

	first := true
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rep, fmt.Errorf("read csv: %w", err)
		}
		if first && opts.HasHeader {
			first = false
			continue
		}
		first = false

		tup, err := parseTuple(td, record)
		if err != nil {
			rep.Skipped++
			continue
		}
		if err := f.InsertTuple(tup); err != nil {
			return rep, fmt.Errorf("insert row %d: %w", rep.Rows, err)
		}
		rep.Rows++
	}
	return rep, nil
}
