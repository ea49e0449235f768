package importer

import (
	"fmt"

	"github.com/google/uuid"
	shp "github.com/jonas-p/go-shp"

	"github.com/SimonWaldherr/pageDB/internal/storage"
)

// ImportShapefile reads a .shp file's attribute table (the DBF sidecar)
// and inserts one row per shape record. Geometry is ignored; DBF columns
// map to the schema by position, parsed the same way as CSV fields.
func ImportShapefile(f storage.DbFile, path string) (Report, error) {
	rep := Report{}

	r, err := shp.Open(path)
	if err != nil {
		return rep, fmt.Errorf("open shapefile: %w", err)
	}
	defer r.Close()

	td := f.TupleDesc()
	fields := r.Fields()
	if len(fields) < td.NumFields() {
		return rep, fmt.Errorf("shapefile has %d attributes, schema needs %d", len(fields), td.NumFields())
	}

	rep = Report{JobID: uuid.New()}
	for r.Next() {
		idx, _ := r.Shape()
		record := make([]string, td.NumFields())
		for fi := range record {
			record[fi] = r.ReadAttribute(idx, fi)
		}
		tup, err := parseTuple(td, record)
		if err != nil {
			rep.Skipped++
			continue
		}
		if err := f.InsertTuple(tup); err != nil {
			return rep, fmt.Errorf("insert record %d: %w", idx, err)
		}
		rep.Rows++
	}
	return rep, nil
}
