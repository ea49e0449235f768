// Command pagedb is a small CLI for inspecting and loading pageDB files.
//
// Usage:
//
//	pagedb create  -file data.db [-btree] [-key id]
//	pagedb load    -file data.db [-btree] [-key id] [-header] input.csv
//	pagedb scan    -file data.db [-btree] [-key id] [-limit n]
//	pagedb stat    -file data.db [-btree] [-key id]
//
// All subcommands use the fixed demo schema (id INT, name CHAR,
// price DOUBLE); the -key flag names the B+Tree key column.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	pagedb "github.com/SimonWaldherr/pageDB"
	"github.com/SimonWaldherr/pageDB/internal/importer"
)

var (
	flagFile   = flag.String("file", "pagedb.db", "database file path")
	flagBTree  = flag.Bool("btree", false, "treat the file as a B+Tree file instead of a heap file")
	flagKey    = flag.String("key", "id", "B+Tree key column name")
	flagHeader = flag.Bool("header", false, "skip the first CSV record when loading")
	flagLimit  = flag.Int("limit", 20, "max rows to print when scanning (0 = all)")
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: pagedb <create|load|scan|stat> [flags] [input.csv]")
	flag.PrintDefaults()
	os.Exit(2)
}

func schema() *pagedb.TupleDesc {
	td, err := pagedb.NewTupleDesc(
		[]pagedb.FieldType{pagedb.TypeInt, pagedb.TypeChar, pagedb.TypeDouble},
		[]string{"id", "name", "price"},
	)
	if err != nil {
		log.Fatalf("schema: %v", err)
	}
	return td
}

func openFile(db *pagedb.Database, td *pagedb.TupleDesc) pagedb.DbFile {
	var (
		f   pagedb.DbFile
		err error
	)
	if *flagBTree {
		key, kerr := td.IndexOf(*flagKey)
		if kerr != nil {
			log.Fatalf("key column: %v", kerr)
		}
		f, err = pagedb.NewBTreeFile(db, *flagFile, td, key)
	} else {
		f, err = pagedb.NewHeapFile(db, *flagFile, td)
	}
	if err != nil {
		log.Fatalf("open %s: %v", *flagFile, err)
	}
	if err := db.Add(f); err != nil {
		log.Fatalf("register %s: %v", *flagFile, err)
	}
	return f
}

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		usage()
	}
	sub := os.Args[1]
	flag.CommandLine.Parse(os.Args[2:])

	db := pagedb.NewDatabase(0)
	defer func() {
		if err := db.Close(); err != nil {
			log.Fatalf("close: %v", err)
		}
	}()

	td := schema()
	f := openFile(db, td)

	switch sub {
	case "create":
		fmt.Printf("%s: %d page(s)\n", f.Name(), f.NumPages())

	case "load":
		args := flag.CommandLine.Args()
		if len(args) != 1 {
			usage()
		}
		in, err := os.Open(args[0])
		if err != nil {
			log.Fatalf("open input: %v", err)
		}
		defer in.Close()
		rep, err := importer.ImportCSV(f, in, &importer.CSVOptions{HasHeader: *flagHeader})
		if err != nil {
			log.Fatalf("import (job %s): %v", rep.JobID, err)
		}
		fmt.Printf("job %s: %d row(s) loaded, %d skipped\n", rep.JobID, rep.Rows, rep.Skipped)

	case "scan":
		it, err := f.Begin()
		if err != nil {
			log.Fatalf("begin: %v", err)
		}
		n := 0
		for it != f.End() {
			tup, err := f.GetTuple(it)
			if err != nil {
				log.Fatalf("get %v: %v", it, err)
			}
			id, _ := tup.IntAt(0)
			name, _ := tup.StringAt(1)
			price, _ := tup.FloatAt(2)
			fmt.Printf("%d\t%s\t%g\n", id, name, price)
			n++
			if *flagLimit > 0 && n >= *flagLimit {
				break
			}
			if err := f.Next(&it); err != nil {
				log.Fatalf("next: %v", err)
			}
		}
		fmt.Printf("(%d row(s))\n", n)

	case "stat":
		s := db.Stats()
		fmt.Printf("file:   %s\n", f.Name())
		fmt.Printf("pages:  %d\n", f.NumPages())
		fmt.Printf("reads:  %d\n", s.Reads)
		fmt.Printf("writes: %d\n", s.Writes)

	default:
		usage()
	}
}
