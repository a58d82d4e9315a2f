package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/kestrelreader/biffread/biff"
)

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("xlsdump", flag.ContinueOnError)
	fs.SetOutput(stderr)

	showVersion := fs.Bool("v", false, "show version")
	fs.BoolVar(showVersion, "version", false, "show version")

	countOnly := fs.Bool("c", false, "print a record-count summary instead of a full hex/char dump")
	fs.BoolVar(countOnly, "count", false, "print a record-count summary instead of a full hex/char dump")

	unnumbered := fs.Bool("u", false, "omit byte offsets (for meaningful diffs)")
	fs.BoolVar(unnumbered, "unnumbered", false, "omit byte offsets (for meaningful diffs)")

	fs.Usage = func() {
		fmt.Fprint(stderr, usageText())
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *showVersion {
		fmt.Fprintln(stdout, version)
		return 0
	}

	rest := fs.Args()
	if len(rest) != 1 {
		fs.Usage()
		return 2
	}

	filename := rest[0]

	var err error
	if *countOnly {
		err = biff.CountRecords(filename, stdout)
	} else {
		err = biff.Dump(filename, stdout, *unnumbered)
	}
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", filename, err)
		return 1
	}

	return 0
}

func usageText() string {
	return `Usage:

 xlsdump [-h] [-v] [-c] [-u] xlsfile

positional arguments:

  xlsfile          xls file path

optional arguments:

  -h, --help       show this help message and exit
  -v, --version    show program's version number and exit
  -c, --count      print a record-count summary instead of a full dump
  -u, --unnumbered omit byte offsets (for meaningful diffs)
`
}
