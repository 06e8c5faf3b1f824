// caskdb is a command-line client for opening and poking at a store
// directory: a single put/get invocation, or an interactive REPL for
// exploratory use.
//
// Usage:
//
//	caskdb --dir <path> put <key> <value>
//	caskdb --dir <path> get <key>
//	caskdb --dir <path> repl
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/ishanjain28/bitcask/pkg/errors"
	"github.com/ishanjain28/bitcask/pkg/ignite"
	"github.com/ishanjain28/bitcask/pkg/options"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("caskdb", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	dir := fs.StringP("dir", "d", "", "store directory (required)")
	segmentSize := fs.Uint64P("segment-size", "s", options.DefaultSegmentSize, "segment size limit in bytes")
	fsync := fs.Bool("fsync", false, "fsync after every put")

	fs.Usage = func() { printUsage(errOut) }

	if err := fs.Parse(args); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 2
	}

	if *dir == "" {
		fmt.Fprintln(errOut, "error: --dir is required")
		printUsage(errOut)
		return 2
	}

	rest := fs.Args()
	if len(rest) == 0 {
		printUsage(errOut)
		return 2
	}

	db, err := ignite.Open(*dir,
		options.WithSegmentSize(*segmentSize),
		options.WithFsyncOnPut(*fsync),
	)
	if err != nil {
		fmt.Fprintln(errOut, "error opening store:", describe(err))
		return 1
	}
	defer db.Close()

	switch rest[0] {
	case "put":
		return cmdPut(db, rest[1:], out, errOut)
	case "get":
		return cmdGet(db, rest[1:], out, errOut)
	case "repl":
		return runRepl(db, out, errOut)
	default:
		fmt.Fprintf(errOut, "error: unknown command %q\n", rest[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, "Usage:")
	fmt.Fprintln(out, "  caskdb --dir <path> put <key> <value>")
	fmt.Fprintln(out, "  caskdb --dir <path> get <key>")
	fmt.Fprintln(out, "  caskdb --dir <path> repl")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Options:")
	fmt.Fprintln(out, "  -d, --dir string           store directory (required)")
	fmt.Fprintln(out, "  -s, --segment-size uint    segment size limit in bytes")
	fmt.Fprintln(out, "      --fsync                fsync after every put")
}

func cmdPut(db *ignite.Instance, args []string, out, errOut io.Writer) int {
	if len(args) != 2 {
		fmt.Fprintln(errOut, "usage: caskdb --dir <path> put <key> <value>")
		return 2
	}
	if err := db.Put([]byte(args[0]), []byte(args[1])); err != nil {
		fmt.Fprintln(errOut, "error:", describe(err))
		return 1
	}
	fmt.Fprintln(out, "OK")
	return 0
}

func cmdGet(db *ignite.Instance, args []string, out, errOut io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(errOut, "usage: caskdb --dir <path> get <key>")
		return 2
	}
	rec, err := db.Get([]byte(args[0]))
	if err != nil {
		if ie, ok := errors.AsIndexError(err); ok && ie.Code() == errors.ErrorCodeIndexKeyNotFound {
			fmt.Fprintln(out, "(not found)")
			return 0
		}
		fmt.Fprintln(errOut, "error:", describe(err))
		return 1
	}
	fmt.Fprintln(out, string(rec.Value))
	return 0
}

func describe(err error) string {
	if se, ok := errors.AsStorageError(err); ok {
		return fmt.Sprintf("%s: %s", se.Code(), se.Error())
	}
	if ie, ok := errors.AsIndexError(err); ok {
		return fmt.Sprintf("%s: %s", ie.Code(), ie.Error())
	}
	if ve, ok := errors.AsValidationError(err); ok {
		return fmt.Sprintf("%s: %s", ve.Code(), ve.Error())
	}
	return err.Error()
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".caskdb_history")
}

func runRepl(db *ignite.Instance, out, errOut io.Writer) int {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(func(s string) []string {
		var completions []string
		for _, cmd := range []string{"put", "get", "help", "exit", "quit"} {
			if strings.HasPrefix(cmd, strings.ToLower(s)) {
				completions = append(completions, cmd)
			}
		}
		return completions
	})

	if f, err := os.Open(historyFile()); err == nil {
		line.ReadHistory(f)
		f.Close()
	}

	fmt.Fprintln(out, "caskdb REPL. Type 'help' for commands, 'exit' to quit.")

	for {
		input, err := line.Prompt("caskdb> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				break
			}
			fmt.Fprintln(errOut, "error reading input:", err)
			break
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		fields := strings.Fields(input)
		switch strings.ToLower(fields[0]) {
		case "exit", "quit", "q":
			saveHistory(line)
			return 0
		case "help", "?":
			fmt.Fprintln(out, "put <key> <value>   store a key")
			fmt.Fprintln(out, "get <key>           retrieve a key")
			fmt.Fprintln(out, "exit                leave the REPL")
		case "put":
			if len(fields) != 3 {
				fmt.Fprintln(errOut, "usage: put <key> <value>")
				continue
			}
			if err := db.Put([]byte(fields[1]), []byte(fields[2])); err != nil {
				fmt.Fprintln(errOut, "error:", describe(err))
				continue
			}
			fmt.Fprintln(out, "OK")
		case "get":
			if len(fields) != 2 {
				fmt.Fprintln(errOut, "usage: get <key>")
				continue
			}
			rec, err := db.Get([]byte(fields[1]))
			if err != nil {
				if ie, ok := errors.AsIndexError(err); ok && ie.Code() == errors.ErrorCodeIndexKeyNotFound {
					fmt.Fprintln(out, "(not found)")
					continue
				}
				fmt.Fprintln(errOut, "error:", describe(err))
				continue
			}
			fmt.Fprintln(out, string(rec.Value))
		default:
			fmt.Fprintf(errOut, "unknown command: %s (type 'help')\n", fields[0])
		}
	}

	saveHistory(line)
	return 0
}

func saveHistory(line *liner.State) {
	path := historyFile()
	if path == "" {
		return
	}
	if f, err := os.Create(path); err == nil {
		line.WriteHistory(f)
		f.Close()
	}
}
