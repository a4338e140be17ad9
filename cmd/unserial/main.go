// unserial - decode PHP serialize() data
//
// Usage:
//
//	unserial to-json [--indent] [--extended] [file...]  Decode and print JSON
//	unserial to-yaml [--extended] [file...]             Decode and print YAML
//	unserial dump [--fingerprint] [file...]             Decode and print the canonical dump
//	unserial stream [file]                              Decode back-to-back records, one JSON line each
//	unserial version                                    Print version info
//
// If no file is given, reads from stdin. gzip and zstd input is
// decompressed automatically.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Neumenon/unserial/stream"
	"github.com/Neumenon/unserial/unserial"
)

const version = "0.1.0"

type options struct {
	indent      bool
	extended    bool
	fingerprint bool
	verbose     bool
	jobs        int
	files       []string
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	opts, err := parseArgs(os.Args[2:])
	if err != nil {
		fatal("%v", err)
	}

	log := newLogger(opts.verbose)
	defer log.Sync() //nolint:errcheck

	switch cmd {
	case "to-json", "to-yaml", "dump":
		inputs, err := readInputs(opts.files, os.Stdin)
		if err != nil {
			fatal("%v", err)
		}
		if err := cmdConvert(context.Background(), os.Stdout, cmd, inputs, opts, log); err != nil {
			fatal("%v", err)
		}
	case "stream":
		if len(opts.files) > 1 {
			fatal("stream: expected at most one file")
		}
		path := ""
		if len(opts.files) == 1 {
			path = opts.files[0]
		}
		rc, err := openInput(path, os.Stdin)
		if err != nil {
			fatal("%v", err)
		}
		defer rc.Close()
		if err := cmdStream(os.Stdout, rc, opts, log); err != nil {
			fatal("%v", err)
		}
	case "version", "-v", "--version":
		fmt.Printf("unserial %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `unserial - decode PHP serialize() data

Usage:
  unserial to-json [options] [file...]   Decode and print JSON
  unserial to-yaml [options] [file...]   Decode and print YAML
  unserial dump [options] [file...]      Decode and print the canonical dump
  unserial stream [options] [file]       Decode back-to-back records, one JSON line each
  unserial version                       Print version info

Options:
  --indent            Indent JSON output
  --extended          Add a "$class" member to decoded objects
  --fingerprint       Prefix dump output with the SHA-256 of the canonical dump
  --verbose           Log decoder traces to stderr
  --jobs=N            Decode up to N files at once (default: number of CPUs)

If no file is given, reads from stdin. gzip and zstd input is detected
and decompressed.

Examples:
  echo 'a:2:{i:0;s:5:"hello";i:1;s:5:"world";}' | unserial to-json
  # Output: ["hello","world"]

  echo 'a:1:{s:1:"x";i:5;}' | unserial dump
  # Output: {"x"=5}

  mysql -N -e 'SELECT meta FROM posts' | unserial stream
`)
}

func parseArgs(args []string) (options, error) {
	var opts options
	for _, arg := range args {
		switch {
		case arg == "--indent":
			opts.indent = true
		case arg == "--extended":
			opts.extended = true
		case arg == "--fingerprint":
			opts.fingerprint = true
		case arg == "--verbose":
			opts.verbose = true
		case strings.HasPrefix(arg, "--jobs="):
			n, err := parseIntArg(arg, "--jobs=")
			if err != nil {
				return opts, fmt.Errorf("invalid --jobs: %w", err)
			}
			opts.jobs = n
		case arg == "-" || !strings.HasPrefix(arg, "-"):
			opts.files = append(opts.files, arg)
		default:
			return opts, fmt.Errorf("unknown option: %s", arg)
		}
	}
	return opts, nil
}

// newLogger logs to stderr: warnings by default, everything with --verbose.
func newLogger(verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	encoderCfg := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.Lock(os.Stderr), level)
	return zap.New(core)
}

// cmdConvert decodes every input and prints it in the format named by cmd.
// Every input is attempted; the returned error combines all failures.
func cmdConvert(ctx context.Context, w io.Writer, cmd string, inputs []stream.Input, opts options, log *zap.Logger) error {
	batchOpts := []stream.BatchOption{stream.WithBatchLogger(log)}
	if opts.jobs > 0 {
		batchOpts = append(batchOpts, stream.WithConcurrency(opts.jobs))
	}
	results, decodeErr := stream.DecodeAll(ctx, inputs, batchOpts...)

	bridge := unserial.BridgeOpts{Extended: opts.extended}
	written := 0
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		out, err := render(cmd, r, bridge, opts)
		if err != nil {
			return fmt.Errorf("%s: %w", r.Name, err)
		}
		// YAML documents after the first need a separator.
		if cmd == "to-yaml" && written > 0 {
			out = append([]byte("---\n"), out...)
		}
		written++
		if _, err := w.Write(out); err != nil {
			return err
		}
	}
	return decodeErr
}

func render(cmd string, r stream.Result, bridge unserial.BridgeOpts, opts options) ([]byte, error) {
	switch cmd {
	case "to-json":
		data, err := unserial.ToJSONWithOpts(r.Value, bridge)
		if err != nil {
			return nil, err
		}
		if opts.indent {
			var buf bytes.Buffer
			if err := json.Indent(&buf, data, "", "  "); err != nil {
				return nil, err
			}
			data = buf.Bytes()
		}
		return append(data, '\n'), nil
	case "to-yaml":
		return unserial.ToYAMLWithOpts(r.Value, bridge)
	case "dump":
		line := unserial.Canonical(r.Value)
		if opts.fingerprint {
			line = "sha256:" + stream.HashToHex(r.Fingerprint) + " " + line
		}
		return []byte(line + "\n"), nil
	default:
		return nil, fmt.Errorf("unknown command: %s", cmd)
	}
}

// cmdStream prints one compact JSON line per record read from r.
func cmdStream(w io.Writer, r io.Reader, opts options, log *zap.Logger) error {
	scanner := stream.NewScanner(r, stream.WithLogger(log))
	bridge := unserial.BridgeOpts{Extended: opts.extended}

	count := 0
	for {
		rec, err := scanner.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		data, err := unserial.ToJSONWithOpts(rec.Value, bridge)
		if err != nil {
			return fmt.Errorf("record %d: %w", rec.Index, err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return err
		}
		log.Debug("record",
			zap.Int("index", rec.Index),
			zap.Int64("offset", rec.Offset),
			zap.Int("size", len(rec.Raw)),
			zap.String("crc", fmt.Sprintf("%08x", rec.CRC)))
		count++
	}

	log.Debug("stream decoded", zap.Int("records", count))
	return nil
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "unserial: "+format+"\n", args...)
	os.Exit(1)
}

func parseIntArg(arg, prefix string) (int, error) {
	val := strings.TrimPrefix(arg, prefix)
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, err
	}
	return n, nil
}
