// Command gsnap renders HTML to PNG or WebP images and compares PNG
// screenshots from the command line.
//
// Usage:
//
//	gsnap [-v] render [options] <input.html|url|->   HTML → PNG/WebP
//	gsnap [-v] compare [options] <a.png> <b.png>     exit status 1 on mismatch
//	gsnap [-v] info <file|->                         PNG chunks or WebP header
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/deepteams/snapshot"
)

// Exit codes. Compare mismatches are reported with exitMismatch so that
// scripts can tell them from failures.
const (
	exitOK       = 0
	exitMismatch = 1
	exitError    = 2
)

// errMismatch is returned by the compare command when the images differ.
var errMismatch = errors.New("images differ")

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// app carries the standard streams of one invocation.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("gsnap", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(stderr) }
	verbose := fs.Bool("v", false, "log pipeline stages to stderr")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitError
	}
	if fs.NArg() < 1 {
		printUsage(stderr)
		return exitError
	}

	log := zap.NewNop()
	if *verbose {
		log = newDevelopmentLogger(stderr)
	}
	snapshot.SetLogger(log)
	defer log.Sync()

	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}
	ctx := context.Background()

	var err error
	switch cmd, rest := fs.Arg(0), fs.Args()[1:]; cmd {
	case "render":
		err = a.runRender(ctx, rest)
	case "compare":
		err = a.runCompare(ctx, rest)
	case "info":
		err = a.runInfo(rest)
	case "help":
		printUsage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "gsnap: unknown command %q\n\n", cmd)
		printUsage(stderr)
		return exitError
	}

	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, flag.ErrHelp):
		return exitOK
	case errors.Is(err, errMismatch):
		return exitMismatch
	default:
		fmt.Fprintf(stderr, "gsnap: %v\n", err)
		return exitError
	}
}

// newDevelopmentLogger mirrors zap.NewDevelopment with output sent to w.
func newDevelopmentLogger(w io.Writer) *zap.Logger {
	enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	core := zapcore.NewCore(enc, zapcore.AddSync(w), zapcore.DebugLevel)
	return zap.New(core, zap.Development(), zap.AddCaller())
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Usage:
  gsnap [-v] render [options] <input.html|url|->   Render HTML to PNG or WebP
  gsnap [-v] compare [options] <a.png> <b.png>     Compare two PNG images
  gsnap [-v] info <file|->                         Describe a PNG or WebP file

Use "-" as input to read from stdin, "-o -" to write to stdout.
compare exits with status 1 when the images differ and 2 on errors.

Run "gsnap <command> -h" for command-specific options.
`)
}

// newFlagSet returns a flag set for a subcommand that reports to stderr.
func newFlagSet(name string, a *app) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

// readInput reads a file, or stdin for "-".
func (a *app) readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(a.stdin)
	}
	return os.ReadFile(path)
}

// writeOutput writes data to a file, or stdout for "-".
func (a *app) writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := a.stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
