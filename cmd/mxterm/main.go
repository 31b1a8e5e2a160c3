package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/mxterm/mxterm/connection"
	"github.com/mxterm/mxterm/filetransfer"
	"github.com/mxterm/mxterm/internal/channel"
	"github.com/mxterm/mxterm/internal/osadapter"
	"github.com/mxterm/mxterm/terminal"
)

// version is set via ldflags at build time.
var version = "dev"

const usage = `mxterm - programmable remote-login and terminal automation

USAGE:
    mxterm open <session.yaml>                 # Log in through every hop, report the prompt reached
    mxterm send <session.yaml> <command>        # Log in, run one command, print its output
    mxterm put  <session.yaml> <local> <remote> # Upload a file through the session
    mxterm get  <session.yaml> <remote> <local> # Download a file through the session

OPTIONS:
    -v, --version          Show version
    -h, --help             Show this help
    --debug                Enable debug logging
`

func main() {
	var (
		showVersion bool
		showHelp    bool
		debug       bool
	)

	flag.BoolVar(&showVersion, "version", false, "Show version")
	flag.BoolVar(&showVersion, "v", false, "Show version (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help")
	flag.BoolVar(&showHelp, "h", false, "Show help (shorthand)")
	flag.BoolVar(&debug, "debug", false, "Enable debug output")

	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if showHelp {
		fmt.Print(usage)
		os.Exit(0)
	}
	if showVersion {
		fmt.Printf("mxterm version %s\n", version)
		os.Exit(0)
	}

	channel.SetDebug(debug)
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	args := flag.Args()
	if len(args) == 0 {
		fmt.Print(usage)
		os.Exit(0)
	}

	var err error
	switch args[0] {
	case "open":
		err = cmdOpen(args[1:], logger)
	case "send":
		err = cmdSend(args[1:], logger)
	case "put":
		err = cmdPut(args[1:], logger)
	case "get":
		err = cmdGet(args[1:], logger)
	default:
		fmt.Fprintf(os.Stderr, "mxterm: unknown subcommand %q\n\n", args[0])
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadSession(path string) ([]*connection.Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return connection.LoadSpecs(f, osadapter.Builtins())
}

func openCore(path string, logger *slog.Logger) (*terminal.Core, error) {
	specs, err := loadSession(path)
	if err != nil {
		return nil, err
	}
	core := terminal.New(specs, terminal.Options{
		UseUniquePrompt: true,
		EnableProxyJump: true,
		CloseBaseOnExit: true,
		Logger:          logger,
	})
	if err := core.Open(); err != nil {
		return nil, err
	}
	return core, nil
}

func cmdOpen(args []string, logger *slog.Logger) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: mxterm open <session.yaml>")
	}
	core, err := openCore(args[0], logger)
	if err != nil {
		return err
	}
	defer core.Close()
	fmt.Printf("logged in, %d hop(s) deep\n", core.Depth())
	return nil
}

func cmdSend(args []string, logger *slog.Logger) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: mxterm send <session.yaml> <command>")
	}
	core, err := openCore(args[0], logger)
	if err != nil {
		return err
	}
	defer core.Close()

	out, err := core.CheckOutput(args[1], terminal.CheckOutputOptions{})
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

func cmdPut(args []string, logger *slog.Logger) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: mxterm put <session.yaml> <local> <remote>")
	}
	core, err := openCore(args[0], logger)
	if err != nil {
		return err
	}
	defer core.Close()

	info, err := core.PutFile(args[1], args[2], filetransfer.PutOptions{CheckMD5: true, Replace: true, RemoveIfBadMD5: true})
	if err != nil {
		return err
	}
	fmt.Printf("uploaded %s (%d bytes)\n", info.Path, info.Size)
	return nil
}

func cmdGet(args []string, logger *slog.Logger) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: mxterm get <session.yaml> <remote> <local>")
	}
	core, err := openCore(args[0], logger)
	if err != nil {
		return err
	}
	defer core.Close()

	return core.GetFile(args[1], args[2], filetransfer.GetOptions{CheckMD5: true})
}
