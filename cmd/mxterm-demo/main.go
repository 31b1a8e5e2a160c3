// Command mxterm-demo drives a synthetic two-hop session on the local
// machine: a LocalSubprocess `sh`, with a second `sh` started by typing it
// into the first, so open/send/expect/close
// and the file-transfer fallback can be exercised without any network
// access — the terminal-engine analogue of cmd/jink-demo's canned config.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mxterm/mxterm/connection"
	"github.com/mxterm/mxterm/filetransfer"
	"github.com/mxterm/mxterm/internal/osadapter"
	"github.com/mxterm/mxterm/terminal"
)

func main() {
	var verbose bool
	flag.BoolVar(&verbose, "v", false, "verbose logging")
	flag.Parse()

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(logger); err != nil {
		fmt.Fprintf(os.Stderr, "demo failed: %v\n", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	linux := osadapter.Builtins()["linux"]

	base := &connection.Spec{
		Proto: connection.ProtoCommand,
		Cmd:   "sh",
		OS:    linux,
	}
	hop2 := &connection.Spec{
		Proto: connection.ProtoCommand,
		Cmd:   "sh",
		OS:    linux,
	}

	core := terminal.New([]*connection.Spec{base, hop2}, terminal.Options{
		UseUniquePrompt: true,
		CloseBaseOnExit: true,
		Logger:          logger,
	})

	fmt.Println("=== opening a two-hop local session ===")
	if err := core.Open(); err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer core.Close()
	fmt.Printf("logged in, %d hop(s) deep\n", core.Depth())

	fmt.Println("\n=== check_output: uname -a ===")
	out, err := core.CheckOutput("uname -a", terminal.CheckOutputOptions{})
	if err != nil {
		return fmt.Errorf("check_output: %w", err)
	}
	fmt.Print(out)

	fmt.Println("\n=== file transfer fallback: base64 round trip ===")
	local := filepath.Join(os.TempDir(), "mxterm-demo-src.txt")
	if err := os.WriteFile(local, []byte("mxterm file transfer demo\n"), 0o644); err != nil {
		return fmt.Errorf("writing demo source file: %w", err)
	}
	defer os.Remove(local)

	remote := "/tmp/mxterm-demo-dst.txt"
	info, err := core.PutFile(local, remote, filetransfer.PutOptions{CheckMD5: true, Replace: true, RemoveIfBadMD5: true})
	if err != nil {
		return fmt.Errorf("put_file: %w", err)
	}
	fmt.Printf("uploaded %s (%d bytes)\n", info.Path, info.Size)

	roundTrip := filepath.Join(os.TempDir(), "mxterm-demo-roundtrip.txt")
	defer os.Remove(roundTrip)
	if err := core.GetFile(remote, roundTrip, filetransfer.GetOptions{Replace: true, CheckMD5: true}); err != nil {
		return fmt.Errorf("get_file: %w", err)
	}
	roundTripped, err := os.ReadFile(roundTrip)
	if err != nil {
		return fmt.Errorf("reading round-tripped file: %w", err)
	}
	fmt.Printf("round-tripped content: %q\n", string(roundTripped))

	fmt.Println("\n=== closing ===")
	return nil
}
