package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/izzyreal/stitch/internal/server"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "server":
		err = server.Run(ctx)
	case "search":
		err = runSearch(os.Args[2:], os.Stdout)
	case "import-catalog":
		err = runImportCatalog(os.Args[2:], os.Stdout)
	case "discover":
		err = runDiscover(ctx, os.Args[2:], os.Stdout)
	case "help", "-h", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "stitch: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `stitch - game storefront catalog server

Usage:
  stitch <command> [flags]

Commands:
  server          Run the storefront HTTP/gRPC server
  search          Query a catalog from the command line
  import-catalog  Snapshot a YAML/JSON catalog into SQLite
  discover        List storefront servers on the local network
  help            Show this help

Configuration is read from STITCH_CONFIG (YAML) and STITCH_* variables.
`)
}
