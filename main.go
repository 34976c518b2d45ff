package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/cogpy/chainlex/internal/manager"
	"github.com/cogpy/chainlex/pkg/mcp"
	"github.com/cogpy/chainlex/pkg/server"
)

func main() {
	// Define flags
	ingestMode := flag.Bool("ingest", false, "parse a corpus and persist its snapshot (requires corpus ID argument)")
	serverMode := flag.Bool("server", false, "run REST API server")
	mcpMode := flag.Bool("mcp", false, "run MCP server on stdio (requires corpus ID argument)")
	watchMode := flag.Bool("watch", false, "rebuild on source changes (with --server or --mcp)")
	baseFlag := flag.String("base", "./corpora", "base directory holding one subdirectory per corpus")

	flag.Parse()

	_ = godotenv.Load()

	baseDir := *baseFlag
	args := flag.Args()

	mgr := manager.NewCorpusManager(baseDir, slog.Default())
	defer mgr.CloseAll()

	if *ingestMode {
		if len(args) != 1 {
			fmt.Println("Error: --ingest requires exactly one argument: <corpus_id>")
			fmt.Println("Usage: chainlex --ingest <corpus_id>")
			os.Exit(1)
		}
		corp, err := mgr.Get(args[0])
		if err != nil {
			log.Fatalf("Failed to open corpus: %v", err)
		}
		if err := corp.Rebuild(); err != nil {
			log.Fatalf("Ingestion failed: %v", err)
		}
		ix, err := corp.Index()
		if err != nil {
			log.Fatalf("Index unavailable after build: %v", err)
		}
		stats := ix.Stats()
		fmt.Printf("Indexed %d records (%d principles) across %d frameworks\n",
			stats.TotalRecords, stats.TotalPrinciples, len(stats.Frameworks))
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *mcpMode {
		if len(args) != 1 {
			fmt.Println("Error: --mcp requires exactly one argument: <corpus_id>")
			fmt.Println("Usage: chainlex --mcp <corpus_id>")
			os.Exit(1)
		}
		corp, err := mgr.Get(args[0])
		if err != nil {
			log.Fatalf("Failed to open corpus: %v", err)
		}
		if *watchMode {
			if err := corp.Watch(ctx); err != nil {
				log.Fatalf("Watch failed: %v", err)
			}
		}
		if err := mcp.Run(ctx, corp); err != nil {
			log.Fatalf("MCP server failed: %v", err)
		}
		return
	}

	if *serverMode {
		fmt.Printf("Starting REST API Server. Corpus root: %s\n", baseDir)

		if *watchMode {
			list, err := mgr.List()
			if err != nil {
				log.Fatalf("Failed to list corpora: %v", err)
			}
			for _, meta := range list {
				corp, err := mgr.Get(meta.ID)
				if err != nil {
					log.Printf("Skipping corpus %s: %v", meta.ID, err)
					continue
				}
				if err := corp.Watch(ctx); err != nil {
					log.Printf("Watch failed for corpus %s: %v", meta.ID, err)
				}
			}
		}

		srv := server.NewServer(mgr)
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(":" + port); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
		return
	}

	flag.Usage()
	os.Exit(1)
}
