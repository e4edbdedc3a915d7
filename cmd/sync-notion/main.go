package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/avolkov/mcp-registry/internal/logger"
	"github.com/avolkov/mcp-registry/internal/notionsync"
)

func main() {
	// Initialize structured logger
	log := logger.New()

	// Parse CLI flags
	notionToken := flag.String("notion-token", os.Getenv("NOTION_API_KEY"), "Notion API token (or set NOTION_API_KEY env)")
	notionDBID := flag.String("notion-db-id", os.Getenv("NOTION_DATABASE_ID"), "Notion database ID (or set NOTION_DATABASE_ID env)")
	direction := flag.String("direction", "pull", "Sync direction: pull, push or bidirectional")
	timeout := flag.Duration("timeout", 10*time.Minute, "Overall sync timeout")
	flag.Parse()

	// Validate required flags
	if *notionToken == "" {
		log.Fatal().Msg("Error: --notion-token is required")
	}
	if *notionDBID == "" {
		log.Fatal().Msg("Error: --notion-db-id is required")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	// Add logger to context
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Str("direction", *direction).
		Msg("Starting Notion sync")

	// Initialize the sync connector
	connector := notionsync.NewConnector(*notionToken, *notionDBID, log)

	result, err := connector.SyncRecords(ctx, notionsync.SyncOptions{
		Direction: notionsync.Direction(*direction),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	for _, rec := range result.Pulled {
		local := notionsync.RemoteRecordToLocal(rec)
		log.Info().
			Str("page_id", local.NotionPageID).
			Str("name", local.Name).
			Str("status", local.Status).
			Msg("Pulled record")
	}

	for _, pushErr := range result.Errors {
		log.Warn().
			Str("record", pushErr.Record.Name).
			Str("error", pushErr.Message).
			Msg("Record push failed")
	}

	fmt.Printf("Sync completed: %d pulled, %d pushed, %d errors.\n",
		len(result.Pulled), len(result.Pushed), len(result.Errors))
}
