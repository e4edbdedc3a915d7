package notionsync

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/avolkov/mcp-registry/internal/logger"
	"github.com/jomei/notionapi"
	"github.com/rs/zerolog"
)

// ErrMissingCredential is returned when an operation needs the Notion
// client but no API key is configured.
var ErrMissingCredential = errors.New("notion api key is not configured")

// ErrUnknownDirection is returned when SyncOptions carries a direction
// outside the supported set.
var ErrUnknownDirection = errors.New("unknown sync direction")

// Direction selects which phases a sync invocation runs.
type Direction string

const (
	// DirectionPull fetches remote records only.
	DirectionPull Direction = "pull"
	// DirectionPush pushes local records only.
	DirectionPush Direction = "push"
	// DirectionBidirectional pulls first, then pushes.
	DirectionBidirectional Direction = "bidirectional"
)

// SyncOptions configures one SyncRecords invocation.
type SyncOptions struct {
	// DatabaseID overrides the connector's default database when set.
	DatabaseID string
	// Direction defaults to DirectionPull when empty.
	Direction Direction
	// Records are the local records to push, in order.
	Records []LocalRecord
}

// PushError captures one failed push inside a batch sync.
type PushError struct {
	Record  LocalRecord
	Message string
}

// SyncResult accumulates the outcome of one SyncRecords invocation.
// Pushed holds raw Notion responses in the order the pushes succeeded;
// Errors holds the records whose push failed, in input order.
type SyncResult struct {
	Pulled []RemoteRecord
	Pushed []*notionapi.Page
	Errors []PushError
}

// Connector owns the lazily constructed Notion client handle and exposes
// the fetch, push and sync operations. The handle is built on first use
// under a mutex, so concurrent callers share a single client. A Connector
// without a credential stays usable for construction; operations fail
// with ErrMissingCredential.
type Connector struct {
	apiKey            string
	defaultDatabaseID string
	log               zerolog.Logger

	mu     sync.Mutex
	client NotionService
}

// NewConnector creates a Connector. The API key is not validated here:
// client construction is deferred to the first operation that needs it.
func NewConnector(apiKey, defaultDatabaseID string, log zerolog.Logger) *Connector {
	return &Connector{
		apiKey:            apiKey,
		defaultDatabaseID: defaultDatabaseID,
		log:               log,
	}
}

// NewConnectorWithService creates a Connector backed by an existing
// service handle, bypassing lazy construction. Intended for tests and
// callers that manage their own client.
func NewConnectorWithService(service NotionService, defaultDatabaseID string, log zerolog.Logger) *Connector {
	return &Connector{
		defaultDatabaseID: defaultDatabaseID,
		log:               log,
		client:            service,
	}
}

// InitializeClient returns the cached Notion client, constructing it on
// first call. Returns ErrMissingCredential when no API key is configured;
// a failed initialization is not cached.
func (c *Connector) InitializeClient() (NotionService, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client, nil
	}
	if c.apiKey == "" {
		return nil, ErrMissingCredential
	}

	c.client = NewNotionClient(c.apiKey)
	c.log.Debug().Msg("Initialized Notion client")

	return c.client, nil
}

// FetchRecords queries the given database and returns its records.
// An empty databaseID falls back to the connector's default. The query
// request is passed through opaquely; nil means no filter.
//
// Only the first page of results is returned: no cursor follow-up is
// performed, so databases larger than one API page are truncated.
func (c *Connector) FetchRecords(ctx context.Context, databaseID string, query *notionapi.DatabaseQueryRequest) ([]RemoteRecord, error) {
	client, err := c.InitializeClient()
	if err != nil {
		return nil, err
	}

	dbID := c.databaseIDOrDefault(databaseID)

	resp, err := client.QueryDatabase(ctx, dbID, query)
	if err != nil {
		log := logger.FromContextOr(ctx, c.log)
		log.Error().
			Err(err).
			Str("database_id", dbID).
			Msg("Failed to query Notion database")
		return nil, err
	}

	records := make([]RemoteRecord, 0, len(resp.Results))
	for _, page := range resp.Results {
		records = append(records, PageToRemoteRecord(page))
	}

	return records, nil
}

// PushRecord writes one set of properties to Notion. A non-empty pageID
// updates that page; otherwise a new page is created under the database
// (with the same default fallback as FetchRecords). The raw Notion
// response is returned unchanged.
func (c *Connector) PushRecord(ctx context.Context, databaseID string, properties notionapi.Properties, pageID string) (*notionapi.Page, error) {
	client, err := c.InitializeClient()
	if err != nil {
		return nil, err
	}

	if pageID != "" {
		page, err := client.UpdatePage(ctx, pageID, properties)
		if err != nil {
			log := logger.FromContextOr(ctx, c.log)
			log.Error().
				Err(err).
				Str("page_id", pageID).
				Msg("Failed to update Notion page")
			return nil, err
		}
		return page, nil
	}

	dbID := c.databaseIDOrDefault(databaseID)

	page, err := client.CreatePage(ctx, dbID, properties)
	if err != nil {
		log := logger.FromContextOr(ctx, c.log)
		log.Error().
			Err(err).
			Str("database_id", dbID).
			Msg("Failed to create Notion page")
		return nil, err
	}

	return page, nil
}

// SyncRecords runs one synchronization pass.
//
// Pull and bidirectional directions fetch the database once with no
// filter. A pull failure aborts the whole call: the error propagates and
// no pushes are attempted.
//
// Push and bidirectional directions push each record in input order,
// updating when the record carries a page ID and creating otherwise. A
// failed push is recorded in the result's Errors and never aborts the
// batch. There is no transactional guarantee across the two phases.
func (c *Connector) SyncRecords(ctx context.Context, opts SyncOptions) (*SyncResult, error) {
	direction := opts.Direction
	if direction == "" {
		direction = DirectionPull
	}

	switch direction {
	case DirectionPull, DirectionPush, DirectionBidirectional:
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownDirection, direction)
	}

	log := logger.FromContextOr(ctx, c.log)

	log.Info().
		Str("direction", string(direction)).
		Int("record_count", len(opts.Records)).
		Msg("Starting record sync")

	result := &SyncResult{}

	if direction == DirectionPull || direction == DirectionBidirectional {
		pulled, err := c.FetchRecords(ctx, opts.DatabaseID, nil)
		if err != nil {
			// Pull failures are fatal to the whole sync.
			return nil, err
		}
		result.Pulled = pulled
	}

	if direction == DirectionPush || direction == DirectionBidirectional {
		for _, rec := range opts.Records {
			props := RecordToNotionProperties(rec)

			page, err := c.PushRecord(ctx, opts.DatabaseID, props, rec.NotionPageID)
			if err != nil {
				log.Warn().
					Err(err).
					Str("record_name", rec.Name).
					Str("page_id", rec.NotionPageID).
					Msg("Failed to push record, continuing with batch")
				result.Errors = append(result.Errors, PushError{
					Record:  rec,
					Message: err.Error(),
				})
				continue
			}

			result.Pushed = append(result.Pushed, page)
		}
	}

	log.Info().
		Int("pulled", len(result.Pulled)).
		Int("pushed", len(result.Pushed)).
		Int("errors", len(result.Errors)).
		Msg("Record sync completed")

	return result, nil
}

func (c *Connector) databaseIDOrDefault(databaseID string) string {
	if databaseID != "" {
		return databaseID
	}
	return c.defaultDatabaseID
}
