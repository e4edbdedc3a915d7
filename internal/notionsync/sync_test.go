package notionsync

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/avolkov/mcp-registry/internal/logger"
	"github.com/jomei/notionapi"
	"github.com/rs/zerolog"
)

// mockNotionService records calls and delegates behavior to overridable funcs.
type mockNotionService struct {
	createCalls []string // database IDs
	updateCalls []string // page IDs
	queryCalls  []string // database IDs

	createFunc func(databaseID string, properties notionapi.Properties) (*notionapi.Page, error)
	updateFunc func(pageID string, properties notionapi.Properties) (*notionapi.Page, error)
	queryFunc  func(databaseID string, query *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
}

func (m *mockNotionService) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	m.createCalls = append(m.createCalls, databaseID)
	if m.createFunc != nil {
		return m.createFunc(databaseID, properties)
	}
	return &notionapi.Page{ID: "created-page"}, nil
}

func (m *mockNotionService) UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error) {
	m.updateCalls = append(m.updateCalls, pageID)
	if m.updateFunc != nil {
		return m.updateFunc(pageID, properties)
	}
	return &notionapi.Page{ID: notionapi.ObjectID(pageID)}, nil
}

func (m *mockNotionService) QueryDatabase(ctx context.Context, databaseID string, query *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	m.queryCalls = append(m.queryCalls, databaseID)
	if m.queryFunc != nil {
		return m.queryFunc(databaseID, query)
	}
	return &notionapi.DatabaseQueryResponse{}, nil
}

// newTestConnector wires a connector directly to a mock service.
func newTestConnector(mock NotionService, defaultDB string) *Connector {
	return NewConnectorWithService(mock, defaultDB, zerolog.Nop())
}

func TestInitializeClient_MissingCredential(t *testing.T) {
	conn := NewConnector("", "db-default", zerolog.Nop())

	_, err := conn.InitializeClient()
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("Expected ErrMissingCredential, got %v", err)
	}
}

func TestFetchRecords_MissingCredential(t *testing.T) {
	conn := NewConnector("", "db-default", zerolog.Nop())

	_, err := conn.FetchRecords(context.Background(), "db-1", nil)
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("Expected ErrMissingCredential, got %v", err)
	}
}

func TestPushRecord_MissingCredential(t *testing.T) {
	conn := NewConnector("", "db-default", zerolog.Nop())

	_, err := conn.PushRecord(context.Background(), "db-1", notionapi.Properties{}, "")
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("Expected ErrMissingCredential, got %v", err)
	}
}

func TestInitializeClient_CachesHandle(t *testing.T) {
	conn := NewConnector("secret-token", "db-default", zerolog.Nop())

	first, err := conn.InitializeClient()
	if err != nil {
		t.Fatalf("InitializeClient failed: %v", err)
	}
	second, err := conn.InitializeClient()
	if err != nil {
		t.Fatalf("Second InitializeClient failed: %v", err)
	}
	if first != second {
		t.Error("Expected the same client handle on repeated initialization")
	}
}

func TestFetchRecords_DefaultDatabaseID(t *testing.T) {
	mock := &mockNotionService{}
	conn := newTestConnector(mock, "db-default")

	if _, err := conn.FetchRecords(context.Background(), "", nil); err != nil {
		t.Fatalf("FetchRecords failed: %v", err)
	}

	if len(mock.queryCalls) != 1 || mock.queryCalls[0] != "db-default" {
		t.Errorf("Expected query against db-default, got %v", mock.queryCalls)
	}
}

func TestFetchRecords_ExplicitDatabaseID(t *testing.T) {
	mock := &mockNotionService{}
	conn := newTestConnector(mock, "db-default")

	if _, err := conn.FetchRecords(context.Background(), "db-explicit", nil); err != nil {
		t.Fatalf("FetchRecords failed: %v", err)
	}

	if len(mock.queryCalls) != 1 || mock.queryCalls[0] != "db-explicit" {
		t.Errorf("Expected query against db-explicit, got %v", mock.queryCalls)
	}
}

func TestFetchRecords_FilterPassedThrough(t *testing.T) {
	var gotQuery *notionapi.DatabaseQueryRequest
	mock := &mockNotionService{
		queryFunc: func(databaseID string, query *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
			gotQuery = query
			return &notionapi.DatabaseQueryResponse{}, nil
		},
	}
	conn := newTestConnector(mock, "db-default")

	filter := &notionapi.DatabaseQueryRequest{PageSize: 25}
	if _, err := conn.FetchRecords(context.Background(), "", filter); err != nil {
		t.Fatalf("FetchRecords failed: %v", err)
	}

	if gotQuery != filter {
		t.Error("Expected the query request to be passed through unchanged")
	}
}

func TestFetchRecords_MapsPages(t *testing.T) {
	mock := &mockNotionService{
		queryFunc: func(databaseID string, query *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
			return &notionapi.DatabaseQueryResponse{
				Results: []notionapi.Page{
					{ID: "page-a"},
					{ID: "page-b"},
				},
			}, nil
		},
	}
	conn := newTestConnector(mock, "db-default")

	records, err := conn.FetchRecords(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("FetchRecords failed: %v", err)
	}

	if len(records) != 2 || records[0].ID != "page-a" || records[1].ID != "page-b" {
		t.Errorf("Expected records [page-a page-b], got %+v", records)
	}
}

func TestFetchRecords_ErrorReturnedUnchanged(t *testing.T) {
	apiErr := errors.New("notion: database not found")
	mock := &mockNotionService{
		queryFunc: func(databaseID string, query *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
			return nil, apiErr
		},
	}
	conn := newTestConnector(mock, "db-default")

	_, err := conn.FetchRecords(context.Background(), "", nil)
	if !errors.Is(err, apiErr) {
		t.Fatalf("Expected the API error unchanged, got %v", err)
	}
	if err.Error() != apiErr.Error() {
		t.Errorf("Expected unwrapped error message, got %q", err.Error())
	}
}

func TestPushRecord_CreateBranch(t *testing.T) {
	created := &notionapi.Page{ID: "new-page"}
	mock := &mockNotionService{
		createFunc: func(databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
			return created, nil
		},
	}
	conn := newTestConnector(mock, "db-default")

	page, err := conn.PushRecord(context.Background(), "db-1", notionapi.Properties{}, "")
	if err != nil {
		t.Fatalf("PushRecord failed: %v", err)
	}

	if page != created {
		t.Error("Expected the create response returned unchanged")
	}
	if len(mock.createCalls) != 1 || mock.createCalls[0] != "db-1" {
		t.Errorf("Expected one create against db-1, got %v", mock.createCalls)
	}
	if len(mock.updateCalls) != 0 {
		t.Errorf("Expected no updates, got %v", mock.updateCalls)
	}
}

func TestPushRecord_CreateUsesDefaultDatabaseID(t *testing.T) {
	mock := &mockNotionService{}
	conn := newTestConnector(mock, "db-default")

	if _, err := conn.PushRecord(context.Background(), "", notionapi.Properties{}, ""); err != nil {
		t.Fatalf("PushRecord failed: %v", err)
	}

	if len(mock.createCalls) != 1 || mock.createCalls[0] != "db-default" {
		t.Errorf("Expected one create against db-default, got %v", mock.createCalls)
	}
}

func TestPushRecord_UpdateBranch(t *testing.T) {
	updated := &notionapi.Page{ID: "page-123"}
	mock := &mockNotionService{
		updateFunc: func(pageID string, properties notionapi.Properties) (*notionapi.Page, error) {
			return updated, nil
		},
	}
	conn := newTestConnector(mock, "db-default")

	page, err := conn.PushRecord(context.Background(), "db-1", notionapi.Properties{}, "page-123")
	if err != nil {
		t.Fatalf("PushRecord failed: %v", err)
	}

	if page != updated {
		t.Error("Expected the update response returned unchanged")
	}
	if len(mock.updateCalls) != 1 || mock.updateCalls[0] != "page-123" {
		t.Errorf("Expected one update against page-123, got %v", mock.updateCalls)
	}
	if len(mock.createCalls) != 0 {
		t.Errorf("Expected no creates, got %v", mock.createCalls)
	}
}

func TestSyncRecords_DefaultDirectionIsPull(t *testing.T) {
	mock := &mockNotionService{}
	conn := newTestConnector(mock, "db-default")

	result, err := conn.SyncRecords(context.Background(), SyncOptions{
		Records: []LocalRecord{{Name: "svc"}},
	})
	if err != nil {
		t.Fatalf("SyncRecords failed: %v", err)
	}

	if len(mock.queryCalls) != 1 {
		t.Errorf("Expected one query, got %d", len(mock.queryCalls))
	}
	if len(mock.createCalls) != 0 || len(mock.updateCalls) != 0 {
		t.Error("Expected no pushes in default pull direction")
	}
	if len(result.Pushed) != 0 || len(result.Errors) != 0 {
		t.Errorf("Expected empty push results, got %+v", result)
	}
}

func TestSyncRecords_UnknownDirection(t *testing.T) {
	mock := &mockNotionService{}
	conn := newTestConnector(mock, "db-default")

	_, err := conn.SyncRecords(context.Background(), SyncOptions{Direction: "sideways"})
	if !errors.Is(err, ErrUnknownDirection) {
		t.Fatalf("Expected ErrUnknownDirection, got %v", err)
	}
	if len(mock.queryCalls) != 0 {
		t.Error("Expected no remote calls for unknown direction")
	}
}

func TestSyncRecords_PushIsolation(t *testing.T) {
	pushErr := errors.New("notion: validation failed")
	mock := &mockNotionService{
		createFunc: func(databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
			name := titleText(properties, "Name")
			if name == "B" {
				return nil, pushErr
			}
			return &notionapi.Page{ID: notionapi.ObjectID("page-" + name)}, nil
		},
	}
	conn := newTestConnector(mock, "db-default")

	records := []LocalRecord{{Name: "A"}, {Name: "B"}, {Name: "C"}}
	result, err := conn.SyncRecords(context.Background(), SyncOptions{
		Direction: DirectionPush,
		Records:   records,
	})
	if err != nil {
		t.Fatalf("SyncRecords failed: %v", err)
	}

	if len(result.Pushed) != 2 {
		t.Fatalf("Expected 2 pushed pages, got %d", len(result.Pushed))
	}
	if result.Pushed[0].ID != "page-A" || result.Pushed[1].ID != "page-C" {
		t.Errorf("Expected pushed pages [page-A page-C], got [%s %s]", result.Pushed[0].ID, result.Pushed[1].ID)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("Expected 1 push error, got %d", len(result.Errors))
	}
	if result.Errors[0].Record.Name != "B" {
		t.Errorf("Expected the failing record B, got %q", result.Errors[0].Record.Name)
	}
	if result.Errors[0].Message != pushErr.Error() {
		t.Errorf("Expected error message %q, got %q", pushErr.Error(), result.Errors[0].Message)
	}
}

func TestSyncRecords_PushUsesPageIDWhenPresent(t *testing.T) {
	mock := &mockNotionService{}
	conn := newTestConnector(mock, "db-default")

	records := []LocalRecord{
		{Name: "existing", NotionPageID: "page-77"},
		{Name: "new"},
	}
	result, err := conn.SyncRecords(context.Background(), SyncOptions{
		Direction: DirectionPush,
		Records:   records,
	})
	if err != nil {
		t.Fatalf("SyncRecords failed: %v", err)
	}

	if len(mock.updateCalls) != 1 || mock.updateCalls[0] != "page-77" {
		t.Errorf("Expected one update against page-77, got %v", mock.updateCalls)
	}
	if len(mock.createCalls) != 1 {
		t.Errorf("Expected one create, got %v", mock.createCalls)
	}
	if len(result.Pushed) != 2 {
		t.Errorf("Expected 2 pushed pages, got %d", len(result.Pushed))
	}
}

func TestSyncRecords_PullFailureIsFatal(t *testing.T) {
	pullErr := errors.New("notion: unauthorized")
	mock := &mockNotionService{
		queryFunc: func(databaseID string, query *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
			return nil, pullErr
		},
	}
	conn := newTestConnector(mock, "db-default")

	result, err := conn.SyncRecords(context.Background(), SyncOptions{
		Direction: DirectionBidirectional,
		Records:   []LocalRecord{{Name: "A"}, {Name: "B"}},
	})

	if !errors.Is(err, pullErr) {
		t.Fatalf("Expected the pull error, got %v", err)
	}
	if result != nil {
		t.Errorf("Expected nil result on pull failure, got %+v", result)
	}
	if len(mock.createCalls) != 0 || len(mock.updateCalls) != 0 {
		t.Error("Expected no push attempts after pull failure")
	}
}

func TestSyncRecords_UsesContextLogger(t *testing.T) {
	mock := &mockNotionService{}
	conn := newTestConnector(mock, "db-default")

	buf := &bytes.Buffer{}
	ctx := logger.WithContext(context.Background(), logger.NewWithWriter(buf))

	if _, err := conn.SyncRecords(ctx, SyncOptions{}); err != nil {
		t.Fatalf("SyncRecords failed: %v", err)
	}

	if !strings.Contains(buf.String(), "Record sync completed") {
		t.Errorf("Expected sync logging on the context logger, got: %s", buf.String())
	}
}

func TestSyncRecords_Bidirectional(t *testing.T) {
	mock := &mockNotionService{
		queryFunc: func(databaseID string, query *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
			return &notionapi.DatabaseQueryResponse{
				Results: []notionapi.Page{{ID: "remote-1"}},
			}, nil
		},
	}
	conn := newTestConnector(mock, "db-default")

	result, err := conn.SyncRecords(context.Background(), SyncOptions{
		Direction: DirectionBidirectional,
		Records:   []LocalRecord{{Name: "A"}},
	})
	if err != nil {
		t.Fatalf("SyncRecords failed: %v", err)
	}

	if len(result.Pulled) != 1 || result.Pulled[0].ID != "remote-1" {
		t.Errorf("Expected one pulled record remote-1, got %+v", result.Pulled)
	}
	if len(result.Pushed) != 1 {
		t.Errorf("Expected one pushed page, got %d", len(result.Pushed))
	}
}
