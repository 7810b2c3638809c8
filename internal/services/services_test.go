package services

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-count/internal/cache"
	"stock-count/internal/inference"
	"stock-count/internal/ledger"
	"stock-count/internal/models"
	"stock-count/internal/reconcile"
	"stock-count/internal/session"
)

const stockList = "id,brand,description,location,qty\n" +
	",,,,[E]Close SC\n" +
	"P001,Acme,Widget,Bay1,10\n" +
	"P002,Bolt,Nut,Bay2,5\n" +
	"P003,Gordons,London Dry Gin,Cellar,12\n"

type recordingPublisher struct {
	events []models.Event
}

func (r *recordingPublisher) Publish(e models.Event) { r.events = append(r.events, e) }

func newState(t *testing.T) (*session.State, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	st := session.NewStore(time.Hour).Create()
	_, err := NewImportService(pub).Import(context.Background(), st, "stock.csv", []byte(stockList))
	require.NoError(t, err)
	return st, pub
}

func TestImport_Summary(t *testing.T) {
	pub := &recordingPublisher{}
	st := session.NewStore(time.Hour).Create()

	summary, err := NewImportService(pub).Import(context.Background(), st, "stock.csv", []byte(stockList))
	require.NoError(t, err)

	assert.Equal(t, "standard", summary.Strategy)
	assert.Equal(t, ",", summary.Delimiter)
	assert.Equal(t, 3, summary.Rows)
	assert.Equal(t, 1, summary.RowsDropped)
	assert.Equal(t, "id", summary.Mapping.ProductID)
	assert.Equal(t, "qty", summary.Mapping.ExpectedCount)
	assert.NotEmpty(t, summary.Notices)

	assert.True(t, st.HasTable())
	assert.Equal(t, "stock.csv", st.Filename)
	require.Len(t, pub.events, 1)
	assert.Equal(t, models.EventImport, pub.events[0].Type)
}

func TestImport_FailureKeepsPreviousTable(t *testing.T) {
	st, pub := newState(t)
	svc := NewImportService(pub)

	_, err := svc.Import(context.Background(), st, "bad.csv", []byte("sku,colour\nA,red\nA,blue\n"))
	assert.ErrorIs(t, err, inference.ErrMissingColumns)

	_, err = svc.Import(context.Background(), st, "empty.csv", []byte("  \n"))
	assert.ErrorIs(t, err, inference.ErrEmptyTable)

	_, err = svc.Import(context.Background(), st, "dupes.csv", []byte("id,description,qty\nA,x,1\nA,y,2\n"))
	assert.ErrorIs(t, err, inference.ErrDuplicateProductIDs)

	assert.Equal(t, "stock.csv", st.Filename)
	assert.Equal(t, 3, st.Table.Len())
	assert.Equal(t, models.EventImportFailed, pub.events[len(pub.events)-1].Type)
}

func TestCountService_RecordAndSummary(t *testing.T) {
	st, pub := newState(t)
	svc := NewCountService(nil, pub)
	ctx := context.Background()

	_, err := svc.Record(ctx, st, RecordInput{ProductID: "P001", Count: decimal.NewFromInt(5), Location: "Bar 1"})
	require.NoError(t, err)
	_, err = svc.Record(ctx, st, RecordInput{ProductID: "P001", Count: decimal.NewFromInt(3), Location: "Cellar", Note: "back shelf"})
	require.NoError(t, err)

	_, err = svc.Record(ctx, st, RecordInput{ProductID: "NOPE", Count: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, ledger.ErrUnknownProduct)

	require.NoError(t, svc.SetClosed(st, "P001", true))

	summary, err := svc.Summary(st)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalItems)
	assert.Equal(t, 1, summary.CountedItems)
	assert.Equal(t, 33.3, summary.CompletionPct)
	assert.Equal(t, 1, summary.ClosedItems)
	require.Len(t, summary.SessionTotals, 1)
	assert.Equal(t, "8", summary.SessionTotals[0].Total.String())

	products, err := svc.Products(st)
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "8", products[0].Total.String())
	assert.Equal(t, "-2", products[0].Variance.String())
	assert.True(t, products[0].Counted)
	assert.True(t, products[0].Closed)
	assert.False(t, products[1].Counted)
}

func TestCountService_ProductDetailAndSessions(t *testing.T) {
	st, _ := newState(t)
	svc := NewCountService(nil, nil)
	ctx := context.Background()

	_, err := svc.Record(ctx, st, RecordInput{ProductID: "P002", Count: decimal.NewFromInt(4)})
	require.NoError(t, err)
	_, err = svc.StartSession(ctx, st, "Week 2")
	require.NoError(t, err)
	_, err = svc.Record(ctx, st, RecordInput{ProductID: "P002", Count: decimal.NewFromInt(6)})
	require.NoError(t, err)

	detail, err := svc.Product(st, "P002")
	require.NoError(t, err)
	assert.Equal(t, "10", detail.Total.String())
	assert.Len(t, detail.Entries, 2)
	require.NotNil(t, detail.Comparison)
	assert.Equal(t, "Week 2", detail.Comparison.CurrentSession)
	assert.Equal(t, models.TrendUp, detail.Comparison.Trend)

	_, err = svc.Product(st, "NOPE")
	assert.ErrorIs(t, err, ledger.ErrUnknownProduct)

	sessions, err := svc.Sessions(st)
	require.NoError(t, err)
	assert.Equal(t, "Week 2", sessions.Current.Name)
	assert.Len(t, sessions.Archived, 2)
	assert.Len(t, sessions.Totals, 2)
}

func TestServices_RequireTable(t *testing.T) {
	st := session.NewStore(time.Hour).Create()
	ctx := context.Background()

	_, err := NewCountService(nil, nil).Record(ctx, st, RecordInput{ProductID: "P001"})
	assert.ErrorIs(t, err, session.ErrNoTable)
	_, err = NewSearchService().Search(st, "x")
	assert.ErrorIs(t, err, session.ErrNoTable)
	_, err = NewExportService(nil, time.Minute, nil).Export(ctx, st, models.ReportStandard)
	assert.ErrorIs(t, err, session.ErrNoTable)
}

func TestSearchService_RemembersQueries(t *testing.T) {
	st, _ := newState(t)
	svc := NewSearchService()

	results, err := svc.Search(st, "gin")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "P003", results[0].Product.ProductID)

	results, err = svc.Search(st, "   ")
	require.NoError(t, err)
	assert.Empty(t, results)

	assert.Equal(t, []string{"gin"}, svc.Recent(st))
}

func TestExportService_WritesTotals(t *testing.T) {
	st, pub := newState(t)
	counts := NewCountService(nil, nil)
	ctx := context.Background()
	_, err := counts.Record(ctx, st, RecordInput{ProductID: "P001", Count: decimal.NewFromInt(5)})
	require.NoError(t, err)
	_, err = counts.Record(ctx, st, RecordInput{ProductID: "P001", Count: decimal.NewFromInt(3)})
	require.NoError(t, err)

	svc := NewExportService(nil, time.Minute, pub)
	result, err := svc.Export(ctx, st, models.ReportStandard)
	require.NoError(t, err)

	assert.Contains(t, string(result.Data), "P001,Acme,Widget,Bay1,8\n")
	assert.Contains(t, string(result.Data), "P002,Bolt,Nut,Bay2,0\n")
	assert.True(t, strings.HasPrefix(result.Filename, "inventory_report_"))
	assert.False(t, result.Cached)
	assert.Equal(t, 3, result.Report.Written)

	counted, err := svc.Export(ctx, st, models.ReportCounted)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(counted.Data), "\n"))
}

type memCache map[string][]byte

func (m memCache) Get(_ context.Context, key string) ([]byte, bool) {
	data, ok := m[key]
	return data, ok
}

func (m memCache) Set(_ context.Context, key string, data []byte, _ time.Duration) {
	m[key] = data
}

func TestExportService_CachedExportKeepsNotices(t *testing.T) {
	st := session.NewStore(time.Hour).Create()
	raw := stockList + "P004,Acme,Broken,Bay1,n/a\n"
	_, err := NewImportService(nil).Import(context.Background(), st, "stock.csv", []byte(raw))
	require.NoError(t, err)

	svc := NewExportService(nil, time.Minute, nil)
	svc.Cache = memCache{}

	first, err := svc.Export(context.Background(), st, models.ReportStandard)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	require.Len(t, first.Report.Notices(), 1)

	second, err := svc.Export(context.Background(), st, models.ReportStandard)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Data, second.Data)
	require.NotNil(t, second.Report)
	assert.Equal(t, first.Report.Notices(), second.Report.Notices())
}

func TestExportService_CacheWithoutReportRebuilds(t *testing.T) {
	st, _ := newState(t)
	mem := memCache{}
	mem[cache.ExportKey(st.ID, string(models.ReportStandard), st.Ledger.Version())] = []byte("stale")

	svc := NewExportService(nil, time.Minute, nil)
	svc.Cache = mem

	result, err := svc.Export(context.Background(), st, models.ReportStandard)
	require.NoError(t, err)
	assert.False(t, result.Cached)
	assert.Contains(t, string(result.Data), "P001,Acme,Widget,Bay1,0\n")
}

func TestExportService_MissingMarker(t *testing.T) {
	st := session.NewStore(time.Hour).Create()
	raw := "id,description,qty\nx,y,z\nA,Widget,1\n"
	_, err := NewImportService(nil).Import(context.Background(), st, "nomarker.csv", []byte(raw))
	require.NoError(t, err)

	result, err := NewExportService(nil, time.Minute, nil).Export(context.Background(), st, models.ReportStandard)
	assert.ErrorIs(t, err, reconcile.ErrMarkerNotFound)
	assert.Nil(t, result)
}

func TestExportFilename(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.Local)
	assert.Equal(t, "inventory_report_20240301_0930.csv", ExportFilename(models.ReportStandard, at))
	assert.Equal(t, "counted_report_20240301_0930.csv", ExportFilename(models.ReportCounted, at))
}

func TestReportService_CanonicalCSV(t *testing.T) {
	st, _ := newState(t)
	counts := NewCountService(nil, nil)
	_, err := counts.Record(context.Background(), st, RecordInput{ProductID: "P002", Count: decimal.RequireFromString("2.5")})
	require.NoError(t, err)

	svc := NewReportService(counts, nil, time.Minute)
	data, err := svc.CanonicalCSV(st, models.ReportStandard)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "product_id,brand,description,location,expected_count,product_name,brand_and_description,counted", lines[0])
	assert.Equal(t, "P002,Bolt,Nut,Bay2,5,Bolt - Nut,Bolt - Nut,2.5", lines[2])

	data, err = svc.CanonicalCSV(st, models.ReportCounted)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 2)
}

func TestReportService_SummaryPDF(t *testing.T) {
	st, _ := newState(t)
	counts := NewCountService(nil, nil)
	svc := NewReportService(counts, nil, time.Minute)

	data, err := svc.SummaryPDF(context.Background(), st, models.ReportStandard)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Gin", truncate("Gin", 5))
	assert.Equal(t, "Crème", truncate("Crème", 5))

	cut := truncate("Crème brûlée liqueur", 8)
	assert.Equal(t, "Crème...", cut)
	assert.True(t, utf8.ValidString(truncate("ééééééééé", 6)))
}

func TestCompletion(t *testing.T) {
	assert.Zero(t, completion(0, 0))
	assert.Equal(t, 66.7, completion(2, 3))
	assert.Equal(t, 100.0, completion(4, 4))
}
