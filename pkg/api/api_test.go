package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/datawizard/pkg/analytics"
	"github.com/David-Botos/datawizard/pkg/catalog"
	"github.com/David-Botos/datawizard/pkg/cleaner"
	"github.com/David-Botos/datawizard/pkg/config"
	"github.com/David-Botos/datawizard/pkg/converter"
	"github.com/David-Botos/datawizard/pkg/counter"
	"github.com/David-Botos/datawizard/pkg/model"
	"github.com/David-Botos/datawizard/pkg/session"
)

const testCatalog = `[
  {"domain": "Healthcare", "projects": [
    {"title": "Readmission Risk", "description": "Predict hospital readmissions",
     "tech": ["Python"], "datasets": ["MIMIC-III"], "difficulty": "Advanced"},
    {"title": "Symptom Checker", "description": "Rule based triage bot",
     "tech": ["Go"], "datasets": [], "difficulty": "Beginner"}
  ]},
  {"domain": "Finance", "projects": [
    {"title": "Fraud Detection", "description": "Flag suspicious card payments",
     "tech": ["Python", "Spark"], "datasets": [], "difficulty": "Expert"}
  ]}
]`

const peopleCSV = "age,city\n25,nyc\n,\n30,la\n"

type envelope struct {
	Status int             `json:"status"`
	Msg    string          `json:"msg"`
	Data   json.RawMessage `json:"data"`
}

type testServer struct {
	handler  http.Handler
	registry *prometheus.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	conv := converter.NewTypeConverter(logger)

	dc, err := cleaner.NewDataCleaner(conv, nil, logger)
	require.NoError(t, err)

	cat, err := catalog.NewLoader(logger).Load(strings.NewReader(testCatalog), "test", nil)
	require.NoError(t, err)

	visits, err := counter.New(counter.NewFileStore(filepath.Join(t.TempDir(), "visits.txt")), logger)
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	srv, err := NewServer(Deps{
		Server: config.ServerConfig{SessionTTL: time.Hour, MaxUploadBytes: 1 << 20},
		Cleaning: config.CleaningConfig{
			HandleMissing:    true,
			RemoveDuplicates: true,
			StandardizeText:  true,
			FixTypes:         true,
		},
		Converter: conv,
		Cleaner:   dc,
		Sessions:  session.NewStore(time.Hour, catalog.DefaultPaging(), logger),
		Counter:   visits,
		Metrics:   analytics.NewMetrics(logger, registry),
		Catalog:   cat,
		Registry:  registry,
		Logger:    logger,
	})
	require.NoError(t, err)

	return &testServer{handler: srv.Routes(), registry: registry}
}

func (ts *testServer) do(t *testing.T, req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func sessionCookieOf(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", sessionCookie)
	return nil
}

func TestNewServerRequiresDependencies(t *testing.T) {
	_, err := NewServer(Deps{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec, nil)
	assert.Equal(t, "ok", env.Msg)
}

func TestCleanRawBody(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/clean?name=people.csv", strings.NewReader(peopleCSV))
	rec := ts.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out CleanResponse
	decode(t, rec, &out)
	assert.Equal(t, []string{
		"Filled missing numbers in 'age' with median",
		"Filled missing text in 'city' with 'Unknown'",
		"Standardized text in 1 columns",
	}, out.Log)
	assert.Equal(t, "cleaned_people.csv", out.DownloadName)
	assert.Equal(t, 3, out.RowsBefore)
	assert.Equal(t, 3, out.RowsAfter)
	assert.Len(t, out.CleanedPreview, 3)
	assert.Nil(t, out.OriginalPreview[1]["age"])
	assert.Equal(t, 27.5, out.CleanedPreview[1]["age"])
	require.NotNil(t, out.Insights)
	assert.Equal(t, 0, out.Insights.Overview.MissingValues)
	require.NotNil(t, out.Schema)
	require.Len(t, out.Schema.Columns, 2)
	assert.Equal(t, "city", out.Schema.Columns[1].Name)

	cookie := sessionCookieOf(t, rec)
	assert.Equal(t, cookie.Value, out.SessionID)
	assert.Equal(t, out.SessionID, rec.Header().Get(sessionHeader))
}

func TestCleanMultipartUpload(t *testing.T) {
	ts := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "people.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(peopleCSV))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/clean?standardize_text=false", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := ts.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out CleanResponse
	decode(t, rec, &out)
	assert.Equal(t, "people.csv", out.Source)
	assert.NotContains(t, out.Log, "Standardized text in 1 columns")
	assert.Equal(t, "nyc", out.CleanedPreview[0]["city"])
}

func TestCleanDownloadAsCSV(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/clean?name=people.csv&format=csv", strings.NewReader(peopleCSV))
	rec := ts.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Contains(t, rec.Header().Get("Content-Disposition"), "cleaned_people.csv")
	assert.Equal(t, "age,city\n25,Nyc\n27.5,Unknown\n30,La\n", rec.Body.String())
}

func TestCleanRejectsBadInput(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		url  string
		body string
		code int
	}{
		{"empty upload", "/clean", "", http.StatusBadRequest},
		{"too many fields", "/clean", "a,b\n1,2,3\n", http.StatusBadRequest},
		{"bad flag", "/clean?fix_types=maybe", peopleCSV, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, httptest.NewRequest(http.MethodPost, tt.url, strings.NewReader(tt.body)))
			assert.Equal(t, tt.code, rec.Code)
			env := decode(t, rec, nil)
			assert.Equal(t, tt.code, env.Status)
			assert.NotEmpty(t, env.Msg)
		})
	}
}

func TestCleanUploadTooLarge(t *testing.T) {
	ts := newTestServer(t)
	big := "n\n" + strings.Repeat("1\n", 1<<20)
	rec := ts.do(t, httptest.NewRequest(http.MethodPost, "/clean", strings.NewReader(big)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestCleanOutliers(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, httptest.NewRequest(http.MethodPost, "/clean?outlier_column=age", strings.NewReader(peopleCSV)))
	require.Equal(t, http.StatusOK, rec.Code)
	var out CleanResponse
	decode(t, rec, &out)
	require.NotNil(t, out.Outliers)
	assert.Equal(t, 0, out.Outliers.Count)

	rec = ts.do(t, httptest.NewRequest(http.MethodPost, "/clean?outlier_column=city", strings.NewReader(peopleCSV)))
	require.Equal(t, http.StatusOK, rec.Code)
	out = CleanResponse{}
	decode(t, rec, &out)
	assert.Nil(t, out.Outliers)
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "Outlier detection skipped")
}

func TestCleanInfiniteValues(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/clean?name=x.csv&outlier_column=a", strings.NewReader("a,b\n1,2\ninf,3\n"))
	rec := ts.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out CleanResponse
	decode(t, rec, &out)
	assert.Equal(t, "+Inf", out.OriginalPreview[1]["a"])
	assert.Equal(t, "+Inf", out.CleanedPreview[1]["a"])
	assert.Equal(t, 3.0, out.CleanedPreview[1]["b"])

	require.NotNil(t, out.Insights)
	require.Len(t, out.Insights.Numeric, 2)
	assert.Equal(t, "a", out.Insights.Numeric[0].Column)
	assert.Equal(t, 1, out.Insights.Numeric[0].Count, "non-finite values are left out of the summary")
	assert.Equal(t, 1.0, out.Insights.Numeric[0].Max)

	require.NotNil(t, out.Outliers)
	assert.Equal(t, 1, out.Outliers.Count)
	assert.Equal(t, []int{1}, out.Outliers.Rows)
}

func TestProjectBrowsingFlow(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/projects", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookieOf(t, rec)

	var page ProjectsResponse
	decode(t, rec, &page)
	assert.Equal(t, 3, page.Total)
	assert.False(t, page.SearchActive)

	search := `{"min_difficulty": "Advanced", "max_difficulty": "Expert"}`
	rec = ts.do(t, httptest.NewRequest(http.MethodPost, "/projects/search", strings.NewReader(search)), cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page = ProjectsResponse{}
	decode(t, rec, &page)
	assert.Equal(t, cookie.Value, page.SessionID)
	assert.True(t, page.SearchActive)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Readmission Risk", page.Items[0].Title)
	assert.Equal(t, "Fraud Detection", page.Items[1].Title)

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/projects/detail/1", nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	page = ProjectsResponse{}
	decode(t, rec, &page)
	require.NotNil(t, page.Detail)
	assert.Equal(t, "Fraud Detection", page.Detail.Title)
	assert.Equal(t, model.Expert, page.Detail.Difficulty)

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/projects/detail/7", nil), cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/projects/detail/first", nil), cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, httptest.NewRequest(http.MethodDelete, "/projects/detail", nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	page = ProjectsResponse{}
	decode(t, rec, &page)
	assert.Nil(t, page.Detail)
	assert.False(t, page.SearchActive)
	assert.Equal(t, 3, page.Total)
}

func TestProjectSearchRejectsMalformedJSON(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, httptest.NewRequest(http.MethodPost, "/projects/search", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProjectLoadMoreAndReset(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, httptest.NewRequest(http.MethodPost, "/projects/more", nil))
	cookie := sessionCookieOf(t, rec)

	var page ProjectsResponse
	decode(t, rec, &page)
	paging := catalog.DefaultPaging()
	assert.Equal(t, paging.PageSize+paging.Increment, page.Limit)

	rec = ts.do(t, httptest.NewRequest(http.MethodPost, "/projects/reset", nil), cookie)
	page = ProjectsResponse{}
	decode(t, rec, &page)
	assert.Equal(t, paging.PageSize, page.Limit)
}

func TestProjectOptions(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/projects/options", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var opts OptionsResponse
	decode(t, rec, &opts)
	assert.Equal(t, []string{"Finance", "Healthcare"}, opts.Domains)
	assert.Equal(t, []string{"Go", "Python", "Spark"}, opts.Technologies)
	assert.Len(t, opts.Difficulties, 4)
}

func TestVisitsIncrement(t *testing.T) {
	ts := newTestServer(t)

	for want := 1; want <= 2; want++ {
		rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/visits", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var out VisitsResponse
		decode(t, rec, &out)
		assert.Equal(t, want, out.Visits)
		assert.Empty(t, out.Warnings)
	}
}

func TestAnalyticsAndMetrics(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, httptest.NewRequest(http.MethodPost, "/clean", strings.NewReader(peopleCSV)))
	cookie := sessionCookieOf(t, rec)
	ts.do(t, httptest.NewRequest(http.MethodGet, "/visits", nil))

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/analytics", nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var out AnalyticsResponse
	decode(t, rec, &out)
	assert.Equal(t, 1, out.Visits, "reading the count does not increment it")
	assert.Empty(t, out.Warnings)
	assert.Equal(t, 1, out.Summary.FilesProcessed)
	assert.Equal(t, int64(3), out.Summary.TotalRowsProcessed)
	assert.Equal(t, 1, out.Summary.UniqueUsers)

	var names []string
	for _, a := range out.Trail {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{
		analytics.ActionSessionStarted,
		analytics.ActionFileUploaded,
		analytics.ActionFileProcessed,
	}, names)

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "datawizard_files_processed_total 1")
	assert.Contains(t, rec.Body.String(), "datawizard_rows_processed_total 3")
}
