package reports

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"github.com/marwy1000/mkmsearch/pkg/config"
	"github.com/marwy1000/mkmsearch/pkg/delay"
	"github.com/marwy1000/mkmsearch/pkg/session"
)

const downloadsPage = `<html><body>
<form action="/en/Magic/PostGetAction/User_Reporting_DownloadReportFileFromAws" method="post">
  <input type="hidden" name="__cmtkn" value="tok-a">
  <input type="hidden" name="idRequest" value="41">
  <button>PurchasedArticles-byPurchaseDate-2024-04-tester.csv</button>
</form>
<form action="/en/Magic/PostGetAction/User_Reporting_DownloadReportFileFromAws" method="post">
  <input type="hidden" name="__cmtkn" value="tok-a">
  <input type="hidden" name="idRequest" value="41">
  <button>PurchasedArticles-byPurchaseDate-2024-04-tester.csv</button>
</form>
<form action="/en/Magic/PostGetAction/User_Reporting_DownloadReportFileFromAws" method="post">
  <input type="hidden" name="__cmtkn" value="tok-b">
  <input type="hidden" name="idRequest" value="42">
  <button>PurchasedArticles-byPurchaseDate-2024-05-tester.csv</button>
</form>
<form action="/en/Magic/PostGetAction/User_Reporting_DownloadReportFileFromAws" method="post">
  <input type="hidden" name="__cmtkn" value="tok-c">
  <input type="hidden" name="idRequest" value="43">
  <button>WeirdExportName.csv</button>
</form>
</body></html>`

const statisticsPage = `<html><body>
<form>
  <input type="hidden" name="__cmtkn" value="stats-token">
  <input type="hidden" name="idUser" value="777">
  <input type="hidden" name="priceForBuyer" value="1">
  <select name="month">
    <option value="1">January</option>
    <option value="2">February</option>
  </select>
  <select name="year">
    <option value="2023">2023</option>
    <option value="2024">2024</option>
  </select>
</form>
</body></html>`

type fakeReporting struct {
	mux           *http.ServeMux
	downloadPosts []string // idRequest values, in order
	generatePosts []string // "year-month" values, in order
}

func newFakeReporting() *fakeReporting {
	f := &fakeReporting{mux: http.NewServeMux()}

	f.mux.HandleFunc("/en/Magic/Account/Downloads", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, downloadsPage)
	})
	f.mux.HandleFunc("/en/Magic/Account/Statistics", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, statisticsPage)
	})
	f.mux.HandleFunc("/en/Magic/PostGetAction/User_Reporting_DownloadReportFileFromAws", func(w http.ResponseWriter, r *http.Request) {
		id := r.FormValue("idRequest")
		f.downloadPosts = append(f.downloadPosts, id)
		fmt.Fprintf(w, "csv-content-%s", id)
	})
	f.mux.HandleFunc("/en/Magic/PostGetAction/Reports_Asynchronous_GetMonthlyPurchaseSummary", func(w http.ResponseWriter, r *http.Request) {
		f.generatePosts = append(f.generatePosts, r.FormValue("year")+"-"+r.FormValue("month"))
	})

	return f
}

func newTestOrchestrator(t *testing.T, baseURL, csvDir string) *Orchestrator {
	t.Helper()

	sess, err := session.New(session.Options{
		BaseURL:     baseURL + "/en/Magic",
		CookieFile:  filepath.Join(t.TempDir(), "cookies.bin"),
		Credentials: &config.CredentialStore{},
		Delay:       delay.New(0, 0),
		Logger:      log.New(io.Discard),
	})
	require.NoError(t, err)

	o := New(sess, delay.New(0, 0), csvDir, log.New(io.Discard))
	o.now = func() time.Time { return time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC) }
	return o
}

func TestDownloadSkipsExistingFiles(t *testing.T) {
	site := newFakeReporting()
	server := httptest.NewServer(site.mux)
	defer server.Close()

	csvDir := t.TempDir()
	existing := filepath.Join(csvDir, "PurchasedArticles-byPurchaseDate-2024-04-tester.csv")
	require.NoError(t, os.WriteFile(existing, []byte("old-content"), 0o644))

	o := newTestOrchestrator(t, server.URL, csvDir)
	require.NoError(t, o.Download(context.Background(), 0, 0))

	// Duplicate rows collapse to one descriptor, the existing April file is
	// skipped, the unparsable filename is skipped, and May is fetched.
	require.Equal(t, []string{"42"}, site.downloadPosts)

	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	require.Equal(t, "old-content", string(data))

	data, err = os.ReadFile(filepath.Join(csvDir, "PurchasedArticles-byPurchaseDate-2024-05-tester.csv"))
	require.NoError(t, err)
	require.Equal(t, "csv-content-42", string(data))
}

func TestDownloadExplicitPeriodForcesRedownload(t *testing.T) {
	site := newFakeReporting()
	server := httptest.NewServer(site.mux)
	defer server.Close()

	csvDir := t.TempDir()
	existing := filepath.Join(csvDir, "PurchasedArticles-byPurchaseDate-2024-04-tester.csv")
	require.NoError(t, os.WriteFile(existing, []byte("old-content"), 0o644))

	o := newTestOrchestrator(t, server.URL, csvDir)
	require.NoError(t, o.Download(context.Background(), 2024, 4))

	require.Equal(t, []string{"41"}, site.downloadPosts)

	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	require.Equal(t, "csv-content-41", string(data))
}

func TestDownloadRejectsOneSidedPeriod(t *testing.T) {
	o := newTestOrchestrator(t, "http://127.0.0.1:0", t.TempDir())

	require.ErrorIs(t, o.Download(context.Background(), 2024, 0), ErrInput)
	require.ErrorIs(t, o.Download(context.Background(), 0, 4), ErrInput)
}

func TestDownloadRejectsFuturePeriod(t *testing.T) {
	o := newTestOrchestrator(t, "http://127.0.0.1:0", t.TempDir())
	require.ErrorIs(t, o.Download(context.Background(), 2025, 1), ErrInput)
}

func TestGenerateSubmitsResolvedPeriods(t *testing.T) {
	site := newFakeReporting()
	server := httptest.NewServer(site.mux)
	defer server.Close()

	o := newTestOrchestrator(t, server.URL, t.TempDir())

	// All mode crosses the scraped year and month options; nothing here is in
	// the future relative to the injected clock.
	require.NoError(t, o.Generate(context.Background(), Selection{All: true}))
	require.Equal(t, []string{"2023-1", "2023-2", "2024-1", "2024-2"}, site.generatePosts)
}

func TestGenerateSingleMonth(t *testing.T) {
	site := newFakeReporting()
	server := httptest.NewServer(site.mux)
	defer server.Close()

	o := newTestOrchestrator(t, server.URL, t.TempDir())
	require.NoError(t, o.Generate(context.Background(), Selection{Year: 2024, Month: 3}))
	require.Equal(t, []string{"2024-3"}, site.generatePosts)
}
