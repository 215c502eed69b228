package reports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"

	"github.com/marwy1000/mkmsearch/pkg/delay"
	"github.com/marwy1000/mkmsearch/pkg/session"
)

const (
	statisticsPath = "/Account/Statistics"
	downloadsPath  = "/Account/Downloads"
	generateAction = "/PostGetAction/Reports_Asynchronous_GetMonthlyPurchaseSummary"
	downloadAction = "/PostGetAction/User_Reporting_DownloadReportFileFromAws"

	// Report filenames encode their period after this marker, as "YYYY-MM-...".
	filenameMarker = "-byPurchaseDate-"
)

var (
	// ErrInput means year and month were not provided together.
	ErrInput = errors.New("year and month must be provided together, or both left out")
	// ErrUnparsableFilename means a report filename does not carry the
	// expected period encoding. The file is skipped, not fatal.
	ErrUnparsableFilename = errors.New("could not derive year and month from filename")
)

// Descriptor is one downloadable report row scraped from the downloads page.
// It only lives for the duration of a download pass.
type Descriptor struct {
	Year      int
	Month     int
	Filename  string
	RequestID string
	Token     string
}

// Orchestrator drives report generation and download against an
// authenticated session.
type Orchestrator struct {
	session *session.Session
	delay   *delay.Policy
	csvDir  string
	logger  *log.Logger
	now     func() time.Time
}

func New(s *session.Session, d *delay.Policy, csvDir string, logger *log.Logger) *Orchestrator {
	return &Orchestrator{
		session: s,
		delay:   d,
		csvDir:  csvDir,
		logger:  logger,
		now:     time.Now,
	}
}

// Generate submits one report-generation request per resolved period. The
// anti-forgery token and user identifiers come from the statistics page.
// Per-period failures are logged and the batch continues.
func (o *Orchestrator) Generate(ctx context.Context, sel Selection) error {
	res, err := o.session.Get(ctx, statisticsPath)
	if err != nil {
		return fmt.Errorf("loading statistics page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return fmt.Errorf("parsing statistics page: %w", err)
	}

	token := doc.Find("input[name='__cmtkn']").AttrOr("value", "")
	if token == "" {
		return fmt.Errorf("statistics page: %w", session.ErrTokenNotFound)
	}
	idUser := doc.Find("input[name='idUser']").AttrOr("value", "")
	priceForBuyer := doc.Find("input[name='priceForBuyer']").AttrOr("value", "")

	periods := sel.Resolve(o.now(), availablePeriods(doc))
	for _, p := range periods {
		form := map[string]string{
			"__cmtkn":       token,
			"idUser":        idUser,
			"priceForBuyer": priceForBuyer,
			"month":         strconv.Itoa(p.Month),
			"year":          strconv.Itoa(p.Year),
			"dateUsed":      "datePurchased",
			"format":        "csv",
		}
		res, err := o.session.PostForm(ctx, generateAction, form)
		if err != nil || !res.IsSuccess() {
			o.logger.Warn("failed to initiate report", "year", p.Year, "month", p.Month, "error", err)
			continue
		}
		o.logger.Info("report generation initiated", "year", p.Year, "month", p.Month)

		if err := o.delay.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Download fetches generated report files into the csv directory. With an
// explicit year and month only the matching file is fetched and an existing
// copy is overwritten; without them, every file not yet on disk is fetched.
func (o *Orchestrator) Download(ctx context.Context, year, month int) error {
	if (year == 0) != (month == 0) {
		return ErrInput
	}
	if year != 0 && (Period{Year: year, Month: month}).Future(o.now()) {
		return fmt.Errorf("%w: %d-%02d is in the future", ErrInput, year, month)
	}
	if err := os.MkdirAll(o.csvDir, 0o755); err != nil {
		return err
	}

	res, err := o.session.Get(ctx, downloadsPath)
	if err != nil {
		return fmt.Errorf("loading downloads page: %w", err)
	}
	descriptors, err := o.listDownloads(res.Body())
	if err != nil {
		return err
	}

	for _, d := range descriptors {
		path := filepath.Join(o.csvDir, d.Filename)

		if year != 0 {
			if d.Year != year || d.Month != month {
				continue
			}
			o.logger.Info("forcing download", "file", d.Filename)
		} else if _, err := os.Stat(path); err == nil {
			o.logger.Info("already downloaded", "file", d.Filename)
			continue
		}

		res, err := o.session.PostForm(ctx, downloadAction, map[string]string{
			"__cmtkn":   d.Token,
			"idRequest": d.RequestID,
		})
		if err != nil || !res.IsSuccess() {
			o.logger.Warn("failed to download", "file", d.Filename, "error", err)
		} else if err := os.WriteFile(path, res.Body(), 0o644); err != nil {
			o.logger.Warn("failed to write", "file", path, "error", err)
		} else {
			o.logger.Info("downloaded", "file", d.Filename)
		}

		if err := o.delay.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// listDownloads extracts one descriptor per download-row form, deduplicated by
// request id. Rows with unparsable filenames are skipped with a warning.
func (o *Orchestrator) listDownloads(body []byte) ([]Descriptor, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing downloads page: %w", err)
	}

	var descriptors []Descriptor
	seen := make(map[string]bool)

	doc.Find(fmt.Sprintf("form[action$='%s']", downloadAction)).Each(func(_ int, row *goquery.Selection) {
		requestID := row.Find("input[name='idRequest']").AttrOr("value", "")
		if requestID == "" || seen[requestID] {
			return
		}
		seen[requestID] = true

		filename := strings.TrimSpace(row.Find("button").First().Text())
		p, err := periodFromFilename(filename)
		if err != nil {
			o.logger.Warn("skipping report row", "file", filename, "error", err)
			return
		}

		descriptors = append(descriptors, Descriptor{
			Year:      p.Year,
			Month:     p.Month,
			Filename:  filename,
			RequestID: requestID,
			Token:     row.Find("input[name='__cmtkn']").AttrOr("value", ""),
		})
	})

	return descriptors, nil
}

func periodFromFilename(filename string) (Period, error) {
	_, rest, found := strings.Cut(filename, filenameMarker)
	if !found {
		return Period{}, fmt.Errorf("%w: %q", ErrUnparsableFilename, filename)
	}
	parts := strings.Split(rest, "-")
	if len(parts) < 2 {
		return Period{}, fmt.Errorf("%w: %q", ErrUnparsableFilename, filename)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrUnparsableFilename, filename)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrUnparsableFilename, filename)
	}
	return Period{Year: year, Month: month}, nil
}

func availablePeriods(doc *goquery.Document) []Period {
	var years, months []int
	doc.Find("select[name='year'] option").Each(func(_ int, opt *goquery.Selection) {
		if v, err := strconv.Atoi(opt.AttrOr("value", "")); err == nil {
			years = append(years, v)
		}
	})
	doc.Find("select[name='month'] option").Each(func(_ int, opt *goquery.Selection) {
		if v, err := strconv.Atoi(opt.AttrOr("value", "")); err == nil {
			months = append(months, v)
		}
	})

	var periods []Period
	for _, y := range years {
		for _, m := range months {
			periods = append(periods, Period{Year: y, Month: m})
		}
	}
	return periods
}
