// Copyright 2025 The Stadiums Authors
// SPDX-License-Identifier: Apache-2.0

package stadiums

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/footballde/stadiums/utils/htmlutils"
	"github.com/footballde/stadiums/utils/httputils"
	"github.com/footballde/stadiums/utils/textutils"
	"golang.org/x/net/html"
)

// DefaultPageUserAgent is sent when fetching the source page.
const DefaultPageUserAgent = "Mozilla/5.0 (compatible; StadiumsBot/1.0)"

// DefaultPageURL is the page listing stadiums by capacity.
const DefaultPageURL = "https://en.wikipedia.org/wiki/List_of_association_football_stadiums_by_capacity"

// TableSelector picks the table holding the stadiums.
type TableSelector interface {
	Select(doc *goquery.Document) (*goquery.Selection, error)
}

// TableSelectorFunc adapts a function to the TableSelector interface.
type TableSelectorFunc func(doc *goquery.Document) (*goquery.Selection, error)

// Select calls f(doc).
func (f TableSelectorFunc) Select(doc *goquery.Document) (*goquery.Selection, error) {
	return f(doc)
}

// WikitableSelector matches the tables styled as data tables.
const WikitableSelector = `table[class*="wikitable"]`

// DefaultTableSelector picks the second data table of the page.
var DefaultTableSelector = NthTable(WikitableSelector, 1)

// NthTable selects the index-th (0-based) table matching selector.
func NthTable(selector string, index int) TableSelector {
	return TableSelectorFunc(func(doc *goquery.Document) (*goquery.Selection, error) {
		if index < 0 {
			return nil, &SchemaError{Message: fmt.Sprintf("invalid table index %d", index)}
		}

		tables := doc.Find(selector)
		if n := tables.Length(); n <= index {
			return nil, &SchemaError{
				Message: fmt.Sprintf("expected at least %d tables matching %s, but found %d", index+1, selector, n),
			}
		}

		return tables.Eq(index), nil
	})
}

// CaptionTable selects the first table matching selector whose caption, or
// the section heading preceding it, contains caption (case and accent
// insensitive).
func CaptionTable(selector, caption string) TableSelector {
	want := textutils.LowerASCIIFolding(caption)

	return TableSelectorFunc(func(doc *goquery.Document) (*goquery.Selection, error) {
		var found *goquery.Selection

		doc.Find(selector).EachWithBreak(func(_ int, table *goquery.Selection) bool {
			title := table.ChildrenFiltered("caption").First().Text()
			if title == "" {
				title = table.PrevAllFiltered("h2, h3, div.mw-heading").First().Text()
			}

			if strings.Contains(textutils.LowerASCIIFolding(title), want) {
				found = table

				return false
			}

			return true
		})

		if found == nil {
			return nil, &SchemaError{Message: fmt.Sprintf("no table matching %s titled %q", selector, caption)}
		}

		return found, nil
	})
}

// ExtractMetrics tracks statistics about the extraction.
type ExtractMetrics struct {
	Rows      int
	Skipped   int
	Dropped   int
	Extracted int
}

// Merge combines two ExtractMetrics.
func (m *ExtractMetrics) Merge(o *ExtractMetrics) *ExtractMetrics {
	m.Rows += o.Rows
	m.Skipped += o.Skipped
	m.Dropped += o.Dropped
	m.Extracted += o.Extracted

	return m
}

func cleanText(s string) (string, error) {
	ret := textutils.Clean(s)

	// a REPLACEMENT CHARACTER (U+FFFD) means that we are reading the
	// document with the incorrect charset
	if strings.ContainsRune(ret, utf8.RuneError) {
		return "", fmt.Errorf("charset missmatch found: `%s'", ret)
	}

	return ret, nil
}

// first non empty text node that is a direct child of the cell.
func directText(cell *goquery.Selection) (string, error) {
	for _, n := range cell.Nodes {
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if child.Type != html.TextNode {
				continue
			}

			s, err := cleanText(child.Data)
			if err != nil || s != "" {
				return s, err
			}
		}
	}

	return "", nil
}

// first non empty link text of the cell.
func linkText(cell *goquery.Selection) (string, error) {
	var ret string

	var err error

	cell.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		ret, err = cleanText(a.Text())

		return err == nil && ret == ""
	})

	return ret, err
}

// Cells mixing text and links ("<a>Manchester</a>, Greater Manchester") are
// read whole, footnotes excluded. Cells holding only links use the first
// link text.
func directOrLinkText(cell *goquery.Selection) (string, error) {
	s, err := directText(cell)
	if err != nil {
		return "", err
	}

	if s == "" {
		return linkText(cell)
	}

	whole := cell.Clone()
	whole.Find("sup, style").Remove()

	return cleanText(whole.Text())
}

func parseRow(cells *goquery.Selection) (RawStadiumRow, error) {
	var row RawStadiumRow

	var err error

	if row.StadiumName, err = linkText(cells.Eq(0)); err != nil {
		return row, fmt.Errorf("stadium: %w", err)
	}

	if row.StadiumName == "" {
		return row, nil
	}

	if row.CapacityText, err = directText(cells.Eq(1)); err != nil {
		return row, fmt.Errorf("capacity: %w", err)
	}

	if row.Region, err = directText(cells.Eq(2)); err != nil {
		return row, fmt.Errorf("region: %w", err)
	}

	if row.Country, err = directOrLinkText(cells.Eq(3)); err != nil {
		return row, fmt.Errorf("country: %w", err)
	}

	if row.City, err = directOrLinkText(cells.Eq(4)); err != nil {
		return row, fmt.Errorf("city: %w", err)
	}

	return row, nil
}

// The selected table is positional. When the page layout changes the
// header stops naming the columns we read. A header that doesn't decode
// means the whole document was read with the wrong charset.
func checkHeader(header *goquery.Selection) error {
	var sb strings.Builder

	for _, n := range header.Nodes {
		if err := htmlutils.Node2string(n, &sb); err != nil {
			return &SchemaError{Message: fmt.Sprintf("table header: %s", err)}
		}
	}

	text := textutils.LowerASCIIFolding(sb.String())
	for _, label := range []string{"stadium", "capacity"} {
		if !strings.Contains(text, label) {
			log.Printf("Warning: the selected table header doesn't mention %q: %q", label, text)
		}
	}

	return nil
}

// ExtractDocument parses the stadium rows of an HTML document. Malformed rows
// are logged and skipped; rows lacking a name, capacity or country are
// dropped.
func ExtractDocument(n *html.Node, selector TableSelector) ([]RawStadiumRow, *ExtractMetrics, error) {
	if selector == nil {
		selector = DefaultTableSelector
	}

	metrics := &ExtractMetrics{}

	table, err := selector.Select(goquery.NewDocumentFromNode(n))
	if err != nil {
		return nil, metrics, err
	}

	rows := table.Find("tr")
	if rows.Length() < 2 {
		return nil, metrics, &SchemaError{Message: "no data rows found in the table"}
	}

	if err := checkHeader(rows.First()); err != nil {
		return nil, metrics, err
	}

	rows = rows.Slice(1, goquery.ToEnd)
	metrics.Rows = rows.Length()

	var ret []RawStadiumRow

	rows.Each(func(i int, tr *goquery.Selection) {
		cells := tr.ChildrenFiltered("td")
		if cells.Length() == 0 {
			log.Printf("Warning: Row %d has no data cells, skipping", i+1)

			metrics.Skipped++

			return
		}

		row, err := parseRow(cells)
		if err != nil {
			log.Printf("Error processing row %d: %s", i+1, err)

			metrics.Skipped++

			return
		}

		if row.StadiumName == "" {
			log.Printf("Warning: Row %d has no stadium name, skipping", i+1)

			metrics.Skipped++

			return
		}

		if !row.complete() {
			metrics.Dropped++

			return
		}

		ret = append(ret, row)
	})

	if metrics.Dropped > 0 {
		log.Printf("Removed %d rows with missing essential data", metrics.Dropped)
	}

	metrics.Extracted = len(ret)
	if len(ret) == 0 {
		return nil, metrics, ErrEmptyResult
	}

	return ret, metrics, nil
}

// ExtractorOptions configures an Extractor.
type ExtractorOptions struct {
	// UserAgent is the User-Agent header to use in HTTP requests
	UserAgent string

	// Timeout of each attempt of the page fetch. Defaults to 10s.
	Timeout time.Duration

	// Retry policy of the page fetch. Defaults to a single attempt.
	Retry httputils.RetryPolicy

	// Selector picks the stadiums table. Defaults to DefaultTableSelector.
	Selector TableSelector

	// Enables light tracing of HTTP requests and responses
	EnableHTTPTrace bool

	// Enables full HTTP body tracing
	EnableHTTPBodyTrace bool

	// Transport overrides the base transport.
	Transport http.RoundTripper
}

// Extractor fetches the source page and parses its stadiums table.
type Extractor struct {
	client   *http.Client
	selector TableSelector
	Metrics  ExtractMetrics
}

// NewExtractor creates a new Extractor.
func NewExtractor(options *ExtractorOptions) *Extractor {
	if options == nil {
		options = &ExtractorOptions{}
	}

	var httpLogWriter io.Writer
	if options.EnableHTTPTrace {
		httpLogWriter = os.Stderr
	}

	userAgent := DefaultPageUserAgent
	if options.UserAgent != "" {
		userAgent = options.UserAgent
	}

	timeout := options.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	selector := options.Selector
	if selector == nil {
		selector = DefaultTableSelector
	}

	return &Extractor{
		client: httputils.NewClient(httputils.ClientOptions{
			UserAgent:      userAgent,
			Accept:         "text/html",
			AttemptTimeout: timeout,
			Retry:          options.Retry,
			TraceWriter:    httpLogWriter,
			TraceBody:      options.EnableHTTPBodyTrace,
			Transport:      options.Transport,
		}),
		selector: selector,
	}
}

func (e *Extractor) fetch(ctx context.Context, url string) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	defer resp.Body.Close()

	r, err := htmlutils.AsReader(resp)
	if err != nil {
		var statusErr *htmlutils.StatusError
		if errors.As(err, &statusErr) {
			return nil, &FetchError{URL: url, StatusCode: statusErr.StatusCode, Err: err}
		}

		return nil, &FetchError{URL: url, Err: err}
	}

	n, err := htmlutils.AsNode(r)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	return n, nil
}

// Extract fetches url and returns its stadium rows.
func (e *Extractor) Extract(ctx context.Context, url string) ([]RawStadiumRow, error) {
	log.Printf("Loading page %s", url)

	n, err := e.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	rows, metrics, err := ExtractDocument(n, e.selector)
	e.Metrics.Merge(metrics)

	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", url, err)
	}

	log.Printf(
		"Extraction complete - %d stadiums from %d rows, %d skipped and %d dropped",
		metrics.Extracted,
		metrics.Rows,
		metrics.Skipped,
		metrics.Dropped,
	)

	return rows, nil
}
