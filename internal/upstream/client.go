package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	defaultTimeout = 20 * time.Second

	// maxDateSpanDays is the widest date range the upstream service answers
	// reliably. Wider requests drop the date constraint instead of failing.
	maxDateSpanDays = 30

	dateParamLayout = "200601020000"
)

// Page is one page of raw upstream records.
type Page struct {
	Items      []Item
	PageNo     int
	TotalCount int
}

// Client queries the procurement announcement API.
type Client struct {
	http       *http.Client
	baseURL    string
	serviceKey string
	logger     *slog.Logger
}

// NewClient wires an HTTP client; httpClient may be nil.
func NewClient(baseURL, serviceKey string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{http: httpClient, baseURL: baseURL, serviceKey: serviceKey, logger: logger}
}

// Fetch returns one page of announcements for the date range and detail
// classification code. The caller drives pagination and aggregation across
// codes; the client knows nothing about either.
func (c *Client) Fetch(ctx context.Context, startDate, endDate time.Time, pageNo, pageSize int, detailCode string) (*Page, error) {
	reqURL, err := c.buildURL(startDate, endDate, pageNo, pageSize, detailCode)
	if err != nil {
		return nil, err
	}

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	verdict := validateEnvelope(doc)
	if !verdict.ok {
		if verdict.shape == shapeUnknown {
			c.logger.Error("upstream envelope not recognized", "detail", verdict.msg)
			return nil, fmt.Errorf("upstream: %s", verdict.msg)
		}
		return nil, fmt.Errorf("upstream result code %q: %s", verdict.code, verdict.msg)
	}

	return extractPage(doc, pageNo)
}

func (c *Client) buildURL(startDate, endDate time.Time, pageNo, pageSize int, detailCode string) (string, error) {
	parsed, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}

	query := parsed.Query()
	query.Set("serviceKey", c.serviceKey)
	query.Set("type", "json")
	query.Set("inqryDiv", "1")
	query.Set("pageNo", strconv.Itoa(pageNo))
	query.Set("numOfRows", strconv.Itoa(pageSize))
	if detailCode != "" {
		query.Set("pubPrcrmntClsfcNo", detailCode)
	}

	// Implausibly wide spans would either time out or be silently truncated
	// upstream; dropping the constraint keeps the batch alive.
	if endDate.Sub(startDate) > maxDateSpanDays*24*time.Hour {
		c.logger.Warn("date span exceeds ceiling, dropping date range constraint",
			"start", startDate.Format("2006-01-02"),
			"end", endDate.Format("2006-01-02"),
			"ceiling_days", maxDateSpanDays)
	} else {
		query.Set("inqryBgnDt", startDate.Format(dateParamLayout))
		query.Set("inqryEndDt", endDate.Format(dateParamLayout))
	}

	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	var body []byte

	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("request %s: %w", maskServiceKey(reqURL), err))
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return retry.RetryableError(fmt.Errorf("request %s: status %s", maskServiceKey(reqURL), resp.Status))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("request %s: status %s", maskServiceKey(reqURL), resp.Status)
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("read response: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// extractPage digs out body.items and totalCount, tolerating both the
// wrapped {"items": {"item": ...}} and the flat {"items": [...]} layout.
func extractPage(doc map[string]any, pageNo int) (*Page, error) {
	body := findBody(doc)
	if body == nil {
		// A valid success envelope with no body means an empty page.
		return &Page{PageNo: pageNo}, nil
	}

	page := &Page{PageNo: pageNo, TotalCount: intField(body["totalCount"])}

	items := body["items"]
	if wrapped, ok := items.(map[string]any); ok {
		if inner, exists := wrapped["item"]; exists {
			items = inner
		} else if len(wrapped) > 0 {
			// A single record serialized as a bare object.
			items = []any{any(wrapped)}
		} else {
			items = nil
		}
	}

	switch v := items.(type) {
	case nil:
		return page, nil
	case []any:
		for _, elem := range v {
			record, ok := elem.(map[string]any)
			if !ok {
				continue
			}
			page.Items = append(page.Items, itemFromMap(record))
		}
	case map[string]any:
		page.Items = append(page.Items, itemFromMap(v))
	default:
		return nil, fmt.Errorf("unexpected items type %T", items)
	}

	return page, nil
}

func findBody(doc map[string]any) map[string]any {
	response, ok := doc["response"].(map[string]any)
	if !ok {
		for _, value := range doc {
			if inner, isMap := value.(map[string]any); isMap {
				if nested, nestedOK := inner["response"].(map[string]any); nestedOK {
					response = nested
					break
				}
			}
		}
	}
	if response == nil {
		return nil
	}

	body, _ := response["body"].(map[string]any)
	return body
}

func intField(value any) int {
	switch v := value.(type) {
	case float64:
		return int(v)
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// maskServiceKey hides the credential in logged URLs.
func maskServiceKey(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	query := parsed.Query()
	if query.Has("serviceKey") {
		query.Set("serviceKey", "****")
		parsed.RawQuery = query.Encode()
	}
	return parsed.String()
}
