package arcgis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/oauth2"
	"golang.org/x/text/language"

	"github.com/couchcryptid/arcgeocode/internal/domain"
	"github.com/couchcryptid/arcgeocode/internal/observability"
)

// DefaultBaseURL is the ArcGIS World Geocoding Service.
const DefaultBaseURL = "https://geocode-api.arcgis.com/arcgis/rest/services/World/GeocodeServer"

// maxErrorBody bounds how much of a non-200 body is read into an error.
const maxErrorBody = 4096

// Doer performs one HTTP request. *http.Client satisfies it; retries and
// connection pooling belong to whatever implements it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implements domain.Geocoder against a GeocodeServer REST endpoint.
type Client struct {
	token      string
	httpClient Doer
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
	clock      clockwork.Clock
}

// NewClient creates an ArcGIS geocoding client. token may be empty for
// services that do not require a credential.
func NewClient(baseURL, token string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		metrics: metrics,
		logger:  logger,
		clock:   clockwork.NewRealClock(),
	}
}

// WithDoer replaces the HTTP transport.
func (c *Client) WithDoer(d Doer) *Client {
	c.httpClient = d
	return c
}

type recordsEnvelope struct {
	Records []recordEntry `json:"records"`
}

type recordEntry struct {
	Attributes domain.AddressRecord `json:"attributes"`
}

// EncodeRecords returns the {"records":[{"attributes":...}]} envelope sent
// as the addresses parameter.
func EncodeRecords(records []domain.AddressRecord) ([]byte, error) {
	env := recordsEnvelope{Records: make([]recordEntry, len(records))}
	for i := range records {
		env.Records[i].Attributes = records[i]
	}
	return json.Marshal(env)
}

// GeocodeAddresses sends every record in a single geocodeAddresses call.
func (c *Client) GeocodeAddresses(ctx context.Context, records []domain.AddressRecord, outSR *domain.SpatialReference) (domain.BatchResponse, error) {
	addresses, err := EncodeRecords(records)
	if err != nil {
		return domain.BatchResponse{}, fmt.Errorf("encode records: %w", err)
	}

	form := url.Values{
		"addresses": {string(addresses)},
		"f":         {"json"},
	}
	if outSR != nil {
		form.Set("outSR", outSR.String())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/geocodeAddresses", strings.NewReader(form.Encode()))
	if err != nil {
		return domain.BatchResponse{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.doRequest(req, "forward")
	if err != nil {
		return domain.BatchResponse{}, err
	}

	resp, err := DecodeBatch(body)
	if err != nil {
		c.metrics.DecodeFailures.WithLabelValues("forward").Inc()
		c.metrics.GeocodeRequests.WithLabelValues("forward", "error").Inc()
		return domain.BatchResponse{}, err
	}
	if n := len(resp.Failures); n > 0 {
		c.metrics.DecodeFailures.WithLabelValues("forward").Add(float64(n))
	}
	if len(resp.Locations) == 0 {
		c.metrics.GeocodeRequests.WithLabelValues("forward", "empty").Inc()
	} else {
		c.metrics.GeocodeRequests.WithLabelValues("forward", "success").Inc()
	}
	return resp, nil
}

// ReverseGeocode looks up the address at one point.
func (c *Client) ReverseGeocode(ctx context.Context, params domain.ReverseParams) (domain.ReverseGeocodeResult, error) {
	query, err := c.reverseQuery(params)
	if err != nil {
		return domain.ReverseGeocodeResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverseGeocode?"+query.Encode(), nil)
	if err != nil {
		return domain.ReverseGeocodeResult{}, fmt.Errorf("create request: %w", err)
	}

	body, err := c.doRequest(req, "reverse")
	if err != nil {
		return domain.ReverseGeocodeResult{}, err
	}

	result, err := DecodeReverse(body)
	if err != nil {
		c.metrics.DecodeFailures.WithLabelValues("reverse").Inc()
		c.metrics.GeocodeRequests.WithLabelValues("reverse", "error").Inc()
		return domain.ReverseGeocodeResult{}, err
	}
	if len(result.Address) == 0 {
		c.metrics.GeocodeRequests.WithLabelValues("reverse", "empty").Inc()
	} else {
		c.metrics.GeocodeRequests.WithLabelValues("reverse", "success").Inc()
	}
	return result, nil
}

func (c *Client) reverseQuery(params domain.ReverseParams) (url.Values, error) {
	location, err := json.Marshal(params.Location)
	if err != nil {
		return nil, fmt.Errorf("encode location: %w", err)
	}

	q := url.Values{
		"location": {string(location)},
		"f":        {"json"},
	}
	if params.OutSR.Valid() {
		q.Set("outSR", params.OutSR.String())
	}
	if params.LangCode != nil {
		if lang := canonicalLangCode(*params.LangCode); lang != "" {
			q.Set("langCode", lang)
		} else {
			c.logger.Debug("ignoring unparseable language code", "lang_code", *params.LangCode)
		}
	}
	if params.ForStorage != nil {
		q.Set("forStorage", strconv.FormatBool(*params.ForStorage))
	}
	if ft := params.FeatureType.String(); ft != "" {
		q.Set("featureTypes", ft)
	}
	if lt := params.LocationType.String(); lt != "" {
		q.Set("locationType", lt)
	}
	if pl := params.PreferredLabelValues.String(); pl != "" {
		q.Set("preferredLabelValues", pl)
	}
	return q, nil
}

// canonicalLangCode normalises a BCP 47 tag ("pt-br" -> "pt-BR"). Empty or
// unparseable input yields "".
func canonicalLangCode(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	tag, err := language.Parse(s)
	if err != nil {
		return ""
	}
	return tag.String()
}

// doRequest performs the call and returns the body of a successful
// response. Every failure is a *domain.TransportError.
func (c *Client) doRequest(req *http.Request, method string) ([]byte, error) {
	if c.token != "" {
		(&oauth2.Token{AccessToken: c.token, TokenType: "Bearer"}).SetAuthHeader(req)
	}
	req.Header.Set("Accept", "application/json")

	start := c.clock.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.GeocodeAPIDuration.WithLabelValues(method).Observe(c.clock.Since(start).Seconds())
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues(method, "error").Inc()
		return nil, &domain.TransportError{Err: fmt.Errorf("%s geocode request: %w", method, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.metrics.GeocodeRequests.WithLabelValues(method, "error").Inc()
		return nil, &domain.TransportError{Status: resp.StatusCode, Message: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues(method, "error").Inc()
		return nil, &domain.TransportError{Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	if err := providerError(body); err != nil {
		c.metrics.GeocodeRequests.WithLabelValues(method, "error").Inc()
		return nil, err
	}
	return body, nil
}
