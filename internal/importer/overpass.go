package importer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/streetmap-tiles/internal/domain"
	"github.com/streetmap-tiles/internal/pkg/validator"
)

const (
	DefaultOverpassURL = "https://overpass-api.de/api/interpreter"

	overpassAttempts = 3
	overpassBackoff  = 5 * time.Second
)

// overpassFilters - фильтры way для каждого вида импорта, те же теги что в Classify
var overpassFilters = map[string]string{
	domain.ImportHighways:   `way["highway"]`,
	domain.ImportBoundaries: `way["boundary"="administrative"]`,
	domain.ImportIslands:    `way["place"="island"]`,
}

// OverpassQuery строит запрос Overpass QL: все подходящие way внутри страны
// (ISO 3166-1 alpha-2) вместе с их узлами, в формате XML.
func OverpassQuery(countryCode string, kinds []string) (string, error) {
	if err := validator.GetValidator().Var(countryCode, "required,iso3166_1_alpha2"); err != nil {
		return "", fmt.Errorf("invalid country code %q", countryCode)
	}
	if err := ValidKinds(kinds); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("[out:xml][timeout:900];\n")
	fmt.Fprintf(&b, "area[\"ISO3166-1\"=\"%s\"][admin_level=2]->.country;\n", countryCode)
	b.WriteString("(\n")
	for _, k := range kinds {
		fmt.Fprintf(&b, "  %s(area.country);\n", overpassFilters[k])
	}
	b.WriteString(");\n(._;>;);\nout body;\n")
	return b.String(), nil
}

// OverpassClient - клиент Overpass API
type OverpassClient struct {
	httpClient *http.Client
	endpoint   string
	backoff    time.Duration
	logger     *zap.Logger
}

// NewOverpassClient создает клиент. Пустой endpoint - публичный сервер overpass-api.de
func NewOverpassClient(endpoint string, timeout time.Duration, logger *zap.Logger) *OverpassClient {
	if endpoint == "" {
		endpoint = DefaultOverpassURL
	}
	return &OverpassClient{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		backoff:    overpassBackoff,
		logger:     logger,
	}
}

// Fetch выполняет запрос. Перегрузка сервера (429, 5xx) и сетевые ошибки
// повторяются с паузой.
func (c *OverpassClient) Fetch(ctx context.Context, query string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= overpassAttempts; attempt++ {
		body, retry, err := c.fetch(ctx, query)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retry || attempt == overpassAttempts {
			break
		}

		c.logger.Warn("Overpass request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", c.backoff),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.backoff):
		}
	}
	return nil, lastErr
}

func (c *OverpassClient) fetch(ctx context.Context, query string) ([]byte, bool, error) {
	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	c.logger.Debug("Calling Overpass API", zap.String("endpoint", c.endpoint))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError
		return nil, retry, fmt.Errorf("overpass API error: status %d, body: %.200s", resp.StatusCode, body)
	}
	return body, false, nil
}

// RunOverpass загружает данные страны с Overpass API и импортирует их так же,
// как .pbf выгрузку.
func (im *Importer) RunOverpass(ctx context.Context, client *OverpassClient, countryCode string, kinds []string) (*domain.ImportStats, error) {
	query, err := OverpassQuery(countryCode, kinds)
	if err != nil {
		return nil, err
	}

	im.logger.Info("Fetching Overpass data", zap.String("country", countryCode), zap.Strings("kinds", kinds))
	body, err := client.Fetch(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("overpass: %w", err)
	}
	im.logger.Info("Overpass data received", zap.Int("bytes", len(body)))

	return im.run(ctx, bytes.NewReader(body), kinds, openXML)
}
