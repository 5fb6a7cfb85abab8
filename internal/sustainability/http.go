package sustainability

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/deffeddef/invoice-extractor-app/internal/utils"
)

// HTTPConfig locates one lookup service.
type HTTPConfig struct {
	BaseURL string
	APIKey  string // sent as a bearer token when set
}

type httpLookup struct {
	cfg    HTTPConfig
	client *http.Client
	logger *slog.Logger
}

func newHTTPLookup(cfg HTTPConfig, client *http.Client, logger *slog.Logger) httpLookup {
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return httpLookup{cfg: cfg, client: client, logger: logger}
}

// do sends the request and decodes the JSON answer into out. A 404 means
// the service has no record and maps to ErrNoData.
func (h httpLookup) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := h.cfg.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var headers map[string]string
	if h.cfg.APIKey != "" {
		headers = map[string]string{"Authorization": "Bearer " + h.cfg.APIKey}
	}
	raw, status, err := utils.SendJSON(ctx, h.client, method, u, body, headers, h.logger)
	if status == http.StatusNotFound {
		return ErrNoData
	}
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// EcoVadisClient reads vendor ratings: GET {base}/ratings?vendor=<name> -> {"rating": "Gold"}.
type EcoVadisClient struct{ httpLookup }

func NewEcoVadisClient(cfg HTTPConfig, client *http.Client, logger *slog.Logger) *EcoVadisClient {
	return &EcoVadisClient{newHTTPLookup(cfg, client, logger)}
}

func (c *EcoVadisClient) ESGRating(ctx context.Context, vendor string) (string, error) {
	var resp struct {
		Rating string `json:"rating"`
	}
	if err := c.do(ctx, http.MethodGet, "/ratings", url.Values{"vendor": {vendor}}, nil, &resp); err != nil {
		return "", err
	}
	if resp.Rating == "" {
		return "", ErrNoData
	}
	return resp.Rating, nil
}

// BCorpClient reads certification status: GET {base}/companies?name=<name> -> {"certified": true}.
type BCorpClient struct{ httpLookup }

func NewBCorpClient(cfg HTTPConfig, client *http.Client, logger *slog.Logger) *BCorpClient {
	return &BCorpClient{newHTTPLookup(cfg, client, logger)}
}

func (c *BCorpClient) IsBCorp(ctx context.Context, vendor string) (bool, error) {
	var resp struct {
		Certified bool `json:"certified"`
	}
	if err := c.do(ctx, http.MethodGet, "/companies", url.Values{"name": {vendor}}, nil, &resp); err != nil {
		return false, err
	}
	return resp.Certified, nil
}

// EcolabelClient reads EU Ecolabel status: GET {base}/products?q=<description> -> {"ecolabel": true}.
type EcolabelClient struct{ httpLookup }

func NewEcolabelClient(cfg HTTPConfig, client *http.Client, logger *slog.Logger) *EcolabelClient {
	return &EcolabelClient{newHTTPLookup(cfg, client, logger)}
}

func (c *EcolabelClient) HasEcoLabel(ctx context.Context, description string) (bool, error) {
	var resp struct {
		Ecolabel bool `json:"ecolabel"`
	}
	if err := c.do(ctx, http.MethodGet, "/products", url.Values{"q": {description}}, nil, &resp); err != nil {
		return false, err
	}
	return resp.Ecolabel, nil
}

// CO2Client estimates emissions: POST {base}/estimate {"description","quantity"} -> {"kg_co2e": 12.5}.
type CO2Client struct{ httpLookup }

func NewCO2Client(cfg HTTPConfig, client *http.Client, logger *slog.Logger) *CO2Client {
	return &CO2Client{newHTTPLookup(cfg, client, logger)}
}

func (c *CO2Client) EstimateCO2(ctx context.Context, description string, quantity float64) (float64, error) {
	req := map[string]any{"description": description, "quantity": quantity}
	var resp struct {
		KgCO2e *float64 `json:"kg_co2e"`
	}
	if err := c.do(ctx, http.MethodPost, "/estimate", nil, req, &resp); err != nil {
		return 0, err
	}
	if resp.KgCO2e == nil {
		return 0, ErrNoData
	}
	return *resp.KgCO2e, nil
}
