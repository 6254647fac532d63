// Package anthropic implements bill extraction against the Anthropic
// Messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/tenagalabs/jejak/internal/ai"
)

const (
	// APIBaseURL is the Messages endpoint.
	APIBaseURL = "https://api.anthropic.com/v1/messages"

	// APIVersion is the Anthropic API version header value.
	APIVersion = "2023-06-01"

	// DefaultModel is the model used when none is configured.
	DefaultModel = "claude-sonnet-4-20250514"

	// MaxImageSize caps uploads at 20MB, the API's document limit.
	MaxImageSize = 20 * 1024 * 1024
)

// Config contains configuration for the Anthropic provider.
type Config struct {
	APIKey         string
	Model          string
	ProviderConfig ai.ProviderConfig

	// RequestsPerSecond throttles outbound calls so a burst of bill
	// uploads cannot trip the API's own rate limit. Zero disables the
	// throttle.
	RequestsPerSecond float64
}

// Provider implements ai.BillExtractor using the Anthropic API.
type Provider struct {
	config  Config
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New creates an Anthropic provider.
func New(config Config, logger *slog.Logger) (*Provider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.ProviderConfig.MaxRetries == 0 {
		config.ProviderConfig.MaxRetries = 3
	}
	if config.ProviderConfig.RetryBaseDelay == 0 {
		config.ProviderConfig.RetryBaseDelay = 1 * time.Second
	}
	if config.ProviderConfig.RequestTimeout == 0 {
		config.ProviderConfig.RequestTimeout = 60 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if config.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)
	}

	return &Provider{
		config:  config,
		client:  &http.Client{Timeout: config.ProviderConfig.RequestTimeout},
		limiter: limiter,
		logger:  logger,
	}, nil
}

// ExtractBill analyzes a bill image and returns the structured fields.
func (p *Provider) ExtractBill(ctx context.Context, params ai.ExtractBillParams) (*ai.BillExtraction, error) {
	startTime := time.Now()

	if err := validateParams(params); err != nil {
		return nil, ai.WrapError("extract bill", err)
	}

	body, err := p.buildRequestBody(params)
	if err != nil {
		return nil, ai.WrapError("build request", err)
	}

	resp, err := p.executeWithRetry(ctx, body)
	if err != nil {
		return nil, ai.WrapError("execute request", err)
	}

	result, err := parseExtraction(resp)
	if err != nil {
		return nil, ai.WrapError("parse response", err)
	}

	result.Usage = ai.UsageInfo{
		Model:        p.config.Model,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
		Duration:     time.Since(startTime),
	}

	p.logger.Info("bill extracted",
		"tenant_id", params.TenantID,
		"utility_type", result.UtilityType,
		"confidence", result.Confidence,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens)
	return result, nil
}

func validateParams(params ai.ExtractBillParams) error {
	if len(params.ImageData) == 0 {
		return ai.ErrInvalidImage
	}
	if len(params.ImageData) > MaxImageSize {
		return fmt.Errorf("%w: image size %d exceeds maximum %d", ai.ErrInvalidImage, len(params.ImageData), MaxImageSize)
	}
	validTypes := map[string]bool{
		"image/jpeg":      true,
		"image/png":       true,
		"image/webp":      true,
		"application/pdf": true,
	}
	if !validTypes[params.ContentType] {
		return fmt.Errorf("%w: unsupported content type %s", ai.ErrInvalidImage, params.ContentType)
	}
	return nil
}

func (p *Provider) buildRequestBody(params ai.ExtractBillParams) ([]byte, error) {
	contentType := "image"
	if params.ContentType == "application/pdf" {
		contentType = "document"
	}

	reqBody := apiRequest{
		Model:     p.config.Model,
		MaxTokens: 2048,
		Messages: []apiMessage{
			{
				Role: "user",
				Content: []apiContent{
					{
						Type: contentType,
						Source: &apiSource{
							Type:      "base64",
							MediaType: params.ContentType,
							Data:      base64.StdEncoding.EncodeToString(params.ImageData),
						},
					},
					{
						Type: "text",
						Text: billExtractionPrompt,
					},
				},
			},
		},
	}
	return json.Marshal(reqBody)
}

// executeWithRetry runs the request with exponential backoff on
// transient errors. The body is rebuilt per attempt.
func (p *Provider) executeWithRetry(ctx context.Context, body []byte) (*apiResponse, error) {
	var lastErr error

	for attempt := 1; attempt <= p.config.ProviderConfig.MaxRetries; attempt++ {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := p.executeRequest(ctx, body)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !ai.IsRetryable(err) {
			return nil, err
		}
		if attempt >= p.config.ProviderConfig.MaxRetries {
			break
		}

		delay := p.config.ProviderConfig.RetryBaseDelay * time.Duration(1<<(attempt-1))
		p.logger.Info("retrying AI request", "attempt", attempt, "delay", delay, "error", err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

func (p *Provider) executeRequest(ctx context.Context, body []byte) (*apiResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, APIBaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.config.APIKey)
	req.Header.Set("anthropic-version", APIVersion)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, ai.ErrUnavailable
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, mapHTTPError(resp.StatusCode, bodyBytes)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &apiResp, nil
}

func mapHTTPError(statusCode int, body []byte) error {
	var errResp apiErrorResponse
	_ = json.Unmarshal(body, &errResp)

	switch statusCode {
	case http.StatusUnauthorized:
		return ai.ErrUnauthorized
	case http.StatusTooManyRequests:
		return ai.ErrRateLimited
	case http.StatusRequestTimeout:
		return ai.ErrTimeout
	case http.StatusBadRequest:
		if errResp.Error.Type == "invalid_request_error" {
			return ai.ErrInvalidImage
		}
		return fmt.Errorf("bad request: %s", errResp.Error.Message)
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return ai.ErrUnavailable
	default:
		return fmt.Errorf("API error (status %d): %s", statusCode, errResp.Error.Message)
	}
}

func parseExtraction(resp *apiResponse) (*ai.BillExtraction, error) {
	var textContent string
	for _, content := range resp.Content {
		if content.Type == "text" {
			textContent = content.Text
			break
		}
	}
	if textContent == "" {
		return nil, fmt.Errorf("no text content in response")
	}

	var output extractionOutput
	if err := json.Unmarshal([]byte(textContent), &output); err != nil {
		return nil, fmt.Errorf("parse extraction output: %w", err)
	}
	if !output.Readable {
		return nil, fmt.Errorf("%w: %s", ai.ErrUnreadable, output.Notes)
	}

	periodStart, err := time.Parse("2006-01-02", output.PeriodStart)
	if err != nil {
		return nil, fmt.Errorf("parse period start %q: %w", output.PeriodStart, err)
	}
	periodEnd, err := time.Parse("2006-01-02", output.PeriodEnd)
	if err != nil {
		return nil, fmt.Errorf("parse period end %q: %w", output.PeriodEnd, err)
	}

	result := &ai.BillExtraction{
		UtilityType: output.UtilityType,
		Provider:    output.Provider,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Consumption: output.Consumption,
		Unit:        output.Unit,
		AmountMYR:   output.AmountMYR,
		Confidence:  ai.Confidence(output.Confidence),
		Notes:       output.Notes,
	}
	if !result.Confidence.Valid() {
		result.Confidence = ai.ConfidenceMedium
	}
	return result, nil
}

// API wire types.

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string       `json:"role"`
	Content []apiContent `json:"content"`
}

type apiContent struct {
	Type   string     `json:"type"`
	Text   string     `json:"text,omitempty"`
	Source *apiSource `json:"source,omitempty"`
}

type apiSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type apiResponse struct {
	Content []apiContent `json:"content"`
	Usage   struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type apiErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// extractionOutput is the JSON shape the prompt asks the model for.
type extractionOutput struct {
	Readable    bool    `json:"readable"`
	UtilityType string  `json:"utility_type"`
	Provider    string  `json:"provider"`
	PeriodStart string  `json:"period_start"`
	PeriodEnd   string  `json:"period_end"`
	Consumption float64 `json:"consumption"`
	Unit        string  `json:"unit"`
	AmountMYR   float64 `json:"amount_myr"`
	Confidence  string  `json:"confidence"`
	Notes       string  `json:"notes"`
}
