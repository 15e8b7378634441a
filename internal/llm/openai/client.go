package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cardsnap/cardsnap/internal/common"
	"github.com/cardsnap/cardsnap/internal/llm"
)

// ExtractFields implements llm.FieldExtractor over text-only chat
// completions with a JSON-object response. No retry happens here; retry
// policy belongs to the caller, which receives typed quota/rate-limit
// failures carrying their timing.
func (c *Client) ExtractFields(ctx context.Context, req llm.ExtractRequest) (llm.ContactFields, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	if err := llm.ValidateText(req.RawText, c.cfg.MaxTextLen); err != nil {
		return llm.ContactFields{}, nil, err
	}

	key, ok := c.apiKey()
	if !ok {
		c.logger.Warn("llm.extract.no_credential", "req_id", rid, "key_name", c.cfg.APIKeyName)
		return llm.ContactFields{}, nil, common.NewAppError("NO_CREDENTIAL",
			"no API key configured", common.ErrExtractionUnavailable)
	}

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(req.RawText),
		"language", req.Language,
		"country", req.Country,
	)

	schema := llm.BuildContactJSONSchema()
	sys := llm.BuildSystemPrompt(req)
	user := llm.BuildUserPrompt(req)

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": sys},
			{"role": "user", "content": user + "\n\nReturn ONLY JSON that matches the provided schema."},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + key}
	raw, status, respHeaders, httpErr := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if httpErr != nil {
		mapped := c.mapTransportError(httpErr, status, raw, respHeaders)
		c.logger.Error("llm.extract.http_error",
			"req_id", rid, "status", status, "error", mapped,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.ContactFields{}, raw, mapped
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.ContactFields{}, raw, common.NewAppError("BAD_RESPONSE",
			"unparseable model response", common.WithSentinel(common.ErrExtractionUnavailable, err))
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("llm.extract.no_choices",
			"req_id", rid, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.ContactFields{}, raw, common.NewAppError("BAD_RESPONSE",
			"no choices in model response", common.ErrExtractionUnavailable)
	}
	content := strings.TrimSpace(cc.Choices[0].Message.Content)
	rawContent := []byte(content)

	// Validate strictly first; fall back to dropping unknown/malformed
	// fields and re-validating.
	if err := llm.ValidateJSONAgainstSchema(schema, rawContent); err != nil {
		cleaned, dropped, sErr := llm.SanitizeUnknownFields(rawContent)
		if sErr != nil {
			c.logger.Error("llm.extract.sanitize_failed",
				"req_id", rid, "error", sErr,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return llm.ContactFields{}, rawContent, common.NewAppError("BAD_RESPONSE",
				"model returned invalid JSON", common.WithSentinel(common.ErrExtractionUnavailable, sErr))
		}
		if vErr := llm.ValidateJSONAgainstSchema(schema, cleaned); vErr != nil {
			c.logger.Error("llm.extract.schema_validation_failed",
				"req_id", rid, "error", vErr,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return llm.ContactFields{}, rawContent, common.NewAppError("BAD_RESPONSE",
				"schema validation failed", common.WithSentinel(common.ErrExtractionUnavailable, vErr))
		}
		c.logger.Warn("llm.extract.lenient_sanitize_applied",
			"req_id", rid, "dropped", dropped,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		rawContent = cleaned
	}

	var out llm.ContactFields
	if err := json.Unmarshal(rawContent, &out); err != nil {
		c.logger.Error("llm.extract.unmarshal_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.ContactFields{}, rawContent, common.NewAppError("BAD_RESPONSE",
			"unmarshal fields", common.WithSentinel(common.ErrExtractionUnavailable, err))
	}

	out, dropped := llm.SanitizeFields(out)
	if len(dropped) > 0 {
		c.logger.Warn("llm.extract.fields_dropped", "req_id", rid, "dropped", dropped)
	}

	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"has_name", out.Name != "",
		"has_company", out.Company != "",
		"has_email", out.Email != "",
		"confidence", out.ModelConfidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, rawContent, nil
}

// ExtractBatch processes items independently; one item's failure never
// aborts the batch.
func (c *Client) ExtractBatch(ctx context.Context, reqs []llm.ExtractRequest) llm.BatchResult {
	var res llm.BatchResult
	for i, req := range reqs {
		fields, _, err := c.ExtractFields(ctx, req)
		if err != nil {
			res.Failed = append(res.Failed, llm.BatchFailure{Index: i, Err: err, Input: req.RawText})
			continue
		}
		res.Successful = append(res.Successful, fields)
	}
	return res
}

// Status probes the service with a cheap models call. An absent credential
// reports unavailable without any network round trip.
func (c *Client) Status(ctx context.Context) llm.ServiceStatus {
	status := llm.ServiceStatus{QuotaRemaining: -1}
	key, ok := c.apiKey()
	if !ok {
		return status
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		strings.TrimRight(c.cfg.BaseURL, "/")+"/models", nil)
	if err != nil {
		return status
	}
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("llm.status.probe_failed", "error", err)
		return status
	}
	defer func() { _ = resp.Body.Close() }()

	status.Available = resp.StatusCode/100 == 2
	if v := resp.Header.Get("x-ratelimit-remaining-requests"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			status.QuotaRemaining = n
		}
	}
	if d := parseRetryAfter(resp.Header.Get("Retry-After")); d > 0 {
		status.QuotaResetAt = time.Now().Add(d)
	}
	return status
}

// mapTransportError translates HTTP/transport failures onto the taxonomy:
// 429 with a quota payload carries a reset time, plain 429 carries a
// retry-after duration, timeouts and everything else become unavailability.
func (c *Client) mapTransportError(err error, status int, body []byte, headers http.Header) error {
	if status == http.StatusTooManyRequests {
		retryAfter := parseRetryAfter(headers.Get("Retry-After"))
		if isQuotaBody(body) {
			resetAt := time.Now().Add(retryAfter)
			if retryAfter == 0 {
				resetAt = time.Now().Add(time.Hour)
			}
			return &common.QuotaExceededError{ResetAt: resetAt, Cause: err}
		}
		if retryAfter == 0 {
			retryAfter = 20 * time.Second
		}
		return &common.RateLimitedError{RetryAfter: retryAfter, Cause: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return common.NewAppError("LLM_TIMEOUT", "model request timed out",
			common.WithSentinel(common.ErrExtractionUnavailable, err))
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return common.NewAppError("LLM_TIMEOUT", "model request timed out",
			common.WithSentinel(common.ErrExtractionUnavailable, err))
	}
	return common.NewAppError("LLM_UNAVAILABLE",
		fmt.Sprintf("model request failed (status %d)", status),
		common.WithSentinel(common.ErrExtractionUnavailable, err))
}

func isQuotaBody(body []byte) bool {
	var payload struct {
		Error struct {
			Type string `json:"type"`
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return false
	}
	return payload.Error.Type == "insufficient_quota" || payload.Error.Code == "insufficient_quota"
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
