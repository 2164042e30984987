package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rsvphq/firstaccess/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Client talks to the transactional email HTTP API. A single POST per
// message, bearer auth, no retries.
type Client struct {
	baseURL    string
	apiKey     string
	from       string
	httpClient *http.Client
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type sendResponse struct {
	ID string `json:"id"`
}

type apiError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

func NewClient(baseURL, apiKey, from string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		from:       from,
		httpClient: httpClient,
	}
}

func (c *Client) Send(ctx context.Context, to, subject, htmlBody string) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "emailClient.send")
	defer span.End()
	span.SetAttributes(attribute.String("email.subject", subject))

	reqBytes, err := json.Marshal(sendRequest{
		From:    c.from,
		To:      []string{to},
		Subject: subject,
		HTML:    htmlBody,
	})
	if err != nil {
		return fmt.Errorf("marshal send request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, "POST",
		fmt.Sprintf("%s/emails", c.baseURL),
		bytes.NewReader(reqBytes),
	)
	if err != nil {
		return fmt.Errorf("create send request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, fmt.Sprintf("send email: %s", err))
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read send response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp apiError
		if err := json.Unmarshal(respBytes, &errResp); err == nil && errResp.Message != "" {
			span.SetStatus(codes.Error, errResp.Message)
			return fmt.Errorf("send email: %s [%d]", errResp.Message, resp.StatusCode)
		}
		span.SetStatus(codes.Error, fmt.Sprintf("status %d", resp.StatusCode))
		return fmt.Errorf("send email: unexpected status %d", resp.StatusCode)
	}

	var sendResp sendResponse
	if err := json.Unmarshal(respBytes, &sendResp); err != nil {
		return fmt.Errorf("unmarshal send response: %w", err)
	}

	span.SetAttributes(attribute.String("email.id", sendResp.ID))
	span.SetStatus(codes.Ok, "ok")
	return nil
}
