package generator

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"storefront/pkg/domain/model"
)

const (
	maxResponseBytes = 1 << 20
	maxErrorDetail   = 512
)

var ErrNotConfigured = errors.New("text generation endpoint is not configured")

type request struct {
	Prompt string       `json:"prompt"`
	Schema schemaFormat `json:"schema"`
}

type schemaFormat struct {
	Name     string   `json:"name"`
	Required []string `json:"required"`
}

type response struct {
	Output json.RawMessage `json:"output"`
}

// Client calls a hosted text-generation endpoint that answers with {"output": {...}}.
type Client struct {
	url    string
	apiKey string
	http   *http.Client
}

func NewClient(url, apiKey string, timeout time.Duration) *Client {
	return &Client{url: url, apiKey: apiKey, http: &http.Client{Timeout: timeout}}
}

func (c *Client) Generate(prompt string, schema model.OutputSchema) ([]byte, error) {
	if c.url == "" {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(request{
		Prompt: prompt,
		Schema: schemaFormat{Name: schema.Name, Required: schema.Required},
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode generation request")
	}

	req, err := http.NewRequest(http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build generation request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "call generation endpoint")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errors.Wrap(err, "read generation response")
	}
	if resp.StatusCode != http.StatusOK {
		detail := errorDetail(data)
		log.WithFields(log.Fields{"status": resp.StatusCode, "schema": schema.Name, "detail": detail}).Warn("generation endpoint failed")
		if detail == "" {
			return nil, errors.Errorf("generation endpoint returned %s", resp.Status)
		}
		return nil, errors.Errorf("generation endpoint returned %s: %s", resp.Status, detail)
	}

	var decoded response
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, errors.Wrap(err, "decode generation response")
	}
	if len(decoded.Output) == 0 {
		return nil, errors.New("generation response has no output")
	}
	return decoded.Output, nil
}

// errorDetail keeps the upstream explanation readable in an error message.
func errorDetail(body []byte) string {
	detail := strings.Join(strings.Fields(string(body)), " ")
	if len(detail) > maxErrorDetail {
		detail = detail[:maxErrorDetail] + "..."
	}
	return detail
}
