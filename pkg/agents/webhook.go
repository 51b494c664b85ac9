package agents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/kadirpekel/conductor/internal/httpclient"
	"github.com/kadirpekel/conductor/pkg/agent"
	"github.com/kadirpekel/conductor/pkg/schema"
)

// WebhookInput is the typed input of the webhook builtin
type WebhookInput struct {
	URL     string            `json:"url" jsonschema:"required" mapstructure:"url"`
	Method  string            `json:"method,omitempty" mapstructure:"method"`
	Headers map[string]string `json:"headers,omitempty" mapstructure:"headers"`
	Payload map[string]any    `json:"payload,omitempty" mapstructure:"payload"`
}

// WebhookOutput is the typed output of the webhook builtin
type WebhookOutput struct {
	Status int            `json:"status" mapstructure:"status"`
	Body   map[string]any `json:"body,omitempty" mapstructure:"body"`
}

// WebhookAgent hands a step off to an HTTP endpoint: it posts the payload
// as JSON and decodes the JSON response as the step output. Transient
// upstream errors are retried by the underlying client.
type WebhookAgent struct {
	agent.BaseAgent
	client *httpclient.Client
}

func NewWebhookAgent() *WebhookAgent {
	return &WebhookAgent{client: httpclient.New()}
}

func (a *WebhookAgent) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	var in WebhookInput
	if err := mapstructure.Decode(input, &in); err != nil {
		return nil, fmt.Errorf("decoding webhook input: %w", err)
	}
	if in.Method == "" {
		in.Method = http.MethodPost
	}

	var body io.Reader
	if in.Payload != nil {
		encoded, err := json.Marshal(in.Payload)
		if err != nil {
			return nil, fmt.Errorf("encoding webhook payload: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(in.Method), in.URL, body)
	if err != nil {
		return nil, fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for key, value := range in.Headers {
		req.Header.Set(key, value)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", in.URL, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading webhook response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("webhook %s returned HTTP %d", in.URL, resp.StatusCode)
	}

	output := map[string]any{"status": resp.StatusCode}
	if len(raw) > 0 {
		var decoded map[string]any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, fmt.Errorf("webhook %s returned non-JSON body: %w", in.URL, err)
		}
		output["body"] = decoded
	}
	return output, nil
}

// WebhookDescriptor describes the webhook builtin
func WebhookDescriptor() agent.Descriptor {
	return agent.Descriptor{
		Type:         "webhook",
		Description:  "Posts the step input to an HTTP endpoint and returns the JSON response",
		InputSchema:  schema.MustForType[WebhookInput](),
		OutputSchema: schema.MustForType[WebhookOutput](),
		Factory:      func() agent.Agent { return NewWebhookAgent() },
	}
}
