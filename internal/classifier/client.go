package classifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Prompt is the fixed classification prompt sent with every image.
const Prompt = `Look at the image. Is it a hot dog (food: a sausage served in a bun/roll; any cooking style)?

Output exactly:
Observations: <brief description of what is visible>
Answer: <yes|no>`

// defaultBaseURL is the default OpenRouter API base URL.
const defaultBaseURL = "https://openrouter.ai/api/v1"

// retrySchedule holds the fixed backoff delays between transient failures.
var retrySchedule = []time.Duration{2 * time.Second, 5 * time.Second, 10 * time.Second}

// HTTPDoer abstracts the HTTP client used by the gateway.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Result is one classification outcome from the gateway.
type Result struct {
	Raw       string
	Reasoning string
	LatencyMs float64
}

// Client calls the OpenRouter chat completions API for image classification.
// Rate limiting is the caller's responsibility.
type Client struct {
	APIKey      string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	HTTP        HTTPDoer

	sleep func(ctx context.Context, d time.Duration) error
}

// New constructs a gateway client. An empty baseURL falls back to the
// OpenRouter default; a nil doer falls back to http.DefaultClient.
func New(apiKey, baseURL string, temperature float64, maxTokens int, doer HTTPDoer) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{
		APIKey:      strings.TrimSpace(apiKey),
		BaseURL:     strings.TrimRight(baseURL, "/"),
		Temperature: temperature,
		MaxTokens:   maxTokens,
		HTTP:        doer,
		sleep:       sleepContext,
	}
}

// chatRequest is the OpenRouter chat completions payload.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

// chatResponse is the subset of the completion response the gateway reads.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			Reasoning string `json:"reasoning"`
		} `json:"message"`
	} `json:"choices"`
}

// Classify sends one image to a model and returns the raw response text,
// reasoning text, and request latency. Transient failures (429/402/502/503
// and timeouts) are retried on the fixed schedule before surfacing.
func (c *Client) Classify(ctx context.Context, modelID, imagePath string) (Result, error) {
	dataURL, err := encodeImage(imagePath)
	if err != nil {
		return Result{}, fmt.Errorf("encode image: %w", err)
	}
	payload, err := json.Marshal(chatRequest{
		Model: modelID,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: Prompt},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
			},
		}},
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
	})
	if err != nil {
		return Result{}, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= len(retrySchedule); attempt++ {
		result, err := c.attempt(ctx, payload)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !isTransient(err) || attempt == len(retrySchedule) {
			return Result{}, err
		}
		if err := c.sleep(ctx, retrySchedule[attempt]); err != nil {
			return Result{}, err
		}
	}
	return Result{}, lastErr
}

// attempt performs a single request and decodes the response.
func (c *Client) attempt(ctx context.Context, payload []byte) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	latencyMs := float64(time.Since(start)) / float64(time.Millisecond)
	if err != nil {
		return Result{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var decoded chatResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return Result{}, fmt.Errorf("decode response: %w", err)
	}
	var content, reasoning string
	if len(decoded.Choices) > 0 {
		content = decoded.Choices[0].Message.Content
		reasoning = decoded.Choices[0].Message.Reasoning
	}
	// Models with reasoning tokens may put the real answer in reasoning and
	// leave content empty or garbled.
	if reasoning != "" && len(strings.TrimSpace(content)) < 5 {
		content = reasoning
	}
	content = strings.TrimSpace(content)
	reasoning = strings.TrimSpace(reasoning)
	if reasoning == "" {
		reasoning = ExtractReasoning(content)
	}
	return Result{Raw: content, Reasoning: reasoning, LatencyMs: latencyMs}, nil
}

// isTransient reports whether an error is retryable.
func isTransient(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Transient()
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// encodeImage reads an image file and returns a base64 data URL.
func encodeImage(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// sleepContext waits for d or until the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
