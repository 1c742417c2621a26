// Package inference talks to an out-of-process object detection model
// (YOLOv8 behind a small HTTP service) and returns its raw detections.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/tarunsinghofficial/visionbackend/pkg/types"
)

// Client sends images to the inference service
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

type detectResponse struct {
	Detections []types.RawDetection `json:"detections"`
}

// NewClient creates an inference client. model is forwarded to the service
// so it can pick the matching weights (e.g. yolov8n.pt).
func NewClient(serverURL, model string, timeout time.Duration) (*Client, error) {
	if serverURL == "" {
		return nil, fmt.Errorf("inference URL is required")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		baseURL: strings.TrimSuffix(serverURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Detect runs inference on the encoded image
func (c *Client) Detect(ctx context.Context, image []byte) ([]types.RawDetection, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "image")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(image)); err != nil {
		return nil, fmt.Errorf("copy image data: %w", err)
	}
	if c.model != "" {
		if err := writer.WriteField("model", c.model); err != nil {
			return nil, fmt.Errorf("write model field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/detect", body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("inference failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var result detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return result.Detections, nil
}

// CheckHealth checks that the inference service is reachable
func (c *Client) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference service unhealthy: %d", resp.StatusCode)
	}
	return nil
}
