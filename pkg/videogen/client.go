package videogen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Task statuses reported by the generation provider.
const (
	TaskStatusQueued     = "queued"
	TaskStatusProcessing = "processing"
	TaskStatusCompleted  = "completed"
	TaskStatusFailed     = "failed"
)

type Task struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	VideoURL     string `json:"video_url"`
	ThumbnailURL string `json:"thumbnail_url"`
	Error        string `json:"error"`
}

type createTaskRequest struct {
	ImageURL string `json:"image_url"`
	Prompt   string `json:"prompt"`
}

// Client talks to the external image-to-video generation API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreateTask submits a drawing for animation and returns the provider task.
func (c *Client) CreateTask(imageURL, prompt string) (*Task, error) {
	body, err := json.Marshal(createTaskRequest{
		ImageURL: imageURL,
		Prompt:   prompt,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/tasks", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	return c.do(req)
}

// GetTask fetches the current state of a generation task.
func (c *Client) GetTask(taskID string) (*Task, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/tasks/"+taskID, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	return c.do(req)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
}

func (c *Client) do(req *http.Request) (*Task, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("videogen request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("videogen API returned %d: %s", resp.StatusCode, string(data))
	}

	var task Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("invalid videogen response: %w", err)
	}
	return &task, nil
}
