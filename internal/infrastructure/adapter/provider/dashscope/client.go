package dashscope

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/amirhossein-jamali/imagegen/internal/domain/entity"
	errs "github.com/amirhossein-jamali/imagegen/internal/domain/error"
	coreport "github.com/amirhossein-jamali/imagegen/internal/domain/port/core"
	"github.com/amirhossein-jamali/imagegen/internal/domain/port/provider"
)

const (
	// DefaultBaseURL is the public DashScope endpoint
	DefaultBaseURL = "https://dashscope.aliyuncs.com"
	// DefaultModel is the text-to-image model used when none is configured
	DefaultModel = "wan2.2-t2i-plus"

	createTaskPath = "/api/v1/services/aigc/text2image/image-synthesis"
	taskPath       = "/api/v1/tasks/"

	// Error bodies are truncated to this many bytes in messages
	maxErrorBody = 512
)

// Config holds the DashScope client settings
type Config struct {
	BaseURL        string
	APIKey         string
	Model          string
	RequestTimeout time.Duration
}

// Client talks to the DashScope asynchronous image-synthesis API
type Client struct {
	cfg        Config
	httpClient *http.Client
	tracer     trace.Tracer
	logger     coreport.Logger
}

var _ provider.ImageProvider = (*Client)(nil)

// NewClient creates a DashScope client
func NewClient(cfg Config, logger coreport.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("dashscope API key is required")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid dashscope base URL: %w", err)
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		tracer:     otel.Tracer("imagegen/dashscope"),
		logger:     logger.With(map[string]any{"client": "dashscope"}),
	}, nil
}

// --- wire types ---

type createTaskRequest struct {
	Model      string          `json:"model"`
	Input      createTaskInput `json:"input"`
	Parameters createTaskParam `json:"parameters"`
}

type createTaskInput struct {
	Prompt string `json:"prompt"`
}

type createTaskParam struct {
	Size string `json:"size,omitempty"`
	N    int    `json:"n"`
}

type taskResponse struct {
	RequestID string     `json:"request_id"`
	Code      string     `json:"code"`
	Message   string     `json:"message"`
	Output    taskOutput `json:"output"`
}

type taskOutput struct {
	TaskID     string       `json:"task_id"`
	TaskStatus string       `json:"task_status"`
	Results    []taskResult `json:"results"`
	Code       string       `json:"code"`
	Message    string       `json:"message"`
}

type taskResult struct {
	URL     string `json:"url"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CreateTask submits an asynchronous batch generation and returns its task id
func (c *Client) CreateTask(ctx context.Context, req provider.CreateTaskRequest) (string, error) {
	ctx, span := c.tracer.Start(ctx, "dashscope.CreateTask", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("dashscope.model", c.cfg.Model),
		attribute.Int("dashscope.batch_size", req.BatchSize),
	)

	body := createTaskRequest{
		Model:      c.cfg.Model,
		Input:      createTaskInput{Prompt: req.Prompt},
		Parameters: createTaskParam{Size: req.Size, N: req.BatchSize},
	}

	var resp taskResponse
	if err := c.do(ctx, http.MethodPost, createTaskPath, "create task", body, &resp); err != nil {
		recordError(span, err)
		return "", err
	}

	taskID := strings.TrimSpace(resp.Output.TaskID)
	if taskID == "" {
		err := errs.NewUpstreamError("create task", http.StatusOK, resp.Code, "response did not include a task id")
		recordError(span, err)
		return "", err
	}
	span.SetAttributes(attribute.String("dashscope.task_id", taskID))

	c.logger.Debug("Task created", map[string]any{
		"task_id":    taskID,
		"request_id": resp.RequestID,
	})
	return taskID, nil
}

// GetTask returns the current snapshot of a remote task
func (c *Client) GetTask(ctx context.Context, taskID string) (*entity.RemoteTask, error) {
	ctx, span := c.tracer.Start(ctx, "dashscope.GetTask", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("dashscope.task_id", taskID))

	if strings.TrimSpace(taskID) == "" {
		return nil, errs.ErrInvalidTaskID
	}

	var resp taskResponse
	if err := c.do(ctx, http.MethodGet, taskPath+url.PathEscape(taskID), "query task", nil, &resp); err != nil {
		recordError(span, err)
		return nil, err
	}

	task := toRemoteTask(taskID, &resp)
	span.SetAttributes(attribute.String("dashscope.task_status", string(task.Status)))
	return task, nil
}

func toRemoteTask(taskID string, resp *taskResponse) *entity.RemoteTask {
	task := &entity.RemoteTask{
		TaskID:    taskID,
		Status:    entity.RemoteTaskStatus(strings.ToUpper(strings.TrimSpace(resp.Output.TaskStatus))),
		ImageURLs: []string{},
		Code:      resp.Output.Code,
		Message:   resp.Output.Message,
	}
	if task.Code == "" {
		task.Code = resp.Code
	}
	if task.Message == "" {
		task.Message = resp.Message
	}

	for _, result := range resp.Output.Results {
		if u := strings.TrimSpace(result.URL); u != "" {
			task.ImageURLs = append(task.ImageURLs, u)
			continue
		}
		// A failed slot in a batch carries its own error
		if task.Code == "" && result.Code != "" {
			task.Code = result.Code
			task.Message = result.Message
		}
	}
	return task
}

// do sends one request and decodes a 2xx JSON answer into out
func (c *Client) do(ctx context.Context, method, path, operation string, in any, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding %s request: %w", operation, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("building %s request: %w", operation, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-DashScope-Async", "enable")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		c.logger.Warn("Provider unreachable", map[string]any{
			"operation": operation,
			"error":     err.Error(),
		})
		return errs.NewUpstreamError(operation, 0, "", err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return errs.NewUpstreamError(operation, 0, "", fmt.Sprintf("reading response: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload taskResponse
		message := truncate(string(raw))
		if json.Unmarshal(raw, &payload) == nil && payload.Message != "" {
			message = payload.Message
		}
		c.logger.Warn("Provider returned an error status", map[string]any{
			"operation":   operation,
			"status_code": resp.StatusCode,
			"code":        payload.Code,
			"elapsed":     time.Since(start).String(),
		})
		return errs.NewUpstreamError(operation, resp.StatusCode, payload.Code, message)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return errs.NewUpstreamError(operation, resp.StatusCode, "", fmt.Sprintf("decoding response: %v", err))
	}
	return nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxErrorBody {
		return s[:maxErrorBody]
	}
	return s
}
