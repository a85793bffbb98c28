package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/cupost/cupost-api/internal/models"
	"github.com/cupost/cupost-api/pkg/httpclient"
	"github.com/cupost/cupost-api/pkg/logger"
	"github.com/cupost/cupost-api/pkg/metrics"
	"go.uber.org/zap"
)

const baseURL = "https://api.telegram.org"

// Method is a Bot API send operation.
type Method string

const (
	MethodSendMessage  Method = "sendMessage"
	MethodSendPhoto    Method = "sendPhoto"
	MethodSendAudio    Method = "sendAudio"
	MethodSendVideo    Method = "sendVideo"
	MethodSendDocument Method = "sendDocument"
)

// mimeRoutes maps a MIME-type prefix to its send operation. Anything with an
// attachment that matches no prefix goes out as a document; no attachment at
// all means a plain message.
var mimeRoutes = []struct {
	prefix string
	method Method
}{
	{"image/", MethodSendPhoto},
	{"audio/", MethodSendAudio},
	{"video/", MethodSendVideo},
}

// MethodFor selects the Bot API operation for an attachment.
func MethodFor(att *models.Attachment) Method {
	if att == nil {
		return MethodSendMessage
	}
	for _, route := range mimeRoutes {
		if strings.HasPrefix(att.MIMEType, route.prefix) {
			return route.method
		}
	}
	return MethodSendDocument
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// EscapeText escapes user-supplied text for parse_mode=HTML so submissions
// cannot inject markup into the relayed message.
func EscapeText(text string) string {
	return htmlEscaper.Replace(text)
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// inputFile is one uploaded file part of a multipart Bot API call.
type inputFile struct {
	field    string
	filename string
	data     []byte
}

// Client talks to the Telegram Bot API. The bot credential is part of the
// URL path, per the Bot API contract.
type Client struct {
	botToken   string
	httpClient httpclient.Client
}

// NewClient creates a Bot API client.
func NewClient(botToken string, httpClient httpclient.Client) *Client {
	return &Client{
		botToken:   botToken,
		httpClient: httpClient,
	}
}

// Relay delivers one finished submission to a chat. The correlation id is
// always prepended so every relayed message stays traceable; user text is
// HTML-escaped before embedding.
func (c *Client) Relay(ctx context.Context, chatID, correlationID, text string, att *models.Attachment) error {
	caption := correlationID
	if text != "" {
		caption += "\n\n" + EscapeText(text)
	}

	switch MethodFor(att) {
	case MethodSendPhoto:
		return c.SendPhoto(ctx, chatID, caption, att.Data)
	case MethodSendAudio:
		return c.SendAudio(ctx, chatID, caption, att.Data, att.Filename)
	case MethodSendVideo:
		return c.SendVideo(ctx, chatID, caption, att.Data)
	case MethodSendDocument:
		return c.SendDocument(ctx, chatID, caption, att.Data, att.Filename)
	default:
		return c.SendMessage(ctx, chatID, caption)
	}
}

// SendMessage sends a plain text message
func (c *Client) SendMessage(ctx context.Context, chatID, text string) error {
	return c.api(ctx, MethodSendMessage, map[string]string{
		"chat_id":                  chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": "true",
	}, nil)
}

// SendPhoto sends an image with a caption
func (c *Client) SendPhoto(ctx context.Context, chatID, caption string, photo []byte) error {
	return c.api(ctx, MethodSendPhoto, captionFields(chatID, caption),
		&inputFile{field: "photo", filename: "image", data: photo})
}

// SendAudio sends an audio file with a caption; the original filename is
// carried as the track title when present.
func (c *Client) SendAudio(ctx context.Context, chatID, caption string, audio []byte, title string) error {
	fields := captionFields(chatID, caption)
	if title != "" {
		fields["title"] = title
	}
	return c.api(ctx, MethodSendAudio, fields,
		&inputFile{field: "audio", filename: "audio", data: audio})
}

// SendVideo sends a video with a caption
func (c *Client) SendVideo(ctx context.Context, chatID, caption string, video []byte) error {
	return c.api(ctx, MethodSendVideo, captionFields(chatID, caption),
		&inputFile{field: "video", filename: "video", data: video})
}

// SendDocument sends any other attachment as a generic document
func (c *Client) SendDocument(ctx context.Context, chatID, caption string, document []byte, filename string) error {
	if filename == "" {
		filename = "file"
	}
	return c.api(ctx, MethodSendDocument, captionFields(chatID, caption),
		&inputFile{field: "document", filename: filename, data: document})
}

func captionFields(chatID, caption string) map[string]string {
	fields := map[string]string{"chat_id": chatID}
	if caption != "" {
		fields["caption"] = caption
		fields["parse_mode"] = "HTML"
	}
	return fields
}

// api performs one multipart Bot API call. The response body is closed on
// every exit path; a non-2xx status or {"ok": false} body is a hard failure
// for the submission, never retried.
func (c *Client) api(ctx context.Context, method Method, fields map[string]string, file *inputFile) error {
	start := time.Now()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return fmt.Errorf("failed to encode %s field %s: %w", method, key, err)
		}
	}
	if file != nil {
		part, err := writer.CreateFormFile(file.field, file.filename)
		if err != nil {
			return fmt.Errorf("failed to encode %s file part: %w", method, err)
		}
		if _, err := part.Write(file.data); err != nil {
			return fmt.Errorf("failed to encode %s file part: %w", method, err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize %s request body: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", baseURL, c.botToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(method, "error", start)
		return fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	var result apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.record(method, "error", start)
		return fmt.Errorf("failed to decode %s response (status %d): %w", method, resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !result.OK {
		c.record(method, "error", start)
		logger.Warn("Bot API call rejected",
			zap.String("method", string(method)),
			zap.Int("status", resp.StatusCode),
			zap.String("description", result.Description))
		return fmt.Errorf("%s rejected (status %d): %s", method, resp.StatusCode, result.Description)
	}

	c.record(method, "success", start)
	return nil
}

func (c *Client) record(method Method, status string, start time.Time) {
	duration := metrics.MeasureDuration(start)
	metrics.TelegramRequestDuration.WithLabelValues(string(method), status).Observe(duration)
	metrics.TelegramRequestTotal.WithLabelValues(string(method), status).Inc()
}
