package telegram_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/cupost/cupost-api/internal/models"
	"github.com/cupost/cupost-api/pkg/logger"
	"github.com/cupost/cupost-api/pkg/telegram"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Level: "error", Environment: "development"}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type stubHTTPClient struct {
	lastRequest  *http.Request
	lastReqBody  string
	responseBody string
	statusCode   int
	err          error
}

func (c *stubHTTPClient) Do(req *http.Request) (*http.Response, error) {
	c.lastRequest = req
	if req.Body != nil {
		body, _ := io.ReadAll(req.Body)
		c.lastReqBody = string(body)
	}
	if c.err != nil {
		return nil, c.err
	}
	status := c.statusCode
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(c.responseBody)),
	}, nil
}

func (c *stubHTTPClient) Post(url, contentType string, body io.Reader) (*http.Response, error) {
	req, _ := http.NewRequest(http.MethodPost, url, body)
	req.Header.Set("Content-Type", contentType)
	return c.Do(req)
}

func okClient() *stubHTTPClient {
	return &stubHTTPClient{responseBody: `{"ok": true, "result": {}}`}
}

func TestMethodFor(t *testing.T) {
	tests := []struct {
		name string
		att  *models.Attachment
		want telegram.Method
	}{
		{"no attachment", nil, telegram.MethodSendMessage},
		{"png image", &models.Attachment{MIMEType: "image/png"}, telegram.MethodSendPhoto},
		{"jpeg image", &models.Attachment{MIMEType: "image/jpeg"}, telegram.MethodSendPhoto},
		{"mp3 audio", &models.Attachment{MIMEType: "audio/mpeg"}, telegram.MethodSendAudio},
		{"mp4 video", &models.Attachment{MIMEType: "video/mp4"}, telegram.MethodSendVideo},
		{"pdf document", &models.Attachment{MIMEType: "application/pdf"}, telegram.MethodSendDocument},
		{"plain text", &models.Attachment{MIMEType: "text/plain"}, telegram.MethodSendDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, telegram.MethodFor(tt.att))
		})
	}
}

func TestEscapeText(t *testing.T) {
	assert.Equal(t, "a &amp; b &lt;i&gt;c&lt;/i&gt;", telegram.EscapeText("a & b <i>c</i>"))
	assert.Equal(t, "plain", telegram.EscapeText("plain"))
	assert.Equal(t, "", telegram.EscapeText(""))
}

func TestRelay_TextOnly(t *testing.T) {
	httpClient := okClient()
	client := telegram.NewClient("TESTTOKEN", httpClient)

	err := client.Relay(context.Background(), "@channel", "cu-abc1234", "hi <b>there</b>", nil)

	require.NoError(t, err)
	require.NotNil(t, httpClient.lastRequest)
	assert.Equal(t, "/botTESTTOKEN/sendMessage", httpClient.lastRequest.URL.Path)
	assert.Contains(t, httpClient.lastReqBody, "cu-abc1234\n\nhi &lt;b&gt;there&lt;/b&gt;")
	assert.Contains(t, httpClient.lastReqBody, "@channel")
	assert.Contains(t, httpClient.lastReqBody, "HTML")
}

func TestRelay_PhotoCarriesCaption(t *testing.T) {
	httpClient := okClient()
	client := telegram.NewClient("TESTTOKEN", httpClient)
	att := &models.Attachment{MIMEType: "image/png", Filename: "shot.png", Size: 4, Data: []byte{1, 2, 3, 4}}

	err := client.Relay(context.Background(), "@channel", "cu-abc1234", "look", att)

	require.NoError(t, err)
	assert.Equal(t, "/botTESTTOKEN/sendPhoto", httpClient.lastRequest.URL.Path)
	assert.Contains(t, httpClient.lastReqBody, `name="photo"`)
	assert.Contains(t, httpClient.lastReqBody, "cu-abc1234\n\nlook")
}

func TestRelay_AudioTitleFromFilename(t *testing.T) {
	httpClient := okClient()
	client := telegram.NewClient("TESTTOKEN", httpClient)
	att := &models.Attachment{MIMEType: "audio/mpeg", Filename: "song.mp3", Size: 2, Data: []byte{1, 2}}

	err := client.Relay(context.Background(), "@channel", "cu-abc1234", "", att)

	require.NoError(t, err)
	assert.Equal(t, "/botTESTTOKEN/sendAudio", httpClient.lastRequest.URL.Path)
	assert.Contains(t, httpClient.lastReqBody, `name="title"`)
	assert.Contains(t, httpClient.lastReqBody, "song.mp3")
}

func TestRelay_DocumentDefaultFilename(t *testing.T) {
	httpClient := okClient()
	client := telegram.NewClient("TESTTOKEN", httpClient)
	att := &models.Attachment{MIMEType: "application/octet-stream", Size: 2, Data: []byte{1, 2}}

	err := client.Relay(context.Background(), "@channel", "cu-abc1234", "", att)

	require.NoError(t, err)
	assert.Equal(t, "/botTESTTOKEN/sendDocument", httpClient.lastRequest.URL.Path)
	assert.Contains(t, httpClient.lastReqBody, `filename="file"`)
}

func TestRelay_NoCaptionWithoutText(t *testing.T) {
	httpClient := okClient()
	client := telegram.NewClient("TESTTOKEN", httpClient)

	err := client.Relay(context.Background(), "@channel", "cu-abc1234", "", nil)

	require.NoError(t, err)
	// correlation id alone still goes out as the message text
	assert.Contains(t, httpClient.lastReqBody, "cu-abc1234")
	assert.NotContains(t, httpClient.lastReqBody, "\n\n")
}

func TestSendMessage_APIRejection(t *testing.T) {
	httpClient := &stubHTTPClient{
		statusCode:   http.StatusBadRequest,
		responseBody: `{"ok": false, "description": "Bad Request: chat not found"}`,
	}
	client := telegram.NewClient("TESTTOKEN", httpClient)

	err := client.SendMessage(context.Background(), "@missing", "hi")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestSendMessage_OKFalseDespite200(t *testing.T) {
	httpClient := &stubHTTPClient{responseBody: `{"ok": false, "description": "flood control"}`}
	client := telegram.NewClient("TESTTOKEN", httpClient)

	err := client.SendMessage(context.Background(), "@channel", "hi")

	assert.Error(t, err)
}

func TestSendMessage_TransportError(t *testing.T) {
	httpClient := &stubHTTPClient{err: errors.New("dial tcp: i/o timeout")}
	client := telegram.NewClient("TESTTOKEN", httpClient)

	err := client.SendMessage(context.Background(), "@channel", "hi")

	assert.Error(t, err)
}
