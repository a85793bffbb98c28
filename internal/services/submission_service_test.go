package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cupost/cupost-api/internal/models"
	"github.com/cupost/cupost-api/internal/services"
	"github.com/cupost/cupost-api/pkg/captcha"
	apperrors "github.com/cupost/cupost-api/pkg/errors"
	"github.com/cupost/cupost-api/pkg/signer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newService(t *testing.T) (*services.SubmissionService, *MockCaptchaVerifier, *MockDispatchClient) {
	t.Helper()
	mockCaptcha := new(MockCaptchaVerifier)
	mockCaptcha.On("Mode").Return(captcha.ModeTurnstile).Maybe()
	mockDispatch := new(MockDispatchClient)
	return services.NewSubmissionService(testConfig(), mockCaptcha, mockDispatch), mockCaptcha, mockDispatch
}

func TestSubmissionService_Submit_Success(t *testing.T) {
	service, mockCaptcha, mockDispatch := newService(t)
	ctx := context.Background()

	mockCaptcha.On("Verify", mock.Anything, "valid-token").Return(nil).Once()
	mockDispatch.On("Relay", mock.Anything, "@channel", mock.MatchedBy(func(cu string) bool {
		return strings.HasPrefix(cu, "cu-")
	}), "hello", (*models.Attachment)(nil)).Return(nil).Once()

	result, err := service.Submit(ctx, &models.SubmissionRequest{
		CaptchaToken: "valid-token",
		Text:         "  hello  ", // leading/trailing space stripped before moderation
	})

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.True(t, strings.HasPrefix(result.CorrelationID, "cu-"))

	// The minted cookie must be an authentic token issued now
	valid, reason := signer.New("test-signing-secret").Verify(result.Cookie, 0)
	assert.True(t, valid, reason)

	mockCaptcha.AssertExpectations(t)
	mockDispatch.AssertExpectations(t)
}

func TestSubmissionService_Submit_HoneypotRejectsBeforeEverything(t *testing.T) {
	service, mockCaptcha, mockDispatch := newService(t)

	_, err := service.Submit(context.Background(), &models.SubmissionRequest{
		Honeypot:     "x",
		CaptchaToken: "valid-token",
		Text:         "hello",
	})

	assert.ErrorIs(t, err, apperrors.ErrValidation)
	mockCaptcha.AssertNotCalled(t, "Verify")
	mockDispatch.AssertNotCalled(t, "Relay")
}

func TestSubmissionService_Submit_MissingCaptchaToken(t *testing.T) {
	service, mockCaptcha, mockDispatch := newService(t)

	_, err := service.Submit(context.Background(), &models.SubmissionRequest{Text: "hello"})

	assert.ErrorIs(t, err, apperrors.ErrCaptcha)
	mockCaptcha.AssertNotCalled(t, "Verify")
	mockDispatch.AssertNotCalled(t, "Relay")
}

func TestSubmissionService_Submit_CaptchaRejected(t *testing.T) {
	service, mockCaptcha, mockDispatch := newService(t)

	mockCaptcha.On("Verify", mock.Anything, "bad-token").Return(errors.New("provider said no")).Once()

	_, err := service.Submit(context.Background(), &models.SubmissionRequest{
		CaptchaToken: "bad-token",
		Text:         "hello",
	})

	assert.ErrorIs(t, err, apperrors.ErrCaptcha)
	// provider cause is never surfaced to the submitter
	assert.Equal(t, "Captcha failed", apperrors.Detail(err))
	mockDispatch.AssertNotCalled(t, "Relay")
}

func TestSubmissionService_Submit_RateLimitedInsideWindow(t *testing.T) {
	service, mockCaptcha, mockDispatch := newService(t)

	mockCaptcha.On("Verify", mock.Anything, "valid-token").Return(nil).Once()

	freshCookie := signer.New("test-signing-secret").Sign(time.Now().Unix())
	_, err := service.Submit(context.Background(), &models.SubmissionRequest{
		CaptchaToken: "valid-token",
		Text:         "hello",
		RateCookie:   freshCookie,
	})

	assert.ErrorIs(t, err, apperrors.ErrRateLimit)
	mockDispatch.AssertNotCalled(t, "Relay")
}

func TestSubmissionService_Submit_ForgedCookieIgnored(t *testing.T) {
	service, mockCaptcha, mockDispatch := newService(t)

	testCases := []string{
		"garbage-cookie",
		signer.New("attacker-secret").Sign(time.Now().Unix()),
	}
	for _, cookie := range testCases {
		mockCaptcha.On("Verify", mock.Anything, "valid-token").Return(nil).Once()
		mockDispatch.On("Relay", mock.Anything, "@channel", mock.Anything, "hello", (*models.Attachment)(nil)).Return(nil).Once()

		result, err := service.Submit(context.Background(), &models.SubmissionRequest{
			CaptchaToken: "valid-token",
			Text:         "hello",
			RateCookie:   cookie,
		})

		assert.NoError(t, err, "cookie %q", cookie)
		assert.NotNil(t, result)
	}
}

func TestSubmissionService_Submit_TextModerationRejected(t *testing.T) {
	service, mockCaptcha, mockDispatch := newService(t)

	mockCaptcha.On("Verify", mock.Anything, "valid-token").Return(nil).Once()

	_, err := service.Submit(context.Background(), &models.SubmissionRequest{
		CaptchaToken: "valid-token",
		Text:         "https://a.one http://b.two www.c.three",
	})

	assert.ErrorIs(t, err, apperrors.ErrModeration)
	assert.Equal(t, "Слишком много ссылок в сообщении", apperrors.Detail(err))
	mockDispatch.AssertNotCalled(t, "Relay")
}

func TestSubmissionService_Submit_AttachmentModerationRejected(t *testing.T) {
	service, mockCaptcha, mockDispatch := newService(t)

	mockCaptcha.On("Verify", mock.Anything, "valid-token").Return(nil).Once()

	_, err := service.Submit(context.Background(), &models.SubmissionRequest{
		CaptchaToken: "valid-token",
		Text:         "hello",
		Attachment:   &models.Attachment{MIMEType: "", Size: 42, Data: []byte("x")},
	})

	assert.ErrorIs(t, err, apperrors.ErrModeration)
	mockDispatch.AssertNotCalled(t, "Relay")
}

func TestSubmissionService_Submit_DispatchFailure(t *testing.T) {
	service, mockCaptcha, mockDispatch := newService(t)

	mockCaptcha.On("Verify", mock.Anything, "valid-token").Return(nil).Once()
	mockDispatch.On("Relay", mock.Anything, "@channel", mock.Anything, "hello", (*models.Attachment)(nil)).
		Return(errors.New("bot api unreachable")).Once()

	result, err := service.Submit(context.Background(), &models.SubmissionRequest{
		CaptchaToken: "valid-token",
		Text:         "hello",
	})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrDispatch)
	mockDispatch.AssertExpectations(t)
}

func TestSubmissionService_Submit_AttachmentReachesDispatcher(t *testing.T) {
	service, mockCaptcha, mockDispatch := newService(t)

	att := &models.Attachment{
		MIMEType: "image/png",
		Size:     3,
		Filename: "pic.png",
		Data:     []byte{1, 2, 3},
	}

	mockCaptcha.On("Verify", mock.Anything, "valid-token").Return(nil).Once()
	mockDispatch.On("Relay", mock.Anything, "@channel", mock.Anything, "", att).Return(nil).Once()

	result, err := service.Submit(context.Background(), &models.SubmissionRequest{
		CaptchaToken: "valid-token",
		Attachment:   att,
	})

	assert.NoError(t, err)
	assert.NotNil(t, result)
	mockDispatch.AssertExpectations(t)
}
