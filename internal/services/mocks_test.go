package services_test

import (
	"context"

	"github.com/cupost/cupost-api/internal/models"
	"github.com/cupost/cupost-api/pkg/captcha"
	"github.com/stretchr/testify/mock"
)

// MockCaptchaVerifier is a mock implementation of CaptchaVerifierInterface
type MockCaptchaVerifier struct {
	mock.Mock
}

func (m *MockCaptchaVerifier) Verify(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockCaptchaVerifier) Mode() captcha.Mode {
	args := m.Called()
	return args.Get(0).(captcha.Mode)
}

// MockDispatchClient is a mock implementation of DispatchClientInterface
type MockDispatchClient struct {
	mock.Mock
}

func (m *MockDispatchClient) Relay(ctx context.Context, chatID, correlationID, text string, att *models.Attachment) error {
	args := m.Called(ctx, chatID, correlationID, text, att)
	return args.Error(0)
}
