package services

import (
	"context"

	"github.com/cupost/cupost-api/internal/models"
	"github.com/cupost/cupost-api/pkg/captcha"
)

// SubmissionServiceInterface defines the submission pipeline entry point
type SubmissionServiceInterface interface {
	Submit(ctx context.Context, req *models.SubmissionRequest) (*models.SubmissionResult, error)
}

// CaptchaVerifierInterface defines the captcha gate collaborator
type CaptchaVerifierInterface interface {
	Verify(ctx context.Context, token string) error
	Mode() captcha.Mode
}

// DispatchClientInterface defines the outbound messaging collaborator
type DispatchClientInterface interface {
	Relay(ctx context.Context, chatID, correlationID, text string, att *models.Attachment) error
}
