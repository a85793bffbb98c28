package services

import (
	"context"
	"strings"
	"time"

	"github.com/cupost/cupost-api/config"
	"github.com/cupost/cupost-api/internal/models"
	"github.com/cupost/cupost-api/internal/moderation"
	"github.com/cupost/cupost-api/pkg/cuid"
	apperrors "github.com/cupost/cupost-api/pkg/errors"
	"github.com/cupost/cupost-api/pkg/logger"
	"github.com/cupost/cupost-api/pkg/metrics"
	"github.com/cupost/cupost-api/pkg/signer"
	"github.com/cupost/cupost-api/pkg/tracing"
	"go.uber.org/zap"
)

// Throttle message shown to submitters, localized like the moderation reasons.
const rateLimitedDetail = "Слишком часто. Подождите немного."

// SubmissionService runs the gate sequence for one anonymous submission:
// honeypot, captcha, cooldown, text moderation, attachment moderation,
// dispatch, cookie mint. The first failing gate stops the pipeline and none
// of the later steps execute. The service holds no per-request state.
type SubmissionService struct {
	cfg             *config.Config
	captchaVerifier CaptchaVerifierInterface
	dispatcher      DispatchClientInterface
	tokenSigner     *signer.Signer
	moderator       *moderation.Moderator
}

// NewSubmissionService creates the pipeline orchestrator.
func NewSubmissionService(
	cfg *config.Config,
	captchaVerifier CaptchaVerifierInterface,
	dispatcher DispatchClientInterface,
) *SubmissionService {
	return &SubmissionService{
		cfg:             cfg,
		captchaVerifier: captchaVerifier,
		dispatcher:      dispatcher,
		tokenSigner:     signer.New(cfg.Submission.SigningSecret),
		moderator: moderation.New(moderation.Config{
			MaxAttachmentBytes: cfg.Submission.MaxAttachmentBytes(),
			BannedTerms:        cfg.Submission.BannedTerms,
		}),
	}
}

// Submit processes one decoded submission and returns the fresh rate-limit
// cookie on acceptance.
func (s *SubmissionService) Submit(ctx context.Context, req *models.SubmissionRequest) (*models.SubmissionResult, error) {
	// A honeypot field is invisible to real users; any value is a bot signal
	// and overrides everything else in the request.
	if req.Honeypot != "" {
		metrics.SubmissionsTotal.WithLabelValues("honeypot").Inc()
		return nil, apperrors.ValidationError("Invalid form")
	}

	if req.CaptchaToken == "" {
		metrics.SubmissionsTotal.WithLabelValues("captcha_failed").Inc()
		return nil, apperrors.CaptchaError("Captcha failed")
	}
	captchaCtx, captchaSpan := tracing.StartSpan(ctx, "captcha.verify")
	err := s.captchaVerifier.Verify(captchaCtx, req.CaptchaToken)
	captchaSpan.End()
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues("captcha_failed").Inc()
		logger.Warn("Captcha verification failed",
			zap.String("provider", string(s.captchaVerifier.Mode())),
			zap.Error(err))
		return nil, apperrors.CaptchaError("Captcha failed")
	}

	// Cooldown check: only an authentic token inside the window throttles.
	// Any other verify failure means a forged or stale cookie and is treated
	// as no prior token, so it never blocks a legitimate submission.
	if req.RateCookie != "" {
		if ok, reason := s.tokenSigner.Verify(req.RateCookie, s.cfg.Submission.RateLimitWindow()); !ok && reason == signer.ReasonRateLimited {
			metrics.SubmissionsTotal.WithLabelValues("rate_limited").Inc()
			return nil, apperrors.RateLimitError(rateLimitedDetail)
		}
	}

	text := strings.TrimSpace(req.Text)
	if verdict := s.moderator.CheckText(text); !verdict.Allowed {
		metrics.SubmissionsTotal.WithLabelValues("moderation_rejected").Inc()
		return nil, apperrors.ModerationError(verdict.Reason)
	}
	if verdict := s.moderator.CheckAttachment(req.Attachment); !verdict.Allowed {
		metrics.SubmissionsTotal.WithLabelValues("moderation_rejected").Inc()
		return nil, apperrors.ModerationError(verdict.Reason)
	}

	correlationID := cuid.New()
	dispatchCtx, dispatchSpan := tracing.StartSpan(ctx, "telegram.relay")
	err = s.dispatcher.Relay(dispatchCtx, s.cfg.Telegram.ChannelID, correlationID, text, req.Attachment)
	dispatchSpan.End()
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues("dispatch_failed").Inc()
		logger.Error("Failed to relay submission",
			zap.String("correlation_id", correlationID),
			zap.Error(err))
		return nil, apperrors.DispatchError(err)
	}

	metrics.SubmissionsTotal.WithLabelValues("accepted").Inc()
	logger.Info("Submission relayed",
		zap.String("correlation_id", correlationID),
		zap.Bool("has_attachment", req.Attachment != nil))

	return &models.SubmissionResult{
		CorrelationID: correlationID,
		Cookie:        s.tokenSigner.Sign(time.Now().Unix()),
	}, nil
}
