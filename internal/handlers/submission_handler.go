package handlers

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/cupost/cupost-api/internal/models"
	"github.com/cupost/cupost-api/internal/services"
	apperrors "github.com/cupost/cupost-api/pkg/errors"
	"github.com/cupost/cupost-api/pkg/logger"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
)

const (
	// fieldMapFormKey is the only fixed, non-obfuscated form field: it
	// carries the base64-JSON map naming all the others.
	fieldMapFormKey = "m"

	rateCookieName   = "sub_token"
	rateCookieMaxAge = 365 * 24 * 60 * 60
)

type SubmissionHandler struct {
	service services.SubmissionServiceInterface
}

func NewSubmissionHandler(service services.SubmissionServiceInterface) *SubmissionHandler {
	return &SubmissionHandler{service: service}
}

// Submit handles POST /submission: decode the field map, extract the logical
// inputs, run the pipeline and set the fresh rate-limit cookie on success.
func (h *SubmissionHandler) Submit(c *gin.Context) {
	fieldMap, err := models.DecodeFieldMap(c.PostForm(fieldMapFormKey))
	if err != nil {
		respondError(c, err)
		return
	}

	req := &models.SubmissionRequest{}
	if fieldMap.Token != "" {
		req.CaptchaToken = c.PostForm(fieldMap.Token)
	}
	if fieldMap.Text != "" {
		req.Text = c.PostForm(fieldMap.Text)
	}
	if fieldMap.Honeypot != "" {
		req.Honeypot = c.PostForm(fieldMap.Honeypot)
	}
	if fieldMap.File != "" {
		att, err := readAttachment(c, fieldMap.File)
		if err != nil {
			respondError(c, err)
			return
		}
		req.Attachment = att
	}
	if cookie, err := c.Cookie(rateCookieName); err == nil {
		req.RateCookie = cookie
	}

	result, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(rateCookieName, result.Cookie, rateCookieMaxAge, "/", "", true, true)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// readAttachment loads the uploaded file fully into memory for the lifetime
// of the request. A missing file part is not an error: the input is absent.
func readAttachment(c *gin.Context, formKey string) (*models.Attachment, error) {
	header, err := c.FormFile(formKey)
	if err != nil || header.Filename == "" {
		return nil, nil
	}

	data, err := readAll(header)
	if err != nil {
		return nil, apperrors.ValidationError("bad attachment")
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = mimetype.Detect(data).String()
	}

	return &models.Attachment{
		MIMEType: mimeType,
		Size:     int64(len(data)),
		Filename: header.Filename,
		Data:     data,
	}, nil
}

func readAll(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

// respondError maps pipeline error kinds to HTTP statuses. Dispatch failures
// surface as a generic server error: never disguised as a moderation verdict.
func respondError(c *gin.Context, err error) {
	switch {
	case apperrors.Is(err, apperrors.ErrRateLimit):
		c.JSON(http.StatusTooManyRequests, gin.H{"detail": apperrors.Detail(err)})
	case apperrors.Is(err, apperrors.ErrValidation),
		apperrors.Is(err, apperrors.ErrCaptcha),
		apperrors.Is(err, apperrors.ErrModeration):
		c.JSON(http.StatusBadRequest, gin.H{"detail": apperrors.Detail(err)})
	default:
		logger.LogError(err, "Submission failed with server error")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
	}
}
