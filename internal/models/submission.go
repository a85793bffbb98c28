package models

// SubmissionRequest carries one decoded anonymous submission through the
// pipeline. Fields are already extracted by logical name via the FieldMap;
// empty strings mean the input was absent.
type SubmissionRequest struct {
	CaptchaToken string
	Text         string
	Honeypot     string
	Attachment   *Attachment
	RateCookie   string // prior rate-limit token, "" when no cookie was sent
}

// Attachment holds one uploaded file for the lifetime of a single request.
// It is relayed from memory and never written to disk.
type Attachment struct {
	MIMEType string
	Size     int64
	Filename string
	Data     []byte
}

// SubmissionResult is the outcome of an accepted submission.
type SubmissionResult struct {
	CorrelationID string
	// Cookie is the freshly minted rate-limit token to set on the response,
	// replacing any prior one.
	Cookie string
}

// ConfigResponse is the public captcha configuration for the web client.
type ConfigResponse struct {
	Captcha string `json:"captcha"`
	SiteKey string `json:"site_key"`
}
