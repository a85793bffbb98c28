package moderation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/cupost/cupost-api/internal/models"
)

// linkPattern matches link-like substrings: schemed URLs, t.me references,
// @handle mentions and bare www. hosts.
var linkPattern = regexp.MustCompile(`(?i)https?://|t\.me/|@\w+|\bwww\.`)

const maxTextRunes = 4000

// DefaultBannedTerms is the stock denylist; matching is a case-insensitive
// substring check.
var DefaultBannedTerms = []string{
	"суицид", "бомба", "террор", "насилие", "экстремизм",
}

// DefaultAllowedMIMEPrefixes lists attachment types accepted explicitly.
// Types matching neither list are accepted too and relayed as documents.
var DefaultAllowedMIMEPrefixes = []string{
	"image/", "audio/", "video/", "text/", "application/pdf",
	"application/zip", "application/x-zip-compressed", "application/x-rar-compressed",
	"application/msword", "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/json",
}

// DefaultBlockedMIMEPrefixes lists executable and script content types that
// are always rejected.
var DefaultBlockedMIMEPrefixes = []string{
	"application/x-msdownload", "application/x-sh",
	"application/x-executable", "application/java-archive",
}

// Submitter-facing rejection reasons. The form is Russian-language; these are
// displayed verbatim.
const (
	reasonTooManyLinks = "Слишком много ссылок в сообщении"
	reasonBannedWords  = "Сообщение содержит запрещённые слова"
	reasonTooLong      = "Слишком длинный текст (>4000)"
	reasonUnknownType  = "Не удалось распознать тип файла"
	reasonEmptyFile    = "Пустой файл"
	reasonBlockedType  = "Этот тип файлов запрещён"
)

// Verdict is the outcome of one moderation check. A rejection carries a
// reason suitable for direct display to the submitter.
type Verdict struct {
	Allowed bool
	Reason  string
}

func accepted() Verdict              { return Verdict{Allowed: true} }
func rejected(reason string) Verdict { return Verdict{Allowed: false, Reason: reason} }

// Config tunes the rule set. Zero-value slices fall back to the defaults.
type Config struct {
	MaxAttachmentBytes  int64
	BannedTerms         []string
	AllowedMIMEPrefixes []string
	BlockedMIMEPrefixes []string
}

// Moderator evaluates submissions against the configured rules. It is pure
// and stateless: verdicts depend only on the inputs, never on prior requests.
type Moderator struct {
	maxAttachmentBytes int64
	bannedTerms        []string
	allowedPrefixes    []string
	blockedPrefixes    []string
}

// New creates a Moderator, applying defaults for unset rule lists.
func New(cfg Config) *Moderator {
	m := &Moderator{
		maxAttachmentBytes: cfg.MaxAttachmentBytes,
		bannedTerms:        cfg.BannedTerms,
		allowedPrefixes:    cfg.AllowedMIMEPrefixes,
		blockedPrefixes:    cfg.BlockedMIMEPrefixes,
	}
	if len(m.bannedTerms) == 0 {
		m.bannedTerms = DefaultBannedTerms
	}
	if len(m.allowedPrefixes) == 0 {
		m.allowedPrefixes = DefaultAllowedMIMEPrefixes
	}
	if len(m.blockedPrefixes) == 0 {
		m.blockedPrefixes = DefaultBlockedMIMEPrefixes
	}
	return m
}

// CheckText evaluates the text rules in order; the first violation wins.
// Empty text passes and passing text is never rewritten.
func (m *Moderator) CheckText(text string) Verdict {
	if text == "" {
		return accepted()
	}

	if len(linkPattern.FindAllStringIndex(text, -1)) > 2 {
		return rejected(reasonTooManyLinks)
	}

	lowered := strings.ToLower(text)
	for _, term := range m.bannedTerms {
		if strings.Contains(lowered, term) {
			return rejected(reasonBannedWords)
		}
	}

	if utf8.RuneCountInString(text) > maxTextRunes {
		return rejected(reasonTooLong)
	}

	return accepted()
}

// CheckAttachment evaluates the attachment rules in order. Attachments on
// the allow-list, or matching neither list, are both accepted: the policy is
// default-accept unless explicitly denied or structurally invalid.
func (m *Moderator) CheckAttachment(att *models.Attachment) Verdict {
	if att == nil {
		return accepted()
	}

	if att.MIMEType == "" {
		return rejected(reasonUnknownType)
	}
	if att.Size <= 0 {
		return rejected(reasonEmptyFile)
	}
	if att.Size > m.maxAttachmentBytes {
		return rejected(fmt.Sprintf("Файл слишком большой (макс %dMB)", m.maxAttachmentBytes/(1024*1024)))
	}

	for _, prefix := range m.blockedPrefixes {
		if strings.HasPrefix(att.MIMEType, prefix) {
			return rejected(reasonBlockedType)
		}
	}

	return accepted()
}
