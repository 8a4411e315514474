package security

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/dinarly/dinarly-api/pkg/metrics"
)

// Validation failures that abort an import before any row is tokenized.
var (
	ErrContentTooLarge  = errors.New("security: content exceeds maximum size")
	ErrTooManyLines     = errors.New("security: content exceeds maximum line count")
	ErrMaliciousContent = errors.New("security: content matches injection pattern")
)

const (
	// DefaultMaxContentBytes caps uploads at 5 MB.
	DefaultMaxContentBytes = 5 * 1024 * 1024
	// DefaultMaxLines caps uploads at 10,000 lines.
	DefaultMaxLines = 10000
)

// injectionPattern pairs an audit-rule name with the regexp that triggers it.
type injectionPattern struct {
	rule string
	re   *regexp.Regexp
}

// Patterns are checked against the raw payload before any parsing. Bank
// exports are plain text; anything resembling markup or code is rejected
// outright rather than sanitized.
var injectionPatterns = []injectionPattern{
	{"script_tag", regexp.MustCompile(`(?i)<\s*/?\s*script\b`)},
	{"javascript_uri", regexp.MustCompile(`(?i)javascript\s*:`)},
	{"vbscript_uri", regexp.MustCompile(`(?i)vbscript\s*:`)},
	{"event_handler", regexp.MustCompile(`(?i)\bon[a-z]+\s*=`)},
	{"template_literal", regexp.MustCompile(`\$\{[^}]*\}`)},
	{"code_token", regexp.MustCompile(`(?i)\b(eval|exec|require|import)\s*\(`)},
	{"prototype_pollution", regexp.MustCompile(`(?i)__proto__|constructor\s*\[|prototype\s*\[`)},
}

// Validator screens raw statement payloads. All checks run once, up front;
// a payload that passes is safe to hand to the tokenizer.
type Validator struct {
	maxBytes int64
	maxLines int
	audit    *AuditLogger
}

// NewValidator creates a validator with the given limits. Zero limits fall
// back to the defaults.
func NewValidator(maxBytes int64, maxLines int, audit *AuditLogger) *Validator {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxContentBytes
	}
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	return &Validator{maxBytes: maxBytes, maxLines: maxLines, audit: audit}
}

// Validate checks size, injection patterns and line count, in that order.
// Every attempt is audited, pass or fail.
func (v *Validator) Validate(ctx context.Context, userID uuid.UUID, content string) error {
	if int64(len(content)) > v.maxBytes {
		v.reject(ctx, userID, "content_too_large", len(content))
		return fmt.Errorf("%w: %d bytes (max %d)", ErrContentTooLarge, len(content), v.maxBytes)
	}

	for _, p := range injectionPatterns {
		if p.re.MatchString(content) {
			v.reject(ctx, userID, p.rule, len(content))
			return fmt.Errorf("%w: %s", ErrMaliciousContent, p.rule)
		}
	}

	if lines := strings.Count(content, "\n") + 1; lines > v.maxLines {
		v.reject(ctx, userID, "too_many_lines", len(content))
		return fmt.Errorf("%w: %d lines (max %d)", ErrTooManyLines, lines, v.maxLines)
	}

	v.audit.Event(ctx, "upload_validated", map[string]any{
		"user_id":        userID.String(),
		"content_length": len(content),
	})
	return nil
}

func (v *Validator) reject(ctx context.Context, userID uuid.UUID, rule string, length int) {
	v.audit.Event(ctx, "upload_rejected", map[string]any{
		"user_id":        userID.String(),
		"rule":           rule,
		"content_length": length,
	})
	metrics.ValidationRejections.WithLabelValues(rule).Inc()
}
