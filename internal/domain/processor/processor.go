// Package processor defines the RequestProcessor entity: a stored,
// user-authored snippet keyed by a stable identifier.
package processor

import (
	"fmt"
	"strings"
	"time"
)

// Language identifies the scripting language a processor's source is
// written in. Only "javascript" is currently supported.
type Language string

// Runtime identifies the JS engine variant a processor targets. Only "v8"
// is currently supported (the gateway actually runs goja, but processors
// are authored against the v8-flavored bridge surface).
type Runtime string

const (
	LanguageJavaScript Language = "javascript"
	RuntimeV8          Runtime  = "v8"
)

// ParseLanguage validates a language tag, returning apierrors-shaped
// failure information via the returned error for unknown variants.
func ParseLanguage(s string) (Language, error) {
	switch Language(strings.ToLower(strings.TrimSpace(s))) {
	case LanguageJavaScript:
		return LanguageJavaScript, nil
	default:
		return "", fmt.Errorf("unknown processor language %q", s)
	}
}

// ParseRuntime validates a runtime tag the same way ParseLanguage does.
func ParseRuntime(s string) (Runtime, error) {
	switch Runtime(strings.ToLower(strings.TrimSpace(s))) {
	case RuntimeV8:
		return RuntimeV8, nil
	default:
		return "", fmt.Errorf("unknown processor runtime %q", s)
	}
}

// DefaultUserID is assigned when a caller omits the owning user identifier.
const DefaultUserID = "anonymous"

// RequestProcessor is a stored snippet invoked by any HTTP request that
// references its identifier.
type RequestProcessor struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Language    Language  `json:"language"`
	Runtime     Runtime   `json:"runtime"`
	UserID      string    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Normalize fills in defaults and validates tag fields. Called by Storage
// on create/update so every persisted processor carries known tags.
func (p *RequestProcessor) Normalize() error {
	if strings.TrimSpace(p.UserID) == "" {
		p.UserID = DefaultUserID
	}
	if p.Language == "" {
		p.Language = LanguageJavaScript
	}
	if p.Runtime == "" {
		p.Runtime = RuntimeV8
	}
	lang, err := ParseLanguage(string(p.Language))
	if err != nil {
		return err
	}
	rt, err := ParseRuntime(string(p.Runtime))
	if err != nil {
		return err
	}
	p.Language = lang
	p.Runtime = rt
	return nil
}
