package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLanguage(t *testing.T) {
	lang, err := ParseLanguage("JavaScript")
	require.NoError(t, err)
	assert.Equal(t, LanguageJavaScript, lang)

	_, err = ParseLanguage("python")
	assert.Error(t, err)
}

func TestParseRuntime(t *testing.T) {
	rt, err := ParseRuntime(" v8 ")
	require.NoError(t, err)
	assert.Equal(t, RuntimeV8, rt)

	_, err = ParseRuntime("quickjs")
	assert.Error(t, err)
}

func TestNormalizeDefaults(t *testing.T) {
	p := RequestProcessor{Name: "echo", Code: "..."}
	require.NoError(t, p.Normalize())
	assert.Equal(t, DefaultUserID, p.UserID)
	assert.Equal(t, LanguageJavaScript, p.Language)
	assert.Equal(t, RuntimeV8, p.Runtime)
}

func TestNormalizeRejectsUnknownTags(t *testing.T) {
	p := RequestProcessor{Name: "echo", Language: "ruby"}
	assert.Error(t, p.Normalize())
}
