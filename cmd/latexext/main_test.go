package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cabird/gpt-chrome-latex-ext/settings"
	"github.com/cabird/gpt-chrome-latex-ext/template"
	"github.com/cabird/gpt-chrome-latex-ext/usage"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"LATEXEXT_PROVIDER", "LATEXEXT_API_KEY", "LATEXEXT_ENDPOINT",
		"LATEXEXT_DEPLOYMENT", "LATEXEXT_API_VERSION", "LATEXEXT_MODEL",
		"LATEXEXT_BASE_URL", "LATEXEXT_ORGANIZATION", "LATEXEXT_TIMEOUT",
		"LATEXEXT_SETTINGS", "LATEXEXT_THRESHOLD", "LATEXEXT_LOG_LEVEL", "LATEXEXT_ADDR",
	} {
		t.Setenv(k, "")
	}
}

// run executes the CLI against a settings file in a temp dir.
func run(t *testing.T, settingsPath, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(append([]string{"--settings", settingsPath}, args...))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func tempSettings(t *testing.T) string {
	t.Helper()
	clearEnv(t)
	return filepath.Join(t.TempDir(), "settings.yaml")
}

func TestCount(t *testing.T) {
	path := tempSettings(t)

	out, _, err := run(t, path, "", "count", "hello", "world")
	require.NoError(t, err)
	assert.Equal(t, "5 tokens\n", out)

	out, _, err = run(t, path, `\frac{a}{b}`, "count")
	require.NoError(t, err)
	assert.Contains(t, out, "tokens")

	out, _, err = run(t, path, "", "count", "--ratio", "4", "abcdefgh")
	require.NoError(t, err)
	assert.Equal(t, "2 tokens\n", out)
}

func TestCount_ThresholdFromEnv(t *testing.T) {
	path := tempSettings(t)
	t.Setenv("LATEXEXT_THRESHOLD", "3")

	out, _, err := run(t, path, "", "count", "hello", "world")
	require.NoError(t, err)
	assert.Contains(t, out, "warning: above the 3 token threshold")
}

func TestRender(t *testing.T) {
	path := tempSettings(t)

	out, _, err := run(t, path, "  $x^2$\n", "render", "--instruction", "expand")
	require.NoError(t, err)
	want := template.RenderDefault(template.DefaultTemplate, template.Fields{Selection: "$x^2$", Instruction: "expand"})
	assert.Equal(t, want+"\n", out)
}

func TestRender_TemplateFile(t *testing.T) {
	path := tempSettings(t)
	tmplPath := filepath.Join(t.TempDir(), "t.txt")
	require.NoError(t, os.WriteFile(tmplPath, []byte("{{INSTRUCTIONS}} -> {{LATEX_TEXT}}"), 0o600))

	out, _, err := run(t, path, "", "render", "-s", "A", "-i", "B", "--template", tmplPath)
	require.NoError(t, err)
	assert.Equal(t, "B -> A\n", out)
}

func TestSummarize_JSON(t *testing.T) {
	path := tempSettings(t)

	out, _, err := run(t, path, "", "summarize", "-s", "x", "-i", "fix", "--context", "ctx", "--json", "--threshold", "2")
	require.NoError(t, err)

	var sum usage.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &sum))
	assert.Equal(t, 2, sum.Threshold)
	assert.True(t, sum.ExceedsThreshold)
	assert.Positive(t, sum.ContextTokens)
}

func TestSettingsCommands(t *testing.T) {
	path := tempSettings(t)

	_, errOut, err := run(t, path, "", "settings", "add-profile", "work",
		"--kind", "azure", "--endpoint", "https://x.openai.azure.com", "--deployment", "gpt-4o")
	require.NoError(t, err)
	assert.Contains(t, errOut, "missing azure.api_key")

	_, _, err = run(t, path, "", "settings", "add-profile", "home",
		"--kind", "openai", "--model", "gpt-4o-mini", "--api-key", "sk-home-1234567890", "--use")
	require.NoError(t, err)

	out, _, err := run(t, path, "", "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "* home")
	assert.Contains(t, out, "  work")
	assert.NotContains(t, out, "sk-home-1234567890")

	out, _, err = run(t, path, "", "settings", "show", "-o", "json")
	require.NoError(t, err)
	var shown settings.Settings
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, "home", shown.ActiveProfile)
	assert.Equal(t, "sk-****7890", shown.Profiles[1].OpenAI.APIKey)

	_, _, err = run(t, path, "", "settings", "use", "work")
	require.NoError(t, err)
	_, _, err = run(t, path, "", "settings", "use", "nope")
	assert.ErrorIs(t, err, settings.ErrProfileNotFound)

	_, _, err = run(t, path, "", "settings", "remove", "work")
	require.NoError(t, err)

	store, err := settings.NewFileStore(path)
	require.NoError(t, err)
	cfg, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"home"}, cfg.ProfileNames())
	assert.Empty(t, cfg.ActiveProfile)
	assert.Equal(t, "sk-home-1234567890", cfg.Profiles[0].OpenAI.APIKey)
}

func TestSettings_UnknownKind(t *testing.T) {
	path := tempSettings(t)
	_, _, err := run(t, path, "", "settings", "add-profile", "x", "--kind", "bedrock")
	assert.Error(t, err)
}

func TestSettingsSetTemplate(t *testing.T) {
	path := tempSettings(t)

	_, _, err := run(t, path, "no placeholders here", "settings", "set-template", "-")
	assert.ErrorIs(t, err, template.ErrNoSelectionPlaceholder)

	_, _, err = run(t, path, "Fix: {{LATEX_TEXT}}\n", "settings", "set-template", "-")
	require.NoError(t, err)

	out, _, err := run(t, path, "", "render", "-s", "A")
	require.NoError(t, err)
	assert.Equal(t, "Fix: A\n", out)

	_, _, err = run(t, path, "raw {{INSTRUCTIONS}}", "settings", "set-template", "--force", "-")
	require.NoError(t, err)
}

func TestThresholdOverrideNotPersisted(t *testing.T) {
	path := tempSettings(t)

	_, _, err := run(t, path, "", "--threshold", "7", "settings", "add-profile", "home",
		"--kind", "openai", "--model", "gpt-4o", "--api-key", "sk-1234567890")
	require.NoError(t, err)

	store, err := settings.NewFileStore(path)
	require.NoError(t, err)
	cfg, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 120000, cfg.Threshold)
}

func TestSettingsSchema(t *testing.T) {
	path := tempSettings(t)
	out, _, err := run(t, path, "", "settings", "schema")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(out)))
	assert.Contains(t, out, "prompt_template")
}

func TestSubmit_EndToEnd(t *testing.T) {
	path := tempSettings(t)

	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o-mini-2024-07-18",
			"choices": [{
				"index": 0,
				"message": {"role": "assistant", "content": "Sure:\n`+"```latex\\n\\\\beta\\n```"+`"},
				"finish_reason": "stop"
			}],
			"usage": {"prompt_tokens": 40, "completion_tokens": 3, "total_tokens": 43}
		}`)
	}))
	defer srv.Close()

	_, _, err := run(t, path, "", "settings", "add-profile", "local",
		"--kind", "openai", "--model", "gpt-4o-mini", "--api-key", "sk-test-1234567890",
		"--base-url", srv.URL+"/v1")
	require.NoError(t, err)

	out, _, err := run(t, path, `\alpha`, "submit", "-i", "use beta")
	require.NoError(t, err)
	assert.Equal(t, "\\beta\n", out)

	require.NotNil(t, gotBody)
	assert.Equal(t, "gpt-4o-mini", gotBody["model"])
	msgs, ok := gotBody["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, msgs, 2)
}

func TestSubmit_NoProfile(t *testing.T) {
	path := tempSettings(t)
	_, _, err := run(t, path, "x", "submit", "-i", "y")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete")
}

func TestInvalidLogLevel(t *testing.T) {
	path := tempSettings(t)
	_, _, err := run(t, path, "", "--log-level", "loud", "count", "x")
	assert.Error(t, err)
}
