package common

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	cfg := FromViper(NewViper())

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, int64(20), cfg.Server.MaxUploadMB)
	assert.Equal(t, 2048, cfg.LLM.MaxTokens)
	assert.InDelta(t, 0.3, cfg.LLM.Temperature, 1e-9)
	assert.True(t, cfg.LLM.JSONMode)
	assert.Equal(t, time.Duration(0), cfg.LLM.Timeout)
	assert.Equal(t, 300, cfg.OCR.DPI)
	assert.Equal(t, 100, cfg.OCR.MinDirectChars)
	assert.Equal(t, OCRProviderTesseract, cfg.OCR.Provider)
	assert.Equal(t, 5*time.Second, cfg.Sustainability.Timeout)
	assert.Equal(t, "model/mistral-7b-instruct-v0.2.Q4_K_M.gguf", cfg.Model.ModelPath())
	require.NoError(t, cfg.Validate())
}

func TestFromViperEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9999")
	t.Setenv("LLM_TEMPERATURE", "0.7")
	t.Setenv("OCR_PROVIDER", "AZURE")
	t.Setenv("AZURE_VISION_ENDPOINT", "https://example.cognitiveservices.azure.com/")
	t.Setenv("AZURE_VISION_KEY", "k")

	cfg := FromViper(NewViper())
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.InDelta(t, 0.7, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, OCRProviderAzure, cfg.OCR.Provider)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm_max_tokens: 512\nocr_enhance: true\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 512, cfg.LLM.MaxTokens)
	assert.True(t, cfg.OCR.Enhance)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	appErr, ok := AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, CodeConfig, appErr.Code)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"zero tokens", func(c *Config) { c.LLM.MaxTokens = 0 }},
		{"temperature", func(c *Config) { c.LLM.Temperature = 3 }},
		{"unknown provider", func(c *Config) { c.OCR.Provider = "paddle" }},
		{"azure without key", func(c *Config) { c.OCR.Provider = OCRProviderAzure }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := FromViper(NewViper())
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}
}
