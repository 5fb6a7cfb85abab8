package common

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultModelURL points at the quantized instruct model the engine is tuned for.
const DefaultModelURL = "https://huggingface.co/TheBloke/Mistral-7B-Instruct-v0.2-GGUF/resolve/main/mistral-7b-instruct-v0.2.Q4_K_M.gguf"

// Config holds all application configuration
type Config struct {
	Server         ServerConfig
	LLM            LLMConfig
	Model          ModelConfig
	OCR            OCRConfig
	Sustainability SustainabilityConfig
	Log            LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Addr        string
	MaxUploadMB int64
}

// LLMConfig holds configuration for the local inference runtime.
type LLMConfig struct {
	BaseURL       string
	Model         string
	APIKey        string
	MaxTokens     int
	Temperature   float64
	JSONMode      bool
	Timeout       time.Duration
	LenientRepair bool
}

// ModelConfig describes where the model weights live and how to fetch them.
type ModelConfig struct {
	URL      string
	Dir      string
	Name     string
	Download bool
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Provider       string
	PDFToText      string
	PDFToPPM       string
	Tesseract      string
	Lang           string
	TessdataDir    string
	DPI            int
	MinDirectChars int
	Enhance        bool
	AzureEndpoint  string
	AzureKey       string
}

// SustainabilityConfig selects the lookup providers used by the scorer.
type SustainabilityConfig struct {
	EcoVadisURL       string
	EcoVadisKey       string
	BCorpURL          string
	EcolabelURL       string
	CO2URL            string
	RulesFile         string
	VendorRegistryDSN string
	Timeout           time.Duration
}

const (
	OCRProviderTesseract = "tesseract"
	OCRProviderAzure     = "azure"
)

// NewViper returns a viper instance with defaults and environment binding.
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server_addr", ":8000")
	v.SetDefault("max_upload_mb", 20)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	v.SetDefault("llm_base_url", "http://localhost:8080")
	v.SetDefault("llm_model", "mistral-7b-instruct-v0.2.Q4_K_M")
	v.SetDefault("llm_api_key", "")
	v.SetDefault("llm_max_tokens", 2048)
	v.SetDefault("llm_temperature", 0.3)
	v.SetDefault("llm_json_mode", true)
	v.SetDefault("llm_timeout", "0s")
	v.SetDefault("llm_lenient_repair", true)

	v.SetDefault("model_url", DefaultModelURL)
	v.SetDefault("model_dir", "model")
	v.SetDefault("model_name", "mistral-7b-instruct-v0.2.Q4_K_M.gguf")
	v.SetDefault("model_download", false)

	v.SetDefault("ocr_provider", OCRProviderTesseract)
	v.SetDefault("pdftotext", "pdftotext")
	v.SetDefault("pdftoppm", "pdftoppm")
	v.SetDefault("tesseract", "tesseract")
	v.SetDefault("tesseract_lang", "eng")
	v.SetDefault("tessdata_prefix", "")
	v.SetDefault("ocr_dpi", 300)
	v.SetDefault("ocr_min_direct_chars", 100)
	v.SetDefault("ocr_enhance", false)
	v.SetDefault("azure_vision_endpoint", "")
	v.SetDefault("azure_vision_key", "")

	v.SetDefault("ecovadis_api_url", "")
	v.SetDefault("ecovadis_api_key", "")
	v.SetDefault("b_corp_api_url", "")
	v.SetDefault("eu_ecolabel_api_url", "")
	v.SetDefault("co2_api_url", "")
	v.SetDefault("sustainability_rules_file", "")
	v.SetDefault("vendor_registry_dsn", "")
	v.SetDefault("sustainability_timeout", "5s")
}

// LoadConfig loads configuration from an optional .env file, the environment
// and an optional config file (yaml, toml or json by extension).
// Environment variables take precedence over the config file.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, NewAppError(CodeConfig, "failed to read .env", err)
	}

	v := NewViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, NewAppError(CodeConfig, fmt.Sprintf("failed to read config file %s", path), err)
		}
	}
	return FromViper(v), nil
}

// FromViper materializes a Config from a populated viper instance.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        v.GetString("server_addr"),
			MaxUploadMB: v.GetInt64("max_upload_mb"),
		},
		LLM: LLMConfig{
			BaseURL:       v.GetString("llm_base_url"),
			Model:         v.GetString("llm_model"),
			APIKey:        v.GetString("llm_api_key"),
			MaxTokens:     v.GetInt("llm_max_tokens"),
			Temperature:   v.GetFloat64("llm_temperature"),
			JSONMode:      v.GetBool("llm_json_mode"),
			Timeout:       v.GetDuration("llm_timeout"),
			LenientRepair: v.GetBool("llm_lenient_repair"),
		},
		Model: ModelConfig{
			URL:      v.GetString("model_url"),
			Dir:      v.GetString("model_dir"),
			Name:     v.GetString("model_name"),
			Download: v.GetBool("model_download"),
		},
		OCR: OCRConfig{
			Provider:       strings.ToLower(v.GetString("ocr_provider")),
			PDFToText:      v.GetString("pdftotext"),
			PDFToPPM:       v.GetString("pdftoppm"),
			Tesseract:      v.GetString("tesseract"),
			Lang:           v.GetString("tesseract_lang"),
			TessdataDir:    v.GetString("tessdata_prefix"),
			DPI:            v.GetInt("ocr_dpi"),
			MinDirectChars: v.GetInt("ocr_min_direct_chars"),
			Enhance:        v.GetBool("ocr_enhance"),
			AzureEndpoint:  v.GetString("azure_vision_endpoint"),
			AzureKey:       v.GetString("azure_vision_key"),
		},
		Sustainability: SustainabilityConfig{
			EcoVadisURL:       v.GetString("ecovadis_api_url"),
			EcoVadisKey:       v.GetString("ecovadis_api_key"),
			BCorpURL:          v.GetString("b_corp_api_url"),
			EcolabelURL:       v.GetString("eu_ecolabel_api_url"),
			CO2URL:            v.GetString("co2_api_url"),
			RulesFile:         v.GetString("sustainability_rules_file"),
			VendorRegistryDSN: v.GetString("vendor_registry_dsn"),
			Timeout:           v.GetDuration("sustainability_timeout"),
		},
		Log: LogConfig{
			Level:  v.GetString("log_level"),
			Format: v.GetString("log_format"),
		},
	}
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return NewAppError(CodeConfig, "SERVER_ADDR is required", ErrInvalidConfig)
	}
	if c.Server.MaxUploadMB <= 0 {
		return NewAppError(CodeConfig, "MAX_UPLOAD_MB must be positive", ErrInvalidConfig)
	}
	if c.LLM.BaseURL == "" {
		return NewAppError(CodeConfig, "LLM_BASE_URL is required", ErrInvalidConfig)
	}
	if c.LLM.MaxTokens <= 0 {
		return NewAppError(CodeConfig, "LLM_MAX_TOKENS must be positive", ErrInvalidConfig)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return NewAppError(CodeConfig, "LLM_TEMPERATURE must be within [0, 2]", ErrInvalidConfig)
	}
	if c.OCR.DPI <= 0 {
		return NewAppError(CodeConfig, "OCR_DPI must be positive", ErrInvalidConfig)
	}
	switch c.OCR.Provider {
	case OCRProviderTesseract:
	case OCRProviderAzure:
		if c.OCR.AzureEndpoint == "" || c.OCR.AzureKey == "" {
			return NewAppError(CodeConfig, "AZURE_VISION_ENDPOINT and AZURE_VISION_KEY are required for the azure OCR provider", ErrInvalidConfig)
		}
	default:
		return NewAppError(CodeConfig, fmt.Sprintf("unknown OCR_PROVIDER %q", c.OCR.Provider), ErrInvalidConfig)
	}
	if c.Model.Download && (c.Model.URL == "" || c.Model.Name == "") {
		return NewAppError(CodeConfig, "MODEL_URL and MODEL_NAME are required when MODEL_DOWNLOAD is set", ErrInvalidConfig)
	}
	return nil
}

// ModelPath is the on-disk location of the model weights.
func (m ModelConfig) ModelPath() string {
	dir := strings.TrimRight(m.Dir, "/")
	if dir == "" {
		return m.Name
	}
	return dir + "/" + m.Name
}
