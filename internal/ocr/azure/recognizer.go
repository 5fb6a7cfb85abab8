// Package azure recognizes page images with Azure Computer Vision printed-text OCR.
package azure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Azure/azure-sdk-for-go/services/cognitiveservices/v3.0/computervision"
	"github.com/Azure/go-autorest/autorest"
)

// ocrAPI is the slice of computervision.BaseClient we depend on.
type ocrAPI interface {
	RecognizePrintedTextInStream(ctx context.Context, detectOrientation bool, imageParameter io.ReadCloser, language computervision.OcrLanguages) (computervision.OcrResult, error)
}

// Recognizer implements ocr.Recognizer against Azure Computer Vision.
type Recognizer struct {
	client   ocrAPI
	language computervision.OcrLanguages
	logger   *slog.Logger
}

// NewRecognizer creates a recognizer authenticated with a Cognitive Services key.
func NewRecognizer(endpoint, apiKey string, logger *slog.Logger) *Recognizer {
	client := computervision.New(endpoint)
	client.Authorizer = autorest.NewCognitiveServicesAuthorizer(apiKey)
	return newRecognizer(client, logger)
}

func newRecognizer(client ocrAPI, logger *slog.Logger) *Recognizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recognizer{client: client, language: computervision.OcrLanguagesEn, logger: logger}
}

func (r *Recognizer) Recognize(ctx context.Context, imagePath string) (string, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return "", fmt.Errorf("open page image: %w", err)
	}
	defer f.Close()

	result, err := r.client.RecognizePrintedTextInStream(ctx, true, f, r.language)
	if err != nil {
		return "", fmt.Errorf("azure ocr: %w", err)
	}
	text := resultText(result)
	r.logger.Debug("ocr.azure.ok", "path", imagePath, "chars", len(text))
	return text, nil
}

// resultText flattens regions into one line of text per OCR line, in reading order.
func resultText(result computervision.OcrResult) string {
	if result.Regions == nil {
		return ""
	}
	var lines []string
	for _, region := range *result.Regions {
		if region.Lines == nil {
			continue
		}
		for _, line := range *region.Lines {
			if line.Words == nil {
				continue
			}
			words := make([]string, 0, len(*line.Words))
			for _, word := range *line.Words {
				if word.Text != nil {
					words = append(words, *word.Text)
				}
			}
			if len(words) > 0 {
				lines = append(lines, strings.Join(words, " "))
			}
		}
	}
	return strings.Join(lines, "\n")
}
