package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/deffeddef/invoice-extractor-app/internal/common"
	"github.com/deffeddef/invoice-extractor-app/internal/entity"
	"github.com/deffeddef/invoice-extractor-app/internal/export"
)

const (
	WelcomeMessage    = "Welcome to the Invoice Extractor API."
	MsgNoFileName     = "No file name provided."
	defaultMaxUploadB = 20 << 20
)

// Parser runs the extraction pipeline for one uploaded document.
type Parser interface {
	Parse(ctx context.Context, fileName string, r io.ReadSeeker) entity.ExtractionResult
}

type Options struct {
	MaxUploadBytes int64
	// ModelLoaded reports readiness for /health; nil means unknown.
	ModelLoaded func() bool
}

type Server struct {
	parser   Parser
	exporter *export.Service
	opts     Options
	logger   *slog.Logger
}

func New(parser Parser, exporter *export.Service, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if exporter == nil {
		exporter = export.NewService(logger)
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadB
	}
	return &Server{parser: parser, exporter: exporter, opts: opts, logger: logger}
}

// Router builds the gin engine with middleware and routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), RequestLogger(s.logger), Recovery(s.logger))
	r.MaxMultipartMemory = s.opts.MaxUploadBytes

	r.GET("/", s.welcome)
	r.GET("/health", s.health)

	api := r.Group("/api")
	api.POST("/upload", s.upload)
	return r
}

func (s *Server) welcome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": WelcomeMessage})
}

func (s *Server) health(c *gin.Context) {
	body := gin.H{"status": "ok"}
	if s.opts.ModelLoaded != nil {
		body["model_loaded"] = s.opts.ModelLoaded()
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) upload(c *gin.Context) {
	// multipart framing gets 1 MB of slack on top of the file limit
	bodyLimit := s.opts.MaxUploadBytes + 1<<20
	if c.Request.ContentLength > bodyLimit {
		s.tooLarge(c)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, bodyLimit)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.tooLarge(c)
			return
		}
		c.JSON(http.StatusBadRequest, entity.Failure(MsgNoFileName))
		return
	}
	defer file.Close()

	name := strings.TrimSpace(header.Filename)
	if name == "" {
		c.JSON(http.StatusBadRequest, entity.Failure(MsgNoFileName))
		return
	}
	if header.Size > s.opts.MaxUploadBytes {
		s.tooLarge(c)
		return
	}

	ctx := c.Request.Context()
	res := s.parser.Parse(ctx, name, file)
	if !res.OK() {
		c.JSON(http.StatusBadRequest, res)
		return
	}

	if strings.EqualFold(c.Query("format"), "xlsx") {
		b, err := s.exporter.InvoiceWorkbook(ctx, res.InvoiceData)
		if err != nil {
			common.LoggerFrom(ctx, s.logger).Error("http.upload.export_failed", "error", err)
			c.JSON(http.StatusInternalServerError, entity.Failure(common.MsgUnexpected))
			return
		}
		stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, stem))
		c.Data(http.StatusOK, export.ContentType, b)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (s *Server) tooLarge(c *gin.Context) {
	c.JSON(http.StatusRequestEntityTooLarge, entity.Failure(
		fmt.Sprintf("Uploaded file exceeds the %d MB limit.", s.opts.MaxUploadBytes>>20)))
}
