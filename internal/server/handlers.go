package server

import (
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kade-connect/pricescout/constants"
	"github.com/kade-connect/pricescout/internal/async"
	"github.com/kade-connect/pricescout/internal/common"
	"github.com/kade-connect/pricescout/internal/dedupe"
	"github.com/kade-connect/pricescout/internal/pipeline"
	"github.com/kade-connect/pricescout/internal/repository"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": errorBody{Code: code, Message: message}})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleScan accepts a multipart price-tag image, optionally with a capture
// location, and runs it through the pipeline. ?async=true queues the scan and
// returns immediately with a submission id.
func (s *Server) handleScan(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		s.fail(c, http.StatusBadRequest, "MISSING_IMAGE", "multipart field 'image' is required")
		return
	}
	defer file.Close()

	ext := constants.NormalizeExt(filepath.Ext(header.Filename))
	if !constants.IsAllowedExt(ext) {
		s.fail(c, http.StatusBadRequest, "UNSUPPORTED_FORMAT", "only jpg, jpeg and png images are accepted")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.fail(c, http.StatusBadRequest, "READ_FAILED", "could not read uploaded image")
		return
	}

	geo, err := parseGeo(c)
	if err != nil {
		s.fail(c, http.StatusBadRequest, "INVALID_LOCATION", err.Error())
		return
	}

	hash := dedupe.HashImage(data)
	if s.dedupe != nil {
		seen, derr := s.dedupe.Seen(c.Request.Context(), hash)
		if derr != nil {
			s.logger.Warn("server.dedupe.unavailable", "error", derr)
		} else if seen {
			if s.metrics != nil {
				s.metrics.IncDeduped()
			}
			c.JSON(http.StatusConflict, gin.H{
				"error":      errorBody{Code: "DUPLICATE_SCAN", Message: "this image was already submitted recently"},
				"image_hash": hash,
			})
			return
		}
	}

	imagePath := s.archive(c, hash+"."+ext, data)

	req := pipeline.Request{
		Image: data,
		Geo:   geo,
		Metadata: map[string]string{
			"scout_id":  c.PostForm("scout_id"),
			"shop_name": c.PostForm("shop_name"),
		},
	}
	submissionID := uuid.New()

	if c.Query("async") == "true" && s.queue != nil {
		if err := s.queue.Enqueue(c.Request.Context(), async.Job{
			SubmissionID: submissionID,
			Request:      req,
			SubmittedAt:  time.Now().UTC(),
		}); err != nil {
			s.fail(c, http.StatusServiceUnavailable, "QUEUE_UNAVAILABLE", "could not queue submission")
			return
		}
		c.JSON(http.StatusAccepted, gin.H{
			"submission_id": submissionID,
			"status":        "queued",
		})
		return
	}

	outcome := s.processor.Process(c.Request.Context(), req)
	if !outcome.Succeeded {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"submission_id": submissionID,
			"outcome":       outcome,
		})
		return
	}

	if s.repo != nil {
		rec := &repository.StoredProduct{
			ID:           uuid.New(),
			SubmissionID: submissionID,
			Product:      *outcome.Product,
			ImageQuality: outcome.ImageQuality,
			ImagePath:    imagePath,
			CreatedAt:    time.Now().UTC(),
		}
		if err := s.repo.SaveProduct(c.Request.Context(), rec); err != nil {
			s.logger.Error("server.scan.store_failed", "submission_id", submissionID, "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"submission_id": submissionID,
		"outcome":       outcome,
	})
}

// archive stores the original image. Archival is best-effort; a storage
// failure never blocks the scan.
func (s *Server) archive(c *gin.Context, name string, data []byte) string {
	if s.images == nil {
		return ""
	}
	location, err := s.images.Save(c.Request.Context(), name, data)
	if err != nil {
		s.logger.Warn("server.archive.failed", "name", name, "error", err)
		return ""
	}
	return location
}

func parseGeo(c *gin.Context) (*pipeline.GeoPoint, error) {
	latStr := c.PostForm("latitude")
	lngStr := c.PostForm("longitude")
	if latStr == "" && lngStr == "" {
		return nil, nil
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, err
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return nil, err
	}
	return &pipeline.GeoPoint{Latitude: lat, Longitude: lng}, nil
}

type productResponse struct {
	ID           uuid.UUID                 `json:"id"`
	SubmissionID uuid.UUID                 `json:"submission_id"`
	Product      pipeline.ExtractedProduct `json:"product"`
	ImageQuality *float64                  `json:"image_quality,omitempty"`
	ImagePath    string                    `json:"image_path,omitempty"`
	CreatedAt    time.Time                 `json:"created_at"`
}

func (s *Server) handleListProducts(c *gin.Context) {
	from, to, err := parseWindow(c)
	if err != nil {
		s.fail(c, http.StatusBadRequest, "INVALID_WINDOW", err.Error())
		return
	}

	records, err := s.repo.ListProducts(c.Request.Context(), from, to)
	if err != nil {
		s.logger.Error("server.products.list_failed", "error", err)
		s.fail(c, common.HTTPStatus(err), "LIST_FAILED", "could not list products")
		return
	}

	out := make([]productResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, productResponse{
			ID:           rec.ID,
			SubmissionID: rec.SubmissionID,
			Product:      rec.Product,
			ImageQuality: rec.ImageQuality,
			ImagePath:    rec.ImagePath,
			CreatedAt:    rec.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"products": out, "count": len(out)})
}

func (s *Server) handleExportProducts(c *gin.Context) {
	from, to, err := parseWindow(c)
	if err != nil {
		s.fail(c, http.StatusBadRequest, "INVALID_WINDOW", err.Error())
		return
	}

	workbook, err := s.exporter.Export(c.Request.Context(), from, to)
	if err != nil {
		s.logger.Error("server.products.export_failed", "error", err)
		s.fail(c, http.StatusInternalServerError, "EXPORT_FAILED", "could not export products")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="products.xlsx"`)
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		workbook,
	)
}

func (s *Server) handleValidateProduct(c *gin.Context) {
	var product pipeline.ExtractedProduct
	if err := c.ShouldBindJSON(&product); err != nil {
		s.fail(c, http.StatusBadRequest, "INVALID_BODY", "body must be a product record")
		return
	}
	c.JSON(http.StatusOK, gin.H{"acceptable": pipeline.IsAcceptable(&product)})
}

func parseWindow(c *gin.Context) (from, to *time.Time, err error) {
	if v := c.Query("from"); v != "" {
		t, perr := time.Parse(time.RFC3339, v)
		if perr != nil {
			return nil, nil, perr
		}
		from = &t
	}
	if v := c.Query("to"); v != "" {
		t, perr := time.Parse(time.RFC3339, v)
		if perr != nil {
			return nil, nil, perr
		}
		to = &t
	}
	return from, to, nil
}
