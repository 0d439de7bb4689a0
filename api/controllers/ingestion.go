package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/retaildesk/retaildesk-backend/api/middleware"
	"github.com/retaildesk/retaildesk-backend/api/responses"
	"github.com/retaildesk/retaildesk-backend/internal/ingestion"
	"github.com/retaildesk/retaildesk-backend/pkg/config"
	pkgerrors "github.com/retaildesk/retaildesk-backend/pkg/errors"
	"github.com/retaildesk/retaildesk-backend/pkg/logger"
)

// uploadField is the multipart form field carrying the CSV file.
const uploadField = "file"

// IngestionController serves the four CSV bulk upload endpoints.
type IngestionController struct {
	svc  ingestion.Service
	cfg  config.IngestionConfig
	logg *logger.Logger
}

func NewIngestionController(svc ingestion.Service, cfg config.IngestionConfig, logg *logger.Logger) *IngestionController {
	return &IngestionController{svc: svc, cfg: cfg, logg: logg}
}

func (i *IngestionController) UploadCustomers(w http.ResponseWriter, r *http.Request) {
	i.handleUpload(w, r, func(ctx context.Context, _ int64, rows []ingestion.Row) (*ingestion.Result, error) {
		return i.svc.IngestCustomers(ctx, rows)
	})
}

func (i *IngestionController) UploadProducts(w http.ResponseWriter, r *http.Request) {
	i.handleUpload(w, r, func(ctx context.Context, _ int64, rows []ingestion.Row) (*ingestion.Result, error) {
		return i.svc.IngestProducts(ctx, rows)
	})
}

func (i *IngestionController) UploadInventory(w http.ResponseWriter, r *http.Request) {
	i.handleUpload(w, r, i.svc.IngestInventory)
}

func (i *IngestionController) UploadSales(w http.ResponseWriter, r *http.Request) {
	i.handleUpload(w, r, i.svc.IngestSales)
}

func (i *IngestionController) handleUpload(
	w http.ResponseWriter,
	r *http.Request,
	ingest func(ctx context.Context, sellerID int64, rows []ingestion.Row) (*ingestion.Result, error),
) {
	ctx := r.Context()

	sellerID := middleware.UserIDFromContext(ctx)
	if sellerID <= 0 {
		responses.WriteError(ctx, i.logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, i.cfg.MaxUploadBytes())

	file, _, err := r.FormFile(uploadField)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			responses.WriteError(ctx, i.logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "uploaded file is too large").
					WithDetails(map[string]any{"maxBytes": maxBytesErr.Limit}))
			return
		}
		responses.WriteError(ctx, i.logg, w,
			pkgerrors.Wrap(pkgerrors.CodeValidation, err, "csv file upload is required"))
		return
	}
	defer file.Close()

	rows, err := ingestion.ParseCSV(file)
	if err != nil {
		responses.WriteError(ctx, i.logg, w, err)
		return
	}

	result, err := ingest(ctx, sellerID, rows)
	if err != nil {
		responses.WriteError(ctx, i.logg, w, err)
		return
	}
	responses.WriteSuccess(w, result)
}
