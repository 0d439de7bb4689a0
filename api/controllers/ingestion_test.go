package controllers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/retaildesk/retaildesk-backend/api/middleware"
	"github.com/retaildesk/retaildesk-backend/internal/ingestion"
	"github.com/retaildesk/retaildesk-backend/pkg/config"
)

type fakeIngestionService struct {
	rows     []ingestion.Row
	sellerID int64
	kind     string
}

func (f *fakeIngestionService) IngestCustomers(ctx context.Context, rows []ingestion.Row) (*ingestion.Result, error) {
	f.kind, f.rows = "customers", rows
	return &ingestion.Result{Summary: ingestion.Summary{Processed: len(rows), Total: len(rows)}}, nil
}

func (f *fakeIngestionService) IngestProducts(ctx context.Context, rows []ingestion.Row) (*ingestion.Result, error) {
	f.kind, f.rows = "products", rows
	return &ingestion.Result{Summary: ingestion.Summary{Processed: len(rows), Total: len(rows)}}, nil
}

func (f *fakeIngestionService) IngestInventory(ctx context.Context, sellerID int64, rows []ingestion.Row) (*ingestion.Result, error) {
	f.kind, f.sellerID, f.rows = "inventory", sellerID, rows
	return &ingestion.Result{Summary: ingestion.Summary{Processed: len(rows), Total: len(rows)}}, nil
}

func (f *fakeIngestionService) IngestSales(ctx context.Context, sellerID int64, rows []ingestion.Row) (*ingestion.Result, error) {
	f.kind, f.sellerID, f.rows = "sales", sellerID, rows
	return &ingestion.Result{Summary: ingestion.Summary{Processed: len(rows), Total: len(rows)}}, nil
}

func multipartUpload(t *testing.T, csv string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "upload.csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(csv)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, writer.FormDataContentType()
}

func TestUploadInventoryParsesCSVAndScopesSeller(t *testing.T) {
	svc := &fakeIngestionService{}
	ctrl := NewIngestionController(svc, config.IngestionConfig{MaxUploadMB: 5, PreviewRows: 10}, nil)

	body, contentType := multipartUpload(t, "product_id,stock\n1,5\n2,3\n")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingestion/inventory", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(middleware.WithUserID(req.Context(), 9))

	rec := httptest.NewRecorder()
	ctrl.UploadInventory(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.kind != "inventory" || svc.sellerID != 9 {
		t.Fatalf("expected inventory upload for seller 9, got %q seller %d", svc.kind, svc.sellerID)
	}
	if len(svc.rows) != 2 || svc.rows[0]["product_id"] != "1" {
		t.Fatalf("unexpected rows %+v", svc.rows)
	}
}

func TestUploadRequiresFileField(t *testing.T) {
	ctrl := NewIngestionController(&fakeIngestionService{}, config.IngestionConfig{MaxUploadMB: 5}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingestion/customers", bytes.NewReader(nil))
	req = req.WithContext(middleware.WithUserID(req.Context(), 9))

	rec := httptest.NewRecorder()
	ctrl.UploadCustomers(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUploadRequiresAuth(t *testing.T) {
	ctrl := NewIngestionController(&fakeIngestionService{}, config.IngestionConfig{MaxUploadMB: 5}, nil)

	body, contentType := multipartUpload(t, "name\nAlice\n")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingestion/customers", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	ctrl.UploadCustomers(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestUploadRejectsOversizedBody(t *testing.T) {
	ctrl := NewIngestionController(&fakeIngestionService{}, config.IngestionConfig{MaxUploadMB: 1}, nil)

	// a little over the 1 MB cap
	big := bytes.Repeat([]byte("a"), (1<<20)+512)
	body, contentType := multipartUpload(t, "name\n"+string(big)+"\n")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingestion/customers", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(middleware.WithUserID(req.Context(), 9))

	rec := httptest.NewRecorder()
	ctrl.UploadCustomers(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized upload, got %d", rec.Code)
	}
}
