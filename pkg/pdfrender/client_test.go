package pdfrender

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/makao-africa/makao-backend/pkg/config"
	pkgerrors "github.com/makao-africa/makao-backend/pkg/errors"
	"github.com/makao-africa/makao-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "pdfrender-test", Output: io.Discard})
}

func TestRenderHTML(t *testing.T) {
	var gotPath, gotHTML, gotWait string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		gotWait = r.FormValue("waitTimeout")
		file, _, err := r.FormFile("files")
		if err != nil {
			t.Errorf("form file: %v", err)
		} else {
			raw, _ := io.ReadAll(file)
			gotHTML = string(raw)
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 fake"))
	}))
	defer server.Close()

	client, err := NewClient(config.PDFRenderConfig{
		BaseURL:        server.URL,
		ContentTimeout: 7 * time.Second,
	}, testLogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	pdf, err := client.RenderHTML(context.Background(), "<html><body>receipt</body></html>")
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	if !strings.HasPrefix(string(pdf), "%PDF-1.4") {
		t.Fatalf("unexpected payload %q", string(pdf))
	}
	if gotPath != "/forms/chromium/convert/html" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if gotHTML != "<html><body>receipt</body></html>" {
		t.Fatalf("unexpected html %q", gotHTML)
	}
	if gotWait != "7" {
		t.Fatalf("unexpected waitTimeout %q", gotWait)
	}
}

func TestRenderHTMLServiceFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "chromium crashed", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewClient(config.PDFRenderConfig{BaseURL: server.URL}, testLogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.RenderHTML(context.Background(), "<html></html>")
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	if typed.Code() != pkgerrors.CodePDFGeneration {
		t.Fatalf("expected code %s, got %s", pkgerrors.CodePDFGeneration, typed.Code())
	}
}

func TestRenderHTMLRejectsEmptyDocument(t *testing.T) {
	client, err := NewClient(config.PDFRenderConfig{BaseURL: "http://localhost:3000"}, testLogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.RenderHTML(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty html")
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(config.PDFRenderConfig{}, testLogger()); err == nil {
		t.Fatal("expected error without base url")
	}
}
