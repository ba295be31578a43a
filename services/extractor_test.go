package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestExtractNotFoundIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	e := NewPDFExtractor(5 * time.Second)
	_, err := e.Extract(context.Background(), srv.URL+"/missing.pdf")
	if !IsPermanent(err) {
		t.Fatalf("404 must be permanent, got %v", err)
	}
}

func TestExtractNonPDFIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not a pdf</html>"))
	}))
	defer srv.Close()

	e := NewPDFExtractor(5 * time.Second)
	_, err := e.Extract(context.Background(), srv.URL+"/fake.pdf")
	if !IsPermanent(err) {
		t.Fatalf("non-PDF content must be permanent, got %v", err)
	}
}

func TestExtractMalformedPDFIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// right magic bytes, garbage body
		w.Write([]byte("%PDF-1.7 this is not a real pdf structure"))
	}))
	defer srv.Close()

	e := NewPDFExtractor(5 * time.Second)
	_, err := e.Extract(context.Background(), srv.URL+"/broken.pdf")
	if !IsPermanent(err) {
		t.Fatalf("unparseable PDF must be permanent, got %v", err)
	}
}

func TestExtractConnectionErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	e := NewPDFExtractor(time.Second)
	_, err := e.Extract(context.Background(), srv.URL+"/x.pdf")
	if err == nil {
		t.Fatal("expected error")
	}
	if IsPermanent(err) {
		t.Fatalf("connection failure must stay retryable, got %v", err)
	}
}

func TestExtractInvalidURLIsPermanent(t *testing.T) {
	e := NewPDFExtractor(time.Second)
	_, err := e.Extract(context.Background(), "://bad-url")
	if !IsPermanent(err) {
		t.Fatalf("malformed URL must be permanent, got %v", err)
	}
}
