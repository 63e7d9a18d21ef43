package structure_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/studykit/aptrack/internal/structure"
)

func TestExtractor_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	e := structure.NewExtractor(5*time.Second, 10, discardLogger())
	_, err := e.FetchText(context.Background(), server.URL+"/missing.pdf")
	if err == nil {
		t.Fatal("FetchText succeeded against a 404")
	}
}

func TestExtractor_NotAPDF(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html>definitely not a pdf</html>"))
	}))
	defer server.Close()

	e := structure.NewExtractor(5*time.Second, 10, discardLogger())
	_, err := e.FetchText(context.Background(), server.URL+"/fake.pdf")
	if err == nil {
		t.Fatal("FetchText accepted non-PDF content")
	}
}

func TestExtractor_HeadRejectionIsNotFatal(t *testing.T) {
	// hosts that reject HEAD but serve GET should still fail on pdf
	// parsing, not on the probe
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Write([]byte("plain text"))
	}))
	defer server.Close()

	e := structure.NewExtractor(5*time.Second, 10, discardLogger())
	_, err := e.FetchText(context.Background(), server.URL+"/doc.pdf")
	if err == nil {
		t.Fatal("FetchText accepted non-PDF content")
	}
	if strings.Contains(err.Error(), "probe") {
		t.Errorf("probe failure leaked into the fetch error: %v", err)
	}
}
