package locale_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goliatone/go-cms-locales/internal/locale"
	"github.com/goliatone/go-cms-locales/internal/logging"
)

func TestMiddlewareStoresNegotiatedLocale(t *testing.T) {
	negotiator := newNegotiator(t)

	var (
		gotLocale locale.Code
		gotQuery  string
		gotField  any
	)
	handler := locale.Middleware(negotiator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLocale, _ = locale.FromContext(r.Context())
		gotQuery = r.URL.Query().Get(locale.QueryParam)
		gotField = logging.ContextFields(r.Context())["locale"]
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/events?locale=fr", nil)
	req.Header.Set("Accept-Language", "ar-SA,ar;q=0.9,en;q=0.5")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if gotLocale != "ar" {
		t.Fatalf("expected context locale ar, got %q", gotLocale)
	}
	if gotQuery != "ar" {
		t.Fatalf("expected rewritten query ar, got %q", gotQuery)
	}
	if gotField != "ar" {
		t.Fatalf("expected logging field ar, got %v", gotField)
	}
	if rec.Header().Get("Content-Language") != "ar" {
		t.Fatalf("expected Content-Language ar, got %q", rec.Header().Get("Content-Language"))
	}
}

func TestMiddlewareRecordsExplicitLocale(t *testing.T) {
	negotiator := newNegotiator(t)
	cases := []struct {
		name   string
		target string
		want   bool
	}{
		{name: "supported query", target: "/api/events?locale=UR", want: true},
		{name: "unsupported query", target: "/api/events?locale=fr", want: false},
		{name: "no query", target: "/api/events", want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got bool
			handler := locale.Middleware(negotiator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = locale.IsExplicit(r.Context())
			}))
			req := httptest.NewRequest(http.MethodPut, tc.target, nil)
			req.Header.Set("Accept-Language", "fa")
			handler.ServeHTTP(httptest.NewRecorder(), req)
			if got != tc.want {
				t.Fatalf("expected explicit=%t, got %t", tc.want, got)
			}
		})
	}
}

func TestFromContextMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := locale.FromContext(req.Context()); ok {
		t.Fatalf("expected no locale on a bare context")
	}
}
