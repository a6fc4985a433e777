package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/rafaelortiz/tradeyard-backend/pkg/errors"
)

type samplePayload struct {
	SellerID string `json:"sellerId" validate:"required,uuid"`
	Total    string `json:"total" validate:"required"`
}

func TestDecodeJSONBodyAcceptsValidPayload(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"sellerId":"2fdc0421-5bb5-4e77-a479-ae2d13a1f1e5","total":"10.00"}`))

	var payload samplePayload
	if err := DecodeJSONBody(req, &payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.Total != "10.00" {
		t.Fatalf("total = %q, want 10.00", payload.Total)
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"sellerId":"2fdc0421-5bb5-4e77-a479-ae2d13a1f1e5","total":"10.00","bogus":1}`))

	var payload samplePayload
	err := DecodeJSONBody(req, &payload)
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecodeJSONBodyReportsFieldErrors(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"sellerId":"not-a-uuid"}`))

	var payload samplePayload
	err := DecodeJSONBody(req, &payload)
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	typed := pkgerrors.As(err)
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("details = %#v, want field map", typed.Details())
	}
	fields, ok := details["fields"].(map[string]string)
	if !ok {
		t.Fatalf("fields = %#v, want map", details["fields"])
	}
	if fields["sellerId"] != "must be a valid uuid" {
		t.Fatalf("sellerId message = %q", fields["sellerId"])
	}
	if fields["total"] != "is required" {
		t.Fatalf("total message = %q", fields["total"])
	}
}

func TestDecodeJSONBodyRejectsMalformedJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"sellerId":`))

	var payload samplePayload
	err := DecodeJSONBody(req, &payload)
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseQueryIntClampsAndDefaults(t *testing.T) {
	req := httptest.NewRequest("GET", "/?limit=500", nil)
	got, err := ParseQueryInt(req, "limit", 50, 1, 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 200 {
		t.Fatalf("limit = %d, want 200", got)
	}

	req = httptest.NewRequest("GET", "/", nil)
	got, err = ParseQueryInt(req, "limit", 50, 1, 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 50 {
		t.Fatalf("limit = %d, want 50", got)
	}

	req = httptest.NewRequest("GET", "/?limit=abc", nil)
	if _, err = ParseQueryInt(req, "limit", 50, 1, 200); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
