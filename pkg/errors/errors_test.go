package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	cases := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodePaymentUsed, http.StatusConflict},
		{CodePaymentFailed, http.StatusPaymentRequired},
		{CodePaymentNotFound, http.StatusNotFound},
		{CodeBookingNotFound, http.StatusNotFound},
		{CodeInvalidAmount, http.StatusBadRequest},
		{CodeGeneration, http.StatusInternalServerError},
		{CodePartialFailure, http.StatusInternalServerError},
		{CodeDependency, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		if got := MetadataFor(tc.code).HTTPStatus; got != tc.status {
			t.Errorf("MetadataFor(%s).HTTPStatus = %d, want %d", tc.code, got, tc.status)
		}
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unexpected fallback status %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("boom")
	err := Wrap(CodeDependency, cause, "upload failed")
	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to satisfy errors.Is")
	}
	typed := As(err)
	if typed == nil || typed.Code() != CodeDependency {
		t.Fatalf("unexpected typed error: %v", typed)
	}
}

func TestIsMatchesCode(t *testing.T) {
	err := New(CodePaymentUsed, "reference burned")
	if !Is(err, CodePaymentUsed) {
		t.Fatal("expected Is to match code")
	}
	if Is(err, CodePaymentFailed) {
		t.Fatal("expected Is to reject other codes")
	}
	if Is(stdErrors.New("plain"), CodePaymentUsed) {
		t.Fatal("expected Is to reject untyped errors")
	}
}

func TestDumpCollectsChain(t *testing.T) {
	err := Wrap(CodeGeneration, stdErrors.New("disk full"), "persist receipt")
	dump := Dump(err)
	if dump.Code != CodeGeneration {
		t.Fatalf("unexpected code %s", dump.Code)
	}
	if len(dump.Chain) < 2 {
		t.Fatalf("expected full chain, got %v", dump.Chain)
	}
}
