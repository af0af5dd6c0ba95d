package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestAppErrorFormat(t *testing.T) {
	e := New(ErrCodeGrantNotFound, "grant %s not found", "G-1")
	want := "[GRT_001] grant G-1 not found"
	if e.Error() != want {
		t.Errorf("Error() = %q, want %q", e.Error(), want)
	}

	withDetail := e.WithDetail("searched postgres and opensearch")
	want = "[GRT_001] grant G-1 not found: searched postgres and opensearch"
	if withDetail.Error() != want {
		t.Errorf("Error() = %q, want %q", withDetail.Error(), want)
	}
	// WithDetail must not mutate the receiver.
	if e.Detail != "" {
		t.Errorf("WithDetail mutated receiver: %q", e.Detail)
	}
}

func TestWrapNil(t *testing.T) {
	if got := Wrap(nil, ErrCodeDatabaseError, "query failed"); got != nil {
		t.Errorf("Wrap(nil) = %v, want nil", got)
	}
}

func TestWrapPreservesCodeForUnknown(t *testing.T) {
	inner := New(ErrCodeOrgNotFound, "organization missing")
	outer := Wrap(inner, CodeUnknown, "lookup failed")
	if outer.Code != ErrCodeOrgNotFound {
		t.Errorf("Code = %s, want %s", outer.Code, ErrCodeOrgNotFound)
	}
}

func TestIsCodeTraversesChain(t *testing.T) {
	inner := New(ErrCodeGrantNotFound, "missing")
	middle := fmt.Errorf("loading profile: %w", inner)
	outer := Wrap(middle, ErrCodeInternal, "match failed")

	if !IsCode(outer, ErrCodeGrantNotFound) {
		t.Error("IsCode should find the inner code through the chain")
	}
	if IsCode(outer, ErrCodeCacheError) {
		t.Error("IsCode matched a code not present in the chain")
	}
}

func TestIsNotFound(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{New(ErrCodeNotFound, "x"), true},
		{New(ErrCodeGrantNotFound, "x"), true},
		{New(ErrCodeOrgNotFound, "x"), true},
		{New(ErrCodeValidation, "x"), false},
		{stderrors.New("plain"), false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := IsNotFound(tc.err); got != tc.want {
			t.Errorf("IsNotFound(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestGetCode(t *testing.T) {
	if GetCode(nil) != CodeOK {
		t.Error("GetCode(nil) should be CodeOK")
	}
	if GetCode(stderrors.New("plain")) != CodeUnknown {
		t.Error("GetCode(plain error) should be CodeUnknown")
	}
	if GetCode(New(ErrCodeAnalysisFailed, "x")) != ErrCodeAnalysisFailed {
		t.Error("GetCode should return the AppError code")
	}
}

func TestHTTPStatus(t *testing.T) {
	if ErrCodeGrantNotFound.HTTPStatus() != 404 {
		t.Errorf("GRT_001 status = %d, want 404", ErrCodeGrantNotFound.HTTPStatus())
	}
	if ErrorCode("BOGUS").HTTPStatus() != 500 {
		t.Error("unmapped code should default to 500")
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("socket closed")
	wrapped := Wrap(cause, ErrCodeExternalService, "source fetch failed")
	if !stderrors.Is(wrapped, cause) {
		t.Error("errors.Is should reach the wrapped cause")
	}
}
