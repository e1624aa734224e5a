package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{E(CodeInvalidArgument, "op", "bad", nil), http.StatusBadRequest},
		{E(CodeUnauthorized, "op", "", ErrInvalidToken), http.StatusUnauthorized},
		{E(CodeConflict, "op", "used", ErrTokenReplayed), http.StatusConflict},
		{E(CodeUnavailable, "op", "down", nil), http.StatusServiceUnavailable},
		{fmt.Errorf("wrapped: %w", E(CodeNotFound, "op", "gone", nil)), http.StatusNotFound},
		{ErrNotFound, http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestSafeMessageHidesCause(t *testing.T) {
	err := E(CodeInternal, "AdmissionService.IssueToken", "failed to sign token", errors.New("secret=abc"))
	if got := SafeMessage(err); got != "failed to sign token" {
		t.Fatalf("SafeMessage() = %q", got)
	}
	if !errors.Is(err, err.(*AppError).Err) {
		t.Fatal("AppError does not unwrap")
	}
}
