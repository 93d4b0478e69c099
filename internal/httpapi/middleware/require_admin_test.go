package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func serve(h http.Handler, header, value string) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRequireAdmin_AllowsAdminKey_BlocksPublicKey(t *testing.T) {
	keys := Keys{Public: []string{"pub_key"}, Admin: []string{"adm_key"}}
	h := RequireAdmin(keys)(okHandler)

	if code := serve(h, "X-API-Key", "adm_key"); code != http.StatusOK {
		t.Fatalf("admin key should pass; got %d", code)
	}
	if code := serve(h, "Authorization", "Bearer adm_key"); code != http.StatusOK {
		t.Fatalf("bearer admin key should pass; got %d", code)
	}
	if code := serve(h, "X-API-Key", "pub_key"); code != http.StatusForbidden {
		t.Fatalf("public key should be forbidden; got %d", code)
	}
	if code := serve(h, "", ""); code != http.StatusForbidden {
		t.Fatalf("missing key should be forbidden; got %d", code)
	}
}

func TestRequireAdmin_FailsClosedWithoutKeys(t *testing.T) {
	if code := serve(RequireAdmin(Keys{})(okHandler), "X-API-Key", "anything"); code != http.StatusForbidden {
		t.Fatalf("no admin keys should deny; got %d", code)
	}
}

func TestRequireAny(t *testing.T) {
	keys := Keys{Public: []string{"pub_key"}, Admin: []string{"adm_key"}}
	h := RequireAny(keys)(okHandler)

	if code := serve(h, "X-API-Key", "pub_key"); code != http.StatusOK {
		t.Fatalf("public key should pass; got %d", code)
	}
	if code := serve(h, "X-API-Key", "adm_key"); code != http.StatusOK {
		t.Fatalf("admin key should pass; got %d", code)
	}
	if code := serve(h, "X-API-Key", "nope"); code != http.StatusUnauthorized {
		t.Fatalf("unknown key should be 401; got %d", code)
	}
	if code := serve(RequireAny(Keys{})(okHandler), "", ""); code != http.StatusOK {
		t.Fatalf("open mode should pass; got %d", code)
	}
}
