package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                                  "/",
		"/metrics":                          "/metrics",
		"/v1/submissions":                   "/v1/submissions",
		"/v1/submissions/abc":               "/v1/submissions/:id",
		"/v1/submissions/abc/grade":         "/v1/submissions/:id/grade",
		"/v1/submissions/abc/integrity":     "/v1/submissions/:id/integrity",
		"/v1/submissions/abc/grade/extra":   "/v1/submissions/abc/grade/extra",
		"/v1/audit":                         "/v1/audit",
		"/v1/submissions/abc?verify=true":   "/v1/submissions/:id",
		"/v1/auth/login":                    "/v1/auth/login",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
