package sanitize

import (
	"strings"
	"testing"
)

func TestHTML_StripsScripts(t *testing.T) {
	got := HTML(`<p onclick="evil()">Hi <script>alert(1)</script><a href="javascript:x()">link</a></p>`)

	for _, bad := range []string{"<script", "onclick", "javascript:"} {
		if strings.Contains(got, bad) {
			t.Errorf("expected %q to be removed, got %s", bad, got)
		}
	}
	if !strings.Contains(got, "<p>Hi") {
		t.Errorf("expected paragraph to survive, got %s", got)
	}
}

func TestHTML_KeepsTables(t *testing.T) {
	in := `<table><tr><td colspan="2">code</td></tr></table>`
	if got := HTML(in); got != in {
		t.Errorf("expected table unchanged, got %s", got)
	}
}

func TestHTML_Empty(t *testing.T) {
	if got := HTML(""); got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
}
