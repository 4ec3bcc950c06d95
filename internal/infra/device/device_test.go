package device

import "testing"

func TestFromUserAgent(t *testing.T) {
	info := FromUserAgent("Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/119.0")
	if info.OS != "Linux" {
		t.Fatalf("OS = %q, want Linux", info.OS)
	}
	if info.Browser != "Firefox" {
		t.Fatalf("Browser = %q, want Firefox", info.Browser)
	}
}

func TestFromUserAgentEmpty(t *testing.T) {
	info := FromUserAgent("")
	if info.OS != "" || info.Browser != "" {
		t.Fatalf("expected empty device info, got %+v", info)
	}
}
