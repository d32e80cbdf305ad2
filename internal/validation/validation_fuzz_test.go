package validation

import (
	"net/url"
	"strings"
	"testing"
)

// FuzzValidateURL checks that every URL accepted for the browser launcher
// is a plain http(s) URL free of shell characters.
func FuzzValidateURL(f *testing.F) {
	f.Add("http://localhost:8080")
	f.Add("https://example.com")
	f.Add("javascript:alert('xss')")
	f.Add("file:///etc/passwd")
	f.Add("http://localhost:8080; rm -rf /")
	f.Add("http://localhost:8080`whoami`")
	f.Add("http://localhost:8080\r\nHost: malicious.com")
	f.Add("http://")
	f.Add("")

	f.Fuzz(func(t *testing.T, rawURL string) {
		if err := ValidateURL(rawURL); err != nil {
			return
		}

		parsed, err := url.Parse(rawURL)
		if err != nil {
			t.Fatalf("accepted unparsable URL %q", rawURL)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			t.Errorf("accepted scheme %q", parsed.Scheme)
		}
		if strings.ContainsAny(rawURL, ";&|`$()<>\"'\\\n\r ") {
			t.Errorf("accepted shell characters in %q", rawURL)
		}
	})
}

// FuzzValidateExecutable checks that accepted executables never carry
// characters a shell would interpret.
func FuzzValidateExecutable(f *testing.F) {
	f.Add("sass")
	f.Add("/usr/bin/sass")
	f.Add("sass && curl evil")
	f.Add("sass`id`")

	f.Fuzz(func(t *testing.T, name string) {
		if err := ValidateExecutable(name); err != nil {
			return
		}
		if strings.ContainsAny(name, ";&|`$()<>\"'\n\r") {
			t.Errorf("accepted shell characters in %q", name)
		}
	})
}
