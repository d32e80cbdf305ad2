// Package validation checks user supplied values that end up in a process
// invocation, a listening address, a browser launch or an output path.
package validation

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// shellChars are rejected wherever a value could reach a shell or a
// process argument list.
var shellChars = []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\", "\n", "\r"}

func firstShellChar(value string, except ...string) string {
	for _, char := range shellChars {
		skip := false
		for _, e := range except {
			if char == e {
				skip = true
			}
		}
		if !skip && strings.Contains(value, char) {
			return char
		}
	}

	return ""
}

// ValidateExecutable validates the name or path of an executable started
// by the build, such as the sass binary.
func ValidateExecutable(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("executable cannot be empty")
	}
	// Backslashes separate Windows paths.
	if char := firstShellChar(name, "\\"); char != "" {
		return fmt.Errorf("executable contains dangerous character: %q", char)
	}

	return nil
}

// ValidateHost validates the host the preview server binds to.
func ValidateHost(host string) error {
	if char := firstShellChar(host); char != "" {
		return fmt.Errorf("host contains dangerous character: %q", char)
	}
	if strings.ContainsAny(host, " /") {
		return fmt.Errorf("host %q must be a bare host name or address", host)
	}

	return nil
}

// ValidateOutputDir rejects output folders that would overwrite the inputs
// or the filesystem root.
func ValidateOutputDir(dist string, inputs ...string) error {
	if strings.TrimSpace(dist) == "" {
		return fmt.Errorf("output folder cannot be empty")
	}
	abs, err := filepath.Abs(dist)
	if err != nil {
		return fmt.Errorf("invalid output folder %q: %w", dist, err)
	}
	if abs == filepath.VolumeName(abs)+string(filepath.Separator) {
		return fmt.Errorf("output folder %q is the filesystem root", dist)
	}
	for _, input := range inputs {
		if input == "" {
			continue
		}
		inputAbs, err := filepath.Abs(input)
		if err == nil && inputAbs == abs {
			return fmt.Errorf("output folder %q is also an input folder", dist)
		}
	}

	return nil
}

// ValidateURL validates URLs passed to the browser launcher. Only http and
// https URLs without shell characters are accepted.
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %s (only http/https allowed)", parsed.Scheme)
	}
	if char := firstShellChar(rawURL); char != "" {
		return fmt.Errorf("URL contains dangerous character: %q", char)
	}
	if strings.Contains(rawURL, " ") {
		return fmt.Errorf("URL contains spaces")
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL must have a valid hostname")
	}

	return nil
}

// ValidateOrigin checks a websocket Origin header against the allowed
// host:port pairs.
func ValidateOrigin(origin string, allowedHosts []string) error {
	if origin == "" {
		return fmt.Errorf("origin header is required")
	}
	originURL, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("invalid origin format: %w", err)
	}
	if originURL.Scheme != "http" && originURL.Scheme != "https" {
		return fmt.Errorf("invalid origin scheme %q: only http and https are allowed", originURL.Scheme)
	}
	for _, allowed := range allowedHosts {
		if originURL.Host == allowed {
			return nil
		}
	}

	return fmt.Errorf("origin %q is not in allowed origins list", origin)
}
