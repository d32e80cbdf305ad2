package renderer

import (
	"regexp"
	"sort"
	"strings"

	"github.com/conneroisu/iconforge/internal/registry"
)

// Placeholder tokens recognised in templates. They are matched literally and
// case-sensitively, except VersionToken.
const (
	TokenPrefix      = "prefix"
	TokenPackageName = "packageName"
	TokenPackageIcon = "packageIcon"
	TokenFileName    = "fileName"
	TokenFontName    = "fontName"
	TokenFontFamily  = "fontFamily"
	TokenFontWeight  = "fontWeight"
	TokenNpmFont     = "npmFont"
	TokenNpmJS       = "npmJS"
	TokenNpmSVG      = "npmSVG"
	TokenWebsite     = "domain.com"

	// VersionToken is a pattern: each dot stands for any single character,
	// so "-.-.-" in a template receives major.minor.patch.
	VersionToken = "-.-.-"
)

// Data-driven markers.
const (
	IconsListMarker = "icons = []"
	IconsMapMarker  = "icons: ()"
	DateMarker      = "var date = null;"
)

var versionPattern = regexp.MustCompile(VersionToken)

// Vars maps placeholder tokens to their replacement text.
type Vars map[string]string

// NewVars builds the template variables of a build config.
func NewVars(cfg registry.BuildConfig) Vars {
	return Vars{
		TokenPrefix:      cfg.Prefix,
		TokenPackageName: cfg.Name,
		TokenPackageIcon: cfg.Icon,
		TokenFileName:    cfg.FileName,
		TokenFontName:    cfg.FontName,
		TokenFontFamily:  cfg.FontFamily,
		TokenFontWeight:  cfg.FontWeight.String(),
		TokenNpmFont:     cfg.NpmFont,
		TokenNpmJS:       cfg.NpmJS,
		TokenNpmSVG:      cfg.NpmSVG,
		TokenWebsite:     cfg.Website,
		VersionToken:     cfg.Version.String(),
	}
}

// Prefix returns the value bound to the prefix token.
func (v Vars) Prefix() string {
	return v[TokenPrefix]
}

// Tokens returns the literal tokens, longest first so that no token can be
// shadowed by a shorter one sharing its start.
func (v Vars) Tokens() []string {
	tokens := make([]string, 0, len(v))
	for token := range v {
		if token == VersionToken {
			continue
		}
		tokens = append(tokens, token)
	}
	sort.Slice(tokens, func(i, j int) bool {
		if len(tokens[i]) != len(tokens[j]) {
			return len(tokens[i]) > len(tokens[j])
		}
		return tokens[i] < tokens[j]
	})

	return tokens
}

func (v Vars) replacer() *strings.Replacer {
	tokens := v.Tokens()
	pairs := make([]string, 0, len(tokens)*2)
	for _, token := range tokens {
		pairs = append(pairs, token, v[token])
	}

	return strings.NewReplacer(pairs...)
}
