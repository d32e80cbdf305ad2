package style

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/aymerick/douceur/parser"

	"github.com/conneroisu/iconforge/internal/errors"
	"github.com/conneroisu/iconforge/internal/layout"
	"github.com/conneroisu/iconforge/internal/logging"
)

var sourceMappingComment = regexp.MustCompile(`(?m)\n?/\*# sourceMappingURL=[^*]*\*/\s*$`)

// Sheet is one written stylesheet.
type Sheet struct {
	CSS      string
	Map      string
	Minified bool
	Rules    int
}

// Result lists the stylesheets of a build.
type Result struct {
	Sheets []Sheet
}

// Files returns every path written.
func (r *Result) Files() []string {
	var files []string
	for _, s := range r.Sheets {
		files = append(files, s.CSS, s.Map)
	}

	return files
}

// Build compiles <scss>/<fileName>.scss twice, expanded into <fileName>.css
// and compressed into <fileName>.min.css, each with a source map whose
// sources point back into the dist tree. Every failure is a StyleCompileError.
func Build(ctx context.Context, c Compiler, out layout.Layout, fileName string, logger logging.Logger) (*Result, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.WithComponent("style")
	entry := out.SCSSEntry(fileName)

	result := &Result{}
	for _, minified := range []bool{false, true} {
		outputStyle := Expanded
		if minified {
			outputStyle = Compressed
		}
		cssPath := out.CSSFile(fileName, minified)
		mapPath := out.MapFile(fileName, minified)

		compiled, err := c.Compile(ctx, Request{Entry: entry, OutputStyle: outputStyle, SourceMap: true})
		if err != nil {
			styleErr := errors.NewStyleError(entry, fmt.Sprintf("%s compiler failed (%s)", c.Name(), outputStyle), err)
			var diag *errors.Diagnostic
			if stderrors.As(err, &diag) && diag.File != "" {
				styleErr.WithPath(diag.File).WithContext("line", diag.Line).WithContext("column", diag.Column)
				logger.Debug(ctx, "Sass diagnostic", "detail", diag.FormatError())
			}
			return result, styleErr
		}

		rules, err := countRules(compiled.CSS)
		if err != nil {
			return result, errors.NewStyleError(cssPath, "compiled CSS does not parse", err)
		}

		sourceMap, err := RewriteSourceMap(compiled.SourceMap, out.Root, filepath.Base(cssPath))
		if err != nil {
			return result, errors.NewStyleError(mapPath, "invalid source map", err)
		}

		css := AppendSourceMappingURL(compiled.CSS, filepath.Base(mapPath))
		if err := layout.WriteFile(cssPath, css); err != nil {
			return result, err
		}
		if err := layout.WriteFile(mapPath, sourceMap); err != nil {
			return result, err
		}

		result.Sheets = append(result.Sheets, Sheet{CSS: cssPath, Map: mapPath, Minified: minified, Rules: rules})
		logger.Debug(ctx, "Compiled stylesheet", "path", cssPath, "style", string(outputStyle), "rules", rules)
	}

	return result, nil
}

func countRules(css []byte) (int, error) {
	sheet, err := parser.Parse(string(css))
	if err != nil {
		return 0, err
	}

	return len(sheet.Rules), nil
}

// AppendSourceMappingURL replaces any trailing sourceMappingURL comment with
// one pointing at mapName.
func AppendSourceMappingURL(css []byte, mapName string) []byte {
	text := strings.TrimRight(sourceMappingComment.ReplaceAllString(string(css), ""), "\n")

	return []byte(text + "\n\n/*# sourceMappingURL=" + mapName + " */\n")
}

// RewriteSourceMap makes the sources of a source map relative to the css
// folder: the file:// scheme is dropped and everything up to the dist root
// is replaced with ../. Unknown fields are kept as they are.
func RewriteSourceMap(data []byte, distRoot, cssName string) ([]byte, error) {
	if len(data) == 0 {
		data = []byte(`{"version":3,"sources":[],"names":[],"mappings":""}`)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	var sources []string
	if s, ok := raw["sources"]; ok {
		if err := json.Unmarshal(s, &sources); err != nil {
			return nil, fmt.Errorf("sources: %w", err)
		}
	}
	for i, source := range sources {
		sources[i] = RewriteSource(source, distRoot)
	}

	var err error
	if raw["sources"], err = json.Marshal(sources); err != nil {
		return nil, err
	}
	if raw["file"], err = json.Marshal(cssName); err != nil {
		return nil, err
	}

	return json.Marshal(raw)
}

// RewriteSource rewrites one source map source entry.
func RewriteSource(source, distRoot string) string {
	source = strings.TrimPrefix(source, "file://")

	var markers []string
	if abs, err := filepath.Abs(distRoot); err == nil {
		markers = append(markers, filepath.ToSlash(abs)+"/")
	}
	markers = append(markers, "/"+filepath.Base(filepath.Clean(distRoot))+"/")

	for _, marker := range markers {
		if idx := strings.LastIndex(source, marker); idx >= 0 {
			return "../" + source[idx+len(marker):]
		}
	}

	return source
}
