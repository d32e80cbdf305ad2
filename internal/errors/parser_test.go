package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSassOutput(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		expected []Diagnostic
	}{
		{
			name: "error with excerpt and trace",
			output: `Error: Undefined variable.
  ╷
3 │   color: $nope;
  │          ^^^^^
  ╵
  scss/_core.scss 3:10  @use
  icons.scss 1:1        root stylesheet
`,
			expected: []Diagnostic{{
				Severity: SeverityError,
				File:     "scss/_core.scss",
				Line:     3,
				Column:   10,
				Message:  "Undefined variable.",
				Context:  []string{"  ╷", "3 │   color: $nope;", "  │          ^^^^^", "  ╵"},
			}},
		},
		{
			name: "deprecation warning then error",
			output: `Deprecation Warning [import]: Sass @import rules are deprecated.
    icons.scss 2:9  root stylesheet

Error: expected "}".
`,
			expected: []Diagnostic{
				{Severity: SeverityWarning, File: "icons.scss", Line: 2, Column: 9, Message: "Sass @import rules are deprecated."},
				{Severity: SeverityError, Message: `expected "}".`},
			},
		},
		{
			name:     "inline location",
			output:   "file:///work/dist/scss/icons.scss:4:2: expected \";\".",
			expected: []Diagnostic{{Severity: SeverityError, File: "/work/dist/scss/icons.scss", Line: 4, Column: 2, Message: `expected ";".`}},
		},
		{
			name:     "unrelated noise",
			output:   "sass: command not found\n",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSassOutput(tt.output)
			require.Len(t, got, len(tt.expected))
			for i := range tt.expected {
				assert.Equal(t, tt.expected[i], *got[i])
			}
		})
	}
}

func TestDiagnosticFormatting(t *testing.T) {
	diagnostics := ParseSassOutput("WARNING: shadowed\nError: Undefined mixin.\n  ╷\n1 │ @include x;\n  ╵\n  icons.scss 1:1  root stylesheet\n")
	first := FirstError(diagnostics)
	require.NotNil(t, first)

	assert.Equal(t, "icons.scss:1:1: Undefined mixin.", first.Error())
	assert.Equal(t, "ERROR: icons.scss:1:1: Undefined mixin.\n  ╷\n1 │ @include x;\n  ╵", first.FormatError())
	assert.Equal(t, "shadowed", diagnostics[0].Error())

	assert.Nil(t, FirstError(ParseSassOutput("WARNING: only a warning")))
}
