package sass

import (
	"fmt"

	serrors "git.home.luguber.info/inful/stylebuilder/internal/errors"
	"git.home.luguber.info/inful/stylebuilder/internal/foundation/normalization"
)

// Style selects the compiler's output formatting.
type Style string

const (
	StyleUnset      Style = ""
	StyleNested     Style = "nested"
	StyleExpanded   Style = "expanded"
	StyleCompact    Style = "compact"
	StyleCompressed Style = "compressed"
)

var styleNormalizer = normalization.NewEnumNormalizer("style", map[string]Style{
	"nested":     StyleNested,
	"expanded":   StyleExpanded,
	"compact":    StyleCompact,
	"compressed": StyleCompressed,
}, StyleUnset)

// ParseStyle converts a style keyword into a Style. An empty keyword yields
// StyleUnset; anything outside the four known styles is a configuration error.
func ParseStyle(raw string) (Style, error) {
	if raw == "" {
		return StyleUnset, nil
	}
	s, err := styleNormalizer.NormalizeWithValidation(raw)
	if err != nil {
		return StyleUnset, serrors.Configuration("style", err.Error())
	}
	return s, nil
}

// Valid reports whether s is StyleUnset or one of the known styles.
func (s Style) Valid() bool {
	return s == StyleUnset || styleNormalizer.Normalize(string(s)) == s
}

// Styles lists the accepted style keywords.
func Styles() []string { return styleNormalizer.ValidValues() }

// Syntax selects how the compiler parses its input.
type Syntax int

const (
	// SyntaxAuto infers scss mode from a ".scss" source extension.
	SyntaxAuto Syntax = iota
	// SyntaxSCSS always passes --scss.
	SyntaxSCSS
	// SyntaxSass never passes --scss (indented syntax).
	SyntaxSass
)

var syntaxNormalizer = normalization.NewEnumNormalizer("syntax", map[string]Syntax{
	"auto": SyntaxAuto,
	"scss": SyntaxSCSS,
	"sass": SyntaxSass,
}, SyntaxAuto)

// ParseSyntax converts auto|scss|sass into a Syntax; empty means auto.
func ParseSyntax(raw string) (Syntax, error) {
	if raw == "" {
		return SyntaxAuto, nil
	}
	s, err := syntaxNormalizer.NormalizeWithValidation(raw)
	if err != nil {
		return SyntaxAuto, serrors.Configuration("syntax", err.Error())
	}
	return s, nil
}

func (s Syntax) String() string {
	switch s {
	case SyntaxAuto:
		return "auto"
	case SyntaxSCSS:
		return "scss"
	case SyntaxSass:
		return "sass"
	default:
		return fmt.Sprintf("Syntax(%d)", int(s))
	}
}
