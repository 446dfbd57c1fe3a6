package designation

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Sentinel values returned when a field cannot be derived from the designation.
const (
	UnknownBrand      = "unknown brand"
	UnknownModel      = "unknown model"
	UnknownDimensions = "unknown dimensions"
)

// Field length caps, matching the legacy_tires column sizes.
const (
	MaxBrandLen      = 50
	MaxModelLen      = 100
	MaxDimensionsLen = 50
)

// dimensionsPattern matches tire sizes such as 205/55R16.
var dimensionsPattern = regexp.MustCompile(`\d+/\d+R\d+`)

// Fields is the structured result of parsing a designation.
type Fields struct {
	Brand      string `json:"brand"`
	Model      string `json:"model"`
	Dimensions string `json:"dimensions"`
}

// Parser turns a free-text product designation into structured fields.
// Implementations must be pure and must never fail.
type Parser interface {
	Parse(designation string) Fields
}

// RegexParser splits the designation on whitespace and locates the tire size
// with a regular expression. It is the default Parser.
type RegexParser struct{}

// NewRegexParser returns the default designation parser.
func NewRegexParser() *RegexParser {
	return &RegexParser{}
}

// Parse implements Parser.
func (p *RegexParser) Parse(designation string) Fields {
	return Parse(designation)
}

// Parse extracts brand, model and dimensions from a designation.
// Example: "MICHELIN PILOT SPORT 4 205/55R16 91V" gives MICHELIN / PILOT SPORT 4 / 205/55R16
func Parse(designation string) Fields {
	text := strings.TrimSpace(designation)
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return Fields{Brand: UnknownBrand, Model: UnknownModel, Dimensions: UnknownDimensions}
	}

	out := Fields{
		Brand:      truncate(tokens[0], MaxBrandLen),
		Dimensions: UnknownDimensions,
	}

	modelEnd := len(tokens)
	if loc := dimensionsPattern.FindStringIndex(text); loc != nil {
		out.Dimensions = truncate(text[loc[0]:loc[1]], MaxDimensionsLen)
		modelEnd = tokenIndexAt(text, loc[0])
	}

	if modelEnd > 1 {
		out.Model = truncate(strings.Join(tokens[1:modelEnd], " "), MaxModelLen)
	}
	if out.Model == "" {
		out.Model = UnknownModel
	}
	return out
}

// tokenIndexAt returns the index of the whitespace-separated token of text
// containing the byte offset pos.
func tokenIndexAt(text string, pos int) int {
	return len(strings.Fields(text[:pos+1])) - 1
}

// truncate caps s at max characters without splitting a multi-byte rune.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
