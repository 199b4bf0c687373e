package normalize

import (
	"regexp"
	"strings"
)

// SizeKind classifies a canonical size token
type SizeKind int

const (
	SizeInvalid SizeKind = iota
	SizeLetter
	SizeNumeric
	SizeDecimal
	SizeOneSize
	SizeComposite
)

func (k SizeKind) String() string {
	switch k {
	case SizeLetter:
		return "letter"
	case SizeNumeric:
		return "numeric"
	case SizeDecimal:
		return "decimal"
	case SizeOneSize:
		return "one_size"
	case SizeComposite:
		return "composite"
	default:
		return "invalid"
	}
}

// OneSize is the canonical one-size token
const OneSize = "ONE SIZE"

const maxSizeLength = 15

var (
	letterSize    = regexp.MustCompile(`^(?:XXS|XS|S|M|L|XL|XXL|XXXL|[2-5]XL)$`)
	numericSize   = regexp.MustCompile(`^\d{1,3}$`)
	decimalSize   = regexp.MustCompile(`^\d{1,3}[.,]\d$`)
	compositeSize = []*regexp.Regexp{
		regexp.MustCompile(`^\d{1,3}[A-Z]{1,2}$`), // 75B, 10Y
		regexp.MustCompile(`^\d{1,3}/\d{1,3}$`),   // 32/34
		regexp.MustCompile(`^[A-Z]\d{1,3}$`),      // S36
	}

	// SizeGrammar matches every canonical token and nothing else
	SizeGrammar = regexp.MustCompile(`^(?:XXS|XS|S|M|L|XL|XXL|XXXL|[2-5]XL|\d{1,3}|\d{1,3}\.\d|ONE SIZE|\d{1,3}[A-Z]{1,2}|\d{1,3}/\d{1,3}|[A-Z]\d{1,3})$`)

	oneSizeVocabulary = map[string]bool{
		"ONE SIZE":        true,
		"ONESIZE":         true,
		"ONE-SIZE":        true,
		"OS":              true,
		"EINHEITSGRÖSSE":  true,
		"EINHEITSGROESSE": true,
		"UNI":             true,
	}

	// Unit suffixes that look like composite sizes but are volumes or lengths
	unitSuffixes = []string{"CM", "MM", "ML", "KG", "GB", "MB"}

	sizePrefixes = []string{"EU ", "EUR ", "GR. ", "GRÖSSE ", "SIZE "}
)

// CanonicalSize normalises raw into a canonical size token.
// ok is false when raw does not match the closed size grammar.
func CanonicalSize(raw string) (string, bool) {
	s := strings.ToUpper(CleanText(raw))
	for _, p := range sizePrefixes {
		s = strings.TrimPrefix(s, p)
	}
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxSizeLength {
		return "", false
	}

	if oneSizeVocabulary[s] {
		return OneSize, true
	}
	if letterSize.MatchString(s) || numericSize.MatchString(s) {
		return s, true
	}
	if decimalSize.MatchString(s) {
		return strings.Replace(s, ",", ".", 1), true
	}
	for _, suffix := range unitSuffixes {
		if strings.HasSuffix(s, suffix) {
			return "", false
		}
	}
	for _, re := range compositeSize {
		if re.MatchString(s) {
			return s, true
		}
	}
	return "", false
}

// IsValidSize reports whether raw canonicalises to a size token
func IsValidSize(raw string) bool {
	_, ok := CanonicalSize(raw)
	return ok
}

// KindOf classifies an already canonical token
func KindOf(token string) SizeKind {
	switch {
	case token == OneSize:
		return SizeOneSize
	case letterSize.MatchString(token):
		return SizeLetter
	case numericSize.MatchString(token):
		return SizeNumeric
	case decimalSize.MatchString(token):
		return SizeDecimal
	}
	for _, re := range compositeSize {
		if re.MatchString(token) {
			return SizeComposite
		}
	}
	return SizeInvalid
}

// SizeSet is an insertion-ordered set of canonical size tokens
type SizeSet struct {
	order []string
	seen  map[string]bool
}

// NewSizeSet creates an empty set
func NewSizeSet() *SizeSet {
	return &SizeSet{seen: make(map[string]bool)}
}

// Add canonicalises raw and appends it if new. Returns false for rejected or duplicate input.
func (s *SizeSet) Add(raw string) bool {
	token, ok := CanonicalSize(raw)
	if !ok || s.seen[token] {
		return false
	}
	s.seen[token] = true
	s.order = append(s.order, token)
	return true
}

// Contains reports whether token is already in the set
func (s *SizeSet) Contains(token string) bool {
	return s.seen[token]
}

// Len returns the number of tokens
func (s *SizeSet) Len() int {
	return len(s.order)
}

// Tokens returns the tokens in discovery order
func (s *SizeSet) Tokens() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
