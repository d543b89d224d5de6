package world

import (
	"strings"

	"roadnerd/internal/logging"
)

// Verification is the outcome of signature-verifying a claimed symbol
// against the index. Signature verification (symbol exists with matching
// parameter arity) sits between substring search (too many false
// positives) and semantic execution (too slow).
type Verification struct {
	Found      bool    `json:"found"`
	Symbol     *Symbol `json:"symbol,omitempty"`
	ExactName  bool    `json:"exact_name"`  // matched without name-variant fallback
	ArityMatch bool    `json:"arity_match"` // parameter count matched (or arity unconstrained)
	HasTest    bool    `json:"has_test"`    // a test file declares a symbol referencing this name
}

// VerifySignature checks whether a symbol of the given name exists with a
// matching parameter arity. wantParams < 0 leaves arity unconstrained.
// Candidate preference: exact name + arity, exact name, variant + arity, variant.
func VerifySignature(idx *Index, name string, wantParams int) Verification {
	if idx == nil || name == "" {
		return Verification{}
	}

	exact := idx.Lookup(name)
	variants := idx.LookupVariants(name)

	pick := func(candidates []Symbol, exactName bool) *Verification {
		var fallback *Verification
		for i := range candidates {
			sym := candidates[i]
			arityOK := wantParams < 0 || sym.ParamCount == wantParams
			v := &Verification{
				Found:      true,
				Symbol:     &candidates[i],
				ExactName:  exactName,
				ArityMatch: arityOK,
			}
			if arityOK {
				return v
			}
			if fallback == nil {
				fallback = v
			}
		}
		return fallback
	}

	var result *Verification
	if v := pick(exact, true); v != nil {
		result = v
	} else if v := pick(variants, false); v != nil {
		result = v
	}

	if result == nil {
		logging.WorldDebug("verify: no symbol found for %q", name)
		return Verification{}
	}

	result.HasTest = idx.HasColocatedTest(result.Symbol.Name)
	logging.WorldDebug("verify: %q -> %s (%s:%d) exact=%v arity=%v test=%v",
		name, result.Symbol.Name, result.Symbol.File, result.Symbol.Line,
		result.ExactName, result.ArityMatch, result.HasTest)
	return *result
}

// ExpectedSymbolName derives a candidate symbol name from a requirement
// title, e.g. "Create backup archives" -> "CreateBackup"-style CamelCase
// of the leading verb phrase.
func ExpectedSymbolName(title string) string {
	words := strings.FieldsFunc(title, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	})
	if len(words) == 0 {
		return ""
	}
	// keep at most the first three words: verb + object usually suffices
	if len(words) > 3 {
		words = words[:3]
	}
	var b strings.Builder
	for _, w := range words {
		if isStopWord(w) {
			continue
		}
		b.WriteString(strings.ToUpper(w[:1]))
		if len(w) > 1 {
			b.WriteString(strings.ToLower(w[1:]))
		}
	}
	return b.String()
}

func isStopWord(w string) bool {
	switch strings.ToLower(w) {
	case "a", "an", "the", "to", "of", "for", "and", "or", "should", "must", "shall", "can", "be", "is", "are":
		return true
	}
	return false
}
