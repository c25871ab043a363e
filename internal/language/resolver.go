// Package language resolves a caller's language preference into an
// ordered, variant-expanded, de-duplicated list of BCP-47-like tags.
package language

import "strings"

// variants maps a base language tag to the ordered set of regional
// variants the upstream source commonly offers for it. The base itself
// is always first. Grounded on the original service's own expansion
// table; extended with the same "base + plausible regions" shape for
// languages the original covered.
var variants = map[string][]string{
	"en": {"en", "en-US", "en-GB", "en-CA", "en-AU", "en-IN"},
	"es": {"es", "es-419", "es-ES", "es-MX", "es-AR", "es-US"},
	"pt": {"pt", "pt-BR", "pt-PT"},
	"fr": {"fr", "fr-FR", "fr-CA"},
	"de": {"de", "de-DE", "de-AT", "de-CH"},
	"it": {"it", "it-IT"},
	"ru": {"ru", "ru-RU"},
	"tr": {"tr", "tr-TR"},
	"id": {"id", "id-ID"},
	"ja": {"ja", "ja-JP"},
	"ko": {"ko", "ko-KR"},
	"zh": {"zh", "zh-CN", "zh-TW", "zh-HK", "zh-Hans", "zh-Hant"},
	"vi": {"vi", "vi-VN"},
	"pl": {"pl", "pl-PL"},
	"nl": {"nl", "nl-NL", "nl-BE"},
	"fa": {"fa", "fa-IR"},
	"ur": {"ur", "ur-PK"},
	"bn": {"bn", "bn-BD", "bn-IN"},
	"ta": {"ta", "ta-IN", "ta-LK"},
	"te": {"te", "te-IN"},
	"th": {"th", "th-TH"},
	"hi": {"hi", "hi-IN"},
	"ar": {"ar", "ar-SA", "ar-EG", "ar-AE"},
}

// DefaultList is the fallback preference order used when the caller
// supplies neither explicit languages nor a usable Accept-Language
// header and the defaults passed to Resolve are empty.
var DefaultList = []string{"en", "es", "pt", "fr", "de"}

// Resolve implements the three-rule preference policy: caller codes win
// verbatim, then Accept-Language bases (with English appended as a safety
// net unless it is already primary), then the configured default list.
func Resolve(callerCodes []string, acceptLanguage string, defaults []string) []string {
	var base []string
	switch {
	case len(callerCodes) > 0:
		base = dedupe(callerCodes)
	default:
		if bases := parseAcceptLanguage(acceptLanguage); len(bases) > 0 {
			base = bases
			if !strings.EqualFold(base[0], "en") {
				base = appendUnique(base, "en")
			}
		} else {
			if len(defaults) == 0 {
				defaults = DefaultList
			}
			base = dedupe(defaults)
		}
	}
	return expand(base)
}

// expand turns each base tag into its variant list, preserving order and
// de-duplicating across the whole expanded sequence.
func expand(base []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tag := range base {
		key := strings.ToLower(tag)
		vs, ok := variants[key]
		if !ok {
			vs = []string{tag}
		}
		for _, v := range vs {
			lv := strings.ToLower(v)
			if seen[lv] {
				continue
			}
			seen[lv] = true
			out = append(out, v)
		}
	}
	return out
}

// parseAcceptLanguage extracts unique base tags (before ';' and before
// '-') from a comma-separated Accept-Language header value, preserving
// the header's priority order.
func parseAcceptLanguage(header string) []string {
	if header == "" {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if idx := strings.Index(part, ";"); idx >= 0 {
			part = part[:idx]
		}
		if idx := strings.Index(part, "-"); idx >= 0 {
			part = part[:idx]
		}
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" || part == "*" || seen[part] {
			continue
		}
		seen[part] = true
		out = append(out, part)
	}
	return out
}

func dedupe(in []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range in {
		ls := strings.ToLower(strings.TrimSpace(s))
		if ls == "" || seen[ls] {
			continue
		}
		seen[ls] = true
		out = append(out, s)
	}
	return out
}

func appendUnique(in []string, extra string) []string {
	for _, s := range in {
		if strings.EqualFold(s, extra) {
			return in
		}
	}
	return append(in, extra)
}
