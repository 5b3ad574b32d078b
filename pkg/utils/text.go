package utils

import (
	"net/mail"
	"regexp"
	"strings"
)

var (
	blockTagRe   = regexp.MustCompile(`(?i)<\s*(br|/p|/div|/tr|/li|/h[1-6])\s*/?>`)
	styleBlockRe = regexp.MustCompile(`(?is)<(style|script)[^>]*>.*?</(style|script)>`)
	tagRe        = regexp.MustCompile(`<[^>]*>`)
	spaceRunRe   = regexp.MustCompile(`[ \t\x{3000}]+`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
)

// CleanHTMLText removes HTML tags and cleans up text
func CleanHTMLText(text string) string {
	cleaned := styleBlockRe.ReplaceAllString(text, "")
	cleaned = blockTagRe.ReplaceAllString(cleaned, "\n")
	cleaned = tagRe.ReplaceAllString(cleaned, "")

	// Replace HTML entities
	cleaned = strings.ReplaceAll(cleaned, "&nbsp;", " ")
	cleaned = strings.ReplaceAll(cleaned, "&amp;", "&")
	cleaned = strings.ReplaceAll(cleaned, "&lt;", "<")
	cleaned = strings.ReplaceAll(cleaned, "&gt;", ">")
	cleaned = strings.ReplaceAll(cleaned, "&#39;", "'")
	cleaned = strings.ReplaceAll(cleaned, "&quot;", "\"")

	// Clean up whitespace
	cleaned = strings.ReplaceAll(cleaned, "\r\n", "\n")
	lines := strings.Split(cleaned, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRunRe.ReplaceAllString(line, " "))
	}
	cleaned = blankLinesRe.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")

	return strings.TrimSpace(cleaned)
}

// SenderDomain returns the lower-cased domain of a From header value
func SenderDomain(from string) string {
	addr := from
	if parsed, err := mail.ParseAddress(from); err == nil {
		addr = parsed.Address
	} else if i := strings.LastIndex(from, "<"); i >= 0 {
		addr = strings.TrimSuffix(from[i+1:], ">")
	}
	at := strings.LastIndex(addr, "@")
	if at < 0 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(strings.TrimSuffix(addr[at+1:], ">")))
}

// DomainMatches reports whether domain equals base or is a subdomain of it
func DomainMatches(domain, base string) bool {
	domain = strings.ToLower(domain)
	base = strings.ToLower(base)
	return domain == base || strings.HasSuffix(domain, "."+base)
}

// Truncate cuts s to at most n runes
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
