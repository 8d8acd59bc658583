// internal/domain/listing/format.go

package listing

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	nonSlugChars   = regexp.MustCompile(`[^a-z0-9-]`)
	repeatedDashes = regexp.MustCompile(`-+`)
	uuidSuffix     = regexp.MustCompile(`[0-9a-fA-F-]{36}$`)
	tokenSuffix    = regexp.MustCompile(`-([a-zA-Z0-9]+)$`)
)

// Slug builds the detail page path segment "<name>-<id>"
func Slug(name, id string) string {
	if id == "" {
		return ""
	}

	slug := strings.ToLower(strings.Join(strings.Fields(name), "-"))
	slug = nonSlugChars.ReplaceAllString(slug, "")
	slug = repeatedDashes.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "kos"
	}

	return slug + "-" + id
}

// IDFromSlug extracts the listing ID from a slug. A bare UUID is its own slug.
func IDFromSlug(slug string) (string, bool) {
	if slug == "" {
		return "", false
	}

	if id := uuidSuffix.FindString(slug); id != "" {
		return id, true
	}

	if m := tokenSuffix.FindStringSubmatch(slug); m != nil {
		return m[1], true
	}

	return "", false
}

// FormatShortPrice renders a rupiah amount the way listing cards show it, e.g. "1,5jt" or "750rb"
func FormatShortPrice(price int64) string {
	switch {
	case price >= 1_000_000:
		millions := float64(price) / 1_000_000
		s := strconv.FormatFloat(millions, 'f', 1, 64)
		s = strings.TrimSuffix(s, ".0")
		return strings.Replace(s, ".", ",", 1) + "jt"
	case price >= 1_000:
		return strconv.FormatInt(price/1_000, 10) + "rb"
	}
	return strconv.FormatInt(price, 10)
}

// FormatRupiah renders a full amount with Indonesian digit grouping, e.g. "Rp1.500.000"
func FormatRupiah(price int64) string {
	digits := strconv.FormatInt(price, 10)
	sign := ""
	if price < 0 {
		sign = "-"
		digits = digits[1:]
	}

	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}

	return sign + "Rp" + b.String()
}
