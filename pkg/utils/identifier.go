package utils

import "strings"

// IsQuoted reports whether s is a single identifier wrapped in backticks or
// double quotes.
//
// Examples:
//   - "`table`" -> true
//   - `"Table"` -> true
//   - "table" -> false
//   - "`db`.`table`" -> false (qualified name, not a single quoted identifier)
func IsQuoted(s string) bool {
	if len(s) < 2 {
		return false
	}

	q := s[0]
	if q != '`' && q != '"' {
		return false
	}

	return s[len(s)-1] == q && !strings.ContainsRune(s[1:len(s)-1], rune(q))
}

// StripQuotes removes identifier quoting from each part of a possibly
// qualified name.
//
// Examples:
//   - "`table`" -> "table"
//   - `"public"."Orders"` -> "public.Orders"
//   - "table" -> "table"
//   - "" -> ""
func StripQuotes(name string) string {
	parts := SplitQualified(name)
	for i, part := range parts {
		if IsQuoted(part) {
			parts[i] = part[1 : len(part)-1]
		}
	}

	return strings.Join(parts, ".")
}

// SplitQualified splits a qualified name on dots that are not inside quotes.
//
// Examples:
//   - "shop.orders" -> ["shop", "orders"]
//   - "`odd.name`" -> ["`odd.name`"]
func SplitQualified(name string) []string {
	if name == "" {
		return []string{""}
	}

	var (
		parts []string
		quote byte
		start int
	)

	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '`' || c == '"':
			quote = c
		case c == '.':
			parts = append(parts, name[start:i])
			start = i + 1
		}
	}

	return append(parts, name[start:])
}

// Unqualified returns the last part of a qualified name with quoting removed.
//
// Examples:
//   - "shop.orders" -> "orders"
//   - "`orders`" -> "orders"
func Unqualified(name string) string {
	parts := SplitQualified(name)
	last := parts[len(parts)-1]
	if IsQuoted(last) {
		return last[1 : len(last)-1]
	}

	return last
}
