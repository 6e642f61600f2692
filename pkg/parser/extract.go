package parser

import (
	"regexp"
	"strings"

	"github.com/pseudomuto/dbmover/pkg/utils"
)

var (
	createTableHeader = regexp.MustCompile(`(?i)^\s*CREATE\s+TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?([^\s(]+)\s*\(`)
	alterTableHeader  = regexp.MustCompile(`(?i)^\s*ALTER\s+TABLE\s+(?:IF\s+EXISTS\s+)?(?:ONLY\s+)?([^\s;]+)`)
)

type (
	// TableBlock is a CREATE TABLE statement cut from a script.
	TableBlock struct {
		// Name is the unqualified, unquoted table name.
		Name string
		// Ref is the table reference as written, e.g. `shop`.`orders`.
		Ref string
		// Raw is the full statement including the terminating semicolon.
		Raw string
		// Body is the text between the opening parenthesis and the closing line.
		Body string
		// Line is the 1-based line of the CREATE TABLE keyword.
		Line int
		// BodyLine is the 1-based line on which Body starts.
		BodyLine int
	}

	// AlterStatement is a standalone ALTER TABLE statement cut from a script.
	AlterStatement struct {
		// Table is the unqualified, unquoted name of the altered table.
		Table string
		// Raw is the statement including the terminating semicolon.
		Raw string
	}

	// Extraction is the result of Extract.
	Extraction struct {
		Tables   []TableBlock
		Alters   []AlterStatement
		Residual string
	}
)

// Extract cuts every CREATE TABLE block and then every standalone ALTER TABLE
// statement out of script, in order of appearance.
//
// A CREATE TABLE block starts on a line beginning with CREATE TABLE <name> (,
// its body runs until the first line that starts with ")" and the statement ends
// at the first line ending in ";". Anchoring the closing parenthesis to the start
// of a line lets column defaults contain parentheses freely. A block that reaches
// another CREATE TABLE, a statement terminator inside its body, or the end of the
// script before closing is left in the residual untouched.
func Extract(script string) *Extraction {
	ext := new(Extraction)

	lines := splitLines(script)
	var cuts []span

	for i := 0; i < len(lines); i++ {
		m := createTableHeader.FindStringSubmatchIndex(lines[i].text)
		if m == nil {
			continue
		}

		end, closeLine, ok := findTableEnd(lines, i)
		if !ok {
			continue
		}

		ref := lines[i].text[m[2]:m[3]]
		bodyStart := lines[i].start + m[1]
		ext.Tables = append(ext.Tables, TableBlock{
			Name:     utils.Unqualified(ref),
			Ref:      ref,
			Raw:      strings.TrimSpace(script[lines[i].start:lines[end].end]),
			Body:     strings.TrimSpace(script[bodyStart:lines[closeLine].start]),
			Line:     i + 1,
			BodyLine: bodyLine(script, bodyStart, i+1),
		})
		cuts = append(cuts, span{lines[i].start, lines[end].next})
		i = end
	}

	residual := excise(script, cuts)

	lines = splitLines(residual)
	cuts = cuts[:0]
	for i := 0; i < len(lines); i++ {
		m := alterTableHeader.FindStringSubmatch(lines[i].text)
		if m == nil {
			continue
		}

		end := -1
		for j := i; j < len(lines); j++ {
			if strings.HasSuffix(strings.TrimRight(lines[j].text, " \t\r"), ";") {
				end = j
				break
			}
		}
		if end < 0 {
			break
		}

		ext.Alters = append(ext.Alters, AlterStatement{
			Table: utils.Unqualified(m[1]),
			Raw:   strings.TrimSpace(residual[lines[i].start:lines[end].end]),
		})
		cuts = append(cuts, span{lines[i].start, lines[end].next})
		i = end
	}

	ext.Residual = excise(residual, cuts)

	return ext
}

// findTableEnd locates the closing line and the terminating line of the CREATE
// TABLE block starting at line start.
func findTableEnd(lines []line, start int) (end, closeLine int, ok bool) {
	closeLine = -1
	for j := start; j < len(lines); j++ {
		text := strings.TrimRight(lines[j].text, " \t\r")

		if j > start && createTableHeader.MatchString(text) {
			return 0, 0, false
		}

		if closeLine < 0 {
			if j > start && strings.HasPrefix(text, ")") {
				closeLine = j
			} else if strings.HasSuffix(text, ";") {
				return 0, 0, false
			}
		}

		if closeLine >= 0 && strings.HasSuffix(text, ";") {
			return j, closeLine, true
		}
	}

	return 0, 0, false
}

type line struct {
	text  string
	start int // offset of the first byte
	end   int // offset of the line terminator
	next  int // offset of the following line
}

type span struct{ start, end int }

func splitLines(s string) []line {
	var lines []line
	for start := 0; start < len(s); {
		i := strings.IndexByte(s[start:], '\n')
		if i < 0 {
			lines = append(lines, line{text: s[start:], start: start, end: len(s), next: len(s)})
			break
		}

		end := start + i
		lines = append(lines, line{text: s[start:end], start: start, end: end, next: end + 1})
		start = end + 1
	}

	return lines
}

func excise(s string, cuts []span) string {
	if len(cuts) == 0 {
		return s
	}

	var b strings.Builder
	prev := 0
	for _, c := range cuts {
		b.WriteString(s[prev:c.start])
		prev = c.end
	}
	b.WriteString(s[prev:])

	return b.String()
}

// bodyLine returns the line of the first non-space character of the body.
func bodyLine(script string, offset, headerLine int) int {
	rest := script[offset:]
	trimmed := strings.TrimLeft(rest, " \t\r\n")

	return headerLine + strings.Count(rest[:len(rest)-len(trimmed)], "\n")
}
