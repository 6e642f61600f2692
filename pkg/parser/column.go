package parser

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
	"github.com/pseudomuto/dbmover/pkg/utils"
)

// ErrNotColumn is wrapped by ParseColumn when the clause is a table constraint.
var ErrNotColumn = errors.New("not a column definition")

type (
	// Option configures ParseTableBody and ParseColumn.
	Option func(*options)

	options struct {
		indexKeywords bool
	}

	// ColumnDefinition is a column declared in a CREATE TABLE body.
	ColumnDefinition struct {
		// Name is the column name as written, including any quotes.
		Name string
		// Type is the upper-cased type expression with the name, nullability,
		// default and primary key removed. Modifiers such as COLLATE or
		// AUTO_INCREMENT remain.
		Type string
		// Nullable is false when NOT NULL or an inline PRIMARY KEY is declared.
		Nullable bool
		// Default is the default value with one level of quoting removed, or nil
		// when there is no default or the default is NULL.
		Default *string
		// DefaultRaw is the default expression exactly as written.
		DefaultRaw string
		// OnUpdate is the MySQL ON UPDATE expression as written.
		OnUpdate string
		// PrimaryKey is set by an inline PRIMARY KEY.
		PrimaryKey bool
		// Raw is the full clause as written.
		Raw string
		// Line is the line of the clause within the parsed text.
		Line int

		pkStart, pkEnd int
	}

	// TableBody is the parsed body of a CREATE TABLE statement.
	TableBody struct {
		Columns []*ColumnDefinition
		// PrimaryKey holds the columns of a table-level PRIMARY KEY (...) clause
		// as written, including any quotes.
		PrimaryKey []string
		// Constraints holds every other table-level clause verbatim.
		Constraints []string
		// Errors holds the clauses that could not be parsed.
		Errors []*ParseError
	}
)

// WithIndexKeywords treats clauses starting with KEY, INDEX, FULLTEXT or SPATIAL
// as index definitions. Use it for dialects that reserve these words, where
// they can never start a column. Without it such clauses are columns unless
// they have the shape of a data skipping index (INDEX name expr TYPE kind).
func WithIndexKeywords() Option {
	return func(o *options) { o.indexKeywords = true }
}

func newOptions(opts []Option) *options {
	o := new(options)
	for _, opt := range opts {
		opt(o)
	}

	return o
}

// isIndex reports whether a clause defines an index rather than a column.
func (o *options) isIndex(text string) bool {
	tokens := significantTokens(text)
	if len(tokens) == 0 || tokens[0].Type != ident {
		return false
	}

	switch strings.ToUpper(tokens[0].Value) {
	case "KEY", "FULLTEXT", "SPATIAL":
		return o.indexKeywords
	case "INDEX":
		if o.indexKeywords {
			return true
		}
	default:
		return false
	}

	if len(tokens) < 4 || (tokens[1].Type != ident && tokens[1].Type != quotedIdent) {
		return false
	}

	depth := 0
	for _, tok := range tokens[2:] {
		switch {
		case tok.Type == punct && tok.Value == "(":
			depth++
		case tok.Type == punct && tok.Value == ")":
			depth--
		case depth == 0 && tok.Type == ident && strings.EqualFold(tok.Value, "TYPE"):
			return true
		}
	}

	return false
}

// Identifier returns the column name without quoting.
func (c *ColumnDefinition) Identifier() string {
	return utils.StripQuotes(c.Name)
}

// RawWithoutPrimaryKey returns Raw with an inline PRIMARY KEY removed.
func (c *ColumnDefinition) RawWithoutPrimaryKey() string {
	if !c.PrimaryKey {
		return c.Raw
	}

	head := strings.TrimRight(c.Raw[:c.pkStart], " \t\r\n")
	tail := strings.TrimLeft(c.Raw[c.pkEnd:], " \t\r\n")
	if tail == "" {
		return head
	}

	return head + " " + tail
}

// ParseTableBody parses the comma separated clauses between the parentheses of
// a CREATE TABLE statement. Clauses that fail to parse are collected in
// TableBody.Errors. An error is returned only when the body cannot be tokenized.
func ParseTableBody(body string, opts ...Option) (*TableBody, error) {
	spans, err := splitClauses(body)
	if err != nil {
		return nil, err
	}

	o := newOptions(opts)
	tb := new(TableBody)
	for _, sp := range spans {
		if o.isIndex(sp.text) {
			tb.Constraints = append(tb.Constraints, sp.text)
			continue
		}

		cl, err := clauseParser.ParseString("", sp.text)
		if err != nil {
			perr := newParseError(sp.text, sp.line, sp.col, err)
			perr.Name = leadingIdentifier(sp.text)
			tb.Errors = append(tb.Errors, perr)
			continue
		}

		switch {
		case cl.PrimaryKey != nil:
			tb.PrimaryKey = append(tb.PrimaryKey, cl.PrimaryKey.Columns...)
		case cl.Constraint != nil:
			tb.Constraints = append(tb.Constraints, sp.text)
		case cl.Column != nil:
			col := buildColumn(sp.text, cl.Column)
			col.Line = sp.line
			tb.Columns = append(tb.Columns, col)
		}
	}

	return tb, nil
}

// ParseColumn parses a single column clause such as
// "price NUMERIC(10,2) NOT NULL DEFAULT '0.00'".
func ParseColumn(text string, opts ...Option) (*ColumnDefinition, error) {
	text = strings.TrimSpace(text)
	if newOptions(opts).isIndex(text) {
		return nil, &ParseError{Line: 1, Column: 1, Clause: text, Err: ErrNotColumn}
	}

	cl, err := clauseParser.ParseString("", text)
	if err != nil {
		perr := newParseError(text, 1, 1, err)
		perr.Name = leadingIdentifier(text)
		return nil, perr
	}

	if cl.Column == nil {
		return nil, &ParseError{Line: 1, Column: 1, Clause: text, Err: ErrNotColumn}
	}

	col := buildColumn(text, cl.Column)
	col.Line = 1

	return col, nil
}

func buildColumn(text string, cc *columnClause) *ColumnDefinition {
	base := cc.Pos.Offset
	col := &ColumnDefinition{
		Name:     cc.Name,
		Nullable: true,
		Raw:      text[base:cc.EndPos.Offset],
	}

	var (
		typeParts []string
		runStart  = -1
		runEnd    int
	)

	closeRun := func() {
		if runStart >= 0 {
			typeParts = append(typeParts, text[runStart:runEnd])
			runStart = -1
		}
	}

	for _, attr := range cc.Attrs {
		if attr.Fragment != nil {
			if runStart < 0 {
				runStart = attr.Pos.Offset
			}
			runEnd = attr.EndPos.Offset
			continue
		}

		closeRun()
		switch {
		case attr.PrimaryKey:
			col.PrimaryKey = true
			col.Nullable = false
			col.pkStart, col.pkEnd = attr.Pos.Offset-base, attr.EndPos.Offset-base
		case attr.NotNull:
			col.Nullable = false
		case attr.Default != nil:
			col.DefaultRaw = text[attr.Default.Pos.Offset:attr.Default.EndPos.Offset]
			if !attr.Default.Null {
				col.Default = utils.Ptr(literal(col.DefaultRaw, attr.Default.Expr))
			}
		case attr.OnUpdate != nil:
			col.OnUpdate = text[attr.OnUpdate.Pos.Offset:attr.OnUpdate.EndPos.Offset]
		}
	}
	closeRun()

	col.Type = strings.ToUpper(strings.Join(strings.Fields(strings.Join(typeParts, " ")), " "))

	return col
}

// literal strips the quotes from a default that is a single string literal.
// Any other expression is returned as written.
func literal(raw string, expr []*defaultFragment) string {
	if len(expr) == 1 && expr[0].Group == nil && strings.HasPrefix(expr[0].Token, "'") {
		tok := expr[0].Token
		return strings.ReplaceAll(tok[1:len(tok)-1], "''", "'")
	}

	return raw
}

type clauseSpan struct {
	text      string
	line, col int
}

// splitClauses splits a table body on commas that are not nested in
// parentheses. Comments and quoted text never split a clause.
func splitClauses(body string) ([]clauseSpan, error) {
	lex, err := ddlLexer.LexString("", body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to tokenize table body")
	}

	tokens, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, newParseError(body, 1, 1, err)
	}

	var (
		spans []clauseSpan
		depth int
		first *lexer.Token
		last  lexer.Token
	)

	flush := func() {
		if first != nil {
			end := last.Pos.Offset + len(last.Value)
			spans = append(spans, clauseSpan{
				text: body[first.Pos.Offset:end],
				line: first.Pos.Line,
				col:  first.Pos.Column,
			})
		}
		first = nil
	}

	for i := range tokens {
		tok := tokens[i]
		if tok.EOF() {
			break
		}

		if tok.Type == punct {
			switch tok.Value {
			case "(":
				depth++
			case ")":
				depth--
			case ",":
				if depth == 0 {
					flush()
					continue
				}
			}
		}

		if elided[tok.Type] {
			continue
		}

		if first == nil {
			first = &tokens[i]
		}
		last = tok
	}
	flush()

	return spans, nil
}
