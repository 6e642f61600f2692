package parser

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
)

var (
	// ddlLexer tokenizes the clauses of a CREATE TABLE body
	ddlLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Comment", Pattern: `--[^\r\n]*`},
		{Name: "MultilineComment", Pattern: `/\*[^*]*\*+([^/*][^*]*\*+)*/`},
		{Name: "String", Pattern: `'([^'\\]|\\.|'')*'`},
		{Name: "QuotedIdent", Pattern: "`[^`]*`|\"[^\"]*\""},
		{Name: "Cast", Pattern: `::`},
		{Name: "Number", Pattern: `\d+(\.\d*)?([eE][-+]?\d+)?`},
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_$]*`},
		{Name: "Punct", Pattern: `[(),.;:=+\-*/%<>\[\]!{}|&^~@#?]`},
		{Name: "Whitespace", Pattern: `\s+`},
	})

	// clauseParser parses a single comma separated clause of a table body
	clauseParser = participle.MustBuild[clause](
		participle.Lexer(ddlLexer),
		participle.Elide("Comment", "MultilineComment", "Whitespace"),
		participle.CaseInsensitive("Ident"),
		participle.UseLookahead(4),
	)

	elided = map[lexer.TokenType]bool{
		ddlLexer.Symbols()["Comment"]:          true,
		ddlLexer.Symbols()["MultilineComment"]: true,
		ddlLexer.Symbols()["Whitespace"]:       true,
	}

	punct       = ddlLexer.Symbols()["Punct"]
	ident       = ddlLexer.Symbols()["Ident"]
	quotedIdent = ddlLexer.Symbols()["QuotedIdent"]
)

type (
	// clause is one entry of a CREATE TABLE body
	clause struct {
		PrimaryKey *primaryKeyClause `parser:"  @@"`
		Constraint *constraintClause `parser:"| @@"`
		Column     *columnClause     `parser:"| @@"`
	}

	// primaryKeyClause is a table-level PRIMARY KEY (a, b) constraint
	primaryKeyClause struct {
		Name    string   `parser:"('CONSTRAINT' @(Ident | QuotedIdent))?"`
		Columns []string `parser:"'PRIMARY' 'KEY' '(' @(Ident | QuotedIdent) (',' @(Ident | QuotedIdent))* ')'"`
		Options []string `parser:"@~';'*"`
	}

	// constraintClause is any other table-level constraint. These are
	// recognised by their leading keywords so they are not mistaken for
	// columns, but never interpreted. Words that are legal column names in some
	// dialect only start a constraint when the following tokens fit.
	constraintClause struct {
		Kind string   `parser:"( @'CONSTRAINT' | @'FOREIGN' 'KEY' | @'LIKE' | @'UNIQUE' | @('CHECK' | 'EXCLUDE') ('(' | 'USING') | @'PROJECTION' (Ident | QuotedIdent) '(' 'SELECT' )"`
		Rest []string `parser:"@~';'*"`
	}

	columnClause struct {
		Pos    lexer.Position
		EndPos lexer.Position

		Name  string        `parser:"@(Ident | QuotedIdent)"`
		Attrs []*columnAttr `parser:"@@*"`
	}

	columnAttr struct {
		Pos    lexer.Position
		EndPos lexer.Position

		PrimaryKey bool          `parser:"  @('PRIMARY' 'KEY')"`
		NotNull    bool          `parser:"| @('NOT' 'NULL')"`
		Null       bool          `parser:"| @'NULL'"`
		Default    *defaultValue `parser:"| 'DEFAULT' @@"`
		OnUpdate   *defaultValue `parser:"| 'ON' 'UPDATE' @@"`
		Fragment   *fragment     `parser:"| @@"`
	}

	// defaultValue is the expression following DEFAULT or ON UPDATE. It ends at
	// the next column attribute keyword.
	defaultValue struct {
		Pos    lexer.Position
		EndPos lexer.Position

		Null bool               `parser:"  @'NULL'"`
		Expr []*defaultFragment `parser:"| @@+"`
	}

	defaultFragment struct {
		Group *group `parser:"  @@"`
		Token string `parser:"| @~('(' | ')' | 'NOT' | 'NULL' | 'PRIMARY' | 'DEFAULT' | 'ON' | 'COMMENT' | 'COLLATE' | 'AUTO_INCREMENT' | 'UNIQUE' | 'CHECK' | 'REFERENCES' | 'CODEC' | 'TTL' | 'CONSTRAINT' | 'GENERATED')"`
	}

	// fragment is a piece of the type expression or an attribute dbmover does not interpret
	fragment struct {
		Pos    lexer.Position
		EndPos lexer.Position

		Group *group `parser:"  @@"`
		Token string `parser:"| @~('(' | ')' | 'DEFAULT')"`
	}

	// group is a balanced parenthesised token sequence
	group struct {
		Items []*groupItem `parser:"'(' @@* ')'"`
	}

	groupItem struct {
		Group *group `parser:"  @@"`
		Token string `parser:"| @~('(' | ')')"`
	}
)

// ParseError describes a clause that could not be parsed. Line and Column are
// relative to the text handed to ParseTableBody or ParseColumn.
type ParseError struct {
	Line   int
	Column int
	Clause string
	// Name is the leading identifier of the clause as written. It names the
	// column when the clause was meant to define one.
	Name string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: failed to parse clause %q: %s", e.Line, e.Column, e.Clause, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func newParseError(clause string, line, col int, err error) *ParseError {
	var perr participle.Error
	if errors.As(err, &perr) {
		pos := perr.Position()
		if pos.Line > 1 {
			col = pos.Column
		} else {
			col += pos.Column - 1
		}
		line += pos.Line - 1
		err = errors.New(perr.Message())
	}

	return &ParseError{Line: line, Column: col, Clause: clause, Err: err}
}

// significantTokens lexes text and drops comments and whitespace. It returns
// nil when text cannot be tokenized.
func significantTokens(text string) []lexer.Token {
	lex, err := ddlLexer.LexString("", text)
	if err != nil {
		return nil
	}

	tokens, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil
	}

	out := tokens[:0]
	for _, tok := range tokens {
		if !tok.EOF() && !elided[tok.Type] {
			out = append(out, tok)
		}
	}

	return out
}

func leadingIdentifier(text string) string {
	tokens := significantTokens(text)
	if len(tokens) > 0 && (tokens[0].Type == ident || tokens[0].Type == quotedIdent) {
		return tokens[0].Value
	}

	return ""
}
