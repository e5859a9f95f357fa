package sqlparser

import (
	"strconv"
	"strings"

	"github.com/fowlerlee/geeqodb/pkg/errors"
	"github.com/fowlerlee/geeqodb/pkg/types"
)

// Parser is a recursive-descent parser over a small dialect subset:
// SELECT, INSERT, CREATE TABLE, CREATE INDEX, with pass-through
// recognition (no execution support) of UPDATE/DELETE/DROP/ALTER so a
// multi-statement batch doesn't abort on the first one.
type Parser struct {
	lex *Lexer
	cur Token
	peek Token
}

func NewParser(query string) *Parser {
	p := &Parser{lex: NewLexer(query)}
	p.advance()
	p.advance()
	return p
}

func (p *Parser) advance() {
	p.cur = p.peek
	p.peek = p.lex.NextToken()
}

// Parse parses a single statement out of the query text.
func Parse(query string) (Statement, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &errors.EmptyQueryError{}
	}
	p := NewParser(query)
	return p.parseStatement()
}

func (p *Parser) parseStatement() (Statement, error) {
	switch p.cur.Type {
	case SELECT:
		return p.parseSelect()
	case INSERT:
		return p.parseInsert()
	case CREATE:
		return p.parseCreate()
	case UPDATE:
		return p.parsePassThrough("UPDATE")
	case DELETE:
		return p.parsePassThrough("DELETE")
	case DROP:
		return p.parsePassThrough("DROP")
	case ALTER:
		return p.parsePassThrough("ALTER")
	case EOF:
		return nil, &errors.EmptyQueryError{}
	default:
		return nil, &errors.InvalidSyntaxError{Reason: "expected a statement keyword, got " + p.cur.Literal}
	}
}

func (p *Parser) parsePassThrough(kind string) (Statement, error) {
	for p.cur.Type != SEMICOLON && p.cur.Type != EOF {
		p.advance()
	}
	return &UnsupportedStmt{Kind: kind}, nil
}

// --- SELECT ------------------------------------------------------------

func (p *Parser) parseSelect() (Statement, error) {
	p.advance() // consume SELECT
	stmt := &SelectStmt{}

	if p.cur.Type == ASTERISK {
		stmt.Star = true
		p.advance()
	} else {
		cols, err := p.parseColumnList()
		if err != nil {
			return nil, err
		}
		stmt.Columns = cols
	}

	if p.cur.Type != FROM {
		return nil, &errors.InvalidSyntaxError{Reason: "expected FROM"}
	}
	p.advance()

	if p.cur.Type != IDENT {
		return nil, &errors.MissingTableNameError{}
	}
	stmt.Table = p.cur.Literal
	p.advance()

	if p.cur.Type == WHERE {
		p.advance()
		preds, err := p.parsePredicateList()
		if err != nil {
			return nil, err
		}
		stmt.Predicates = preds
	}

	if p.cur.Type == SEMICOLON {
		p.advance()
	}
	return stmt, nil
}

func (p *Parser) parseColumnList() ([]Column, error) {
	var cols []Column
	for {
		col, err := p.parseColumnRef()
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
		if p.cur.Type != COMMA {
			break
		}
		p.advance()
	}
	return cols, nil
}

func (p *Parser) parseColumnRef() (Column, error) {
	if p.cur.Type != IDENT {
		return Column{}, &errors.InvalidSyntaxError{Reason: "expected column name, got " + p.cur.Literal}
	}
	first := p.cur.Literal
	p.advance()
	if p.cur.Type == DOT {
		p.advance()
		if p.cur.Type != IDENT {
			return Column{}, &errors.InvalidSyntaxError{Reason: "expected column name after '.'"}
		}
		col := Column{Table: first, Name: p.cur.Literal}
		p.advance()
		return col, nil
	}
	return Column{Name: first}, nil
}

func (p *Parser) parsePredicateList() ([]Predicate, error) {
	var preds []Predicate
	for {
		pred, err := p.parsePredicate()
		if err != nil {
			return nil, err
		}
		preds = append(preds, pred)
		if p.cur.Type != AND {
			break
		}
		p.advance()
	}
	return preds, nil
}

func (p *Parser) parsePredicate() (Predicate, error) {
	col, err := p.parseColumnRef()
	if err != nil {
		return Predicate{}, err
	}

	switch p.cur.Type {
	case EQ, NEQ, LT, LTE, GT, GTE:
		op := comparisonOpFor(p.cur.Type)
		p.advance()
		val, err := p.parseLiteralValue()
		if err != nil {
			return Predicate{}, err
		}
		return Predicate{Column: col, Op: op, Values: []types.Value{val}}, nil
	case BETWEEN:
		p.advance()
		lo, err := p.parseLiteralValue()
		if err != nil {
			return Predicate{}, err
		}
		if p.cur.Type != AND {
			return Predicate{}, &errors.InvalidSyntaxError{Reason: "expected AND in BETWEEN"}
		}
		p.advance()
		hi, err := p.parseLiteralValue()
		if err != nil {
			return Predicate{}, err
		}
		return Predicate{Column: col, Op: OpBetween, Values: []types.Value{lo, hi}}, nil
	case IN:
		p.advance()
		if p.cur.Type != LPAREN {
			return Predicate{}, &errors.InvalidSyntaxError{Reason: "expected '(' after IN"}
		}
		p.advance()
		var vals []types.Value
		for {
			v, err := p.parseLiteralValue()
			if err != nil {
				return Predicate{}, err
			}
			vals = append(vals, v)
			if p.cur.Type != COMMA {
				break
			}
			p.advance()
		}
		if p.cur.Type != RPAREN {
			return Predicate{}, &errors.InvalidSyntaxError{Reason: "expected ')' to close IN list"}
		}
		p.advance()
		return Predicate{Column: col, Op: OpIn, Values: vals}, nil
	case LIKE:
		p.advance()
		val, err := p.parseLiteralValue()
		if err != nil {
			return Predicate{}, err
		}
		return Predicate{Column: col, Op: OpLike, Values: []types.Value{val}}, nil
	default:
		return Predicate{}, &errors.InvalidSyntaxError{Reason: "expected a comparison operator, got " + p.cur.Literal}
	}
}

func comparisonOpFor(t Type) ComparisonOp {
	switch t {
	case EQ:
		return OpEq
	case NEQ:
		return OpNeq
	case LT:
		return OpLt
	case LTE:
		return OpLte
	case GT:
		return OpGt
	case GTE:
		return OpGte
	}
	return OpEq
}

func (p *Parser) parseLiteralValue() (types.Value, error) {
	switch p.cur.Type {
	case INT:
		n, err := strconv.ParseInt(p.cur.Literal, 10, 64)
		if err != nil {
			return types.Value{}, &errors.InvalidSyntaxError{Reason: "malformed integer literal " + p.cur.Literal}
		}
		p.advance()
		return types.NewInteger(n), nil
	case FLOAT:
		f, err := strconv.ParseFloat(p.cur.Literal, 64)
		if err != nil {
			return types.Value{}, &errors.InvalidSyntaxError{Reason: "malformed float literal " + p.cur.Literal}
		}
		p.advance()
		return types.NewFloat(f), nil
	case STRING:
		s := p.cur.Literal
		p.advance()
		return types.NewText(s), nil
	case TRUE:
		p.advance()
		return types.NewBoolean(true), nil
	case FALSE:
		p.advance()
		return types.NewBoolean(false), nil
	case NULL:
		p.advance()
		return types.NewNull(), nil
	default:
		return types.Value{}, &errors.InvalidSyntaxError{Reason: "expected a literal value, got " + p.cur.Literal}
	}
}

// --- INSERT --------------------------------------------------------------

func (p *Parser) parseInsert() (Statement, error) {
	p.advance() // consume INSERT
	if p.cur.Type != INTO {
		return nil, &errors.InvalidSyntaxError{Reason: "expected INTO"}
	}
	p.advance()

	if p.cur.Type != IDENT {
		return nil, &errors.MissingTableNameError{}
	}
	stmt := &InsertStmt{Table: p.cur.Literal}
	p.advance()

	if p.cur.Type != VALUES {
		return nil, &errors.InvalidSyntaxError{Reason: "expected VALUES"}
	}
	p.advance()

	if p.cur.Type != LPAREN {
		return nil, &errors.InvalidSyntaxError{Reason: "expected '(' after VALUES"}
	}
	p.advance()

	for {
		v, err := p.parseLiteralValue()
		if err != nil {
			return nil, err
		}
		stmt.Values = append(stmt.Values, v)
		if p.cur.Type != COMMA {
			break
		}
		p.advance()
	}

	if p.cur.Type != RPAREN {
		return nil, &errors.InvalidSyntaxError{Reason: "expected ')' to close VALUES list"}
	}
	p.advance()

	if p.cur.Type == SEMICOLON {
		p.advance()
	}
	return stmt, nil
}

// --- CREATE TABLE / CREATE INDEX -----------------------------------------

func (p *Parser) parseCreate() (Statement, error) {
	p.advance() // consume CREATE
	switch p.cur.Type {
	case TABLE:
		return p.parseCreateTable()
	case INDEX:
		return p.parseCreateIndex()
	default:
		return nil, &errors.InvalidSyntaxError{Reason: "expected TABLE or INDEX after CREATE"}
	}
}

func (p *Parser) parseCreateTable() (Statement, error) {
	p.advance() // consume TABLE
	if p.cur.Type != IDENT {
		return nil, &errors.MissingTableNameError{}
	}
	stmt := &CreateTableStmt{Table: p.cur.Literal}
	p.advance()

	if p.cur.Type != LPAREN {
		return nil, &errors.InvalidSyntaxError{Reason: "expected '(' after table name"}
	}
	p.advance()

	for {
		if p.cur.Type != IDENT {
			return nil, &errors.InvalidSyntaxError{Reason: "expected column name"}
		}
		name := p.cur.Literal
		p.advance()
		if p.cur.Type != IDENT {
			return nil, &errors.InvalidSyntaxError{Reason: "expected column type"}
		}
		tag, err := typeTagFor(p.cur.Literal)
		if err != nil {
			return nil, err
		}
		p.advance()
		stmt.Columns = append(stmt.Columns, ColumnDef{Name: name, Type: tag})
		if p.cur.Type != COMMA {
			break
		}
		p.advance()
	}

	if p.cur.Type != RPAREN {
		return nil, &errors.InvalidSyntaxError{Reason: "expected ')' to close column list"}
	}
	p.advance()

	if p.cur.Type == SEMICOLON {
		p.advance()
	}
	return stmt, nil
}

func (p *Parser) parseCreateIndex() (Statement, error) {
	p.advance() // consume INDEX
	if p.cur.Type != IDENT {
		return nil, &errors.InvalidSyntaxError{Reason: "expected index name"}
	}
	stmt := &CreateIndexStmt{Name: p.cur.Literal}
	p.advance()

	if p.cur.Type != IDENT || upper(p.cur.Literal) != "ON" {
		return nil, &errors.InvalidSyntaxError{Reason: "expected ON after index name"}
	}
	p.advance()

	if p.cur.Type != IDENT {
		return nil, &errors.MissingTableNameError{}
	}
	stmt.Table = p.cur.Literal
	p.advance()

	if p.cur.Type != LPAREN {
		return nil, &errors.InvalidSyntaxError{Reason: "expected '(' after table name"}
	}
	p.advance()

	if p.cur.Type != IDENT {
		return nil, &errors.InvalidSyntaxError{Reason: "expected column name"}
	}
	stmt.Column = p.cur.Literal
	p.advance()

	if p.cur.Type != RPAREN {
		return nil, &errors.InvalidSyntaxError{Reason: "expected ')' after column name"}
	}
	p.advance()

	if p.cur.Type == SEMICOLON {
		p.advance()
	}
	return stmt, nil
}

func typeTagFor(name string) (types.Tag, error) {
	switch upper(name) {
	case "INT", "INTEGER", "BIGINT":
		return types.TagInteger, nil
	case "FLOAT", "DOUBLE", "REAL":
		return types.TagFloat, nil
	case "TEXT", "VARCHAR", "STRING", "CHAR":
		return types.TagText, nil
	case "BOOL", "BOOLEAN":
		return types.TagBoolean, nil
	default:
		return types.TagNull, &errors.InvalidSyntaxError{Reason: "unknown column type " + name}
	}
}
