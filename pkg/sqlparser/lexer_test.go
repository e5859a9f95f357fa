package sqlparser

import "testing"

func TestLexer_TokenizesSelectStatement(t *testing.T) {
	l := NewLexer("SELECT id, name FROM users WHERE id = 1;")
	want := []Type{
		SELECT, IDENT, COMMA, IDENT, FROM, IDENT, WHERE, IDENT, EQ, INT, SEMICOLON, EOF,
	}
	for i, wt := range want {
		tok := l.NextToken()
		if tok.Type != wt {
			t.Fatalf("token %d: got %s, want %s", i, tok.Type, wt)
		}
	}
}

func TestLexer_StringAndFloatLiterals(t *testing.T) {
	l := NewLexer("'alice' 3.14")
	tok := l.NextToken()
	if tok.Type != STRING || tok.Literal != "alice" {
		t.Fatalf("got %v", tok)
	}
	tok = l.NextToken()
	if tok.Type != FLOAT || tok.Literal != "3.14" {
		t.Fatalf("got %v", tok)
	}
}

func TestLexer_MultiCharOperators(t *testing.T) {
	l := NewLexer("!= <= >=")
	want := []Type{NEQ, LTE, GTE, EOF}
	for i, wt := range want {
		tok := l.NextToken()
		if tok.Type != wt {
			t.Fatalf("token %d: got %s, want %s", i, tok.Type, wt)
		}
	}
}

func TestLookupIdent_KeywordsCaseInsensitive(t *testing.T) {
	if LookupIdent("select") != SELECT {
		t.Fatal("expected lowercase select to be recognized as keyword")
	}
	if LookupIdent("Users") != IDENT {
		t.Fatal("expected table name to remain IDENT")
	}
}
