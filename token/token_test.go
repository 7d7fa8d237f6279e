package token

import "testing"

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		tokenType Type
		lexeme    string
		want      Token
	}{
		{name: "assign token", tokenType: ASSIGN, lexeme: "=", want: Token{Type: ASSIGN, Lexeme: "=", Line: 3, Column: 1}},
		{name: "identifier token", tokenType: IDENTIFIER, lexeme: "myVar", want: Token{Type: IDENTIFIER, Lexeme: "myVar", Line: 3, Column: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.tokenType, tt.lexeme, 3, 1)
			if got != tt.want {
				t.Errorf("New() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKeywordsAreRecognised(t *testing.T) {
	for word, want := range Keywords {
		got, ok := Keywords[word]
		if !ok {
			t.Fatalf("keyword %q missing from table", word)
		}
		if got != want {
			t.Errorf("Keywords[%q] = %v, want %v", word, got, want)
		}
	}
}

func TestTokenIs(t *testing.T) {
	tok := New(KW_IF, "if", 0, 0)
	if !tok.Is(KW_ELSE, KW_IF) {
		t.Errorf("expected token to match one of the provided types")
	}
	if tok.Is(KW_WHILE) {
		t.Errorf("did not expect token to match KW_WHILE")
	}
}
