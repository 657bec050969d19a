package registry

import (
	"context"
	"strings"
	"testing"

	"github.com/rumor-ml/commons.systems/bankstmt/internal/domain"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/parser"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/tabular"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/transform"
)

// mockParser implements parser.StatementParser for testing
type mockParser struct {
	name string
	bank domain.BankCode
}

func (m *mockParser) Name() string              { return m.name }
func (m *mockParser) BankCode() domain.BankCode { return m.bank }
func (m *mockParser) Parse(context.Context, []byte) *domain.BankStatementParseResult {
	return domain.NewParseResult(m.bank)
}

func newBase(t *testing.T) *parser.Base {
	t.Helper()
	base, err := parser.NewBase(tabular.NewAutoReader(), transform.NewNormalizer(nil), parser.DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("NewBase() error: %v", err)
	}
	return base
}

func TestRegistry_New(t *testing.T) {
	reg, err := New(newBase(t))
	if err != nil {
		t.Fatalf("New() returned unexpected error: %v", err)
	}

	expected := []string{"hana", "nonghyup", "jeonbuk"}
	parsers := reg.ListParsers()
	if len(parsers) != len(expected) {
		t.Fatalf("Expected %d parsers, got %d", len(expected), len(parsers))
	}
	for i, name := range expected {
		if parsers[i] != name {
			t.Errorf("Parser %d: expected '%s', got '%s'", i, name, parsers[i])
		}
	}

	// Every supported institution dispatches to its own parser
	for _, code := range domain.AllBankCodes() {
		p, err := reg.Lookup(code)
		if err != nil {
			t.Errorf("Lookup(%s) error: %v", code, err)
			continue
		}
		if p.BankCode() != code {
			t.Errorf("Lookup(%s) returned parser for %s", code, p.BankCode())
		}
	}
}

func TestRegistry_New_NilBase(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("Expected error for nil base")
	}
}

func TestRegistry_MustNew(t *testing.T) {
	if reg := MustNew(newBase(t)); reg == nil {
		t.Fatal("MustNew() returned nil registry")
	}

	defer func() {
		if recover() == nil {
			t.Error("MustNew(nil) should panic")
		}
	}()
	MustNew(nil)
}

func TestRegistry_Lookup_Unknown(t *testing.T) {
	reg := MustNew(newBase(t))
	for _, code := range []domain.BankCode{domain.BankCodeNone, "KB"} {
		if _, err := reg.Lookup(code); err == nil {
			t.Errorf("Lookup(%q) expected error", code)
		}
	}
}

func TestNewWith(t *testing.T) {
	all := func() []parser.StatementParser {
		return []parser.StatementParser{
			&mockParser{name: "h", bank: domain.BankCodeHana},
			&mockParser{name: "n", bank: domain.BankCodeNonghyup},
			&mockParser{name: "j", bank: domain.BankCodeJeonbuk},
		}
	}

	if _, err := NewWith(all()...); err != nil {
		t.Fatalf("NewWith() unexpected error: %v", err)
	}

	tests := []struct {
		name    string
		parsers []parser.StatementParser
		wantErr string
	}{
		{"missing institution", all()[:2], "no parser registered for bank JEONBUK"},
		{"nil parser", append(all(), nil), "cannot register nil parser"},
		{"duplicate", append(all(), &mockParser{name: "h2", bank: domain.BankCodeHana}), "already registered"},
		{"unsupported code", append(all(), &mockParser{name: "kb", bank: "KB"}), "unsupported bank code"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewWith(tt.parsers...)
			if err == nil {
				t.Fatalf("Expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected %q error, got: %v", tt.wantErr, err)
			}
		})
	}
}
