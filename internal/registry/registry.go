// Package registry maps institutions to their statement parsers.
package registry

import (
	"fmt"

	"github.com/rumor-ml/commons.systems/bankstmt/internal/domain"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/parser"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/parsers/hana"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/parsers/jeonbuk"
	"github.com/rumor-ml/commons.systems/bankstmt/internal/parsers/nonghyup"
)

// Registry holds one parser per supported institution.
// It is read-only after construction and safe for concurrent use.
type Registry struct {
	parsers map[domain.BankCode]parser.StatementParser
	order   []domain.BankCode
}

// New creates a registry with the built-in parser of every supported institution
func New(base *parser.Base) (*Registry, error) {
	if base == nil {
		return nil, fmt.Errorf("parser base cannot be nil")
	}
	return NewWith(
		hana.New(base),
		nonghyup.New(base),
		jeonbuk.New(base),
	)
}

// NewWith creates a registry from explicit parsers. Every code in
// domain.AllBankCodes must be covered exactly once.
func NewWith(parsers ...parser.StatementParser) (*Registry, error) {
	r := &Registry{parsers: make(map[domain.BankCode]parser.StatementParser, len(parsers))}
	for _, p := range parsers {
		if err := r.register(p); err != nil {
			return nil, err
		}
	}
	for _, code := range domain.AllBankCodes() {
		if _, ok := r.parsers[code]; !ok {
			return nil, fmt.Errorf("no parser registered for bank %s", code)
		}
	}
	return r, nil
}

// MustNew is like New but panics on error. For use in tests and program initialization.
func MustNew(base *parser.Base) *Registry {
	r, err := New(base)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize parser registry: %v", err))
	}
	return r
}

func (r *Registry) register(p parser.StatementParser) error {
	if p == nil {
		return fmt.Errorf("cannot register nil parser")
	}
	code := p.BankCode()
	if !code.Valid() {
		return fmt.Errorf("parser %q has unsupported bank code %q", p.Name(), code)
	}
	if existing, ok := r.parsers[code]; ok {
		return fmt.Errorf("bank %s already registered by parser %q", code, existing.Name())
	}
	r.parsers[code] = p
	r.order = append(r.order, code)
	return nil
}

// Lookup returns the parser for code
func (r *Registry) Lookup(code domain.BankCode) (parser.StatementParser, error) {
	p, ok := r.parsers[code]
	if !ok {
		return nil, fmt.Errorf("no parser for bank %q", code)
	}
	return p, nil
}

// ListParsers returns parser names in registration order
func (r *Registry) ListParsers() []string {
	names := make([]string, len(r.order))
	for i, code := range r.order {
		names[i] = r.parsers[code].Name()
	}
	return names
}
