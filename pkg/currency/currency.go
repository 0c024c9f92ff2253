package currency

import (
	"fmt"
	"strings"
)

// Code is an ISO 4217 currency code.
type Code string

const (
	RUB Code = "RUB"
	USD Code = "USD"
	EUR Code = "EUR"
)

// Meta holds display metadata for a supported currency.
type Meta struct {
	Decimals int
	Symbol   string
	Name     string
}

var supported = map[Code]Meta{
	RUB: {Decimals: 2, Symbol: "₽", Name: "Russian Ruble"},
	USD: {Decimals: 2, Symbol: "$", Name: "US Dollar"},
	EUR: {Decimals: 2, Symbol: "€", Name: "Euro"},
}

// Parse normalizes s and returns it as a supported Code.
func Parse(s string) (Code, error) {
	c := Code(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsSupported() {
		return "", fmt.Errorf("unsupported currency %q", s)
	}
	return c, nil
}

// IsSupported reports whether c is one of RUB, USD or EUR.
func (c Code) IsSupported() bool {
	_, ok := supported[c]
	return ok
}

// Meta returns the metadata of c and whether c is supported.
func (c Code) Meta() (Meta, bool) {
	m, ok := supported[c]
	return m, ok
}

func (c Code) String() string { return string(c) }

// All returns the supported codes in a stable order.
func All() []Code {
	return []Code{RUB, USD, EUR}
}
