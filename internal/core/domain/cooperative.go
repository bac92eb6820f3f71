package domain

import "strings"

// Cooperative is a registered organization entitled to run campaigns
// and receive released funds at its vault address. The local record is
// a cache of the ledger row and is never mutated after creation except
// by re-fetch.
type Cooperative struct {
	Address    string // ledger-assigned identity, immutable
	Vault      string // destination for released funds, immutable
	Name       string
	TaxID      string // CNPJ
	PersonalID string // CPF
	Email      string
}

// ValidAddress reports whether s looks like a ledger address:
// 0x followed by 40 hex digits.
func ValidAddress(s string) bool {
	if len(s) != 42 || !strings.HasPrefix(s, "0x") {
		return false
	}
	for _, r := range s[2:] {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

// Validate checks registration input before it is submitted.
func (c Cooperative) Validate() error {
	if c.Vault == "" || c.Name == "" || c.TaxID == "" || c.PersonalID == "" || c.Email == "" {
		return ErrValidation
	}
	if !ValidAddress(c.Vault) {
		return ErrValidation
	}
	return nil
}
