// Package model defines the core domain models used throughout the application.
package model

import (
	"fmt"
	"strings"
	"time"
)

// TransferType indicates whether the whole account moves or only part of it.
type TransferType string

// Transfer type constants.
const (
	TransferFull    TransferType = "full"
	TransferPartial TransferType = "partial"
)

// AssetType categorizes a security line item.
type AssetType string

// Asset type constants.
const (
	AssetEquity     AssetType = "equity"
	AssetMutualFund AssetType = "mutual_fund"
	AssetBond       AssetType = "bond"
	AssetOption     AssetType = "option"
	AssetCash       AssetType = "cash"
)

// Security is a single line item on a transfer request.
type Security struct {
	CUSIP       string    `json:"cusip"`
	Symbol      string    `json:"symbol,omitempty"`
	Description string    `json:"description"`
	Quantity    int       `json:"quantity"`
	AssetType   AssetType `json:"asset_type"`
}

// CustomerInfo identifies the customer behind a transfer request.
type CustomerInfo struct {
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	SSN         string     `json:"ssn,omitempty"`
	TaxID       string     `json:"tax_id,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
}

// TransferRecord is an ACATS-style account transfer request as received
// from a caller, before any tracking state is attached.
type TransferRecord struct {
	TransferDate        time.Time    `json:"transfer_date"`
	DeliveringAccount   string       `json:"delivering_account"`
	ReceivingAccount    string       `json:"receiving_account"`
	ContraFirm          string       `json:"contra_firm"`
	TransferType        TransferType `json:"transfer_type"`
	AccountType         string       `json:"account_type,omitempty"`
	SpecialInstructions string       `json:"special_instructions,omitempty"`
	Customer            CustomerInfo `json:"customer"`
	Securities          []Security   `json:"securities"`
}

// Validate enforces the structural constraints of a transfer request.
// Field-level heuristics (CUSIP shape, account separators, SSN format) are
// the validation engine's job; this only rejects records the engine cannot
// meaningfully analyze. All violations are reported in one error.
func (r *TransferRecord) Validate() error {
	var violations []string

	if r.DeliveringAccount == "" {
		violations = append(violations, "delivering_account is required")
	} else if len(r.DeliveringAccount) > 20 {
		violations = append(violations, "delivering_account must be at most 20 characters")
	}

	if r.ReceivingAccount == "" {
		violations = append(violations, "receiving_account is required")
	} else if len(r.ReceivingAccount) > 20 {
		violations = append(violations, "receiving_account must be at most 20 characters")
	}

	if !isFourDigits(r.ContraFirm) {
		violations = append(violations, "contra_firm must be a 4-digit participant number")
	}

	switch r.TransferType {
	case TransferFull, TransferPartial:
	default:
		violations = append(violations, fmt.Sprintf("transfer_type must be %q or %q", TransferFull, TransferPartial))
	}

	if len(r.Securities) == 0 {
		violations = append(violations, "at least one security is required")
	}
	for i, sec := range r.Securities {
		if sec.CUSIP == "" {
			violations = append(violations, fmt.Sprintf("securities[%d].cusip is required", i))
		}
		if len(sec.Symbol) > 10 {
			violations = append(violations, fmt.Sprintf("securities[%d].symbol must be at most 10 characters", i))
		}
		if len(sec.Description) > 50 {
			violations = append(violations, fmt.Sprintf("securities[%d].description must be at most 50 characters", i))
		}
		if sec.Quantity <= 0 {
			violations = append(violations, fmt.Sprintf("securities[%d].quantity must be positive", i))
		}
		switch sec.AssetType {
		case AssetEquity, AssetMutualFund, AssetBond, AssetOption, AssetCash:
		default:
			violations = append(violations, fmt.Sprintf("securities[%d].asset_type %q is not recognized", i, sec.AssetType))
		}
	}

	if r.Customer.FirstName == "" || len(r.Customer.FirstName) > 50 {
		violations = append(violations, "customer.first_name is required and must be at most 50 characters")
	}
	if r.Customer.LastName == "" || len(r.Customer.LastName) > 50 {
		violations = append(violations, "customer.last_name is required and must be at most 50 characters")
	}

	if len(violations) > 0 {
		return fmt.Errorf("invalid transfer request: %s", strings.Join(violations, "; "))
	}
	return nil
}

// Clone returns a deep copy of the record so stored payloads cannot be
// mutated through shared slices.
func (r *TransferRecord) Clone() TransferRecord {
	out := *r
	out.Securities = make([]Security, len(r.Securities))
	copy(out.Securities, r.Securities)
	if r.Customer.DateOfBirth != nil {
		dob := *r.Customer.DateOfBirth
		out.Customer.DateOfBirth = &dob
	}
	return out
}

func isFourDigits(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
