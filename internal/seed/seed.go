// Package seed generates synthetic transfer records for demos and local
// development. Output is deterministic for a given seed value.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/quillon/acatflow/internal/model"
	"github.com/quillon/acatflow/internal/validation"
)

var firstNames = []string{"James", "Maria", "Wei", "Aisha", "Carlos", "Emma", "Raj", "Sofia", "Liam", "Yuki"}

var lastNames = []string{"Smith", "Garcia", "Chen", "Okafor", "Martinez", "Johnson", "Patel", "Rossi", "Brown", "Tanaka"}

// securityCatalog mixes well-formed and deliberately sloppy line items.
var securityCatalog = []model.Security{
	{CUSIP: "037833100", Symbol: "AAPL", Description: "Apple Inc.", AssetType: model.AssetEquity},
	{CUSIP: "594918104", Symbol: "MSFT", Description: "Microsoft Corp.", AssetType: model.AssetEquity},
	{CUSIP: "922908769", Symbol: "VTSAX", Description: "Vanguard Total Stock Market", AssetType: model.AssetMutualFund},
	{CUSIP: "912828ZT0", Symbol: "", Description: "US Treasury Note 2031", AssetType: model.AssetBond},
	{CUSIP: "68389X105", Symbol: "ORCL", Description: "Oracle Corp.", AssetType: model.AssetEquity},
}

// sloppySecurities carry CUSIPs the rule engine will want to reformat.
var sloppySecurities = []model.Security{
	{CUSIP: "03783 3100", Symbol: "AAPL", Description: "Apple Inc.", AssetType: model.AssetEquity},
	{CUSIP: "5949181", Symbol: "MSFT", Description: "Microsoft Corp.", AssetType: model.AssetEquity},
	{CUSIP: "68389x105extra", Symbol: "ORCL", Description: "Oracle Corp.", AssetType: model.AssetEquity},
}

// Generator produces synthetic transfer records.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator with a fixed seed so repeated runs
// produce the same demo data.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Transfer produces a record that passes every rule check.
func (g *Generator) Transfer() model.TransferRecord {
	codes := validation.ContraFirmCodes()
	rec := g.base()
	rec.ContraFirm = codes[g.rng.Intn(len(codes))]
	rec.Securities = []model.Security{g.security(securityCatalog)}
	rec.Customer.SSN = fmt.Sprintf("%03d-%02d-%04d", g.rng.Intn(899)+100, g.rng.Intn(99)+1, g.rng.Intn(9999)+1)
	return rec
}

// FlawedTransfer produces a record with at least one defect the rule engine
// will flag: an unknown contra firm, a sloppy CUSIP, an account with an
// illegal character, or an unformatted SSN.
func (g *Generator) FlawedTransfer() model.TransferRecord {
	rec := g.Transfer()

	switch g.rng.Intn(4) {
	case 0:
		// Generated codes start with 1-9; the reference table only has
		// codes below 0011, so these never collide.
		rec.ContraFirm = fmt.Sprintf("%04d", g.rng.Intn(8999)+1000)
	case 1:
		rec.Securities = []model.Security{g.security(sloppySecurities)}
	case 2:
		rec.DeliveringAccount = "ACC#" + rec.DeliveringAccount
	case 3:
		rec.Customer.SSN = fmt.Sprintf("%09d", g.rng.Intn(899999999)+100000000)
	}
	return rec
}

// Batch produces n records with roughly flawRatio of them defective.
func (g *Generator) Batch(n int, flawRatio float64) []model.TransferRecord {
	out := make([]model.TransferRecord, 0, n)
	for i := 0; i < n; i++ {
		if g.rng.Float64() < flawRatio {
			out = append(out, g.FlawedTransfer())
		} else {
			out = append(out, g.Transfer())
		}
	}
	return out
}

func (g *Generator) base() model.TransferRecord {
	transferType := model.TransferFull
	if g.rng.Intn(3) == 0 {
		transferType = model.TransferPartial
	}

	return model.TransferRecord{
		DeliveringAccount: fmt.Sprintf("%08d", g.rng.Intn(89999999)+10000000),
		ReceivingAccount:  fmt.Sprintf("%08d", g.rng.Intn(89999999)+10000000),
		TransferType:      transferType,
		TransferDate:      time.Now().UTC().AddDate(0, 0, g.rng.Intn(10)+1),
		Customer: model.CustomerInfo{
			FirstName: firstNames[g.rng.Intn(len(firstNames))],
			LastName:  lastNames[g.rng.Intn(len(lastNames))],
		},
	}
}

func (g *Generator) security(catalog []model.Security) model.Security {
	sec := catalog[g.rng.Intn(len(catalog))]
	sec.Quantity = (g.rng.Intn(50) + 1) * 10
	return sec
}
