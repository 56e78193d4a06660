package chainpay

import (
	"encoding/hex"
	"math/big"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/liberland/chainpay/schema"
	"github.com/shopspring/decimal"
)

// CongressAddress is the treasury account whose outgoing transfers make
// up the public spendings report.
const CongressAddress = "5EYCAe5g8CDuMsTief7QBxfvzDFEfws6ueXTUhsbx5V81nGH"

// LLD and LLM both use 12 decimal places on chain.
const nativeDecimals = 12

var spendingsHeader = []string{
	"Timestamp",
	"Recipient",
	"Asset",
	"Value",
	"Category",
	"Project",
	"Supplier",
	"Description",
	"Final Destination",
	"Amount In USD At Date Of Payment",
	"Date",
	"Currency",
	"Text Remark",
	"Raw Remark",
	"Block Number",
}

// FormatSpendings renders spendings as csv-shaped rows, header first.
// A remark that decodes as a government disbursement fills the remark
// columns; anything else falls back to a plain-text reading of the
// remark bytes, with "-" for every absent cell.
func FormatSpendings(spendings []schema.Spending) [][]string {
	rows := make([][]string, 0, len(spendings)+1)
	rows = append(rows, spendingsHeader)
	for _, sp := range spendings {
		var gov *schema.RemarkInfo
		textRemark := "-"
		if len(sp.Remark) != 0 {
			dec := DecodeRemark(sp.Remark)
			if dec.Variant == schema.VariantGov {
				gov = dec.Gov
			} else {
				textRemark = remarkAsText(sp.Remark)
			}
		}
		row := []string{
			sp.Timestamp,
			sp.ToId,
			sp.Asset,
			formatAmount(sp.Value, sp.Asset),
		}
		if gov != nil {
			row = append(row,
				gov.Category,
				gov.Project,
				gov.Supplier,
				gov.Description,
				gov.FinalDestination,
				decimal.NewFromInt(int64(gov.AmountInUSDAtDateOfPayment)).String(),
				time.UnixMilli(int64(gov.Date)).UTC().Format(time.RFC3339),
				gov.Currency,
			)
		} else {
			row = append(row, "-", "-", "-", "-", "-", "-", "-", "-")
		}
		row = append(row,
			textRemark,
			sp.Remark,
			decimal.NewFromInt(sp.BlockNumber).String(),
		)
		rows = append(rows, row)
	}
	return rows
}

// formatAmount converts an on-chain integer amount to its decimal token
// value. Non-native assets keep the raw value since their decimals are
// not known here.
func formatAmount(value string, asset string) string {
	if asset != "LLD" && asset != "LLM" {
		return value
	}
	n, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return value
	}
	return decimal.NewFromBigInt(n, -nativeDecimals).String()
}

// remarkAsText is the fallback reading of an undecodable remark: plain
// utf8 text carried directly in the hex field.
func remarkAsText(rawHex string) string {
	raw, err := hex.DecodeString(strings.TrimPrefix(rawHex, "0x"))
	if err != nil || !utf8.Valid(raw) {
		return "-"
	}
	return string(raw)
}
