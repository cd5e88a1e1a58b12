package papertrade

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// EncodeLedger writes l as a single indented JSON document.
func EncodeLedger(w io.Writer, l Ledger) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(l)
}

// DecodeLedger reads a ledger written by EncodeLedger and checks its
// invariants.
func DecodeLedger(r io.Reader) (Ledger, error) {
	var l Ledger
	if err := json.NewDecoder(r).Decode(&l); err != nil {
		return Ledger{}, err
	}
	return l, nil
}

// EncodeTrade appends t to w as one line of JSON.
func EncodeTrade(w io.Writer, t Trade) error {
	b, err := json.Marshal(t)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

// DecodeTrades reads a stream of JSONL trades. Empty lines are skipped.
func DecodeTrades(r io.Reader) ([]Trade, error) {
	var trades []Trade
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		lineBytes := scanner.Bytes()
		if len(lineBytes) == 0 {
			continue
		}
		var t Trade
		if err := json.Unmarshal(lineBytes, &t); err != nil {
			return nil, fmt.Errorf("line %d: cannot decode trade: %w", line, err)
		}
		trades = append(trades, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return trades, nil
}
