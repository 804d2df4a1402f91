// Package display renders the ledger on the console with pterm.
package display

import (
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"github.com/luca-patrignani/pharma-ledger/export"
	"github.com/luca-patrignani/pharma-ledger/ledger"
)

// Render returns one box per block with its index, timestamp, event, batch,
// location, destination, hash and previous hash, in that order. Missing
// payload fields are shown as N/A.
func Render(blocks []ledger.Block) string {
	var sb strings.Builder
	for _, b := range blocks {
		sb.WriteString(blockInfo(b))
		sb.WriteString("\n")
	}
	return sb.String()
}

// Print writes Render(blocks) to the terminal.
func Print(blocks []ledger.Block) {
	pterm.Print(Render(blocks))
}

func blockInfo(b ledger.Block) string {
	pbox := pterm.DefaultBox.WithHorizontalPadding(4).WithTopPadding(1).WithBottomPadding(1)
	data := b.Data()
	info := pterm.Sprintf(
		"Timestamp: %s\nEvent: %s\nBatch ID: %s\nLocation: %s\nDestination: %s\nHash: %s\nPrevious Hash: %s",
		b.Time().Format(export.TimeLayout),
		data.Event(),
		data.BatchID(),
		data.Location(),
		data.Destination(),
		b.Hash(),
		b.PrevHash(),
	)
	title := pterm.LightCyan("Block #" + strconv.Itoa(b.Index()))
	return pbox.WithTitle(title).WithTitleTopLeft().Sprint(info)
}

// Table renders a compact one-line-per-block summary.
func Table(blocks []ledger.Block) (string, error) {
	data := pterm.TableData{{"#", "Event", "Batch ID", "Location", "Destination", "Hash"}}
	for _, b := range blocks {
		p := b.Data()
		data = append(data, []string{
			strconv.Itoa(b.Index()),
			p.Event(),
			p.BatchID(),
			p.Location(),
			p.Destination(),
			shortHash(b.Hash()),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Srender()
}

// Verdict renders the outcome of a validation run.
func Verdict(ok bool, offending int) string {
	pbox := pterm.DefaultBox.WithHorizontalPadding(4)
	if ok {
		return pbox.WithTitle(pterm.LightGreen("|VALIDITY|")).WithTitleTopCenter().
			Sprint("Blockchain Validity: true")
	}
	msg := pterm.Sprintf("Blockchain Validity: false\nBlock %d has been tampered with", offending)
	return pbox.WithTitle(pterm.LightRed("|VALIDITY|")).WithTitleTopCenter().Sprint(msg)
}

func shortHash(h string) string {
	if len(h) <= 12 {
		return h
	}
	return h[:12] + "…"
}
