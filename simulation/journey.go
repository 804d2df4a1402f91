// Package simulation drives a sample product journey through the ledger.
package simulation

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/luca-patrignani/pharma-ledger/ledger"
)

// TamperedPrevHash is the bogus link carried by the injected block.
const TamperedPrevHash = "WhatAreTheOdds"

// Ledger is the part of a blockchain the simulation drives.
type Ledger interface {
	// Append records an event linked to the current tail.
	Append(data ledger.Payload) error
	// GetLatest returns the current tail.
	GetLatest() (ledger.Block, error)
	// ForceAppend pushes a block without linking it.
	ForceAppend(b ledger.Block)
}

// NewBatchID returns a fresh batch identifier.
func NewBatchID() string {
	return "Batch-" + uuid.New().String()[:8]
}

// Journey returns the events of one batch from the factory to the customer.
func Journey(batchID string) []ledger.SupplyEvent {
	return []ledger.SupplyEvent{
		{Event: "Manufactured", BatchID: batchID, Location: "Factory A", Destination: "Distributor 1"},
		{Event: "Quality Tested", BatchID: batchID, Location: "Testing Lab A", Destination: "Distributor 1"},
		{Event: "Shipped", BatchID: batchID, Location: "Factory A", Destination: "Distributor 1"},
		{Event: "Received", BatchID: batchID, Location: "Distributor 1", Destination: "Warehouse X"},
		{Event: "Shipped", BatchID: batchID, Location: "Warehouse X", Destination: "CVS Pharmacy"},
		{Event: "Received", BatchID: batchID, Location: "CVS Pharmacy", Destination: "CVS Pharmacy"},
		{Event: "Sold", BatchID: batchID, Location: "Pharmacy X", Destination: "End User"},
	}
}

// Run appends the whole journey of batchID to bc.
func Run(bc Ledger, batchID string) error {
	for _, event := range Journey(batchID) {
		if err := bc.Append(event.Payload()); err != nil {
			return fmt.Errorf("record %q: %w", event.Event, err)
		}
	}
	return nil
}

// Tamper injects a block that claims the next index but carries a wrong
// previous hash, and returns it.
func Tamper(bc Ledger, batchID string) (ledger.Block, error) {
	latest, err := bc.GetLatest()
	if err != nil {
		return ledger.Block{}, err
	}
	event := ledger.SupplyEvent{
		Event:       "Mugged after purchase",
		BatchID:     batchID,
		Location:    "Dark alleyway",
		Destination: "Albuquerque, New Mexico",
	}
	b, err := ledger.NewBlock(latest.Index()+1, time.Now().Unix(), event.Payload(), TamperedPrevHash)
	if err != nil {
		return ledger.Block{}, err
	}
	bc.ForceAppend(b)
	return b, nil
}
