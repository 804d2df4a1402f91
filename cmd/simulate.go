package main

import (
	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
	"github.com/spf13/cobra"

	"github.com/luca-patrignani/pharma-ledger/display"
	"github.com/luca-patrignani/pharma-ledger/export"
	"github.com/luca-patrignani/pharma-ledger/ledger"
	"github.com/luca-patrignani/pharma-ledger/simulation"
	"github.com/luca-patrignani/pharma-ledger/store"
)

func newSimulateCmd(a *app) *cobra.Command {
	var (
		batchID string
		persist bool
		tamper  bool
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Record a sample product journey, export it and run the tamper demo",
		Example: `  pharmaledger simulate
  pharmaledger simulate --batch "Batch 1" --persist`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if batchID == "" {
				batchID = a.cfg.Simulation.BatchID
			}
			if batchID == "" {
				batchID = simulation.NewBatchID()
			}
			return a.simulate(batchID, persist, tamper)
		},
	}
	cmd.Flags().StringVarP(&batchID, "batch", "b", "", "batch id of the simulated product (default: config or generated)")
	cmd.Flags().BoolVar(&persist, "persist", false, "save the recorded chain to the store")
	cmd.Flags().BoolVar(&tamper, "tamper", true, "inject a tampered block after export and validate")
	return cmd
}

func (a *app) simulate(batchID string, persist, tamper bool) error {
	title, err := pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("Pharma", pterm.FgLightBlue.ToStyle()),
		putils.LettersFromStringWithStyle("Ledger", pterm.FgDarkGray.ToStyle()),
	).Srender()
	if err != nil {
		a.logger.Warn(err.Error())
	}
	pterm.Print(title)

	var (
		bc    *ledger.Blockchain
		st    *store.Store
		first int // blocks before first are already stored and exported
	)
	if persist {
		// Record on top of the stored chain so the new blocks link to it.
		bc, st, err = a.openChain(true)
		if err != nil {
			return err
		}
		defer st.Close()
		if ok, idx, err := bc.Validate(); err != nil {
			return err
		} else if !ok {
			a.logger.Error("refusing to record on a tampered chain", "index", idx)
			pterm.Println(display.Verdict(ok, idx))
			return errInvalidChain
		}
		if first, err = st.Len(); err != nil {
			return err
		}
	} else {
		bc, err = ledger.NewBlockchain()
		if err != nil {
			return err
		}
	}

	spinner, _ := pterm.DefaultSpinner.Start("Recording the journey of " + batchID + " ...")
	if err := simulation.Run(bc, batchID); err != nil {
		spinner.Fail()
		a.logger.Error("failed to record journey", "batch_id", batchID, "error", err)
		return err
	}
	spinner.Success()
	recorded := bc.Blocks()[first:]

	// The store is written before the CSV so a conflict leaves both untouched.
	if persist {
		if err := st.SaveBlocks(recorded); err != nil {
			a.logger.Error("failed to persist chain", "path", a.cfg.Ledger.StorePath, "error", err)
			return err
		}
		pterm.Success.Printfln("Saved %d blocks to %s", len(recorded), a.cfg.Ledger.StorePath)
	}

	if err := export.WriteCSV(a.cfg.Ledger.CSVPath, recorded); err != nil {
		a.logger.Error("failed to export ledger", "path", a.cfg.Ledger.CSVPath, "error", err)
		return err
	}
	pterm.Success.Printfln("Exported %d blocks to %s", len(recorded), a.cfg.Ledger.CSVPath)

	display.Print(bc.Blocks())

	if !tamper {
		ok, idx, err := bc.Validate()
		if err != nil {
			return err
		}
		pterm.Println(display.Verdict(ok, idx))
		return nil
	}

	// The injected block is neither exported nor persisted.
	injected, err := simulation.Tamper(bc, batchID)
	if err != nil {
		return err
	}
	a.logger.Info("injected tampered block", "index", injected.Index(), "prev_hash", injected.PrevHash())

	ok, idx, err := bc.Validate()
	if err != nil {
		return err
	}
	if !ok {
		a.logger.Warn("tampering detected", "index", idx)
	}
	pterm.Println(display.Verdict(ok, idx))
	return nil
}
