package main

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/luca-patrignani/pharma-ledger/display"
	"github.com/luca-patrignani/pharma-ledger/export"
	"github.com/luca-patrignani/pharma-ledger/ledger"
	"github.com/luca-patrignani/pharma-ledger/validation"
)

func newAppendCmd(a *app) *cobra.Command {
	var data string
	cmd := &cobra.Command{
		Use:     "append",
		Short:   "Append an event to the stored chain",
		Example: `  pharmaledger append --data '{"event":"Shipped","batch_id":"Batch 1","location":"Factory A","destination":"Distributor 1"}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := validation.ParsePayload([]byte(data))
			if err != nil {
				a.logger.Error("rejected payload", "error", err)
				return err
			}
			bc, s, err := a.openChain(true)
			if err != nil {
				return err
			}
			defer s.Close()

			if ok, idx, err := bc.Validate(); err != nil || !ok {
				a.logger.Error("refusing to append to a broken chain", "index", idx, "error", err)
				return errInvalidChain
			}
			if err := bc.Append(payload); err != nil {
				a.logger.Error("failed to append block", "error", err)
				return err
			}
			if err := s.SaveBlocks(bc.Blocks()); err != nil {
				a.logger.Error("failed to persist block", "error", err)
				return err
			}
			latest, err := bc.GetLatest()
			if err != nil {
				return err
			}
			a.logger.Info("block appended", "index", latest.Index(), "hash", latest.Hash())
			display.Print([]ledger.Block{latest})
			return nil
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "", "event payload as a JSON object")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	var compact bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display the stored chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			bc, s, err := a.openChain(false)
			if err != nil {
				return err
			}
			defer s.Close()

			if !compact {
				display.Print(bc.Blocks())
				return nil
			}
			table, err := display.Table(bc.Blocks())
			if err != nil {
				return err
			}
			pterm.Print(table)
			return nil
		},
	}
	cmd.Flags().BoolVar(&compact, "compact", false, "one line per block")
	return cmd
}

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check every link and digest of the stored chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			bc, s, err := a.openChain(false)
			if err != nil {
				return err
			}
			defer s.Close()

			ok, idx, err := bc.Validate()
			if err != nil {
				a.logger.Error("validation failed", "error", err)
				return err
			}
			pterm.Println(display.Verdict(ok, idx))
			if !ok {
				a.logger.Warn("tampering detected", "index", idx, "blocks", bc.Len())
				return errInvalidChain
			}
			a.logger.Info("chain is intact", "blocks", bc.Len())
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Append the stored chain to the CSV ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = a.cfg.Ledger.CSVPath
			}
			bc, s, err := a.openChain(false)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := export.WriteCSV(path, bc.Blocks()); err != nil {
				a.logger.Error("failed to export ledger", "path", path, "error", err)
				return err
			}
			pterm.Success.Printfln("Exported %d blocks to %s", bc.Len(), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "output", "o", "", "CSV file to append to (default: config)")
	return cmd
}
