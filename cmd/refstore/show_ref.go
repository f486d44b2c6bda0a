package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orneryd/refstore/refname"
	"github.com/orneryd/refstore/refstore/loose"
)

func newShowRefCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show-ref <name>",
		Short: "print a reference's current target",
		Args:  cobra.ExactArgs(1),
		RunE:  runShowRef,
	}
}

func runShowRef(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	name, err := refname.NewFull(args[0])
	if err != nil {
		return err
	}

	store := loose.New(cfg.Store.DataDir, cfg.Store.HashWidth())
	target, ok, err := store.Read(name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: no such reference", name.String())
	}
	fmt.Printf("%s %s\n", name.String(), target.String())
	return nil
}
