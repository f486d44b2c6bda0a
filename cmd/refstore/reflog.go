package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orneryd/refstore/refname"
	"github.com/orneryd/refstore/refstore/reflog"
)

func newReflogCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "reflog",
		Short: "inspect a reference's reflog",
	}
	root.AddCommand(newReflogShowCmd())
	return root
}

func newReflogShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "print a reference's reflog entries, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE:  runReflogShow,
	}
}

func runReflogShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	name, err := refname.NewFull(args[0])
	if err != nil {
		return err
	}

	writer := reflog.New(cfg.Store.DataDir, reflog.Policy{
		Disabled:           cfg.Reflog.Disabled,
		AutoCreatePrefixes: cfg.Reflog.AutoCreatePrefixes,
	})

	entries, ok, err := writer.Read(name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: no reflog", name.String())
	}
	for i, e := range entries {
		fmt.Printf("%s@{%d}: %s -> %s %s: %s\n", name.String(), i, e.Previous.String(), e.New.String(), e.Committer, e.Message)
	}
	return nil
}
