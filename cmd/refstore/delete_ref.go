package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/orneryd/refstore/refname"
	"github.com/orneryd/refstore/refstore/reflog"
	"github.com/orneryd/refstore/refstore/txn"
)

func newDeleteRefCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete-ref <name>",
		Short: "delete a reference",
		Args:  cobra.ExactArgs(1),
		RunE:  runDeleteRef,
	}
	cmd.Flags().String("old-oid", "", "require the reference to currently hold this object id")
	cmd.Flags().Bool("must-exist", false, "fail if the reference is already absent")
	cmd.Flags().Bool("deref", false, "follow a symbolic reference to its target before deleting")
	cmd.Flags().String("message", "", "reflog message (unused: a deletion removes the reflog instead of appending to it)")
	cmd.Flags().Bool("force-reflog", false, "no effect: a deletion always removes the reflog, whatever the reflog policy")
	cmd.Flags().String("committer-name", "", "committer name (default: current OS user)")
	cmd.Flags().String("committer-email", "", "committer email (default: <user>@localhost)")
	return cmd
}

func runDeleteRef(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	name, err := refname.NewFull(args[0])
	if err != nil {
		return err
	}

	mustExist, _ := cmd.Flags().GetBool("must-exist")
	deref, _ := cmd.Flags().GetBool("deref")
	message, _ := cmd.Flags().GetString("message")
	forceReflog, _ := cmd.Flags().GetBool("force-reflog")
	oldOIDStr, _ := cmd.Flags().GetString("old-oid")

	var previous *refname.Target
	switch {
	case oldOIDStr != "":
		oldOID, err := parseOID(oldOIDStr, cfg.Store.HashWidth())
		if err != nil {
			return fmt.Errorf("old-oid: %w", err)
		}
		t := refname.Peeled(oldOID)
		previous = &t
	case mustExist:
		t := refname.MustExist(cfg.Store.HashWidth())
		previous = &t
	}

	store := txn.NewStore(cfg.Store.DataDir, cfg.Store.HashWidth(), reflog.Policy{
		Disabled:           cfg.Reflog.Disabled,
		AutoCreatePrefixes: cfg.Reflog.AutoCreatePrefixes,
	})

	transaction := store.Transaction([]txn.RefEdit{{
		Name: name,
		Change: txn.Change{Delete: &txn.DeleteChange{
			Previous: previous,
			Log:      txn.LogEdit{Mode: txn.RefLogAndReference, Message: message, ForceCreate: forceReflog},
		}},
		Deref: deref,
	}}, lockFailMode(cfg))

	txnID := uuid.New().String()
	logger.Info("deleting reference", zapFields(name.String(), txnID)...)

	result, err := transaction.Commit(committerFromFlags(cmd))
	if err != nil {
		return err
	}
	for _, e := range result {
		if e.Change.Delete.Log.Mode == txn.RefLogOnly {
			fmt.Printf("%s reflog deleted\n", e.Name.String())
			continue
		}
		fmt.Printf("%s deleted\n", e.Name.String())
	}
	return nil
}
