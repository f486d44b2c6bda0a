package main

import (
	"fmt"
	"os/user"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/orneryd/refstore/refname"
	"github.com/orneryd/refstore/refstore/reflog"
	"github.com/orneryd/refstore/refstore/txn"
)

func newUpdateRefCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update-ref <name> <new-oid>",
		Short: "create or update a reference to point at an object id",
		Args:  cobra.ExactArgs(2),
		RunE:  runUpdateRef,
	}
	cmd.Flags().String("old-oid", "", "require the reference to currently hold this object id")
	cmd.Flags().Bool("create-only", false, "fail if the reference already exists with a different value")
	cmd.Flags().Bool("deref", false, "follow a symbolic reference to its target before writing")
	cmd.Flags().String("message", "", "reflog message (default: create/update)")
	cmd.Flags().Bool("force-reflog", false, "create a reflog entry even if this reference wouldn't normally get one")
	cmd.Flags().String("committer-name", "", "committer name (default: current OS user)")
	cmd.Flags().String("committer-email", "", "committer email (default: <user>@localhost)")
	return cmd
}

func runUpdateRef(cmd *cobra.Command, args []string) error {
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
	newOID, err := parseOID(args[1], cfg.Store.HashWidth())
	if err != nil {
		return fmt.Errorf("new-oid: %w", err)
	}

	createOnly, _ := cmd.Flags().GetBool("create-only")
	deref, _ := cmd.Flags().GetBool("deref")
	message, _ := cmd.Flags().GetString("message")
	forceReflog, _ := cmd.Flags().GetBool("force-reflog")
	oldOIDStr, _ := cmd.Flags().GetString("old-oid")

	mode := txn.Only()
	if !createOnly {
		var previous *refname.Target
		if oldOIDStr != "" {
			oldOID, err := parseOID(oldOIDStr, cfg.Store.HashWidth())
			if err != nil {
				return fmt.Errorf("old-oid: %w", err)
			}
			t := refname.Peeled(oldOID)
			previous = &t
		}
		mode = txn.OrUpdate(previous)
	}

	store := txn.NewStore(cfg.Store.DataDir, cfg.Store.HashWidth(), reflog.Policy{
		Disabled:           cfg.Reflog.Disabled,
		AutoCreatePrefixes: cfg.Reflog.AutoCreatePrefixes,
	})

	transaction := store.Transaction([]txn.RefEdit{{
		Name: name,
		Change: txn.Change{Update: &txn.UpdateChange{
			New:  refname.Peeled(newOID),
			Mode: mode,
			Log:  txn.LogEdit{Mode: txn.RefLogAndReference, Message: message, ForceCreate: forceReflog},
		}},
		Deref: deref,
	}}, lockFailMode(cfg))

	txnID := uuid.New().String()
	logger.Info("updating reference", zapFields(name.String(), txnID)...)

	result, err := transaction.Commit(committerFromFlags(cmd))
	if err != nil {
		return err
	}
	for _, e := range result {
		fmt.Printf("%s %s\n", e.Name.String(), e.Change.Update.New.String())
	}
	return nil
}

func committerFromFlags(cmd *cobra.Command) txn.Signature {
	name, _ := cmd.Flags().GetString("committer-name")
	email, _ := cmd.Flags().GetString("committer-email")
	if name == "" {
		if u, err := user.Current(); err == nil {
			name = u.Username
		} else {
			name = "unknown"
		}
	}
	if email == "" {
		email = name + "@localhost"
	}
	return txn.Signature{Name: name, Email: email, Time: time.Now()}
}

