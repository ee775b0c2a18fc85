package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clintonboys/lit/internal/config"
	"github.com/clintonboys/lit/internal/repo"
	"github.com/clintonboys/lit/internal/style"
)

var checkoutCmd = &cobra.Command{
	Use:   "checkout <ref>",
	Short: "Check out a branch or commit",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheckout,
}

func init() {
	rootCmd.AddCommand(checkoutCmd)
}

func runCheckout(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	_, root, err := config.FindAndLoad(cwd)
	if err != nil {
		return err
	}

	raw, err := repo.Status(root)
	if err != nil {
		return err
	}
	cs := classifyStatus(raw)
	if cs.hasChanges() {
		return fmt.Errorf("you have uncommitted changes (%d file(s))\nHint: commit them first with `lit commit -m \"message\"`, or see `lit status`", cs.totalChanges())
	}

	ref := args[0]
	if err := repo.Checkout(root, ref); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	head, err := repo.HeadCommit(root)
	if err != nil {
		return err
	}
	if head != nil {
		fmt.Fprintln(out, style.Success("Checked out: "+style.CommitHash(head.ShortHash)+" "+head.Message))
	} else {
		fmt.Fprintln(out, style.Success("Checked out: "+ref))
	}
	return nil
}
