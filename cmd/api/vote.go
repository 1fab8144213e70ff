package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emilythestrangee/qa-forum/backend/internal/client"
	"github.com/emilythestrangee/qa-forum/backend/internal/models"
)

var voteFlags struct {
	url      string
	email    string
	password string
	kind     string
}

var voteCmd = &cobra.Command{
	Use:   "vote <typeId> <upvoted|downvoted>",
	Short: "Cast a vote against a running server",
	Args:  cobra.ExactArgs(2),
	RunE:  runVote,
}

func init() {
	voteCmd.Flags().StringVar(&voteFlags.url, "url", "http://localhost:8080", "base URL of the API")
	voteCmd.Flags().StringVar(&voteFlags.email, "email", "", "account email")
	voteCmd.Flags().StringVar(&voteFlags.password, "password", "", "account password")
	voteCmd.Flags().StringVar(&voteFlags.kind, "type", string(models.KindQuestion), "target type: question or answer")
	_ = voteCmd.MarkFlagRequired("email")
	_ = voteCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(voteCmd)
}

func runVote(cmd *cobra.Command, args []string) error {
	kind := models.TargetKind(voteFlags.kind)
	dir := models.Direction(args[1])
	if !kind.Valid() || !dir.Valid() {
		return fmt.Errorf("invalid vote %s on %s", dir, kind)
	}

	ctx := cmd.Context()
	c := client.New(voteFlags.url, "")
	if _, err := c.Login(ctx, voteFlags.email, voteFlags.password); err != nil {
		return err
	}
	me, err := c.Me(ctx)
	if err != nil {
		return err
	}

	out, err := c.CastVote(ctx, me.ID, kind, args[0], dir)
	if err != nil && !out.Reverted {
		return err
	}
	cmd.Printf("pending: %+d (%d up, %d down)\n", out.Speculative.Score(), out.Speculative.Upvotes, out.Speculative.Downvotes)
	if err != nil {
		cmd.Printf("reverted: %+d\n", out.Final.Score())
		return err
	}

	status := "removed"
	if out.Direction != nil {
		status = string(*out.Direction)
	}
	cmd.Printf("confirmed: %s, score %+d (%d up, %d down)\n", status, out.Final.Score(), out.Final.Upvotes, out.Final.Downvotes)
	return nil
}
