package main

import (
	"fmt"
	"time"

	"dompet/internal/core"
	"dompet/internal/services"
	"dompet/internal/storage"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func inviteCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invite",
		Short: "Issue, redeem and purge group invites",
	}
	cmd.PersistentFlags().String("origin", "http://localhost:8081", "public origin used in invite links")
	cmd.PersistentFlags().Duration("ttl", 7*24*time.Hour, "how long a new invite stays valid")
	_ = v.BindPFlag("origin", cmd.PersistentFlags().Lookup("origin"))
	_ = v.BindPFlag("invite_ttl", cmd.PersistentFlags().Lookup("ttl"))

	create := &cobra.Command{
		Use:   "create",
		Short: "Issue an invite as a group admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			groupID, _ := cmd.Flags().GetString("group")
			by, _ := cmd.Flags().GetString("by")
			role, _ := cmd.Flags().GetString("role")

			return withInvites(v, func(invites *services.InviteService) error {
				issued, err := invites.Create(cmd.Context(), groupID, core.Role(role), by)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "token:   %s\nlink:    %s\nexpires: %s\n",
					issued.Token, issued.Link, issued.ExpiresAt.Format(time.RFC3339))
				return nil
			})
		},
	}
	create.Flags().String("group", "", "group id")
	create.Flags().String("by", "", "id of the admin issuing the invite")
	create.Flags().String("role", "member", "role granted on acceptance (admin, member)")
	_ = create.MarkFlagRequired("group")
	_ = create.MarkFlagRequired("by")

	accept := &cobra.Command{
		Use:   "accept",
		Short: "Redeem an invite for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, _ := cmd.Flags().GetString("token")
			userID, _ := cmd.Flags().GetString("user")

			return withInvites(v, func(invites *services.InviteService) error {
				res, err := invites.Accept(cmd.Context(), token, userID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (group %s, role %s)\n", res.Message(), res.GroupID, res.Role)
				return nil
			})
		},
	}
	accept.Flags().String("token", "", "invite token")
	accept.Flags().String("user", "", "id of the accepting user")
	_ = accept.MarkFlagRequired("token")
	_ = accept.MarkFlagRequired("user")

	purge := &cobra.Command{
		Use:   "purge",
		Short: "Delete invites that expired more than --grace ago",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			grace, _ := cmd.Flags().GetDuration("grace")
			return withInvites(v, func(invites *services.InviteService) error {
				n, err := invites.PurgeExpired(cmd.Context(), grace)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "purged %d invites\n", n)
				return nil
			})
		},
	}
	purge.Flags().Duration("grace", 24*time.Hour, "keep expired invites this long")

	cmd.AddCommand(create, accept, purge)
	return cmd
}

func withInvites(v *viper.Viper, fn func(*services.InviteService) error) error {
	repo, err := storage.NewSQLiteRepository(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer repo.Close()

	groups := services.NewGroupService(repo)
	return fn(services.NewInviteService(repo, groups, v.GetDuration("invite_ttl"), v.GetString("origin")))
}
