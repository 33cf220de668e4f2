package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"portfolio-backend/internal/dashboard"
	"portfolio-backend/internal/submissions"

	"github.com/spf13/cobra"
)

const loginHint = `session expired or missing: run "portfolio-admin login" and pass --token`

func newClient() *dashboard.Client {
	opts := []dashboard.ClientOption{}
	if token != "" {
		opts = append(opts, dashboard.WithToken(token))
	}
	if adminKey != "" {
		opts = append(opts, dashboard.WithAdminKey(adminKey))
	}
	return dashboard.NewClient(apiURL, opts...)
}

func NewLoginCommand() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and print an access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			client := dashboard.NewClient(apiURL)
			if err := client.Login(ctx, username, password); err != nil {
				if errors.Is(err, dashboard.ErrUnauthorized) {
					return errors.New("invalid username or password")
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), client.Token())
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "user", "u", "", "operator username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "operator password")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func NewListCommand() *cobra.Command {
	var kind, read, status string
	var limit, offset int64
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List submissions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := dashboard.Query{Status: submissions.Status(status), Limit: limit, Offset: offset}
			if kind != "" {
				t, ok := submissions.ParseType(kind)
				if !ok {
					return fmt.Errorf("unknown type %q", kind)
				}
				q.Type = t
			}
			switch strings.ToLower(read) {
			case "":
			case "true", "yes":
				v := true
				q.Read = &v
			case "false", "no":
				v := false
				q.Read = &v
			default:
				return fmt.Errorf("--read must be true or false")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()
			items, total, err := newClient().List(ctx, q)
			if err != nil {
				return explain(err)
			}
			printTable(cmd.OutOrStdout(), items)
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d of %d\n", len(items), total)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "type", "", "message or booking")
	cmd.Flags().StringVar(&read, "read", "", "filter messages by read flag")
	cmd.Flags().StringVar(&status, "status", "", "filter bookings by status")
	cmd.Flags().Int64Var(&limit, "limit", 50, "page size")
	cmd.Flags().Int64Var(&offset, "offset", 0, "page offset")
	return cmd
}

func NewReadCommand() *cobra.Command {
	var unread bool
	cmd := &cobra.Command{
		Use:   "read <id>",
		Short: "Mark a message read (or unread with --unread)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBoard(cmd, args[0], func(ctx context.Context, b *dashboard.Board) error {
				return b.MarkRead(ctx, args[0], !unread)
			})
		},
	}
	cmd.Flags().BoolVar(&unread, "unread", false, "mark as unread")
	return cmd
}

func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <pending|confirmed|cancelled|completed>",
		Short: "Move a booking through its lifecycle",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			next := submissions.Status(strings.ToLower(args[1]))
			if !submissions.IsValidStatus(next) {
				return fmt.Errorf("unknown status %q", args[1])
			}
			return withBoard(cmd, args[0], func(ctx context.Context, b *dashboard.Board) error {
				return b.SetStatus(ctx, args[0], next)
			})
		},
	}
}

func NewRescheduleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reschedule <id> <YYYY-MM-DD> <HH:MM>",
		Short: "Move a booking to another date and slot",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBoard(cmd, args[0], func(ctx context.Context, b *dashboard.Board) error {
				return b.Reschedule(ctx, args[0], args[1], args[2])
			})
		},
	}
}

// withBoard loads the board, runs one mutation and prints the record as it
// stands afterwards.
func withBoard(cmd *cobra.Command, id string, action func(context.Context, *dashboard.Board) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()

	board := dashboard.NewBoard(newClient(), loginHint)
	if err := board.Refresh(ctx); err != nil {
		return explain(err)
	}
	err := action(ctx, board)
	if redirect := board.Redirect(); redirect != "" {
		return errors.New(redirect)
	}
	for _, s := range board.Items(dashboard.Filter{}) {
		if s.ID == id {
			printTable(cmd.OutOrStdout(), []submissions.Submission{s})
		}
	}
	if err != nil {
		if msg := board.InlineError(id); msg != "" {
			return errors.New(msg)
		}
		return err
	}
	return nil
}

func explain(err error) error {
	if errors.Is(err, dashboard.ErrUnauthorized) {
		return errors.New(loginHint)
	}
	return err
}

func printTable(w io.Writer, items []submissions.Submission) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tFROM\tWHEN\tSTATE\tDETAIL")
	for _, s := range items {
		state, detail := "", ""
		switch s.Type {
		case submissions.TypeMessage:
			state = "unread"
			if s.IsRead() {
				state = "read"
			}
			detail = s.Subject
		case submissions.TypeBooking:
			state = string(s.Status)
			detail = s.Date + " " + s.Time
		}
		fmt.Fprintf(tw, "%s\t%s\t%s <%s>\t%s\t%s\t%s\n",
			s.ID, s.Type, s.FullName, s.Email, s.Timestamp.Local().Format("2006-01-02 15:04"), state, detail)
	}
	_ = tw.Flush()
}
