package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"notable/notable/sources/models"
	"notable/notable/types"
	"notable/notable/utils/color"
	"notable/notable/utils/jsonutils"
	"notable/notable/views"

	"github.com/spf13/cobra"
)

func (c *cli) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store a session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return err
				}
				password = strings.TrimSpace(line)
			}
			api, err := c.client()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()
			res, err := api.Login(ctx, email, password)
			if err != nil {
				return err
			}
			server := c.server
			if server == "" {
				server = defaultServer
			}
			if err := c.saveCreds(&credentials{Server: server, Token: res.Token, Email: res.User.Email, ExpiresAt: res.ExpiresAt}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", color.ColorInfo(res.User.Email))
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", envOr("NOTABLE_PASSWORD", ""), "account password (prompted when empty)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := c.loadCreds()
			if err != nil {
				return err
			}
			creds.Token = ""
			creds.ExpiresAt = time.Time{}
			if err := c.saveCreds(creds); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := c.client()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()
			u, err := api.Me(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", u.Email, color.ColorMuted(u.ID))
			return nil
		},
	}
}

func printNote(w io.Writer, n models.Note, full bool) {
	fmt.Fprintf(w, "%s  %s\n", color.ColorTitle(n.Title), color.ColorMuted(n.ID))
	content := n.Content
	if !full {
		content = views.Truncate(content, 120)
	}
	fmt.Fprintln(w, content)
	if n.HasSummary() {
		fmt.Fprintln(w, color.ColorSummary("Summary: "+n.SummaryText()))
	}
	fmt.Fprintln(w, color.ColorMuted("Updated "+views.TimeAgo(n.UpdatedAt, time.Now())))
}

func (c *cli) listCmd() *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls", "search"},
		Short:   "List notes, most recently updated first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if query == "" && len(args) > 0 {
				query = strings.Join(args, " ")
			}
			api, err := c.client()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()
			list, err := api.ListNotes(ctx, query)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, color.ColorWarning("No notes found."))
				return nil
			}
			for i, n := range list {
				if i > 0 {
					fmt.Fprintln(out)
				}
				printNote(out, n, false)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "only notes whose title, content or summary contains this")
	return cmd
}

func (c *cli) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := c.client()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()
			n, err := api.GetNote(ctx, args[0])
			if err != nil {
				return err
			}
			printNote(cmd.OutOrStdout(), *n, true)
			return nil
		},
	}
}

func (c *cli) newCmd() *cobra.Command {
	var title, content string
	var summarize bool
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a note",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := c.client()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()
			req := types.CreateNoteRequest{Title: title, Content: content}
			if summarize {
				if req.Summary, err = api.Summarize(ctx, content); err != nil {
					return err
				}
			}
			res, err := api.CreateNote(ctx, req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created %s\n", color.ColorMuted(res.ID))
			if res.SummaryError != "" {
				fmt.Fprintln(out, color.ColorWarning("Summary not saved: "+res.SummaryError))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "note title")
	cmd.Flags().StringVarP(&content, "content", "c", "", "note content")
	cmd.Flags().BoolVarP(&summarize, "summarize", "s", false, "generate and attach a summary")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("content")
	return cmd
}

func (c *cli) editCmd() *cobra.Command {
	var title, content, summary string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a note's title, content or summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req types.UpdateNoteRequest
			if cmd.Flags().Changed("title") {
				req.Title = &title
			}
			if cmd.Flags().Changed("content") {
				req.Content = &content
			}
			if cmd.Flags().Changed("summary") {
				req.Summary = &summary
			}
			api, err := c.client()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()
			n, err := api.UpdateNote(ctx, args[0], req)
			if err != nil {
				return err
			}
			printNote(cmd.OutOrStdout(), *n, true)
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&content, "content", "c", "", "new content")
	cmd.Flags().StringVar(&summary, "summary", "", "new summary")
	return cmd
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a note",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := c.client()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()
			if err := api.DeleteNote(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func (c *cli) summarizeCmd() *cobra.Command {
	var text string
	cmd := &cobra.Command{
		Use:   "summarize [id]",
		Short: "Summarize a note and save the summary, or summarize --text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := c.client()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				summary, err := api.Summarize(ctx, text)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, color.ColorSummary(summary))
				return nil
			}
			n, err := api.SummarizeNote(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(out, color.ColorSummary(n.SummaryText()))
			return nil
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "text to summarize without saving")
	return cmd
}

func (c *cli) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write all notes as JSON to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := c.client()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()
			snap, err := api.Export(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), jsonutils.ToJSON(snap))
			return nil
		},
	}
}

func (c *cli) archiveCmd() *cobra.Command {
	var list bool
	var show string
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Store a snapshot of all notes in the server's object storage",
		Long:  "Store a snapshot of all notes in the server's object storage.\nWith --list, print the stored snapshots; with --show, print one of them.",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := c.client()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()
			out := cmd.OutOrStdout()
			switch {
			case list:
				names, err := api.ListArchives(ctx)
				if err != nil {
					return err
				}
				if len(names) == 0 {
					fmt.Fprintln(out, color.ColorMuted("No archives yet."))
				}
				for _, name := range names {
					fmt.Fprintln(out, name)
				}
			case show != "":
				snap, err := api.GetArchive(ctx, show)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, jsonutils.ToJSON(snap))
			default:
				res, err := api.Archive(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Archived %d notes to %s\n", res.Count, color.ColorInfo(res.Key))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&list, "list", "l", false, "list stored snapshots")
	cmd.Flags().StringVar(&show, "show", "", "print the snapshot with this name")
	cmd.MarkFlagsMutuallyExclusive("list", "show")
	return cmd
}
