package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tgienger/taskdeck/internal/models"
	"github.com/tgienger/taskdeck/internal/session"
	"github.com/tgienger/taskdeck/internal/store"
)

func newCommentsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comments",
		Short: "Comment commands",
	}
	cmd.AddCommand(newCommentsListCmd(app))
	cmd.AddCommand(newCommentsShowCmd(app))
	cmd.AddCommand(newCommentsAddCmd(app))
	cmd.AddCommand(newCommentsUpdateCmd(app))
	cmd.AddCommand(newCommentsRmCmd(app))
	return cmd
}

func newCommentsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list <task-id>",
		Short: "List the comments of a task, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID("task", args[0])
			if err != nil {
				return err
			}
			st := store.NewCommentStore(app.client(cmd), taskID, app.logger(cmd))
			if out := st.Load(cmd.Context()); !out.OK() {
				return outcomeErr(out)
			}
			return writeOut(cmd, app, st.Items())
		},
	}
}

func newCommentsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <comment-id>",
		Short: "Show one comment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("comment", args[0])
			if err != nil {
				return err
			}
			c, err := app.client(cmd).GetComment(cmd.Context(), id)
			if err != nil {
				return err
			}
			return writeOut(cmd, app, c)
		},
	}
}

func newCommentsAddCmd(app *App) *cobra.Command {
	var content, author string

	cmd := &cobra.Command{
		Use:   "add <task-id>",
		Short: "Add a comment to a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID("task", args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("author") {
				author = app.cfg.Author
			}

			st := store.NewCommentStore(app.client(cmd), taskID, app.logger(cmd))
			sess := session.NewComment(st, nil)
			if err := setFields(sess, session.FieldContent, content, session.FieldAuthor, author); err != nil {
				return err
			}

			out, err := sess.Submit(cmd.Context())
			if err != nil {
				return err
			}
			if !out.OK() {
				return outcomeErr(out)
			}
			return writeOut(cmd, app, st.Items()[0])
		},
	}

	cmd.Flags().StringVar(&content, "content", "", "Comment text")
	cmd.Flags().StringVar(&author, "author", "", "Author name (default: config author)")
	return cmd
}

func newCommentsUpdateCmd(app *App) *cobra.Command {
	var content, author string

	cmd := &cobra.Command{
		Use:   "update <comment-id>",
		Short: "Edit a comment; only the given flags change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("comment", args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			st, c, err := loadComment(ctx, app, cmd, id)
			if err != nil {
				return err
			}

			sess := session.NewComment(st, &c)
			var fields []string
			if cmd.Flags().Changed("content") {
				fields = append(fields, session.FieldContent, content)
			}
			if cmd.Flags().Changed("author") {
				fields = append(fields, session.FieldAuthor, author)
			}
			if err := setFields(sess, fields...); err != nil {
				return err
			}

			out, err := sess.Submit(ctx)
			if err != nil {
				return err
			}
			if !out.OK() {
				return outcomeErr(out)
			}
			c, _ = st.Get(id)
			return writeOut(cmd, app, c)
		},
	}

	cmd.Flags().StringVar(&content, "content", "", "New text")
	cmd.Flags().StringVar(&author, "author", "", "New author")
	return cmd
}

func newCommentsRmCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "rm <comment-id>",
		Short: "Delete a comment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("comment", args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			client := app.client(cmd)
			c, err := client.GetComment(ctx, id)
			if err != nil {
				return err
			}

			st := store.NewCommentStore(client, c.TaskID, app.logger(cmd))
			out := st.Delete(ctx, id, confirmer(cmd, yes))
			switch out.Status {
			case store.StatusDeclined:
				fmt.Fprintln(cmd.ErrOrStderr(), "Aborted.")
				return nil
			case store.StatusOK:
				return writeOut(cmd, app, map[string]any{"id": id, "deleted": true})
			}
			return outcomeErr(out)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

// loadComment finds the comment's task and loads that task's comments
func loadComment(ctx context.Context, app *App, cmd *cobra.Command, id int64) (*store.CommentStore, models.Comment, error) {
	client := app.client(cmd)
	c, err := client.GetComment(ctx, id)
	if err != nil {
		return nil, models.Comment{}, err
	}
	st := store.NewCommentStore(client, c.TaskID, app.logger(cmd))
	if out := st.Load(ctx); !out.OK() {
		return nil, models.Comment{}, outcomeErr(out)
	}
	if loaded, ok := st.Get(id); ok {
		c = loaded
	}
	return st, c, nil
}
