package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tgienger/taskdeck/internal/models"
	"github.com/tgienger/taskdeck/internal/session"
	"github.com/tgienger/taskdeck/internal/store"
)

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Task commands",
	}
	cmd.AddCommand(newTasksListCmd(app))
	cmd.AddCommand(newTasksShowCmd(app))
	cmd.AddCommand(newTasksAddCmd(app))
	cmd.AddCommand(newTasksUpdateCmd(app))
	cmd.AddCommand(newTasksCompleteCmd(app, "done", "Mark a task as completed", true))
	cmd.AddCommand(newTasksCompleteCmd(app, "undo", "Mark a task as pending", false))
	cmd.AddCommand(newTasksRmCmd(app))
	return cmd
}

func newTasksListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := store.NewTaskStore(app.client(cmd), app.logger(cmd))
			if out := st.Load(cmd.Context()); !out.OK() {
				return outcomeErr(out)
			}
			return writeOut(cmd, app, st.Items())
		},
	}
}

func newTasksShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("task", args[0])
			if err != nil {
				return err
			}
			task, err := app.client(cmd).GetTask(cmd.Context(), id)
			if err != nil {
				return err
			}
			return writeOut(cmd, app, task)
		},
	}
}

func newTasksAddCmd(app *App) *cobra.Command {
	var title, description string
	var completed bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := store.NewTaskStore(app.client(cmd), app.logger(cmd))
			sess := session.NewTask(st, nil)
			err := setFields(sess,
				session.FieldTitle, title,
				session.FieldDescription, description,
				session.FieldCompleted, strconv.FormatBool(completed),
			)
			if err != nil {
				return err
			}

			out, err := sess.Submit(cmd.Context())
			if err != nil {
				return err
			}
			if !out.OK() {
				return outcomeErr(out)
			}
			// a successful create is always at the front
			return writeOut(cmd, app, st.Items()[0])
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Task title")
	cmd.Flags().StringVar(&description, "description", "", "Task description (markdown)")
	cmd.Flags().BoolVar(&completed, "completed", false, "Create the task as completed")
	return cmd
}

func newTasksUpdateCmd(app *App) *cobra.Command {
	var title, description string
	var completed bool

	cmd := &cobra.Command{
		Use:   "update <task-id>",
		Short: "Edit a task; only the given flags change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("task", args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			st := store.NewTaskStore(app.client(cmd), app.logger(cmd))
			task, err := loadTask(ctx, st, id)
			if err != nil {
				return err
			}

			sess := session.NewTask(st, &task)
			var fields []string
			flags := cmd.Flags()
			if flags.Changed("title") {
				fields = append(fields, session.FieldTitle, title)
			}
			if flags.Changed("description") {
				fields = append(fields, session.FieldDescription, description)
			}
			if flags.Changed("completed") {
				fields = append(fields, session.FieldCompleted, strconv.FormatBool(completed))
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
			task, _ = st.Get(id)
			return writeOut(cmd, app, task)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().BoolVar(&completed, "completed", false, "Completed flag")
	return cmd
}

func newTasksCompleteCmd(app *App, use, short string, completed bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <task-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("task", args[0])
			if err != nil {
				return err
			}
			st := store.NewTaskStore(app.client(cmd), app.logger(cmd))
			task, out := st.ToggleComplete(cmd.Context(), id, completed)
			if !out.OK() {
				return outcomeErr(out)
			}
			return writeOut(cmd, app, task)
		},
	}
}

func newTasksRmCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "rm <task-id>",
		Short: "Delete a task and its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("task", args[0])
			if err != nil {
				return err
			}
			st := store.NewTaskStore(app.client(cmd), app.logger(cmd))
			out := st.Delete(cmd.Context(), id, confirmer(cmd, yes))
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

// loadTask loads the list and returns the task to edit from it
func loadTask(ctx context.Context, st *store.TaskStore, id int64) (models.Task, error) {
	if out := st.Load(ctx); !out.OK() {
		return models.Task{}, outcomeErr(out)
	}
	task, ok := st.Get(id)
	if !ok {
		return models.Task{}, fmt.Errorf("task not found: %d", id)
	}
	return task, nil
}

type fieldSetter interface {
	Set(name, value string) error
}

// setFields applies name, value pairs to a form session in order
func setFields(sess fieldSetter, pairs ...string) error {
	if len(pairs)%2 != 0 {
		return fmt.Errorf("setFields: odd number of arguments")
	}
	for i := 0; i < len(pairs); i += 2 {
		if err := sess.Set(pairs[i], pairs[i+1]); err != nil {
			return fmt.Errorf("setting %s: %w", pairs[i], err)
		}
	}
	return nil
}

func parseID(kind, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", kind, s)
	}
	return id, nil
}
