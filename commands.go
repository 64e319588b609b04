package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/harrisonrobin/tugas/pkg/auth"
	"github.com/harrisonrobin/tugas/pkg/colors"
	"github.com/harrisonrobin/tugas/pkg/config"
	"github.com/harrisonrobin/tugas/pkg/google"
	"github.com/harrisonrobin/tugas/pkg/index"
	"github.com/harrisonrobin/tugas/pkg/logging"
	"github.com/harrisonrobin/tugas/pkg/model"
	"github.com/harrisonrobin/tugas/pkg/orgmode"
	"github.com/harrisonrobin/tugas/pkg/prompt"
	"github.com/harrisonrobin/tugas/pkg/refresh"
	"github.com/harrisonrobin/tugas/pkg/taskwarrior"
	"github.com/harrisonrobin/tugas/pkg/todo"
	"github.com/harrisonrobin/tugas/pkg/ui"
)

// reportedError is a failure the prompter already showed to the user.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

// reported marks flow errors that came with a failure notice. An unknown
// task never gets a notice, so it is left for main to print.
func reported(err error) error {
	if err == nil || errors.Is(err, todo.ErrUnknownTask) {
		return err
	}
	return reportedError{err: err}
}

func (a *app) runUI(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	logger, f, err := logging.NewFile(filepath.Join(a.dir, logFile), a.cfg.LogLevel)
	if err != nil {
		return err
	}
	defer f.Close()

	bridge := ui.NewBridge()
	ctl, err := a.controller(ctx, bridge, logger)
	if err != nil {
		return err
	}

	if a.cfg.Reconcile != "" {
		sched, err := refresh.New(a.cfg.Reconcile, ctl, logger, refresh.WithHook(bridge.Reloaded))
		if err != nil {
			return err
		}
		if err := sched.Start(ctx); err != nil {
			return err
		}
		defer sched.Stop()
	}

	logger.Info("starting task list", "tasks", len(ctl.Tasks()))
	return ui.Run(ctx, ctl, bridge, ui.WithLogger(logger))
}

func newUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the full-screen task list (the default command)",
		Args:  cobra.NoArgs,
		RunE:  a.runUI,
	}
}

func newListCmd(a *app) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Print every task with its countdown",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			handles, err := index.New(a.dir)
			if err != nil {
				return err
			}

			var ctl *todo.Controller
			render := func(clear bool) error {
				rows := ctl.Rows()
				ids := make([]string, len(rows))
				for i, r := range rows {
					ids[i] = r.ID
				}
				byID := handles.Assign(ids)
				if clear {
					fmt.Fprint(a.out, "\x1b[H\x1b[2J")
				}
				fmt.Fprintln(a.out, renderRows(rows, byID, colors.DefaultTheme()))
				return handles.Save()
			}

			var opts []todo.Option
			if watch {
				opts = append(opts, todo.WithTickHook(func() {
					if err := render(true); err != nil {
						a.logger.Warn("could not save handles", "err", err)
					}
				}))
			}
			ctl, err = a.controller(ctx, nil, a.logger, opts...)
			if err != nil {
				return err
			}
			ctl.Tick(time.Now())
			if err := render(watch); err != nil {
				return err
			}
			if !watch {
				return nil
			}
			return ctl.Run(ctx)
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep the countdown running until interrupted")
	return cmd
}

// renderRows draws the task table, each row colored by its state.
func renderRows(rows []todo.Row, handles map[string]int, theme colors.Theme) string {
	if len(rows) == 0 {
		return theme.Muted.Render("No tasks yet. Add one with `tugas add`.")
	}

	states := make([]colors.State, len(rows))
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(theme.Muted).
		Headers("#", "STATE", "TASK", "DEADLINE", "LEFT")
	for i, r := range rows {
		states[i] = colors.Classify(r.Task, r.Remaining)
		t.Row(
			strconv.Itoa(handles[r.ID]),
			states[i].String(),
			r.Text,
			model.DisplayDeadline(r.Deadline),
			r.Remaining,
		)
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return theme.Title.Padding(0, 1)
		}
		if row < 0 || row >= len(states) {
			return lipgloss.NewStyle().Padding(0, 1)
		}
		return theme.For(states[row]).Padding(0, 1)
	})
	return t.String()
}

func newAddCmd(a *app) *cobra.Command {
	var text, deadline string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a task, prompting for whatever the flags leave out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			line := prompt.New(a.in, a.out)
			ctl, err := a.controller(ctx, line, a.logger)
			if err != nil {
				return err
			}
			if text == "" || deadline == "" {
				return reported(ctl.AddTaskWith(ctx, todo.FormResult{Text: text, Deadline: deadline}))
			}

			if _, err := ctl.Create(ctx, text, deadline); err != nil {
				line.Notify(todo.Notice{Level: todo.Failure, Title: "Failed", Message: err.Error()})
				return reported(err)
			}
			line.Notify(todo.Notice{Level: todo.Success, Title: "Done!", Message: "Task added."})
			return nil
		},
	}
	cmd.Flags().StringVarP(&text, "text", "t", "", "task name")
	cmd.Flags().StringVarP(&deadline, "deadline", "d", "", "deadline as YYYY-MM-DDTHH:MM")
	return cmd
}

// resolve turns a handle from the last `list` into a store ID.
func (a *app) resolve(arg string) (string, error) {
	handles, err := index.New(a.dir)
	if err != nil {
		return "", err
	}
	return handles.Resolve(arg)
}

func newEditCmd(a *app) *cobra.Command {
	var text, deadline string
	cmd := &cobra.Command{
		Use:   "edit HANDLE",
		Short: "Change a task's name or deadline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := a.resolve(args[0])
			if err != nil {
				return err
			}
			line := prompt.New(a.in, a.out)
			ctl, err := a.controller(ctx, line, a.logger)
			if err != nil {
				return err
			}
			if text == "" && deadline == "" {
				return reported(ctl.EditTask(ctx, id))
			}

			task, ok := ctl.Task(id)
			if !ok {
				return fmt.Errorf("%w: %s", todo.ErrUnknownTask, id)
			}
			if text == "" {
				text = task.Text
			}
			if deadline == "" {
				deadline = task.Deadline
			}
			if _, err := ctl.Edit(ctx, id, text, deadline); err != nil {
				line.Notify(todo.Notice{Level: todo.Failure, Title: "Failed", Message: err.Error()})
				return reported(err)
			}
			line.Notify(todo.Notice{Level: todo.Success, Title: "Done!", Message: "Task updated."})
			return nil
		},
	}
	cmd.Flags().StringVarP(&text, "text", "t", "", "new task name")
	cmd.Flags().StringVarP(&deadline, "deadline", "d", "", "new deadline as YYYY-MM-DDTHH:MM")
	return cmd
}

// newConfirmedCmd builds a HANDLE command that runs a confirmed flow.
func newConfirmedCmd(a *app, use, short string, flow func(*todo.Controller, context.Context, string) error) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   use + " HANDLE",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := a.resolve(args[0])
			if err != nil {
				return err
			}
			line := prompt.New(a.in, a.out)
			line.AssumeYes = yes
			ctl, err := a.controller(ctx, line, a.logger)
			if err != nil {
				return err
			}
			return reported(flow(ctl, ctx, id))
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newToggleCmd(a *app) *cobra.Command {
	cmd := newConfirmedCmd(a, "toggle", "Mark a task as done, or undo that", (*todo.Controller).ToggleTask)
	cmd.Aliases = []string{"done"}
	return cmd
}

func newRemoveCmd(a *app) *cobra.Command {
	cmd := newConfirmedCmd(a, "rm", "Delete a task", (*todo.Controller).DeleteTask)
	cmd.Aliases = []string{"delete"}
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var (
		orgFiles []string
		fromTW   bool
		tag      string
		dryRun   bool
	)
	cmd := &cobra.Command{
		Use:   "import [TASKWARRIOR FILTER... | -]",
		Short: "Import tasks with deadlines from Org-mode files or Taskwarrior",
		Long: `Import TODO headlines with a DEADLINE from Org-mode files, or pending and
completed tasks with a due date from Taskwarrior. With --taskwarrior -, tasks are
read from stdin instead, e.g. piped from ` + "`task export`" + `. Tasks already present
with the same name and deadline are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(orgFiles) == 0 && !fromTW {
				return errors.New("nothing to import: pass --org FILE or --taskwarrior")
			}
			if len(args) > 0 && !fromTW {
				return errors.New("a filter only applies to --taskwarrior")
			}

			var incoming []model.Fields
			skipped := 0
			if len(orgFiles) > 0 {
				entries, err := orgmode.ParseFiles(orgFiles)
				if err != nil {
					return err
				}
				for _, e := range orgmode.FilterEntries(entries, tag) {
					incoming = append(incoming, e.Fields())
				}
			}
			if fromTW {
				tasks, err := a.taskwarriorTasks(ctx, args)
				if err != nil {
					return err
				}
				for _, t := range tasks {
					if f, ok := t.Fields(); ok {
						incoming = append(incoming, f)
					} else {
						skipped++
					}
				}
			}

			if dryRun {
				for _, f := range incoming {
					printFields(a.out, f)
				}
				fmt.Fprintf(a.out, "Would import %d tasks.\n", len(incoming))
				return nil
			}

			ctl, err := a.controller(ctx, nil, a.logger)
			if err != nil {
				return err
			}
			seen := make(map[string]bool)
			for _, t := range ctl.Tasks() {
				seen[t.Text+"\x00"+t.Deadline] = true
			}

			imported, failed := 0, 0
			for _, f := range incoming {
				k := f.Text + "\x00" + f.Deadline
				if seen[k] {
					skipped++
					continue
				}
				if _, err := ctl.Import(ctx, f); err != nil {
					a.logger.Warn("could not import task", "text", f.Text, "err", err)
					failed++
					continue
				}
				seen[k] = true
				imported++
			}
			fmt.Fprintf(a.out, "Imported %d tasks, skipped %d.\n", imported, skipped)
			if failed > 0 {
				return fmt.Errorf("%d tasks could not be imported", failed)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&orgFiles, "org", nil, "Org-mode file to read (repeatable)")
	cmd.Flags().BoolVar(&fromTW, "taskwarrior", false, "read tasks from Taskwarrior's export")
	cmd.Flags().StringVar(&tag, "tag", "", "only import Org headlines with this tag")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be imported")
	return cmd
}

// taskwarriorTasks runs `task export` with filter, or reads stdin for "-".
func (a *app) taskwarriorTasks(ctx context.Context, filter []string) ([]taskwarrior.Task, error) {
	if len(filter) == 1 && filter[0] == "-" {
		return taskwarrior.ReadTasks(a.in)
	}
	return taskwarrior.NewClient().GetTasks(ctx, filter)
}

func printFields(w io.Writer, f model.Fields) {
	check := "[ ]"
	if f.Completed {
		check = "[x]"
	}
	fmt.Fprintf(w, "%s %s  %s\n", check, f.Text, model.DisplayDeadline(f.Deadline))
}

func newAuthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Sign in with Google and cache the token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := auth.Login(cmd.Context(), a.dir, google.Scopes, a.logger); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Signed in. Token saved to %s\n", filepath.Join(a.dir, auth.TokenFile))
			return nil
		},
	}
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *a.cfg
			if cfg.APIKey != "" {
				cfg.APIKey = "********"
			}
			enc := json.NewEncoder(a.out)
			enc.SetIndent("", "  ")
			return enc.Encode(cfg)
		},
	}

	set := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Save a setting to the config file",
		Long:  "Save a setting to the config file. Known keys: " + strings.Join(config.Keys(), ", ") + ".",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Env and flag overrides stay out of the file.
			cfg, err := config.ReadFile(a.configPath)
			if err != nil {
				return err
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := config.SaveFile(a.configPath, cfg); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Set %s in %s\n", args[0], a.configPath)
			return nil
		},
	}

	get := &cobra.Command{
		Use:   "get KEY",
		Short: "Print one effective setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, ok := a.cfg.Get(args[0])
			if !ok {
				return fmt.Errorf("unknown config key %q (known: %s)", args[0], strings.Join(config.Keys(), ", "))
			}
			fmt.Fprintln(a.out, v)
			return nil
		},
	}

	path := &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(a.out, a.configPath)
			return nil
		},
	}

	cmd.AddCommand(show, get, set, path)
	return cmd
}
