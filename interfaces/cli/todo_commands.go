package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"todolist-backend/application/commands"
	"todolist-backend/application/commands/bus"
	cmdhandlers "todolist-backend/application/commands/handlers"
	"todolist-backend/application/queries"
	"todolist-backend/domain/core/entities"
	"todolist-backend/infrastructure/persistence/postgrest"
	"todolist-backend/infrastructure/persistence/sqlite"
	"todolist-backend/interfaces/http/rest/handlers"
	pkgerrors "todolist-backend/pkg/errors"
)

func unexpectedResult(result interface{}) error {
	return pkgerrors.NewInternalError(fmt.Sprintf("unexpected result type %T", result))
}

func asTodo(result interface{}) (handlers.TodoResponse, error) {
	todo, ok := result.(*entities.Todo)
	if !ok {
		return handlers.TodoResponse{}, unexpectedResult(result)
	}
	return handlers.ToTodoResponse(todo), nil
}

func asTodos(result interface{}) ([]handlers.TodoResponse, error) {
	todos, ok := result.([]*entities.Todo)
	if !ok {
		return nil, unexpectedResult(result)
	}
	out := make([]handlers.TodoResponse, 0, len(todos))
	for _, todo := range todos {
		out = append(out, handlers.ToTodoResponse(todo))
	}
	return out, nil
}

func newAddCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <text>",
		Short: "Add a todo",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, b *Backend, p *Printer) error {
				result, err := b.CommandBus.Send(ctx, commands.AddTodoCommand{Owner: a.opts.Owner, Text: strings.Join(args, " ")})
				if err != nil {
					return err
				}
				todo, err := asTodo(result)
				if err != nil {
					return err
				}
				if p.JSON() {
					return p.Encode(todo)
				}
				p.Action("Added", todo)
				return nil
			})
		},
	}
}

func newListCommand(a *app) *cobra.Command {
	var completed, all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active todos, or completed ones with --completed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, b *Backend, p *Printer) error {
				list := func(status string) ([]handlers.TodoResponse, error) {
					result, err := b.QueryBus.Ask(ctx, queries.ListTodosQuery{Owner: a.opts.Owner, Status: status})
					if err != nil {
						return nil, err
					}
					return asTodos(result)
				}

				status := queries.StatusActive
				switch {
				case all:
					status = queries.StatusAll
				case completed:
					status = queries.StatusCompleted
				}

				if p.JSON() {
					todos, err := list(status)
					if err != nil {
						return err
					}
					return p.Encode(handlers.ListTodosResponse{Todos: todos, Status: status, Count: len(todos)})
				}

				if status != queries.StatusCompleted {
					active, err := list(queries.StatusActive)
					if err != nil {
						return err
					}
					p.Section("Active", active)
				}
				if status == queries.StatusAll {
					p.Line("")
				}
				if status != queries.StatusActive {
					done, err := list(queries.StatusCompleted)
					if err != nil {
						return err
					}
					p.Section("Completed", done)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&completed, "completed", false, "list completed todos")
	cmd.Flags().BoolVar(&all, "all", false, "list active and completed todos")
	cmd.MarkFlagsMutuallyExclusive("completed", "all")
	return cmd
}

func newShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a todo with its edit history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, b *Backend, p *Printer) error {
				result, err := b.QueryBus.Ask(ctx, queries.GetTodoQuery{Owner: a.opts.Owner, TodoID: args[0]})
				if err != nil {
					return err
				}
				todo, err := asTodo(result)
				if err != nil {
					return err
				}
				if p.JSON() {
					return p.Encode(todo)
				}
				p.Detail(todo)
				return nil
			})
		},
	}
}

func newEditCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <text>",
		Short: "Replace a todo's text, keeping the old text in its history",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, b *Backend, p *Printer) error {
				edit := commands.EditTodoCommand{Owner: a.opts.Owner, TodoID: args[0], Text: strings.Join(args[1:], " ")}
				result, err := b.CommandBus.Send(ctx, edit)
				if err != nil {
					return err
				}
				res, ok := result.(cmdhandlers.EditResult)
				if !ok {
					return unexpectedResult(result)
				}
				todo := handlers.ToTodoResponse(res.Todo)
				if p.JSON() {
					return p.Encode(handlers.UpdateTodoResponse{TodoResponse: todo, Changed: res.Changed})
				}
				if res.Changed {
					p.Action("Edited", todo)
				} else {
					p.Action("Unchanged", todo)
				}
				return nil
			})
		},
	}
}

// newTransitionCommand builds done and undo, which share their shape
func newTransitionCommand(a *app, use, short, verb string, build func(owner, id string) bus.Command) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, b *Backend, p *Printer) error {
				result, err := b.CommandBus.Send(ctx, build(a.opts.Owner, args[0]))
				if err != nil {
					return err
				}
				todo, err := asTodo(result)
				if err != nil {
					return err
				}
				if p.JSON() {
					return p.Encode(todo)
				}
				p.Action(verb, todo)
				return nil
			})
		},
	}
}

func newDoneCommand(a *app) *cobra.Command {
	return newTransitionCommand(a, "done", "Mark a todo as completed", "Completed",
		func(owner, id string) bus.Command {
			return commands.CompleteTodoCommand{Owner: owner, TodoID: id}
		})
}

func newUndoCommand(a *app) *cobra.Command {
	return newTransitionCommand(a, "undo", "Return a completed todo to the active list", "Reopened",
		func(owner, id string) bus.Command {
			return commands.UncompleteTodoCommand{Owner: owner, TodoID: id}
		})
}

func newRemoveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a todo and its history",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, b *Backend, p *Printer) error {
				if _, err := b.CommandBus.Send(ctx, commands.DeleteTodoCommand{Owner: a.opts.Owner, TodoID: args[0]}); err != nil {
					return err
				}
				if p.JSON() {
					return p.Encode(map[string]interface{}{"id": args[0], "deleted": true})
				}
				p.Line("Deleted " + args[0])
				return nil
			})
		},
	}
}

func newStatsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count active and completed todos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, b *Backend, p *Printer) error {
				result, err := b.QueryBus.Ask(ctx, queries.GetStatsQuery{Owner: a.opts.Owner})
				if err != nil {
					return err
				}
				stats, ok := result.(entities.Stats)
				if !ok {
					return unexpectedResult(result)
				}
				out := handlers.StatsResponse{
					ActiveCount:    stats.ActiveCount,
					CompletedCount: stats.CompletedCount,
					Total:          stats.Total(),
				}
				if p.JSON() {
					return p.Encode(out)
				}
				p.Stats(out)
				return nil
			})
		},
	}
}

func newSchemaCommand(a *app) *cobra.Command {
	var dialect string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the storage schema for a SQL backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var schema string
			switch dialect {
			case "sqlite":
				schema = sqlite.Schema()
			case "postgres":
				schema = postgrest.Schema()
			default:
				return NewExitError(ExitCommandError, fmt.Sprintf("unknown dialect %q: must be sqlite or postgres", dialect))
			}
			fmt.Fprint(cmd.OutOrStdout(), schema)
			return nil
		},
	}

	cmd.Flags().StringVar(&dialect, "dialect", "sqlite", "schema dialect (sqlite|postgres)")
	return cmd
}
