package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	chatrender "github.com/Sanskargoyal608/Eziii/internal/adapters/render/chat"
	"github.com/Sanskargoyal608/Eziii/internal/application"
	"github.com/Sanskargoyal608/Eziii/internal/domain"
	"github.com/spf13/cobra"
)

type conversationFlags struct {
	as      string
	context string
}

func (f *conversationFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.as, "as", "", "Chat role: student or admin (default: student when signed in as one, admin otherwise)")
	f.registerContext(cmd)
}

func (f *conversationFlags) registerContext(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.context, "context", "", "Admin context: all or a student id (default: the active context)")
}

type conversationView struct {
	Role     domain.Role       `json:"role" yaml:"role"`
	Context  domain.ContextKey `json:"context" yaml:"context"`
	State    domain.QueryState `json:"state" yaml:"state"`
	Messages []domain.Message  `json:"messages" yaml:"messages"`
}

type replyView struct {
	Role    domain.Role       `json:"role" yaml:"role"`
	Context domain.ContextKey `json:"context" yaml:"context"`
	State   domain.QueryState `json:"state" yaml:"state"`
	Query   domain.Message    `json:"query" yaml:"query"`
	Reply   *domain.Message   `json:"reply,omitempty" yaml:"reply,omitempty"`
}

func newChatCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Ask the query service and manage chat history",
	}

	cmd.AddCommand(
		newQueryCmd(app, "send <query...>", "Send a natural-language query", ""),
		newChatHistoryCmd(app),
		newChatClearCmd(app),
		newChatContextCmd(app),
	)

	return cmd
}

// newQueryCmd builds a command that submits its arguments as one query. A
// non-empty role fixes the chat role and drops the --as flag.
func newQueryCmd(app *app, use, short string, role domain.Role) *cobra.Command {
	flags := conversationFlags{as: string(role)}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, key, err := resolveConversation(cmd, app, flags)
			if err != nil {
				return err
			}

			text := strings.Join(args, " ")
			var result application.QueryResult
			var submitErr error
			send := func(ctx context.Context) error {
				result, submitErr = app.dispatcher.Submit(ctx, role, key, text)
				return nil
			}
			if err := awaitInTextMode(cmd, app, queryLabel(role, key), send); err != nil {
				return err
			}

			switch {
			case errors.Is(submitErr, domain.ErrStaleResponse):
				_, err := fmt.Fprintln(cmd.ErrOrStderr(), "The session ended before the reply arrived; it was discarded.")
				return err
			case submitErr != nil && !errors.Is(submitErr, domain.ErrSessionExpired):
				return submitErr
			}

			if err := writeReply(cmd, app, role, key, result); err != nil {
				return err
			}
			return submitErr
		},
	}

	if role == "" {
		flags.register(cmd)
	} else {
		flags.registerContext(cmd)
	}

	return cmd
}

func writeReply(cmd *cobra.Command, app *app, role domain.Role, key domain.ContextKey, result application.QueryResult) error {
	view := replyView{Role: role, Context: key, State: result.State, Query: result.UserMessage}
	if result.Reply.ID != 0 {
		reply := result.Reply
		view.Reply = &reply
	}
	if handled, err := writeStructured(cmd, view); handled {
		return err
	}

	conv, err := app.conversations.Load(cmd.Context(), role, key)
	if err != nil {
		return err
	}
	rendered, err := app.chatRenderer(conv, chatrender.RenderOptions{
		Now:   app.now(),
		Tail:  2,
		State: app.dispatcher.State(role, key),
	})
	return writeRendered(cmd, rendered, err)
}

func newChatHistoryCmd(app *app) *cobra.Command {
	var flags conversationFlags
	var tail int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show a conversation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			role, key, err := resolveConversation(cmd, app, flags)
			if err != nil {
				return err
			}

			conv, err := app.conversations.Load(cmd.Context(), role, key)
			if err != nil {
				return err
			}
			return writeConversation(cmd, app, conv, tail)
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&tail, "tail", 0, "Show only the last N messages (0 shows all)")

	return cmd
}

func newChatClearCmd(app *app) *cobra.Command {
	var flags conversationFlags

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear a conversation's history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			role, key, err := resolveConversation(cmd, app, flags)
			if err != nil {
				return err
			}

			conv, err := app.conversations.Clear(cmd.Context(), role, key)
			if err != nil {
				return err
			}
			return writeConversation(cmd, app, conv, 0)
		},
	}

	flags.register(cmd)

	return cmd
}

func newChatContextCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "context [all|<student-id>]",
		Short: "Show or switch the admin chat context",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(args) == 1 {
				key, err := domain.ParseContextKey(args[0])
				if err != nil {
					return err
				}
				if err := app.conversations.SetActiveContext(ctx, key); err != nil {
					return err
				}
			}

			active, err := app.conversations.ActiveContext(ctx)
			if err != nil {
				return err
			}
			known, err := app.conversations.Contexts(ctx)
			if err != nil {
				return err
			}

			view := struct {
				Active domain.ContextKey   `json:"active" yaml:"active"`
				Known  []domain.ContextKey `json:"known" yaml:"known"`
			}{Active: active, Known: known}
			if handled, err := writeStructured(cmd, view); handled {
				return err
			}

			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintf(out, "Active admin context: %s\n", active); err != nil {
				return err
			}
			for _, key := range known {
				marker := " "
				if key == active {
					marker = "*"
				}
				if _, err := fmt.Fprintf(out, "%s %s\n", marker, key); err != nil {
					return err
				}
			}
			return nil
		},
	}

	return cmd
}

func writeConversation(cmd *cobra.Command, app *app, conv domain.Conversation, tail int) error {
	state := app.dispatcher.State(conv.Role, conv.Context)
	if handled, err := writeStructured(cmd, conversationView{
		Role:     conv.Role,
		Context:  conv.Context,
		State:    state,
		Messages: conv.Messages,
	}); handled {
		return err
	}

	rendered, err := app.chatRenderer(conv, chatrender.RenderOptions{Now: app.now(), Tail: tail, State: state})
	return writeRendered(cmd, rendered, err)
}

// resolveConversation picks the chat role from --as, falling back to the
// signed-in identity, and the context key for that role.
func resolveConversation(cmd *cobra.Command, app *app, flags conversationFlags) (domain.Role, domain.ContextKey, error) {
	role := domain.RoleAdmin
	if app.sessions.Session().Identity.Role == domain.RoleStudent {
		role = domain.RoleStudent
	}
	if flags.as != "" {
		parsed, err := domain.ParseRole(flags.as)
		if err != nil {
			return "", "", err
		}
		role = parsed
	}

	if role == domain.RoleStudent {
		if flags.context != "" && flags.context != string(domain.ContextSelf) {
			return "", "", errors.New("--context applies to the admin chat only")
		}
		return role, domain.ContextSelf, nil
	}

	if flags.context == "" {
		key, err := app.conversations.ActiveContext(cmd.Context())
		return role, key, err
	}

	key, err := domain.ParseContextKey(flags.context)
	if err != nil {
		return "", "", err
	}
	if err := key.ValidFor(role); err != nil {
		return "", "", err
	}
	return role, key, nil
}
