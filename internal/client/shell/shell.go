// Package shell is the interactive terminal front end for the inventory API.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/atinyakov/telecombase/internal/client/api"
	"github.com/atinyakov/telecombase/internal/client/session"
)

const helpText = `Commands:
  login | register | logout | whoami
  vendors | vendor-add | vendor-edit <id> | vendor-rm <id>
  models | model-add | model-edit <id> | model-rm <id>
  locations | location-add | location-edit <id> | location-rm <id>
  devices [query] | device <id> | device-add | device-edit <id> | device-rm <id>
  users | pending | approve <id> | disapprove <id> | user-rm <id>
  url [base-url] | health | help | exit`

// Shell reads commands from in and prints results to out.
type Shell struct {
	client *api.Client
	store  *session.Store
	p      *prompter
	out    io.Writer
	log    *zap.Logger
}

// New builds a shell. store may be nil, in which case nothing is persisted.
func New(client *api.Client, store *session.Store, in io.Reader, out io.Writer, log *zap.Logger) *Shell {
	if log == nil {
		log = zap.NewNop()
	}
	return &Shell{
		client: client,
		store:  store,
		p:      newPrompter(in, out),
		out:    out,
		log:    log,
	}
}

// Run loops until "exit", end of input or ctx cancellation.
func (s *Shell) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		line, err := s.p.line("telecombase> ")
		if errors.Is(err, errInputClosed) {
			fmt.Fprintln(s.out)
			return nil
		}
		if err != nil {
			return err
		}
		if quit := s.Exec(ctx, line); quit {
			fmt.Fprintln(s.out, "Bye")
			return nil
		}
	}
	return ctx.Err()
}

// Exec runs one command line and reports whether the shell should stop.
func (s *Shell) Exec(ctx context.Context, line string) bool {
	args := strings.Fields(line)
	if len(args) == 0 {
		return false
	}
	cmd, rest := args[0], args[1:]
	if cmd == "exit" || cmd == "quit" {
		return true
	}

	err := s.dispatch(ctx, cmd, rest, line)
	switch {
	case errors.Is(err, errInputClosed):
		fmt.Fprintln(s.out)
		return true
	case err != nil:
		s.log.Debug("command failed", zap.String("command", cmd), zap.Error(err))
		fmt.Fprintln(s.out, "Error:", describe(err))
	}
	return false
}

func (s *Shell) dispatch(ctx context.Context, cmd string, args []string, line string) error {
	switch cmd {
	case "help":
		fmt.Fprintln(s.out, helpText)
		return nil
	case "login":
		return s.login(ctx, false)
	case "register":
		return s.login(ctx, true)
	case "logout":
		return s.logout()
	case "whoami":
		return s.whoami()
	case "url":
		return s.url(args)
	case "health":
		return s.health(ctx)
	}

	if !s.client.Authenticated() {
		return errors.New("not signed in, use login or register")
	}

	switch cmd {
	case "vendors":
		return s.listVendors(ctx)
	case "vendor-add":
		return s.admin(func() error { return s.saveVendor(ctx, 0) })
	case "vendor-edit":
		return s.adminWithID(args, func(id int64) error { return s.saveVendor(ctx, id) })
	case "vendor-rm":
		return s.adminWithID(args, func(id int64) error {
			return s.remove(ctx, "vendor", id, s.client.DeleteVendor)
		})
	case "models":
		return s.listModels(ctx)
	case "model-add":
		return s.admin(func() error { return s.saveModel(ctx, 0) })
	case "model-edit":
		return s.adminWithID(args, func(id int64) error { return s.saveModel(ctx, id) })
	case "model-rm":
		return s.adminWithID(args, func(id int64) error {
			return s.remove(ctx, "model", id, s.client.DeleteModel)
		})
	case "locations":
		return s.listLocations(ctx)
	case "location-add":
		return s.admin(func() error { return s.saveLocation(ctx, 0) })
	case "location-edit":
		return s.adminWithID(args, func(id int64) error { return s.saveLocation(ctx, id) })
	case "location-rm":
		return s.adminWithID(args, func(id int64) error {
			return s.remove(ctx, "location", id, s.client.DeleteLocation)
		})
	case "devices":
		// The query is everything after the command, spaces included.
		query := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), cmd))
		return s.listDevices(ctx, query)
	case "device":
		return withID(args, func(id int64) error { return s.showDevice(ctx, id) })
	case "device-add":
		return s.saveDevice(ctx, 0)
	case "device-edit":
		return withID(args, func(id int64) error { return s.saveDevice(ctx, id) })
	case "device-rm":
		return s.adminWithID(args, func(id int64) error {
			return s.remove(ctx, "device", id, s.client.DeleteDevice)
		})
	case "users":
		return s.admin(func() error { return s.listUsers(ctx) })
	case "pending":
		return s.admin(func() error { return s.listPending(ctx) })
	case "approve":
		return s.adminWithID(args, func(id int64) error { return s.approve(ctx, id, true) })
	case "disapprove":
		return s.adminWithID(args, func(id int64) error { return s.approve(ctx, id, false) })
	case "user-rm":
		return s.adminWithID(args, func(id int64) error {
			return s.remove(ctx, "user", id, s.client.DeleteUser)
		})
	}

	fmt.Fprintln(s.out, "Unknown command. Type 'help' for a list of commands.")
	return nil
}

func (s *Shell) admin(fn func() error) error {
	if !s.client.Session().IsAdmin() {
		return errors.New("this command requires the admin role")
	}
	return fn()
}

func (s *Shell) adminWithID(args []string, fn func(int64) error) error {
	return s.admin(func() error { return withID(args, fn) })
}

func withID(args []string, fn func(int64) error) error {
	if len(args) != 1 {
		return errors.New("expected exactly one id argument")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return fn(id)
}

// describe turns client errors into a line for the terminal.
func describe(err error) string {
	if api.IsPendingApproval(err) {
		return "your account is waiting for administrator approval"
	}
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		return err.Error()
	}
	switch apiErr.Kind {
	case api.KindTimeout:
		return "the server did not answer in time"
	case api.KindTransport:
		if apiErr.Err != nil {
			return "cannot reach the server: " + apiErr.Err.Error()
		}
		return "cannot reach the server"
	case api.KindProtocol:
		return "unexpected response from the server"
	}
	if apiErr.Status != 0 {
		return fmt.Sprintf("%s (HTTP %d)", apiErr.Message, apiErr.Status)
	}
	return apiErr.Message
}

func (s *Shell) table(header string, rows func(w io.Writer)) {
	w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, header)
	rows(w)
	_ = w.Flush()
}

func (s *Shell) remove(ctx context.Context, what string, id int64, del func(context.Context, int64) error) error {
	ok, err := s.p.confirm(fmt.Sprintf("Delete %s %d?", what, id))
	if err != nil || !ok {
		return err
	}
	if err := del(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s %d deleted\n", capitalize(what), id)
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// persist saves the store and only logs failures; the session in memory
// stays usable either way.
func (s *Shell) persist() {
	if s.store == nil {
		return
	}
	s.store.Remember(s.client.BaseURL(), s.client.Session())
	if err := s.store.Save(); err != nil {
		s.log.Warn("failed to save session", zap.String("path", s.store.Path()), zap.Error(err))
	}
}
