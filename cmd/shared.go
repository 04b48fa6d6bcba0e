package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/habedi/folio/auth"
	"github.com/habedi/folio/client"
	"github.com/habedi/folio/config"
	"github.com/habedi/folio/db"
	"github.com/habedi/folio/pkg/clierr"
	"github.com/habedi/folio/pkg/validation"
	"github.com/habedi/folio/session"
	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const sessionExpiredNotice = "Your session has expired. Please log in again."

type rootOptions struct {
	configPath string
	apiURL     string
	ephemeral  bool
}

// app holds everything a command needs. It is opened when a command starts
// and closed when it returns.
type app struct {
	opts rootOptions

	cfg      *config.Config
	session  *session.Manager
	api      *client.Client
	auth     *auth.Service
	registry *prometheus.Registry

	closers     []func() error
	unsubscribe func()
}

// run wraps a command body so it gets an opened app and classified, printed errors.
func (a *app) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.open(cmd); err != nil {
			return fail(cmd, err)
		}
		defer a.close()
		if err := fn(cmd, args); err != nil {
			return fail(cmd, err)
		}
		return nil
	}
}

func (a *app) open(cmd *cobra.Command) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg

	store, err := a.openStore(cmd)
	if err != nil {
		return err
	}
	a.session = session.NewManager(store, session.Policy{
		AccessTTL:  cfg.Session.AccessTTL,
		RefreshTTL: cfg.Session.RefreshTTL,
	})

	a.registry = prometheus.NewRegistry()
	gw := client.NewGateway(cfg.APIURL, a.session,
		client.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		client.WithMetrics(client.NewMetrics(a.registry)),
	)
	a.api = client.New(gw)
	a.auth = auth.NewService(a.api, a.session)

	errOut := cmd.ErrOrStderr()
	a.unsubscribe = a.session.Subscribe(func(ev session.Event) {
		log.Debug().Str("event", ev.Kind.String()).Bool("authenticated", ev.Authenticated).Msg("Session changed")
		if ev.Kind == session.Expired {
			color.New(color.FgYellow).Fprintln(errOut, sessionExpiredNotice)
		}
	})
	return nil
}

// loadConfig applies the root flags on top of the file and environment settings.
func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(a.opts.configPath)
	if err != nil {
		return nil, clierr.New(clierr.Validation, err.Error(), err)
	}
	if a.opts.apiURL != "" {
		cfg.APIURL = strings.TrimRight(a.opts.apiURL, "/")
	}
	if a.opts.ephemeral {
		cfg.Session.Backend = config.BackendMemory
	}
	if err := cfg.Validate(); err != nil {
		return nil, clierr.New(clierr.Validation, err.Error(), err)
	}
	return cfg, nil
}

func (a *app) openStore(cmd *cobra.Command) (session.Store, error) {
	switch a.cfg.Session.Backend {
	case config.BackendMemory:
		return session.NewMemoryStore(), nil
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		a.closers = append(a.closers, rdb.Close)
		return session.NewRedisStore(rdb, a.cfg.Redis.Prefix), nil
	default:
		gormDB, err := db.Open(a.cfg.Session.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open session database: %w", err)
		}
		a.closers = append(a.closers, func() error { return db.Close(gormDB) })
		store := session.NewSQLStore(db.NewEntryRepository(gormDB))
		if err := store.Purge(cmd.Context()); err != nil {
			log.Warn().Err(err).Msg("Could not purge expired session entries")
		}
		return store, nil
	}
}

func (a *app) close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
	if a.cfg != nil && a.cfg.MetricsFile != "" && a.registry != nil {
		if err := prometheus.WriteToTextfile(a.cfg.MetricsFile, a.registry); err != nil {
			log.Warn().Err(err).Str("path", a.cfg.MetricsFile).Msg("Failed to write metrics file")
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Error().Err(err).Msg("Failed to release resource")
		}
	}
	a.closers = nil
}

// fail prints err for the user and returns its classified form.
func fail(cmd *cobra.Command, err error) error {
	ce := clierr.Classify(err)
	printError(cmd, ce)
	return ce
}

func printError(cmd *cobra.Command, ce *clierr.Error) {
	w := cmd.ErrOrStderr()
	red := color.New(color.FgRed)

	var fields validation.FieldErrors
	if errors.As(ce.Err, &fields) {
		red.Fprintln(w, "Error: Invalid input.")
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %s: %s\n", k, fields[k])
		}
		return
	}
	red.Fprintln(w, "Error:", ce.Message)
}

// parseID reads a positive integer ID from a command argument.
func parseID(kind, arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return 0, clierr.New(clierr.Validation, fmt.Sprintf("%s ID must be a number, got %q", kind, arg), err)
	}
	if err := validation.ValidateID(kind, id); err != nil {
		return 0, clierr.New(clierr.Validation, err.Error(), err)
	}
	return id, nil
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetRowLine(false)
	return table
}

// oneLine flattens text for a table cell.
func oneLine(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if limit > 0 && len([]rune(s)) > limit {
		return string([]rune(s)[:limit-3]) + "..."
	}
	return s
}

// prompter reads answers from the command's input. Passwords are read without
// echo when the input is a terminal.
type prompter struct {
	out io.Writer
	in  *bufio.Reader
	fd  int
}

func newPrompter(cmd *cobra.Command) *prompter {
	p := &prompter{out: cmd.OutOrStdout(), in: bufio.NewReader(cmd.InOrStdin()), fd: -1}
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
	}
	return p
}

// promptForInput prints the prompt and returns the trimmed answer.
func (p *prompter) promptForInput(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	input, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && input != "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(input), nil
}

// promptForPassword is promptForInput without echo.
func (p *prompter) promptForPassword(prompt string) (string, error) {
	if p.fd < 0 {
		return p.promptForInput(prompt)
	}
	fmt.Fprint(p.out, prompt)
	password, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(string(password)), nil
}
