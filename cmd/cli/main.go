// Command deskcli is a terminal client for the project backend: login,
// session inspection, own-items CRUD, and the admin panels.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/shweta76555/deskcli/internal/api"
	"github.com/shweta76555/deskcli/internal/authbus"
	"github.com/shweta76555/deskcli/internal/errs"
	"github.com/shweta76555/deskcli/internal/model"
	"github.com/shweta76555/deskcli/internal/session"
	"github.com/shweta76555/deskcli/internal/tokenstore"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func usage() {
	fmt.Fprintf(os.Stderr, `deskcli
Usage:
  deskcli [-base URL] [-store DIR] [-v] <cmd> [args]

Commands:
  version
  register  -name NAME -email EMAIL -p PASSWORD [-confirm PASSWORD] [-type TYPE]
  login     -email EMAIL -p PASSWORD            (saves token)
  logout
  whoami                                        (resolve session, enrich from server)
  token     [-raw] [-payload]                   (inspect the stored token)
  items                                         (own project items)
  projects                                      (all project items, admin)
  users                                         (all users, admin)
  add       -title T [-desc D]
  edit      -id N -title T [-desc D]
  rm        -id N [-yes]
  watch     [-interval DUR]                     (follow session changes)
`)
	os.Exit(2)
}

// app bundles the wiring every subcommand needs.
type app struct {
	store    tokenstore.Store
	bus      *authbus.Bus
	client   *api.Client
	resolver *session.Resolver
	log      *zap.Logger
}

// main dispatches subcommands over a shared store/client/resolver wiring.
func main() {
	base := flag.String("base", api.DefaultBaseURL, "API base URL")
	storeDir := flag.String("store", tokenstore.DefaultDir(), "token store directory")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	log := zap.NewNop()
	if *verbose {
		log, _ = zap.NewDevelopment()
	}
	defer func() { _ = log.Sync() }()

	store := tokenstore.NewFileStore(*storeDir)
	client := api.New(*base, store, log)
	a := &app{
		store:    store,
		bus:      authbus.New(),
		client:   client,
		resolver: session.NewResolver(store, client),
		log:      log,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cmd {
	case "version":
		fmt.Printf("deskcli %s (%s)\n", version, buildDate)
	case "register":
		a.cmdRegister(ctx, args)
	case "login":
		a.cmdLogin(ctx, args)
	case "logout":
		a.cmdLogout()
	case "whoami":
		a.cmdWhoami(ctx)
	case "token":
		a.cmdToken(ctx, args)
	case "items":
		a.cmdItems(ctx)
	case "projects":
		a.cmdProjects(ctx)
	case "users":
		a.cmdUsers(ctx)
	case "add":
		a.cmdAdd(ctx, args)
	case "edit":
		a.cmdEdit(ctx, args)
	case "rm":
		a.cmdRemove(ctx, args)
	case "watch":
		a.cmdWatch(args)
	default:
		usage()
	}
}

func (a *app) cmdRegister(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "email")
	pass := fs.String("p", "", "password")
	confirm := fs.String("confirm", "", "password confirmation")
	userType := fs.String("type", "User", "account type")
	_ = fs.Parse(args)

	// Local checks run before any request goes out.
	if *name == "" || *email == "" || *pass == "" {
		fail(fmt.Errorf("%w: all fields are required", errs.ErrValidation))
	}
	if len(*pass) < 6 {
		fail(fmt.Errorf("%w: password must be at least 6 characters", errs.ErrValidation))
	}
	if *confirm != "" && *confirm != *pass {
		fail(fmt.Errorf("%w: passwords do not match", errs.ErrValidation))
	}

	if err := a.client.Register(ctx, *name, *email, *pass, *userType); err != nil {
		fail(err)
	}
	fmt.Println("registered; run `deskcli login` to sign in")
}

func (a *app) cmdLogin(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "email")
	pass := fs.String("p", "", "password")
	_ = fs.Parse(args)
	if *email == "" || *pass == "" {
		fail(fmt.Errorf("%w: need -email and -p", errs.ErrValidation))
	}

	token, err := a.client.Login(ctx, *email, *pass)
	if err != nil {
		fail(err)
	}
	if err := a.store.Set(token); err != nil {
		fail(err)
	}
	// Signal before any further output or exit: write -> notify is ordered.
	a.bus.Notify()
	fmt.Println("ok")
}

func (a *app) cmdLogout() {
	if err := a.store.Clear(); err != nil {
		fail(err)
	}
	a.bus.Notify()
	fmt.Println("logged out")
}

// cmdWhoami prints the token-derived identity immediately, then the
// enriched one if the authoritative fetch lands in time.
func (a *app) cmdWhoami(ctx context.Context) {
	updates := make(chan model.Identity, 2)

	first, err := a.resolver.ResolveLive(ctx, func(i model.Identity) {
		updates <- i
	})
	if err != nil {
		failSession(err)
	}

	<-updates
	printJSON(viewOf(first))

	select {
	case enriched := <-updates:
		if viewOf(enriched) != viewOf(first) {
			fmt.Println("profile:")
			printJSON(viewOf(enriched))
		}
	case <-time.After(2 * time.Second):
	}
}

func (a *app) cmdToken(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	raw := fs.Bool("raw", false, "print the raw token")
	payload := fs.Bool("payload", false, "print the decoded payload")
	_ = fs.Parse(args)

	tok, err := a.store.Get()
	if err != nil {
		failSession(err)
	}
	if *raw {
		fmt.Println(tok)
	}
	ident, err := a.resolver.Resolve(ctx)
	if err != nil && !errors.Is(err, errs.ErrSessionExpired) {
		failSession(err)
	}
	info := map[string]any{"isExpired": ident.IsExpired}
	if !ident.ExpiresAt.IsZero() {
		info["expiresAt"] = ident.ExpiresAt.UTC().Format(time.RFC3339)
	}
	printJSON(info)
	if *payload {
		printJSON(ident.RawClaims)
	}
}

func (a *app) cmdWatch(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	interval := fs.Duration("interval", time.Second, "store poll interval")
	_ = fs.Parse(args)

	ctx := context.Background()
	show := func() {
		ident, err := a.resolver.Resolve(ctx)
		switch {
		case errors.Is(err, errs.ErrNoSession):
			fmt.Println("signed out")
		case errors.Is(err, errs.ErrMalformedToken):
			fmt.Println("invalid session")
		case errors.Is(err, errs.ErrSessionExpired):
			fmt.Printf("session expired (%s)\n", displayOf(ident))
		case err != nil:
			fmt.Println("error:", err)
		default:
			fmt.Printf("signed in as %s\n", displayOf(ident))
		}
	}

	unsubscribe := a.bus.Subscribe(show)
	defer unsubscribe()

	show()
	authbus.NewWatcher(a.store, a.bus, *interval, a.log).Run(ctx)
}

// ---- helpers ----

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func fail(err error) {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		fmt.Fprintln(os.Stderr, apiErr.Message)
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

// failSession maps session errors to the navigation contract: no session
// means "go log in", anything else is an error state, not a redirect.
func failSession(err error) {
	switch {
	case errors.Is(err, errs.ErrNoSession):
		fmt.Fprintln(os.Stderr, "login required: run `deskcli login`")
	case errors.Is(err, errs.ErrMalformedToken):
		fmt.Fprintln(os.Stderr, "invalid session: run `deskcli login` again")
	case errors.Is(err, errs.ErrSessionExpired):
		fmt.Fprintln(os.Stderr, "session expired: run `deskcli login` again")
	default:
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(1)
}
