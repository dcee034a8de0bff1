package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/example/storefront/internal/activity"
	"github.com/example/storefront/internal/checkout"
	"github.com/example/storefront/internal/client"
	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/domain/user"
	"github.com/example/storefront/internal/domain/wishlist"
	"github.com/example/storefront/internal/infrastructure/kafka"
	"github.com/example/storefront/internal/notify"
	"github.com/example/storefront/internal/session"
)

func main() {
	config.LoadDotEnv()
	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "storefront: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, cfg, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// usageError is a command line mistake; it exits with status 2.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// app is one CLI invocation: the REST client, the session and every store
// that follows it.
type app struct {
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
	logger *log.Logger

	client   *client.Client
	session  *session.Session
	catalog  *product.Catalog
	cart     *cart.Cart
	wishlist *wishlist.Wishlist
	orders   *order.Admin
	users    *user.Directory
	checkout *checkout.Service

	closers []io.Closer
}

func newApp(cfg config.Client, tokens session.TokenStore, in io.Reader, out, errOut io.Writer, logger *log.Logger) *app {
	notifier := notify.NewWriter(errOut)
	c := client.New(cfg.APIURL, cfg.Timeout, logger)
	sess := session.New(c, tokens, logger)
	c.UseTokens(sess)

	a := &app{
		in:       bufio.NewReader(in),
		out:      out,
		errOut:   errOut,
		logger:   logger,
		client:   c,
		session:  sess,
		catalog:  product.NewCatalog(c, logger),
		cart:     cart.New(c, notifier, logger),
		wishlist: wishlist.New(c, notifier, logger),
		orders:   order.NewAdmin(c, notifier, logger),
		users:    user.NewDirectory(c, notifier, logger),
	}
	sess.Attach(a.cart, a.wishlist, a.orders, a.users)

	var publisher activity.Publisher = activity.Nop
	if len(cfg.KafkaBrokers) > 0 {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		a.closers = append(a.closers, producer)
		publisher = producer
	}
	a.checkout = checkout.NewService(c, a.cart, publisher, logger)
	return a
}

// close blocks until every in-flight sync settled, then releases resources.
func (a *app) close() {
	a.cart.Wait()
	a.wishlist.Wait()
	a.orders.Wait()
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Printf("[Client] Close failed: %v", err)
		}
	}
}

type command struct {
	run     func(a *app, ctx context.Context, args []string) error
	summary string
	anon    bool // runs without restoring the session
}

var commands = map[string]command{
	"login":    {run: (*app).login, summary: "login <username>          sign in (password read from stdin)", anon: true},
	"signup":   {run: (*app).signup, summary: "signup <username> <email>  create an account and sign in", anon: true},
	"logout":   {run: (*app).logout, summary: "logout                     sign out and forget the token", anon: true},
	"whoami":   {run: (*app).whoami, summary: "whoami                     show the signed-in account"},
	"products": {run: (*app).products, summary: "products [flags]           browse the catalog"},
	"product":  {run: (*app).product, summary: "product <id>               show one product"},
	"cart":     {run: (*app).cartCmd, summary: "cart [add|set|dec|remove|clear]"},
	"wishlist": {run: (*app).wishlistCmd, summary: "wishlist [add|remove|toggle|move]"},
	"checkout": {run: (*app).checkoutCmd, summary: "checkout [flags]           place an order from the cart or -buy-now"},
	"orders":   {run: (*app).ordersCmd, summary: "orders                     your order history"},
	"admin":    {run: (*app).adminCmd, summary: "admin <orders|status|users|block|unblock|delete-user|user-orders|product|stock>"},
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: storefront [-api url] [-session file] [-v] <command> [args]")
	fmt.Fprintln(w, "\ncommands:")
	for _, name := range []string{"login", "signup", "logout", "whoami", "products", "product", "cart", "wishlist", "checkout", "orders", "admin"} {
		fmt.Fprintf(w, "  %s\n", commands[name].summary)
	}
	fmt.Fprintln(w, "\nflags:")
}

func run(ctx context.Context, cfg config.Client, args []string, in io.Reader, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("storefront", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVar(&cfg.APIURL, "api", cfg.APIURL, "backend base URL")
	fs.StringVar(&cfg.SessionFile, "session", cfg.SessionFile, "file holding the access token")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "request timeout")
	verbose := fs.Bool("v", false, "log requests and sync outcomes")
	fs.Usage = func() {
		usage(errOut)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}
	cmd, ok := commands[fs.Arg(0)]
	if !ok {
		fmt.Fprintf(errOut, "storefront: unknown command %q\n", fs.Arg(0))
		fs.Usage()
		return 2
	}

	logger := log.New(io.Discard, "", 0)
	if *verbose {
		logger = log.New(errOut, "", log.LstdFlags)
	}
	var tokens session.TokenStore = session.NewMemoryTokenStore()
	if cfg.SessionFile != "" {
		tokens = session.NewFileTokenStore(cfg.SessionFile)
	}

	a := newApp(cfg, tokens, in, out, errOut, logger)
	err := a.exec(ctx, cmd, fs.Args()[1:])
	a.close()

	var ue *usageError
	switch {
	case errors.As(err, &ue):
		fmt.Fprintf(errOut, "storefront %s: %v\n", fs.Arg(0), err)
		return 2
	case err != nil:
		fmt.Fprintf(errOut, "error: %v\n", err)
		return 1
	}
	return 0
}

func (a *app) exec(ctx context.Context, cmd command, args []string) error {
	if !cmd.anon {
		if _, err := a.session.Restore(ctx); err != nil {
			return err
		}
	}
	return cmd.run(a, ctx, args)
}

var errNotSignedIn = errors.New("not signed in: run `storefront login <username>` first")

func (a *app) requireLogin() error {
	if a.session.Identity() == nil {
		return errNotSignedIn
	}
	return nil
}

func (a *app) requireAdmin() error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if !a.session.IsAdmin() {
		return user.ErrNotAdmin
	}
	return nil
}

// readSecret reads one line from stdin.
func (a *app) readSecret(prompt string) (string, error) {
	fmt.Fprint(a.errOut, prompt)
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func subFlags(name string, errOut io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(errOut)
	return fs
}
