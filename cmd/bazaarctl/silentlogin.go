package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"bazaar/internal/client/api"
	"bazaar/internal/client/eventbus"
	"bazaar/internal/client/session"
	"bazaar/internal/client/silentlogin"
	"bazaar/internal/domain/entity"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type silentLoginFlags struct {
	detectFlags

	server  string
	liffID  string
	idToken string
	pageURL string
	cookies []string
	verbose bool
}

func newSilentLoginCmd() *cobra.Command {
	flags := &silentLoginFlags{}

	cmd := &cobra.Command{
		Use:   "silent-login",
		Short: "Run the silent-login drivers for one simulated page load",
		Long: `Simulates a page load inside an in-app browser: the runtime is classified from
--ua and --global, the matching driver exchanges its platform credential with the
server and adopts the resulting session. Redirects are printed instead of followed.`,
		Example: `  bazaarctl silent-login --ua "Mozilla/5.0 Line/13.1.0" --id-token eyJ...
  bazaarctl silent-login --ua "MicroMessenger miniProgram" --url "https://shop.example/p/1?code=abc"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSilentLogin(cmd.Context(), cmd.OutOrStdout(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.userAgent, "ua", "", "User agent string")
	cmd.Flags().StringSliceVar(&flags.globals, "global", nil, "Runtime global as name=value (repeatable)")
	cmd.Flags().StringVar(&flags.server, "server", "http://localhost:8080", "Server base URL")
	cmd.Flags().StringVar(&flags.liffID, "liff-id", "", "LIFF app id")
	cmd.Flags().StringVar(&flags.idToken, "id-token", "", "LINE ID token the LIFF SDK would return")
	cmd.Flags().StringVar(&flags.pageURL, "url", "", "Page URL, may carry a WeChat code")
	cmd.Flags().StringSliceVar(&flags.cookies, "cookie", nil, "Page-readable cookie as name=value (repeatable)")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log driver activity to stderr")

	return cmd
}

func runSilentLogin(ctx context.Context, out io.Writer, flags *silentLoginFlags) error {
	signals, err := flags.signals()
	if err != nil {
		return err
	}

	cookies, err := parseGlobals(flags.cookies)
	if err != nil {
		return errors.Wrap(err, "invalid --cookie")
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if flags.verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	client, err := api.New(flags.server, api.WithLogger(logger))
	if err != nil {
		return errors.Wrap(err, "failed to create api client")
	}

	store := session.New(client)
	unsubscribe := store.Changes().Subscribe(func(_ context.Context, user *entity.CurrentUser) error {
		if user != nil {
			fmt.Fprintf(out, "session changed: user %d via %s\n", user.ID, user.Source)
		}

		return nil
	})
	defer unsubscribe()

	locations := eventbus.New[silentlogin.LocationUpdate]()
	locations.Subscribe(silentlogin.NewLocationLogger(client, logger))

	local, visit := silentlogin.NewMemoryStore(), silentlogin.NewMemoryStore()
	navigator := &printingNavigator{out: out}

	drivers := []silentlogin.Driver{
		silentlogin.NewLineDriver(silentlogin.LineDriverParams{
			SDK:         &staticLiff{idToken: flags.idToken, navigator: navigator},
			LiffID:      flags.liffID,
			RedirectURI: flags.pageURL,
			Exchanger:   client,
			Sessions:    store,
			Local:       local,
			Visit:       visit,
		}),
		silentlogin.NewWeChatDriver(silentlogin.WeChatDriverParams{
			PageURL:   flags.pageURL,
			Exchanger: client,
			Sessions:  store,
			Local:     local,
			Cookies:   silentlogin.StaticCookies(cookies),
			Locations: locations,
		}),
		silentlogin.NewFacebookDriver(silentlogin.FacebookDriverParams{
			SignIn:      client,
			Navigator:   navigator,
			Sessions:    store,
			Visit:       visit,
			CallbackURL: "/",
		}),
	}

	runner := silentlogin.NewRunner(visit, drivers, silentlogin.WithLogger(logger))
	for _, outcome := range runner.Mount(ctx, signals) {
		if outcome.Err != nil {
			fmt.Fprintf(out, "%-10s %s: %v\n", outcome.Driver, outcome.Status, outcome.Err)

			continue
		}
		fmt.Fprintf(out, "%-10s %s\n", outcome.Driver, outcome.Status)
	}

	if bearer, ok := local.Get(silentlogin.BearerStorageKey); ok {
		fmt.Fprintf(out, "bearer: %s\n", bearer)
	}

	return printUserTo(out, store.Current())
}

// staticLiff stands in for the LIFF SDK: it is logged in exactly when an ID token was given.
type staticLiff struct {
	idToken   string
	navigator *printingNavigator
}

func (l *staticLiff) Init(context.Context, string) error { return nil }

func (l *staticLiff) IsLoggedIn() bool { return l.idToken != "" }

func (l *staticLiff) Login(redirectURI string) error {
	return l.navigator.Navigate("liff.login?redirectUri=" + redirectURI)
}

func (l *staticLiff) GetIDToken() string { return l.idToken }

type printingNavigator struct {
	out io.Writer
}

func (n *printingNavigator) Navigate(url string) error {
	_, err := fmt.Fprintf(n.out, "redirect: %s\n", url)

	return err
}
