package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/orderdeck/orderdeck/internal/api"
	"github.com/orderdeck/orderdeck/internal/config"
	"github.com/orderdeck/orderdeck/internal/localstore"
	"github.com/orderdeck/orderdeck/internal/session"
)

// app is the wiring every command shares: configuration, the device
// store, the session, and an api client carrying the display key.
//
// Missing credentials are kept, not fatal: commands that can run without
// them (logout, cart list) just do, and the rest render the configuration
// error through requireAPI/requireDisplay.
type app struct {
	cfg      config.Config
	cfgErr   *config.MissingError
	store    *localstore.Store
	sessions *session.Store
	client   *api.Client
}

// openApp loads configuration and opens the device store.
func openApp(opts *RootOptions) (*app, error) {
	cfg, err := config.Load(opts.ConfigFile)
	var missing *config.MissingError
	if err != nil && !errors.As(err, &missing) {
		return nil, WrapExitError(ExitCommandError, "load configuration", err)
	}

	ls, err := localstore.Open(cfg.StorePath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open device store", err)
	}

	return &app{
		cfg:      cfg,
		cfgErr:   missing,
		store:    ls,
		sessions: session.NewStore(ls),
		client:   api.New(cfg.APIBaseURL, api.WithAPIKey(cfg.KDSAPIKey)),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// missingField reports whether the named setting is absent.
func (a *app) missingField(name string) bool {
	if a.cfgErr == nil {
		return false
	}
	for _, f := range a.cfgErr.Fields {
		if f == name {
			return true
		}
	}
	return false
}

// configError renders the CLI's configuration-error page.
func configError(fields ...string) error {
	return NewExitError(ExitCommandError, fmt.Sprintf(
		"this device is not configured: set %s in the environment or the config file",
		strings.Join(fields, ", ")))
}

// requireAPI ensures the platform base URL is configured.
func (a *app) requireAPI() error {
	if a.missingField("API_BASE_URL") {
		return configError("API_BASE_URL")
	}
	return nil
}

// requireDisplay ensures the display endpoints can be called.
func (a *app) requireDisplay() error {
	var fields []string
	if a.missingField("API_BASE_URL") {
		fields = append(fields, "API_BASE_URL")
	}
	if a.missingField("KDS_API_KEY") {
		fields = append(fields, "KDS_API_KEY")
	}
	if len(fields) > 0 {
		return configError(fields...)
	}
	return nil
}

// bearerClient returns an api client carrying the stored login, plus the
// session itself for restaurant scoping.
func (a *app) bearerClient() (*api.Client, session.Session, error) {
	if err := a.requireAPI(); err != nil {
		return nil, session.Session{}, err
	}
	sess, err := a.sessions.Current()
	if err != nil {
		return nil, session.Session{}, NewExitError(ExitFailure, "not logged in; run 'orderdeck login' first")
	}
	return api.New(a.cfg.APIBaseURL, api.WithToken(sess.Token)), sess, nil
}

// checkBearer translates a bearer-call failure: a 401/403 means the token
// is dead, so the stored session is dropped before reporting.
func (a *app) checkBearer(err error) error {
	if err == nil {
		return nil
	}
	if api.IsAuthError(err) {
		_ = a.sessions.Invalidate()
		return WrapExitError(ExitFailure, "session expired; run 'orderdeck login' again", err)
	}
	return err
}

// restaurantFor resolves which restaurant a command operates on: the
// explicit flag wins, then the logged-in user's restaurant, then the
// device configuration.
func (a *app) restaurantFor(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if sess, err := a.sessions.Current(); err == nil && sess.User.RestaurantID != "" {
		return sess.User.RestaurantID, nil
	}
	if a.cfg.RestaurantID != "" {
		return a.cfg.RestaurantID, nil
	}
	return "", NewExitError(ExitCommandError, "no restaurant selected: pass --restaurant or set RESTAURANT_ID")
}
