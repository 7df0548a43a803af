package main

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/afero"

	"github.com/hpungsan/crumbs/internal/config"
	"github.com/hpungsan/crumbs/internal/errors"
	"github.com/hpungsan/crumbs/internal/logger"
	"github.com/hpungsan/crumbs/internal/profile"
	"github.com/hpungsan/crumbs/internal/store"
	"github.com/hpungsan/crumbs/internal/store/devtools"
	"github.com/hpungsan/crumbs/internal/store/memory"
	"github.com/hpungsan/crumbs/internal/store/sqlite"
)

// storeOpener builds the configured host store.
type storeOpener func(ctx context.Context, cfg *config.Config, log logger.Logger) (store.Store, error)

// openStore opens the backend named by cfg.Store and wraps it with logging
// and list coalescing.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (store.Store, error) {
	var st store.Store

	switch cfg.Store {
	case config.StoreMemory:
		if cfg.FixturePath == "" {
			st = memory.New()
			break
		}
		m, err := memory.LoadFixture(afero.NewOsFs(), cfg.FixturePath)
		if err != nil {
			return nil, errors.NewInvalidRequest(err.Error())
		}
		st = m

	case config.StoreFirefox, config.StoreChromium:
		path, err := profile.NewResolver(runtime.GOOS).Resolve(cfg.Store, cfg.Browser, cfg.Profile)
		if err != nil {
			return nil, err
		}
		s, err := sqlite.Open(ctx, path)
		if err != nil {
			return nil, err
		}
		log.Debug("opened cookie database", "path", s.Path(), "dialect", s.Dialect())
		st = s

	case config.StoreDevtools:
		st = devtools.New(cfg.DevtoolsURL)

	default:
		return nil, errors.NewInvalidRequest(fmt.Sprintf("store must be one of %s, got %q",
			strings.Join(config.StoreKinds, ", "), cfg.Store))
	}

	return store.Coalesce(store.WithLogging(st, log.With("store", cfg.Store))), nil
}

// listProfiles returns the profiles of the configured browser family.
func listProfiles(cfg *config.Config) ([]profile.Profile, error) {
	r := profile.NewResolver(runtime.GOOS)
	switch cfg.Store {
	case config.StoreChromium:
		return r.ChromiumProfiles(cfg.Browser)
	case config.StoreFirefox:
		return r.FirefoxProfiles()
	default:
		return nil, errors.NewInvalidRequest(fmt.Sprintf("store %q has no profiles", cfg.Store))
	}
}
