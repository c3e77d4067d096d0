// The agent hosts the client-side state coordinator: it resolves a working
// backend path, keeps trip/wallet/contact state, and exposes a local ops
// endpoint for diagnostics.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/recab-client/internal/api"
	"github.com/example/recab-client/internal/cache"
	"github.com/example/recab-client/internal/config"
	"github.com/example/recab-client/internal/geo"
	"github.com/example/recab-client/internal/logging"
	"github.com/example/recab-client/internal/models"
	"github.com/example/recab-client/internal/ops"
	"github.com/example/recab-client/internal/session"
	"github.com/example/recab-client/internal/storage"
	"github.com/example/recab-client/internal/store"
	"github.com/example/recab-client/internal/track"
	"github.com/example/recab-client/internal/wallet"
)

func main() {
	cfg, err := config.Load()
	log := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	var responseCache cache.Cache
	if cfg.RedisAddr != "" {
		responseCache = cache.NewRedis(cfg.RedisAddr, cfg.RedisPass)
		log.Info("response cache", "backend", "redis", "addr", cfg.RedisAddr)
	} else {
		responseCache = cache.NewMemory()
	}

	durable := storage.NewFile(cfg.StatePath)
	sessionKV := storage.NewMemory()

	resolver := api.NewResolver(cfg, responseCache, log)
	client := api.NewClient(resolver)

	holder := session.NewHolder(sessionKV, durable, log)
	monitor := session.NewMonitor(holder, sessionKV, cfg.InactivityWindow, func() {
		log.Info("session expired", "redirect", cfg.SplashPath)
	})

	// The wallet cap comes from live settings, so the mirror reads it through
	// a closure that is bound before the store exists.
	var st *store.Store
	mirror := wallet.NewMirror(client, holder, func() int { return st.TopupMax() }, log)
	st = store.New(store.Deps{
		Backend:    client,
		Identity:   holder,
		Wallet:     mirror,
		Dialogs:    autoCashDialogs{log: log},
		Roster:     geo.NewIndex(),
		Session:    sessionKV,
		Durable:    durable,
		GeoTimeout: cfg.GeoTimeout,
		Log:        log,
	})

	publisher := track.NewPublisher(client, cfg.PingThrottle, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	warm(ctx, st, holder, log)
	announcePresence(ctx, publisher, holder, true, log)

	expiry := make(chan struct{})
	go monitor.Run(expiry, time.Minute)

	srv := &http.Server{Addr: cfg.OpsAddr, Handler: ops.NewServer(st, holder, log)}
	go func() {
		log.Info("ops endpoint listening", "addr", cfg.OpsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("ops endpoint failed", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	close(expiry)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	announcePresence(shutdownCtx, publisher, holder, false, log)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("ops shutdown", "err", err)
	}
	st.Wait()
}

// warm loads state that is useful before the first user action. All of it is
// best-effort; an unreachable backend leaves the defaults in place.
func warm(ctx context.Context, st *store.Store, holder *session.Holder, log *slog.Logger) {
	warmCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := st.RefreshSettings(warmCtx); err != nil {
		log.Warn("settings refresh failed", "err", err)
	}
	if holder.User() != nil {
		if err := st.RefreshContacts(warmCtx); err != nil {
			log.Warn("contacts refresh failed", "err", err)
		}
	}
}

// announcePresence flips the driver's online flag when a driver session is
// restored. Riders have no presence to publish.
func announcePresence(ctx context.Context, pub *track.Publisher, holder *session.Holder, online bool, log *slog.Logger) {
	u := holder.User()
	if u == nil || u.Role != models.RoleDriver {
		return
	}
	if err := pub.Announce(ctx, u.ID, models.TrackPoint{}, online); err != nil {
		log.Warn("presence announce failed", "online", online, "err", err)
	}
}

// autoCashDialogs is the headless stand-in for the UI dialog surface: with
// nobody to ask, trip fees settle as cash and notifications go to the log.
type autoCashDialogs struct {
	log *slog.Logger
}

func (d autoCashDialogs) ChoosePayment(fee int) models.PaymentMethod {
	d.log.Info("payment choice defaulted to cash", "fee", fee)
	return models.PayCash
}

func (d autoCashDialogs) Notify(title, message string) {
	d.log.Info("dialog", "title", title, "message", message)
}
