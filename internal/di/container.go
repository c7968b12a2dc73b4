// Package di provides dependency injection configuration for the Pagebound server.
package di

import (
	"io"

	"github.com/samber/do/v2"

	"github.com/listenupapp/pagebound-server/internal/api"
	"github.com/listenupapp/pagebound-server/internal/auth"
	"github.com/listenupapp/pagebound-server/internal/config"
	"github.com/listenupapp/pagebound-server/internal/di/providers"
	"github.com/listenupapp/pagebound-server/internal/logger"
	"github.com/listenupapp/pagebound-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
// Nothing is constructed until it is invoked, so tools that need only part
// of the graph (the admin CLI) pay only for what they use.
func NewContainer(args []string) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.ProvideValue(injector, providers.Args(args))
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)
	do.Provide(injector, providers.ProvideAuthKey)
	do.Provide(injector, providers.ProvideClock)

	// Database layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)

	// Search layer
	do.Provide(injector, providers.ProvideJournalIndex)
	do.Provide(injector, providers.ProvideJournalRebuilder)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Reading engine
	do.Provide(injector, providers.ProvideOutbox)
	do.Provide(injector, providers.ProvideRatingAggregator)
	do.Provide(injector, providers.ProvideBadgeEvaluator)
	do.Provide(injector, providers.ProvideStreakTracker)
	do.Provide(injector, providers.ProvideProgressUpdater)
	do.Provide(injector, providers.ProvideActivityService)
	do.Provide(injector, providers.ProvideReadingService)
	do.Provide(injector, providers.ProvideBookService)
	do.Provide(injector, providers.ProvideGoalService)
	do.Provide(injector, providers.ProvideChallengeService)
	do.Provide(injector, providers.ProvideReconciler)

	// Backup
	do.Provide(injector, providers.ProvideBackupService)
	do.Provide(injector, providers.ProvideRestoreService)

	// Workers
	do.Provide(injector, providers.ProvideReconcileJob)
	do.Provide(injector, providers.ProvideWriteLimiter)

	// Server
	do.Provide(injector, providers.ProvideAPIServices)
	do.Provide(injector, providers.ProvideHTTPServer)
	do.Provide(injector, providers.ProvideMDNSService)

	return injector
}

// NewToolContainer is NewContainer with console logs sent to w, keeping
// stdout free for command output.
func NewToolContainer(args []string, w io.Writer) *do.RootScope {
	injector := NewContainer(args)
	do.ProvideValue(injector, providers.LogOutput{Writer: w})
	return injector
}

// Bootstrap initializes all services and returns once the HTTP server is
// listening in the background.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.JournalIndexHandle](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)
	_ = do.MustInvoke[*providers.OutboxHandle](injector)

	// Reading engine
	_ = do.MustInvoke[*service.ReadingService](injector)
	_ = do.MustInvoke[*service.BookService](injector)
	_ = do.MustInvoke[*service.GoalService](injector)
	_ = do.MustInvoke[*service.ChallengeService](injector)
	_ = do.MustInvoke[*service.Reconciler](injector)
	_ = do.MustInvoke[*api.Services](injector)

	// Workers
	_ = do.MustInvoke[*providers.ReconcileJob](injector)
	_ = do.MustInvoke[*providers.WriteLimiterHandle](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)
	_ = do.MustInvoke[*providers.MDNSServiceHandle](injector)

	providers.TriggerJournalRebuildIfNeeded(injector)

	return nil
}
