//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/jobfit/internal/bootstrap"
	"github.com/yanqian/jobfit/internal/domain/auth"
	"github.com/yanqian/jobfit/internal/domain/matching"
	"github.com/yanqian/jobfit/internal/domain/progress"
	"github.com/yanqian/jobfit/internal/infra/config"
	httpiface "github.com/yanqian/jobfit/internal/interface/http"
	"github.com/yanqian/jobfit/pkg/logger"
	"github.com/yanqian/jobfit/pkg/metrics"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		metrics.NewCollectors,
		provideAuthConfig,
		provideMatchingConfig,
		provideTailorConfig,
		provideProgressConfig,
		provideOpenAIClient,
		provideEmbedder,
		provideChatClient,
		provideBundleRepository,
		provideValkeyClient,
		provideProgressStore,
		provideJobQueue,
		provideObjectStorage,
		provideResumeSource,
		progress.NewTracker,
		matching.NewService,
		auth.NewService,
		provideTailorService,
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
