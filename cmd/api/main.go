package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/delivery-insights/internal/api/http"
	"github.com/spec-kit/delivery-insights/internal/api/http/handlers"
	"github.com/spec-kit/delivery-insights/internal/cache"
	"github.com/spec-kit/delivery-insights/internal/config"
	"github.com/spec-kit/delivery-insights/internal/events"
	"github.com/spec-kit/delivery-insights/internal/integration/cloudwatch"
	"github.com/spec-kit/delivery-insights/internal/integration/gitlab"
	"github.com/spec-kit/delivery-insights/internal/integration/jira"
	"github.com/spec-kit/delivery-insights/internal/observability"
	"github.com/spec-kit/delivery-insights/internal/persistence"
	"github.com/spec-kit/delivery-insights/internal/repository"
	"github.com/spec-kit/delivery-insights/internal/scheduler"
	"github.com/spec-kit/delivery-insights/internal/service"
	"github.com/spec-kit/delivery-insights/internal/service/collector"
	"github.com/spec-kit/delivery-insights/internal/service/processor"
	"github.com/spec-kit/delivery-insights/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	sprintRepo := repository.NewSprintRepository(pool)
	commitRepo := repository.NewCommitRepository(pool)
	mergeRequestRepo := repository.NewMergeRequestRepository(pool)
	deploymentRepo := repository.NewDeploymentRepository(pool)
	incidentRepo := repository.NewIncidentRepository(pool)
	metricRepo := repository.NewMetricRepository(pool)
	alertRepo := repository.NewAlertRepository(pool)
	developerRepo := repository.NewDeveloperRepository(pool)
	teamRepo := repository.NewTeamRepository(pool)

	metricsCache := cache.NewRedisCache(redis.Client, logger)
	dispatcher := events.NewInMemoryDispatcher()
	obsMetrics := observability.NewMetrics()

	jiraCollector := collector.NewJiraCollector(cfg.Jira, collector.JiraDependencies{
		Client:        jira.NewClient(cfg.Jira, logger),
		TicketRepo:    ticketRepo,
		SprintRepo:    sprintRepo,
		DeveloperRepo: developerRepo,
	}, logger)
	gitlabCollector := collector.NewGitLabCollector(cfg.GitLab, collector.GitLabDependencies{
		Client:           gitlab.NewClient(cfg.GitLab, logger),
		CommitRepo:       commitRepo,
		MergeRequestRepo: mergeRequestRepo,
		DeveloperRepo:    developerRepo,
	}, logger)

	awsClient, err := cloudwatch.NewClient(ctx, cfg.AWS, logger)
	if err != nil {
		logger.Fatal("failed to init aws clients", zap.Error(err))
	}
	cloudwatchCollector := collector.NewCloudWatchCollector(awsClient, metricRepo, logger)

	metricsProcessor := processor.NewMetricsProcessor(processor.ProcessorDependencies{
		SprintRepo: sprintRepo,
		TicketRepo: ticketRepo,
		MetricRepo: metricRepo,
		Cache:      metricsCache,
	}, logger)
	doraService := processor.NewDoraService(processor.DoraDependencies{
		DeploymentRepo:   deploymentRepo,
		MergeRequestRepo: mergeRequestRepo,
		IncidentRepo:     incidentRepo,
		Cache:            metricsCache,
	}, logger)

	alertService := service.NewAlertService(cfg.Alerts, service.AlertDependencies{
		AlertRepo:     alertRepo,
		MetricRepo:    metricRepo,
		CommitRepo:    commitRepo,
		DeveloperRepo: developerRepo,
		Dispatcher:    dispatcher,
	}, logger)
	incidentService := service.NewIncidentService(incidentRepo, dispatcher, logger)
	sprintService := service.NewSprintService(sprintRepo, ticketRepo, metricsProcessor, dispatcher, logger)
	notificationService := service.NewNotificationService(dispatcher, logger)
	worker.StartNotificationWorker(notificationService)

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(cfg.Scheduler, scheduler.Dependencies{
			Jira:       jiraCollector,
			GitLab:     gitlabCollector,
			CloudWatch: cloudwatchCollector,
			Alerts:     alertService,
			TeamRepo:   teamRepo,
			DevRepo:    developerRepo,
			MetricRepo: metricRepo,
			Counters:   obsMetrics,
			Dispatcher: dispatcher,
		}, logger)
		if err := sched.Start(); err != nil {
			logger.Fatal("failed to start scheduler", zap.Error(err))
		}
	}

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, obsMetrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:      handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Collect:     handlers.NewCollectHandler(jiraCollector, gitlabCollector, cloudwatchCollector, teamRepo, obsMetrics),
		Metrics:     handlers.NewMetricsHandler(metricsProcessor, doraService),
		Alerts:      handlers.NewAlertsHandler(alertService),
		Incidents:   handlers.NewIncidentsHandler(incidentService),
		Deployments: handlers.NewDeploymentsHandler(deploymentRepo),
		Sprints:     handlers.NewSprintsHandler(sprintService),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if sched != nil {
		sched.Stop()
	}
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
