package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/Amund211/japa/internal/adapters/cache"
	"github.com/Amund211/japa/internal/adapters/calendarprovider"
	"github.com/Amund211/japa/internal/adapters/database"
	"github.com/Amund211/japa/internal/adapters/devoteerepository"
	"github.com/Amund211/japa/internal/adapters/locationprovider"
	"github.com/Amund211/japa/internal/app"
	"github.com/Amund211/japa/internal/config"
	"github.com/Amund211/japa/internal/domain"
	"github.com/Amund211/japa/internal/logging"
	"github.com/Amund211/japa/internal/ports"
	"github.com/Amund211/japa/internal/reporting"
	"github.com/Amund211/japa/internal/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	_ "golang.org/x/crypto/x509roots/fallback"
)

const SERVICE_NAME = "japa"

const LEADERBOARD_CACHE_TTL = 10 * time.Second

func main() {
	instanceID := uuid.New().String()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("instanceID", instanceID)

	fail := func(msg string, args ...any) {
		logger.Error(msg, args...)
		os.Exit(1)
	}

	loaded, err := config.LoadDotEnvIfPresent(".env")
	if err != nil {
		fail("Failed to load .env", "error", err.Error())
	}
	if loaded {
		logger.Info("Loaded .env")
	}

	conf, err := config.ConfigFromEnv()
	if err != nil {
		fail("Failed to load config", "error", err.Error())
	}

	logHandler := logging.NewTracingLogHandler(slog.NewJSONHandler(os.Stdout, nil), conf.GoogleCloudProject())
	logger = slog.New(logHandler).With("instanceID", instanceID)
	logger.Info("Loaded config", "config", conf.NonSensitiveString())

	ctx := logging.AddToContext(context.Background(), logger)

	if conf.OTelEnabled() {
		shutdown, err := telemetry.SetupOTelSDK(ctx, SERVICE_NAME)
		if err != nil {
			fail("Failed to set up OpenTelemetry", "error", err.Error())
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Error("Failed to shut down OpenTelemetry", "error", err.Error())
			}
		}()
		logger.Info("Initialized OpenTelemetry")
	}

	sentryMiddleware, flush, err := reporting.NewSentryMiddlewareOrMock(conf)
	if err != nil {
		fail("Failed to initialize Sentry", "error", err.Error())
	}
	defer flush()
	logger.Info("Initialized Sentry middleware")

	var repo devoteerepository.DevoteeRepository
	switch conf.StorageBackend() {
	case config.StorageCSV:
		repo = devoteerepository.NewCSV(conf.CSVPath())
		logger.Info("Initialized CSV devotee repository", "path", conf.CSVPath())
	default:
		logger.Info("Initializing database connection")
		db, err := database.NewCloudsqlPostgresDatabase(ctx, conf)
		if err != nil {
			fail("Failed to initialize database connection", "error", err.Error())
		}
		logger.Info("Initialized database connection")

		repositorySchemaName := database.GetSchemaName(!conf.IsProduction())

		err = database.NewDatabaseMigrator(db, logger.With("component", "migrator")).Migrate(ctx, repositorySchemaName)
		if err != nil {
			fail("Failed to migrate database", "error", err.Error())
		}

		repo = devoteerepository.NewPostgres(db, repositorySchemaName)
		logger.Info("Initialized Postgres devotee repository", "schema", repositorySchemaName)
	}

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	locationProvider := locationprovider.NewIPAPI(httpClient, locationprovider.NewIPAPIRequestLimiter())

	calendarProvider := calendarprovider.NewStatic()

	leaderboardCache := cache.NewTTLCache[[]domain.LeaderboardEntry](LEADERBOARD_CACHE_TTL)

	allowedOrigins, err := ports.NewDomainSuffixes(conf.AllowedOriginSuffixes()...)
	if err != nil {
		fail("Failed to initialize allowed origins", "error", err.Error())
	}

	location := conf.Location()
	nowFunc := func() time.Time {
		return time.Now().In(location)
	}
	groupSize := conf.GroupSize()

	register := app.BuildRegister(repo, locationProvider, nowFunc)
	getDevotee := app.BuildGetDevotee(repo, nowFunc)
	accrue := app.BuildAccrue(repo, groupSize, nowFunc)
	overwriteToday := app.BuildOverwriteToday(repo, groupSize, nowFunc)
	resetToday := app.BuildResetToday(repo, nowFunc)
	getLeaderboard := app.BuildGetLeaderboardWithCache(leaderboardCache, repo, nowFunc)
	getCalendar := app.BuildGetCalendar(calendarProvider)
	authorize := app.BuildAuthorize(conf.AdminTokenHash())
	listDevotees := app.BuildListDevotees(repo, nowFunc)
	deleteDevotee := app.BuildDeleteDevotee(repo)

	for _, path := range []string{
		"/v1/devotees",
		"/v1/devotees/{phone}",
		"/v1/devotees/{phone}/count",
		"/v1/devotees/{phone}/reset",
		"/v1/leaderboard",
		"/v1/calendar",
		"/v1/admin/devotees",
		"/v1/admin/devotees/{phone}",
	} {
		http.HandleFunc(fmt.Sprintf("OPTIONS %s", path), ports.BuildCORSHandler(allowedOrigins))
	}

	http.HandleFunc(
		"POST /v1/devotees",
		ports.MakeRegisterHandler(register, groupSize, allowedOrigins, logger, sentryMiddleware),
	)
	http.HandleFunc(
		"GET /v1/devotees/{phone}",
		ports.MakeGetDevoteeHandler(getDevotee, groupSize, allowedOrigins, logger, sentryMiddleware),
	)
	http.HandleFunc(
		"POST /v1/devotees/{phone}/count",
		ports.MakeRecordCountHandler(accrue, overwriteToday, groupSize, allowedOrigins, logger, sentryMiddleware),
	)
	http.HandleFunc(
		"POST /v1/devotees/{phone}/reset",
		ports.MakeResetTodayHandler(resetToday, groupSize, allowedOrigins, logger, sentryMiddleware),
	)
	http.HandleFunc(
		"GET /v1/leaderboard",
		ports.MakeLeaderboardHandler(getLeaderboard, groupSize, allowedOrigins, logger, sentryMiddleware),
	)
	http.HandleFunc(
		"GET /v1/calendar",
		ports.MakeCalendarHandler(getCalendar, allowedOrigins, logger, sentryMiddleware),
	)
	http.HandleFunc(
		"GET /v1/admin/devotees",
		ports.MakeListDevoteesHandler(listDevotees, authorize, groupSize, allowedOrigins, logger, sentryMiddleware),
	)
	http.HandleFunc(
		"DELETE /v1/admin/devotees/{phone}",
		ports.MakeDeleteDevoteeHandler(deleteDevotee, authorize, allowedOrigins, logger, sentryMiddleware),
	)

	logger.Info("Init complete")
	err = http.ListenAndServe(fmt.Sprintf(":%s", conf.Port()), nil)
	if errors.Is(err, http.ErrServerClosed) {
		logger.Info("Server shutdown")
	} else {
		fail("Server error", "error", err.Error())
	}
}
