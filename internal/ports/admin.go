package ports

import (
	"log/slog"
	"net/http"

	"github.com/Amund211/japa/internal/app"
	"github.com/Amund211/japa/internal/ratelimiting"
)

// Slow enough to make guessing the admin token impractical
var adminIPLimit = rateLimit{
	refillPerSecond: 0.1,
	burstSize:       20,
	keyFunc:         ratelimiting.IPKeyFunc,
}

type devoteeListSuccessResponse struct {
	Success  bool                      `json:"success"`
	Devotees []devoteeOverviewResponse `json:"devotees"`
}

type deleteSuccessResponse struct {
	Success bool `json:"success"`
}

func MakeListDevoteesHandler(
	listDevotees app.ListDevotees,
	authorize app.Authorize,
	groupSize int64,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := ComposeMiddlewares(
		buildPortMiddleware("admin_list_devotees", allowedOrigins, rootLogger, sentryMiddleware, adminIPLimit),
		NewAdminTokenMiddleware(authorize),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		overviews, err := listDevotees(ctx)
		if err != nil {
			writeAppError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, devoteeListSuccessResponse{
			Success:  true,
			Devotees: toDevoteeOverviewResponses(overviews, groupSize),
		})
	}

	return middleware(handler)
}

func MakeDeleteDevoteeHandler(
	deleteDevotee app.DeleteDevotee,
	authorize app.Authorize,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := ComposeMiddlewares(
		buildPortMiddleware("admin_delete_devotee", allowedOrigins, rootLogger, sentryMiddleware, adminIPLimit),
		NewAdminTokenMiddleware(authorize),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		phone := r.PathValue("phone")
		ctx = withDevotee(ctx, phone)

		if err := deleteDevotee(ctx, phone); err != nil {
			writeAppError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, deleteSuccessResponse{Success: true})
	}

	return middleware(handler)
}
