package ports

import (
	"log/slog"
	"net/http"

	"github.com/Amund211/japa/internal/app"
)

type calendarSuccessResponse struct {
	Success    bool                       `json:"success"`
	Categories []festivalCategoryResponse `json:"categories"`
}

func MakeCalendarHandler(
	getCalendar app.GetCalendar,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := buildPortMiddleware("calendar", allowedOrigins, rootLogger, sentryMiddleware, ipLimit)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		festivals, err := getCalendar(ctx)
		if err != nil {
			writeAppError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, calendarSuccessResponse{
			Success:    true,
			Categories: toFestivalCategoryResponses(festivals),
		})
	}

	return middleware(handler)
}
