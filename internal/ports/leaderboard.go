package ports

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Amund211/japa/internal/app"
	"github.com/Amund211/japa/internal/domain"
)

type leaderboardSuccessResponse struct {
	Success bool                       `json:"success"`
	Period  string                     `json:"period"`
	Entries []leaderboardEntryResponse `json:"entries"`
}

func MakeLeaderboardHandler(
	getLeaderboard app.GetLeaderboard,
	groupSize int64,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := buildPortMiddleware("leaderboard", allowedOrigins, rootLogger, sentryMiddleware, ipLimit)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		query := r.URL.Query()

		rawPeriod := query.Get("period")
		if rawPeriod == "" {
			rawPeriod = string(domain.LeaderboardToday)
		}
		period, err := domain.ParseLeaderboardPeriod(rawPeriod)
		if err != nil {
			writeAppError(ctx, w, err)
			return
		}

		limit := app.DEFAULT_LEADERBOARD_LIMIT
		if rawLimit := query.Get("limit"); rawLimit != "" {
			limit, err = strconv.Atoi(rawLimit)
			if err != nil {
				writeErrorResponse(ctx, w, http.StatusBadRequest, fmt.Sprintf("invalid limit '%s'", rawLimit))
				return
			}
		}

		entries, err := getLeaderboard(ctx, period, limit)
		if err != nil {
			writeAppError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, leaderboardSuccessResponse{
			Success: true,
			Period:  string(period),
			Entries: toLeaderboardResponses(entries, groupSize),
		})
	}

	return middleware(handler)
}
