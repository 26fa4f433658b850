package ports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Amund211/japa/internal/app"
	"github.com/Amund211/japa/internal/domain"
	"github.com/Amund211/japa/internal/reporting"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Cause   string `json:"cause"`
}

type countResponse struct {
	Count     int64 `json:"count"`
	Groups    int64 `json:"groups"`
	Remainder int64 `json:"remainder"`
}

type devoteeResponse struct {
	Phone          string        `json:"phone"`
	Name           string        `json:"name"`
	Location       string        `json:"location"`
	LastActiveDate string        `json:"lastActiveDate"`
	RegisteredAt   *time.Time    `json:"registeredAt,omitempty"`
	GroupSize      int64         `json:"groupSize"`
	Today          countResponse `json:"today"`
	Lifetime       countResponse `json:"lifetime"`
}

type devoteeOverviewResponse struct {
	devoteeResponse
	ReminderLink string `json:"reminderLink,omitempty"`
}

type leaderboardEntryResponse struct {
	Rank     int    `json:"rank"`
	Name     string `json:"name"`
	Location string `json:"location"`
	countResponse
}

type festivalResponse struct {
	Name string `json:"name"`
	Date string `json:"date"`
}

type festivalCategoryResponse struct {
	Name      string             `json:"name"`
	Festivals []festivalResponse `json:"festivals"`
}

func toCountResponse(count int64, groupSize int64) countResponse {
	groups := domain.SplitIntoGroups(count, groupSize)
	return countResponse{
		Count:     count,
		Groups:    groups.Whole,
		Remainder: groups.Remainder,
	}
}

func toDevoteeResponse(devotee domain.Devotee, groupSize int64) devoteeResponse {
	var registeredAt *time.Time
	if !devotee.RegisteredAt.IsZero() {
		registeredAt = &devotee.RegisteredAt
	}

	return devoteeResponse{
		Phone:          devotee.Phone,
		Name:           devotee.Name,
		Location:       devotee.Location,
		LastActiveDate: devotee.LastActiveDate.String(),
		RegisteredAt:   registeredAt,
		GroupSize:      groupSize,
		Today:          toCountResponse(devotee.TodayCount, groupSize),
		Lifetime:       toCountResponse(devotee.LifetimeCount, groupSize),
	}
}

func toDevoteeOverviewResponses(overviews []app.DevoteeOverview, groupSize int64) []devoteeOverviewResponse {
	responses := make([]devoteeOverviewResponse, 0, len(overviews))
	for _, overview := range overviews {
		responses = append(responses, devoteeOverviewResponse{
			devoteeResponse: toDevoteeResponse(overview.Devotee, groupSize),
			ReminderLink:    overview.ReminderLink,
		})
	}
	return responses
}

func toLeaderboardResponses(entries []domain.LeaderboardEntry, groupSize int64) []leaderboardEntryResponse {
	responses := make([]leaderboardEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, leaderboardEntryResponse{
			Rank:          entry.Rank,
			Name:          entry.Name,
			Location:      entry.Location,
			countResponse: toCountResponse(entry.Count, groupSize),
		})
	}
	return responses
}

// Group festivals by category, keeping the order categories first appear in
func toFestivalCategoryResponses(festivals []domain.Festival) []festivalCategoryResponse {
	categories := []festivalCategoryResponse{}
	indexByName := map[string]int{}
	for _, festival := range festivals {
		i, ok := indexByName[festival.Category]
		if !ok {
			i = len(categories)
			indexByName[festival.Category] = i
			categories = append(categories, festivalCategoryResponse{
				Name:      festival.Category,
				Festivals: []festivalResponse{},
			})
		}
		categories[i].Festivals = append(categories[i].Festivals, festivalResponse{
			Name: festival.Name,
			Date: festival.Date.String(),
		})
	}
	return categories
}

func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		reporting.Report(ctx, fmt.Errorf("failed to marshal response: %w", err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"cause":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(data)
}

func writeErrorResponse(ctx context.Context, w http.ResponseWriter, statusCode int, cause string) {
	writeJSON(ctx, w, statusCode, errorResponse{Success: false, Cause: cause})
}

// Map an error from the app layer to a status code and a cause safe to show to clients
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "invalid input"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrDevoteeNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrIdentityConflict):
		if errors.Is(err, domain.ErrPhoneBoundToOtherName) {
			return http.StatusConflict, domain.ErrPhoneBoundToOtherName.Error()
		}
		if errors.Is(err, domain.ErrNameBoundToOtherPhone) {
			return http.StatusConflict, domain.ErrNameBoundToOtherPhone.Error()
		}
		return http.StatusConflict, domain.ErrIdentityConflict.Error()
	case errors.Is(err, domain.ErrLifetimeUnderflow):
		return http.StatusUnprocessableEntity, domain.ErrLifetimeUnderflow.Error()
	case errors.Is(err, domain.ErrTemporarilyUnavailable):
		return http.StatusServiceUnavailable, "temporarily unavailable"
	}
	return http.StatusInternalServerError, "internal server error"
}

func writeAppError(ctx context.Context, w http.ResponseWriter, err error) {
	// NOTE: Unexpected errors are reported where they occur
	statusCode, cause := statusForError(err)
	if statusCode == http.StatusBadRequest {
		// Tell the client what was wrong with the input
		cause = err.Error()
	}
	writeErrorResponse(ctx, w, statusCode, cause)
}
