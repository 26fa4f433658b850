package ports

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Amund211/japa/internal/app"
	"github.com/Amund211/japa/internal/domain"
	"github.com/Amund211/japa/internal/logging"
	"github.com/Amund211/japa/internal/ratelimiting"
	"github.com/Amund211/japa/internal/reporting"
)

const maxRequestBodySize = 4 << 10

var ipLimit = rateLimit{
	refillPerSecond: 2,
	burstSize:       120,
	keyFunc:         ratelimiting.IPKeyFunc,
}

// NOTE: Rate limiting based on user controlled value
var phoneLimit = rateLimit{
	refillPerSecond: 0.5,
	burstSize:       30,
	keyFunc:         ratelimiting.PhoneKeyFunc,
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %w", domain.ErrInvalidInput, err)
	}
	return nil
}

type registerRequest struct {
	Phone string `json:"phone"`
	Name  string `json:"name"`
}

type devoteeSuccessResponse struct {
	Success bool            `json:"success"`
	Created *bool           `json:"created,omitempty"`
	Devotee devoteeResponse `json:"devotee"`
}

func MakeRegisterHandler(
	register app.Register,
	groupSize int64,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := buildPortMiddleware("register", allowedOrigins, rootLogger, sentryMiddleware, ipLimit)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var request registerRequest
		if err := decodeBody(w, r, &request); err != nil {
			writeAppError(ctx, w, err)
			return
		}

		ctx = withDevotee(ctx, request.Phone)

		devotee, created, err := register(ctx, request.Phone, request.Name, ratelimiting.ClientIP(r))
		if err != nil {
			writeAppError(ctx, w, err)
			return
		}

		ctx = logging.AddMetaToContext(ctx, slog.Bool("created", created))

		statusCode := http.StatusOK
		if created {
			statusCode = http.StatusCreated
		}

		writeJSON(ctx, w, statusCode, devoteeSuccessResponse{
			Success: true,
			Created: &created,
			Devotee: toDevoteeResponse(devotee, groupSize),
		})
	}

	return middleware(handler)
}

func MakeGetDevoteeHandler(
	getDevotee app.GetDevotee,
	groupSize int64,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := buildPortMiddleware("get_devotee", allowedOrigins, rootLogger, sentryMiddleware, ipLimit, phoneLimit)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		phone := r.PathValue("phone")
		ctx = withDevotee(ctx, phone)

		devotee, err := getDevotee(ctx, phone)
		if err != nil {
			writeAppError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, devoteeSuccessResponse{
			Success: true,
			Devotee: toDevoteeResponse(devotee, groupSize),
		})
	}

	return middleware(handler)
}

const (
	countModeAdd       = "add"
	countModeOverwrite = "overwrite"
)

type countRequest struct {
	Mode  string `json:"mode"`
	Unit  string `json:"unit"`
	Value *int64 `json:"value"`
}

func MakeRecordCountHandler(
	accrue app.Accrue,
	overwriteToday app.OverwriteToday,
	groupSize int64,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := buildPortMiddleware("record_count", allowedOrigins, rootLogger, sentryMiddleware, ipLimit, phoneLimit)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		phone := r.PathValue("phone")
		ctx = withDevotee(ctx, phone)

		var request countRequest
		if err := decodeBody(w, r, &request); err != nil {
			writeAppError(ctx, w, err)
			return
		}

		if request.Value == nil {
			writeErrorResponse(ctx, w, http.StatusBadRequest, "missing value")
			return
		}

		unit, err := domain.ParseEntryUnit(request.Unit)
		if err != nil {
			writeAppError(ctx, w, err)
			return
		}

		ctx = reporting.AddExtrasToContext(ctx, map[string]string{
			"mode": request.Mode,
			"unit": string(unit),
		})
		ctx = logging.AddMetaToContext(ctx,
			slog.String("mode", request.Mode),
			slog.String("unit", string(unit)),
			slog.Int64("value", *request.Value),
		)

		var devotee domain.Devotee
		switch request.Mode {
		case countModeAdd:
			devotee, err = accrue(ctx, phone, *request.Value, unit)
		case countModeOverwrite:
			devotee, err = overwriteToday(ctx, phone, *request.Value, unit)
		default:
			writeErrorResponse(ctx, w, http.StatusBadRequest, fmt.Sprintf("unknown mode '%s'", request.Mode))
			return
		}
		if err != nil {
			writeAppError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, devoteeSuccessResponse{
			Success: true,
			Devotee: toDevoteeResponse(devotee, groupSize),
		})
	}

	return middleware(handler)
}

func MakeResetTodayHandler(
	resetToday app.ResetToday,
	groupSize int64,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := buildPortMiddleware("reset_today", allowedOrigins, rootLogger, sentryMiddleware, ipLimit, phoneLimit)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		phone := r.PathValue("phone")
		ctx = withDevotee(ctx, phone)

		devotee, err := resetToday(ctx, phone)
		if err != nil {
			writeAppError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, devoteeSuccessResponse{
			Success: true,
			Devotee: toDevoteeResponse(devotee, groupSize),
		})
	}

	return middleware(handler)
}
