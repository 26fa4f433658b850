package locationprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/Amund211/japa/internal/constants"
	"github.com/Amund211/japa/internal/domain"
	"github.com/Amund211/japa/internal/ratelimiting"
	"github.com/Amund211/japa/internal/reporting"
	"github.com/jellydator/ttlcache/v3"
)

const LOCAL_LOCATION = "Local"

// Free tier limit of ip-api.com
const IPAPI_REQUESTS_PER_MINUTE = 45

const cacheTTL = 6 * time.Hour

const maxRequestTime = 2 * time.Second

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type IPAPI struct {
	httpClient HttpClient
	limiter    ratelimiting.RequestLimiter
	cache      *ttlcache.Cache[string, string]
}

func NewIPAPI(httpClient HttpClient, limiter ratelimiting.RequestLimiter) *IPAPI {
	cache := ttlcache.New[string, string](
		ttlcache.WithTTL[string, string](cacheTTL),
		ttlcache.WithDisableTouchOnHit[string, string](),
	)
	go cache.Start()

	return &IPAPI{
		httpClient: httpClient,
		limiter:    limiter,
		cache:      cache,
	}
}

func NewIPAPIRequestLimiter() ratelimiting.RequestLimiter {
	return ratelimiting.NewSlidingWindowLimiter(IPAPI_REQUESTS_PER_MINUTE, time.Minute, time.Now, time.After)
}

func (i *IPAPI) LookupLocation(ctx context.Context, ip string) (string, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return "", fmt.Errorf("%w: invalid ip address '%s'", domain.ErrInvalidInput, ip)
	}
	addr = addr.Unmap()

	if addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() || addr.IsLinkLocalUnicast() {
		return LOCAL_LOCATION, nil
	}

	key := addr.String()
	if item := i.cache.Get(key); item != nil {
		return item.Value(), nil
	}

	var location string
	var lookupErr error
	ran := i.limiter.Limit(ctx, maxRequestTime, func() {
		location, lookupErr = i.lookup(ctx, key)
	})
	if !ran {
		return "", fmt.Errorf("%w: geolocation rate limit reached", domain.ErrTemporarilyUnavailable)
	}
	if lookupErr != nil {
		return "", lookupErr
	}

	i.cache.Set(key, location, ttlcache.DefaultTTL)
	return location, nil
}

func (i *IPAPI) lookup(ctx context.Context, ip string) (string, error) {
	url := fmt.Sprintf("http://ip-api.com/json/%s?fields=status,message,country,regionName,city", ip)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		err := fmt.Errorf("failed to create request: %w", err)
		reporting.Report(ctx, err)
		return "", err
	}

	req.Header.Set("User-Agent", constants.USER_AGENT)

	resp, err := i.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: geolocation request cancelled: %w", domain.ErrTemporarilyUnavailable, err)
		}
		err := fmt.Errorf("failed to send request: %w", err)
		reporting.Report(ctx, err)
		return "", err
	}

	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		err := fmt.Errorf("failed to read response body: %w", err)
		reporting.Report(ctx, err)
		return "", err
	}

	location, err := locationFromIPAPIResponse(resp.StatusCode, data)
	if err != nil {
		err := fmt.Errorf("failed to get location from ip-api response: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"data":   string(data),
			"status": strconv.Itoa(resp.StatusCode),
		})
		return "", err
	}

	return location, nil
}

type ipAPIResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	Country    string `json:"country"`
	RegionName string `json:"regionName"`
	City       string `json:"city"`
}

func locationFromIPAPIResponse(statusCode int, data []byte) (string, error) {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return "", fmt.Errorf("%w: ip-api returned status code %d", domain.ErrTemporarilyUnavailable, statusCode)
	}

	if statusCode != http.StatusOK {
		return "", fmt.Errorf("ip-api returned status code %d", statusCode)
	}

	var response ipAPIResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return "", fmt.Errorf("failed to parse ip-api response: %w", err)
	}

	if response.Status != "success" {
		return "", fmt.Errorf("ip-api lookup failed: %s", response.Message)
	}

	parts := make([]string, 0, 2)
	for _, part := range []string{response.City, response.RegionName, response.Country} {
		part = strings.TrimSpace(part)
		if part == "" || len(parts) == 2 {
			continue
		}
		parts = append(parts, part)
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("ip-api response has no location")
	}

	return strings.Join(parts, ", "), nil
}
