package devoteerepository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Amund211/japa/internal/domain"
	"github.com/Amund211/japa/internal/logging"
	"github.com/Amund211/japa/internal/reporting"
	"github.com/Amund211/japa/internal/strutils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	columnPhone        = "Phone"
	columnName         = "Name"
	columnTotalCounts  = "Total_Counts"
	columnLastActive   = "Last_Active"
	columnTodayCount   = "Today_Count"
	columnLocation     = "Location"
	columnRegisteredAt = "Registered_At"
)

var csvHeader = []string{
	columnPhone,
	columnName,
	columnTotalCounts,
	columnLastActive,
	columnTodayCount,
	columnLocation,
	columnRegisteredAt,
}

var (
	errMalformedStore  = errors.New("malformed csv store")
	errUnreadableStore = errors.New("unreadable csv store")
)

// Flat file store compatible with the ram_seva_data.csv files written by the old app
//
// Every operation loads the whole file, and writes replace it through a rename. One mutex
// serializes all operations, so a read-modify-write never interleaves with another.
type CSV struct {
	path   string
	tracer trace.Tracer

	mutex sync.Mutex
}

func NewCSV(path string) *CSV {
	return &CSV{
		path:   path,
		tracer: otel.Tracer("japa/devoteerepository/csv"),
	}
}

// Read every devotee in the store
//
// A missing file is an empty store. A malformed file is moved aside and treated as empty.
// A file that exists but cannot be read is also treated as empty here, but writes fail
// until it can be read again.
func (c *CSV) LoadAll(ctx context.Context) []domain.Devotee {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	devotees, _ := c.loadAll(ctx)
	return devotees
}

func (c *CSV) SaveAll(ctx context.Context, devotees []domain.Devotee) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, err := c.loadAll(ctx); errors.Is(err, errUnreadableStore) {
		return err
	}
	return c.saveAll(ctx, devotees)
}

func (c *CSV) FindByPhone(ctx context.Context, phone string) (domain.Devotee, error) {
	ctx, span := c.tracer.Start(ctx, "CSV.FindByPhone")
	defer span.End()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	devotees, _ := c.loadAll(ctx)
	i := slices.IndexFunc(devotees, func(d domain.Devotee) bool { return d.Phone == phone })
	if i == -1 {
		return domain.Devotee{}, domain.ErrDevoteeNotFound
	}
	return devotees[i], nil
}

func (c *CSV) FindByName(ctx context.Context, name string) (domain.Devotee, error) {
	ctx, span := c.tracer.Start(ctx, "CSV.FindByName")
	defer span.End()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	devotees, _ := c.loadAll(ctx)
	i := slices.IndexFunc(devotees, func(d domain.Devotee) bool { return strutils.NamesEqual(d.Name, name) })
	if i == -1 {
		return domain.Devotee{}, domain.ErrDevoteeNotFound
	}
	return devotees[i], nil
}

func (c *CSV) Create(ctx context.Context, devotee domain.Devotee) error {
	ctx, span := c.tracer.Start(ctx, "CSV.Create")
	defer span.End()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	devotees, err := c.loadAll(ctx)
	if err != nil {
		return err
	}
	for _, existing := range devotees {
		if existing.Phone == devotee.Phone {
			return domain.NewIdentityConflict(domain.ErrPhoneBoundToOtherName)
		}
		if strutils.NamesEqual(existing.Name, devotee.Name) {
			return domain.NewIdentityConflict(domain.ErrNameBoundToOtherPhone)
		}
	}

	return c.saveAll(ctx, append(devotees, devotee))
}

func (c *CSV) Update(ctx context.Context, phone string, update UpdateFunc) (domain.Devotee, error) {
	ctx, span := c.tracer.Start(ctx, "CSV.Update")
	defer span.End()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	devotees, err := c.loadAll(ctx)
	if err != nil {
		return domain.Devotee{}, err
	}
	i := slices.IndexFunc(devotees, func(d domain.Devotee) bool { return d.Phone == phone })
	if i == -1 {
		return domain.Devotee{}, domain.ErrDevoteeNotFound
	}

	original := devotees[i]
	updated, err := update(original)
	if err != nil {
		return domain.Devotee{}, err
	}
	updated.Phone = original.Phone
	updated.Name = original.Name
	updated.RegisteredAt = original.RegisteredAt

	devotees[i] = updated
	if err := c.saveAll(ctx, devotees); err != nil {
		return domain.Devotee{}, err
	}

	return updated, nil
}

func (c *CSV) List(ctx context.Context) ([]domain.Devotee, error) {
	ctx, span := c.tracer.Start(ctx, "CSV.List")
	defer span.End()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	devotees, _ := c.loadAll(ctx)
	return devotees, nil
}

func (c *CSV) Delete(ctx context.Context, phone string) error {
	ctx, span := c.tracer.Start(ctx, "CSV.Delete")
	defer span.End()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	devotees, err := c.loadAll(ctx)
	if err != nil {
		return err
	}
	remaining := slices.DeleteFunc(devotees, func(d domain.Devotee) bool { return d.Phone == phone })
	if len(remaining) == len(devotees) {
		return domain.ErrDevoteeNotFound
	}

	return c.saveAll(ctx, remaining)
}

// The returned devotees are always usable for reads. A non-nil error wraps errUnreadableStore
// and means the file is still on disk, so it must not be overwritten.
func (c *CSV) loadAll(ctx context.Context) ([]domain.Devotee, error) {
	file, err := os.Open(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.Devotee{}, nil
	}
	if err != nil {
		err := fmt.Errorf("%w: failed to open %s: %w", errUnreadableStore, c.path, err)
		reporting.Report(ctx, err, map[string]string{"path": c.path})
		return []domain.Devotee{}, err
	}
	defer file.Close()

	devotees, err := readDevotees(file)
	if err != nil && !errors.Is(err, errMalformedStore) {
		err := fmt.Errorf("failed to read %s: %w", c.path, err)
		reporting.Report(ctx, err, map[string]string{"path": c.path})
		return []domain.Devotee{}, err
	}
	if err != nil {
		reporting.Report(ctx, fmt.Errorf("failed to read csv store: %w", err), map[string]string{"path": c.path})

		// Keep the broken file around instead of overwriting it on the next save
		aside := fmt.Sprintf("%s.malformed-%d", c.path, time.Now().Unix())
		if renameErr := os.Rename(c.path, aside); renameErr != nil {
			err := fmt.Errorf("%w: failed to move malformed file aside: %w", errUnreadableStore, renameErr)
			reporting.Report(ctx, err, map[string]string{"path": c.path})
			return []domain.Devotee{}, err
		}
		logging.FromContext(ctx).WarnContext(ctx, "Moved malformed csv store aside", "path", aside)
		return []domain.Devotee{}, nil
	}

	return devotees, nil
}

func (c *CSV) saveAll(ctx context.Context, devotees []domain.Devotee) error {
	dir, base := filepath.Split(c.path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		err := fmt.Errorf("failed to create temporary csv file: %w", err)
		reporting.Report(ctx, err, map[string]string{"path": c.path})
		return err
	}
	defer os.Remove(tmp.Name())

	if err := writeDevotees(tmp, devotees); err != nil {
		tmp.Close()
		err := fmt.Errorf("failed to write csv store: %w", err)
		reporting.Report(ctx, err, map[string]string{"path": c.path})
		return err
	}

	if err := tmp.Close(); err != nil {
		err := fmt.Errorf("failed to close temporary csv file: %w", err)
		reporting.Report(ctx, err, map[string]string{"path": c.path})
		return err
	}

	if err := os.Rename(tmp.Name(), c.path); err != nil {
		err := fmt.Errorf("failed to replace csv store: %w", err)
		reporting.Report(ctx, err, map[string]string{"path": c.path})
		return err
	}

	return nil
}

func readDevotees(r io.Reader) ([]domain.Devotee, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []domain.Devotee{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read header: %w", classifyReadError(err), err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, required := range []string{columnPhone, columnName} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %s", errMalformedStore, required)
		}
	}

	devotees := []domain.Devotee{}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", classifyReadError(err), line, err)
		}

		devotee, err := parseRecord(record, columns)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", errMalformedStore, line, err)
		}
		devotees = append(devotees, devotee)
	}

	return devotees, nil
}

// Only csv syntax errors mean the content is bad. Anything else came from the file itself.
func classifyReadError(err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return errMalformedStore
	}
	return errUnreadableStore
}

func parseRecord(record []string, columns map[string]int) (domain.Devotee, error) {
	field := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	lifetime, err := parseCount(field(columnTotalCounts))
	if err != nil {
		return domain.Devotee{}, fmt.Errorf("invalid %s: %w", columnTotalCounts, err)
	}
	today, err := parseCount(field(columnTodayCount))
	if err != nil {
		return domain.Devotee{}, fmt.Errorf("invalid %s: %w", columnTodayCount, err)
	}

	location := field(columnLocation)
	if location == "" {
		location = domain.UNKNOWN_LOCATION
	}

	var registeredAt time.Time
	if raw := field(columnRegisteredAt); raw != "" {
		registeredAt, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return domain.Devotee{}, fmt.Errorf("invalid %s: %w", columnRegisteredAt, err)
		}
	}

	// Never-valid dates compare unequal to every day, so the next interaction rolls over
	var lastActive domain.Date
	if parsed, err := domain.ParseDate(field(columnLastActive)); err == nil {
		lastActive = parsed
	}

	return domain.Devotee{
		Phone:          field(columnPhone),
		Name:           field(columnName),
		Location:       location,
		LifetimeCount:  lifetime,
		TodayCount:     today,
		LastActiveDate: lastActive,
		RegisteredAt:   registeredAt,
	}, nil
}

// Counts may have been written as floats ("216.0") by the old app
func parseCount(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}

	count, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		f, floatErr := strconv.ParseFloat(raw, 64)
		if floatErr != nil || math.IsNaN(f) || f < 0 || f >= math.MaxInt64 {
			return 0, fmt.Errorf("not a count: %q", raw)
		}
		count = int64(f)
	}

	if count < 0 {
		return 0, fmt.Errorf("negative count: %d", count)
	}
	return count, nil
}

func writeDevotees(w io.Writer, devotees []domain.Devotee) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, d := range devotees {
		registeredAt := ""
		if !d.RegisteredAt.IsZero() {
			registeredAt = d.RegisteredAt.Format(time.RFC3339)
		}

		err := writer.Write([]string{
			d.Phone,
			d.Name,
			strconv.FormatInt(d.LifetimeCount, 10),
			d.LastActiveDate.String(),
			strconv.FormatInt(d.TodayCount, 10),
			d.Location,
			registeredAt,
		})
		if err != nil {
			return fmt.Errorf("failed to write devotee: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
