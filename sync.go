package colorcast

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/nathan-osman/go-sunrise"

	"github.com/luminaide/colorcast/internal"
	"github.com/luminaide/colorcast/types"
)

// SyncJob re-runs the extract-and-dispatch pipeline from a fixed image
// source on a fixed frequency, e.g. to keep lights matched to album art
// or a webcam frame.
type SyncJob struct {
	entities      []string
	url           string
	path          string
	extra         map[string]any
	frequency     time.Duration
	startTime     types.TimeString
	onlyAfterDark bool
	nextRunTime   time.Time
}

func (j SyncJob) Hash() string {
	return fmt.Sprint(j.entities, j.url, j.path, j.frequency, j.startTime, j.onlyAfterDark)
}

func (j SyncJob) String() string {
	source := j.url
	if source == "" {
		source = j.path
	}
	return fmt.Sprintf("SyncJob{ sync %q to %v every %s }", source, j.entities, j.frequency)
}

// Entities, FromURL/FromPath, Every
type syncJobBuilder struct {
	job SyncJob
}

func NewSyncJob() syncJobBuilder {
	return syncJobBuilder{
		SyncJob{
			frequency: 0,
			startTime: "00:00",
		},
	}
}

func (b syncJobBuilder) Entities(entityIds ...string) syncJobBuilder {
	b.job.entities = append(b.job.entities, entityIds...)
	return b
}

func (b syncJobBuilder) FromURL(url string) syncJobBuilder {
	b.job.url = url
	return b
}

func (b syncJobBuilder) FromPath(path string) syncJobBuilder {
	b.job.path = path
	return b
}

// Takes a DurationString ("2h", "5m", etc) to set the frequency of the job.
func (b syncJobBuilder) Every(s types.DurationString) syncJobBuilder {
	b.job.frequency = internal.ParseDuration(string(s))
	return b
}

// Takes a TimeString ("HH:MM") to align the first run of the day.
func (b syncJobBuilder) StartingAt(s types.TimeString) syncJobBuilder {
	b.job.startTime = s
	return b
}

// OnlyAfterDark skips runs between local sunrise and sunset, computed
// from the configured home coordinates.
func (b syncJobBuilder) OnlyAfterDark() syncJobBuilder {
	b.job.onlyAfterDark = true
	return b
}

// WithServiceData sets pass-through light.turn_on fields applied on
// every run, such as brightness or transition.
func (b syncJobBuilder) WithServiceData(serviceData map[string]any) syncJobBuilder {
	b.job.extra = serviceData
	return b
}

func (b syncJobBuilder) Build() SyncJob {
	return b.job
}

// RegisterSyncJobs queues jobs for the runner started by Start().
func (app *App) RegisterSyncJobs(jobs ...SyncJob) {
	for _, j := range jobs {
		if j.frequency == 0 {
			slog.Error("A sync job must set a frequency via Every()")
			panic(ErrInvalidArgs)
		}
		if (j.url == "") == (j.path == "") {
			slog.Error("A sync job must set exactly one image source via FromURL() or FromPath()")
			panic(ErrInvalidArgs)
		}
		if len(j.entities) == 0 {
			slog.Error("A sync job must target at least one entity via Entities()")
			panic(ErrInvalidArgs)
		}

		j.nextRunTime = internal.ParseTime(string(j.startTime)).Carbon2Time()
		now := time.Now()
		for j.nextRunTime.Before(now) {
			j.nextRunTime = j.nextRunTime.Add(j.frequency)
		}
		app.syncJobs.Put(Item{
			Value:    j,
			Priority: float64(j.nextRunTime.Unix()),
		})
	}
}

// serviceData shapes the job into the same raw data a
// color_extractor.turn_on service call would carry.
func (j SyncJob) serviceData() map[string]any {
	data := make(map[string]any, len(j.extra)+2)
	for key, value := range j.extra {
		data[key] = value
	}
	data[AttrEntityID] = j.entities
	if j.url != "" {
		data[AttrURL] = j.url
	} else {
		data[AttrPath] = j.path
	}
	return data
}

// app.Start() functions
func runSyncJobs(app *App) {
	if app.syncJobs.Len() == 0 {
		return
	}

	for {
		select {
		case <-app.ctx.Done():
			slog.Info("Sync jobs goroutine shutting down")
			return
		default:
		}

		j, ok := popSyncJob(app)
		if !ok {
			slog.Info("Sync job queue disposed, shutting down runner")
			return
		}

		// run all jobs due before now in case they overlap
		for j.nextRunTime.Before(time.Now()) {
			j.maybeRun(app)
			requeueSyncJob(app, j)

			j, ok = popSyncJob(app)
			if !ok {
				slog.Info("Sync job queue disposed, shutting down runner")
				return
			}
		}

		select {
		case <-time.After(time.Until(j.nextRunTime)):
			// Time elapsed, continue
		case <-app.ctx.Done():
			slog.Info("Sync jobs goroutine shutting down")
			return
		}

		j.maybeRun(app)
		requeueSyncJob(app, j)
	}
}

func (j SyncJob) maybeRun(app *App) {
	if j.onlyAfterDark && !isDark(app.home, time.Now()) {
		return
	}

	go func() {
		call := ServiceCall{Domain: Domain, Service: ServiceTurnOn, Data: j.serviceData()}
		if err := app.handleTurnOn(app.ctx, call); err != nil {
			slog.Warn("Sync job run failed", "job", j.String(), "error", err)
		}
	}()
}

// isDark reports whether t falls outside the sunrise-to-sunset window
// at the given location.
func isDark(home HomeLocation, t time.Time) bool {
	rise, set := sunrise.SunriseSunset(home.Latitude, home.Longitude, t.Year(), t.Month(), t.Day())
	return t.Before(rise) || t.After(set)
}

// popSyncJob blocks until a job is available. ok is false if the queue
// was disposed or returned nothing.
func popSyncJob(app *App) (SyncJob, bool) {
	item, err := app.syncJobs.Get(1)
	if err != nil || len(item) == 0 {
		return SyncJob{}, false
	}
	return item[0].(Item).Value.(SyncJob), true
}

func requeueSyncJob(app *App, j SyncJob) {
	j.nextRunTime = j.nextRunTime.Add(j.frequency)

	app.syncJobs.Put(Item{
		Value:    j,
		Priority: float64(j.nextRunTime.Unix()),
	})
}
