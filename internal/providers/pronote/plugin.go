package pronote

import (
	"context"
	"errors"

	"github.com/cartable-app/cartable/internal/entities"
	"github.com/cartable-app/cartable/internal/providers"
)

const ProviderName = "pronote"

// ErrBadCredentials is what the wire client reports on a rejected login.
var ErrBadCredentials = errors.New("pronote: bad credentials")

var capabilities = providers.NewCapabilitySet(
	providers.CapabilityRefresh,
	providers.CapabilityHomework,
	providers.CapabilityNews,
	providers.CapabilityGrades,
	providers.CapabilityAttendance,
	providers.CapabilityTimetable,
)

// Plugin is a session-bearing Pronote connection.
type Plugin struct {
	client Client
}

// NewFactory returns the provider factory for the given wire client.
func NewFactory(client Client) providers.Factory {
	return func(ctx context.Context, auth entities.Auth) (providers.Plugin, entities.Auth, error) {
		rotated, err := client.Authenticate(ctx, auth)
		if err != nil {
			if errors.Is(err, ErrBadCredentials) {
				return nil, entities.Auth{}, &providers.AuthError{Provider: ProviderName, Cause: err.Error()}
			}
			return nil, entities.Auth{}, providers.Fetchf(ProviderName, "authenticate", err)
		}
		return &Plugin{client: client}, rotated, nil
	}
}

func (p *Plugin) Provider() string {
	return ProviderName
}

func (p *Plugin) Capabilities() providers.CapabilitySet {
	return capabilities
}

func (p *Plugin) Homeworks(ctx context.Context, week int) ([]entities.Homework, error) {
	raws, err := p.client.FetchHomeworks(ctx, week)
	if err != nil {
		return nil, providers.Fetchf(ProviderName, "homeworks", err)
	}
	items := make([]entities.Homework, 0, len(raws))
	for _, raw := range raws {
		items = append(items, mapHomework(raw))
	}
	return items, nil
}

func (p *Plugin) SetHomeworkCompletion(ctx context.Context, item entities.Homework, done bool) (entities.Homework, error) {
	if err := p.client.SetHomeworkStatus(ctx, item.HomeworkID, done); err != nil {
		return item, providers.Fetchf(ProviderName, "set_homework_completion", err)
	}
	item.Done = done
	return item, nil
}

func (p *Plugin) News(ctx context.Context) ([]entities.News, error) {
	raws, err := p.client.FetchNews(ctx)
	if err != nil {
		return nil, providers.Fetchf(ProviderName, "news", err)
	}
	items := make([]entities.News, 0, len(raws))
	for _, raw := range raws {
		items = append(items, mapNews(raw))
	}
	return items, nil
}

func (p *Plugin) Periods(ctx context.Context) ([]entities.Period, error) {
	raws, err := p.client.FetchPeriods(ctx)
	if err != nil {
		return nil, providers.Fetchf(ProviderName, "periods", err)
	}
	periods := make([]entities.Period, 0, len(raws))
	for _, raw := range raws {
		periods = append(periods, mapPeriod(raw))
	}
	return periods, nil
}

func (p *Plugin) GradesForPeriod(ctx context.Context, period entities.Period) (entities.PeriodGrades, error) {
	raw, err := p.client.FetchGrades(ctx, period.Name)
	if err != nil {
		return entities.PeriodGrades{}, providers.Fetchf(ProviderName, "grades", err)
	}
	return mapPeriodGrades(raw), nil
}

func (p *Plugin) AttendanceForPeriod(ctx context.Context, periodName string) (entities.Attendance, error) {
	raw, err := p.client.FetchAttendance(ctx, periodName)
	if err != nil {
		return entities.Attendance{}, providers.Fetchf(ProviderName, "attendance", err)
	}
	return mapAttendance(raw, periodName), nil
}

func (p *Plugin) WeeklyTimetable(ctx context.Context, week int) ([]entities.CourseDay, error) {
	raws, err := p.client.FetchTimetable(ctx, week)
	if err != nil {
		return nil, providers.Fetchf(ProviderName, "timetable", err)
	}
	return mapTimetable(raws), nil
}
