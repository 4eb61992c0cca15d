// Package ecoledirecte wraps the EcoleDirecte portal. It covers homework,
// grades, messaging and the family (kids) view; attendance and timetable go
// through other providers.
package ecoledirecte

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/cartable-app/cartable/internal/entities"
	"github.com/cartable-app/cartable/internal/providers"
)

const ProviderName = "ecoledirecte"

var ErrBadCredentials = errors.New("ecoledirecte: bad credentials")

var capabilities = providers.NewCapabilitySet(
	providers.CapabilityRefresh,
	providers.CapabilityHomework,
	providers.CapabilityGrades,
	providers.CapabilityChatRead,
	providers.CapabilityChatWrite,
	providers.CapabilityKids,
)

// Client is the wire-level EcoleDirecte API, implemented outside the engine.
type Client interface {
	Authenticate(ctx context.Context, auth entities.Auth) (entities.Auth, error)
	FetchHomeworks(ctx context.Context, week int) ([]RawHomework, error)
	FetchPeriods(ctx context.Context) ([]RawPeriod, error)
	FetchGrades(ctx context.Context, periodCode string) (RawPeriodGrades, error)
	FetchMessages(ctx context.Context) ([]RawThread, error)
	SendMessage(ctx context.Context, threadID, content string) (RawMessage, error)
	FetchFamily(ctx context.Context) ([]RawKid, error)
}

type RawHomework struct {
	ID       int    `json:"id"`
	Subject  string `json:"matiere"`
	Content  string `json:"contenu"` // base64 HTML on the wire, decoded by the client
	DueDate  string `json:"pourLe"`  // "2006-01-02"
	Done     bool   `json:"effectue"`
	ToReturn bool   `json:"aRendreEnLigne"`
	IsTest   bool   `json:"interrogation"`
}

type RawPeriod struct {
	Code  string `json:"idPeriode"`
	Name  string `json:"periode"`
	Start string `json:"dateDebut"`
	End   string `json:"dateFin"`
}

type RawPeriodGrades struct {
	Period RawPeriod  `json:"periode"`
	Grades []RawGrade `json:"notes"`
}

type RawGrade struct {
	Subject     string `json:"libelleMatiere"`
	Comment     string `json:"devoir"`
	Date        string `json:"date"`
	Coefficient string `json:"coef"`
	Value       string `json:"valeur"`
	OutOf       string `json:"noteSur"`
	Average     string `json:"moyenneClasse"`
	NonGraded   bool   `json:"nonSignificatif"`
}

type RawThread struct {
	ID         int          `json:"id"`
	Subject    string       `json:"subject"`
	From       string       `json:"from"`
	Date       string       `json:"date"`
	Messages   []RawMessage `json:"messages"`
	Recipients []string     `json:"to"`
}

type RawMessage struct {
	From    string `json:"from"`
	Date    string `json:"date"`
	Content string `json:"content"` // base64 on the wire, decoded by the client
}

type RawKid struct {
	FirstName string `json:"prenom"`
	LastName  string `json:"nom"`
	Class     string `json:"classe"`
	School    string `json:"etablissement"`
	BirthDate string `json:"dateNaissance"`
}

// Plugin is a session-bearing EcoleDirecte connection.
type Plugin struct {
	client Client
}

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

func parseDate(raw string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02", "02/01/2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func parseScore(raw string, nonGraded bool) entities.GradeScore {
	raw = strings.TrimSpace(raw)
	if nonGraded {
		return entities.GradeScore{Status: "ungraded", Disabled: true}
	}
	if raw == "" {
		return entities.GradeScore{Disabled: true}
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil {
		return entities.GradeScore{Status: raw, Disabled: true}
	}
	return entities.GradeScore{Value: &value}
}

func (p *Plugin) Homeworks(ctx context.Context, week int) ([]entities.Homework, error) {
	raws, err := p.client.FetchHomeworks(ctx, week)
	if err != nil {
		return nil, providers.Fetchf(ProviderName, "homeworks", err)
	}
	items := make([]entities.Homework, 0, len(raws))
	for _, raw := range raws {
		format := entities.ReturnFormatNone
		if raw.ToReturn {
			format = entities.ReturnFormatFileUpload
		}
		items = append(items, entities.Homework{
			HomeworkID:   strconv.Itoa(raw.ID),
			Subject:      raw.Subject,
			Content:      raw.Content,
			DueDate:      parseDate(raw.DueDate),
			Done:         raw.Done,
			ReturnFormat: format,
			Exam:         raw.IsTest,
		})
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
		periods = append(periods, entities.Period{
			Name:      raw.Name,
			StartDate: parseDate(raw.Start),
			EndDate:   parseDate(raw.End),
		})
	}
	return periods, nil
}

func (p *Plugin) GradesForPeriod(ctx context.Context, period entities.Period) (entities.PeriodGrades, error) {
	raw, err := p.client.FetchGrades(ctx, period.Name)
	if err != nil {
		return entities.PeriodGrades{}, providers.Fetchf(ProviderName, "grades", err)
	}
	pg := entities.PeriodGrades{Period: entities.Period{
		Name:      raw.Period.Name,
		StartDate: parseDate(raw.Period.Start),
		EndDate:   parseDate(raw.Period.End),
	}}
	if pg.Period.Name == "" {
		pg.Period.Name = period.Name
	}
	for _, g := range raw.Grades {
		coef, err := strconv.ParseFloat(strings.ReplaceAll(g.Coefficient, ",", "."), 64)
		if err != nil || coef == 0 {
			coef = 1
		}
		pg.Grades = append(pg.Grades, entities.Grade{
			SubjectName: g.Subject,
			Description: g.Comment,
			GivenAt:     parseDate(g.Date),
			Coefficient: coef,
			Student:     parseScore(g.Value, g.NonGraded),
			OutOf:       parseScore(g.OutOf, false),
			Average:     parseScore(g.Average, false),
		})
	}
	return pg, nil
}

func (p *Plugin) Chats(ctx context.Context) ([]entities.Chat, error) {
	raws, err := p.client.FetchMessages(ctx)
	if err != nil {
		return nil, providers.Fetchf(ProviderName, "chats", err)
	}
	chats := make([]entities.Chat, 0, len(raws))
	for _, raw := range raws {
		chat := entities.Chat{
			Subject:       raw.Subject,
			Creator:       raw.From,
			LastMessageAt: parseDate(raw.Date),
		}
		for _, m := range raw.Messages {
			chat.Messages = append(chat.Messages, entities.Message{
				Author:  m.From,
				Content: m.Content,
				SentAt:  parseDate(m.Date),
			})
		}
		for _, name := range raw.Recipients {
			chat.Recipients = append(chat.Recipients, entities.Recipient{Name: name})
		}
		chats = append(chats, chat)
	}
	return chats, nil
}

func (p *Plugin) SendMessage(ctx context.Context, chat entities.Chat, content string) (entities.Message, error) {
	raw, err := p.client.SendMessage(ctx, chat.Subject, content)
	if err != nil {
		return entities.Message{}, providers.Fetchf(ProviderName, "send_message", err)
	}
	return entities.Message{
		Author:  raw.From,
		Content: raw.Content,
		SentAt:  parseDate(raw.Date),
	}, nil
}

func (p *Plugin) Kids(ctx context.Context) ([]entities.Kid, error) {
	raws, err := p.client.FetchFamily(ctx)
	if err != nil {
		return nil, providers.Fetchf(ProviderName, "kids", err)
	}
	kids := make([]entities.Kid, 0, len(raws))
	for _, raw := range raws {
		kids = append(kids, entities.Kid{
			FirstName:  raw.FirstName,
			LastName:   raw.LastName,
			ClassName:  raw.Class,
			SchoolName: raw.School,
			BirthDate:  parseDate(raw.BirthDate),
		})
	}
	return kids, nil
}
