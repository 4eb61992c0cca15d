// Command syncdemo creates a demo cache database, runs a full refresh pass
// against a canned in-memory Pronote feed and prints the cached view.
// Usage: go run cmd/syncdemo/main.go [-db path/to/demo.db]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/cartable-app/cartable/internal/accounts"
	"github.com/cartable-app/cartable/internal/database"
	"github.com/cartable-app/cartable/internal/engine"
	"github.com/cartable-app/cartable/internal/entities"
	"github.com/cartable-app/cartable/internal/journal"
	"github.com/cartable-app/cartable/internal/logger"
	"github.com/cartable-app/cartable/internal/providers"
	"github.com/cartable-app/cartable/internal/providers/pronote"
)

const defaultDemoDatabasePath = "./demo.db"

func main() {
	dbPath := flag.String("db", defaultDemoDatabasePath, "path to the demo database file")
	flag.Parse()

	logger.Init("info", "console")
	log := logger.Get()

	if err := os.Remove(*dbPath); err != nil && !os.IsNotExist(err) {
		log.Fatal().Err(err).Msg("failed to remove existing demo database")
	}

	db, err := database.New(database.Options{Path: *dbPath})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create database")
	}
	defer db.Close()

	registry := providers.NewRegistry()
	registry.Register(pronote.ProviderName, pronote.NewFactory(&cannedClient{}))

	manager := accounts.NewManager(registry, nil, accounts.AlwaysOnline{})
	eng := engine.New(db, manager, journal.New("./demo-journal"))

	ctx := context.Background()

	account := entities.Account{
		FirstName:  "Jeanne",
		LastName:   "Martin",
		SchoolName: "Collège Jean Moulin",
		ClassName:  "4e B",
		Services:   []entities.ServiceAccount{{Provider: pronote.ProviderName}},
	}
	if err := eng.CreateAccount(ctx, &account); err != nil {
		log.Fatal().Err(err).Msg("failed to create demo account")
	}

	if err := eng.RefreshAccount(ctx, account); err != nil {
		log.Warn().Err(err).Msg("refresh completed with errors")
	}

	printHomework(eng, account.ID)
	printGrades(eng, account.ID)
	printNews(eng, account.ID)

	log.Info().Str("path", *dbPath).Msg("demo database generated")
}

func printHomework(eng *engine.Engine, accountID string) {
	items, err := eng.GetHomework(accountID, time.Now().AddDate(0, 0, -7), time.Now().AddDate(0, 0, 14))
	if err != nil {
		logger.Get().Warn().Err(err).Msg("failed to read homework")
		return
	}
	fmt.Printf("\nHomework (%d):\n", len(items))
	for _, h := range items {
		status := " "
		if h.Done {
			status = "x"
		}
		fmt.Printf("  [%s] %s — due %s\n", status, h.Subject, h.DueDate.Format("Mon 02 Jan"))
	}
}

func printGrades(eng *engine.Engine, accountID string) {
	periods, err := eng.GetPeriods(accountID)
	if err != nil || len(periods) == 0 {
		return
	}
	pg, err := eng.GetGrades(accountID, periods[0].ID)
	if err != nil {
		logger.Get().Warn().Err(err).Msg("failed to read grades")
		return
	}
	fmt.Printf("\nGrades for %s (%d marks):\n", pg.Period.Name, len(pg.Grades))
	for _, g := range pg.Grades {
		if g.Student.Usable() {
			fmt.Printf("  %s: %.1f (coef %.1f)\n", g.SubjectName, *g.Student.Value, g.Coefficient)
		} else {
			fmt.Printf("  %s: %s\n", g.SubjectName, g.Student.Status)
		}
	}
	if pg.OverallAverage.Usable() {
		fmt.Printf("  overall average: %.2f/20\n", *pg.OverallAverage.Value)
	}
}

func printNews(eng *engine.Engine, accountID string) {
	items, err := eng.GetNews(accountID)
	if err != nil {
		logger.Get().Warn().Err(err).Msg("failed to read news")
		return
	}
	fmt.Printf("\nNews (%d):\n", len(items))
	for _, n := range items {
		fmt.Printf("  %s — %s\n", n.PublishedAt.Format("02 Jan"), n.Title)
	}
}

// cannedClient serves a fixed Pronote feed from memory.
type cannedClient struct{}

func (c *cannedClient) Authenticate(ctx context.Context, auth entities.Auth) (entities.Auth, error) {
	return entities.Auth{AccessToken: "demo-token", Username: auth.Username}, nil
}

func (c *cannedClient) FetchHomeworks(ctx context.Context, week int) ([]pronote.RawHomework, error) {
	due := time.Now().AddDate(0, 0, 2).Format("2006-01-02")
	return []pronote.RawHomework{
		{ID: "hw-1", Subject: "MATHEMATIQUES", Description: "<p>Exercices 12 à 15 p. 84</p>", DueDate: due, ReturnMode: 0},
		{ID: "hw-2", Subject: "HISTOIRE-GEOGRAPHIE", Description: "<p>Réviser le chapitre 3</p>", DueDate: due, IsExam: true},
		{ID: "hw-3", Subject: "ANGLAIS LV1", Description: "<p>Essay: my favourite book</p>", DueDate: due, ReturnMode: 2},
	}, nil
}

func (c *cannedClient) FetchNews(ctx context.Context) ([]pronote.RawNews, error) {
	return []pronote.RawNews{
		{Title: "Sortie scolaire au musée", Content: "Prévoir un pique-nique.", Author: "Mme Dupont", Category: "Vie scolaire", Date: time.Now().Format("2006-01-02"), Important: true},
		{Title: "Photos de classe", Content: "Les photos sont disponibles.", Author: "Secrétariat", Date: time.Now().AddDate(0, 0, -3).Format("2006-01-02")},
	}, nil
}

func (c *cannedClient) FetchPeriods(ctx context.Context) ([]pronote.RawPeriod, error) {
	return []pronote.RawPeriod{
		{Name: "Trimestre 1", Start: "2026-09-01", End: "2026-11-30"},
	}, nil
}

func (c *cannedClient) FetchGrades(ctx context.Context, periodName string) (pronote.RawPeriodGrades, error) {
	return pronote.RawPeriodGrades{
		Period: pronote.RawPeriod{Name: periodName, Start: "2026-09-01", End: "2026-11-30"},
		Subjects: []pronote.RawSubject{
			{Name: "MATHEMATIQUES", Average: "13,5", ClassAverage: "11,2", Max: "18", Min: "4", OutOf: "20"},
			{Name: "ANGLAIS LV1", Average: "15", ClassAverage: "12,8", Max: "19", Min: "7", OutOf: "20"},
		},
		Grades: []pronote.RawGrade{
			{Subject: "MATHEMATIQUES", Comment: "Contrôle fractions", Date: "2026-09-20", Coefficient: "2", Value: "14,5", OutOf: "20", Average: "11"},
			{Subject: "ANGLAIS LV1", Comment: "Oral presentation", Date: "2026-09-22", Coefficient: "1", Value: "15", OutOf: "20", Average: "13"},
			{Subject: "MATHEMATIQUES", Comment: "Interrogation surprise", Date: "2026-09-25", Coefficient: "1", Value: "Absent", OutOf: "20"},
		},
	}, nil
}

func (c *cannedClient) FetchAttendance(ctx context.Context, periodName string) (pronote.RawAttendance, error) {
	return pronote.RawAttendance{
		Delays: []pronote.RawDelay{
			{Date: "2026-09-18T08:05:00", Minutes: 10, Justified: true, Justification: "Bus en retard"},
		},
	}, nil
}

func (c *cannedClient) FetchTimetable(ctx context.Context, week int) ([]pronote.RawLesson, error) {
	day := time.Now().Format("2006-01-02")
	return []pronote.RawLesson{
		{Subject: "MATHEMATIQUES", Teacher: "M. Bernard", Room: "B204", Start: day + "T08:00:00", End: day + "T09:00:00"},
		{Subject: "ANGLAIS LV1", Teacher: "Mrs Smith", Room: "A112", Start: day + "T09:00:00", End: day + "T10:00:00", Status: "Cours annulé"},
	}, nil
}

func (c *cannedClient) SetHomeworkStatus(ctx context.Context, homeworkID string, done bool) error {
	return nil
}
