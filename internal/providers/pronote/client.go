// Package pronote wraps the Pronote school portal behind the plugin
// abstraction. The wire client (HTTP, session negotiation) is injected; this
// package owns authentication orchestration and the mapping of Pronote's
// payloads into the shared domain model.
package pronote

import (
	"context"

	"github.com/cartable-app/cartable/internal/entities"
)

// Client is the wire-level Pronote API, implemented outside the engine.
type Client interface {
	// Authenticate establishes a session. Pronote rotates the token on
	// every login, so the returned blob replaces the stored one.
	Authenticate(ctx context.Context, auth entities.Auth) (entities.Auth, error)

	FetchHomeworks(ctx context.Context, week int) ([]RawHomework, error)
	FetchNews(ctx context.Context) ([]RawNews, error)
	FetchPeriods(ctx context.Context) ([]RawPeriod, error)
	FetchGrades(ctx context.Context, periodName string) (RawPeriodGrades, error)
	FetchAttendance(ctx context.Context, periodName string) (RawAttendance, error)
	FetchTimetable(ctx context.Context, week int) ([]RawLesson, error)
	SetHomeworkStatus(ctx context.Context, homeworkID string, done bool) error
}

// Raw payloads as Pronote delivers them. Dates are "2006-01-02T15:04:05" or
// "2006-01-02" strings, numbers are French-formatted ("12,5") and scores may
// be replaced by status markers ("Absent", "Disp", "NonNote").

type RawHomework struct {
	ID          string          `json:"id"`
	Subject     string          `json:"matiere"`
	Description string          `json:"descriptif"`
	DueDate     string          `json:"pourLe"`
	Done        bool            `json:"effectue"`
	ReturnMode  int             `json:"modeRendu"` // 0 none, 1 paper, 2 upload
	IsExam      bool            `json:"interrogation"`
	Attachments []RawAttachment `json:"piecesJointes"`
}

type RawAttachment struct {
	Kind int    `json:"type"` // 0 link, 1 file
	Name string `json:"nom"`
	URL  string `json:"url"`
}

type RawNews struct {
	Title       string          `json:"titre"`
	Content     string          `json:"contenu"`
	Author      string          `json:"auteur"`
	Category    string          `json:"categorie"`
	Date        string          `json:"date"`
	Important   bool            `json:"important"`
	Attachments []RawAttachment `json:"piecesJointes"`
}

type RawPeriod struct {
	Name  string `json:"nom"`
	Start string `json:"dateDebut"`
	End   string `json:"dateFin"`
}

type RawPeriodGrades struct {
	Period   RawPeriod    `json:"periode"`
	Subjects []RawSubject `json:"matieres"`
	Grades   []RawGrade   `json:"notes"`
}

type RawSubject struct {
	Name         string `json:"nom"`
	Average      string `json:"moyenne"`
	ClassAverage string `json:"moyenneClasse"`
	Max          string `json:"moyenneMax"`
	Min          string `json:"moyenneMin"`
	OutOf        string `json:"baremeParDefaut"`
}

type RawGrade struct {
	Subject     string `json:"matiere"`
	Comment     string `json:"commentaire"`
	Date        string `json:"date"`
	Coefficient string `json:"coefficient"`
	Value       string `json:"note"`
	OutOf       string `json:"bareme"`
	Average     string `json:"moyenneClasse"`
	Max         string `json:"noteMax"`
	Min         string `json:"noteMin"`
	Bonus       bool   `json:"bonus"`
	Optional    bool   `json:"facultatif"`
}

type RawAttendance struct {
	Delays       []RawDelay       `json:"retards"`
	Absences     []RawAbsence     `json:"absences"`
	Observations []RawObservation `json:"observations"`
	Punishments  []RawPunishment  `json:"punitions"`
}

type RawDelay struct {
	Date          string `json:"date"`
	Minutes       int    `json:"duree"`
	Justified     bool   `json:"justifie"`
	Justification string `json:"motif"`
}

type RawAbsence struct {
	From          string `json:"dateDebut"`
	To            string `json:"dateFin"`
	Hours         string `json:"heuresManquees"` // "4h30"
	Justified     bool   `json:"justifie"`
	Justification string `json:"motif"`
}

type RawObservation struct {
	Date         string `json:"date"`
	SectionName  string `json:"section"`
	SubjectName  string `json:"matiere"`
	Reason       string `json:"observation"`
	ShouldNotify bool   `json:"avecARObservation"`
}

type RawPunishment struct {
	Date    string `json:"date"`
	GivenBy string `json:"demandeur"`
	Nature  string `json:"nature"`
	Reason  string `json:"motif"`
	Minutes int    `json:"duree"`
}

type RawLesson struct {
	Subject string `json:"matiere"`
	Teacher string `json:"professeur"`
	Room    string `json:"salle"`
	Start   string `json:"debut"`
	End     string `json:"fin"`
	Status  string `json:"statut"` // "", "Cours annulé", "Cours modifié", "Devoir surveillé"
	Color   string `json:"couleur"`
}
