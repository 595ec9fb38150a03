package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/n8nhub/community_hub/internal/models"
	"github.com/n8nhub/community_hub/pkg/logger"
	"github.com/n8nhub/community_hub/pkg/validation"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MentorshipStore interface {
	GetMenteeByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Mentee, error)
	GetMenteeByID(ctx context.Context, id primitive.ObjectID) (*models.Mentee, error)
	ActivateMentee(ctx context.Context, userID primitive.ObjectID) (bool, error)
	SetMenteeStatus(ctx context.Context, userID primitive.ObjectID, status string) error
	UpdateMentee(ctx context.Context, id primitive.ObjectID, fields map[string]interface{}) (*models.Mentee, error)
	ListMentees(ctx context.Context, mentorID *primitive.ObjectID, status string) ([]models.Mentee, error)

	CreateStage(ctx context.Context, s *models.MentorshipStage) (*models.MentorshipStage, error)
	GetStages(ctx context.Context, menteeID primitive.ObjectID) ([]models.MentorshipStage, error)
	DeleteStage(ctx context.Context, menteeID, id primitive.ObjectID) error
	CreateTask(ctx context.Context, t *models.MentorshipTask) (*models.MentorshipTask, error)
	GetTasks(ctx context.Context, menteeID primitive.ObjectID) ([]models.MentorshipTask, error)
	SetTaskDone(ctx context.Context, menteeID, id primitive.ObjectID, done bool) error
	DeleteTask(ctx context.Context, menteeID, id primitive.ObjectID) error
	CreateNote(ctx context.Context, n *models.MentorshipNote) (*models.MentorshipNote, error)
	GetNotes(ctx context.Context, menteeID primitive.ObjectID) ([]models.MentorshipNote, error)
	DeleteNote(ctx context.Context, menteeID, id primitive.ObjectID) error
	CreateTodo(ctx context.Context, t *models.MenteeTodo) (*models.MenteeTodo, error)
	GetTodos(ctx context.Context, menteeID primitive.ObjectID) ([]models.MenteeTodo, error)
	SetTodoDone(ctx context.Context, menteeID, id primitive.ObjectID, done bool) error
	DeleteTodo(ctx context.Context, menteeID, id primitive.ObjectID) error
}

// UserFinder loads a single user.
type UserFinder interface {
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// ActivityReader lists the recent activity of a user.
type ActivityReader interface {
	GetRecentActivities(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.Activity, error)
}

// Viewer identifies who is accessing the mentorship area. Admins see every
// mentee, mentors only the ones assigned to them.
type Viewer struct {
	UserID primitive.ObjectID
	Admin  bool
}

type MenteeView struct {
	models.Mentee
	User models.PublicUser `json:"user"`
}

type StageView struct {
	models.MentorshipStage
	Tasks []models.MentorshipTask `json:"tasks"`
	Done  int                     `json:"done"`
}

// MenteeDetail is the full mentorship board of one mentee. Notes are only
// filled for mentors.
type MenteeDetail struct {
	MenteeView
	Stages  []StageView             `json:"stages"`
	Todos   []models.MenteeTodo     `json:"todos"`
	Overdue int                     `json:"overdue_todos"`
	Notes   []models.MentorshipNote `json:"notes,omitempty"`
}

type MenteeInput struct {
	MentorID       *string `json:"mentor_id"`
	PlanTag        *string `json:"plan_tag" validate:"omitempty,max=60"`
	SchedulingURL  *string `json:"scheduling_url" validate:"omitempty,url"`
	CommunityURL   *string `json:"community_url" validate:"omitempty,url"`
	WelcomeMessage *string `json:"welcome_message" validate:"omitempty,max=2000"`
	CurrentStageID *string `json:"current_stage_id"`
}

// MentorshipService manages mentee profiles and their mentorship boards.
// It also reacts to the mentee role being granted or revoked.
type MentorshipService struct {
	repo       MentorshipStore
	users      UserFinder
	publics    UserLookup
	activities ActivityReader
	notifier   Notifier
	mailer     Mailer
	appURL     string
	now        func() time.Time
}

func NewMentorshipService(repo MentorshipStore, users UserFinder, publics UserLookup, activities ActivityReader, notifier Notifier, mailer Mailer, appURL string) *MentorshipService {
	return &MentorshipService{
		repo:       repo,
		users:      users,
		publics:    publics,
		activities: activities,
		notifier:   notifier,
		mailer:     mailer,
		appURL:     appURL,
		now:        time.Now,
	}
}

// ActivateMentee creates the mentee profile, or reactivates an inactive one.
// A newly created mentee is welcomed by email and notification.
func (s *MentorshipService) ActivateMentee(ctx context.Context, userID primitive.ObjectID) error {
	created, err := s.repo.ActivateMentee(ctx, userID)
	if err != nil {
		return err
	}
	logger.Log.WithFields(logrus.Fields{"user_id": userID.Hex(), "created": created}).Info("Mentee activated")
	if !created {
		return nil
	}

	notify(s.notifier, userID, NotifMenteeWelcome, "Bem-vindo à mentoria",
		"Sua área de mentoria já está disponível.", nil)
	s.sendWelcome(ctx, userID)
	return nil
}

func (s *MentorshipService) sendWelcome(ctx context.Context, userID primitive.ObjectID) {
	if s.mailer == nil || s.users == nil {
		return
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID.Hex()).Warn("Failed to load mentee for welcome email")
		return
	}
	name := user.DisplayName
	if name == "" {
		name = user.Username
	}
	body := fmt.Sprintf("Olá, %s!\n\nVocê agora faz parte da mentoria n8n Community Hub.\nAcesse sua área em %s/mentoria\n", name, s.appURL)

	go func(to string) {
		if err := s.mailer.Send(to, "Bem-vindo à mentoria", body); err != nil {
			logger.Log.WithError(err).WithField("user_id", userID.Hex()).Warn("Failed to send mentee welcome email")
		}
	}(user.Email)
}

// DeactivateMentee flips the mentee profile to inactive. Missing profiles are ignored.
func (s *MentorshipService) DeactivateMentee(ctx context.Context, userID primitive.ObjectID) error {
	err := s.repo.SetMenteeStatus(ctx, userID, models.MenteeInactive)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err == nil {
		logger.Log.WithField("user_id", userID.Hex()).Info("Mentee deactivated")
	}
	return err
}

// scoped loads a mentee the viewer is allowed to manage.
func (s *MentorshipService) scoped(ctx context.Context, v Viewer, menteeID primitive.ObjectID) (*models.Mentee, error) {
	m, err := s.repo.GetMenteeByID(ctx, menteeID)
	if err != nil {
		return nil, err
	}
	if v.Admin {
		return m, nil
	}
	if m.MentorID == nil || *m.MentorID != v.UserID {
		return nil, ErrForbidden
	}
	return m, nil
}

func (s *MentorshipService) views(ctx context.Context, mentees []models.Mentee) ([]MenteeView, error) {
	ids := make([]primitive.ObjectID, len(mentees))
	for i, m := range mentees {
		ids[i] = m.UserID
	}
	users := map[primitive.ObjectID]models.PublicUser{}
	if s.publics != nil && len(ids) > 0 {
		var err error
		if users, err = s.publics.PublicUsers(ctx, ids); err != nil {
			return nil, err
		}
	}

	out := make([]MenteeView, len(mentees))
	for i, m := range mentees {
		u, ok := users[m.UserID]
		if !ok {
			u = models.PublicUser{ID: m.UserID}
		}
		out[i] = MenteeView{Mentee: m, User: u}
	}
	return out, nil
}

// ListMentees returns the mentees visible to v filtered by status ("" for all).
func (s *MentorshipService) ListMentees(ctx context.Context, v Viewer, status string) ([]MenteeView, error) {
	if status != "" && status != models.MenteeActive && status != models.MenteeInactive {
		return nil, validation.NewError("status", "status inválido")
	}
	var mentor *primitive.ObjectID
	if !v.Admin {
		mentor = &v.UserID
	}
	mentees, err := s.repo.ListMentees(ctx, mentor, status)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, mentees)
}

func (s *MentorshipService) GetMentee(ctx context.Context, v Viewer, menteeID primitive.ObjectID) (*MenteeDetail, error) {
	m, err := s.scoped(ctx, v, menteeID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, m, true)
}

// MyMentorship returns the board of the calling user, without mentor notes.
func (s *MentorshipService) MyMentorship(ctx context.Context, userID primitive.ObjectID) (*MenteeDetail, error) {
	m, err := s.repo.GetMenteeByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if m.Status != models.MenteeActive {
		return nil, ErrNotFound
	}
	return s.detail(ctx, m, false)
}

func (s *MentorshipService) detail(ctx context.Context, m *models.Mentee, withNotes bool) (*MenteeDetail, error) {
	views, err := s.views(ctx, []models.Mentee{*m})
	if err != nil {
		return nil, err
	}
	stages, err := s.repo.GetStages(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.repo.GetTasks(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	todos, err := s.repo.GetTodos(ctx, m.ID)
	if err != nil {
		return nil, err
	}

	d := &MenteeDetail{MenteeView: views[0], Stages: buildStages(stages, tasks), Todos: todos}
	if d.Todos == nil {
		d.Todos = []models.MenteeTodo{}
	}
	d.Overdue = overdueTodos(d.Todos, s.now())
	if withNotes {
		if d.Notes, err = s.repo.GetNotes(ctx, m.ID); err != nil {
			return nil, err
		}
		if d.Notes == nil {
			d.Notes = []models.MentorshipNote{}
		}
	}
	return d, nil
}

func buildStages(stages []models.MentorshipStage, tasks []models.MentorshipTask) []StageView {
	byStage := make(map[primitive.ObjectID][]models.MentorshipTask)
	for _, t := range tasks {
		byStage[t.StageID] = append(byStage[t.StageID], t)
	}
	sort.SliceStable(stages, func(i, j int) bool { return stages[i].OrderIndex < stages[j].OrderIndex })

	out := make([]StageView, 0, len(stages))
	for _, st := range stages {
		sv := StageView{MentorshipStage: st, Tasks: byStage[st.ID]}
		if sv.Tasks == nil {
			sv.Tasks = []models.MentorshipTask{}
		}
		for _, t := range sv.Tasks {
			if t.Done {
				sv.Done++
			}
		}
		out = append(out, sv)
	}
	return out
}

// UpdateMentee changes the mentor assigned metadata. Only admins can
// reassign the mentor.
func (s *MentorshipService) UpdateMentee(ctx context.Context, v Viewer, menteeID primitive.ObjectID, in MenteeInput) (*MenteeView, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.scoped(ctx, v, menteeID); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if in.MentorID != nil {
		if !v.Admin {
			return nil, ErrForbidden
		}
		if *in.MentorID == "" {
			fields["mentor_id"] = nil
		} else {
			id, err := ParseID(*in.MentorID)
			if err != nil {
				return nil, err
			}
			fields["mentor_id"] = id
		}
	}
	if in.CurrentStageID != nil {
		if *in.CurrentStageID == "" {
			fields["current_stage_id"] = nil
		} else {
			id, err := ParseID(*in.CurrentStageID)
			if err != nil {
				return nil, err
			}
			fields["current_stage_id"] = id
		}
	}
	setString(fields, "plan_tag", in.PlanTag)
	setString(fields, "scheduling_url", in.SchedulingURL)
	setString(fields, "community_url", in.CommunityURL)
	setString(fields, "welcome_message", in.WelcomeMessage)

	m, err := s.repo.UpdateMentee(ctx, menteeID, fields)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, []models.Mentee{*m})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func setString(fields map[string]interface{}, key string, v *string) {
	if v != nil {
		fields[key] = *v
	}
}

// MenteeActivity returns the recent activity of the mentee's user.
func (s *MentorshipService) MenteeActivity(ctx context.Context, v Viewer, menteeID primitive.ObjectID, limit int64) ([]models.Activity, error) {
	m, err := s.scoped(ctx, v, menteeID)
	if err != nil {
		return nil, err
	}
	return s.activities.GetRecentActivities(ctx, m.UserID, limit)
}

func (s *MentorshipService) AddStage(ctx context.Context, v Viewer, menteeID primitive.ObjectID, st *models.MentorshipStage) (*models.MentorshipStage, error) {
	if _, err := s.scoped(ctx, v, menteeID); err != nil {
		return nil, err
	}
	st.MenteeID = menteeID
	if err := validation.Struct(st); err != nil {
		return nil, err
	}
	return s.repo.CreateStage(ctx, st)
}

func (s *MentorshipService) DeleteStage(ctx context.Context, v Viewer, menteeID, stageID primitive.ObjectID) error {
	if _, err := s.scoped(ctx, v, menteeID); err != nil {
		return err
	}
	return s.repo.DeleteStage(ctx, menteeID, stageID)
}

func (s *MentorshipService) AddTask(ctx context.Context, v Viewer, menteeID primitive.ObjectID, t *models.MentorshipTask) (*models.MentorshipTask, error) {
	if _, err := s.scoped(ctx, v, menteeID); err != nil {
		return nil, err
	}
	stages, err := s.repo.GetStages(ctx, menteeID)
	if err != nil {
		return nil, err
	}
	found := false
	for _, st := range stages {
		if st.ID == t.StageID {
			found = true
		}
	}
	if !found {
		return nil, validation.NewError("stage_id", "etapa não encontrada")
	}

	t.MenteeID = menteeID
	t.Done = false
	if err := validation.Struct(t); err != nil {
		return nil, err
	}
	return s.repo.CreateTask(ctx, t)
}

func (s *MentorshipService) SetTaskDone(ctx context.Context, v Viewer, menteeID, taskID primitive.ObjectID, done bool) error {
	if _, err := s.scoped(ctx, v, menteeID); err != nil {
		return err
	}
	return s.repo.SetTaskDone(ctx, menteeID, taskID, done)
}

func (s *MentorshipService) DeleteTask(ctx context.Context, v Viewer, menteeID, taskID primitive.ObjectID) error {
	if _, err := s.scoped(ctx, v, menteeID); err != nil {
		return err
	}
	return s.repo.DeleteTask(ctx, menteeID, taskID)
}

func (s *MentorshipService) AddNote(ctx context.Context, v Viewer, menteeID primitive.ObjectID, content string) (*models.MentorshipNote, error) {
	if _, err := s.scoped(ctx, v, menteeID); err != nil {
		return nil, err
	}
	n := &models.MentorshipNote{MenteeID: menteeID, AuthorID: v.UserID, Content: content}
	if err := validation.Struct(n); err != nil {
		return nil, err
	}
	return s.repo.CreateNote(ctx, n)
}

func (s *MentorshipService) DeleteNote(ctx context.Context, v Viewer, menteeID, noteID primitive.ObjectID) error {
	if _, err := s.scoped(ctx, v, menteeID); err != nil {
		return err
	}
	return s.repo.DeleteNote(ctx, menteeID, noteID)
}

func (s *MentorshipService) AddTodo(ctx context.Context, v Viewer, menteeID primitive.ObjectID, t *models.MenteeTodo) (*models.MenteeTodo, error) {
	if _, err := s.scoped(ctx, v, menteeID); err != nil {
		return nil, err
	}
	t.MenteeID = menteeID
	t.Done = false
	if err := validation.Struct(t); err != nil {
		return nil, err
	}
	return s.repo.CreateTodo(ctx, t)
}

func (s *MentorshipService) DeleteTodo(ctx context.Context, v Viewer, menteeID, todoID primitive.ObjectID) error {
	if _, err := s.scoped(ctx, v, menteeID); err != nil {
		return err
	}
	return s.repo.DeleteTodo(ctx, menteeID, todoID)
}

// SetTodoDone lets a mentor tick any todo of their mentee.
func (s *MentorshipService) SetTodoDone(ctx context.Context, v Viewer, menteeID, todoID primitive.ObjectID, done bool) error {
	if _, err := s.scoped(ctx, v, menteeID); err != nil {
		return err
	}
	return s.repo.SetTodoDone(ctx, menteeID, todoID, done)
}

// SetMyTodoDone lets an active mentee tick their own todo.
func (s *MentorshipService) SetMyTodoDone(ctx context.Context, userID, todoID primitive.ObjectID, done bool) error {
	m, err := s.repo.GetMenteeByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if m.Status != models.MenteeActive {
		return ErrForbidden
	}
	return s.repo.SetTodoDone(ctx, m.ID, todoID, done)
}

// overdueTodos counts open todos past their due date.
func overdueTodos(todos []models.MenteeTodo, now time.Time) int {
	n := 0
	for _, t := range todos {
		if !t.Done && t.DueAt != nil && t.DueAt.Before(now) {
			n++
		}
	}
	return n
}
