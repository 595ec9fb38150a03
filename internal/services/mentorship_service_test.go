package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n8nhub/community_hub/internal/models"
	"github.com/n8nhub/community_hub/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeMentorship struct {
	mentees map[primitive.ObjectID]*models.Mentee
	stages  []models.MentorshipStage
	tasks   []models.MentorshipTask
	notes   []models.MentorshipNote
	todos   []models.MenteeTodo
}

func newFakeMentorship() *fakeMentorship {
	return &fakeMentorship{mentees: map[primitive.ObjectID]*models.Mentee{}}
}

func (f *fakeMentorship) GetMenteeByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Mentee, error) {
	for _, m := range f.mentees {
		if m.UserID == userID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeMentorship) GetMenteeByID(ctx context.Context, id primitive.ObjectID) (*models.Mentee, error) {
	m, ok := f.mentees[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMentorship) ActivateMentee(ctx context.Context, userID primitive.ObjectID) (bool, error) {
	for _, m := range f.mentees {
		if m.UserID == userID {
			m.Status = models.MenteeActive
			return false, nil
		}
	}
	id := primitive.NewObjectID()
	f.mentees[id] = &models.Mentee{ID: id, UserID: userID, Status: models.MenteeActive}
	return true, nil
}

func (f *fakeMentorship) SetMenteeStatus(ctx context.Context, userID primitive.ObjectID, status string) error {
	for _, m := range f.mentees {
		if m.UserID == userID {
			m.Status = status
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeMentorship) UpdateMentee(ctx context.Context, id primitive.ObjectID, fields map[string]interface{}) (*models.Mentee, error) {
	m := f.mentees[id]
	if v, ok := fields["plan_tag"].(string); ok {
		m.PlanTag = v
	}
	if v, ok := fields["mentor_id"].(primitive.ObjectID); ok {
		m.MentorID = &v
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMentorship) ListMentees(ctx context.Context, mentorID *primitive.ObjectID, status string) ([]models.Mentee, error) {
	var out []models.Mentee
	for _, m := range f.mentees {
		if mentorID != nil && (m.MentorID == nil || *m.MentorID != *mentorID) {
			continue
		}
		if status != "" && m.Status != status {
			continue
		}
		out = append(out, *m)
	}
	return out, nil
}

func (f *fakeMentorship) CreateStage(ctx context.Context, s *models.MentorshipStage) (*models.MentorshipStage, error) {
	s.ID = primitive.NewObjectID()
	f.stages = append(f.stages, *s)
	return s, nil
}

func (f *fakeMentorship) GetStages(ctx context.Context, menteeID primitive.ObjectID) ([]models.MentorshipStage, error) {
	var out []models.MentorshipStage
	for _, s := range f.stages {
		if s.MenteeID == menteeID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeMentorship) DeleteStage(ctx context.Context, menteeID, id primitive.ObjectID) error {
	return nil
}

func (f *fakeMentorship) CreateTask(ctx context.Context, t *models.MentorshipTask) (*models.MentorshipTask, error) {
	t.ID = primitive.NewObjectID()
	f.tasks = append(f.tasks, *t)
	return t, nil
}

func (f *fakeMentorship) GetTasks(ctx context.Context, menteeID primitive.ObjectID) ([]models.MentorshipTask, error) {
	var out []models.MentorshipTask
	for _, t := range f.tasks {
		if t.MenteeID == menteeID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeMentorship) SetTaskDone(ctx context.Context, menteeID, id primitive.ObjectID, done bool) error {
	for i := range f.tasks {
		if f.tasks[i].ID == id && f.tasks[i].MenteeID == menteeID {
			f.tasks[i].Done = done
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeMentorship) DeleteTask(ctx context.Context, menteeID, id primitive.ObjectID) error {
	return nil
}

func (f *fakeMentorship) CreateNote(ctx context.Context, n *models.MentorshipNote) (*models.MentorshipNote, error) {
	n.ID = primitive.NewObjectID()
	f.notes = append(f.notes, *n)
	return n, nil
}

func (f *fakeMentorship) GetNotes(ctx context.Context, menteeID primitive.ObjectID) ([]models.MentorshipNote, error) {
	return f.notes, nil
}

func (f *fakeMentorship) DeleteNote(ctx context.Context, menteeID, id primitive.ObjectID) error {
	return nil
}

func (f *fakeMentorship) CreateTodo(ctx context.Context, t *models.MenteeTodo) (*models.MenteeTodo, error) {
	t.ID = primitive.NewObjectID()
	f.todos = append(f.todos, *t)
	return t, nil
}

func (f *fakeMentorship) GetTodos(ctx context.Context, menteeID primitive.ObjectID) ([]models.MenteeTodo, error) {
	var out []models.MenteeTodo
	for _, t := range f.todos {
		if t.MenteeID == menteeID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeMentorship) SetTodoDone(ctx context.Context, menteeID, id primitive.ObjectID, done bool) error {
	for i := range f.todos {
		if f.todos[i].ID == id && f.todos[i].MenteeID == menteeID {
			f.todos[i].Done = done
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeMentorship) DeleteTodo(ctx context.Context, menteeID, id primitive.ObjectID) error {
	return nil
}

type fakeUserFinder map[primitive.ObjectID]models.User

func (f fakeUserFinder) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

type mentorshipFixture struct {
	svc      *MentorshipService
	store    *fakeMentorship
	notifier *fakeNotifier
	mailer   *fakeMailer
	user     primitive.ObjectID
}

func newMentorshipFixture() *mentorshipFixture {
	user := primitive.NewObjectID()
	f := &mentorshipFixture{
		store:    newFakeMentorship(),
		notifier: &fakeNotifier{},
		mailer:   &fakeMailer{},
		user:     user,
	}
	users := fakeUserFinder{user: {ID: user, Username: "bia", Email: "bia@example.com"}}
	f.svc = NewMentorshipService(f.store, users, fakeUserLookup{user: {ID: user, Username: "bia"}},
		&fakeActivities{types: []string{ActivityLessonCompleted}}, f.notifier, f.mailer, "https://hub.test")
	return f
}

func TestActivateMenteeWelcomesOnce(t *testing.T) {
	f := newMentorshipFixture()
	ctx := context.Background()

	require.NoError(t, f.svc.ActivateMentee(ctx, f.user))
	require.NoError(t, f.svc.DeactivateMentee(ctx, f.user))
	require.NoError(t, f.svc.ActivateMentee(ctx, f.user))

	assert.Len(t, f.store.mentees, 1)
	m, err := f.store.GetMenteeByUserID(ctx, f.user)
	require.NoError(t, err)
	assert.Equal(t, models.MenteeActive, m.Status)

	assert.Eventually(t, func() bool { return f.mailer.count() == 1 }, time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return f.notifier.count(NotifMenteeWelcome) == 1 }, time.Second, 10*time.Millisecond)
}

func TestDeactivateMissingMentee(t *testing.T) {
	f := newMentorshipFixture()

	assert.NoError(t, f.svc.DeactivateMentee(context.Background(), primitive.NewObjectID()))
}

func TestMentorScope(t *testing.T) {
	f := newMentorshipFixture()
	ctx := context.Background()
	mentor, stranger := primitive.NewObjectID(), primitive.NewObjectID()
	admin := Viewer{UserID: primitive.NewObjectID(), Admin: true}

	require.NoError(t, f.svc.ActivateMentee(ctx, f.user))
	m, err := f.store.GetMenteeByUserID(ctx, f.user)
	require.NoError(t, err)

	_, err = f.svc.GetMentee(ctx, Viewer{UserID: mentor}, m.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.UpdateMentee(ctx, Viewer{UserID: mentor}, m.ID, MenteeInput{MentorID: strPtr(mentor.Hex())})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := f.svc.UpdateMentee(ctx, admin, m.ID, MenteeInput{MentorID: strPtr(mentor.Hex()), PlanTag: strPtr("pro")})
	require.NoError(t, err)
	assert.Equal(t, "pro", updated.PlanTag)
	assert.Equal(t, "bia", updated.User.Username)

	mine, err := f.svc.ListMentees(ctx, Viewer{UserID: mentor}, "")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := f.svc.ListMentees(ctx, Viewer{UserID: stranger}, "")
	require.NoError(t, err)
	assert.Empty(t, theirs)

	acts, err := f.svc.MenteeActivity(ctx, Viewer{UserID: mentor}, m.ID, 10)
	require.NoError(t, err)
	assert.Len(t, acts, 1)
}

func TestMentorshipBoard(t *testing.T) {
	f := newMentorshipFixture()
	ctx := context.Background()
	admin := Viewer{UserID: primitive.NewObjectID(), Admin: true}

	require.NoError(t, f.svc.ActivateMentee(ctx, f.user))
	m, err := f.store.GetMenteeByUserID(ctx, f.user)
	require.NoError(t, err)

	second, err := f.svc.AddStage(ctx, admin, m.ID, &models.MentorshipStage{Title: "Primeiro cliente", OrderIndex: 2})
	require.NoError(t, err)
	first, err := f.svc.AddStage(ctx, admin, m.ID, &models.MentorshipStage{Title: "Setup", OrderIndex: 1})
	require.NoError(t, err)

	task, err := f.svc.AddTask(ctx, admin, m.ID, &models.MentorshipTask{StageID: first.ID, Title: "Instalar n8n"})
	require.NoError(t, err)
	_, err = f.svc.AddTask(ctx, admin, m.ID, &models.MentorshipTask{StageID: primitive.NewObjectID(), Title: "x"})
	assert.Error(t, err)
	require.NoError(t, f.svc.SetTaskDone(ctx, admin, m.ID, task.ID, true))

	past := time.Now().Add(-time.Hour)
	todo, err := f.svc.AddTodo(ctx, admin, m.ID, &models.MenteeTodo{Title: "Enviar proposta", DueAt: &past})
	require.NoError(t, err)
	_, err = f.svc.AddNote(ctx, admin, m.ID, "Muito engajada")
	require.NoError(t, err)

	d, err := f.svc.GetMentee(ctx, admin, m.ID)
	require.NoError(t, err)
	require.Len(t, d.Stages, 2)
	assert.Equal(t, first.ID, d.Stages[0].ID)
	assert.Equal(t, second.ID, d.Stages[1].ID)
	assert.Equal(t, 1, d.Stages[0].Done)
	assert.Empty(t, d.Stages[1].Tasks)
	assert.Equal(t, 1, d.Overdue)
	assert.Len(t, d.Notes, 1)

	mine, err := f.svc.MyMentorship(ctx, f.user)
	require.NoError(t, err)
	assert.Nil(t, mine.Notes)

	require.NoError(t, f.svc.SetMyTodoDone(ctx, f.user, todo.ID, true))
	mine, err = f.svc.MyMentorship(ctx, f.user)
	require.NoError(t, err)
	assert.True(t, mine.Todos[0].Done)
	assert.Equal(t, 0, mine.Overdue)

	require.NoError(t, f.svc.DeactivateMentee(ctx, f.user))
	_, err = f.svc.MyMentorship(ctx, f.user)
	assert.ErrorIs(t, err, ErrNotFound)
}
