package services

import (
	"context"

	"github.com/n8nhub/community_hub/internal/models"
	"github.com/n8nhub/community_hub/pkg/logger"
	"github.com/n8nhub/community_hub/pkg/storage"
	"github.com/n8nhub/community_hub/pkg/validation"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NoteStore interface {
	CreateNote(ctx context.Context, note *models.UserNote) (*models.UserNote, error)
	GetNoteByID(ctx context.Context, id primitive.ObjectID) (*models.UserNote, error)
	GetNotesByUser(ctx context.Context, userID primitive.ObjectID, lessonID *primitive.ObjectID) ([]models.UserNote, error)
	UpdateNoteAndReturn(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.UserNote, error)
	AddMedia(ctx context.Context, id primitive.ObjectID, media models.NoteMedia) (*models.UserNote, error)
	RemoveMedia(ctx context.Context, id primitive.ObjectID, key string) error
	DeleteNote(ctx context.Context, id primitive.ObjectID) error
}

type NoteInput struct {
	Title    *string `json:"title" validate:"omitempty,max=200"`
	Content  *string `json:"content"`
	LessonID *string `json:"lesson_id"`
}

// NoteService manages the private notes of a user and their attachments.
type NoteService struct {
	repo     NoteStore
	uploader storage.Uploader
}

func NewNoteService(repo NoteStore, uploader storage.Uploader) *NoteService {
	return &NoteService{repo: repo, uploader: uploader}
}

func (s *NoteService) owned(ctx context.Context, userID, noteID primitive.ObjectID) (*models.UserNote, error) {
	note, err := s.repo.GetNoteByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if note.UserID != userID {
		logger.Log.WithFields(logrus.Fields{
			"user_id": userID.Hex(),
			"note_id": noteID.Hex(),
		}).Warn("Unauthorized note access")
		return nil, ErrForbidden
	}
	return note, nil
}

func (s *NoteService) List(ctx context.Context, userID primitive.ObjectID, lessonID *primitive.ObjectID) ([]models.UserNote, error) {
	notes, err := s.repo.GetNotesByUser(ctx, userID, lessonID)
	if err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []models.UserNote{}
	}
	return notes, nil
}

func (s *NoteService) Get(ctx context.Context, userID, noteID primitive.ObjectID) (*models.UserNote, error) {
	return s.owned(ctx, userID, noteID)
}

func (s *NoteService) Create(ctx context.Context, userID primitive.ObjectID, in NoteInput) (*models.UserNote, error) {
	note := &models.UserNote{UserID: userID}
	if in.Title != nil {
		note.Title = *in.Title
	}
	if in.Content != nil {
		note.Content = *in.Content
	}
	if in.LessonID != nil && *in.LessonID != "" {
		id, err := ParseID(*in.LessonID)
		if err != nil {
			return nil, err
		}
		note.LessonID = &id
	}
	if err := validation.Struct(note); err != nil {
		return nil, err
	}
	return s.repo.CreateNote(ctx, note)
}

// Update changes the fields present in in. An empty lesson_id detaches the
// note from its lesson.
func (s *NoteService) Update(ctx context.Context, userID, noteID primitive.ObjectID, in NoteInput) (*models.UserNote, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.owned(ctx, userID, noteID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Title != nil {
		if *in.Title == "" {
			return nil, validation.NewError("title", "título é obrigatório")
		}
		updates["title"] = *in.Title
	}
	if in.Content != nil {
		updates["content"] = *in.Content
	}
	if in.LessonID != nil {
		if *in.LessonID == "" {
			updates["lesson_id"] = nil
		} else {
			id, err := ParseID(*in.LessonID)
			if err != nil {
				return nil, err
			}
			updates["lesson_id"] = id
		}
	}
	return s.repo.UpdateNoteAndReturn(ctx, noteID, updates)
}

// Delete removes the note and its stored media.
func (s *NoteService) Delete(ctx context.Context, userID, noteID primitive.ObjectID) error {
	note, err := s.owned(ctx, userID, noteID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteNote(ctx, noteID); err != nil {
		return err
	}
	for _, m := range note.Media {
		s.deleteObject(ctx, m.Key)
	}
	return nil
}

var noteThumbnail = storage.ImageOptions{Width: 320, Height: 180}

// AttachMedia uploads an image (up to 10MB) or video (up to 50MB) to the note.
func (s *NoteService) AttachMedia(ctx context.Context, userID, noteID primitive.ObjectID, u MediaUpload) (*models.UserNote, error) {
	if _, err := s.owned(ctx, userID, noteID); err != nil {
		return nil, err
	}
	m, err := storeMedia(ctx, s.uploader, storage.NotePolicy, "notes/"+userID.Hex(), u)
	if err != nil {
		return nil, err
	}

	media := models.NoteMedia{
		URL:         m.URL,
		Key:         m.Key,
		Kind:        string(m.Kind),
		ContentType: u.ContentType,
		Size:        u.Size,
	}
	if m.Kind == storage.KindImage {
		media.ThumbnailURL = storage.TransformURL(m.URL, noteThumbnail)
	}

	note, err := s.repo.AddMedia(ctx, noteID, media)
	if err != nil {
		s.deleteObject(ctx, m.Key)
		return nil, err
	}
	return note, nil
}

// RemoveMedia detaches the attachment with the given URL and deletes the object.
func (s *NoteService) RemoveMedia(ctx context.Context, userID, noteID primitive.ObjectID, url string) error {
	note, err := s.owned(ctx, userID, noteID)
	if err != nil {
		return err
	}
	key := ""
	for _, m := range note.Media {
		if m.URL == url {
			key = m.Key
		}
	}
	if key == "" {
		return ErrNotFound
	}
	if err := s.repo.RemoveMedia(ctx, noteID, key); err != nil {
		return err
	}
	s.deleteObject(ctx, key)
	return nil
}

func (s *NoteService) deleteObject(ctx context.Context, key string) {
	if s.uploader == nil || key == "" {
		return
	}
	if err := s.uploader.Delete(ctx, key); err != nil {
		logger.Log.WithError(err).WithField("key", key).Warn("Failed to delete stored media")
	}
}
