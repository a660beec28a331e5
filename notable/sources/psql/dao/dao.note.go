package dao

import (
	"context"
	"errors"
	"time"

	"notable/notable/sources/models"

	"gorm.io/gorm"
)

type NoteDAO struct {
	DB *gorm.DB
}

func NewNoteDAO(db *gorm.DB) *NoteDAO {
	return &NoteDAO{DB: db}
}

func (dao *NoteDAO) CreateNote(ctx context.Context, note *models.Note) error {
	return dao.DB.WithContext(ctx).Create(note).Error
}

// GetNoteByID returns nil, nil when the user owns no note with that id.
func (dao *NoteDAO) GetNoteByID(ctx context.Context, userID, id string) (*models.Note, error) {
	var note models.Note
	err := dao.DB.WithContext(ctx).First(&note, "id = ? AND user_id = ?", id, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (dao *NoteDAO) GetAllNotesByUser(ctx context.Context, userID string) ([]models.Note, error) {
	notes := []models.Note{}
	err := dao.DB.WithContext(ctx).Where("user_id = ?", userID).Order("updated_at desc").Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}

// UpdateNote reports how many rows matched; zero means not found.
func (dao *NoteDAO) UpdateNote(ctx context.Context, userID, id string, updates map[string]interface{}) (int64, error) {
	updates["updated_at"] = time.Now().UTC()
	res := dao.DB.WithContext(ctx).Model(&models.Note{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (dao *NoteDAO) DeleteNote(ctx context.Context, userID, id string) (int64, error) {
	res := dao.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Note{})
	return res.RowsAffected, res.Error
}
