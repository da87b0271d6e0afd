package services

import (
	"context"
	"strings"

	"github.com/mrlokans/bookshare/internal/apperr"
	"github.com/mrlokans/bookshare/internal/entities"
	"github.com/mrlokans/bookshare/internal/logger"
)

const materialsFolder = "materials"

type MaterialService struct {
	tx        Transactor
	materials MaterialStore
	ratings   RatingStore
	blobs     BlobUploader
	cleaner   BlobCleaner
	log       *logger.Logger
}

func NewMaterialService(tx Transactor, materials MaterialStore, ratings RatingStore, blobs BlobUploader, cleaner BlobCleaner, log *logger.Logger) *MaterialService {
	return &MaterialService{tx: tx, materials: materials, ratings: ratings, blobs: blobs, cleaner: cleaner, log: log}
}

type CreateMaterialInput struct {
	Name        string
	Description string
	Tags        []string
	UserID      uint
	File        *Upload
}

// UpdateMaterialInput replaces the descriptive fields. A nil File keeps the
// stored file; a nil Tags keeps the stored tags.
type UpdateMaterialInput struct {
	ID          uint
	Name        string
	Description string
	Tags        []string
	File        *Upload
}

func (s *MaterialService) Create(ctx context.Context, in CreateMaterialInput) (*entities.Material, error) {
	if in.File == nil {
		return nil, apperr.Validation("file is required")
	}
	tags, bad, ok := entities.ParseTags(in.Tags)
	if !ok {
		return nil, apperr.Validation("unknown tag %q", bad)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = in.File.Filename
	}

	url, err := s.blobs.Upload(ctx, in.File.Content, in.File.ContentType, materialsFolder, in.File.Filename)
	if err != nil {
		return nil, apperr.Unavailable("upload material", err)
	}

	m := &entities.Material{
		Name:        name,
		Description: in.Description,
		Type:        entities.MaterialTypeFromFilename(in.File.Filename),
		Tags:        tags,
		Path:        url,
		UserID:      in.UserID,
	}
	if err := s.materials.Create(ctx, m); err != nil {
		s.cleaner.Cleanup(ctx, url)
		return nil, apperr.Unavailable("create material", err)
	}
	s.log.Info("Material created", "material_id", m.ID, "type", m.Type)
	return m, nil
}

func (s *MaterialService) Get(ctx context.Context, id uint) (*entities.Material, error) {
	m, err := s.materials.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "material", id)
	}
	return m, nil
}

func (s *MaterialService) List(ctx context.Context) ([]entities.Material, error) {
	ms, err := s.materials.ListAll(ctx)
	if err != nil {
		return nil, apperr.Unavailable("list materials", err)
	}
	return ms, nil
}

func (s *MaterialService) SearchByName(ctx context.Context, name string) ([]entities.Material, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperr.Validation("name is required")
	}
	ms, err := s.materials.SearchByName(ctx, name)
	if err != nil {
		return nil, apperr.Unavailable("search materials", err)
	}
	return ms, nil
}

func (s *MaterialService) FilterByTag(ctx context.Context, raw string) ([]entities.Material, error) {
	tag, ok := entities.ParseTag(raw)
	if !ok {
		return nil, apperr.Validation("unknown tag %q", raw)
	}
	ms, err := s.materials.ListByTag(ctx, tag)
	if err != nil {
		return nil, apperr.Unavailable("filter materials", err)
	}
	return ms, nil
}

// Update rewrites the material. When a new file is given it is uploaded
// first and the old one is removed after the row is saved.
func (s *MaterialService) Update(ctx context.Context, in UpdateMaterialInput) (*entities.Material, error) {
	m, err := s.materials.GetByID(ctx, in.ID)
	if err != nil {
		return nil, lookupErr(err, "material", in.ID)
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		m.Name = name
	}
	m.Description = in.Description
	if in.Tags != nil {
		tags, bad, ok := entities.ParseTags(in.Tags)
		if !ok {
			return nil, apperr.Validation("unknown tag %q", bad)
		}
		m.Tags = tags
	}

	oldPath := ""
	if in.File != nil {
		url, err := s.blobs.Upload(ctx, in.File.Content, in.File.ContentType, materialsFolder, in.File.Filename)
		if err != nil {
			return nil, apperr.Unavailable("upload material", err)
		}
		oldPath = m.Path
		m.Path = url
		m.Type = entities.MaterialTypeFromFilename(in.File.Filename)
	}

	if err := s.materials.Save(ctx, m); err != nil {
		if in.File != nil {
			s.cleaner.Cleanup(ctx, m.Path)
		}
		return nil, apperr.Unavailable("update material", err)
	}
	if oldPath != "" && oldPath != m.Path {
		s.cleaner.Cleanup(ctx, oldPath)
	}
	s.log.Info("Material updated", "material_id", m.ID, "file_replaced", in.File != nil)
	return m, nil
}

// Delete removes the material and its votes, then its file.
func (s *MaterialService) Delete(ctx context.Context, id uint) error {
	var m *entities.Material
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		var err error
		m, err = s.materials.GetByID(ctx, id)
		if err != nil {
			return lookupErr(err, "material", id)
		}
		if err := s.ratings.DeleteByMaterial(ctx, id); err != nil {
			return apperr.Unavailable("delete ratings", err)
		}
		if err := s.materials.Delete(ctx, id); err != nil {
			return apperr.Unavailable("delete material", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if m.Path != "" {
		s.cleaner.Cleanup(ctx, m.Path)
	}
	s.log.Info("Material deleted", "material_id", id)
	return nil
}
