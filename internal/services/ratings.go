package services

import (
	"context"

	"github.com/mrlokans/bookshare/internal/apperr"
	"github.com/mrlokans/bookshare/internal/database"
	"github.com/mrlokans/bookshare/internal/entities"
	"github.com/mrlokans/bookshare/internal/logger"
)

// RatingService records one vote per user per material and keeps the
// material's running sum and count in step with the stored votes.
type RatingService struct {
	tx        Transactor
	materials MaterialStore
	users     UserStore
	ratings   RatingStore
	log       *logger.Logger
}

func NewRatingService(tx Transactor, materials MaterialStore, users UserStore, ratings RatingStore, log *logger.Logger) *RatingService {
	return &RatingService{tx: tx, materials: materials, users: users, ratings: ratings, log: log}
}

// AddRating stores the user's vote and adds it to the material's aggregate.
// The vote and the aggregate update commit together.
func (s *RatingService) AddRating(ctx context.Context, materialID, userID uint, value int) (*entities.Material, error) {
	if value < entities.MinRatingValue || value > entities.MaxRatingValue {
		return nil, apperr.Validation("rating must be between %d and %d", entities.MinRatingValue, entities.MaxRatingValue)
	}

	var material *entities.Material
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		if err := s.checkParticipants(ctx, materialID, userID); err != nil {
			return err
		}
		rated, err := s.ratings.Exists(ctx, userID, materialID)
		if err != nil {
			return apperr.Unavailable("check rating", err)
		}
		if rated {
			return apperr.Conflict("user %d already rated material %d", userID, materialID)
		}

		rating := &entities.Rating{Value: value, UserID: userID, MaterialID: materialID}
		if err := s.ratings.Create(ctx, rating); err != nil {
			if database.IsUniqueViolation(err) {
				return apperr.Conflict("user %d already rated material %d", userID, materialID)
			}
			return apperr.Unavailable("create rating", err)
		}
		if err := s.materials.ApplyRating(ctx, materialID, value); err != nil {
			return lookupErr(err, "material", materialID)
		}
		material, err = s.materials.GetByID(ctx, materialID)
		if err != nil {
			return lookupErr(err, "material", materialID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Material rated", "material_id", materialID, "user_id", userID, "value", value,
		"count", material.RatingCount, "average", material.AverageRating())
	return material, nil
}

// GetUserRating returns the user's vote on the material, or 0 if they have
// not voted.
func (s *RatingService) GetUserRating(ctx context.Context, materialID, userID uint) (int, error) {
	if err := s.checkParticipants(ctx, materialID, userID); err != nil {
		return 0, err
	}
	rating, err := s.ratings.Find(ctx, userID, materialID)
	if err != nil {
		if database.IsNotFound(err) {
			return 0, nil
		}
		return 0, apperr.Unavailable("load rating", err)
	}
	return rating.Value, nil
}

func (s *RatingService) checkParticipants(ctx context.Context, materialID, userID uint) error {
	ok, err := s.materials.Exists(ctx, materialID)
	if err != nil {
		return apperr.Unavailable("load material", err)
	}
	if !ok {
		return apperr.NotFound("material", materialID)
	}
	ok, err = s.users.Exists(ctx, userID)
	if err != nil {
		return apperr.Unavailable("load user", err)
	}
	if !ok {
		return apperr.NotFound("user", userID)
	}
	return nil
}
