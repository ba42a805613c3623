// Package service implements the application workflows on top of the
// repository, storage and generator layers.
package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"coverly/internal/entity"
	"coverly/internal/generator"
	"coverly/internal/model"
	"coverly/internal/storage"
	"coverly/internal/utils"
)

// ImageGenerator produces an image for a webhook request.
type ImageGenerator interface {
	Generate(ctx context.Context, req generator.Request) (*generator.Result, error)
}

// GenerationService runs the single-image workflow: validate, price, call the
// webhook, store the image and debit the credits in one transaction.
type GenerationService struct {
	repo      model.Repository
	store     storage.Storage
	gen       ImageGenerator
	publicURL func(path string) string
}

func NewGenerationService(repo model.Repository, store storage.Storage, gen ImageGenerator, publicURL func(string) string) *GenerationService {
	return &GenerationService{repo: repo, store: store, gen: gen, publicURL: publicURL}
}

// PublicURL resolves a stored object key to a client-facing URL.
func (s *GenerationService) PublicURL(path string) string {
	if s.publicURL == nil || path == "" {
		return path
	}
	return s.publicURL(path)
}

// buildForm sanitizes the raw request into a generator form.
func buildForm(req entity.GenerateImageRequest) generator.Form {
	return generator.Form{
		ImageType: utils.SanitizeText(req.ImageType),
		Title:     utils.SanitizeText(req.Title),
		Content:   utils.SanitizeText(req.Content),
		Style:     utils.SanitizeText(req.Style),
		Colour:    utils.SanitizeText(req.Colour),
		ImageURL:  utils.SanitizeText(req.ImageURL),
		ImageSize: utils.SanitizeText(req.ImageSize),
		UseBrand:  req.UseBrand,
	}
}

func (s *GenerationService) brandProfile(user *entity.DbUser) *generator.BrandProfile {
	if !user.HasBrandProfile() {
		return nil
	}
	return &generator.BrandProfile{
		Name:       user.BrandName,
		LogoURL:    s.PublicURL(user.BrandLogoPath),
		Website:    user.WebsiteURL,
		Guidelines: user.BrandGuidelines,
	}
}

// Generate runs one generation for the given user. The credit balance is
// checked before any network call; the actual debit happens atomically with
// the insert of the generation row, so a concurrent overdraw still fails.
func (s *GenerationService) Generate(ctx context.Context, userID uint, req entity.GenerateImageRequest) (*entity.DbGeneration, int64, error) {
	form := buildForm(req)
	if err := generator.ValidateForm(form); err != nil {
		return nil, 0, err
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	cost := generator.CreditCost(form)
	if user.Credits < cost {
		return nil, user.Credits, entity.ErrInsufficientCredits
	}

	webhookReq := generator.BuildRequest(form, s.brandProfile(user))
	result, err := s.gen.Generate(ctx, webhookReq)
	if err != nil {
		return nil, user.Credits, err
	}

	imagePath, err := s.store.Save(ctx, result.Data, storage.SaveOptions{
		Category:  storage.CategoryGenerations,
		Extension: result.Extension,
	})
	if err != nil {
		return nil, user.Credits, fmt.Errorf("store generated image: %w", err)
	}

	gen := &entity.DbGeneration{
		UserID:      user.ID,
		ImageType:   form.ImageType,
		Title:       form.Title,
		Content:     form.Content,
		Style:       form.Style,
		Colour:      form.Colour,
		CreditsUsed: cost,
		ImagePath:   imagePath,
	}
	if err := s.repo.CreateGenerationWithDebit(ctx, gen); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id":    user.ID,
			"image_path": imagePath,
		}).Error("persist generation failed, stored image is orphaned")
		return nil, user.Credits, err
	}

	remaining := user.Credits - cost
	if fresh, err := s.repo.GetUserByID(ctx, userID); err == nil {
		remaining = fresh.Credits
	}

	logrus.WithFields(logrus.Fields{
		"user_id":      user.ID,
		"image_type":   form.ImageType,
		"credits_used": cost,
	}).Info("image generated")

	return gen, remaining, nil
}

// HistoryItem converts a stored generation to its client projection.
func (s *GenerationService) HistoryItem(gen *entity.DbGeneration) entity.HistoryItem {
	return entity.HistoryItem{
		ID:          gen.ID,
		Type:        gen.ImageType,
		Title:       gen.Title,
		Content:     gen.Content,
		URL:         s.PublicURL(gen.ImagePath),
		Style:       gen.Style,
		Colour:      gen.Colour,
		CreditsUsed: gen.CreditsUsed,
		Timestamp:   gen.CreatedAt.UnixMilli(),
		CreatedAt:   gen.CreatedAt,
	}
}
