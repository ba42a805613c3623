package api

import (
	"strings"
	"sync"
	"time"

	"coverly/internal/auth"
	"coverly/internal/billing"
	"coverly/internal/config"
	"coverly/internal/generator"
	"coverly/internal/mailer"
	"coverly/internal/model"
	"coverly/internal/service"
	"coverly/internal/storage"
)

// HTTPHandler wires the HTTP surface to the service layer.
type HTTPHandler struct {
	cfg               config.Config
	repo              model.Repository
	storage           storage.Storage
	storagePublicBase string
	authManager       *auth.Manager

	generationService *service.GenerationService
	bulkService       *service.BulkService
	archiver          *service.Archiver
	billing           *billing.StripeBilling
	mailer            *mailer.Mailer

	// serializes the count-then-create bootstrap in Register so only one
	// account can observe an empty users table
	registerMu sync.Mutex

	// SSE client registry keyed by client ID
	sseClients map[string][]chan sseMessage
	sseMu      sync.Mutex
}

func NewHTTPHandler(cfg config.Config, repo model.Repository, store storage.Storage) (*HTTPHandler, error) {
	expiry := time.Duration(cfg.JWTExpirationMinutes) * time.Minute
	authManager, err := auth.NewManager(cfg.JWTSecret, cfg.JWTIssuer, expiry)
	if err != nil {
		return nil, err
	}

	handler := &HTTPHandler{
		cfg:               cfg,
		repo:              repo,
		storage:           store,
		storagePublicBase: normalisePublicBase(cfg.StoragePublicBaseURL),
		authManager:       authManager,
		billing:           billing.NewStripeBilling(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL),
		mailer:            mailer.NewMailer(cfg.ResendAPIKey, cfg.MailFrom),
		sseClients:        make(map[string][]chan sseMessage),
	}

	webhookClient := generator.NewClient(
		cfg.GenerationWebhookURL,
		time.Duration(cfg.GenerationTimeoutSeconds)*time.Second,
	)
	handler.generationService = service.NewGenerationService(repo, store, webhookClient, handler.publicURL)
	handler.bulkService = service.NewBulkService(
		handler.generationService,
		service.BulkOptions{
			ItemDelay: time.Duration(cfg.BulkItemDelayMillis) * time.Millisecond,
			Retention: time.Duration(cfg.BulkBatchRetentionMinutes) * time.Minute,
		},
		handler.notifyBulkProgress,
	)
	handler.archiver = service.NewArchiver(store, handler.publicURL, cfg.BulkArchiveConcurrency)

	return handler, nil
}

func normalisePublicBase(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		trimmed = "/files"
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return strings.TrimRight(trimmed, "/")
	}
	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	return strings.TrimRight(trimmed, "/")
}
