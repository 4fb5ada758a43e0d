// Package bootstrap builds the long-lived components shared by the binaries
// from the loaded configuration.
package bootstrap

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/frontdesk-api/internal/config"
	"github.com/jwalitptl/frontdesk-api/internal/delivery"
	"github.com/jwalitptl/frontdesk-api/internal/receipt/render"
	"github.com/jwalitptl/frontdesk-api/internal/receipt/snapshot"
	"github.com/jwalitptl/frontdesk-api/pkg/logger"
	"github.com/jwalitptl/frontdesk-api/pkg/metrics"
)

// NewLogger builds the application logger and installs it as the global
// zerolog logger used by the HTTP middleware.
func NewLogger(cfg *config.Config) *logger.Logger {
	l := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		Console:    cfg.Log.Console,
	})
	log.Logger = l.ZL
	return l
}

func NewRenderer(cfg *config.Config) (*render.TemplateRenderer, error) {
	return render.New(render.Options{
		Letterhead: render.Letterhead{
			Name:    cfg.Hospital.Name,
			Address: cfg.Hospital.Address,
			Phone:   cfg.Hospital.Phone,
			Email:   cfg.Hospital.Email,
		},
		PrimaryColor:   cfg.Hospital.PrimaryColor,
		AccentColor:    cfg.Hospital.AccentColor,
		CurrencySymbol: cfg.Hospital.CurrencySymbol,
	})
}

func NewConverter(cfg *config.Config) (*snapshot.Converter, error) {
	return snapshot.New(snapshot.Options{
		WidthPx:       cfg.Snapshot.WidthPx,
		HeightPx:      cfg.Snapshot.HeightPx,
		Scale:         cfg.Snapshot.Scale,
		FallbackColor: cfg.Snapshot.FallbackColor,
	})
}

// Delivery is the wired delivery stack.
type Delivery struct {
	Dispatcher *delivery.Dispatcher
	Store      *delivery.DocumentStore
}

// NewDelivery wires saver, store, previewer, composer and the optional
// mailer. events may be nil.
func NewDelivery(cfg *config.Config, events delivery.EventRecorder, l *logger.Logger, m *metrics.Metrics) (*Delivery, error) {
	saver, err := delivery.NewSilentSaver(cfg.Delivery.SilentSave, cfg.Delivery.SaveDir)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare save directory: %w", err)
	}
	store := delivery.NewDocumentStore(cfg.Delivery.PreviewTTL, cfg.Delivery.PublicBaseURL)

	var previewer delivery.Previewer = delivery.NewStorePreviewer(store)
	if cfg.Delivery.Previewer == "shell" {
		previewer = delivery.NewShellPreviewer(cfg.Delivery.ShellPreviewURL, cfg.Delivery.ShellTimeout, &l.ZL)
	}

	composer, err := delivery.NewComposer(cfg.Hospital.Name)
	if err != nil {
		return nil, err
	}

	var mailer delivery.Mailer
	if cfg.SMTP.Enabled {
		mailer = delivery.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	}

	dispatcher := delivery.NewDispatcher(saver, store, previewer, composer, mailer, events, delivery.Config{
		CountryCode:     cfg.Delivery.CountryCode,
		NationalLength:  cfg.Delivery.NationalLength,
		SettleDelay:     cfg.Delivery.SettleDelay,
		WhatsAppBaseURL: cfg.Delivery.WhatsAppBaseURL,
	}, l, m)

	return &Delivery{Dispatcher: dispatcher, Store: store}, nil
}
