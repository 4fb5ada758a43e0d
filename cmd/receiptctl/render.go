package main

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/frontdesk-api/internal/bootstrap"
	"github.com/jwalitptl/frontdesk-api/internal/middleware"
	"github.com/jwalitptl/frontdesk-api/internal/model"
	"github.com/jwalitptl/frontdesk-api/internal/receipt/snapshot"
	receiptService "github.com/jwalitptl/frontdesk-api/internal/service/receipt"
	"github.com/jwalitptl/frontdesk-api/pkg/validator"
)

// recordFile is the on-disk form of a record. A file without a "fields"
// object is read as a bare field map.
type recordFile struct {
	Kind      model.RecordKind       `json:"kind" validate:"omitempty,recordkind"`
	SeqID     int64                  `json:"seq_id" validate:"gte=0"`
	VisitDate string                 `json:"visit_date" validate:"omitempty,datetime=2006-01-02"`
	Fields    map[string]interface{} `json:"fields"`
}

var recordValidator = mustValidator()

func mustValidator() *validator.Validator {
	v, err := validator.New("validate", middleware.DomainValidators(), middleware.DomainMessages())
	if err != nil {
		panic(err)
	}
	return v
}

func readRecord(path string) (*model.Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read record file: %w", err)
	}

	var rf recordFile
	if err := json.Unmarshal(raw, &rf); err != nil {
		return nil, fmt.Errorf("failed to parse record file: %w", err)
	}
	if rf.Fields == nil {
		rf = recordFile{}
		if err := json.Unmarshal(raw, &rf.Fields); err != nil {
			return nil, fmt.Errorf("failed to parse record fields: %w", err)
		}
	}
	if err := recordValidator.Struct(rf); err != nil {
		return nil, fmt.Errorf("invalid record file: %w", err)
	}
	if rf.Kind == "" {
		rf.Kind = model.RecordKindPatient
	}

	visit, err := parseVisitDate(rf.VisitDate, time.Now())
	if err != nil {
		return nil, err
	}

	record := &model.Record{
		Kind:      rf.Kind,
		SeqID:     rf.SeqID,
		VisitDate: visit,
		Fields:    model.JSONMap(rf.Fields),
		CreatedBy: "receiptctl",
	}
	record.ID = uuid.New()
	return record, nil
}

// parseVisitDate reads YYYY-MM-DD; an empty value means today.
func parseVisitDate(raw string, today time.Time) (time.Time, error) {
	if raw == "" {
		return today, nil
	}
	visit, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid visit_date %q: %w", raw, err)
	}
	return visit, nil
}

// staticResolver hands the pipeline a record that never touched the
// database.
type staticResolver struct {
	record *model.Record
}

func (r staticResolver) Resolve(context.Context, model.RecordRef) (*model.Record, error) {
	return r.record, nil
}

type capturedPage struct {
	region string
	img    image.Image
}

// pageRecorder keeps every captured region so it can be written out as
// PNG next to the PDF.
type pageRecorder struct {
	inner receiptService.Rasterizer
	pages []capturedPage
}

func (p *pageRecorder) Snapshot(ctx context.Context, page *snapshot.Page, regionID string) (image.Image, error) {
	img, err := p.inner.Snapshot(ctx, page, regionID)
	if err != nil {
		return nil, err
	}
	p.pages = append(p.pages, capturedPage{region: regionID, img: img})
	return img, nil
}

// save writes the pages as dir/NN-region.png, shrinking anything wider
// than maxWidth.
func (p *pageRecorder) save(dir string, maxWidth int) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}
	paths := make([]string, 0, len(p.pages))
	for i, pg := range p.pages {
		img := pg.img
		if maxWidth > 0 && img.Bounds().Dx() > maxWidth {
			img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
		}
		path := filepath.Join(dir, fmt.Sprintf("%02d-%s.png", i+1, pg.region))
		if err := imaging.Save(img, path); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func renderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <record.json>",
		Short: "Render receipts for a record file into a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rawTypes, _ := cmd.Flags().GetString("types")
			out, _ := cmd.Flags().GetString("out")
			pngDir, _ := cmd.Flags().GetString("png")
			pngWidth, _ := cmd.Flags().GetInt("png-width")
			htmlOut, _ := cmd.Flags().GetString("html")

			types, bad := model.ParseReceiptTypes(rawTypes)
			if len(bad) > 0 {
				return fmt.Errorf("unknown receipt types: %v", bad)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := bootstrap.NewLogger(cfg)

			record, err := readRecord(args[0])
			if err != nil {
				return err
			}
			renderer, err := bootstrap.NewRenderer(cfg)
			if err != nil {
				return err
			}
			converter, err := bootstrap.NewConverter(cfg)
			if err != nil {
				return err
			}

			recorder := &pageRecorder{inner: converter}
			svc := receiptService.NewService(staticResolver{record: record}, renderer, recorder, nil, logger, nil)
			ctx := cmd.Context()
			ref := model.RecordRef{ID: record.ID}

			if htmlOut != "" {
				html, err := svc.PreviewHTML(ctx, ref, types)
				if err != nil {
					return err
				}
				if err := os.WriteFile(htmlOut, html, 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", htmlOut, err)
				}
			}

			built, err := svc.Build(ctx, ref, types)
			if err != nil {
				return err
			}
			if out == "" {
				out = built.Filename
			}
			if err := os.WriteFile(out, built.Document.Bytes, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d pages)\n", out, built.Document.Pages)

			if pngDir != "" {
				paths, err := recorder.save(pngDir, pngWidth)
				if err != nil {
					return err
				}
				for _, p := range paths {
					fmt.Fprintln(cmd.OutOrStdout(), p)
				}
			}
			return nil
		},
	}
	cmd.Flags().String("types", "cash", "comma separated receipt types")
	cmd.Flags().String("out", "", "output PDF path (default: generated filename)")
	cmd.Flags().String("png", "", "also write each page as PNG into this directory")
	cmd.Flags().Int("png-width", 0, "shrink PNG pages wider than this")
	cmd.Flags().String("html", "", "also write the rendered HTML to this path")
	return cmd
}
