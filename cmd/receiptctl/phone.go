package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/frontdesk-api/internal/delivery"
	"github.com/jwalitptl/frontdesk-api/internal/model"
)

func phoneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phone <number>...",
		Short: "Normalize phone numbers the way the share path does",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			rawTypes, _ := cmd.Flags().GetString("types")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			phones := delivery.NewPhoneNormalizer(cfg.Delivery.CountryCode, cfg.Delivery.NationalLength)

			var composer *delivery.Composer
			var types []model.ReceiptType
			if name != "" {
				var bad []string
				types, bad = model.ParseReceiptTypes(rawTypes)
				if len(bad) > 0 {
					return fmt.Errorf("unknown receipt types: %v", bad)
				}
				composer, err = delivery.NewComposer(cfg.Hospital.Name)
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, raw := range args {
				phone, err := phones.Normalize(raw)
				if err != nil {
					fmt.Fprintf(out, "%s\tinvalid: %v\n", raw, err)
					failed++
					continue
				}
				if composer == nil {
					fmt.Fprintf(out, "%s\t%s\n", raw, phone)
					continue
				}
				link, err := shareLink(composer, cfg.Delivery.WhatsAppBaseURL, phone, name, types)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s\t%s\t%s\n", raw, phone, link)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d numbers invalid", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().String("name", "", "patient name; prints the share link too")
	cmd.Flags().String("types", "cash", "receipt types named in the share message")
	return cmd
}

func shareLink(composer *delivery.Composer, base, phone, name string, types []model.ReceiptType) (string, error) {
	msg, err := composer.Compose(name, types)
	if err != nil {
		return "", err
	}
	return delivery.WhatsAppLink(base, phone, msg)
}
