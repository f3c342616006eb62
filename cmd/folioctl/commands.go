package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/josh-kwaku/folio-ledger/internal/auth"
	"github.com/josh-kwaku/folio-ledger/internal/render"
	"github.com/josh-kwaku/folio-ledger/internal/repository"
	"github.com/josh-kwaku/folio-ledger/internal/service"
)

func newMigrateCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Example: `  folioctl migrate
  folioctl migrate --dir ./migrations`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if dir == "" {
				dir = repository.FindMigrationsDir()
			}
			applied, err := repository.ApplyMigrations(cmd.Context(), db, dir)
			if err != nil {
				return err
			}
			logger.Info("migrations applied", "dir", dir, "count", len(applied))
			for _, name := range applied {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "migrations directory (default: located from the working directory)")
	return cmd
}

type tokenFlags struct {
	staffID string
	hotelID string
	email   string
	secret  string
	expiry  time.Duration
}

func newTokenCmd() *cobra.Command {
	var f tokenFlags

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a staff bearer token",
		Example: `  folioctl token --hotel 5b6c... --email desk@hotel.example
  JWT_SECRET=dev folioctl token --hotel 5b6c... --staff 9f1e... --expiry 1h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := issueToken(f, os.Getenv("JWT_SECRET"))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.staffID, "staff", "", "staff id (random when omitted)")
	cmd.Flags().StringVar(&f.hotelID, "hotel", "", "hotel id the token is scoped to")
	cmd.Flags().StringVar(&f.email, "email", "", "staff email")
	cmd.Flags().StringVar(&f.secret, "secret", "", "signing secret (default: $JWT_SECRET)")
	cmd.Flags().DurationVar(&f.expiry, "expiry", 12*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("hotel")
	return cmd
}

func issueToken(f tokenFlags, envSecret string) (string, error) {
	secret := f.secret
	if secret == "" {
		secret = envSecret
	}
	if secret == "" {
		return "", fmt.Errorf("issueToken: no signing secret, set --secret or JWT_SECRET")
	}

	hotelID, err := uuid.Parse(f.hotelID)
	if err != nil {
		return "", fmt.Errorf("issueToken: invalid --hotel: %w", err)
	}
	staffID := uuid.New()
	if f.staffID != "" {
		if staffID, err = uuid.Parse(f.staffID); err != nil {
			return "", fmt.Errorf("issueToken: invalid --staff: %w", err)
		}
	}

	return auth.GenerateToken(auth.Staff{ID: staffID, HotelID: hotelID, Email: f.email}, secret, f.expiry)
}

func newInvoiceCmd() *cobra.Command {
	var (
		hotel  string
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "invoice <invoice-id>",
		Short: "Render an invoice document to a file",
		Example: `  folioctl invoice 0c7d... --hotel 5b6c...
  folioctl invoice 0c7d... --hotel 5b6c... --format xlsx -o statement.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			invoiceID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid invoice id: %w", err)
			}
			hotelID, err := uuid.Parse(hotel)
			if err != nil {
				return fmt.Errorf("invalid --hotel: %w", err)
			}
			f, err := render.ParseFormat(format)
			if err != nil {
				return err
			}

			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			svc, err := newService(db, cfg, logger)
			if err != nil {
				return err
			}

			doc, err := svc.InvoiceDocument(cmd.Context(), hotelID, invoiceID)
			if err != nil {
				return err
			}
			body, err := render.Invoice(f, doc)
			if err != nil {
				return err
			}
			if out == "" {
				out = f.Filename(&doc.Invoice)
			}
			if err := os.WriteFile(out, body, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			logger.Info("invoice rendered", "invoice_number", doc.Invoice.InvoiceNumber, "file", out, "bytes", len(body))
			return nil
		},
	}
	cmd.Flags().StringVar(&hotel, "hotel", "", "hotel id owning the invoice")
	cmd.Flags().StringVar(&format, "format", "pdf", "output format: pdf or xlsx")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default: <invoice-number>.<format>)")
	_ = cmd.MarkFlagRequired("hotel")
	return cmd
}

func newRecalcCmd() *cobra.Command {
	var hotel string

	cmd := &cobra.Command{
		Use:   "recalc <folio-id>",
		Short: "Re-sum a folio's aggregates from its line items and payments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			folioID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid folio id: %w", err)
			}
			hotelID, err := uuid.Parse(hotel)
			if err != nil {
				return fmt.Errorf("invalid --hotel: %w", err)
			}

			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			svc, err := newService(db, cfg, logger)
			if err != nil {
				return err
			}

			folio, err := svc.RecalculateAggregates(cmd.Context(), hotelID, folioID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s total=%s paid=%s balance=%s status=%s\n",
				folio.FolioNumber,
				folio.TotalAmount.StringFixed(2),
				folio.PaidAmount.StringFixed(2),
				folio.BalanceDue.StringFixed(2),
				folio.PaymentStatus,
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&hotel, "hotel", "", "hotel id owning the folio")
	_ = cmd.MarkFlagRequired("hotel")
	return cmd
}

func newHousekeepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "housekeep",
		Short: "Run one maintenance pass: expire idempotency keys and flag overdue invoices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			svc, err := newService(db, cfg, logger)
			if err != nil {
				return err
			}

			hk := service.NewHousekeeper(repository.NewIdempotencyRepository(db), svc, logger, time.Minute)
			hk.RunOnce(cmd.Context())
			return nil
		},
	}
}
