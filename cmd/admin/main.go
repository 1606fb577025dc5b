package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/legphel-eats/fnb-dashboard/internal/auth"
	"github.com/legphel-eats/fnb-dashboard/internal/billing"
	"github.com/legphel-eats/fnb-dashboard/internal/config"
	"github.com/legphel-eats/fnb-dashboard/internal/dashboard"
	"github.com/legphel-eats/fnb-dashboard/internal/enum"
	"github.com/legphel-eats/fnb-dashboard/internal/export"
	"github.com/legphel-eats/fnb-dashboard/internal/gateway"
)

const usage = `usage: admin <command> [flags]

commands:
  hash-password   print a bcrypt hash for ADMIN_PASSWORD_HASH / MANAGER_PASSWORD_HASH
  mint-token      print an access token for an operator
  export          write the bill report workbook for a date range
  delete-bill     delete a bill upstream (requires -yes)`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "hash-password":
		err = hashPassword(args)
	case "mint-token":
		err = mintToken(args)
	case "export":
		err = exportBills(args)
	case "delete-bill":
		err = deleteBill(args)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

func hashPassword(args []string) error {
	fs := flag.NewFlagSet("hash-password", flag.ExitOnError)
	password := fs.String("password", "", "Password to hash")
	fs.Parse(args) //nolint:errcheck

	// Fall back to environment variables
	if *password == "" {
		*password = os.Getenv("ADMIN_PASSWORD")
	}

	hashed, err := auth.HashPassword(*password)
	if err != nil {
		return err
	}
	fmt.Println(hashed)
	return nil
}

func mintToken(args []string) error {
	cfg := config.Load()

	fs := flag.NewFlagSet("mint-token", flag.ExitOnError)
	email := fs.String("email", cfg.AdminEmail, "Operator email")
	role := fs.String("role", enum.RoleOwner, "Operator role (OWNER or MANAGER)")
	fs.Parse(args) //nolint:errcheck

	if *role != enum.RoleOwner && *role != enum.RoleManager {
		return fmt.Errorf("unknown role %q", *role)
	}
	if cfg.JWTSecret == "dev-secret-change-in-production" {
		log.Println("WARNING: Signing with the default JWT secret. Set JWT_SECRET in production!")
	}

	op := auth.Operator{Email: *email, Role: *role}
	token, err := auth.GenerateToken(cfg.JWTSecret, op.ID(), op.Email, op.Role)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func exportBills(args []string) error {
	cfg := config.Load()

	fs := flag.NewFlagSet("export", flag.ExitOnError)
	start := fs.String("start", "", "Start date (YYYY-MM-DD or DD-MM-YYYY), default 30 days before end")
	end := fs.String("end", "", "End date, default today")
	status := fs.String("status", "", "Payment status filter")
	out := fs.String("out", "", "Output file, default bill_report_{start}_to_{end}.xlsx")
	fs.Parse(args) //nolint:errcheck

	req := dashboard.ExportRequest{Filter: dashboard.Filter{Status: *status}}
	var err error
	if *start != "" {
		if req.Filter.Start, err = billing.ParseDate(*start); err != nil {
			return err
		}
	}
	if *end != "" {
		if req.Filter.End, err = billing.ParseDate(*end); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	dash := newDashboard(cfg)
	defer dash.Close()
	if _, err := dash.LoadBills(ctx); err != nil {
		return err
	}

	data, err := dash.PrepareExport(ctx, req)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := export.WriteBillReport(&buf, data); err != nil {
		return err
	}
	path := *out
	if path == "" {
		path = export.BillReportFilename(data.Start, data.End)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return err
	}
	log.Printf("Exported %d bills to %s", len(data.Bills), path)
	return nil
}

func deleteBill(args []string) error {
	cfg := config.Load()

	fs := flag.NewFlagSet("delete-bill", flag.ExitOnError)
	billNo := fs.String("bill", "", "Bill number to delete")
	yes := fs.Bool("yes", false, "Confirm the deletion")
	fs.Parse(args) //nolint:errcheck

	if *billNo == "" {
		return fmt.Errorf("-bill is required")
	}
	confirmer := dashboard.Decline
	if *yes {
		confirmer = dashboard.AlwaysConfirm
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	dash := newDashboard(cfg)
	defer dash.Close()
	if _, err := dash.LoadBills(ctx); err != nil {
		return err
	}
	if err := dash.DeleteBill(ctx, *billNo, confirmer); err != nil {
		if !*yes {
			return fmt.Errorf("%w (rerun with -yes)", err)
		}
		return err
	}
	log.Printf("Deleted bill %s", *billNo)
	return nil
}

func newDashboard(cfg *config.Config) *dashboard.Dashboard {
	gw := gateway.New(gateway.Options{
		BaseURL:     cfg.APIBaseURL,
		BillsPath:   cfg.BillsEndpoint,
		DetailsPath: cfg.DetailsEndpoint,
		Timeout:     cfg.RequestTimeout,
		RPS:         cfg.UpstreamRPS,
	})
	return dashboard.New(gw, dashboard.Options{
		Concurrency:      cfg.FetchConcurrency,
		RecentWindowDays: cfg.RecentWindowDays,
		Location:         cfg.Location(),
	})
}
