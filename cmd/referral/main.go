package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	referralroot "github.com/learnspace/referral"
	"github.com/learnspace/referral/internal/config"
	"github.com/learnspace/referral/internal/domain"
	"github.com/learnspace/referral/internal/repository"
	"github.com/learnspace/referral/internal/service"
	"github.com/shopspring/decimal"
)

const usage = `usage: referral <command> [flags]

commands:
  generate-code  --owner N                                ensure an account and print its code
  apply          --code C --user N [--course ID --price P] apply a referral code
  complete       --owner N --txn UUID                     complete a pending referral
  cancel         --owner N --txn UUID                     cancel a pending referral
  stats          --owner N                                print account statistics
  rewards        --owner N                                list available rewards
  redeem         --owner N --reward UUID                  redeem a reward
`

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Run migrations
	migrationsFS, err := fs.Sub(referralroot.MigrationsFS, "migrations")
	if err != nil {
		slog.Error("failed to load embedded migrations", "error", err)
		os.Exit(1)
	}
	if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	store := repository.NewPostgresStore(pool)

	if err := run(ctx, os.Args[1], os.Args[2:], store, cfg); err != nil {
		slog.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, args []string, store repository.Store, cfg *config.Config) error {
	switch command {
	case "generate-code":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		owner := fs.Int64("owner", 0, "owner user id")
		fs.Parse(args)

		svc := service.NewReferralService(store, fixedCatalog{}, cfg)
		acct, err := svc.EnsureAccount(ctx, *owner)
		if err != nil {
			return err
		}
		fmt.Println(acct.Code)
		return nil

	case "apply":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		code := fs.String("code", "", "referral code")
		user := fs.Int64("user", 0, "referred user id")
		course := fs.String("course", "", "course id")
		price := fs.Float64("price", 0, "course price")
		fs.Parse(args)

		catalog := fixedCatalog{price: decimal.NewFromFloat(*price)}
		svc := service.NewReferralService(store, catalog, cfg)
		app, err := svc.ApplyReferral(ctx, *code, *user, *course)
		if err != nil {
			return err
		}
		fmt.Printf("transaction %s commission %s final price %s\n",
			app.TransactionID, app.CommissionAmount, app.FinalPrice)
		return nil

	case "complete":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		owner := fs.Int64("owner", 0, "owner user id")
		txn := fs.String("txn", "", "transaction id")
		fs.Parse(args)

		txnID, err := uuid.Parse(*txn)
		if err != nil {
			return fmt.Errorf("parse transaction id: %w", err)
		}
		svc := service.NewReferralService(store, fixedCatalog{}, cfg)
		acct, err := svc.CompleteReferral(ctx, *owner, txnID)
		if err != nil {
			return err
		}
		fmt.Printf("completed; tier %s earned %s\n", acct.Tier, acct.Statistics.TotalCommissionEarned)
		return nil

	case "cancel":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		owner := fs.Int64("owner", 0, "owner user id")
		txn := fs.String("txn", "", "transaction id")
		fs.Parse(args)

		txnID, err := uuid.Parse(*txn)
		if err != nil {
			return fmt.Errorf("parse transaction id: %w", err)
		}
		svc := service.NewReferralService(store, fixedCatalog{}, cfg)
		return svc.CancelReferral(ctx, *owner, txnID)

	case "stats":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		owner := fs.Int64("owner", 0, "owner user id")
		fs.Parse(args)

		svc := service.NewReferralService(store, fixedCatalog{}, cfg)
		stats, err := svc.Statistics(ctx, *owner)
		if err != nil {
			return err
		}
		fmt.Printf("total %d successful %d pending %d earned %s\n",
			stats.TotalReferrals, stats.SuccessfulReferrals,
			stats.PendingReferrals, stats.TotalCommissionEarned)
		return nil

	case "rewards":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		owner := fs.Int64("owner", 0, "owner user id")
		fs.Parse(args)

		svc := service.NewRewardService(store, logEnrollments{})
		rewards, err := svc.Available(ctx, *owner, time.Now())
		if err != nil {
			return err
		}
		for _, r := range rewards {
			fmt.Printf("%s %s value %s\n", r.ID, r.Type, r.Value)
		}
		return nil

	case "redeem":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		owner := fs.Int64("owner", 0, "owner user id")
		reward := fs.String("reward", "", "reward id")
		fs.Parse(args)

		rewardID, err := uuid.Parse(*reward)
		if err != nil {
			return fmt.Errorf("parse reward id: %w", err)
		}
		svc := service.NewRewardService(store, logEnrollments{})
		res, err := svc.Redeem(ctx, *owner, rewardID)
		if err != nil {
			return err
		}
		printRedemption(res)
		return nil

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func printRedemption(res *service.RedemptionResult) {
	switch {
	case res.Discount != nil:
		fmt.Printf("discount token %s (%s%%) valid until %s\n",
			res.Discount.Code, res.Discount.Percent, res.Discount.ExpiresAt.Format(time.RFC3339))
	case res.EnrollmentID != "":
		fmt.Printf("enrollment %s created\n", res.EnrollmentID)
	case res.Type == domain.RewardCashBonus:
		fmt.Printf("payout of %s queued\n", res.PayoutAmount)
	default:
		fmt.Printf("credited %s\n", res.CreditedAmount)
	}
}

// fixedCatalog satisfies the course price lookup for the CLI, where the
// caller supplies the purchase price on the command line.
type fixedCatalog struct {
	price decimal.Decimal
}

func (c fixedCatalog) Price(ctx context.Context, courseID string) (decimal.Decimal, error) {
	return c.price, nil
}

// logEnrollments stands in for the enrollment collaborator when the CLI runs
// without one configured.
type logEnrollments struct{}

func (logEnrollments) CreateFreeEnrollment(ctx context.Context, userID int64, courseID string) (string, error) {
	id := uuid.New().String()
	slog.Info("free enrollment granted", "user_id", userID, "course_id", courseID, "enrollment_id", id)
	return id, nil
}
