package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/yourusername/stakeleague/internal/competition"
	"github.com/yourusername/stakeleague/internal/database"
	"github.com/yourusername/stakeleague/internal/models"
	"github.com/yourusername/stakeleague/internal/queue"
)

var (
	grantedBy string
	jobKind   string
	jobLimit  int
	create    struct {
		kind             string
		creator          string
		requiredTeams    int
		minTeams         int
		maxTeams         int
		participantCap   int
		prizePool        string
		hostContribution string
		public           bool
	}
)

func init() {
	grantCmd.Flags().StringVar(&grantedBy, "by", "", "Admin identifier recorded in the audit log")
	_ = grantCmd.MarkFlagRequired("by")

	jobsCmd.Flags().StringVar(&jobKind, "kind", "", "Only list jobs of this kind")
	jobsCmd.Flags().IntVar(&jobLimit, "limit", 20, "Maximum number of jobs to list")

	f := createCmd.Flags()
	f.StringVar(&create.kind, "type", "", "Competition type (TopScore, ManGoSet, League)")
	f.StringVar(&create.creator, "creator", "", "Host user id")
	f.IntVar(&create.requiredTeams, "required-teams", 0, "Teams required to enter")
	f.IntVar(&create.minTeams, "min-teams", 1, "Minimum picks per entry")
	f.IntVar(&create.maxTeams, "max-teams", 1, "Maximum picks per entry")
	f.IntVar(&create.participantCap, "cap", 0, "Participant cap, 0 for uncapped")
	f.StringVar(&create.prizePool, "prize-pool", "0", "Prize pool")
	f.StringVar(&create.hostContribution, "host-contribution", "0", "Amount contributed by the host")
	f.BoolVar(&create.public, "public", false, "List the competition publicly")
	_ = createCmd.MarkFlagRequired("type")
	_ = createCmd.MarkFlagRequired("creator")

	rootCmd.AddCommand(migrateCmd, recalculateCmd, settleCmd, enqueueSettlementCmd, grantCmd,
		jobsCmd, createCmd, finalizeCmd, registerUserCmd, recordDepositCmd)
}

func parseID(kind, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s id %q: %w", kind, raw, err)
	}
	return id, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the engine schema and River's migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.Migrate(cmd.Context(), db); err != nil {
			return err
		}
		logger.Info("Engine schema applied")
		return queue.Migrate(cmd.Context(), db.GetPool(), logger)
	},
}

var recalculateCmd = &cobra.Command{
	Use:   "recalculate",
	Short: "Run a rank recalculation pass in this process",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := setupServices()
		if err != nil {
			return err
		}
		report, err := svc.ranks.Recalculate(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(report)
	},
}

var settleCmd = &cobra.Command{
	Use:   "settle <competition-id>",
	Short: "Settle a finalized competition in this process",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("competition", args[0])
		if err != nil {
			return err
		}
		svc, err := setupServices()
		if err != nil {
			return err
		}
		report, err := svc.pipeline.Settle(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printJSON(report)
	},
}

var enqueueSettlementCmd = &cobra.Command{
	Use:   "enqueue-settlement <competition-id>",
	Short: "Hand settlement of a competition to the running engine",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("competition", args[0])
		if err != nil {
			return err
		}
		svc, err := setupServices()
		if err != nil {
			return err
		}
		if err := svc.queue.EnqueueSettlement(cmd.Context(), id); err != nil {
			return err
		}
		logger.WithField("competition_id", id.String()).Info("Settlement enqueued")
		return nil
	},
}

var grantCmd = &cobra.Command{
	Use:   "grant-community-star <user-id>",
	Short: "Grant the CommunityStar achievement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := parseID("user", args[0])
		if err != nil {
			return err
		}
		svc, err := setupServices()
		if err != nil {
			return err
		}
		a, err := svc.achievements.GrantCommunityStar(cmd.Context(), userID, grantedBy)
		if err != nil {
			return err
		}
		return printJSON(a)
	},
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List recent background jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := setupServices()
		if err != nil {
			return err
		}
		jobs, err := svc.queue.ListJobs(cmd.Context(), jobKind, jobLimit)
		if err != nil {
			return err
		}
		return printJSON(jobs)
	},
}

var createCmd = &cobra.Command{
	Use:   "create-competition",
	Short: "Create an active competition",
	RunE: func(cmd *cobra.Command, args []string) error {
		creator, err := parseID("creator", create.creator)
		if err != nil {
			return err
		}
		pool, err := decimal.NewFromString(create.prizePool)
		if err != nil {
			return fmt.Errorf("invalid prize pool: %w", err)
		}
		contribution, err := decimal.NewFromString(create.hostContribution)
		if err != nil {
			return fmt.Errorf("invalid host contribution: %w", err)
		}

		svc, err := setupServices()
		if err != nil {
			return err
		}
		c, err := svc.competitions.Create(cmd.Context(), competition.CreateRequest{
			Type:             models.CompetitionType(create.kind),
			CreatorID:        creator,
			RequiredTeams:    create.requiredTeams,
			MinTeams:         create.minTeams,
			MaxTeams:         create.maxTeams,
			ParticipantCap:   create.participantCap,
			PrizePool:        pool,
			HostContribution: contribution,
			IsPublic:         create.public,
		})
		if err != nil {
			return err
		}
		return printJSON(c)
	},
}

var finalizeCmd = &cobra.Command{
	Use:   "finalize <competition-id> <winner-id>...",
	Short: "Record the winners of a competition and enqueue its settlement",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("competition", args[0])
		if err != nil {
			return err
		}
		winners := make([]uuid.UUID, 0, len(args)-1)
		for _, raw := range args[1:] {
			w, err := parseID("winner", raw)
			if err != nil {
				return err
			}
			winners = append(winners, w)
		}

		svc, err := setupServices()
		if err != nil {
			return err
		}
		return svc.competitions.Finalize(cmd.Context(), id, winners)
	},
}

var registerUserCmd = &cobra.Command{
	Use:   "register-user <user-id> <country>",
	Short: "Seed the rank record of a new user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := parseID("user", args[0])
		if err != nil {
			return err
		}
		svc, err := setupServices()
		if err != nil {
			return err
		}
		return svc.competitions.RegisterUser(cmd.Context(), userID, args[1])
	},
}

var recordDepositCmd = &cobra.Command{
	Use:   "record-deposit <user-id> <amount>",
	Short: "Record a wallet deposit for the deposit achievements",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := parseID("user", args[0])
		if err != nil {
			return err
		}
		amount, err := decimal.NewFromString(args[1])
		if err != nil {
			return fmt.Errorf("invalid amount: %w", err)
		}
		svc, err := setupServices()
		if err != nil {
			return err
		}
		return svc.competitions.RecordDeposit(cmd.Context(), userID, amount)
	},
}
