package cli

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/markliwag/casetrack/internal/log"
	internal_storage "github.com/markliwag/casetrack/internal/storage"
	"github.com/markliwag/casetrack/pkg/service"
	"github.com/spf13/cobra"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	stepStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	completeStyle = lipgloss.NewStyle().Faint(true)
)

func SetupCLI(rootCmd *cobra.Command) {
	createCmd := &cobra.Command{
		Use:   "create <fullname> <email>",
		Short: "Create a new hiring case",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			a := newApp(cmd)
			defer a.close()

			var dueDate *time.Time
			if raw, _ := cmd.Flags().GetString("due"); raw != "" {
				parsed, err := time.Parse("2006-01-02", raw)
				if err != nil {
					log.GetLogger().Errorf("Error parsing due date: %v", err)
					fmt.Fprintf(os.Stderr, "Error: invalid due date %q, expected YYYY-MM-DD\n", raw)
					os.Exit(1)
				}
				dueDate = &parsed
			}
			panels, _ := cmd.Flags().GetStringSlice("panel")

			id, err := a.cases.CreateCase(args[0], args[1], dueDate, panels)
			if err != nil {
				log.GetLogger().Errorf("Failed to create case: %v", err)
				fmt.Fprintf(os.Stderr, "Error: failed to create case: %v\n", err)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stdout, "Created case for '%s' with ID %d\n", args[0], id)
		},
	}
	createCmd.Flags().String("due", "", "Overall due date (YYYY-MM-DD)")
	createCmd.Flags().StringSlice("panel", nil, "Panel name, repeatable; defaults to the standard pipeline")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all hiring cases",
		Run: func(cmd *cobra.Command, args []string) {
			a := newApp(cmd)
			defer a.close()
			listCases(a.cases)
		},
	}

	advanceCmd := &cobra.Command{
		Use:   "advance <case-id>",
		Short: "Move a case to its next work step",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id := parseCaseID(args[0])
			a := newApp(cmd)
			defer a.close()

			seq, err := a.cases.AdvanceCase(id)
			if err != nil {
				log.GetLogger().Errorf("Failed to advance case: %v", err)
				fmt.Fprintf(os.Stderr, "Error: failed to advance case: %v\n", err)
				os.Exit(1)
			}
			if seq.Current == service.NoCurrentStep {
				fmt.Fprintf(os.Stdout, "Case %d is complete\n", id)
				return
			}
			fmt.Fprintf(os.Stdout, "Case %d is now at step %d\n", id, seq.Current)
		},
	}

	notifyCmd := &cobra.Command{
		Use:   "notify <case-id>",
		Short: "Mark the applicant as notified",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id := parseCaseID(args[0])
			a := newApp(cmd)
			defer a.close()

			if err := a.cases.UpdateApplicantNotified(id, true); err != nil {
				log.GetLogger().Errorf("Failed to update case: %v", err)
				fmt.Fprintf(os.Stderr, "Error: failed to update case: %v\n", err)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stdout, "Marked applicant of case %d as notified\n", id)
		},
	}

	rootCmd.AddCommand(createCmd, listCmd, advanceCmd, notifyCmd)
}

func listCases(svc *service.CaseService) {
	records, err := svc.ListCaseRecords()
	if err != nil {
		log.GetLogger().Errorf("Failed to list cases: %v", err)
		fmt.Fprintf(os.Stderr, "Error: failed to list cases: %v\n", err)
		os.Exit(1)
	}
	if len(records) == 0 {
		fmt.Fprintf(os.Stdout, "No cases found.\n")
		return
	}
	fmt.Fprintln(os.Stdout, headerStyle.Render("Cases:"))
	for _, r := range records {
		position := completeStyle.Render("complete")
		if r.CurrentStepNumber != service.NoCurrentStep {
			position = stepStyle.Render(fmt.Sprintf("step %d (%s)", r.CurrentStepNumber, r.CurrentPanelName))
		}
		due := "no due date"
		if r.DueDate != nil {
			due = "due " + r.DueDate.Format("2006-01-02")
		}
		fmt.Fprintf(os.Stdout, "- ID: %d, %s <%s>, %s, %s\n",
			r.ID, r.CandidateFullname, r.CandidateEmail, position, due)
	}
}

// app bundles the store with the case service so both get closed together.
type app struct {
	store *internal_storage.PostgresStore
	cases *service.CaseService
}

func newApp(cmd *cobra.Command) *app {
	dbConnStr, err := cmd.Flags().GetString("db")
	if err != nil {
		log.GetLogger().Errorf("Error retrieving db flag: %v", err)
		os.Exit(1)
	}
	log.GetLogger().Debugf("Connecting with db: %s", dbConnStr)
	store, err := internal_storage.InitStore(dbConnStr)
	if err != nil {
		log.GetLogger().Errorf("Failed to initialize store: %v", err)
		fmt.Fprintf(os.Stderr, "Error: failed to initialize store: %v\n", err)
		os.Exit(1)
	}
	return &app{
		store: store,
		cases: service.NewCaseService(store, log.GetLogger()),
	}
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		log.GetLogger().Errorf("Failed to close store: %v", err)
	}
}

func parseCaseID(raw string) int64 {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		log.GetLogger().Errorf("Error parsing case id: %v", err)
		fmt.Fprintf(os.Stderr, "Error: invalid case id %q\n", raw)
		os.Exit(1)
	}
	return id
}
