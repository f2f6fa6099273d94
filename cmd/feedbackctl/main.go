// Command feedbackctl is a terminal companion to the feedback dashboard.
// It drives the same API client the dashboards embed, so token storage,
// silent refresh and retry behave exactly like the graphical frontends.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/luaraperilli/classroom-feedback-analyzer/analytics"
	"github.com/luaraperilli/classroom-feedback-analyzer/client"
)

func main() {
	baseURL := flag.String("api", envOr("FEEDBACK_API_URL", "http://localhost:8080"), "API base URL")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := credentialStore()
	if err != nil {
		fatalf("credential store: %v", err)
	}
	api := client.New(*baseURL, store)

	command, rest := args[0], args[1:]
	if command != "login" && command != "register" {
		if err := api.Session().Init(ctx); err != nil {
			fatalf("session: %v", err)
		}
	}

	switch command {
	case "login":
		err = runLogin(ctx, api, rest)
	case "logout":
		api.Logout(ctx)
		fmt.Println("logged out")
	case "whoami":
		err = runWhoami(api)
	case "register":
		err = runRegister(ctx, api, rest)
	case "subjects":
		err = runSubjects(ctx, api)
	case "submit":
		err = runSubmit(ctx, api, rest)
	case "summary":
		err = runSummary(ctx, api, rest)
	case "trend":
		err = runTrend(ctx, api, rest)
	case "risk":
		err = runRisk(ctx, api, rest)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		if errors.Is(err, client.ErrSessionExpired) {
			fatalf("session expired, run `feedbackctl login`")
		}
		fatalf("%v", err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: feedbackctl [-api URL] <command> [arguments]

commands:
  login <username>              authenticate and store the token pair
  logout                        discard stored credentials
  whoami                        print the current identity
  register <username> [role]    create an account (default role: aluno)
  subjects                      list subjects
  submit <subject-id>           submit feedback (flags: -text, -rating k=v, -comment)
  summary [subject-id]          sentiment breakdown (flag: -period)
  trend [subject-id]            daily sentiment trend (flag: -period)
  risk [subject-id]             students at risk (flag: -min low|medium|high)`)
}

func runLogin(ctx context.Context, api *client.Client, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: login <username>")
	}
	password, err := readPassword()
	if err != nil {
		return err
	}
	identity, err := api.Login(ctx, args[0], password)
	if err != nil {
		return err
	}
	fmt.Printf("logged in as %s (%s)\n", identity.Username, identity.Role)
	return nil
}

func runWhoami(api *client.Client) error {
	if !api.Session().IsAuthenticated() {
		return errors.New("not logged in")
	}
	identity := api.Session().User()
	fmt.Printf("%s (%s)\n", identity.Username, identity.Role)
	return nil
}

func runRegister(ctx context.Context, api *client.Client, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("usage: register <username> [role]")
	}
	role := "aluno"
	if len(args) == 2 {
		role = args[1]
	}
	password, err := readPassword()
	if err != nil {
		return err
	}
	if err := api.Register(ctx, args[0], password, role); err != nil {
		return err
	}
	fmt.Printf("registered %s\n", args[0])
	return nil
}

func runSubjects(ctx context.Context, api *client.Client) error {
	subjects, err := api.Subjects(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME")
	for _, subject := range subjects {
		fmt.Fprintf(w, "%s\t%s\n", subject.ID, subject.Name)
	}
	return w.Flush()
}

func runSubmit(ctx context.Context, api *client.Client, args []string) error {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	text := fs.String("text", "", "free text feedback")
	comment := fs.String("comment", "", "additional comment")
	var ratings ratingFlags
	fs.Var(&ratings, "rating", "aspect rating as name=1..5, repeatable")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: submit <subject-id> [-text ...] [-rating k=v ...]")
	}

	scores, err := api.Analyze(ctx, client.AnalyzeRequest{
		SubjectID:         fs.Arg(0),
		Text:              *text,
		Ratings:           ratings.values,
		AdditionalComment: *comment,
	})
	if err != nil {
		return err
	}

	if scores.Compound != nil {
		fmt.Printf("sentiment: %s (compound %.4f)\n", analytics.Classify(*scores.Compound), *scores.Compound)
	}
	if scores.OverallScore != nil {
		fmt.Printf("rating score: %.2f\n", *scores.OverallScore)
	}
	return nil
}

func runSummary(ctx context.Context, api *client.Client, args []string) error {
	records, err := fetchRecords(ctx, api, args)
	if err != nil {
		return err
	}
	summary := analytics.Summarize(records)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "total\t%d\n", summary.PositiveCount+summary.NeutralCount+summary.NegativeCount)
	fmt.Fprintf(w, "positive\t%d\t%.1f%%\n", summary.PositiveCount, summary.PositivePct)
	fmt.Fprintf(w, "neutral\t%d\t%.1f%%\n", summary.NeutralCount, summary.NeutralPct)
	fmt.Fprintf(w, "negative\t%d\t%.1f%%\n", summary.NegativeCount, summary.NegativePct)
	return w.Flush()
}

func runTrend(ctx context.Context, api *client.Client, args []string) error {
	records, err := fetchRecords(ctx, api, args)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DAY\tAVG COMPOUND")
	for _, point := range analytics.DailyTrend(records) {
		fmt.Fprintf(w, "%s\t%.4f\n", point.Date.Format("2006-01-02"), point.AverageCompound)
	}
	return w.Flush()
}

func runRisk(ctx context.Context, api *client.Client, args []string) error {
	fs := flag.NewFlagSet("risk", flag.ContinueOnError)
	min := fs.String("min", "", "minimum risk level (low, medium, high)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	subjectID := ""
	if fs.NArg() > 0 {
		subjectID = fs.Arg(0)
	}

	assessments, err := api.StudentsAtRisk(ctx, subjectID, analytics.RiskLevel(*min))
	if err != nil {
		return err
	}

	groups := analytics.GroupByRisk(assessments)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LEVEL\tSTUDENT\tSUBJECT\tSCORE\tFEEDBACKS")
	for _, group := range [][]analytics.RiskAssessment{groups.High, groups.Medium, groups.Low} {
		for _, a := range group {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%d\n", a.RiskLevel, a.StudentUsername, a.SubjectName, a.RiskScore, a.FeedbackCount)
		}
	}
	return w.Flush()
}

func fetchRecords(ctx context.Context, api *client.Client, args []string) ([]analytics.FeedbackRecord, error) {
	fs := flag.NewFlagSet("filter", flag.ContinueOnError)
	period := fs.String("period", "all", "time window (all, 7days, 30days, this_month)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	filter := client.Filter{Range: analytics.ResolvePeriod(analytics.Period(*period), time.Now())}
	if fs.NArg() > 0 {
		filter.SubjectID = fs.Arg(0)
	}
	return api.Feedbacks(ctx, filter)
}

type ratingFlags struct {
	values map[string]int
}

func (r *ratingFlags) String() string {
	parts := make([]string, 0, len(r.values))
	for name, value := range r.values {
		parts = append(parts, fmt.Sprintf("%s=%d", name, value))
	}
	return strings.Join(parts, ",")
}

func (r *ratingFlags) Set(raw string) error {
	name, value, found := strings.Cut(raw, "=")
	if !found || name == "" {
		return fmt.Errorf("rating %q is not name=value", raw)
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 1 || parsed > 5 {
		return fmt.Errorf("rating %q must be 1..5", raw)
	}
	if r.values == nil {
		r.values = map[string]int{}
	}
	r.values[name] = parsed
	return nil
}

func credentialStore() (client.CredentialStore, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	return client.NewFileStore(filepath.Join(configDir, "feedbackctl")), nil
}

func readPassword() (string, error) {
	fmt.Fprint(os.Stderr, "password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(password), nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
