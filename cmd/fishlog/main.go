package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fishlogapp/fishlog-go/internal/api"
	"github.com/fishlogapp/fishlog-go/internal/config"
	"github.com/fishlogapp/fishlog-go/internal/oauth"
	"github.com/fishlogapp/fishlog-go/internal/session"
	"github.com/fishlogapp/fishlog-go/internal/stats"
	"github.com/fishlogapp/fishlog-go/internal/weather"
	"github.com/fishlogapp/fishlog-go/pkg/recordstore"
)

const usage = `Usage: fishlog <command> [options]

Commands:
  login <email>            sign in (password read from stdin)
  register <email> <name>  create an account and sign in
  logout                   clear the stored session
  whoami                   show the signed-in user
  catches list             list catches
  catches add              log a catch
  catches delete <id>      delete a catch
  groups list              list your groups
  groups create            create a group
  comments list <catchId>  list a catch's comments
  comments add <catchId> <text>
  stats                    show your catch statistics
  weather                  show current conditions
  oauth-url                print the Google sign-in consent URL
`

type app struct {
	cfg        *config.Config
	client     *recordstore.Client
	session    *session.Session
	catches    *api.CatchService
	groups     *api.GroupService
	comments   *api.CommentService
	events     *api.EventService
	challenges *api.ChallengeService
}

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	client := recordstore.New(cfg.BackendURL, recordstore.WithTimeout(cfg.RequestTimeout))
	sess, err := session.New(client, session.WithStateFile(cfg.SessionFile))
	if err != nil {
		log.Fatalf("Failed to restore session: %v", err)
	}
	defer sess.Close()

	a := &app{
		cfg:        cfg,
		client:     client,
		session:    sess,
		catches:    api.NewCatchService(client, sess),
		groups:     api.NewGroupService(client, sess),
		comments:   api.NewCommentService(client, sess),
		events:     api.NewEventService(client, sess),
		challenges: api.NewChallengeService(client, sess),
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", errorMessage(err))
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.login(ctx, args)
	case "register":
		return a.register(ctx, args)
	case "logout":
		a.session.Logout()
		fmt.Println("Signed out.")
		return nil
	case "whoami":
		return a.whoami()
	case "catches":
		return a.catchesCmd(ctx, args)
	case "groups":
		return a.groupsCmd(ctx, args)
	case "comments":
		return a.commentsCmd(ctx, args)
	case "stats":
		return a.statsCmd(ctx)
	case "weather":
		return a.weatherCmd(ctx, args)
	case "oauth-url":
		return a.oauthURL()
	default:
		fmt.Print(usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: fishlog login <email>")
	}
	password, err := readPassword()
	if err != nil {
		return err
	}
	user, err := a.session.Login(ctx, args[0], password)
	if err != nil {
		return err
	}
	fmt.Printf("Signed in as %s (%s)\n", user.Name, user.Email)
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: fishlog register <email> <name>")
	}
	password, err := readPassword()
	if err != nil {
		return err
	}
	user, err := a.session.Register(ctx, args[0], password, args[1])
	if err != nil {
		return err
	}
	fmt.Printf("Welcome, %s\n", user.Name)
	return nil
}

func (a *app) whoami() error {
	user := a.session.Current()
	if user == nil {
		fmt.Println("Not signed in.")
		return nil
	}
	fmt.Printf("%s (%s)\n", user.Name, user.Email)
	return nil
}

func (a *app) catchesCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: fishlog catches <list|add|delete>")
	}
	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("catches list", flag.ExitOnError)
		user := fs.String("user", "", "filter by owner id (default: you)")
		group := fs.String("group", "", "filter by shared group id")
		_ = fs.Parse(args[1:])

		filter := ""
		switch {
		case *group != "":
			filter = api.FilterSharedWithGroup(*group)
		case *user != "":
			filter = api.FilterByUser(*user)
		case a.session.Current() != nil:
			filter = api.FilterByUser(a.session.Current().ID)
		}

		list, err := a.catches.List(ctx, api.ListOptions{Filter: filter})
		if err != nil {
			return err
		}
		for _, c := range list.Items {
			fmt.Printf("%s  %-20s %6.2f lb %2d oz  %5.1f in  %s\n",
				c.ID, c.Species, c.Weight, c.WeightOz, c.Length, c.Location.Name)
		}
		fmt.Printf("%d of %d catches\n", len(list.Items), list.TotalItems)
		return nil

	case "add":
		fs := flag.NewFlagSet("catches add", flag.ExitOnError)
		species := fs.String("species", "", "species (required)")
		weight := fs.String("weight", "", "weight in pounds")
		weightOz := fs.String("oz", "0", "extra ounces (0-15)")
		length := fs.String("length", "", "length in inches")
		location := fs.String("location", "", "where it was caught")
		date := fs.String("date", time.Now().Format(time.RFC3339), "when it was caught")
		notes := fs.String("notes", "", "notes")
		groupIDs := fs.String("groups", "", "comma-separated group ids to share with")
		var photos stringList
		fs.Var(&photos, "photo", "photo file (repeatable)")
		_ = fs.Parse(args[1:])

		p := recordstore.NewPayload().
			Set("species", *species).
			Set("weight", *weight).
			Set("weight_oz", *weightOz).
			Set("length", *length).
			Set("location", *location).
			Set("date", *date)
		if *notes != "" {
			p.Set("notes", *notes)
		}
		if *groupIDs != "" {
			encoded, err := json.Marshal(strings.Split(*groupIDs, ","))
			if err == nil {
				p.Set("sharedWithGroups", string(encoded))
			}
		}
		for _, path := range photos {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read photo %s: %w", path, err)
			}
			p.AddFile("photos", filepath.Base(path), data)
		}

		rec, err := a.catches.Create(ctx, p)
		if err != nil {
			return err
		}
		fmt.Printf("Logged %s (%s)\n", rec.Species, rec.ID)
		return nil

	case "delete":
		if len(args) != 2 {
			return fmt.Errorf("usage: fishlog catches delete <id>")
		}
		if err := a.catches.Delete(ctx, args[1]); err != nil {
			return err
		}
		fmt.Println("Deleted.")
		return nil
	}
	return fmt.Errorf("unknown catches subcommand %q", args[0])
}

func (a *app) groupsCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: fishlog groups <list|create>")
	}
	switch args[0] {
	case "list":
		filter := ""
		if user := a.session.Current(); user != nil {
			filter = api.FilterMemberOf(user.ID)
		}
		list, err := a.groups.List(ctx, api.ListOptions{Filter: filter})
		if err != nil {
			return err
		}
		for _, g := range list.Items {
			fmt.Printf("%s  %-24s %d members\n", g.ID, g.Name, len(g.Members))
		}
		return nil

	case "create":
		fs := flag.NewFlagSet("groups create", flag.ExitOnError)
		name := fs.String("name", "", "group name (required)")
		description := fs.String("description", "", "description")
		_ = fs.Parse(args[1:])

		p := recordstore.NewPayload().Set("name", *name)
		if *description != "" {
			p.Set("description", *description)
		}
		rec, err := a.groups.Create(ctx, p)
		if err != nil {
			return err
		}
		fmt.Printf("Created group %s (%s)\n", rec.Name, rec.ID)
		return nil
	}
	return fmt.Errorf("unknown groups subcommand %q", args[0])
}

func (a *app) commentsCmd(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: fishlog comments <list|add> <catchId> [text]")
	}
	switch args[0] {
	case "list":
		list, err := a.comments.ListForCatch(ctx, args[1], 1, 50)
		if err != nil {
			return err
		}
		for _, c := range list.Items {
			author := c.User
			if c.Expand != nil && c.Expand.User != nil {
				author = c.Expand.User.Name
			}
			fmt.Printf("[%s] %s: %s\n", c.Created.Format("2006-01-02"), author, c.Content)
		}
		return nil

	case "add":
		if len(args) != 3 {
			return fmt.Errorf("usage: fishlog comments add <catchId> <text>")
		}
		if _, err := a.comments.Create(ctx, args[1], args[2]); err != nil {
			return err
		}
		fmt.Println("Comment posted.")
		return nil
	}
	return fmt.Errorf("unknown comments subcommand %q", args[0])
}

func (a *app) statsCmd(ctx context.Context) error {
	user := a.session.Current()
	if user == nil {
		return fmt.Errorf("sign in first")
	}
	list, err := a.catches.List(ctx, api.ListOptions{Filter: api.FilterByUser(user.ID)})
	if err != nil {
		return err
	}
	s := stats.ComputeUserStatistics(list.Items)
	fmt.Printf("Catches:   %d\n", s.TotalCatches)
	fmt.Printf("Locations: %d\n", s.Locations)
	fmt.Printf("Biggest:   %.2f lb %s\n", s.BiggestCatch.Weight, s.BiggestCatch.Species)
	fmt.Printf("Longest:   %.1f in %s\n", s.LongestCatch.Length, s.LongestCatch.Species)
	return nil
}

func (a *app) weatherCmd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("weather", flag.ExitOnError)
	lat := fs.Float64("lat", 0, "latitude")
	lon := fs.Float64("lon", 0, "longitude")
	_ = fs.Parse(args)

	if a.cfg.Weather.APIKey == "" {
		return fmt.Errorf("OPENWEATHER_API_KEY is not set")
	}

	svc := weather.New(a.cfg.Weather.APIKey,
		weather.WithBaseURL(a.cfg.Weather.BaseURL),
		weather.WithRecorder(a.client, a.session))
	conditions, err := svc.Current(ctx, *lat, *lon)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d°F, %s\n", conditions.Location, conditions.Temperature, conditions.Conditions)
	return nil
}

func (a *app) oauthURL() error {
	if a.cfg.Google.ClientID == "" {
		return fmt.Errorf("GOOGLE_CLIENT_ID is not set")
	}
	provider := oauth.NewGoogleProvider(a.cfg.Google)
	state, err := oauth.GenerateState()
	if err != nil {
		return err
	}
	fmt.Println(provider.ConsentURL(state))
	return nil
}

func readPassword() (string, error) {
	fmt.Print("Password: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// errorMessage prefers the normalized message and appends field details when
// the backend reported them.
func errorMessage(err error) string {
	var ae *api.Error
	if errors.As(err, &ae) && len(ae.Details) > 0 {
		parts := []string{ae.Message}
		for field, msgs := range ae.Details {
			parts = append(parts, fmt.Sprintf("  %s: %s", field, strings.Join(msgs, "; ")))
		}
		return strings.Join(parts, "\n")
	}
	return err.Error()
}

// stringList collects repeatable flags.
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}
