package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/eventup/eventup/internal/comments"
	"github.com/eventup/eventup/internal/config"
	"github.com/eventup/eventup/internal/favorites"
	"github.com/eventup/eventup/internal/gateway"
	applog "github.com/eventup/eventup/internal/log"
	"github.com/eventup/eventup/internal/model"
	"github.com/eventup/eventup/internal/notify"
	"github.com/eventup/eventup/internal/selection"
	"github.com/eventup/eventup/internal/session"
	"github.com/eventup/eventup/internal/store/sqlite"

	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		return
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "login":
		cmdLogin(args)
	case "register":
		cmdRegister(args)
	case "logout":
		cmdLogout(args)
	case "whoami", "status":
		cmdWhoami(args)
	case "events", "list":
		cmdEvents(args)
	case "event", "show":
		cmdEvent(args)
	case "create":
		cmdCreate(args)
	case "attend":
		cmdAttend(args)
	case "cancel":
		cmdCancel(args)
	case "favorites":
		cmdFavorites(args)
	case "favorite", "fav":
		cmdFavorite(args)
	case "comments":
		cmdComments(args)
	case "comment":
		cmdComment(args)
	case "like":
		cmdLike(args)
	case "friends":
		cmdFriends(args)
	case "friend":
		cmdFriend(args)
	case "admin":
		cmdAdmin(args)
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Println("eventup v0.1.0")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`eventup - event discovery client

Usage: eventup <command> [options]

Session:
  login               Sign in (--email, --password)
  register            Create an account and sign in
  logout              Sign out and forget the stored token
  whoami              Show the current session

Events:
  events              List events (--category, --limit, --sort, --order)
  event               Show one event with its comments (--id)
  create              Create an event (--title, --date, --location, ...)
  attend / cancel     Join or leave an event (--id)

Favorites:
  favorites           List favorited event ids
  favorite            Toggle an event's favorite state (--id)

Comments:
  comments            Show an event's comment threads (--event)
  comment             Post a comment (--event, --text, [--reply-to])
  like                Toggle a comment like (--event, --id)

Friends:
  friends             List friends (--incoming / --outgoing for requests)
  friend              Manage a friendship (--id, --action request|accept|cancel|remove)

Moderation:
  admin pending       List events awaiting approval
  admin approve       Bulk-approve events (--ids 1,2,3)
  admin delete        Bulk-delete events (--ids 1,2,3)

Environment Variables:
  EVENTUP_API_URL       API base URL (default: http://localhost:8000)
  EVENTUP_STATE_DB      Local state db path (default: ~/.eventup/state.db)
  EVENTUP_HTTP_TIMEOUT  Request timeout (default: 30s)
  EVENTUP_LOG_LEVEL     Log level (default: info)`)
}

// ============================================================================
// WIRING
// ============================================================================

type app struct {
	gw    *gateway.Gateway
	sess  *session.Provider
	favs  *favorites.Provider
	note  notify.Notifier
	log   *zap.Logger
	close func()
}

// newApp wires config, token store, gateway and the session-scoped
// providers, then restores any stored session.
func newApp(ctx context.Context) *app {
	cfg := config.Load()
	logger := applog.New(cfg.LogLevel)

	st, err := sqlite.Open(cfg.StateDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening state db: %v\n", err)
		os.Exit(1)
	}

	gw := gateway.New(cfg.APIBaseURL, cfg.HTTPTimeout)
	note := notify.NewLogger(logger)
	sess := session.NewProvider(gw, st, logger)
	favs := favorites.NewProvider(gw, sess, note, logger)
	sess.OnReset(favs.Clear)

	if err := sess.Init(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error restoring session: %v\n", err)
		os.Exit(1)
	}
	if sess.Authenticated() {
		if err := favs.Refresh(ctx); err != nil {
			logger.Warn("could not load favorites: " + err.Error())
		}
	}

	return &app{
		gw:   gw,
		sess: sess,
		favs: favs,
		note: note,
		log:  logger,
		close: func() {
			_ = st.Close()
			_ = logger.Sync()
		},
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func requireAuth(a *app) {
	if !a.sess.Authenticated() {
		fmt.Fprintln(os.Stderr, "Error: not signed in - run 'eventup login'")
		os.Exit(1)
	}
}

// ============================================================================
// SESSION COMMANDS
// ============================================================================

func cmdLogin(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Account email (required)")
	password := fs.String("password", "", "Account password (required)")
	fs.Parse(args)

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "Error: --email and --password are required")
		os.Exit(1)
	}

	ctx := context.Background()
	a := newApp(ctx)
	defer a.close()

	if err := a.sess.Login(ctx, *email, *password); err != nil {
		fail(err)
	}
	user := a.sess.User()
	fmt.Printf("✓ Signed in as %s\n", user.Username)
}

func cmdRegister(args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "Account email (required)")
	password := fs.String("password", "", "Account password (required)")
	name := fs.String("name", "", "Display name")
	fs.Parse(args)

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "Error: --email and --password are required")
		os.Exit(1)
	}

	ctx := context.Background()
	a := newApp(ctx)
	defer a.close()

	if err := a.sess.Register(ctx, *email, *password, *name); err != nil {
		fail(err)
	}
	fmt.Printf("✓ Registered and signed in as %s\n", a.sess.User().Username)
}

func cmdLogout(args []string) {
	ctx := context.Background()
	a := newApp(ctx)
	defer a.close()

	if err := a.sess.Logout(ctx); err != nil {
		fail(err)
	}
	fmt.Println("✓ Signed out")
}

func cmdWhoami(args []string) {
	ctx := context.Background()
	a := newApp(ctx)
	defer a.close()

	user := a.sess.User()
	if user == nil {
		fmt.Println("Not signed in")
		fmt.Println("\nRun: eventup login --email <email> --password <password>")
		return
	}
	fmt.Printf("User:  %s (#%d)\n", user.Username, user.ID)
	fmt.Printf("Email: %s\n", user.Email)
	if user.Admin {
		fmt.Println("Role:  admin")
	}
	fmt.Printf("Favorites: %d\n", len(a.favs.IDs()))
}

// ============================================================================
// EVENT COMMANDS
// ============================================================================

func cmdEvents(args []string) {
	fs := flag.NewFlagSet("events", flag.ExitOnError)
	category := fs.String("category", "", "Filter by category")
	limit := fs.Int("limit", 10, "Number of events")
	sortBy := fs.String("sort", "event_date", "Sort field")
	order := fs.String("order", "asc", "Sort order: asc, desc")
	fs.Parse(args)

	ctx := context.Background()
	a := newApp(ctx)
	defer a.close()

	events, err := a.gw.ListEvents(ctx, gateway.ListEventsOpts{
		Category: *category,
		SortBy:   *sortBy,
		Order:    *order,
		Limit:    *limit,
	})
	if err != nil {
		fail(err)
	}

	for _, e := range events {
		marker := " "
		if a.favs.IsFavorite(e.ID) {
			marker = "*"
		}
		fmt.Printf("%s #%d %s\n", marker, e.ID, e.Title)
		fmt.Printf("    %s | %s | %d going\n", e.EventDate.Format("2006-01-02 15:04"), e.Location, e.Participants)
	}
}

func cmdEvent(args []string) {
	fs := flag.NewFlagSet("event", flag.ExitOnError)
	id := fs.Int64("id", 0, "Event ID (required)")
	fs.Parse(args)

	if *id == 0 {
		fmt.Fprintln(os.Stderr, "Error: --id is required")
		os.Exit(1)
	}

	ctx := context.Background()
	a := newApp(ctx)
	defer a.close()

	event, err := a.gw.GetEvent(ctx, *id)
	if err != nil {
		fail(err)
	}

	fmt.Printf("\n%s\n", event.Title)
	fmt.Printf("  %s | %s | %s\n", event.EventDate.Format("2006-01-02 15:04"), event.Location, event.Category)
	fmt.Printf("  %d going | favorite: %v\n", event.Participants, a.favs.IsFavorite(event.ID))
	if event.Description != "" {
		fmt.Printf("\n  %s\n", event.Description)
	}

	printThreads(ctx, a, event.ID)
}

func cmdCreate(args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	title := fs.String("title", "", "Event title (required)")
	date := fs.String("date", "", "Event date, RFC 3339 (required)")
	location := fs.String("location", "", "Event location (required)")
	category := fs.String("category", "Другое", "Event category")
	description := fs.String("description", "", "Event description")
	fs.Parse(args)

	if *title == "" || *date == "" || *location == "" {
		fmt.Fprintln(os.Stderr, "Error: --title, --date and --location are required")
		os.Exit(1)
	}

	ctx := context.Background()
	a := newApp(ctx)
	defer a.close()
	requireAuth(a)

	event, err := a.gw.CreateEvent(ctx, map[string]any{
		"title":       *title,
		"event_date":  *date,
		"location":    *location,
		"category":    *category,
		"description": *description,
	})
	if err != nil {
		fail(err)
	}
	fmt.Printf("✓ Created event #%d (%s)\n", event.ID, event.Title)
	if !event.Approved {
		fmt.Println("  Awaiting moderation")
	}
}

func cmdAttend(args []string) {
	eventAction(args, "attend", func(ctx context.Context, a *app, id int64) error {
		return a.gw.Attend(ctx, id)
	}, "Attending")
}

func cmdCancel(args []string) {
	eventAction(args, "cancel", func(ctx context.Context, a *app, id int64) error {
		return a.gw.CancelAttendance(ctx, id)
	}, "No longer attending")
}

func eventAction(args []string, name string, do func(context.Context, *app, int64) error, verb string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	id := fs.Int64("id", 0, "Event ID (required)")
	fs.Parse(args)

	if *id == 0 {
		fmt.Fprintln(os.Stderr, "Error: --id is required")
		os.Exit(1)
	}

	ctx := context.Background()
	a := newApp(ctx)
	defer a.close()
	requireAuth(a)

	if err := do(ctx, a, *id); err != nil {
		fail(err)
	}
	fmt.Printf("✓ %s event %d\n", verb, *id)
}

// ============================================================================
// FAVORITES
// ============================================================================

func cmdFavorites(args []string) {
	ctx := context.Background()
	a := newApp(ctx)
	defer a.close()

	ids := a.favs.IDs()
	if len(ids) == 0 {
		fmt.Println("No favorites")
		return
	}
	for _, id := range ids {
		fmt.Printf("  #%d\n", id)
	}
}

func cmdFavorite(args []string) {
	fs := flag.NewFlagSet("favorite", flag.ExitOnError)
	id := fs.Int64("id", 0, "Event ID (required)")
	fs.Parse(args)

	if *id == 0 {
		fmt.Fprintln(os.Stderr, "Error: --id is required")
		os.Exit(1)
	}

	ctx := context.Background()
	a := newApp(ctx)
	defer a.close()

	if err := a.favs.Toggle(ctx, *id); err != nil {
		if errors.Is(err, session.ErrAuthRequired) {
			os.Exit(1)
		}
		fail(err)
	}
	if a.favs.IsFavorite(*id) {
		fmt.Printf("✓ Added event %d to favorites\n", *id)
	} else {
		fmt.Printf("✓ Removed event %d from favorites\n", *id)
	}
}

// ============================================================================
// COMMENTS
// ============================================================================

func newFeed(ctx context.Context, a *app, eventID int64) *comments.Feed {
	feed := comments.NewFeed(eventID, a.gw, a.sess, a.note, a.log)
	if err := feed.Load(ctx); err != nil {
		fail(err)
	}
	return feed
}

func printThreads(ctx context.Context, a *app, eventID int64) {
	feed := newFeed(ctx, a, eventID)
	threads := feed.Threads()
	if len(threads) == 0 {
		fmt.Println("\n  No comments yet")
		return
	}
	fmt.Printf("\n  --- Comments ---\n")
	for _, t := range threads {
		fmt.Printf("  [%d] %s %s: %s (%d likes)\n",
			t.Root.ID, t.Root.Author.FirstName, t.Root.Author.LastName, t.Root.Text, t.Root.LikeCount)
		for _, r := range t.Replies {
			fmt.Printf("      [%d] %s %s: %s (%d likes)\n",
				r.ID, r.Author.FirstName, r.Author.LastName, r.Text, r.LikeCount)
		}
	}
}

func cmdComments(args []string) {
	fs := flag.NewFlagSet("comments", flag.ExitOnError)
	eventID := fs.Int64("event", 0, "Event ID (required)")
	fs.Parse(args)

	if *eventID == 0 {
		fmt.Fprintln(os.Stderr, "Error: --event is required")
		os.Exit(1)
	}

	ctx := context.Background()
	a := newApp(ctx)
	defer a.close()

	printThreads(ctx, a, *eventID)
}

func cmdComment(args []string) {
	fs := flag.NewFlagSet("comment", flag.ExitOnError)
	eventID := fs.Int64("event", 0, "Event ID (required)")
	text := fs.String("text", "", "Comment text (required)")
	replyTo := fs.Int64("reply-to", 0, "Root comment ID to reply to")
	fs.Parse(args)

	if *eventID == 0 || *text == "" {
		fmt.Fprintln(os.Stderr, "Error: --event and --text are required")
		os.Exit(1)
	}

	ctx := context.Background()
	a := newApp(ctx)
	defer a.close()
	requireAuth(a)

	feed := newFeed(ctx, a, *eventID)
	if *replyTo != 0 {
		feed.ReplyTo(*replyTo)
	}

	created, err := feed.Add(ctx, *text)
	if err != nil {
		fail(err)
	}
	fmt.Printf("✓ Posted comment %d on event %d\n", created.ID, *eventID)
}

func cmdLike(args []string) {
	fs := flag.NewFlagSet("like", flag.ExitOnError)
	eventID := fs.Int64("event", 0, "Event ID (required)")
	id := fs.Int64("id", 0, "Comment ID (required)")
	fs.Parse(args)

	if *eventID == 0 || *id == 0 {
		fmt.Fprintln(os.Stderr, "Error: --event and --id are required")
		os.Exit(1)
	}

	ctx := context.Background()
	a := newApp(ctx)
	defer a.close()

	feed := newFeed(ctx, a, *eventID)
	if err := feed.ToggleLike(ctx, *id); err != nil {
		fail(err)
	}
	fmt.Printf("✓ Toggled like on comment %d\n", *id)
}

// ============================================================================
// FRIENDS
// ============================================================================

func cmdFriends(args []string) {
	fs := flag.NewFlagSet("friends", flag.ExitOnError)
	incoming := fs.Bool("incoming", false, "Show incoming requests")
	outgoing := fs.Bool("outgoing", false, "Show outgoing requests")
	fs.Parse(args)

	ctx := context.Background()
	a := newApp(ctx)
	defer a.close()
	requireAuth(a)

	var (
		users []model.User
		err   error
	)
	switch {
	case *incoming:
		users, err = a.gw.IncomingRequests(ctx)
	case *outgoing:
		users, err = a.gw.OutgoingRequests(ctx)
	default:
		users, err = a.gw.Friends(ctx)
	}
	if err != nil {
		fail(err)
	}

	if len(users) == 0 {
		fmt.Println("Nobody here yet")
		return
	}
	for _, u := range users {
		fmt.Printf("  #%d %s\n", u.ID, u.Username)
	}
}

func cmdFriend(args []string) {
	fs := flag.NewFlagSet("friend", flag.ExitOnError)
	id := fs.Int64("id", 0, "User ID (required)")
	action := fs.String("action", "request", "request, accept, cancel or remove")
	fs.Parse(args)

	if *id == 0 {
		fmt.Fprintln(os.Stderr, "Error: --id is required")
		os.Exit(1)
	}

	ctx := context.Background()
	a := newApp(ctx)
	defer a.close()
	requireAuth(a)

	var err error
	switch *action {
	case "request":
		err = a.gw.RequestFriend(ctx, *id)
	case "accept":
		err = a.gw.AcceptFriend(ctx, *id)
	case "cancel":
		err = a.gw.CancelRequest(ctx, *id)
	case "remove":
		err = a.gw.RemoveFriend(ctx, *id)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown action %q\n", *action)
		os.Exit(1)
	}
	if err != nil {
		fail(err)
	}
	fmt.Printf("✓ Friend %s for user %d\n", *action, *id)
}

// ============================================================================
// MODERATION
// ============================================================================

func cmdAdmin(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: eventup admin <pending|approve|delete> [options]")
		os.Exit(1)
	}
	sub := args[0]
	args = args[1:]

	switch sub {
	case "pending":
		cmdAdminPending(args)
	case "approve":
		cmdAdminBulk(args, "approve")
	case "delete":
		cmdAdminBulk(args, "delete")
	default:
		fmt.Fprintf(os.Stderr, "Unknown admin command: %s\n", sub)
		os.Exit(1)
	}
}

func cmdAdminPending(args []string) {
	fs := flag.NewFlagSet("admin pending", flag.ExitOnError)
	limit := fs.Int("limit", 10, "Number of events")
	fs.Parse(args)

	ctx := context.Background()
	a := newApp(ctx)
	defer a.close()
	requireAdmin(a)

	unapproved := false
	events, err := a.gw.ListEvents(ctx, gateway.ListEventsOpts{
		Approved: &unapproved,
		SortBy:   "event_date",
		Order:    "desc",
		Limit:    *limit,
	})
	if err != nil {
		fail(err)
	}

	if len(events) == 0 {
		fmt.Println("Nothing awaiting approval")
		return
	}
	for _, e := range events {
		fmt.Printf("  #%d %s (%s)\n", e.ID, e.Title, e.EventDate.Format("2006-01-02"))
	}
}

// cmdAdminBulk drives a bulk action through selection mode: the id list
// seeds the selection, the action runs over the selected set, and the
// selection is exited whatever the outcome.
func cmdAdminBulk(args []string, action string) {
	fs := flag.NewFlagSet("admin "+action, flag.ExitOnError)
	ids := fs.String("ids", "", "Comma-separated event ids (required)")
	fs.Parse(args)

	seed, err := parseIDs(*ids)
	if err != nil || len(seed) == 0 {
		fmt.Fprintln(os.Stderr, "Error: --ids is required, e.g. --ids 1,2,3")
		os.Exit(1)
	}

	ctx := context.Background()
	a := newApp(ctx)
	defer a.close()
	requireAdmin(a)

	sel := selection.New()
	sel.Enter(seed...)
	defer sel.Exit()

	done := 0
	for _, id := range sel.IDs() {
		var err error
		if action == "approve" {
			err = a.gw.ApproveEvent(ctx, id)
		} else {
			err = a.gw.DeleteEvent(ctx, id)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "  event %d: %v\n", id, err)
			continue
		}
		done++
	}
	verb := "Approved"
	if action == "delete" {
		verb = "Deleted"
	}
	fmt.Printf("✓ %s %d of %d events\n", verb, done, sel.Count())
}

func requireAdmin(a *app) {
	requireAuth(a)
	if user := a.sess.User(); user == nil || !user.Admin {
		fmt.Fprintln(os.Stderr, "Error: admin access required")
		os.Exit(1)
	}
}

func parseIDs(s string) ([]int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
