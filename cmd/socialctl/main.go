package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	apiURL := "http://localhost:5001"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = envURL
	}
	client := NewAPIClient(apiURL)

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "register":
		err = registerCmd(client, args)
	case "login":
		err = loginCmd(client, args)
	case "feed":
		err = feedCmd(client, args)
	case "post":
		err = postCmd(client, args)
	case "like":
		err = likeCmd(client, args)
	case "friend":
		err = friendCmd(client, args)
	case "seed":
		err = seedCmd(client, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`socialctl - command line client for the socialpedia API

USAGE:
  socialctl <command> [options]

COMMANDS:
  register  Create an account (prompts for the password)
  login     Print a token for an account (prompts for the password)
  feed      List the feed, or one author's posts with --user
  post      Create a post
  like      Toggle your like on a post
  friend    Toggle a friend
  seed      Create fake users who post and befriend each other
  help      Show this help message

ENVIRONMENT:
  API_URL            Backend API URL (default: http://localhost:5001)
  SOCIALPEDIA_TOKEN  Token used by feed, post, like and friend

EXAMPLES:
  export SOCIALPEDIA_TOKEN=$(socialctl login --email=ada@example.com)
  socialctl post --text="hello world"
  socialctl friend --user=<your id> --friend=<their id>
  socialctl seed --count=5`)
}

func registerCmd(client *APIClient, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	first := fs.String("first", "", "First name")
	last := fs.String("last", "", "Last name")
	email := fs.String("email", "", "Email address")
	location := fs.String("location", "", "Location")
	occupation := fs.String("occupation", "", "Occupation")
	fs.Parse(args)

	password, err := readPassword()
	if err != nil {
		return err
	}

	user, err := client.Register(RegisterRequest{
		FirstName:  *first,
		LastName:   *last,
		Email:      *email,
		Password:   password,
		Location:   *location,
		Occupation: *occupation,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Registered %s %s (%s)\n", user.FirstName, user.LastName, user.ID)
	return nil
}

func loginCmd(client *APIClient, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Email address")
	fs.Parse(args)

	password, err := readPassword()
	if err != nil {
		return err
	}

	result, err := client.Login(*email, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Logged in as %s %s (%s)\n", result.User.FirstName, result.User.LastName, result.User.ID)
	fmt.Println(result.Token)
	return nil
}

func feedCmd(client *APIClient, args []string) error {
	fs := flag.NewFlagSet("feed", flag.ExitOnError)
	user := fs.String("user", "", "Only list this author's posts")
	fs.Parse(args)

	token, err := requireToken()
	if err != nil {
		return err
	}

	posts, err := client.Feed(token, *user)
	if err != nil {
		return err
	}

	for _, p := range posts {
		fmt.Printf("%s  %s %s  [%d likes]  %s\n    %s\n",
			p.CreatedAt.Format(time.DateTime), p.FirstName, p.LastName, len(p.Likes), p.ID, p.Description)
	}
	return nil
}

func postCmd(client *APIClient, args []string) error {
	fs := flag.NewFlagSet("post", flag.ExitOnError)
	text := fs.String("text", "", "Post description")
	fs.Parse(args)

	token, err := requireToken()
	if err != nil {
		return err
	}

	posts, err := client.CreatePost(token, *text)
	if err != nil {
		return err
	}

	fmt.Printf("Posted. The feed now has %d posts.\n", len(posts))
	return nil
}

func likeCmd(client *APIClient, args []string) error {
	fs := flag.NewFlagSet("like", flag.ExitOnError)
	postID := fs.String("post", "", "Post id")
	fs.Parse(args)

	token, err := requireToken()
	if err != nil {
		return err
	}

	post, err := client.ToggleLike(token, *postID)
	if err != nil {
		return err
	}

	fmt.Printf("Post %s now has %d likes\n", post.ID, len(post.Likes))
	return nil
}

func friendCmd(client *APIClient, args []string) error {
	fs := flag.NewFlagSet("friend", flag.ExitOnError)
	user := fs.String("user", "", "Your user id")
	friend := fs.String("friend", "", "Friend's user id")
	fs.Parse(args)

	token, err := requireToken()
	if err != nil {
		return err
	}

	friends, err := client.ToggleFriend(token, *user, *friend)
	if err != nil {
		return err
	}

	fmt.Printf("You have %d friends:\n", len(friends))
	for _, f := range friends {
		fmt.Printf("  %s %s (%s)\n", f.FirstName, f.LastName, f.ID)
	}
	return nil
}

// seedCmd registers count users; each posts once, likes the previous
// user's post and befriends the previous user.
func seedCmd(client *APIClient, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	count := fs.Int("count", 5, "Number of fake users to create")
	fs.Parse(args)

	if *count < 1 || *count > 100 {
		return errors.New("--count must be between 1 and 100")
	}

	const password = "testpassword123"
	run := time.Now().UnixNano() % 100000

	type seeded struct {
		user   *User
		token  string
		postID string
	}
	var users []seeded

	for i := 0; i < *count; i++ {
		req := RegisterRequest{
			FirstName:  fmt.Sprintf("Seed%d", i+1),
			LastName:   fmt.Sprintf("Run%d", run),
			Email:      fmt.Sprintf("seed%d.%d@example.com", i+1, run),
			Password:   password,
			Location:   "Nowhere",
			Occupation: "Tester",
		}
		if _, err := client.Register(req); err != nil {
			return err
		}
		auth, err := client.Login(req.Email, password)
		if err != nil {
			return err
		}

		posts, err := client.CreatePost(auth.Token, fmt.Sprintf("Hello from %s", req.FirstName))
		if err != nil {
			return err
		}
		s := seeded{user: &auth.User, token: auth.Token, postID: posts[len(posts)-1].ID}

		if len(users) > 0 {
			prev := users[len(users)-1]
			if _, err := client.ToggleLike(s.token, prev.postID); err != nil {
				return err
			}
			if _, err := client.ToggleFriend(s.token, s.user.ID, prev.user.ID); err != nil {
				return err
			}
		}

		users = append(users, s)
		fmt.Printf("  [%d/%d] %s %s (%s)\n", i+1, *count, s.user.FirstName, s.user.LastName, s.user.ID)
	}

	fmt.Printf("Seeded %d users. Password for all: %s\n", len(users), password)
	return nil
}

func requireToken() (string, error) {
	token := strings.TrimSpace(os.Getenv("SOCIALPEDIA_TOKEN"))
	if token == "" {
		return "", errors.New("SOCIALPEDIA_TOKEN is not set; run socialctl login first")
	}
	return token, nil
}

// readPassword prompts without echo on a terminal and reads a line otherwise.
func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		var line string
		if _, err := fmt.Fscanln(os.Stdin, &line); err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return line, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(secret), nil
}
