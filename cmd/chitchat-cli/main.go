// chitchat-cli is a terminal front end for the gateway: it signs in,
// renders the live roster and the selected conversation, and forwards
// typed intents. All conversation logic stays server-side; this binary
// is presentation only.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"chitchat/domain"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/olekukonko/tablewriter"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerURL string `env:"CHITCHAT_SERVER,default=http://localhost:8080"`
	Email     string `env:"CHITCHAT_EMAIL,required=true"`
	Password  string `env:"CHITCHAT_PASSWORD,required=true"`
}

type intent struct {
	Type   string `json:"type"`
	PeerID string `json:"peer_id,omitempty"`
	Text   string `json:"text,omitempty"`
}

type frame struct {
	Type     string           `json:"type"`
	User     *domain.User     `json:"user,omitempty"`
	Users    []domain.User    `json:"users,omitempty"`
	Channel  string           `json:"channel,omitempty"`
	Messages []domain.Message `json:"messages,omitempty"`
	State    string           `json:"state,omitempty"`
	Error    string           `json:"error,omitempty"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	token, self, err := login(ctx, config)
	if err != nil {
		return exitRuntime, err
	}
	color.Green.Printf("Signed in as %s <%s>\n", self.DisplayName, self.Email)

	wsURL := toWebSocketURL(config.ServerURL) + "/api/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to gateway: %w", err)
	}
	defer conn.Close()

	frames := make(chan frame)
	go func() {
		defer close(frames)
		for {
			var f frame
			if err := conn.ReadJSON(&f); err != nil {
				return
			}
			frames <- f
		}
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	color.Gray.Println("Commands: /select <#> to open a chat, /close, /quit. Anything else sends.")

	var roster []domain.User
	names := map[string]string{self.ID: self.DisplayName}

	for {
		select {
		case <-ctx.Done():
			color.Gray.Println("Stopping client...")
			return exitOK, nil

		case f, ok := <-frames:
			if !ok {
				return exitRuntime, fmt.Errorf("connection closed by gateway")
			}
			switch f.Type {
			case "roster":
				roster = f.Users
				for _, u := range roster {
					names[u.ID] = u.DisplayName
				}
				renderRoster(roster)
			case "messages":
				renderMessages(self.ID, names, f.Messages)
			case "state":
				color.Gray.Printf("-- conversation %s --\n", f.State)
			case "error":
				color.Red.Printf("!! %s\n", f.Error)
			}

		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			quit, err := dispatch(conn, roster, line)
			if err != nil {
				return exitRuntime, err
			}
			if quit {
				return exitOK, nil
			}
		}
	}
}

func dispatch(conn *websocket.Conn, roster []domain.User, line string) (quit bool, err error) {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return false, nil
	case line == "/quit":
		return true, nil
	case line == "/close":
		return false, conn.WriteJSON(intent{Type: "close"})
	case strings.HasPrefix(line, "/select "):
		idx, convErr := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "/select ")))
		if convErr != nil || idx < 1 || idx > len(roster) {
			color.Red.Println("!! no such roster entry")
			return false, nil
		}
		return false, conn.WriteJSON(intent{Type: "select", PeerID: roster[idx-1].ID})
	default:
		return false, conn.WriteJSON(intent{Type: "send", Text: line})
	}
}

func renderRoster(roster []domain.User) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"#", "Name", "Email"})
	for i, u := range roster {
		table.Append([]string{strconv.Itoa(i + 1), u.DisplayName, u.Email})
	}
	table.Render()
}

func renderMessages(selfID string, names map[string]string, messages []domain.Message) {
	for _, m := range messages {
		name := names[m.SenderID]
		if name == "" {
			name = m.SenderID
		}
		stamp := m.CreatedAt.Local().Format(time.Kitchen)
		if m.SenderID == selfID {
			color.Cyan.Printf("[%s] %s: %s\n", stamp, name, m.Text)
		} else {
			color.Yellow.Printf("[%s] %s: %s\n", stamp, name, m.Text)
		}
	}
}

func login(ctx context.Context, config Config) (string, domain.User, error) {
	body, err := json.Marshal(map[string]string{
		"email":    config.Email,
		"password": config.Password,
	})
	if err != nil {
		return "", domain.User{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		config.ServerURL+"/api/login", bytes.NewReader(body))
	if err != nil {
		return "", domain.User{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", domain.User{}, fmt.Errorf("login rejected: %s", resp.Status)
	}

	var payload struct {
		Token string      `json:"token"`
		User  domain.User `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", domain.User{}, err
	}
	return payload.Token, payload.User, nil
}

func toWebSocketURL(serverURL string) string {
	switch {
	case strings.HasPrefix(serverURL, "https://"):
		return "wss://" + strings.TrimPrefix(serverURL, "https://")
	case strings.HasPrefix(serverURL, "http://"):
		return "ws://" + strings.TrimPrefix(serverURL, "http://")
	default:
		return "ws://" + serverURL
	}
}
