package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chzyer/readline"
	domainCli "github.com/emundo/emubot/domains/cli"
	uiWebsocket "github.com/emundo/emubot/ui/websocket"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var chatURL string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to a running emubot through its CLI webhook",
	RunE:  chat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatURL, "url", "u", "", `webhook url of the CLI transport | example: --url="http://localhost:4000/webhook"`)
	rootCmd.AddCommand(chatCmd)
}

type chatClient struct {
	webhook string
	http    *http.Client
	id      string
}

func chat(cmd *cobra.Command, _ []string) error {
	webhook := chatURL
	if webhook == "" {
		webhook = "http://localhost:" + cfg.App.Port + cfg.App.BasePath + cfg.Platform.Chat.Cli.WebhookPath
	}
	client := &chatClient{webhook: strings.TrimSuffix(webhook, "/"), http: &http.Client{Timeout: 30 * time.Second}}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if err := client.hello(ctx); err != nil {
		return err
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	out := rl.Stdout()

	conn, err := client.connect(ctx)
	if err != nil {
		logrus.Warnf("[CLI] Proactive messages disabled: %v", err)
	} else {
		defer conn.Close()
		go client.listen(conn, out)
	}

	// Greet first: the server answers the initial request with its welcome.
	replies, err := client.send(ctx, domainCli.MessageRequest{Type: domainCli.TypeInitial, ID: client.id})
	if err != nil {
		return err
	}
	printReplies(out, replies)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}

		replies, err := client.send(ctx, domainCli.MessageRequest{Type: domainCli.TypeMessage, Text: text, ID: client.id})
		if err != nil {
			fmt.Fprintf(out, "! %v\n", err)
			continue
		}
		printReplies(out, replies)
	}
}

func (c *chatClient) hello(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.webhook+"/hello", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach %s: %w", c.webhook, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("hello failed with status %d", resp.StatusCode)
	}

	var hello domainCli.HelloResponse
	if err := json.NewDecoder(resp.Body).Decode(&hello); err != nil {
		return fmt.Errorf("failed to decode hello response: %w", err)
	}
	c.id = hello.ID
	return nil
}

// send posts one request. A reply without a body means the bot chose not
// to answer.
func (c *chatClient) send(ctx context.Context, message domainCli.MessageRequest) ([]domainCli.MessageResponse, error) {
	body, err := json.Marshal(message)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhook, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("server answered %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var replies []domainCli.MessageResponse
	if err := json.Unmarshal(data, &replies); err != nil {
		return nil, fmt.Errorf("failed to decode reply: %w", err)
	}
	return replies, nil
}

func (c *chatClient) connect(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(c.webhook + "/ws")
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.RawQuery = url.Values{"id": {c.id}}.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	return conn, err
}

func (c *chatClient) listen(conn *websocket.Conn, out io.Writer) {
	for {
		var push struct {
			Code   string                    `json:"code"`
			Result domainCli.MessageResponse `json:"result"`
		}
		if err := conn.ReadJSON(&push); err != nil {
			return
		}
		if push.Code == uiWebsocket.CodeMessage {
			printReplies(out, []domainCli.MessageResponse{push.Result})
		}
	}
}

func printReplies(out io.Writer, replies []domainCli.MessageResponse) {
	for _, reply := range replies {
		fmt.Fprintf(out, "bot: %s\n", reply.Text)
	}
}
