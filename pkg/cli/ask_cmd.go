package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"genie-dashboard/internal/domain"
)

var resultPollInterval = time.Second

func newAskCmd(client *Client, prefs *preferences) *cobra.Command {
	var (
		conversationID string
		wait           bool
		timeout        time.Duration
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask Genie a question",
		Long: "Ask Genie a natural-language question. With --wait the command polls " +
			"until the answer is completed or failed and prints the result rows.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.TrimSpace(strings.Join(args, " "))
			if question == "" {
				return fmt.Errorf("question must not be empty")
			}

			resp, err := client.Ask(cmd.Context(), domain.AskRequest{
				Question:       question,
				ConversationID: conversationID,
			})
			if err != nil {
				return err
			}

			if !wait || resp.Status != domain.ConversationPending {
				return printAskResponse(cmd, resp)
			}

			if !cmd.Flags().Changed("timeout") && prefs.waitTimeout > 0 {
				timeout = prefs.waitTimeout
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			res, err := waitForResult(ctx, client, resp.ConversationID, resp.MessageID)
			if err != nil {
				return err
			}
			return printConversationResult(cmd, res)
		},
	}

	cmd.Flags().StringVar(&conversationID, "conversation", "", "Continue an existing conversation")
	cmd.Flags().BoolVar(&wait, "wait", false, "Poll until the answer is ready")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Maximum time to wait with --wait, overrides the profile's wait-timeout")

	return cmd
}

func newResultCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "result <conversation-id> <message-id>",
		Short: "Show the state and rows of a Genie answer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := client.Result(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printConversationResult(cmd, res)
		},
	}
}

// waitForResult polls the result endpoint until the message leaves the
// pending state or ctx expires.
func waitForResult(ctx context.Context, client *Client, conversationID, messageID string) (*domain.ConversationResult, error) {
	ticker := time.NewTicker(resultPollInterval)
	defer ticker.Stop()

	for {
		res, err := client.Result(ctx, conversationID, messageID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, waitTimeoutError(ctx, conversationID, messageID)
			}
			return nil, err
		}
		if res.Status != domain.ConversationPending {
			return res, nil
		}

		select {
		case <-ctx.Done():
			return nil, waitTimeoutError(ctx, conversationID, messageID)
		case <-ticker.C:
		}
	}
}

func waitTimeoutError(ctx context.Context, conversationID, messageID string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("timed out waiting for message %s in conversation %s", messageID, conversationID)
	}
	return ctx.Err()
}

func printAskResponse(cmd *cobra.Command, resp *domain.AskResponse) error {
	if ok, err := printStructured(os.Stdout, getOutputFormat(cmd), resp); ok {
		return err
	}
	printTable(os.Stdout, []string{"CONVERSATION", "MESSAGE", "STATUS", "SQL"}, [][]string{
		{resp.ConversationID, resp.MessageID, string(resp.Status), resp.SQL},
	})
	if resp.Error != "" {
		_, _ = fmt.Fprintf(os.Stdout, "Error: %s\n", resp.Error)
	}
	return nil
}

func printConversationResult(cmd *cobra.Command, res *domain.ConversationResult) error {
	if ok, err := printStructured(os.Stdout, getOutputFormat(cmd), res); ok {
		return err
	}

	_, _ = fmt.Fprintf(os.Stdout, "Status: %s\n", res.Status)
	if res.Description != "" {
		_, _ = fmt.Fprintf(os.Stdout, "Description: %s\n", res.Description)
	}
	if res.SQL != "" {
		_, _ = fmt.Fprintf(os.Stdout, "SQL: %s\n", res.SQL)
	}
	if res.Error != "" {
		_, _ = fmt.Fprintf(os.Stdout, "Error: %s\n", res.Error)
	}
	if len(res.Columns) > 0 {
		printRows(os.Stdout, res.Columns, res.Data)
	}
	return nil
}

// printRows renders result rows as a table in column order.
func printRows(w io.Writer, columns []domain.ColumnInfo, data []domain.ResultRow) {
	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = c.Name
	}
	rows := make([][]string, 0, len(data))
	for _, r := range data {
		row := make([]string, len(columns))
		for i, c := range columns {
			row[i] = formatValue(r[c.Name])
		}
		rows = append(rows, row)
	}
	printTable(w, header, rows)
}
