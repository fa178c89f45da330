package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wedsmoker/DiaryML/internal/client"
)

var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Ask the journal companion a question",
	Long:  "Send one message to the chat endpoint of a running server and print the reply. The diary must be unlocked.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	message := strings.Join(args, " ")

	c := client.New()
	if !c.Healthy() {
		return fmt.Errorf("no server running (start one with 'diaryml serve')")
	}

	body, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return fmt.Errorf("encode chat request: %w", err)
	}
	data, err := c.Post("/api/chat", body)
	if err != nil {
		return err
	}

	var resp struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("decode chat response: %w", err)
	}
	fmt.Println(resp.Response)
	return nil
}
