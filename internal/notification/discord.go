package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/the1joesmith/ascent-and-spread/internal/properties"
)

type DiscordMessage struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

type DiscordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
}

func postWebhook(url string, message DiscordMessage) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}

	resp, err := http.Post(url, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to send Discord notification, status code: %d", resp.StatusCode)
	}

	return nil
}

func SendDiscordErrorNotification(errorMessage string) error {
	return postWebhook(properties.DiscordErrorNotificationUrl(), DiscordMessage{
		Embeds: []DiscordEmbed{
			{
				Title:       "🚨 Transition run failed",
				Description: fmt.Sprintf("The detection run did not finish: %s", errorMessage),
				Color:       16711680, // Red
			},
		},
	})
}

func SendDiscordSuccessNotification(successMessage string) error {
	return postWebhook(properties.DiscordSuccessNotificationUrl(), DiscordMessage{
		Embeds: []DiscordEmbed{
			{
				Title:       "✅ Transition run finished",
				Description: successMessage,
				Color:       65280, // Green
			},
		},
	})
}
