package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/plank-dev/plank/internal/models"
)

// Workspace settings keys holding incoming-webhook URLs.
const (
	SettingSlackWebhook   = "slack_webhook"
	SettingDiscordWebhook = "discord_webhook"
)

type DiscordWebhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type DiscordEmbed struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Color       int                   `json:"color"`
	Fields      []DiscordWebhookField `json:"fields"`
	Footer      *DiscordFooter        `json:"footer,omitempty"`
	Timestamp   string                `json:"timestamp"`
}

type DiscordFooter struct {
	Text string `json:"text"`
}

type DiscordWebhookRequest struct {
	Username string         `json:"username"`
	Embeds   []DiscordEmbed `json:"embeds"`
}

type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type SlackAttachment struct {
	Color     string       `json:"color"`
	Title     string       `json:"title"`
	Text      string       `json:"text"`
	Fields    []SlackField `json:"fields"`
	Footer    string       `json:"footer"`
	Timestamp int64        `json:"ts"`
}

type SlackWebhookRequest struct {
	Username    string            `json:"username"`
	IconEmoji   string            `json:"icon_emoji,omitempty"`
	Text        string            `json:"text"`
	Attachments []SlackAttachment `json:"attachments"`
}

const (
	ColorBlue = 3447003 // #3498DB

	Username = "Plank"
)

// Invitation describes a membership row that was just created.
type Invitation struct {
	Workspace models.Workspace
	// Project is nil for workspace invitations.
	Project *models.Project
	User    models.User
	Role    string
}

func (i Invitation) target() string {
	if i.Project != nil {
		return fmt.Sprintf("project **%s**", i.Project.Name)
	}
	return fmt.Sprintf("workspace **%s**", i.Workspace.Name)
}

// Notifier posts invitation messages to the webhooks configured in a
// workspace's settings.
type Notifier struct {
	client *http.Client
}

func NewNotifier(timeout time.Duration) *Notifier {
	return &Notifier{client: &http.Client{Timeout: timeout}}
}

func (n *Notifier) SendInvitation(ctx context.Context, invitation Invitation) error {
	if n == nil {
		return nil
	}

	if url := settingString(invitation.Workspace, SettingDiscordWebhook); url != "" {
		if err := n.post(ctx, url, discordInvitation(invitation)); err != nil {
			return fmt.Errorf("discord: %w", err)
		}
	}

	if url := settingString(invitation.Workspace, SettingSlackWebhook); url != "" {
		if err := n.post(ctx, url, slackInvitation(invitation)); err != nil {
			return fmt.Errorf("slack: %w", err)
		}
	}

	return nil
}

func settingString(workspace models.Workspace, key string) string {
	if workspace.Settings == nil {
		return ""
	}
	value, _ := workspace.Settings[key].(string)
	return value
}

func discordInvitation(invitation Invitation) DiscordWebhookRequest {
	fields := []DiscordWebhookField{
		{Name: "Member", Value: invitation.User.Name, Inline: true},
		{Name: "Email", Value: invitation.User.Email, Inline: true},
	}

	if invitation.Role != "" {
		fields = append(fields, DiscordWebhookField{Name: "Role", Value: invitation.Role, Inline: true})
	}

	return DiscordWebhookRequest{
		Username: Username,
		Embeds: []DiscordEmbed{
			{
				Title:       "New member",
				Description: fmt.Sprintf("**%s** was added to %s.", invitation.User.Email, invitation.target()),
				Color:       ColorBlue,
				Fields:      fields,
				Footer: &DiscordFooter{
					Text: fmt.Sprintf("Workspace: %s", invitation.Workspace.Name),
				},
				Timestamp: time.Now().Format(time.RFC3339),
			},
		},
	}
}

func slackInvitation(invitation Invitation) SlackWebhookRequest {
	fields := []SlackField{
		{Title: "Member", Value: invitation.User.Name, Short: true},
		{Title: "Email", Value: invitation.User.Email, Short: true},
	}

	if invitation.Role != "" {
		fields = append(fields, SlackField{Title: "Role", Value: invitation.Role, Short: true})
	}

	return SlackWebhookRequest{
		Username:  Username,
		IconEmoji: ":wave:",
		Text:      ":wave: *New member*",
		Attachments: []SlackAttachment{
			{
				Color:     "good",
				Title:     fmt.Sprintf("%s was added to %s", invitation.User.Email, invitation.target()),
				Fields:    fields,
				Footer:    fmt.Sprintf("Workspace: %s", invitation.Workspace.Name),
				Timestamp: time.Now().Unix(),
			},
		},
	}
}

func (n *Notifier) post(ctx context.Context, webhookURL string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
