package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/connexx-dev/connexx/internal/models"
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
	ColorRed   = 16711680 // #FF0000 - Incident created
	ColorGreen = 65280    // #00FF00 - Incident resolved

	Username = "Connexx Incident Response"
)

// Notifier pushes incident lifecycle messages to the admin webhooks.
// Either URL may be empty, in which case that channel is skipped.
type Notifier struct {
	DiscordWebhook string
	SlackWebhook   string
}

func NewNotifierFromEnv() *Notifier {
	return &Notifier{
		DiscordWebhook: os.Getenv("ADMIN_DISCORD_WEBHOOK"),
		SlackWebhook:   os.Getenv("ADMIN_SLACK_WEBHOOK"),
	}
}

func (n *Notifier) SendIncidentCreatedNotification(incident models.Incident) error {
	if n.DiscordWebhook != "" {
		if err := n.sendDiscordIncidentCreated(incident); err != nil {
			return fmt.Errorf("discord: %w", err)
		}
	}

	if n.SlackWebhook != "" {
		if err := n.sendSlackIncidentCreated(incident); err != nil {
			return fmt.Errorf("slack: %w", err)
		}
	}

	return nil
}

func (n *Notifier) SendIncidentResolvedNotification(incident models.Incident) error {
	if n.DiscordWebhook != "" {
		if err := n.sendDiscordIncidentResolved(incident); err != nil {
			return fmt.Errorf("discord: %w", err)
		}
	}

	if n.SlackWebhook != "" {
		if err := n.sendSlackIncidentResolved(incident); err != nil {
			return fmt.Errorf("slack: %w", err)
		}
	}

	return nil
}

func (n *Notifier) sendDiscordIncidentCreated(incident models.Incident) error {
	payload := DiscordWebhookRequest{
		Username: Username,
		Embeds: []DiscordEmbed{
			{
				Title:       "**INCIDENT DETECTED**",
				Description: incident.Description,
				Color:       ColorRed,
				Fields: []DiscordWebhookField{
					{Name: "Reference", Value: incident.Reference, Inline: true},
					{Name: "Type", Value: incidentTypeLabel(incident.IncidentType), Inline: true},
					{Name: "Severity", Value: "**" + strings.ToUpper(incident.Severity) + "**", Inline: true},
					{Name: "Status", Value: incident.Status, Inline: true},
					{Name: "Created At", Value: incident.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC"), Inline: true},
				},
				Footer: &DiscordFooter{
					Text: "Connexx Incident Response",
				},
				Timestamp: time.Now().Format(time.RFC3339),
			},
		},
	}

	return sendDiscordWebhook(n.DiscordWebhook, payload)
}

func (n *Notifier) sendDiscordIncidentResolved(incident models.Incident) error {
	resolvedAt := "Unknown"
	duration := "Unknown"
	if incident.ResolvedAt != nil {
		resolvedAt = incident.ResolvedAt.UTC().Format("2006-01-02 15:04:05 UTC")
		duration = incident.ResolvedAt.Sub(incident.CreatedAt).Round(time.Second).String()
	}

	payload := DiscordWebhookRequest{
		Username: Username,
		Embeds: []DiscordEmbed{
			{
				Title:       "**INCIDENT RESOLVED**",
				Description: incident.ResolutionNotes,
				Color:       ColorGreen,
				Fields: []DiscordWebhookField{
					{Name: "Reference", Value: incident.Reference, Inline: true},
					{Name: "Type", Value: incidentTypeLabel(incident.IncidentType), Inline: true},
					{Name: "Resolved By", Value: incident.ResolvedBy, Inline: true},
					{Name: "Resolved At", Value: resolvedAt, Inline: true},
					{Name: "Duration", Value: duration, Inline: true},
				},
				Footer: &DiscordFooter{
					Text: "Connexx Incident Response",
				},
				Timestamp: time.Now().Format(time.RFC3339),
			},
		},
	}

	return sendDiscordWebhook(n.DiscordWebhook, payload)
}

func (n *Notifier) sendSlackIncidentCreated(incident models.Incident) error {
	payload := SlackWebhookRequest{
		Username:  Username,
		IconEmoji: ":rotating_light:",
		Text:      ":rotating_light: *INCIDENT DETECTED*",
		Attachments: []SlackAttachment{
			{
				Color: "danger",
				Title: fmt.Sprintf("%s incident %s", incidentTypeLabel(incident.IncidentType), incident.Reference),
				Text:  incident.Description,
				Fields: []SlackField{
					{Title: "Severity", Value: strings.ToUpper(incident.Severity), Short: true},
					{Title: "Status", Value: incident.Status, Short: true},
					{Title: "Created At", Value: incident.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC"), Short: false},
				},
				Footer:    "Connexx Incident Response",
				Timestamp: time.Now().Unix(),
			},
		},
	}

	return sendSlackWebhook(n.SlackWebhook, payload)
}

func (n *Notifier) sendSlackIncidentResolved(incident models.Incident) error {
	resolvedAt := "Unknown"
	duration := "Unknown"
	if incident.ResolvedAt != nil {
		resolvedAt = incident.ResolvedAt.UTC().Format("2006-01-02 15:04:05 UTC")
		duration = incident.ResolvedAt.Sub(incident.CreatedAt).Round(time.Second).String()
	}

	payload := SlackWebhookRequest{
		Username:  Username,
		IconEmoji: ":white_check_mark:",
		Text:      ":white_check_mark: *INCIDENT RESOLVED*",
		Attachments: []SlackAttachment{
			{
				Color: "good",
				Title: fmt.Sprintf("%s incident %s resolved", incidentTypeLabel(incident.IncidentType), incident.Reference),
				Text:  incident.ResolutionNotes,
				Fields: []SlackField{
					{Title: "Resolved By", Value: incident.ResolvedBy, Short: true},
					{Title: "Duration", Value: duration, Short: true},
					{Title: "Resolved At", Value: resolvedAt, Short: false},
				},
				Footer:    "Connexx Incident Response",
				Timestamp: time.Now().Unix(),
			},
		},
	}

	return sendSlackWebhook(n.SlackWebhook, payload)
}

func incidentTypeLabel(incidentType string) string {
	return strings.ReplaceAll(incidentType, "_", " ")
}

func sendDiscordWebhook(webhookURL string, payload DiscordWebhookRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal Discord payload: %w", err)
	}

	resp, err := http.Post(webhookURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to send Discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("Discord webhook returned status %d", resp.StatusCode)
	}

	return nil
}

func sendSlackWebhook(webhookURL string, payload SlackWebhookRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal Slack payload: %w", err)
	}

	resp, err := http.Post(webhookURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to send Slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("Slack webhook returned status %d", resp.StatusCode)
	}

	return nil
}
