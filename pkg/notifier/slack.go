// Package notifier ports the teacher's internal/adapter/notifier Slack
// webhook onto the §4.5 human-review contract: instead of a
// SentinelOne-specific detection payload, it renders a finished
// models.TriageResult, repointed at the alert.result downstream as an
// example SOAR-adjacent sink (SPEC_FULL.md §2 Go-native additions).
package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hive-corporation/sentryline/pkg/models"
)

type SlackNotifier struct {
	botToken    string
	channel     string
	mentionTeam string
	httpClient  *http.Client
}

func NewSlackNotifier(botToken, channel, mentionTeam string) *SlackNotifier {
	return &SlackNotifier{
		botToken:    botToken,
		channel:     channel,
		mentionTeam: mentionTeam,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

var severityEmoji = map[models.ThreatLevel]string{
	models.ThreatCritical: "🔴",
	models.ThreatHigh:     "🟠",
	models.ThreatMedium:   "🟡",
	models.ThreatLow:      "🟢",
	models.ThreatClean:    "🔵",
}

// NotifyTriage posts a triage result that needs human review, §4.5. The
// alert itself is included for display context the triage row doesn't
// carry (alert_type, description).
func (s *SlackNotifier) NotifyTriage(alert models.Alert, result models.TriageResult) error {
	blocks := s.buildBlocks(alert, result)

	payload := slackMessage{
		Channel: s.channel,
		Blocks:  blocks,
		Text:    fmt.Sprintf("⚠️ %s: triage flagged %s for human review", strings.ToUpper(string(result.RiskLevel)), alert.AlertID),
	}
	return s.sendMessage(payload)
}

func (s *SlackNotifier) buildBlocks(alert models.Alert, result models.TriageResult) []slackBlock {
	emoji := severityEmoji[result.RiskLevel]
	if emoji == "" {
		emoji = "⚠️"
	}

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: fmt.Sprintf("%s %s Severity Alert Needs Review", emoji, strings.ToUpper(string(result.RiskLevel)))},
		},
		{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: fmt.Sprintf("*🤖 AI Analysis*\n%s", result.AnalysisText)},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("*Alert ID*\n%s", alert.AlertID)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Type*\n%s", alert.AlertType)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Risk Score*\n%.0f", result.RiskScore)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Model*\n%s", result.ModelUsed)},
			},
		},
		{Type: "divider"},
	}

	if len(result.IOCsExtracted) > 0 {
		var iocText strings.Builder
		iocText.WriteString("*🔍 Indicators of Compromise*\n")
		for i, ioc := range result.IOCsExtracted {
			if i >= 5 {
				fmt.Fprintf(&iocText, "_...and %d more_\n", len(result.IOCsExtracted)-5)
				break
			}
			fmt.Fprintf(&iocText, "• *%s:* `%s`\n", ioc.Type, ioc.Value)
		}
		blocks = append(blocks, slackBlock{Type: "section", Text: &slackText{Type: "mrkdwn", Text: iocText.String()}})
		blocks = append(blocks, slackBlock{Type: "divider"})
	}

	if len(result.RecommendedActions) > 0 {
		var actionsText strings.Builder
		actionsText.WriteString("*✅ Recommended Actions*\n")
		for _, a := range result.RecommendedActions {
			fmt.Fprintf(&actionsText, "• %s\n", a.Action)
		}
		blocks = append(blocks, slackBlock{Type: "section", Text: &slackText{Type: "mrkdwn", Text: actionsText.String()}})
	}

	confidenceEmoji := "🟢"
	if result.Confidence < 0.7 {
		confidenceEmoji = "🟡"
	}
	if result.Confidence < 0.5 {
		confidenceEmoji = "🔴"
	}
	blocks = append(blocks, slackBlock{
		Type: "context",
		Elements: []slackText{
			{Type: "mrkdwn", Text: fmt.Sprintf("%s AI Confidence: *%.0f%%*", confidenceEmoji, result.Confidence*100)},
		},
	})

	if s.mentionTeam != "" {
		blocks = append(blocks, slackBlock{Type: "section", Text: &slackText{Type: "mrkdwn", Text: fmt.Sprintf("🔔 %s", s.mentionTeam)}})
	}

	return blocks
}

func (s *SlackNotifier) sendMessage(msg slackMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("notifier: marshal slack message: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, "https://slack.com/api/chat.postMessage", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notifier: build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.botToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notifier: send slack message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notifier: slack API returned status %d", resp.StatusCode)
	}
	return nil
}

type slackMessage struct {
	Channel string      `json:"channel"`
	Blocks  []slackBlock `json:"blocks"`
	Text    string      `json:"text"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Fields   []slackText `json:"fields,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
