// Package slack posts High severity reports to a Slack channel.
package slack

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/slack-go/slack"

	"github.com/ParthDhavan04/Disaster-info-backend/internal/domain"
)

// Notifier implements pipeline.Notifier with chat.postMessage.
type Notifier struct {
	client    *slack.Client
	channelID string
	logger    *slog.Logger
}

// NewNotifier creates a Notifier posting with a bot token. Options are passed
// to the Slack client.
func NewNotifier(token, channelID string, logger *slog.Logger, opts ...slack.Option) *Notifier {
	return &Notifier{
		client:    slack.New(token, opts...),
		channelID: channelID,
		logger:    logger,
	}
}

// NotifyReport posts one alert message for r.
func (n *Notifier) NotifyReport(ctx context.Context, r domain.Report) error {
	title := alertTitle(r)
	body := alertBody(r)
	_, ts, err := n.client.PostMessageContext(ctx, n.channelID,
		slack.MsgOptionText(title+"\n"+body, false),
		slack.MsgOptionBlocks(
			slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, title, false, false)),
			slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, body, false, false), nil, nil),
		),
	)
	if err != nil {
		return fmt.Errorf("post slack alert: %w", err)
	}
	n.logger.Debug("slack alert posted", "report_id", r.ID, "ts", ts)
	return nil
}

func alertTitle(r domain.Report) string {
	title := fmt.Sprintf("%s severity %s", r.Severity, r.DisasterType)
	if r.LocationText != nil {
		title += " near " + *r.LocationText
	}
	return title
}

func alertBody(r domain.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "> %s\n", strings.ReplaceAll(r.Text, "\n", "\n> "))
	if r.Location != nil {
		c := r.Location.LatLon()
		fmt.Fprintf(&b, "*Coordinates:* %.4f, %.4f\n", c.Lat, c.Lon)
	}
	fmt.Fprintf(&b, "*Confidence:* %.2f | *Report:* `%s`", r.Confidence, r.ID)
	return b.String()
}
