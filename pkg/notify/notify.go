// Package notify sends best-effort Slack notifications on job completion
// and failure. A notification failure is logged and swallowed — it must
// never block or fail the pipeline that triggered it. Delivery happens on
// a fire-and-forget goroutine per call so RunJob never blocks on Slack
// latency.
package notify

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/slack-go/slack"

	"github.com/propresearch/agentic-research-core/pkg/sharedlog"
)

// Notifier is the capability the supervisor depends on. NoopNotifier
// satisfies it for configurations that run without Slack wired in.
type Notifier interface {
	NotifyCompleted(jobID, address string)
	NotifyFailed(jobID, reason string)
}

// SlackNotifier posts job lifecycle events to a fixed channel.
type SlackNotifier struct {
	Client  *slack.Client
	Channel string
	Logger  *logrus.Logger
}

// NewSlackNotifier builds a SlackNotifier from a bot token and channel ID.
func NewSlackNotifier(token, channel string, logger *logrus.Logger) *SlackNotifier {
	return &SlackNotifier{Client: slack.New(token), Channel: channel, Logger: logger}
}

func (n *SlackNotifier) NotifyCompleted(jobID, address string) {
	n.post(fmt.Sprintf(":white_check_mark: Research job `%s` completed for *%s*.", jobID, address))
}

func (n *SlackNotifier) NotifyFailed(jobID, reason string) {
	n.post(fmt.Sprintf(":x: Research job `%s` failed: %s", jobID, reason))
}

func (n *SlackNotifier) post(text string) {
	if n.Client == nil || n.Channel == "" {
		return
	}
	go func() {
		_, _, err := n.Client.PostMessage(n.Channel, slack.MsgOptionText(text, false))
		if err != nil {
			n.logger().WithFields(sharedlog.NewFields().Component("notify").Error(err).ToLogrus()).
				Warn("slack notification failed")
		}
	}()
}

func (n *SlackNotifier) logger() *logrus.Logger {
	if n.Logger != nil {
		return n.Logger
	}
	return logrus.StandardLogger()
}

// NoopNotifier discards every notification, used when Slack is not
// configured.
type NoopNotifier struct{}

func (NoopNotifier) NotifyCompleted(jobID, address string) {}
func (NoopNotifier) NotifyFailed(jobID, reason string)     {}
