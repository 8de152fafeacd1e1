package cmd

import (
	"github.com/dukex/flowkit/pkg/notify"
)

func NewNotifier(webhookURL string) notify.Notifier {
	if webhookURL == "" {
		return notify.NopNotifier{}
	}

	return notify.NewWebhookNotifier(webhookURL)
}
