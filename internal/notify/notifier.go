// Package notify delivers sync batch summaries over WhatsApp.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nahidhasan98/orgsync/internal/errors"
	"github.com/nahidhasan98/orgsync/internal/logger"
	"github.com/nahidhasan98/orgsync/internal/syncer"
)

const maxListedFiles = 20

// Sender is the part of the WhatsApp client the notifier needs
type Sender interface {
	SendText(ctx context.Context, toJID string, text string) error
	IsConnected() bool
}

// Notifier sends one message per finished batch
type Notifier struct {
	sender     Sender
	recipient  string
	repository string
	log        *logger.Logger
}

// NewNotifier creates a notifier that reports batches for repository to recipient
func NewNotifier(sender Sender, recipient, repository string, log *logger.Logger) *Notifier {
	return &Notifier{
		sender:     sender,
		recipient:  recipient,
		repository: repository,
		log:        log,
	}
}

// NotifyBatch implements syncer.Notifier. Batches that touched no files are skipped.
func (n *Notifier) NotifyBatch(ctx context.Context, report *syncer.BatchReport) error {
	if report.Attempted() == 0 {
		n.log.Debugf("Skipping notification for empty %s batch", report.Source)
		return nil
	}

	if !n.sender.IsConnected() {
		return errors.ServiceUnavailable("WhatsApp client is not connected")
	}

	if err := n.sender.SendText(ctx, n.recipient, FormatBatch(n.repository, report)); err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "Failed to send batch summary")
	}

	n.log.Infof("Batch summary sent to %s", n.recipient)
	return nil
}

// FormatBatch renders a batch report as a WhatsApp message
func FormatBatch(repository string, report *syncer.BatchReport) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("🔄 Sync finished for *%s*\n", repository))
	sb.WriteString("\n```")
	sb.WriteString(fmt.Sprintf("🆔 Batch   : %s\n", shortID(report.ID)))
	sb.WriteString(fmt.Sprintf("📥 Source  : %s\n", report.Source))
	sb.WriteString(fmt.Sprintf("📊 Files   : %d\n", report.Attempted()))
	sb.WriteString(fmt.Sprintf("⚠️ Failed  : %d\n", report.Failed()))
	sb.WriteString(fmt.Sprintf("⏱️ Duration: %s\n", report.Duration.Round(time.Millisecond)))
	sb.WriteString("```\n")

	writeFileList(&sb, "\n📝 Updated", report.Modified.Succeeded)
	writeFileList(&sb, "\n❌ Removed", report.Removed.Succeeded)

	failures := append(append([]syncer.Failure{}, report.Modified.Failures...), report.Removed.Failures...)
	if len(failures) > 0 {
		sb.WriteString(fmt.Sprintf("\n🚫 Failures: %d\n", len(failures)))
		for i, f := range failures {
			if i >= maxListedFiles {
				sb.WriteString(fmt.Sprintf("   _...and %d more_\n", len(failures)-maxListedFiles))
				break
			}
			sb.WriteString(fmt.Sprintf("   • %s `%s`\n", f.File, f.Code))
		}
	}

	return sb.String()
}

func writeFileList(sb *strings.Builder, title string, files []string) {
	if len(files) == 0 {
		return
	}

	sb.WriteString(fmt.Sprintf("%s: %d\n", title, len(files)))
	for i, file := range files {
		if i >= maxListedFiles {
			sb.WriteString(fmt.Sprintf("   _...and %d more_\n", len(files)-maxListedFiles))
			break
		}
		sb.WriteString(fmt.Sprintf("   • %s\n", file))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
