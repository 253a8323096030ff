package notify

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mdp/qrterminal/v3"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"

	"github.com/nahidhasan98/orgsync/internal/config"
	"github.com/nahidhasan98/orgsync/internal/logger"
)

// Connection states reported by Status
const (
	StatusDisabled     = "disabled"
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
	StatusPairing      = "pairing"
)

// WhatsAppClient owns the linked-device session used to deliver batch summaries
type WhatsAppClient struct {
	client    *whatsmeow.Client
	container *sqlstore.Container
	log       *logger.Logger
	qrOut     io.Writer

	mu              sync.RWMutex
	connected       bool
	pairing         bool
	reconnect       ReconnectConfig
	cancelReconnect context.CancelFunc
}

// ReconnectConfig controls automatic reconnection backoff
type ReconnectConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// DefaultReconnectConfig is used unless the caller overrides it
var DefaultReconnectConfig = ReconnectConfig{
	MaxRetries:      10,
	InitialInterval: 5 * time.Second,
	MaxInterval:     5 * time.Minute,
	Multiplier:      1.5,
}

// NewWhatsAppClient opens the session store and prepares a client.
// Pairing codes are rendered to qrOut.
func NewWhatsAppClient(ctx context.Context, cfg config.WhatsAppConfig, qrOut io.Writer, log *logger.Logger) (*WhatsAppClient, error) {
	container, err := sqlstore.New(ctx, "sqlite3", cfg.DSN, waLog.Stdout("Database", cfg.LogLevel, true))
	if err != nil {
		return nil, fmt.Errorf("failed to create session store: %w", err)
	}

	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get device store: %w", err)
	}

	deviceName := cfg.DeviceName
	if deviceName == "" {
		deviceName = "orgsync"
	}
	store.SetOSInfo(deviceName, [3]uint32{0, 1, 0})
	device.Platform = deviceName

	wac := &WhatsAppClient{
		client:    whatsmeow.NewClient(device, waLog.Stdout("Client", cfg.LogLevel, true)),
		container: container,
		log:       log.With("component", "whatsapp"),
		qrOut:     qrOut,
		reconnect: DefaultReconnectConfig,
	}
	wac.client.AddEventHandler(wac.handleConnectionEvents)

	return wac, nil
}

func (w *WhatsAppClient) handleConnectionEvents(evt interface{}) {
	switch v := evt.(type) {
	case *events.Connected:
		w.mu.Lock()
		w.connected = true
		w.pairing = false
		if w.cancelReconnect != nil {
			w.cancelReconnect()
			w.cancelReconnect = nil
		}
		w.mu.Unlock()
		w.log.Info("WhatsApp client connected")

	case *events.Disconnected:
		w.mu.Lock()
		w.connected = false
		shouldReconnect := w.cancelReconnect == nil
		w.mu.Unlock()

		w.log.Warn("WhatsApp client disconnected")
		if shouldReconnect {
			go w.startReconnection()
		}

	case *events.LoggedOut:
		w.mu.Lock()
		w.connected = false
		w.mu.Unlock()
		w.log.Warnf("WhatsApp session logged out: %v", v.Reason)

	case *events.StreamError:
		w.log.Errorf("WhatsApp stream error: %v", v)
	}
}

func (w *WhatsAppClient) startReconnection() {
	w.mu.Lock()
	if w.connected || w.cancelReconnect != nil {
		w.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.cancelReconnect = cancel
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.cancelReconnect = nil
		w.mu.Unlock()
	}()

	interval := w.reconnect.InitialInterval
	for attempt := 1; attempt <= w.reconnect.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			w.log.Info("Reconnection cancelled")
			return
		case <-time.After(interval):
		}

		if w.client.IsConnected() {
			w.mu.Lock()
			w.connected = true
			w.mu.Unlock()
			return
		}

		w.log.Infof("Reconnection attempt %d/%d", attempt, w.reconnect.MaxRetries)
		if err := w.client.Connect(); err != nil {
			w.log.Errorf("Reconnection attempt %d failed: %v", attempt, err)
			interval = nextInterval(interval, w.reconnect)
			continue
		}

		w.log.Info("Successfully reconnected to WhatsApp")
		return
	}

	w.log.Error("All reconnection attempts failed", nil)
}

// nextInterval grows the backoff interval, capped at MaxInterval
func nextInterval(current time.Duration, cfg ReconnectConfig) time.Duration {
	next := time.Duration(float64(current) * cfg.Multiplier)
	if next > cfg.MaxInterval {
		return cfg.MaxInterval
	}
	return next
}

// Connect resumes a stored session, or starts QR pairing in the background
// so that the HTTP server is not held up.
func (w *WhatsAppClient) Connect(ctx context.Context) error {
	if w.client.Store.ID == nil {
		w.log.Info("No existing session found, starting QR authentication...")
		w.mu.Lock()
		w.pairing = true
		w.mu.Unlock()
		go w.authenticateWithQR(ctx)
		return nil
	}

	w.log.Info("Existing session found. Connecting...")
	if err := w.client.Connect(); err != nil {
		return fmt.Errorf("failed to connect client: %w", err)
	}

	w.mu.Lock()
	w.connected = true
	w.mu.Unlock()
	w.log.Infof("Device ID: %s", w.client.Store.ID.String())
	return nil
}

func (w *WhatsAppClient) authenticateWithQR(ctx context.Context) {
	const maxAttempts = 5
	defer func() {
		w.mu.Lock()
		w.pairing = false
		w.mu.Unlock()
	}()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return
		}
		if attempt > 1 {
			w.log.Infof("Generating new QR code (attempt %d/%d)...", attempt, maxAttempts)
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
		}

		qrCtx, qrCancel := context.WithTimeout(ctx, 60*time.Second)
		qrChan, err := w.client.GetQRChannel(qrCtx)
		if err != nil {
			qrCancel()
			w.log.Errorf("Failed to get QR channel: %v", err)
			continue
		}

		if !w.client.IsConnected() {
			if err := w.client.Connect(); err != nil {
				qrCancel()
				w.log.Errorf("Failed to connect client: %v", err)
				continue
			}
		}

		success, cancelled := w.handleQREvents(ctx, qrCtx, qrChan)
		qrCancel()

		if cancelled {
			w.log.Info("QR authentication cancelled")
			return
		}
		if success {
			w.mu.Lock()
			w.connected = true
			w.mu.Unlock()
			w.log.Info("WhatsApp authentication successful")
			return
		}

		w.log.Warn("QR code authentication failed, will retry with new QR code...")
	}

	w.log.Error("Failed to authenticate after multiple attempts", nil)
}

// handleQREvents returns (success, cancelled)
func (w *WhatsAppClient) handleQREvents(parentCtx, qrCtx context.Context, qrChan <-chan whatsmeow.QRChannelItem) (bool, bool) {
	for {
		select {
		case <-parentCtx.Done():
			return false, true

		case <-qrCtx.Done():
			w.log.Warn("QR code timed out without being scanned")
			return false, false

		case evt, ok := <-qrChan:
			if !ok {
				return false, parentCtx.Err() != nil
			}

			switch evt.Event {
			case "code":
				w.renderQR(evt.Code)
			case "success":
				w.log.Info("QR code scanned successfully! Completing authentication...")
				return true, false
			case "timeout":
				w.log.Warn("QR code expired, generating new one...")
				return false, false
			default:
				w.log.Infof("Authentication event: %s", evt.Event)
			}
		}
	}
}

func (w *WhatsAppClient) renderQR(code string) {
	rule := strings.Repeat("=", 64)
	fmt.Fprintf(w.qrOut, "\n%s\nSCAN QR CODE WITH WHATSAPP TO RECEIVE SYNC SUMMARIES\n%s\n", rule, rule)
	qrterminal.GenerateWithConfig(code, qrterminal.Config{
		Level:      qrterminal.M,
		Writer:     w.qrOut,
		HalfBlocks: true,
		QuietZone:  1,
	})
	fmt.Fprintf(w.qrOut, "%s\nOpen WhatsApp > Settings > Linked Devices > Link a Device\n%s\n\n", rule, rule)
}

// Disconnect stops reconnection attempts and closes the connection
func (w *WhatsAppClient) Disconnect() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancelReconnect != nil {
		w.cancelReconnect()
		w.cancelReconnect = nil
	}

	w.client.Disconnect()
	w.connected = false
	w.log.Info("Disconnected from WhatsApp")
}

// SendText sends a plain text message to toJID
func (w *WhatsAppClient) SendText(ctx context.Context, toJID string, text string) error {
	jid, err := types.ParseJID(toJID)
	if err != nil {
		return fmt.Errorf("invalid JID %s: %w", toJID, err)
	}

	if _, err := w.client.SendMessage(ctx, jid, &waE2E.Message{Conversation: proto.String(text)}); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	w.log.Debugf("Message sent to %s", toJID)
	return nil
}

// IsConnected reports whether messages can be sent right now
func (w *WhatsAppClient) IsConnected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.connected && w.client.IsConnected() && w.client.Store.ID != nil
}

// Status describes the connection for the health endpoint
func (w *WhatsAppClient) Status() string {
	if w.IsConnected() {
		return StatusConnected
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.pairing {
		return StatusPairing
	}
	return StatusDisconnected
}
