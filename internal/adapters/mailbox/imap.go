package mailbox

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/mikey/llm-mail-digest/internal/core"
	"go.uber.org/zap"
)

// IMAPMailbox is an implementation of the Mailbox interface backed by an IMAP folder
type IMAPMailbox struct {
	host       string
	port       int
	username   string
	password   string
	tls        bool
	folder     string
	linkFormat string
	logger     *zap.Logger
}

// NewIMAPMailbox creates a new IMAP mailbox
func NewIMAPMailbox(
	host string,
	port int,
	username string,
	password string,
	tls bool,
	folder string,
	linkFormat string,
	logger *zap.Logger,
) *IMAPMailbox {
	if folder == "" {
		folder = "INBOX"
	}
	return &IMAPMailbox{
		host:       host,
		port:       port,
		username:   username,
		password:   password,
		tls:        tls,
		folder:     folder,
		linkFormat: linkFormat,
		logger:     logger,
	}
}

// connect dials the server, logs in and selects the folder. The caller
// must log out.
func (m *IMAPMailbox) connect(ctx context.Context) (*imapclient.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	addr := net.JoinHostPort(m.host, strconv.Itoa(m.port))

	var client *imapclient.Client
	var err error
	if m.tls {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(m.username, m.password).Wait(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("authentication failed for %s: %w", m.username, err)
	}

	if _, err := client.Select(m.folder, nil).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("selecting %s: %w", m.folder, err)
	}

	return client, nil
}

// FetchMessages returns up to limit unread messages, newest first, without
// changing their flags
func (m *IMAPMailbox) FetchMessages(ctx context.Context, limit int) ([]core.Message, error) {
	client, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Logout().Wait() }()

	searchData, err := client.UIDSearch(&imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
	}, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching unread messages: %w", err)
	}

	uids := newestFirst(searchData.AllUIDs(), limit)
	if len(uids) == 0 {
		m.logger.Debug("No unread messages", zap.String("folder", m.folder))
		return []core.Message{}, nil
	}

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchCmd := client.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	})

	byUID := make(map[imap.UID]ParsedMessage, len(uids))
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}
		buf, err := msg.Collect()
		if err != nil {
			m.logger.Warn("Failed to read message", zap.Error(err))
			continue
		}
		byUID[buf.UID] = ParseMessage(buf.FindBodySection(bodySection))
	}
	if err := fetchCmd.Close(); err != nil {
		return nil, fmt.Errorf("fetching messages: %w", err)
	}

	messages := make([]core.Message, 0, len(byUID))
	for _, uid := range uids {
		parsed, ok := byUID[uid]
		if !ok {
			continue
		}
		messages = append(messages, m.toMessage(uid, parsed, len(messages)+1))
	}

	m.logger.Info("Fetched unread messages",
		zap.String("folder", m.folder),
		zap.Int("count", len(messages)))

	return messages, nil
}

// MarkRead sets the \Seen flag on the given message UIDs
func (m *IMAPMailbox) MarkRead(ctx context.Context, ids []string) error {
	uids, err := parseUIDs(ids)
	if err != nil {
		return err
	}
	if len(uids) == 0 {
		return nil
	}

	client, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Logout().Wait() }()

	storeCmd := client.Store(imap.UIDSetNum(uids...), &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}, nil)
	if err := storeCmd.Close(); err != nil {
		return fmt.Errorf("marking messages read: %w", err)
	}

	m.logger.Debug("Marked messages read", zap.Int("count", len(uids)))
	return nil
}

func (m *IMAPMailbox) toMessage(uid imap.UID, parsed ParsedMessage, index int) core.Message {
	return core.Message{
		ID:         strconv.FormatUint(uint64(uid), 10),
		Subject:    parsed.Subject,
		Body:       parsed.Body,
		Sender:     parsed.Sender,
		Link:       MessageLink(m.linkFormat, parsed.MessageID),
		ReceivedAt: parsed.Date,
		Index:      index,
	}
}

// MessageLink fills format with the query-escaped Message-ID, or returns ""
// when either is missing
func MessageLink(format, messageID string) string {
	if format == "" || messageID == "" || !strings.Contains(format, "%s") {
		return ""
	}
	return fmt.Sprintf(format, url.QueryEscape(messageID))
}

// newestFirst keeps the highest limit UIDs and orders them descending
func newestFirst(uids []imap.UID, limit int) []imap.UID {
	out := append([]imap.UID(nil), uids...)
	sort.Slice(out, func(i, j int) bool { return out[i] > out[j] })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func parseUIDs(ids []string) ([]imap.UID, error) {
	uids := make([]imap.UID, 0, len(ids))
	for _, id := range ids {
		n, err := strconv.ParseUint(id, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid message UID %q: %w", id, err)
		}
		uids = append(uids, imap.UID(n))
	}
	return uids, nil
}
