package factory

import (
	"fmt"

	"github.com/mikey/llm-mail-digest/internal/adapters/mailbox"
	"github.com/mikey/llm-mail-digest/internal/config"
	"github.com/mikey/llm-mail-digest/internal/core"
	"github.com/mikey/llm-mail-digest/internal/credential"
	"go.uber.org/zap"
)

// MailboxFactory creates the mailbox the digest reads from
type MailboxFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	secrets *credential.Store
}

// NewMailboxFactory creates a new mailbox factory
func NewMailboxFactory(cfg *config.Config, logger *zap.Logger, secrets *credential.Store) *MailboxFactory {
	return &MailboxFactory{
		cfg:     cfg,
		logger:  logger,
		secrets: secrets,
	}
}

// CreateMailbox creates an IMAP mailbox from the configuration
func (f *MailboxFactory) CreateMailbox() (core.Mailbox, error) {
	mailboxCfg := f.cfg.GetMailbox()

	if mailboxCfg.Host == "" || mailboxCfg.Username == "" {
		return nil, fmt.Errorf("mailbox host and username are required")
	}
	password, err := f.secrets.Resolve(mailboxCfg.Password, mailboxCfg.PasswordKeyringKey)
	if err != nil {
		return nil, err
	}

	return mailbox.NewIMAPMailbox(
		mailboxCfg.Host,
		mailboxCfg.Port,
		mailboxCfg.Username,
		password,
		mailboxCfg.TLS,
		mailboxCfg.Folder,
		mailboxCfg.LinkFormat,
		f.logger,
	), nil
}

// NewSecretStore opens the OS keyring when any credential is configured to
// live there, and returns nil otherwise
func NewSecretStore(cfg *config.Config) (*credential.Store, error) {
	if cfg.GetOpenAI().APIKeyKeyringKey == "" && cfg.GetMailbox().PasswordKeyringKey == "" {
		return nil, nil
	}
	keyringCfg := cfg.GetKeyring()
	return credential.Open(keyringCfg.Service, keyringCfg.Backend)
}
