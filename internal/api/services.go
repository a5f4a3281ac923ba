package api

import (
	"time"

	"gorm.io/gorm"

	"github.com/mellystark/visitormanagement/internal/realtime"
	"github.com/mellystark/visitormanagement/internal/services"
	"github.com/mellystark/visitormanagement/pkg/mail"
	"github.com/mellystark/visitormanagement/pkg/qrcode"
)

// ServiceOptions tune the service graph built by NewServices.
type ServiceOptions struct {
	// Location defines "today" for statistics. Defaults to UTC.
	Location *time.Location
	// QRSize is the credential PNG edge length in pixels.
	QRSize   int
	Mailer   mail.Mailer
	MailFrom string
}

// Services is the application service graph shared by the router, the
// maintenance scheduler and the CLI.
type Services struct {
	Notifier    *services.Notifier
	Audit       *services.AuditService
	Stats       *services.StatsService
	Visitors    *services.VisitorService
	Ledger      *services.LedgerService
	Invitations *services.InvitationService
	Admins      *services.AdminService
	Exports     *services.ExportService
	Credentials *services.CredentialService
}

// NewServices wires every service against db. Fan-out goes to publisher,
// which may be nil to disable realtime delivery.
func NewServices(db *gorm.DB, publisher realtime.Publisher, opts ServiceOptions) (*Services, error) {
	notifier := services.NewNotifier(publisher)

	audit, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}

	var statsOpts []services.StatsOption
	if opts.Location != nil {
		statsOpts = append(statsOpts, services.WithStatsLocation(opts.Location))
	}
	stats, err := services.NewStatsService(db, notifier, statsOpts...)
	if err != nil {
		return nil, err
	}

	visitors, err := services.NewVisitorService(db, notifier, stats, audit)
	if err != nil {
		return nil, err
	}
	ledger, err := services.NewLedgerService(db, notifier, stats, audit)
	if err != nil {
		return nil, err
	}
	invitations, err := services.NewInvitationService(db, notifier, stats, audit)
	if err != nil {
		return nil, err
	}
	admins, err := services.NewAdminService(db, audit)
	if err != nil {
		return nil, err
	}
	exports, err := services.NewExportService(visitors, ledger, stats)
	if err != nil {
		return nil, err
	}
	credentials, err := services.NewCredentialService(visitors, qrcode.NewEncoder(opts.QRSize), opts.Mailer, opts.MailFrom)
	if err != nil {
		return nil, err
	}

	return &Services{
		Notifier:    notifier,
		Audit:       audit,
		Stats:       stats,
		Visitors:    visitors,
		Ledger:      ledger,
		Invitations: invitations,
		Admins:      admins,
		Exports:     exports,
		Credentials: credentials,
	}, nil
}
