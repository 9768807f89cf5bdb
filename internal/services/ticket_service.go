package services

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"almira/internal/domain"
	"almira/internal/repos"
)

// TicketService runs the customer support desk. Ticket numbers come from
// the same year-scoped sequencer as order numbers, with the TKT prefix.
type TicketService struct {
	DB      *sqlx.DB
	Tickets *repos.TicketRepo
}

func NewTicketService(db *sqlx.DB, tickets *repos.TicketRepo) *TicketService {
	return &TicketService{DB: db, Tickets: tickets}
}

type TicketView struct {
	Ticket   *domain.SupportTicket   `json:"ticket"`
	Messages []domain.SupportMessage `json:"messages"`
}

// Open creates a ticket with its first message. The ticket number insert
// retries on a UNIQUE collision, same as order numbers at checkout.
func (s *TicketService) Open(p domain.Principal, subject, body, priority string) (*domain.SupportTicket, error) {
	if p.ID == "" {
		return nil, domain.ErrForbidden
	}
	subject = strings.TrimSpace(subject)
	body = strings.TrimSpace(body)
	if subject == "" || body == "" {
		return nil, domain.Validationf("subject and message are required")
	}
	switch priority {
	case "":
		priority = "normal"
	case "low", "normal", "high":
	default:
		return nil, domain.Validationf("invalid priority %q", priority)
	}

	var t *domain.SupportTicket
	var err error
	for attempt := 0; attempt < numberAttempts; attempt++ {
		t, err = s.openOnce(p.ID, subject, body, priority)
		if err != errNumberCollision {
			return t, err
		}
	}
	return nil, domain.Conflictf("could not allocate a ticket number")
}

func (s *TicketService) openOnce(userID, subject, body, priority string) (*domain.SupportTicket, error) {
	tx, err := s.DB.Beginx()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	number, err := repos.NextNumber(tx, "support_tickets", "ticket_number",
		repos.TicketNumberPrefix, time.Now().UTC().Year())
	if err != nil {
		return nil, err
	}

	now := domain.Now()
	t := &domain.SupportTicket{
		ID:           uuid.NewString(),
		TicketNumber: number,
		UserID:       userID,
		Subject:      subject,
		Status:       domain.TicketOpen,
		Priority:     priority,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Tickets.Insert(tx, t); err != nil {
		if repos.IsUniqueViolation(err) {
			return nil, errNumberCollision
		}
		return nil, repos.Translate(err)
	}

	m := &domain.SupportMessage{
		ID:        uuid.NewString(),
		TicketID:  t.ID,
		SenderID:  userID,
		IsStaff:   false,
		Body:      body,
		CreatedAt: now,
	}
	if err := s.Tickets.InsertMessage(tx, m); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return t, nil
}

// Reply appends a message. Customers may only write to their own tickets,
// and only while the ticket is not closed; staff replies move an open
// ticket to in_progress.
func (s *TicketService) Reply(p domain.Principal, ticketID, body string) (*domain.SupportMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, domain.Validationf("message body is required")
	}
	t, err := s.Tickets.Get(ticketID)
	if err != nil {
		return nil, err
	}
	if !OwnerOrAdmin(p, t.UserID) {
		return nil, domain.NotFoundf("ticket %s", ticketID)
	}
	if t.Status == domain.TicketClosed {
		return nil, domain.Validationf("ticket is closed")
	}

	tx, err := s.DB.Beginx()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	m := &domain.SupportMessage{
		ID:        uuid.NewString(),
		TicketID:  ticketID,
		SenderID:  p.ID,
		IsStaff:   p.IsAdmin(),
		Body:      body,
		CreatedAt: domain.Now(),
	}
	if err := s.Tickets.InsertMessage(tx, m); err != nil {
		return nil, err
	}
	if p.IsAdmin() && t.Status == domain.TicketOpen {
		if _, err := tx.Exec(`UPDATE support_tickets SET status = ? WHERE id = ?`,
			domain.TicketInProgress, ticketID); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return m, nil
}

// Get returns a ticket with its thread. Tickets of other users do not
// exist as far as a customer can tell.
func (s *TicketService) Get(p domain.Principal, ticketID string) (*TicketView, error) {
	t, err := s.Tickets.Get(ticketID)
	if err != nil {
		return nil, err
	}
	if !OwnerOrAdmin(p, t.UserID) {
		return nil, domain.NotFoundf("ticket %s", ticketID)
	}
	msgs, err := s.Tickets.Messages(ticketID)
	if err != nil {
		return nil, err
	}
	return &TicketView{Ticket: t, Messages: msgs}, nil
}

func (s *TicketService) ListMine(p domain.Principal) ([]domain.SupportTicket, error) {
	return s.Tickets.ListByUser(p.ID)
}

func (s *TicketService) ListAll(p domain.Principal, status string) ([]domain.SupportTicket, error) {
	if !p.IsAdmin() {
		return nil, domain.ErrNotFound
	}
	return s.Tickets.ListAll(status)
}

// SetStatus moves a ticket between open, in_progress, resolved and closed.
func (s *TicketService) SetStatus(p domain.Principal, ticketID, status string) error {
	if !p.IsAdmin() {
		return domain.ErrNotFound
	}
	switch status {
	case domain.TicketOpen, domain.TicketInProgress, domain.TicketResolved, domain.TicketClosed:
	default:
		return domain.Validationf("invalid ticket status %q", status)
	}
	return s.Tickets.SetStatus(ticketID, status)
}
