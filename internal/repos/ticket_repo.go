package repos

import (
	"github.com/jmoiron/sqlx"

	"almira/internal/domain"
)

type TicketRepo struct{ db *sqlx.DB }

func NewTicketRepo(db *sqlx.DB) *TicketRepo { return &TicketRepo{db: db} }

func (r *TicketRepo) Insert(e sqlx.Ext, t *domain.SupportTicket) error {
	_, err := e.Exec(`
		INSERT INTO support_tickets
		  (id, ticket_number, user_id, subject, status, priority, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?)
	`, t.ID, t.TicketNumber, t.UserID, t.Subject, t.Status, t.Priority, t.CreatedAt, t.UpdatedAt)
	return err
}

// InsertMessage appends a message and advances the ticket's updated_at in
// the same statement pair; messages are never edited or removed.
func (r *TicketRepo) InsertMessage(e sqlx.Ext, m *domain.SupportMessage) error {
	if _, err := e.Exec(`
		INSERT INTO support_messages(id, ticket_id, sender_id, is_staff, body, created_at)
		VALUES (?,?,?,?,?,?)
	`, m.ID, m.TicketID, m.SenderID, m.IsStaff, m.Body, m.CreatedAt); err != nil {
		return Translate(err)
	}
	_, err := e.Exec(`UPDATE support_tickets SET updated_at = ? WHERE id = ?`, m.CreatedAt, m.TicketID)
	return Translate(err)
}

func (r *TicketRepo) Get(id string) (*domain.SupportTicket, error) {
	var t domain.SupportTicket
	if err := r.db.Get(&t, `SELECT * FROM support_tickets WHERE id = ?`, id); err != nil {
		return nil, Translate(err)
	}
	return &t, nil
}

func (r *TicketRepo) ListByUser(userID string) ([]domain.SupportTicket, error) {
	var out []domain.SupportTicket
	err := r.db.Select(&out, `
		SELECT * FROM support_tickets WHERE user_id = ?
		ORDER BY datetime(updated_at) DESC`, userID)
	return out, Translate(err)
}

func (r *TicketRepo) ListAll(status string) ([]domain.SupportTicket, error) {
	q := `SELECT * FROM support_tickets`
	args := []any{}
	if status != "" {
		q += ` WHERE status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY datetime(updated_at) DESC`

	var out []domain.SupportTicket
	err := r.db.Select(&out, q, args...)
	return out, Translate(err)
}

func (r *TicketRepo) Messages(ticketID string) ([]domain.SupportMessage, error) {
	var out []domain.SupportMessage
	err := r.db.Select(&out, `
		SELECT * FROM support_messages WHERE ticket_id = ?
		ORDER BY datetime(created_at) ASC`, ticketID)
	return out, Translate(err)
}

func (r *TicketRepo) SetStatus(id, status string) error {
	res, err := r.db.Exec(`UPDATE support_tickets SET status = ?, updated_at = ? WHERE id = ?`, status, domain.Now(), id)
	if err != nil {
		return Translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundf("ticket %s", id)
	}
	return nil
}
