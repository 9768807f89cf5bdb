package domain

// Support ticket statuses.
const (
	TicketOpen       = "open"
	TicketInProgress = "in_progress"
	TicketResolved   = "resolved"
	TicketClosed     = "closed"
)

type SupportTicket struct {
	ID           string `db:"id"`
	TicketNumber string `db:"ticket_number"`
	UserID       string `db:"user_id"`
	Subject      string `db:"subject"`
	Status       string `db:"status"`
	Priority     string `db:"priority"`
	CreatedAt    string `db:"created_at"`
	// Advances whenever a message is appended.
	UpdatedAt string `db:"updated_at"`
}

// SupportMessage rows are append-only.
type SupportMessage struct {
	ID        string `db:"id"`
	TicketID  string `db:"ticket_id"`
	SenderID  string `db:"sender_id"`
	IsStaff   bool   `db:"is_staff"`
	Body      string `db:"body"`
	CreatedAt string `db:"created_at"`
}
