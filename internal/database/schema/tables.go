package schema

// TableDefinitions contains all the SQL statements to create the database tables.
// Don't put REFERENCES and don't put CHECK constraints in the CREATE TABLE statements
var TableDefinitions = []string{
	`CREATE TABLE IF NOT EXISTS campaigns (
		id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		message_kind VARCHAR(20) NOT NULL,
		message_body TEXT,
		template_name VARCHAR(255),
		template_language VARCHAR(20),
		status VARCHAR(20) NOT NULL,
		scheduled_at TIMESTAMP,
		started_at TIMESTAMP,
		completed_at TIMESTAMP,
		total_contacts INTEGER NOT NULL DEFAULT 0,
		sent_count INTEGER NOT NULL DEFAULT 0,
		delivered_count INTEGER NOT NULL DEFAULT 0,
		read_count INTEGER NOT NULL DEFAULT 0,
		failed_count INTEGER NOT NULL DEFAULT 0,
		replied_count INTEGER NOT NULL DEFAULT 0,
		messages_per_second INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS contacts (
		id UUID PRIMARY KEY,
		phone_number VARCHAR(50) UNIQUE NOT NULL,
		status VARCHAR(20),
		last_message_at TIMESTAMP,
		unread_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS campaign_contacts (
		id UUID PRIMARY KEY,
		campaign_id UUID NOT NULL,
		contact_id UUID NOT NULL,
		message_id UUID,
		status VARCHAR(20) NOT NULL,
		error_message VARCHAR(500),
		retry_count INTEGER NOT NULL DEFAULT 0,
		can_send_after TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		UNIQUE (campaign_id, contact_id)
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id UUID PRIMARY KEY,
		waba_phone_id UUID NOT NULL,
		contact_id UUID NOT NULL,
		direction VARCHAR(10) NOT NULL,
		status VARCHAR(20) NOT NULL,
		kind VARCHAR(20) NOT NULL,
		body TEXT,
		template_name VARCHAR(255),
		wamid VARCHAR(255) UNIQUE,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS waba_phones (
		id UUID PRIMARY KEY,
		phone_number VARCHAR(50) NOT NULL,
		phone_number_id VARCHAR(50) UNIQUE NOT NULL,
		is_default BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_campaigns_status ON campaigns(status)`,
	`CREATE INDEX IF NOT EXISTS idx_campaign_contacts_campaign_status ON campaign_contacts(campaign_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_campaign_contacts_message_id ON campaign_contacts(message_id)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_wamid ON messages(wamid)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_contact_id ON messages(contact_id)`,
}
