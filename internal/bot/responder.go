package bot

import "github.com/bwmarrin/discordgo"

// Responder provides an abstraction for responding to Discord interactions.
// This interface enables testing handlers without a live Discord connection.
type Responder interface {
	// Respond sends a response to an interaction.
	Respond(response *discordgo.InteractionResponse) error

	// Edit replaces the original (possibly deferred) response.
	Edit(edit *discordgo.WebhookEdit) error
}

// DiscordResponder implements Responder using a live Discord session.
type DiscordResponder struct {
	session     *discordgo.Session
	interaction *discordgo.Interaction
}

// NewDiscordResponder creates a new DiscordResponder.
func NewDiscordResponder(s *discordgo.Session, i *discordgo.Interaction) *DiscordResponder {
	return &DiscordResponder{
		session:     s,
		interaction: i,
	}
}

// Respond sends a response to the interaction via Discord API.
func (r *DiscordResponder) Respond(response *discordgo.InteractionResponse) error {
	return r.session.InteractionRespond(r.interaction, response)
}

// Edit edits the original interaction response via Discord API.
func (r *DiscordResponder) Edit(edit *discordgo.WebhookEdit) error {
	_, err := r.session.InteractionResponseEdit(r.interaction, edit)
	return err
}

// MockResponder is a test double for Responder.
type MockResponder struct {
	LastResponse *discordgo.InteractionResponse
	LastEdit     *discordgo.WebhookEdit
	Err          error
}

// Respond records the response for testing.
func (m *MockResponder) Respond(response *discordgo.InteractionResponse) error {
	m.LastResponse = response
	return m.Err
}

// Edit records the edit for testing.
func (m *MockResponder) Edit(edit *discordgo.WebhookEdit) error {
	m.LastEdit = edit
	return m.Err
}

// Content returns the text the user ends up seeing: the last edit if any,
// otherwise the last response's content.
func (m *MockResponder) Content() string {
	if m.LastEdit != nil && m.LastEdit.Content != nil {
		return *m.LastEdit.Content
	}
	if m.LastResponse != nil && m.LastResponse.Data != nil {
		return m.LastResponse.Data.Content
	}
	return ""
}
