package guildmodels

//SlashCommandRegistration records an application command which has been
//published to discord, keyed by its literal name.
type SlashCommandRegistration struct {
	Name      string `gorethink:"name"`
	CommandID string `gorethink:"command_id"`
}
