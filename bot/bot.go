package bot

import (
	"fmt"
	"net/url"
	"os"

	"github.com/bwmarrin/discordgo"
	"github.com/menphina-bot/menphina/db"
	"github.com/menphina-bot/menphina/discord"
	"github.com/menphina-bot/menphina/guildmodels"
	"github.com/prometheus/common/log"
	"github.com/sirupsen/logrus"
)

const applicationIDEnvVar string = "APPLICATION_ID"

//discordClient is the slice of the discord session the bot's handlers use.
//*discordgo.Session satisfies it.
type discordClient interface {
	Guild(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error)
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	ApplicationCommandCreate(appID string, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

//roleReactionStore is the repository surface the bot's handlers use.
//*db.DBConnection satisfies it.
type roleReactionStore interface {
	GetRoleReactions(guildID uint64) ([]guildmodels.RoleReactionRule, error)
	GetRoleReaction(channelID uint64, emojiID uint64) (*guildmodels.RoleReactionRule, error)
	AddRoleReaction(rule guildmodels.RoleReactionRule) error
	RemoveRoleReaction(guildID uint64, channelID uint64, roleID uint64) error
	SetRoleReactionFlag(key guildmodels.RuleKey, flag guildmodels.RuleFlag, value bool) error
	RecordSlashCommand(name string, commandID string) error
}

//MenphinaBot represents an instance of the discord bot, containing handles to the various external connections.
type MenphinaBot struct {
	DiscordConnection *discord.EventSource
	DBConnection      *db.DBConnection

	applicationID string
	store         roleReactionStore
}

//Init creates a new MenphinaBot instance
func Init() (*MenphinaBot, error) {
	var res MenphinaBot

	//Application ID is needed to publish slash commands
	appID, exists := os.LookupEnv(applicationIDEnvVar)
	if !exists {
		logrus.Errorf("`%v` env variable was not set.", applicationIDEnvVar)
		return nil, fmt.Errorf("`%v` env variable was not set", applicationIDEnvVar)
	}
	if _, err := guildmodels.ParseID(appID); err != nil {
		logrus.Errorf("`%v` env variable is not a valid application id: %v", applicationIDEnvVar, err)
		return nil, fmt.Errorf("`%v` env variable is not a valid application id", applicationIDEnvVar)
	}
	res.applicationID = appID

	//Start database connection
	dbConn, err := db.Init()
	if err != nil {
		logrus.Errorf("Cannot start bot due to error initializing database connection: %v", err)
		return nil, err
	}
	res.DBConnection = dbConn
	res.store = dbConn

	//Start discord connection
	disc, err := discord.StartDiscordListener(&res)
	if err != nil {
		logrus.Errorf("Cannot start bot due to error initializing discord connection: %v", err)
		return nil, err
	}
	res.DiscordConnection = disc

	return &res, nil
}

//BotAddURL generates a URL that can be used to add the bot to a server
func (b *MenphinaBot) BotAddURL() (*url.URL, error) {
	return b.DiscordConnection.BotAddURL()
}

//DiscordSession returns a handle to the underlying discord session
func (b *MenphinaBot) DiscordSession() *discordgo.Session {
	return b.DiscordConnection.Session()
}

//Close cleanly terminates the bot instance
func (b *MenphinaBot) Close() {
	log.Info("Terminating bot...")
	b.DiscordConnection.Close()
	b.DBConnection.Close()
}
