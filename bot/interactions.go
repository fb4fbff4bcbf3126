package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/menphina-bot/menphina/guildmodels"
	"github.com/sirupsen/logrus"
)

//Option names shared by the administrative commands.
const (
	optionChannel = "channel"
	optionEmojiID = "emoji_id"
	optionRole    = "role"
)

const listEmbedColour int = 0x3498DB

const emojiParseErrorMessage = "Failed to parse emoji. Make sure the ID is correct, and that the emoji you are using is not a Unicode emote."

//HandleInteraction routes a command invocation to the matching administrative
//handler. Invocations from outside a guild and unknown command names are
//ignored.
func (b *MenphinaBot) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if i.GuildID == "" {
		return
	}
	name := i.ApplicationCommandData().Name
	switch name {
	case CommandRoleReactions:
		b.handleListRoleReactions(s, i)
	case CommandAddRoleReaction:
		b.handleAddRoleReaction(s, i)
	case CommandRemoveRoleReaction:
		b.handleRemoveRoleReaction(s, i)
	default:
		if fc, ok := flagCommands[name]; ok {
			b.handleFlagRoleReaction(s, i, fc)
			return
		}
		logrus.Warnf("Got interaction for unknown command %v; ignoring.", name)
	}
}

func (b *MenphinaBot) handleListRoleReactions(client discordClient, i *discordgo.InteractionCreate) {
	if !invokerCanManageRoles(i) {
		return
	}
	guildID, err := guildmodels.ParseID(i.GuildID)
	if err != nil {
		logrus.Warnf("Got interaction with unparseable guild id %v: %v", i.GuildID, err)
		return
	}
	rules, err := b.store.GetRoleReactions(guildID)
	if err != nil {
		logrus.Warnf("Failed to retrieve role reactions for guild %v due to error %v", guildID, err)
		respond(client, i, "Failed to retrieve role reactions for this guild.")
		return
	}
	if len(rules) == 0 {
		respond(client, i, "No role reactions are registered for this guild.")
		return
	}
	guildName := "Guild"
	if guild, err := client.Guild(i.GuildID); err != nil {
		logrus.Warnf("Failed to fetch guild %v for role reaction list due to error %v", i.GuildID, err)
	} else {
		guildName = guild.Name
	}
	respondEmbed(client, i, buildRoleReactionsEmbed(guildName, rules))
}

func (b *MenphinaBot) handleAddRoleReaction(client discordClient, i *discordgo.InteractionCreate) {
	if !invokerCanManageRoles(i) {
		return
	}
	key, ok := readRuleKey(i)
	if !ok {
		return
	}
	emojiOpt, ok := commandOption(i, optionEmojiID)
	if !ok {
		logrus.Warnf("Got %v command with no %v option", CommandAddRoleReaction, optionEmojiID)
		return
	}
	emojiID, err := guildmodels.ParseID(emojiOpt.StringValue())
	if err != nil {
		respond(client, i, emojiParseErrorMessage)
		return
	}
	rule := guildmodels.RoleReactionRule{
		GuildID:   key.GuildID,
		ChannelID: key.ChannelID,
		EmojiID:   emojiID,
		RoleID:    key.RoleID,
	}
	if err := b.store.AddRoleReaction(rule); err != nil {
		logrus.Warnf("Failed to add role reaction %v due to error %v", rule, err)
		respond(client, i, "Failed to add role reaction.")
		return
	}
	logrus.Infof("Role reaction for role %v added to channel %v in guild %v", key.RoleID, key.ChannelID, key.GuildID)
	respond(client, i, "Role reaction added.")
}

func (b *MenphinaBot) handleRemoveRoleReaction(client discordClient, i *discordgo.InteractionCreate) {
	if !invokerCanManageRoles(i) {
		return
	}
	key, ok := readRuleKey(i)
	if !ok {
		return
	}
	if err := b.store.RemoveRoleReaction(key.GuildID, key.ChannelID, key.RoleID); err != nil {
		logrus.Warnf("Failed to remove role reactions for %v due to error %v", key, err)
		respond(client, i, "Failed to remove role reaction.")
		return
	}
	logrus.Infof("Role reactions for role %v removed from channel %v in guild %v", key.RoleID, key.ChannelID, key.GuildID)
	respond(client, i, "Role reaction removed.")
}

func (b *MenphinaBot) handleFlagRoleReaction(client discordClient, i *discordgo.InteractionCreate, fc flagCommand) {
	if !invokerCanManageRoles(i) {
		return
	}
	key, ok := readRuleKey(i)
	if !ok {
		return
	}
	if err := b.store.SetRoleReactionFlag(key, fc.flag, fc.value); err != nil {
		logrus.Warnf("Failed to update %v flag for %v due to error %v", fc.flag, key, err)
		verb := "set"
		if !fc.value {
			verb = "unset"
		}
		respond(client, i, fmt.Sprintf("Failed to %v %v flag on role.", verb, fc.flag))
		return
	}
	logrus.Infof("Flag %v set to %v for role %v in channel %v of guild %v", fc.flag, fc.value, key.RoleID, key.ChannelID, key.GuildID)
	if fc.value {
		respond(client, i, fmt.Sprintf("Role reaction set to %v role.", fc.flag))
	} else {
		respond(client, i, fmt.Sprintf("Role reaction unset as %v role.", fc.flag))
	}
}

//invokerCanManageRoles checks that the command invoker holds the manage roles
//permission. Unauthorized invocations are dropped without a response so that
//the commands stay quiet in channels every member can see.
func invokerCanManageRoles(i *discordgo.InteractionCreate) bool {
	return i.Member != nil && i.Member.Permissions&discordgo.PermissionManageRoles != 0
}

//commandOption finds a named option in the invocation payload.
func commandOption(i *discordgo.InteractionCreate, name string) (*discordgo.ApplicationCommandInteractionDataOption, bool) {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt != nil && opt.Name == name {
			return opt, true
		}
	}
	return nil, false
}

//readRuleKey extracts the (guild, channel, role) triple every mutating command
//carries. The channel and role options arrive pre-validated by discord, so a
//missing or malformed value is a platform bug rather than user error; it is
//logged and the command dropped.
func readRuleKey(i *discordgo.InteractionCreate) (guildmodels.RuleKey, bool) {
	var key guildmodels.RuleKey
	var err error
	if key.GuildID, err = guildmodels.ParseID(i.GuildID); err != nil {
		logrus.Warnf("Got interaction with unparseable guild id %v: %v", i.GuildID, err)
		return key, false
	}
	channelOpt, ok := commandOption(i, optionChannel)
	if !ok {
		logrus.Warnf("Got %v command with no %v option", i.ApplicationCommandData().Name, optionChannel)
		return key, false
	}
	channel := channelOpt.ChannelValue(nil)
	if channel == nil {
		logrus.Warnf("Got %v command with empty %v option", i.ApplicationCommandData().Name, optionChannel)
		return key, false
	}
	if key.ChannelID, err = guildmodels.ParseID(channel.ID); err != nil {
		logrus.Warnf("Got interaction with unparseable channel id %v: %v", channel.ID, err)
		return key, false
	}
	roleOpt, ok := commandOption(i, optionRole)
	if !ok {
		logrus.Warnf("Got %v command with no %v option", i.ApplicationCommandData().Name, optionRole)
		return key, false
	}
	role := roleOpt.RoleValue(nil, "")
	if role == nil {
		logrus.Warnf("Got %v command with empty %v option", i.ApplicationCommandData().Name, optionRole)
		return key, false
	}
	if key.RoleID, err = guildmodels.ParseID(role.ID); err != nil {
		logrus.Warnf("Got interaction with unparseable role id %v: %v", role.ID, err)
		return key, false
	}
	return key, true
}

//buildRoleReactionsEmbed renders the rule list for a guild, one line per rule.
func buildRoleReactionsEmbed(guildName string, rules []guildmodels.RoleReactionRule) *discordgo.MessageEmbed {
	description := "**Role reactions:**\n"
	for _, rule := range rules {
		description += fmt.Sprintf("<#%v> <:e:%v>: <@&%v>\n", rule.ChannelID, rule.EmojiID, rule.RoleID)
	}
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%v Role Reactions", guildName),
		Color:       listEmbedColour,
		Description: description,
	}
}

func respond(client discordClient, i *discordgo.InteractionCreate, content string) {
	sendResponse(client, i, &discordgo.InteractionResponseData{Content: content})
}

func respondEmbed(client discordClient, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	sendResponse(client, i, &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}})
}

func sendResponse(client discordClient, i *discordgo.InteractionCreate, data *discordgo.InteractionResponseData) {
	err := client.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		logrus.Errorf("Failed to send interaction response due to error %v", err)
	}
}
