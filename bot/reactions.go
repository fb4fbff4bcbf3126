package bot

import (
	"github.com/bwmarrin/discordgo"
	"github.com/menphina-bot/menphina/guildmodels"
	"github.com/sirupsen/logrus"
)

//reactionEvent is the slice of a reaction add or remove notification the
//toggle engine needs. Both event kinds reduce to the same shape; the engine is
//driven by the member's current roles, not by which kind arrived.
type reactionEvent struct {
	guildID   string
	channelID string
	userID    string
	emoji     discordgo.Emoji
	member    *discordgo.Member
}

//HandleReactionAdd applies the role toggle for a newly added reaction.
func (b *MenphinaBot) HandleReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	b.reactionActivate(s, reactionEvent{
		guildID:   r.GuildID,
		channelID: r.ChannelID,
		userID:    r.UserID,
		emoji:     r.Emoji,
		member:    r.Member,
	})
}

//HandleReactionRemove applies the role toggle for a removed reaction. Removal
//events carry no inline member, so the member is always fetched.
func (b *MenphinaBot) HandleReactionRemove(s *discordgo.Session, r *discordgo.MessageReactionRemove) {
	b.reactionActivate(s, reactionEvent{
		guildID:   r.GuildID,
		channelID: r.ChannelID,
		userID:    r.UserID,
		emoji:     r.Emoji,
	})
}

//reactionActivate resolves a reaction against the registered role reactions
//and toggles the bound role on the reacting member. Reactions outside guilds
//and reactions with unicode emoji never touch the store. All failures are
//logged and swallowed; the reaction path is silent to end users.
func (b *MenphinaBot) reactionActivate(client discordClient, ev reactionEvent) {
	if ev.guildID == "" {
		//Direct message reaction
		return
	}
	if ev.emoji.ID == "" {
		//Unicode emoji carry no ID and cannot be bound to a rule
		return
	}
	emojiID, err := guildmodels.ParseID(ev.emoji.ID)
	if err != nil {
		logrus.Warnf("Got reaction with unparseable emoji id %v: %v", ev.emoji.ID, err)
		return
	}
	channelID, err := guildmodels.ParseID(ev.channelID)
	if err != nil {
		logrus.Warnf("Got reaction with unparseable channel id %v: %v", ev.channelID, err)
		return
	}

	member := ev.member
	if member == nil {
		member, err = client.GuildMember(ev.guildID, ev.userID)
		if err != nil {
			logrus.Warnf("Failed to fetch guild member %v:%v due to error %v", ev.guildID, ev.userID, err)
			return
		}
	}

	rule, err := b.store.GetRoleReaction(channelID, emojiID)
	if err != nil {
		logrus.Warnf("Failed to get role reaction from database: %v", err)
		return
	}
	if rule == nil {
		//No rule configured for this emoji in this channel
		return
	}

	roleID := guildmodels.FormatID(rule.RoleID)
	roles, err := client.GuildRoles(ev.guildID)
	if err != nil {
		logrus.Warnf("Failed to fetch roles for guild %v due to error %v", ev.guildID, err)
		return
	}
	role := findRole(roles, roleID)
	if role == nil {
		logrus.Warnf("Failed to retrieve role %v in guild %v. Does it still exist?", roleID, ev.guildID)
		return
	}

	if memberHasRole(member, roleID) {
		if err := client.GuildMemberRoleRemove(ev.guildID, ev.userID, roleID); err != nil {
			logrus.Errorf("Failed to remove role %v from user %v due to error %v", role.Name, ev.userID, err)
			return
		}
		logrus.Infof("Removed role %v from user %v in guild %v", role.Name, ev.userID, ev.guildID)
	} else {
		if err := client.GuildMemberRoleAdd(ev.guildID, ev.userID, roleID); err != nil {
			logrus.Errorf("Failed to add role %v to user %v due to error %v", role.Name, ev.userID, err)
			return
		}
		logrus.Infof("Added role %v to user %v in guild %v", role.Name, ev.userID, ev.guildID)
	}
}

func findRole(roles []*discordgo.Role, roleID string) *discordgo.Role {
	for _, role := range roles {
		if role != nil && role.ID == roleID {
			return role
		}
	}
	return nil
}

func memberHasRole(member *discordgo.Member, roleID string) bool {
	for _, held := range member.Roles {
		if held == roleID {
			return true
		}
	}
	return false
}
