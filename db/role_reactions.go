package db

import (
	"fmt"

	"github.com/menphina-bot/menphina/guildmodels"
	"github.com/sirupsen/logrus"
	rethink "gopkg.in/gorethink/gorethink.v3"
)

const roleReactionsTable string = "RoleReactions"

//GetRoleReactions returns every role reaction rule registered for the given
//guild. Documents which fail to decode are logged and skipped.
func (db *DBConnection) GetRoleReactions(guildID uint64) ([]guildmodels.RoleReactionRule, error) {
	filter := map[string]interface{}{
		"guild_id": guildmodels.FormatID(guildID),
	}
	query := rethink.Table(roleReactionsTable).Filter(filter)
	res, err := query.Run(db.session)
	if err != nil {
		logrus.Warnf("Encountered error looking up role reactions for guild %v in database: %v.", guildID, err)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer res.Close()
	if res.IsNil() {
		return nil, nil
	}
	var records []guildmodels.RoleReactionRecord
	err = res.All(&records)
	if err != nil {
		logrus.Warnf("Encountered error reading role reactions for guild %v from database: %v.", guildID, err)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return decodeRoleReactions(records), nil
}

//GetRoleReaction returns the rule bound to the given emoji in the given
//channel, or nil if no such rule is registered. Should the store hold several
//matching rules, the one with the smallest role ID is returned so that repeated
//lookups agree with each other.
func (db *DBConnection) GetRoleReaction(channelID uint64, emojiID uint64) (*guildmodels.RoleReactionRule, error) {
	filter := map[string]interface{}{
		"channel_id": guildmodels.FormatID(channelID),
		"emoji_id":   guildmodels.FormatID(emojiID),
	}
	query := rethink.Table(roleReactionsTable).Filter(filter)
	res, err := query.Run(db.session)
	if err != nil {
		logrus.Warnf("Encountered error looking up role reaction for emote %v in channel %v: %v.", emojiID, channelID, err)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer res.Close()
	if res.IsNil() {
		return nil, nil
	}
	var records []guildmodels.RoleReactionRecord
	err = res.All(&records)
	if err != nil {
		logrus.Warnf("Encountered error reading role reaction for emote %v in channel %v: %v.", emojiID, channelID, err)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return pickRoleReaction(records), nil
}

//AddRoleReaction inserts a new role reaction rule unless a rule with the same
//guild, channel, emoji and role already exists, in which case it does nothing.
func (db *DBConnection) AddRoleReaction(rule guildmodels.RoleReactionRule) error {
	rec := guildmodels.NewRoleReactionRecord(rule)
	filter := map[string]interface{}{
		"guild_id":   rec.GuildID,
		"channel_id": rec.ChannelID,
		"emoji_id":   rec.EmojiID,
		"role_id":    rec.RoleID,
	}
	res, err := rethink.Table(roleReactionsTable).Filter(filter).Run(db.session)
	if err != nil {
		logrus.Warnf("Encountered error checking for existing role reaction %v: %v.", rule, err)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer res.Close()
	var existing []guildmodels.RoleReactionRecord
	err = res.All(&existing)
	if err != nil {
		logrus.Warnf("Encountered error checking for existing role reaction %v: %v.", rule, err)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(existing) > 0 {
		//Rule already registered
		return nil
	}
	resp, err := rethink.Table(roleReactionsTable).Insert(rec).RunWrite(db.session)
	if err != nil {
		logrus.Warnf("Encountered error inserting role reaction %v into database: %v.", rule, err)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	} else if resp.Errors > 0 {
		err := fmt.Errorf("%w: %v", ErrStoreUnavailable, resp.FirstError)
		logrus.Warnf("Encountered error inserting role reaction into database: %v", err)
		return err
	}
	return nil
}

//RemoveRoleReaction deletes every role reaction rule matching the given guild,
//channel and role, whichever emoji each was registered with. Removing a binding
//which does not exist is not an error.
func (db *DBConnection) RemoveRoleReaction(guildID uint64, channelID uint64, roleID uint64) error {
	filter := map[string]interface{}{
		"guild_id":   guildmodels.FormatID(guildID),
		"channel_id": guildmodels.FormatID(channelID),
		"role_id":    guildmodels.FormatID(roleID),
	}
	resp, err := rethink.Table(roleReactionsTable).Filter(filter).Delete().RunWrite(db.session)
	if err != nil {
		logrus.Warnf("Encountered error deleting role reactions for role %v in channel %v: %v.", roleID, channelID, err)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	} else if resp.Errors > 0 {
		err := fmt.Errorf("%w: %v", ErrStoreUnavailable, resp.FirstError)
		logrus.Warnf("Encountered error deleting role reactions from database: %v", err)
		return err
	}
	return nil
}

//SetRoleReactionFlag sets or clears the named flag on every rule matching the
//given key. Updating a binding which does not exist is not an error.
func (db *DBConnection) SetRoleReactionFlag(key guildmodels.RuleKey, flag guildmodels.RuleFlag, value bool) error {
	if !guildmodels.IsValidRuleFlag(flag) {
		return fmt.Errorf("unknown role reaction flag %q", flag)
	}
	filter := map[string]interface{}{
		"guild_id":   guildmodels.FormatID(key.GuildID),
		"channel_id": guildmodels.FormatID(key.ChannelID),
		"role_id":    guildmodels.FormatID(key.RoleID),
	}
	update := map[string]interface{}{
		string(flag): value,
	}
	resp, err := rethink.Table(roleReactionsTable).Filter(filter).Update(update).RunWrite(db.session)
	if err != nil {
		logrus.Warnf("Encountered error updating %v flag for role %v in channel %v: %v.", flag, key.RoleID, key.ChannelID, err)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	} else if resp.Errors > 0 {
		err := fmt.Errorf("%w: %v", ErrStoreUnavailable, resp.FirstError)
		logrus.Warnf("Encountered error updating role reaction flag in database: %v", err)
		return err
	}
	return nil
}

//decodeRoleReactions parses stored records, dropping any which fail to decode.
func decodeRoleReactions(records []guildmodels.RoleReactionRecord) []guildmodels.RoleReactionRule {
	var rules []guildmodels.RoleReactionRule
	for _, rec := range records {
		rule, err := rec.Rule()
		if err != nil {
			logrus.Warnf("Skipping corrupt role reaction document: %v (%v)", err, ErrStoreCorrupt)
			continue
		}
		rules = append(rules, rule)
	}
	return rules
}

//pickRoleReaction returns the decodable rule with the smallest role ID, or nil
//if there is none. The store does not enforce uniqueness of (channel, emoji),
//so the pick has to be deterministic.
func pickRoleReaction(records []guildmodels.RoleReactionRecord) *guildmodels.RoleReactionRule {
	var best *guildmodels.RoleReactionRule
	for _, rule := range decodeRoleReactions(records) {
		rule := rule
		if best == nil || rule.RoleID < best.RoleID {
			best = &rule
		}
	}
	return best
}
