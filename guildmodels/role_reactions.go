package guildmodels

import (
	"fmt"
	"strconv"
)

//RuleFlag names an annotation which may be set on a role reaction rule.
type RuleFlag string

//The set of flags which may be attached to a role reaction rule.
const (
	RuleFlagEureka RuleFlag = "eureka"
	RuleFlagBozja  RuleFlag = "bozja"
)

//RuleFlags lists every known flag name.
var RuleFlags = []RuleFlag{RuleFlagEureka, RuleFlagBozja}

//IsValidRuleFlag returns true iff the given flag is one of the known flag names.
func IsValidRuleFlag(flag RuleFlag) bool {
	for _, known := range RuleFlags {
		if flag == known {
			return true
		}
	}
	return false
}

//RoleReactionRule binds a custom emoji in a channel to a role which should be
//toggled whenever a member reacts with that emoji. All identifiers are native
//u64 snowflakes; conversion to the stored string form happens via
//RoleReactionRecord.
type RoleReactionRule struct {
	GuildID   uint64
	ChannelID uint64
	EmojiID   uint64
	RoleID    uint64
	Eureka    bool
	Bozja     bool
}

//HasFlag reports whether the given flag is set on a rule.
func (r RoleReactionRule) HasFlag(flag RuleFlag) bool {
	switch flag {
	case RuleFlagEureka:
		return r.Eureka
	case RuleFlagBozja:
		return r.Bozja
	default:
		return false
	}
}

//RuleKey identifies the rules administrative commands operate on. The emoji is
//deliberately not part of the key so that admins can remove or annotate a
//(channel, role) binding without remembering which emoji was used.
type RuleKey struct {
	GuildID   uint64
	ChannelID uint64
	RoleID    uint64
}

//Key returns the administrative key for a rule.
func (r RoleReactionRule) Key() RuleKey {
	return RuleKey{
		GuildID:   r.GuildID,
		ChannelID: r.ChannelID,
		RoleID:    r.RoleID,
	}
}

//RoleReactionRecord is the stored form of a RoleReactionRule. Identifier fields
//are decimal strings as the document store cannot represent the full u64 range
//natively. Flag fields are optional booleans; an absent field means unset.
type RoleReactionRecord struct {
	GuildID   string `gorethink:"guild_id"`
	ChannelID string `gorethink:"channel_id"`
	EmojiID   string `gorethink:"emoji_id"`
	RoleID    string `gorethink:"role_id"`
	Eureka    *bool  `gorethink:"eureka,omitempty"`
	Bozja     *bool  `gorethink:"bozja,omitempty"`
}

//NewRoleReactionRecord converts a rule into its stored form.
func NewRoleReactionRecord(rule RoleReactionRule) RoleReactionRecord {
	rec := RoleReactionRecord{
		GuildID:   FormatID(rule.GuildID),
		ChannelID: FormatID(rule.ChannelID),
		EmojiID:   FormatID(rule.EmojiID),
		RoleID:    FormatID(rule.RoleID),
	}
	if rule.Eureka {
		rec.Eureka = &rule.Eureka
	}
	if rule.Bozja {
		rec.Bozja = &rule.Bozja
	}
	return rec
}

//Rule parses a stored record back into a native rule. An identifier field which
//does not parse as a decimal u64 indicates a corrupt document.
func (rec RoleReactionRecord) Rule() (RoleReactionRule, error) {
	var rule RoleReactionRule
	var err error
	if rule.GuildID, err = ParseID(rec.GuildID); err != nil {
		return rule, fmt.Errorf("bad guild_id %q: %v", rec.GuildID, err)
	}
	if rule.ChannelID, err = ParseID(rec.ChannelID); err != nil {
		return rule, fmt.Errorf("bad channel_id %q: %v", rec.ChannelID, err)
	}
	if rule.EmojiID, err = ParseID(rec.EmojiID); err != nil {
		return rule, fmt.Errorf("bad emoji_id %q: %v", rec.EmojiID, err)
	}
	if rule.RoleID, err = ParseID(rec.RoleID); err != nil {
		return rule, fmt.Errorf("bad role_id %q: %v", rec.RoleID, err)
	}
	if rec.Eureka != nil {
		rule.Eureka = *rec.Eureka
	}
	if rec.Bozja != nil {
		rule.Bozja = *rec.Bozja
	}
	return rule, nil
}

//FormatID renders a snowflake in the decimal string form used by the store and
//the discord API.
func FormatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

//ParseID parses a decimal string snowflake.
func ParseID(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}
