package bot

import (
	"fmt"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/menphina-bot/menphina/guildmodels"
)

//flagCall records one SetRoleReactionFlag invocation on the fake store.
type flagCall struct {
	key   guildmodels.RuleKey
	flag  guildmodels.RuleFlag
	value bool
}

//fakeStore is an in-memory roleReactionStore with the same visible semantics
//as the real repository: idempotent add, emoji-ignoring remove, smallest
//role ID tie-break on lookup.
type fakeStore struct {
	rules []guildmodels.RoleReactionRule

	listErr   error
	lookupErr error
	addErr    error
	removeErr error
	flagErr   error

	lookups   int
	flagCalls []flagCall
	recorded  map[string]string
}

func (f *fakeStore) GetRoleReactions(guildID uint64) ([]guildmodels.RoleReactionRule, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []guildmodels.RoleReactionRule
	for _, rule := range f.rules {
		if rule.GuildID == guildID {
			out = append(out, rule)
		}
	}
	return out, nil
}

func (f *fakeStore) GetRoleReaction(channelID uint64, emojiID uint64) (*guildmodels.RoleReactionRule, error) {
	f.lookups++
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	var best *guildmodels.RoleReactionRule
	for _, rule := range f.rules {
		rule := rule
		if rule.ChannelID != channelID || rule.EmojiID != emojiID {
			continue
		}
		if best == nil || rule.RoleID < best.RoleID {
			best = &rule
		}
	}
	return best, nil
}

func (f *fakeStore) AddRoleReaction(rule guildmodels.RoleReactionRule) error {
	if f.addErr != nil {
		return f.addErr
	}
	for _, existing := range f.rules {
		if existing.GuildID == rule.GuildID && existing.ChannelID == rule.ChannelID &&
			existing.EmojiID == rule.EmojiID && existing.RoleID == rule.RoleID {
			return nil
		}
	}
	f.rules = append(f.rules, rule)
	return nil
}

func (f *fakeStore) RemoveRoleReaction(guildID uint64, channelID uint64, roleID uint64) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	var kept []guildmodels.RoleReactionRule
	for _, rule := range f.rules {
		if rule.GuildID == guildID && rule.ChannelID == channelID && rule.RoleID == roleID {
			continue
		}
		kept = append(kept, rule)
	}
	f.rules = kept
	return nil
}

func (f *fakeStore) SetRoleReactionFlag(key guildmodels.RuleKey, flag guildmodels.RuleFlag, value bool) error {
	if f.flagErr != nil {
		return f.flagErr
	}
	f.flagCalls = append(f.flagCalls, flagCall{key: key, flag: flag, value: value})
	for idx, rule := range f.rules {
		if rule.Key() != key {
			continue
		}
		switch flag {
		case guildmodels.RuleFlagEureka:
			f.rules[idx].Eureka = value
		case guildmodels.RuleFlagBozja:
			f.rules[idx].Bozja = value
		}
	}
	return nil
}

func (f *fakeStore) RecordSlashCommand(name string, commandID string) error {
	if f.recorded == nil {
		f.recorded = map[string]string{}
	}
	f.recorded[name] = commandID
	return nil
}

//fakeClient is an in-memory discordClient. Role mutations are applied to the
//held member objects so that consecutive events observe each other's effects.
type fakeClient struct {
	guildName string
	guildErr  error

	members   map[string]*discordgo.Member
	memberErr error

	roles    []*discordgo.Role
	rolesErr error

	createErrOn string

	memberFetches int
	roleAdds      []string
	roleRemoves   []string
	responses     []*discordgo.InteractionResponse
	created       []*discordgo.ApplicationCommand
	sent          []string
}

func (f *fakeClient) Guild(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error) {
	if f.guildErr != nil {
		return nil, f.guildErr
	}
	return &discordgo.Guild{ID: guildID, Name: f.guildName}, nil
}

func (f *fakeClient) GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error) {
	f.memberFetches++
	if f.memberErr != nil {
		return nil, f.memberErr
	}
	member, ok := f.members[userID]
	if !ok {
		return nil, fmt.Errorf("no such member %v", userID)
	}
	return member, nil
}

func (f *fakeClient) GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error) {
	if f.rolesErr != nil {
		return nil, f.rolesErr
	}
	return f.roles, nil
}

func (f *fakeClient) GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error {
	f.roleAdds = append(f.roleAdds, fmt.Sprintf("%v/%v/%v", guildID, userID, roleID))
	if member, ok := f.members[userID]; ok {
		member.Roles = append(member.Roles, roleID)
	}
	return nil
}

func (f *fakeClient) GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error {
	f.roleRemoves = append(f.roleRemoves, fmt.Sprintf("%v/%v/%v", guildID, userID, roleID))
	if member, ok := f.members[userID]; ok {
		var kept []string
		for _, held := range member.Roles {
			if held != roleID {
				kept = append(kept, held)
			}
		}
		member.Roles = kept
	}
	return nil
}

func (f *fakeClient) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeClient) ApplicationCommandCreate(appID string, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error) {
	if f.createErrOn != "" && cmd.Name == f.createErrOn {
		return nil, fmt.Errorf("registration rejected for %v", cmd.Name)
	}
	f.created = append(f.created, cmd)
	registered := *cmd
	registered.ID = fmt.Sprintf("cmd-%d", len(f.created))
	registered.ApplicationID = appID
	registered.GuildID = guildID
	return &registered, nil
}

func (f *fakeClient) ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.sent = append(f.sent, content)
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func newTestBot(store *fakeStore) *MenphinaBot {
	return &MenphinaBot{
		applicationID: "4242",
		store:         store,
	}
}

func channelOpt(id string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Type:  discordgo.ApplicationCommandOptionChannel,
		Name:  optionChannel,
		Value: id,
	}
}

func roleOpt(id string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Type:  discordgo.ApplicationCommandOptionRole,
		Name:  optionRole,
		Value: id,
	}
}

func emojiOpt(value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Type:  discordgo.ApplicationCommandOptionString,
		Name:  optionEmojiID,
		Value: value,
	}
}

func commandInteraction(name string, guildID string, permissions int64, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type:    discordgo.InteractionApplicationCommand,
			GuildID: guildID,
			Member: &discordgo.Member{
				User:        &discordgo.User{ID: "999"},
				Permissions: permissions,
			},
			Data: discordgo.ApplicationCommandInteractionData{
				Name:    name,
				Options: opts,
			},
		},
	}
}

func lastResponse(t *testing.T, client *fakeClient) *discordgo.InteractionResponse {
	t.Helper()
	if len(client.responses) == 0 {
		t.Fatal("expected an interaction response")
	}
	resp := client.responses[len(client.responses)-1]
	if resp.Type != discordgo.InteractionResponseChannelMessageWithSource {
		t.Fatalf("expected channel message with source response, got type %v", resp.Type)
	}
	return resp
}

func lastContent(t *testing.T, client *fakeClient) string {
	t.Helper()
	return lastResponse(t, client).Data.Content
}
