package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/menphina-bot/menphina/guildmodels"
	"github.com/sirupsen/logrus"
)

//Literal names of the administrative slash commands.
const (
	CommandRoleReactions      = "rolereactions"
	CommandAddRoleReaction    = "addrolereaction"
	CommandRemoveRoleReaction = "removerolereaction"
	CommandSetEurekaRole      = "seteurekarole"
	CommandUnsetEurekaRole    = "unseteurekarole"
	CommandSetBozjaRole       = "setbozjarole"
	CommandUnsetBozjaRole     = "unsetbozjarole"
)

//flagCommand describes one of the set/unset commands toggling a named flag on
//registered role reactions.
type flagCommand struct {
	flag  guildmodels.RuleFlag
	value bool
}

//flagCommands maps command names to the flag mutation they perform.
var flagCommands = map[string]flagCommand{
	CommandSetEurekaRole:   {flag: guildmodels.RuleFlagEureka, value: true},
	CommandUnsetEurekaRole: {flag: guildmodels.RuleFlagEureka, value: false},
	CommandSetBozjaRole:    {flag: guildmodels.RuleFlagBozja, value: true},
	CommandUnsetBozjaRole:  {flag: guildmodels.RuleFlagBozja, value: false},
}

func channelOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionChannel,
		Name:        optionChannel,
		Description: description,
		Required:    true,
	}
}

func roleOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionRole,
		Name:        optionRole,
		Description: description,
		Required:    true,
	}
}

//commandCatalog returns the full set of slash commands this bot publishes, in
//registration order.
func commandCatalog() []*discordgo.ApplicationCommand {
	catalog := []*discordgo.ApplicationCommand{
		{
			Name:        CommandRoleReactions,
			Description: "Retrieve the list of role reactions for this guild.",
		},
		{
			Name:        CommandAddRoleReaction,
			Description: "Add a role reaction to this guild.",
			Options: []*discordgo.ApplicationCommandOption{
				channelOption("The channel to add a role reaction to."),
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        optionEmojiID,
					Description: "The ID of the emoji to add a reaction with.",
					Required:    true,
				},
				roleOption("The role to add a reaction for."),
			},
		},
		{
			Name:        CommandRemoveRoleReaction,
			Description: "Remove a role reaction from this guild.",
			Options: []*discordgo.ApplicationCommandOption{
				channelOption("The channel to remove the role reaction from."),
				roleOption("The role to remove the reaction for."),
			},
		},
	}
	for _, spec := range []struct {
		name string
		flag guildmodels.RuleFlag
		set  bool
	}{
		{CommandSetEurekaRole, guildmodels.RuleFlagEureka, true},
		{CommandUnsetEurekaRole, guildmodels.RuleFlagEureka, false},
		{CommandSetBozjaRole, guildmodels.RuleFlagBozja, true},
		{CommandUnsetBozjaRole, guildmodels.RuleFlagBozja, false},
	} {
		verb := "Sets"
		if !spec.set {
			verb = "Unsets"
		}
		catalog = append(catalog, &discordgo.ApplicationCommand{
			Name:        spec.name,
			Description: fmt.Sprintf("%v a registered role reaction as the %v special role.", verb, spec.flag),
			Options: []*discordgo.ApplicationCommandOption{
				channelOption("The channel the existing role reaction is in."),
				roleOption("The role of the existing role reaction."),
			},
		})
	}
	return catalog
}

//HandleReady is called once the gateway session is established. It publishes
//the command catalog; the bot cannot usefully run without its commands, so any
//registration failure aborts startup.
func (b *MenphinaBot) HandleReady(s *discordgo.Session, r *discordgo.Ready) {
	logrus.Infof("Logged in as %v#%v!", r.User.Username, r.User.Discriminator)
	if err := b.registerCommands(s); err != nil {
		logrus.Fatalf("Failed to register slash commands: %v", err)
	}
}

//registerCommands re-declares every catalog entry as a global application
//command. Discord deduplicates registrations by name, so re-declaring on every
//start is safe.
func (b *MenphinaBot) registerCommands(client discordClient) error {
	for _, cmd := range commandCatalog() {
		created, err := client.ApplicationCommandCreate(b.applicationID, "", cmd)
		if err != nil {
			return fmt.Errorf("failed to register slash command /%v: %v", cmd.Name, err)
		}
		logrus.Infof("Registered slash command /%v", cmd.Name)
		if err := b.store.RecordSlashCommand(created.Name, created.ID); err != nil {
			logrus.Warnf("Failed to record slash command /%v registration due to error %v", created.Name, err)
		}
	}
	return nil
}
