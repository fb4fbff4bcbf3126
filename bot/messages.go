package bot

import (
	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

const pingCommand = "~ping"

//HandleMessage is called upon every received message. The only message command
//left is ~ping, kept as a cheap liveness check.
func (b *MenphinaBot) HandleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Content != pingCommand {
		return
	}
	if _, err := s.ChannelMessageSend(m.ChannelID, "Pong!"); err != nil {
		logrus.Errorf("Failed to send ping response due to error %v", err)
	}
}
